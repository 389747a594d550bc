package telegram

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"net/http"
	"net/http/httptest"
	"strings"
	"sync"
	"testing"
	"time"

	tgbotapi "github.com/go-telegram-bot-api/telegram-bot-api/v5"
	"github.com/google/uuid"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/Skotchmaster/chat_shop/services/order/internal/bot"
)

const testToken = "123:abc"

type call struct {
	Method string
	Form   map[string]string
}

type fakeAPI struct {
	mu      sync.Mutex
	calls   []call
	updates []tgbotapi.Update
	nextID  int
}

func (f *fakeAPI) record(method string, r *http.Request) call {
	_ = r.ParseForm()
	c := call{Method: method, Form: map[string]string{}}
	for k := range r.PostForm {
		c.Form[k] = r.PostForm.Get(k)
	}
	f.mu.Lock()
	f.calls = append(f.calls, c)
	f.mu.Unlock()
	return c
}

func (f *fakeAPI) find(method string) []call {
	f.mu.Lock()
	defer f.mu.Unlock()
	var out []call
	for _, c := range f.calls {
		if c.Method == method {
			out = append(out, c)
		}
	}
	return out
}

func writeOK(w http.ResponseWriter, result any) {
	raw, _ := json.Marshal(result)
	_ = json.NewEncoder(w).Encode(map[string]any{"ok": true, "result": json.RawMessage(raw)})
}

func writeFail(w http.ResponseWriter, desc string) {
	_ = json.NewEncoder(w).Encode(map[string]any{"ok": false, "error_code": 400, "description": desc})
}

func (f *fakeAPI) ServeHTTP(w http.ResponseWriter, r *http.Request) {
	if strings.HasPrefix(r.URL.Path, "/file/bot"+testToken+"/") {
		if strings.HasSuffix(r.URL.Path, "/photos/receipt.jpg") {
			_, _ = w.Write([]byte("jpeg-bytes"))
			return
		}
		http.NotFound(w, r)
		return
	}

	method := strings.TrimPrefix(r.URL.Path, "/bot"+testToken+"/")
	c := f.record(method, r)

	switch method {
	case "getMe":
		writeOK(w, map[string]any{"id": 1, "is_bot": true, "first_name": "Shop", "username": "shop_bot"})
	case "sendMessage":
		f.mu.Lock()
		f.nextID++
		id := f.nextID
		f.mu.Unlock()
		writeOK(w, map[string]any{"message_id": id, "date": 0, "chat": map[string]any{"id": 42, "type": "private"}})
	case "editMessageText":
		if c.Form["text"] == "same" {
			writeFail(w, "Bad Request: message is not modified: specified new message content and reply markup are exactly the same")
			return
		}
		writeOK(w, map[string]any{"message_id": 7, "date": 0, "chat": map[string]any{"id": 42, "type": "private"}})
	case "answerCallbackQuery", "setWebhook", "deleteWebhook":
		writeOK(w, true)
	case "getFile":
		if c.Form["file_id"] == "slow" {
			time.Sleep(time.Second)
		}
		if c.Form["file_id"] == "gone" {
			writeFail(w, "Bad Request: invalid file_id")
			return
		}
		writeOK(w, map[string]any{"file_id": c.Form["file_id"], "file_path": "photos/" + c.Form["file_id"] + ".jpg"})
	case "getUpdates":
		f.mu.Lock()
		batch := f.updates
		f.updates = nil
		f.mu.Unlock()
		if batch == nil {
			batch = []tgbotapi.Update{}
		}
		writeOK(w, batch)
	default:
		writeFail(w, "Not Found: method "+method)
	}
}

func newTestClient(t *testing.T) (*Client, *fakeAPI) {
	t.Helper()
	api := &fakeAPI{}
	srv := httptest.NewServer(api)
	t.Cleanup(srv.Close)

	c, err := New(testToken, Options{
		APIEndpoint:  srv.URL + "/bot%s/%s",
		FileEndpoint: srv.URL + "/file/bot%s/%s",
		HTTPClient:   srv.Client(),
	})
	require.NoError(t, err)
	return c, api
}

func TestNew_RejectsEmptyToken(t *testing.T) {
	t.Parallel()

	_, err := New(" ", Options{})
	assert.Error(t, err)
}

func TestClient_SendWithKeyboard(t *testing.T) {
	t.Parallel()

	c, api := newTestClient(t)
	assert.Equal(t, "shop_bot", c.Username())

	pid := uuid.New()
	kb := bot.Keyboard{{{Text: "Add", Action: bot.Action{Kind: bot.ActionAddCart, ProductID: pid}}}}
	id, err := c.Send(context.Background(), "42", "hello", kb)
	require.NoError(t, err)
	assert.Equal(t, 1, id)

	sent := api.find("sendMessage")
	require.Len(t, sent, 1)
	assert.Equal(t, "42", sent[0].Form["chat_id"])
	assert.Equal(t, "hello", sent[0].Form["text"])
	assert.Contains(t, sent[0].Form["reply_markup"], "ADD_CART|"+pid.String())

	_, err = c.SendText(context.Background(), "not-a-number", "x")
	assert.Error(t, err)
}

func TestClient_EditIgnoresUnchangedMessage(t *testing.T) {
	t.Parallel()

	c, api := newTestClient(t)
	require.NoError(t, c.Edit(context.Background(), "42", 7, "same", nil))
	require.NoError(t, c.Edit(context.Background(), "42", 7, "new text", nil))
	assert.Len(t, api.find("editMessageText"), 2)
}

func TestClient_AnswerAndAskContact(t *testing.T) {
	t.Parallel()

	c, api := newTestClient(t)
	require.NoError(t, c.Answer(context.Background(), "cb-1", "Limit reached.", true))
	answers := api.find("answerCallbackQuery")
	require.Len(t, answers, 1)
	assert.Equal(t, "cb-1", answers[0].Form["callback_query_id"])
	assert.Equal(t, "true", answers[0].Form["show_alert"])

	require.NoError(t, c.AskContact(context.Background(), "42", "Register", "Share phone"))
	sent := api.find("sendMessage")
	require.Len(t, sent, 1)
	assert.Contains(t, sent[0].Form["reply_markup"], `"request_contact":true`)
}

func TestClient_Fetch(t *testing.T) {
	t.Parallel()

	c, _ := newTestClient(t)

	body, err := c.Fetch(context.Background(), "receipt")
	require.NoError(t, err)
	data, err := io.ReadAll(body)
	require.NoError(t, err)
	require.NoError(t, body.Close())
	assert.Equal(t, "jpeg-bytes", string(data))

	_, err = c.Fetch(context.Background(), "missing")
	assert.ErrorIs(t, err, ErrDownload)

	_, err = c.Fetch(context.Background(), "gone")
	assert.ErrorIs(t, err, ErrDownload)
}

func TestClient_FetchHonoursContext(t *testing.T) {
	t.Parallel()

	c, api := newTestClient(t)

	cancelled, cancel := context.WithCancel(context.Background())
	cancel()
	_, err := c.Fetch(cancelled, "receipt")
	assert.ErrorIs(t, err, ErrDownload)
	assert.Empty(t, api.find("getFile"), "no lookup once the context is done")

	ctx, stop := context.WithTimeout(context.Background(), 50*time.Millisecond)
	defer stop()
	start := time.Now()
	_, err = c.Fetch(ctx, "slow")
	assert.ErrorIs(t, err, ErrDownload)
	assert.Less(t, time.Since(start), 900*time.Millisecond)
}

func TestClient_SetWebhook(t *testing.T) {
	t.Parallel()

	c, api := newTestClient(t)
	require.NoError(t, c.SetWebhook("https://shop.example/bot/webhook/s3cret"))
	require.NoError(t, c.SetWebhook(""))

	set := api.find("setWebhook")
	require.Len(t, set, 1)
	assert.Equal(t, "https://shop.example/bot/webhook/s3cret", set[0].Form["url"])
	assert.Len(t, api.find("deleteWebhook"), 1)
}

func TestClient_PollFeedsPool(t *testing.T) {
	t.Parallel()

	c, api := newTestClient(t)
	api.updates = []tgbotapi.Update{
		{UpdateID: 7, Message: &tgbotapi.Message{
			MessageID: 1,
			From:      &tgbotapi.User{ID: 42, FirstName: "Ana"},
			Chat:      &tgbotapi.Chat{ID: 42, Type: "private"},
			Text:      "hi",
		}},
	}

	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()

	got := make(chan bot.Update, 1)
	pool := NewPool(2, func(_ context.Context, u bot.Update) {
		got <- u
		cancel()
	})
	pool.Start(ctx)

	require.NoError(t, c.Poll(ctx, pool))
	pool.Close()

	select {
	case u := <-got:
		assert.Equal(t, bot.UpdateText, u.Kind)
		assert.Equal(t, "42", u.ChatID)
	case <-time.After(time.Second):
		t.Fatal("update was not handled")
	}

	polls := api.find("getUpdates")
	require.NotEmpty(t, polls)
	if len(polls) > 1 {
		assert.Equal(t, "8", polls[1].Form["offset"])
	}
}

func TestPool_KeepsPerChatOrder(t *testing.T) {
	t.Parallel()

	var (
		mu   sync.Mutex
		seen = map[string][]string{}
	)
	pool := NewPool(4, func(_ context.Context, u bot.Update) {
		mu.Lock()
		seen[u.ChatID] = append(seen[u.ChatID], u.Text)
		mu.Unlock()
	})
	pool.Start(context.Background())

	for i := 0; i < 50; i++ {
		for _, chat := range []string{"1", "2", "3"} {
			require.True(t, pool.Submit(context.Background(), bot.Update{Kind: bot.UpdateText, ChatID: chat, Text: fmt.Sprint(i)}))
		}
	}
	pool.Close()

	for _, chat := range []string{"1", "2", "3"} {
		require.Len(t, seen[chat], 50)
		for i, text := range seen[chat] {
			assert.Equal(t, fmt.Sprint(i), text)
		}
	}
	assert.False(t, pool.Submit(context.Background(), bot.Update{Kind: bot.UpdateText, ChatID: "1"}))
}

func TestPool_RecoversFromPanics(t *testing.T) {
	t.Parallel()

	var n int
	pool := NewPool(1, func(_ context.Context, u bot.Update) {
		n++
		if u.Text == "boom" {
			panic(errors.New("boom"))
		}
	})
	pool.Start(context.Background())
	pool.Submit(context.Background(), bot.Update{Kind: bot.UpdateText, ChatID: "1", Text: "boom"})
	pool.Submit(context.Background(), bot.Update{Kind: bot.UpdateText, ChatID: "1", Text: "ok"})
	pool.Close()

	assert.Equal(t, 2, n)
}
