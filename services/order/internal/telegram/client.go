package telegram

import (
	"context"
	"errors"
	"fmt"
	"io"
	"net/http"
	"strconv"
	"strings"
	"time"

	tgbotapi "github.com/go-telegram-bot-api/telegram-bot-api/v5"

	"github.com/Skotchmaster/chat_shop/services/order/internal/bot"
)

const (
	defaultFileEndpoint = "https://api.telegram.org/file/bot%s/%s"
	pollTimeoutSeconds  = 25
)

var ErrDownload = errors.New("file download failed")

type Options struct {
	// APIEndpoint and FileEndpoint are printf formats taking the token and a method or path.
	APIEndpoint  string
	FileEndpoint string
	HTTPClient   *http.Client
}

// Client adapts the Telegram Bot API to the bot, notify and proof services.
type Client struct {
	api          *tgbotapi.BotAPI
	files        *http.Client
	fileEndpoint string
}

func New(token string, opts Options) (*Client, error) {
	if strings.TrimSpace(token) == "" {
		return nil, errors.New("telegram: empty bot token")
	}
	if opts.APIEndpoint == "" {
		opts.APIEndpoint = tgbotapi.APIEndpoint
	}
	if opts.FileEndpoint == "" {
		opts.FileEndpoint = defaultFileEndpoint
	}
	if opts.HTTPClient == nil {
		opts.HTTPClient = &http.Client{
			Timeout: (pollTimeoutSeconds + 10) * time.Second,
			Transport: &http.Transport{
				MaxIdleConns:        100,
				MaxIdleConnsPerHost: 10,
				IdleConnTimeout:     90 * time.Second,
			},
		}
	}

	api, err := tgbotapi.NewBotAPIWithClient(token, opts.APIEndpoint, opts.HTTPClient)
	if err != nil {
		return nil, fmt.Errorf("telegram: connect: %w", err)
	}
	return &Client{api: api, files: opts.HTTPClient, fileEndpoint: opts.FileEndpoint}, nil
}

func (c *Client) Username() string {
	return c.api.Self.UserName
}

func parseChatID(chatID string) (int64, error) {
	id, err := strconv.ParseInt(chatID, 10, 64)
	if err != nil {
		return 0, fmt.Errorf("telegram: bad chat id %q", chatID)
	}
	return id, nil
}

func inlineMarkup(kb bot.Keyboard) tgbotapi.InlineKeyboardMarkup {
	rows := make([][]tgbotapi.InlineKeyboardButton, 0, len(kb))
	for _, row := range kb {
		buttons := make([]tgbotapi.InlineKeyboardButton, 0, len(row))
		for _, b := range row {
			buttons = append(buttons, tgbotapi.NewInlineKeyboardButtonData(b.Text, b.Action.Encode()))
		}
		rows = append(rows, buttons)
	}
	return tgbotapi.NewInlineKeyboardMarkup(rows...)
}

func (c *Client) Send(ctx context.Context, chatID, text string, kb bot.Keyboard) (int, error) {
	if err := ctx.Err(); err != nil {
		return 0, err
	}
	id, err := parseChatID(chatID)
	if err != nil {
		return 0, err
	}
	msg := tgbotapi.NewMessage(id, text)
	if len(kb) > 0 {
		msg.ReplyMarkup = inlineMarkup(kb)
	}
	sent, err := c.api.Send(msg)
	if err != nil {
		return 0, fmt.Errorf("telegram: send: %w", err)
	}
	return sent.MessageID, nil
}

// SendText satisfies notify.Sender.
func (c *Client) SendText(ctx context.Context, chatID, text string) (int, error) {
	return c.Send(ctx, chatID, text, nil)
}

func (c *Client) Edit(ctx context.Context, chatID string, messageID int, text string, kb bot.Keyboard) error {
	if err := ctx.Err(); err != nil {
		return err
	}
	id, err := parseChatID(chatID)
	if err != nil {
		return err
	}
	var edit tgbotapi.EditMessageTextConfig
	if len(kb) > 0 {
		edit = tgbotapi.NewEditMessageTextAndMarkup(id, messageID, text, inlineMarkup(kb))
	} else {
		edit = tgbotapi.NewEditMessageText(id, messageID, text)
	}
	if _, err := c.api.Request(edit); err != nil {
		// the same card re-rendered is not a failure
		if strings.Contains(err.Error(), "message is not modified") {
			return nil
		}
		return fmt.Errorf("telegram: edit: %w", err)
	}
	return nil
}

func (c *Client) AskContact(ctx context.Context, chatID, text, buttonText string) error {
	if err := ctx.Err(); err != nil {
		return err
	}
	id, err := parseChatID(chatID)
	if err != nil {
		return err
	}
	kb := tgbotapi.NewOneTimeReplyKeyboard(
		tgbotapi.NewKeyboardButtonRow(tgbotapi.NewKeyboardButtonContact(buttonText)),
	)
	kb.ResizeKeyboard = true
	msg := tgbotapi.NewMessage(id, text)
	msg.ReplyMarkup = kb
	if _, err := c.api.Send(msg); err != nil {
		return fmt.Errorf("telegram: ask contact: %w", err)
	}
	return nil
}

func (c *Client) Answer(ctx context.Context, callbackID, text string, alert bool) error {
	if err := ctx.Err(); err != nil {
		return err
	}
	cb := tgbotapi.NewCallback(callbackID, text)
	cb.ShowAlert = alert
	if _, err := c.api.Request(cb); err != nil {
		return fmt.Errorf("telegram: answer callback: %w", err)
	}
	return nil
}

// Fetch downloads a chat file by its file id. The caller closes the body.
func (c *Client) Fetch(ctx context.Context, fileID string) (io.ReadCloser, error) {
	f, err := c.resolveFile(ctx, fileID)
	if err != nil {
		return nil, err
	}
	if f.FilePath == "" {
		return nil, fmt.Errorf("%w: %s has no path", ErrDownload, fileID)
	}

	url := fmt.Sprintf(c.fileEndpoint, c.api.Token, f.FilePath)
	req, err := http.NewRequestWithContext(ctx, http.MethodGet, url, nil)
	if err != nil {
		return nil, fmt.Errorf("create request: %w", err)
	}
	resp, err := c.files.Do(req)
	if err != nil {
		return nil, fmt.Errorf("%w: %v", ErrDownload, err)
	}
	if resp.StatusCode != http.StatusOK {
		resp.Body.Close()
		return nil, fmt.Errorf("%w: status %d", ErrDownload, resp.StatusCode)
	}
	return resp.Body, nil
}

type fileResult struct {
	file tgbotapi.File
	err  error
}

// resolveFile looks up the download path of fileID. GetFile takes no context,
// so the lookup runs aside and ctx bounds the wait.
func (c *Client) resolveFile(ctx context.Context, fileID string) (tgbotapi.File, error) {
	if err := ctx.Err(); err != nil {
		return tgbotapi.File{}, fmt.Errorf("%w: resolve %s: %v", ErrDownload, fileID, err)
	}
	done := make(chan fileResult, 1)
	go func() {
		f, err := c.api.GetFile(tgbotapi.FileConfig{FileID: fileID})
		done <- fileResult{file: f, err: err}
	}()
	select {
	case <-ctx.Done():
		return tgbotapi.File{}, fmt.Errorf("%w: resolve %s: %v", ErrDownload, fileID, ctx.Err())
	case res := <-done:
		if res.err != nil {
			return tgbotapi.File{}, fmt.Errorf("%w: resolve %s: %v", ErrDownload, fileID, res.err)
		}
		return res.file, nil
	}
}

// SetWebhook registers url with Telegram. An empty url removes the webhook so
// that long polling works again.
func (c *Client) SetWebhook(url string) error {
	if url == "" {
		if _, err := c.api.Request(tgbotapi.DeleteWebhookConfig{}); err != nil {
			return fmt.Errorf("telegram: delete webhook: %w", err)
		}
		return nil
	}
	wh, err := tgbotapi.NewWebhook(url)
	if err != nil {
		return fmt.Errorf("telegram: webhook url: %w", err)
	}
	if _, err := c.api.Request(wh); err != nil {
		return fmt.Errorf("telegram: set webhook: %w", err)
	}
	return nil
}
