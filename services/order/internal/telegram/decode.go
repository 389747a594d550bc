package telegram

import (
	"strconv"
	"strings"

	tgbotapi "github.com/go-telegram-bot-api/telegram-bot-api/v5"

	"github.com/Skotchmaster/chat_shop/services/order/internal/bot"
)

func formatID(id int64) string {
	return strconv.FormatInt(id, 10)
}

// Decode maps a raw Telegram update onto bot.Update. Group chats, channel posts
// and anything without a sender come back as UpdateIgnored.
func Decode(u tgbotapi.Update) bot.Update {
	switch {
	case u.CallbackQuery != nil:
		return decodeCallback(u.CallbackQuery)
	case u.Message != nil:
		return decodeMessage(u.Message)
	}
	return bot.Update{Kind: bot.UpdateIgnored}
}

func decodeCallback(q *tgbotapi.CallbackQuery) bot.Update {
	if q.From == nil {
		return bot.Update{Kind: bot.UpdateIgnored}
	}
	out := bot.Update{
		Kind:       bot.UpdateCallback,
		ChatID:     formatID(q.From.ID),
		UserID:     formatID(q.From.ID),
		FirstName:  q.From.FirstName,
		LastName:   q.From.LastName,
		CallbackID: q.ID,
		Data:       q.Data,
	}
	if q.Message != nil {
		if q.Message.Chat != nil {
			if !q.Message.Chat.IsPrivate() {
				return bot.Update{Kind: bot.UpdateIgnored}
			}
			out.ChatID = formatID(q.Message.Chat.ID)
		}
		out.MessageID = q.Message.MessageID
	}
	return out
}

func decodeMessage(m *tgbotapi.Message) bot.Update {
	if m.From == nil || m.Chat == nil || !m.Chat.IsPrivate() {
		return bot.Update{Kind: bot.UpdateIgnored}
	}
	out := bot.Update{
		ChatID:    formatID(m.Chat.ID),
		UserID:    formatID(m.From.ID),
		FirstName: m.From.FirstName,
		LastName:  m.From.LastName,
		MessageID: m.MessageID,
	}

	switch {
	case m.IsCommand():
		out.Kind = bot.UpdateCommand
		out.Command = strings.ToLower(m.Command())
		out.Args = strings.TrimSpace(m.CommandArguments())
	case m.Contact != nil:
		out.Kind = bot.UpdateContact
		out.Contact = bot.SharedContact{
			Phone:     m.Contact.PhoneNumber,
			FirstName: m.Contact.FirstName,
			LastName:  m.Contact.LastName,
		}
		if m.Contact.UserID != 0 {
			out.Contact.UserID = formatID(m.Contact.UserID)
		}
	case len(m.Photo) > 0:
		out.Kind = bot.UpdatePhoto
		out.PhotoFileID = largestPhoto(m.Photo).FileID
	case m.Document != nil && strings.HasPrefix(m.Document.MimeType, "image/"):
		out.Kind = bot.UpdatePhoto
		out.PhotoFileID = m.Document.FileID
	case m.Text != "":
		out.Kind = bot.UpdateText
		out.Text = m.Text
	default:
		out.Kind = bot.UpdateIgnored
	}
	return out
}

func largestPhoto(sizes []tgbotapi.PhotoSize) tgbotapi.PhotoSize {
	best := sizes[0]
	for _, s := range sizes[1:] {
		if s.Width*s.Height > best.Width*best.Height {
			best = s
		}
	}
	return best
}
