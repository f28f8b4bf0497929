package telegram

import (
	"context"
	"errors"
	"fmt"
	"io"
	"net/http"
	"strings"
	"time"
	"unicode/utf16"

	"anonmatch/backend/internal/chathub"
	"anonmatch/backend/internal/config"

	tgbotapi "github.com/go-telegram-bot-api/telegram-bot-api/v5"
)

// API is the part of *tgbotapi.BotAPI the bot talks to.
type API interface {
	Send(c tgbotapi.Chattable) (tgbotapi.Message, error)
	Request(c tgbotapi.Chattable) (*tgbotapi.APIResponse, error)
}

// Client implements chathub.Sender on top of the Bot API.
type Client struct {
	BotAPI API
}

func NewClient(api API) *Client {
	return &Client{BotAPI: api}
}

// Send delivers a plain text message. Without a keyboard any custom reply
// keyboard is removed.
func (c *Client) Send(ctx context.Context, userID int64, text string, keyboard [][]chathub.Button) error {
	if err := ctx.Err(); err != nil {
		return err
	}

	msg := tgbotapi.NewMessage(userID, truncateMessage(text))
	if len(keyboard) > 0 {
		msg.ReplyMarkup = inlineKeyboard(keyboard)
	} else {
		msg.ReplyMarkup = tgbotapi.NewRemoveKeyboard(true)
	}

	_, err := c.BotAPI.Send(msg)
	return mapSendError(err)
}

// maxMessageLength is the Bot API text limit, counted in UTF-16 code units.
const maxMessageLength = 4096

// unreachableReasons are the 400 descriptions that concern the recipient
// rather than the message itself.
var unreachableReasons = []string{
	"chat not found",
	"user not found",
	"user is deactivated",
	"peer_id_invalid",
}

// truncateMessage cuts text to maxMessageLength without splitting a rune.
func truncateMessage(text string) string {
	units := 0
	for i, r := range text {
		n := utf16.RuneLen(r)
		if units+n > maxMessageLength {
			return text[:i]
		}
		units += n
	}
	return text
}

// mapSendError turns "forbidden" answers (bot blocked, user deactivated) and
// recipient-specific "bad request" answers into chathub.ErrRecipientUnreachable.
// Other bad requests, e.g. a message that is too long, are returned as is.
func mapSendError(err error) error {
	if err == nil {
		return nil
	}
	var apiErr *tgbotapi.Error
	if !errors.As(err, &apiErr) {
		return err
	}
	switch apiErr.Code {
	case http.StatusForbidden:
		return fmt.Errorf("%w: %s", chathub.ErrRecipientUnreachable, apiErr.Message)
	case http.StatusBadRequest:
		desc := strings.ToLower(apiErr.Message)
		for _, reason := range unreachableReasons {
			if strings.Contains(desc, reason) {
				return fmt.Errorf("%w: %s", chathub.ErrRecipientUnreachable, apiErr.Message)
			}
		}
	}
	return err
}

func inlineKeyboard(rows [][]chathub.Button) tgbotapi.InlineKeyboardMarkup {
	keyboard := make([][]tgbotapi.InlineKeyboardButton, 0, len(rows))
	for _, row := range rows {
		buttons := make([]tgbotapi.InlineKeyboardButton, 0, len(row))
		for _, b := range row {
			buttons = append(buttons, tgbotapi.NewInlineKeyboardButtonData(b.Label, b.Payload))
		}
		keyboard = append(keyboard, tgbotapi.NewInlineKeyboardRow(buttons...))
	}
	return tgbotapi.NewInlineKeyboardMarkup(keyboard...)
}

// NewBotAPI authorizes the bot. Every Bot API call is bounded: long polling
// by the polling timeout plus a margin, everything else by SendTimeout, so a
// stalled delivery cannot block a handler indefinitely.
func NewBotAPI(cfg config.TelegramConfig) (*tgbotapi.BotAPI, error) {
	httpClient := &deadlineClient{
		client: &http.Client{},
		send:   cfg.SendTimeout,
		poll:   time.Duration(cfg.PollingTimeout)*time.Second + pollMargin,
	}
	bot, err := tgbotapi.NewBotAPIWithClient(cfg.Token, tgbotapi.APIEndpoint, httpClient)
	if err != nil {
		return nil, err
	}
	bot.Debug = cfg.Debug
	return bot, nil
}

const pollMargin = 10 * time.Second

// deadlineClient applies a per-request timeout chosen by Bot API method.
type deadlineClient struct {
	client *http.Client
	send   time.Duration
	poll   time.Duration
}

func (c *deadlineClient) Do(req *http.Request) (*http.Response, error) {
	timeout := c.send
	if strings.HasSuffix(req.URL.Path, "/getUpdates") {
		timeout = c.poll
	}
	if timeout <= 0 {
		return c.client.Do(req)
	}

	ctx, cancel := context.WithTimeout(req.Context(), timeout)
	resp, err := c.client.Do(req.WithContext(ctx))
	if err != nil {
		cancel()
		return nil, err
	}
	resp.Body = &cancelOnClose{ReadCloser: resp.Body, cancel: cancel}
	return resp, nil
}

type cancelOnClose struct {
	io.ReadCloser
	cancel context.CancelFunc
}

func (b *cancelOnClose) Close() error {
	err := b.ReadCloser.Close()
	b.cancel()
	return err
}
