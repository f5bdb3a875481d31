package telegram

import (
	"time"

	"gopkg.in/telebot.v3"
)

// AlertClient pushes operational messages (sweep summaries, failures) to an
// admin chat via the gopkg.in/telebot.v3 library. It satisfies the
// scheduler's Alerter interface.
type AlertClient struct {
	bot    *telebot.Bot
	chatID int64
}

// NewAlertClient builds the Telegram alert channel. The bot only sends; no
// poller is started.
func NewAlertClient(token string, chatID int64) (*AlertClient, error) {
	bot, err := telebot.NewBot(telebot.Settings{
		Token:  token,
		Poller: &telebot.LongPoller{Timeout: 10 * time.Second},
	})
	if err != nil {
		return nil, err
	}
	return &AlertClient{bot: bot, chatID: chatID}, nil
}

// SendAlert sends a plain text message to the configured admin chat.
func (c *AlertClient) SendAlert(text string) error {
	recipient := &telebot.User{ID: c.chatID}
	_, err := c.bot.Send(recipient, text, &telebot.SendOptions{})
	return err
}
