package telegram

import (
	"context"
	"fmt"
	"time"

	"github.com/sirupsen/logrus"
	tele "gopkg.in/telebot.v3"

	"github.com/pershin-daniil/LabLoans/pkg/models"
)

// Store is the read access the staff bot needs.
type Store interface {
	ListRequests(ctx context.Context, filter models.RequestFilter) ([]models.Request, error)
}

// Telegram is a small staff bot bound to one chat. It answers only there.
type Telegram struct {
	log   *logrus.Entry
	bot   *tele.Bot
	chat  tele.ChatID
	store Store
}

// Notifier posts messages to the staff chat.
type Notifier struct {
	log  *logrus.Entry
	bot  *tele.Bot
	chat tele.ChatID
}

func NewNotifier(log *logrus.Logger, bot *tele.Bot, chatID int64) *Notifier {
	return &Notifier{
		log:  log.WithField("component", "notifier"),
		bot:  bot,
		chat: tele.ChatID(chatID),
	}
}

func New(log *logrus.Logger, bot *tele.Bot, chatID int64, store Store) *Telegram {
	t := Telegram{
		log:   log.WithField("component", "telegram"),
		bot:   bot,
		chat:  tele.ChatID(chatID),
		store: store,
	}
	t.initButtons()
	t.initHandlers()
	return &t
}

func NewBot(token string) (*tele.Bot, error) {
	config := tele.Settings{
		Token:  token,
		Poller: &tele.LongPoller{Timeout: 10 * time.Second},
	}
	b, err := tele.NewBot(config)
	if err != nil {
		return nil, fmt.Errorf("new bot failed: %w", err)
	}
	return b, nil
}

func (n *Notifier) Notify(ctx context.Context, msg string) error {
	if err := ctx.Err(); err != nil {
		return err
	}
	if _, err := n.bot.Send(n.chat, msg); err != nil {
		return fmt.Errorf("tg send message failed: %w", err)
	}
	n.log.Debugf("notification sent to chat %d", n.chat)
	return nil
}

func (t *Telegram) Run(ctx context.Context) {
	go func() {
		<-ctx.Done()
		t.bot.Stop()
	}()
	t.log.Infof("Starting telegram bot as %v", t.bot.Me.Username)
	t.bot.Start()
}
