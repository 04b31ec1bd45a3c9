package gateway

import (
	"context"
	"fmt"
	"log"
	"strings"

	tgbotapi "github.com/go-telegram-bot-api/telegram-bot-api/v5"

	"github.com/rahul/saarthi/internal/bus"
	"github.com/rahul/saarthi/internal/router"
)

const telegramSessionPrefix = "tg:"

// TelegramGateway bridges Telegram chats and the router. Each chat is
// one session. Besides the per-message response, it subscribes to the
// broadcast bus so multi-step flows (searches) reach the chat too.
type TelegramGateway struct {
	Bot    *tgbotapi.BotAPI
	Router *router.Router
	Bus    *bus.Bus
	subID  bus.SubscriptionID
}

func NewTelegramGateway(token string, r *router.Router, b *bus.Bus) (*TelegramGateway, error) {
	bot, err := tgbotapi.NewBotAPI(token)
	if err != nil {
		return nil, err
	}

	log.Printf("Authorized on account %s", bot.Self.UserName)

	return &TelegramGateway{
		Bot:    bot,
		Router: r,
		Bus:    b,
	}, nil
}

func (tg *TelegramGateway) Start() error {
	tg.subID = tg.Bus.Subscribe(func(msg bus.Broadcast) {
		if !strings.HasPrefix(msg.SessionID, telegramSessionPrefix) {
			return
		}
		if err := tg.Send(msg.SessionID, msg.Text); err != nil {
			log.Printf("Error delivering broadcast: %v", err)
		}
	})

	u := tgbotapi.NewUpdate(0)
	u.Timeout = 60

	updates := tg.Bot.GetUpdatesChan(u)

	for update := range updates {
		if update.Message == nil {
			continue
		}

		log.Printf("[%s] %s", update.Message.From.UserName, update.Message.Text)

		sessionID := fmt.Sprintf("%s%d", telegramSessionPrefix, update.Message.Chat.ID)
		chatID := update.Message.Chat.ID

		msg := router.Inbound{
			Type:      router.TypeSendMessage,
			Text:      update.Message.Text,
			SessionID: sessionID,
		}

		// The router decides before any async work whether the
		// callback fires now or later; either way it fires exactly
		// once.
		tg.Router.Route(context.Background(), msg, func(out router.Outbound) {
			text := out.Text
			if out.Type == router.TypeError {
				text = "⚠️ " + out.Message
			}
			reply := tgbotapi.NewMessage(chatID, text)
			if _, err := tg.Bot.Send(reply); err != nil {
				log.Printf("Error sending reply: %v", err)
			}
		})
	}
	return nil
}

func (tg *TelegramGateway) Send(sessionID string, text string) error {
	raw := strings.TrimPrefix(sessionID, telegramSessionPrefix)
	id := int64(0)
	fmt.Sscanf(raw, "%d", &id)
	if id == 0 {
		return fmt.Errorf("invalid session ID: %s", sessionID)
	}

	msg := tgbotapi.NewMessage(id, text)
	msg.ParseMode = "Markdown"
	_, err := tg.Bot.Send(msg)
	return err
}

func (tg *TelegramGateway) Stop() error {
	tg.Bus.Unsubscribe(tg.subID)
	tg.Bot.StopReceivingUpdates()
	return nil
}
