package gateway

import (
	"context"
	"fmt"
	"log"
	"strings"

	"github.com/bwmarrin/discordgo"

	"github.com/rahul/saarthi/internal/bus"
	"github.com/rahul/saarthi/internal/router"
)

const discordSessionPrefix = "dc:"

// DiscordGateway mirrors the Telegram gateway over Discord channels.
type DiscordGateway struct {
	Session *discordgo.Session
	Router  *router.Router
	Bus     *bus.Bus
	subID   bus.SubscriptionID
}

func NewDiscordGateway(token string, r *router.Router, b *bus.Bus) (*DiscordGateway, error) {
	session, err := discordgo.New("Bot " + token)
	if err != nil {
		return nil, err
	}

	return &DiscordGateway{
		Session: session,
		Router:  r,
		Bus:     b,
	}, nil
}

func (dg *DiscordGateway) Start() error {
	dg.subID = dg.Bus.Subscribe(func(msg bus.Broadcast) {
		if !strings.HasPrefix(msg.SessionID, discordSessionPrefix) {
			return
		}
		if err := dg.Send(msg.SessionID, msg.Text); err != nil {
			log.Printf("Error delivering broadcast: %v", err)
		}
	})

	dg.Session.AddHandler(func(s *discordgo.Session, m *discordgo.MessageCreate) {
		if m.Author.ID == s.State.User.ID {
			return
		}

		log.Printf("[%s] %s", m.Author.Username, m.Content)

		sessionID := discordSessionPrefix + m.ChannelID
		channelID := m.ChannelID

		msg := router.Inbound{
			Type:      router.TypeSendMessage,
			Text:      m.Content,
			SessionID: sessionID,
		}

		dg.Router.Route(context.Background(), msg, func(out router.Outbound) {
			text := out.Text
			if out.Type == router.TypeError {
				text = "⚠️ " + out.Message
			}
			if _, err := s.ChannelMessageSend(channelID, text); err != nil {
				log.Printf("Error sending reply: %v", err)
			}
		})
	})

	dg.Session.Identify.Intents = discordgo.IntentsGuildMessages | discordgo.IntentsDirectMessages
	return dg.Session.Open()
}

func (dg *DiscordGateway) Send(sessionID string, text string) error {
	channelID := strings.TrimPrefix(sessionID, discordSessionPrefix)
	if channelID == "" || channelID == sessionID {
		return fmt.Errorf("invalid session ID: %s", sessionID)
	}
	_, err := dg.Session.ChannelMessageSend(channelID, text)
	return err
}

func (dg *DiscordGateway) Stop() error {
	dg.Bus.Unsubscribe(dg.subID)
	return dg.Session.Close()
}
