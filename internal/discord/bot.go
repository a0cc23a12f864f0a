// Package discord is the chat boundary: gateway session, /weather command
// registration, interaction replies and channel delivery.
package discord

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"sync"

	"github.com/bwmarrin/discordgo"

	"github.com/i474232898/weather-friend/internal/dispatcher"
	"github.com/i474232898/weather-friend/internal/logging"
)

// CommandName is the slash command users invoke.
const CommandName = "weather"

var commands = []*discordgo.ApplicationCommand{
	{
		Name:        CommandName,
		Description: "Get today's weather forecast from the Oracle",
	},
}

// Handler receives lifecycle and command events.
type Handler interface {
	OnReady()
	HandleCommand(ctx context.Context, in dispatcher.Interaction)
}

// Bot owns the gateway session.
type Bot struct {
	session *discordgo.Session
	guildID string
	log     *slog.Logger

	mu      sync.RWMutex
	handler Handler
}

// New creates a session for token. Nothing connects until Open.
// An empty guildID registers the command globally.
func New(token, guildID string, logger *slog.Logger) (*Bot, error) {
	if token == "" {
		return nil, errors.New("discord: token is required")
	}
	if logger == nil {
		logger = logging.Discard()
	}

	s, err := discordgo.New("Bot " + token)
	if err != nil {
		return nil, fmt.Errorf("discord: create session: %w", err)
	}
	s.Identify.Intents = discordgo.IntentsGuilds

	b := &Bot{
		session: s,
		guildID: guildID,
		log:     logger.With("component", "discord"),
	}
	s.AddHandler(b.onReady)
	s.AddHandler(b.onInteraction)
	return b, nil
}

// Attach sets the event handler. It must be called before Open.
func (b *Bot) Attach(h Handler) {
	b.mu.Lock()
	defer b.mu.Unlock()
	b.handler = h
}

// Open connects to the gateway.
func (b *Bot) Open() error {
	if err := b.session.Open(); err != nil {
		return fmt.Errorf("discord: open gateway: %w", err)
	}
	return nil
}

// Close disconnects from the gateway. Commands already running finish under
// their own deadline.
func (b *Bot) Close() error {
	return b.session.Close()
}

func (b *Bot) current() Handler {
	b.mu.RLock()
	defer b.mu.RUnlock()
	return b.handler
}

func (b *Bot) onReady(s *discordgo.Session, r *discordgo.Ready) {
	b.log.Info("connected to gateway", "user", r.User.String(), "guilds", len(r.Guilds))

	if _, err := s.ApplicationCommandBulkOverwrite(r.User.ID, b.guildID, commands); err != nil {
		// The daily post still works without the command.
		b.log.Error("could not register slash command", "err", err, "guild_id", b.guildID)
	} else {
		b.log.Info("slash command registered", "command", CommandName, "guild_id", b.guildID)
	}

	if h := b.current(); h != nil {
		h.OnReady()
	}
}

func (b *Bot) onInteraction(s *discordgo.Session, ic *discordgo.InteractionCreate) {
	if ic.Interaction == nil || ic.Type != discordgo.InteractionApplicationCommand {
		return
	}
	if ic.ApplicationCommandData().Name != CommandName {
		return
	}

	h := b.current()
	if h == nil {
		b.log.Warn("command received before handler attached", "interaction_id", ic.ID)
		return
	}
	h.HandleCommand(context.Background(), &interaction{session: s, i: ic.Interaction})
}
