package discord

import (
	"context"

	"github.com/bwmarrin/discordgo"

	"github.com/i474232898/weather-friend/internal/dispatcher"
	"github.com/i474232898/weather-friend/internal/presentation"
)

type channel struct {
	session sender
	id      string
}

func (c *channel) Send(ctx context.Context, p presentation.Payload) error {
	_, err := c.session.ChannelMessageSendEmbed(c.id, toEmbed(p), discordgo.WithContext(ctx))
	return err
}

// Resolve looks the channel up in the gateway cache, then over REST.
// ok is false when the channel is unknown or cannot hold messages.
func (b *Bot) Resolve(ctx context.Context, id string) (dispatcher.Destination, bool) {
	ch, err := b.session.State.Channel(id)
	if err != nil {
		ch, err = b.session.Channel(id, discordgo.WithContext(ctx))
		if err != nil {
			b.log.Debug("channel lookup failed", "channel_id", id, "err", err)
			return nil, false
		}
	}
	if !postable(ch.Type) {
		return nil, false
	}
	return &channel{session: b.session, id: ch.ID}, true
}

// postable reports whether messages can be sent directly to a channel type.
func postable(t discordgo.ChannelType) bool {
	switch t {
	case discordgo.ChannelTypeGuildText,
		discordgo.ChannelTypeGuildNews,
		discordgo.ChannelTypeDM,
		discordgo.ChannelTypeGroupDM,
		discordgo.ChannelTypeGuildVoice,
		discordgo.ChannelTypeGuildStageVoice,
		discordgo.ChannelTypeGuildNewsThread,
		discordgo.ChannelTypeGuildPublicThread,
		discordgo.ChannelTypeGuildPrivateThread:
		return true
	default:
		return false
	}
}
