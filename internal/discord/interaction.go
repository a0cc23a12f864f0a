package discord

import (
	"context"

	"github.com/bwmarrin/discordgo"

	"github.com/i474232898/weather-friend/internal/presentation"
)

// sender is the slice of *discordgo.Session used for replies and posts.
type sender interface {
	InteractionRespond(i *discordgo.Interaction, r *discordgo.InteractionResponse, options ...discordgo.RequestOption) error
	FollowupMessageCreate(i *discordgo.Interaction, wait bool, data *discordgo.WebhookParams, options ...discordgo.RequestOption) (*discordgo.Message, error)
	ChannelMessageSendEmbed(channelID string, embed *discordgo.MessageEmbed, options ...discordgo.RequestOption) (*discordgo.Message, error)
}

// interaction adapts one application command invocation.
type interaction struct {
	session sender
	i       *discordgo.Interaction
}

func (in *interaction) Defer(ctx context.Context) error {
	return in.session.InteractionRespond(in.i, &discordgo.InteractionResponse{
		Type: discordgo.InteractionResponseDeferredChannelMessageWithSource,
	}, discordgo.WithContext(ctx))
}

func (in *interaction) Followup(ctx context.Context, p presentation.Payload) error {
	_, err := in.session.FollowupMessageCreate(in.i, false, &discordgo.WebhookParams{
		Embeds: []*discordgo.MessageEmbed{toEmbed(p)},
	}, discordgo.WithContext(ctx))
	return err
}

func (in *interaction) FollowupText(ctx context.Context, text string) error {
	_, err := in.session.FollowupMessageCreate(in.i, false, &discordgo.WebhookParams{
		Content: text,
	}, discordgo.WithContext(ctx))
	return err
}

// RespondText sends an ephemeral initial response.
func (in *interaction) RespondText(ctx context.Context, text string) error {
	return in.session.InteractionRespond(in.i, &discordgo.InteractionResponse{
		Type: discordgo.InteractionResponseChannelMessageWithSource,
		Data: &discordgo.InteractionResponseData{
			Content: text,
			Flags:   discordgo.MessageFlagsEphemeral,
		},
	}, discordgo.WithContext(ctx))
}

func toEmbed(p presentation.Payload) *discordgo.MessageEmbed {
	fields := make([]*discordgo.MessageEmbedField, 0, len(p.Fields))
	for _, f := range p.Fields {
		fields = append(fields, &discordgo.MessageEmbedField{
			Name:   f.Name,
			Value:  f.Value,
			Inline: f.Inline,
		})
	}

	e := &discordgo.MessageEmbed{
		Title:       p.Title,
		Description: p.Description,
		Color:       p.Color,
		Fields:      fields,
	}
	if p.ThumbnailURL != "" {
		e.Thumbnail = &discordgo.MessageEmbedThumbnail{URL: p.ThumbnailURL}
	}
	if p.Footer != "" {
		e.Footer = &discordgo.MessageEmbedFooter{Text: p.Footer}
	}
	return e
}
