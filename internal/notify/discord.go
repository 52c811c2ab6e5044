package notify

import (
	"context"
	"fmt"
	"time"

	"github.com/bwmarrin/discordgo"
)

// Embed accent colors
const (
	colorAlarm    = 0x2E7D32 // green, like the alarm notification accent
	colorReminder = 0x9E9E9E
)

type messageSender interface {
	ChannelMessageSendComplex(channelID string, data *discordgo.MessageSend, options ...discordgo.RequestOption) (*discordgo.Message, error)
}

// DiscordPresenter posts notifications as embeds to one channel
type DiscordPresenter struct {
	session   messageSender
	channelID string
}

// NewDiscordSession creates a REST-only bot session
func NewDiscordSession(token string) (*discordgo.Session, error) {
	session, err := discordgo.New("Bot " + token)
	if err != nil {
		return nil, fmt.Errorf("failed to create discord session: %w", err)
	}
	return session, nil
}

// NewDiscordPresenter posts to channelID through session
func NewDiscordPresenter(session *discordgo.Session, channelID string) *DiscordPresenter {
	return &DiscordPresenter{session: session, channelID: channelID}
}

func (d *DiscordPresenter) Present(ctx context.Context, n Notification) error {
	color := colorReminder
	if n.Priority == PriorityHigh {
		color = colorAlarm
	}

	embed := &discordgo.MessageEmbed{
		Title:       n.Title,
		Description: n.Body,
		Color:       color,
		Footer:      &discordgo.MessageEmbedFooter{Text: fmt.Sprintf("task #%d · %s", n.ID, n.Channel)},
	}
	if n.DueDate != 0 {
		embed.Timestamp = time.UnixMilli(n.DueDate).UTC().Format(time.RFC3339)
	}

	_, err := d.session.ChannelMessageSendComplex(d.channelID, &discordgo.MessageSend{
		Embeds: []*discordgo.MessageEmbed{embed},
	}, discordgo.WithContext(ctx))
	if err != nil {
		return fmt.Errorf("discord send to %s: %w", d.channelID, err)
	}
	return nil
}
