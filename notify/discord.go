package notify

import (
	"context"
	"fmt"

	"github.com/bwmarrin/discordgo"
)

// channelSender is the part of *discordgo.Session used for delivery.
type channelSender interface {
	ChannelMessageSend(channelID string, content string, options ...discordgo.RequestOption) (*discordgo.Message, error)
}

// DiscordNotifier posts every message to one channel, for households that follow their
// finances in a shared Discord server.
type DiscordNotifier struct {
	session   channelSender
	channelID string
}

func NewDiscordNotifier(token, channelID string) (*DiscordNotifier, error) {
	session, err := discordgo.New("Bot " + token)
	if err != nil {
		return nil, fmt.Errorf("failed to create Discord session: %w", err)
	}
	return &DiscordNotifier{session: session, channelID: channelID}, nil
}

func (n *DiscordNotifier) Send(ctx context.Context, msg Message) error {
	if err := ctx.Err(); err != nil {
		return err
	}
	if _, err := n.session.ChannelMessageSend(n.channelID, msg.Body, discordgo.WithContext(ctx)); err != nil {
		return fmt.Errorf("failed to post to Discord: %w", err)
	}
	return nil
}
