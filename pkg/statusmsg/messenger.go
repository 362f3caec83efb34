package statusmsg

import (
	"context"

	"github.com/bwmarrin/discordgo"
)

// Messenger is the part of the chat API the controller needs: create once, edit after.
type Messenger interface {
	Send(ctx context.Context, channelID string, embed *discordgo.MessageEmbed) (messageID string, err error)
	Edit(ctx context.Context, channelID, messageID string, embed *discordgo.MessageEmbed) error
}

// SessionMessenger implements Messenger on a discordgo session.
type SessionMessenger struct {
	Session *discordgo.Session
}

func (m *SessionMessenger) Send(ctx context.Context, channelID string, embed *discordgo.MessageEmbed) (string, error) {
	msg, err := m.Session.ChannelMessageSendComplex(channelID, &discordgo.MessageSend{
		Embeds: []*discordgo.MessageEmbed{embed},
	}, discordgo.WithContext(ctx))
	if err != nil {
		return "", err
	}
	return msg.ID, nil
}

func (m *SessionMessenger) Edit(ctx context.Context, channelID, messageID string, embed *discordgo.MessageEmbed) error {
	edit := discordgo.NewMessageEdit(channelID, messageID).SetEmbeds([]*discordgo.MessageEmbed{embed})
	_, err := m.Session.ChannelMessageEditComplex(edit, discordgo.WithContext(ctx))
	return err
}
