package statusmsg

import (
	"fmt"
	"time"

	"github.com/bwmarrin/discordgo"
	"github.com/masahide/dayz-monitor/pkg/dayz"
)

const (
	colorPending = 0x95A5A6
	colorOnline  = 0x2ECC71
	colorOffline = 0xE74C3C
)

type renderer struct {
	serverName string
	interval   time.Duration
}

func (r renderer) footer() *discordgo.MessageEmbedFooter {
	return &discordgo.MessageEmbedFooter{Text: fmt.Sprintf("Updates every %s", r.interval)}
}

func (r renderer) placeholder() *discordgo.MessageEmbed {
	return &discordgo.MessageEmbed{
		Title:       r.serverName,
		Description: "Fetching server status…",
		Color:       colorPending,
	}
}

func (r renderer) online(st dayz.ServerStatus, now time.Time) *discordgo.MessageEmbed {
	fields := []*discordgo.MessageEmbedField{
		{Name: "Status", Value: "🟢 Online", Inline: true},
		{Name: "Players", Value: fmt.Sprintf("%d/%d", st.Players, st.MaxPlayers), Inline: true},
	}
	if st.PlayersInQueue != nil {
		fields = append(fields, &discordgo.MessageEmbedField{Name: "Queue", Value: fmt.Sprint(*st.PlayersInQueue), Inline: true})
	}
	if st.ServerTime != nil {
		fields = append(fields, &discordgo.MessageEmbedField{Name: "Server time", Value: *st.ServerTime, Inline: true})
	}
	return &discordgo.MessageEmbed{
		Title:     r.serverName,
		Color:     colorOnline,
		Fields:    fields,
		Footer:    r.footer(),
		Timestamp: now.UTC().Format(time.RFC3339),
	}
}

func (r renderer) offline(now time.Time) *discordgo.MessageEmbed {
	return &discordgo.MessageEmbed{
		Title: r.serverName,
		Color: colorOffline,
		Fields: []*discordgo.MessageEmbedField{
			{Name: "Status", Value: "🔴 Offline", Inline: true},
		},
		Footer:    r.footer(),
		Timestamp: now.UTC().Format(time.RFC3339),
	}
}
