package statusmsg

import (
	"testing"
	"time"

	"github.com/bwmarrin/discordgo"
	"github.com/google/go-cmp/cmp"
	"github.com/masahide/dayz-monitor/pkg/dayz"
)

func TestRenderOnline(t *testing.T) {
	r := renderer{serverName: "DayZ Server", interval: time.Minute}
	q := uint32(5)
	tm := "21:03"
	now := time.Date(2026, 10, 19, 21, 3, 0, 0, time.FixedZone("JST", 9*60*60))

	got := r.online(dayz.ServerStatus{Players: 58, MaxPlayers: 60, PlayersInQueue: &q, ServerTime: &tm}, now)
	want := &discordgo.MessageEmbed{
		Title: "DayZ Server",
		Color: colorOnline,
		Fields: []*discordgo.MessageEmbedField{
			{Name: "Status", Value: "🟢 Online", Inline: true},
			{Name: "Players", Value: "58/60", Inline: true},
			{Name: "Queue", Value: "5", Inline: true},
			{Name: "Server time", Value: "21:03", Inline: true},
		},
		Footer:    &discordgo.MessageEmbedFooter{Text: "Updates every 1m0s"},
		Timestamp: "2026-10-19T12:03:00Z",
	}
	if diff := cmp.Diff(want, got); diff != "" {
		t.Fatalf("online embed mismatch (-want +got):\n%s", diff)
	}
}

func TestRenderOnline_OptionalFields(t *testing.T) {
	r := renderer{serverName: "x", interval: time.Minute}
	got := r.online(dayz.ServerStatus{Players: 61, MaxPlayers: 60}, time.Now())
	if len(got.Fields) != 2 {
		t.Fatalf("want 2 fields without queue/time, got %d", len(got.Fields))
	}
	if got.Fields[1].Value != "61/60" {
		t.Fatalf("players = %q", got.Fields[1].Value)
	}
}

func TestRenderOffline(t *testing.T) {
	r := renderer{serverName: "DayZ Server", interval: 30 * time.Second}
	got := r.offline(time.Date(2026, 10, 19, 0, 0, 0, 0, time.UTC))
	if got.Color != colorOffline || got.Title != "DayZ Server" {
		t.Fatalf("unexpected embed %+v", got)
	}
	if len(got.Fields) != 1 || got.Fields[0].Value != "🔴 Offline" {
		t.Fatalf("unexpected fields %+v", got.Fields)
	}
	if got.Footer.Text != "Updates every 30s" || got.Timestamp != "2026-10-19T00:00:00Z" {
		t.Fatalf("footer=%q timestamp=%q", got.Footer.Text, got.Timestamp)
	}
}

func TestRenderPlaceholder(t *testing.T) {
	got := renderer{serverName: "DayZ Server"}.placeholder()
	if got.Title != "DayZ Server" || got.Color != colorPending || got.Description == "" {
		t.Fatalf("unexpected placeholder %+v", got)
	}
}
