// Command statusbot keeps one Discord message updated with the status of a DayZ server.
package main

import (
	"context"
	"errors"
	"fmt"
	"io/fs"
	"log"
	"os"
	"os/signal"
	"strconv"
	"sync"
	"syscall"
	"time"

	"github.com/bwmarrin/discordgo"
	"github.com/joho/godotenv"
	"github.com/kelseyhightower/envconfig"
	"github.com/masahide/dayz-monitor/pkg/a2s"
	"github.com/masahide/dayz-monitor/pkg/dayz"
	"github.com/masahide/dayz-monitor/pkg/opsapi"
	"github.com/masahide/dayz-monitor/pkg/statusmsg"
	"github.com/masahide/dayz-monitor/pkg/telemetry"
)

type env struct {
	dayz.Env
	telemetry.Config
	// Discord
	DiscordToken    string `envconfig:"DISCORD_TOKEN" required:"true"`
	TextChannelID   string `envconfig:"TEXT_CHANNEL_ID" required:"true"`
	StatusMessageID string `envconfig:"STATUS_MESSAGE_ID"`

	UpdateIntervalSecs int64 `envconfig:"UPDATE_INTERVAL_SECS" default:"60"`
	Debug              bool  `envconfig:"DEBUG" default:"false"`
}

// loadEnv reads the optional dotenv files, then the process environment.
// Variables already set in the environment win over the files.
func loadEnv(files ...string) (env, error) {
	if len(files) == 0 {
		files = []string{".env"}
	}
	for _, f := range files {
		if err := godotenv.Load(f); err != nil && !errors.Is(err, fs.ErrNotExist) {
			return env{}, fmt.Errorf("load %s: %w", f, err)
		}
	}
	e := env{}
	if err := envconfig.Process("", &e); err != nil {
		return e, err
	}
	return e, e.validate()
}

func (e env) validate() error {
	if err := e.Env.Validate(); err != nil {
		return err
	}
	if !isSnowflake(e.TextChannelID) {
		return fmt.Errorf("TEXT_CHANNEL_ID must be a numeric id, got %q", e.TextChannelID)
	}
	if e.StatusMessageID != "" && !isSnowflake(e.StatusMessageID) {
		return fmt.Errorf("STATUS_MESSAGE_ID must be a numeric id, got %q", e.StatusMessageID)
	}
	if e.UpdateIntervalSecs <= 0 {
		return fmt.Errorf("UPDATE_INTERVAL_SECS must be > 0, got %d", e.UpdateIntervalSecs)
	}
	return nil
}

func (e env) interval() time.Duration {
	return time.Duration(e.UpdateIntervalSecs) * time.Second
}

func isSnowflake(s string) bool {
	_, err := strconv.ParseUint(s, 10, 64)
	return err == nil
}

type discordbot struct {
	ctx  context.Context
	ctl  *statusmsg.Controller
	once sync.Once
}

// ready fires again after every reconnect; the loop is started only once.
func (d *discordbot) ready(s *discordgo.Session, event *discordgo.Ready) {
	log.Printf("Connected as %s", event.User.Username)
	d.once.Do(func() {
		go d.ctl.Run(d.ctx)
	})
}

func main() {
	log.SetFlags(log.LstdFlags | log.Lshortfile)
	if err := run(); err != nil {
		log.Fatal(err)
	}
}

func run() error {
	e, err := loadEnv()
	if err != nil {
		return fmt.Errorf("config error: %w", err)
	}
	opsCfg, err := opsapi.LoadConfig()
	if err != nil {
		return fmt.Errorf("ops api config error: %w", err)
	}
	if err := opsCfg.Validate(); err != nil {
		return fmt.Errorf("ops api config error: %w", err)
	}

	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	mp, shutdownMetrics, err := telemetry.Setup(ctx, e.Config)
	if err != nil {
		return fmt.Errorf("metrics setup: %w", err)
	}
	defer shutdownMetrics()
	metrics, err := telemetry.NewMetrics(mp, e.ServerName)
	if err != nil {
		return fmt.Errorf("metrics setup: %w", err)
	}

	dg, err := discordgo.New("Bot " + e.DiscordToken)
	if err != nil {
		return fmt.Errorf("error creating Discord session: %w", err)
	}
	dg.Identify.Intents = discordgo.IntentsGuilds

	ctl, err := statusmsg.New(statusmsg.Config{
		ChannelID:  e.TextChannelID,
		MessageID:  e.StatusMessageID,
		ServerName: e.ServerName,
		Interval:   e.interval(),
		Debug:      e.Debug,
	},
		&statusmsg.SessionMessenger{Session: dg},
		&dayz.Fetcher{Client: &a2s.Client{}, Addr: e.ServerAddress},
		statusmsg.WithMetrics(metrics),
	)
	if err != nil {
		return err
	}
	log.Printf("Monitoring %s (%s) every %s, channel %s", e.ServerName, e.ServerAddress, e.interval(), e.TextChannelID)

	d := &discordbot{ctx: ctx, ctl: ctl}
	dg.AddHandler(d.ready)
	if err := dg.Open(); err != nil {
		return fmt.Errorf("error opening connection: %w", err)
	}
	defer dg.Close()

	if opsCfg.Enabled() {
		go func() {
			if err := opsapi.Serve(ctx, opsCfg, opsapi.NewHandler(opsCfg, ctl)); err != nil {
				log.Printf("ops api: %v", err)
			}
		}()
	}

	<-ctx.Done()
	log.Println("shutting down...")
	return nil
}
