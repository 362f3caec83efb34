package main

import (
	"os"
	"path/filepath"
	"testing"
	"time"

	"github.com/google/go-cmp/cmp"
	"github.com/masahide/dayz-monitor/pkg/dayz"
	"github.com/masahide/dayz-monitor/pkg/telemetry"
)

var envKeys = []string{
	"DISCORD_TOKEN", "SERVER_ADDRESS", "SERVER_NAME", "TEXT_CHANNEL_ID",
	"STATUS_MESSAGE_ID", "UPDATE_INTERVAL_SECS", "DEBUG", "METRICS_ENABLED", "METRICS_INTERVAL",
}

// clearEnv unsets the bot's variables for the duration of the test.
func clearEnv(t *testing.T) {
	t.Helper()
	for _, k := range envKeys {
		t.Setenv(k, "")
		os.Unsetenv(k)
	}
}

func TestLoadEnv_Defaults(t *testing.T) {
	clearEnv(t)
	t.Setenv("DISCORD_TOKEN", "tok")
	t.Setenv("SERVER_ADDRESS", "127.0.0.1:2303")
	t.Setenv("TEXT_CHANNEL_ID", "123456789012345678")

	got, err := loadEnv(filepath.Join(t.TempDir(), "missing.env"))
	if err != nil {
		t.Fatal(err)
	}
	want := env{
		Env:                dayz.Env{ServerAddress: "127.0.0.1:2303", ServerName: "DayZ Server"},
		Config:             telemetry.Config{MetricsInterval: time.Minute},
		DiscordToken:       "tok",
		TextChannelID:      "123456789012345678",
		UpdateIntervalSecs: 60,
	}
	if diff := cmp.Diff(want, got); diff != "" {
		t.Fatalf("env mismatch (-want +got):\n%s", diff)
	}
	if got.interval() != time.Minute {
		t.Fatalf("interval = %s", got.interval())
	}
}

func TestLoadEnv_DotEnvFile(t *testing.T) {
	clearEnv(t)
	t.Setenv("SERVER_NAME", "From Environment")

	path := filepath.Join(t.TempDir(), ".env")
	content := "DISCORD_TOKEN=tok\nSERVER_ADDRESS=dayz.example.com:27016\nSERVER_NAME=From File\nTEXT_CHANNEL_ID=42\nSTATUS_MESSAGE_ID=43\nUPDATE_INTERVAL_SECS=15\n"
	if err := os.WriteFile(path, []byte(content), 0o600); err != nil {
		t.Fatal(err)
	}

	got, err := loadEnv(path)
	if err != nil {
		t.Fatal(err)
	}
	if got.ServerName != "From Environment" {
		t.Errorf("ServerName = %q, environment must win over the file", got.ServerName)
	}
	if got.ServerAddress != "dayz.example.com:27016" || got.StatusMessageID != "43" {
		t.Errorf("unexpected env %+v", got)
	}
	if got.interval() != 15*time.Second {
		t.Errorf("interval = %s", got.interval())
	}
}

func TestLoadEnv_MissingRequired(t *testing.T) {
	clearEnv(t)
	t.Setenv("SERVER_ADDRESS", "127.0.0.1:2303")
	t.Setenv("TEXT_CHANNEL_ID", "1")
	if _, err := loadEnv(filepath.Join(t.TempDir(), "none")); err == nil {
		t.Fatal("expected error without DISCORD_TOKEN")
	}
}

func TestEnvValidate(t *testing.T) {
	base := env{
		Env:                dayz.Env{ServerAddress: "127.0.0.1:2303", ServerName: "x"},
		DiscordToken:       "tok",
		TextChannelID:      "123",
		UpdateIntervalSecs: 60,
	}
	tests := []struct {
		name    string
		mod     func(*env)
		wantErr bool
	}{
		{"ok", func(*env) {}, false},
		{"with message id", func(e *env) { e.StatusMessageID = "456" }, false},
		{"no address", func(e *env) { e.ServerAddress = "" }, true},
		{"address without port", func(e *env) { e.ServerAddress = "127.0.0.1" }, true},
		{"channel not numeric", func(e *env) { e.TextChannelID = "general" }, true},
		{"message not numeric", func(e *env) { e.StatusMessageID = "abc" }, true},
		{"zero interval", func(e *env) { e.UpdateIntervalSecs = 0 }, true},
		{"negative interval", func(e *env) { e.UpdateIntervalSecs = -5 }, true},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			e := base
			tt.mod(&e)
			if err := e.validate(); (err != nil) != tt.wantErr {
				t.Fatalf("validate() = %v, wantErr %v", err, tt.wantErr)
			}
		})
	}
}
