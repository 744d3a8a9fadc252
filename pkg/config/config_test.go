package config

import (
	"testing"
	"time"

	"github.com/stretchr/testify/require"
)

func TestFromEnvDefaults(t *testing.T) {
	t.Setenv("MEETING_ID", "room-42")
	t.Setenv("LIVEKIT_USE_MOCK", "true")

	cfg, err := FromEnv()
	require.NoError(t, err)

	require.Equal(t, "room-42", cfg.Roster.MeetingID)
	require.Equal(t, SourceLiveKit, cfg.Roster.Source)
	require.Equal(t, 5*time.Second, cfg.Roster.PollInterval)
	require.Equal(t, time.Second, cfg.Roster.SpeakingTick)
	require.Equal(t, 3*time.Second, cfg.Roster.FetchTimeout)
	require.Equal(t, 200, cfg.Roster.ChangeLogSize)
	require.Equal(t, "keep", cfg.Roster.ZeroHostPolicy)
	require.False(t, cfg.Database.Enabled)
	require.Equal(t, "reports", cfg.Storage.ReportPrefix)
}

func TestFromEnvOverrides(t *testing.T) {
	t.Setenv("MEETING_ID", "room-42")
	t.Setenv("ROSTER_SOURCE", "zoomapp")
	t.Setenv("ZOOMAPP_PUSH_SECRET", "0123456789abcdef")
	t.Setenv("POLL_INTERVAL", "10s")
	t.Setenv("SPEAKING_TICK", "500ms")
	t.Setenv("ZERO_HOST_POLICY", "clear")
	t.Setenv("ALLOWED_ORIGINS", "http://a.test,http://b.test")
	t.Setenv("REDIS_HOST", "cache")
	t.Setenv("REDIS_PORT", "6380")

	cfg, err := FromEnv()
	require.NoError(t, err)

	require.Equal(t, SourceZoomApp, cfg.Roster.Source)
	require.Equal(t, 10*time.Second, cfg.Roster.PollInterval)
	require.Equal(t, 500*time.Millisecond, cfg.Roster.SpeakingTick)
	require.Equal(t, "clear", cfg.Roster.ZeroHostPolicy)
	require.Equal(t, []string{"http://a.test", "http://b.test"}, cfg.Server.AllowedOrigins)
	require.Equal(t, "cache:6380", cfg.GetRedisAddr())
	require.Equal(t, 12*time.Hour, cfg.ZoomApp.TokenExpiry)
	require.Equal(t, 30*time.Second, cfg.ZoomApp.SnapshotMaxAge)
}

func TestValidate(t *testing.T) {
	valid := func() *Config {
		return &Config{
			Server: ServerConfig{Port: "8080", Environment: "development", ShutdownTimeout: 10},
			Roster: RosterConfig{
				MeetingID:      "m-1",
				Source:         SourceLiveKit,
				PollInterval:   5 * time.Second,
				SpeakingTick:   time.Second,
				FetchTimeout:   3 * time.Second,
				ChangeLogSize:  200,
				SinkQueueSize:  64,
				ZeroHostPolicy: "keep",
			},
			LiveKit: LiveKitConfig{URL: "wss://lk.test", APIKey: "key", APISecret: "secret"},
		}
	}

	tests := []struct {
		name    string
		mutate  func(c *Config)
		wantErr string
	}{
		{name: "valid", mutate: func(*Config) {}},
		{name: "missing meeting id", mutate: func(c *Config) { c.Roster.MeetingID = "" }, wantErr: "MeetingID"},
		{name: "poll shorter than tick", mutate: func(c *Config) { c.Roster.PollInterval = 500 * time.Millisecond }, wantErr: "POLL_INTERVAL"},
		{name: "zero tick", mutate: func(c *Config) { c.Roster.SpeakingTick = 0 }, wantErr: "SPEAKING_TICK"},
		{name: "unknown source", mutate: func(c *Config) { c.Roster.Source = "teams" }, wantErr: "Source"},
		{name: "unknown host policy", mutate: func(c *Config) { c.Roster.ZeroHostPolicy = "drop" }, wantErr: "ZeroHostPolicy"},
		{name: "livekit credentials", mutate: func(c *Config) { c.LiveKit.APISecret = "" }, wantErr: "LIVEKIT_API_KEY"},
		{name: "livekit url", mutate: func(c *Config) { c.LiveKit.URL = "" }, wantErr: "LIVEKIT_URL"},
		{name: "mock needs no credentials", mutate: func(c *Config) { c.LiveKit = LiveKitConfig{UseMock: true} }},
		{name: "zoomapp needs no livekit credentials", mutate: func(c *Config) {
			c.Roster.Source = SourceZoomApp
			c.LiveKit = LiveKitConfig{}
			c.ZoomApp = ZoomAppConfig{PushSecret: "0123456789abcdef", TokenExpiry: time.Hour}
		}},
		{name: "zoomapp push secret", mutate: func(c *Config) {
			c.Roster.Source = SourceZoomApp
			c.ZoomApp = ZoomAppConfig{PushSecret: "short", TokenExpiry: time.Hour}
		}, wantErr: "ZOOMAPP_PUSH_SECRET"},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			cfg := valid()
			tt.mutate(cfg)
			err := cfg.Validate()
			if tt.wantErr == "" {
				require.NoError(t, err)
				return
			}
			require.Error(t, err)
			require.Contains(t, err.Error(), tt.wantErr)
		})
	}
}

func TestGetDatabaseDSN(t *testing.T) {
	cfg := &Config{Database: DatabaseConfig{Host: "db", Port: "5432", User: "u", Password: "p", Name: "roster", SSLMode: "disable"}}
	require.Equal(t, "host=db port=5432 user=u password=p dbname=roster sslmode=disable", cfg.GetDatabaseDSN())
}
