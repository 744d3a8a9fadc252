package main

import (
	"fmt"
	"log"
	"time"

	flag "github.com/spf13/pflag"

	"github.com/johnquangdev/meeting-roster/pkg/config"
	pkgjwt "github.com/johnquangdev/meeting-roster/pkg/jwt"
)

// pushtoken mints the bearer token the in-meeting Zoom App client uses
// to push roster snapshots.
func main() {
	subject := flag.StringP("subject", "s", "zoom-app", "client the token is issued to")
	expiry := flag.DurationP("expiry", "e", 0, "token lifetime, defaults to ZOOMAPP_TOKEN_EXPIRY")
	flag.Parse()

	// Load configuration from .env
	cfg, err := config.Load()
	if err != nil {
		log.Fatalf("Failed to load configuration: %v", err)
	}
	if cfg.Roster.Source != config.SourceZoomApp {
		log.Fatalf("ROSTER_SOURCE is %q; push tokens are only used with %q", cfg.Roster.Source, config.SourceZoomApp)
	}

	lifetime := cfg.ZoomApp.TokenExpiry
	if *expiry > 0 {
		lifetime = *expiry
	}

	jwtManager := pkgjwt.NewManager(cfg.ZoomApp.PushSecret, lifetime)
	token, err := jwtManager.GeneratePushToken(cfg.Roster.MeetingID, *subject)
	if err != nil {
		log.Fatalf("Failed to generate token: %v", err)
	}

	log.Printf("🔑 Push token for meeting %s (subject %s), valid until %s",
		cfg.Roster.MeetingID, *subject, time.Now().Add(lifetime).Format(time.RFC3339))
	fmt.Println(token)
}
