package main

import (
	"context"
	"net/http"
	"os"

	nested "github.com/antonfisher/nested-logrus-formatter"
	"github.com/gin-gonic/gin"
	"github.com/joho/godotenv"
	log "github.com/sirupsen/logrus"
	slackapi "github.com/slack-go/slack"
	"github.com/slack-go/slack/slackevents"
	"github.com/slack-go/slack/socketmode"

	appConfig "sonosbot/config"
	"sonosbot/handlers"
	"sonosbot/sentry"
	"sonosbot/slack"
	"sonosbot/sonos"
	"sonosbot/spotify"
)

func main() {
	if err := godotenv.Load(); err != nil {
		log.Printf("Warning: Error loading .env file: %v", err)
	}
	setupLogging()
	appConfig.NewConfig()
	sentry.Init()

	if err := run(context.Background()); err != nil {
		log.Fatal(err)
	}
}

func setupLogging() {
	log.SetFormatter(&nested.Formatter{
		HideKeys:        true,
		TimestampFormat: "2006-01-02 15:04:05",
	})
	level, err := log.ParseLevel(os.Getenv("LOG_LEVEL"))
	if err != nil {
		level = log.InfoLevel
	}
	log.SetLevel(level)
}

func run(ctx context.Context) error {
	cfg := appConfig.Config

	player := sonos.NewClient(cfg.Sonos, cfg.Spotify.Market)

	catalog, err := spotify.NewClient(cfg.Spotify)
	if err != nil {
		log.Errorf("Error creating Spotify client: %v", err)
		return err
	}

	api := slackapi.New(cfg.Slack.BotToken,
		slackapi.OptionAppLevelToken(cfg.Slack.AppToken),
	)
	messenger := slack.NewClient(api)
	socket := socketmode.New(api)

	manager := handlers.NewManager(player, catalog, messenger, cfg)

	go serveOps(ctx, player)
	go dispatchEvents(ctx, socket, manager)

	log.Info("Connecting to Slack in socket mode")
	return socket.RunContext(ctx)
}

// dispatchEvents routes socket-mode events to the command dispatcher and
// the button-action handler. Each inbound event is handled in isolation.
func dispatchEvents(ctx context.Context, socket *socketmode.Client, manager *handlers.Manager) {
	for evt := range socket.Events {
		switch evt.Type {
		case socketmode.EventTypeEventsAPI:
			eventsAPIEvent, ok := evt.Data.(slackevents.EventsAPIEvent)
			if !ok {
				continue
			}
			socket.Ack(*evt.Request)
			if eventsAPIEvent.Type != slackevents.CallbackEvent {
				continue
			}
			switch event := eventsAPIEvent.InnerEvent.Data.(type) {
			case *slackevents.MessageEvent:
				// Skip bot echoes and edits; only fresh user text dispatches.
				if event.BotID != "" || event.SubType != "" {
					continue
				}
				go manager.HandleMessage(ctx, event.Text, event.Channel)
			}

		case socketmode.EventTypeInteractive:
			callback, ok := evt.Data.(slackapi.InteractionCallback)
			if !ok {
				continue
			}
			socket.Ack(*evt.Request)
			if callback.Type != slackapi.InteractionTypeBlockActions {
				continue
			}
			for _, action := range callback.ActionCallback.BlockActions {
				if action.ActionID != handlers.AddSongActionID {
					continue
				}
				go manager.HandleAction(ctx, action.Value,
					callback.Channel.ID, callback.User.ID, callback.Message.Timestamp)
			}

		case socketmode.EventTypeConnected:
			log.Info("Connected to Slack")
		case socketmode.EventTypeConnectionError:
			log.Warnf("Slack connection error: %v", evt.Data)
		}
	}
}

// serveOps exposes a small HTTP surface for health checks and a playback
// snapshot.
func serveOps(ctx context.Context, player *sonos.Client) {
	router := gin.Default()
	router.Use(sentry.GetSentryGin())

	router.GET("/healthz", func(c *gin.Context) {
		c.JSON(http.StatusOK, gin.H{"ok": true})
	})

	router.GET("/status", func(c *gin.Context) {
		state, err := player.State(c.Request.Context())
		if err != nil {
			c.JSON(http.StatusBadGateway, gin.H{"error": "device unreachable"})
			return
		}
		track, err := player.CurrentTrack(c.Request.Context())
		if err != nil {
			c.JSON(http.StatusBadGateway, gin.H{"error": "device unreachable"})
			return
		}
		c.JSON(http.StatusOK, gin.H{
			"state":    state,
			"artist":   track.Artist,
			"title":    track.Title,
			"album":    track.Album,
			"position": track.PositionSeconds,
			"duration": track.DurationSeconds,
		})
	})

	port := appConfig.Config.Options.Port
	if port == "" {
		port = "8080"
	}
	log.Printf("Starting ops server on :%s", port)
	if err := http.ListenAndServe(":"+port, router); err != nil {
		log.Errorf("Ops server stopped: %v", err)
	}
}
