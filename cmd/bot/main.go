package main

import (
	"context"
	"fmt"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/bwmarrin/discordgo"
	"go.uber.org/zap"
	"golang.org/x/sync/errgroup"

	"groovebox/internal/api"
	"groovebox/internal/discord"
	"groovebox/internal/music"
	"groovebox/internal/music/cache"
	"groovebox/internal/music/extract"
	"groovebox/internal/music/player"
	"groovebox/internal/music/radio"
	"groovebox/internal/music/scrape"
	"groovebox/internal/voice"
	"groovebox/pkg/config"
	"groovebox/pkg/logger"
)

func main() {
	cfg, err := config.Load()
	if err != nil {
		panic(fmt.Sprintf("Failed to load configuration: %v", err))
	}

	if err := logger.Init(cfg.Env); err != nil {
		panic(fmt.Sprintf("Failed to initialize logger: %v", err))
	}
	defer logger.Sync()

	log := logger.Get()
	log.Info("Starting music bot...")

	if err := cfg.Validate(); err != nil {
		log.Fatal("Invalid configuration", zap.Error(err))
	}

	ctx, stop := signal.NotifyContext(context.Background(),
		os.Interrupt, syscall.SIGINT, syscall.SIGTERM)
	defer stop()

	// Playback core
	queue := music.NewQueue()

	extractor := extract.New(extract.Options{
		YtdlpPath:    cfg.YtdlpPath,
		FfmpegPath:   cfg.FfmpegPath,
		FetchTimeout: cfg.FetchTimeout,
		Logger:       log,
	})

	cacheManager, err := cache.NewManager(cache.Options{
		Dir:          cfg.CacheDir,
		WindowBehind: cfg.CacheWindowBehind,
		WindowAhead:  cfg.CacheWindowAhead,
		Concurrency:  int64(cfg.FetchConcurrency),
		Fetcher:      extractor,
		Logger:       log,
	})
	if err != nil {
		log.Fatal("Failed to create cache", zap.Error(err))
	}
	defer cacheManager.Close()

	// Discord session
	dg, err := discordgo.New("Bot " + cfg.DiscordBotToken)
	if err != nil {
		log.Fatal("Failed to create Discord session", zap.Error(err))
	}
	dg.Identify.Intents = discordgo.IntentsGuilds |
		discordgo.IntentsGuildMessages |
		discordgo.IntentsGuildVoiceStates

	voiceManager := voice.NewManager(dg, log)
	session := voice.NewSession(voiceManager, voice.SessionOptions{Logger: log})

	musicPlayer := player.New(queue, cacheManager, session, player.Options{
		FetchTimeout:         cfg.FetchTimeout,
		ReconnectMaxAttempts: cfg.ReconnectMaxAttempts,
		ReconnectInterval:    cfg.ReconnectInterval,
		Logger:               log,
	})

	suggester := radio.NewSuggester(cfg.OpenRouterURL, cfg.OpenRouterAPIKey, cfg.RadioModel, log)
	station := radio.New(suggester, extractor, queue, log)

	handler := discord.NewHandler(discord.HandlerOptions{
		Ctx:       ctx,
		Queue:     queue,
		Player:    musicPlayer,
		Extractor: extractor,
		Cache:     cacheManager,
		Radio:     station,
		Voices:    voiceManager,
		Preview:   scrape.NewClient(nil),
		PageSize:  cfg.QueuePageSize,
		Logger:    log,
	})
	dg.AddHandler(func(s *discordgo.Session, m *discordgo.MessageCreate) {
		handler.HandleMessage(s, m)
	})

	if err := dg.Open(); err != nil {
		log.Fatal("Failed to open Discord connection", zap.Error(err))
	}
	defer dg.Close()

	// HTTP status server
	statusServer := api.NewServer(queue, musicPlayer, cacheManager, log)
	srv := &http.Server{
		Addr:    ":" + cfg.Port,
		Handler: statusServer.Router(cfg.IsProduction()),
	}

	g, gctx := errgroup.WithContext(ctx)

	g.Go(func() error {
		musicPlayer.Run(gctx)
		return nil
	})

	g.Go(func() error {
		cacheManager.Run(gctx, queue.Snapshot, 10*time.Second)
		return nil
	})

	g.Go(func() error {
		return consumeEvents(gctx, musicPlayer, station, log)
	})

	g.Go(func() error {
		if err := srv.ListenAndServe(); err != nil && err != http.ErrServerClosed {
			return err
		}
		return nil
	})

	g.Go(func() error {
		<-gctx.Done()
		shutdownCtx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
		defer cancel()
		return srv.Shutdown(shutdownCtx)
	})

	log.Info("Music bot is running. Press CTRL-C to exit.", zap.String("port", cfg.Port))

	if err := g.Wait(); err != nil {
		log.Error("Shutdown with error", zap.Error(err))
	}
	log.Info("Music bot exited")
}

// consumeEvents feeds playback events to the radio station's history and
// tops the queue up as tracks change
func consumeEvents(ctx context.Context, p *player.Player, station *radio.Radio, log *zap.Logger) error {
	for {
		select {
		case <-ctx.Done():
			return nil
		case ev := <-p.Events():
			switch ev.Type {
			case player.EventTrackChanged:
				if ev.Track != nil {
					log.Info("now playing",
						zap.String("track", ev.Track.ID),
						zap.String("title", ev.Track.Title))
					station.NoteTrack(*ev.Track)
					go station.MaybeRefill(ctx)
				}
			case player.EventError:
				if ev.Track != nil {
					log.Warn("playback error",
						zap.String("track", ev.Track.ID),
						zap.Error(ev.Err))
				}
			}
		}
	}
}
