package cmd

import (
	"context"
	"errors"
	"fmt"
	"log"
	"os"
	"time"

	"github.com/kozaktomas/memory-mirror/internal/audio"
	"github.com/kozaktomas/memory-mirror/internal/cache"
	"github.com/kozaktomas/memory-mirror/internal/config"
	"github.com/kozaktomas/memory-mirror/internal/cooldown"
	"github.com/kozaktomas/memory-mirror/internal/detect"
	"github.com/kozaktomas/memory-mirror/internal/engine"
	"github.com/kozaktomas/memory-mirror/internal/gallery"
	"github.com/kozaktomas/memory-mirror/internal/history"
	"github.com/kozaktomas/memory-mirror/internal/kiosk"
	"github.com/kozaktomas/memory-mirror/internal/recognize"
	"github.com/kozaktomas/memory-mirror/internal/speech"
	"github.com/kozaktomas/memory-mirror/internal/vision"
	"github.com/kozaktomas/memory-mirror/internal/web"
)

// app holds the wired application components shared by run and serve.
type app struct {
	config       *config.Config
	engine       *engine.Client
	gallery      *gallery.Store
	matcher      *recognize.Matcher
	index        *recognize.Index
	audio        *audio.Manager
	history      *history.Store
	orchestrator *kiosk.Orchestrator
	web          *web.Server
}

// embeddingsPath is where enrollment stores the computed gallery embeddings.
func embeddingsPath(cfg *config.Config) string {
	return cfg.Gallery.Path + "/embeddings.json"
}

// buildApp wires the full pipeline from configuration.
func buildApp(ctx context.Context) (*app, error) {
	cfg := config.Load()

	store := gallery.NewStore(cfg.Gallery.Path, cfg.Gallery.MetadataPath)
	if err := store.Refresh(); err != nil {
		return nil, fmt.Errorf("could not load gallery: %w", err)
	}

	client := engine.New(cfg.Engine.URL)
	matcher := recognize.NewMatcher(client, cfg.Recognition.ModelName,
		cfg.Recognition.DistanceMetric, cfg.Recognition.ConfidenceThreshold)
	index := recognize.NewIndex()

	// Enrollment output is optional on first start; recognition reports
	// everyone as unknown until "memory-mirror enroll" has run.
	if embeddings, model, err := recognize.LoadGalleryFile(embeddingsPath(cfg)); err != nil {
		if !errors.Is(err, os.ErrNotExist) {
			log.Printf("could not load gallery embeddings: %v", err)
		}
		log.Printf("no gallery embeddings found, run 'memory-mirror enroll' first")
	} else {
		matcher.SetGallery(embeddings)
		index.Build(embeddings)
		log.Printf("loaded %d embeddings (model %s) for %d persons",
			len(embeddings), model, len(matcher.KnownPersons()))
	}

	synth, err := speech.NewSynthesizer(ctx, cfg)
	if err != nil {
		return nil, fmt.Errorf("could not create speech synthesizer: %w", err)
	}
	var player audio.Player = audio.NullPlayer{}
	if cfg.Audio.Enabled {
		p, err := audio.NewCommandPlayer(cfg.Audio.PlayerCommand)
		if err != nil {
			return nil, fmt.Errorf("invalid player command: %w", err)
		}
		player = p
	}
	manager := audio.NewManager(synth, player, cfg.Audio.Enabled)
	manager.SetVolume(cfg.Audio.Volume)

	var historyStore *history.Store
	if cfg.Database.URL != "" {
		historyStore, err = history.NewStore(&cfg.Database)
		if err != nil {
			return nil, fmt.Errorf("could not connect history store: %w", err)
		}
		log.Printf("recognition history enabled (PostgreSQL)")
	}

	opts := kiosk.Options{
		Quality:  vision.NewQualityGate(cfg.Camera.BlurLimit),
		Locator:  detect.NewLocator(client),
		Matcher:  matcher,
		Cache: cache.New(cfg.Cache.MaxSize,
			time.Duration(cfg.Cache.TTLSeconds)*time.Second,
			time.Duration(cfg.Cache.CleanupSeconds)*time.Second),
		Hasher:   cache.NewHasher(cfg.Cache.FingerprintMode),
		Cooldown: cooldown.New(time.Duration(cfg.Audio.CooldownSeconds)*time.Second, manager.Busy),
		Gallery:  store,
		Audio:    manager,
		Throttle: kiosk.NewThrottle(cfg.Camera.TargetFPS, cfg.Camera.FrameSkip),
	}
	if historyStore != nil {
		opts.History = historyStore
	}
	orchestrator := kiosk.New(opts)

	server := web.NewServer(cfg, web.Deps{
		Orchestrator: orchestrator,
		Matcher:      matcher,
		Index:        index,
		Gallery:      store,
		Audio:        manager,
		History:      historyStore,
	})

	return &app{
		config:       cfg,
		engine:       client,
		gallery:      store,
		matcher:      matcher,
		index:        index,
		audio:        manager,
		history:      historyStore,
		orchestrator: orchestrator,
		web:          server,
	}, nil
}

func (a *app) close() {
	a.audio.Stop()
	if a.history != nil {
		if err := a.history.Close(); err != nil {
			log.Printf("could not close history store: %v", err)
		}
	}
}
