// app.go
package main

import (
	"context"
	"fmt"
	"log"
	"sync"
	"time"

	"montage/internal/asset"
	"montage/internal/bridge"
	"montage/internal/config"
	"montage/internal/engine"
	"montage/internal/eventhub"
	"montage/internal/store"
)

// App wires the edit engine, asset registry, and event hub together
// and owns their lifecycle.
type App struct {
	ctx    context.Context
	mu     sync.RWMutex
	config *config.Config

	store        *store.Store
	assets       *asset.Registry
	mediaWatcher *asset.MediaWatcher
	engine       *engine.Engine
	eventHub     *eventhub.EventHub

	modelClient bridge.ModelClient
}

func NewApp() *App {
	return &App{}
}

// Startup loads config and brings up the store, registry, engine, and
// media watcher. It must be called before any binding.
func (a *App) Startup(ctx context.Context) error {
	a.ctx = ctx

	cfg, err := config.Load()
	if err != nil {
		return fmt.Errorf("load config: %w", err)
	}
	a.config = cfg

	st, err := store.Open(cfg.DatabasePath)
	if err != nil {
		return fmt.Errorf("open store: %w", err)
	}
	a.store = st

	a.eventHub = eventhub.New(ctx)
	a.assets = asset.NewRegistry()

	a.engine = engine.New(st, a.assets,
		engine.WithEventHub(a.eventHub),
		engine.WithHistoryLimit(cfg.HistoryLimit),
	)

	watcher, err := asset.NewMediaWatcher(cfg.MediaDir, a.assets, 500*time.Millisecond, func(assetID, src string) {
		a.eventHub.EmitAssetReady(eventhub.AssetReadyEvent{AssetID: assetID, Src: src})
	})
	if err != nil {
		log.Printf("Media watcher unavailable: %v", err)
	} else {
		a.mediaWatcher = watcher
		if err := watcher.Start(); err != nil {
			log.Printf("Media watcher failed to start: %v", err)
		}
	}

	log.Println("montage started")
	return nil
}

// Shutdown releases everything Startup acquired.
func (a *App) Shutdown(ctx context.Context) {
	if a.mediaWatcher != nil {
		a.mediaWatcher.Close()
	}
	if a.store != nil {
		a.store.Close()
	}
	log.Println("montage shutdown complete")
}

func (a *App) Config() *config.Config {
	return a.config
}

// SetModelClient installs the AI backend used by RunAssistant. Without
// one, RunAssistant returns an error.
func (a *App) SetModelClient(client bridge.ModelClient) {
	a.mu.Lock()
	defer a.mu.Unlock()
	a.modelClient = client
}

// SetEventHubBroadcaster routes hub events to the WebSocket server.
func (a *App) SetEventHubBroadcaster(b eventhub.Broadcaster) {
	if a.eventHub != nil {
		a.eventHub.SetBroadcaster(b)
	}
}
