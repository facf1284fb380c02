package main

import (
	"fmt"
	"io"
	"path/filepath"

	"ai-image-enhancer/internal/blobstore"
	"ai-image-enhancer/internal/config"
	"ai-image-enhancer/internal/controller"
	"ai-image-enhancer/internal/gemini"
	"ai-image-enhancer/internal/history"
	"ai-image-enhancer/internal/relayclient"
	"ai-image-enhancer/internal/settings"
	"ai-image-enhancer/internal/storage"

	"github.com/rs/zerolog/log"
)

// app is the wired client for one command invocation.
type app struct {
	cfg      *config.ClientConfig
	kv       *storage.SQLiteStore
	settings *settings.Store
	history  *history.Store
	ctrl     *controller.Controller
}

func newApp(out, errOut io.Writer) (*app, error) {
	cfg, err := config.LoadClient(configFlag)
	if err != nil {
		return nil, err
	}

	kv, err := storage.OpenSQLite(filepath.Join(cfg.DataDir, "enhancer.db"), cfg.StorageQuotaBytes)
	if err != nil {
		return nil, fmt.Errorf("failed to open local storage: %w", err)
	}

	ring, err := settings.OpenKeyring(cfg.KeyringBackend, cfg.DataDir)
	if err != nil {
		kv.Close()
		return nil, err
	}

	var blobs blobstore.Store
	if cfg.Supabase.URL != "" {
		blobs = blobstore.NewSupabase(cfg.Supabase.URL, cfg.Supabase.Key, cfg.Supabase.Bucket)
	} else {
		blobs, err = blobstore.NewLocal(filepath.Join(cfg.DataDir, "images"))
		if err != nil {
			kv.Close()
			return nil, err
		}
	}

	hist := history.NewStore(kv,
		history.WithBlobStore(blobs),
		history.WithCapacity(cfg.HistoryCapacity),
		history.WithThumbnailWidth(cfg.ThumbnailWidth),
	)
	if err := hist.Load(); err != nil {
		kv.Close()
		return nil, err
	}

	st := settings.NewStore(kv, ring)
	ctrl := controller.New(controller.Deps{
		View:     newTerminalView(out, errOut),
		Relay:    relayclient.NewClient(cfg.RelayURL, nil),
		Settings: st,
		History:  hist,
		Models:   controller.NewModelLookup(gemini.NewCatalog("", nil)),
	})
	if err := ctrl.Start(); err != nil {
		log.Warn().Err(err).Msg("starting with default settings")
	}

	return &app{cfg: cfg, kv: kv, settings: st, history: hist, ctrl: ctrl}, nil
}

func (a *app) Close() {
	if err := a.kv.Close(); err != nil {
		log.Warn().Err(err).Msg("failed to close local storage")
	}
}
