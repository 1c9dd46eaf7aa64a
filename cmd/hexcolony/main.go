package main

import (
	"context"
	"errors"
	"fmt"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"go.uber.org/zap"
	"go.uber.org/zap/zapcore"
	"golang.org/x/sync/errgroup"

	"github.com/hexcolony/server/internal/component"
	"github.com/hexcolony/server/internal/config"
	"github.com/hexcolony/server/internal/core/event"
	coresync "github.com/hexcolony/server/internal/core/sync"
	"github.com/hexcolony/server/internal/data"
	gonet "github.com/hexcolony/server/internal/net"
	"github.com/hexcolony/server/internal/persist"
	"github.com/hexcolony/server/internal/scripting"
	"github.com/hexcolony/server/internal/system"
	"github.com/hexcolony/server/internal/work"
	"github.com/hexcolony/server/internal/world"
)

func main() {
	if err := run(); err != nil {
		fmt.Fprintf(os.Stderr, "fatal: %v\n", err)
		os.Exit(1)
	}
}

func run() error {
	cfgPath := "config/server.toml"
	if p := os.Getenv("HEXCOLONY_CONFIG"); p != "" {
		cfgPath = p
	}

	cfg, err := config.Load(cfgPath)
	if err != nil {
		return fmt.Errorf("config: %w", err)
	}
	cfg.Server.StartTime = time.Now().Unix()

	log, err := newLogger(cfg.Logging)
	if err != nil {
		return fmt.Errorf("logger: %w", err)
	}
	defer log.Sync()

	log.Info("starting", zap.String("server", cfg.Server.Name), zap.Duration("tick", cfg.Server.TickRate))

	ctx, stop := signal.NotifyContext(context.Background(), syscall.SIGINT, syscall.SIGTERM)
	defer stop()

	// 1. Static tables
	tables, err := data.LoadTables(cfg.Data.Dir)
	if err != nil {
		return fmt.Errorf("data: %w", err)
	}
	log.Info("tables loaded",
		zap.Int("items", tables.Items.Count()),
		zap.Int("buildings", tables.Buildings.Count()),
		zap.Int("species", tables.Species.Count()),
		zap.Int("works", tables.Works.Count()),
	)

	// 2. Work formulas
	var formulas work.Formulas = work.StandardFormulas{}
	if cfg.Scripting.Dir != "" {
		engine, err := scripting.NewEngine(cfg.Scripting.Dir, work.StandardFormulas{}, log)
		if err != nil {
			return fmt.Errorf("scripting: %w", err)
		}
		defer engine.Close()
		formulas = engine
	}

	// 3. Snapshot store
	store, err := openStore(ctx, cfg, log)
	if err != nil {
		return err
	}
	if store != nil {
		defer store.Close()
	}

	// 4. Network hub
	hub := gonet.NewHub(gonet.Options{
		TokenHash:    cfg.Network.TokenHash,
		InQueueSize:  cfg.Network.InQueueSize,
		OutQueueSize: cfg.Network.OutQueueSize,
		ReadTimeout:  cfg.Network.ReadTimeout,
		WriteTimeout: cfg.Network.WriteTimeout,
	}, log)

	// 5. Worlds
	mgr := world.NewManager(world.Deps{
		Registry: component.NewRegistry(log),
		Tables:   tables,
		Formulas: formulas,
		Source:   hub,
		Log:      log,
	}, world.Settings{
		RoomName:           cfg.World.RoomName,
		MaxMessagesPerTick: cfg.Network.MaxMessagesPerTick,
		Space: system.SpaceSettings{
			HexSize:        cfg.World.HexSize,
			InitialRadius:  cfg.World.InitialRadius,
			ObstacleChance: cfg.World.ObstacleChance,
			Seed:           cfg.World.Seed,
			StarterItems:   starterItems(cfg.World.StarterItems),
		},
	})
	mgr.SetSinks(func(w *world.World) coresync.Sink { return hub.SinkFor(w.ID()) })

	if err := restore(ctx, store, mgr, log); err != nil {
		return err
	}
	for _, w := range mgr.Worlds() {
		subscribeLogging(w, log)
	}

	// 6. HTTP listener and game loop
	mux := http.NewServeMux()
	mux.Handle("/ws", hub.Handler())
	srv := &http.Server{Addr: cfg.Network.BindAddress, Handler: mux, ReadHeaderTimeout: 10 * time.Second}

	g, gctx := errgroup.WithContext(ctx)
	g.Go(func() error {
		log.Info("listening", zap.String("addr", cfg.Network.BindAddress))
		if err := srv.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			return fmt.Errorf("http: %w", err)
		}
		return nil
	})
	g.Go(func() error {
		defer func() {
			hub.Shutdown()
			shutdownCtx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
			defer cancel()
			_ = srv.Shutdown(shutdownCtx)
		}()
		return gameLoop(gctx, cfg, mgr, hub, store, log)
	})

	err = g.Wait()
	log.Info("server stopped")
	return err
}

func gameLoop(ctx context.Context, cfg *config.Config, mgr *world.Manager, hub *gonet.Hub, store persist.Store, log *zap.Logger) error {
	ticker := time.NewTicker(cfg.Server.TickRate)
	defer ticker.Stop()

	saveCounter := 0
	for {
		select {
		case <-ticker.C:
			mgr.TickAll()
			saveCounter++
			if cfg.Persist.AutosaveTicks > 0 && saveCounter >= cfg.Persist.AutosaveTicks {
				saveCounter = 0
				save(ctx, store, mgr, cfg.Persist.Keep, log)
			}
		case id := <-hub.Joined():
			log.Debug("resync for new client", zap.Uint64("session", id))
			mgr.Resync(func(w *world.World) coresync.Sink { return hub.SessionSink(id, w.ID()) })
		case <-ctx.Done():
			log.Info("shutting down")
			save(context.Background(), store, mgr, cfg.Persist.Keep, log)
			return nil
		}
	}
}

func openStore(ctx context.Context, cfg *config.Config, log *zap.Logger) (persist.Store, error) {
	switch cfg.Persist.Driver {
	case config.DriverPostgres:
		db, err := persist.NewDB(ctx, cfg.Database, log)
		if err != nil {
			return nil, fmt.Errorf("database: %w", err)
		}
		if err := persist.RunMigrations(ctx, db.Pool); err != nil {
			db.Close()
			return nil, fmt.Errorf("migrations: %w", err)
		}
		return persist.NewSnapshotRepo(db), nil
	case config.DriverSQLite:
		s, err := persist.OpenSQLite(ctx, cfg.Persist.SQLitePath, log)
		if err != nil {
			return nil, fmt.Errorf("sqlite: %w", err)
		}
		return s, nil
	default:
		log.Warn("persistence disabled")
		return nil, nil
	}
}

// restore loads the newest snapshot, or starts a fresh world when there is
// none.
func restore(ctx context.Context, store persist.Store, mgr *world.Manager, log *zap.Logger) error {
	if store == nil {
		mgr.Create()
		return nil
	}
	p, rec, err := store.Latest(ctx)
	switch {
	case errors.Is(err, persist.ErrNoSnapshot):
		log.Info("no snapshot, starting fresh")
		mgr.Create()
		return nil
	case err != nil:
		return fmt.Errorf("load snapshot: %w", err)
	}
	if err := mgr.Load(p); err != nil {
		return fmt.Errorf("restore snapshot %s: %w", rec.ID, err)
	}
	log.Info("snapshot restored",
		zap.Stringer("id", rec.ID),
		zap.Int("worlds", rec.Worlds),
		zap.Time("saved_at", rec.SavedAt),
	)
	return nil
}

func save(ctx context.Context, store persist.Store, mgr *world.Manager, keep int, log *zap.Logger) {
	if store == nil {
		return
	}
	p, err := mgr.Save()
	if err != nil {
		log.Error("snapshot failed", zap.Error(err))
		return
	}
	rec, err := store.Save(ctx, p)
	if err != nil {
		log.Error("snapshot save failed", zap.Error(err))
		return
	}
	log.Info("snapshot saved", zap.Stringer("id", rec.ID), zap.Int("bytes", rec.RawSize))
	if keep > 0 {
		if n, err := store.Prune(ctx, keep); err != nil {
			log.Warn("snapshot prune failed", zap.Error(err))
		} else if n > 0 {
			log.Debug("snapshots pruned", zap.Int64("count", n))
		}
	}
}

func subscribeLogging(w *world.World, log *zap.Logger) {
	log = log.With(zap.Uint64("world", w.ID()))
	bus := w.Bus()
	event.Subscribe(bus, func(e event.WorkFinished) {
		log.Info("work finished", zap.Uint64("monster", uint64(e.MonsterID)), zap.String("work", e.WorkType))
	})
	event.Subscribe(bus, func(e event.WorkCanceled) {
		log.Info("work canceled", zap.Uint64("monster", uint64(e.MonsterID)), zap.String("work", e.WorkType))
	})
	event.Subscribe(bus, func(e event.BuildingConstructed) {
		log.Info("building constructed", zap.Uint64("building", uint64(e.BuildingID)), zap.String("type", e.Type))
	})
	event.Subscribe(bus, func(e event.NavigationEnded) {
		log.Debug("navigation ended", zap.Uint64("entity", uint64(e.EntityID)), zap.Bool("arrived", e.Arrived))
	})
}

func starterItems(in map[string]int) map[data.ItemType]int {
	out := make(map[data.ItemType]int, len(in))
	for k, v := range in {
		out[data.ItemType(k)] = v
	}
	return out
}

func newLogger(cfg config.LoggingConfig) (*zap.Logger, error) {
	var level zapcore.Level
	if err := level.UnmarshalText([]byte(cfg.Level)); err != nil {
		level = zapcore.InfoLevel
	}

	var zapCfg zap.Config
	if cfg.Format == "json" {
		zapCfg = zap.NewProductionConfig()
	} else {
		zapCfg = zap.NewDevelopmentConfig()
		zapCfg.EncoderConfig.EncodeLevel = zapcore.CapitalColorLevelEncoder
		zapCfg.EncoderConfig.EncodeTime = zapcore.TimeEncoderOfLayout("15:04:05")
		zapCfg.EncoderConfig.ConsoleSeparator = "  "
		zapCfg.DisableCaller = true
		zapCfg.DisableStacktrace = true
	}
	zapCfg.Level = zap.NewAtomicLevelAt(level)

	return zapCfg.Build()
}
