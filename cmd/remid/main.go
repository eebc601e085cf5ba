// remid hosts the Remi rule engines: it wires persistence, the action log
// and the disconnection handler together and keeps background maintenance
// running. Transports are expected to sit in front of it and call into the
// engines directly.
package main

import (
	"context"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/sirupsen/logrus"

	"github.com/HoiniKris/remi/internal/cache"
	"github.com/HoiniKris/remi/internal/config"
	"github.com/HoiniKris/remi/internal/database"
	"github.com/HoiniKris/remi/internal/game"
)

func main() {
	cfg := config.Load()

	log := logrus.New()
	log.SetFormatter(&logrus.TextFormatter{FullTimestamp: true})
	if level, err := logrus.ParseLevel(cfg.LogLevel); err == nil {
		log.SetLevel(level)
	} else {
		log.Warnf("unknown log level %q, using info", cfg.LogLevel)
	}

	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	var persister game.Persister
	var store *database.Store
	if cfg.DatabaseURL != "" {
		s, err := database.Connect(ctx, cfg.DatabaseURL, log)
		if err != nil {
			log.WithError(err).Fatal("postgres unavailable")
		}
		if err := s.Migrate(ctx); err != nil {
			log.WithError(err).Fatal("schema migration failed")
		}
		store = s
		persister = s
		defer s.Close()
	} else {
		log.Warn("DATABASE_URL not set, rooms will not survive restarts")
	}

	var recorder game.ActionRecorder
	if cfg.RedisAddr != "" {
		c, err := cache.Connect(ctx, cfg.RedisAddr, cfg.RedisPassword, cfg.RedisDB, cfg.CacheTTL, log)
		if err != nil {
			log.WithError(err).Fatal("redis unavailable")
		}
		recorder = c
		if persister != nil {
			// Layer the room-state cache over postgres: snapshot saves
			// write through, restores read the cached copy first.
			persister = cache.NewSnapshotStore(c, persister, log)
		}
		defer c.Close()
	} else {
		log.Warn("REDIS_ADDR not set, move log disabled")
	}

	classic := game.NewEngine(persister, recorder, log)
	board := game.NewRemiEngine(persister, recorder, log)
	disconnects := game.NewDisconnectionHandler(board, log)
	defer classic.Close()
	defer board.Close()
	defer disconnects.Close()

	if store != nil {
		restoreRooms(ctx, store, classic, board, cfg.RestoreWindow, log)
	}

	go maintenanceLoop(ctx, cfg, classic, board, store, log)

	log.Info("remid up")
	<-ctx.Done()
	log.Info("shutting down, saving rooms")
	classic.SaveAll()
	board.SaveAll()
	// Give the async saves a moment to flush.
	time.Sleep(time.Second)
}

// restoreRooms brings recently active rooms back into memory after a
// restart, routing each snapshot to the engine of its variant.
func restoreRooms(ctx context.Context, store *database.Store, classic *game.Engine, board *game.RemiEngine, window time.Duration, log *logrus.Logger) {
	ids, err := store.ListRoomIDs(ctx, time.Now().Add(-window))
	if err != nil {
		log.WithError(err).Error("listing persisted rooms failed")
		return
	}
	restored := 0
	for _, id := range ids {
		snap, err := store.LoadRoom(ctx, id)
		if err != nil || snap == nil {
			continue
		}
		switch snap.Variant {
		case game.VariantClassic:
			_, err = classic.RestoreRoom(ctx, id)
		case game.VariantBoard:
			_, err = board.RestoreRoom(ctx, id)
		default:
			continue
		}
		if err != nil {
			log.WithError(err).WithField("room_id", id).Warn("room restore failed")
			continue
		}
		restored++
	}
	log.WithField("rooms", restored).Info("restored persisted rooms")
}

// maintenanceLoop periodically saves live rooms and sweeps out idle ones,
// both in memory and in the snapshot table.
func maintenanceLoop(ctx context.Context, cfg config.Config, classic *game.Engine, board *game.RemiEngine, store *database.Store, log *logrus.Logger) {
	cleanup := time.NewTicker(cfg.CleanupInterval)
	autosave := time.NewTicker(cfg.AutoSaveInterval)
	defer cleanup.Stop()
	defer autosave.Stop()

	for {
		select {
		case <-ctx.Done():
			return
		case <-autosave.C:
			classic.SaveAll()
			board.SaveAll()
		case <-cleanup.C:
			removed := classic.CleanupInactiveRooms(cfg.RoomIdleTimeout)
			removed += board.CleanupInactiveRooms(cfg.RoomIdleTimeout)
			if removed > 0 {
				log.WithField("rooms", removed).Info("swept idle rooms")
			}
			if store != nil {
				pruneCtx, cancel := context.WithTimeout(ctx, 30*time.Second)
				if n, err := store.PruneStale(pruneCtx, time.Now().Add(-24*time.Hour)); err != nil {
					log.WithError(err).Warn("snapshot prune failed")
				} else if n > 0 {
					log.WithField("snapshots", n).Info("pruned stale snapshots")
				}
				cancel()
			}
		}
	}
}
