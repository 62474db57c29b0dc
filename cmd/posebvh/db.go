package main

import (
	"context"
	"fmt"
	"log/slog"
	"strings"

	"posebvh/internal/config"
	"posebvh/internal/notify"
	"posebvh/internal/store"
	"posebvh/internal/store/postgres"
	"posebvh/internal/store/sqlite"
)

// openDB opens the export history named by database.dsn. It returns a nil
// Store when history is disabled.
func openDB(ctx context.Context, cfg *config.Config) (store.Store, error) {
	dsn := strings.TrimSpace(cfg.Database.DSN)
	if dsn == "" {
		return nil, nil
	}

	var db store.Store
	switch {
	case strings.HasPrefix(dsn, "sqlite://"):
		client, err := sqlite.New(ctx, dsn)
		if err != nil {
			return nil, err
		}
		db = client
	case strings.HasPrefix(dsn, "postgres://"), strings.HasPrefix(dsn, "postgresql://"):
		client, err := postgres.New(ctx, dsn)
		if err != nil {
			return nil, err
		}
		db = client
	default:
		return nil, fmt.Errorf("unsupported database dsn: %s", dsn)
	}

	if err := db.EnsureSchema(ctx); err != nil {
		db.Close(ctx)
		return nil, err
	}
	return db, nil
}

// openNotifier connects to the configured broker. A broker that is down is
// retried in the background; a connection that fails outright only disables
// notifications.
func openNotifier(cfg *config.Config) notify.Notifier {
	n, err := notify.New(cfg.MQTT)
	if err != nil {
		slog.Warn("export notifications disabled", "broker", cfg.MQTT.Broker, "error", err)
		return notify.Nop{}
	}
	return n
}
