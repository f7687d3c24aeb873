// Package backend opens the record store selected by STORE_BACKEND.
package backend

import (
	"context"
	"fmt"
	"log"

	firebase "firebase.google.com/go"
	"github.com/redis/go-redis/v9"

	"github.com/ariefcatur/go-seller-assistant/internal/auth"
	"github.com/ariefcatur/go-seller-assistant/internal/config"
	"github.com/ariefcatur/go-seller-assistant/internal/firebasedb"
	"github.com/ariefcatur/go-seller-assistant/internal/orders"
	"github.com/ariefcatur/go-seller-assistant/internal/postgres"
	"github.com/ariefcatur/go-seller-assistant/internal/redisx"
	"github.com/ariefcatur/go-seller-assistant/internal/sqlite"
)

const (
	Postgres = "postgres"
	Firebase = "firebase"
	SQLite   = "sqlite"
	Memory   = "memory"
)

type Backend struct {
	Kind     string
	Store    orders.Store
	Firebase *firebase.App // nil unless Firebase is configured

	closers []func()
}

// Open connects the configured store. rdb, when set, serializes Firebase
// writes across processes; without it locks are process-local.
func Open(ctx context.Context, cfg config.Config, rdb *redis.Client) (*Backend, error) {
	b := &Backend{Kind: cfg.StoreBackend}
	switch cfg.StoreBackend {
	case Postgres:
		pool, err := postgres.Connect(ctx, cfg.PostgresDSN)
		if err != nil {
			return nil, err
		}
		b.Store = &orders.Repo{DB: pool}
		b.closers = append(b.closers, pool.Close)
	case Firebase:
		app, err := firebasedb.NewApp(ctx, cfg.FirebaseCredentials, cfg.FirebaseProjectID, cfg.FirebaseDatabaseURL)
		if err != nil {
			return nil, err
		}
		client, err := app.Database(ctx)
		if err != nil {
			return nil, fmt.Errorf("firebase database: %w", err)
		}
		var locks firebasedb.Locker
		if rdb != nil {
			locks = redisx.NewLocker(rdb)
		}
		b.Store = firebasedb.New(firebasedb.RTDB{Client: client}, locks)
		b.Firebase = app
	case SQLite:
		st, err := sqlite.Open(ctx, cfg.SQLitePath)
		if err != nil {
			return nil, err
		}
		b.Store = st
		b.closers = append(b.closers, func() { _ = st.Close() })
	case Memory:
		b.Store = orders.NewMemStore()
	default:
		return nil, fmt.Errorf("unknown STORE_BACKEND %q", cfg.StoreBackend)
	}

	// Google login needs the Admin SDK even when records live elsewhere.
	if b.Firebase == nil && cfg.FirebaseProjectID != "" {
		app, err := firebasedb.NewApp(ctx, cfg.FirebaseCredentials, cfg.FirebaseProjectID, cfg.FirebaseDatabaseURL)
		if err != nil {
			log.Printf("[backend] firebase auth disabled: %v", err)
		} else {
			b.Firebase = app
		}
	}
	log.Printf("[backend] store=%s firebase=%t", b.Kind, b.Firebase != nil)
	return b, nil
}

// Verifier returns the Firebase ID-token verifier, or nil when Firebase is
// not configured.
func (b *Backend) Verifier(ctx context.Context) (auth.IDTokenVerifier, error) {
	if b.Firebase == nil {
		return nil, nil
	}
	c, err := b.Firebase.Auth(ctx)
	if err != nil {
		return nil, fmt.Errorf("firebase auth: %w", err)
	}
	return c, nil
}

func (b *Backend) Close() {
	for i := len(b.closers) - 1; i >= 0; i-- {
		b.closers[i]()
	}
}
