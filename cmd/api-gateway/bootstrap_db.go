package main

import (
	"context"
	"errors"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/redis/go-redis/v9"
	"go.uber.org/zap"

	config "github.com/NordCoder/Credgate/internal/config/api-gateway"
	domainauth "github.com/NordCoder/Credgate/internal/domain/auth"
	"github.com/NordCoder/Credgate/internal/domain/user"
	"github.com/NordCoder/Credgate/internal/repository/memory"
	pg "github.com/NordCoder/Credgate/internal/repository/postgres"
	redisrepo "github.com/NordCoder/Credgate/internal/repository/redis"
)

type userStore interface {
	user.Directory
	user.Lister
}

type recordStore interface {
	domainauth.RevocationStore
	domainauth.ExpiredSweeper
}

type stores struct {
	users   userStore
	records recordStore
	ping    func(context.Context) error
	close   func()
}

// initStores wires the user directory and the revocation store for the
// configured driver. Users live in postgres for every driver but memory.
func initStores(ctx context.Context, cfg *config.Config, logger *zap.Logger) (*stores, error) {
	if cfg.Store.Driver == config.StoreMemory {
		logger.Warn("using in-memory stores, state is lost on restart")
		return &stores{
			users:   memory.NewUsers(),
			records: memory.NewRecords(),
			ping:    func(context.Context) error { return nil },
			close:   func() {},
		}, nil
	}

	db, err := pg.NewDB(ctx, cfg.DB, logger)
	if err != nil {
		return nil, err
	}
	if err := prometheus.Register(db.Collector()); err != nil {
		logger.Warn("register pool metrics", zap.Error(err))
	}
	s := &stores{
		users: pg.NewUserRepo(db),
		ping:  db.Ping,
		close: db.Close,
	}

	switch cfg.Store.Driver {
	case config.StoreRedis:
		rdb := redis.NewUniversalClient(&redis.UniversalOptions{
			Addrs:    []string{cfg.Redis.Addr},
			Password: cfg.Redis.Password,
			DB:       cfg.Redis.DB,
		})
		if err := rdb.Ping(ctx).Err(); err != nil {
			db.Close()
			_ = rdb.Close()
			return nil, err
		}
		s.records = redisrepo.NewRecords(rdb, cfg.Redis.Prefix)
		s.ping = func(ctx context.Context) error {
			return errors.Join(db.Ping(ctx), rdb.Ping(ctx).Err())
		}
		s.close = func() {
			_ = rdb.Close()
			db.Close()
		}
	default:
		s.records = pg.NewRefreshRecordRepo(db, pg.NewTransactor(db, logger))
	}

	logger.Info("stores ready", zap.String("driver", cfg.Store.Driver))
	return s, nil
}
