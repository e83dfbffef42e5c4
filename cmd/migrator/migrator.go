package main

import (
	"context"
	"flag"
	"os"
	"os/signal"
	"syscall"

	_ "github.com/jackc/pgx/v5/stdlib"
	"github.com/pressly/goose/v3"
	"go.uber.org/zap"

	"github.com/NordCoder/Credgate/internal/obs"
)

// Usage: migrator [-dir migrations] [-dsn postgres://...] [up|down|status|reset|version]
// The DSN falls back to DB_DSN.
func main() {
	dir := flag.String("dir", "migrations", "directory with goose migrations")
	dsn := flag.String("dsn", os.Getenv("DB_DSN"), "postgres connection string")
	flag.Parse()

	logger, err := obs.NewLogger(obs.LogConfig{Level: "info", Pretty: true, App: "migrator"})
	if err != nil {
		panic(err)
	}
	defer func() { _ = logger.Sync() }()

	if *dsn == "" {
		logger.Fatal("no dsn: pass -dsn or set DB_DSN")
	}
	command := "up"
	if flag.NArg() > 0 {
		command = flag.Arg(0)
	}

	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	goose.SetLogger(zap.NewStdLog(logger))
	if err := goose.SetDialect("postgres"); err != nil {
		logger.Fatal("set dialect", zap.Error(err))
	}
	db, err := goose.OpenDBWithDriver("pgx", *dsn)
	if err != nil {
		logger.Fatal("open db", zap.Error(err))
	}
	defer db.Close()

	if err := goose.RunContext(ctx, command, db, *dir, flag.Args()[min(1, flag.NArg()):]...); err != nil {
		logger.Fatal("migrate", zap.String("command", command), zap.Error(err))
	}
	logger.Info("migrations done", zap.String("command", command), zap.String("dir", *dir))
}
