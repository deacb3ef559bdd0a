package main

import (
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"strconv"
	"strings"
	"time"

	"github.com/redis/go-redis/v9"
	"github.com/smallbiznis/scraprates/internal/apiclient"
	"github.com/smallbiznis/scraprates/internal/clock"
	"github.com/smallbiznis/scraprates/internal/localstore"
	"github.com/spf13/cobra"
	"go.uber.org/zap"
	"go.uber.org/zap/zapcore"
)

type options struct {
	server        string
	adminSecret   string
	storePath     string
	redisAddr     string
	redisPassword string
	redisDB       int
	timezone      string
	verbose       bool
}

// app holds what every command needs. Fields already set before open are
// kept, which lets tests swap in a memory store and a fixed clock.
type app struct {
	opts options

	log   *zap.Logger
	clock clock.Clock
	kv    localstore.KV

	client   *apiclient.Client
	store    *localstore.Store
	subs     *localstore.SubscriptionStore
	settings *localstore.SettingsStore

	closers []func() error
}

func newRootCmd(a *app) *cobra.Command {
	root := &cobra.Command{
		Use:           "scrapctl",
		Short:         "Scrap rates device tool",
		SilenceUsage:  true,
		SilenceErrors: true,
		PersistentPreRunE: func(cmd *cobra.Command, args []string) error {
			return a.open()
		},
		PersistentPostRunE: func(cmd *cobra.Command, args []string) error {
			return a.close()
		},
	}

	flags := root.PersistentFlags()
	flags.StringVar(&a.opts.server, "server", getenv("SCRAP_API_URL", apiclient.DefaultConfig().BaseURL), "scrap rates API base URL")
	flags.StringVar(&a.opts.adminSecret, "admin-secret", os.Getenv("SCRAP_ADMIN_SECRET"), "admin or operator password for admin commands")
	flags.StringVar(&a.opts.storePath, "store", getenv("SCRAP_STORE_PATH", defaultStorePath()), "local SQLite store file")
	flags.StringVar(&a.opts.redisAddr, "redis-addr", os.Getenv("SCRAP_REDIS_ADDR"), "keep the local store in Redis instead of SQLite")
	flags.StringVar(&a.opts.redisPassword, "redis-password", os.Getenv("SCRAP_REDIS_PASSWORD"), "Redis password")
	flags.IntVar(&a.opts.redisDB, "redis-db", getenvInt("SCRAP_REDIS_DB", 0), "Redis database")
	flags.StringVar(&a.opts.timezone, "timezone", getenv("APP_TIMEZONE", "Asia/Karachi"), "timezone that decides today's date")
	flags.BoolVarP(&a.opts.verbose, "verbose", "v", false, "verbose output")

	root.AddCommand(
		newSyncCmd(a),
		newSeedCmd(a),
		newCategoriesCmd(a),
		newItemsCmd(a),
		newActivateCmd(a),
		newSubscriptionCmd(a),
		newPaymentInfoCmd(a),
		newCodesCmd(a),
		newNotesCmd(a),
		newSettingsCmd(a),
	)
	return root
}

func (a *app) open() error {
	if a.log == nil {
		log, err := newLogger(a.opts.verbose)
		if err != nil {
			return err
		}
		a.log = log
	}
	if a.clock == nil {
		a.clock = clock.System()
	}

	if a.kv == nil {
		kv, err := a.openKV()
		if err != nil {
			return err
		}
		a.kv = kv
	}

	client, err := apiclient.New(apiclient.Config{
		BaseURL:     a.opts.server,
		AdminSecret: a.opts.adminSecret,
	}, a.log)
	if err != nil {
		return err
	}
	a.client = client

	a.store = localstore.NewStore(a.kv, a.clock, a.location())
	a.subs = localstore.NewSubscriptionStore(a.kv, a.clock)
	a.settings = localstore.NewSettingsStore(a.kv)
	return nil
}

func (a *app) openKV() (localstore.KV, error) {
	if addr := strings.TrimSpace(a.opts.redisAddr); addr != "" {
		client := redis.NewClient(&redis.Options{
			Addr:     addr,
			Password: a.opts.redisPassword,
			DB:       a.opts.redisDB,
		})
		a.closers = append(a.closers, client.Close)
		a.log.Debug("using redis store", zap.String("addr", addr))
		return localstore.NewRedisKV(client, "scrapctl:"), nil
	}

	path := strings.TrimSpace(a.opts.storePath)
	if path == "" {
		return nil, errors.New("no local store configured")
	}
	if dir := filepath.Dir(path); dir != "." {
		if err := os.MkdirAll(dir, 0o755); err != nil {
			return nil, fmt.Errorf("create store directory: %w", err)
		}
	}
	kv, err := localstore.OpenSQLiteKV(path)
	if err != nil {
		return nil, err
	}
	a.closers = append(a.closers, kv.Close)
	a.log.Debug("using sqlite store", zap.String("path", path))
	return kv, nil
}

func (a *app) close() error {
	var errs []error
	for i := len(a.closers) - 1; i >= 0; i-- {
		errs = append(errs, a.closers[i]())
	}
	a.closers = nil
	if a.log != nil {
		_ = a.log.Sync()
	}
	return errors.Join(errs...)
}

func (a *app) location() *time.Location {
	loc, err := time.LoadLocation(strings.TrimSpace(a.opts.timezone))
	if err != nil || loc == nil {
		return time.UTC
	}
	return loc
}

func newLogger(verbose bool) (*zap.Logger, error) {
	cfg := zap.NewDevelopmentConfig()
	cfg.Level = zap.NewAtomicLevelAt(zapcore.WarnLevel)
	if verbose {
		cfg.Level = zap.NewAtomicLevelAt(zapcore.DebugLevel)
	}
	cfg.OutputPaths = []string{"stderr"}
	return cfg.Build()
}

func defaultStorePath() string {
	dir, err := os.UserConfigDir()
	if err != nil {
		return "scrapctl.db"
	}
	return filepath.Join(dir, "scraprates", "local.db")
}

func getenv(key, def string) string {
	if v := strings.TrimSpace(os.Getenv(key)); v != "" {
		return v
	}
	return def
}

func getenvInt(key string, def int) int {
	v, err := strconv.Atoi(strings.TrimSpace(os.Getenv(key)))
	if err != nil {
		return def
	}
	return v
}
