/*
Copyright © 2026 Seednode <seednode@seedno.de>
*/

package main

import (
	"context"
	"crypto/rand"
	"errors"
	"fmt"
	"log/slog"
	"strings"
	"time"

	"github.com/spf13/cobra"
	"github.com/spf13/pflag"
	"github.com/spf13/viper"

	"github.com/Seednode/secretsanta/logging"
	"github.com/Seednode/secretsanta/storage"
	"github.com/Seednode/secretsanta/storage/dynamo"
	"github.com/Seednode/secretsanta/storage/memory"
	"github.com/Seednode/secretsanta/storage/mongo"
	"github.com/Seednode/secretsanta/storage/sqlite"
)

const minSecretLength = 32

type Config struct {
	bind           string
	corsOrigins    []string
	dynamoEndpoint string
	dynamoRegion   string
	dynamoTable    string
	maxAttempts    int
	metrics        bool
	mongoDatabase  string
	mongoURI       string
	pollInterval   time.Duration
	port           int
	prefix         string
	profile        bool
	retention      time.Duration
	secret         string
	sqlitePath     string
	store          string
	tlsCert        string
	tlsKey         string
	verbose        bool
	version        bool
}

func (c *Config) validate() error {
	if (c.tlsCert == "") != (c.tlsKey == "") {
		return errors.New("both --tls-cert and --tls-key must be provided together")
	}
	if c.port < 1 || c.port > 65535 {
		return fmt.Errorf("invalid port (must be between 1-65535 inclusive): %d", c.port)
	}
	if c.maxAttempts < 1 {
		return fmt.Errorf("invalid max attempts (must be at least 1): %d", c.maxAttempts)
	}
	if c.pollInterval < 0 || c.retention < 0 {
		return errors.New("--poll-interval and --retention must not be negative")
	}
	if c.secret != "" && len(c.secret) < minSecretLength {
		return fmt.Errorf("--secret must be at least %d bytes", minSecretLength)
	}

	switch c.store {
	case "memory", "sqlite":
	case "dynamodb":
		if c.dynamoTable == "" {
			return errors.New("--dynamodb-table is required with --store dynamodb")
		}
	case "mongodb":
		if c.mongoURI == "" {
			return errors.New("--mongodb-uri is required with --store mongodb")
		}
	default:
		return fmt.Errorf("unknown store %q (must be memory, sqlite, dynamodb, or mongodb)", c.store)
	}

	return nil
}

func (c *Config) scheme() string {
	if c.tlsCert != "" && c.tlsKey != "" {
		return "https"
	}
	return "http"
}

// secretBytes returns the configured signing secret, or a random one that
// lasts until restart.
func (c *Config) secretBytes() ([]byte, error) {
	if c.secret != "" {
		return []byte(c.secret), nil
	}

	buf := make([]byte, minSecretLength)
	if _, err := rand.Read(buf); err != nil {
		return nil, err
	}

	slog.Warn("no --secret configured, admin tokens and device cookies will not survive a restart")

	return buf, nil
}

func openStore(ctx context.Context, cfg *Config) (storage.Store, error) {
	switch cfg.store {
	case "sqlite":
		return sqlite.New(cfg.sqlitePath)
	case "dynamodb":
		return dynamo.Open(ctx, dynamo.Options{
			Table:    cfg.dynamoTable,
			Region:   cfg.dynamoRegion,
			Endpoint: cfg.dynamoEndpoint,
		})
	case "mongodb":
		return mongo.Open(ctx, cfg.mongoURI, cfg.mongoDatabase)
	default:
		return memory.New(), nil
	}
}

func newCmd(cfg *Config) *cobra.Command {
	v := viper.New()
	v.SetEnvPrefix("SECRETSANTA")
	v.SetEnvKeyReplacer(strings.NewReplacer("-", "_"))
	v.AutomaticEnv()

	cmd := &cobra.Command{
		Use:           "secretsanta",
		Short:         "Draws Secret Santa assignments, locally or across devices.",
		Args:          cobra.ExactArgs(0),
		SilenceErrors: true,
		Version:       releaseVersion,
		RunE: func(cmd *cobra.Command, args []string) error {
			if err := cfg.validate(); err != nil {
				return err
			}

			logging.Setup(cfg.verbose)

			return ServePage(cmd.Context(), cfg, args)
		},
	}

	fs := cmd.Flags()

	fs.SetNormalizeFunc(func(_ *pflag.FlagSet, name string) pflag.NormalizedName {
		return pflag.NormalizedName(strings.ReplaceAll(name, "_", "-"))
	})

	fs.StringVarP(&cfg.bind, "bind", "b", "0.0.0.0", "address to bind to (env: SECRETSANTA_BIND)")
	fs.StringSliceVar(&cfg.corsOrigins, "cors-origin", nil, "origin allowed to call the api, repeatable (env: SECRETSANTA_CORS_ORIGIN)")
	fs.StringVar(&cfg.dynamoEndpoint, "dynamodb-endpoint", "", "override dynamodb endpoint, e.g. for dynamodb-local (env: SECRETSANTA_DYNAMODB_ENDPOINT)")
	fs.StringVar(&cfg.dynamoRegion, "dynamodb-region", "", "aws region of the dynamodb table (env: SECRETSANTA_DYNAMODB_REGION)")
	fs.StringVar(&cfg.dynamoTable, "dynamodb-table", "secretsanta-groups", "dynamodb table name (env: SECRETSANTA_DYNAMODB_TABLE)")
	fs.IntVar(&cfg.maxAttempts, "max-attempts", 5, "write attempts before a busy group reports try again (env: SECRETSANTA_MAX_ATTEMPTS)")
	fs.BoolVar(&cfg.metrics, "metrics", false, "serve prometheus metrics on /metrics (env: SECRETSANTA_METRICS)")
	fs.StringVar(&cfg.mongoDatabase, "mongodb-database", "secretsanta", "mongodb database name (env: SECRETSANTA_MONGODB_DATABASE)")
	fs.StringVar(&cfg.mongoURI, "mongodb-uri", "", "mongodb connection string (env: SECRETSANTA_MONGODB_URI)")
	fs.DurationVar(&cfg.pollInterval, "poll-interval", 5*time.Second, "how often live connections re-read the store, 0 to disable (env: SECRETSANTA_POLL_INTERVAL)")
	fs.IntVarP(&cfg.port, "port", "p", 8080, "port to listen on (env: SECRETSANTA_PORT)")
	fs.StringVar(&cfg.prefix, "prefix", "", "path to prepend to all URLs, for use behind reverse proxy (env: SECRETSANTA_PREFIX)")
	fs.BoolVar(&cfg.profile, "profile", false, "register net/http/pprof handlers (env: SECRETSANTA_PROFILE)")
	fs.DurationVar(&cfg.retention, "retention", 0, "delete groups older than this, 0 to keep forever (env: SECRETSANTA_RETENTION)")
	fs.StringVar(&cfg.secret, "secret", "", "secret used to sign admin tokens and device cookies, at least 32 bytes (env: SECRETSANTA_SECRET)")
	fs.StringVar(&cfg.sqlitePath, "sqlite-path", "secretsanta.db", "path to sqlite database file (env: SECRETSANTA_SQLITE_PATH)")
	fs.StringVar(&cfg.store, "store", "memory", "group storage backend: memory, sqlite, dynamodb, or mongodb (env: SECRETSANTA_STORE)")
	fs.StringVar(&cfg.tlsCert, "tls-cert", "", "path to tls certificate (env: SECRETSANTA_TLS_CERT)")
	fs.StringVar(&cfg.tlsKey, "tls-key", "", "path to tls keyfile (env: SECRETSANTA_TLS_KEY)")
	fs.BoolVarP(&cfg.verbose, "verbose", "v", false, "display additional output (env: SECRETSANTA_VERBOSE)")
	fs.BoolVarP(&cfg.version, "version", "V", false, "display version and exit (env: SECRETSANTA_VERSION)")

	fs.VisitAll(func(f *pflag.Flag) {
		_ = v.BindPFlag(f.Name, f)
		_ = v.BindEnv(f.Name)
		if !f.Changed && v.IsSet(f.Name) {
			_ = fs.Set(f.Name, fmt.Sprintf("%v", v.Get(f.Name)))
		}
	})

	cmd.AddCommand(newDrawCmd())

	cmd.CompletionOptions.HiddenDefaultCmd = true
	cmd.SetHelpCommand(&cobra.Command{Hidden: true})
	cmd.SetVersionTemplate("secretsanta v{{.Version}}\n")

	cmd.SilenceErrors = true
	cmd.SilenceUsage = true

	return cmd
}
