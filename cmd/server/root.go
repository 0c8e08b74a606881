package main

import (
	"bufio"
	"errors"
	"fmt"
	"io"
	"log/slog"
	"strings"

	"github.com/spf13/cobra"

	"github.com/aiplsaur/APIMongoDB/internal/config"
	"github.com/aiplsaur/APIMongoDB/internal/middleware"
	"github.com/aiplsaur/APIMongoDB/internal/server"
)

type app struct {
	cfgFile string
	cfg     *config.Config
	logger  *slog.Logger
}

func newRootCmd() *cobra.Command {
	a := &app{}

	rootCmd := &cobra.Command{
		Use:   "apimongodb",
		Short: "REST administration API for document databases",
		Long: `apimongodb serves a REST API for browsing and editing a document database:
collections, documents, ad-hoc db.* queries and saved queries.

MongoDB, SurrealDB and SQLite connection strings are accepted.`,
		PersistentPreRunE: func(cmd *cobra.Command, _ []string) error {
			if cmd.Name() == "hash-password" || cmd.Name() == "help" {
				return nil
			}
			return a.load(cmd)
		},
		RunE:          a.serve,
		SilenceUsage:  true,
		SilenceErrors: true,
	}

	flags := rootCmd.PersistentFlags()
	flags.StringVar(&a.cfgFile, "config", "", "config file (default: ./"+config.DefaultConfigFile+")")
	flags.Int("port", 0, "HTTP port")
	flags.String("env", "", "Environment (development|production|test)")
	flags.String("log-level", "", "Log level (debug|info|warn|error)")
	flags.String("log-format", "", "Log format (json|text)")
	flags.String("database-uri", "", "Connection string to open at startup")

	rootCmd.AddCommand(&cobra.Command{
		Use:   "serve",
		Short: "Run the HTTP API (default)",
		Args:  cobra.NoArgs,
		RunE:  a.serve,
	})
	rootCmd.AddCommand(newHashPasswordCmd())

	return rootCmd
}

// load reads and validates the configuration, then installs the logger.
func (a *app) load(cmd *cobra.Command) error {
	cfg, err := config.Load(a.cfgFile, cmd.Root().PersistentFlags())
	if err != nil {
		return err
	}
	if err := cfg.Validate(); err != nil {
		return fmt.Errorf("invalid configuration: %w", err)
	}

	a.cfg = cfg
	a.logger = newLogger(cmd.ErrOrStderr(), cfg.Log)
	slog.SetDefault(a.logger)
	return nil
}

func (a *app) serve(cmd *cobra.Command, _ []string) error {
	return server.New(a.cfg, a.logger).Serve(cmd.Context())
}

func newLogger(w io.Writer, cfg config.LogConfig) *slog.Logger {
	opts := &slog.HandlerOptions{Level: cfg.SlogLevel()}
	if cfg.Format == "text" {
		return slog.New(slog.NewTextHandler(w, opts))
	}
	return slog.New(slog.NewJSONHandler(w, opts))
}

func newHashPasswordCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "hash-password [password]",
		Short: "Print the bcrypt hash for auth.password_hash",
		Long: `Print the bcrypt hash of a password for use as auth.password_hash.
Without an argument the password is read from the first line of stdin.`,
		Args: cobra.MaximumNArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			var password string
			if len(args) == 1 {
				password = args[0]
			} else {
				line, err := bufio.NewReader(cmd.InOrStdin()).ReadString('\n')
				if err != nil && !errors.Is(err, io.EOF) {
					return fmt.Errorf("read password: %w", err)
				}
				password = strings.TrimRight(line, "\r\n")
			}
			if password == "" {
				return errors.New("password must not be empty")
			}

			hash, err := middleware.HashPassword(password)
			if err != nil {
				return err
			}
			_, err = fmt.Fprintln(cmd.OutOrStdout(), hash)
			return err
		},
	}
}
