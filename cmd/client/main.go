// Package main is the FlashVocab command-line client: an interactive
// flashcard shell plus one-shot commands for words, account and
// reminders.
package main

import (
	"cmp"
	"context"
	"fmt"
	"os"
	"os/signal"
	"syscall"

	"github.com/spf13/cobra"
	"go.uber.org/zap"

	"github.com/atinyakov/FlashVocab/internal/client/app"
	"github.com/atinyakov/FlashVocab/internal/client/enrich"
	"github.com/atinyakov/FlashVocab/internal/client/remote"
	"github.com/atinyakov/FlashVocab/internal/client/storage"
	"github.com/atinyakov/FlashVocab/internal/config"
	"github.com/atinyakov/FlashVocab/internal/logger"
)

var (
	version   string
	buildDate string
)

// session is everything a command needs, opened lazily.
type session struct {
	app   *app.App
	local *storage.LocalStorage
	log   *zap.Logger
}

func (s *session) close() {
	s.app.Close()
	_ = s.local.Close()
	_ = s.log.Sync()
}

func openSession(ctx context.Context, cfg config.Client) (*session, error) {
	l := logger.New()
	if err := l.InitDevelopment(cfg.LogLevel); err != nil {
		return nil, fmt.Errorf("init logger: %w", err)
	}
	log := l.Log

	if err := os.MkdirAll(cfg.DataDir, 0o700); err != nil {
		return nil, fmt.Errorf("create data dir: %w", err)
	}
	local, err := storage.Open(cfg.DatabasePath(), log.Named("storage"))
	if err != nil {
		return nil, err
	}
	httpClient, err := storage.NewHTTPClient(cfg.CAFile, cfg.Timeout)
	if err != nil {
		_ = local.Close()
		return nil, err
	}

	rc := remote.New(cfg.ServerURL, httpClient, local, log.Named("remote"))
	ec := enrich.Config{
		DictionaryURL: cfg.DictionaryURL,
		Lookup:        rc,
		Log:           log.Named("enrich"),
	}
	if fi, err := os.Stat(cfg.DecksDir); err == nil && fi.IsDir() {
		ec.Decks = os.DirFS(cfg.DecksDir)
	}

	a := app.New(app.Options{
		Local:  local,
		Remote: rc,
		Enrich: enrich.New(ec),
		Log:    log,
	})
	if err := a.Bootstrap(ctx); err != nil {
		a.Close()
		_ = local.Close()
		return nil, err
	}
	return &session{app: a, local: local, log: log}, nil
}

func newRootCmd() *cobra.Command {
	cfg := config.DefaultClient()

	root := &cobra.Command{
		Use:           "flashvocab",
		Short:         "Vocabulary flashcards with dictionary lookup and daily reminders",
		SilenceUsage:  true,
		SilenceErrors: true,
		PersistentPreRun: func(cmd *cobra.Command, _ []string) {
			cfg.ApplyEnv(os.Getenv, func(name string) bool {
				return cmd.Flags().Changed(name)
			})
		},
	}

	pf := root.PersistentFlags()
	pf.StringVar(&cfg.ServerURL, "server", cfg.ServerURL, "sync server base URL")
	pf.StringVar(&cfg.CAFile, "ca", cfg.CAFile, "CA certificate for an HTTPS server")
	pf.StringVar(&cfg.DataDir, "data", cfg.DataDir, "directory for local data")
	pf.StringVar(&cfg.DecksDir, "decks", cfg.DecksDir, "directory with deck files")
	pf.StringVar(&cfg.DictionaryURL, "dictionary-url", cfg.DictionaryURL, "dictionary API endpoint")
	pf.StringVar(&cfg.LogLevel, "log-level", cfg.LogLevel, "log level")
	pf.DurationVar(&cfg.Timeout, "timeout", cfg.Timeout, "HTTP timeout")

	// withSession opens local state for the duration of one command.
	withSession := func(run func(cmd *cobra.Command, args []string, s *session) error) func(*cobra.Command, []string) error {
		return func(cmd *cobra.Command, args []string) error {
			s, err := openSession(cmd.Context(), cfg)
			if err != nil {
				return err
			}
			defer s.close()
			return run(cmd, args, s)
		}
	}

	root.AddCommand(newVersionCmd(), newShellCmd(withSession))
	root.AddCommand(newAccountCmds(withSession)...)
	root.AddCommand(newWordCmds(withSession)...)
	root.AddCommand(newRemindCmd(withSession))
	return root
}

type sessionRunner func(run func(cmd *cobra.Command, args []string, s *session) error) func(*cobra.Command, []string) error

func newVersionCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "version",
		Short: "Show build version and date",
		Run: func(cmd *cobra.Command, _ []string) {
			fmt.Fprintf(cmd.OutOrStdout(), "FlashVocab Client\nVersion: %s\nBuild Date: %s\n",
				cmp.Or(version, "N/A"), cmp.Or(buildDate, "N/A"))
		},
	}
}

func main() {
	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	if err := newRootCmd().ExecuteContext(ctx); err != nil {
		fmt.Fprintln(os.Stderr, "Error:", err)
		stop()
		os.Exit(1)
	}
}
