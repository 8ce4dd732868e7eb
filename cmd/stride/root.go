package main

import (
	"context"
	"fmt"
	"io"
	"time"

	tea "github.com/charmbracelet/bubbletea"
	"github.com/spf13/cobra"

	"github.com/tgienger/stride/internal/app"
	"github.com/tgienger/stride/internal/config"
	"github.com/tgienger/stride/internal/derive"
	"github.com/tgienger/stride/internal/logging"
	"github.com/tgienger/stride/internal/service"
	"github.com/tgienger/stride/internal/store"
	"github.com/tgienger/stride/internal/ui"
)

var configPath string

var rootCmd = &cobra.Command{
	Use:           "stride",
	Short:         "Tasks, inbox and long-term goals in the terminal",
	SilenceUsage:  true,
	SilenceErrors: true,
	RunE: func(cmd *cobra.Command, args []string) error {
		sess, err := openSession(cmd.Context())
		if err != nil {
			return err
		}
		defer sess.Close()

		p := tea.NewProgram(ui.NewApp(cmd.Context(), sess.svc), tea.WithAltScreen(), tea.WithContext(cmd.Context()))
		if _, err := p.Run(); err != nil {
			return fmt.Errorf("error running application: %w", err)
		}
		return nil
	},
}

var versionCmd = &cobra.Command{
	Use:   "version",
	Short: "Print version information",
	Run: func(cmd *cobra.Command, args []string) {
		fmt.Printf("stride %s (commit: %s, built: %s)\n", version, commit, date)
	},
}

func init() {
	rootCmd.PersistentFlags().StringVarP(&configPath, "config", "c", "", "Path to the config file")
	rootCmd.AddCommand(versionCmd)
}

// session is everything a command needs to talk to the store
type session struct {
	store store.Store
	svc   *app.Services

	logCloser io.Closer
}

func openSession(ctx context.Context) (*session, error) {
	if err := config.LoadDotEnv(); err != nil {
		return nil, err
	}

	path := configPath
	if path == "" {
		p, err := config.Path()
		if err != nil {
			return nil, err
		}
		path = p
	}
	cfg, err := config.Load(path)
	if err != nil {
		return nil, err
	}

	logger, logCloser, err := logging.Open(cfg.Log)
	if err != nil {
		return nil, err
	}

	s, err := openStore(cfg)
	if err != nil {
		logCloser.Close()
		return nil, err
	}
	logger.InfoContext(ctx, "store opened", "backend", cfg.Backend)

	return &session{
		store:     s,
		svc:       app.NewServices(s, service.WithLogger(logger)),
		logCloser: logCloser,
	}, nil
}

func openStore(cfg *config.Config) (store.Store, error) {
	if cfg.Backend == config.BackendPostgREST {
		pg := cfg.PostgREST
		s, err := store.NewPostgREST(pg.URL, pg.APIKey, pg.Timeout, store.WithSchema(pg.Schema))
		if err != nil {
			return nil, err
		}
		return s, nil
	}

	s, err := store.NewSQLite(cfg.SQLite.Path)
	if err != nil {
		return nil, err
	}
	return s, nil
}

func (s *session) Close() error {
	err := s.store.Close()
	if cerr := s.logCloser.Close(); err == nil {
		err = cerr
	}
	return err
}

func today() string {
	return derive.FormatDate(time.Now())
}
