package main

import (
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/spf13/cobra"
	"go.uber.org/zap"
	"golang.org/x/sync/errgroup"

	"github.com/robert-malhotra/h5view/internal/catalog"
	"github.com/robert-malhotra/h5view/internal/server"
	"github.com/robert-malhotra/h5view/internal/session"
)

var (
	serveAddr    string
	serveDataDir string
)

var serveCmd = &cobra.Command{
	Use:   "serve",
	Short: "Start the browser viewer",
	Long: `Starts the HTTP server with the browser viewer and its JSON API.

Files can be uploaded from the browser. With a data directory configured
(--data-dir, data.dir or H5VIEW_DATA_DIR) its HDF5 files are listed too.`,
	Args: cobra.NoArgs,
	RunE: runServe,
}

func init() {
	serveCmd.Flags().StringVar(&serveAddr, "addr", "", "listen address (overrides server.addr)")
	serveCmd.Flags().StringVar(&serveDataDir, "data-dir", "", "directory of HDF5 files to list (overrides data.dir)")
}

func newSessions() *session.Manager {
	return session.NewManager(session.Options{
		TTL:         cfg.GetSessionTTL(),
		MaxSessions: cfg.Server.MaxSessions,
		MaxElements: cfg.Render.MaxElements,
		MatrixRows:  cfg.Render.MatrixRows,
		MatrixCols:  cfg.Render.MatrixCols,
		Logger:      logger,
	})
}

func runServe(cmd *cobra.Command, args []string) error {
	if serveAddr != "" {
		cfg.Server.Addr = serveAddr
	}
	if serveDataDir != "" {
		cfg.Data.Dir = serveDataDir
	}

	ctx, stop := signal.NotifyContext(cmd.Context(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	var cat *catalog.Catalog
	if cfg.Data.Dir != "" {
		var err error
		if cat, err = catalog.New(cfg.Data.Dir, logger); err != nil {
			return err
		}
		logger.Info("catalog loaded", zap.String("dir", cfg.Data.Dir), zap.Int("files", len(cat.List())))
	}

	sessions := newSessions()
	srv, err := server.New(cfg, sessions, cat, logger)
	if err != nil {
		return err
	}

	g, ctx := errgroup.WithContext(ctx)
	g.Go(func() error { return srv.ListenAndServe(ctx) })
	g.Go(func() error {
		sessions.Run(ctx, time.Minute)
		return nil
	})
	if cat != nil && cfg.Data.Watch {
		g.Go(func() error { return cat.Watch(ctx) })
	}
	return g.Wait()
}
