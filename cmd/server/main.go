package main

import (
	"context"
	"errors"
	"fmt"
	"io"
	"log/slog"
	"net/http"
	"os"
	"os/signal"
	"path/filepath"
	"sync"
	"syscall"
	"time"

	sdkmcp "github.com/modelcontextprotocol/go-sdk/mcp"
	"golang.org/x/sync/errgroup"

	"github.com/ganot/report-results/internal/config"
	"github.com/ganot/report-results/internal/domain/activity"
	"github.com/ganot/report-results/internal/domain/definition"
	"github.com/ganot/report-results/internal/domain/identity"
	"github.com/ganot/report-results/internal/domain/result"
	"github.com/ganot/report-results/internal/gcs"
	"github.com/ganot/report-results/internal/mcp"
	"github.com/ganot/report-results/internal/renderer"
	"github.com/ganot/report-results/internal/repository"
	"github.com/ganot/report-results/internal/sqlite"
	"github.com/ganot/report-results/internal/temporal"
	"github.com/ganot/report-results/internal/transport"
)

func main() {
	cfg, err := config.Load(os.Args[1:])
	if err != nil {
		fmt.Fprintf(os.Stderr, "config error: %v\n", err)
		os.Exit(1)
	}

	// stdout carries JSON-RPC in stdio mode.
	logWriter := io.Writer(os.Stdout)
	if cfg.Transport.Mode == "stdio" {
		logWriter = os.Stderr
	}
	if cfg.Log.Path != "" {
		fileWriter, err := newLogFileWriter(cfg.Log.Path)
		if err != nil {
			fmt.Fprintf(os.Stderr, "log file error: %v\n", err)
		} else {
			defer fileWriter.Close()
			logWriter = fileWriter
		}
	}
	logger := slog.New(slog.NewTextHandler(logWriter, &slog.HandlerOptions{
		Level: parseLogLevel(cfg.Log.Level),
	}))

	ctx, stop := signal.NotifyContext(context.Background(), syscall.SIGINT, syscall.SIGTERM)
	defer stop()

	if err := run(ctx, cfg, logger); err != nil {
		logger.Error("server stopped", "error", err)
		os.Exit(1)
	}
}

func run(ctx context.Context, cfg config.Config, logger *slog.Logger) error {
	if err := ensureDBDir(cfg.DB.Path); err != nil {
		return fmt.Errorf("preparing database path: %w", err)
	}
	db, err := sqlite.New(cfg.DB.Path)
	if err != nil {
		return err
	}
	defer db.Close()
	if err := db.RunMigrations(); err != nil {
		return err
	}

	blobs, closeBlobs, err := openBlobStore(ctx, cfg.Blob, db, logger)
	if err != nil {
		return err
	}
	defer closeBlobs()

	// Task states live in the local tasks table unless a Temporal
	// cluster runs the generation workflows.
	var tasks result.TaskReader
	var taskWriter mcp.TaskStateWriter
	switch cfg.Tasks.Backend {
	case "temporal":
		reader, client, err := temporal.Dial(ctx, temporal.Config{
			HostPort:  cfg.Tasks.HostPort,
			Namespace: cfg.Tasks.Namespace,
		}, logger)
		if err != nil {
			return err
		}
		defer client.Close()
		tasks = reader
	default:
		repo := sqlite.NewTaskRepository(db)
		tasks = repo
		taskWriter = repo
	}

	var docRenderer result.DocumentRenderer
	if cfg.Renderer.URL != "" {
		docRenderer = renderer.New(cfg.Renderer.URL, cfg.Renderer.Timeout, logger)
	} else {
		logger.Warn("no document renderer configured; document downloads will fail")
	}

	definitionRepo := sqlite.NewDefinitionRepository(db)
	activityRepo := sqlite.NewActivityRepository(db)

	identitySvc := identity.NewService(sqlite.NewIdentityRepository(db), logger)
	activitySvc := activity.NewService(activityRepo, logger)
	definitionSvc := definition.NewService(definitionRepo, logger)
	resultSvc := result.NewService(
		sqlite.NewResultRepository(db),
		sqlite.NewSearchRepository(db),
		blobs,
		tasks,
		docRenderer,
		definitionRepo,
		activityRepo,
		logger,
	)

	stdio := cfg.Transport.Mode == "stdio"
	authEnabled := cfg.Auth.Enabled && !stdio

	var defaultCaller identity.Caller
	if !authEnabled || cfg.Auth.AdminToken != "" {
		defaultCaller, err = identitySvc.Bootstrap(ctx, cfg.Auth.DefaultUser)
		if err != nil {
			return fmt.Errorf("bootstrapping %s: %w", cfg.Auth.DefaultUser, err)
		}
	}
	if authEnabled && cfg.Auth.AdminToken != "" {
		err := identitySvc.IssueKey(ctx, defaultCaller.UserID, cfg.Auth.AdminToken, "bootstrap admin token")
		if err != nil && !errors.Is(err, repository.ErrConflict) {
			return fmt.Errorf("issuing admin token: %w", err)
		}
	}

	mcpServer := mcp.NewServer(mcp.Config{
		Services: mcp.Services{
			Results:     resultSvc,
			Definitions: definitionSvc,
			Activity:    activitySvc,
			Tasks:       taskWriter,
		},
		Resolver:      identitySvc,
		AuthEnabled:   authEnabled,
		DefaultCaller: defaultCaller,
		TransportMode: cfg.Transport.Mode,
		Logger:        logger,
	})

	if stdio {
		logger.Info("starting stdio transport", "user", defaultCaller.UserID)
		return mcpServer.Run(ctx, &sdkmcp.StdioTransport{})
	}

	auth := transport.FixedCallerMiddleware(defaultCaller)
	if authEnabled {
		auth = transport.AuthMiddleware(identitySvc)
	}
	handler := transport.NewServer(transport.Config{
		Results: resultSvc,
		MCP:     transport.NewMCPHandler(mcpServer),
		Auth:    auth,
		Logger:  logger,
	})
	return serveHTTP(ctx, logger, handler, fmt.Sprintf("%s:%d", cfg.Server.Host, cfg.Server.Port))
}

// openBlobStore returns the configured payload store and a close func.
func openBlobStore(ctx context.Context, cfg config.BlobConfig, db *sqlite.DB, logger *slog.Logger) (result.BlobStore, func(), error) {
	switch cfg.Backend {
	case "gcs":
		store, err := gcs.New(ctx, gcs.Config{
			Bucket:          cfg.Bucket,
			Prefix:          cfg.Prefix,
			CredentialsFile: cfg.CredentialsFile,
		}, logger)
		if err != nil {
			return nil, nil, err
		}
		return store, func() {
			if err := store.Close(); err != nil {
				logger.Warn("closing gcs client", "error", err)
			}
		}, nil
	default:
		store, err := sqlite.NewBlobRepository(db, cfg.Compression)
		if err != nil {
			return nil, nil, err
		}
		return store, func() {}, nil
	}
}

func serveHTTP(ctx context.Context, logger *slog.Logger, handler http.Handler, addr string) error {
	httpServer := &http.Server{
		Addr:              addr,
		Handler:           handler,
		ReadHeaderTimeout: 10 * time.Second,
	}

	g, gctx := errgroup.WithContext(ctx)
	g.Go(func() error {
		logger.Info("server listening", "addr", addr)
		if err := httpServer.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			return err
		}
		return nil
	})
	g.Go(func() error {
		<-gctx.Done()
		logger.Info("shutting down")
		shutdownCtx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
		defer cancel()
		return httpServer.Shutdown(shutdownCtx)
	})
	return g.Wait()
}

func ensureDBDir(path string) error {
	if path == ":memory:" || path == "" {
		return nil
	}
	dir := filepath.Dir(path)
	if dir == "." {
		return nil
	}
	return os.MkdirAll(dir, 0o755)
}

func parseLogLevel(level string) slog.Level {
	switch level {
	case "debug":
		return slog.LevelDebug
	case "warn":
		return slog.LevelWarn
	case "error":
		return slog.LevelError
	default:
		return slog.LevelInfo
	}
}

const (
	maxLogSizeBytes  = 6 * 1024 * 1024
	keepLogSizeBytes = 5 * 1024 * 1024
)

// logFileWriter appends to a log file and, once it passes maxLogSizeBytes,
// keeps only the newest keepLogSizeBytes.
type logFileWriter struct {
	mu   sync.Mutex
	file *os.File
}

func newLogFileWriter(path string) (*logFileWriter, error) {
	if dir := filepath.Dir(path); dir != "." {
		if err := os.MkdirAll(dir, 0o755); err != nil {
			return nil, err
		}
	}
	file, err := os.OpenFile(path, os.O_CREATE|os.O_RDWR|os.O_APPEND, 0o644)
	if err != nil {
		return nil, err
	}
	w := &logFileWriter{file: file}
	if err := w.trim(); err != nil {
		file.Close()
		return nil, err
	}
	return w, nil
}

func (w *logFileWriter) Write(p []byte) (int, error) {
	w.mu.Lock()
	defer w.mu.Unlock()

	n, err := w.file.Write(p)
	if err != nil {
		return n, err
	}
	return n, w.trim()
}

func (w *logFileWriter) Close() error {
	return w.file.Close()
}

func (w *logFileWriter) trim() error {
	info, err := w.file.Stat()
	if err != nil {
		return err
	}
	size := info.Size()
	if size <= maxLogSizeBytes {
		return nil
	}

	tail := make([]byte, keepLogSizeBytes)
	n, err := w.file.ReadAt(tail, size-keepLogSizeBytes)
	if err != nil && !errors.Is(err, io.EOF) {
		return err
	}
	if err := w.file.Truncate(0); err != nil {
		return err
	}
	// O_APPEND writes always land at the current end of file.
	_, err = w.file.Write(tail[:n])
	return err
}
