package cmd

import (
	"context"
	"fmt"
	"log/slog"
	"os"
	"os/signal"
	"path/filepath"
	"sync"
	"syscall"

	"github.com/gofrs/flock"

	"github.com/sureshkumar/semdesk/internal/catalog"
	"github.com/sureshkumar/semdesk/internal/config"
	"github.com/sureshkumar/semdesk/internal/crawler"
	"github.com/sureshkumar/semdesk/internal/docparser"
	"github.com/sureshkumar/semdesk/internal/embedder"
	"github.com/sureshkumar/semdesk/internal/indexer"
	"github.com/sureshkumar/semdesk/internal/logging"
	"github.com/sureshkumar/semdesk/internal/qamodel"
	"github.com/sureshkumar/semdesk/internal/queryprocessor"
	"github.com/sureshkumar/semdesk/internal/retriever"
	"github.com/sureshkumar/semdesk/internal/semerr"
	"github.com/sureshkumar/semdesk/internal/vectorindex"
)

type serveOptions struct {
	local      bool
	dir        string
	verbose    bool
	configPath string
}

// runServe loads configuration, wires the four workers and the shared
// Catalog together, and blocks until interrupted.
func runServe(ctx context.Context, opts serveOptions) error {
	cfg, err := loadConfig(opts)
	if err != nil {
		return err
	}

	logCfg := logging.DefaultConfig()
	if opts.verbose {
		logCfg = logging.VerboseConfig()
	}
	logger, cleanup, err := logging.Setup(logCfg)
	if err != nil {
		return err
	}
	defer cleanup()
	slog.SetDefault(logger)

	if err := os.MkdirAll(cfg.DB.Dir, 0o755); err != nil {
		return semerr.Wrap(semerr.CodeIO, "create db directory", err)
	}

	lock := flock.New(filepath.Join(cfg.DB.Dir, ".semdesk.lock"))
	locked, err := lock.TryLock()
	if err != nil {
		return semerr.Wrap(semerr.CodeIO, "acquire instance lock", err)
	}
	if !locked {
		return fmt.Errorf("another semdesk instance is already running against %s", cfg.DB.Dir)
	}
	defer lock.Unlock()

	for _, result := range docparser.CheckPDFTools() {
		if result.Status == docparser.StatusWarn {
			logger.Warn("preflight check", "name", result.Name, "message", result.Message)
		}
	}

	cat, err := catalog.Open(filepath.Join(cfg.DB.Dir, "catalog.db"))
	if err != nil {
		return err
	}
	defer cat.Close()

	emb := embedder.NewStatic()
	vecIndex, err := vectorindex.Load(cfg.Index.Location, emb.Dimensions())
	if err != nil {
		return err
	}

	if cpInfo, err := indexer.LoadCheckpointInfo(cfg.Index.Location); err != nil {
		logger.Warn("could not read indexer checkpoint", "error", err)
	} else if !cpInfo.PersistedAt.IsZero() && !cpInfo.Clean {
		logger.Warn("previous shutdown did not flush the vector index cleanly", "last_persisted_at", cpInfo.PersistedAt)
	}

	addCh := make(chan indexer.AddDocumentRequest, 32)
	readCh := make(chan indexer.RetrieveDocumentRequest, 32)
	ix := indexer.New(emb, vecIndex, cat, cfg.Index.Location, addCh, readCh)

	parser := docparser.Default{}
	retr := retriever.New(cat, ix, parser)
	crawl := crawler.New(cfg.Crawler, cat, ix, parser, crawler.WithLogger(logger))

	socketPath, err := config.SocketPath()
	if err != nil {
		return err
	}

	inCh := make(chan queryprocessor.QueryRequest, 8)
	qp := queryprocessor.New(retr, qamodel.NewStatic(), socketPath, inCh)

	ctx, stop := signal.NotifyContext(ctx, os.Interrupt, syscall.SIGTERM)
	defer stop()

	var wg sync.WaitGroup
	errCh := make(chan error, 4)

	run := func(name string, fn func(context.Context) error) {
		wg.Add(1)
		go func() {
			defer wg.Done()
			if err := fn(ctx); err != nil {
				logger.Error("worker exited with error", "worker", name, "error", err)
				errCh <- fmt.Errorf("%s: %w", name, err)
			}
		}()
	}

	run("indexer", ix.Run)
	run("crawler", crawl.Run)
	run("queryprocessor", qp.Run)
	if cfg.Crawler.Watch {
		run("crawler-watch", crawl.Watch)
	}

	logger.Info("semdesk started", "db_dir", cfg.DB.Dir, "index", cfg.Index.Location, "socket", socketPath)

	wg.Wait()
	close(errCh)

	for err := range errCh {
		if err != nil {
			return err
		}
	}
	return nil
}

func loadConfig(opts serveOptions) (*config.Config, error) {
	if opts.local {
		return config.LocalMode(opts.dir)
	}
	return config.Load(opts.configPath)
}
