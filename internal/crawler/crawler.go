// Package crawler implements the Crawler worker: a depth-first, add-only
// filesystem walk that feeds newly discovered documents to the Indexer and
// records them in the Catalog. It never re-indexes a file it has already
// cataloged, and it runs on the same quirky daily schedule as the original
// implementation (preserved verbatim, not "fixed").
package crawler

import (
	"context"
	"log/slog"
	"os"
	"path/filepath"
	"strings"
	"time"

	"github.com/sureshkumar/semdesk/internal/catalog"
	"github.com/sureshkumar/semdesk/internal/config"
	"github.com/sureshkumar/semdesk/internal/indexer"
	"github.com/sureshkumar/semdesk/internal/semerr"
)

const (
	// MaxFileSize is the size cap above which a file is skipped outright.
	MaxFileSize = 10 * 1024 * 1024
	// pollInterval is how often the scheduling loop wakes up to check
	// whether it is time to run the daily scan.
	pollInterval = 5 * time.Minute
	// staleAfter is how long since the last recorded scan before one is
	// forced, independent of the next_scan target.
	staleAfter = 24 * time.Hour
)

// Catalog is the subset of *catalog.Store the Crawler depends on.
type Catalog interface {
	ContainsFile(ctx context.Context, filename string) (bool, error)
	Add(ctx context.Context, entry catalog.Entry) error
}

// Indexer is the subset of *indexer.Indexer the Crawler depends on.
type Indexer interface {
	AddDocument(ctx context.Context, text, loc string) indexer.AddDocumentReply
}

// Parser turns a file on disk into plain text.
type Parser interface {
	Parse(ctx context.Context, path string) (string, error)
}

// ParserFunc adapts a plain function to the Parser interface.
type ParserFunc func(ctx context.Context, path string) (string, error)

func (f ParserFunc) Parse(ctx context.Context, path string) (string, error) { return f(ctx, path) }

// Crawler owns the filesystem walk. It never reads or writes the vector
// index directly — all indexing goes through the Indexer's mailbox.
type Crawler struct {
	roots          []string
	maxScanDepth   int
	scanStatusFile string

	catalog Catalog
	indexer Indexer
	parser  Parser
	logger  *slog.Logger

	// now is overridable in tests; defaults to time.Now.
	now func() time.Time
}

// Option configures optional Crawler behavior.
type Option func(*Crawler)

// WithClock overrides the time source, for deterministic scheduling tests.
func WithClock(now func() time.Time) Option {
	return func(c *Crawler) { c.now = now }
}

// WithLogger overrides the logger.
func WithLogger(logger *slog.Logger) Option {
	return func(c *Crawler) { c.logger = logger }
}

// New builds a Crawler from config.
func New(cfg config.CrawlerConfig, cat Catalog, ix Indexer, parser Parser, opts ...Option) *Crawler {
	roots := make([]string, len(cfg.Files))
	for i, f := range cfg.Files {
		roots[i] = config.ExpandHome(f)
	}

	c := &Crawler{
		roots:          roots,
		maxScanDepth:   cfg.MaxScanDepth,
		scanStatusFile: config.ExpandHome(cfg.ScanStatusFile),
		catalog:        cat,
		indexer:        ix,
		parser:         parser,
		logger:         slog.Default(),
		now:            time.Now,
	}
	for _, opt := range opts {
		opt(c)
	}
	return c
}

// Scan performs one full walk of every configured root, exactly as the
// original's scan(): for a directory root, every top-level entry starts
// its recursive descent at depth 0 (not depth 1), so max_scan_depth bounds
// how many levels *below* a root's immediate children are visited.
func (c *Crawler) Scan(ctx context.Context) {
	for _, root := range c.roots {
		info, err := os.Stat(root)
		if err != nil {
			c.logger.Warn("crawler: root unavailable", "root", root, "error", err)
			continue
		}
		if !info.IsDir() {
			c.scanFile(ctx, root, 0)
			continue
		}
		entries, err := os.ReadDir(root)
		if err != nil {
			c.logger.Warn("crawler: cannot list root", "root", root, "error", err)
			continue
		}
		for _, entry := range entries {
			c.scanFile(ctx, filepath.Join(root, entry.Name()), 0)
		}
	}
}

func (c *Crawler) scanFile(ctx context.Context, path string, depth int) {
	if depth > c.maxScanDepth {
		return
	}

	already, err := c.catalog.ContainsFile(ctx, path)
	if err != nil {
		c.logger.Warn("crawler: catalog lookup failed", "path", path, "error", err)
		return
	}
	if already {
		return
	}

	info, err := os.Lstat(path)
	if err != nil {
		c.logger.Warn("crawler: stat failed", "path", path, "error", err)
		return
	}

	if info.IsDir() {
		entries, err := os.ReadDir(path)
		if err != nil {
			c.logger.Warn("crawler: cannot list directory", "path", path, "error", err)
			return
		}
		for _, entry := range entries {
			c.scanFile(ctx, filepath.Join(path, entry.Name()), depth+1)
		}
		return
	}

	if !info.Mode().IsRegular() {
		return
	}
	if info.Size() > MaxFileSize {
		return
	}
	if strings.HasPrefix(filepath.Base(path), ".") {
		return
	}

	text, err := c.parser.Parse(ctx, path)
	if err != nil {
		if semerr.GetCode(err) != semerr.CodeUnsupportedFileType {
			c.logger.Warn("crawler: parse failed", "path", path, "error", err)
		}
		return
	}

	reply := c.indexer.AddDocument(ctx, text, path)
	if reply.Err != nil {
		c.logger.Warn("crawler: index failed", "path", path, "error", reply.Err)
		return
	}

	if err := c.catalog.Add(ctx, catalog.Entry{Filename: path, Indexes: reply.IDs}); err != nil {
		c.logger.Warn("crawler: catalog write failed", "path", path, "error", err)
	}
}

// Run drives the Crawler's daily schedule until ctx is canceled. The
// schedule intentionally reproduces the original implementation's quirk:
// on startup, if the current time falls between 2am and 4am local, it
// scans immediately; otherwise it waits for local midnight plus 24 hours.
// From then on it polls every five minutes, scanning whenever "now" passes
// either the computed next-scan target or 24 hours since the last
// recorded scan.
func (c *Crawler) Run(ctx context.Context) error {
	now := c.now()
	midnight := time.Date(now.Year(), now.Month(), now.Day(), 0, 0, 0, 0, now.Location())
	nextScan := midnight.Add(24 * time.Hour)

	if now.After(midnight.Add(2*time.Hour)) && now.Before(midnight.Add(4*time.Hour)) {
		c.Scan(ctx)
		c.recordScan(now)
		nextScan = now.Add(24 * time.Hour)
	}

	ticker := time.NewTicker(pollInterval)
	defer ticker.Stop()

	for {
		select {
		case <-ctx.Done():
			return nil
		case <-ticker.C:
			now = c.now()

			if _, err := os.Stat(c.scanStatusFile); os.IsNotExist(err) {
				c.recordScan(now.Add(-2 * 24 * time.Hour))
			}

			lastScan, err := c.readScanStatus()
			if err != nil {
				lastScan = now.Add(-2 * 24 * time.Hour)
			}

			if now.After(nextScan) || now.After(lastScan.Add(staleAfter)) {
				c.Scan(ctx)
				c.recordScan(now)
				nextScan = now.Add(24 * time.Hour)
			}
		}
	}
}

func (c *Crawler) recordScan(t time.Time) {
	if err := config.EnsureParentDir(c.scanStatusFile); err != nil {
		c.logger.Warn("crawler: cannot create scan status directory", "error", err)
		return
	}
	if err := os.WriteFile(c.scanStatusFile, []byte(t.Format(time.RFC3339)), 0o644); err != nil {
		c.logger.Warn("crawler: cannot write scan status file", "error", err)
	}
}

func (c *Crawler) readScanStatus() (time.Time, error) {
	data, err := os.ReadFile(c.scanStatusFile)
	if err != nil {
		return time.Time{}, err
	}
	return time.Parse(time.RFC3339, strings.TrimSpace(string(data)))
}
