// Package watcher picks up census workbooks dropped into the inbox
// directory and feeds them through the processing pipeline.
package watcher

import (
	"context"
	"crypto/sha256"
	"encoding/hex"
	"os"
	"path/filepath"
	"strings"
	"sync"
	"time"

	"github.com/fsnotify/fsnotify"
	"go.uber.org/zap"

	"censusfmt/internal/config"
	"censusfmt/internal/pipeline"
	"censusfmt/internal/storage"
)

type InboxWatcher struct {
	mu          sync.Mutex
	watcher     *fsnotify.Watcher
	db          *storage.DB
	cfg         config.Config
	log         *zap.Logger
	processor   *pipeline.ProcessingService
	debounceMap map[string]time.Time
	debounceDur time.Duration
}

func NewInboxWatcher(db *storage.DB, cfg config.Config, log *zap.Logger) (*InboxWatcher, error) {
	w, err := fsnotify.NewWatcher()
	if err != nil {
		return nil, err
	}
	if log == nil {
		log = zap.NewNop()
	}

	return &InboxWatcher{
		watcher:     w,
		db:          db,
		cfg:         cfg,
		log:         log,
		processor:   pipeline.NewProcessingService(db, cfg, log),
		debounceMap: make(map[string]time.Time),
		debounceDur: time.Duration(cfg.WatchDebounceMs) * time.Millisecond,
	}, nil
}

// Run watches the inbox directory until the context is cancelled. A
// periodic sweep catches files that arrived while the watcher was not
// running or whose events were dropped.
func (w *InboxWatcher) Run(ctx context.Context) error {
	defer w.watcher.Close()

	if err := os.MkdirAll(w.cfg.InboxDir, 0o755); err != nil {
		return err
	}
	if err := w.watcher.Add(w.cfg.InboxDir); err != nil {
		return err
	}
	w.log.Info("watching inbox", zap.String("dir", w.cfg.InboxDir))

	w.sweep()

	debounceTicker := time.NewTicker(100 * time.Millisecond)
	defer debounceTicker.Stop()
	sweepTicker := time.NewTicker(time.Duration(w.cfg.WatchSweepSec) * time.Second)
	defer sweepTicker.Stop()

	for {
		select {
		case <-ctx.Done():
			return nil

		case event, ok := <-w.watcher.Events:
			if !ok {
				return nil
			}
			w.handleEvent(event)

		case err, ok := <-w.watcher.Errors:
			if !ok {
				return nil
			}
			w.log.Error("watch error", zap.Error(err))

		case <-debounceTicker.C:
			w.processSettled()

		case <-sweepTicker.C:
			w.sweep()
		}
	}
}

func (w *InboxWatcher) handleEvent(event fsnotify.Event) {
	if !isWorkbook(event.Name) {
		return
	}
	if event.Op&(fsnotify.Create|fsnotify.Write) == 0 {
		return
	}

	// Debounce: writers save xlsx files in several bursts.
	w.mu.Lock()
	w.debounceMap[event.Name] = time.Now()
	w.mu.Unlock()
}

func (w *InboxWatcher) processSettled() {
	w.mu.Lock()
	now := time.Now()
	var settled []string
	for path, eventTime := range w.debounceMap {
		if now.Sub(eventTime) >= w.debounceDur {
			settled = append(settled, path)
			delete(w.debounceMap, path)
		}
	}
	w.mu.Unlock()

	for _, path := range settled {
		w.ingestFile(path)
	}
}

// sweep scans the inbox for workbooks the event stream missed.
func (w *InboxWatcher) sweep() {
	entries, err := os.ReadDir(w.cfg.InboxDir)
	if err != nil {
		w.log.Error("inbox sweep failed", zap.Error(err))
		return
	}
	for _, entry := range entries {
		if entry.IsDir() || !isWorkbook(entry.Name()) {
			continue
		}
		w.ingestFile(filepath.Join(w.cfg.InboxDir, entry.Name()))
	}
}

// ingestFile registers one workbook as a file-sourced upload and runs
// the pipeline over it. Content hashing makes re-ingesting the same
// file idempotent.
func (w *InboxWatcher) ingestFile(path string) {
	content, err := os.ReadFile(path)
	if err != nil {
		if os.IsNotExist(err) {
			return
		}
		w.log.Error("read inbox file failed", zap.String("path", path), zap.Error(err))
		return
	}

	hashBytes := sha256.Sum256(content)
	hash := hex.EncodeToString(hashBytes[:])

	existing, err := w.db.GetUploadBySourceMessageID("file", hash)
	if err != nil {
		w.log.Error("upload lookup failed", zap.Error(err))
		return
	}
	if existing != nil && existing.Status != "fetched" {
		return
	}

	name := filepath.Base(path)
	received := time.Now().UTC().Format(time.RFC3339)
	upload, err := w.db.UpsertUpload("file", hash, name, "", received, hash, path, "fetched")
	if err != nil {
		w.log.Error("upload upsert failed", zap.String("path", path), zap.Error(err))
		return
	}

	res, err := w.processor.ProcessUpload(upload)
	if err != nil {
		w.log.Error("processing failed", zap.Int("uploadId", upload.ID), zap.Error(err))
		return
	}
	if res.Skipped {
		return
	}

	outputPath := filepath.Join(w.cfg.OutputDir, "watch", strings.TrimSuffix(name, filepath.Ext(name))+"_clean.xlsx")
	if err := w.processor.ExportUpload(upload.ID, outputPath); err != nil {
		w.log.Error("export failed", zap.Int("uploadId", upload.ID), zap.Error(err))
	}
}

func isWorkbook(path string) bool {
	lower := strings.ToLower(path)
	return strings.HasSuffix(lower, ".xlsx") || strings.HasSuffix(lower, ".xls")
}
