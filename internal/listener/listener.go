package listener

import (
	"context"
	"fmt"
	"path/filepath"
	"strings"
	"time"

	"go.uber.org/zap"

	"censusfmt/internal/config"
	"censusfmt/internal/intake"
	gmailconnector "censusfmt/internal/intake/gmail"
	imapconnector "censusfmt/internal/intake/imap"
	"censusfmt/internal/pipeline"
	"censusfmt/internal/storage"
)

// lastCycleKey names the metadata entry holding the timestamp of the
// most recent completed poll cycle.
const lastCycleKey = "listener.lastCycle"

// Service polls the configured mailbox on an interval, stores new
// submissions, processes them and optionally exports the results.
type Service struct {
	db  *storage.DB
	cfg config.Config
	log *zap.Logger
}

func NewService(db *storage.DB, cfg config.Config, log *zap.Logger) *Service {
	if log == nil {
		log = zap.NewNop()
	}
	return &Service{db: db, cfg: cfg, log: log}
}

func (s *Service) Run(ctx context.Context) error {
	if last, err := s.db.GetMetadata(lastCycleKey); err == nil && last != nil {
		s.log.Info("resuming listener", zap.String("lastCycle", *last))
	}
	for {
		if err := s.runCycle(); err != nil {
			s.log.Error("listener cycle failed", zap.Error(err))
		}

		select {
		case <-ctx.Done():
			return nil
		case <-time.After(time.Duration(s.cfg.ListenerIntervalSec) * time.Second):
		}
	}
}

func (s *Service) runCycle() error {
	source := strings.ToLower(strings.TrimSpace(s.cfg.ListenerProvider))
	mailConnector, err := s.makeConnector(source)
	if err != nil {
		return err
	}

	fetchService := intake.NewFetchService(s.db, s.cfg.RawMailDir, mailConnector)
	fetchResult, err := fetchService.FetchAndStore(s.cfg.ListenerLabel, s.cfg.ListenerFetchMax)
	if err != nil {
		return err
	}

	processor := pipeline.NewProcessingService(s.db, s.cfg, s.log)
	processedUploads, processedRecords, err := processor.ProcessPending(s.cfg.ListenerProcessBatch, source)
	if err != nil {
		return err
	}

	if s.cfg.ListenerAutoExport {
		if err := s.exportProcessed(processor, source); err != nil {
			return err
		}
	}

	if err := s.db.SetMetadata(lastCycleKey, time.Now().UTC().Format(time.RFC3339)); err != nil {
		s.log.Warn("could not record cycle time", zap.Error(err))
	}

	s.log.Info("listener cycle done",
		zap.String("source", source),
		zap.Int("fetched", fetchResult.Fetched),
		zap.Int("stored", fetchResult.Stored),
		zap.Int("alreadyKnown", fetchResult.AlreadyKnown),
		zap.Int("processedUploads", processedUploads),
		zap.Int("processedRecords", processedRecords),
	)
	return nil
}

func (s *Service) exportProcessed(processor *pipeline.ProcessingService, source string) error {
	uploads, err := s.db.ListUploadsByStatus("processed", 200)
	if err != nil {
		return err
	}

	for _, upload := range uploads {
		if upload.Source != source {
			continue
		}
		filename := fmt.Sprintf("%d_%s.xlsx", upload.ID, sanitizeMessageID(upload.MessageID))
		outputPath := filepath.Join(s.cfg.OutputDir, "listener", filename)
		if err := processor.ExportUpload(upload.ID, outputPath); err != nil {
			s.log.Error("export failed", zap.Int("uploadId", upload.ID), zap.Error(err))
		}
	}
	return nil
}

func (s *Service) makeConnector(source string) (intake.MailConnector, error) {
	switch source {
	case "gmail":
		return gmailconnector.NewConnector(s.cfg)
	case "imap":
		return imapconnector.NewConnector(s.cfg)
	default:
		return nil, fmt.Errorf("unsupported listener provider: %s", source)
	}
}

func sanitizeMessageID(input string) string {
	repl := strings.NewReplacer("<", "_", ">", "_", ":", "_", "/", "_", "\\", "_", "|", "_", "?", "_", "*", "_", " ", "_")
	out := repl.Replace(input)
	if len(out) > 120 {
		out = out[:120]
	}
	return out
}
