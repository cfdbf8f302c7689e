package pipeline

import (
	"fmt"
	"os"
	"path/filepath"
	"strings"
	"time"

	"github.com/google/uuid"
	"go.uber.org/zap"

	"censusfmt/internal"
	"censusfmt/internal/config"
	"censusfmt/internal/storage"
)

// Output is the result of one full pipeline run over a raw table.
type Output struct {
	Mapping         internal.FieldMapping
	MissingRequired []string
	Records         []internal.CanonicalRecord
	Diagnostics     []internal.Diagnostic
	Validation      internal.ValidationResult
	Analysis        ColumnAnalysis
	RawAnalysis     ColumnAnalysis
}

// Run maps headers, normalizes every row, reconciles families,
// validates and analyzes columns. Pure apart from the clock used in
// age checks.
func Run(table internal.RawTable, defaultHours float64) Output {
	mapping := MatchHeaders(table.Headers)

	out := Output{
		Mapping:         mapping,
		MissingRequired: MissingRequired(mapping),
		RawAnalysis:     AnalyzeRawColumns(table),
	}

	normalizer := NewNormalizer(mapping, table.Rows, defaultHours)
	records := make([]internal.CanonicalRecord, 0, len(table.Rows))
	for i, row := range table.Rows {
		rec, diags := normalizer.Normalize(i, row)
		records = append(records, rec)
		out.Diagnostics = append(out.Diagnostics, diags...)
	}

	reconciled, diags := Reconcile(records)
	out.Records = reconciled
	out.Diagnostics = append(out.Diagnostics, diags...)

	out.Validation = Validate(reconciled)
	out.Analysis = AnalyzeColumns(reconciled)
	return out
}

type ProcessingService struct {
	db  *storage.DB
	cfg config.Config
	log *zap.Logger
}

func NewProcessingService(db *storage.DB, cfg config.Config, log *zap.Logger) *ProcessingService {
	if log == nil {
		log = zap.NewNop()
	}
	return &ProcessingService{db: db, cfg: cfg, log: log}
}

type ProcessResult struct {
	UploadID int
	Records  int
	Skipped  bool
}

func (s *ProcessingService) ProcessBySourceMessageID(source, messageID string) (ProcessResult, error) {
	upload, err := s.db.MustUploadBySourceMessageID(source, messageID)
	if err != nil {
		return ProcessResult{}, err
	}
	return s.ProcessUpload(upload)
}

// ProcessPending processes fetched uploads oldest first, optionally
// restricted to one source.
func (s *ProcessingService) ProcessPending(limit int, source string) (int, int, error) {
	pending, err := s.db.ListUploadsByStatus("fetched", limit)
	if err != nil {
		return 0, 0, err
	}
	processedUploads := 0
	processedRecords := 0
	for _, upload := range pending {
		if source != "" && upload.Source != source {
			continue
		}
		res, err := s.ProcessUpload(upload)
		if err != nil {
			return processedUploads, processedRecords, err
		}
		if !res.Skipped {
			processedUploads++
			processedRecords += res.Records
		}
	}
	return processedUploads, processedRecords, nil
}

// ProcessUpload runs the full pipeline over one stored upload and
// persists the canonical records plus every issue found.
func (s *ProcessingService) ProcessUpload(upload internal.UploadRow) (ProcessResult, error) {
	start := time.Now()
	trace := uuid.NewString()
	log := s.log.With(zap.String("traceId", trace), zap.Int("uploadId", upload.ID))

	table, skipReason, err := s.loadTable(upload)
	if err != nil {
		return ProcessResult{}, err
	}

	if err := s.db.ClearUploadProcessing(upload.ID); err != nil {
		return ProcessResult{}, err
	}

	if skipReason != "" {
		log.Info("upload skipped", zap.String("reason", skipReason))
		_ = s.db.UpdateUploadStatus(upload.ID, "skipped")
		_ = s.db.InsertRun(trace, upload.ID, internal.ValidationSummary{}, map[string]int{
			"rows": 0, "records": 0, "errors": 0, "warnings": 0, "diagnostics": 0,
		})
		return ProcessResult{UploadID: upload.ID, Skipped: true}, nil
	}

	out := Run(table, s.cfg.DefaultHoursWorked)
	if len(out.MissingRequired) > 0 {
		log.Warn("required columns unmapped", zap.Strings("fields", FieldLabels(out.MissingRequired)))
	}

	if err := s.db.InsertRecords(upload.ID, out.Records); err != nil {
		return ProcessResult{}, err
	}
	if err := s.db.InsertIssues(upload.ID, out.Diagnostics, out.Validation); err != nil {
		return ProcessResult{}, err
	}
	if err := s.db.UpdateUploadStatus(upload.ID, "processed"); err != nil {
		return ProcessResult{}, err
	}
	_ = s.db.InsertRun(trace, upload.ID, out.Validation.Summary, map[string]int{
		"rows":        len(table.Rows),
		"records":     len(out.Records),
		"errors":      len(out.Validation.Errors),
		"warnings":    len(out.Validation.Warnings),
		"diagnostics": len(out.Diagnostics),
	})

	log.Info("upload processed",
		zap.Int("rows", len(table.Rows)),
		zap.Int("records", len(out.Records)),
		zap.Int("errors", len(out.Validation.Errors)),
		zap.Int("warnings", len(out.Validation.Warnings)),
		zap.Duration("took", time.Since(start)),
	)

	return ProcessResult{UploadID: upload.ID, Records: len(out.Records)}, nil
}

// loadTable reads the stored raw content and extracts a census table
// from it. A non-empty skip reason means the upload carries no census.
func (s *ProcessingService) loadTable(upload internal.UploadRow) (internal.RawTable, string, error) {
	lower := strings.ToLower(upload.RawRef)
	if strings.HasSuffix(lower, ".xlsx") || strings.HasSuffix(lower, ".xls") {
		table, err := ParseWorkbookFile(upload.RawRef)
		if err != nil {
			return internal.RawTable{}, "", err
		}
		return table, "", nil
	}

	raw, err := os.ReadFile(upload.RawRef)
	if err != nil {
		return internal.RawTable{}, "", err
	}

	ex, err := ExtractTablesFromEmailRaw(raw)
	if err != nil {
		return internal.RawTable{}, "", err
	}

	detect := DetectCensusSubmission(firstNonEmpty(ex.Subject, upload.Subject), ex.BodyText, "", ex.AttachmentNames)
	if !detect.IsCensus {
		return internal.RawTable{}, "not_a_census", nil
	}
	if len(ex.Tables) == 0 {
		return internal.RawTable{}, "no_table_found", nil
	}

	return bestTable(ex.Tables), "", nil
}

// bestTable prefers the table whose headers map the most canonical
// fields; ties go to the earlier table.
func bestTable(tables []internal.RawTable) internal.RawTable {
	best := tables[0]
	bestScore := len(MatchHeaders(best.Headers))
	for _, t := range tables[1:] {
		if score := len(MatchHeaders(t.Headers)); score > bestScore {
			best = t
			bestScore = score
		}
	}
	return best
}

// ExportUpload writes the processed records of one upload to an xlsx
// workbook and marks the upload exported.
func (s *ProcessingService) ExportUpload(uploadID int, outputPath string) error {
	upload, err := s.db.GetUploadByID(uploadID)
	if err != nil {
		return err
	}
	if upload == nil {
		return fmt.Errorf("upload not found: id=%d", uploadID)
	}

	records, err := s.db.ListRecords(uploadID)
	if err != nil {
		return err
	}
	if len(records) == 0 {
		return fmt.Errorf("no records to export for upload %d", uploadID)
	}

	// Validation is re-derived from the stored records; diagnostics
	// were decided at normalization time and come from the issues table.
	result := Validate(records)
	_, _, diags, err := s.db.ListIssues(uploadID)
	if err != nil {
		return err
	}

	if outputPath == "" {
		outputPath = filepath.Join(s.cfg.OutputDir, fmt.Sprintf("%d_census.xlsx", uploadID))
	}
	if err := ExportWorkbook(records, diags, result, ExportOptions{
		OutputPath:        outputPath,
		SplitBlankColumns: s.cfg.SplitBlankColumns,
	}); err != nil {
		return err
	}

	return s.db.UpdateUploadStatus(uploadID, "exported")
}

func firstNonEmpty(values ...string) string {
	for _, v := range values {
		if strings.TrimSpace(v) != "" {
			return v
		}
	}
	return ""
}
