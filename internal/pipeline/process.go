package pipeline

import (
	"crypto/rand"
	"crypto/sha256"
	"encoding/hex"
	"fmt"
	"os"
	"path/filepath"
	"strings"
	"time"

	"github.com/sirupsen/logrus"

	"paramsheet/internal"
	"paramsheet/internal/config"
	"paramsheet/internal/metrics"
	"paramsheet/internal/storage"
)

// detectHeadBytes is how much of a file DetectDialect gets to look at.
const detectHeadBytes = 8 << 10

// ProcessingService runs whole-file conversions and journals them. db may be
// nil, in which case nothing is journaled.
type ProcessingService struct {
	db      *storage.DB
	cfg     config.Config
	conv    *Converter
	log     *logrus.Logger
	metrics *metrics.Recorder
}

func NewProcessingService(db *storage.DB, cfg config.Config, conv *Converter, log *logrus.Logger, rec *metrics.Recorder) *ProcessingService {
	if log == nil {
		log = logrus.StandardLogger()
	}
	return &ProcessingService{db: db, cfg: cfg, conv: conv, log: log, metrics: rec}
}

type ProcessRequest struct {
	InputPath  string
	Dialect    internal.Dialect
	OutputPath string
}

type ProcessResult struct {
	RunID      int64
	TraceID    string
	Hash       string
	Dialect    internal.Dialect
	OutputPath string
	Summary    internal.RunSummary
}

// ProcessFile converts one input file to an xlsx sheet. An empty Dialect is
// detected from the file, an empty OutputPath defaults to
// OUTPUT_DIR/<name>_parse.xlsx. A failed run writes no output file.
func (s *ProcessingService) ProcessFile(req ProcessRequest) (ProcessResult, error) {
	start := time.Now()
	res := ProcessResult{TraceID: traceID(), Dialect: req.Dialect, OutputPath: req.OutputPath}

	blob, err := os.ReadFile(req.InputPath)
	if err != nil {
		return res, err
	}
	res.Hash = HashContent(blob)

	if res.Dialect == "" {
		detected := DetectDialect(req.InputPath, head(blob))
		if !detected.OK() {
			return res, s.fail(res, req, fmt.Errorf("cannot detect dialect of %s (score=%.2f)", req.InputPath, detected.Score), true)
		}
		res.Dialect = detected.Dialect
		s.log.WithFields(logrus.Fields{
			"trace":   res.TraceID,
			"dialect": detected.Dialect,
			"score":   detected.Score,
			"reason":  detected.Reason,
		}).Debug("dialect detected")
	}
	if res.OutputPath == "" {
		res.OutputPath = DefaultOutputPath(s.cfg.OutputDir, req.InputPath)
	}

	src, err := ParseSource(res.Dialect, filepath.Ext(req.InputPath), blob, s.cfg.SourceEncoding)
	if err != nil {
		return res, s.fail(res, req, fmt.Errorf("read %s: %w", req.InputPath, err), true)
	}

	converted, err := s.conv.Convert(res.Dialect, src)
	if err != nil {
		return res, s.fail(res, req, err, false)
	}
	res.Summary = converted.Summary

	if err := ExportRecordsToXLSX(converted.Records, res.OutputPath); err != nil {
		return res, s.fail(res, req, fmt.Errorf("export %s: %w", res.OutputPath, err), true)
	}

	if s.db != nil {
		runID, err := s.db.InsertRun(internal.RunRow{
			TraceID:    res.TraceID,
			Dialect:    string(res.Dialect),
			InputPath:  req.InputPath,
			Hash:       res.Hash,
			Status:     storage.RunStatusOK,
			OutputPath: res.OutputPath,
		}, converted.Summary, converted.Records)
		if err != nil {
			if rmErr := os.Remove(res.OutputPath); rmErr != nil && !os.IsNotExist(rmErr) {
				s.log.WithError(rmErr).WithField("output", res.OutputPath).Warn("unjournaled output left on disk")
			}
			return res, fmt.Errorf("journal run: %w", err)
		}
		res.RunID = runID
	}

	s.log.WithFields(logrus.Fields{
		"trace":   res.TraceID,
		"run":     res.RunID,
		"input":   req.InputPath,
		"output":  res.OutputPath,
		"records": converted.Summary.Output,
		"tookMs":  time.Since(start).Milliseconds(),
	}).Info("file converted")
	return res, nil
}

// ExportRun re-exports a journaled run.
func (s *ProcessingService) ExportRun(runID int, outputPath string) (string, error) {
	if s.db == nil {
		return "", fmt.Errorf("journal is disabled")
	}
	run, err := s.db.MustRun(runID)
	if err != nil {
		return "", err
	}
	if run.Status != storage.RunStatusOK {
		return "", fmt.Errorf("run %d has status %s: %s", runID, run.Status, run.Error)
	}
	records, err := s.db.GetRunRecords(runID)
	if err != nil {
		return "", err
	}
	if outputPath == "" {
		outputPath = filepath.Join(s.cfg.OutputDir, fmt.Sprintf("run_%d.xlsx", runID))
	}
	if err := ExportRecordsToXLSX(records, outputPath); err != nil {
		return "", err
	}
	return outputPath, nil
}

// fail journals a failed run and hands back err. observe is false when the
// converter already counted the failure.
func (s *ProcessingService) fail(res ProcessResult, req ProcessRequest, err error, observe bool) error {
	if observe {
		s.metrics.ObserveFailure(res.Dialect)
	}
	s.log.WithFields(logrus.Fields{
		"trace":   res.TraceID,
		"input":   req.InputPath,
		"dialect": res.Dialect,
	}).WithError(err).Error("conversion failed")

	if s.db == nil {
		return err
	}
	_, jerr := s.db.InsertRun(internal.RunRow{
		TraceID:   res.TraceID,
		Dialect:   string(res.Dialect),
		InputPath: req.InputPath,
		Hash:      res.Hash,
		Status:    storage.RunStatusFailed,
		Error:     err.Error(),
	}, internal.RunSummary{Dialect: res.Dialect}, nil)
	if jerr != nil {
		s.log.WithError(jerr).Warn("journal failed run")
	}
	return err
}

func DefaultOutputPath(outputDir, inputPath string) string {
	base := filepath.Base(inputPath)
	name := strings.TrimSuffix(base, filepath.Ext(base))
	return filepath.Join(outputDir, name+"_parse.xlsx")
}

func HashContent(blob []byte) string {
	sum := sha256.Sum256(blob)
	return hex.EncodeToString(sum[:])
}

func head(blob []byte) []byte {
	if len(blob) > detectHeadBytes {
		return blob[:detectHeadBytes]
	}
	return blob
}

func traceID() string {
	var b [8]byte
	if _, err := rand.Read(b[:]); err != nil {
		return fmt.Sprintf("run-%d", time.Now().UnixNano())
	}
	return hex.EncodeToString(b[:])
}
