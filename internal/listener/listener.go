package listener

import (
	"context"
	"os"
	"path/filepath"
	"slices"
	"strings"
	"time"

	"github.com/sirupsen/logrus"

	"paramsheet/internal/config"
	"paramsheet/internal/metrics"
	"paramsheet/internal/pipeline"
	"paramsheet/internal/storage"
)

const lastPollKey = "watch.lastPollAt"

// Service polls the inbox directory and converts every new file once.
// Files are identified by content hash, so a renamed copy is not converted
// again and an edited file is.
type Service struct {
	db      *storage.DB
	cfg     config.Config
	proc    *pipeline.ProcessingService
	log     *logrus.Logger
	metrics *metrics.Recorder

	seen map[string]struct{}
}

func NewService(db *storage.DB, cfg config.Config, proc *pipeline.ProcessingService, log *logrus.Logger, rec *metrics.Recorder) *Service {
	if log == nil {
		log = logrus.StandardLogger()
	}
	return &Service{db: db, cfg: cfg, proc: proc, log: log, metrics: rec, seen: map[string]struct{}{}}
}

type CycleResult struct {
	Scanned   int
	Converted int
	Failed    int
	Skipped   int
}

func (s *Service) Run(ctx context.Context) error {
	for {
		if _, err := s.RunCycle(ctx); err != nil {
			s.log.WithError(err).Error("watch cycle failed")
		}

		select {
		case <-ctx.Done():
			return nil
		case <-time.After(time.Duration(s.cfg.WatchIntervalSec) * time.Second):
		}
	}
}

// RunCycle converts up to WatchBatch unseen files, one after another. A
// failing file is logged and journaled and does not stop the cycle.
func (s *Service) RunCycle(ctx context.Context) (CycleResult, error) {
	var res CycleResult

	files, err := s.inboxFiles()
	if err != nil {
		return res, err
	}

	for _, path := range files {
		if ctx.Err() != nil {
			break
		}
		if s.cfg.WatchBatch > 0 && res.Converted+res.Failed >= s.cfg.WatchBatch {
			break
		}
		res.Scanned++

		blob, err := os.ReadFile(path)
		if err != nil {
			s.log.WithError(err).WithField("input", path).Warn("read inbox file")
			res.Failed++
			continue
		}
		hash := pipeline.HashContent(blob)
		known, err := s.known(hash)
		if err != nil {
			return res, err
		}
		if known {
			res.Skipped++
			continue
		}

		_, err = s.proc.ProcessFile(pipeline.ProcessRequest{InputPath: path})
		s.seen[hash] = struct{}{}
		if err != nil {
			res.Failed++
			continue
		}
		res.Converted++
	}

	if s.db != nil {
		_ = s.db.SetMetadata(lastPollKey, time.Now().UTC().Format(time.RFC3339))
	}
	if err := s.metrics.WriteTextfile(s.cfg.MetricsFile); err != nil {
		s.log.WithError(err).Warn("write metrics textfile")
	}

	s.log.WithFields(logrus.Fields{
		"inbox":     s.cfg.InboxDir,
		"scanned":   res.Scanned,
		"converted": res.Converted,
		"failed":    res.Failed,
		"skipped":   res.Skipped,
	}).Info("watch cycle done")
	return res, nil
}

func (s *Service) known(hash string) (bool, error) {
	if _, ok := s.seen[hash]; ok {
		return true, nil
	}
	if s.db == nil {
		return false, nil
	}
	run, err := s.db.FindRunByHash(hash)
	if err != nil {
		return false, err
	}
	if run != nil {
		s.seen[hash] = struct{}{}
		return true, nil
	}
	return false, nil
}

func (s *Service) inboxFiles() ([]string, error) {
	if err := os.MkdirAll(s.cfg.InboxDir, 0o755); err != nil {
		return nil, err
	}
	entries, err := os.ReadDir(s.cfg.InboxDir)
	if err != nil {
		return nil, err
	}

	var out []string
	for _, e := range entries {
		if e.IsDir() || strings.HasPrefix(e.Name(), ".") || strings.HasPrefix(e.Name(), "~$") {
			continue
		}
		out = append(out, filepath.Join(s.cfg.InboxDir, e.Name()))
	}
	slices.Sort(out)
	return out, nil
}
