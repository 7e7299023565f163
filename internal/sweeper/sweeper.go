// Package sweeper removes stored files that no record references any more.
package sweeper

import (
	"context"
	"fmt"
	"strings"
	"time"

	"github.com/robfig/cron/v3"
	"github.com/studentserving/backend/internal/models"
	"github.com/studentserving/backend/internal/storage"
	"go.uber.org/zap"
)

// sweepTimeout bounds a single scheduled run
const sweepTimeout = 10 * time.Minute

// FileStore lists and deletes stored files
type FileStore interface {
	List(category string) ([]storage.StoredFile, error)
	Delete(category, storedName string) (bool, error)
}

// CertificateRepository lists the file names referenced by certificate records
type CertificateRepository interface {
	GetFileNames(ctx context.Context) ([]string, error)
}

// NewsRepository lists the image URLs referenced by news records
type NewsRepository interface {
	GetImageURLs(ctx context.Context) ([]string, error)
}

// Result summarizes one sweep
type Result struct {
	Scanned int
	Deleted int
	Kept    int
	Failed  int
}

// Sweeper deletes unreferenced files older than a grace period.
// The grace period protects uploads whose record has not been written yet.
type Sweeper struct {
	store       FileStore
	certRepo    CertificateRepository
	newsRepo    NewsRepository
	gracePeriod time.Duration
	logger      *zap.Logger
	now         func() time.Time
	cron        *cron.Cron
}

// NewSweeper creates a new sweeper
func NewSweeper(store FileStore, certRepo CertificateRepository, newsRepo NewsRepository, gracePeriod time.Duration, logger *zap.Logger) *Sweeper {
	return &Sweeper{
		store:       store,
		certRepo:    certRepo,
		newsRepo:    newsRepo,
		gracePeriod: gracePeriod,
		logger:      logger,
		now:         time.Now,
	}
}

// Sweep runs one pass over every category
func (s *Sweeper) Sweep(ctx context.Context) (Result, error) {
	var total Result

	certNames, err := s.certRepo.GetFileNames(ctx)
	if err != nil {
		return total, fmt.Errorf("failed to load certificate references: %w", err)
	}

	imageURLs, err := s.newsRepo.GetImageURLs(ctx)
	if err != nil {
		return total, fmt.Errorf("failed to load news image references: %w", err)
	}
	newsNames := make([]string, 0, len(imageURLs))
	for _, url := range imageURLs {
		if name, ok := models.NewsImageReferencedName(url); ok {
			newsNames = append(newsNames, name)
		}
	}

	references := map[string][]string{
		storage.CategoryCertificates: certNames,
		storage.CategoryNews:         newsNames,
	}

	for _, category := range []string{storage.CategoryCertificates, storage.CategoryNews} {
		if err := ctx.Err(); err != nil {
			return total, err
		}

		result, err := s.sweepCategory(category, references[category])
		total.Scanned += result.Scanned
		total.Deleted += result.Deleted
		total.Kept += result.Kept
		total.Failed += result.Failed
		if err != nil {
			return total, err
		}
	}

	s.logger.Info("orphan sweep finished",
		zap.Int("scanned", total.Scanned),
		zap.Int("deleted", total.Deleted),
		zap.Int("kept", total.Kept),
		zap.Int("failed", total.Failed),
	)
	return total, nil
}

func (s *Sweeper) sweepCategory(category string, referenced []string) (Result, error) {
	var result Result

	files, err := s.store.List(category)
	if err != nil {
		return result, fmt.Errorf("failed to list %s: %w", category, err)
	}

	keep := make(map[string]struct{}, len(referenced))
	for _, name := range referenced {
		keep[name] = struct{}{}
	}

	cutoff := s.now().Add(-s.gracePeriod)
	for _, file := range files {
		result.Scanned++

		if _, ok := keep[file.Name]; ok || file.ModTime.After(cutoff) {
			result.Kept++
			continue
		}

		if _, err := s.store.Delete(category, file.Name); err != nil {
			result.Failed++
			s.logger.Warn("failed to delete orphaned file",
				zap.String("category", category),
				zap.String("stored_name", file.Name),
				zap.Error(err),
			)
			continue
		}

		result.Deleted++
		s.logger.Info("deleted orphaned file",
			zap.String("category", category),
			zap.String("stored_name", file.Name),
			zap.Time("modified_at", file.ModTime),
		)
	}

	return result, nil
}

// Start schedules Sweep with a standard five field cron expression.
// Overlapping runs are skipped.
func (s *Sweeper) Start(spec string) error {
	cronLogger := &zapCronLogger{logger: s.logger.Sugar()}
	c := cron.New(
		cron.WithLogger(cronLogger),
		cron.WithChain(cron.Recover(cronLogger), cron.SkipIfStillRunning(cronLogger)),
	)

	if _, err := c.AddFunc(spec, s.scheduledRun); err != nil {
		return fmt.Errorf("invalid sweep schedule %q: %w", spec, err)
	}

	s.cron = c
	c.Start()
	s.logger.Info("orphan sweeper scheduled", zap.String("schedule", spec), zap.Duration("grace_period", s.gracePeriod))
	return nil
}

// Stop stops the schedule and waits for a running sweep to finish
func (s *Sweeper) Stop() {
	if s.cron == nil {
		return
	}
	<-s.cron.Stop().Done()
	s.cron = nil
}

func (s *Sweeper) scheduledRun() {
	ctx, cancel := context.WithTimeout(context.Background(), sweepTimeout)
	defer cancel()

	if _, err := s.Sweep(ctx); err != nil {
		s.logger.Error("orphan sweep failed", zap.Error(err))
	}
}

// zapCronLogger adapts zap to cron.Logger
type zapCronLogger struct {
	logger *zap.SugaredLogger
}

func (l *zapCronLogger) Info(msg string, keysAndValues ...any) {
	l.logger.Debugw("cron: "+strings.ToLower(msg), keysAndValues...)
}

func (l *zapCronLogger) Error(err error, msg string, keysAndValues ...any) {
	l.logger.Errorw("cron: "+strings.ToLower(msg), append(keysAndValues, "error", err)...)
}
