package service

import (
	"context"
	"database/sql"
	"errors"
	"math"
	"time"

	"go.uber.org/zap"

	"github.com/noah-isme/sma-elective-api/internal/models"
	appErrors "github.com/noah-isme/sma-elective-api/pkg/errors"
)

const (
	electiveCachePattern    = "electives:*"
	electiveStatisticsKey   = "electives:statistics"
	electiveDistributionKey = "electives:distribution"
	refreshKindStatus       = "status"
	refreshKindSuggestions  = "suggestions"
)

type classStore interface {
	FindByID(ctx context.Context, id int64) (*models.Class, error)
	ListIDs(ctx context.Context) ([]int64, error)
}

type electiveCounter interface {
	CountElectivesByClass(ctx context.Context, classID int64) (int, error)
	ListElectiveNamesByClass(ctx context.Context, classID int64) ([]string, error)
}

type electiveStatusStore interface {
	Upsert(ctx context.Context, status *models.ElectiveStatus) error
	FindByClass(ctx context.Context, classID int64) (*models.ElectiveStatusDetail, error)
	List(ctx context.Context) ([]models.ElectiveStatusDetail, error)
	ListByStatus(ctx context.Context, kind models.ElectiveStatusKind) ([]models.ElectiveStatusDetail, error)
	Statistics(ctx context.Context) (*models.ElectiveStatistics, error)
	Distribution(ctx context.Context) ([]models.GradeDistribution, error)
}

// ElectiveStatusConfig tunes the status engine.
type ElectiveStatusConfig struct {
	RequiredQuota int
	CacheTTL      time.Duration
}

// ElectiveStatusService keeps the per-class elective quota state in sync with assignments.
type ElectiveStatusService struct {
	classes     classStore
	assignments electiveCounter
	statuses    electiveStatusStore
	cache       *CacheService
	metrics     *MetricsService
	logger      *zap.Logger
	cfg         ElectiveStatusConfig
	now         func() time.Time
}

// NewElectiveStatusService wires the status engine. cache and metrics may be nil.
func NewElectiveStatusService(
	classes classStore,
	assignments electiveCounter,
	statuses electiveStatusStore,
	cache *CacheService,
	metrics *MetricsService,
	logger *zap.Logger,
	cfg ElectiveStatusConfig,
) *ElectiveStatusService {
	if logger == nil {
		logger = zap.NewNop()
	}
	if cfg.RequiredQuota <= 0 {
		cfg.RequiredQuota = models.DefaultRequiredElectives
	}
	return &ElectiveStatusService{
		classes:     classes,
		assignments: assignments,
		statuses:    statuses,
		cache:       cache,
		metrics:     metrics,
		logger:      logger,
		cfg:         cfg,
		now:         func() time.Time { return time.Now().UTC() },
	}
}

// UpdateStatus recomputes and persists the elective status of a class.
// Non-positive IDs yield (nil, nil).
func (s *ElectiveStatusService) UpdateStatus(ctx context.Context, classID int64) (*models.ElectiveStatus, error) {
	if classID <= 0 {
		return nil, nil
	}
	status, err := s.updateStatus(ctx, classID)
	if err != nil {
		return nil, err
	}
	s.invalidate(ctx)
	return status, nil
}

func (s *ElectiveStatusService) updateStatus(ctx context.Context, classID int64) (*models.ElectiveStatus, error) {
	if _, err := s.classes.FindByID(ctx, classID); err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, appErrors.Clone(appErrors.ErrNotFound, "class not found")
		}
		return nil, appErrors.Internal(err, "failed to load class")
	}

	assigned, err := s.assignments.CountElectivesByClass(ctx, classID)
	if err != nil {
		return nil, appErrors.Internal(err, "failed to count electives")
	}

	status := models.NewElectiveStatus(classID, assigned, s.cfg.RequiredQuota, s.now())
	if err := s.statuses.Upsert(ctx, &status); err != nil {
		return nil, appErrors.Internal(err, "failed to save elective status")
	}
	return &status, nil
}

// GetStatus returns the stored status of a class, or nil when it was never computed.
func (s *ElectiveStatusService) GetStatus(ctx context.Context, classID int64) (*models.ElectiveStatusDetail, error) {
	if classID <= 0 {
		return nil, nil
	}
	detail, err := s.statuses.FindByClass(ctx, classID)
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, nil
		}
		return nil, appErrors.Internal(err, "failed to load elective status")
	}
	detail.Severity = detail.ElectiveStatus.Severity()
	return detail, nil
}

// ListStatuses returns every stored status.
func (s *ElectiveStatusService) ListStatuses(ctx context.Context) ([]models.ElectiveStatusDetail, error) {
	rows, err := s.statuses.List(ctx)
	if err != nil {
		return nil, appErrors.Internal(err, "failed to list elective statuses")
	}
	for i := range rows {
		rows[i].Severity = rows[i].ElectiveStatus.Severity()
	}
	return rows, nil
}

// ListIncomplete returns incomplete classes with the names of the electives they already have.
func (s *ElectiveStatusService) ListIncomplete(ctx context.Context) ([]models.IncompleteClass, error) {
	rows, err := s.statuses.ListByStatus(ctx, models.ElectiveIncomplete)
	if err != nil {
		return nil, appErrors.Internal(err, "failed to list incomplete classes")
	}

	result := make([]models.IncompleteClass, 0, len(rows))
	for _, row := range rows {
		row.Severity = row.ElectiveStatus.Severity()
		names, err := s.assignments.ListElectiveNamesByClass(ctx, row.ClassID)
		if err != nil {
			s.logger.Warn("list assigned electives failed", zap.Int64("class_id", row.ClassID), zap.Error(err))
			names = nil
		}
		if names == nil {
			names = []string{}
		}
		result = append(result, models.IncompleteClass{ElectiveStatusDetail: row, AssignedElectives: names})
	}
	return result, nil
}

// Statistics aggregates completion across all classes. The boolean reports a cache hit.
func (s *ElectiveStatusService) Statistics(ctx context.Context) (*models.ElectiveStatistics, bool, error) {
	var cached models.ElectiveStatistics
	if hit, _ := s.cache.Get(ctx, electiveStatisticsKey, &cached); hit {
		return &cached, true, nil
	}

	stats, err := s.statuses.Statistics(ctx)
	if err != nil {
		return nil, false, appErrors.Internal(err, "failed to compute elective statistics")
	}
	stats.CompletionPercentage = completionPercentage(stats.CompleteClasses, stats.TotalClasses)
	s.metrics.SetIncompleteClasses(stats.IncompleteClasses)

	_ = s.cache.Set(ctx, electiveStatisticsKey, stats, s.cfg.CacheTTL)
	return stats, false, nil
}

// CompletionPercentage returns the share of complete classes as an integer percent.
func (s *ElectiveStatusService) CompletionPercentage(ctx context.Context) (int, error) {
	stats, _, err := s.Statistics(ctx)
	if err != nil {
		return 0, err
	}
	return stats.CompletionPercentage, nil
}

// Distribution breaks completion down per grade.
func (s *ElectiveStatusService) Distribution(ctx context.Context) ([]models.GradeDistribution, bool, error) {
	var cached []models.GradeDistribution
	if hit, _ := s.cache.Get(ctx, electiveDistributionKey, &cached); hit {
		return cached, true, nil
	}

	rows, err := s.statuses.Distribution(ctx)
	if err != nil {
		return nil, false, appErrors.Internal(err, "failed to compute elective distribution")
	}
	if rows == nil {
		rows = []models.GradeDistribution{}
	}

	_ = s.cache.Set(ctx, electiveDistributionKey, rows, s.cfg.CacheTTL)
	return rows, false, nil
}

// RefreshAll recomputes every class. Failures are logged and counted; the loop always continues.
func (s *ElectiveStatusService) RefreshAll(ctx context.Context) (*models.RefreshSummary, error) {
	start := time.Now()
	ids, err := s.classes.ListIDs(ctx)
	if err != nil {
		return nil, appErrors.Internal(err, "failed to list classes")
	}

	summary := &models.RefreshSummary{}
	for _, id := range ids {
		if _, err := s.updateStatus(ctx, id); err != nil {
			s.logger.Warn("refresh elective status failed", zap.Int64("class_id", id), zap.Error(err))
			summary.Failed++
			summary.FailedIDs = append(summary.FailedIDs, id)
			continue
		}
		summary.Processed++
	}

	s.invalidate(ctx)
	summary.Duration = time.Since(start)
	s.metrics.ObserveRefresh(refreshKindStatus, summary.Duration)
	s.logger.Info("elective statuses refreshed",
		zap.Int("processed", summary.Processed),
		zap.Int("failed", summary.Failed),
		zap.Duration("duration", summary.Duration),
	)
	return summary, nil
}

func (s *ElectiveStatusService) invalidate(ctx context.Context) {
	_ = s.cache.Invalidate(ctx, electiveCachePattern)
}

func completionPercentage(complete, total int) int {
	if total <= 0 {
		return 0
	}
	return int(math.Round(float64(complete) / float64(total) * 100))
}
