package service

import (
	"context"
	"database/sql"
	"errors"
	"time"

	"github.com/jmoiron/sqlx"
	"go.uber.org/zap"

	"github.com/noah-isme/sma-elective-api/internal/models"
	"github.com/noah-isme/sma-elective-api/internal/repository"
	appErrors "github.com/noah-isme/sma-elective-api/pkg/errors"
)

type suggestionClassStore interface {
	FindByID(ctx context.Context, id int64) (*models.Class, error)
	CountBySchoolType(ctx context.Context, schoolType string) (int, error)
}

type lessonStore interface {
	FindByID(ctx context.Context, id int64) (*models.Lesson, error)
	ListElectives(ctx context.Context, grade int, schoolType string) ([]models.Lesson, error)
}

type teacherStore interface {
	FindByID(ctx context.Context, id int64) (*models.Teacher, error)
	List(ctx context.Context) ([]models.Teacher, error)
}

type assignmentStore interface {
	ListLessonIDsByClass(ctx context.Context, classID int64) ([]int64, error)
	Create(ctx context.Context, exec sqlx.ExtContext, assignment *models.Assignment) error
	Workloads(ctx context.Context) ([]models.TeacherWorkload, error)
	WorkloadForTeacher(ctx context.Context, teacherID int64) (*models.TeacherWorkload, error)
	CountByLessons(ctx context.Context, lessonIDs []int64) ([]models.LessonPopularity, error)
	CountByLesson(ctx context.Context, lessonID int64) (int, error)
	TeachersByLessonNames(ctx context.Context, names []string) ([]models.LessonTeacher, error)
}

type slotStore interface {
	ListByClass(ctx context.Context, classID int64) ([]models.ScheduleSlot, error)
	ListByTeacher(ctx context.Context, teacherID int64) ([]models.ScheduleSlot, error)
	ListByTeachers(ctx context.Context, teacherIDs []int64) ([]models.ScheduleSlot, error)
}

type weeklyLimitReader interface {
	WeeklyHourLimit(ctx context.Context, schoolType string) (float64, error)
}

type incompleteClassLister interface {
	ListClassIDsByStatus(ctx context.Context, kind models.ElectiveStatusKind) ([]int64, error)
}

type suggestionStore interface {
	DeleteUnapplied(ctx context.Context) (int64, error)
	DeleteUnappliedByClass(ctx context.Context, classID int64) (int64, error)
	Upsert(ctx context.Context, suggestion *models.Suggestion) (bool, error)
	ListByClass(ctx context.Context, classID int64, includeApplied bool) ([]models.SuggestionDetail, error)
	MarkApplied(ctx context.Context, exec sqlx.ExtContext, id int64, at time.Time) (*models.Suggestion, error)
}

type txRunner interface {
	WithTx(ctx context.Context, fn func(exec sqlx.ExtContext) error) error
}

// errNotClaimed rolls back an apply whose suggestion or assignment was taken by someone else.
var errNotClaimed = errors.New("suggestion not claimed")

// SuggestionStores groups the collaborators of SuggestionService.
type SuggestionStores struct {
	Classes     suggestionClassStore
	Lessons     lessonStore
	Teachers    teacherStore
	Assignments assignmentStore
	Slots       slotStore
	Settings    weeklyLimitReader
	Statuses    incompleteClassLister
	Suggestions suggestionStore
	Tx          txRunner
}

// SuggestionConfig tunes the recommendation engine.
type SuggestionConfig struct {
	SuggestionLimit    int
	DefaultWeeklyHours float64
}

// SuggestionService generates, scores, caches and applies elective assignment candidates.
type SuggestionService struct {
	stores   SuggestionStores
	criteria models.SuggestionCriteria
	cfg      SuggestionConfig
	cache    *CacheService
	metrics  *MetricsService
	logger   *zap.Logger
	now      func() time.Time
}

// NewSuggestionService wires the recommendation engine. cache and metrics may be nil.
func NewSuggestionService(stores SuggestionStores, cfg SuggestionConfig, cache *CacheService, metrics *MetricsService, logger *zap.Logger) *SuggestionService {
	if logger == nil {
		logger = zap.NewNop()
	}
	criteria := models.DefaultSuggestionCriteria()
	if cfg.SuggestionLimit > 0 {
		criteria.Limit = cfg.SuggestionLimit
	}
	if cfg.DefaultWeeklyHours <= 0 {
		cfg.DefaultWeeklyHours = 30
	}
	return &SuggestionService{
		stores:   stores,
		criteria: criteria,
		cfg:      cfg,
		cache:    cache,
		metrics:  metrics,
		logger:   logger,
		now:      func() time.Time { return time.Now().UTC() },
	}
}

// Criteria returns the base criteria merged with overrides.
func (s *SuggestionService) Criteria(overrides *models.CriteriaOverrides) models.SuggestionCriteria {
	return s.criteria.Merge(overrides)
}

// Generate rebuilds the cached suggestions for one class and returns them best first.
// Only a missing class is reported as an error; other store failures degrade the result.
func (s *SuggestionService) Generate(ctx context.Context, classID int64, overrides *models.CriteriaOverrides) ([]models.SuggestionDetail, error) {
	if classID <= 0 {
		return []models.SuggestionDetail{}, nil
	}
	class, err := s.loadClass(ctx, classID)
	if err != nil {
		return nil, err
	}
	criteria := s.criteria.Merge(overrides)
	log := s.logger.With(zap.Int64("class_id", classID))

	lessons, err := s.candidateLessons(ctx, class)
	if err != nil {
		log.Warn("resolve candidate lessons failed", zap.Error(err))
		return []models.SuggestionDetail{}, nil
	}
	if len(lessons) == 0 {
		s.clearCached(ctx, log, class.ID)
		return []models.SuggestionDetail{}, nil
	}

	prefetchStart := time.Now()
	snapshot, err := s.prefetch(ctx, class, lessons)
	s.metrics.ObserveDBQuery("suggestion_prefetch", time.Since(prefetchStart))
	if err != nil {
		log.Warn("prefetch scoring data failed", zap.Error(err))
		return []models.SuggestionDetail{}, nil
	}

	scored := make([]models.SuggestionDetail, 0, len(lessons)*2)
	for _, lesson := range lessons {
		for _, teacher := range snapshot.candidateTeachers(lesson) {
			factors := snapshot.factors(lesson, teacher)
			score := computeScore(factors, criteria)
			f := factors
			scored = append(scored, models.SuggestionDetail{
				Suggestion: models.Suggestion{
					ClassID:   class.ID,
					LessonID:  lesson.ID,
					TeacherID: teacher.ID,
					Score:     score,
					Rationale: buildRationale(factors, score),
				},
				LessonName:  lesson.Name,
				TeacherName: teacher.Name,
				Factors:     &f,
			})
		}
	}
	ranked := rankSuggestions(scored, criteria.Limit)

	s.clearCached(ctx, log, class.ID)
	persisted := make([]models.SuggestionDetail, 0, len(ranked))
	for _, item := range ranked {
		stored, err := s.stores.Suggestions.Upsert(ctx, &item.Suggestion)
		if err != nil {
			log.Warn("cache suggestion failed",
				zap.Int64("lesson_id", item.LessonID),
				zap.Int64("teacher_id", item.TeacherID),
				zap.Error(err))
			continue
		}
		if !stored {
			continue
		}
		persisted = append(persisted, item)
	}

	s.metrics.AddSuggestionsGenerated(len(persisted))
	log.Debug("suggestions generated", zap.Int("candidates", len(scored)), zap.Int("cached", len(persisted)))
	return persisted, nil
}

func (s *SuggestionService) clearCached(ctx context.Context, log *zap.Logger, classID int64) {
	if _, err := s.stores.Suggestions.DeleteUnappliedByClass(ctx, classID); err != nil {
		log.Warn("clear cached suggestions failed", zap.Error(err))
	}
}

// Score evaluates a single (class, lesson, teacher) triple with per-entity lookups.
// Non-positive IDs yield (nil, nil).
func (s *SuggestionService) Score(ctx context.Context, classID, lessonID, teacherID int64, overrides *models.CriteriaOverrides) (*models.ScoreBreakdown, error) {
	if classID <= 0 || lessonID <= 0 || teacherID <= 0 {
		return nil, nil
	}
	class, err := s.loadClass(ctx, classID)
	if err != nil {
		return nil, err
	}
	lesson, err := s.stores.Lessons.FindByID(ctx, lessonID)
	if err != nil {
		return nil, lookupError(err, "lesson not found", "failed to load lesson")
	}
	teacher, err := s.stores.Teachers.FindByID(ctx, teacherID)
	if err != nil {
		return nil, lookupError(err, "teacher not found", "failed to load teacher")
	}

	criteria := s.criteria.Merge(overrides)
	factors := s.pairFactors(ctx, class, *lesson, *teacher)
	score := computeScore(factors, criteria)
	return &models.ScoreBreakdown{
		ClassID:   class.ID,
		LessonID:  lesson.ID,
		TeacherID: teacher.ID,
		Score:     score,
		Rationale: buildRationale(factors, score),
		Factors:   factors,
		Criteria:  criteria,
	}, nil
}

// pairFactors gathers the scoring inputs for one pair. Each lookup fails soft to its worst case.
func (s *SuggestionService) pairFactors(ctx context.Context, class *models.Class, lesson models.Lesson, teacher models.Teacher) models.ScoreFactors {
	log := s.logger.With(zap.Int64("class_id", class.ID), zap.Int64("lesson_id", lesson.ID), zap.Int64("teacher_id", teacher.ID))
	factors := models.ScoreFactors{
		SubjectMatch: models.SubjectMatches(teacher.SubjectLabel(), lesson.Name),
	}

	limit := s.weeklyLimit(ctx, class.SchoolType)
	if workload, err := s.stores.Assignments.WorkloadForTeacher(ctx, teacher.ID); err != nil {
		log.Warn("teacher workload lookup failed", zap.Error(err))
		factors.WorkloadPercent = 100
	} else {
		factors.WorkloadPercent = workloadPercent(workload.WeeklyHours, limit)
		factors.TeacherAssignments = workload.AssignmentCount
	}

	count, err := s.stores.Assignments.CountByLesson(ctx, lesson.ID)
	if err != nil {
		log.Warn("lesson popularity lookup failed", zap.Error(err))
		count = 0
	}
	total, err := s.stores.Classes.CountBySchoolType(ctx, class.SchoolType)
	if err != nil {
		log.Warn("class count lookup failed", zap.Error(err))
		total = 0
	}
	factors.PopularityPercent = popularityPercent(count, total)

	classSlots, classErr := s.stores.Slots.ListByClass(ctx, class.ID)
	teacherSlots, teacherErr := s.stores.Slots.ListByTeacher(ctx, teacher.ID)
	if classErr != nil || teacherErr != nil {
		log.Warn("schedule lookup failed", zap.NamedError("class_error", classErr), zap.NamedError("teacher_error", teacherErr))
		factors.HasConflict = true
	} else {
		factors.HasConflict = models.NewSlotSet(classSlots).Intersects(models.NewSlotSet(teacherSlots))
	}
	return factors
}

// Apply turns a cached suggestion into an assignment. It returns false when the
// suggestion is missing, already applied, or its assignment already exists.
func (s *SuggestionService) Apply(ctx context.Context, suggestionID int64) (bool, error) {
	if suggestionID <= 0 {
		return false, nil
	}

	var assignment models.Assignment
	start := time.Now()
	err := s.stores.Tx.WithTx(ctx, func(exec sqlx.ExtContext) error {
		suggestion, err := s.stores.Suggestions.MarkApplied(ctx, exec, suggestionID, s.now())
		if err != nil {
			if errors.Is(err, sql.ErrNoRows) {
				return errNotClaimed
			}
			return err
		}
		assignment = models.Assignment{
			TeacherID: suggestion.TeacherID,
			LessonID:  suggestion.LessonID,
			ClassID:   suggestion.ClassID,
		}
		if err := s.stores.Assignments.Create(ctx, exec, &assignment); err != nil {
			if repository.IsUniqueViolation(err) {
				return errNotClaimed
			}
			return err
		}
		return nil
	})
	s.metrics.ObserveDBQuery("suggestion_apply", time.Since(start))
	if err != nil {
		if errors.Is(err, errNotClaimed) {
			s.logger.Debug("suggestion not applied", zap.Int64("suggestion_id", suggestionID))
			return false, nil
		}
		return false, appErrors.Internal(err, "failed to apply suggestion")
	}

	s.metrics.IncSuggestionsApplied()
	_ = s.cache.Invalidate(ctx, electiveCachePattern)
	s.logger.Info("suggestion applied",
		zap.Int64("suggestion_id", suggestionID),
		zap.Int64("assignment_id", assignment.ID),
		zap.Int64("class_id", assignment.ClassID),
	)
	return true, nil
}

// RefreshCache drops every unapplied suggestion and regenerates them for incomplete classes.
func (s *SuggestionService) RefreshCache(ctx context.Context) (*models.RefreshSummary, error) {
	start := time.Now()
	deleted, err := s.stores.Suggestions.DeleteUnapplied(ctx)
	if err != nil {
		return nil, appErrors.Internal(err, "failed to clear suggestion cache")
	}
	ids, err := s.stores.Statuses.ListClassIDsByStatus(ctx, models.ElectiveIncomplete)
	if err != nil {
		return nil, appErrors.Internal(err, "failed to list incomplete classes")
	}

	summary := &models.RefreshSummary{}
	for _, id := range ids {
		items, err := s.Generate(ctx, id, nil)
		if err != nil {
			s.logger.Warn("regenerate suggestions failed", zap.Int64("class_id", id), zap.Error(err))
			summary.Failed++
			summary.FailedIDs = append(summary.FailedIDs, id)
			continue
		}
		summary.Processed++
		summary.Suggestions += len(items)
	}

	summary.Duration = time.Since(start)
	s.metrics.ObserveRefresh(refreshKindSuggestions, summary.Duration)
	s.logger.Info("suggestion cache refreshed",
		zap.Int64("deleted", deleted),
		zap.Int("classes", summary.Processed),
		zap.Int("failed", summary.Failed),
		zap.Int("suggestions", summary.Suggestions),
	)
	return summary, nil
}

// ListCached returns the stored suggestions of a class, best first.
func (s *SuggestionService) ListCached(ctx context.Context, classID int64, includeApplied bool) ([]models.SuggestionDetail, error) {
	if classID <= 0 {
		return []models.SuggestionDetail{}, nil
	}
	rows, err := s.stores.Suggestions.ListByClass(ctx, classID, includeApplied)
	if err != nil {
		return nil, appErrors.Internal(err, "failed to list suggestions")
	}
	if rows == nil {
		rows = []models.SuggestionDetail{}
	}
	return rows, nil
}

func (s *SuggestionService) loadClass(ctx context.Context, classID int64) (*models.Class, error) {
	class, err := s.stores.Classes.FindByID(ctx, classID)
	if err != nil {
		return nil, lookupError(err, "class not found", "failed to load class")
	}
	return class, nil
}

// candidateLessons lists the class's electives that are not assigned yet.
func (s *SuggestionService) candidateLessons(ctx context.Context, class *models.Class) ([]models.Lesson, error) {
	assigned, err := s.stores.Assignments.ListLessonIDsByClass(ctx, class.ID)
	if err != nil {
		return nil, err
	}
	taken := make(map[int64]struct{}, len(assigned))
	for _, id := range assigned {
		taken[id] = struct{}{}
	}

	electives, err := s.stores.Lessons.ListElectives(ctx, class.Grade, class.SchoolType)
	if err != nil {
		return nil, err
	}
	lessons := make([]models.Lesson, 0, len(electives))
	for _, lesson := range electives {
		if _, ok := taken[lesson.ID]; ok {
			continue
		}
		lessons = append(lessons, lesson)
	}
	return lessons, nil
}

// weeklyLimit resolves the weekly hour limit for a school type. A missing setting falls back
// to the configured default; a failed lookup returns 0 which scores as a full workload.
func (s *SuggestionService) weeklyLimit(ctx context.Context, schoolType string) float64 {
	limit, err := s.stores.Settings.WeeklyHourLimit(ctx, schoolType)
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return s.cfg.DefaultWeeklyHours
		}
		s.logger.Warn("weekly hour limit lookup failed", zap.String("school_type", schoolType), zap.Error(err))
		return 0
	}
	return limit
}

func lookupError(err error, notFound, internal string) error {
	if errors.Is(err, sql.ErrNoRows) {
		return appErrors.Clone(appErrors.ErrNotFound, notFound)
	}
	return appErrors.Internal(err, internal)
}
