package service

import (
	"context"
	"fmt"

	"go.uber.org/zap"

	"github.com/noah-isme/sma-elective-api/internal/models"
)

// scoringSnapshot holds everything needed to score every candidate pair of one class
// in memory. It is loaded with a fixed number of queries regardless of the pair count.
type scoringSnapshot struct {
	class    *models.Class
	teachers []models.Teacher

	weeklyLimit  float64
	workloads    map[int64]models.TeacherWorkload
	workloadsErr bool

	popularity   map[int64]int
	totalClasses int

	previous map[string]map[int64]struct{}

	classSlots   models.SlotSet
	teacherSlots map[int64]models.SlotSet
	slotsErr     bool
}

// prefetch loads the snapshot for the given candidate lessons. Only the teacher list is
// mandatory; every other lookup fails soft to the same worst case as pairFactors.
func (s *SuggestionService) prefetch(ctx context.Context, class *models.Class, lessons []models.Lesson) (*scoringSnapshot, error) {
	log := s.logger.With(zap.Int64("class_id", class.ID))

	teachers, err := s.stores.Teachers.List(ctx)
	if err != nil {
		return nil, fmt.Errorf("list teachers: %w", err)
	}
	snap := &scoringSnapshot{
		class:        class,
		teachers:     teachers,
		workloads:    make(map[int64]models.TeacherWorkload, len(teachers)),
		popularity:   make(map[int64]int, len(lessons)),
		previous:     make(map[string]map[int64]struct{}),
		teacherSlots: make(map[int64]models.SlotSet),
	}

	snap.weeklyLimit = s.weeklyLimit(ctx, class.SchoolType)

	if rows, err := s.stores.Assignments.Workloads(ctx); err != nil {
		log.Warn("teacher workload prefetch failed", zap.Error(err))
		snap.workloadsErr = true
	} else {
		for _, row := range rows {
			snap.workloads[row.TeacherID] = row
		}
	}

	lessonIDs := make([]int64, 0, len(lessons))
	names := make([]string, 0, len(lessons))
	seenNames := make(map[string]struct{}, len(lessons))
	for _, lesson := range lessons {
		lessonIDs = append(lessonIDs, lesson.ID)
		if _, ok := seenNames[lesson.Name]; !ok {
			seenNames[lesson.Name] = struct{}{}
			names = append(names, lesson.Name)
		}
	}

	if rows, err := s.stores.Assignments.CountByLessons(ctx, lessonIDs); err != nil {
		log.Warn("lesson popularity prefetch failed", zap.Error(err))
	} else {
		for _, row := range rows {
			snap.popularity[row.LessonID] = row.Count
		}
	}
	if total, err := s.stores.Classes.CountBySchoolType(ctx, class.SchoolType); err != nil {
		log.Warn("class count prefetch failed", zap.Error(err))
	} else {
		snap.totalClasses = total
	}

	if rows, err := s.stores.Assignments.TeachersByLessonNames(ctx, names); err != nil {
		log.Warn("previous teacher prefetch failed", zap.Error(err))
	} else {
		for _, row := range rows {
			set, ok := snap.previous[row.LessonName]
			if !ok {
				set = make(map[int64]struct{})
				snap.previous[row.LessonName] = set
			}
			set[row.TeacherID] = struct{}{}
		}
	}

	s.prefetchSlots(ctx, snap, lessons)
	return snap, nil
}

func (s *SuggestionService) prefetchSlots(ctx context.Context, snap *scoringSnapshot, lessons []models.Lesson) {
	classSlots, err := s.stores.Slots.ListByClass(ctx, snap.class.ID)
	if err != nil {
		s.logger.Warn("class schedule prefetch failed", zap.Int64("class_id", snap.class.ID), zap.Error(err))
		snap.slotsErr = true
		return
	}
	snap.classSlots = models.NewSlotSet(classSlots)

	seen := make(map[int64]struct{})
	teacherIDs := make([]int64, 0, len(snap.teachers))
	for _, lesson := range lessons {
		for _, teacher := range snap.candidateTeachers(lesson) {
			if _, ok := seen[teacher.ID]; ok {
				continue
			}
			seen[teacher.ID] = struct{}{}
			teacherIDs = append(teacherIDs, teacher.ID)
		}
	}

	slots, err := s.stores.Slots.ListByTeachers(ctx, teacherIDs)
	if err != nil {
		s.logger.Warn("teacher schedule prefetch failed", zap.Int64("class_id", snap.class.ID), zap.Error(err))
		snap.slotsErr = true
		return
	}
	grouped := make(map[int64][]models.ScheduleSlot, len(teacherIDs))
	for _, slot := range slots {
		grouped[slot.TeacherID] = append(grouped[slot.TeacherID], slot)
	}
	for _, id := range teacherIDs {
		snap.teacherSlots[id] = models.NewSlotSet(grouped[id])
	}
}

// candidateTeachers returns teachers whose subject matches the lesson plus teachers who
// taught a lesson of the same name before. When neither exists every teacher is a candidate.
func (snap *scoringSnapshot) candidateTeachers(lesson models.Lesson) []models.Teacher {
	previous := snap.previous[lesson.Name]
	candidates := make([]models.Teacher, 0, len(snap.teachers))
	for _, teacher := range snap.teachers {
		if _, ok := previous[teacher.ID]; ok || models.SubjectMatches(teacher.SubjectLabel(), lesson.Name) {
			candidates = append(candidates, teacher)
		}
	}
	if len(candidates) == 0 {
		return snap.teachers
	}
	return candidates
}

// factors mirrors pairFactors using the prefetched maps. It is only exact for teachers
// returned by candidateTeachers; a teacher whose schedule was not prefetched counts as
// conflicting, the same as a failed schedule lookup.
func (snap *scoringSnapshot) factors(lesson models.Lesson, teacher models.Teacher) models.ScoreFactors {
	factors := models.ScoreFactors{
		SubjectMatch:      models.SubjectMatches(teacher.SubjectLabel(), lesson.Name),
		PopularityPercent: popularityPercent(snap.popularity[lesson.ID], snap.totalClasses),
	}
	if snap.workloadsErr {
		factors.WorkloadPercent = 100
	} else {
		workload := snap.workloads[teacher.ID]
		factors.WorkloadPercent = workloadPercent(workload.WeeklyHours, snap.weeklyLimit)
		factors.TeacherAssignments = workload.AssignmentCount
	}
	slots, loaded := snap.teacherSlots[teacher.ID]
	if snap.slotsErr || !loaded {
		factors.HasConflict = true
	} else {
		factors.HasConflict = snap.classSlots.Intersects(slots)
	}
	return factors
}
