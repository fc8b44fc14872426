package service

import (
	"context"
	"database/sql"
	"encoding/json"
	"errors"
	"fmt"
	"sort"
	"strings"
	"time"

	"github.com/jmoiron/sqlx"
	"github.com/lib/pq"

	"github.com/noah-isme/sma-elective-api/internal/models"
	appErrors "github.com/noah-isme/sma-elective-api/pkg/errors"
)

// electiveFixture is an in-memory store backing every collaborator of the elective services.
// Aggregates are derived from the raw rows so the batched and per-pair paths read the same data.
type electiveFixture struct {
	classes     []models.Class
	lessons     []models.Lesson
	teachers    []models.Teacher
	assignments []models.Assignment
	slots       []models.ScheduleSlot
	limits      map[string]float64
	statuses    map[int64]models.ElectiveStatus
	suggestions map[int64]*models.Suggestion
	nextID      int64

	workloadErr error
	slotErr     error
	limitErr    error
	countErr    map[int64]error

	calls map[string]int
}

func newElectiveFixture() *electiveFixture {
	str := func(s string) *string { return &s }
	return &electiveFixture{
		classes: []models.Class{
			{ID: 1, Grade: 5, Section: "A", SchoolType: "SD"},
			{ID: 2, Grade: 5, Section: "B", SchoolType: "SD"},
			{ID: 3, Grade: 5, Section: "C", SchoolType: "SD"},
			{ID: 4, Grade: 7, Section: "A", SchoolType: "SMP"},
		},
		lessons: []models.Lesson{
			{ID: 10, Name: "Matematika", Grade: 5, WeeklyHours: 5, IsMandatory: true, SchoolType: "SD"},
			{ID: 11, Name: "Seni Musik", Grade: 5, WeeklyHours: 2, SchoolType: "SD"},
			{ID: 12, Name: "Bahasa Inggris", Grade: 5, WeeklyHours: 3, SchoolType: "SD"},
			{ID: 13, Name: "Robotika", Grade: 5, WeeklyHours: 2, SchoolType: "SD"},
			{ID: 14, Name: "Tari", Grade: 5, WeeklyHours: 2, SchoolType: "SD"},
			{ID: 15, Name: "Robotika", Grade: 7, WeeklyHours: 2, SchoolType: "SMP"},
		},
		teachers: []models.Teacher{
			{ID: 100, Name: "Ani", Subject: str("Musik")},
			{ID: 101, Name: "Budi", Subject: str("Bahasa Inggris")},
			{ID: 102, Name: "Citra"},
			{ID: 103, Name: "Dedi", Subject: str("Robotika Dasar")},
		},
		assignments: []models.Assignment{
			{ID: 1, ClassID: 1, LessonID: 10, TeacherID: 102},
			{ID: 2, ClassID: 1, LessonID: 12, TeacherID: 101},
			{ID: 3, ClassID: 2, LessonID: 11, TeacherID: 100},
			{ID: 4, ClassID: 2, LessonID: 14, TeacherID: 102},
			{ID: 5, ClassID: 3, LessonID: 11, TeacherID: 100},
		},
		slots: []models.ScheduleSlot{
			{ID: 1, DayOfWeek: 1, Period: 1, ClassID: 1, TeacherID: 102},
			{ID: 2, DayOfWeek: 1, Period: 2, ClassID: 1, TeacherID: 101},
			{ID: 3, DayOfWeek: 1, Period: 1, ClassID: 2, TeacherID: 100},
			{ID: 4, DayOfWeek: 2, Period: 3, ClassID: 4, TeacherID: 103},
		},
		limits:      map[string]float64{"SD": 24},
		statuses:    make(map[int64]models.ElectiveStatus),
		suggestions: make(map[int64]*models.Suggestion),
		nextID:      1000,
		countErr:    make(map[int64]error),
		calls:       make(map[string]int),
	}
}

func (f *electiveFixture) stores() SuggestionStores {
	return SuggestionStores{
		Classes:     fixtureClasses{f},
		Lessons:     fixtureLessons{f},
		Teachers:    fixtureTeachers{f},
		Assignments: f,
		Slots:       fixtureSlots{f},
		Settings:    f,
		Statuses:    fixtureStatuses{f},
		Suggestions: f,
		Tx:          f,
	}
}

func (f *electiveFixture) lesson(id int64) (models.Lesson, bool) {
	for _, l := range f.lessons {
		if l.ID == id {
			return l, true
		}
	}
	return models.Lesson{}, false
}

type fixtureClasses struct{ f *electiveFixture }

func (c fixtureClasses) FindByID(ctx context.Context, id int64) (*models.Class, error) {
	c.f.calls["FindClass"]++
	for _, class := range c.f.classes {
		if class.ID == id {
			cp := class
			return &cp, nil
		}
	}
	return nil, fmt.Errorf("find class %d: %w", id, sql.ErrNoRows)
}

func (c fixtureClasses) ListIDs(ctx context.Context) ([]int64, error) {
	ids := make([]int64, 0, len(c.f.classes))
	for _, class := range c.f.classes {
		ids = append(ids, class.ID)
	}
	return ids, nil
}

func (c fixtureClasses) CountBySchoolType(ctx context.Context, schoolType string) (int, error) {
	count := 0
	for _, class := range c.f.classes {
		if class.SchoolType == schoolType {
			count++
		}
	}
	return count, nil
}

type fixtureLessons struct{ f *electiveFixture }

func (l fixtureLessons) FindByID(ctx context.Context, id int64) (*models.Lesson, error) {
	if lesson, ok := l.f.lesson(id); ok {
		return &lesson, nil
	}
	return nil, fmt.Errorf("find lesson: %w", sql.ErrNoRows)
}

func (l fixtureLessons) ListElectives(ctx context.Context, grade int, schoolType string) ([]models.Lesson, error) {
	l.f.calls["ListElectives"]++
	var out []models.Lesson
	for _, lesson := range l.f.lessons {
		if lesson.Grade == grade && lesson.SchoolType == schoolType && !lesson.IsMandatory {
			out = append(out, lesson)
		}
	}
	return out, nil
}

type fixtureTeachers struct{ f *electiveFixture }

func (t fixtureTeachers) FindByID(ctx context.Context, id int64) (*models.Teacher, error) {
	for _, teacher := range t.f.teachers {
		if teacher.ID == id {
			cp := teacher
			return &cp, nil
		}
	}
	return nil, fmt.Errorf("find teacher: %w", sql.ErrNoRows)
}

func (t fixtureTeachers) List(ctx context.Context) ([]models.Teacher, error) {
	return append([]models.Teacher(nil), t.f.teachers...), nil
}

type fixtureStatuses struct{ f *electiveFixture }

func (s fixtureStatuses) ListClassIDsByStatus(ctx context.Context, kind models.ElectiveStatusKind) ([]int64, error) {
	var ids []int64
	for id, status := range s.f.statuses {
		if status.Status == kind {
			ids = append(ids, id)
		}
	}
	sort.Slice(ids, func(i, j int) bool { return ids[i] < ids[j] })
	return ids, nil
}

// electiveCounter

func (f *electiveFixture) CountElectivesByClass(ctx context.Context, classID int64) (int, error) {
	if err := f.countErr[classID]; err != nil {
		return 0, err
	}
	seen := make(map[int64]struct{})
	for _, a := range f.assignments {
		if lesson, ok := f.lesson(a.LessonID); ok && a.ClassID == classID && !lesson.IsMandatory {
			seen[a.LessonID] = struct{}{}
		}
	}
	return len(seen), nil
}

func (f *electiveFixture) ListElectiveNamesByClass(ctx context.Context, classID int64) ([]string, error) {
	var names []string
	for _, a := range f.assignments {
		if lesson, ok := f.lesson(a.LessonID); ok && a.ClassID == classID && !lesson.IsMandatory {
			names = append(names, lesson.Name)
		}
	}
	return names, nil
}

// assignmentStore

func (f *electiveFixture) ListLessonIDsByClass(ctx context.Context, classID int64) ([]int64, error) {
	var ids []int64
	for _, a := range f.assignments {
		if a.ClassID == classID {
			ids = append(ids, a.LessonID)
		}
	}
	return ids, nil
}

func (f *electiveFixture) Create(ctx context.Context, exec sqlx.ExtContext, assignment *models.Assignment) error {
	for _, a := range f.assignments {
		if a.ClassID == assignment.ClassID && a.LessonID == assignment.LessonID && a.TeacherID == assignment.TeacherID {
			return fmt.Errorf("create assignment: %w", &pq.Error{Code: "23505"})
		}
	}
	f.nextID++
	assignment.ID = f.nextID
	assignment.CreatedAt = time.Now().UTC()
	f.assignments = append(f.assignments, *assignment)
	return nil
}

func (f *electiveFixture) workload(teacherID int64) models.TeacherWorkload {
	w := models.TeacherWorkload{TeacherID: teacherID}
	for _, a := range f.assignments {
		if a.TeacherID != teacherID {
			continue
		}
		lesson, _ := f.lesson(a.LessonID)
		w.WeeklyHours += float64(lesson.WeeklyHours)
		w.AssignmentCount++
	}
	return w
}

func (f *electiveFixture) Workloads(ctx context.Context) ([]models.TeacherWorkload, error) {
	f.calls["Workloads"]++
	if f.workloadErr != nil {
		return nil, f.workloadErr
	}
	var out []models.TeacherWorkload
	for _, t := range f.teachers {
		if w := f.workload(t.ID); w.AssignmentCount > 0 {
			out = append(out, w)
		}
	}
	return out, nil
}

func (f *electiveFixture) WorkloadForTeacher(ctx context.Context, teacherID int64) (*models.TeacherWorkload, error) {
	f.calls["WorkloadForTeacher"]++
	if f.workloadErr != nil {
		return nil, f.workloadErr
	}
	w := f.workload(teacherID)
	return &w, nil
}

func (f *electiveFixture) CountByLessons(ctx context.Context, lessonIDs []int64) ([]models.LessonPopularity, error) {
	f.calls["CountByLessons"]++
	var out []models.LessonPopularity
	for _, id := range lessonIDs {
		count, _ := f.CountByLesson(ctx, id)
		f.calls["CountByLesson"]--
		if count > 0 {
			out = append(out, models.LessonPopularity{LessonID: id, Count: count})
		}
	}
	return out, nil
}

func (f *electiveFixture) CountByLesson(ctx context.Context, lessonID int64) (int, error) {
	f.calls["CountByLesson"]++
	count := 0
	for _, a := range f.assignments {
		if a.LessonID == lessonID {
			count++
		}
	}
	return count, nil
}

func (f *electiveFixture) TeachersByLessonNames(ctx context.Context, names []string) ([]models.LessonTeacher, error) {
	wanted := make(map[string]struct{}, len(names))
	for _, n := range names {
		wanted[n] = struct{}{}
	}
	seen := make(map[models.LessonTeacher]struct{})
	var out []models.LessonTeacher
	for _, a := range f.assignments {
		lesson, _ := f.lesson(a.LessonID)
		if _, ok := wanted[lesson.Name]; !ok {
			continue
		}
		row := models.LessonTeacher{LessonName: lesson.Name, TeacherID: a.TeacherID}
		if _, dup := seen[row]; !dup {
			seen[row] = struct{}{}
			out = append(out, row)
		}
	}
	return out, nil
}

// slotStore

type fixtureSlots struct{ f *electiveFixture }

func (fs fixtureSlots) ListByClass(ctx context.Context, classID int64) ([]models.ScheduleSlot, error) {
	f := fs.f
	if f.slotErr != nil {
		return nil, f.slotErr
	}
	var out []models.ScheduleSlot
	for _, s := range f.slots {
		if s.ClassID == classID {
			out = append(out, s)
		}
	}
	return out, nil
}

func (fs fixtureSlots) ListByTeacher(ctx context.Context, teacherID int64) ([]models.ScheduleSlot, error) {
	f := fs.f
	f.calls["ListByTeacher"]++
	if f.slotErr != nil {
		return nil, f.slotErr
	}
	var out []models.ScheduleSlot
	for _, s := range f.slots {
		if s.TeacherID == teacherID {
			out = append(out, s)
		}
	}
	return out, nil
}

func (fs fixtureSlots) ListByTeachers(ctx context.Context, teacherIDs []int64) ([]models.ScheduleSlot, error) {
	f := fs.f
	f.calls["ListByTeachers"]++
	if f.slotErr != nil {
		return nil, f.slotErr
	}
	wanted := make(map[int64]struct{}, len(teacherIDs))
	for _, id := range teacherIDs {
		wanted[id] = struct{}{}
	}
	var out []models.ScheduleSlot
	for _, s := range f.slots {
		if _, ok := wanted[s.TeacherID]; ok {
			out = append(out, s)
		}
	}
	return out, nil
}

// weeklyLimitReader

func (f *electiveFixture) WeeklyHourLimit(ctx context.Context, schoolType string) (float64, error) {
	if f.limitErr != nil {
		return 0, f.limitErr
	}
	limit, ok := f.limits[schoolType]
	if !ok {
		return 0, fmt.Errorf("weekly hour limit for %s: %w", schoolType, sql.ErrNoRows)
	}
	return limit, nil
}

// suggestionStore

func (f *electiveFixture) DeleteUnapplied(ctx context.Context) (int64, error) {
	var n int64
	for id, s := range f.suggestions {
		if !s.IsApplied {
			delete(f.suggestions, id)
			n++
		}
	}
	return n, nil
}

func (f *electiveFixture) DeleteUnappliedByClass(ctx context.Context, classID int64) (int64, error) {
	var n int64
	for id, s := range f.suggestions {
		if !s.IsApplied && s.ClassID == classID {
			delete(f.suggestions, id)
			n++
		}
	}
	return n, nil
}

func (f *electiveFixture) Upsert(ctx context.Context, suggestion *models.Suggestion) (bool, error) {
	for _, existing := range f.suggestions {
		if existing.ClassID == suggestion.ClassID && existing.LessonID == suggestion.LessonID && existing.TeacherID == suggestion.TeacherID {
			if existing.IsApplied {
				return false, nil
			}
			existing.Score = suggestion.Score
			existing.Rationale = suggestion.Rationale
			suggestion.ID = existing.ID
			return true, nil
		}
	}
	f.nextID++
	suggestion.ID = f.nextID
	cp := *suggestion
	f.suggestions[cp.ID] = &cp
	return true, nil
}

func (f *electiveFixture) ListByClass(ctx context.Context, classID int64, includeApplied bool) ([]models.SuggestionDetail, error) {
	var out []models.SuggestionDetail
	for _, s := range f.suggestions {
		if s.ClassID != classID || (s.IsApplied && !includeApplied) {
			continue
		}
		out = append(out, models.SuggestionDetail{Suggestion: *s})
	}
	sort.Slice(out, func(i, j int) bool { return out[i].Score > out[j].Score })
	return out, nil
}

func (f *electiveFixture) MarkApplied(ctx context.Context, exec sqlx.ExtContext, id int64, at time.Time) (*models.Suggestion, error) {
	s, ok := f.suggestions[id]
	if !ok || s.IsApplied {
		return nil, fmt.Errorf("mark suggestion applied: %w", sql.ErrNoRows)
	}
	s.IsApplied = true
	s.UpdatedAt = at
	cp := *s
	return &cp, nil
}

func (f *electiveFixture) unapplied() int {
	n := 0
	for _, s := range f.suggestions {
		if !s.IsApplied {
			n++
		}
	}
	return n
}

// txRunner restores suggestions and assignments when fn fails.

func (f *electiveFixture) WithTx(ctx context.Context, fn func(exec sqlx.ExtContext) error) error {
	savedAssignments := append([]models.Assignment(nil), f.assignments...)
	savedSuggestions := make(map[int64]models.Suggestion, len(f.suggestions))
	for id, s := range f.suggestions {
		savedSuggestions[id] = *s
	}
	if err := fn(nil); err != nil {
		f.assignments = savedAssignments
		f.suggestions = make(map[int64]*models.Suggestion, len(savedSuggestions))
		for id, s := range savedSuggestions {
			cp := s
			f.suggestions[id] = &cp
		}
		return err
	}
	return nil
}

// electiveStatusStore

func (f *electiveFixture) classByID(id int64) (models.Class, bool) {
	for _, c := range f.classes {
		if c.ID == id {
			return c, true
		}
	}
	return models.Class{}, false
}

type fixtureStatusStore struct{ f *electiveFixture }

func (s fixtureStatusStore) Upsert(ctx context.Context, status *models.ElectiveStatus) error {
	s.f.statuses[status.ClassID] = *status
	return nil
}

func (s fixtureStatusStore) detail(status models.ElectiveStatus) models.ElectiveStatusDetail {
	class, _ := s.f.classByID(status.ClassID)
	return models.ElectiveStatusDetail{ElectiveStatus: status, Grade: class.Grade, Section: class.Section, SchoolType: class.SchoolType}
}

func (s fixtureStatusStore) FindByClass(ctx context.Context, classID int64) (*models.ElectiveStatusDetail, error) {
	status, ok := s.f.statuses[classID]
	if !ok {
		return nil, fmt.Errorf("find elective status: %w", sql.ErrNoRows)
	}
	d := s.detail(status)
	return &d, nil
}

func (s fixtureStatusStore) List(ctx context.Context) ([]models.ElectiveStatusDetail, error) {
	var out []models.ElectiveStatusDetail
	for _, class := range s.f.classes {
		if status, ok := s.f.statuses[class.ID]; ok {
			out = append(out, s.detail(status))
		}
	}
	return out, nil
}

func (s fixtureStatusStore) ListByStatus(ctx context.Context, kind models.ElectiveStatusKind) ([]models.ElectiveStatusDetail, error) {
	all, _ := s.List(ctx)
	var out []models.ElectiveStatusDetail
	for _, d := range all {
		if d.Status == kind {
			out = append(out, d)
		}
	}
	return out, nil
}

func (s fixtureStatusStore) Statistics(ctx context.Context) (*models.ElectiveStatistics, error) {
	s.f.calls["Statistics"]++
	stats := &models.ElectiveStatistics{TotalClasses: len(s.f.classes)}
	total := 0
	for _, status := range s.f.statuses {
		switch status.Status {
		case models.ElectiveComplete:
			stats.CompleteClasses++
		case models.ElectiveIncomplete:
			stats.IncompleteClasses++
		case models.ElectiveOverAssigned:
			stats.OverAssignedClasses++
		}
		total += status.AssignedCount
	}
	if len(s.f.statuses) > 0 {
		stats.AverageElectives = float64(total) / float64(len(s.f.statuses))
	}
	return stats, nil
}

func (s fixtureStatusStore) Distribution(ctx context.Context) ([]models.GradeDistribution, error) {
	byGrade := make(map[int]*models.GradeDistribution)
	var grades []int
	for _, class := range s.f.classes {
		d, ok := byGrade[class.Grade]
		if !ok {
			d = &models.GradeDistribution{Grade: class.Grade}
			byGrade[class.Grade] = d
			grades = append(grades, class.Grade)
		}
		d.TotalClasses++
		switch s.f.statuses[class.ID].Status {
		case models.ElectiveComplete:
			d.Complete++
		case models.ElectiveIncomplete:
			d.Incomplete++
		case models.ElectiveOverAssigned:
			d.OverAssigned++
		}
	}
	sort.Ints(grades)
	out := make([]models.GradeDistribution, 0, len(grades))
	for _, g := range grades {
		out = append(out, *byGrade[g])
	}
	return out, nil
}

// memoryCache is a CacheRepository kept in a map; keys are matched by prefix for patterns ending in '*'.
type memoryCache struct {
	items map[string][]byte
}

func newMemoryCache() *memoryCache {
	return &memoryCache{items: make(map[string][]byte)}
}

func (m *memoryCache) Get(ctx context.Context, key string, dest interface{}) error {
	raw, ok := m.items[key]
	if !ok {
		return appErrors.ErrCacheMiss
	}
	return json.Unmarshal(raw, dest)
}

func (m *memoryCache) Set(ctx context.Context, key string, value interface{}, ttl time.Duration) error {
	raw, err := json.Marshal(value)
	if err != nil {
		return err
	}
	m.items[key] = raw
	return nil
}

func (m *memoryCache) DeleteByPattern(ctx context.Context, pattern string) error {
	prefix := strings.TrimSuffix(pattern, "*")
	for key := range m.items {
		if strings.HasPrefix(key, prefix) {
			delete(m.items, key)
		}
	}
	return nil
}

var errFixtureDown = errors.New("store unavailable")
