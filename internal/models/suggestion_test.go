package models

import (
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestSuggestionCriteriaMerge(t *testing.T) {
	off := false
	limit := 3
	zero := 0
	base := DefaultSuggestionCriteria()

	merged := base.Merge(&CriteriaOverrides{PreferPopular: &off, Limit: &limit})
	assert.True(t, merged.PreferLowWorkload)
	assert.False(t, merged.PreferPopular)
	assert.True(t, merged.AvoidConflicts)
	assert.Equal(t, 3, merged.Limit)
	assert.True(t, base.PreferPopular, "merge must not mutate the receiver")

	assert.Equal(t, base, base.Merge(nil))
	assert.Equal(t, DefaultSuggestionLimit, base.Merge(&CriteriaOverrides{Limit: &zero}).Limit)
}

func TestSubjectMatches(t *testing.T) {
	assert.True(t, SubjectMatches("Music", "music"))
	assert.True(t, SubjectMatches("Visual Arts", "Arts"))
	assert.True(t, SubjectMatches("art", "Visual Arts"))
	assert.False(t, SubjectMatches("Chemistry", "Music"))
	assert.False(t, SubjectMatches("", "Music"))
	assert.False(t, SubjectMatches("  ", "Music"))
	assert.True(t, SubjectMatches(" ", "Seni Musik"))
	assert.False(t, SubjectMatches(" Musik ", "Seni Musik"))
}

func TestSlotSetIntersects(t *testing.T) {
	class := NewSlotSet([]ScheduleSlot{{DayOfWeek: 1, Period: 1}, {DayOfWeek: 2, Period: 3}})
	assert.True(t, class.Intersects(NewSlotSet([]ScheduleSlot{{DayOfWeek: 2, Period: 3}})))
	assert.False(t, class.Intersects(NewSlotSet([]ScheduleSlot{{DayOfWeek: 3, Period: 1}})))
	assert.False(t, class.Intersects(NewSlotSet(nil)))
}
