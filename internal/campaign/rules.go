package campaign

import (
	"time"

	"github.com/pulseward/pulseward/internal/flows"
)

// Rule is one scheduled prompt in the program calendar. Days are 1-based
// program days; an empty Days list means every day. Rules fire when the
// participant's wall clock matches Hour:Minute.
type Rule struct {
	Name string
	Flow string // flow type to start; empty for digest rules
	Days []int
	Hour, Minute int

	// Digest marks the weekly advisory summary instead of a questionnaire.
	Digest bool
}

// AppliesTo reports whether the rule fires on the given program day.
func (r Rule) AppliesTo(day int) bool {
	if day < 1 {
		return false
	}
	if len(r.Days) == 0 {
		return true
	}
	for _, d := range r.Days {
		if d == day {
			return true
		}
	}
	return false
}

// DueAt reports whether the rule's send time matches the wall clock.
func (r Rule) DueAt(local time.Time) bool {
	return local.Hour() == r.Hour && local.Minute() == r.Minute
}

// Rules is the program calendar. The daily check-in repeats every day;
// the topic questionnaires fire on fixed days; the advisory digest goes
// out at the end of each program week. Every rule is suppressed by a
// submission of its flow on the participant's current local day.
func Rules() []Rule {
	return []Rule{
		{Name: "daily_reminder", Flow: flows.TypeDailyCheckin, Hour: 10},
		{Name: "onboarding", Flow: flows.TypeOnboarding, Days: []int{1}, Hour: 10},
		{Name: "health", Flow: flows.TypeHealthStatus, Days: []int{4}, Hour: 19},
		{Name: "nutrition", Flow: flows.TypeNutrition, Days: []int{5, 8}, Hour: 19},
		{Name: "body", Flow: flows.TypeBodyMeasurements, Days: []int{10}, Hour: 18, Minute: 30},
		{Name: "supplements", Flow: flows.TypeSupplements, Days: []int{11}, Hour: 19},
		{Name: "mindfulness", Flow: flows.TypeMindfulness, Days: []int{14}, Hour: 18, Minute: 30},
		{Name: "safety", Flow: flows.TypeSafetySupport, Days: []int{16}, Hour: 19},
		{Name: "close_circle", Flow: flows.TypeCloseCircle, Days: []int{18}, Hour: 19},
		{Name: "weekly_digest", Days: []int{7, 14, 21, 28}, Hour: 21, Digest: true},
	}
}
