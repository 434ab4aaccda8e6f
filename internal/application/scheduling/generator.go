// internal/application/scheduling/generator.go
//
// Schedule generation: turns a structured medication's frequency text or
// explicit reminder times into the clock-times stored on its schedule.
//
// Dependencies:
//   Depends on: pkg/types/medication
//   Depended by: scheduling/creator, application/reminder, interfaces/cli

package scheduling

import (
	"fmt"
	"regexp"
	"strconv"
	"strings"

	"github.com/turtacn/MedRemind/pkg/types/medication"
)

// Inference clock values, 24-hour. These differ from the
// structurer's time-of-day table.
const (
	clockMorning   = "08:00"
	clockNoon      = "12:00"
	clockAfternoon = "16:00"
	clockEvening   = "20:00"
	clockBreakfast = "07:30"
	clockLunch     = "12:00"
	clockDinner    = "18:30"
	clockBedtime   = "22:00"

	intervalStartHour   = 8
	intervalEndHour     = 20
	defaultIntervalHour = 8
)

var everyNHoursRe = regexp.MustCompile(`every\s+(\d+)\s+hours?`)

// inferenceRule is one row of the frequency table. The first rule whose
// match returns true wins.
type inferenceRule struct {
	name  string
	match func(freq string) bool
	times func(freq string) []string
}

func containsAny(s string, subs ...string) bool {
	for _, sub := range subs {
		if strings.Contains(s, sub) {
			return true
		}
	}
	return false
}

func fixed(times ...string) func(string) []string {
	return func(string) []string {
		out := make([]string, len(times))
		copy(out, times)
		return out
	}
}

var frequencyRules = []inferenceRule{
	{
		name:  "daily",
		match: func(f string) bool { return containsAny(f, "once", "daily", "every day") },
		times: func(f string) []string {
			switch {
			case containsAny(f, "morning", "a.m.", "am"):
				return []string{clockMorning}
			case containsAny(f, "evening", "night", "p.m.", "pm"):
				return []string{clockEvening}
			}
			return []string{clockMorning}
		},
	},
	{
		name:  "twice",
		match: func(f string) bool { return containsAny(f, "twice", "two times", "2 times") },
		times: fixed(clockMorning, clockEvening),
	},
	{
		name:  "three_times",
		match: func(f string) bool { return containsAny(f, "three times", "3 times") },
		times: fixed(clockMorning, clockNoon, clockEvening),
	},
	{
		name:  "four_times",
		match: func(f string) bool { return containsAny(f, "four times", "4 times") },
		times: fixed(clockMorning, clockNoon, clockAfternoon, clockEvening),
	},
	{
		name:  "interval",
		match: func(f string) bool { return strings.Contains(f, "every") && containsAny(f, "hour", "hrs") },
		times: intervalTimes,
	},
	{name: "breakfast", match: func(f string) bool { return strings.Contains(f, "breakfast") }, times: fixed(clockBreakfast)},
	{name: "lunch", match: func(f string) bool { return strings.Contains(f, "lunch") }, times: fixed(clockLunch)},
	{name: "dinner", match: func(f string) bool { return strings.Contains(f, "dinner") }, times: fixed(clockDinner)},
	{name: "bedtime", match: func(f string) bool { return strings.Contains(f, "bedtime") }, times: fixed(clockBedtime)},
}

func intervalTimes(freq string) []string {
	step := defaultIntervalHour
	if m := everyNHoursRe.FindStringSubmatch(freq); m != nil {
		if n, err := strconv.Atoi(m[1]); err == nil && n > 0 {
			step = n
		}
	}
	var out []string
	for h := intervalStartHour; h <= intervalEndHour; h += step {
		out = append(out, fmt.Sprintf("%02d:00", h))
	}
	return out
}

// Generator converts structured medications into reminder clock-times.
type Generator struct{}

// NewGenerator returns a Generator. It holds no state and is safe for
// concurrent use.
func NewGenerator() *Generator { return &Generator{} }

// Generate returns med.ReminderTimes verbatim when present, otherwise the
// times inferred from med.Frequency.
func (g *Generator) Generate(med medication.StructuredMedication) []string {
	if len(med.ReminderTimes) > 0 {
		out := make([]string, len(med.ReminderTimes))
		copy(out, med.ReminderTimes)
		return out
	}
	return g.InferFromFrequency(med.Frequency)
}

// InferFromFrequency applies the frequency table. An empty frequency yields
// no times; an unmatched one yields the morning default.
func (g *Generator) InferFromFrequency(frequency string) []string {
	_, times := g.match(frequency)
	return times
}

// Rule names the table row that frequency matches, "default" when none
// does and "" for an empty frequency.
func (g *Generator) Rule(frequency string) string {
	name, _ := g.match(frequency)
	return name
}

func (g *Generator) match(frequency string) (string, []string) {
	if strings.TrimSpace(frequency) == "" {
		return "", []string{}
	}
	f := strings.ToLower(frequency)
	for _, r := range frequencyRules {
		if r.match(f) {
			return r.name, r.times(f)
		}
	}
	return "default", []string{clockMorning}
}

//Personal.AI order the ending
