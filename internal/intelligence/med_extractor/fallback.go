package med_extractor

import (
	"regexp"
	"sort"
	"strings"

	"github.com/turtacn/MedRemind/pkg/types/medication"
)

// FallbackMatcher supplies slot values from fixed patterns. Each method
// returns "" (or nil) when its pattern does not match.
type FallbackMatcher interface {
	MedicationName(text string) string
	DosageNumber(text string) string
	Frequency(text string) string
	Instruction(text string) string
	ClockTimes(text string) (times []string, phrases []string)
}

type fallbackMatcherImpl struct {
	nameRe        *regexp.Regexp
	numberRe      *regexp.Regexp
	frequencyRe   *regexp.Regexp
	instructionRe *regexp.Regexp
	clockRe       *regexp.Regexp
	numericWordRe *regexp.Regexp
}

// NewFallbackMatcher builds the pattern set. The medication-name pattern stops
// at any dosage-unit alias of vocab (nil means the built-in table).
func NewFallbackMatcher(vocab *Vocabulary) FallbackMatcher {
	if vocab == nil {
		vocab = MustDefaultVocabulary()
	}
	units := vocab.AliasesFor(medication.EntityDosageUnit)
	if len(units) == 0 {
		units = []string{"pill", "tablet", "mg"}
	}
	quoted := make([]string, len(units))
	for i, u := range units {
		quoted[i] = regexp.QuoteMeta(u)
	}
	// Longest first so "tablets" is preferred over "tablet".
	sort.SliceStable(quoted, func(i, j int) bool { return len(quoted[i]) > len(quoted[j]) })

	return &fallbackMatcherImpl{
		nameRe:        regexp.MustCompile(`(?i)\btake\s+([A-Za-z0-9\s\-]+?)\s+(?:` + strings.Join(quoted, "|") + `)\b`),
		numberRe:      regexp.MustCompile(`\b(\d+(?:\.\d+)?)\b`),
		frequencyRe:   regexp.MustCompile(`(?i)(daily|once a day|twice a day|\d+ times? a day|every \d+ hours?)`),
		instructionRe: regexp.MustCompile(`(?i)(with water|with food|empty stomach)`),
		clockRe:       regexp.MustCompile(`(?i)\b((?:1[0-2]|0?[1-9])(?::[0-5]\d)?\s*(?:am|pm))\b`),
		numericWordRe: regexp.MustCompile(`^[\d.\-]+$`),
	}
}

// MedicationName returns the words between "take" and a dosage-unit word.
// Leading and trailing purely numeric tokens ("Take Foo 500 mg") are dropped;
// a name made only of numbers is no name.
func (f *fallbackMatcherImpl) MedicationName(text string) string {
	m := f.nameRe.FindStringSubmatch(text)
	if m == nil {
		return ""
	}
	words := strings.Fields(m[1])
	for len(words) > 0 && f.numericWordRe.MatchString(words[len(words)-1]) {
		words = words[:len(words)-1]
	}
	for len(words) > 0 && f.numericWordRe.MatchString(words[0]) {
		words = words[1:]
	}
	return strings.Join(words, " ")
}

// DosageNumber returns the first bare integer or decimal token.
func (f *fallbackMatcherImpl) DosageNumber(text string) string {
	m := f.numberRe.FindStringSubmatch(text)
	if m == nil {
		return ""
	}
	return m[1]
}

// Frequency returns the first frequency phrase, lower-cased.
func (f *fallbackMatcherImpl) Frequency(text string) string {
	return strings.ToLower(f.frequencyRe.FindString(text))
}

// Instruction returns the first instruction phrase verbatim.
func (f *fallbackMatcherImpl) Instruction(text string) string {
	return f.instructionRe.FindString(text)
}

// ClockTimes returns every explicit 12-hour clock time upper-cased, in text
// order, without duplicates, along with the phrase each time was read from.
// Hours outside 1-12 and minutes above 59 are not clock times.
func (f *fallbackMatcherImpl) ClockTimes(text string) ([]string, []string) {
	matches := f.clockRe.FindAllStringSubmatch(text, -1)
	if len(matches) == 0 {
		return nil, nil
	}
	seen := make(map[string]bool, len(matches))
	times := make([]string, 0, len(matches))
	phrases := make([]string, 0, len(matches))
	for _, m := range matches {
		t := strings.ToUpper(m[1])
		if seen[t] {
			continue
		}
		seen[t] = true
		times = append(times, t)
		phrases = append(phrases, m[1])
	}
	return times, phrases
}

//Personal.AI order the ending
