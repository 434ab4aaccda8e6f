package med_extractor

import (
	"fmt"
	"os"
	"sort"
	"strings"
	"unicode"

	"gopkg.in/yaml.v3"

	"github.com/turtacn/MedRemind/pkg/errors"
	"github.com/turtacn/MedRemind/pkg/types/medication"
)

// ---------------------------------------------------------------------------
// Vocabulary entries
// ---------------------------------------------------------------------------

// VocabularyEntry is one canonical value of an entity type and the surface
// forms that denote it. Aliases[0] is the display form.
type VocabularyEntry struct {
	Type      medication.EntityType `yaml:"type" json:"type"`
	Canonical string                `yaml:"canonical" json:"canonical"`
	Aliases   []string              `yaml:"aliases" json:"aliases"`
}

// Display returns the human-facing form of the entry.
func (e VocabularyEntry) Display() string {
	if len(e.Aliases) > 0 {
		return e.Aliases[0]
	}
	return e.Canonical
}

// DefaultEntries is the built-in named-entity table.
var DefaultEntries = []VocabularyEntry{
	{medication.EntityMedication, "aspirin", []string{"Aspirin", "ASA"}},
	{medication.EntityMedication, "lipitor", []string{"Lipitor", "atorvastatin"}},
	{medication.EntityMedication, "metformin", []string{"Metformin", "Glucophage"}},
	{medication.EntityMedication, "crocin", []string{"Crocin", "Paracetamol"}},

	{medication.EntityDosageUnit, "pill", []string{"pill", "pills", "tablet", "tablets", "capsule", "capsules"}},
	{medication.EntityDosageUnit, "mg", []string{"mg", "milligram", "milligrams"}},
	{medication.EntityDosageUnit, "ml", []string{"ml", "milliliter", "milliliters"}},

	{medication.EntityTimeOfDay, "morning", []string{"morning", "AM", "a.m.", "in the morning"}},
	{medication.EntityTimeOfDay, "noon", []string{"noon", "midday"}},
	{medication.EntityTimeOfDay, "afternoon", []string{"afternoon"}},
	{medication.EntityTimeOfDay, "evening", []string{"evening", "PM", "p.m.", "in the evening"}},
	{medication.EntityTimeOfDay, "night", []string{"night", "bedtime", "at night"}},

	{medication.EntityMealTime, "breakfast", []string{"breakfast", "before breakfast", "after breakfast"}},
	{medication.EntityMealTime, "lunch", []string{"lunch", "before lunch", "after lunch"}},
	{medication.EntityMealTime, "dinner", []string{"dinner", "before dinner", "after dinner"}},

	{medication.EntityFrequency, "daily", []string{"daily", "every day", "once a day"}},
	{medication.EntityFrequency, "twice", []string{"twice a day", "two times a day"}},
	{medication.EntityFrequency, "thrice", []string{"thrice a day", "three times a day"}},

	{medication.EntityInstruction, "with_water", []string{"with water", "glass of water"}},
	{medication.EntityInstruction, "with_food", []string{"with food", "with meals"}},
	{medication.EntityInstruction, "empty_stomach", []string{"empty stomach", "before food", "before meals"}},
}

// ---------------------------------------------------------------------------
// Vocabulary
// ---------------------------------------------------------------------------

// alias is a compiled surface form.
type alias struct {
	entry *VocabularyEntry
	text  string
	lower string
	// exactCase is set for short all-caps abbreviations ("AM", "ASA") so that
	// ordinary words ("I am") are not read as entities.
	exactCase bool
	// meridiem marks AM/PM style aliases; they are skipped when they directly
	// follow a clock number because the clock time owns them.
	meridiem bool
}

// Vocabulary is an immutable alias index. It is safe for concurrent use.
type Vocabulary struct {
	entries []VocabularyEntry
	byType  map[medication.EntityType][]alias
	byKey   map[string]*VocabularyEntry
}

// NewVocabulary compiles entries into a Vocabulary. Entries are copied.
func NewVocabulary(entries []VocabularyEntry) (*Vocabulary, error) {
	v := &Vocabulary{
		entries: make([]VocabularyEntry, 0, len(entries)),
		byType:  make(map[medication.EntityType][]alias),
		byKey:   make(map[string]*VocabularyEntry),
	}
	seen := make(map[string]bool, len(entries))
	known := make(map[medication.EntityType]bool, len(medication.EntityTypes))
	for _, t := range medication.EntityTypes {
		known[t] = true
	}

	for _, e := range entries {
		if !known[e.Type] {
			return nil, errors.New(errors.ErrCodeVocabularyInvalid, "unknown entity type").WithDetail(string(e.Type))
		}
		if strings.TrimSpace(e.Canonical) == "" {
			return nil, errors.New(errors.ErrCodeVocabularyInvalid, "entry canonical value is empty")
		}
		if len(e.Aliases) == 0 {
			return nil, errors.New(errors.ErrCodeVocabularyInvalid, "entry has no aliases").WithDetail(e.Canonical)
		}
		key := entryKey(e.Type, e.Canonical)
		if seen[key] {
			return nil, errors.New(errors.ErrCodeVocabularyInvalid, "duplicate entry").WithDetail(key)
		}
		seen[key] = true
		v.entries = append(v.entries, VocabularyEntry{
			Type:      e.Type,
			Canonical: e.Canonical,
			Aliases:   append([]string(nil), e.Aliases...),
		})
	}

	for i := range v.entries {
		e := &v.entries[i]
		v.byKey[entryKey(e.Type, e.Canonical)] = e
		for _, a := range e.Aliases {
			a = strings.TrimSpace(a)
			if a == "" {
				continue
			}
			v.byType[e.Type] = append(v.byType[e.Type], alias{
				entry:     e,
				text:      a,
				lower:     strings.ToLower(a),
				exactCase: isAbbreviation(a),
				meridiem:  e.Type == medication.EntityTimeOfDay && isMeridiem(a),
			})
		}
	}

	// Longest alias first so "in the morning" wins over "morning".
	for t := range v.byType {
		aliases := v.byType[t]
		sort.SliceStable(aliases, func(i, j int) bool {
			return len(aliases[i].lower) > len(aliases[j].lower)
		})
	}
	return v, nil
}

// MustDefaultVocabulary compiles DefaultEntries and panics on error.
func MustDefaultVocabulary() *Vocabulary {
	v, err := NewVocabulary(DefaultEntries)
	if err != nil {
		panic(fmt.Sprintf("med_extractor: default vocabulary: %v", err))
	}
	return v
}

// vocabularyFile is the on-disk shape accepted by LoadVocabularyFile.
type vocabularyFile struct {
	// Replace drops the built-in table instead of extending it.
	Replace bool              `yaml:"replace"`
	Entries []VocabularyEntry `yaml:"entries"`
}

// LoadVocabularyFile reads a YAML entity table. Entries extend DefaultEntries
// unless the file sets replace: true. Aliases for an existing canonical value
// are merged into that entry.
func LoadVocabularyFile(path string) (*Vocabulary, error) {
	raw, err := os.ReadFile(path)
	if err != nil {
		return nil, errors.Wrap(err, errors.ErrCodeVocabularyInvalid, "read vocabulary file")
	}
	var f vocabularyFile
	if err := yaml.Unmarshal(raw, &f); err != nil {
		return nil, errors.Wrap(err, errors.ErrCodeVocabularyInvalid, "parse vocabulary file")
	}
	if f.Replace {
		return NewVocabulary(f.Entries)
	}
	return NewVocabulary(MergeEntries(DefaultEntries, f.Entries))
}

// MergeEntries appends extra to base, folding aliases of an already-present
// (type, canonical) pair into the existing entry.
func MergeEntries(base, extra []VocabularyEntry) []VocabularyEntry {
	out := make([]VocabularyEntry, 0, len(base)+len(extra))
	index := make(map[string]int, len(base)+len(extra))
	for _, e := range append(append([]VocabularyEntry(nil), base...), extra...) {
		key := entryKey(e.Type, e.Canonical)
		if i, ok := index[key]; ok {
			out[i].Aliases = appendUnique(out[i].Aliases, e.Aliases...)
			continue
		}
		index[key] = len(out)
		out = append(out, VocabularyEntry{Type: e.Type, Canonical: e.Canonical, Aliases: append([]string(nil), e.Aliases...)})
	}
	return out
}

// Entry returns the entry for (t, canonical).
func (v *Vocabulary) Entry(t medication.EntityType, canonical string) (VocabularyEntry, bool) {
	e, ok := v.byKey[entryKey(t, canonical)]
	if !ok {
		return VocabularyEntry{}, false
	}
	return *e, true
}

// Entries returns a copy of every entry of type t in declaration order.
func (v *Vocabulary) Entries(t medication.EntityType) []VocabularyEntry {
	var out []VocabularyEntry
	for _, e := range v.entries {
		if e.Type == t {
			out = append(out, VocabularyEntry{Type: e.Type, Canonical: e.Canonical, Aliases: append([]string(nil), e.Aliases...)})
		}
	}
	return out
}

// AliasesFor returns the aliases of type t, longest first. Used by the
// fallback matcher to build its unit pattern.
func (v *Vocabulary) AliasesFor(t medication.EntityType) []string {
	out := make([]string, 0, len(v.byType[t]))
	for _, a := range v.byType[t] {
		out = append(out, a.text)
	}
	return out
}

// Size is the number of entries.
func (v *Vocabulary) Size() int { return len(v.entries) }

func entryKey(t medication.EntityType, canonical string) string {
	return string(t) + ":" + strings.ToLower(strings.TrimSpace(canonical))
}

func isAbbreviation(s string) bool {
	if len(s) > 3 {
		return false
	}
	for _, r := range s {
		if !unicode.IsUpper(r) {
			return false
		}
	}
	return true
}

func isMeridiem(s string) bool {
	switch strings.ToLower(s) {
	case "am", "pm", "a.m.", "p.m.":
		return true
	}
	return false
}

func appendUnique(dst []string, src ...string) []string {
	seen := make(map[string]bool, len(dst))
	for _, s := range dst {
		seen[strings.ToLower(s)] = true
	}
	for _, s := range src {
		if !seen[strings.ToLower(s)] {
			seen[strings.ToLower(s)] = true
			dst = append(dst, s)
		}
	}
	return dst
}

//Personal.AI order the ending
