package med_extractor

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/turtacn/MedRemind/pkg/types/medication"
)

func entityKinds(entities []medication.RawEntity) []string {
	out := make([]string, len(entities))
	for i, e := range entities {
		out[i] = string(e.Type) + "=" + e.CanonicalValue
	}
	return out
}

func TestRecognize_FullSentence(t *testing.T) {
	r := NewEntityRecognizer(nil)

	entities := r.Recognize("Take Metformin 500 mg twice a day with food")

	assert.Equal(t, []string{
		"medication=metformin",
		"dosageUnit=mg",
		"frequencyTerm=twice",
		"instructionTerm=with_food",
	}, entityKinds(entities))

	require.Len(t, entities, 4)
	assert.Equal(t, "Metformin", entities[0].SourceText)
	assert.Equal(t, medication.Span{Start: 5, End: 14}, entities[0].Span)
	assert.Equal(t, "twice a day", entities[2].SourceText)
}

func TestRecognize_LongestAliasWins(t *testing.T) {
	r := NewEntityRecognizer(nil)

	entities := r.Recognize("take lipitor in the morning and at night")

	assert.Equal(t, []string{
		"medication=lipitor",
		"timeOfDay=morning",
		"timeOfDay=night",
	}, entityKinds(entities))
	assert.Equal(t, "in the morning", entities[1].SourceText)
	assert.Equal(t, "at night", entities[2].SourceText)
}

func TestRecognize_CaseInsensitiveAliases(t *testing.T) {
	r := NewEntityRecognizer(nil)

	for _, text := range []string{"ATORVASTATIN daily", "Atorvastatin daily", "lipitor DAILY"} {
		entities := r.Recognize(text)
		require.Len(t, entities, 2, text)
		assert.Equal(t, "lipitor", entities[0].CanonicalValue, text)
		assert.Equal(t, "daily", entities[1].CanonicalValue, text)
	}
}

func TestRecognize_AbbreviationsNeedExactCase(t *testing.T) {
	r := NewEntityRecognizer(nil)

	assert.Empty(t, r.Recognize("I am fine"))

	entities := r.Recognize("one ASA in the AM")
	assert.Equal(t, []string{"medication=aspirin", "timeOfDay=morning"}, entityKinds(entities))
}

func TestRecognize_MeridiemAfterClockIsNotTimeOfDay(t *testing.T) {
	r := NewEntityRecognizer(nil)

	assert.Equal(t, []string{"medication=aspirin"}, entityKinds(r.Recognize("Take aspirin at 9 PM")))
	assert.Equal(t, []string{"medication=aspirin"}, entityKinds(r.Recognize("Take aspirin at 8:30 a.m.")))
	assert.Equal(t, []string{"medication=aspirin", "timeOfDay=evening"}, entityKinds(r.Recognize("Take aspirin in the p.m.")))
}

func TestRecognize_WordBoundaries(t *testing.T) {
	r := NewEntityRecognizer(nil)

	assert.Empty(t, r.Recognize("Glucophagex nightly mgmt"))
}

func TestRecognize_MultipleSameType(t *testing.T) {
	r := NewEntityRecognizer(nil)

	entities := r.Recognize("before breakfast and after dinner and at lunch")

	assert.Equal(t, []string{"mealTime=breakfast", "mealTime=dinner", "mealTime=lunch"}, entityKinds(entities))
}

func TestRecognize_EmptyAndUnmatched(t *testing.T) {
	r := NewEntityRecognizer(nil)

	empty := r.Recognize("   ")
	assert.NotNil(t, empty)
	assert.Empty(t, empty)

	none := r.Recognize("I feel fine today")
	assert.NotNil(t, none)
	assert.Empty(t, none)
}

func TestRecognize_NormalisesWhitespace(t *testing.T) {
	r := NewEntityRecognizer(nil)

	entities := r.Recognize("take  Crocin\n\ttwo   times a day")
	assert.Equal(t, []string{"medication=crocin", "frequencyTerm=twice"}, entityKinds(entities))
	assert.Equal(t, "two times a day", entities[1].SourceText)
}

func TestRecognize_SpansIndexInput(t *testing.T) {
	r := NewEntityRecognizer(nil)

	input := "Take  Lipitor\n\n10 mg"
	entities := r.Recognize(input)
	require.Equal(t, []string{"medication=lipitor", "dosageUnit=mg"}, entityKinds(entities))
	assert.Equal(t, medication.Span{Start: 6, End: 13}, entities[0].Span)
	assert.Equal(t, "Lipitor", input[entities[0].Span.Start:entities[0].Span.End])
	assert.Equal(t, "mg", input[entities[1].Span.Start:entities[1].Span.End])

	input = "\n  take  Crocin\n\ttwo   times a day  "
	entities = r.Recognize(input)
	require.Len(t, entities, 2)
	assert.Equal(t, "Crocin", input[entities[0].Span.Start:entities[0].Span.End])
	assert.Equal(t, "two   times a day", input[entities[1].Span.Start:entities[1].Span.End])
	assert.Equal(t, "two times a day", entities[1].SourceText)
}

func TestNormalise_Offsets(t *testing.T) {
	f := normalise("  a \t b  ")
	assert.Equal(t, "a b", f.text)
	assert.Equal(t, []int{2, 3, 6, 7}, f.offsets)

	composed := normalise("Cafe\u0301 daily")
	assert.Equal(t, "Caf\u00e9 daily", composed.text)
	sp := composed.original(medication.Span{Start: 6, End: 11})
	assert.Equal(t, "daily", "Cafe\u0301 daily"[sp.Start:sp.End])
}

func TestRecognize_Deterministic(t *testing.T) {
	r := NewEntityRecognizer(nil)
	text := "Take Lipitor 10 mg in the evening with water after dinner"
	assert.Equal(t, r.Recognize(text), r.Recognize(text))
}

//Personal.AI order the ending
