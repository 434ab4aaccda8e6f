package med_extractor

import (
	"sort"
	"strings"
	"unicode"
	"unicode/utf8"

	"golang.org/x/text/unicode/norm"

	"github.com/turtacn/MedRemind/pkg/types/medication"
)

// EntityRecognizer finds vocabulary mentions in free text.
type EntityRecognizer interface {
	// Recognize returns every match ordered by position. Unmatched text yields
	// an empty, non-nil slice. Spans index text as given; SourceText has its
	// whitespace folded.
	Recognize(text string) []medication.RawEntity
}

type recognizerImpl struct {
	vocab *Vocabulary
}

// NewEntityRecognizer returns a recognizer over vocab. A nil vocab uses the
// built-in table.
func NewEntityRecognizer(vocab *Vocabulary) EntityRecognizer {
	if vocab == nil {
		vocab = MustDefaultVocabulary()
	}
	return &recognizerImpl{vocab: vocab}
}

func (r *recognizerImpl) Recognize(text string) []medication.RawEntity {
	out := []medication.RawEntity{}
	if strings.TrimSpace(text) == "" {
		return out
	}
	folded := normalise(text)
	text = folded.text
	lower := strings.ToLower(text)
	// ToLower can change byte lengths for some scripts; spans must index text.
	sameWidth := len(lower) == len(text)

	for _, t := range medication.EntityTypes {
		var consumed []medication.Span
		for _, a := range r.vocab.byType[t] {
			var spans []medication.Span
			switch {
			case a.exactCase:
				spans = indexAll(text, a.text)
			case sameWidth:
				spans = indexAll(lower, a.lower)
			default:
				spans = foldSearch(text, a.text)
			}
			for _, sp := range spans {
				if r.accept(text, sp, a, consumed) {
					consumed = append(consumed, sp)
					out = append(out, newEntity(t, a, text, sp, folded.original(sp)))
				}
			}
		}
	}

	sort.SliceStable(out, func(i, j int) bool {
		if out[i].Span.Start != out[j].Span.Start {
			return out[i].Span.Start < out[j].Span.Start
		}
		return typeRank(out[i].Type) < typeRank(out[j].Type)
	})
	return out
}

func (r *recognizerImpl) accept(text string, sp medication.Span, a alias, consumed []medication.Span) bool {
	if !isBoundary(text, sp) {
		return false
	}
	for _, c := range consumed {
		if sp.Start < c.End && c.Start < sp.End {
			return false
		}
	}
	if a.meridiem && followsClockNumber(text, sp.Start) {
		return false
	}
	return true
}

// newEntity takes SourceText from the folded text and the span from the
// caller's input.
func newEntity(t medication.EntityType, a alias, text string, sp, orig medication.Span) medication.RawEntity {
	return medication.RawEntity{
		Type:           t,
		CanonicalValue: a.entry.Canonical,
		SourceText:     text[sp.Start:sp.End],
		Span:           orig,
	}
}

// isBoundary reports whether the span is not glued to a letter or digit on
// either side.
func isBoundary(text string, sp medication.Span) bool {
	if sp.Start > 0 {
		prev, _ := utf8.DecodeLastRuneInString(text[:sp.Start])
		if isWordRune(prev) {
			return false
		}
	}
	if sp.End < len(text) {
		next, _ := utf8.DecodeRuneInString(text[sp.End:])
		if isWordRune(next) {
			return false
		}
	}
	return true
}

// followsClockNumber reports whether text just before pos is a clock number
// such as "8", "8 " or "8:30 ".
func followsClockNumber(text string, pos int) bool {
	i := pos
	for i > 0 && text[i-1] == ' ' {
		i--
	}
	return i > 0 && text[i-1] >= '0' && text[i-1] <= '9'
}

func isWordRune(r rune) bool {
	return unicode.IsLetter(r) || unicode.IsDigit(r)
}

// indexAll returns every (possibly overlapping) span of needle in haystack.
func indexAll(haystack, needle string) []medication.Span {
	var spans []medication.Span
	for from := 0; from <= len(haystack)-len(needle); {
		idx := strings.Index(haystack[from:], needle)
		if idx < 0 {
			break
		}
		start := from + idx
		spans = append(spans, medication.Span{Start: start, End: start + len(needle)})
		from = start + 1
	}
	return spans
}

// foldSearch returns every span of text equal to needle under Unicode case
// folding.
func foldSearch(text, needle string) []medication.Span {
	var spans []medication.Span
	n := utf8.RuneCountInString(needle)
	for start := 0; start < len(text); {
		end, count := start, 0
		for end < len(text) && count < n {
			_, size := utf8.DecodeRuneInString(text[end:])
			end += size
			count++
		}
		if count == n && strings.EqualFold(text[start:end], needle) {
			spans = append(spans, medication.Span{Start: start, End: end})
		}
		_, size := utf8.DecodeRuneInString(text[start:])
		start += size
	}
	return spans
}

func typeRank(t medication.EntityType) int {
	for i, et := range medication.EntityTypes {
		if et == t {
			return i
		}
	}
	return len(medication.EntityTypes)
}

// foldedText is text after NFC and whitespace folding. offsets[i] is the
// byte offset in the original input of folded byte i; offsets[len(text)] is
// the end of the last kept rune.
type foldedText struct {
	text    string
	offsets []int
}

// original maps a span of the folded text back onto the input.
func (f foldedText) original(sp medication.Span) medication.Span {
	return medication.Span{Start: f.offsets[sp.Start], End: f.offsets[sp.End]}
}

// normalise applies NFC, collapses whitespace runs to single spaces and trims
// both ends, recording where every kept byte came from.
func normalise(input string) foldedText {
	var b strings.Builder
	b.Grow(len(input))
	offsets := make([]int, 0, len(input)+1)
	pendingSpace := -1
	end := 0

	var it norm.Iter
	it.InitString(norm.NFC, input)
	for !it.Done() {
		segStart := it.Pos()
		seg := it.Next()
		segEnd := it.Pos()
		unchanged := string(seg) == input[segStart:segEnd]

		for i := 0; i < len(seg); {
			r, size := utf8.DecodeRune(seg[i:])
			orig, origEnd := segStart, segEnd
			if unchanged {
				orig, origEnd = segStart+i, segStart+i+size
			}
			i += size

			if unicode.IsSpace(r) {
				if b.Len() > 0 && pendingSpace < 0 {
					pendingSpace = orig
				}
				continue
			}
			if pendingSpace >= 0 {
				b.WriteByte(' ')
				offsets = append(offsets, pendingSpace)
				pendingSpace = -1
			}
			b.WriteRune(r)
			for k := 0; k < utf8.RuneLen(r); k++ {
				offsets = append(offsets, orig)
			}
			end = origEnd
		}
	}
	offsets = append(offsets, end)
	return foldedText{text: b.String(), offsets: offsets}
}

// normaliseText is normalise without the offset table.
func normaliseText(text string) string {
	return normalise(text).text
}

//Personal.AI order the ending
