package lang

import (
	"errors"
	"regexp"
	"strconv"
	"strings"
)

// Op is an arithmetic operator detected in an utterance.
type Op int

const (
	OpNone Op = iota
	OpAdd
	OpSubtract
	OpMultiply
	OpDivide
)

// operatorWords maps each operator to its spoken keyword set. Detection
// checks the sets in this fixed priority order; the first set with a
// keyword contained in the text wins.
var operatorWords = []struct {
	op    Op
	words []string
}{
	{OpAdd, []string{"जोड़", "प्लस", "और"}},
	{OpSubtract, []string{"घटा", "माइनस"}},
	{OpMultiply, []string{"गुणा", "इंटू", "गुना"}},
	{OpDivide, []string{"भाग", "डिवाइड"}},
}

// DetectOperator finds the arithmetic operator keyword in the text.
func DetectOperator(text string) Op {
	for _, set := range operatorWords {
		for _, w := range set.words {
			if strings.Contains(text, w) {
				return set.op
			}
		}
	}
	return OpNone
}

var (
	// ErrNotArithmetic marks text that is not a computable expression
	// (fewer than two numbers, or no operator keyword).
	ErrNotArithmetic = errors.New("not an arithmetic expression")
	// ErrDivideByZero is the spoken-domain-error case: the utterance was an
	// arithmetic command, but division by zero has no numeric answer.
	ErrDivideByZero = errors.New("divide by zero")
)

// Compute evaluates the arithmetic expression in the text using the first
// two extracted numbers (extras are ignored) and returns the rendered
// result: integral values as plain integers, fractional values as their
// literal decimal string.
func (t *Table) Compute(text string) (string, error) {
	numbers := t.ExtractAllNumbers(text)
	if len(numbers) < 2 {
		return "", ErrNotArithmetic
	}
	a, b := numbers[0], numbers[1]

	switch DetectOperator(text) {
	case OpAdd:
		return strconv.Itoa(a + b), nil
	case OpSubtract:
		return strconv.Itoa(a - b), nil
	case OpMultiply:
		return strconv.Itoa(a * b), nil
	case OpDivide:
		if b == 0 {
			return "", ErrDivideByZero
		}
		v := float64(a) / float64(b)
		if v == float64(int64(v)) {
			return strconv.FormatInt(int64(v), 10), nil
		}
		return strconv.FormatFloat(v, 'g', -1, 64), nil
	default:
		return "", ErrNotArithmetic
	}
}

// tableKeywords trigger the multiplication-table intent; they include the
// recognizer's common mishearings of "पहाड़ा".
var tableKeywords = []string{"टेबल", "पढ़ा", "पाड़ा", "पारा"}

var tableSubject = regexp.MustCompile(`(.+?) का`)

// TableRequest parses "<number> का टेबल" style utterances and returns the
// requested number. ok is false when no table keyword is present or the
// subject word is not a resolvable number.
func (t *Table) TableRequest(text string) (int, bool) {
	hasKeyword := false
	for _, k := range tableKeywords {
		if strings.Contains(text, k) {
			hasKeyword = true
			break
		}
	}
	if !hasKeyword {
		return 0, false
	}

	m := tableSubject.FindStringSubmatch(text)
	if m == nil {
		return 0, false
	}
	word := strings.TrimSpace(m[1])

	if n, ok := t.wordToNum[word]; ok {
		return n, true
	}
	if isDigits(word) {
		n, _ := strconv.Atoi(word)
		return n, true
	}
	return 0, false
}
