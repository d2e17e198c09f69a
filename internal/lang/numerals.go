package lang

import (
	"encoding/json"
	"fmt"
	"os"
	"regexp"
	"sort"
	"strconv"
	"strings"
)

// Table is the bidirectional numeral mapping between spoken words and
// digit strings, loaded once at startup and immutable afterwards.
//
// The zero/empty table is usable: every lookup simply misses, which
// degrades numeral parsing without failing the process.
type Table struct {
	wordToNum map[string]int
	numToWord map[string]string

	// words sorted longest-first so word->digit substitution is
	// deterministic when one numeral word contains another.
	wordsByLen []string
}

type numbersFile struct {
	HindiNumbers map[string]string `json:"hindi_numbers"`
}

// LoadTable reads the numeral table JSON ({"hindi_numbers": {"5": "पाँच", ...}}).
// A missing or unreadable file returns an empty table and the error for logging.
func LoadTable(path string) (*Table, error) {
	b, err := os.ReadFile(path)
	if err != nil {
		return NewTable(nil), fmt.Errorf("numeral table: %w", err)
	}
	var f numbersFile
	if err := json.Unmarshal(b, &f); err != nil {
		return NewTable(nil), fmt.Errorf("numeral table %s: %w", path, err)
	}
	return NewTable(f.HindiNumbers), nil
}

// NewTable builds a table from digit-string -> word pairs.
func NewTable(numbers map[string]string) *Table {
	t := &Table{
		wordToNum: make(map[string]int, len(numbers)),
		numToWord: make(map[string]string, len(numbers)),
	}
	for num, word := range numbers {
		n, err := strconv.Atoi(num)
		if err != nil {
			continue
		}
		t.numToWord[num] = word
		t.wordToNum[word] = n
		t.wordsByLen = append(t.wordsByLen, word)
	}
	sort.Slice(t.wordsByLen, func(i, j int) bool {
		if len(t.wordsByLen[i]) != len(t.wordsByLen[j]) {
			return len(t.wordsByLen[i]) > len(t.wordsByLen[j])
		}
		return t.wordsByLen[i] < t.wordsByLen[j]
	})
	return t
}

func (t *Table) Empty() bool { return len(t.wordToNum) == 0 }

func (t *Table) Len() int { return len(t.wordToNum) }

// Value resolves a spoken numeral word to its integer value.
func (t *Table) Value(word string) (int, bool) {
	n, ok := t.wordToNum[word]
	return n, ok
}

// Word resolves a digit string ("5", "2.5") to its spoken form, falling
// back to the digit string itself when unmapped.
func (t *Table) Word(num string) string {
	if w, ok := t.numToWord[num]; ok {
		return w
	}
	return num
}

// WordForInt is Word for plain integers.
func (t *Table) WordForInt(n int) string {
	return t.Word(strconv.Itoa(n))
}

// spellingRepairs canonicalizes common recognizer misspellings of numeral
// words before table lookup.
var spellingRepairs = [][2]string{
	{"इस", "ईस"},
	{"बिस", "बीस"},
	{"सतरह", "सत्रह"},
	{"अठाईस", "अट्ठाईस"},
	{"छे", "छः"},
	{"ट्ट", "ट्ठ"},
}

// CanonicalizeNumeral repairs recognizer spelling variants of a numeral word.
func CanonicalizeNumeral(word string) string {
	for _, r := range spellingRepairs {
		word = strings.ReplaceAll(word, r[0], r[1])
	}
	return word
}

var digitRun = regexp.MustCompile(`\d+`)

// ExtractInteger finds the first number in the text: a digit run anywhere
// wins, otherwise the first token present in the numeral table.
// The second return is false when neither matches.
func (t *Table) ExtractInteger(text string) (int, bool) {
	if m := digitRun.FindString(text); m != "" {
		n, err := strconv.Atoi(m)
		if err == nil {
			return n, true
		}
	}
	for _, word := range strings.Fields(text) {
		if n, ok := t.wordToNum[word]; ok {
			return n, true
		}
	}
	return 0, false
}

// ExtractAllNumbers scans tokens left to right and returns every number in
// the text. Digit tokens are emitted immediately. Numeral words accumulate:
// the scale words (value exactly 100 or 1000) multiply the running value,
// anything else adds to it, so "दो सौ तीन" becomes 203. A non-numeral token
// flushes a nonzero accumulator as a completed number.
func (t *Table) ExtractAllNumbers(text string) []int {
	var numbers []int
	current := 0

	for _, word := range strings.Fields(text) {
		if n, err := strconv.Atoi(word); err == nil {
			numbers = append(numbers, n)
			continue
		}
		if v, ok := t.wordToNum[word]; ok {
			switch v {
			case 100:
				current *= 100
			case 1000:
				current *= 1000
			default:
				current += v
			}
			continue
		}
		if current != 0 {
			numbers = append(numbers, current)
			current = 0
		}
	}
	if current != 0 {
		numbers = append(numbers, current)
	}
	return numbers
}

// hourMinute matches "<digits> बजे", "<digits> बजकर <digits>" and the
// connector variants in between.
var hourMinute = regexp.MustCompile(`(\d+)\s*बज[ेकर]*\s*(\d+)?`)

// ExtractHourMinute pulls an hour and optional minute (default 0) out of a
// time phrase. Numeral words are substituted with their digit forms first,
// longest word first so overlapping numerals resolve deterministically.
// hour is reported absent when no digit run precedes a time connector.
func (t *Table) ExtractHourMinute(text string) (hour int, minute int, ok bool) {
	for _, word := range t.wordsByLen {
		if n, found := t.wordToNum[word]; found {
			text = strings.ReplaceAll(text, word, strconv.Itoa(n))
		}
	}

	m := hourMinute.FindStringSubmatch(text)
	if m == nil {
		return 0, 0, false
	}
	hour, err := strconv.Atoi(m[1])
	if err != nil {
		return 0, 0, false
	}
	if m[2] != "" {
		minute, err = strconv.Atoi(m[2])
		if err != nil {
			return 0, 0, false
		}
	}
	return hour, minute, true
}
