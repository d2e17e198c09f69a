package lang

import (
	"strconv"
	"strings"
	"time"
)

// monthNames is the fixed 12-entry Hindi month table, January first.
var monthNames = []string{
	"जनवरी", "फरवरी", "मार्च", "अप्रैल", "मई", "जून",
	"जुलाई", "अगस्त", "सितंबर", "अक्टूबर", "नवंबर", "दिसंबर",
}

// weekdayNames is Monday-indexed (0..6); the week starts Monday.
var weekdayNames = []string{
	"सोमवार", "मंगलवार", "बुधवार", "गुरुवार", "शुक्रवार", "शनिवार", "रविवार",
}

// MonthName returns the Hindi name for a month (1..12).
func MonthName(m time.Month) string {
	if m < 1 || m > 12 {
		return strconv.Itoa(int(m))
	}
	return monthNames[m-1]
}

// WeekdayName returns the Hindi name for a Go weekday.
func WeekdayName(d time.Weekday) string {
	return weekdayNames[mondayIndex(d)]
}

// mondayIndex converts Go's Sunday-based weekday to Monday-based 0..6.
func mondayIndex(d time.Weekday) int {
	return (int(d) + 6) % 7
}

// CalendarDate is a parsed "<day> <month> [<year>]" expression.
type CalendarDate struct {
	Day       int
	Month     time.Month
	MonthName string
	Year      int
}

// ExtractCalendarDate parses a spoken calendar date. The first month name
// contained in the text anchors the parse; the token immediately before it
// is the day expression, resolved by exact numeral lookup, digit literal,
// or a 3-character-prefix fuzzy match against the numeral table. The year
// defaults to today's unless a standalone 4-digit token appears anywhere.
//
// ok is false when no month is found or no token precedes it. A day word
// that fails to resolve yields Day 0, and the date is not
// validity-checked either way; callers must reject impossible dates
// (e.g. 31 फरवरी, day 0) with a spoken response.
func (t *Table) ExtractCalendarDate(text string, today time.Time) (CalendarDate, bool) {
	var (
		month     time.Month
		monthName string
	)
	for i, name := range monthNames {
		if strings.Contains(text, name) {
			month = time.Month(i + 1)
			monthName = name
			break
		}
	}
	if month == 0 {
		return CalendarDate{}, false
	}

	words := strings.Fields(text)
	monthIdx := -1
	for i, w := range words {
		if w == monthName {
			monthIdx = i
			break
		}
	}
	if monthIdx <= 0 {
		return CalendarDate{}, false
	}

	dayWord := CanonicalizeNumeral(words[monthIdx-1])

	day := 0
	if v, ok := t.wordToNum[dayWord]; ok {
		day = v
	} else if isDigits(dayWord) {
		day, _ = strconv.Atoi(dayWord)
	} else {
		// Fuzzy match by the first three characters; first table hit wins.
		prefix := runePrefix(dayWord, 3)
		for _, word := range t.wordsByLen {
			if runePrefix(word, 3) == prefix {
				day = t.wordToNum[word]
				break
			}
		}
	}

	year := today.Year()
	for _, w := range words {
		if len(w) == 4 && isDigits(w) {
			year, _ = strconv.Atoi(w)
			break
		}
	}

	return CalendarDate{Day: day, Month: month, MonthName: monthName, Year: year}, true
}

// Direction classifies a relative-weekday phrase.
type Direction int

const (
	DirectionNone Direction = iota
	DirectionPrevious
	DirectionNext
	DirectionThis
)

var (
	previousWords = []string{"पिछला", "पिछले", "पिछली"}
	nextWords     = []string{"अगला", "अगले", "अगली"}
)

// RelativeWeekday is the parse + resolution of "अगले सोमवार" style phrases.
type RelativeWeekday struct {
	Direction Direction
	DayName   string
	Date      time.Time
}

// HasDirectionWord reports whether any relative-direction token is present.
func HasDirectionWord(text string) bool {
	words := strings.Fields(text)
	return containsAny(words, previousWords) || containsAny(words, nextWords) || containsToken(words, "इस")
}

// HasWeekdayName reports whether a weekday name occurs as a substring.
func HasWeekdayName(text string) bool {
	for _, name := range weekdayNames {
		if strings.Contains(text, name) {
			return true
		}
	}
	return false
}

// ResolveRelativeWeekday resolves {previous,next,this} + weekday to a date.
//
// Offsets: "next" is ((target - today + 7) mod 7), forced to 7 when 0, so
// "next <today's weekday>" is never today. "previous" mirrors that with -7.
// "this" is the plain in-week difference and may be negative, zero, or
// positive - "this" can name a day earlier in the current week.
func ResolveRelativeWeekday(text string, today time.Time) (RelativeWeekday, bool) {
	words := strings.Fields(text)

	direction := DirectionNone
	switch {
	case containsAny(words, previousWords):
		direction = DirectionPrevious
	case containsAny(words, nextWords):
		direction = DirectionNext
	case containsToken(words, "इस"):
		direction = DirectionThis
	}
	if direction == DirectionNone {
		return RelativeWeekday{}, false
	}

	target := -1
	targetName := ""
	for i, name := range weekdayNames {
		if strings.Contains(text, name) {
			target = i
			targetName = name
			break
		}
	}
	if target < 0 {
		return RelativeWeekday{}, false
	}

	todayIdx := mondayIndex(today.Weekday())
	var diff int
	switch direction {
	case DirectionNext:
		diff = (target - todayIdx + 7) % 7
		if diff == 0 {
			diff = 7
		}
	case DirectionPrevious:
		diff = -((todayIdx - target + 7) % 7)
		if diff == 0 {
			diff = -7
		}
	case DirectionThis:
		diff = target - todayIdx
	}

	return RelativeWeekday{
		Direction: direction,
		DayName:   targetName,
		Date:      today.AddDate(0, 0, diff),
	}, true
}

func isDigits(s string) bool {
	if s == "" {
		return false
	}
	for _, r := range s {
		if r < '0' || r > '9' {
			return false
		}
	}
	return true
}

func runePrefix(s string, n int) string {
	r := []rune(s)
	if len(r) > n {
		r = r[:n]
	}
	return string(r)
}

func containsAny(words, set []string) bool {
	for _, s := range set {
		if containsToken(words, s) {
			return true
		}
	}
	return false
}

func containsToken(words []string, tok string) bool {
	for _, w := range words {
		if w == tok {
			return true
		}
	}
	return false
}
