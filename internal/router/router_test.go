package router

import (
	"context"
	"strings"
	"sync"
	"testing"
	"time"

	"veer/internal/lang"
	"veer/internal/light"
	"veer/internal/player"
	"veer/internal/sched"
	"veer/pkg/logx"
)

type scriptedSpeaker struct {
	mu    sync.Mutex
	lines []string
}

func (s *scriptedSpeaker) Speak(text string) {
	s.mu.Lock()
	s.lines = append(s.lines, text)
	s.mu.Unlock()
}

func (s *scriptedSpeaker) spoken() []string {
	s.mu.Lock()
	defer s.mu.Unlock()
	return append([]string(nil), s.lines...)
}

func (s *scriptedSpeaker) last() string {
	lines := s.spoken()
	if len(lines) == 0 {
		return ""
	}
	return lines[len(lines)-1]
}

func testNumbers() *lang.Table {
	return lang.NewTable(map[string]string{
		"1": "एक", "2": "दो", "3": "तीन", "4": "चार", "5": "पाँच",
		"6": "छः", "7": "सात", "8": "आठ", "9": "नौ", "10": "दस",
		"12": "बारह", "14": "चौदह", "16": "सोलह", "18": "अठारह",
		"20": "बीस", "100": "सौ",
	})
}

// newTestRouter wires a router against a live scheduler, a disabled
// light and a player pointed at a nonexistent directory. 2025-01-01 is
// a Wednesday; the clock is pinned there at 10:30.
func newTestRouter(t *testing.T) (*Router, *scriptedSpeaker) {
	t.Helper()
	sp := &scriptedSpeaker{}

	sc := sched.New(sp, nil, logx.Nop())
	ctx, cancel := context.WithCancel(context.Background())
	t.Cleanup(func() {
		cancel()
		stopCtx, stopCancel := context.WithTimeout(context.Background(), time.Second)
		defer stopCancel()
		sc.Stop(stopCtx)
	})
	sc.Start(ctx)

	ind, err := light.New(17, false, logx.Nop())
	if err != nil {
		t.Fatalf("light: %v", err)
	}

	r := New(Deps{
		Log:     logx.Nop(),
		Speak:   sp,
		Numbers: testNumbers(),
		Sched:   sc,
		Player:  player.New(t.TempDir()+"/missing", sp, logx.Nop()),
		Light:   ind,
		Now: func() time.Time {
			return time.Date(2025, time.January, 1, 10, 30, 0, 0, time.Local)
		},
	})
	return r, sp
}

func TestEmptyTextIsNoCommand(t *testing.T) {
	t.Parallel()
	r, sp := newTestRouter(t)

	if got := r.Route(context.Background(), "   "); got != "" {
		t.Fatalf("rule = %q, want none", got)
	}
	if len(sp.spoken()) != 0 {
		t.Fatalf("spoke %v for empty input", sp.spoken())
	}
}

func TestFallback(t *testing.T) {
	t.Parallel()
	r, sp := newTestRouter(t)

	if got := r.Route(context.Background(), "मौसम कैसा है"); got != "fallback" {
		t.Fatalf("rule = %q", got)
	}
	if got := sp.last(); got != "क्षमा करें, मैं इसमें आपकी सहायता नहीं कर सकता" {
		t.Fatalf("spoke %q", got)
	}
}

func TestTimerEndToEnd(t *testing.T) {
	t.Parallel()
	r, sp := newTestRouter(t)
	ctx := context.Background()

	if got := r.Route(ctx, "पाँच मिनट का टाइमर लगाओ"); got != "timer" {
		t.Fatalf("rule = %q", got)
	}
	if got := sp.last(); got != "5 मिनट का टाइमर शुरू किया" {
		t.Fatalf("spoke %q", got)
	}

	// A second timer is refused while the first is active.
	if got := r.Route(ctx, "दो मिनट का टाइमर लगाओ"); got != "timer" {
		t.Fatalf("rule = %q", got)
	}
	if got := sp.last(); got != "टाइमर पहले से चल रहा है" {
		t.Fatalf("spoke %q", got)
	}

	// No resolvable duration: clarifying question instead.
	r.Route(ctx, "टाइमर लगाओ")
	if got := sp.last(); got != "कितने मिनट का टाइमर लगाना है?" {
		t.Fatalf("spoke %q", got)
	}
}

func TestAlarmLifecycle(t *testing.T) {
	t.Parallel()
	r, sp := newTestRouter(t)
	ctx := context.Background()

	// Stop with nothing set.
	if got := r.Route(ctx, "अलार्म बंद करो"); got != "alarm_off" {
		t.Fatalf("rule = %q", got)
	}
	if got := sp.last(); got != "कोई अलार्म चालू नहीं है" {
		t.Fatalf("spoke %q", got)
	}

	if got := r.Route(ctx, "आठ बजे का अलार्म लगाओ"); got != "alarm_set" {
		t.Fatalf("rule = %q", got)
	}
	if got := sp.last(); got != "8 बजकर 0 मिनट का अलार्म लगा दिया गया है" {
		t.Fatalf("spoke %q", got)
	}

	r.Route(ctx, "सात बजे का अलार्म लगाओ")
	if got := sp.last(); got != "अलार्म पहले से सेट है" {
		t.Fatalf("spoke %q", got)
	}

	// "बंद करो" is also the song-stop trigger; the alarm vocabulary
	// must win by rule order.
	if got := r.Route(ctx, "अलार्म बंद करो"); got != "alarm_off" {
		t.Fatalf("rule = %q", got)
	}
	if got := sp.last(); got != "अलार्म बंद कर दिया गया है" {
		t.Fatalf("spoke %q", got)
	}
}

func TestAlarmWithoutHourAsks(t *testing.T) {
	t.Parallel()
	r, sp := newTestRouter(t)

	if got := r.Route(context.Background(), "अलार्म बजे लगाओ"); got != "alarm_set" {
		t.Fatalf("rule = %q", got)
	}
	if got := sp.last(); got != "कितने बजे का अलार्म लगाना है?" {
		t.Fatalf("spoke %q", got)
	}
}

func TestReminderRules(t *testing.T) {
	t.Parallel()
	r, sp := newTestRouter(t)
	ctx := context.Background()

	if got := r.Route(ctx, "दस मिनट बाद मुझे चाय याद दिलाना"); got != "reminder" {
		t.Fatalf("rule = %q", got)
	}
	if got := sp.last(); got != "10 मिनट बाद आपको चाय याद दिलाऊंगा" {
		t.Fatalf("spoke %q", got)
	}

	if got := r.Route(ctx, "आठ बजे मुझे दवाई याद दिलाना"); got != "reminder_fixed" {
		t.Fatalf("rule = %q", got)
	}
	if got := sp.last(); got != "8 बजकर 0 मिनट पर याद दिला दूँगा" {
		t.Fatalf("spoke %q", got)
	}

	// Cancel wins over the song-stop vocabulary.
	if got := r.Route(ctx, "रिमाइंडर बंद करो"); got != "reminder_cancel" {
		t.Fatalf("rule = %q", got)
	}
	if got := sp.last(); got != "रिमाइंडर रद्द कर दिया गया है" {
		t.Fatalf("spoke %q", got)
	}

	r.Route(ctx, "मुझे याद दिलाना")
	if got := sp.last(); got != "कितने मिनट बाद याद दिलाना है?" {
		t.Fatalf("spoke %q", got)
	}
}

func TestCalculator(t *testing.T) {
	t.Parallel()
	r, sp := newTestRouter(t)
	ctx := context.Background()

	if got := r.Route(ctx, "दो जोड़ तीन"); got != "calculator" {
		t.Fatalf("rule = %q", got)
	}
	if got := sp.last(); got != "उत्तर पाँच है" {
		t.Fatalf("spoke %q", got)
	}

	r.Route(ctx, "दस भाग 0")
	if got := sp.last(); got != "शून्य से भाग नहीं कर सकते" {
		t.Fatalf("spoke %q", got)
	}

	// An unmapped result falls back to its digit form.
	r.Route(ctx, "बीस जोड़ तीन")
	if got := sp.last(); got != "उत्तर 23 है" {
		t.Fatalf("spoke %q", got)
	}
}

func TestMultiplicationTable(t *testing.T) {
	t.Parallel()
	r, sp := newTestRouter(t)
	ctx := context.Background()

	if got := r.Route(ctx, "दो का टेबल सुनाओ"); got != "table" {
		t.Fatalf("rule = %q", got)
	}
	lines := sp.spoken()
	if len(lines) != 11 {
		t.Fatalf("spoke %d lines, want 11", len(lines))
	}
	if lines[0] != "दो का टेबल सुनिए" {
		t.Fatalf("opening line %q", lines[0])
	}
	if lines[3] != "दो गुणा तीन बराबर छः" {
		t.Fatalf("third row %q", lines[3])
	}
	if !strings.HasSuffix(lines[10], "बराबर बीस") {
		t.Fatalf("last row %q", lines[10])
	}

	r.Route(ctx, "सौ का टेबल सुनाओ")
	if got := sp.last(); got != "मैं अभी बीस तक का टेबल बता सकता हूँ" {
		t.Fatalf("spoke %q", got)
	}
}

func TestRelativeWeekdayBeatsDateRule(t *testing.T) {
	t.Parallel()
	r, sp := newTestRouter(t)

	// Clock pinned to Wednesday 2025-01-01; "next Wednesday" is +7.
	if got := r.Route(context.Background(), "अगले बुधवार की तारीख बताओ"); got != "relative_weekday" {
		t.Fatalf("rule = %q", got)
	}
	if got := sp.last(); got != "अगले बुधवार की तारीख 8 जनवरी 2025 है" {
		t.Fatalf("spoke %q", got)
	}
}

func TestDayOfDate(t *testing.T) {
	t.Parallel()
	r, sp := newTestRouter(t)
	ctx := context.Background()

	if got := r.Route(ctx, "26 जनवरी 2026 को कौनसा दिन था"); got != "day_of_date" {
		t.Fatalf("rule = %q", got)
	}
	if got := sp.last(); got != "26 जनवरी 2026 को सोमवार था" {
		t.Fatalf("spoke %q", got)
	}

	r.Route(ctx, "31 फरवरी 2025 को कौनसा दिन था")
	if got := sp.last(); got != "यह तारीख मान्य नहीं है" {
		t.Fatalf("spoke %q", got)
	}

	// A day word that resolves to nothing is still this rule's to
	// answer, not a fallthrough to the clock rules.
	if got := r.Route(ctx, "मेरा जनवरी को कौनसा दिन था"); got != "day_of_date" {
		t.Fatalf("rule = %q", got)
	}
	if got := sp.last(); got != "यह तारीख मान्य नहीं है" {
		t.Fatalf("spoke %q", got)
	}
}

func TestClockRules(t *testing.T) {
	t.Parallel()
	r, sp := newTestRouter(t)
	ctx := context.Background()

	if got := r.Route(ctx, "समय क्या हुआ है"); got != "time" {
		t.Fatalf("rule = %q", got)
	}
	if got := sp.last(); got != "अभी 10 बजकर 30 मिनट हुए हैं" {
		t.Fatalf("spoke %q", got)
	}

	if got := r.Route(ctx, "आज की तारीख क्या है"); got != "date" {
		t.Fatalf("rule = %q", got)
	}
	if got := sp.last(); got != "आज 1 जनवरी 2025 है" {
		t.Fatalf("spoke %q", got)
	}

	if got := r.Route(ctx, "आज कौनसा दिन है"); got != "day" {
		t.Fatalf("rule = %q", got)
	}
	if got := sp.last(); got != "आज बुधवार है" {
		t.Fatalf("spoke %q", got)
	}
}

func TestFactRules(t *testing.T) {
	t.Parallel()
	r, sp := newTestRouter(t)
	ctx := context.Background()

	if got := r.Route(ctx, "प्रधानमंत्री कौन है"); got != "pm_of_india" {
		t.Fatalf("rule = %q", got)
	}
	if got := sp.last(); got != "भारत के प्रधानमंत्री नरेंद्र मोदी हैं" {
		t.Fatalf("spoke %q", got)
	}

	if got := r.Route(ctx, "भारत की राजधानी क्या है"); got != "capital_of_india" {
		t.Fatalf("rule = %q", got)
	}
	if got := sp.last(); got != "भारत की राजधानी नई दिल्ली है" {
		t.Fatalf("spoke %q", got)
	}
}

func TestSongRules(t *testing.T) {
	t.Parallel()
	r, sp := newTestRouter(t)
	ctx := context.Background()

	// Nothing playing.
	if got := r.Route(ctx, "गाना बंद करो"); got != "song_stop" {
		t.Fatalf("rule = %q", got)
	}
	if got := sp.last(); got != "कुछ भी चालू नहीं है" {
		t.Fatalf("spoke %q", got)
	}

	// The player's directory does not exist; the apology comes from the
	// playback controller through the same speaker.
	if got := r.Route(ctx, "कोई गाना चलाओ"); got != "song_play" {
		t.Fatalf("rule = %q", got)
	}
	if got := sp.last(); got != "सॉन्ग फोल्डर नहीं मिला" {
		t.Fatalf("spoke %q", got)
	}
}

func TestLightRules(t *testing.T) {
	t.Parallel()
	r, sp := newTestRouter(t)
	ctx := context.Background()

	if got := r.Route(ctx, "लाइट चालू करो"); got != "light_on" {
		t.Fatalf("rule = %q", got)
	}
	if got := sp.last(); got != "लाइट चालू कर दी" {
		t.Fatalf("spoke %q", got)
	}

	if got := r.Route(ctx, "बत्ती बंद करो"); got != "light_off" {
		t.Fatalf("rule = %q", got)
	}
	if got := sp.last(); got != "लाइट बंद कर दी" {
		t.Fatalf("spoke %q", got)
	}
}

func TestSpeedtestDisabled(t *testing.T) {
	t.Parallel()
	r, sp := newTestRouter(t)

	// No runner wired: the vocabulary falls through to the fallback.
	if got := r.Route(context.Background(), "इंटरनेट स्पीड बताओ"); got != "fallback" {
		t.Fatalf("rule = %q", got)
	}
	if got := sp.last(); got != "क्षमा करें, मैं इसमें आपकी सहायता नहीं कर सकता" {
		t.Fatalf("spoke %q", got)
	}
}
