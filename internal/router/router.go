// Package router maps normalized utterances to actions through a fixed,
// ordered rule table. Rule order is load-bearing: several keyword sets
// overlap (the word "बंद" appears in the alarm-off, light-off and
// song-stop vocabularies), so evaluation is strictly top to bottom and
// the first matching rule consumes the utterance.
package router

import (
	"context"
	"errors"
	"fmt"
	"regexp"
	"strings"
	"time"

	"veer/internal/lang"
	"veer/internal/light"
	"veer/internal/player"
	"veer/internal/sched"
	"veer/internal/speedtest"
	"veer/pkg/logx"
)

// Speaker voices rule responses.
type Speaker interface {
	Speak(text string)
}

// Deps are the router's collaborators. Speedtest may be nil when the
// feature is disabled; its rule then never matches.
type Deps struct {
	Log       logx.Logger
	Speak     Speaker
	Numbers   *lang.Table
	Sched     *sched.Service
	Player    *player.Player
	Light     *light.Indicator
	Speedtest *speedtest.Runner

	// Now is swappable for tests.
	Now func() time.Time
}

type rule struct {
	name string
	// match must be a full commitment: once it returns true the rule's
	// action fires and no later rule is consulted. Rules whose
	// vocabulary check alone is not enough (calculator, table, date
	// parses) do the parse inside match.
	match func(r *Router, text string) bool
	run   func(r *Router, ctx context.Context, text string)
}

// Router evaluates the rule table.
type Router struct {
	deps  Deps
	rules []rule
}

func New(deps Deps) *Router {
	if deps.Now == nil {
		deps.Now = time.Now
	}
	return &Router{deps: deps, rules: ruleTable}
}

// Route dispatches one normalized utterance. Empty text is "no command"
// and produces no action at all. The returned name identifies the rule
// that fired ("fallback" when none matched) or is empty for no command.
func (r *Router) Route(ctx context.Context, text string) string {
	if strings.TrimSpace(text) == "" {
		return ""
	}
	for _, rl := range r.rules {
		if rl.match(r, text) {
			r.deps.Log.Debug("rule matched", logx.String("rule", rl.name), logx.String("text", text))
			rl.run(r, ctx, text)
			return rl.name
		}
	}
	r.deps.Speak.Speak("क्षमा करें, मैं इसमें आपकी सहायता नहीं कर सकता")
	return "fallback"
}

func (r *Router) speak(text string) { r.deps.Speak.Speak(text) }

// alarmWords includes the recognizer's common mishearings of "अलार्म".
var alarmWords = []string{"अलार्म", "आलार्म", "आलराम", "अलराम"}

var lightWords = []string{"लाइट", "बत्ती", "तुबेलाइट"}

func containsAny(text string, words []string) bool {
	for _, w := range words {
		if strings.Contains(text, w) {
			return true
		}
	}
	return false
}

func hasTimeConnector(text string) bool {
	return strings.Contains(text, "बजे") || strings.Contains(text, "बजकर")
}

// ruleTable is evaluated in order; do not reorder entries without
// re-checking every overlapping vocabulary below the moved rule.
var ruleTable = []rule{
	{
		name: "alarm_off",
		match: func(r *Router, text string) bool {
			return containsAny(text, alarmWords) && containsAny(text, []string{"बंद", "ऑफ", "रोक"})
		},
		run: func(r *Router, ctx context.Context, text string) {
			if err := r.deps.Sched.StopAlarm(); errors.Is(err, sched.ErrAlarmNotActive) {
				r.speak("कोई अलार्म चालू नहीं है")
				return
			}
			r.speak("अलार्म बंद कर दिया गया है")
		},
	},
	{
		name: "alarm_set",
		match: func(r *Router, text string) bool {
			return containsAny(text, alarmWords) && hasTimeConnector(text)
		},
		run: func(r *Router, ctx context.Context, text string) {
			hour, minute, ok := r.deps.Numbers.ExtractHourMinute(text)
			if !ok {
				r.speak("कितने बजे का अलार्म लगाना है?")
				return
			}
			_, err := r.deps.Sched.ScheduleAlarm(hour, minute)
			switch {
			case errors.Is(err, sched.ErrAlarmActive):
				r.speak("अलार्म पहले से सेट है")
			case err != nil:
				r.speak("यह समय मान्य नहीं है")
			default:
				r.speak(fmt.Sprintf("%d बजकर %d मिनट का अलार्म लगा दिया गया है", hour, minute))
			}
		},
	},
	{
		name: "reminder_cancel",
		match: func(r *Router, text string) bool {
			return strings.Contains(text, "रिमाइंडर बंद") || strings.Contains(text, "याद बंद")
		},
		run: func(r *Router, ctx context.Context, text string) {
			r.deps.Sched.CancelReminder()
			r.speak("रिमाइंडर रद्द कर दिया गया है")
		},
	},
	{
		name: "reminder_fixed",
		match: func(r *Router, text string) bool {
			if !hasTimeConnector(text) {
				return false
			}
			if !strings.Contains(text, "याद") && !strings.Contains(text, "रिमाइंडर") {
				return false
			}
			// Without a resolvable hour the utterance falls through to the
			// relative-reminder rule below.
			_, _, ok := r.deps.Numbers.ExtractHourMinute(text)
			return ok
		},
		run: func(r *Router, ctx context.Context, text string) {
			hour, minute, _ := r.deps.Numbers.ExtractHourMinute(text)
			task := fixedReminderTask(text)
			if _, err := r.deps.Sched.ScheduleFixedReminder(hour, minute, task); err != nil {
				r.speak("यह समय मान्य नहीं है")
				return
			}
			r.speak(fmt.Sprintf("%d बजकर %d मिनट पर याद दिला दूँगा", hour, minute))
		},
	},
	{
		name: "timer",
		match: func(r *Router, text string) bool {
			return strings.Contains(text, "टाइमर")
		},
		run: func(r *Router, ctx context.Context, text string) {
			minutes, ok := r.deps.Numbers.ExtractInteger(text)
			if !ok || minutes == 0 {
				r.speak("कितने मिनट का टाइमर लगाना है?")
				return
			}
			if _, err := r.deps.Sched.ScheduleTimer(time.Duration(minutes) * time.Minute); err != nil {
				r.speak("टाइमर पहले से चल रहा है")
				return
			}
			r.speak(fmt.Sprintf("%d मिनट का टाइमर शुरू किया", minutes))
		},
	},
	{
		name: "reminder",
		match: func(r *Router, text string) bool {
			return strings.Contains(text, "याद") || strings.Contains(text, "रिमाइंडर")
		},
		run: func(r *Router, ctx context.Context, text string) {
			minutes, ok := r.deps.Numbers.ExtractInteger(text)
			if !ok || minutes == 0 {
				r.speak("कितने मिनट बाद याद दिलाना है?")
				return
			}
			task := relativeReminderTask(text)
			if _, err := r.deps.Sched.ScheduleReminder(time.Duration(minutes)*time.Minute, task); err != nil {
				r.deps.Log.Error("reminder not scheduled", logx.Err(err))
				return
			}
			r.speak(fmt.Sprintf("%d मिनट बाद आपको %s याद दिलाऊंगा", minutes, task))
		},
	},
	{
		name: "light_on",
		match: func(r *Router, text string) bool {
			return strings.Contains(text, "चालू") && containsAny(text, lightWords)
		},
		run: func(r *Router, ctx context.Context, text string) {
			r.deps.Light.Set(true)
			r.speak("लाइट चालू कर दी")
		},
	},
	{
		name: "light_off",
		match: func(r *Router, text string) bool {
			return strings.Contains(text, "बंद") && containsAny(text, lightWords)
		},
		run: func(r *Router, ctx context.Context, text string) {
			r.deps.Light.Set(false)
			r.speak("लाइट बंद कर दी")
		},
	},
	{
		name: "song_stop",
		match: func(r *Router, text string) bool {
			return strings.Contains(text, "बंद करो")
		},
		run: func(r *Router, ctx context.Context, text string) {
			if !r.deps.Player.Playing() {
				r.speak("कुछ भी चालू नहीं है")
				return
			}
			r.deps.Player.Stop()
		},
	},
	{
		name: "song_next",
		match: func(r *Router, text string) bool {
			return strings.Contains(text, "अगला") || strings.Contains(text, "next")
		},
		run: func(r *Router, ctx context.Context, text string) {
			r.deps.Player.Next()
		},
	},
	{
		name: "song_previous",
		match: func(r *Router, text string) bool {
			return strings.Contains(text, "पिछला") || strings.Contains(text, "previous")
		},
		run: func(r *Router, ctx context.Context, text string) {
			r.deps.Player.Previous()
		},
	},
	{
		name: "song_pause",
		match: func(r *Router, text string) bool {
			return strings.Contains(text, "रोक") || strings.Contains(text, "pause")
		},
		run: func(r *Router, ctx context.Context, text string) {
			r.deps.Player.Pause()
		},
	},
	{
		name: "song_resume",
		match: func(r *Router, text string) bool {
			return strings.Contains(text, "फिर से") || strings.Contains(text, "resume")
		},
		run: func(r *Router, ctx context.Context, text string) {
			r.deps.Player.Resume()
		},
	},
	{
		name: "song_play",
		match: func(r *Router, text string) bool {
			return containsAny(text, []string{"गाना", "गीत", "संगीत", "सॉन्ग"})
		},
		run: func(r *Router, ctx context.Context, text string) {
			r.deps.Player.PlayRandom()
		},
	},
	{
		name: "speedtest",
		match: func(r *Router, text string) bool {
			if r.deps.Speedtest == nil {
				return false
			}
			return strings.Contains(text, "स्पीड") || strings.Contains(text, "इंटरनेट")
		},
		run: func(r *Router, ctx context.Context, text string) {
			r.speak("इंटरनेट स्पीड जाँच रहा हूँ, थोड़ा रुकिए")
			go func() {
				res, err := r.deps.Speedtest.Run(ctx)
				switch {
				case errors.Is(err, speedtest.ErrBusy):
					r.speak("स्पीड टेस्ट पहले से चल रहा है")
				case err != nil:
					r.deps.Log.Error("speed test failed", logx.Err(err))
					r.speak("स्पीड टेस्ट नहीं हो पाया")
				default:
					r.speak(speedtest.SpokenResult(res))
				}
			}()
		},
	},
	{
		name: "calculator",
		match: func(r *Router, text string) bool {
			_, err := r.deps.Numbers.Compute(text)
			return err == nil || errors.Is(err, lang.ErrDivideByZero)
		},
		run: func(r *Router, ctx context.Context, text string) {
			result, err := r.deps.Numbers.Compute(text)
			if errors.Is(err, lang.ErrDivideByZero) {
				r.speak("शून्य से भाग नहीं कर सकते")
				return
			}
			r.speak(fmt.Sprintf("उत्तर %s है", r.deps.Numbers.Word(result)))
		},
	},
	{
		name: "table",
		match: func(r *Router, text string) bool {
			_, ok := r.deps.Numbers.TableRequest(text)
			return ok
		},
		run: func(r *Router, ctx context.Context, text string) {
			n, _ := r.deps.Numbers.TableRequest(text)
			if n > 20 {
				r.speak("मैं अभी बीस तक का टेबल बता सकता हूँ")
				return
			}
			word := r.deps.Numbers.WordForInt(n)
			r.speak(fmt.Sprintf("%s का टेबल सुनिए", word))
			for i := 1; i <= 10; i++ {
				r.speak(fmt.Sprintf("%s गुणा %s बराबर %s",
					word, r.deps.Numbers.WordForInt(i), r.deps.Numbers.WordForInt(n*i)))
			}
		},
	},
	{
		name: "relative_weekday",
		match: func(r *Router, text string) bool {
			return lang.HasDirectionWord(text) && lang.HasWeekdayName(text)
		},
		run: func(r *Router, ctx context.Context, text string) {
			rel, ok := lang.ResolveRelativeWeekday(text, r.deps.Now())
			if !ok {
				return
			}
			month := lang.MonthName(rel.Date.Month())
			switch rel.Direction {
			case lang.DirectionPrevious:
				r.speak(fmt.Sprintf("पिछले %s की तारीख %d %s %d थी",
					rel.DayName, rel.Date.Day(), month, rel.Date.Year()))
			case lang.DirectionNext:
				r.speak(fmt.Sprintf("अगले %s की तारीख %d %s %d है",
					rel.DayName, rel.Date.Day(), month, rel.Date.Year()))
			default:
				r.speak(fmt.Sprintf("इस %s की तारीख %d %s %d है",
					rel.DayName, rel.Date.Day(), month, rel.Date.Year()))
			}
		},
	},
	{
		name: "day_of_date",
		match: func(r *Router, text string) bool {
			if !strings.Contains(text, "को") {
				return false
			}
			if !containsAny(text, []string{"कौनसा", "कौन सा", "वार", "दिन"}) {
				return false
			}
			// Only an utterance with no month (or nothing before it)
			// falls through; an unresolvable or impossible day is
			// answered here with a rejection.
			_, ok := r.deps.Numbers.ExtractCalendarDate(text, r.deps.Now())
			return ok
		},
		run: func(r *Router, ctx context.Context, text string) {
			d, _ := r.deps.Numbers.ExtractCalendarDate(text, r.deps.Now())
			date := time.Date(d.Year, d.Month, d.Day, 0, 0, 0, 0, time.Local)
			// time.Date normalizes out-of-range components instead of
			// failing, so an impossible day shows up as a shifted date.
			if date.Day() != d.Day || date.Month() != d.Month || date.Year() != d.Year {
				r.speak("यह तारीख मान्य नहीं है")
				return
			}
			r.speak(fmt.Sprintf("%d %s %d को %s था",
				d.Day, d.MonthName, d.Year, lang.WeekdayName(date.Weekday())))
		},
	},
	{
		name: "time",
		match: func(r *Router, text string) bool {
			return containsAny(text, []string{"कितने बज", "टाइम", "समय"})
		},
		run: func(r *Router, ctx context.Context, text string) {
			now := r.deps.Now()
			r.speak(fmt.Sprintf("अभी %d बजकर %d मिनट हुए हैं", now.Hour(), now.Minute()))
		},
	},
	{
		name: "date",
		match: func(r *Router, text string) bool {
			return containsAny(text, []string{"तारीख", "डेट"})
		},
		run: func(r *Router, ctx context.Context, text string) {
			now := r.deps.Now()
			r.speak(fmt.Sprintf("आज %d %s %d है", now.Day(), lang.MonthName(now.Month()), now.Year()))
		},
	},
	{
		name: "day",
		match: func(r *Router, text string) bool {
			return containsAny(text, []string{"दिन", "वार", "डे"})
		},
		run: func(r *Router, ctx context.Context, text string) {
			r.speak(fmt.Sprintf("आज %s है", lang.WeekdayName(r.deps.Now().Weekday())))
		},
	},
	{
		name: "pm_of_india",
		match: func(r *Router, text string) bool {
			return containsAny(text, []string{"प्राइम मिनिस्टर", "प्रधानमंत्री", "पि एम"})
		},
		run: func(r *Router, ctx context.Context, text string) {
			r.speak("भारत के प्रधानमंत्री नरेंद्र मोदी हैं")
		},
	},
	{
		name: "capital_of_india",
		match: func(r *Router, text string) bool {
			return containsAny(text, []string{"भारत", "इंडिया", "हिन्दुस्थान"}) &&
				containsAny(text, []string{"कैपिटल", "राजधानी"})
		},
		run: func(r *Router, ctx context.Context, text string) {
			r.speak("भारत की राजधानी नई दिल्ली है")
		},
	},
}

var timePhrase = regexp.MustCompile(`\d+\s*बज[ेकर]*\s*\d*`)

// fixedReminderTask strips the time phrase and the request boilerplate,
// leaving the thing to be reminded about.
func fixedReminderTask(text string) string {
	cleaned := timePhrase.ReplaceAllString(text, "")
	for _, filler := range []string{"मुझे", "याद दिलाना", "रिमाइंडर", "पर"} {
		cleaned = strings.ReplaceAll(cleaned, filler, "")
	}
	cleaned = strings.TrimSpace(cleaned)
	if cleaned == "" {
		return "आपका काम"
	}
	return cleaned
}

// relativeReminderTask takes everything after the last "बाद" and strips
// the request boilerplate.
func relativeReminderTask(text string) string {
	task := ""
	if idx := strings.LastIndex(text, "बाद"); idx >= 0 {
		task = text[idx+len("बाद"):]
	}
	task = strings.ReplaceAll(task, "याद दिलाना", "")
	task = strings.ReplaceAll(task, "मुझे", "")
	task = strings.TrimSpace(task)
	if task == "" {
		return "आपका काम"
	}
	return task
}
