package intent

import (
	"fmt"
	"regexp"
	"strconv"
	"strings"
	"time"
)

const dayLayout = "2006-01-02"

var weekdays = map[string]time.Weekday{
	"sunday":    time.Sunday,
	"monday":    time.Monday,
	"tuesday":   time.Tuesday,
	"wednesday": time.Wednesday,
	"thursday":  time.Thursday,
	"friday":    time.Friday,
	"saturday":  time.Saturday,
	"日":         time.Sunday,
	"天":         time.Sunday,
	"一":         time.Monday,
	"二":         time.Tuesday,
	"三":         time.Wednesday,
	"四":         time.Thursday,
	"五":         time.Friday,
	"六":         time.Saturday,
}

var (
	inDaysPattern   = regexp.MustCompile(`^in (\d{1,3}) days?$`)
	monthDayPattern = regexp.MustCompile(`^(\d{1,2})[/-](\d{1,2})$`)
	clockPattern    = regexp.MustCompile(`^(\d{1,2})(?::(\d{2}))?\s*(am|pm)?$`)
)

// ResolveDate turns a date token from the model into a concrete YYYY-MM-DD
// string, resolving relative words against ref, never against the wall
// clock. The second return is false when the token cannot be resolved to a
// valid calendar date.
func ResolveDate(token string, ref time.Time) (string, bool) {
	s := strings.ToLower(strings.TrimSpace(token))
	if s == "" {
		return "", false
	}

	// Already concrete.
	if t, err := time.Parse(dayLayout, s); err == nil {
		return t.Format(dayLayout), true
	}

	day := func(offset int) (string, bool) {
		return ref.AddDate(0, 0, offset).Format(dayLayout), true
	}

	switch s {
	case "today", "tonight", "今天", "今晚":
		return day(0)
	case "tomorrow", "明天":
		return day(1)
	case "day after tomorrow", "the day after tomorrow", "后天":
		return day(2)
	case "yesterday", "昨天":
		return day(-1)
	case "next week", "下周", "下星期":
		return day(7)
	}

	if m := inDaysPattern.FindStringSubmatch(s); m != nil {
		n, err := strconv.Atoi(m[1])
		if err != nil {
			return "", false
		}
		return day(n)
	}

	// "next monday" always lands strictly after ref; a bare or "this" weekday
	// means the next occurrence, which may be later this week.
	if rest, ok := strings.CutPrefix(s, "next "); ok {
		if wd, ok := lookupWeekday(rest); ok {
			return day(daysUntil(ref.Weekday(), wd, true))
		}
		return "", false
	}
	if rest, ok := strings.CutPrefix(s, "this "); ok {
		if wd, ok := lookupWeekday(rest); ok {
			return day(daysUntil(ref.Weekday(), wd, false))
		}
		return "", false
	}
	if rest, ok := strings.CutPrefix(s, "下周"); ok {
		if wd, ok := lookupWeekday(rest); ok {
			return day(daysUntil(ref.Weekday(), wd, true))
		}
		return "", false
	}
	if wd, ok := lookupWeekday(s); ok {
		return day(daysUntil(ref.Weekday(), wd, false))
	}

	// Month/day with the reference year, e.g. "6/15" or "06-15".
	if m := monthDayPattern.FindStringSubmatch(s); m != nil {
		month, _ := strconv.Atoi(m[1])
		dayOfMonth, _ := strconv.Atoi(m[2])
		candidate := fmt.Sprintf("%04d-%02d-%02d", ref.Year(), month, dayOfMonth)
		if t, err := time.Parse(dayLayout, candidate); err == nil {
			return t.Format(dayLayout), true
		}
		return "", false
	}

	return "", false
}

func lookupWeekday(s string) (time.Weekday, bool) {
	wd, ok := weekdays[strings.TrimSpace(s)]
	return wd, ok
}

// daysUntil returns the offset in days from current to target. strict forces
// a full week ahead when the target is today.
func daysUntil(current, target time.Weekday, strict bool) int {
	days := (int(target) - int(current) + 7) % 7
	if days == 0 && strict {
		days = 7
	}
	if days == 0 {
		// Bare weekday matching today means today.
		return 0
	}
	return days
}

// ResolveTime normalizes a time-of-day token to HH:MM. Returns false for
// unparseable tokens.
func ResolveTime(token string) (string, bool) {
	s := strings.ToLower(strings.TrimSpace(token))
	if s == "" {
		return "", false
	}

	switch s {
	case "noon", "midday", "中午":
		return "12:00", true
	case "midnight", "午夜":
		return "00:00", true
	}

	m := clockPattern.FindStringSubmatch(s)
	if m == nil {
		return "", false
	}
	hour, err := strconv.Atoi(m[1])
	if err != nil {
		return "", false
	}
	minute := 0
	if m[2] != "" {
		minute, err = strconv.Atoi(m[2])
		if err != nil {
			return "", false
		}
	}
	switch m[3] {
	case "pm":
		if hour < 12 {
			hour += 12
		}
	case "am":
		if hour == 12 {
			hour = 0
		}
	}
	if hour > 23 || minute > 59 {
		return "", false
	}
	return fmt.Sprintf("%02d:%02d", hour, minute), true
}
