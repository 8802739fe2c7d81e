package markethours

import (
	"fmt"
	"time"
)

// IST is the Indian Standard Time location (UTC+5:30).
var IST = time.FixedZone("IST", 5*3600+30*60)

// NSE cash-session hours in IST.
const (
	OpenHour    = 9
	OpenMinute  = 15
	CloseHour   = 15
	CloseMinute = 30

	// DefaultRunAfterClose is how long after the close the daily run starts,
	// giving the price source time to publish the final bar.
	DefaultRunAfterClose = 45 * time.Minute

	maxLookahead = 15 // covers the longest weekend+holiday run
)

// IsMarketOpen returns true if t falls within NSE trading hours
// (9:15 AM – 3:30 PM IST on a trading day).
func IsMarketOpen(t time.Time) bool {
	ist := t.In(IST)
	if !IsTradingDay(ist) {
		return false
	}
	hm := ist.Hour()*60 + ist.Minute()
	return hm >= OpenHour*60+OpenMinute && hm < CloseHour*60+CloseMinute
}

// IsWeekday returns true if t is Mon–Fri in IST.
func IsWeekday(t time.Time) bool {
	wd := t.In(IST).Weekday()
	return wd >= time.Monday && wd <= time.Friday
}

// IsTradingDay returns true if t is a weekday and not a holiday.
func IsTradingDay(t time.Time) bool {
	ist := t.In(IST)
	return IsWeekday(ist) && !IsHoliday(ist)
}

// SessionDate returns t's IST calendar date at midnight UTC, the form
// stored for daily bars.
func SessionDate(t time.Time) time.Time {
	ist := t.In(IST)
	return time.Date(ist.Year(), ist.Month(), ist.Day(), 0, 0, 0, 0, time.UTC)
}

// NextTradingDay returns the first trading day strictly after t, as a session date.
func NextTradingDay(t time.Time) time.Time {
	return stepTradingDay(t, 1)
}

// PreviousTradingDay returns the last trading day strictly before t, as a session date.
func PreviousTradingDay(t time.Time) time.Time {
	return stepTradingDay(t, -1)
}

func stepTradingDay(t time.Time, dir int) time.Time {
	ist := t.In(IST)
	d := time.Date(ist.Year(), ist.Month(), ist.Day(), 12, 0, 0, 0, IST)
	for i := 0; i < maxLookahead; i++ {
		d = d.AddDate(0, 0, dir)
		if IsTradingDay(d) {
			return SessionDate(d)
		}
	}
	return SessionDate(d)
}

// TodayClose returns the close time (3:30 PM IST) on t's IST date.
func TodayClose(t time.Time) time.Time {
	ist := t.In(IST)
	return time.Date(ist.Year(), ist.Month(), ist.Day(), CloseHour, CloseMinute, 0, 0, IST)
}

// LastCompletedSession returns the most recent trading day whose close is
// at or before t. This is the newest bar the price source can have.
func LastCompletedSession(t time.Time) time.Time {
	if IsTradingDay(t) && !t.Before(TodayClose(t)) {
		return SessionDate(t)
	}
	return PreviousTradingDay(t)
}

// NextRun returns when the daily run should next start: after is added to
// the close of the next trading day whose close+after is still ahead of t.
func NextRun(t time.Time, after time.Duration) time.Time {
	if IsTradingDay(t) {
		if run := TodayClose(t).Add(after); t.Before(run) {
			return run
		}
	}
	next := NextTradingDay(t)
	return time.Date(next.Year(), next.Month(), next.Day(), CloseHour, CloseMinute, 0, 0, IST).Add(after)
}

// TimeUntilClose returns the duration until today's close, or 0 once past it.
func TimeUntilClose(t time.Time) time.Duration {
	d := TodayClose(t).Sub(t)
	if d < 0 {
		return 0
	}
	return d
}

// StatusString returns a human-readable market status.
func StatusString(t time.Time) string {
	if IsMarketOpen(t) {
		return fmt.Sprintf("Market Open — closes in %s", fmtDur(TimeUntilClose(t)))
	}
	next := NextTradingDay(t)
	if IsTradingDay(t) && t.In(IST).Hour()*60+t.In(IST).Minute() < OpenHour*60+OpenMinute {
		next = SessionDate(t)
	}
	open := time.Date(next.Year(), next.Month(), next.Day(), OpenHour, OpenMinute, 0, 0, IST)
	return fmt.Sprintf("Market Closed — opens %s %s (%s)",
		open.Weekday().String()[:3], open.Format("15:04"), fmtDur(open.Sub(t)))
}

func fmtDur(d time.Duration) string {
	h := int(d.Hours())
	m := int(d.Minutes()) % 60
	if h > 0 {
		return fmt.Sprintf("%dh%dm", h, m)
	}
	return fmt.Sprintf("%dm", m)
}
