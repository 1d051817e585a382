package utils

import (
	"time"

	"github.com/scmhub/calendar"
)

// TradingCalendar answers session-day questions for the NSE. When the
// library has no calendar for the MIC it degrades to a plain Mon-Fri check.
type TradingCalendar struct {
	Calendar *calendar.Calendar
	Fallback bool
	Timezone *time.Location
}

// -----------------------------------------------------------------------------

// NewTradingCalendar resolves the NSE calendar (MIC xbom covers the Indian
// exchanges in scmhub/calendar). tz is the session timezone from config.
func NewTradingCalendar(tz *time.Location) *TradingCalendar {
	cal := calendar.GetCalendar("xbom")
	if cal == nil {
		return &TradingCalendar{Fallback: true, Timezone: tz}
	}
	return &TradingCalendar{Calendar: cal, Fallback: false, Timezone: cal.Loc}
}

// -----------------------------------------------------------------------------

func (tc *TradingCalendar) IsTradingDay(date time.Time) bool {
	if tc.Timezone != nil {
		date = date.In(tc.Timezone)
	}

	if tc.Fallback {
		weekday := date.Weekday()
		return weekday != time.Saturday && weekday != time.Sunday
	}
	return tc.Calendar.IsBusinessDay(date)
}

// -----------------------------------------------------------------------------

// IsOpenOnMinute checks whether the cash market is open at t. The fallback
// uses the NSE regular session, 09:15-15:30 local time.
func (tc *TradingCalendar) IsOpenOnMinute(t time.Time) bool {
	if tc.Timezone != nil {
		t = t.In(tc.Timezone)
	}

	if tc.Fallback {
		if !tc.IsTradingDay(t) {
			return false
		}
		hour := t.Hour()
		minute := t.Minute()
		afterOpen := hour > 9 || (hour == 9 && minute >= 15)
		beforeClose := hour < 15 || (hour == 15 && minute < 30)
		return afterOpen && beforeClose
	}

	return tc.Calendar.IsOpen(t)
}

// -----------------------------------------------------------------------------

// PreviousTradingDay walks backwards from date to the most recent trading day
// strictly before it.
func (tc *TradingCalendar) PreviousTradingDay(date time.Time) time.Time {
	d := date.AddDate(0, 0, -1)
	for i := 0; i < 14; i++ {
		if tc.IsTradingDay(d) {
			return d
		}
		d = d.AddDate(0, 0, -1)
	}
	return d
}
