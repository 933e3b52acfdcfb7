package market

import "time"

// DateLayout is the calendar-day format used in files and responses.
const DateLayout = "2006-01-02"

// Day truncates t to midnight UTC of its calendar day.
func Day(t time.Time) time.Time {
	y, m, d := t.Date()
	return time.Date(y, m, d, 0, 0, 0, 0, time.UTC)
}

func IsBusinessDay(t time.Time) bool {
	switch t.Weekday() {
	case time.Saturday, time.Sunday:
		return false
	default:
		return true
	}
}

// BusinessDaysAfter returns n consecutive weekdays, the first being the first weekday
// strictly after last. Holidays are not excluded.
func BusinessDaysAfter(last time.Time, n int) []time.Time {
	if n <= 0 {
		return nil
	}
	dates := make([]time.Time, 0, n)
	day := Day(last)
	for len(dates) < n {
		day = day.AddDate(0, 0, 1)
		if IsBusinessDay(day) {
			dates = append(dates, day)
		}
	}
	return dates
}
