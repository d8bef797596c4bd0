package domain

import "time"

// DueDates returns every date, normalized to midnight UTC, on which the
// template is due in [StartDate, until], bounded by EndDate when set. The
// caller is responsible for skipping dates that already have an execution
// row; this function only does the calendar arithmetic.
func DueDates(t RecurringTransaction, until time.Time) []time.Time {
	start := midnight(t.StartDate)
	limit := midnight(until)
	if t.EndDate != nil {
		if end := midnight(*t.EndDate); end.Before(limit) {
			limit = end
		}
	}
	if limit.Before(start) {
		return nil
	}

	switch t.Frequency {
	case FrequencyDaily:
		return stepDays(start, limit, 1)
	case FrequencyWeekly:
		return stepDays(start, limit, 7)
	case FrequencyMonthly:
		return stepMonths(t, start, limit, 1)
	case FrequencyQuarterly:
		return stepMonths(t, start, limit, 3)
	case FrequencyAnnually:
		return stepYears(t, start, limit)
	}
	return nil
}

// NextDueDate returns the first due date strictly after the given date, or
// the zero time when the template has run out.
func NextDueDate(t RecurringTransaction, after time.Time) time.Time {
	horizon := midnight(after).AddDate(2, 0, 0)
	for _, due := range DueDates(t, horizon) {
		if due.After(midnight(after)) {
			return due
		}
	}
	return time.Time{}
}

func stepDays(start, limit time.Time, days int) []time.Time {
	var dates []time.Time
	for d := start; !d.After(limit); d = d.AddDate(0, 0, days) {
		dates = append(dates, d)
	}
	return dates
}

func stepMonths(t RecurringTransaction, start, limit time.Time, months int) []time.Time {
	day := t.DayOfMonth
	if day <= 0 {
		day = start.Day()
	}

	var dates []time.Time
	year, month := start.Year(), start.Month()
	for {
		due := onDay(year, month, day)
		if due.After(limit) {
			return dates
		}
		if !due.Before(start) {
			dates = append(dates, due)
		}
		month += time.Month(months)
		for month > 12 {
			month -= 12
			year++
		}
	}
}

func stepYears(t RecurringTransaction, start, limit time.Time) []time.Time {
	day := t.DayOfMonth
	if day <= 0 {
		day = start.Day()
	}
	month := time.Month(t.Month)
	if month < 1 || month > 12 {
		month = start.Month()
	}

	var dates []time.Time
	for year := start.Year(); ; year++ {
		due := onDay(year, month, day)
		if due.After(limit) {
			return dates
		}
		if !due.Before(start) {
			dates = append(dates, due)
		}
	}
}

// onDay builds a date clamped to the month's length, so a day_of_month of 31
// lands on Feb 28 (or 29) rather than rolling into March.
func onDay(year int, month time.Month, day int) time.Time {
	if last := daysIn(year, month); day > last {
		day = last
	}
	return time.Date(year, month, day, 0, 0, 0, 0, time.UTC)
}

func daysIn(year int, month time.Month) int {
	return time.Date(year, month+1, 0, 0, 0, 0, 0, time.UTC).Day()
}

func midnight(at time.Time) time.Time {
	at = at.UTC()
	return time.Date(at.Year(), at.Month(), at.Day(), 0, 0, 0, 0, time.UTC)
}
