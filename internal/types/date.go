package types

import "time"

// YearMonthLayout is the format used for billing cycle keys, e.g. "2025-03".
const YearMonthLayout = "2006-01"

// ElapsedMonths returns the number of whole calendar months between start and
// now: (nowY-startY)*12 + (nowM-startM). Day of month is deliberately ignored,
// so a subscription started on Jan 31 is considered one month old on Feb 1.
func ElapsedMonths(start, now time.Time) int {
	return (now.Year()-start.Year())*12 + int(now.Month()) - int(start.Month())
}

// AddClampedDate adds years, months and days to t, clamping the day of month
// to the last valid day of the resulting month. Unlike time.AddDate, adding
// one month to Jan 31 lands on Feb 28/29 instead of rolling over into March.
func AddClampedDate(t time.Time, years, months, days int) time.Time {
	y, m, d := t.Date()
	h, min, sec := t.Clock()

	newY := y + years
	newM := time.Month(int(m) + months)

	for newM > 12 {
		newM -= 12
		newY++
	}
	for newM < 1 {
		newM += 12
		newY--
	}

	// Find the last valid day of the new month
	firstOfNextMonth := time.Date(newY, newM+1, 1, 0, 0, 0, 0, t.Location())
	lastDay := firstOfNextMonth.Add(-24 * time.Hour).Day()

	newD := d + days
	if newD > lastDay {
		newD = lastDay
	}

	return time.Date(newY, newM, newD, h, min, sec, t.Nanosecond(), t.Location())
}

// FormatYearMonth renders t as a year-month key
func FormatYearMonth(t time.Time) string {
	return t.Format(YearMonthLayout)
}
