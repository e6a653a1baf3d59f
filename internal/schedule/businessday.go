package schedule

import "time"

// Business-day boundary resolver. Смена на мойке может начинаться не в
// полночь: до RolloverHour утра заявки относятся к предыдущему рабочему дню.

const DayFormat = "2006-01-02"

type Resolver struct {
	rolloverHour int
	now          func() time.Time
}

// NewResolver builds a resolver with a rollover hour in [0, 23]. The now
// function is injectable for tests; nil means time.Now.
func NewResolver(rolloverHour int, now func() time.Time) *Resolver {
	if rolloverHour < 0 || rolloverHour > 23 {
		rolloverHour = 0
	}
	if now == nil {
		now = time.Now
	}
	return &Resolver{rolloverHour: rolloverHour, now: now}
}

// CurrentBusinessDate returns the midnight-normalized date of the current
// business day.
func (r *Resolver) CurrentBusinessDate() time.Time {
	return r.BusinessDateAt(r.now())
}

// BusinessDateAt maps an instant to its business day.
func (r *Resolver) BusinessDateAt(t time.Time) time.Time {
	if t.Hour() < r.rolloverHour {
		t = t.AddDate(0, 0, -1)
	}
	return time.Date(t.Year(), t.Month(), t.Day(), 0, 0, 0, 0, t.Location())
}

// BusinessDayString returns the current business day in YYYY-MM-DD form, the
// format the booking API expects for date scoping.
func (r *Resolver) BusinessDayString() string {
	return r.CurrentBusinessDate().Format(DayFormat)
}
