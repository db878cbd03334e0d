package metrics

import (
	"time"

	"github.com/YelzhanWeb/orderboard/internal/domain"
)

// Range is a half-open creation-time window [From, To).
type Range struct {
	From time.Time `json:"from"`
	To   time.Time `json:"to"`
}

func startOfDay(t time.Time) time.Time {
	y, m, d := t.Date()
	return time.Date(y, m, d, 0, 0, 0, 0, t.Location())
}

// Today covers the calendar day of now, in now's location.
func Today(now time.Time) Range {
	return LastDays(now, 1)
}

// LastDays covers today and the n-1 calendar days before it.
func LastDays(now time.Time, n int) Range {
	if n < 1 {
		n = 1
	}
	end := startOfDay(now).AddDate(0, 0, 1)
	return Range{From: end.AddDate(0, 0, -n), To: end}
}

// Custom covers whole calendar days from the day of from through the day of to.
func Custom(from, to time.Time) Range {
	if to.Before(from) {
		from, to = to, from
	}
	return Range{From: startOfDay(from), To: startOfDay(to).AddDate(0, 0, 1)}
}

func (r Range) Contains(t time.Time) bool {
	return !t.Before(r.From) && t.Before(r.To)
}

func Filter(orders []*domain.Order, r Range) []*domain.Order {
	out := make([]*domain.Order, 0, len(orders))
	for _, o := range orders {
		if r.Contains(o.CreatedAt) {
			out = append(out, o)
		}
	}
	return out
}
