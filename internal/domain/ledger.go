package domain

import "time"

// Ledger maps a state to the instant it was first entered. Entries are write-once.
type Ledger[S ~string] map[S]time.Time

// Stamp records t for s unless s is already present. It reports whether a write happened.
func (l Ledger[S]) Stamp(s S, t time.Time) bool {
	if _, ok := l[s]; ok {
		return false
	}
	l[s] = t
	return true
}

func (l Ledger[S]) At(s S) (time.Time, bool) {
	t, ok := l[s]
	return t, ok
}

func (l Ledger[S]) Has(s S) bool {
	_, ok := l[s]
	return ok
}

func (l Ledger[S]) Clone() Ledger[S] {
	out := make(Ledger[S], len(l))
	for k, v := range l {
		out[k] = v
	}
	return out
}
