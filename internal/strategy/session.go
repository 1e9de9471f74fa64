package strategy

import "time"

// Session is a coarse UTC trading-session classification.
type Session string

const (
	SessionClosed  Session = "CLOSED"
	SessionAsian   Session = "ASIAN"
	SessionLondon  Session = "LONDON"
	SessionOverlap Session = "OVERLAP"
	SessionNewYork Session = "NEW_YORK"
)

// SessionMultipliers scales confidence by liquidity of the session.
var SessionMultipliers = map[Session]float64{
	SessionClosed:  0,
	SessionAsian:   0.6,
	SessionLondon:  1.0,
	SessionOverlap: 1.3,
	SessionNewYork: 1.0,
}

// ClassifySession maps an instant to its session. The FX week runs from
// Sunday 22:00 UTC to Friday 22:00 UTC.
func ClassifySession(t time.Time) Session {
	t = t.UTC()
	h := t.Hour()
	switch t.Weekday() {
	case time.Saturday:
		return SessionClosed
	case time.Friday:
		if h >= 22 {
			return SessionClosed
		}
	case time.Sunday:
		if h < 22 {
			return SessionClosed
		}
	}

	switch {
	case h >= 13 && h < 16:
		return SessionOverlap
	case h >= 8 && h < 13:
		return SessionLondon
	case h >= 16 && h < 21:
		return SessionNewYork
	default:
		return SessionAsian
	}
}

// Open reports whether orders can be placed in s.
func (s Session) Open() bool { return s != SessionClosed }
