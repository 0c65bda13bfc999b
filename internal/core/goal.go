package core

import (
	"strings"
	"time"
)

// Goal is a user-defined savings target with manually contributed progress.
// CurrentAmount never exceeds Target and only ever grows; deletion is the
// only terminal transition. A goal past its deadline stays active — overdue
// is a presentation-time computation, never a stored state.
type Goal struct {
	ID            string    `json:"id"`
	Name          string    `json:"name"`
	Target        Money     `json:"target"`
	Deadline      time.Time `json:"deadline"`
	Category      string    `json:"category"`
	CurrentAmount Money     `json:"currentAmount"`
	CreatedAt     time.Time `json:"createdAt"`
}

func (g Goal) Validate() error {
	if strings.TrimSpace(g.Name) == "" {
		return ErrEmptyName
	}
	if err := g.Target.Validate(); err != nil {
		return err
	}
	if g.CurrentAmount.Cents < 0 {
		return ErrInvalidAmount
	}
	return nil
}

// Contribute returns the goal with amount added to its progress, clamped
// at the target.
func (g Goal) Contribute(amount Money) Goal {
	if amount.Cents <= 0 {
		return g
	}
	next := g.CurrentAmount.Cents + amount.Cents
	if next > g.Target.Cents {
		next = g.Target.Cents
	}
	g.CurrentAmount = Money{Cents: next}
	return g
}

// Reached reports whether the goal progress has hit the target.
func (g Goal) Reached() bool {
	return g.CurrentAmount.Cents >= g.Target.Cents
}

// Overdue reports whether the deadline has passed at the given instant.
func (g Goal) Overdue(now time.Time) bool {
	return !g.Deadline.IsZero() && now.After(g.Deadline) && !g.Reached()
}

// Progress returns completion as a percentage in [0,100].
func (g Goal) Progress() float64 {
	if g.Target.Cents <= 0 {
		return 0
	}
	return float64(g.CurrentAmount.Cents) / float64(g.Target.Cents) * 100
}
