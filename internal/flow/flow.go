package flow

import (
	"fmt"
	"time"
)

// Status is the lifecycle state of a Flow.
//
// Transitions are one-directional:
//
//	pending → running → {completed, failed}
//	pending → cancelled
//	running → failed
//
// completed, cancelled, and failed are terminal - no transition leaves them.
type Status string

const (
	StatusPending   Status = "pending"
	StatusRunning   Status = "running"
	StatusCompleted Status = "completed"
	StatusCancelled Status = "cancelled"
	StatusFailed    Status = "failed"
)

// ValidStatus reports whether s is a known flow status.
func ValidStatus(s Status) bool {
	switch s {
	case StatusPending, StatusRunning, StatusCompleted, StatusCancelled, StatusFailed:
		return true
	}
	return false
}

// Terminal reports whether s admits no further transitions.
func (s Status) Terminal() bool {
	switch s {
	case StatusCompleted, StatusCancelled, StatusFailed:
		return true
	}
	return false
}

// CanTransition reports whether from → to is a legal status transition.
func CanTransition(from, to Status) bool {
	switch from {
	case StatusPending:
		return to == StatusRunning || to == StatusCancelled
	case StatusRunning:
		return to == StatusCompleted || to == StatusFailed
	}
	return false
}

// ValidateTransition returns a descriptive error for illegal transitions.
func ValidateTransition(from, to Status) error {
	if !ValidStatus(from) || !ValidStatus(to) {
		return fmt.Errorf("unknown flow status in transition %q → %q", from, to)
	}
	if !CanTransition(from, to) {
		return fmt.Errorf("illegal flow transition %q → %q", from, to)
	}
	return nil
}

// Flow is an ordered, wallet-owned unit of work composed of Steps.
type Flow struct {
	ID                string
	WalletScopeID     string
	Name              string
	Status            Status
	LinkedArtifactIDs []string
	CreatedAt         time.Time
	UpdatedAt         time.Time
}
