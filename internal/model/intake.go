package model

import (
	"errors"
	"fmt"
	"strings"
	"time"
)

var ErrInvalidIntakeStatus = errors.New("model: invalid intake status")

type IntakeStatus string

const (
	IntakeTaken   IntakeStatus = "taken"
	IntakeSkipped IntakeStatus = "skipped"
	IntakeMissed  IntakeStatus = "missed"
)

func (s IntakeStatus) IsValid() bool {
	switch s {
	case IntakeTaken, IntakeSkipped, IntakeMissed:
		return true
	default:
		return false
	}
}

type IntakeRecord struct {
	ID           string
	ReminderID   string
	MedicineName string
	Status       IntakeStatus
	TakenAt      time.Time
	Notes        string
}

func (r IntakeRecord) Validate() error {
	if strings.TrimSpace(r.ID) == "" {
		return errors.New("model: intake id is required")
	}
	if strings.TrimSpace(r.MedicineName) == "" {
		return errors.New("model: intake medicine_name is required")
	}
	if !r.Status.IsValid() {
		return fmt.Errorf("%w: %q", ErrInvalidIntakeStatus, r.Status)
	}
	if r.TakenAt.IsZero() {
		return errors.New("model: intake taken_at is required")
	}
	return nil
}
