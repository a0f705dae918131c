package model

import (
	"errors"
	"fmt"
	"strings"
	"time"
)

var ErrInvalidFrequency = errors.New("model: invalid reminder frequency")

type Frequency string

const (
	FrequencyOnceDaily       Frequency = "once_daily"
	FrequencyTwiceDaily      Frequency = "twice_daily"
	FrequencyThreeTimesDaily Frequency = "three_times_daily"
	FrequencyCustom          Frequency = "custom"
)

func (f Frequency) IsValid() bool {
	switch f {
	case FrequencyOnceDaily, FrequencyTwiceDaily, FrequencyThreeTimesDaily, FrequencyCustom:
		return true
	default:
		return false
	}
}

// DefaultTimes returns the preset schedule for f, or nil for custom.
func (f Frequency) DefaultTimes() []string {
	switch f {
	case FrequencyOnceDaily:
		return []string{"08:00"}
	case FrequencyTwiceDaily:
		return []string{"08:00", "20:00"}
	case FrequencyThreeTimesDaily:
		return []string{"08:00", "14:00", "20:00"}
	default:
		return nil
	}
}

func (f Frequency) Label() string {
	switch f {
	case FrequencyOnceDaily:
		return "Once daily"
	case FrequencyTwiceDaily:
		return "Twice daily"
	case FrequencyThreeTimesDaily:
		return "Three times daily"
	case FrequencyCustom:
		return "Custom"
	default:
		return string(f)
	}
}

type Reminder struct {
	ID           string
	MedicineName string
	Dosage       string
	Frequency    Frequency
	TimesOfDay   []string
	Notes        string
	Active       bool
	CreatedAt    time.Time
	UpdatedAt    time.Time
}

// Validate checks structural fields only; time-of-day syntax is checked by
// the dose package.
func (r Reminder) Validate() error {
	if strings.TrimSpace(r.ID) == "" {
		return errors.New("model: reminder id is required")
	}
	if strings.TrimSpace(r.MedicineName) == "" {
		return errors.New("model: reminder medicine_name is required")
	}
	if !r.Frequency.IsValid() {
		return fmt.Errorf("%w: %q", ErrInvalidFrequency, r.Frequency)
	}
	if len(r.TimesOfDay) == 0 {
		return errors.New("model: reminder needs at least one time_of_day")
	}
	return nil
}
