package storage

import "time"

type Reminder struct {
	ID           string
	MedicineName string
	Dosage       string
	Frequency    string
	TimesOfDay   []string
	Notes        string
	Active       bool
	CreatedAt    time.Time
	UpdatedAt    time.Time
}

type Intake struct {
	ID           string
	ReminderID   string
	MedicineName string
	Status       string
	TakenAt      time.Time
	Notes        string
}

type ReminderListFilter struct {
	Active *bool
	Limit  int
	Offset int
}

type IntakeListFilter struct {
	ReminderID string
	Since      *time.Time
	Limit      int
	Offset     int
}
