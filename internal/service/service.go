package service

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"strings"
	"time"

	"github.com/google/uuid"

	"github.com/sandeepkv93/dosed/internal/dose"
	"github.com/sandeepkv93/dosed/internal/history"
	"github.com/sandeepkv93/dosed/internal/model"
	"github.com/sandeepkv93/dosed/internal/storage"
)

var (
	ErrInvalidInput = errors.New("service: invalid input")
	ErrNotFound     = errors.New("service: not found")
	ErrAmbiguous    = errors.New("service: ambiguous reference")
)

type Clock func() time.Time

type Option func(*Service)

func WithClock(c Clock) Option {
	return func(s *Service) {
		if c != nil {
			s.now = c
		}
	}
}

func WithPolicy(p dose.Policy) Option {
	return func(s *Service) { s.policy = p }
}

func WithLogger(l *slog.Logger) Option {
	return func(s *Service) {
		if l != nil {
			s.log = l
		}
	}
}

// Service is the use-case layer shared by the TUI, the CLI and the MCP tools.
type Service struct {
	repo   storage.Repository
	now    Clock
	policy dose.Policy
	log    *slog.Logger
}

func New(repo storage.Repository, opts ...Option) *Service {
	s := &Service{
		repo:   repo,
		now:    time.Now,
		policy: dose.DefaultPolicy(),
		log:    slog.Default(),
	}
	for _, opt := range opts {
		opt(s)
	}
	return s
}

func (s *Service) Now() time.Time { return s.now() }

func (s *Service) Policy() dose.Policy { return s.policy }

type AddReminderInput struct {
	MedicineName string
	Dosage       string
	Frequency    model.Frequency
	TimesOfDay   []string
	Notes        string
}

// AddReminder stores a new active reminder. A preset frequency without
// explicit times uses its default schedule; explicit times imply custom.
func (s *Service) AddReminder(ctx context.Context, in AddReminderInput) (model.Reminder, error) {
	name := strings.TrimSpace(in.MedicineName)
	if name == "" {
		return model.Reminder{}, fmt.Errorf("%w: medicine name is required", ErrInvalidInput)
	}

	freq := in.Frequency
	times := normalizeTimes(in.TimesOfDay)
	switch {
	case freq == "" && len(times) > 0:
		freq = model.FrequencyCustom
	case freq == "":
		freq = model.FrequencyOnceDaily
	}
	if !freq.IsValid() {
		return model.Reminder{}, fmt.Errorf("%w: %w", ErrInvalidInput, fmt.Errorf("%w: %q", model.ErrInvalidFrequency, freq))
	}
	if len(times) == 0 {
		times = freq.DefaultTimes()
	}
	if len(times) == 0 {
		return model.Reminder{}, fmt.Errorf("%w: custom frequency needs at least one time", ErrInvalidInput)
	}
	for i, raw := range times {
		tod, err := dose.ParseTimeOfDay(raw)
		if err != nil {
			return model.Reminder{}, fmt.Errorf("%w: %w", ErrInvalidInput, err)
		}
		times[i] = tod.String()
	}

	now := s.now()
	rem := model.Reminder{
		ID:           uuid.NewString(),
		MedicineName: name,
		Dosage:       strings.TrimSpace(in.Dosage),
		Frequency:    freq,
		TimesOfDay:   times,
		Notes:        strings.TrimSpace(in.Notes),
		Active:       true,
		CreatedAt:    now,
		UpdatedAt:    now,
	}
	if err := rem.Validate(); err != nil {
		return model.Reminder{}, fmt.Errorf("%w: %w", ErrInvalidInput, err)
	}
	if err := s.repo.CreateReminder(ctx, toStorageReminder(rem)); err != nil {
		return model.Reminder{}, fmt.Errorf("create reminder: %w", err)
	}
	s.log.Info("reminder added", "id", rem.ID, "medicine", rem.MedicineName, "times", strings.Join(rem.TimesOfDay, ","))
	return rem, nil
}

func (s *Service) ListReminders(ctx context.Context, activeOnly bool) ([]model.Reminder, error) {
	filter := storage.ReminderListFilter{}
	if activeOnly {
		active := true
		filter.Active = &active
	}
	rows, err := s.repo.ListReminders(ctx, filter)
	if err != nil {
		return nil, fmt.Errorf("list reminders: %w", err)
	}
	out := make([]model.Reminder, 0, len(rows))
	for _, row := range rows {
		out = append(out, fromStorageReminder(row))
	}
	return out, nil
}

func (s *Service) GetReminder(ctx context.Context, id string) (model.Reminder, error) {
	row, err := s.repo.GetReminder(ctx, id)
	if err != nil {
		return model.Reminder{}, mapNotFound(err)
	}
	return fromStorageReminder(row), nil
}

// FindReminder resolves ref as an exact id, a unique id prefix, or a
// case-insensitive medicine name.
func (s *Service) FindReminder(ctx context.Context, ref string) (model.Reminder, error) {
	ref = strings.TrimSpace(ref)
	if ref == "" {
		return model.Reminder{}, fmt.Errorf("%w: empty reminder reference", ErrInvalidInput)
	}
	if rem, err := s.GetReminder(ctx, ref); err == nil {
		return rem, nil
	} else if !errors.Is(err, ErrNotFound) {
		return model.Reminder{}, err
	}

	all, err := s.ListReminders(ctx, false)
	if err != nil {
		return model.Reminder{}, err
	}
	var matches []model.Reminder
	for _, r := range all {
		if strings.EqualFold(r.MedicineName, ref) {
			matches = append(matches, r)
		}
	}
	if len(matches) == 0 {
		for _, r := range all {
			if strings.HasPrefix(r.ID, ref) {
				matches = append(matches, r)
			}
		}
	}
	switch len(matches) {
	case 0:
		return model.Reminder{}, fmt.Errorf("%w: reminder %q", ErrNotFound, ref)
	case 1:
		return matches[0], nil
	default:
		return model.Reminder{}, fmt.Errorf("%w: %q matches %d reminders", ErrAmbiguous, ref, len(matches))
	}
}

func (s *Service) SetActive(ctx context.Context, id string, active bool) (model.Reminder, error) {
	rem, err := s.GetReminder(ctx, id)
	if err != nil {
		return model.Reminder{}, err
	}
	if rem.Active == active {
		return rem, nil
	}
	rem.Active = active
	rem.UpdatedAt = s.now()
	if err := s.repo.UpdateReminder(ctx, toStorageReminder(rem)); err != nil {
		return model.Reminder{}, mapNotFound(err)
	}
	s.log.Info("reminder toggled", "id", rem.ID, "active", active)
	return rem, nil
}

func (s *Service) DeleteReminder(ctx context.Context, id string) error {
	if err := s.repo.DeleteReminder(ctx, id); err != nil {
		return mapNotFound(err)
	}
	s.log.Info("reminder deleted", "id", id)
	return nil
}

// RecordIntake logs a dose outcome for reminderID at the service clock's now.
func (s *Service) RecordIntake(ctx context.Context, reminderID string, status model.IntakeStatus, notes string) (model.IntakeRecord, error) {
	if !status.IsValid() {
		return model.IntakeRecord{}, fmt.Errorf("%w: %w", ErrInvalidInput, fmt.Errorf("%w: %q", model.ErrInvalidIntakeStatus, status))
	}
	rem, err := s.GetReminder(ctx, reminderID)
	if err != nil {
		return model.IntakeRecord{}, err
	}
	rec := model.IntakeRecord{
		ID:           uuid.NewString(),
		ReminderID:   rem.ID,
		MedicineName: rem.MedicineName,
		Status:       status,
		TakenAt:      s.now(),
		Notes:        strings.TrimSpace(notes),
	}
	if err := rec.Validate(); err != nil {
		return model.IntakeRecord{}, fmt.Errorf("%w: %w", ErrInvalidInput, err)
	}
	if err := s.repo.CreateIntake(ctx, toStorageIntake(rec)); err != nil {
		return model.IntakeRecord{}, fmt.Errorf("create intake: %w", err)
	}
	s.log.Info("intake recorded", "reminder", rem.ID, "status", status)
	return rec, nil
}

// History returns the newest intake records first; limit <= 0 means all.
func (s *Service) History(ctx context.Context, limit int) ([]model.IntakeRecord, error) {
	rows, err := s.repo.ListIntakes(ctx, storage.IntakeListFilter{Limit: limit})
	if err != nil {
		return nil, fmt.Errorf("list intakes: %w", err)
	}
	return fromStorageIntakes(rows), nil
}

func (s *Service) Summary(ctx context.Context, days int) (history.Summary, error) {
	now := s.now()
	since := history.Since(now, days)
	rows, err := s.repo.ListIntakes(ctx, storage.IntakeListFilter{Since: &since})
	if err != nil {
		return history.Summary{}, fmt.Errorf("list intakes: %w", err)
	}
	return history.Summarize(fromStorageIntakes(rows), now, days), nil
}

// Board evaluates every active reminder at the service clock's now.
func (s *Service) Board(ctx context.Context) (dose.Board, error) {
	reminders, err := s.ListReminders(ctx, true)
	if err != nil {
		return dose.Board{}, err
	}
	board := dose.EvaluateAll(reminders, s.now(), s.policy)
	for _, e := range board.Errors {
		s.log.Warn("skipping malformed dose time", "err", e)
	}
	return board, nil
}

func normalizeTimes(in []string) []string {
	out := make([]string, 0, len(in))
	for _, raw := range in {
		for _, part := range strings.Split(raw, ",") {
			if v := strings.TrimSpace(part); v != "" {
				out = append(out, v)
			}
		}
	}
	return out
}

func mapNotFound(err error) error {
	if errors.Is(err, storage.ErrNotFound) {
		return fmt.Errorf("%w: %w", ErrNotFound, err)
	}
	return err
}

func toStorageReminder(r model.Reminder) storage.Reminder {
	return storage.Reminder{
		ID:           r.ID,
		MedicineName: r.MedicineName,
		Dosage:       r.Dosage,
		Frequency:    string(r.Frequency),
		TimesOfDay:   append([]string(nil), r.TimesOfDay...),
		Notes:        r.Notes,
		Active:       r.Active,
		CreatedAt:    r.CreatedAt,
		UpdatedAt:    r.UpdatedAt,
	}
}

func fromStorageReminder(r storage.Reminder) model.Reminder {
	return model.Reminder{
		ID:           r.ID,
		MedicineName: r.MedicineName,
		Dosage:       r.Dosage,
		Frequency:    model.Frequency(r.Frequency),
		TimesOfDay:   r.TimesOfDay,
		Notes:        r.Notes,
		Active:       r.Active,
		CreatedAt:    r.CreatedAt,
		UpdatedAt:    r.UpdatedAt,
	}
}

func toStorageIntake(r model.IntakeRecord) storage.Intake {
	return storage.Intake{
		ID:           r.ID,
		ReminderID:   r.ReminderID,
		MedicineName: r.MedicineName,
		Status:       string(r.Status),
		TakenAt:      r.TakenAt,
		Notes:        r.Notes,
	}
}

func fromStorageIntakes(rows []storage.Intake) []model.IntakeRecord {
	out := make([]model.IntakeRecord, 0, len(rows))
	for _, r := range rows {
		out = append(out, model.IntakeRecord{
			ID:           r.ID,
			ReminderID:   r.ReminderID,
			MedicineName: r.MedicineName,
			Status:       model.IntakeStatus(r.Status),
			TakenAt:      r.TakenAt,
			Notes:        r.Notes,
		})
	}
	return out
}
