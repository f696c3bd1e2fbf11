// ABOUTME: Sync schedule management - frequency validation and next-run derivation.
// ABOUTME: Daily runs at 06:00, weekly runs Sunday 06:00; manual disables the timer.
package sync

import (
	"fmt"
	"time"

	"github.com/google/uuid"
	"github.com/harperreed/biodash/internal/models"
	"github.com/harperreed/biodash/internal/storage"
	"github.com/robfig/cron/v3"
)

// Cron specs for the automatic sync daemon.
const (
	DailyCronSpec  = "0 6 * * *"
	WeeklyCronSpec = "0 6 * * 0"
)

// ScheduleStatus is a snapshot of an account's automatic sync settings.
type ScheduleStatus struct {
	Enabled    bool
	Frequency  string
	NextRun    *time.Time
	LastOura   *time.Time
	LastFitbit *time.Time
}

// Scheduler manages per-account sync schedules.
type Scheduler struct {
	repo storage.Repository
	Now  func() time.Time
}

// NewScheduler creates a scheduler backed by the given repository.
func NewScheduler(repo storage.Repository) *Scheduler {
	return &Scheduler{repo: repo, Now: time.Now}
}

// ValidateFrequency rejects anything but manual, daily, or weekly. Unlike
// benchmark strategies, an unknown frequency is a hard failure.
func ValidateFrequency(frequency string) error {
	if !models.IsValidFrequency(frequency) {
		return fmt.Errorf("invalid sync frequency %q (want manual, daily, or weekly)", frequency)
	}
	return nil
}

// CronSpec returns the cron expression for an automatic frequency, or an
// error for manual and unknown frequencies.
func CronSpec(frequency string) (string, error) {
	switch frequency {
	case models.FrequencyDaily:
		return DailyCronSpec, nil
	case models.FrequencyWeekly:
		return WeeklyCronSpec, nil
	default:
		return "", fmt.Errorf("frequency %q has no cron schedule", frequency)
	}
}

// NextRun derives the next automatic run time after now for a frequency.
// Manual returns nil: there is no timer.
func (s *Scheduler) NextRun(frequency string) (*time.Time, error) {
	if frequency == models.FrequencyManual {
		return nil, nil
	}
	spec, err := CronSpec(frequency)
	if err != nil {
		return nil, err
	}
	schedule, err := cron.ParseStandard(spec)
	if err != nil {
		return nil, fmt.Errorf("parse cron spec: %w", err)
	}
	next := schedule.Next(s.Now())
	return &next, nil
}

// Configure updates an account's sync schedule. Enabling with a manual
// frequency is rejected; disabling clears the next-run marker.
func (s *Scheduler) Configure(accountID uuid.UUID, enabled bool, frequency string) (*models.Account, error) {
	if err := ValidateFrequency(frequency); err != nil {
		return nil, err
	}
	if enabled && frequency == models.FrequencyManual {
		return nil, fmt.Errorf("cannot enable automatic sync with manual frequency")
	}

	account, err := s.repo.GetAccount(accountID)
	if err != nil {
		return nil, fmt.Errorf("configure schedule: %w", err)
	}

	account.SyncEnabled = enabled
	account.SyncFrequency = frequency
	account.NextScheduledSync = nil
	if enabled {
		next, err := s.NextRun(frequency)
		if err != nil {
			return nil, fmt.Errorf("configure schedule: %w", err)
		}
		account.NextScheduledSync = next
	}

	if err := s.repo.UpdateAccount(account); err != nil {
		return nil, fmt.Errorf("configure schedule: %w", err)
	}
	return account, nil
}

// Status reports an account's current schedule settings.
func (s *Scheduler) Status(accountID uuid.UUID) (*ScheduleStatus, error) {
	account, err := s.repo.GetAccount(accountID)
	if err != nil {
		return nil, fmt.Errorf("schedule status: %w", err)
	}
	return &ScheduleStatus{
		Enabled:    account.SyncEnabled,
		Frequency:  account.SyncFrequency,
		NextRun:    account.NextScheduledSync,
		LastOura:   account.LastOuraSync,
		LastFitbit: account.LastFitbitSync,
	}, nil
}
