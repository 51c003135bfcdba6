// Package reminder runs the daily SMS reminder job.
package reminder

import (
	"context"
	"fmt"
	"time"

	"golang.org/x/sync/errgroup"

	"saveit/internal/logger"
	"saveit/internal/metrics"
	"saveit/internal/models"
	"saveit/internal/notifier"
	"saveit/internal/pagination"
	"saveit/internal/remote"
	"saveit/internal/week"
)

// Per-user outcomes.
const (
	StatusSent          = "sent"
	StatusAlreadyLogged = "already_logged"
	StatusNoPeriod      = "no_period"
	StatusFailed        = "failed"
)

// UserResult is the outcome for one user.
type UserResult struct {
	UserID    string `json:"userId"`
	Status    string `json:"status"`
	MessageID string `json:"messageId,omitempty"`
	Error     string `json:"error,omitempty"`
}

// RunResult summarizes one run.
type RunResult struct {
	Total         int           `json:"total"`
	Sent          int           `json:"sent"`
	AlreadyLogged int           `json:"already_logged"`
	NoPeriod      int           `json:"no_period"`
	Failed        int           `json:"failed"`
	Results       []UserResult  `json:"results"`
	Duration      time.Duration `json:"duration_ns"`
}

// Options tunes a Reminder. Zero values fall back to defaults.
type Options struct {
	AppURL      string
	PageSize    int
	Concurrency int
	Location    *time.Location
	Now         func() time.Time
}

// Reminder texts every opted-in user who has not logged today.
type Reminder struct {
	profiles remote.ProfileStore
	notifier notifier.Notifier
	opts     Options
}

// New creates a Reminder.
func New(profiles remote.ProfileStore, n notifier.Notifier, opts Options) *Reminder {
	if opts.PageSize < 1 {
		opts.PageSize = 100
	}
	if opts.Concurrency < 1 {
		opts.Concurrency = 5
	}
	if opts.Location == nil {
		opts.Location = time.Local
	}
	if opts.Now == nil {
		opts.Now = time.Now
	}
	return &Reminder{profiles: profiles, notifier: n, opts: opts}
}

// Message builds the reminder text.
func Message(daysLeft int, appURL string) string {
	return fmt.Sprintf("💰 Save It! Reminder\n\nDon't forget to log your expenses today!\n\n%d days left this week. Keep your streak going! 🔥\n\nLog now: %s",
		daysLeft, appURL)
}

// Run walks every page of reminder profiles. A failure for one user is
// recorded in its result; only listing errors abort the run.
func (r *Reminder) Run(ctx context.Context) (*RunResult, error) {
	started := time.Now()
	now := r.opts.Now().In(r.opts.Location)
	today := week.DayKey(now)

	result := &RunResult{Results: []UserResult{}}
	page := pagination.PageRequest{Page: 1, PageSize: r.opts.PageSize}
	for {
		resp, err := r.profiles.ListReminderProfiles(ctx, page)
		if err != nil {
			return nil, fmt.Errorf("listing reminder profiles: %w", err)
		}

		results := make([]UserResult, len(resp.Data))
		g, gctx := errgroup.WithContext(ctx)
		g.SetLimit(r.opts.Concurrency)
		for i := range resp.Data {
			i := i
			profile := resp.Data[i]
			g.Go(func() error {
				results[i] = r.remind(gctx, profile, now, today)
				return nil
			})
		}
		_ = g.Wait()

		for _, res := range results {
			result.add(res)
		}
		if !resp.HasNext() {
			break
		}
		page = page.Next()
	}

	result.Duration = time.Since(started)
	logger.Get().Infow("Daily reminders processed",
		"total", result.Total,
		"sent", result.Sent,
		"already_logged", result.AlreadyLogged,
		"no_period", result.NoPeriod,
		"failed", result.Failed,
		"duration", result.Duration,
	)
	return result, nil
}

func (r *Reminder) remind(ctx context.Context, profile models.UserProfile, now time.Time, today string) UserResult {
	res := UserResult{UserID: profile.UserID}
	if profile.PhoneNumber == nil || *profile.PhoneNumber == "" {
		res.Status, res.Error = StatusFailed, "no phone number"
		return res
	}

	period, err := r.profiles.LatestOpenPeriod(ctx, profile.UserID)
	if err != nil {
		res.Status, res.Error = StatusFailed, err.Error()
		logger.Get().Warnw("Failed to load period for reminder", "user_id", profile.UserID, "error", err)
		return res
	}
	if period == nil {
		res.Status = StatusNoPeriod
		return res
	}
	if metrics.HasLoggedOn(period, today) {
		res.Status = StatusAlreadyLogged
		return res
	}

	body := Message(metrics.DaysLeft(period, now), r.opts.AppURL)
	id, err := r.notifier.Send(notifier.WithUserID(ctx, profile.UserID), notifier.FormatPhone(*profile.PhoneNumber), body)
	if err != nil {
		res.Status, res.Error = StatusFailed, err.Error()
		logger.Get().Errorw("Failed to send reminder", "user_id", profile.UserID, "error", err)
		return res
	}
	res.Status, res.MessageID = StatusSent, id
	return res
}

func (r *RunResult) add(res UserResult) {
	r.Total++
	switch res.Status {
	case StatusSent:
		r.Sent++
	case StatusAlreadyLogged:
		r.AlreadyLogged++
	case StatusNoPeriod:
		r.NoPeriod++
	case StatusFailed:
		r.Failed++
	}
	r.Results = append(r.Results, res)
}
