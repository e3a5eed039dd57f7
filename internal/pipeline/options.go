package pipeline

import (
	"log/slog"
	"time"

	"github.com/google/uuid"

	"github.com/MrJamesThe3rd/cobranzas/internal/stage"
)

type settings struct {
	now      func() time.Time
	newRunID func() string
}

func defaultSettings() settings {
	return settings{
		now:      func() time.Time { return time.Now().UTC() },
		newRunID: uuid.NewString,
	}
}

type Option func(*settings)

// WithClock replaces the wall clock used for stage timestamps and snapshot dates.
func WithClock(now func() time.Time) Option {
	return func(s *settings) {
		s.now = now
	}
}

func WithRunID(newRunID func() string) Option {
	return func(s *settings) {
		s.newRunID = newRunID
	}
}

func newSettings(opts []Option) settings {
	s := defaultSettings()
	for _, opt := range opts {
		opt(&s)
	}

	return s
}

// finish stamps the stage and writes its artifact pair into dir.
func (s settings) finish(dir, name string, started time.Time, metrics stage.Metrics) error {
	r := stage.Result{
		Name:       name,
		StartedAt:  started,
		FinishedAt: s.now(),
		Metrics:    metrics,
	}

	if err := stage.WriteArtifact(dir, r); err != nil {
		return err
	}

	attrs := []any{"stage", name, "duration", r.FinishedAt.Sub(r.StartedAt)}
	for _, m := range metrics {
		attrs = append(attrs, m.Name, m.Value)
	}

	slog.Info("stage finished", attrs...)

	return nil
}
