package service

import (
	"context"
	"fmt"

	"marketdesk/pkg/logger"
)

// Notifier pushes human-readable alerts to an operator channel.
type Notifier interface {
	Send(ctx context.Context, text string) error
	Sendf(ctx context.Context, format string, args ...any) error
}

// Stdout is the fallback when no bot token is configured.
type Stdout struct{}

func NewStdout() *Stdout { return &Stdout{} }

func (s *Stdout) Send(_ context.Context, text string) error {
	logger.Info("notify: %s", text)
	return nil
}

func (s *Stdout) Sendf(ctx context.Context, format string, args ...any) error {
	return s.Send(ctx, fmt.Sprintf(format, args...))
}
