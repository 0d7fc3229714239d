// Package opener hands a path or URL to the platform's default handler.
// It is fire and forget: the launched process is not waited on.
package opener

import (
	"errors"

	"go.uber.org/zap"
)

// ErrNoDisplay is returned when no graphical session is detected
var ErrNoDisplay = errors.New("no display detected")

// Opener opens a path or URL outside the process.
type Opener interface {
	Open(target string) error
}

// System opens targets with xdg-open, open or rundll32.
type System struct {
	logger *zap.Logger

	// swapped in tests
	start      func(target string) error
	hasDisplay func() bool
}

// NewSystem returns the platform opener.
func NewSystem(logger *zap.Logger) *System {
	if logger == nil {
		logger = zap.NewNop()
	}
	return &System{
		logger:     logger.Named("opener"),
		start:      open,
		hasDisplay: hasDisplay,
	}
}

// Open launches the default handler for target and returns immediately.
func (s *System) Open(target string) error {
	if !s.hasDisplay() {
		s.logger.Debug("skipping open: no display detected", zap.String("target", target))
		return ErrNoDisplay
	}
	if err := s.start(target); err != nil {
		s.logger.Debug("could not open", zap.String("target", target), zap.Error(err))
		return err
	}
	return nil
}
