package servo

import (
	"context"
	"sync"

	"github.com/edaniels/golog"

	"github.com/LdDl/sot-go/sot"
)

// Fake is an in-memory servo that records every commanded angle
type Fake struct {
	mu      sync.Mutex
	name    string
	logger  golog.Logger
	history []uint8
}

var _ sot.Axis = (*Fake)(nil)

// NewFake creates a fake servo. logger may be nil.
func NewFake(name string, logger golog.Logger) *Fake {
	return &Fake{name: name, logger: logger}
}

// Move records angleDeg
func (f *Fake) Move(ctx context.Context, angleDeg uint8) error {
	if err := ctx.Err(); err != nil {
		return err
	}
	f.mu.Lock()
	defer f.mu.Unlock()
	f.history = append(f.history, angleDeg)
	if f.logger != nil {
		f.logger.Debugw("fake servo moved", "servo", f.name, "angle", angleDeg)
	}
	return nil
}

// Position returns the last commanded angle, zero if none
func (f *Fake) Position() uint8 {
	f.mu.Lock()
	defer f.mu.Unlock()
	if len(f.history) == 0 {
		return 0
	}
	return f.history[len(f.history)-1]
}

// History returns a copy of every commanded angle in order
func (f *Fake) History() []uint8 {
	f.mu.Lock()
	defer f.mu.Unlock()
	return append([]uint8(nil), f.history...)
}

// Close is a no-op
func (f *Fake) Close() error {
	return nil
}
