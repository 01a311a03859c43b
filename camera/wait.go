// Package camera provides frame sources and the colour classifier that turns
// frames into target masks.
package camera

import (
	"context"
	"time"

	"github.com/benbjohnson/clock"
	"github.com/pkg/errors"

	"github.com/LdDl/sot-go/sot"
)

// WaitFor polls ready every interval until it reports true, the timeout
// elapses or ctx is done. On timeout it returns an error wrapping
// sot.ErrCaptureTimeout.
func WaitFor(ctx context.Context, clk clock.Clock, timeout, interval time.Duration, ready func() bool) error {
	if ready() {
		return nil
	}
	deadline := clk.Timer(timeout)
	defer deadline.Stop()
	ticker := clk.Ticker(interval)
	defer ticker.Stop()
	for {
		select {
		case <-ctx.Done():
			return ctx.Err()
		case <-deadline.C:
			if ready() {
				return nil
			}
			return errors.Wrapf(sot.ErrCaptureTimeout, "no capture-complete signal after %s", timeout)
		case <-ticker.C:
			if ready() {
				return nil
			}
		}
	}
}
