package helpers

import (
	"context"
	"time"

	"github.com/golang/glog"
)

// Backoff describes how long to wait between connection attempts. The delay
// starts at Initial and doubles after every failure until it reaches Max.
type Backoff struct {
	Initial time.Duration
	Max     time.Duration
}

// Next returns the delay that follows d
func (b Backoff) Next(d time.Duration) time.Duration {
	if d <= 0 {
		return b.Initial
	}

	d *= 2
	if b.Max > 0 && d > b.Max {
		return b.Max
	}
	return d
}

// Retry calls fn until it returns nil or ctx is done. It never gives up on
// its own. The error returned is ctx.Err() when cancelled, otherwise nil.
func Retry(
	ctx context.Context,
	b Backoff,
	name string,
	fn func(context.Context) error,
) error {

	var delay time.Duration
	for attempt := 1; ; attempt++ {
		err := fn(ctx)
		if err == nil {
			if attempt > 1 {
				glog.Infof("%s connected after %d attempts", name, attempt)
			}
			return nil
		}

		delay = b.Next(delay)
		glog.Errorf(
			"%s connection failed (attempt %d), retrying in %s: %+v",
			name,
			attempt,
			delay,
			err,
		)

		t := time.NewTimer(delay)
		select {
		case <-ctx.Done():
			t.Stop()
			return ctx.Err()
		case <-t.C:
		}
	}
}
