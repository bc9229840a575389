package scraper

import (
	"context"
	"time"
)

// Sleeper blocks for d or until ctx is done
type Sleeper func(ctx context.Context, d time.Duration) error

// RealSleep is the wall-clock Sleeper
func RealSleep(ctx context.Context, d time.Duration) error {
	if d <= 0 {
		return ctx.Err()
	}
	timer := time.NewTimer(d)
	defer timer.Stop()

	select {
	case <-ctx.Done():
		return ctx.Err()
	case <-timer.C:
		return nil
	}
}

// Pacer applies the fixed delays observed after each entry and each page
type Pacer struct {
	EntryDelay time.Duration
	PageDelay  time.Duration
	Sleep      Sleeper
}

// AfterEntry waits the inter-entry delay
func (p Pacer) AfterEntry(ctx context.Context) error {
	return p.sleep(ctx, p.EntryDelay)
}

// AfterPage waits the inter-page delay
func (p Pacer) AfterPage(ctx context.Context) error {
	return p.sleep(ctx, p.PageDelay)
}

func (p Pacer) sleep(ctx context.Context, d time.Duration) error {
	if p.Sleep == nil {
		return RealSleep(ctx, d)
	}
	return p.Sleep(ctx, d)
}
