package emu

import (
	"context"
	"time"
)

// FrameRate is the DMG refresh rate: 4194304 Hz / 70224 cycles per frame.
const FrameRate = 4194304.0 / 70224.0

// Pacer releases frames at a fixed rate. It tracks an absolute deadline so
// short sleeps do not accumulate drift, and resynchronizes after falling
// more than a few frames behind.
type Pacer struct {
	period time.Duration
	next   time.Time
	now    func() time.Time
}

// NewPacer returns a pacer running at fps frames per second; fps <= 0 uses FrameRate.
func NewPacer(fps float64) *Pacer {
	if fps <= 0 {
		fps = FrameRate
	}
	return &Pacer{period: time.Duration(float64(time.Second) / fps), now: time.Now}
}

// Period is the time between frames.
func (p *Pacer) Period() time.Duration { return p.period }

// Wait blocks until the next frame is due or ctx is done.
func (p *Pacer) Wait(ctx context.Context) error {
	now := p.now()
	if p.next.IsZero() || now.Sub(p.next) > 4*p.period {
		p.next = now
	}
	p.next = p.next.Add(p.period)
	d := p.next.Sub(now)
	if d <= 0 {
		return ctx.Err()
	}
	t := time.NewTimer(d)
	defer t.Stop()
	select {
	case <-ctx.Done():
		return ctx.Err()
	case <-t.C:
		return nil
	}
}
