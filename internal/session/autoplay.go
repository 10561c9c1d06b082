package session

import (
	"context"
	"time"
)

// SetAutoplay starts or stops the auto-advance timer. Disabling blocks until
// the timer goroutine has exited, so no tick fires after this returns. A tick
// that finds a step already in flight is skipped, never queued.
func (c *Controller) SetAutoplay(on bool) {
	c.mu.Lock()
	if on == c.autoplay {
		c.mu.Unlock()
		return
	}
	c.autoplay = on
	var stop chan chan struct{}
	if on {
		c.stopAuto = make(chan chan struct{}, 1)
		go c.autoplayLoop(c.stopAuto, c.opts.AutoplayPeriod)
	} else {
		stop = c.stopAuto
		c.stopAuto = nil
	}
	c.mu.Unlock()

	if stop != nil {
		done := make(chan struct{})
		stop <- done
		<-done
	}
	c.emit()
}

// Autoplay reports whether the timer is running.
func (c *Controller) Autoplay() bool {
	c.mu.Lock()
	defer c.mu.Unlock()
	return c.autoplay
}

func (c *Controller) autoplayLoop(stop chan chan struct{}, period time.Duration) {
	t := time.NewTicker(period)
	defer t.Stop()
	for {
		select {
		case done := <-stop:
			close(done)
			return
		case <-t.C:
			// re-check so a stop racing the tick wins
			select {
			case done := <-stop:
				close(done)
				return
			default:
			}
			c.autoTick()
		}
	}
}

// autoTick is one timer firing: advance one step, then refresh compliance so
// the regulatory panel tracks the run. A failing compliance poll must not
// stop the timer; its error lands in the compliance scope like any other.
func (c *Controller) autoTick() {
	ctx := context.Background()
	if !c.Busy(ActionStep) {
		c.run(ctx, ActionStep, "auto-advance", c.gw.Step)
	}
	c.RefreshCompliance(ctx)
}
