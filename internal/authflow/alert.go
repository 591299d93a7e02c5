package authflow

import (
	"context"
	"time"
)

type AlertKind int

const (
	AlertSuccess AlertKind = iota
	AlertError
)

func (k AlertKind) String() string {
	if k == AlertError {
		return "error"
	}
	return "success"
}

// Alert is a transient notification. The zero Alert means none.
type Alert struct {
	MessageKey string
	Kind       AlertKind
	CreatedAt  time.Time
}

// Alert returns the current alert and whether it is visible. A dismissed
// alert keeps its text, invisible, for the grace delay.
func (c *Controller) Alert() (Alert, bool) {
	return c.alert, c.alertVisible
}

// ShowAlert replaces the current alert and restarts the expiry timer.
// A non-positive duration uses the configured default.
func (c *Controller) ShowAlert(messageKey string, kind AlertKind, duration time.Duration) {
	if c.closed {
		return
	}
	if duration <= 0 {
		duration = c.alertDuration
	}
	c.stopAlertTimers()

	c.alert = Alert{MessageKey: messageKey, Kind: kind, CreatedAt: c.now()}
	c.alertVisible = true
	c.expiry = c.exec.AfterFunc(duration, c.DismissAlert)

	c.log.Debug(context.Background(), "alert shown", "key", messageKey, "kind", kind.String(), "duration", duration)
	c.publish()
}

// DismissAlert hides the alert now and clears its text after the grace
// delay. The expiry timer is canceled.
func (c *Controller) DismissAlert() {
	if c.closed {
		return
	}
	if c.expiry != nil {
		c.expiry.Stop()
		c.expiry = nil
	}
	if !c.alertVisible {
		return
	}
	c.alertVisible = false
	c.grace = c.exec.AfterFunc(c.graceDelay, func() {
		c.grace = nil
		c.alert = Alert{}
		c.publish()
	})
	c.log.Debug(context.Background(), "alert dismissed")
	c.publish()
}

func (c *Controller) stopAlertTimers() {
	if c.expiry != nil {
		c.expiry.Stop()
		c.expiry = nil
	}
	if c.grace != nil {
		c.grace.Stop()
		c.grace = nil
	}
}
