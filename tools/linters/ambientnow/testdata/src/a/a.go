package a

import (
	"time"
	clock "time"
)

type Classifier struct {
	now func() time.Time
}

func bad() {
	_ = time.Now() // want "direct time.Now\\(\\) call; use an injected clock"
}

func badUTC() {
	_ = time.Now().UTC() // want "direct time.Now\\(\\) call; use an injected clock"
}

func badAlias() {
	_ = clock.Now() // want "direct time.Now\\(\\) call; use an injected clock"
}

func goodDefaultClock() *Classifier {
	return &Classifier{now: time.Now}
}

func goodInjected(c *Classifier) time.Time {
	return c.now()
}

func goodSince(start time.Time) time.Duration {
	return time.Since(start)
}

type fake struct{}

func (fake) Now() time.Time { return time.Time{} }

func goodOtherNow() {
	var f fake
	_ = f.Now()
}

func nolintGeneral() {
	//nolint
	_ = time.Now()
}

func nolintSpecific() {
	_ = time.Now() //nolint:ambientnow
}

func nolintOtherLinter() {
	_ = time.Now() //nolint:otherlinter // want "direct time.Now\\(\\) call; use an injected clock"
}
