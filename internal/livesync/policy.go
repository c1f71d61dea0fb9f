package livesync

import (
	"time"

	"github.com/cenkalti/backoff/v4"
)

const (
	DefaultMaxReconnects  = 5
	DefaultReconnectDelay = 3 * time.Second
)

// Policy bounds reconnect attempts. After MaxRetries failed reconnects the client gives up.
type Policy struct {
	MaxRetries  int
	Delay       time.Duration
	Exponential bool
}

// DefaultPolicy retries five times with a fixed three second delay.
func DefaultPolicy() Policy {
	return Policy{MaxRetries: DefaultMaxReconnects, Delay: DefaultReconnectDelay}
}

// NewBackOff builds a fresh retry schedule. NextBackOff returns backoff.Stop once retries are exhausted.
func (p Policy) NewBackOff() backoff.BackOff {
	delay := p.Delay
	if delay <= 0 {
		delay = DefaultReconnectDelay
	}
	retries := p.MaxRetries
	if retries < 0 {
		retries = 0
	}

	var b backoff.BackOff
	if p.Exponential {
		eb := backoff.NewExponentialBackOff()
		eb.InitialInterval = delay
		eb.MaxInterval = 10 * delay
		eb.MaxElapsedTime = 0
		eb.Reset()
		b = eb
	} else {
		b = backoff.NewConstantBackOff(delay)
	}
	return backoff.WithMaxRetries(b, uint64(retries))
}
