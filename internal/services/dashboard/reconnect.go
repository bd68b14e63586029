package dashboard

import (
	"sync"
	"time"

	"github.com/cenkalti/backoff/v4"
)

const (
	PolicyConstant    = "constant"
	PolicyExponential = "exponential"
)

// ReconnectPolicy yields the delay before the next reconnection attempt.
// The constant policy always waits the same delay, with no jitter and no
// retry cap.
type ReconnectPolicy struct {
	mu    sync.Mutex
	bo    backoff.BackOff
	delay time.Duration
}

func NewReconnectPolicy(kind string, delay time.Duration) *ReconnectPolicy {
	if delay <= 0 {
		delay = DefaultReconnectDelay
	}
	var bo backoff.BackOff
	switch kind {
	case PolicyExponential:
		eb := backoff.NewExponentialBackOff()
		eb.InitialInterval = delay
		eb.MaxInterval = 10 * delay
		eb.RandomizationFactor = 0
		eb.MaxElapsedTime = 0 // mai Stop
		bo = eb
	default:
		bo = backoff.NewConstantBackOff(delay)
	}
	bo.Reset()
	return &ReconnectPolicy{bo: bo, delay: delay}
}

// Next returns the wait before the next attempt.
func (p *ReconnectPolicy) Next() time.Duration {
	p.mu.Lock()
	defer p.mu.Unlock()
	d := p.bo.NextBackOff()
	if d == backoff.Stop {
		return p.delay
	}
	return d
}

// Reset is called after a successful open.
func (p *ReconnectPolicy) Reset() {
	p.mu.Lock()
	p.bo.Reset()
	p.mu.Unlock()
}
