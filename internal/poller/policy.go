package poller

import (
	"time"

	"github.com/sethvargo/go-retry"
)

// DefaultInterval is the delay between a "processing" answer and the next query.
const DefaultInterval = 2 * time.Second

// Policy controls how follow-up polls are scheduled.
//
// The zero value (and DefaultPolicy) polls every DefaultInterval with no
// upper bound. Setting MaxInterval above Interval switches to exponential
// backoff capped at MaxInterval. MaxAttempts bounds the number of follow-up
// polls; SlowAfter marks the watcher state as slow once the job has been
// processing for that long.
type Policy struct {
	Interval    time.Duration `yaml:"interval"`
	MaxInterval time.Duration `yaml:"maxInterval"`
	MaxAttempts uint64        `yaml:"maxAttempts"`
	SlowAfter   time.Duration `yaml:"slowAfter"`
}

func DefaultPolicy() Policy {
	return Policy{Interval: DefaultInterval}
}

func (p Policy) interval() time.Duration {
	if p.Interval <= 0 {
		return DefaultInterval
	}
	return p.Interval
}

// backoff builds a fresh schedule for one watcher run.
func (p Policy) backoff() retry.Backoff {
	interval := p.interval()

	var b retry.Backoff
	if p.MaxInterval > interval {
		b = retry.NewExponential(interval)
		b = retry.WithCappedDuration(p.MaxInterval, b)
	} else {
		b = retry.NewConstant(interval)
	}
	if p.MaxAttempts > 0 {
		b = retry.WithMaxRetries(p.MaxAttempts, b)
	}
	return b
}
