package taskcenter

import "time"

// DefaultPollInterval is the fixed delay between fetches while work is outstanding
const DefaultPollInterval = 2 * time.Second

// Decision is the outcome of one scheduling evaluation
type Decision struct {
	Stop  bool
	Delay time.Duration
}

func (d Decision) String() string {
	if d.Stop {
		return "stop"
	}
	return d.Delay.String()
}

// PollPolicy decides when to fetch again. It keeps no memory between calls:
// every decision is derived from the snapshot it is given.
type PollPolicy struct {
	Interval time.Duration
}

func (p PollPolicy) interval() time.Duration {
	if p.Interval <= 0 {
		return DefaultPollInterval
	}
	return p.Interval
}

// NextDelay stops polling unless the snapshot holds a PENDING or PROCESSING task.
// A nil snapshot means nothing has been loaded yet.
func (p PollPolicy) NextDelay(snap *Snapshot) Decision {
	if snap == nil || snap.Len() == 0 || !snap.HasActive() {
		return Decision{Stop: true}
	}
	return Decision{Delay: p.interval()}
}

// AfterFailure keeps polling at the same cadence; a failed fetch says
// nothing about whether work is outstanding.
func (p PollPolicy) AfterFailure(err error) Decision {
	return Decision{Delay: p.interval()}
}
