package taskcenter

// Effect is a side effect requested by the detector
type Effect int

const (
	// EffectRefreshProfile asks for the user's quota and usage to be re-fetched
	EffectRefreshProfile Effect = iota + 1
)

func (e Effect) String() string {
	switch e {
	case EffectRefreshProfile:
		return "refresh_profile"
	default:
		return "unknown"
	}
}

// WatchSet builds the set of task types whose completions are tracked
func WatchSet(taskTypes ...string) map[string]struct{} {
	set := make(map[string]struct{}, len(taskTypes))
	for _, t := range taskTypes {
		set[t] = struct{}{}
	}
	return set
}

// Transition compares the previous completion counter with a new snapshot.
// Any increase yields exactly one profile refresh, however many tasks finished
// in between; an unchanged or lower count yields nothing.
func Transition(previous int, snap Snapshot, watched map[string]struct{}) (int, []Effect) {
	candidate := snap.CountCompleted(watched)
	if candidate > previous {
		return candidate, []Effect{EffectRefreshProfile}
	}
	return candidate, nil
}

// Detector carries the completion counter across snapshots. The first
// snapshot after construction only seeds the counter.
type Detector struct {
	watched map[string]struct{}
	counter int
	seeded  bool
}

func NewDetector(taskTypes ...string) *Detector {
	return &Detector{watched: WatchSet(taskTypes...)}
}

// Observe feeds one successfully fetched snapshot and returns the effects to run
func (d *Detector) Observe(snap Snapshot) []Effect {
	if !d.seeded {
		d.counter = snap.CountCompleted(d.watched)
		d.seeded = true
		return nil
	}
	var effects []Effect
	d.counter, effects = Transition(d.counter, snap, d.watched)
	return effects
}

// Counter returns the current completion count and whether it has been seeded
func (d *Detector) Counter() (int, bool) {
	return d.counter, d.seeded
}
