package scheduler

import "time"

// Options tunes the bounded sweeps performed by the slot suggester. The zero
// value is replaced with the defaults below.
type Options struct {
	// Location anchors working-window arithmetic. Defaults to the server's
	// local zone.
	Location *time.Location
	// WorkdayStartHour and WorkdayEndHour bound the daily probe window for
	// single-schedule suggestions. Defaults: 8 and 18.
	WorkdayStartHour int
	WorkdayEndHour   int
	// HorizonDays bounds the single-schedule suggestion search. Default: 7.
	HorizonDays int
	// GroupRangeDays bounds the common-slot search when the caller supplies
	// no explicit range end. Default: 14.
	GroupRangeDays int
	// MaxSuggestions caps every suggestion list. Default: 5.
	MaxSuggestions int
}

func (o Options) withDefaults() Options {
	if o.Location == nil {
		o.Location = time.Local
	}
	if o.WorkdayStartHour <= 0 {
		o.WorkdayStartHour = 8
	}
	if o.WorkdayEndHour <= 0 {
		o.WorkdayEndHour = 18
	}
	if o.HorizonDays <= 0 {
		o.HorizonDays = 7
	}
	if o.GroupRangeDays <= 0 {
		o.GroupRangeDays = 14
	}
	if o.MaxSuggestions <= 0 {
		o.MaxSuggestions = 5
	}
	return o
}

// Engine runs overlap detection, slot suggestion, and conflict resolution
// against an event store snapshot. It holds no mutable state and is safe for
// concurrent use; every operation is a pure function of its inputs plus the
// store reads it performs.
type Engine struct {
	store EventStore
	opts  Options
	now   func() time.Time
}

// NewEngine wires an engine over the provided event store. When now is nil,
// time.Now is used.
func NewEngine(store EventStore, opts Options, now func() time.Time) *Engine {
	if now == nil {
		now = time.Now
	}
	return &Engine{store: store, opts: opts.withDefaults(), now: now}
}
