package queue

import (
	"time"
)

// Options holds configuration for job enqueueing and registration.
type Options struct {
	Queue         string
	Delay         time.Duration
	RunAt         *time.Time
	Timeout       time.Duration
	RetryDelay    time.Duration
	MaxRetryDelay time.Duration
}

// NewOptions creates Options with defaults. Timeout and retry delays left
// at zero fall back to the environment-derived executor defaults.
func NewOptions() *Options {
	return &Options{
		Queue: "default",
	}
}

// Option modifies Options.
type Option interface {
	Apply(*Options)
}

type optionFunc func(*Options)

func (f optionFunc) Apply(o *Options) { f(o) }

// QueueOpt sets the queue name.
func QueueOpt(name string) Option {
	return optionFunc(func(o *Options) {
		o.Queue = name
	})
}

// Delay schedules the job to run after a duration.
func Delay(d time.Duration) Option {
	return optionFunc(func(o *Options) {
		o.Delay = d
	})
}

// At schedules the job to run at a specific time.
func At(t time.Time) Option {
	return optionFunc(func(o *Options) {
		o.RunAt = &t
	})
}

// Timeout bounds each attempt of the job's task. Zero means no bound.
func Timeout(d time.Duration) Option {
	return optionFunc(func(o *Options) {
		o.Timeout = d
	})
}

// RetryDelay sets the initial delay before the first retry. The delay
// doubles after each subsequent failure.
func RetryDelay(d time.Duration) Option {
	return optionFunc(func(o *Options) {
		o.RetryDelay = d
	})
}

// MaxRetryDelay caps the doubling retry delay. Zero means uncapped.
func MaxRetryDelay(d time.Duration) Option {
	return optionFunc(func(o *Options) {
		o.MaxRetryDelay = d
	})
}
