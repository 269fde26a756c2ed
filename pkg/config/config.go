// Package config provides environment-derived defaults for taskloop.
//
// Defaults are read from the process environment so that deployments can
// tune executor behavior without code changes:
//
//	TASKLOOP_TIMEOUT_MS       default per-attempt timeout (0 disables it)
//	TASKLOOP_RETRY_MS         initial retry delay (default 1)
//	TASKLOOP_RETRY_CEILING_MS maximum retry delay (0 = unbounded growth)
//	TASKLOOP_MONITOR_OFF      any non-empty value disables telemetry emission
package config

import (
	"fmt"
	"os"
	"strconv"
	"time"
)

// Environment variable names.
const (
	EnvTimeoutMS      = "TASKLOOP_TIMEOUT_MS"
	EnvRetryMS        = "TASKLOOP_RETRY_MS"
	EnvRetryCeilingMS = "TASKLOOP_RETRY_CEILING_MS"
	EnvMonitorOff     = "TASKLOOP_MONITOR_OFF"
)

// Defaults holds the environment-derived executor defaults.
type Defaults struct {
	// Timeout is the default per-attempt deadline. Zero disables the timeout.
	Timeout time.Duration

	// InitialDelay is the delay before the first retry.
	InitialDelay time.Duration

	// MaxDelay caps backoff growth. Zero means unbounded.
	MaxDelay time.Duration

	// MonitoringDisabled suppresses all telemetry emission when set.
	MonitoringDisabled bool
}

// Load reads defaults from the environment. A variable that is set but does
// not parse to a non-negative integer is a configuration error.
func Load() (Defaults, error) {
	d := Defaults{
		Timeout:      0,
		InitialDelay: time.Millisecond,
		MaxDelay:     0,
	}

	timeout, err := millisEnv(EnvTimeoutMS, 0)
	if err != nil {
		return d, err
	}
	d.Timeout = timeout

	initial, err := millisEnv(EnvRetryMS, time.Millisecond)
	if err != nil {
		return d, err
	}
	if initial <= 0 {
		return d, fmt.Errorf("config: %s must be positive", EnvRetryMS)
	}
	d.InitialDelay = initial

	ceiling, err := millisEnv(EnvRetryCeilingMS, 0)
	if err != nil {
		return d, err
	}
	d.MaxDelay = ceiling

	d.MonitoringDisabled = os.Getenv(EnvMonitorOff) != ""

	return d, nil
}

// millisEnv parses a millisecond count from the environment, returning the
// fallback when the variable is unset.
func millisEnv(name string, fallback time.Duration) (time.Duration, error) {
	raw, ok := os.LookupEnv(name)
	if !ok || raw == "" {
		return fallback, nil
	}

	ms, err := strconv.Atoi(raw)
	if err != nil {
		return 0, fmt.Errorf("config: %s=%q is not an integer", name, raw)
	}
	if ms < 0 {
		return 0, fmt.Errorf("config: %s must be non-negative, got %d", name, ms)
	}
	return time.Duration(ms) * time.Millisecond, nil
}
