package taskloop

import (
	"time"

	"github.com/taskloop/taskloop/pkg/schedule"
)

// Schedule defines when a recurring job should run next.
type Schedule = schedule.Schedule

// Every creates a schedule that runs at fixed intervals.
func Every(d time.Duration) Schedule {
	return schedule.Every(d)
}

// Daily creates a schedule that runs at a specific time each day.
func Daily(hour, minute int) Schedule {
	return schedule.Daily(hour, minute)
}

// Weekly creates a schedule that runs at a specific day and time each week.
func Weekly(day time.Weekday, hour, minute int) Schedule {
	return schedule.Weekly(day, hour, minute)
}

// Cron creates a schedule from a standard 5-field cron expression.
func Cron(expr string) Schedule {
	return schedule.Cron(expr)
}
