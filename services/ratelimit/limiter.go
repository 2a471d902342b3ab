package ratelimit

import (
	"fmt"
	"sync"
	"time"
)

// Window represents the time window for rate limiting
type Window string

const (
	WindowMinute Window = "minute"
	WindowHour   Window = "hour"
	WindowDay    Window = "day"
)

// Config holds the request limits per window. Zero disables a window.
type Config struct {
	RequestsPerMinute int
	RequestsPerHour   int
	RequestsPerDay    int
}

// Enabled reports whether any window is limited
func (c Config) Enabled() bool {
	return c.RequestsPerMinute > 0 || c.RequestsPerHour > 0 || c.RequestsPerDay > 0
}

// Result represents the result of a rate limit check
type Result struct {
	Allowed           bool
	RequestsRemaining int
	ResetAt           time.Time
	ViolatedWindow    Window
	ViolationReason   string
}

// Limiter is an in-process sliding window limiter. Allow records the request
// when it is admitted, so checks and records never race.
type Limiter struct {
	config Config
	now    func() time.Time

	mu     sync.Mutex
	events []time.Time
}

// NewLimiter creates a limiter for config
func NewLimiter(config Config) *Limiter {
	return &Limiter{config: config, now: time.Now}
}

// Allow checks every configured window and records the request if all pass
func (l *Limiter) Allow() Result {
	l.mu.Lock()
	defer l.mu.Unlock()

	now := l.now()
	l.prune(now)

	checks := []struct {
		window Window
		limit  int
	}{
		{WindowMinute, l.config.RequestsPerMinute},
		{WindowHour, l.config.RequestsPerHour},
		{WindowDay, l.config.RequestsPerDay},
	}

	remaining := -1
	for _, c := range checks {
		if c.limit <= 0 {
			continue
		}
		start, reset := windowBounds(now, c.window)
		count := l.countSince(start)
		if count >= c.limit {
			return Result{
				Allowed:         false,
				ResetAt:         reset,
				ViolatedWindow:  c.window,
				ViolationReason: fmt.Sprintf("exceeded %d requests per %s", c.limit, c.window),
			}
		}
		if left := c.limit - count - 1; remaining < 0 || left < remaining {
			remaining = left
		}
	}

	l.events = append(l.events, now)
	return Result{Allowed: true, RequestsRemaining: remaining}
}

// Usage returns the admitted requests in each window
func (l *Limiter) Usage() UsageStats {
	l.mu.Lock()
	defer l.mu.Unlock()

	now := l.now()
	minuteStart, _ := windowBounds(now, WindowMinute)
	hourStart, _ := windowBounds(now, WindowHour)
	dayStart, _ := windowBounds(now, WindowDay)
	return UsageStats{
		RequestsLastMinute: l.countSince(minuteStart),
		RequestsLastHour:   l.countSince(hourStart),
		RequestsLastDay:    l.countSince(dayStart),
	}
}

// UsageStats represents current usage statistics
type UsageStats struct {
	RequestsLastMinute int
	RequestsLastHour   int
	RequestsLastDay    int
}

// events is sorted, so everything older than a day sits at the front
func (l *Limiter) prune(now time.Time) {
	dayStart, _ := windowBounds(now, WindowDay)
	i := 0
	for i < len(l.events) && l.events[i].Before(dayStart) {
		i++
	}
	l.events = l.events[i:]
}

func (l *Limiter) countSince(start time.Time) int {
	count := 0
	for i := len(l.events) - 1; i >= 0; i-- {
		if l.events[i].Before(start) {
			break
		}
		count++
	}
	return count
}

// windowBounds returns the start and reset time for a time window
func windowBounds(now time.Time, window Window) (start time.Time, reset time.Time) {
	switch window {
	case WindowMinute:
		start = now.Add(-1 * time.Minute)
		reset = now.Truncate(time.Minute).Add(time.Minute)
	case WindowHour:
		start = now.Add(-1 * time.Hour)
		reset = now.Truncate(time.Hour).Add(time.Hour)
	case WindowDay:
		start = now.Add(-24 * time.Hour)
		reset = now.Truncate(24 * time.Hour).Add(24 * time.Hour)
	}
	return start, reset
}
