package breaker

import (
	"errors"
	"sync"
	"time"
)

type state uint8

const (
	closed state = iota + 1
	open
	halfOpen
)

var ErrOpen = errors.New("circuit breaker is open")

type Breaker interface {
	Call(fn func() error) error
	Reset()
}

// breaker trips after the failure share over the last window calls reaches
// threshold, stays open for cooldown, then closes again after recovery
// consecutive successes.
type breaker struct {
	mu sync.Mutex

	state           state
	window          []bool
	pos             int
	threshold       float64
	cooldown        time.Duration
	lastAttemptedAt time.Time
	recovery        int
	successCount    int
}

func New(window int, cooldown time.Duration, threshold float64, recovery int) Breaker {
	return &breaker{
		state:     closed,
		window:    make([]bool, window),
		threshold: threshold,
		cooldown:  cooldown,
		recovery:  recovery,
	}
}

func (b *breaker) Call(fn func() error) error {
	b.mu.Lock()
	if b.state == open {
		if time.Since(b.lastAttemptedAt) <= b.cooldown {
			b.mu.Unlock()
			return ErrOpen
		}
		b.state = halfOpen
		b.successCount = 0
	}
	b.mu.Unlock()

	err := fn()

	b.mu.Lock()
	defer b.mu.Unlock()

	b.window[b.pos] = err != nil
	b.pos = (b.pos + 1) % len(b.window)

	if b.state == halfOpen {
		if err != nil {
			b.trip()
		} else {
			b.successCount++
			if b.successCount > b.recovery {
				b.Reset()
			}
		}
		return err
	}

	fails := 0
	for _, failed := range b.window {
		if failed {
			fails++
		}
	}
	if float64(fails)/float64(len(b.window)) >= b.threshold {
		b.trip()
	}

	return err
}

func (b *breaker) trip() {
	b.state = open
	b.successCount = 0
	b.lastAttemptedAt = time.Now()
}

func (b *breaker) Reset() {
	for i := range b.window {
		b.window[i] = false
	}
	b.successCount = 0
	b.pos = 0
	b.state = closed
}
