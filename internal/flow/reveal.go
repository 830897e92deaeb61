package flow

import (
	"context"
	"time"
)

// DefaultRevealDuration and DefaultRevealFrames drive the score reveal at 60 frames per second
const (
	DefaultRevealDuration = time.Second
	DefaultRevealFrames   = 60
)

// RevealFrames returns the displayed values of a score reveal: frames+1 values rising
// linearly from 0 to score, rounded down
func RevealFrames(score, frames int) []int {
	if frames <= 0 {
		return []int{score}
	}
	values := make([]int, frames+1)
	for i := 0; i <= frames; i++ {
		values[i] = score * i / frames
	}
	return values
}

// Reveal emits the reveal frames of score spread over duration. It stops early when
// ctx is cancelled or emit fails; the underlying score is unaffected either way.
func Reveal(ctx context.Context, score int, duration time.Duration, emit func(value int) error) error {
	frames := RevealFrames(score, DefaultRevealFrames)
	interval := duration / time.Duration(len(frames)-1)
	if interval <= 0 {
		interval = time.Millisecond
	}

	ticker := time.NewTicker(interval)
	defer ticker.Stop()

	for i, v := range frames {
		if i > 0 {
			if err := ctx.Err(); err != nil {
				return err
			}
			select {
			case <-ctx.Done():
				return ctx.Err()
			case <-ticker.C:
			}
		}
		if err := emit(v); err != nil {
			return err
		}
	}
	return nil
}
