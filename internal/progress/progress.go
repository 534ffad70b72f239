// Package progress renders a terminal spinner for long-running operations.
package progress

import (
	"fmt"
	"sync"
	"time"
)

type Spinner struct {
	message   string
	mu        sync.Mutex
	startTime time.Time
	done      chan bool
}

// Start begins rendering a spinner with the given message until Stop is
// called. Output goes to stdout and assumes a terminal; callers should skip
// the spinner when piping.
func Start(message string) *Spinner {
	s := &Spinner{
		message:   message,
		startTime: time.Now(),
		done:      make(chan bool),
	}
	go s.render()
	return s
}

func (s *Spinner) render() {
	ticker := time.NewTicker(100 * time.Millisecond)
	defer ticker.Stop()

	frames := []string{"⠋", "⠙", "⠹", "⠸", "⠼", "⠴", "⠦", "⠧", "⠇", "⠏"}
	frame := 0

	for {
		select {
		case <-s.done:
			s.mu.Lock()
			fmt.Printf("\r\033[K")
			s.mu.Unlock()
			return

		case <-ticker.C:
			s.mu.Lock()
			fmt.Printf("\r%s %s  ", frames[frame%len(frames)], s.message)
			s.mu.Unlock()
			frame++
		}
	}
}

// Stop clears the spinner line and prints the summary with the elapsed time.
func (s *Spinner) Stop(summary string) {
	close(s.done)
	time.Sleep(1 * time.Millisecond)
	fmt.Printf("✓ %s (%s)\n", summary, time.Since(s.startTime).Round(time.Millisecond))
}
