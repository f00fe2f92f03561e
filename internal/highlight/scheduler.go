package highlight

import (
	"sync"
	"time"
)

// Scheduler coalesces edit notifications. After Notify has been quiet for
// the debounce interval, post is called once from the scheduler goroutine;
// it should hand the pass over to the goroutine that owns the document.
type Scheduler struct {
	debounce time.Duration
	post     func()
	notify   chan struct{}
	done     chan struct{}
	stop     sync.Once
}

// NewScheduler returns a stopped scheduler.
func NewScheduler(debounce time.Duration, post func()) *Scheduler {
	return &Scheduler{
		debounce: debounce,
		post:     post,
		notify:   make(chan struct{}, 1),
		done:     make(chan struct{}),
	}
}

// Start runs the scheduler loop.
func (s *Scheduler) Start() { go s.loop() }

// Stop ends the loop. A pending notification is dropped.
func (s *Scheduler) Stop() {
	s.stop.Do(func() { close(s.done) })
}

// Notify records an edit. It never blocks.
func (s *Scheduler) Notify() {
	select {
	case s.notify <- struct{}{}:
	default:
	}
}

func (s *Scheduler) loop() {
	var (
		timer   *time.Timer
		pending bool
	)

	for {
		select {
		case <-s.notify:
			if timer == nil {
				timer = time.NewTimer(s.debounce)
			} else {
				if !timer.Stop() {
					select {
					case <-timer.C:
					default:
					}
				}
				timer.Reset(s.debounce)
			}
			pending = true

		case <-func() <-chan time.Time {
			if timer != nil {
				return timer.C
			}
			return nil
		}():
			if pending {
				pending = false
				s.post()
			}

		case <-s.done:
			if timer != nil {
				timer.Stop()
			}
			return
		}
	}
}
