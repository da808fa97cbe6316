package service

import (
	"log"
	"time"
)

// Reaper periodically removes idle empty rooms and prunes stale
// debounce records. It is housekeeping on top of the eager deletion
// that happens when the last participant leaves; both paths tolerate
// the room already being gone.
type Reaper struct {
	rooms     *RoomService
	debouncer *Debouncer
	interval  time.Duration
	idleAfter time.Duration

	stop chan struct{}
	done chan struct{}
}

// NewReaper creates a reaper; Start launches it
func NewReaper(rooms *RoomService, debouncer *Debouncer, interval, idleAfter time.Duration) *Reaper {
	return &Reaper{
		rooms:     rooms,
		debouncer: debouncer,
		interval:  interval,
		idleAfter: idleAfter,
		stop:      make(chan struct{}),
		done:      make(chan struct{}),
	}
}

// Start launches the recurring sweep in its own goroutine
func (r *Reaper) Start() {
	go r.run()
	log.Printf("Reaper started: interval=%s idleAfter=%s", r.interval, r.idleAfter)
}

// Stop halts the sweep and waits for the current pass to finish
func (r *Reaper) Stop() {
	close(r.stop)
	<-r.done
	log.Println("Reaper stopped")
}

func (r *Reaper) run() {
	defer close(r.done)

	ticker := time.NewTicker(r.interval)
	defer ticker.Stop()

	for {
		select {
		case now := <-ticker.C:
			r.Sweep(now)
		case <-r.stop:
			return
		}
	}
}

// Sweep runs one cleanup pass
func (r *Reaper) Sweep(now time.Time) {
	if removed := r.rooms.ReapIdle(now, r.idleAfter); removed > 0 {
		log.Printf("Reaper: swept %d idle room(s)", removed)
	}
	r.debouncer.Purge(now)
}
