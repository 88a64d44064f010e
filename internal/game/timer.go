package game

import (
	"sync"
	"time"

	"github.com/lienzo-games/lienzo/internal/domain"
)

// phaseTimer is the single logical timer a room may have armed. One goroutine
// owns both the per-second countdown events and the authoritative timeout, so
// the two can never disagree. The handle stored in Room.Timer is the source
// of truth: a timer that finds itself replaced there treats any tick or fire
// as stale and dies silently.
type phaseTimer struct {
	stop chan struct{}
	once sync.Once
}

func newPhaseTimer() *phaseTimer {
	return &phaseTimer{stop: make(chan struct{})}
}

func (t *phaseTimer) Stop() {
	t.once.Do(func() { close(t.stop) })
}

// armTimer replaces the room's timer and starts its countdown. onExpire runs
// with the room lock held, after the handle has been validated as current and
// cleared. Caller holds the lock.
func (o *Orchestrator) armTimer(room *domain.Room, d time.Duration, onExpire func(room *domain.Room)) {
	room.StopTimer()

	t := newPhaseTimer()
	room.Timer = t

	go o.runTimer(room, t, int(d/time.Second), onExpire)
}

func (o *Orchestrator) runTimer(room *domain.Room, t *phaseTimer, totalSeconds int, onExpire func(room *domain.Room)) {
	ticker := time.NewTicker(time.Second)
	defer ticker.Stop()

	remaining := totalSeconds
	for {
		select {
		case <-t.stop:
			return
		case <-ticker.C:
		}

		remaining--

		room.Lock()
		if room.Timer != t {
			room.Unlock()
			return
		}

		if remaining <= 0 {
			room.Timer = nil
			onExpire(room)
			room.Unlock()
			return
		}

		o.broadcaster.BroadcastToRoom(room.ID, &Event{
			Type:   EventTimer,
			RoomID: room.ID,
			Data:   TimerPayload{SecondsLeft: remaining, TotalSeconds: totalSeconds},
		})
		room.Unlock()
	}
}
