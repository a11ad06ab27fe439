package app

import (
	"sync"

	"globetrotter/internal/domain"
)

// leaderboardFeed fans leaderboard snapshots out to live subscribers.
type leaderboardFeed struct {
	mu          sync.Mutex
	subscribers map[chan domain.Leaderboard]struct{}
}

func newLeaderboardFeed() *leaderboardFeed {
	return &leaderboardFeed{subscribers: make(map[chan domain.Leaderboard]struct{})}
}

// subscribe registers a channel before any snapshot is read, so no publish
// after this call is missed.
func (f *leaderboardFeed) subscribe() (chan domain.Leaderboard, func()) {
	ch := make(chan domain.Leaderboard, 8)

	f.mu.Lock()
	f.subscribers[ch] = struct{}{}
	f.mu.Unlock()

	cancel := func() {
		f.mu.Lock()
		if _, ok := f.subscribers[ch]; ok {
			delete(f.subscribers, ch)
			close(ch)
		}
		f.mu.Unlock()
	}
	return ch, cancel
}

// prime queues the initial snapshot unless a published update already arrived.
func (f *leaderboardFeed) prime(ch chan domain.Leaderboard, lb domain.Leaderboard) {
	f.mu.Lock()
	defer f.mu.Unlock()
	if _, ok := f.subscribers[ch]; ok && len(ch) == 0 {
		ch <- lb
	}
}

func (f *leaderboardFeed) publish(lb domain.Leaderboard) {
	f.mu.Lock()
	defer f.mu.Unlock()
	for ch := range f.subscribers {
		select {
		case ch <- lb:
		default:
			// Full buffer: drop the oldest update so a slow reader never blocks publishers.
			select {
			case <-ch:
			default:
			}
			ch <- lb
		}
	}
}

func (f *leaderboardFeed) size() int {
	f.mu.Lock()
	defer f.mu.Unlock()
	return len(f.subscribers)
}
