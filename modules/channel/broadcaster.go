package channel

import "sync"

// Broadcaster is an interface for pushing channel events to UI clients.
type Broadcaster interface {
	BroadcastNowPlaying(name string, startedAt int64)
}

var (
	broadcaster   Broadcaster
	broadcasterMu sync.RWMutex
)

// SetBroadcaster sets the broadcaster for the channel module
func SetBroadcaster(b Broadcaster) {
	broadcasterMu.Lock()
	defer broadcasterMu.Unlock()
	broadcaster = b
}

// GetBroadcaster gets the current broadcaster
func GetBroadcaster() Broadcaster {
	broadcasterMu.RLock()
	defer broadcasterMu.RUnlock()
	return broadcaster
}

// BroadcastNowPlaying broadcasts the on-air item (helper function)
func BroadcastNowPlaying(name string, startedAt int64) {
	b := GetBroadcaster()
	if b != nil {
		b.BroadcastNowPlaying(name, startedAt)
	}
}
