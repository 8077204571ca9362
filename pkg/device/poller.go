package device

import (
	"context"
	"sync"
	"time"

	"github.com/devicelab-dev/element-locator/pkg/logger"
)

// Lister is the part of ADB the poller needs.
type Lister interface {
	Available(ctx context.Context) bool
	ListDevices(ctx context.Context) ([]Info, error)
}

// Snapshot is the device list at one point in time.
type Snapshot struct {
	Devices      []Info    `json:"devices"`
	Timestamp    time.Time `json:"timestamp"`
	ADBAvailable bool      `json:"adbAvailable"`
	Error        string    `json:"error,omitempty"`
}

// Poller refreshes the device list periodically and pushes every snapshot to
// its subscribers.
type Poller struct {
	lister   Lister
	interval time.Duration
	now      func() time.Time

	mu     sync.RWMutex
	latest Snapshot
	subs   map[chan Snapshot]struct{}
}

// NewPoller creates a poller that refreshes every interval.
func NewPoller(lister Lister, interval time.Duration) *Poller {
	return &Poller{
		lister:   lister,
		interval: interval,
		now:      time.Now,
		latest:   Snapshot{Devices: []Info{}},
		subs:     make(map[chan Snapshot]struct{}),
	}
}

// Run polls until ctx is cancelled. The first poll happens immediately.
func (p *Poller) Run(ctx context.Context) error {
	ticker := time.NewTicker(p.interval)
	defer ticker.Stop()

	p.Refresh(ctx)
	for {
		select {
		case <-ctx.Done():
			return ctx.Err()
		case <-ticker.C:
			p.Refresh(ctx)
		}
	}
}

// Refresh polls once, stores the result and notifies subscribers.
func (p *Poller) Refresh(ctx context.Context) Snapshot {
	snap := p.poll(ctx)

	p.mu.Lock()
	p.latest = snap
	for ch := range p.subs {
		select {
		case ch <- snap:
		default:
			// Subscriber is behind; it will get the next snapshot.
		}
	}
	p.mu.Unlock()

	return snap
}

func (p *Poller) poll(ctx context.Context) Snapshot {
	snap := Snapshot{Devices: []Info{}, Timestamp: p.now()}

	if !p.lister.Available(ctx) {
		snap.Error = "ADB is not available"
		return snap
	}

	devices, err := p.lister.ListDevices(ctx)
	if err != nil {
		logger.Error("Scheduled device check failed: %v", err)
		snap.Error = "Failed to check devices"
		return snap
	}

	snap.ADBAvailable = true
	snap.Devices = devices
	return snap
}

// Latest returns the most recent snapshot.
func (p *Poller) Latest() Snapshot {
	p.mu.RLock()
	defer p.mu.RUnlock()
	return p.latest
}

// Subscribe registers for snapshot updates. The channel first receives the
// latest snapshot. Call the returned function to unsubscribe.
func (p *Poller) Subscribe() (<-chan Snapshot, func()) {
	ch := make(chan Snapshot, 4)

	p.mu.Lock()
	ch <- p.latest
	p.subs[ch] = struct{}{}
	p.mu.Unlock()

	var once sync.Once
	return ch, func() {
		once.Do(func() {
			p.mu.Lock()
			delete(p.subs, ch)
			p.mu.Unlock()
			close(ch)
		})
	}
}

// Subscribers returns the number of active subscriptions.
func (p *Poller) Subscribers() int {
	p.mu.RLock()
	defer p.mu.RUnlock()
	return len(p.subs)
}
