package watcher

import (
	"sort"
	"sync"
	"time"
)

// Op is the kind of change seen for a path.
type Op int

const (
	OpCreate Op = iota
	OpWrite
	OpRemove
	OpRename
)

func (o Op) String() string {
	switch o {
	case OpCreate:
		return "create"
	case OpWrite:
		return "write"
	case OpRemove:
		return "remove"
	case OpRename:
		return "rename"
	default:
		return "unknown"
	}
}

// Change is one coalesced change delivered by the Debouncer.
type Change struct {
	Path string
	Op   Op
}

// Debouncer collects changes and calls fire once the paths have been quiet
// for the configured interval. Repeated changes to a path within the window
// collapse into the latest one.
type Debouncer struct {
	interval time.Duration
	fire     func([]Change)

	mu      sync.Mutex
	pending map[string]Op
	timer   *time.Timer
	stopped bool
}

// NewDebouncer creates a debouncer that hands each batch to fire.
func NewDebouncer(interval time.Duration, fire func([]Change)) *Debouncer {
	return &Debouncer{
		interval: interval,
		fire:     fire,
		pending:  make(map[string]Op),
	}
}

// Add records a change and restarts the quiet period.
func (d *Debouncer) Add(path string, op Op) {
	d.mu.Lock()
	defer d.mu.Unlock()

	if d.stopped {
		return
	}
	d.pending[path] = op
	if d.timer != nil {
		d.timer.Stop()
	}
	d.timer = time.AfterFunc(d.interval, d.flush)
}

// Stop drops pending changes; later Adds are ignored.
func (d *Debouncer) Stop() {
	d.mu.Lock()
	defer d.mu.Unlock()

	d.stopped = true
	if d.timer != nil {
		d.timer.Stop()
	}
	clear(d.pending)
}

func (d *Debouncer) flush() {
	d.mu.Lock()
	if d.stopped || len(d.pending) == 0 {
		d.mu.Unlock()
		return
	}
	batch := make([]Change, 0, len(d.pending))
	for path, op := range d.pending {
		batch = append(batch, Change{Path: path, Op: op})
	}
	clear(d.pending)
	d.mu.Unlock()

	sort.Slice(batch, func(i, j int) bool {
		return batch[i].Path < batch[j].Path
	})
	d.fire(batch)
}
