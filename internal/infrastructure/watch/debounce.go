// Package watch turns a directory into a goal inbox: goal files dropped into
// it are planned and answered with a plan file alongside.
package watch

import (
	"sync"
	"time"
)

// Debouncer coalesces rapid events per key into a single callback.
type Debouncer struct {
	window   time.Duration
	callback func(key string)

	mu      sync.Mutex
	timers  map[string]*time.Timer
	stopped bool
}

func NewDebouncer(window time.Duration, callback func(key string)) *Debouncer {
	return &Debouncer{
		window:   window,
		callback: callback,
		timers:   make(map[string]*time.Timer),
	}
}

// Trigger restarts the window for key. The callback fires once the window
// passes with no further triggers for that key.
func (d *Debouncer) Trigger(key string) {
	d.mu.Lock()
	defer d.mu.Unlock()
	if d.stopped {
		return
	}
	if t, ok := d.timers[key]; ok {
		t.Stop()
	}
	d.timers[key] = time.AfterFunc(d.window, func() {
		d.mu.Lock()
		delete(d.timers, key)
		stopped := d.stopped
		d.mu.Unlock()
		if !stopped {
			d.callback(key)
		}
	})
}

func (d *Debouncer) Pending() int {
	d.mu.Lock()
	defer d.mu.Unlock()
	return len(d.timers)
}

// Stop cancels every pending callback. Later triggers are ignored.
func (d *Debouncer) Stop() {
	d.mu.Lock()
	defer d.mu.Unlock()
	d.stopped = true
	for key, t := range d.timers {
		t.Stop()
		delete(d.timers, key)
	}
}
