package geocode

import "sync"

// debouncer implements last-call-wins supersession. Each lookup arms the
// debouncer and receives a token; after the debounce delay it checks
// whether a newer lookup has armed since. Superseded lookups are simply
// discarded; there is no queue and no retry.
type debouncer struct {
	mu  sync.Mutex
	gen uint64
}

// arm registers a new lookup and returns its token. Any earlier token is
// superseded from this point on.
func (d *debouncer) arm() uint64 {
	d.mu.Lock()
	defer d.mu.Unlock()
	d.gen++
	return d.gen
}

// current reports whether the token is still the latest lookup.
func (d *debouncer) current(token uint64) bool {
	d.mu.Lock()
	defer d.mu.Unlock()
	return d.gen == token
}

// cancel invalidates every outstanding token.
func (d *debouncer) cancel() {
	d.mu.Lock()
	defer d.mu.Unlock()
	d.gen++
}
