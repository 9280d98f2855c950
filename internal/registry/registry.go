// Package registry maintains this process's view of the display registry:
// a read-through cache of display snapshots keyed by id, and a hub that
// fans authority change events out to registered listeners.
package registry

import (
	"sync"

	"github.com/displayhub/displayhub/internal/authority"
	"github.com/displayhub/displayhub/internal/display"
	"github.com/displayhub/displayhub/internal/logger"
)

// Registry is the process-local display cache. Entries are created lazily
// on first lookup and dropped once a later lookup finds them invalid or a
// fresher authority result supersedes them. All methods are safe for
// concurrent use.
type Registry struct {
	auth   authority.Authority
	compat display.CompatParams

	mu       sync.Mutex
	displays map[int]*display.Display
}

// New creates a registry backed by the given authority. Snapshots are
// materialized with the given compatibility parameters.
func New(auth authority.Authority, compat display.CompatParams) *Registry {
	return &Registry{
		auth:     auth,
		compat:   compat,
		displays: make(map[int]*display.Display),
	}
}

// GetDisplay returns the display with the given id, or false if no such
// display currently exists. A cached entry is re-validated before it is
// trusted; a stale entry counts as a miss and is re-materialized.
func (r *Registry) GetDisplay(id int) (*display.Display, bool) {
	d := r.getOrCreate(id, false)
	return d, d != nil
}

// GetDisplays returns a snapshot of all currently valid displays. Ids that
// vanish between enumeration and materialization are skipped; the result
// may be shorter than the authority's id list, which is normal during
// concurrent removal.
func (r *Registry) GetDisplays() []*display.Display {
	ids, err := r.auth.DisplayIDs()
	if err != nil {
		logger.WithComponent("registry").Warn().
			Err(err).
			Msg("Failed to enumerate display ids")
		return nil
	}

	displays := make([]*display.Display, 0, len(ids))
	for _, id := range ids {
		// Entries in a listing the authority just confirmed are trusted
		// without a validity check.
		if d := r.getOrCreate(id, true); d != nil {
			displays = append(displays, d)
		}
	}
	return displays
}

// getOrCreate is the shared lookup-or-create path. With assumeValid the
// cached entry is returned without consulting its validity flag. The
// authority round-trip on a miss runs outside the cache lock; the insert
// afterwards is last-writer-wins, so a duplicate concurrent construction
// simply overwrites.
func (r *Registry) getOrCreate(id int, assumeValid bool) *display.Display {
	r.mu.Lock()
	if d, ok := r.displays[id]; ok {
		if assumeValid || d.IsValid() {
			r.mu.Unlock()
			return d
		}
		// Stale entry: evict and fall through to re-materialize.
		delete(r.displays, id)
	}
	r.mu.Unlock()

	d, err := r.auth.Materialize(id, r.compat)
	if err != nil {
		logger.WithComponent("registry").Debug().
			Err(err).
			Int("display_id", id).
			Msg("Failed to materialize display")
		return nil
	}
	if d == nil {
		return nil
	}

	r.mu.Lock()
	r.displays[id] = d
	r.mu.Unlock()
	return d
}
