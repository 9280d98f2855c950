// Package authority abstracts the service that owns the display registry.
// The registry cache and listener hub never talk to a global singleton;
// they receive an Authority at construction so they can be exercised
// against a fake.
package authority

import (
	"image"

	"github.com/displayhub/displayhub/internal/display"
)

// Authority is the source of truth for display existence and properties.
type Authority interface {
	// DisplayIDs returns a snapshot of the ids of all displays the
	// authority currently knows. The snapshot may be stale by the time it
	// is returned; callers tolerate that.
	DisplayIDs() ([]int, error)

	// Materialize constructs a fresh display snapshot for id, adjusted for
	// the given compatibility parameters. It returns (nil, nil) when the
	// authority has no such display; an error only signals a transport or
	// backend failure. Either way the caller treats the id as absent.
	Materialize(id int, compat display.CompatParams) (*display.Display, error)

	// Events returns the channel on which the authority delivers change
	// notifications. The channel is closed by Close.
	Events() <-chan display.Event

	// Close releases the connection to the authority.
	Close() error
}

// Snapshotter is implemented by authorities that can capture the current
// contents of a display.
type Snapshotter interface {
	CaptureDisplay(id int) (image.Image, error)
}
