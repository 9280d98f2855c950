package display

import (
	"fmt"
	"sync/atomic"
)

// Geometry describes a display's position and size in the global
// coordinate space.
type Geometry struct {
	X      int `json:"x" yaml:"x"`
	Y      int `json:"y" yaml:"y"`
	Width  int `json:"width" yaml:"width"`
	Height int `json:"height" yaml:"height"`
}

// Info holds the properties of one logical display as reported by the
// authority, already adjusted for the requesting process's compatibility
// parameters.
type Info struct {
	ID             int      `json:"id" yaml:"id"`
	Name           string   `json:"name" yaml:"name"`
	Geometry       Geometry `json:"geometry" yaml:"geometry"`
	RefreshHz      float64  `json:"refresh_hz" yaml:"refresh_hz"`
	DensityDPI     int      `json:"density_dpi" yaml:"density_dpi"`
	Primary        bool     `json:"primary" yaml:"primary"`
	AdjustedWidth  int      `json:"adjusted_width" yaml:"adjusted_width"`
	AdjustedHeight int      `json:"adjusted_height" yaml:"adjusted_height"`
}

// Display is a process-local snapshot of one logical display. The snapshot
// is immutable after construction; staleness is carried by the validity
// flag, never by mutating fields. The authority that materialized the
// snapshot flips the flag once it learns the display is gone.
type Display struct {
	info  Info
	stale atomic.Bool
}

// New wraps a display info snapshot.
func New(info Info) *Display {
	return &Display{info: info}
}

// ID returns the display's id.
func (d *Display) ID() int {
	return d.info.ID
}

// Name returns the display's human-readable name.
func (d *Display) Name() string {
	return d.info.Name
}

// Info returns a copy of the display's properties.
func (d *Display) Info() Info {
	return d.info
}

// IsValid reports whether the authority still considers this display
// current. It never performs a remote call.
func (d *Display) IsValid() bool {
	return !d.stale.Load()
}

// Invalidate marks the snapshot as stale. Called by the authority when it
// reports the display removed.
func (d *Display) Invalidate() {
	d.stale.Store(true)
}

func (d *Display) String() string {
	g := d.info.Geometry
	return fmt.Sprintf("display %d %q %dx%d+%d+%d", d.info.ID, d.info.Name, g.Width, g.Height, g.X, g.Y)
}
