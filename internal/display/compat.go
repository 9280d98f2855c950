package display

// CompatParams are the per-process compatibility parameters applied when a
// display is materialized. Legacy callers that assume a fixed density get
// metrics scaled to their expected density rather than the panel's native
// one.
type CompatParams struct {
	// TargetDPI is the density the process expects, or 0 for native.
	TargetDPI int `json:"target_dpi" yaml:"target_dpi"`

	// Scale is an additional scale factor applied to the reported
	// dimensions. 0 means 1.0.
	Scale float64 `json:"scale" yaml:"scale"`
}

// Native is the identity compatibility context: metrics pass through
// unadjusted.
var Native = CompatParams{}

// factor resolves the effective scale for a display of the given native
// density.
func (c CompatParams) factor(nativeDPI int) float64 {
	f := 1.0
	if c.TargetDPI > 0 && nativeDPI > 0 {
		f = float64(c.TargetDPI) / float64(nativeDPI)
	}
	if c.Scale > 0 {
		f *= c.Scale
	}
	return f
}

// Apply fills in the adjusted metrics on an info snapshot and returns it.
// The raw geometry is left untouched so the snapshot still describes the
// physical layout.
func (c CompatParams) Apply(info Info) Info {
	f := c.factor(info.DensityDPI)
	info.AdjustedWidth = int(float64(info.Geometry.Width) * f)
	info.AdjustedHeight = int(float64(info.Geometry.Height) * f)
	return info
}
