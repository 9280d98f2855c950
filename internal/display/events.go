package display

// EventKind classifies a registry change event.
type EventKind int

const (
	// EventAdded means a logical display appeared.
	EventAdded EventKind = iota
	// EventRemoved means a logical display disappeared.
	EventRemoved
	// EventChanged means a logical display's properties changed.
	EventChanged
)

// MarshalJSON encodes the kind as its string form.
func (k EventKind) MarshalJSON() ([]byte, error) {
	return []byte(`"` + k.String() + `"`), nil
}

// String returns the string representation of EventKind.
func (k EventKind) String() string {
	switch k {
	case EventAdded:
		return "added"
	case EventRemoved:
		return "removed"
	case EventChanged:
		return "changed"
	default:
		return "unknown"
	}
}

// Event is one registry change notification from the authority. It carries
// only the display id; observers re-query the registry if they need the
// display itself.
type Event struct {
	Kind EventKind `json:"event"`
	ID   int       `json:"display_id"`
}

// Listener receives registry change notifications. Callbacks run on the
// execution context the listener was registered with.
type Listener interface {
	// OnDisplayAdded is called when a display has been added.
	OnDisplayAdded(id int)

	// OnDisplayRemoved is called when a display has been removed. The id
	// may no longer resolve through the registry by the time the callback
	// runs.
	OnDisplayRemoved(id int)

	// OnDisplayChanged is called when a display's properties have changed.
	OnDisplayChanged(id int)
}
