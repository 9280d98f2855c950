package authority

import (
	"fmt"
	"image"
	"image/color"
	"sync"
	"time"

	"github.com/BurntSushi/xgb"
	"github.com/BurntSushi/xgb/randr"
	"github.com/BurntSushi/xgb/xproto"
	"github.com/displayhub/displayhub/internal/display"
	"github.com/displayhub/displayhub/internal/logger"
)

// X11 is an Authority backed by an X server's RandR extension. Each
// connected output is one logical display; its id is the output's XID.
// Changes are detected by polling the screen resources and diffing against
// the previous snapshot.
type X11 struct {
	conn         *xgb.Conn
	root         xproto.Window
	pollInterval time.Duration

	mu           sync.Mutex
	known        map[int]display.Info
	materialized map[int][]*display.Display

	events   chan display.Event
	stopChan chan struct{}
	stopOnce sync.Once
}

// NewX11 connects to the X server and takes an initial snapshot of the
// connected outputs.
func NewX11(pollInterval time.Duration) (*X11, error) {
	conn, err := xgb.NewConn()
	if err != nil {
		return nil, fmt.Errorf("failed to connect to X server: %w", err)
	}
	if err := randr.Init(conn); err != nil {
		conn.Close()
		return nil, fmt.Errorf("failed to initialize RandR: %w", err)
	}

	if pollInterval <= 0 {
		pollInterval = 2 * time.Second
	}

	a := &X11{
		conn:         conn,
		root:         xproto.Setup(conn).DefaultScreen(conn).Root,
		pollInterval: pollInterval,
		known:        make(map[int]display.Info),
		materialized: make(map[int][]*display.Display),
		events:       make(chan display.Event, 64),
		stopChan:     make(chan struct{}),
	}

	snapshot, err := a.queryOutputs()
	if err != nil {
		conn.Close()
		return nil, fmt.Errorf("failed to enumerate outputs: %w", err)
	}
	a.known = snapshot

	return a, nil
}

// Start begins watching for output changes. It should be called once.
func (a *X11) Start() {
	go a.watch()
}

// DisplayIDs implements Authority.
func (a *X11) DisplayIDs() ([]int, error) {
	snapshot, err := a.queryOutputs()
	if err != nil {
		return nil, fmt.Errorf("failed to enumerate outputs: %w", err)
	}

	ids := make([]int, 0, len(snapshot))
	for id := range snapshot {
		ids = append(ids, id)
	}
	return ids, nil
}

// Materialize implements Authority.
func (a *X11) Materialize(id int, compat display.CompatParams) (*display.Display, error) {
	info, ok, err := a.queryOutput(randr.Output(id))
	if err != nil {
		return nil, fmt.Errorf("failed to query output %d: %w", id, err)
	}
	if !ok {
		return nil, nil
	}

	d := display.New(compat.Apply(info))

	a.mu.Lock()
	a.materialized[id] = append(a.materialized[id], d)
	a.mu.Unlock()

	return d, nil
}

// Events implements Authority.
func (a *X11) Events() <-chan display.Event {
	return a.events
}

// Close implements Authority.
func (a *X11) Close() error {
	a.stopOnce.Do(func() {
		close(a.stopChan)
	})
	a.conn.Close()
	return nil
}

// watch polls the screen resources and diffs snapshots into events.
func (a *X11) watch() {
	ticker := time.NewTicker(a.pollInterval)
	defer ticker.Stop()
	defer close(a.events)

	logger.WithComponent("authority").Info().
		Dur("interval", a.pollInterval).
		Msg("Watching X outputs for changes")

	for {
		select {
		case <-a.stopChan:
			return
		case <-ticker.C:
			snapshot, err := a.queryOutputs()
			if err != nil {
				logger.WithComponent("authority").Warn().
					Err(err).
					Msg("Failed to poll outputs")
				continue
			}
			a.diff(snapshot)
		}
	}
}

// diff compares a fresh snapshot against the last one and emits the
// corresponding events. Snapshots handed out for removed outputs are
// invalidated before the removed event goes out.
func (a *X11) diff(snapshot map[int]display.Info) {
	var evs []display.Event

	a.mu.Lock()
	for id, info := range snapshot {
		prev, ok := a.known[id]
		if !ok {
			evs = append(evs, display.Event{Kind: display.EventAdded, ID: id})
		} else if prev != info {
			evs = append(evs, display.Event{Kind: display.EventChanged, ID: id})
		}
	}
	for id := range a.known {
		if _, ok := snapshot[id]; !ok {
			for _, d := range a.materialized[id] {
				d.Invalidate()
			}
			delete(a.materialized, id)
			evs = append(evs, display.Event{Kind: display.EventRemoved, ID: id})
		}
	}
	a.known = snapshot
	a.mu.Unlock()

	for _, ev := range evs {
		logger.WithComponent("authority").Debug().
			Str("event", ev.Kind.String()).
			Int("display_id", ev.ID).
			Msg("Output change detected")
		select {
		case a.events <- ev:
		case <-a.stopChan:
			return
		}
	}
}

// queryOutputs enumerates all connected outputs with an active CRTC.
func (a *X11) queryOutputs() (map[int]display.Info, error) {
	res, err := randr.GetScreenResourcesCurrent(a.conn, a.root).Reply()
	if err != nil {
		return nil, err
	}

	var primary randr.Output
	if p, err := randr.GetOutputPrimary(a.conn, a.root).Reply(); err == nil {
		primary = p.Output
	}

	out := make(map[int]display.Info)
	for _, output := range res.Outputs {
		info, ok, err := a.outputInfo(res, output, primary)
		if err != nil {
			logger.WithComponent("authority").Debug().
				Err(err).
				Uint32("output", uint32(output)).
				Msg("Skipping output")
			continue
		}
		if ok {
			out[int(output)] = info
		}
	}
	return out, nil
}

// queryOutput resolves a single output by id.
func (a *X11) queryOutput(output randr.Output) (display.Info, bool, error) {
	res, err := randr.GetScreenResourcesCurrent(a.conn, a.root).Reply()
	if err != nil {
		return display.Info{}, false, err
	}

	found := false
	for _, o := range res.Outputs {
		if o == output {
			found = true
			break
		}
	}
	if !found {
		return display.Info{}, false, nil
	}

	var primary randr.Output
	if p, err := randr.GetOutputPrimary(a.conn, a.root).Reply(); err == nil {
		primary = p.Output
	}

	return a.outputInfo(res, output, primary)
}

// outputInfo builds the Info snapshot for one output. Disconnected outputs
// and outputs without an active CRTC report not-ok.
func (a *X11) outputInfo(res *randr.GetScreenResourcesCurrentReply, output randr.Output, primary randr.Output) (display.Info, bool, error) {
	oi, err := randr.GetOutputInfo(a.conn, output, 0).Reply()
	if err != nil {
		return display.Info{}, false, err
	}
	if oi.Connection != randr.ConnectionConnected || oi.Crtc == 0 {
		return display.Info{}, false, nil
	}

	ci, err := randr.GetCrtcInfo(a.conn, oi.Crtc, 0).Reply()
	if err != nil {
		return display.Info{}, false, err
	}

	info := display.Info{
		ID:   int(output),
		Name: string(oi.Name),
		Geometry: display.Geometry{
			X:      int(ci.X),
			Y:      int(ci.Y),
			Width:  int(ci.Width),
			Height: int(ci.Height),
		},
		Primary: output == primary,
	}

	// Density from the panel's physical size, defaulting to 96 when the
	// EDID reports no dimensions (projectors, virtual outputs).
	info.DensityDPI = 96
	if oi.MmWidth > 0 {
		info.DensityDPI = int(float64(ci.Width) * 25.4 / float64(oi.MmWidth))
	}

	for _, mode := range res.Modes {
		if mode.Id == uint32(ci.Mode) {
			if mode.Htotal > 0 && mode.Vtotal > 0 {
				info.RefreshHz = float64(mode.DotClock) / (float64(mode.Htotal) * float64(mode.Vtotal))
			}
			break
		}
	}

	return info, true, nil
}

// CaptureDisplay implements Snapshotter by reading the output's region of
// the root window.
func (a *X11) CaptureDisplay(id int) (image.Image, error) {
	info, ok, err := a.queryOutput(randr.Output(id))
	if err != nil {
		return nil, fmt.Errorf("failed to query output %d: %w", id, err)
	}
	if !ok {
		return nil, fmt.Errorf("no such display: %d", id)
	}

	g := info.Geometry
	reply, err := xproto.GetImage(
		a.conn,
		xproto.ImageFormatZPixmap,
		xproto.Drawable(a.root),
		int16(g.X), int16(g.Y),
		uint16(g.Width), uint16(g.Height),
		0xffffffff,
	).Reply()
	if err != nil {
		return nil, fmt.Errorf("failed to get image: %w", err)
	}

	img := image.NewRGBA(image.Rect(0, 0, g.Width, g.Height))
	data := reply.Data
	for y := 0; y < g.Height; y++ {
		for x := 0; x < g.Width; x++ {
			i := (y*g.Width + x) * 4
			if i+3 < len(data) {
				// BGRA to RGBA
				img.Set(x, y, color.RGBA{
					R: data[i+2],
					G: data[i+1],
					B: data[i],
					A: 255,
				})
			}
		}
	}
	return img, nil
}
