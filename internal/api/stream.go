package api

import (
	"net/http"

	"github.com/displayhub/displayhub/internal/display"
	"github.com/displayhub/displayhub/internal/executor"
	"github.com/displayhub/displayhub/internal/logger"
	"github.com/gorilla/websocket"
)

// streamListener forwards display events to one websocket client. Its
// callbacks run on the connection's own serial executor, so the single
// writer invariant holds and a stalled client only backs up its own queue.
type streamListener struct {
	conn *websocket.Conn
}

func (l *streamListener) send(ev display.Event) {
	if err := l.conn.WriteJSON(ev); err != nil {
		logger.WithComponent("api").Debug().
			Err(err).
			Msg("WebSocket write failed")
	}
}

func (l *streamListener) OnDisplayAdded(id int) {
	l.send(display.Event{Kind: display.EventAdded, ID: id})
}

func (l *streamListener) OnDisplayRemoved(id int) {
	l.send(display.Event{Kind: display.EventRemoved, ID: id})
}

func (l *streamListener) OnDisplayChanged(id int) {
	l.send(display.Event{Kind: display.EventChanged, ID: id})
}

func (s *Server) handleEventStream(w http.ResponseWriter, r *http.Request) {
	conn, err := s.upgrader.Upgrade(w, r, nil)
	if err != nil {
		logger.WithComponent("api").Warn().
			Err(err).
			Msg("WebSocket upgrade failed")
		return
	}
	defer conn.Close()

	exec := executor.NewSerial()
	listener := &streamListener{conn: conn}
	s.hub.Register(listener, exec)
	defer func() {
		s.hub.Unregister(listener)
		exec.Close()
	}()

	// Replay the current displays as added events so the client starts
	// from a known state. The replay goes through the connection's
	// executor too, keeping a single writer on the socket.
	displays := s.reg.GetDisplays()
	exec.Submit(func() {
		for _, d := range displays {
			listener.send(display.Event{Kind: display.EventAdded, ID: d.ID()})
		}
	})

	// Block until the client goes away; incoming messages are ignored.
	for {
		if _, _, err := conn.ReadMessage(); err != nil {
			return
		}
	}
}
