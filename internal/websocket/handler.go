package websocket

import (
	"github.com/gofiber/websocket/v2"
	"github.com/google/uuid"
)

// ServeWs attaches a connection to the hub for one run. Events in replay are
// written first so a client resuming from a seq cursor sees no gap before
// live delivery starts.
func ServeWs(hub *Hub, c *websocket.Conn, runId uuid.UUID, replay [][]byte) {
	buffer := 256
	if len(replay) >= buffer {
		buffer = len(replay) + 256
	}
	client := &Client{Hub: hub, Conn: c, RunID: runId, Send: make(chan []byte, buffer)}

	for _, data := range replay {
		client.Send <- data
	}

	client.Hub.register <- client

	go client.writePump()
	client.readPump() // runs in the handler goroutine
}
