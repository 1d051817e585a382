package server

import (
	"net/http"

	"github.com/gin-gonic/gin"
	"github.com/gorilla/websocket"

	"orb-scanner/src/models"
)

// -----------------------------------------------------------------------------
// Hub Pattern Implementation
// -----------------------------------------------------------------------------

// runHub is the main hub loop. All client set mutation happens here.
func (s *ScannerServer) runHub() {
	for {
		select {
		case client := <-s.register:
			s.clients[client] = struct{}{}
			s.clientCount.Store(int64(len(s.clients)))
			// Replay the last snapshot so a new client is current immediately
			s.stateMutex.RLock()
			if s.latestUpdate != nil {
				client.send <- s.latestUpdate
			}
			s.stateMutex.RUnlock()

		case client := <-s.unregister:
			if _, ok := s.clients[client]; ok {
				delete(s.clients, client)
				close(client.send)
				s.clientCount.Store(int64(len(s.clients)))
			}

		case update := <-s.broadcast:
			s.stateMutex.Lock()
			s.latestUpdate = update
			s.stateMutex.Unlock()

			for client := range s.clients {
				select {
				case client.send <- update:
				default:
					// Client too slow, disconnect rather than block the hub
					delete(s.clients, client)
					close(client.send)
				}
			}
			s.clientCount.Store(int64(len(s.clients)))
		}
	}
}

// -----------------------------------------------------------------------------
// Data Exchange Interface Implementation
// -----------------------------------------------------------------------------

// Broadcast hands a snapshot to the hub. Never blocks the caller: with the
// buffer full the snapshot is stale two seconds later anyway.
func (s *ScannerServer) Broadcast(update models.MWatchlistUpdate) {
	select {
	case s.broadcast <- &update:
	default:
		s.Logger.Warning("broadcast queue full, snapshot dropped")
	}
}

// ClientCount is safe to call from any goroutine; the hub keeps the mirror
// current whenever the client set changes.
func (s *ScannerServer) ClientCount() int {
	return int(s.clientCount.Load())
}

// -----------------------------------------------------------------------------
// WebSocket Handlers
// -----------------------------------------------------------------------------

var upgrader = websocket.Upgrader{
	ReadBufferSize:  1024,
	WriteBufferSize: 1024,
	CheckOrigin:     func(r *http.Request) bool { return true },
}

func (s *ScannerServer) handleWebSocket(c *gin.Context) {
	conn, err := upgrader.Upgrade(c.Writer, c.Request, nil)
	if err != nil {
		s.Logger.Info("Failed to upgrade websocket: %v", err)
		return
	}

	client := &Client{
		hub:  s,
		conn: conn,
		send: make(chan *models.MWatchlistUpdate, 64),
	}

	s.register <- client

	go client.writePump()
	go client.readPump()
}
