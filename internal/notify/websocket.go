package notify

import (
	"net/http"
	"sync"
	"time"

	"github.com/gorilla/websocket"
	"github.com/rs/zerolog"

	"solana-token-radar/internal/broadcast"
)

const (
	wsWriteWait  = 10 * time.Second
	wsPongWait   = 60 * time.Second
	wsPingPeriod = 45 * time.Second
)

// WSBridge exposes hub topics over websocket. Each connection picks a
// topic via the query string and becomes a hub subscriber; when the
// connection dies its subscription is removed with it.
type WSBridge struct {
	hub      *broadcast.Hub
	upgrader websocket.Upgrader
	log      zerolog.Logger
}

func NewWSBridge(hub *broadcast.Hub, log zerolog.Logger) *WSBridge {
	return &WSBridge{
		hub: hub,
		upgrader: websocket.Upgrader{
			ReadBufferSize:  1024,
			WriteBufferSize: 1024,
			CheckOrigin:     func(*http.Request) bool { return true },
		},
		log: log.With().Str("component", "notify.ws").Logger(),
	}
}

// ServeHTTP upgrades the request and streams the chosen topic. Valid
// topics are token-updates, alerts, and analytics; the default is
// token-updates.
func (b *WSBridge) ServeHTTP(w http.ResponseWriter, r *http.Request) {
	topic := broadcast.Topic(r.URL.Query().Get("topic"))
	switch topic {
	case broadcast.TopicTokenUpdates, broadcast.TopicAlerts, broadcast.TopicAnalytics:
	case "":
		topic = broadcast.TopicTokenUpdates
	default:
		http.Error(w, "unknown topic", http.StatusBadRequest)
		return
	}

	conn, err := b.upgrader.Upgrade(w, r, nil)
	if err != nil {
		b.log.Warn().Err(err).Msg("websocket upgrade failed")
		return
	}

	var writeMu sync.Mutex
	subID := b.hub.Subscribe(topic, func(event broadcast.Event) error {
		writeMu.Lock()
		defer writeMu.Unlock()
		conn.SetWriteDeadline(time.Now().Add(wsWriteWait))
		return conn.WriteJSON(event)
	})

	b.log.Debug().Str("topic", string(topic)).Str("remote", r.RemoteAddr).Msg("websocket connected")

	done := make(chan struct{})
	go b.readLoop(conn, done)
	go b.pingLoop(conn, &writeMu, done)

	<-done
	b.hub.Unsubscribe(topic, subID)
	conn.Close()
}

// readLoop drains client frames so pongs and close messages are processed.
func (b *WSBridge) readLoop(conn *websocket.Conn, done chan struct{}) {
	defer close(done)
	conn.SetReadLimit(512)
	conn.SetReadDeadline(time.Now().Add(wsPongWait))
	conn.SetPongHandler(func(string) error {
		return conn.SetReadDeadline(time.Now().Add(wsPongWait))
	})
	for {
		if _, _, err := conn.ReadMessage(); err != nil {
			return
		}
	}
}

func (b *WSBridge) pingLoop(conn *websocket.Conn, writeMu *sync.Mutex, done chan struct{}) {
	ticker := time.NewTicker(wsPingPeriod)
	defer ticker.Stop()
	for {
		select {
		case <-done:
			return
		case <-ticker.C:
			writeMu.Lock()
			conn.SetWriteDeadline(time.Now().Add(wsWriteWait))
			err := conn.WriteMessage(websocket.PingMessage, nil)
			writeMu.Unlock()
			if err != nil {
				return
			}
		}
	}
}
