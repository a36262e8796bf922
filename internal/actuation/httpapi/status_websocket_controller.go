package httpapi

import (
	"context"
	"log/slog"
	"net/http"
	"sync"
	"time"

	"turret-server/internal/actuation/usecases"
	"turret-server/internal/infra/async"
	"turret-server/internal/infra/httpserver"

	"github.com/gorilla/websocket"
)

var upgrader = websocket.Upgrader{
	ReadBufferSize:  1024,
	WriteBufferSize: 1024,
	CheckOrigin: func(r *http.Request) bool {
		// The API is reachable only on the rig's LAN
		return true
	},
}

// StatusMessage is the envelope pushed to websocket clients whenever the
// poller refreshes actuator state.
type StatusMessage struct {
	Type      string    `json:"type"`
	Timestamp time.Time `json:"timestamp"`
	Data      any       `json:"data"`
}

type StatusWebSocketController struct {
	broker     async.InternalBroker
	clients    map[*websocket.Conn]bool
	clientsMux sync.RWMutex
	broadcast  chan StatusMessage
	register   chan *websocket.Conn
	unregister chan *websocket.Conn
	ctx        context.Context
	cancel     context.CancelFunc
}

func NewStatusWebSocketController(broker async.InternalBroker) *StatusWebSocketController {
	ctx, cancel := context.WithCancel(context.Background())

	wsc := &StatusWebSocketController{
		broker:     broker,
		clients:    make(map[*websocket.Conn]bool),
		broadcast:  make(chan StatusMessage, 256),
		register:   make(chan *websocket.Conn),
		unregister: make(chan *websocket.Conn),
		ctx:        ctx,
		cancel:     cancel,
	}

	// Start the hub
	go wsc.run()

	return wsc
}

var _ httpserver.Controller = (*StatusWebSocketController)(nil)

func (wsc *StatusWebSocketController) AddRoutes(router *http.ServeMux) {
	router.Handle("GET /ws/status", wsc.handleWebSocket())
}

func (wsc *StatusWebSocketController) handleWebSocket() http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		conn, err := upgrader.Upgrade(w, r, nil)
		if err != nil {
			slog.Error("websocket upgrade failed", slog.String("error", err.Error()))
			return
		}

		slog.Info("new websocket connection established", slog.String("remote_addr", r.RemoteAddr))

		wsc.register <- conn

		go wsc.handlePingPong(conn)
		go wsc.handleClient(conn)
	}
}

func (wsc *StatusWebSocketController) handleClient(conn *websocket.Conn) {
	defer func() {
		wsc.unregister <- conn
		conn.Close()
	}()

	conn.SetReadLimit(512)
	conn.SetReadDeadline(time.Now().Add(60 * time.Second))
	conn.SetPongHandler(func(string) error {
		conn.SetReadDeadline(time.Now().Add(60 * time.Second))
		return nil
	})

	for {
		_, _, err := conn.ReadMessage()
		if err != nil {
			if websocket.IsUnexpectedCloseError(err, websocket.CloseNormalClosure, websocket.CloseGoingAway, websocket.CloseAbnormalClosure) {
				slog.Error("websocket read error", slog.String("error", err.Error()))
			} else {
				slog.Debug("websocket connection closed", slog.String("error", err.Error()))
			}
			break
		}
	}
}

func (wsc *StatusWebSocketController) handlePingPong(conn *websocket.Conn) {
	ticker := time.NewTicker(54 * time.Second)
	defer ticker.Stop()

	for {
		select {
		case <-wsc.ctx.Done():
			return
		case <-ticker.C:
			conn.SetWriteDeadline(time.Now().Add(10 * time.Second))
			if err := conn.WriteMessage(websocket.PingMessage, nil); err != nil {
				return
			}
		}
	}
}

func (wsc *StatusWebSocketController) run() {
	subscription, err := wsc.broker.Subscribe(usecases.ActuatorEventsTopic)
	if err != nil {
		slog.Error("failed to subscribe to actuator events", slog.String("error", err.Error()))
		return
	}
	defer wsc.broker.Unsubscribe(usecases.ActuatorEventsTopic, subscription)

	for {
		select {
		case <-wsc.ctx.Done():
			return

		case client := <-wsc.register:
			wsc.clientsMux.Lock()
			wsc.clients[client] = true
			wsc.clientsMux.Unlock()
			slog.Info("websocket client registered", slog.Int("total_clients", len(wsc.clients)))

		case client := <-wsc.unregister:
			wsc.clientsMux.Lock()
			if _, ok := wsc.clients[client]; ok {
				delete(wsc.clients, client)
				close := func() {
					defer func() {
						if r := recover(); r != nil {
							slog.Warn("recovered from panic while closing websocket", slog.Any("panic", r))
						}
					}()
					client.Close()
				}
				close()
			}
			wsc.clientsMux.Unlock()
			slog.Info("websocket client unregistered", slog.Int("total_clients", len(wsc.clients)))

		case message := <-wsc.broadcast:
			wsc.clientsMux.RLock()
			for client := range wsc.clients {
				select {
				case <-wsc.ctx.Done():
					wsc.clientsMux.RUnlock()
					return
				default:
					client.SetWriteDeadline(time.Now().Add(10 * time.Second))
					if err := client.WriteJSON(message); err != nil {
						slog.Error("failed to write message to websocket client", slog.String("error", err.Error()))
						client.Close()
						delete(wsc.clients, client)
					}
				}
			}
			wsc.clientsMux.RUnlock()

		case brokerMsg, ok := <-subscription.Receiver:
			if !ok {
				return
			}
			wsc.forwardEvent(brokerMsg)
		}
	}
}

func (wsc *StatusWebSocketController) forwardEvent(brokerMsg async.BrokerMessage) {
	var messageType string
	switch brokerMsg.Event {
	case usecases.EventAxisStatusUpdated:
		messageType = "axis_status"
	case usecases.EventSolenoidStatusUpdated:
		messageType = "solenoid_status"
	default:
		return
	}

	statusMsg := StatusMessage{
		Type:      messageType,
		Timestamp: time.Now(),
		Data:      brokerMsg.Value,
	}

	// Non-blocking send to broadcast channel
	select {
	case wsc.broadcast <- statusMsg:
	default:
		slog.Warn("broadcast channel full, dropping message")
	}
}

func (wsc *StatusWebSocketController) Shutdown() {
	slog.Info("shutting down status websocket controller")
	wsc.cancel()

	wsc.clientsMux.Lock()
	for client := range wsc.clients {
		client.Close()
	}
	wsc.clientsMux.Unlock()
}
