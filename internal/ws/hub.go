package ws

import (
	"encoding/json"
	"net/http"
	"sync"
	"time"

	"github.com/gin-gonic/gin"
	"github.com/gorilla/websocket"
	"github.com/sirupsen/logrus"
)

const (
	EventContentChanged   = "content_changed"
	EventDispatchProgress = "dispatch_progress"
)

const (
	writeWait  = 10 * time.Second
	pongWait   = 60 * time.Second
	pingPeriod = pongWait * 9 / 10
	queueSize  = 256
)

var upgrader = websocket.Upgrader{
	ReadBufferSize:  1024,
	WriteBufferSize: 1024,
	// Website and admin UI are served from other origins.
	CheckOrigin: func(r *http.Request) bool { return true },
}

// subscriber is one connected browser tab.
type subscriber struct {
	hub   *Hub
	conn  *websocket.Conn
	queue chan []byte
}

// Hub fans "please refetch" and dispatch progress events out to every
// connected website and admin client. Nothing is stored.
type Hub struct {
	mu      sync.Mutex
	subs    map[*subscriber]struct{}
	events  chan []byte
	join    chan *subscriber
	leave   chan *subscriber
	done    chan struct{}
	closing sync.Once
}

func NewHub() *Hub {
	return &Hub{
		subs:   make(map[*subscriber]struct{}),
		events: make(chan []byte, queueSize),
		join:   make(chan *subscriber),
		leave:  make(chan *subscriber),
		done:   make(chan struct{}),
	}
}

// Run delivers queued events until Close is called.
func (h *Hub) Run() {
	for {
		select {
		case <-h.done:
			h.dropAll()
			return
		case s := <-h.join:
			h.mu.Lock()
			h.subs[s] = struct{}{}
			h.mu.Unlock()
			logrus.WithField("clients", h.ClientCount()).Debug("websocket client joined")
		case s := <-h.leave:
			h.drop(s)
		case payload := <-h.events:
			h.fanOut(payload)
		}
	}
}

// Close stops Run and disconnects every client.
func (h *Hub) Close() {
	h.closing.Do(func() { close(h.done) })
}

func (h *Hub) fanOut(payload []byte) {
	h.mu.Lock()
	defer h.mu.Unlock()
	for s := range h.subs {
		select {
		case s.queue <- payload:
		default:
			// slow consumer
			delete(h.subs, s)
			close(s.queue)
		}
	}
}

func (h *Hub) drop(s *subscriber) {
	h.mu.Lock()
	defer h.mu.Unlock()
	if _, ok := h.subs[s]; ok {
		delete(h.subs, s)
		close(s.queue)
	}
}

func (h *Hub) dropAll() {
	h.mu.Lock()
	defer h.mu.Unlock()
	for s := range h.subs {
		delete(h.subs, s)
		close(s.queue)
	}
}

func (h *Hub) ClientCount() int {
	h.mu.Lock()
	defer h.mu.Unlock()
	return len(h.subs)
}

type Event struct {
	Type string      `json:"type"`
	Data interface{} `json:"data"`
}

// Publish queues an event for every client. It never blocks: when the queue
// is full the event is dropped.
func (h *Hub) Publish(eventType string, data interface{}) {
	payload, err := json.Marshal(Event{Type: eventType, Data: data})
	if err != nil {
		logrus.WithError(err).Error("marshal websocket event")
		return
	}
	select {
	case h.events <- payload:
	default:
		logrus.WithField("type", eventType).Warn("websocket queue full, event dropped")
	}
}

// ContentChanged tells clients to refetch the named content (events, faqs, footer, ...).
func (h *Hub) ContentChanged(topic string) {
	h.Publish(EventContentChanged, gin.H{"topic": topic})
}

func (h *Hub) DispatchProgress(progress interface{}) {
	h.Publish(EventDispatchProgress, progress)
}

func (h *Hub) ServeWs(c *gin.Context) {
	conn, err := upgrader.Upgrade(c.Writer, c.Request, nil)
	if err != nil {
		logrus.WithError(err).Warn("websocket upgrade failed")
		return
	}
	s := &subscriber{hub: h, conn: conn, queue: make(chan []byte, queueSize)}
	select {
	case h.join <- s:
	case <-h.done:
		conn.Close()
		return
	}

	go s.write()
	go s.read()
}

// read only watches for pongs and disconnects; clients never send data.
func (s *subscriber) read() {
	defer func() {
		select {
		case s.hub.leave <- s:
		case <-s.hub.done:
		}
		s.conn.Close()
	}()
	s.conn.SetReadLimit(512)
	s.conn.SetReadDeadline(time.Now().Add(pongWait))
	s.conn.SetPongHandler(func(string) error {
		return s.conn.SetReadDeadline(time.Now().Add(pongWait))
	})
	for {
		if _, _, err := s.conn.ReadMessage(); err != nil {
			return
		}
	}
}

func (s *subscriber) write() {
	ticker := time.NewTicker(pingPeriod)
	defer func() {
		ticker.Stop()
		s.conn.Close()
	}()
	for {
		select {
		case payload, ok := <-s.queue:
			s.conn.SetWriteDeadline(time.Now().Add(writeWait))
			if !ok {
				s.conn.WriteMessage(websocket.CloseMessage, []byte{})
				return
			}
			if err := s.conn.WriteMessage(websocket.TextMessage, payload); err != nil {
				return
			}
		case <-ticker.C:
			s.conn.SetWriteDeadline(time.Now().Add(writeWait))
			if err := s.conn.WriteMessage(websocket.PingMessage, nil); err != nil {
				return
			}
		}
	}
}
