package server

import (
	"sync"

	"github.com/gorilla/websocket"

	"BinaryTrade/internal/model"
)

type inboundMsg struct {
	Type      string  `json:"type"` // "subscribe" | "place"
	Asset     string  `json:"asset,omitempty"`
	Timeframe string  `json:"timeframe,omitempty"`
	Amount    float64 `json:"amount,omitempty"`
	Direction string  `json:"direction,omitempty"`
	Duration  string  `json:"duration,omitempty"` // timeframe label, e.g. "1m"
}

type outboundMsg struct {
	Type    string         `json:"type"` // "feed" | "placed" | "settled" | "error"
	Candles []model.Candle `json:"candles,omitempty"`
	Price   float64        `json:"price,omitempty"`
	Wager   *model.Wager   `json:"wager,omitempty"`
	Balance float64        `json:"balance,omitempty"`
	Code    string         `json:"code,omitempty"`
	Message string         `json:"message,omitempty"`
}

func errorMsg(code, message string) outboundMsg {
	return outboundMsg{Type: "error", Code: code, Message: message}
}

// client is one websocket consumer. Writes go through a buffered channel so
// a slow client drops frames instead of stalling the feed's tick loop.
type client struct {
	conn *websocket.Conn
	send chan outboundMsg

	mu     sync.Mutex
	unsub  func()
	closed bool
}

func newClient(conn *websocket.Conn) *client {
	return &client{
		conn: conn,
		send: make(chan outboundMsg, 16),
	}
}

// push queues a message, dropping it when the client can't keep up. The next
// feed frame carries the full candle window, so a dropped frame heals
// itself. A feed callback still in flight during close is discarded here
// rather than writing to a closed channel.
func (c *client) push(msg outboundMsg) {
	c.mu.Lock()
	defer c.mu.Unlock()
	if c.closed {
		return
	}
	select {
	case c.send <- msg:
	default:
	}
}

// resubscribe swaps the client's feed subscription for a new one. The
// subscribe call runs outside the client lock because it delivers the first
// frame synchronously through push.
func (c *client) resubscribe(subscribe func() func()) {
	c.mu.Lock()
	old := c.unsub
	c.unsub = nil
	closed := c.closed
	c.mu.Unlock()

	if old != nil {
		old()
	}
	if closed {
		return
	}

	unsub := subscribe()
	c.mu.Lock()
	if c.closed {
		c.mu.Unlock()
		unsub()
		return
	}
	c.unsub = unsub
	c.mu.Unlock()
}

func (c *client) writePump() {
	for msg := range c.send {
		if err := c.conn.WriteJSON(msg); err != nil {
			return
		}
	}
}

func (c *client) close() {
	c.mu.Lock()
	defer c.mu.Unlock()
	if c.closed {
		return
	}
	c.closed = true
	if c.unsub != nil {
		c.unsub()
		c.unsub = nil
	}
	close(c.send)
	c.conn.Close()
}
