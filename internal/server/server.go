package server

import (
	"context"
	"encoding/json"
	"errors"
	"log"
	"net/http"
	"sync"

	"github.com/gorilla/websocket"

	"BinaryTrade/internal/ledger"
	"BinaryTrade/internal/market"
	"BinaryTrade/internal/model"
	"BinaryTrade/internal/notifier"
	"BinaryTrade/internal/scheduler"
)

var wsUpgrader = websocket.Upgrader{
	ReadBufferSize:  1024,
	WriteBufferSize: 1024,
	CheckOrigin:     func(r *http.Request) bool { return true },
}

// Server exposes the market feed and wager ledger to UI clients: a websocket
// for the live stream and plain JSON endpoints for snapshots.
type Server struct {
	Feed      *market.Feed
	Ledger    *ledger.WagerLedger
	Balance   ledger.BalanceLedger
	Scheduler *scheduler.Scheduler
	Notifier  notifier.Notifier

	mu      sync.Mutex
	clients map[*client]struct{}
}

// NewServer wires the delivery layer. Settlements are pushed to every
// connected client regardless of which one placed the wager.
func NewServer(feed *market.Feed, wl *ledger.WagerLedger, balance ledger.BalanceLedger, sched *scheduler.Scheduler, n notifier.Notifier) *Server {
	s := &Server{
		Feed:      feed,
		Ledger:    wl,
		Balance:   balance,
		Scheduler: sched,
		Notifier:  n,
		clients:   make(map[*client]struct{}),
	}
	wl.OnSettled(s.broadcastSettled)
	return s
}

// Handler returns the HTTP routes.
func (s *Server) Handler() http.Handler {
	mux := http.NewServeMux()
	mux.HandleFunc("/ws", s.handleWS)
	mux.HandleFunc("/api/wagers", s.handleWagers)
	mux.HandleFunc("/api/balance", s.handleBalance)
	return mux
}

func (s *Server) handleWS(w http.ResponseWriter, r *http.Request) {
	conn, err := wsUpgrader.Upgrade(w, r, nil)
	if err != nil {
		log.Printf("[WARN] ws upgrade: %v", err)
		return
	}

	c := newClient(conn)
	s.mu.Lock()
	s.clients[c] = struct{}{}
	s.mu.Unlock()
	log.Printf("[INFO] ws client connected: %s", r.RemoteAddr)

	go c.writePump()
	s.readLoop(c)

	s.mu.Lock()
	delete(s.clients, c)
	s.mu.Unlock()
	c.close()
	log.Printf("[INFO] ws client disconnected: %s", r.RemoteAddr)
}

func (s *Server) readLoop(c *client) {
	for {
		var msg inboundMsg
		if err := c.conn.ReadJSON(&msg); err != nil {
			if websocket.IsUnexpectedCloseError(err, websocket.CloseGoingAway, websocket.CloseNormalClosure) {
				log.Printf("[WARN] ws read: %v", err)
			}
			return
		}

		switch msg.Type {
		case "subscribe":
			s.handleSubscribe(c, msg)
		case "place":
			s.handlePlace(c, msg)
		default:
			c.push(errorMsg("unknown_type", "unknown message type "+msg.Type))
		}
	}
}

// handleSubscribe switches the feed selection and attaches the client to it.
// The selection is process-wide: this is a single-account simulator, and the
// feed reinitializes for whichever selection arrived last.
func (s *Server) handleSubscribe(c *client, msg inboundMsg) {
	tf, err := model.ParseTimeframe(msg.Timeframe)
	if err != nil {
		c.push(errorMsg("invalid_timeframe", err.Error()))
		return
	}

	s.Feed.Select(msg.Asset, tf)
	c.resubscribe(func() func() {
		return s.Feed.Subscribe(func(candles []model.Candle, price float64) {
			c.push(outboundMsg{Type: "feed", Candles: candles, Price: price})
		})
	})
}

func (s *Server) handlePlace(c *client, msg inboundMsg) {
	dir, err := model.ParseDirection(msg.Direction)
	if err != nil {
		c.push(errorMsg("invalid_direction", err.Error()))
		return
	}
	tf, err := model.ParseTimeframe(msg.Duration)
	if err != nil {
		c.push(errorMsg("invalid_duration", err.Error()))
		return
	}

	// Entry price is pinned to the live price at the instant of placement.
	price, err := s.Feed.CurrentPrice()
	if err != nil {
		c.push(errorMsg("feed_unavailable", err.Error()))
		return
	}

	w, err := s.Ledger.Open(msg.Amount, dir, price, tf.Duration)
	if err != nil {
		c.push(errorMsg(placeErrorCode(err), err.Error()))
		return
	}
	s.Scheduler.Arm(w)
	c.push(outboundMsg{Type: "placed", Wager: &w, Balance: s.Balance.Balance()})

	asset, _ := s.Feed.Selection()
	go s.trySend(notifier.FormatPlacement(&w, asset.Name))
}

// trySend delivers a notice without blocking the read loop. Delivery is best
// effort; a failed send is logged and dropped.
func (s *Server) trySend(text string) {
	if s.Notifier == nil {
		return
	}
	if err := s.Notifier.Notify(context.Background(), text); err != nil {
		log.Printf("[ERROR] send placement notice: %v", err)
	}
}

func (s *Server) broadcastSettled(w model.Wager) {
	msg := outboundMsg{Type: "settled", Wager: &w, Balance: s.Balance.Balance()}
	s.mu.Lock()
	for c := range s.clients {
		c.push(msg)
	}
	s.mu.Unlock()
}

func (s *Server) handleWagers(w http.ResponseWriter, r *http.Request) {
	writeJSON(w, map[string]any{"wagers": s.Ledger.All()})
}

func (s *Server) handleBalance(w http.ResponseWriter, r *http.Request) {
	writeJSON(w, map[string]any{"balance": s.Balance.Balance()})
}

func writeJSON(w http.ResponseWriter, v any) {
	w.Header().Set("Content-Type", "application/json")
	if err := json.NewEncoder(w).Encode(v); err != nil {
		log.Printf("[WARN] write response: %v", err)
	}
}

// placeErrorCode maps the ledger error taxonomy onto wire codes.
func placeErrorCode(err error) string {
	switch {
	case errors.Is(err, ledger.ErrInvalidAmount):
		return "invalid_amount"
	case errors.Is(err, ledger.ErrInsufficientBalance):
		return "insufficient_balance"
	case errors.Is(err, ledger.ErrBalanceUpdate):
		return "balance_update_failed"
	default:
		return "internal_error"
	}
}
