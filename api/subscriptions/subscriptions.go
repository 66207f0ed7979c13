// Copyright (c) 2025 The VeChainThor developers
//
// Distributed under the GNU Lesser General Public License v3.0 software license, see the accompanying
// file LICENSE or <https://www.gnu.org/licenses/lgpl-3.0.html>

package subscriptions

import (
	"context"
	"encoding/json"
	"net/http"
	"time"

	"github.com/ethereum/go-ethereum/event"
	"github.com/gorilla/mux"
	"github.com/gorilla/websocket"

	"github.com/vechain/votemarket/api/restutil"
	"github.com/vechain/votemarket/cache"
	"github.com/vechain/votemarket/co"
	"github.com/vechain/votemarket/log"
	"github.com/vechain/votemarket/runtime"
	"github.com/vechain/votemarket/thor"
)

var logger = log.WithContext("pkg", "subscriptions")

const (
	receiptBuffer = 64
	pongWait      = 60 * time.Second
	pingPeriod    = pongWait * 7 / 10
	writeWait     = 10 * time.Second
)

// Source publishes committed receipts. *runtime.Runtime implements it.
type Source interface {
	SubscribeReceipts(ch chan<- *runtime.Receipt) event.Subscription
}

type msgKey struct {
	txID  thor.Bytes32
	index int
}

type Subscriptions struct {
	source   Source
	upgrader *websocket.Upgrader
	messages *cache.LRU[msgKey, []byte]
	goes     co.Goes
}

func New(source Source, allowedOrigins []string, cacheSize int) (*Subscriptions, error) {
	messages, err := cache.NewLRU[msgKey, []byte]("api_subscription_messages", min(max(cacheSize, 1), 1000))
	if err != nil {
		return nil, err
	}
	return &Subscriptions{
		source: source,
		upgrader: &websocket.Upgrader{
			EnableCompression: true,
			CheckOrigin: func(r *http.Request) bool {
				origin := r.Header.Get("Origin")
				if origin == "" {
					return true
				}
				for _, allowed := range allowedOrigins {
					if allowed == origin || allowed == "*" {
						return true
					}
				}
				return false
			},
		},
		messages: messages,
	}, nil
}

// message serializes an event once for all subscribers.
func (s *Subscriptions) message(r *runtime.Receipt, index int) ([]byte, error) {
	return s.messages.GetOrLoad(msgKey{r.TxID, index}, func(msgKey) ([]byte, error) {
		return json.Marshal(newEventMessage(r, index))
	})
}

func (s *Subscriptions) handleSubscribeEvent(w http.ResponseWriter, req *http.Request) error {
	filter, err := parseEventFilter(req.URL.Query())
	if err != nil {
		return restutil.BadRequest(err)
	}
	// subscribe before the handshake completes so no receipt committed after it is missed
	receipts := make(chan *runtime.Receipt, receiptBuffer)
	sub := s.source.SubscribeReceipts(receipts)
	defer sub.Unsubscribe()

	conn, err := s.upgrader.Upgrade(w, req, nil)
	if err != nil {
		// the upgrader already answered
		logger.Debug("upgrade failed", "err", err)
		return nil
	}

	done := make(chan struct{})
	s.goes.Go(func(ctx context.Context) {
		defer close(done)
		s.pipe(ctx, conn, filter, sub, receipts)
	})
	<-done
	return nil
}

func (s *Subscriptions) pipe(
	ctx context.Context,
	conn *websocket.Conn,
	filter *EventFilter,
	sub event.Subscription,
	receipts <-chan *runtime.Receipt,
) {
	closed := make(chan struct{})
	go func() {
		defer close(closed)
		conn.SetReadDeadline(time.Now().Add(pongWait))
		conn.SetPongHandler(func(string) error {
			return conn.SetReadDeadline(time.Now().Add(pongWait))
		})
		// drain until the peer goes away
		for {
			if _, _, err := conn.ReadMessage(); err != nil {
				return
			}
		}
	}()
	defer func() {
		conn.Close()
		<-closed
	}()

	ticker := time.NewTicker(pingPeriod)
	defer ticker.Stop()

	for {
		select {
		case <-ctx.Done():
			conn.WriteControl(websocket.CloseMessage,
				websocket.FormatCloseMessage(websocket.CloseGoingAway, "server shutting down"),
				time.Now().Add(writeWait))
			return
		case <-closed:
			return
		case err := <-sub.Err():
			if err != nil {
				logger.Debug("receipt subscription failed", "err", err)
			}
			return
		case <-ticker.C:
			if err := conn.WriteControl(websocket.PingMessage, nil, time.Now().Add(writeWait)); err != nil {
				return
			}
		case r := <-receipts:
			for i, ev := range r.Events {
				if !filter.Match(ev) {
					continue
				}
				msg, err := s.message(r, i)
				if err != nil {
					logger.Warn("failed to encode event", "txID", r.TxID, "err", err)
					return
				}
				conn.SetWriteDeadline(time.Now().Add(writeWait))
				if err := conn.WriteMessage(websocket.TextMessage, msg); err != nil {
					logger.Debug("write failed", "err", err)
					return
				}
			}
		}
	}
}

// Close disconnects all subscribers.
func (s *Subscriptions) Close() {
	s.goes.Stop()
}

func (s *Subscriptions) Mount(root *mux.Router, pathPrefix string) {
	sub := root.PathPrefix(pathPrefix).Subrouter()

	sub.Path("/event").
		Methods(http.MethodGet).
		Name("WS /subscriptions/event").
		HandlerFunc(restutil.WrapHandlerFunc(s.handleSubscribeEvent))
}
