// Copyright (c) 2018 The VeChainThor developers

// Distributed under the GNU Lesser General Public License v3.0 software license, see the accompanying
// file LICENSE or <https://www.gnu.org/licenses/lgpl-3.0.html>

package subscriptions

import (
	"context"
	"net/http"
	"net/url"
	"strconv"
	"strings"
	"sync"
	"time"

	"github.com/gorilla/mux"
	"github.com/gorilla/websocket"
	"github.com/pkg/errors"

	"github.com/subquery/network-ledger/api/utils"
	"github.com/subquery/network-ledger/ledger"
	"github.com/subquery/network-ledger/log"
	"github.com/subquery/network-ledger/logdb"
	"github.com/subquery/network-ledger/sq"
)

const (
	pageSize     = 256
	pongWait     = 60 * time.Second
	pingPeriod   = (pongWait * 7) / 10
	writeTimeout = 10 * time.Second
)

var logger = log.WithContext("pkg", "subscriptions")

// Subscriptions streams committed events over websockets.
type Subscriptions struct {
	ledger         *ledger.Ledger
	backtraceLimit uint64
	upgrader       *websocket.Upgrader
	cache          *messageCache
	done           chan struct{}
	wg             sync.WaitGroup
}

func New(ledger *ledger.Ledger, allowedOrigins []string, backtraceLimit uint64) *Subscriptions {
	return &Subscriptions{
		ledger:         ledger,
		backtraceLimit: backtraceLimit,
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
		cache: newMessageCache(pageSize),
		done:  make(chan struct{}),
	}
}

// eventFilter narrows a stream by emitter, name and subject.
type eventFilter struct {
	emitter *sq.Address
	name    string
	subject *sq.Address
}

func parseEventFilter(q url.Values) (*eventFilter, error) {
	f := &eventFilter{name: q.Get("name")}
	if s := q.Get("emitter"); s != "" {
		addr, err := ledger.ParseAccount(s)
		if err != nil {
			return nil, errors.WithMessage(err, "emitter")
		}
		f.emitter = &addr
	}
	if s := q.Get("subject"); s != "" {
		addr, err := ledger.ParseAccount(s)
		if err != nil {
			return nil, errors.WithMessage(err, "subject")
		}
		f.subject = &addr
	}
	return f, nil
}

func (f *eventFilter) match(ev *logdb.Event) bool {
	if f.emitter != nil && *f.emitter != ev.Emitter {
		return false
	}
	if f.name != "" && f.name != ev.Name {
		return false
	}
	if f.subject != nil {
		for _, s := range ev.Subjects {
			if s != nil && *s == *f.subject {
				return true
			}
		}
		return false
	}
	return true
}

// parsePosition resolves the pos query value. Empty means the current tail;
// positions further back than the backtrace limit are rejected.
func (s *Subscriptions) parsePosition(ctx context.Context, pos string) (int64, error) {
	logs := s.ledger.Logs()
	if logs == nil {
		return 0, errors.New("event log disabled")
	}
	last, err := logs.LastSeq(ctx)
	if err != nil {
		return 0, err
	}
	pos = strings.TrimSpace(pos)
	if pos == "" {
		return last, nil
	}
	seq, err := strconv.ParseInt(pos, 10, 64)
	if err != nil || seq < 0 {
		return 0, utils.BadRequest(errors.New("pos: invalid sequence"))
	}
	if seq > last {
		return 0, utils.BadRequest(errors.New("pos: out of range"))
	}
	if s.backtraceLimit > 0 &&
		logdb.SequenceBlock(last) > logdb.SequenceBlock(seq)+s.backtraceLimit {
		return 0, utils.Forbidden(errors.New("pos: backtrace limit exceeded"))
	}
	return seq, nil
}

func (s *Subscriptions) handleSubscribeEvents(w http.ResponseWriter, req *http.Request) error {
	filter, err := parseEventFilter(req.URL.Query())
	if err != nil {
		return utils.BadRequest(err)
	}
	pos, err := s.parsePosition(req.Context(), req.URL.Query().Get("pos"))
	if err != nil {
		return err
	}

	conn, err := s.upgrader.Upgrade(w, req, nil)
	// since the conn is hijacked here, no error should be returned in lines below
	if err != nil {
		logger.Debug("upgrade to websocket", "err", err)
		return nil
	}

	s.wg.Add(1)
	defer s.wg.Done()

	err = s.pipe(conn, pos, filter)
	closeMsg := websocket.FormatCloseMessage(websocket.CloseNormalClosure, "")
	if err != nil {
		logger.Debug("error in websocket", "err", err)
		closeMsg = websocket.FormatCloseMessage(websocket.CloseInternalServerErr, err.Error())
	}
	_ = conn.WriteControl(websocket.CloseMessage, closeMsg, time.Now().Add(time.Second))
	_ = conn.Close()
	return nil
}

// pipe writes every matching event after pos, then follows the tail until
// the client goes away or the server closes.
func (s *Subscriptions) pipe(conn *websocket.Conn, pos int64, filter *eventFilter) error {
	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()

	closed := make(chan struct{})
	// the reader goroutine handles pongs and notices the peer closing
	go func() {
		defer close(closed)
		conn.SetReadLimit(1024)
		_ = conn.SetReadDeadline(time.Now().Add(pongWait))
		conn.SetPongHandler(func(string) error {
			return conn.SetReadDeadline(time.Now().Add(pongWait))
		})
		for {
			if _, _, err := conn.NextReader(); err != nil {
				if websocket.IsUnexpectedCloseError(err, websocket.CloseGoingAway, websocket.CloseNormalClosure) {
					logger.Debug("websocket read", "err", err)
				}
				return
			}
		}
	}()

	pingTicker := time.NewTicker(pingPeriod)
	defer pingTicker.Stop()

	for {
		// subscribe before reading so a commit between the two is not missed
		waiter := s.ledger.NewEventWaiter()
		events, err := s.ledger.EventsAfter(ctx, pos, pageSize)
		if err != nil {
			return err
		}
		for _, ev := range events {
			pos = ev.Seq
			if !filter.match(ev) {
				continue
			}
			msg, _, err := s.cache.GetOrAdd(ev)
			if err != nil {
				return err
			}
			_ = conn.SetWriteDeadline(time.Now().Add(writeTimeout))
			if err := conn.WriteMessage(websocket.TextMessage, msg); err != nil {
				return nil
			}
		}
		if len(events) == pageSize {
			continue
		}

		for waiting := true; waiting; {
			select {
			case <-s.done:
				return nil
			case <-closed:
				return nil
			case <-waiter.C():
				waiting = false
			case <-pingTicker.C:
				_ = conn.SetWriteDeadline(time.Now().Add(writeTimeout))
				if err := conn.WriteMessage(websocket.PingMessage, nil); err != nil {
					return nil
				}
			}
		}
	}
}

// Close ends every open stream and waits for them to finish.
func (s *Subscriptions) Close() {
	close(s.done)
	s.wg.Wait()
}

func (s *Subscriptions) Mount(root *mux.Router, pathPrefix string) {
	sub := root.PathPrefix(pathPrefix).Subrouter()

	sub.Path("/events").
		Methods(http.MethodGet).
		Name("WS /subscriptions/events").
		HandlerFunc(utils.WrapHandlerFunc(s.handleSubscribeEvents))
}
