package smartstream

import (
	"context"
	"net/http"
	"sync"
	"time"

	"github.com/gorilla/websocket"

	"orb-scanner/src/interfaces"
	"orb-scanner/src/logger"
	"orb-scanner/src/models"
)

// ----------------------------------------------------------------------------------
// Live tick stream. Dials the broker's websocket, subscribes the watchlist
// in snap-quote mode and pushes decoded ticks into the pipeline queue.
// Reconnects with backoff; the pipeline never notices a flap beyond a gap in
// ticks.
// ----------------------------------------------------------------------------------

type Stream struct {
	cfg     models.MFeedConfig
	session *Session
	tokens  []string
	logger  *logger.Logger

	mu   sync.Mutex
	conn *websocket.Conn
	stop chan struct{}
}

func NewStream(cfg models.MFeedConfig, session *Session, tokens []string, log *logger.Logger) *Stream {
	return &Stream{
		cfg:     cfg,
		session: session,
		tokens:  tokens,
		logger:  log,
		stop:    make(chan struct{}),
	}
}

func (st *Stream) Name() string { return "smartstream" }

// -----------------------------------------------------------------------------

type subscribeRequest struct {
	CorrelationID string          `json:"correlationID"`
	Action        int             `json:"action"`
	Params        subscribeParams `json:"params"`
}

type subscribeParams struct {
	Mode      int         `json:"mode"`
	TokenList []tokenList `json:"tokenList"`
}

type tokenList struct {
	ExchangeType int      `json:"exchangeType"`
	Tokens       []string `json:"tokens"`
}

// -----------------------------------------------------------------------------

// Start launches the stream goroutine. Returns immediately; connection
// failures are retried inside the loop.
func (st *Stream) Start(ctx context.Context, sink interfaces.TickSink, wg *sync.WaitGroup) error {
	wg.Add(1)
	go func() {
		defer wg.Done()
		st.run(ctx, sink)
	}()
	return nil
}

func (st *Stream) run(ctx context.Context, sink interfaces.TickSink) {
	attempts := 0
	for {
		select {
		case <-ctx.Done():
			return
		case <-st.stop:
			return
		default:
		}

		err := st.connectAndConsume(ctx, sink)
		if ctx.Err() != nil {
			return
		}

		attempts++
		if st.cfg.ReconnectRetries > 0 && attempts > st.cfg.ReconnectRetries {
			st.logger.Error("feed: giving up after %d reconnect attempts: %v", attempts-1, err)
			return
		}

		delay := time.Duration(1<<uint(min(attempts, 5))) * time.Second
		st.logger.Warning("feed: connection lost (%v), reconnecting in %s", err, delay)
		select {
		case <-time.After(delay):
		case <-ctx.Done():
			return
		case <-st.stop:
			return
		}
	}
}

// -----------------------------------------------------------------------------

// connectAndConsume holds one websocket session: dial, subscribe, then read
// until the connection drops or the context ends.
func (st *Stream) connectAndConsume(ctx context.Context, sink interfaces.TickSink) error {
	header := http.Header{}
	for k, v := range st.session.StreamHeaders() {
		header.Set(k, v)
	}

	conn, _, err := websocket.DefaultDialer.DialContext(ctx, st.cfg.WSURL, header)
	if err != nil {
		return err
	}
	st.mu.Lock()
	st.conn = conn
	st.mu.Unlock()
	defer conn.Close()

	sub := subscribeRequest{
		CorrelationID: "orb-scanner",
		Action:        1,
		Params: subscribeParams{
			Mode: ModeSnapQuote,
			TokenList: []tokenList{
				{ExchangeType: st.cfg.ExchangeType, Tokens: st.tokens},
			},
		},
	}
	if err := conn.WriteJSON(sub); err != nil {
		return err
	}
	st.logger.Info("feed: subscribed %d tokens in snap-quote mode", len(st.tokens))

	// Heartbeat keeps the broker from closing an idle connection.
	hbCtx, hbCancel := context.WithCancel(ctx)
	defer hbCancel()
	go st.heartbeat(hbCtx, conn)

	for {
		msgType, data, err := conn.ReadMessage()
		if err != nil {
			return err
		}

		switch msgType {
		case websocket.BinaryMessage:
			tick, err := ParsePacket(data)
			if err != nil {
				st.logger.Debug("feed: bad packet: %v", err)
				continue
			}
			sink.Offer(tick)
		case websocket.TextMessage:
			// "pong" replies and occasional error strings; nothing to do.
		}
	}
}

func (st *Stream) heartbeat(ctx context.Context, conn *websocket.Conn) {
	interval := time.Duration(st.cfg.HeartbeatSeconds) * time.Second
	if interval <= 0 {
		interval = 25 * time.Second
	}
	ticker := time.NewTicker(interval)
	defer ticker.Stop()

	for {
		select {
		case <-ctx.Done():
			return
		case <-ticker.C:
			if err := conn.WriteMessage(websocket.TextMessage, []byte("ping")); err != nil {
				return
			}
		}
	}
}

// -----------------------------------------------------------------------------

// Stop unblocks the read loop and stops reconnecting.
func (st *Stream) Stop() {
	close(st.stop)
	st.mu.Lock()
	if st.conn != nil {
		st.conn.Close()
	}
	st.mu.Unlock()
}
