// Package bus publishes transcript entries to a websocket hub.
package bus

import (
	"encoding/json"
	"errors"
	log "log/slog"
	"net/url"
	"sync"
	"time"

	"github.com/gorilla/websocket"

	"neurotask/internal/transcript"
)

type Message struct {
	From    string    `json:"from"`
	Kind    string    `json:"kind"`
	Speaker string    `json:"speaker,omitempty"`
	Content string    `json:"content"`
	Time    time.Time `json:"time"`
}

// Bus is a transcript sink. Messages are queued and written from a single
// goroutine so a slow hub never blocks the listening loop. A failed write
// drops the connection and redials, at most once per Reconnect.
type Bus struct {
	url  string
	from string

	// Reconnect is the minimum time between redials.
	Reconnect time.Duration

	// conn and lastDial are owned by run.
	conn     *websocket.Conn
	lastDial time.Time

	out  chan Message
	once sync.Once
	done chan struct{}
}

const (
	queueSize    = 64
	writeTimeout = 5 * time.Second
)

var errBackoff = errors.New("reconnect backoff")

func Dial(wsURL, from string) (*Bus, error) {
	u, err := url.Parse(wsURL)
	if err != nil {
		return nil, err
	}

	conn, _, err := websocket.DefaultDialer.Dial(u.String(), nil)
	if err != nil {
		return nil, err
	}

	log.Info("Connected to bus", "url", wsURL)

	b := &Bus{
		url:       u.String(),
		from:      from,
		Reconnect: time.Second,
		conn:      conn,
		lastDial:  time.Now(),
		out:       make(chan Message, queueSize),
		done:      make(chan struct{}),
	}
	go b.run()

	return b, nil
}

func (b *Bus) run() {
	defer close(b.done)

	for m := range b.out {
		data, err := json.Marshal(m)
		if err != nil {
			log.Warn("Failed to encode bus message", "err", err)
			continue
		}
		if err := b.write(data); err != nil {
			log.Warn("Failed to publish to bus", "err", err)
		}
	}
}

func (b *Bus) write(data []byte) error {
	if b.conn != nil {
		err := b.send(data)
		if err == nil {
			return nil
		}
		if !isClosed(err) {
			log.Warn("Bus write failed, reconnecting", "err", err)
		}
		_ = b.conn.Close()
		b.conn = nil
	}

	if err := b.redial(); err != nil {
		return err
	}
	return b.send(data)
}

func (b *Bus) send(data []byte) error {
	_ = b.conn.SetWriteDeadline(time.Now().Add(writeTimeout))
	return b.conn.WriteMessage(websocket.TextMessage, data)
}

func (b *Bus) redial() error {
	if time.Since(b.lastDial) < b.Reconnect {
		return errBackoff
	}
	b.lastDial = time.Now()

	conn, _, err := websocket.DefaultDialer.Dial(b.url, nil)
	if err != nil {
		return err
	}

	log.Info("Reconnected to bus", "url", b.url)
	b.conn = conn
	return nil
}

func isClosed(err error) bool {
	return websocket.IsCloseError(err,
		websocket.CloseNormalClosure,
		websocket.CloseGoingAway,
		websocket.CloseAbnormalClosure)
}

// Publish implements transcript.Sink. Entries are dropped when the queue is full.
func (b *Bus) Publish(e transcript.Entry) {
	m := Message{
		From:    b.from,
		Kind:    "transcript",
		Speaker: string(e.Speaker),
		Content: e.Text,
		Time:    e.Time,
	}

	select {
	case b.out <- m:
	default:
		log.Warn("Bus queue full, dropping entry", "seq", e.Seq)
	}
}

func (b *Bus) Close() error {
	var err error
	b.once.Do(func() {
		close(b.out)
		<-b.done
		if b.conn == nil {
			return
		}
		_ = b.conn.WriteMessage(websocket.CloseMessage,
			websocket.FormatCloseMessage(websocket.CloseNormalClosure, ""))
		err = b.conn.Close()
	})
	return err
}
