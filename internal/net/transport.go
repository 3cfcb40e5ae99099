package net

import (
	"context"
	"fmt"
	"net/http"
	"sync"
	"time"

	"sketchsynth/internal/analysis"
	"sketchsynth/internal/state"

	"github.com/gorilla/websocket"
)

// Packet types exchanged with synth clients.
const (
	PacketFeatures = "features"
	PacketClear    = "clear"
)

// Packet is one JSON frame on the bridge. Features packets carry both the
// whole vector and its "/key" messages, so a client can forward either.
type Packet struct {
	Type     string             `json:"type"`
	Session  string             `json:"session,omitempty"`
	Features *analysis.Features `json:"features,omitempty"`
	Messages []analysis.Message `json:"messages,omitempty"`
}

// DefaultWriteTimeout bounds a write to one client.
const DefaultWriteTimeout = time.Second

// peer is a connected synth client. Writes to a websocket connection must be
// serialised.
type peer struct {
	conn *websocket.Conn
	mu   sync.Mutex
}

func (p *peer) send(pkt Packet, timeout time.Duration) error {
	p.mu.Lock()
	defer p.mu.Unlock()
	if err := p.conn.SetWriteDeadline(time.Now().Add(timeout)); err != nil {
		return err
	}
	return p.conn.WriteJSON(pkt)
}

// Bridge broadcasts features of one session to every connected websocket
// client. Clients may send a clear packet to wipe the sketch.
type Bridge struct {
	Session      string
	WriteTimeout time.Duration
	// OnClear runs when a client asks for the sketch to be cleared.
	OnClear func()

	upgrader websocket.Upgrader

	mu     sync.RWMutex
	peers  map[*peer]struct{}
	latest *Packet
	closed bool
}

// NewBridge returns a bridge for the session with the given id.
func NewBridge(session string) *Bridge {
	return &Bridge{
		Session:      session,
		WriteTimeout: DefaultWriteTimeout,
		upgrader: websocket.Upgrader{
			// synth patches connect from arbitrary local origins
			CheckOrigin: func(*http.Request) bool { return true },
		},
		peers: make(map[*peer]struct{}),
	}
}

// Len returns the number of connected clients.
func (b *Bridge) Len() int {
	b.mu.RLock()
	defer b.mu.RUnlock()
	return len(b.peers)
}

func (b *Bridge) add(p *peer) (*Packet, bool) {
	b.mu.Lock()
	defer b.mu.Unlock()
	if b.closed {
		return nil, false
	}
	b.peers[p] = struct{}{}
	return b.latest, true
}

func (b *Bridge) remove(p *peer) {
	b.mu.Lock()
	_, ok := b.peers[p]
	delete(b.peers, p)
	b.mu.Unlock()
	if ok {
		p.conn.Close()
		state.Logger().Info("bridge client disconnected", "remote", p.conn.RemoteAddr().String())
	}
}

// ServeHTTP upgrades the request and serves the client until it leaves.
// A new client first receives the latest features.
func (b *Bridge) ServeHTTP(w http.ResponseWriter, r *http.Request) {
	conn, err := b.upgrader.Upgrade(w, r, nil)
	if err != nil {
		state.Logger().Warn("bridge upgrade failed", "remote", r.RemoteAddr, "error", err)
		return
	}
	p := &peer{conn: conn}
	latest, ok := b.add(p)
	if !ok {
		conn.Close()
		return
	}
	defer b.remove(p)
	state.Logger().Info("bridge client connected", "remote", conn.RemoteAddr().String(), "clients", b.Len())

	if latest != nil {
		if err := p.send(*latest, b.timeout()); err != nil {
			return
		}
	}
	for {
		var pkt Packet
		if err := conn.ReadJSON(&pkt); err != nil {
			if !websocket.IsCloseError(err, websocket.CloseNormalClosure, websocket.CloseGoingAway) {
				state.Logger().Debug("bridge read failed", "remote", conn.RemoteAddr().String(), "error", err)
			}
			return
		}
		switch pkt.Type {
		case PacketClear:
			state.Logger().Info("bridge clear requested", "remote", conn.RemoteAddr().String())
			if b.OnClear != nil {
				b.OnClear()
			}
		default:
			state.Logger().Debug("bridge packet ignored", "type", pkt.Type)
		}
	}
}

func (b *Bridge) timeout() time.Duration {
	if b.WriteTimeout <= 0 {
		return DefaultWriteTimeout
	}
	return b.WriteTimeout
}

// Publish sends f to every client. Clients that fail to keep up are dropped.
func (b *Bridge) Publish(f analysis.Features) {
	pkt := Packet{Type: PacketFeatures, Session: b.Session, Features: &f, Messages: f.Messages()}
	b.mu.Lock()
	b.latest = &pkt
	peers := make([]*peer, 0, len(b.peers))
	for p := range b.peers {
		peers = append(peers, p)
	}
	b.mu.Unlock()

	for _, p := range peers {
		if err := p.send(pkt, b.timeout()); err != nil {
			state.Logger().Warn("bridge send failed", "remote", p.conn.RemoteAddr().String(), "error", err)
			b.remove(p)
		}
	}
}

// Close disconnects every client and refuses new ones.
func (b *Bridge) Close() {
	b.mu.Lock()
	b.closed = true
	peers := b.peers
	b.peers = make(map[*peer]struct{})
	b.mu.Unlock()
	for p := range peers {
		p.mu.Lock()
		_ = p.conn.WriteControl(websocket.CloseMessage,
			websocket.FormatCloseMessage(websocket.CloseGoingAway, ""), time.Now().Add(b.timeout()))
		p.mu.Unlock()
		p.conn.Close()
	}
}

// Subscribe connects to a bridge at url and calls fn for every packet until
// ctx is done or the connection drops.
func Subscribe(ctx context.Context, url string, fn func(Packet)) error {
	conn, _, err := websocket.DefaultDialer.DialContext(ctx, url, nil)
	if err != nil {
		return fmt.Errorf("net: dial %s: %w", url, err)
	}
	defer conn.Close()

	stop := context.AfterFunc(ctx, func() { conn.Close() })
	defer stop()

	for {
		var pkt Packet
		if err := conn.ReadJSON(&pkt); err != nil {
			if ctx.Err() != nil {
				return nil
			}
			if websocket.IsCloseError(err, websocket.CloseNormalClosure, websocket.CloseGoingAway) {
				return nil
			}
			return fmt.Errorf("net: read %s: %w", url, err)
		}
		fn(pkt)
	}
}

// RequestClear asks the bridge at url to clear its sketch.
func RequestClear(ctx context.Context, url string) error {
	conn, _, err := websocket.DefaultDialer.DialContext(ctx, url, nil)
	if err != nil {
		return fmt.Errorf("net: dial %s: %w", url, err)
	}
	defer conn.Close()
	if err := conn.WriteJSON(Packet{Type: PacketClear}); err != nil {
		return fmt.Errorf("net: send clear: %w", err)
	}
	return conn.WriteMessage(websocket.CloseMessage,
		websocket.FormatCloseMessage(websocket.CloseNormalClosure, ""))
}
