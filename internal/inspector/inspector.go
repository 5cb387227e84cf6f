package inspector

import (
	"context"
	"encoding/json"
	"errors"
	"net"
	"net/http"
	"sync"
	"time"

	"github.com/gorilla/websocket"

	"github.com/zeusync/gameframe/internal/config"
	"github.com/zeusync/gameframe/internal/core/ecs"
	"github.com/zeusync/gameframe/internal/core/events/bus"
	"github.com/zeusync/gameframe/internal/core/observability/log"
	"github.com/zeusync/gameframe/internal/framework"
)

var upgrader = websocket.Upgrader{
	ReadBufferSize:  1024,
	WriteBufferSize: 4096,
}

// Snapshot is what the inspector serves on /stats and pushes on /ws.
type Snapshot struct {
	Time        time.Time      `json:"time"`
	World       ecs.Stats      `json:"world"`
	Bus         bus.Metrics    `json:"bus"`
	BusTypes    []bus.TypeInfo `json:"bus_types"`
	Frames      uint64         `json:"frames"`
	FixedFrames uint64         `json:"fixed_frames"`
}

// Source produces a snapshot. It is called from HTTP goroutines.
type Source func(ctx context.Context) (Snapshot, error)

// HostSource reads world and host counters on the frame loop so the world
// is never touched from an HTTP goroutine.
func HostSource(h *framework.Host, w *ecs.World, b *bus.Bus) Source {
	return func(ctx context.Context) (Snapshot, error) {
		snap, err := framework.Call(ctx, h, func() (Snapshot, error) {
			frames, fixed := h.Frames()
			return Snapshot{World: w.Stats(), Frames: frames, FixedFrames: fixed}, nil
		})
		if err != nil {
			return Snapshot{}, err
		}
		snap.Time = time.Now().UTC()
		if b != nil {
			snap.Bus = b.Metrics()
			snap.BusTypes = b.Types()
		}
		return snap, nil
	}
}

// Inspector is a read-only HTTP view of a running world.
type Inspector struct {
	cfg    config.InspectorConfig
	source Source
	log    log.Log

	mu    sync.Mutex
	conns map[*websocket.Conn]struct{}
	addr  net.Addr
	ready chan struct{}
}

func New(cfg config.InspectorConfig, source Source, logger log.Log) *Inspector {
	if logger == nil {
		logger = log.NewNop()
	}
	return &Inspector{
		cfg:    cfg,
		source: source,
		log:    logger.Named("inspector"),
		conns:  make(map[*websocket.Conn]struct{}),
		ready:  make(chan struct{}),
	}
}

func (i *Inspector) Name() string { return "inspector" }

func (i *Inspector) Handler() http.Handler {
	mux := http.NewServeMux()
	mux.HandleFunc("GET /stats", i.handleStats)
	mux.HandleFunc("GET /ws", i.handleWebSocket)
	return mux
}

// Addr blocks until Serve is listening and returns the bound address.
func (i *Inspector) Addr(ctx context.Context) (net.Addr, error) {
	select {
	case <-i.ready:
		return i.addr, nil
	case <-ctx.Done():
		return nil, ctx.Err()
	}
}

// Serve listens on the configured address until ctx is cancelled.
func (i *Inspector) Serve(ctx context.Context) error {
	ln, err := net.Listen("tcp", i.cfg.Addr)
	if err != nil {
		return err
	}
	i.addr = ln.Addr()
	close(i.ready)

	srv := &http.Server{
		Handler:           i.Handler(),
		ReadHeaderTimeout: 5 * time.Second,
		BaseContext:       func(net.Listener) context.Context { return ctx },
	}
	go func() {
		<-ctx.Done()
		shutdownCtx, cancel := context.WithTimeout(context.WithoutCancel(ctx), 5*time.Second)
		defer cancel()
		_ = srv.Shutdown(shutdownCtx)
		i.closeConns()
	}()

	i.log.Info("inspector listening", log.String("addr", i.addr.String()))
	if err = srv.Serve(ln); err != nil && !errors.Is(err, http.ErrServerClosed) {
		i.log.Error("inspector stopped", log.Error(err))
		return err
	}
	return nil
}

func (i *Inspector) handleStats(w http.ResponseWriter, r *http.Request) {
	snap, err := i.source(r.Context())
	if err != nil {
		i.log.Warn("snapshot failed", log.Error(err))
		http.Error(w, err.Error(), http.StatusServiceUnavailable)
		return
	}
	w.Header().Set("Content-Type", "application/json")
	if err = json.NewEncoder(w).Encode(snap); err != nil {
		i.log.Debug("write stats", log.Error(err))
	}
}

func (i *Inspector) handleWebSocket(w http.ResponseWriter, r *http.Request) {
	conn, err := upgrader.Upgrade(w, r, nil)
	if err != nil {
		i.log.Warn("websocket upgrade failed", log.Error(err))
		return
	}
	i.track(conn)
	defer i.untrack(conn)

	// The client never sends anything meaningful; reading detects close.
	closed := make(chan struct{})
	go func() {
		defer close(closed)
		for {
			if _, _, err := conn.ReadMessage(); err != nil {
				return
			}
		}
	}()

	ctx := r.Context()
	interval := i.cfg.PushInterval
	if interval <= 0 {
		interval = time.Second
	}
	ticker := time.NewTicker(interval)
	defer ticker.Stop()

	for {
		snap, err := i.source(ctx)
		if err != nil {
			i.log.Debug("stream snapshot failed", log.Error(err))
			_ = conn.WriteMessage(websocket.CloseMessage,
				websocket.FormatCloseMessage(websocket.CloseGoingAway, "snapshot unavailable"))
			return
		}
		if err = conn.WriteJSON(snap); err != nil {
			return
		}
		select {
		case <-ticker.C:
		case <-closed:
			return
		case <-ctx.Done():
			return
		}
	}
}

func (i *Inspector) track(c *websocket.Conn) {
	i.mu.Lock()
	i.conns[c] = struct{}{}
	i.mu.Unlock()
}

func (i *Inspector) untrack(c *websocket.Conn) {
	i.mu.Lock()
	delete(i.conns, c)
	i.mu.Unlock()
	_ = c.Close()
}

func (i *Inspector) closeConns() {
	i.mu.Lock()
	defer i.mu.Unlock()
	for c := range i.conns {
		_ = c.Close()
	}
}
