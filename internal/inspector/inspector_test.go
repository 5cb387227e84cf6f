package inspector

import (
	"context"
	"encoding/json"
	"errors"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"
	"time"

	"github.com/gorilla/websocket"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/zeusync/gameframe/internal/config"
	"github.com/zeusync/gameframe/internal/core/ecs"
	"github.com/zeusync/gameframe/internal/core/events/bus"
	"github.com/zeusync/gameframe/internal/framework"
)

type tag struct {
	ecs.BaseComponent
}

func staticSource(snap Snapshot) Source {
	return func(context.Context) (Snapshot, error) { return snap, nil }
}

func testConfig() config.InspectorConfig {
	cfg := config.Default().Inspector
	cfg.Enabled = true
	cfg.Addr = "127.0.0.1:0"
	cfg.PushInterval = 10 * time.Millisecond
	return cfg
}

func TestStatsEndpoint(t *testing.T) {
	want := Snapshot{World: ecs.Stats{Entities: 3}, Frames: 7}
	srv := httptest.NewServer(New(testConfig(), staticSource(want), nil).Handler())
	defer srv.Close()

	resp, err := http.Get(srv.URL + "/stats")
	require.NoError(t, err)
	defer resp.Body.Close()
	require.Equal(t, http.StatusOK, resp.StatusCode)
	assert.Equal(t, "application/json", resp.Header.Get("Content-Type"))

	var got Snapshot
	require.NoError(t, json.NewDecoder(resp.Body).Decode(&got))
	assert.Equal(t, 3, got.World.Entities)
	assert.Equal(t, uint64(7), got.Frames)
}

func TestStatsUnavailable(t *testing.T) {
	failing := func(context.Context) (Snapshot, error) { return Snapshot{}, errors.New("host stopped") }
	srv := httptest.NewServer(New(testConfig(), failing, nil).Handler())
	defer srv.Close()

	resp, err := http.Get(srv.URL + "/stats")
	require.NoError(t, err)
	defer resp.Body.Close()
	assert.Equal(t, http.StatusServiceUnavailable, resp.StatusCode)

	resp2, err := http.Post(srv.URL+"/stats", "application/json", nil)
	require.NoError(t, err)
	defer resp2.Body.Close()
	assert.Equal(t, http.StatusMethodNotAllowed, resp2.StatusCode)
}

func TestWebSocketStreamsSnapshots(t *testing.T) {
	n := 0
	counting := func(context.Context) (Snapshot, error) {
		n++
		return Snapshot{Frames: uint64(n)}, nil
	}
	srv := httptest.NewServer(New(testConfig(), counting, nil).Handler())
	defer srv.Close()

	u := "ws" + strings.TrimPrefix(srv.URL, "http") + "/ws"
	conn, _, err := websocket.DefaultDialer.Dial(u, nil)
	require.NoError(t, err)
	defer conn.Close()

	require.NoError(t, conn.SetReadDeadline(time.Now().Add(2*time.Second)))
	var first, second Snapshot
	require.NoError(t, conn.ReadJSON(&first))
	require.NoError(t, conn.ReadJSON(&second))
	assert.Equal(t, uint64(1), first.Frames)
	assert.Equal(t, uint64(2), second.Frames)
}

func TestHostSourceReadsOnLoop(t *testing.T) {
	w := ecs.NewWorld()
	ecs.AddComponent[tag](w.CreateEntity())
	require.NoError(t, w.RegisterUpdateSystem(ecs.Func("noop", func(*ecs.Entity, float64) error { return nil }), ecs.TypeOf[tag]()))
	b := bus.New()
	bus.Subscribe(b, func(context.Context, string) error { return nil })

	fw := framework.New(nil)
	require.NoError(t, fw.AddModule(framework.NewECSModule(w)))
	host := framework.NewHost(fw, config.Default().Host, nil)

	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()
	done := make(chan struct{})
	go func() {
		defer close(done)
		for ctx.Err() == nil {
			host.Step(time.Millisecond)
			time.Sleep(time.Millisecond)
		}
	}()

	snap, err := HostSource(host, w, b)(ctx)
	require.NoError(t, err)
	assert.Equal(t, 1, snap.World.Entities)
	require.Len(t, snap.World.Systems, 1)
	assert.Equal(t, 1, snap.World.Systems[0].Interest)
	require.Len(t, snap.BusTypes, 1)
	assert.Equal(t, "string", snap.BusTypes[0].Name)
	assert.False(t, snap.Time.IsZero())

	cancel()
	<-done
}

func TestServeShutsDownOnCancel(t *testing.T) {
	insp := New(testConfig(), staticSource(Snapshot{}), nil)
	ctx, cancel := context.WithCancel(context.Background())
	errs := make(chan error, 1)
	go func() { errs <- insp.Serve(ctx) }()

	addrCtx, addrCancel := context.WithTimeout(context.Background(), 2*time.Second)
	defer addrCancel()
	addr, err := insp.Addr(addrCtx)
	require.NoError(t, err)

	resp, err := http.Get("http://" + addr.String() + "/stats")
	require.NoError(t, err)
	resp.Body.Close()
	assert.Equal(t, http.StatusOK, resp.StatusCode)

	cancel()
	select {
	case err := <-errs:
		assert.NoError(t, err)
	case <-time.After(2 * time.Second):
		t.Fatal("inspector did not stop")
	}
}
