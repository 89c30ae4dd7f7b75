package server

import (
	"context"
	"errors"
	"io"
	"net"
	"net/http"
	"sync"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap/zaptest"
)

type recorder struct {
	mu    sync.Mutex
	order []string
}

func (r *recorder) add(name string) {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.order = append(r.order, name)
}

func TestShutdownFunc(t *testing.T) {
	called := false
	sf := newShutdownFunc("test", func(ctx context.Context) error {
		called = true
		return nil
	})

	assert.Equal(t, "test", sf.Name())
	require.NoError(t, sf.Shutdown(context.Background()))
	assert.True(t, called)
}

func TestServe_ShutsDownOnContextCancel(t *testing.T) {
	ln, err := net.Listen("tcp", "127.0.0.1:0")
	require.NoError(t, err)

	srv := &http.Server{Handler: http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		_, _ = w.Write([]byte("OK"))
	})}

	rec := &recorder{}
	gs := New(Config{Server: srv, Logger: zaptest.NewLogger(t), ShutdownTimeout: 5 * time.Second})
	gs.AddShutdownFunc("tracer", func(ctx context.Context) error { rec.add("tracer"); return nil })
	gs.AddShutdownable(CloseRedis(closerFunc(func() error { rec.add("redis"); return nil })))

	ctx, cancel := context.WithCancel(context.Background())
	done := make(chan error, 1)
	go func() { done <- gs.serve(ctx, ln) }()

	var resp *http.Response
	require.Eventually(t, func() bool {
		resp, err = http.Get("http://" + ln.Addr().String())
		return err == nil
	}, 2*time.Second, 20*time.Millisecond)
	body, _ := io.ReadAll(resp.Body)
	resp.Body.Close()
	assert.Equal(t, "OK", string(body))

	cancel()

	select {
	case err := <-done:
		assert.NoError(t, err)
	case <-time.After(5 * time.Second):
		t.Fatal("shutdown timed out")
	}

	// Components stop in reverse registration order
	assert.Equal(t, []string{"redis", "tracer"}, rec.order)

	_, err = http.Get("http://" + ln.Addr().String())
	assert.Error(t, err)
}

func TestServe_ServerErrorStillShutsDownComponents(t *testing.T) {
	ln, err := net.Listen("tcp", "127.0.0.1:0")
	require.NoError(t, err)
	ln.Close()

	rec := &recorder{}
	gs := New(Config{Server: &http.Server{}, Logger: zaptest.NewLogger(t)})
	gs.AddShutdownFunc("tracer", func(ctx context.Context) error { rec.add("tracer"); return nil })

	err = gs.serve(context.Background(), ln)
	assert.Error(t, err)
	assert.Equal(t, []string{"tracer"}, rec.order)
}

func TestShutdown_ComponentErrorDoesNotStopOthers(t *testing.T) {
	rec := &recorder{}
	gs := New(Config{Logger: zaptest.NewLogger(t)})
	gs.AddShutdownFunc("first", func(ctx context.Context) error { rec.add("first"); return nil })
	gs.AddShutdownFunc("failing", func(ctx context.Context) error { return errors.New("boom") })

	require.NoError(t, gs.Shutdown())
	assert.Equal(t, []string{"first"}, rec.order)

	// A second shutdown finds nothing left to stop
	require.NoError(t, gs.Shutdown())
	assert.Equal(t, []string{"first"}, rec.order)
}

func TestListenAndServe_BadAddress(t *testing.T) {
	gs := New(Config{Server: &http.Server{Addr: "256.0.0.1:bad"}})
	assert.Error(t, gs.ListenAndServe(context.Background()))
}

func TestCloseTracer(t *testing.T) {
	called := false
	s := CloseTracer(func(ctx context.Context) error { called = true; return nil })
	assert.Equal(t, "tracer", s.Name())
	require.NoError(t, s.Shutdown(context.Background()))
	assert.True(t, called)
}

type closerFunc func() error

func (f closerFunc) Close() error { return f() }
