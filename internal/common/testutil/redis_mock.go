// Package testutil provides testing utilities for SafeTrail services
package testutil

import (
	"path"
	"testing"

	"github.com/alicebob/miniredis/v2"
	"github.com/redis/go-redis/v9"
)

// MockRedis pairs an in-memory miniredis server with a go-redis client
type MockRedis struct {
	Mini   *miniredis.Miniredis
	Client *redis.Client
}

// NewMockRedis starts miniredis for the duration of the test. Both server and
// client are closed by t.Cleanup.
func NewMockRedis(t testing.TB) *MockRedis {
	t.Helper()

	mini := miniredis.RunT(t)
	client := redis.NewClient(&redis.Options{Addr: mini.Addr()})
	t.Cleanup(func() { _ = client.Close() })

	return &MockRedis{Mini: mini, Client: client}
}

// Keys returns the keys currently stored that match a glob pattern
func (m *MockRedis) Keys(pattern string) []string {
	var out []string
	for _, k := range m.Mini.Keys() {
		if ok, _ := path.Match(pattern, k); ok {
			out = append(out, k)
		}
	}
	return out
}

// Stop shuts the server down so callers can exercise connection failures
func (m *MockRedis) Stop() {
	m.Mini.Close()
}
