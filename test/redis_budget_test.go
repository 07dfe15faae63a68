//go:build integration
// +build integration

package test

import (
	"context"
	"net"
	"sync/atomic"
	"testing"
	"time"

	"github.com/alicebob/miniredis/v2"
	"github.com/redis/go-redis/v9"
	"github.com/virelio/authsync"
	"github.com/virelio/authsync/tokenstore"
)

// cmdCounter is a go-redis Hook that counts the number of Redis round-trips
// (individual commands and pipeline calls).
type cmdCounter struct {
	commands  atomic.Int64
	pipelines atomic.Int64
}

func (h *cmdCounter) DialHook(next redis.DialHook) redis.DialHook {
	return func(ctx context.Context, network, addr string) (net.Conn, error) {
		return next(ctx, network, addr)
	}
}

func (h *cmdCounter) ProcessHook(next redis.ProcessHook) redis.ProcessHook {
	return func(ctx context.Context, cmd redis.Cmder) error {
		h.commands.Add(1)
		return next(ctx, cmd)
	}
}

func (h *cmdCounter) ProcessPipelineHook(next redis.ProcessPipelineHook) redis.ProcessPipelineHook {
	return func(ctx context.Context, cmds []redis.Cmder) error {
		// Each pipeline call is one network round-trip regardless of command count.
		h.pipelines.Add(1)
		h.commands.Add(int64(len(cmds)))
		return next(ctx, cmds)
	}
}

func (h *cmdCounter) Reset() {
	h.commands.Store(0)
	h.pipelines.Store(0)
}

func (h *cmdCounter) Commands() int64  { return h.commands.Load() }
func (h *cmdCounter) Pipelines() int64 { return h.pipelines.Load() }

// newCountedStore creates a tokenstore.Redis backed by miniredis with a
// cmdCounter hook installed. Reset the counter before each measured operation.
func newCountedStore(t *testing.T) (*tokenstore.Redis, *redis.Client, *cmdCounter, func()) {
	t.Helper()

	mr, err := miniredis.Run()
	if err != nil {
		t.Fatalf("miniredis: %v", err)
	}

	rdb := redis.NewClient(&redis.Options{Addr: mr.Addr()})
	counter := &cmdCounter{}
	rdb.AddHook(counter)

	// Warm the connection: go-redis may emit extra commands on first use
	// (handshake, AUTH, SELECT, CLIENT SETNAME, etc.). Issuing a PING
	// before installing the counter avoids counting that noise.
	if err := rdb.Ping(context.Background()).Err(); err != nil {
		t.Fatalf("warmup ping: %v", err)
	}

	// Reset after warmup so budget counts start clean.
	counter.Reset()

	store := tokenstore.NewRedis(rdb, "as", time.Hour)
	return store, rdb, counter, func() {
		_ = rdb.Close()
		mr.Close()
	}
}

// TestTokenReadRedisBudget verifies that reading the stored grant is one
// Redis round-trip (a single GET).
func TestTokenReadRedisBudget(t *testing.T) {
	store, _, counter, cleanup := newCountedStore(t)
	defer cleanup()

	ctx := context.Background()

	// Seed the record first (not counted).
	if err := store.Set(ctx, sessionTokens(1)); err != nil {
		t.Fatalf("seed: %v", err)
	}

	counter.Reset()

	if _, _, err := store.Get(ctx); err != nil {
		t.Fatalf("get: %v", err)
	}

	cmds := counter.Commands()
	if cmds > 1 {
		t.Errorf("Store.Get used %d Redis commands; budget is 1 (GET)", cmds)
	}
	t.Logf("Store.Get: %d commands, %d pipelines", cmds, counter.Pipelines())
}

// TestTokenWriteRedisBudget verifies that persisting a grant is one Redis
// round-trip (a single SET, TTL included in the same command).
func TestTokenWriteRedisBudget(t *testing.T) {
	store, _, counter, cleanup := newCountedStore(t)
	defer cleanup()

	counter.Reset()

	if err := store.Set(context.Background(), sessionTokens(1)); err != nil {
		t.Fatalf("set: %v", err)
	}

	cmds := counter.Commands()
	if cmds > 1 {
		t.Errorf("Store.Set used %d Redis commands; budget is 1 (SET)", cmds)
	}
	t.Logf("Store.Set: %d commands, %d pipelines", cmds, counter.Pipelines())
}

// TestTokenClearRedisBudget verifies that clearing the stored grant is one
// Redis round-trip (a single DEL).
func TestTokenClearRedisBudget(t *testing.T) {
	store, _, counter, cleanup := newCountedStore(t)
	defer cleanup()

	ctx := context.Background()

	if err := store.Set(ctx, sessionTokens(1)); err != nil {
		t.Fatalf("seed: %v", err)
	}

	counter.Reset()

	if err := store.Clear(ctx); err != nil {
		t.Fatalf("clear: %v", err)
	}

	cmds := counter.Commands()
	if cmds > 1 {
		t.Errorf("Store.Clear used %d Redis commands; budget is 1 (DEL)", cmds)
	}
	t.Logf("Store.Clear: %d commands, %d pipelines", cmds, counter.Pipelines())
}

// TestEngineRefreshRedisBudget verifies that a full engine refresh touches
// the store at most twice: one GET to load the current grant and one SET to
// persist the rotated one.
func TestEngineRefreshRedisBudget(t *testing.T) {
	store, _, counter, cleanup := newCountedStore(t)
	defer cleanup()

	client := &countingClient{}
	engine, err := authsync.New().
		WithAPIClient(client).
		WithTokenStore(store).
		Build()
	if err != nil {
		t.Fatalf("build: %v", err)
	}
	defer engine.Close()

	ctx := context.Background()
	if _, err := engine.Login(ctx, authsync.Credentials{Email: "u@example.com", Password: "pw"}); err != nil {
		t.Fatalf("login: %v", err)
	}

	counter.Reset()

	if _, err := engine.Refresh(ctx); err != nil {
		t.Fatalf("refresh: %v", err)
	}

	cmds := counter.Commands()
	if cmds > 2 {
		t.Errorf("Engine.Refresh used %d Redis commands; budget is 2 (GET+SET)", cmds)
	}
	t.Logf("Engine.Refresh: %d commands, %d pipelines", cmds, counter.Pipelines())
}
