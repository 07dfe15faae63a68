//go:build integration
// +build integration

package test

import (
	"fmt"
	"testing"
	"time"

	"github.com/alicebob/miniredis/v2"
	"github.com/redis/go-redis/v9"
	"github.com/virelio/authsync/tokenstore"
)

func newIntegrationStore(t *testing.T) (*tokenstore.Redis, *redis.Client, func()) {
	t.Helper()

	mr, err := miniredis.Run()
	if err != nil {
		t.Fatalf("miniredis run failed: %v", err)
	}

	rdb := redis.NewClient(&redis.Options{Addr: mr.Addr()})
	store := tokenstore.NewRedis(rdb, "as", 0)

	return store, rdb, func() {
		_ = rdb.Close()
		mr.Close()
	}
}

// sessionTokens builds a refreshable grant for generation gen. IssuedAt is
// truncated to seconds because that is the precision the record codec keeps.
func sessionTokens(gen int) tokenstore.Tokens {
	return tokenstore.Tokens{
		AccessToken:  fmt.Sprintf("access-%d", gen),
		RefreshToken: fmt.Sprintf("refresh-%d", gen),
		TokenType:    "Bearer",
		ExpiresIn:    time.Hour,
		IssuedAt:     time.Now().UTC().Truncate(time.Second),
		Class:        tokenstore.ClassSession,
	}
}
