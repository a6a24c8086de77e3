package redisx

import (
	"context"
	"testing"

	"github.com/alicebob/miniredis/v2"

	"github.com/yungbote/whitespace-backend/internal/platform/logger"
)

func TestNewPingsServer(t *testing.T) {
	mr := miniredis.RunT(t)
	rdb, err := New(context.Background(), logger.NewNop(), mr.Addr())
	if err != nil {
		t.Fatalf("New: %v", err)
	}
	defer rdb.Close()
	if err := rdb.Set(context.Background(), "k", "v", 0).Err(); err != nil {
		t.Fatalf("Set: %v", err)
	}
	if got, _ := mr.Get("k"); got != "v" {
		t.Fatalf("miniredis value: got=%q", got)
	}
}

func TestNewEmptyAddrDisabled(t *testing.T) {
	rdb, err := New(context.Background(), logger.NewNop(), " ")
	if err != nil || rdb != nil {
		t.Fatalf("expected disabled client, got=%v err=%v", rdb, err)
	}
}
