package logging

import (
	"context"
	"errors"
	"testing"
	"time"
)

func TestDetachContextWithTimeout(t *testing.T) {
	type key string
	parent, parentCancel := context.WithCancel(context.WithValue(context.Background(), key("run"), "r1"))
	detached, cancel := DetachContextWithTimeout(parent, 50*time.Millisecond)
	defer cancel()

	parentCancel()
	if detached.Err() != nil {
		t.Fatalf("detached context cancelled with parent: %v", detached.Err())
	}
	if v := detached.Value(key("run")); v != "r1" {
		t.Errorf("expected value r1, got %v", v)
	}

	<-detached.Done()
	if !errors.Is(detached.Err(), context.DeadlineExceeded) {
		t.Errorf("expected deadline exceeded, got %v", detached.Err())
	}
}
