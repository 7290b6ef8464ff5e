package mongo

import (
	"context"
	"testing"
	"time"
)

func TestWithTimeout_AddsDeadline(t *testing.T) {
	ctx, cancel := WithTimeout(context.Background(), time.Second)
	defer cancel()

	deadline, ok := ctx.Deadline()
	if !ok {
		t.Fatal("expected a deadline")
	}
	if time.Until(deadline) > time.Second {
		t.Errorf("deadline too far in the future: %s", time.Until(deadline))
	}
}

func TestWithTimeout_KeepsEarlierDeadline(t *testing.T) {
	parent, cancelParent := context.WithTimeout(context.Background(), 50*time.Millisecond)
	defer cancelParent()

	ctx, cancel := WithTimeout(parent, time.Hour)
	defer cancel()

	parentDeadline, _ := parent.Deadline()
	deadline, _ := ctx.Deadline()
	if !deadline.Equal(parentDeadline) {
		t.Errorf("expected parent deadline %s, got %s", parentDeadline, deadline)
	}
}
