package services

import (
	"context"
	"testing"
)

func TestLoopRunsStepsInSubmissionOrder(t *testing.T) {
	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()
	loop := NewLoop()
	go loop.Run(ctx)

	var got []int
	for i := 0; i < 100; i++ {
		i := i
		loop.Submit(func() { got = append(got, i) })
	}
	if err := loop.Call(context.Background(), func() {}); err != nil {
		t.Fatal(err)
	}

	if len(got) != 100 {
		t.Fatalf("ran %d steps, want 100", len(got))
	}
	for i, v := range got {
		if v != i {
			t.Fatalf("step %d ran out of order (got %d)", i, v)
		}
	}
}

func TestLoopCallObservesStepResult(t *testing.T) {
	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()
	loop := NewLoop()
	go loop.Run(ctx)

	value := 0
	if err := loop.Call(context.Background(), func() { value = 42 }); err != nil {
		t.Fatal(err)
	}
	// Call returned, so the step has run and its writes are visible.
	if value != 42 {
		t.Fatalf("value = %d, want 42", value)
	}
}

func TestLoopCallAfterStop(t *testing.T) {
	ctx, cancel := context.WithCancel(context.Background())
	loop := NewLoop()
	done := make(chan struct{})
	go func() {
		loop.Run(ctx)
		close(done)
	}()
	cancel()
	<-done

	if err := loop.Call(context.Background(), func() {}); err == nil {
		t.Fatal("Call on a stopped loop must fail")
	}
}

func TestLoopCallHonorsCallerContext(t *testing.T) {
	loop := NewLoop()
	// Loop never started: a bounded caller context must still unblock.
	ctx, cancel := context.WithCancel(context.Background())
	cancel()
	if err := loop.Call(ctx, func() {}); err == nil {
		t.Fatal("Call with a canceled context must fail")
	}
}
