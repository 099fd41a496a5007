package app

import (
	"context"
	"errors"
	"testing"

	"github.com/hyperifyio/goknowledge/internal/retrieval"
)

type blockingAnswerer struct {
	release chan struct{}
}

func (b *blockingAnswerer) Answer(ctx context.Context, q retrieval.Query) (Report, error) {
	select {
	case <-b.release:
		return Report{Query: q, Markdown: "report for " + q.Text}, nil
	case <-ctx.Done():
		return Report{Query: q}, ctx.Err()
	}
}

func TestRunner_RejectsSecondSubmission(t *testing.T) {
	ans := &blockingAnswerer{release: make(chan struct{})}
	r := &Runner{App: ans}

	got := make(chan Report, 1)
	if err := r.Submit(context.Background(), retrieval.Query{Text: "CO2"}, func(rep Report, err error) {
		if err != nil {
			t.Errorf("unexpected error: %v", err)
		}
		got <- rep
	}); err != nil {
		t.Fatalf("first submit: %v", err)
	}
	if !r.Busy() {
		t.Fatalf("runner should be busy")
	}
	if err := r.Submit(context.Background(), retrieval.Query{Text: "O2"}, nil); !errors.Is(err, ErrBusy) {
		t.Fatalf("expected ErrBusy, got %v", err)
	}

	close(ans.release)
	rep := <-got
	r.Wait()
	if rep.Markdown != "report for CO2" {
		t.Fatalf("unexpected report %q", rep.Markdown)
	}
	if r.Busy() {
		t.Fatalf("runner should be idle after delivery")
	}
	if err := r.Submit(context.Background(), retrieval.Query{Text: "O2"}, nil); err != nil {
		t.Fatalf("submit after completion: %v", err)
	}
	r.Wait()
}

func TestRunner_CancellationIsDelivered(t *testing.T) {
	r := &Runner{App: &blockingAnswerer{release: make(chan struct{})}}
	ctx, cancel := context.WithCancel(context.Background())
	errc := make(chan error, 1)
	if err := r.Submit(ctx, retrieval.Query{Text: "CO2"}, func(_ Report, err error) { errc <- err }); err != nil {
		t.Fatal(err)
	}
	cancel()
	if err := <-errc; !errors.Is(err, context.Canceled) {
		t.Fatalf("expected context.Canceled, got %v", err)
	}
	r.Wait()
}
