package metrics

import (
	"testing"

	coremetrics "github.com/swiftdrop/dispatch/core/metrics"
)

type recordSink struct {
	count int
}

func (r *recordSink) RecordMatchResult([]coremetrics.MatchResult) error {
	r.count++
	return nil
}

func (r *recordSink) RecordOfferLatency([]coremetrics.OfferLatency) error {
	r.count++
	return nil
}

// basicSink supports only the base interface.
type basicSink struct {
	count int
}

func (b *basicSink) RecordMatchResult([]coremetrics.MatchResult) error {
	b.count++
	return nil
}

func TestMultiSink(t *testing.T) {
	s1 := &recordSink{}
	s2 := &recordSink{}
	m := NewMultiSink(s1, s2)
	if err := m.RecordMatchResult(nil); err != nil {
		t.Fatalf("record result: %v", err)
	}
	if err := m.RecordOfferLatency(nil); err != nil {
		t.Fatalf("record latency: %v", err)
	}
	if s1.count != 2 || s2.count != 2 {
		t.Fatalf("results not forwarded")
	}
}

func TestMultiSink_SkipsUnsupported(t *testing.T) {
	full := &recordSink{}
	basic := &basicSink{}
	m := NewMultiSink(full, basic)
	if err := m.RecordOfferLatency(nil); err != nil {
		t.Fatalf("record latency: %v", err)
	}
	if full.count != 1 || basic.count != 0 {
		t.Fatalf("capability probing failed: full=%d basic=%d", full.count, basic.count)
	}
	if err := m.RecordStateTransition(coremetrics.StateTransitionEvent{}); err != nil {
		t.Fatalf("record transition: %v", err)
	}
}
