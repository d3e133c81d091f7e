package metrics

import coremetrics "github.com/swiftdrop/dispatch/core/metrics"

// MultiSink fanouts recorded events to multiple sinks.
type MultiSink struct {
	Sinks []coremetrics.MetricsSink
}

// NewMultiSink creates a MultiSink with the provided sinks.
func NewMultiSink(sinks ...coremetrics.MetricsSink) *MultiSink {
	return &MultiSink{Sinks: sinks}
}

// RecordMatchResult forwards the record to all sinks, returning the first error encountered.
func (m *MultiSink) RecordMatchResult(res []coremetrics.MatchResult) error {
	for _, s := range m.Sinks {
		if err := s.RecordMatchResult(res); err != nil {
			return err
		}
	}
	return nil
}

// RecordStateTransition forwards state changes when supported by the sink.
func (m *MultiSink) RecordStateTransition(ev coremetrics.StateTransitionEvent) error {
	for _, s := range m.Sinks {
		if rec, ok := s.(coremetrics.StateTransitionRecorder); ok {
			if err := rec.RecordStateTransition(ev); err != nil {
				return err
			}
		}
	}
	return nil
}

// RecordTrackingSnapshot forwards tracking snapshots when supported by the sink.
func (m *MultiSink) RecordTrackingSnapshot(ev coremetrics.TrackingSnapshotEvent) error {
	for _, s := range m.Sinks {
		if rec, ok := s.(coremetrics.TrackingSnapshotRecorder); ok {
			if err := rec.RecordTrackingSnapshot(ev); err != nil {
				return err
			}
		}
	}
	return nil
}

// RecordOfferLatency forwards latency metrics when supported by the sink.
func (m *MultiSink) RecordOfferLatency(lat []coremetrics.OfferLatency) error {
	for _, s := range m.Sinks {
		if lr, ok := s.(coremetrics.LatencyRecorder); ok {
			if err := lr.RecordOfferLatency(lat); err != nil {
				return err
			}
		}
	}
	return nil
}

// RecordFleetSize forwards fleet size metrics when supported by the sink.
func (m *MultiSink) RecordFleetSize(size int) error {
	for _, s := range m.Sinks {
		if fr, ok := s.(coremetrics.FleetSizeRecorder); ok {
			if err := fr.RecordFleetSize(size); err != nil {
				return err
			}
		}
	}
	return nil
}
