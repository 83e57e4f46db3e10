package otel

import (
	"context"
	"errors"
	"fmt"

	noted "github.com/MrEthical07/noted"
	"github.com/MrEthical07/noted/metrics/export/internaldefs"
	"go.opentelemetry.io/otel/metric"
)

var (
	ErrNilMeter  = errors.New("nil meter")
	ErrNilSource = errors.New("nil metrics source")
)

// Source is what the exporter reads; *noted.Client implements it.
type Source interface {
	MetricsSnapshot() noted.MetricsSnapshot
	EventsDropped() uint64
}

type observedCounter struct {
	id         noted.MetricID
	instrument metric.Int64ObservableCounter
}

type observedHistogram struct {
	id      noted.MetricID
	buckets [8]metric.Int64ObservableGauge
	count   metric.Int64ObservableGauge
}

// Exporter keeps the callback registration alive until Close.
type Exporter struct {
	source        Source
	registration  metric.Registration
	counters      []observedCounter
	histograms    []observedHistogram
	eventsDropped metric.Int64ObservableCounter
}

// NewExporter registers one observable instrument per metric on meter and a single
// callback reading source.
func NewExporter(meter metric.Meter, source Source) (*Exporter, error) {
	if meter == nil {
		return nil, ErrNilMeter
	}
	if source == nil {
		return nil, ErrNilSource
	}

	exporter := &Exporter{
		source:     source,
		counters:   make([]observedCounter, 0, len(internaldefs.CounterDefs)),
		histograms: make([]observedHistogram, 0, len(internaldefs.HistogramDefs)),
	}

	observables := make([]metric.Observable, 0, len(internaldefs.CounterDefs)+len(internaldefs.HistogramDefs)*9+1)

	for _, def := range internaldefs.CounterDefs {
		ins, err := meter.Int64ObservableCounter(def.Name, metric.WithDescription(def.Help))
		if err != nil {
			return nil, fmt.Errorf("create observable counter %s: %w", def.Name, err)
		}
		exporter.counters = append(exporter.counters, observedCounter{id: def.ID, instrument: ins})
		observables = append(observables, ins)
	}

	for _, def := range internaldefs.HistogramDefs {
		h := observedHistogram{id: def.ID}
		for i, suffix := range internaldefs.HistogramBoundSuffix {
			name := def.Name + "_bucket_le_" + suffix
			ins, err := meter.Int64ObservableGauge(name, metric.WithDescription("Cumulative histogram bucket count."))
			if err != nil {
				return nil, fmt.Errorf("create histogram bucket gauge %s: %w", name, err)
			}
			h.buckets[i] = ins
			observables = append(observables, ins)
		}
		countName := def.Name + "_count"
		countIns, err := meter.Int64ObservableGauge(countName, metric.WithDescription("Histogram total sample count."))
		if err != nil {
			return nil, fmt.Errorf("create histogram count gauge %s: %w", countName, err)
		}
		h.count = countIns
		observables = append(observables, countIns)
		exporter.histograms = append(exporter.histograms, h)
	}

	dropped, err := meter.Int64ObservableCounter(
		internaldefs.EventsDroppedName,
		metric.WithDescription(internaldefs.EventsDroppedHelp),
	)
	if err != nil {
		return nil, fmt.Errorf("create events dropped counter: %w", err)
	}
	exporter.eventsDropped = dropped
	observables = append(observables, dropped)

	registration, err := meter.RegisterCallback(exporter.observe, observables...)
	if err != nil {
		return nil, fmt.Errorf("register callback: %w", err)
	}

	exporter.registration = registration
	return exporter, nil
}

func (e *Exporter) observe(_ context.Context, observer metric.Observer) error {
	snapshot := e.source.MetricsSnapshot()
	for _, c := range e.counters {
		observer.ObserveInt64(c.instrument, int64(snapshot.Counters[c.id]))
	}
	for _, h := range e.histograms {
		cumulative := internaldefs.CumulativeBuckets(internaldefs.NormalizeBuckets(snapshot.Histograms[h.id]))
		for i := range cumulative {
			observer.ObserveInt64(h.buckets[i], int64(cumulative[i]))
		}
		observer.ObserveInt64(h.count, int64(cumulative[len(cumulative)-1]))
	}
	observer.ObserveInt64(e.eventsDropped, int64(e.source.EventsDropped()))
	return nil
}

// Close unregisters the callback.
func (e *Exporter) Close() error {
	if e == nil || e.registration == nil {
		return nil
	}
	return e.registration.Unregister()
}
