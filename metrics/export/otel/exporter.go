package otel

import (
	"context"
	"errors"
	"fmt"

	goSession "github.com/MrEthical07/goSession"
	"github.com/MrEthical07/goSession/metrics/export/internaldefs"
	"go.opentelemetry.io/otel/attribute"
	"go.opentelemetry.io/otel/metric"
)

var (
	ErrNilMeter  = errors.New("nil meter")
	ErrNilSource = errors.New("nil metrics source")
)

type metricsSource interface {
	MetricsSnapshot() goSession.MetricsSnapshot
	AuditDropped() uint64
	AuditFailed() uint64
}

// latency holds the two instruments backing one histogram: cumulative bucket
// counts keyed by the "le" attribute, and the total sample count.
type latency struct {
	id      goSession.MetricID
	buckets metric.Int64ObservableGauge
	count   metric.Int64ObservableGauge
}

// OTelExporter publishes session metrics as observable instruments. A single
// callback reads the source on every collection.
type OTelExporter struct {
	source       metricsSource
	registration metric.Registration

	counters  map[goSession.MetricID]metric.Int64ObservableCounter
	latencies []latency
	auditLost metric.Int64ObservableCounter

	// Attribute sets are built once; observations reuse them.
	bucketAttrs [internaldefs.BucketCount]metric.MeasurementOption
	droppedAttr metric.MeasurementOption
	failedAttr  metric.MeasurementOption
}

// NewOTelExporter registers instruments on meter that read from manager.
func NewOTelExporter(meter metric.Meter, manager *goSession.Manager) (*OTelExporter, error) {
	if manager == nil {
		return nil, ErrNilSource
	}
	return NewOTelExporterFromSource(meter, manager)
}

// NewOTelExporterFromSource registers instruments reading from any source.
func NewOTelExporterFromSource(meter metric.Meter, source metricsSource) (*OTelExporter, error) {
	if meter == nil {
		return nil, ErrNilMeter
	}
	if source == nil {
		return nil, ErrNilSource
	}

	e := &OTelExporter{
		source:      source,
		counters:    make(map[goSession.MetricID]metric.Int64ObservableCounter, len(internaldefs.CounterDefs)),
		droppedAttr: reasonAttr(internaldefs.AuditLostDropped),
		failedAttr:  reasonAttr(internaldefs.AuditLostFailed),
	}
	for i := range e.bucketAttrs {
		e.bucketAttrs[i] = metric.WithAttributeSet(attribute.NewSet(attribute.String("le", internaldefs.HistogramBoundLabel(i))))
	}

	observables, err := e.register(meter)
	if err != nil {
		return nil, err
	}

	e.registration, err = meter.RegisterCallback(e.observe, observables...)
	if err != nil {
		return nil, fmt.Errorf("register callback: %w", err)
	}
	return e, nil
}

func reasonAttr(reason string) metric.MeasurementOption {
	return metric.WithAttributeSet(attribute.NewSet(attribute.String(internaldefs.ReasonLabel, reason)))
}

func (e *OTelExporter) register(meter metric.Meter) ([]metric.Observable, error) {
	var observables []metric.Observable

	for _, def := range internaldefs.CounterDefs {
		c, err := meter.Int64ObservableCounter(def.Name, metric.WithDescription(def.Help))
		if err != nil {
			return nil, fmt.Errorf("counter %s: %w", def.Name, err)
		}
		e.counters[def.ID] = c
		observables = append(observables, c)
	}

	for _, def := range internaldefs.HistogramDefs {
		buckets, err := meter.Int64ObservableGauge(def.Name+"_bucket",
			metric.WithDescription(def.Help+" Cumulative count per upper bound."))
		if err != nil {
			return nil, fmt.Errorf("histogram %s buckets: %w", def.Name, err)
		}
		count, err := meter.Int64ObservableGauge(def.Name+"_count",
			metric.WithDescription(def.Help+" Total samples."))
		if err != nil {
			return nil, fmt.Errorf("histogram %s count: %w", def.Name, err)
		}
		e.latencies = append(e.latencies, latency{id: def.ID, buckets: buckets, count: count})
		observables = append(observables, buckets, count)
	}

	lost, err := meter.Int64ObservableCounter(internaldefs.AuditLostName, metric.WithDescription(internaldefs.AuditLostHelp))
	if err != nil {
		return nil, fmt.Errorf("counter %s: %w", internaldefs.AuditLostName, err)
	}
	e.auditLost = lost
	return append(observables, lost), nil
}

func (e *OTelExporter) observe(_ context.Context, o metric.Observer) error {
	snapshot := e.source.MetricsSnapshot()

	for id, c := range e.counters {
		o.ObserveInt64(c, int64(snapshot.Counters[id]))
	}

	for _, l := range e.latencies {
		raw, ok := snapshot.Histograms[l.id]
		if !ok {
			continue
		}
		cumulative := internaldefs.CumulativeBuckets(internaldefs.NormalizeBuckets(raw))
		for i, v := range cumulative {
			o.ObserveInt64(l.buckets, int64(v), e.bucketAttrs[i])
		}
		o.ObserveInt64(l.count, int64(cumulative[len(cumulative)-1]))
	}

	o.ObserveInt64(e.auditLost, int64(e.source.AuditDropped()), e.droppedAttr)
	o.ObserveInt64(e.auditLost, int64(e.source.AuditFailed()), e.failedAttr)
	return nil
}

// Close unregisters the collection callback.
func (e *OTelExporter) Close() error {
	if e == nil || e.registration == nil {
		return nil
	}
	return e.registration.Unregister()
}
