package writer

import (
	"context"
	"fmt"

	"go.opentelemetry.io/otel/attribute"
	"go.opentelemetry.io/otel/metric"
)

const (
	meterName = "github.com/robert-malhotra/h5stream/writer"

	metricRecordsAppended = "h5stream.records.appended"
	metricBytesAppended   = "h5stream.bytes.appended"
	metricDatasetsCreated = "h5stream.datasets.created"
	metricAppendErrors    = "h5stream.append.errors"

	attrDataset = "dataset"
)

// metrics holds the writer's OTel instruments.
type metrics struct {
	records  metric.Int64Counter
	bytes    metric.Int64Counter
	datasets metric.Int64Counter
	errors   metric.Int64Counter
}

func newMetrics(mp metric.MeterProvider) (*metrics, error) {
	b := newMetricBuilder(mp.Meter(meterName))
	m := &metrics{
		records:  b.counter(metricRecordsAppended, "Records appended", "{record}"),
		bytes:    b.counter(metricBytesAppended, "Encoded record bytes appended", "By"),
		datasets: b.counter(metricDatasetsCreated, "Datasets created", "{dataset}"),
		errors:   b.counter(metricAppendErrors, "Failed writes", "{error}"),
	}
	if b.err != nil {
		return nil, b.err
	}
	return m, nil
}

func (m *metrics) appended(dataset string, size int) {
	opt := metric.WithAttributes(attribute.String(attrDataset, dataset))
	m.records.Add(context.Background(), 1, opt)
	m.bytes.Add(context.Background(), int64(size), opt)
}

func (m *metrics) created(dataset string) {
	m.datasets.Add(context.Background(), 1, metric.WithAttributes(attribute.String(attrDataset, dataset)))
}

func (m *metrics) failed(dataset string) {
	m.errors.Add(context.Background(), 1, metric.WithAttributes(attribute.String(attrDataset, dataset)))
}

// metricBuilder accumulates instrument creation errors so a set of
// instruments needs a single error check.
type metricBuilder struct {
	meter metric.Meter
	err   error
}

func newMetricBuilder(mt metric.Meter) *metricBuilder {
	return &metricBuilder{meter: mt}
}

func (b *metricBuilder) counter(name, desc, unit string) metric.Int64Counter {
	c, err := b.meter.Int64Counter(name, metric.WithDescription(desc), metric.WithUnit(unit))
	if err != nil && b.err == nil {
		b.err = fmt.Errorf("create %s: %w", name, err)
	}
	return c
}
