package telemetry

import (
	"context"
	"sync"

	"go.opentelemetry.io/otel/attribute"
	api "go.opentelemetry.io/otel/metric"
)

// Int64SyncGauge exposes an observable gauge behind a synchronous Set API.
// The instrument remembers the last value written per attribute set and
// reports all of them on each collection, so callers can update gauge
// values from the relay loop without registering callbacks themselves.
type Int64SyncGauge struct {
	gauge api.Int64ObservableGauge

	mu   sync.RWMutex
	last map[string]gaugePoint
}

type gaugePoint struct {
	value int64
	attrs attribute.Set
}

func NewInt64SyncGauge(meter api.Meter, name string, options ...api.Int64ObservableGaugeOption) (*Int64SyncGauge, error) {
	g := &Int64SyncGauge{last: make(map[string]gaugePoint)}
	gauge, err := meter.Int64ObservableGauge(name, append(options, api.WithInt64Callback(g.observe))...)
	if err != nil {
		return nil, err
	}
	g.gauge = gauge
	return g, nil
}

func (g *Int64SyncGauge) Set(value int64, attrs ...attribute.KeyValue) {
	set := attribute.NewSet(attrs...)
	key := set.Encoded(attribute.DefaultEncoder())
	g.mu.Lock()
	defer g.mu.Unlock()
	g.last[key] = gaugePoint{value: value, attrs: set}
}

func (g *Int64SyncGauge) observe(_ context.Context, observer api.Int64Observer) error {
	g.mu.RLock()
	defer g.mu.RUnlock()
	for _, point := range g.last {
		observer.Observe(point.value, api.WithAttributeSet(point.attrs))
	}
	return nil
}
