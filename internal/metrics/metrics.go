// Package metrics counts calculator activity and exposes it in the
// Prometheus text format.
package metrics

import (
	"net/http"
	"sort"
	"sync"

	exchanger "HeatX/internal/calc/exchanger"

	dto "github.com/prometheus/client_model/go"
	"github.com/prometheus/common/expfmt"
	log "github.com/sirupsen/logrus"
	"google.golang.org/protobuf/proto"
)

const (
	nameBatches         = "heatx_batches_total"
	nameBatchFailures   = "heatx_batch_failures_total"
	nameReadings        = "heatx_readings_total"
	nameReadingFailures = "heatx_reading_failures_total"
	nameEffectiveness   = "heatx_last_mean_effectiveness"
)

// Registry implements exchanger.Recorder.
type Registry struct {
	mu              sync.Mutex
	batches         float64
	readings        float64
	lastMean        float64
	batchFailures   map[string]float64
	readingFailures map[string]float64
}

func New() *Registry {
	return &Registry{
		batchFailures:   make(map[string]float64),
		readingFailures: make(map[string]float64),
	}
}

func (r *Registry) RecordBatch(out exchanger.Output) {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.batches++
	r.readings += float64(len(out.Results) + len(out.Failures))
	r.lastMean = out.Aggregate.MeanEffectiveness
	for _, f := range out.Failures {
		r.readingFailures[f.Kind]++
	}
}

func (r *Registry) RecordBatchError(err error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.batchFailures[exchanger.KindName(err)]++
}

// Families snapshots the counters as metric families sorted by name.
func (r *Registry) Families() []*dto.MetricFamily {
	r.mu.Lock()
	defer r.mu.Unlock()

	return []*dto.MetricFamily{
		counter(nameBatches, "Batches computed.", r.batches),
		labelled(nameBatchFailures, "Batches rejected, by error kind.", r.batchFailures),
		gauge(nameEffectiveness, "Mean effectiveness of the most recent batch.", r.lastMean),
		labelled(nameReadingFailures, "Readings excluded from a batch, by error kind.", r.readingFailures),
		counter(nameReadings, "Readings evaluated.", r.readings),
	}
}

func (r *Registry) ServeHTTP(w http.ResponseWriter, _ *http.Request) {
	format := expfmt.NewFormat(expfmt.TypeTextPlain)
	w.Header().Set("Content-Type", string(format))
	enc := expfmt.NewEncoder(w, format)
	for _, mf := range r.Families() {
		if len(mf.Metric) == 0 {
			continue
		}
		if err := enc.Encode(mf); err != nil {
			log.Errorf("metrics: encode %s: %v", mf.GetName(), err)
			return
		}
	}
}

func counter(name, help string, v float64) *dto.MetricFamily {
	return &dto.MetricFamily{
		Name:   proto.String(name),
		Help:   proto.String(help),
		Type:   dto.MetricType_COUNTER.Enum(),
		Metric: []*dto.Metric{{Counter: &dto.Counter{Value: proto.Float64(v)}}},
	}
}

func gauge(name, help string, v float64) *dto.MetricFamily {
	return &dto.MetricFamily{
		Name:   proto.String(name),
		Help:   proto.String(help),
		Type:   dto.MetricType_GAUGE.Enum(),
		Metric: []*dto.Metric{{Gauge: &dto.Gauge{Value: proto.Float64(v)}}},
	}
}

func labelled(name, help string, byKind map[string]float64) *dto.MetricFamily {
	kinds := make([]string, 0, len(byKind))
	for k := range byKind {
		kinds = append(kinds, k)
	}
	sort.Strings(kinds)

	mf := &dto.MetricFamily{
		Name: proto.String(name),
		Help: proto.String(help),
		Type: dto.MetricType_COUNTER.Enum(),
	}
	for _, k := range kinds {
		mf.Metric = append(mf.Metric, &dto.Metric{
			Label:   []*dto.LabelPair{{Name: proto.String("kind"), Value: proto.String(k)}},
			Counter: &dto.Counter{Value: proto.Float64(byKind[k])},
		})
	}
	return mf
}
