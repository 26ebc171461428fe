package pkgmetric

import (
	"context"
	"log/slog"
	"net/http"
	"os"
	"sort"
	"strings"
	"sync"
	"time"

	dd "github.com/DataDog/datadog-api-client-go/v2/api/datadog"
	"github.com/DataDog/datadog-api-client-go/v2/api/datadogV2"
)

// DatadogOptions configures the Datadog backend. Credentials come from the
// DD_API_KEY / DD_SITE environment variables read by the client.
type DatadogOptions struct {
	// Job becomes tag "job:<name>". Defaults to "biodata".
	Job string

	// Tags are extra tags such as "region:eu".
	Tags []string

	// FlushEvery defaults to 60 seconds.
	FlushEvery time.Duration

	now       func() time.Time
	submitter submitter
}

type submitter interface {
	SubmitMetrics(ctx context.Context, body datadogV2.MetricPayload, params ...datadogV2.SubmitMetricsOptionalParameters) (datadogV2.IntakePayloadAccepted, *http.Response, error)
}

// Datadog buffers metrics in memory and submits them periodically.
type Datadog struct {
	api        submitter
	ctx        context.Context
	baseTags   []string
	flushEvery time.Duration
	now        func() time.Time

	stopCh chan struct{}
	doneCh chan struct{}
	once   sync.Once

	mu       sync.Mutex
	counters map[string]float64
	samples  map[string][]float64
}

// NewDatadog starts the flush loop. Stop it with Close. Submissions keep the
// values of parent but not its cancellation, so the final flush on shutdown
// still goes out.
func NewDatadog(parent context.Context, opts DatadogOptions) *Datadog {
	job := opts.Job
	if job == "" {
		job = "biodata"
	}

	flushEvery := opts.FlushEvery
	if flushEvery <= 0 {
		flushEvery = time.Minute
	}

	now := opts.now
	if now == nil {
		now = time.Now
	}

	api := opts.submitter
	if api == nil {
		api = datadogV2.NewMetricsApi(dd.NewAPIClient(dd.NewConfiguration()))
	}

	baseTags := make([]string, 0, 2+len(opts.Tags))
	baseTags = append(baseTags, envTag(), "job:"+job)
	baseTags = append(baseTags, opts.Tags...)

	d := &Datadog{
		api:        api,
		ctx:        dd.NewDefaultContext(context.WithoutCancel(parent)),
		baseTags:   baseTags,
		flushEvery: flushEvery,
		now:        now,
		stopCh:     make(chan struct{}),
		doneCh:     make(chan struct{}),
		counters:   make(map[string]float64),
		samples:    make(map[string][]float64),
	}

	go d.loop()
	return d
}

func envTag() string {
	if v := strings.TrimSpace(os.Getenv("ENV")); v != "" {
		return "env:" + v
	}
	if v := strings.TrimSpace(os.Getenv("DD_ENV")); v != "" {
		return "env:" + v
	}
	return "env:unknown"
}

func (d *Datadog) IncCounter(name string, delta float64, labels Labels) {
	if delta <= 0 {
		return
	}

	d.mu.Lock()
	defer d.mu.Unlock()

	d.counters[key(name, labels)] += delta
}

func (d *Datadog) ObserveHistogram(name string, value float64, labels Labels) {
	if value < 0 {
		return
	}

	d.mu.Lock()
	defer d.mu.Unlock()

	k := key(name, labels)
	d.samples[k] = append(d.samples[k], value)
}

// Flush submits what is buffered. Buffers are reset even when the
// submission fails.
func (d *Datadog) Flush() error {
	d.mu.Lock()
	counters, samples := d.counters, d.samples
	d.counters = make(map[string]float64)
	d.samples = make(map[string][]float64)
	d.mu.Unlock()

	if len(counters) == 0 && len(samples) == 0 {
		return nil
	}

	payload := datadogV2.MetricPayload{Series: d.series(counters, samples, d.now().Unix())}
	_, _, err := d.api.SubmitMetrics(d.ctx, payload, *datadogV2.NewSubmitMetricsOptionalParameters())
	return err
}

// Close stops the flush loop and flushes one last time. It is safe to call
// more than once.
func (d *Datadog) Close() error {
	d.once.Do(func() { close(d.stopCh) })
	<-d.doneCh
	return d.Flush()
}

func (d *Datadog) loop() {
	defer close(d.doneCh)

	t := time.NewTicker(d.flushEvery)
	defer t.Stop()

	for {
		select {
		case <-t.C:
			if err := d.Flush(); err != nil {
				slog.WarnContext(d.ctx, "datadog metrics submission failed", "error", err)
			}
		case <-d.stopCh:
			return
		}
	}
}

func (d *Datadog) series(counters map[string]float64, samples map[string][]float64, ts int64) []datadogV2.MetricSeries {
	out := make([]datadogV2.MetricSeries, 0, len(counters)+6*len(samples))

	for k, v := range counters {
		name, tags := splitKey(k)
		out = append(out, point(metricName(name), datadogV2.METRICINTAKETYPE_COUNT, v, d.tags(tags), ts))
	}

	for k, values := range samples {
		if len(values) == 0 {
			continue
		}
		name, tags := splitKey(k)
		prefix := metricName(name)
		all := d.tags(tags)

		sorted := append([]float64(nil), values...)
		sort.Float64s(sorted)

		out = append(out,
			point(prefix+".p50", datadogV2.METRICINTAKETYPE_GAUGE, percentile(sorted, 0.50), all, ts),
			point(prefix+".p90", datadogV2.METRICINTAKETYPE_GAUGE, percentile(sorted, 0.90), all, ts),
			point(prefix+".p99", datadogV2.METRICINTAKETYPE_GAUGE, percentile(sorted, 0.99), all, ts),
			point(prefix+".max", datadogV2.METRICINTAKETYPE_GAUGE, sorted[len(sorted)-1], all, ts),
			point(prefix+".samples", datadogV2.METRICINTAKETYPE_GAUGE, float64(len(sorted)), all, ts),
		)
	}

	return out
}

func (d *Datadog) tags(extra []string) []string {
	out := make([]string, 0, len(d.baseTags)+len(extra))
	out = append(out, d.baseTags...)
	return append(out, extra...)
}

func point(metric string, typ datadogV2.MetricIntakeType, value float64, tags []string, ts int64) datadogV2.MetricSeries {
	return datadogV2.MetricSeries{
		Metric: metric,
		Type:   typ.Ptr(),
		Points: []datadogV2.MetricPoint{
			{Timestamp: dd.PtrInt64(ts), Value: dd.PtrFloat64(value)},
		},
		Tags: tags,
	}
}

// metricName turns "biodata_ingest_total" into "biodata.ingest.total".
func metricName(name string) string {
	return strings.ReplaceAll(name, "_", ".")
}

// percentile uses the nearest rank on sorted values.
func percentile(sorted []float64, p float64) float64 {
	idx := int(p*float64(len(sorted)-1) + 0.5)
	if idx >= len(sorted) {
		idx = len(sorted) - 1
	}
	return sorted[idx]
}

// ParseTags splits "k:v,k:v" tag lists, dropping blanks.
func ParseTags(s string) []string {
	var out []string
	for _, p := range strings.Split(s, ",") {
		if p = strings.TrimSpace(p); p != "" {
			out = append(out, p)
		}
	}
	return out
}
