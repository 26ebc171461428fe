package pkgmetric

import (
	"sort"
	"strings"
)

// Labels are metric dimensions, submitted as "key:value" tags.
type Labels map[string]string

// Recorder receives counters and histogram samples.
type Recorder interface {
	IncCounter(name string, delta float64, labels Labels)
	ObserveHistogram(name string, value float64, labels Labels)
}

// Noop discards everything.
type Noop struct{}

func (Noop) IncCounter(string, float64, Labels) {}

func (Noop) ObserveHistogram(string, float64, Labels) {}

// key is a stable identity for a metric name plus its labels.
func key(name string, labels Labels) string {
	if len(labels) == 0 {
		return name
	}

	names := make([]string, 0, len(labels))
	for k := range labels {
		names = append(names, k)
	}
	sort.Strings(names)

	var b strings.Builder
	b.WriteString(name)
	for _, k := range names {
		b.WriteByte('\x00')
		b.WriteString(k)
		b.WriteByte(':')
		b.WriteString(labels[k])
	}
	return b.String()
}

// splitKey reverses key into the metric name and its tags.
func splitKey(k string) (string, []string) {
	parts := strings.Split(k, "\x00")
	return parts[0], parts[1:]
}
