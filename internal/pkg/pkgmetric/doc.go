// Package pkgmetric defines the metrics Recorder used by the application and
// its backends.
//
// Business code records counters and histogram samples through Recorder and
// never imports a vendor SDK. Noop is used when metrics are disabled; the
// Datadog backend buffers samples in memory and submits them on a ticker and
// once more on Close.
package pkgmetric
