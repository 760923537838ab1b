// Package metrics defines the sinks that observe formatter runs. Sinks such
// as the Prometheus and log sinks in infra/metrics record one RunEvent per
// generation and one OutputEvent per rendered file. Several configured sinks
// are combined with NewMultiSink by the factory helpers.
package metrics
