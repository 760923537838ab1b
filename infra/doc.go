// Package infra contains technical adapters such as the booking export
// reader, metrics exporters and the Sentry monitor. These packages should
// depend only on the interfaces defined in the core packages.
package infra
