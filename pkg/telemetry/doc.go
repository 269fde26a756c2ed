// Package telemetry provides the metric emission surface for taskloop.
//
// Queue names are dot-delimited; a hierarchy of tags is derived from the
// name so that a metrics backend can aggregate at any suffix level. The
// Sink interface keeps the executor decoupled from the backend: a
// prometheus-backed sink and a no-op sink (for the global monitoring
// disable switch) ship with the package.
package telemetry
