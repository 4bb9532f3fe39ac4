/*
Package observability turns session lifecycle hooks into Prometheus metrics
and structured log lines.

Metrics are registered on a caller-supplied registry so tests and embedders
can keep them isolated from the global default registry.
*/
package observability
