/*
Package observability exports engine activity as Prometheus metrics.

A Metrics value subscribes to every event on an eventbus.Bus and counts
resolved commands, scene visits, mode switches and failures. Serve its
Handler on /metrics or register its collectors with another registry.
*/
package observability
