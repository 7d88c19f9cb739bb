/*
Package observability turns engine lifecycle events into something an
operator can see: Prometheus collectors for dashboards and alerting, and
audit hooks that trace every transition through a structured logger.
*/
package observability
