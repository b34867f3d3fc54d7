package telemetry

// SLI metric names used for instrumentation.
const (
	// Latency
	MetricAPILatencyP50 = "api.latency.p50"
	MetricAPILatencyP95 = "api.latency.p95"
	MetricAPILatencyP99 = "api.latency.p99"

	// Throughput
	MetricRequestsPerSec = "api.requests_per_second"

	// Provider health
	MetricProviderLatency  = "provider.latency"
	MetricFallbackRate     = "provider.fallback_rate"
	MetricGeocodeMatchRate = "provider.geocode_match_rate"

	// Availability
	MetricUptime = "service.uptime_percentage"

	// Business
	MetricPlacesServed = "business.places_served"
	MetricRoutesServed = "business.routes_served"
)
