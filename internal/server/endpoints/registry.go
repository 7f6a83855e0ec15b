package endpoints

import (
	"github.com/dataquard/dataquard/internal/api"
)

// Config holds dependencies needed by some endpoints.
type Config struct {
	SwaggerSpecPath string
}

// All returns all endpoint instances.
func All(cfg Config) []api.Endpoint {
	return []api.Endpoint{
		// Health endpoints
		&HealthEndpoint{},
		&ReadyEndpoint{},
		&StatusEndpoint{},

		// Policy job endpoints
		&QueuePolicyEndpoint{},
		&PolicyStatusEndpoint{},
		&ListJobsEndpoint{},

		// Scheduler trigger
		&CronBatchEndpoint{},

		// Metrics endpoints
		&MetricsSummaryEndpoint{},

		// Swagger/OpenAPI endpoints
		&SwaggerEndpoint{SpecPath: cfg.SwaggerSpecPath},
		&SwaggerUIEndpoint{},
	}
}

// PolicyCommands returns the endpoints grouped under "policy" in the CLI.
func PolicyCommands() []api.Endpoint {
	return []api.Endpoint{
		&QueuePolicyEndpoint{},
		&PolicyStatusEndpoint{},
		&ListJobsEndpoint{},
	}
}

// MetricsCommands returns the endpoints grouped under "metrics" in the CLI.
func MetricsCommands() []api.Endpoint {
	return []api.Endpoint{
		&MetricsSummaryEndpoint{},
	}
}

// CronCommands returns the endpoints grouped under "cron" in the CLI.
func CronCommands() []api.Endpoint {
	return []api.Endpoint{
		&CronBatchEndpoint{},
	}
}
