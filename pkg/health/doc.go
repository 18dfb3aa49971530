// Package health provides liveness and readiness probes.
//
// [Run] executes a set of named [Checks] in parallel under a shared deadline
// and returns a [Report]. [LivenessHandler] and [ReadinessHandler] expose the
// same logic over net/http, answering in plain text or, when the client asks
// with Accept: application/json or ?format=json, in JSON:
//
//	{
//	  "status": "unhealthy",
//	  "checks": {
//	    "redis": {"status": "unhealthy", "error": "connection refused", "duration_ns": 1200}
//	  }
//	}
//
// An application mounts both probes with WithHealthChecks:
//
//	app := forgecore.New(
//	    forgecore.WithHealthChecks(
//	        forgecore.WithReadinessCheck("redis", redis.Healthcheck(client)),
//	    ),
//	)
//
// Failed checks are reported through [Report.Err], which wraps [ErrCheckFailed].
// A check that outlives the deadline fails with [ErrCheckTimeout].
package health
