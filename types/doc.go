// Package types provides core type definitions shared across the orchestrator's
// components: health status and graph credentials.
//
// # Health Types
//
// Health types represent the operational status of components:
//
//	status := types.NewHealthyStatus("all systems operational")
//	if status.IsHealthy() {
//	    // Component is fully operational
//	}
//
//	degraded := types.NewDegradedStatus("high latency", map[string]any{
//	    "latency_ms": 500,
//	})
//
// # Credentials
//
// Credential represents an authentication secret (API key, bearer token,
// basic auth, OAuth) used when dialing an external backend.
//
// # JSON Serialization
//
// All types support JSON marshaling and unmarshaling:
//
//	data, err := json.Marshal(status)
//	if err != nil {
//	    log.Fatal(err)
//	}
package types
