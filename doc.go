// Package pathium is a client for a route-planning service over weighted
// directed graphs.
//
// # Overview
//
// Pathium talks to a REST routing backend: it manages the graph, computes
// shortest paths with Dijkstra or A*, runs batch and asynchronous queries,
// tracks the query history and performance statistics, and models what-if
// scenarios through edge overrides.
//
// The module consists of four client layers and an embedded server:
//   - Transport: authenticated HTTP access to the service
//   - Session Store: login, token persistence and restoration
//   - Resource Gateway: typed one-shot calls for every endpoint
//   - Orchestrator: bootstrap seeding and coordinated state refresh
//   - Dev Server: in-memory implementation of the full REST surface
//
// # Architecture
//
//	┌─────────────────┐
//	│      CLI        │
//	│    (Cobra)      │
//	└────────┬────────┘
//	         │
//	┌────────▼────────┐       ┌─────────────────┐
//	│  Orchestrator   │◄──────┤  Session Store  │
//	│  (bootstrap +   │       │  (token file +  │
//	│   refresh)      │       │   identity)     │
//	└────────┬────────┘       └────────┬────────┘
//	         │                         │
//	┌────────▼────────┐                │
//	│ Resource Gateway│                │
//	└────────┬────────┘                │
//	         │                         │
//	┌────────▼─────────────────────────▼┐
//	│            Transport              │
//	│       (bearer-injecting HTTP)     │
//	└───────────────────────────────────┘
//
// # Usage
//
// Start the embedded development server:
//
//	pathium serve --config configs/config.yaml
//
// Log in and compute a route:
//
//	pathium auth login ops@example.com
//	pathium route 0 3
//
// Run a batch asynchronously and wait for the result:
//
//	pathium batch submit 0:3 1:3 --wait
//
// # Configuration
//
// Configuration can be provided via:
//   - YAML file (configs/config.yaml)
//   - Environment variables (PM_ prefix)
//   - .env file
//
// Example configuration:
//
//	api:
//	  base_url: http://localhost:8000
//	  timeout: 30s
//	session:
//	  token_file: ~/.pathium/token
//	seed:
//	  require_auth: true
//	server:
//	  host: localhost
//	  port: 8000
//	  jwt_secret: change-me
//
// # API Endpoints
//
// Authentication:
//   - POST /auth/register          - Create an account
//   - POST /auth/login             - Obtain an access token (form encoded)
//   - GET  /auth/me                - Resolve the current identity
//
// Graph Management:
//   - GET  /graph/info             - Node and edge counts
//   - POST /graph/nodes            - Bulk add nodes
//   - POST /graph/edges            - Bulk add edges
//
// Routing:
//   - POST /routes                 - Single shortest path
//   - POST /routes/batch           - Synchronous batch
//   - POST /routes/async/submit    - Submit an asynchronous batch job
//   - GET  /routes/async/:id       - Job status and result
//   - GET  /routes/async/metrics   - Job queue metrics
//
// History and Statistics:
//   - GET /history/queries         - Recorded queries (newest first)
//   - GET /stats/performance       - Aggregated performance statistics
//
// Scenarios:
//   - POST /scenarios                    - Create a scenario
//   - GET  /scenarios                    - List scenarios
//   - GET  /scenarios/:id                - Scenario with modifications
//   - POST /scenarios/:id/modifications  - Add an edge override
//
// Optimization Profiles:
//   - POST /profiles               - Create a named weighting profile
//   - GET  /profiles               - List profiles (newest first)
package pathium
