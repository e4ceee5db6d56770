// Package services implements the core application logic behind the
// driving ports: the source registry and the search orchestrator.
//
// Services depend on driven ports for everything that touches
// infrastructure (connectors, cache, session store), which keeps them
// testable with fakes.
package services
