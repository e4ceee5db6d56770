// Package driven defines the interfaces that core calls OUT to infrastructure.
//
// These are the "driven" or "secondary" ports in hexagonal architecture.
// Core services depend on these interfaces, and infrastructure adapters
// implement them.
//
// # Required Interfaces
//
// These must be provided for the application to function:
//
//   - Connector: Executes lookups against one jurisdiction's record source
//   - ConnectorFactory: Creates connectors from source descriptors
//   - ResultCache: Time-bounded memoization of successful outcomes
//   - SessionStore: Search session persistence
//
// # Import Rules
//
//   - Can Import: domain package only
//   - Cannot Import: Any adapter or connector package
package driven
