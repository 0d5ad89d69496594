// Package integration contains the Integration bounded context.
// This context manages connections to external commerce platforms and
// the reconciliation of platform data into internal entities.
//
// Key concepts:
//   - CommercePlatform: Port interface for connecting to commerce platforms (Shopify, WooCommerce)
//   - Integration: Entity holding a tenant's connection, credentials and sync state
//   - NormalizedProduct / NormalizedOrder: Platform-neutral shapes produced by adapters
//   - SyncLog: Append-only audit record, one per reconciliation attempt
//
// Design Pattern: Ports & Adapters
//   - Ports (interfaces) are defined here in the domain layer
//   - Adapters (implementations) are in the infrastructure layer
package integration
