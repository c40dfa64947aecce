// Package feed implements the Upstream Feed Listener component.
//
// One listener per exchange owns a single streaming connection to that
// exchange's feed. Each connection cycle:
//   - Dials and authenticates with the provider credential
//   - Runs a reconciliation loop keeping the upstream subscription set
//     aligned with the registry's desired symbols
//   - Runs a read loop normalizing ticks and fanning them out to matching
//     clients
//
// Connection-level failures tear both loops down together and re-enter the
// dial cycle after a backoff delay; per-message failures are logged and
// skipped.
package feed
