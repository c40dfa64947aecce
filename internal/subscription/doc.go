// Package subscription implements the Subscription Registry component.
//
// The Subscription Registry:
//   - Holds each connected client's declared (exchange, filter) pair
//   - Answers "which clients match this tick" for fan-out
//   - Answers "what is the desired symbol set for exchange X" for
//     upstream subscription reconciliation
//
// It is the only state shared between feed listeners and client sessions;
// every operation is internally synchronized so a snapshot read never
// observes a partially-written session.
package subscription
