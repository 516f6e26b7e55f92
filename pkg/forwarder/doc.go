// Copyright 2024-2026 Aiku AI

// Package forwarder implements the stream-to-chat core: it owns the single
// live connection to the post stream, filters posts against per-destination
// subscriptions, and hands formatted display records to delivery.
//
// # Core Types
//
// [Forwarder] is the stream session manager. It opens the connection against
// the followed author set, reacts to the four stream events (start, data,
// error, end), and schedules reconnection with bounded exponential backoff.
// A silence watchdog force-recreates the session when the stream dies
// without surfacing an error.
//
// [Backoff] produces the reconnect delay sequence: doubling from a minimum,
// clamped at a maximum, reset on every successful start. Rate-limit errors
// bypass it entirely and use a fixed cooldown.
//
// [Target] is the result of subscription filtering: one destination with
// the flags that still matter downstream.
//
// # Error Containment
//
// Per-post failures (malformed annotations, failed preview fetches, failed
// deliveries) are logged and contained; only connection-level failures
// influence the session lifecycle. No failure terminates the process.
//
// # Sub-packages
//
//   - tweetfmt rewrites post text from its index-tagged annotations and
//     builds the delivery-ready embed.
package forwarder
