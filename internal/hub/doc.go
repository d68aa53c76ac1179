// Package hub fans session lifecycle events out to connected observers.
//
// Delivery is best-effort: only currently connected subscribers receive
// an event, slow subscribers have events dropped rather than blocking the
// publisher, and there is no replay. Snapshot serves a newly connected
// observer the persisted catalog with readiness forced false.
package hub
