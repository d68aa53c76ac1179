// Package session manages the live messaging sessions the gateway
// exposes.
//
// A [Registry] maps session ids to [Worker] values and is the single
// owner of the persisted session catalog: every record upsert, ready
// flag update, and prune flows through it. Workers wrap one platform
// client each, mirror its lifecycle (pairing QR, authentication,
// readiness, disconnects) onto the shared event hub, and serialize all
// outbound sends so the client never sees concurrent calls.
//
// A disconnected session is never reused in place. The registry
// discards the old worker, prunes its catalog record, announces
// remove-session to observers, and starts a fresh worker under the same
// id as a resume attempt. The record reappears only once the
// replacement reaches the ready state.
package session
