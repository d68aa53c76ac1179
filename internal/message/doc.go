// Package message implements outbound messaging: recipient
// normalization, single sends, registration checks, and the sequential
// broadcast pipeline.
//
// [Normalize] maps any input string to exactly one canonical address,
// so every check and send operates on the same form. [Service] wraps a
// session's send surface with typed errors ([RecipientCheckError],
// [SendError], [MediaFetchError]) and fetches attachments from
// caller-supplied URLs. [Pipeline] processes broadcast batches strictly
// in order with a pacing delay between recipients; one recipient's
// failure is recorded in its result entry and the batch keeps going.
package message
