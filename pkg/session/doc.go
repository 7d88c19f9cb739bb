/*
Package session orchestrates conversation runs.

The Manager serializes access to one session's run state (reference-counted
local mutexes plus an optional distributed locker), so a delay resumption and
a new inbound message can never walk the same conversation concurrently.

Preview is the builder-time simulated chat: it feeds inbound messages
through the matcher and executor against an immutable graph snapshot,
renders effects into a timestamped transcript with a cosmetic typing
latency, and turns clicks on rendered automation buttons back into
continuations.
*/
package session
