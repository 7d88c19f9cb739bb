/*
Package domain contains the core domain models for the Flowline engine.

It defines the fundamental entities of a messaging automation: the Graph of
typed Steps and button-scoped Edges, the RunState of one conversation walk,
and the Effects the executor emits. This package is kept pure and free of
external dependencies like I/O or persistence, following Hexagonal
Architecture principles.

# Key Entities

  - Step: one node with a behavior type and a typed configuration variant.
  - Edge: a directed link between steps, optionally scoped to one button.
  - Graph: the mutable edge-list model with referential-integrity guarantees.
  - RunState: the runtime snapshot of a session (current step, context, status).
  - Effect: an ordered outbound result the host renders or sends.
*/
package domain
