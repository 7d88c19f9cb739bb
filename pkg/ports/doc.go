/*
Package ports defines the driven ports (interfaces) for the Flowline engine.

These interfaces decouple the core logic from external implementations,
allowing the engine to work with various storage backends, AI providers,
HTTP collaborators and delay schedulers.

# Key Interfaces

  - RunStore: persists and loads per-session RunState.
  - AutomationStore: exchanges persisted automation records with a backend.
  - AIResponder: the AI Response Service contract for ai_response steps.
  - HTTPCaller: the collaborator invoked by live api_call/webhook steps.
  - DelayScheduler: cancellable, non-blocking delay resumption.
  - DistributedLocker: distributed locking for concurrent session access.
*/
package ports
