// Package interfaces defines the core types and contracts for the land title
// registry engine. It provides the boundary between components without
// implementation details: identities, title records and their state machine,
// the error taxonomy, the event contract, and the interfaces consumed by the
// transition engine (signature verification, fund forwarding, document storage).
package interfaces
