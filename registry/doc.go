// Package registry implements the title store and the fee-escrow transition
// engine. The engine is the single writer of title state: it validates caller
// role, signature authorship, state machine position, and payment, forwards
// funds to the registry identity, and emits one event per committed mutation.
package registry
