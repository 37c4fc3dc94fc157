// Package escrow provides the fund-forwarding channel the transition engine
// uses to pay the registry party. Two implementations exist: an in-memory wei
// ledger for development and tests, and a forwarder that submits signed
// native-value transactions through an Ethereum JSON-RPC endpoint.
package escrow
