// Package storage implements the title document archive: content-addressed
// storage for parcel images and deed scans with pluggable backends.
//
// Backends are selected by URI scheme:
//
//   - file:///var/lib/registry/archive/
//   - s3://bucket-name/prefix/?region=us-west-2
//   - ipfs://ipfs.example.com:5001/
//   - vault://vault.example.com:8200/secret/registry?token=...
//
// Content is addressed by its SHA-256 hash. Parcel images and deed documents
// live in separate namespaces. A multi-backend aggregates several locations:
// stores replicate to every reachable backend, fetches return the first hit.
package storage
