// Package httpserver exposes the title registry engine over a JSON HTTP API.
//
// The server provides title creation and registration, pure signature
// verification, the ordered event log, and document archive upload/fetch,
// plus liveness, readiness, and drain endpoints for orchestration. Mutating
// endpoints authenticate callers through a signed-request header carrying an
// EIP-191 personal signature over the request body.
package httpserver
