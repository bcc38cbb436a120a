// Package api exposes the task service over HTTP: task creation, batched
// status queries, the provider callback handshake, stored asset retrieval
// and health checks. Handlers decode and validate requests, call the
// service and map its errors to a {"code","error","trace_id"} response.
package api
