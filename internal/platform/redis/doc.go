// Package redis provides Redis-backed helpers for task state: a read-through
// snapshot cache for terminal tasks and a short-lived per-task lock that
// serializes reconciliation across processes.
package redis
