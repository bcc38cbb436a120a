// Package task runs the image-to-video lifecycle in the background.
//
// The Orchestrator owns every state transition: Run drives a task from idle
// to submitted once after creation, and Reconcile folds the provider's view
// of a submitted job back into durable state. The Runner executes Run on a
// bounded worker pool off the request path, and the Sweeper periodically
// reconciles submitted tasks and resubmits work that was interrupted.
package task
