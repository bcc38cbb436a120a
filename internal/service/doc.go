// Package service holds the application use cases of the image-to-video API.
//
// TaskService accepts new tasks, persists them through store.TaskStore and
// hands them to background execution by emitting an events.TaskEvent. Status
// queries load each task and reconcile it against its video provider before
// returning it. Expected conditions are reported as sentinel errors; anything
// unexpected is wrapped in a ServiceError for the API layer to map.
package service
