// Package events decouples the code that creates tasks from the code that
// executes them. The task service emits a TaskEvent after a task is stored;
// handlers registered on the emitter (the background runner) react to it.
package events
