// Package video defines the video generation provider contract and the
// registry that resolves a task's provider id to its implementation.
package video
