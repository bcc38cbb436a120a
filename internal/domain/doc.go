// Package domain contains the core business entities of the image-to-video
// service: the Task record, its lifecycle states and the rules that decide
// which transitions are legal and which fields each state may carry.
package domain
