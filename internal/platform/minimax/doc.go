// Package minimax implements video.Provider against the MiniMax video-01
// image-to-video API.
//
// A job is created with POST {base}/video_generation and polled with
// GET {base}/query/video_generation. Successful jobs report a file id that is
// resolved to a download URL through GET {base}/files/retrieve. Requests are
// rate limited client side and transient failures are retried with
// exponential backoff.
package minimax
