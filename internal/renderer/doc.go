// Package renderer implements the final video assembly stage.
//
// The translated SRT is combined with the downloaded video via FFmpeg, either
// muxed as a mov_text soft-subtitle track with stream copy (the default) or
// burned into the picture when burn-in is enabled. Output lands in the
// configured output directory as final_<video-id>.mp4.
package renderer
