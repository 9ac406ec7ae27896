// Package downloader implements the download stage of the pipeline.
//
// Prepare validates the video URL and extracts the YouTube video ID. Execute
// checks the download archive first and reuses existing files when the video
// was fetched before; otherwise it drives yt-dlp through go-ytdlp with a
// format cap derived from the configured quality, throttled progress updates,
// and thumbnail capture, then records the result in the archive.
package downloader
