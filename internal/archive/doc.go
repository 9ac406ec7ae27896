// Package archive tracks which videos have already been downloaded so repeat
// queue submissions reuse the existing files instead of hitting the network
// again. The archive is a small SQLite database keyed by video ID, stored
// alongside the logs.
package archive
