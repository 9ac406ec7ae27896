// Command ytproc is the CLI for the video processing pipeline: it queues
// videos, runs the processing service, and inspects queue and stage health.
package main
