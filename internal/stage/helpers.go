package stage

import (
	"strings"

	"ytproc/internal/services"
)

// RequireVideoID validates that an item carries a resolved video ID. Stages
// past download need it to derive file names; a missing ID means the download
// stage never completed properly.
func RequireVideoID(videoID string) (string, error) {
	videoID = strings.TrimSpace(videoID)
	if videoID == "" {
		return "", services.Wrap(
			services.ErrValidation, "stage", "require video id",
			"Video ID missing; rerun the download stage", nil)
	}
	return videoID, nil
}

// RequireFile validates that a stage input file path recorded on the item is
// non-empty. The label names the artifact for the error message.
func RequireFile(path, label string) (string, error) {
	path = strings.TrimSpace(path)
	if path == "" {
		return "", services.Wrap(
			services.ErrValidation, "stage", "require file",
			label+" missing from queue item; rerun the producing stage", nil)
	}
	return path, nil
}
