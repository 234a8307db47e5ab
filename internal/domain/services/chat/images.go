package chat

// ImageStore materializes generated images. The core only needs the returned
// locator to build a markdown reference into the message log.
type ImageStore interface {
	// WriteImage writes image bytes under a name derived from suggestedName
	// and returns the locator (path or URL) a UI can serve the image from.
	WriteImage(data []byte, suggestedName string) (string, error)
}
