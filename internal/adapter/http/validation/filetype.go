// Package validation checks uploads before a job is created.
package validation

import (
	"errors"
	"fmt"
	"io"
	"net/http"
)

// ErrDisallowedFileType is returned when an upload is not a supported video
// container.
var ErrDisallowedFileType = errors.New("file type not allowed")

// Only containers the remux stage can copy a video stream out of.
var allowedVideoTypes = map[string]bool{
	"video/mp4":       true,
	"video/webm":      true,
	"video/quicktime": true,
}

const sniffLen = 512

// DetectVideo sniffs the container type from the leading bytes and rewinds
// the reader. It returns ErrDisallowedFileType for anything that is not an
// allowed video container.
func DetectVideo(r io.ReadSeeker) (string, error) {
	buf := make([]byte, sniffLen)
	n, err := io.ReadFull(r, buf)
	if err != nil && !errors.Is(err, io.EOF) && !errors.Is(err, io.ErrUnexpectedEOF) {
		return "", err
	}
	if _, err := r.Seek(0, io.SeekStart); err != nil {
		return "", err
	}
	if n == 0 {
		return "", fmt.Errorf("%w: empty upload", ErrDisallowedFileType)
	}
	buf = buf[:n]

	mime := sniffContainer(buf)
	if mime == "" {
		mime = http.DetectContentType(buf)
	}
	if !allowedVideoTypes[mime] {
		return mime, fmt.Errorf("%w: %s", ErrDisallowedFileType, mime)
	}
	return mime, nil
}

// sniffContainer recognizes the ISO BMFF and EBML headers that
// http.DetectContentType does not classify reliably.
func sniffContainer(buf []byte) string {
	if len(buf) >= 4 && buf[0] == 0x1A && buf[1] == 0x45 && buf[2] == 0xDF && buf[3] == 0xA3 {
		return "video/webm"
	}
	if len(buf) >= 12 && string(buf[4:8]) == "ftyp" {
		switch string(buf[8:12]) {
		case "qt  ":
			return "video/quicktime"
		case "M4A ", "M4B ", "F4A ":
			return "audio/mp4"
		default:
			return "video/mp4"
		}
	}
	return ""
}
