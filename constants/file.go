package constants

import "strings"

// FileTypes holds the allowed input formats for an extraction job.
var FileTypes = []string{"PDF"}

// AllowedExtensions holds the allowed file extensions for document uploads.
var AllowedExtensions = map[string]struct{}{
	"pdf": {},
}

// PDFContentType is the only content type accepted at ingress.
const PDFContentType = "application/pdf"

// MaxUploadMBDefault caps the size of an uploaded document.
const MaxUploadMBDefault = 32

// NormalizeExt lowercases and trims the dot from a file extension.
func NormalizeExt(ext string) string {
	return strings.ToLower(strings.TrimPrefix(ext, "."))
}
