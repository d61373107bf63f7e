package models

import (
	"io"
	"path/filepath"
	"strings"
)

// SupportedExtensions is the advisory allow-list offered to users when they
// pick a file. The backend validates artifacts on its own.
const SupportedExtensions = ".zip,.js,.jsx,.ts,.tsx,.py,.java,.cpp,.c,.cs,.go,.rb,.php"

// SupportedFormats is the human readable form of SupportedExtensions.
const SupportedFormats = "ZIP, JavaScript, TypeScript, Python, Java, C++, C, C#, Go, Ruby, PHP"

// Artifact is a user-selected file on its way to the backend. Body is read
// once into the upload request and is not retained afterwards.
type Artifact struct {
	Name string
	Body io.Reader
}

// Job is a submitted analysis request.
type Job struct {
	ID           string
	ArtifactName string
}

// ValidateArtifactName checks name against SupportedExtensions.
func ValidateArtifactName(name string) error {
	ext := strings.ToLower(filepath.Ext(name))
	for _, supported := range strings.Split(SupportedExtensions, ",") {
		if ext == supported {
			return nil
		}
	}
	if ext == "" {
		return FileError{Name: name, Issue: "file has no extension, supported types: " + SupportedExtensions}
	}
	return FileError{Name: name, Issue: "unsupported file type " + ext + ", supported types: " + SupportedExtensions}
}
