// Package storage defines the read side of the Markdown vault.
package storage

import "github.com/starford/herald/internal/models"

// Provider is the interface for vault file access.
type Provider interface {
	// List returns a handle for every .md file under dir (relative to vault root).
	List(dir string) ([]models.RecordHandle, error)
	// Read returns the raw bytes of the file at path (relative to vault root).
	Read(path string) ([]byte, error)
}
