package fileformat

import (
	"path/filepath"
	"strings"

	"github.com/twinj/uuid"
)

// UniqueFormat builds a collision-free object key for an uploaded file,
// preserving its extension.
func UniqueFormat(fileName string) string {
	ext := strings.ToLower(filepath.Ext(fileName))
	return uuid.NewV4().String() + ext
}
