package domain

import "path/filepath"

type DataFile string

const (
	DatabaseFile DataFile = "whist.db"
	LogFile      DataFile = "whist.log"
)

// Paths holds the file paths derived from the data directory
type Paths struct {
	RootDir      string
	DatabasePath string
	LogPath      string
}

// NewPaths creates a new Paths instance with all paths initialized
func NewPaths(rootDir string) *Paths {
	return &Paths{
		RootDir:      rootDir,
		DatabasePath: makePath(rootDir, DatabaseFile),
		LogPath:      makePath(rootDir, LogFile),
	}
}

func makePath(rootDir string, f DataFile) string {
	return filepath.Join(rootDir, string(f))
}
