package config

import "path/filepath"

const (
	RepoDir      = ".ward"
	DatabaseFile = "metadata.sqlite3"
	ConfigFile   = "config.yaml"
	IgnoreFile   = "ignore"
	ObjectsDir   = "objects"
)

// DefaultIgnorePatterns seeds .ward/ignore on init. The control directory
// itself is always excluded by the scanner regardless of these rules.
var DefaultIgnorePatterns = []string{
	".git",
	".DS_Store",
	"Thumbs.db",
	"*.tmp",
	"*.swp",
	"*~",
}

func ControlDir(root string) string {
	return filepath.Join(root, RepoDir)
}

func DatabasePath(root string) string {
	return filepath.Join(root, RepoDir, DatabaseFile)
}

func ConfigPath(root string) string {
	return filepath.Join(root, RepoDir, ConfigFile)
}

func IgnorePath(root string) string {
	return filepath.Join(root, RepoDir, IgnoreFile)
}

func ObjectsPath(root string) string {
	return filepath.Join(root, RepoDir, ObjectsDir)
}
