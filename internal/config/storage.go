package config

import (
	"log"
	"os"
	"path/filepath"
	"strings"

	"github.com/vthunder/chronos/internal/apperr"
)

// Storage modes
const (
	ModeCentralized = "centralized"
	ModePerProject  = "per-project"
)

// ProjectDataDir is the directory created under a project root in per-project mode
const ProjectDataDir = "chronos-data"

// NormalizeStorageMode lower-cases a mode and maps '_' to '-', so
// "PER_PROJECT" becomes "per-project". Empty means centralized.
func NormalizeStorageMode(mode string) string {
	mode = strings.ToLower(strings.TrimSpace(mode))
	if mode == "" {
		return ModeCentralized
	}
	return strings.ReplaceAll(mode, "_", "-")
}

// DetectProjectRoot picks the project root: an explicit path (which must be
// an existing directory), then MCP_PROJECT_ROOT, then PROJECT_ROOT, then the
// working directory. Environment values that are not directories are skipped.
func DetectProjectRoot(explicit string) (string, error) {
	if explicit != "" {
		root, err := filepath.Abs(explicit)
		if err != nil {
			return "", apperr.Wrap(apperr.KindConfiguration, err, "invalid project_root %s", explicit)
		}
		info, err := os.Stat(root)
		if err != nil {
			return "", apperr.Wrap(apperr.KindConfiguration, err, "Specified project_root does not exist: %s", root)
		}
		if !info.IsDir() {
			return "", apperr.New(apperr.KindConfiguration, "Specified project_root is not a directory: %s", root)
		}
		log.Printf("[config] Using explicit project root: %s", root)
		return root, nil
	}

	for _, key := range []string{"MCP_PROJECT_ROOT", "PROJECT_ROOT"} {
		v := os.Getenv(key)
		if v == "" {
			continue
		}
		root, err := filepath.Abs(v)
		if err == nil && isDir(root) {
			log.Printf("[config] Using %s: %s", key, root)
			return root, nil
		}
		log.Printf("[config] Warning: %s is set but not a directory: %s", key, v)
	}

	cwd, err := os.Getwd()
	if err != nil {
		return "", apperr.Wrap(apperr.KindConfiguration, err, "failed to read working directory")
	}
	log.Printf("[config] Using working directory as project root: %s", cwd)
	return cwd, nil
}

func isDir(path string) bool {
	info, err := os.Stat(path)
	return err == nil && info.IsDir()
}

// ResolveDataDir returns the absolute data directory for the configured mode
func (c Config) ResolveDataDir() (string, error) {
	switch mode := NormalizeStorageMode(c.StorageMode); mode {
	case ModePerProject:
		root, err := DetectProjectRoot(c.ProjectRoot)
		if err != nil {
			return "", err
		}
		dir := filepath.Join(root, ProjectDataDir)
		log.Printf("[config] Per-project storage: %s", dir)
		return dir, nil
	case ModeCentralized:
		dir, err := filepath.Abs(c.DataDir)
		if err != nil {
			return "", apperr.Wrap(apperr.KindConfiguration, err, "invalid data_dir %s", c.DataDir)
		}
		log.Printf("[config] Centralized storage: %s", dir)
		return dir, nil
	default:
		return "", apperr.New(apperr.KindConfiguration,
			"Invalid storage_mode: '%s'. Must be '%s' or '%s'", c.StorageMode, ModeCentralized, ModePerProject)
	}
}

// PrepareDataDir creates dir with its parents and checks it is writable by
// writing and removing a probe file.
func PrepareDataDir(dir string) error {
	if err := os.MkdirAll(dir, 0755); err != nil {
		return apperr.Wrap(apperr.KindConfiguration, err, "Failed to create/access data directory: %s", dir)
	}

	probe := filepath.Join(dir, ".write_test")
	if err := os.WriteFile(probe, []byte("test"), 0644); err != nil {
		return apperr.Wrap(apperr.KindConfiguration, err, "No write permission to data directory: %s", dir)
	}
	if err := os.Remove(probe); err != nil {
		return apperr.Wrap(apperr.KindConfiguration, err, "Failed to clean up write probe in %s", dir)
	}
	log.Printf("[config] Data directory ready: %s", dir)
	return nil
}
