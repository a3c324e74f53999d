// Package exepath locates the running executable, for resolving resources
// shipped next to the binary (the default hotpatch module).
package exepath

import (
	"fmt"
	"os"
	"path/filepath"
)

// Path returns the absolute path of the running executable with symlinks
// resolved.
func Path() (string, error) {
	exe, err := os.Executable()
	if err != nil {
		return "", fmt.Errorf("locate executable: %w", err)
	}
	resolved, err := filepath.EvalSymlinks(exe)
	if err != nil {
		return "", fmt.Errorf("resolve executable path: %w", err)
	}
	return resolved, nil
}

// Dir returns the directory containing the running executable.
func Dir() (string, error) {
	p, err := Path()
	if err != nil {
		return "", err
	}
	return filepath.Dir(p), nil
}
