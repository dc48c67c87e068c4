package utils

import (
	"fmt"
	"os"
	"path/filepath"
	"strings"
)

//InSlice returns true if given string appears in given slice
func InSlice(lookingFor string, slice []string) bool {
	for _, s := range slice {
		if s == lookingFor {
			return true
		}
	}

	return false
}

//ListDir returns a list of files/ directories in given path
func ListDir(path string) ([]string, error) {
	names := make([]string, 0)
	if entries, err := os.ReadDir(path); err != nil {
		return nil, fmt.Errorf("ListDir: Error, got '%v'", err)
	} else {
		for _, e := range entries {
			names = append(names, e.Name())
		}
	}

	return names, nil
}

//TrimExt returns given file name without its extension ("a.b.mp4" -> "a.b")
func TrimExt(name string) string {
	return strings.TrimSuffix(name, filepath.Ext(name))
}

//EnsureDir creates given directory (and parents) when it does not exist yet
func EnsureDir(path string) error {
	if _, err := os.Stat(path); err != nil {
		if !os.IsNotExist(err) {
			return fmt.Errorf("EnsureDir: Error, got '%v'", err)
		}
		if err := os.MkdirAll(path, 0766); err != nil {
			return fmt.Errorf("EnsureDir: Could not create '%s', got '%v'", path, err)
		}
	}

	return nil
}
