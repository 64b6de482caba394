package storage

import (
	"fmt"
	"path/filepath"
	"strings"
)

func localStorageFullpath(baseDir, key string) (string, error) {
	path := filepath.Join(baseDir, filepath.FromSlash(key))
	if path != baseDir && !strings.HasPrefix(path, baseDir+string(filepath.Separator)) {
		return "", fmt.Errorf("key '%s' escapes storage directory", key)
	}
	return path, nil
}
