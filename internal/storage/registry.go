package storage

import (
	"path/filepath"
	"sync"
)

// openPaths tracks which database files have a live Handle in this process.
// It only guards the one-handle-per-file rule; handles themselves are never
// looked up through it.
var openPaths = struct {
	sync.Mutex
	m map[string]struct{}
}{m: make(map[string]struct{})}

// canonicalPath returns the key used for the one-handle-per-file rule.
func canonicalPath(path string) (string, error) {
	abs, err := filepath.Abs(path)
	if err != nil {
		return "", err
	}
	if resolved, err := filepath.EvalSymlinks(filepath.Dir(abs)); err == nil {
		abs = filepath.Join(resolved, filepath.Base(abs))
	}
	return filepath.Clean(abs), nil
}

func claimPath(key string) bool {
	openPaths.Lock()
	defer openPaths.Unlock()
	if _, taken := openPaths.m[key]; taken {
		return false
	}
	openPaths.m[key] = struct{}{}
	return true
}

func releasePath(key string) {
	openPaths.Lock()
	defer openPaths.Unlock()
	delete(openPaths.m, key)
}
