package watch

import (
	"crypto/sha256"
	"encoding/hex"
	"io"
	"os"
	"sync"
)

// hashFile computes a SHA-256 hash of the file contents
func hashFile(path string) (string, error) {
	file, err := os.Open(path)
	if err != nil {
		return "", err
	}
	defer file.Close()

	hasher := sha256.New()
	if _, err := io.Copy(hasher, file); err != nil {
		return "", err
	}

	return hex.EncodeToString(hasher.Sum(nil)), nil
}

// changeDetector remembers the content hash of files so that editor saves which
// leave a file unchanged do not trigger a re-render.
type changeDetector struct {
	hashes map[string]string
	mu     sync.Mutex
}

func newChangeDetector() *changeDetector {
	return &changeDetector{hashes: make(map[string]string)}
}

// Changed reports whether the file content differs from the last call for the
// same path. The first call for a path always reports a change.
func (cd *changeDetector) Changed(path string) (bool, error) {
	hash, err := hashFile(path)
	if err != nil {
		return false, err
	}

	cd.mu.Lock()
	defer cd.mu.Unlock()

	if previous, ok := cd.hashes[path]; ok && previous == hash {
		return false, nil
	}
	cd.hashes[path] = hash
	return true, nil
}
