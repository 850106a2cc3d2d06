// Package changes decides whether a file needs to be parsed again.
package changes

import (
	"encoding/hex"
	"io"
	"os"
	"time"

	"github.com/zeebo/xxh3"

	"github.com/DeusData/codebase-index/internal/types"
)

// Hash returns the hex digest of content. Identical bytes always give the
// same digest.
func Hash(content []byte) string {
	sum := xxh3.Hash128(content).Bytes()
	return hex.EncodeToString(sum[:])
}

// HashFile streams a file through the same digest as Hash.
func HashFile(path string) (string, error) {
	f, err := os.Open(path)
	if err != nil {
		return "", err
	}
	defer f.Close()
	h := xxh3.New128()
	if _, err := io.Copy(h, f); err != nil {
		return "", err
	}
	sum := h.Sum128().Bytes()
	return hex.EncodeToString(sum[:]), nil
}

// HasChanged reports whether content no longer matches the stored digest.
func HasChanged(old types.FileInfo, content []byte) bool {
	return old.Hash != Hash(content)
}

// NewFileInfo records a freshly indexed file, stamped with the current
// UTC time in seconds.
func NewFileInfo(id types.FileID, path string, language types.LanguageID, hash string) types.FileInfo {
	return types.FileInfo{
		ID:        id,
		Path:      path,
		Hash:      hash,
		Language:  language,
		IndexedAt: Now(),
	}
}

// Now returns the current UTC time in seconds.
func Now() int64 {
	return time.Now().UTC().Unix()
}
