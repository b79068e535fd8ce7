package cli

import (
	"crypto/sha256"
	"encoding/hex"
	"errors"
	"fmt"
	"io"
	"os"
)

var errNothingToHash = errors.New("no file, text or url to hash; pass --hash")

// contentHash fingerprints a new memory's content: the files in order when
// there are any, otherwise the text, otherwise the source URL.
func contentHash(text, sourceURL string, paths []string) (string, error) {
	h := sha256.New()
	switch {
	case len(paths) > 0:
		for _, p := range paths {
			if err := hashFile(h, p); err != nil {
				return "", err
			}
		}
	case text != "":
		io.WriteString(h, text)
	case sourceURL != "":
		io.WriteString(h, sourceURL)
	default:
		return "", errNothingToHash
	}
	return hex.EncodeToString(h.Sum(nil)), nil
}

func hashFile(w io.Writer, path string) error {
	f, err := os.Open(path)
	if err != nil {
		return err
	}
	defer f.Close()
	if _, err := io.Copy(w, f); err != nil {
		return fmt.Errorf("hash %s: %w", path, err)
	}
	return nil
}
