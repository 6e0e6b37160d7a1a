package pipeline

import (
	"errors"
	"fmt"

	"github.com/cespare/xxhash/v2"
)

// ErrUnreadableContent marks a candidate whose byte buffer cannot be read.
// It converts into a per-file ProcessingError and never aborts the batch.
var ErrUnreadableContent = errors.New("content buffer is unreadable")

// Digest computes the content hash for one file's full byte content and
// renders it as lowercase hex. Identical bytes always yield an identical
// digest string, across runs and across chunk boundaries.
func Digest(content []byte) (string, error) {
	if content == nil {
		return "", ErrUnreadableContent
	}
	return fmt.Sprintf("%016x", xxhash.Sum64(content)), nil
}
