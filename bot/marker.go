package bot

import (
	"context"
	"crypto/rand"
	"encoding/binary"
	"fmt"
	"strconv"
)

const markerKeyMeta = "marker_key"

type metaStore interface {
	Meta(ctx context.Context, key string) (string, error)
	SetMeta(ctx context.Context, key, value string) error
}

// markerKey returns the configured submitter marker key. When none is
// configured a random key is generated on first start and kept in the
// database, so markers stay decodable across restarts.
func markerKey(ctx context.Context, meta metaStore, configured uint64) (uint64, error) {
	if configured != 0 {
		return configured, nil
	}
	stored, err := meta.Meta(ctx, markerKeyMeta)
	if err != nil {
		return 0, err
	}
	if stored != "" {
		key, err := strconv.ParseUint(stored, 16, 64)
		if err != nil || key == 0 {
			return 0, fmt.Errorf("stored marker key %q is invalid", stored)
		}
		return key, nil
	}

	var key uint64
	var buf [8]byte
	for key == 0 {
		if _, err := rand.Read(buf[:]); err != nil {
			return 0, fmt.Errorf("failed to generate marker key: %w", err)
		}
		key = binary.BigEndian.Uint64(buf[:])
	}
	if err := meta.SetMeta(ctx, markerKeyMeta, strconv.FormatUint(key, 16)); err != nil {
		return 0, err
	}
	return key, nil
}
