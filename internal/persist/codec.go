package persist

import (
	"errors"
	"fmt"
	"time"

	"github.com/cespare/xxhash/v2"
	"github.com/google/uuid"
	"github.com/klauspost/compress/zstd"

	"github.com/hexcolony/server/internal/snapshot"
)

var (
	// ErrNoSnapshot is returned by Latest when the store is empty.
	ErrNoSnapshot = errors.New("no snapshot stored")
	// ErrCorrupt marks a stored blob whose digest does not match.
	ErrCorrupt = errors.New("snapshot blob corrupt")
)

// Record describes one stored snapshot.
type Record struct {
	ID      uuid.UUID
	Version int
	Worlds  int
	RawSize int
	Digest  uint64
	SavedAt time.Time
}

// Both are safe for concurrent EncodeAll/DecodeAll.
var (
	zenc, _ = zstd.NewWriter(nil, zstd.WithEncoderLevel(zstd.SpeedDefault))
	zdec, _ = zstd.NewReader(nil)
)

// blob is a compressed snapshot ready to be written.
type blob struct {
	rec  Record
	data []byte
}

// encode renders p as zstd-compressed JSON. The digest covers the
// compressed bytes, so corruption is detected before decompression.
func encode(p *snapshot.Process) (blob, error) {
	raw, err := snapshot.Encode(p)
	if err != nil {
		return blob{}, err
	}
	data := zenc.EncodeAll(raw, make([]byte, 0, len(raw)/4))
	return blob{
		rec: Record{
			ID:      uuid.New(),
			Version: p.Version,
			Worlds:  len(p.Worlds),
			RawSize: len(raw),
			Digest:  xxhash.Sum64(data),
			SavedAt: time.Now().UTC(),
		},
		data: data,
	}, nil
}

func decode(rec Record, data []byte) (*snapshot.Process, error) {
	if got := xxhash.Sum64(data); got != rec.Digest {
		return nil, fmt.Errorf("%w: snapshot %s digest %016x, want %016x", ErrCorrupt, rec.ID, got, rec.Digest)
	}
	raw, err := zdec.DecodeAll(data, make([]byte, 0, rec.RawSize))
	if err != nil {
		return nil, fmt.Errorf("%w: snapshot %s: %v", ErrCorrupt, rec.ID, err)
	}
	return snapshot.Decode(raw)
}
