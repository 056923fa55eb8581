package persist

import (
	"context"
	"errors"
	"fmt"
	"sync"

	"github.com/jackc/pgx/v5"
	"github.com/klauspost/compress/zstd"
)

var (
	encOnce sync.Once
	encoder *zstd.Encoder
	decoder *zstd.Decoder
)

func codecs() (*zstd.Encoder, *zstd.Decoder) {
	encOnce.Do(func() {
		// Neither constructor fails without options.
		encoder, _ = zstd.NewWriter(nil, zstd.WithEncoderLevel(zstd.SpeedDefault))
		decoder, _ = zstd.NewReader(nil)
	})
	return encoder, decoder
}

// CompressSnapshot zstd-compresses a raw session snapshot.
func CompressSnapshot(raw []byte) []byte {
	enc, _ := codecs()
	return enc.EncodeAll(raw, make([]byte, 0, len(raw)/2))
}

// DecompressSnapshot reverses CompressSnapshot.
func DecompressSnapshot(blob []byte) ([]byte, error) {
	_, dec := codecs()
	raw, err := dec.DecodeAll(blob, nil)
	if err != nil {
		return nil, fmt.Errorf("decompress snapshot: %w", err)
	}
	return raw, nil
}

// Snapshot is one stored session snapshot, decompressed.
type Snapshot struct {
	Tick  uint64
	Units int
	Data  []byte
}

// SnapshotRepo stores periodic session snapshots.
type SnapshotRepo struct {
	db       *DB
	serverID int
}

func NewSnapshotRepo(db *DB, serverID int) *SnapshotRepo {
	return &SnapshotRepo{db: db, serverID: serverID}
}

// Save stores a raw snapshot compressed.
func (r *SnapshotRepo) Save(ctx context.Context, tick uint64, units int, raw []byte) error {
	blob := CompressSnapshot(raw)
	_, err := r.db.Pool.Exec(ctx,
		`INSERT INTO session_snapshots (server_id, tick, unit_count, raw_size, data)
		 VALUES ($1, $2, $3, $4, $5)`,
		r.serverID, int64(tick), units, len(raw), blob,
	)
	if err != nil {
		return fmt.Errorf("save snapshot: %w", err)
	}
	return nil
}

// LoadLatest returns the newest snapshot of this server, or nil when none
// was stored yet.
func (r *SnapshotRepo) LoadLatest(ctx context.Context) (*Snapshot, error) {
	var (
		tick  int64
		units int
		blob  []byte
	)
	err := r.db.Pool.QueryRow(ctx,
		`SELECT tick, unit_count, data FROM session_snapshots
		 WHERE server_id = $1 ORDER BY tick DESC, id DESC LIMIT 1`,
		r.serverID,
	).Scan(&tick, &units, &blob)
	if errors.Is(err, pgx.ErrNoRows) {
		return nil, nil
	}
	if err != nil {
		return nil, fmt.Errorf("load snapshot: %w", err)
	}
	raw, err := DecompressSnapshot(blob)
	if err != nil {
		return nil, err
	}
	return &Snapshot{Tick: uint64(tick), Units: units, Data: raw}, nil
}

// Prune keeps the newest keep snapshots of this server.
func (r *SnapshotRepo) Prune(ctx context.Context, keep int) (int64, error) {
	tag, err := r.db.Pool.Exec(ctx,
		`DELETE FROM session_snapshots WHERE server_id = $1 AND id NOT IN (
		     SELECT id FROM session_snapshots WHERE server_id = $1
		     ORDER BY tick DESC, id DESC LIMIT $2)`,
		r.serverID, keep,
	)
	if err != nil {
		return 0, fmt.Errorf("prune snapshots: %w", err)
	}
	return tag.RowsAffected(), nil
}
