package sqlite

import (
	"context"
	"database/sql"
	"errors"
	"fmt"

	"github.com/ganot/report-results/internal/blob"
	"github.com/ganot/report-results/internal/repository"
)

// BlobRepository implements result.BlobStore for SQLite. Blobs are keyed
// by the BLAKE3 hash of their uncompressed bytes, so storing the same
// payload twice keeps one row.
type BlobRepository struct {
	db          *DB
	compression string
	compressor  compressor
}

// NewBlobRepository creates a new BlobRepository that compresses new
// blobs with the named codec. Existing blobs are read with the codec
// they were written with.
func NewBlobRepository(db *DB, compression string) (*BlobRepository, error) {
	if compression == "" {
		compression = CompressionZstd
	}
	c, err := compressorFor(compression)
	if err != nil {
		return nil, err
	}
	return &BlobRepository{db: db, compression: compression, compressor: c}, nil
}

// Put stores data and returns its reference
func (r *BlobRepository) Put(ctx context.Context, data []byte) (string, error) {
	ref := blob.Ref(data)
	packed, err := r.compressor.compress(data)
	if err != nil {
		return "", fmt.Errorf("failed to compress blob: %w", err)
	}
	if packed == nil {
		packed = []byte{}
	}

	query := `
		INSERT INTO blobs (ref, codec, size, data)
		VALUES (?, ?, ?, ?)
		ON CONFLICT(ref) DO NOTHING
	`
	if _, err := r.db.ExecContext(ctx, query, ref, r.compression, len(data), packed); err != nil {
		return "", fmt.Errorf("failed to store blob: %w", err)
	}
	return ref, nil
}

// Get returns the uncompressed bytes of a blob
func (r *BlobRepository) Get(ctx context.Context, ref string) ([]byte, error) {
	var (
		name   string
		size   int64
		packed []byte
	)
	err := r.db.QueryRowContext(ctx, "SELECT codec, size, data FROM blobs WHERE ref = ?", ref).Scan(&name, &size, &packed)
	if errors.Is(err, sql.ErrNoRows) {
		return nil, repository.ErrNotFound
	}
	if err != nil {
		return nil, fmt.Errorf("failed to get blob: %w", err)
	}

	c, err := compressorFor(name)
	if err != nil {
		return nil, err
	}
	data, err := c.decompress(packed)
	if err != nil {
		return nil, fmt.Errorf("failed to decompress blob %s: %w", ref, err)
	}
	if int64(len(data)) != size {
		return nil, fmt.Errorf("blob %s: stored size %d, read %d bytes", ref, size, len(data))
	}
	if data == nil {
		data = []byte{}
	}
	return data, nil
}

// Size returns the uncompressed size of a blob without reading it
func (r *BlobRepository) Size(ctx context.Context, ref string) (int64, error) {
	var size int64
	err := r.db.QueryRowContext(ctx, "SELECT size FROM blobs WHERE ref = ?", ref).Scan(&size)
	if errors.Is(err, sql.ErrNoRows) {
		return 0, repository.ErrNotFound
	}
	if err != nil {
		return 0, fmt.Errorf("failed to size blob: %w", err)
	}
	return size, nil
}

// Exists reports whether a blob is stored
func (r *BlobRepository) Exists(ctx context.Context, ref string) (bool, error) {
	var one int
	err := r.db.QueryRowContext(ctx, "SELECT 1 FROM blobs WHERE ref = ?", ref).Scan(&one)
	if errors.Is(err, sql.ErrNoRows) {
		return false, nil
	}
	if err != nil {
		return false, fmt.Errorf("failed to check blob: %w", err)
	}
	return true, nil
}
