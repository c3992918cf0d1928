// Package store persists uploaded crop records in SQLite.
package store

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"time"

	_ "modernc.org/sqlite" // pure-Go sqlite driver
)

// ErrNotFound is returned when no record exists for the requested id.
var ErrNotFound = errors.New("image not found")

// Image is one persisted crop upload.
type Image struct {
	ID             string    `json:"id"`
	Filename       string    `json:"filename"`
	OriginalWidth  int       `json:"originalWidth"`
	OriginalHeight int       `json:"originalHeight"`
	CropX          int       `json:"cropX"`
	CropY          int       `json:"cropY"`
	CropWidth      int       `json:"cropWidth"`
	CropHeight     int       `json:"cropHeight"`
	UploadedAt     time.Time `json:"uploadedAt"`
}

const schema = `
CREATE TABLE IF NOT EXISTS images (
	id TEXT PRIMARY KEY,
	filename TEXT,
	original_width INT,
	original_height INT,
	crop_x INT,
	crop_y INT,
	crop_width INT,
	crop_height INT,
	uploaded_at TEXT
)`

// Store wraps the images database.
type Store struct {
	db *sql.DB
}

// Open opens (creating if needed) the database at path and ensures the
// schema exists.
func Open(path string) (*Store, error) {
	db, err := sql.Open("sqlite", path)
	if err != nil {
		return nil, fmt.Errorf("failed to open database: %w", err)
	}
	if _, err := db.Exec(schema); err != nil {
		db.Close()
		return nil, fmt.Errorf("failed to create schema: %w", err)
	}
	return &Store{db: db}, nil
}

// Insert persists a new upload record.
func (s *Store) Insert(ctx context.Context, img *Image) error {
	_, err := s.db.ExecContext(ctx,
		`INSERT INTO images (id, filename, original_width, original_height,
			crop_x, crop_y, crop_width, crop_height, uploaded_at)
		 VALUES (?, ?, ?, ?, ?, ?, ?, ?, ?)`,
		img.ID, img.Filename, img.OriginalWidth, img.OriginalHeight,
		img.CropX, img.CropY, img.CropWidth, img.CropHeight,
		img.UploadedAt.UTC().Format(time.RFC3339))
	if err != nil {
		return fmt.Errorf("failed to insert image record: %w", err)
	}
	return nil
}

// Get returns the record with the given id, or ErrNotFound.
func (s *Store) Get(ctx context.Context, id string) (*Image, error) {
	row := s.db.QueryRowContext(ctx,
		`SELECT id, filename, original_width, original_height,
			crop_x, crop_y, crop_width, crop_height, uploaded_at
		 FROM images WHERE id = ?`, id)

	img, err := scanImage(row.Scan)
	if errors.Is(err, sql.ErrNoRows) {
		return nil, ErrNotFound
	}
	if err != nil {
		return nil, fmt.Errorf("failed to read image record: %w", err)
	}
	return img, nil
}

// List returns all records, newest first.
func (s *Store) List(ctx context.Context) ([]Image, error) {
	rows, err := s.db.QueryContext(ctx,
		`SELECT id, filename, original_width, original_height,
			crop_x, crop_y, crop_width, crop_height, uploaded_at
		 FROM images ORDER BY uploaded_at DESC`)
	if err != nil {
		return nil, fmt.Errorf("failed to list image records: %w", err)
	}
	defer rows.Close()

	var out []Image
	for rows.Next() {
		img, err := scanImage(rows.Scan)
		if err != nil {
			return nil, fmt.Errorf("failed to read image record: %w", err)
		}
		out = append(out, *img)
	}
	return out, rows.Err()
}

// Close closes the underlying database.
func (s *Store) Close() error {
	return s.db.Close()
}

func scanImage(scan func(dest ...any) error) (*Image, error) {
	var img Image
	var uploadedAt string
	if err := scan(&img.ID, &img.Filename, &img.OriginalWidth, &img.OriginalHeight,
		&img.CropX, &img.CropY, &img.CropWidth, &img.CropHeight, &uploadedAt); err != nil {
		return nil, err
	}
	t, err := time.Parse(time.RFC3339, uploadedAt)
	if err != nil {
		return nil, fmt.Errorf("bad uploaded_at %q: %w", uploadedAt, err)
	}
	img.UploadedAt = t
	return &img, nil
}
