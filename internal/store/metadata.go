package store

import (
	"context"
	"database/sql"

	"github.com/pkg/errors"
)

// GetImportedFileHash returns the SHA-256 recorded for an imported roster
// file. Returns empty string and nil error if the file was never imported.
func (s *Store) GetImportedFileHash(ctx context.Context, path string) (string, error) {
	var hash string
	err := s.get(ctx, &hash, `SELECT sha256 FROM imported_files WHERE path = ?`, path)
	if errors.Is(err, sql.ErrNoRows) {
		return "", nil
	}
	if err != nil {
		return "", storageErr("get imported file", err)
	}
	return hash, nil
}

// SetImportedFileHash records that path was imported with the given hash.
func (s *Store) SetImportedFileHash(ctx context.Context, path, hash string) error {
	_, err := s.exec(ctx,
		`INSERT INTO imported_files (path, sha256, imported_at) VALUES (?, ?, ?)
		 ON CONFLICT(path) DO UPDATE SET sha256 = excluded.sha256, imported_at = excluded.imported_at`,
		path, hash, now(),
	)
	if err != nil {
		return storageErr("record imported file", err)
	}
	return nil
}
