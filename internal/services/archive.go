package services

import (
	"archive/tar"
	"bytes"
	"compress/gzip"
	"context"
	"errors"
	"fmt"
	"io"
	"io/fs"
	"os"
	"path/filepath"

	"ayaocrm/internal/audit"
	"ayaocrm/internal/database"
	"ayaocrm/internal/models"
)

// ArchiveService builds a downloadable tar.gz of the datastore snapshot and
// the translation override document. It is the offline counterpart of
// BackupService.
type ArchiveService struct {
	db              *database.DB
	translationFile string
	audit           *audit.Log
}

func NewArchiveService(db *database.DB, translationFile string, auditLog *audit.Log) *ArchiveService {
	return &ArchiveService{
		db:              db,
		translationFile: translationFile,
		audit:           auditLog,
	}
}

// Export is admin only.
func (s *ArchiveService) Export(ctx context.Context, actor models.Actor) ([]byte, error) {
	if err := models.RequireAdmin(actor); err != nil {
		return nil, err
	}

	tmpDir, err := os.MkdirTemp("", "ayaocrm-archive-*")
	if err != nil {
		return nil, fmt.Errorf("failed to create temp dir: %w", err)
	}
	defer os.RemoveAll(tmpDir)

	snapshot := filepath.Join(tmpDir, database.FileName)
	if _, err := s.db.ExecContext(ctx, "VACUUM INTO ?", snapshot); err != nil {
		return nil, fmt.Errorf("failed to snapshot datastore: %w", err)
	}

	var buf bytes.Buffer
	gzWriter := gzip.NewWriter(&buf)
	tarWriter := tar.NewWriter(gzWriter)

	files := []string{snapshot}
	if _, err := os.Stat(s.translationFile); err == nil {
		files = append(files, s.translationFile)
	} else if !errors.Is(err, fs.ErrNotExist) {
		return nil, fmt.Errorf("failed to stat translations: %w", err)
	}

	for _, path := range files {
		if err := addFile(tarWriter, path, filepath.Base(path)); err != nil {
			return nil, fmt.Errorf("failed to create archive: %w", err)
		}
	}

	if err := tarWriter.Close(); err != nil {
		return nil, fmt.Errorf("failed to finish archive: %w", err)
	}
	if err := gzWriter.Close(); err != nil {
		return nil, fmt.Errorf("failed to finish archive: %w", err)
	}

	s.audit.Append(ctx, audit.Entry{
		Actor: actor.Name(), Action: "export_archive", Table: "customers",
		Details: map[string]any{"files": len(files), "bytes": buf.Len()},
	})
	return buf.Bytes(), nil
}

func addFile(tw *tar.Writer, path, name string) error {
	info, err := os.Stat(path)
	if err != nil {
		return err
	}

	header, err := tar.FileInfoHeader(info, "")
	if err != nil {
		return err
	}
	header.Name = name

	if err := tw.WriteHeader(header); err != nil {
		return err
	}

	file, err := os.Open(path)
	if err != nil {
		return err
	}
	defer file.Close()

	_, err = io.Copy(tw, file)
	return err
}
