package processor

import (
	"context"
	"fmt"
	"io"
	"os"
	"path/filepath"
)

// moveToArchived moves the source video into the archive folder, copying
// when a rename is not possible (e.g. across devices)
func (p *implProcessor) moveToArchived(ctx context.Context, videoPath string) error {
	if err := os.MkdirAll(p.cfg.Paths.Archived, 0755); err != nil {
		return fmt.Errorf("create archive dir: %w", err)
	}
	destPath := filepath.Join(p.cfg.Paths.Archived, filepath.Base(videoPath))

	p.logger.Info(ctx, "Moving to archived folder: %s -> %s", videoPath, destPath)

	if err := os.Rename(videoPath, destPath); err == nil {
		return nil
	}

	if err := copyFile(videoPath, destPath); err != nil {
		return fmt.Errorf("archive video: %w", err)
	}
	p.cleanupTempFile(ctx, videoPath)
	return nil
}

func copyFile(src, dst string) error {
	in, err := os.Open(src)
	if err != nil {
		return err
	}
	defer in.Close()

	out, err := os.Create(dst)
	if err != nil {
		return err
	}
	if _, err := io.Copy(out, in); err != nil {
		out.Close()
		return err
	}
	return out.Close()
}

// cleanupTempFile removes a file, logs warning if fails
func (p *implProcessor) cleanupTempFile(ctx context.Context, filePath string) {
	if err := os.Remove(filePath); err != nil {
		p.logger.Warn(ctx, "Failed to cleanup file %s: %v", filePath, err)
	} else {
		p.logger.Debug(ctx, "Cleaned up file: %s", filePath)
	}
}
