package operation

import (
	"context"
	"errors"
	"fmt"
	"io"
	"path/filepath"
	"time"

	"github.com/joe/batch-files/internal/pipeline"
	"github.com/joe/batch-files/pkg/filesystem"
)

// BufferSize is the size of the buffer used by the built-in copy (32KB).
const BufferSize = 32 * 1024

// Copier copies each file to the same relative location under OutDir,
// preserving its modification time. A failed or interrupted copy leaves no
// partial file behind.
type Copier struct {
	FS       filesystem.FileSystem
	InputDir string
	OutDir   string
}

// Process implements pipeline.Processor.
func (c *Copier) Process(ctx context.Context, path string) pipeline.Outcome {
	start := time.Now()

	dst, err := MirrorPath(c.InputDir, c.OutDir, path)
	if err != nil {
		return pipeline.Outcome{Err: err, Duration: time.Since(start)}
	}

	_, err = c.Copy(ctx, path, dst)

	return pipeline.Outcome{Err: err, Duration: time.Since(start), Output: dst}
}

// Copy copies src to dst and returns the number of bytes written.
func (c *Copier) Copy(ctx context.Context, src, dst string) (int64, error) {
	sourceFile, err := c.FS.Open(src)
	if err != nil {
		return 0, fmt.Errorf("failed to open source file %s: %w", src, err)
	}

	defer func() {
		_ = sourceFile.Close()
	}()

	sourceInfo, err := sourceFile.Stat()
	if err != nil {
		return 0, fmt.Errorf("failed to stat source file %s: %w", src, err)
	}

	dstDir := filepath.Dir(dst)

	err = c.FS.MkdirAll(dstDir, DefaultDirPermissions)
	if err != nil {
		return 0, fmt.Errorf("failed to create destination directory %s: %w", dstDir, err)
	}

	destFile, err := c.FS.Create(dst)
	if err != nil {
		return 0, fmt.Errorf("failed to create destination file %s: %w", dst, err)
	}

	completed := false

	defer func() {
		_ = destFile.Close()

		if !completed {
			_ = c.FS.Remove(dst)
		}
	}()

	written, err := copyLoop(ctx, sourceFile, destFile)
	if err != nil {
		return written, fmt.Errorf("failed to copy %s to %s: %w", src, dst, err)
	}

	// Close before Chtimes so the write does not bump the time again
	err = destFile.Close()
	if err != nil {
		return written, fmt.Errorf("failed to close destination file %s: %w", dst, err)
	}

	err = c.FS.Chtimes(dst, sourceInfo.ModTime(), sourceInfo.ModTime())
	if err != nil {
		return written, fmt.Errorf("failed to preserve modification time for %s: %w", dst, err)
	}

	completed = true

	return written, nil
}

func copyLoop(ctx context.Context, src io.Reader, dst io.Writer) (int64, error) {
	var written int64

	buf := make([]byte, BufferSize)

	for {
		err := ctx.Err()
		if err != nil {
			return written, fmt.Errorf("copy interrupted: %w", err)
		}

		nr, err := src.Read(buf) //nolint:varnamelen // nr is idiomatic for bytes read
		if nr > 0 {
			nw, werr := dst.Write(buf[:nr])
			if werr != nil {
				return written, fmt.Errorf("failed to write to destination: %w", werr)
			}

			if nr != nw {
				return written, fmt.Errorf("short write: %w", io.ErrShortWrite)
			}

			written += int64(nw)
		}

		if errors.Is(err, io.EOF) {
			return written, nil
		}

		if err != nil {
			return written, fmt.Errorf("failed to read from source: %w", err)
		}
	}
}
