// Package transfer copies the local project tree to its deterministic
// path on the target, streaming a tar archive over the channel's stdin.
package transfer

import (
	"archive/tar"
	"compress/gzip"
	"context"
	"errors"
	"fmt"
	"io"
	"io/fs"
	"log/slog"
	"os"
	"path/filepath"
	"strings"

	"github.com/artpar/dockhand/internal/core/pipeline"
	"github.com/artpar/dockhand/internal/shell/remote"
)

// Transferrer moves the artifact tree onto the target.
type Transferrer struct {
	runner remote.Runner
	logger *slog.Logger
}

// NewTransferrer creates a transferrer over the channel.
func NewTransferrer(runner remote.Runner, logger *slog.Logger) *Transferrer {
	if logger == nil {
		logger = slog.Default()
	}
	return &Transferrer{
		runner: runner,
		logger: logger.With("component", "transfer"),
	}
}

// EnsureDestination creates the remote directory if absent and then
// verifies write permission as a distinct check: presence of the
// directory is not proof of writability.
func (t *Transferrer) EnsureDestination(ctx context.Context, dir string) error {
	res, err := t.runner.Run(ctx, fmt.Sprintf("mkdir -p %s", dir))
	if err != nil {
		return err
	}
	if !res.OK() {
		return pipeline.NewStageError("transfer",
			fmt.Sprintf("cannot create %s: %s", dir, res.Stderr),
			pipeline.ErrTransfer)
	}

	res, err = t.runner.Run(ctx, fmt.Sprintf("test -w %s", dir))
	if err != nil {
		return err
	}
	if !res.OK() {
		return pipeline.NewStageError("transfer",
			fmt.Sprintf("destination %s is not writable", dir),
			pipeline.ErrTransfer)
	}
	return nil
}

// errStreamAbandoned unblocks the pack goroutine when the channel
// stops reading before the archive ends. Never reported on its own;
// the channel error that caused it is.
var errStreamAbandoned = errors.New("remote stopped consuming stream")

// Transfer copies the full local tree into the remote directory. The
// destination contents are reset first so a redeploy cannot inherit
// files deleted upstream. A partial transfer surfaces as a hard
// failure with no partial-state cleanup here; recovery is a full retry
// or Cleanup.
func (t *Transferrer) Transfer(ctx context.Context, localDir, remoteDir string) error {
	res, err := t.runner.Run(ctx, fmt.Sprintf("find %s -mindepth 1 -delete", remoteDir))
	if err != nil {
		return err
	}
	if !res.OK() {
		return pipeline.NewStageError("transfer",
			fmt.Sprintf("reset %s: %s", remoteDir, res.Stderr),
			pipeline.ErrTransfer)
	}

	pr, pw := io.Pipe()
	packErr := make(chan error, 1)
	go func() {
		err := packTree(pw, localDir)
		pw.CloseWithError(err)
		packErr <- err
	}()

	res, err = t.runner.RunInput(ctx, fmt.Sprintf("tar -xzf - -C %s", remoteDir), pr)

	// Close the read end before waiting on the pack goroutine: a channel
	// that failed without draining stdin would otherwise leave it blocked
	// in a pipe write forever.
	pr.CloseWithError(errStreamAbandoned)
	if perr := <-packErr; perr != nil && !errors.Is(perr, errStreamAbandoned) {
		return pipeline.NewStageError("transfer", fmt.Sprintf("pack %s: %v", localDir, perr), pipeline.ErrTransfer)
	}
	if err != nil {
		return err
	}
	if !res.OK() {
		return pipeline.NewStageError("transfer",
			fmt.Sprintf("unpack into %s failed: %s", remoteDir, res.Stderr),
			pipeline.ErrTransfer)
	}

	t.logger.Info("artifact tree transferred", "local", localDir, "remote", remoteDir)
	return nil
}

// RemoveRemote deletes the transferred tree. The path is an explicit
// parameter so cleanup never depends on remote-side variable expansion.
// Used by cleanup; "already absent" is tolerated.
func (t *Transferrer) RemoveRemote(ctx context.Context, dir string) error {
	if strings.TrimSpace(dir) == "" || dir == "/" {
		return pipeline.NewStageError("cleanup", "refusing to remove empty or root path", pipeline.ErrCleanup)
	}

	res, err := t.runner.Run(ctx, fmt.Sprintf("rm -rf %s", dir))
	if err != nil {
		return err
	}
	if !res.OK() {
		t.logger.Warn("remote tree removal returned non-zero", "dir", dir, "exit_code", res.ExitCode)
	}
	return nil
}

// packTree writes localDir's contents as a gzipped tar stream. Paths in
// the archive are relative to localDir so they unpack directly into the
// remote directory.
func packTree(w io.Writer, localDir string) error {
	gz := gzip.NewWriter(w)
	tw := tar.NewWriter(gz)

	err := filepath.WalkDir(localDir, func(path string, d fs.DirEntry, err error) error {
		if err != nil {
			return err
		}

		rel, err := filepath.Rel(localDir, path)
		if err != nil {
			return err
		}
		if rel == "." {
			return nil
		}

		info, err := d.Info()
		if err != nil {
			return err
		}

		var link string
		if info.Mode()&fs.ModeSymlink != 0 {
			if link, err = os.Readlink(path); err != nil {
				return err
			}
		} else if !info.Mode().IsRegular() && !info.IsDir() {
			// Sockets, devices and the like have no place in an artifact tree.
			return nil
		}

		hdr, err := tar.FileInfoHeader(info, link)
		if err != nil {
			return err
		}
		hdr.Name = filepath.ToSlash(rel)
		if info.IsDir() {
			hdr.Name += "/"
		}

		if err := tw.WriteHeader(hdr); err != nil {
			return err
		}
		if !info.Mode().IsRegular() {
			return nil
		}

		f, err := os.Open(path)
		if err != nil {
			return err
		}
		defer f.Close()

		_, err = io.Copy(tw, f)
		return err
	})
	if err != nil {
		return err
	}

	if err := tw.Close(); err != nil {
		return err
	}
	return gz.Close()
}
