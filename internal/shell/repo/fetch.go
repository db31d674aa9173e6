// Package repo materializes the source repository at a revision into the
// local staging directory: one idempotent "ensure repository at
// revision" operation, converging to the same tree however often it
// runs.
package repo

import (
	"context"
	"fmt"
	"log/slog"
	"net/url"
	"os"
	"strings"

	getter "github.com/hashicorp/go-getter"

	"github.com/artpar/dockhand/internal/core/pipeline"
)

// Fetcher fetches repositories into a staging directory.
type Fetcher struct {
	logger *slog.Logger
}

// NewFetcher creates a fetcher.
func NewFetcher(logger *slog.Logger) *Fetcher {
	if logger == nil {
		logger = slog.Default()
	}
	return &Fetcher{logger: logger.With("component", "fetch")}
}

// Ensure places the repository at the given branch into dst. Any
// previous staging content is discarded first, so repeated runs
// converge on the revision's tree rather than accumulating state.
func (f *Fetcher) Ensure(ctx context.Context, repoURL, branch, credential, dst string) error {
	src, err := Source(repoURL, branch, credential)
	if err != nil {
		return pipeline.NewStageError("fetch", err.Error(), pipeline.ErrTransfer)
	}

	if err := os.RemoveAll(dst); err != nil {
		return pipeline.NewStageError("fetch", fmt.Sprintf("reset staging dir: %v", err), pipeline.ErrTransfer)
	}

	client := &getter.Client{
		Ctx:  ctx,
		Src:  src,
		Dst:  dst,
		Mode: getter.ClientModeDir,
	}

	if err := client.Get(); err != nil {
		return pipeline.NewStageError("fetch", fmt.Sprintf("fetch %s@%s: %v", Redact(repoURL), branch, err), pipeline.ErrTransfer)
	}

	f.logger.Info("repository staged", "repo", Redact(repoURL), "branch", branch, "dst", dst)
	return nil
}

// Source builds the go-getter source string: git protocol, the branch as
// ref, and the credential embedded as URL userinfo for https remotes.
func Source(repoURL, branch, credential string) (string, error) {
	u, err := url.Parse(strings.TrimSpace(repoURL))
	if err != nil {
		return "", fmt.Errorf("parse repository URL: %w", err)
	}

	if credential != "" && (u.Scheme == "https" || u.Scheme == "http") {
		u.User = url.User(credential)
	}

	q := u.Query()
	q.Set("ref", branch)
	u.RawQuery = q.Encode()

	return "git::" + u.String(), nil
}

// Redact strips userinfo from a repository URL for logging. Credentials
// must never reach the audit trail.
func Redact(repoURL string) string {
	u, err := url.Parse(repoURL)
	if err != nil {
		return "<unparseable url>"
	}
	u.User = nil
	return u.String()
}
