package services

import (
	"context"
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"strings"
	"time"

	"ayaocrm/internal/audit"
	"ayaocrm/internal/database"
	"ayaocrm/internal/metrics"
	"ayaocrm/internal/models"

	"github.com/go-git/go-git/v5"
	"github.com/go-git/go-git/v5/config"
	"github.com/go-git/go-git/v5/plumbing/object"
	"github.com/go-git/go-git/v5/plumbing/transport"
	githttp "github.com/go-git/go-git/v5/plumbing/transport/http"
	"github.com/prometheus/client_golang/prometheus"
	"github.com/rs/zerolog"
)

var (
	ErrMissingCredentials = fmt.Errorf("%w: missing secrets", models.ErrValidation)
	ErrDatastoreMissing   = fmt.Errorf("datastore %w", models.ErrNotFound)
)

// Credentials come from the hosting environment per call and are never stored.
type Credentials struct {
	Token    string
	Repo     string
	Username string
}

type BackupResult struct {
	File      string    `json:"file"`
	Commit    string    `json:"commit"`
	Timestamp time.Time `json:"timestamp"`
}

type BackupOptions struct {
	BaseURL    string
	ScratchDir string
	Timeout    time.Duration
}

// BackupService snapshots the datastore into a fresh clone of a remote git
// repository and pushes it. Every run adds a new file; nothing is pruned.
type BackupService struct {
	db     *database.DB
	audit  *audit.Log
	logger zerolog.Logger
	opts   BackupOptions
	now    func() time.Time
}

func NewBackupService(db *database.DB, auditLog *audit.Log, logger zerolog.Logger, opts BackupOptions) *BackupService {
	if opts.BaseURL == "" {
		opts.BaseURL = "https://github.com"
	}
	if opts.ScratchDir == "" {
		opts.ScratchDir = filepath.Join(os.TempDir(), "ayaocrm-backup")
	}
	if opts.Timeout <= 0 {
		opts.Timeout = 2 * time.Minute
	}
	return &BackupService{
		db:     db,
		audit:  auditLog,
		logger: logger,
		opts:   opts,
		now:    func() time.Time { return time.Now().UTC() },
	}
}

// WithClock overrides the time source. Used by tests.
func (s *BackupService) WithClock(now func() time.Time) *BackupService {
	s.now = now
	return s
}

// BackupToRemote makes a single attempt. Failures of the git steps wrap
// models.ErrExternalService, a blown deadline wraps models.ErrTimeout.
func (s *BackupService) BackupToRemote(ctx context.Context, actor models.Actor, creds Credentials) (*BackupResult, error) {
	if err := models.RequireAdmin(actor); err != nil {
		return nil, err
	}
	if creds.Token == "" || creds.Repo == "" || creds.Username == "" {
		metrics.BackupsTotal.WithLabelValues("rejected").Inc()
		return nil, ErrMissingCredentials
	}
	if _, err := os.Stat(s.db.Path); err != nil {
		metrics.BackupsTotal.WithLabelValues("rejected").Inc()
		return nil, ErrDatastoreMissing
	}

	ctx, cancel := context.WithTimeout(ctx, s.opts.Timeout)
	defer cancel()

	timer := prometheus.NewTimer(metrics.BackupDuration)
	result, err := s.run(ctx, actor, creds)
	timer.ObserveDuration()
	if err != nil {
		if errors.Is(ctx.Err(), context.DeadlineExceeded) {
			metrics.BackupsTotal.WithLabelValues("timeout").Inc()
			return nil, fmt.Errorf("%w: backup exceeded %s: %v", models.ErrTimeout, s.opts.Timeout, err)
		}
		metrics.BackupsTotal.WithLabelValues("failed").Inc()
		s.logger.Error().Err(err).Str("repo", creds.Repo).Msg("backup failed")
		return nil, fmt.Errorf("%w: %v", models.ErrExternalService, err)
	}

	metrics.BackupsTotal.WithLabelValues("ok").Inc()
	s.logger.Info().Str("file", result.File).Str("commit", result.Commit).Msg("backup pushed")
	s.audit.Append(ctx, audit.Entry{
		Actor: actor.Name(), Action: "backup", Table: "customers", TargetID: result.File,
		Details: map[string]string{"file": result.File, "commit": result.Commit, "repo": creds.Repo},
	})
	return result, nil
}

func (s *BackupService) run(ctx context.Context, actor models.Actor, creds Credentials) (*BackupResult, error) {
	remote := s.remoteURL(creds.Repo)
	auth := authFor(remote, creds)

	if err := os.MkdirAll(s.opts.ScratchDir, 0755); err != nil {
		return nil, fmt.Errorf("prepare scratch dir: %w", err)
	}
	// Each run owns its workspace so concurrent backups never share a clone.
	scratch, err := os.MkdirTemp(s.opts.ScratchDir, "run-*")
	if err != nil {
		return nil, fmt.Errorf("create scratch workspace: %w", err)
	}
	defer os.RemoveAll(scratch)

	repo, err := s.cloneFresh(ctx, scratch, remote, auth)
	if err != nil {
		return nil, err
	}

	now := s.now()
	stamp := now.Format("20060102_150405")
	rel := filepath.ToSlash(filepath.Join("backups", "customers_"+stamp+".db"))
	dst := filepath.Join(scratch, filepath.FromSlash(rel))
	if err := os.MkdirAll(filepath.Dir(dst), 0755); err != nil {
		return nil, fmt.Errorf("prepare backups dir: %w", err)
	}

	// VACUUM INTO yields a consistent copy even with WAL pages outstanding.
	if _, err := s.db.ExecContext(ctx, "VACUUM INTO ?", dst); err != nil {
		return nil, fmt.Errorf("snapshot datastore: %w", err)
	}

	wt, err := repo.Worktree()
	if err != nil {
		return nil, fmt.Errorf("open worktree: %w", err)
	}
	if _, err := wt.Add(rel); err != nil {
		return nil, fmt.Errorf("stage snapshot: %w", err)
	}

	hash, err := wt.Commit(fmt.Sprintf("backup db %s by %s", stamp, actor.Name()), &git.CommitOptions{
		Author: &object.Signature{
			Name:  actor.Name(),
			Email: creds.Username + "@users.noreply.github.com",
			When:  now,
		},
	})
	if err != nil {
		return nil, fmt.Errorf("commit snapshot: %w", err)
	}

	if err := repo.PushContext(ctx, &git.PushOptions{RemoteName: "origin", Auth: auth}); err != nil {
		return nil, fmt.Errorf("push: %w", err)
	}

	return &BackupResult{File: rel, Commit: hash.String(), Timestamp: now}, nil
}

// cloneFresh clones into the empty dir. An empty remote is initialised
// locally so the first backup can create its default branch.
func (s *BackupService) cloneFresh(ctx context.Context, dir, remote string, auth transport.AuthMethod) (*git.Repository, error) {
	repo, err := git.PlainCloneContext(ctx, dir, false, &git.CloneOptions{URL: remote, Auth: auth})
	if err == nil {
		return repo, nil
	}
	if !errors.Is(err, transport.ErrEmptyRemoteRepository) {
		return nil, fmt.Errorf("clone: %w", err)
	}

	if err := os.RemoveAll(dir); err != nil {
		return nil, fmt.Errorf("clear scratch dir: %w", err)
	}
	repo, err = git.PlainInit(dir, false)
	if err != nil {
		return nil, fmt.Errorf("init scratch repo: %w", err)
	}
	if _, err := repo.CreateRemote(&config.RemoteConfig{Name: "origin", URLs: []string{remote}}); err != nil {
		return nil, fmt.Errorf("add origin: %w", err)
	}
	return repo, nil
}

// remoteURL expands "owner/name" against the base URL. Full URLs and
// absolute paths are used as given.
func (s *BackupService) remoteURL(repo string) string {
	if strings.Contains(repo, "://") || filepath.IsAbs(repo) {
		return repo
	}
	return strings.TrimRight(s.opts.BaseURL, "/") + "/" + strings.Trim(repo, "/") + ".git"
}

func authFor(remote string, creds Credentials) transport.AuthMethod {
	if !strings.HasPrefix(remote, "http://") && !strings.HasPrefix(remote, "https://") {
		return nil
	}
	return &githttp.BasicAuth{Username: creds.Username, Password: creds.Token}
}
