package service

import (
	"context"
	"log/slog"
	"sync"
	"time"

	"github.com/blabladev/devhub/internal/github"
)

// defaultBranch is the branch protection is applied to. Imported histories
// arrive with their upstream default branch, which is "master" across the
// template repositories.
const defaultBranch = "master"

// protectionPolicy is the fixed rule set applied to every provisioned
// repository: pull-request reviews with code-owner approval, stale reviews
// dismissed, one approving review, and explicit nulls for status checks,
// admin enforcement and push restrictions.
var protectionPolicy = github.ProtectionRules{
	RequiredPullRequestReviews: &github.ReviewRequirements{
		RequireCodeOwnerReviews:      true,
		DismissStaleReviews:          true,
		RequiredApprovingReviewCount: 1,
	},
}

// WatchRegistry supervises the branch protection watchers: one background
// goroutine per provisioned repository, polling the host's import status
// until it reports complete, then applying the protection policy exactly
// once.
//
// Watches live only in memory. On process shutdown Close cancels them all
// and in-flight watches are lost — they are not resumed on restart, so a
// repository whose import finishes while the service is down stays
// unprotected until an operator intervenes.
type WatchRegistry struct {
	host     ImportHost
	owner    string // hosting account login
	interval time.Duration
	maxPolls int // 0 means poll forever
	logger   *slog.Logger

	mu      sync.Mutex
	watches map[string]*watchHandle
	closed  bool
	wg      sync.WaitGroup
}

// watchHandle identifies one watcher goroutine. remove compares handles so
// a replaced watcher cannot tear down its successor's registration.
type watchHandle struct {
	cancel context.CancelFunc
}

// NewWatchRegistry creates a registry polling every interval, giving up on a
// watch after maxPolls polls (maxPolls <= 0 polls forever).
func NewWatchRegistry(host ImportHost, owner string, interval time.Duration, maxPolls int, logger *slog.Logger) *WatchRegistry {
	return &WatchRegistry{
		host:     host,
		owner:    owner,
		interval: interval,
		maxPolls: maxPolls,
		logger:   logger,
		watches:  make(map[string]*watchHandle),
	}
}

// Watch starts a watcher for repo. A second Watch for the same repo replaces
// the first. Calls after Close are ignored.
func (r *WatchRegistry) Watch(repo string) {
	r.mu.Lock()
	defer r.mu.Unlock()

	if r.closed {
		return
	}
	if old, ok := r.watches[repo]; ok {
		old.cancel()
	}

	ctx, cancel := context.WithCancel(context.Background())
	h := &watchHandle{cancel: cancel}
	r.watches[repo] = h
	r.wg.Add(1)

	go r.run(ctx, repo, h)
}

// ActiveWatches reports how many watchers are currently registered.
func (r *WatchRegistry) ActiveWatches() int {
	r.mu.Lock()
	defer r.mu.Unlock()
	return len(r.watches)
}

// Close cancels every watcher and waits for them to exit. The registry
// accepts no new watches afterwards.
func (r *WatchRegistry) Close() {
	r.mu.Lock()
	r.closed = true
	for _, h := range r.watches {
		h.cancel()
	}
	r.mu.Unlock()

	r.wg.Wait()
}

// remove drops a finished watcher, unless repo has already been re-watched
// under a newer handle.
func (r *WatchRegistry) remove(repo string, h *watchHandle) {
	r.mu.Lock()
	if current, ok := r.watches[repo]; ok && current == h {
		delete(r.watches, repo)
	}
	r.mu.Unlock()
	h.cancel()
}

// run is the per-repository state machine. It polls the import status on a
// fixed interval; a status other than complete keeps it polling, complete
// triggers the one protection-apply call, and both the apply outcome and
// the poll cap are terminal. Apply failures are logged and swallowed —
// provisioning already answered the caller, so a watcher must never
// propagate anything.
func (r *WatchRegistry) run(ctx context.Context, repo string, h *watchHandle) {
	defer r.wg.Done()
	defer r.remove(repo, h)

	log := r.logger.With(slog.String("repo", repo))

	ticker := time.NewTicker(r.interval)
	defer ticker.Stop()

	for polls := 0; ; {
		select {
		case <-ctx.Done():
			log.Info("watcher cancelled")
			return

		case <-ticker.C:
			polls++

			status, err := r.host.GetImportProgress(ctx, r.owner, repo)
			switch {
			case err != nil:
				// Transient host errors don't end the watch, but they do
				// consume a poll so a dead import can't pin a timer forever.
				log.Warn("watcher: import status check failed",
					slog.String("error", err.Error()),
				)

			case status == github.ImportStatusComplete:
				if err := r.host.UpdateBranchProtection(ctx, r.owner, repo, defaultBranch, protectionPolicy); err != nil {
					log.Error("watcher: branch protection failed, repository left unprotected",
						slog.String("error", err.Error()),
					)
				} else {
					log.Info("watcher: branch protection applied",
						slog.Int("polls", polls),
					)
				}
				return

			default:
				log.Debug("watcher: import still running",
					slog.String("status", status),
					slog.Int("polls", polls),
				)
			}

			if r.maxPolls > 0 && polls >= r.maxPolls {
				log.Warn("watcher: poll cap reached, giving up, repository left unprotected",
					slog.Int("polls", polls),
				)
				return
			}
		}
	}
}
