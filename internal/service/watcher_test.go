package service

import (
	"errors"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/blabladev/devhub/internal/github"
)

const (
	watchTick    = 2 * time.Millisecond
	watchTimeout = 2 * time.Second
)

func newTestRegistry(t *testing.T, host *fakeHost, maxPolls int) *WatchRegistry {
	t.Helper()
	r := NewWatchRegistry(host, "blablaDev-hub", watchTick, maxPolls, testLogger())
	t.Cleanup(r.Close)
	return r
}

// waitDone blocks until the registry has no active watches.
func waitDone(t *testing.T, r *WatchRegistry) {
	t.Helper()
	require.Eventually(t, func() bool { return r.ActiveWatches() == 0 },
		watchTimeout, watchTick, "watcher did not reach a terminal state")
}

func TestWatcherAppliesProtectionOnComplete(t *testing.T) {
	host := newFakeHost()
	host.statuses = []string{"pending", "pending", github.ImportStatusComplete}

	r := newTestRegistry(t, host, 0)
	r.Watch("dev-sample-alice")
	waitDone(t, r)

	// Exactly one protection call, after the third poll.
	assert.Equal(t, []string{"blablaDev-hub/dev-sample-alice@master"}, host.protections())
	assert.Equal(t, 3, host.polls())

	// And no further polls once terminal.
	time.Sleep(10 * watchTick)
	assert.Equal(t, 3, host.polls(), "watcher kept polling after reaching Done")
}

func TestWatcherApplyFailureIsTerminal(t *testing.T) {
	host := newFakeHost()
	host.statuses = []string{github.ImportStatusComplete}
	host.protectErr = &github.APIError{StatusCode: 403, Method: "PUT", Path: "/protection", Message: "upgrade required"}

	r := newTestRegistry(t, host, 0)
	r.Watch("dev-sample-alice")
	waitDone(t, r)

	// One attempt, swallowed: the watcher stops and nothing propagates.
	assert.Len(t, host.protections(), 1)
	polls := host.polls()
	time.Sleep(10 * watchTick)
	assert.Equal(t, polls, host.polls(), "watcher kept polling after a failed apply")
}

func TestWatcherGivesUpAtPollCap(t *testing.T) {
	host := newFakeHost() // never reports complete

	r := newTestRegistry(t, host, 3)
	r.Watch("dev-sample-alice")
	waitDone(t, r)

	assert.Equal(t, 3, host.polls())
	assert.Empty(t, host.protections(), "protection applied although the import never completed")
}

func TestWatcherStatusErrorsConsumePolls(t *testing.T) {
	host := newFakeHost()
	host.progressErr = errors.New("boom")

	r := newTestRegistry(t, host, 4)
	r.Watch("dev-sample-alice")
	waitDone(t, r)

	// Errors don't end the watch early, but they count against the cap.
	assert.Equal(t, 4, host.polls())
	assert.Empty(t, host.protections())
}

func TestRegistryCloseCancelsWatches(t *testing.T) {
	host := newFakeHost() // never completes
	r := NewWatchRegistry(host, "blablaDev-hub", watchTick, 0, testLogger())

	r.Watch("dev-sample-alice")
	r.Watch("dev-tasks-bob")
	assert.Equal(t, 2, r.ActiveWatches())

	done := make(chan struct{})
	go func() {
		r.Close()
		close(done)
	}()

	select {
	case <-done:
	case <-time.After(watchTimeout):
		t.Fatal("Close did not return")
	}
	assert.Equal(t, 0, r.ActiveWatches())

	// Closed registry ignores new watches.
	r.Watch("dev-late-carol")
	assert.Equal(t, 0, r.ActiveWatches())
}

func TestWatchReplacesExistingWatchForSameRepo(t *testing.T) {
	host := newFakeHost()
	host.statuses = []string{"pending", "pending", "pending", github.ImportStatusComplete}

	r := newTestRegistry(t, host, 0)
	r.Watch("dev-sample-alice")
	r.Watch("dev-sample-alice")
	assert.Equal(t, 1, r.ActiveWatches())

	waitDone(t, r)
	assert.Len(t, host.protections(), 1)
}
