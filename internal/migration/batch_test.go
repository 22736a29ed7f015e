package migration

import (
	"bytes"
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"strings"
	"testing"

	"github.com/rs/zerolog"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/rflorenc/substrate-reconciler/internal/models"
)

// seedRun stores n instances src-i → dst-i and returns the map and fetcher.
func seedRun(t *testing.T, s *memStore, n int) (*models.IdentityMap, *fakeFetcher) {
	t.Helper()
	f := &fakeFetcher{states: make(map[string]*models.InstanceState), errs: make(map[string]error)}
	var pairs []models.IdentityPair
	for i := 1; i <= n; i++ {
		src, dst := fmt.Sprintf("src-%d", i), fmt.Sprintf("dst-%d", i)
		seedInstance(t, s, src, 2, 1)
		f.states[dst] = destState(t, dst, 2, 1)
		pairs = append(pairs, models.IdentityPair{SourceID: src, DestID: dst})
	}
	return models.NewIdentityMap(pairs...), f
}

func newTestRunner(s *memStore, f Fetcher, ids *models.IdentityMap, batchSize int, dryRun bool, log zerolog.Logger) *Runner {
	rw := NewRewriter(testAccounts, ids, log)
	return NewRunner(s, f, rw, RunnerConfig{BatchSize: batchSize, DryRun: dryRun}, log)
}

func TestRunner_BatchIsolation(t *testing.T) {
	s := newMemStore()
	ids, f := seedRun(t, s, 5)
	f.errs["dst-3"] = errors.New("HTTP 500")

	summary, err := newTestRunner(s, f, ids, 2, false, zerolog.Nop()).Run(context.Background(), ids)
	require.NoError(t, err)

	assert.Equal(t, 5, summary.Processed)
	assert.Equal(t, 4, summary.Updated)
	assert.Equal(t, 1, summary.Failed)
	assert.Equal(t, []string{"src-3"}, summary.FailedInstances)
	assert.Equal(t, 3, summary.Batches)
	assert.Equal(t, 3, s.commits)
	assert.Equal(t, []string{"dst-1", "dst-2", "dst-3", "dst-4", "dst-5"}, f.calls)

	assert.Equal(t, "src-3", loadAs[models.Element](t, s, "element", "elem-src-3").InstanceID)
	assert.Equal(t, "dst-4", loadAs[models.Element](t, s, "element", "elem-src-4").InstanceID)
}

func TestRunner_FailedRewriteRollsBackInstanceOnly(t *testing.T) {
	s := newMemStore()
	ids, f := seedRun(t, s, 3)
	// the element of src-2 is written before the missing group is noticed
	delete(s.tables["group"], "grp-src-2")

	summary, err := newTestRunner(s, f, ids, 10, false, zerolog.Nop()).Run(context.Background(), ids)
	require.NoError(t, err)

	assert.Equal(t, 3, summary.Processed)
	assert.Equal(t, 2, summary.Updated)
	assert.Equal(t, 1, summary.Failed)
	assert.Equal(t, "src-2", loadAs[models.Element](t, s, "element", "elem-src-2").InstanceID, "failed instance is rolled back")
	assert.Equal(t, "dst-1", loadAs[models.Element](t, s, "element", "elem-src-1").InstanceID)
	assert.Equal(t, "dst-3", loadAs[models.Element](t, s, "element", "elem-src-3").InstanceID)
}

func TestRunner_PartialCountsAsUpdated(t *testing.T) {
	s := newMemStore()
	ids, f := seedRun(t, s, 2)
	delete(s.tables["application"], "app-src-1")

	summary, err := newTestRunner(s, f, ids, 10, false, zerolog.Nop()).Run(context.Background(), ids)
	require.NoError(t, err)
	assert.Equal(t, 2, summary.Updated)
	assert.Equal(t, 1, summary.Partial)
	assert.Equal(t, 0, summary.Failed)
}

func TestRunner_CommitFailureRecountsBatch(t *testing.T) {
	s := newMemStore()
	ids, f := seedRun(t, s, 3)
	s.commitErr = errors.New("connection reset")

	summary, err := newTestRunner(s, f, ids, 2, false, zerolog.Nop()).Run(context.Background(), ids)
	require.NoError(t, err)
	assert.Equal(t, 3, summary.Processed)
	assert.Equal(t, 0, summary.Updated)
	assert.Equal(t, 3, summary.Failed)
	assert.ElementsMatch(t, []string{"src-1", "src-2", "src-3"}, summary.FailedInstances)
}

func TestRunner_Cancelled(t *testing.T) {
	s := newMemStore()
	ids, f := seedRun(t, s, 3)
	ctx, cancel := context.WithCancel(context.Background())
	cancel()

	summary, err := newTestRunner(s, f, ids, 10, false, zerolog.Nop()).Run(ctx, ids)
	assert.ErrorIs(t, err, context.Canceled)
	require.NotNil(t, summary)
	assert.Equal(t, 0, summary.Processed)
	assert.Equal(t, 0, s.commits)
}

// dryRunWrites extracts kind:id of every write the dry-run writer reported.
func dryRunWrites(t *testing.T, logs string) []string {
	t.Helper()
	var out []string
	for _, line := range strings.Split(strings.TrimSpace(logs), "\n") {
		var ev map[string]any
		require.NoError(t, json.Unmarshal([]byte(line), &ev))
		if ev["dry_run"] == true && ev["kind"] != nil {
			out = append(out, fmt.Sprintf("%s:%s", ev["kind"], ev["id"]))
		}
	}
	return out
}

func TestRunner_DryRunMatchesLiveDecisions(t *testing.T) {
	setup := func() (*memStore, *models.IdentityMap, *fakeFetcher) {
		s := newMemStore()
		ids, f := seedRun(t, s, 4)
		f.errs["dst-2"] = errors.New("timeout")
		delete(s.tables["application"], "app-src-3")
		delete(s.tables["config"], "cfg-src-4")
		return s, ids, f
	}

	live, liveIDs, liveFetch := setup()
	liveSummary, err := newTestRunner(live, liveFetch, liveIDs, 3, false, zerolog.Nop()).Run(context.Background(), liveIDs)
	require.NoError(t, err)

	dry, dryIDs, dryFetch := setup()
	before := dry.snapshot()
	var logs bytes.Buffer
	drySummary, err := newTestRunner(dry, dryFetch, dryIDs, 3, true, zerolog.New(&logs)).Run(context.Background(), dryIDs)
	require.NoError(t, err)

	assert.Equal(t, before, dry.snapshot(), "dry run must not change the store")
	assert.Empty(t, dry.saves)
	assert.Equal(t, 0, dry.commits)

	assert.Equal(t, liveSummary.Processed, drySummary.Processed)
	assert.Equal(t, liveSummary.Updated, drySummary.Updated)
	assert.Equal(t, liveSummary.Failed, drySummary.Failed)
	assert.Equal(t, liveSummary.Partial, drySummary.Partial)
	assert.Equal(t, liveSummary.FailedInstances, drySummary.FailedInstances)
	assert.Equal(t, liveFetch.calls, dryFetch.calls)
	assert.Equal(t, live.saves, dryRunWrites(t, logs.String()))
	assert.True(t, drySummary.DryRun)
}
