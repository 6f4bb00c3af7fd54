package assets

import (
	"context"
	"errors"
	"sync"
	"testing"
	"time"

	"github.com/google/go-cmp/cmp"
	"github.com/google/go-cmp/cmp/cmpopts"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestFilename(t *testing.T) {
	tests := []struct {
		name    string
		asset   string
		version int
		ext     string
		want    string
	}{
		{"default ext", "kitchen_renovation", 1, "", "kitchen_renovation_v1.png"},
		{"explicit ext", "kitchen_renovation", 12, "jpg", "kitchen_renovation_v12.jpg"},
		{"dotted ext", "bath", 3, ".webp", "bath_v3.webp"},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			assert.Equal(t, tt.want, Filename(tt.asset, tt.version, tt.ext))
			// Pure: same inputs, same output.
			assert.Equal(t, Filename(tt.asset, tt.version, tt.ext), Filename(tt.asset, tt.version, tt.ext))
		})
	}
}

func TestKitchenScenario(t *testing.T) {
	s := NewVersionStore()
	name := "kitchen_renovation"

	assert.Equal(t, 1, s.NextVersion(name))
	require.NoError(t, s.Commit(name, 1, "kitchen_renovation_v1.png"))
	assert.Equal(t, 2, s.NextVersion(name))
	require.NoError(t, s.Commit(name, 2, "kitchen_renovation_v2.png"))

	latest, ok := s.Latest(name)
	require.True(t, ok)
	assert.Equal(t, 2, latest.Number)
	assert.Equal(t, "kitchen_renovation_v2.png", latest.Filename)

	assert.Equal(t, map[string]Summary{
		name: {Count: 2, LatestVersion: 2, LatestFilename: "kitchen_renovation_v2.png"},
	}, s.ListAll())
}

func TestCommit_RejectsGapsAndReuse(t *testing.T) {
	s := NewVersionStore()
	require.NoError(t, s.Commit("a", 1, "a_v1.png"))

	err := s.Commit("a", 3, "a_v3.png")
	assert.True(t, errors.Is(err, ErrNonContiguousVersion))

	err = s.Commit("a", 1, "a_v1_again.png")
	assert.True(t, errors.Is(err, ErrNonContiguousVersion))

	err = s.Commit("b", 1, "a_v1.png")
	assert.True(t, errors.Is(err, ErrDuplicateFilename))

	err = s.Commit("", 1, "x.png")
	assert.True(t, errors.Is(err, ErrInvalidAssetName))

	assert.Len(t, s.History("a"), 1)
	_, ok := s.Latest("b")
	assert.False(t, ok)
}

func TestHistoryIsContiguous(t *testing.T) {
	s := NewVersionStore()
	ctx := context.Background()
	for i := 0; i < 5; i++ {
		_, err := s.Append(ctx, "living", "")
		require.NoError(t, err)
	}

	h := s.History("living")
	require.Len(t, h, 5)
	for i, v := range h {
		assert.Equal(t, i+1, v.Number)
		assert.Equal(t, Filename("living", i+1, ""), v.Filename)
	}

	latest, _ := s.Latest("living")
	assert.Equal(t, h[len(h)-1], latest)
}

func TestNamesKeepCreationOrder(t *testing.T) {
	s := NewVersionStore()
	ctx := context.Background()
	for _, n := range []string{"zeta", "alpha", "zeta", "mid"} {
		_, err := s.Append(ctx, n, "")
		require.NoError(t, err)
	}
	assert.Equal(t, []string{"zeta", "alpha", "mid"}, s.Names())
	assert.Equal(t, 3, s.Len())

	owner, ok := s.OwnerOf("zeta_v2.png")
	require.True(t, ok)
	assert.Equal(t, "zeta", owner)
}

func TestConcurrentFirstCommits(t *testing.T) {
	s := NewVersionStore()
	ctx := context.Background()

	const n = 2
	var wg sync.WaitGroup
	results := make(chan Version, n)
	for i := 0; i < n; i++ {
		wg.Add(1)
		go func() {
			defer wg.Done()
			v, err := s.Append(ctx, "new_asset", "")
			assert.NoError(t, err)
			results <- v
		}()
	}
	wg.Wait()
	close(results)

	got := map[int]string{}
	for v := range results {
		got[v.Number] = v.Filename
	}
	assert.Equal(t, map[int]string{1: "new_asset_v1.png", 2: "new_asset_v2.png"}, got)
}

func TestReservation_SerializesAndReleases(t *testing.T) {
	s := NewVersionStore()
	ctx := context.Background()

	first, err := s.Reserve(ctx, "bath", "")
	require.NoError(t, err)
	assert.Equal(t, 1, first.Version)

	// A second reservation blocks while the first is held.
	blocked, cancel := context.WithTimeout(ctx, 20*time.Millisecond)
	defer cancel()
	_, err = s.Reserve(blocked, "bath", "")
	assert.ErrorIs(t, err, context.DeadlineExceeded)

	// Releasing leaves history untouched.
	first.Release()
	assert.Equal(t, 1, s.NextVersion("bath"))
	assert.Empty(t, s.History("bath"))

	second, err := s.Reserve(ctx, "bath", "jpg")
	require.NoError(t, err)
	assert.Equal(t, "bath_v1.jpg", second.Filename)
	require.NoError(t, second.Commit())
	second.Release() // no-op after commit
	assert.Error(t, second.Commit())

	third, err := s.Reserve(ctx, "bath", "")
	require.NoError(t, err)
	assert.Equal(t, 2, third.Version)
	third.Release()
}

func TestReservation_OtherAssetsNotBlocked(t *testing.T) {
	s := NewVersionStore()
	ctx, cancel := context.WithTimeout(context.Background(), time.Second)
	defer cancel()

	held, err := s.Reserve(ctx, "kitchen", "")
	require.NoError(t, err)
	defer held.Release()

	v, err := s.Append(ctx, "bedroom", "")
	require.NoError(t, err)
	assert.Equal(t, 1, v.Number)
}

func TestSnapshotRestore(t *testing.T) {
	s := NewVersionStore()
	ctx := context.Background()
	for _, n := range []string{"kitchen", "bath", "kitchen"} {
		_, err := s.Append(ctx, n, "")
		require.NoError(t, err)
	}

	snap := s.Snapshot()
	restored := NewVersionStore()
	require.NoError(t, restored.Restore(snap))

	if diff := cmp.Diff(s.ListAll(), restored.ListAll()); diff != "" {
		t.Errorf("ListAll mismatch (-want +got):\n%s", diff)
	}
	if diff := cmp.Diff(s.History("kitchen"), restored.History("kitchen"), cmpopts.EquateApproxTime(0)); diff != "" {
		t.Errorf("History mismatch (-want +got):\n%s", diff)
	}
	assert.Equal(t, []string{"kitchen", "bath"}, restored.Names())
	assert.Equal(t, 3, restored.NextVersion("kitchen"))
}

func TestRestore_Validates(t *testing.T) {
	tests := []struct {
		name string
		snap Snapshot
		want error
	}{
		{
			name: "gap",
			snap: Snapshot{History: map[string][]Version{"a": {{Number: 1, Filename: "a_v1.png"}, {Number: 3, Filename: "a_v3.png"}}}},
			want: ErrNonContiguousVersion,
		},
		{
			name: "duplicate filename",
			snap: Snapshot{
				Order: []string{"a", "b"},
				History: map[string][]Version{
					"a": {{Number: 1, Filename: "x.png"}},
					"b": {{Number: 1, Filename: "x.png"}},
				},
			},
			want: ErrDuplicateFilename,
		},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			s := NewVersionStore()
			require.NoError(t, s.Commit("keep", 1, "keep_v1.png"))
			err := s.Restore(tt.snap)
			assert.ErrorIs(t, err, tt.want)
			// Failed restore leaves the store as it was.
			assert.Equal(t, []string{"keep"}, s.Names())
		})
	}
}

func TestDescribe(t *testing.T) {
	s := NewVersionStore()
	assert.Equal(t, "No renovation renderings have been created yet.", s.Describe())

	_, err := s.Append(context.Background(), "kitchen_renovation", "")
	require.NoError(t, err)
	assert.Equal(t,
		"Current renovation renderings:\n  • kitchen_renovation: 1 version(s), latest is v1 (kitchen_renovation_v1.png)",
		s.Describe())
}

func TestLatestOverall(t *testing.T) {
	s := NewVersionStore()
	clock := time.Date(2025, 1, 1, 0, 0, 0, 0, time.UTC)
	s.now = func() time.Time {
		clock = clock.Add(time.Second)
		return clock
	}

	_, _, ok := s.LatestOverall()
	assert.False(t, ok)

	ctx := context.Background()
	_, err := s.Append(ctx, "kitchen", "")
	require.NoError(t, err)
	_, err = s.Append(ctx, "bath", "")
	require.NoError(t, err)
	_, err = s.Append(ctx, "kitchen", "")
	require.NoError(t, err)

	name, v, ok := s.LatestOverall()
	require.True(t, ok)
	assert.Equal(t, "kitchen", name)
	assert.Equal(t, "kitchen_v2.png", v.Filename)
}
