package storage

import (
	"bytes"
	"context"
	"fmt"
	"math/rand"
	"os"
	"sort"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/runnerr0/archistory/internal/snapshot"
	"github.com/runnerr0/archistory/internal/storage/historytest"
)

// newSearchFixture returns a searcher whose snapshots live in a temp
// directory managed by a snapshot.Manager.
func newSearchFixture(t *testing.T) (*Searcher, *snapshot.Manager) {
	t.Helper()
	m := snapshot.New(t.TempDir(), nil, nil)
	s := NewSearcher(m, newTestExecutor(), SearcherOptions{Parallelism: 2})
	return s, m
}

func writeProfile(t *testing.T, m *snapshot.Manager, profile string, visits ...historytest.Visit) {
	t.Helper()
	historytest.MustWrite(t, m.Path(profile), visits...)
}

// seedScenario writes profile A (Jan 1, Feb 1) and profile B (Jan 15, Feb 15).
func seedScenario(t *testing.T, m *snapshot.Manager) {
	t.Helper()
	writeProfile(t, m, "A",
		historytest.Visit{URL: "https://a.example/jan", Title: historytest.Title("A Jan"), Time: localTime(2024, 1, 1, 10, 0, 0)},
		historytest.Visit{URL: "https://a.example/feb", Title: historytest.Title("A Feb"), Time: localTime(2024, 2, 1, 14, 0, 0)},
	)
	writeProfile(t, m, "B",
		historytest.Visit{URL: "https://b.example/jan", Title: historytest.Title("B Jan"), Time: localTime(2024, 1, 15, 12, 0, 0)},
		historytest.Visit{URL: "https://b.example/feb", Title: historytest.Title("B Feb"), Time: localTime(2024, 2, 15, 16, 0, 0)},
	)
}

func TestSearch_MergesProfilesByTime(t *testing.T) {
	s, m := newSearchFixture(t)
	seedScenario(t, m)

	page := s.Search(context.Background(), Filter{Profiles: []string{"A", "B"}, Page: 1, PerPage: 2})

	assert.Equal(t, 4, page.TotalCount)
	assert.Equal(t, 2, page.TotalPages)
	assert.Equal(t, 1, page.Page)
	assert.Equal(t, 2, page.PerPage)
	require.Len(t, page.Records, 2)
	assert.True(t, page.Records[0].VisitTime.Equal(localTime(2024, 2, 15, 16, 0, 0)))
	assert.Equal(t, "B", page.Records[0].Profile)
	assert.True(t, page.Records[1].VisitTime.Equal(localTime(2024, 2, 1, 14, 0, 0)))
	assert.Equal(t, "A", page.Records[1].Profile)
}

func TestSearch_SecondPageOfMerge(t *testing.T) {
	s, m := newSearchFixture(t)
	seedScenario(t, m)

	page := s.Search(context.Background(), Filter{Profiles: []string{"A", "B"}, Page: 2, PerPage: 2})

	assert.Equal(t, 4, page.TotalCount)
	require.Len(t, page.Records, 2)
	assert.Equal(t, "B Jan", page.Records[0].Title)
	assert.Equal(t, "A Jan", page.Records[1].Title)
}

func TestSearch_PageBeyondResultsIsEmpty(t *testing.T) {
	s, m := newSearchFixture(t)
	seedScenario(t, m)

	page := s.Search(context.Background(), Filter{Profiles: []string{"A", "B"}, Page: 5, PerPage: 2})
	assert.Equal(t, 4, page.TotalCount)
	assert.NotNil(t, page.Records)
	assert.Empty(t, page.Records)
}

func TestSearch_UnaddressablePageIsEmptyWithRealTotal(t *testing.T) {
	s, m := newSearchFixture(t)
	seedScenario(t, m)

	for _, profiles := range [][]string{{"A", "B"}, {"A"}} {
		page := s.Search(context.Background(), Filter{Profiles: profiles, Page: 300000000000000000, PerPage: 50})
		assert.Equal(t, 2*len(profiles), page.TotalCount, profiles)
		assert.NotNil(t, page.Records, profiles)
		assert.Empty(t, page.Records, profiles)
		assert.Equal(t, 300000000000000000, page.Page, profiles)
	}
}

func TestSearch_KeywordAcrossProfiles(t *testing.T) {
	s, m := newSearchFixture(t)
	seedScenario(t, m)
	writeProfile(t, m, "C",
		historytest.Visit{URL: "https://GitHub.com/runnerr0", Title: historytest.Title("repos"), Time: localTime(2024, 3, 1, 9, 0, 0)},
	)

	page := s.Search(context.Background(), Filter{Keyword: "github", Profiles: []string{"A", "B", "C"}})
	assert.Equal(t, 1, page.TotalCount)
	require.Len(t, page.Records, 1)
	assert.Equal(t, "https://GitHub.com/runnerr0", page.Records[0].URL)
}

func TestSearch_DateRange(t *testing.T) {
	s, m := newSearchFixture(t)
	seedScenario(t, m)

	page := s.Search(context.Background(), Filter{
		StartDate: localTime(2024, 2, 1, 0, 0, 0),
		EndDate:   localTime(2024, 2, 28, 0, 0, 0),
		Profiles:  []string{"A", "B"},
	})

	assert.Equal(t, 2, page.TotalCount)
	require.Len(t, page.Records, 2)
	assert.Equal(t, "B Feb", page.Records[0].Title)
	assert.Equal(t, "A Feb", page.Records[1].Title)
}

func TestSearch_SingleProfileUsesSQLPagination(t *testing.T) {
	s, m := newSearchFixture(t)
	seedScenario(t, m)

	page := s.Search(context.Background(), Filter{Profiles: []string{"A"}, Page: 2, PerPage: 1})
	assert.Equal(t, 2, page.TotalCount)
	assert.Equal(t, 2, page.TotalPages)
	require.Len(t, page.Records, 1)
	assert.Equal(t, "A Jan", page.Records[0].Title)
}

func TestSearch_NoProfilesResolve(t *testing.T) {
	s, _ := newSearchFixture(t)

	page := s.Search(context.Background(), Filter{Profiles: []string{"default", "profile7"}, Page: 1, PerPage: 50})
	assert.Equal(t, 0, page.TotalCount)
	assert.Equal(t, 0, page.TotalPages)
	assert.NotNil(t, page.Records)
	assert.Empty(t, page.Records)
}

func TestSearch_MissingProfileIsDropped(t *testing.T) {
	s, m := newSearchFixture(t)
	seedScenario(t, m)

	page := s.Search(context.Background(), Filter{Profiles: []string{"A", "missing"}, PerPage: 10})
	assert.Equal(t, 2, page.TotalCount)
	assert.Len(t, page.Records, 2)
}

func TestSearch_CorruptProfileDoesNotAbortOthers(t *testing.T) {
	s, m := newSearchFixture(t)
	seedScenario(t, m)
	require.NoError(t, os.WriteFile(m.Path("broken"), bytes.Repeat([]byte("garbage "), 1024), 0o644))

	page := s.Search(context.Background(), Filter{Profiles: []string{"broken", "A", "B"}, PerPage: 10})
	assert.Equal(t, 4, page.TotalCount)
	assert.Len(t, page.Records, 4)
}

func TestSearch_DuplicateProfilesCountOnce(t *testing.T) {
	s, m := newSearchFixture(t)
	seedScenario(t, m)

	page := s.Search(context.Background(), Filter{Profiles: []string{"A", "A"}, PerPage: 10})
	assert.Equal(t, 2, page.TotalCount)
	assert.Len(t, page.Records, 2)
}

func TestSearch_DefaultsForPageAndPerPage(t *testing.T) {
	s, m := newSearchFixture(t)
	seedScenario(t, m)

	page := s.Search(context.Background(), Filter{Profiles: []string{"A", "B"}, Page: -3})
	assert.Equal(t, 1, page.Page)
	assert.Equal(t, DefaultPerPage, page.PerPage)
	assert.Equal(t, 1, page.TotalPages)
}

func TestSearch_MergeMatchesGlobalSortForAnyDistribution(t *testing.T) {
	rng := rand.New(rand.NewSource(42))
	base := localTime(2023, 1, 1, 0, 0, 0)

	for trial := 0; trial < 5; trial++ {
		s, m := newSearchFixture(t)

		profiles := []string{"p0", "p1", "p2"}
		minutes := rng.Perm(500)[:60]
		var all []VisitRecord
		byProfile := map[string][]historytest.Visit{}

		for i, minute := range minutes {
			profile := profiles[rng.Intn(len(profiles))]
			ts := base.Add(time.Duration(minute) * time.Minute)
			u := fmt.Sprintf("https://example.com/%d/%d", trial, i)
			byProfile[profile] = append(byProfile[profile], historytest.Visit{URL: u, Time: ts})
			all = append(all, VisitRecord{URL: u, VisitTime: ts, Profile: profile})
		}
		for _, p := range profiles {
			writeProfile(t, m, p, byProfile[p]...)
		}

		sort.Slice(all, func(a, b int) bool { return all[a].VisitTime.After(all[b].VisitTime) })

		perPage := 7
		var paged []VisitRecord
		for pageNo := 1; ; pageNo++ {
			page := s.Search(context.Background(), Filter{Profiles: profiles, Page: pageNo, PerPage: perPage})
			require.Equal(t, len(all), page.TotalCount)
			require.Equal(t, TotalPages(len(all), perPage), page.TotalPages)
			require.LessOrEqual(t, len(page.Records), perPage)

			for i := 1; i < len(page.Records); i++ {
				require.False(t, page.Records[i].VisitTime.After(page.Records[i-1].VisitTime))
			}
			if len(page.Records) == 0 {
				break
			}
			paged = append(paged, page.Records...)
		}

		require.Len(t, paged, len(all))
		for i := range all {
			assert.Equal(t, all[i].URL, paged[i].URL, "trial %d position %d", trial, i)
			assert.Equal(t, all[i].Profile, paged[i].Profile)
		}
	}
}

func TestTotalPages(t *testing.T) {
	assert.Equal(t, 0, TotalPages(0, 50))
	assert.Equal(t, 1, TotalPages(1, 50))
	assert.Equal(t, 1, TotalPages(50, 50))
	assert.Equal(t, 2, TotalPages(51, 50))
	assert.Equal(t, 0, TotalPages(10, 0))
}

func TestWindow(t *testing.T) {
	recs := []VisitRecord{{URL: "a"}, {URL: "b"}, {URL: "c"}}
	assert.Equal(t, []VisitRecord{{URL: "b"}, {URL: "c"}}, window(recs, 1, 5))
	assert.Empty(t, window(recs, 3, 5))
	assert.Equal(t, []VisitRecord{{URL: "a"}}, window(recs, 0, 1))
	assert.Empty(t, window(recs, -3, 2))
}
