package ingest

import (
	"context"
	"database/sql"
	"path/filepath"
	"testing"
	"time"

	"github.com/stretchr/testify/require"
)

func TestChromeTimeRoundTrip(t *testing.T) {
	ts := time.Date(2024, time.March, 15, 10, 30, 0, 0, time.UTC)
	require.Equal(t, ts, TimeFromChrome(ChromeFromTime(ts)))
}

func TestChromeTimeKnownValue(t *testing.T) {
	// The Unix epoch in Chrome's 1601-based microsecond clock.
	require.Equal(t, int64(11644473600000000), ChromeFromTime(time.Unix(0, 0).UTC()))
}

func seedHistoryDB(t *testing.T, visits []Visit) string {
	t.Helper()
	path := filepath.Join(t.TempDir(), "History")
	db, err := sql.Open("sqlite", path)
	require.NoError(t, err)
	defer db.Close()

	_, err = db.Exec(`CREATE TABLE urls (
		id INTEGER PRIMARY KEY,
		url TEXT,
		title TEXT,
		last_visit_time INTEGER
	)`)
	require.NoError(t, err)
	for _, v := range visits {
		_, err = db.Exec(`INSERT INTO urls (url, title, last_visit_time) VALUES (?, ?, ?)`,
			v.URL, v.Title, ChromeFromTime(v.VisitedAt))
		require.NoError(t, err)
	}
	return path
}

func TestReadHistoryFiltersAndOrders(t *testing.T) {
	day := func(d int) time.Time {
		return time.Date(2024, time.June, d, 12, 0, 0, 0, time.UTC)
	}
	path := seedHistoryDB(t, []Visit{
		{URL: "https://a.example.com", Title: "A", VisitedAt: day(1)},
		{URL: "https://b.example.com", Title: "B", VisitedAt: day(10)},
		{URL: "https://c.example.com", Title: "C", VisitedAt: day(20)},
	})

	visits, err := ReadHistory(context.Background(), path, day(5), day(15))
	require.NoError(t, err)
	require.Len(t, visits, 1)
	require.Equal(t, "https://b.example.com", visits[0].URL)
	require.Equal(t, "B", visits[0].Title)
	require.Equal(t, day(10), visits[0].VisitedAt.UTC())

	all, err := ReadHistory(context.Background(), path, day(1), day(30))
	require.NoError(t, err)
	require.Len(t, all, 3)
	// Most recent first.
	require.Equal(t, "C", all[0].Title)
	require.Equal(t, "A", all[2].Title)
}

func TestReadHistoryNullTitle(t *testing.T) {
	path := filepath.Join(t.TempDir(), "History")
	db, err := sql.Open("sqlite", path)
	require.NoError(t, err)
	_, err = db.Exec(`CREATE TABLE urls (url TEXT, title TEXT, last_visit_time INTEGER)`)
	require.NoError(t, err)
	_, err = db.Exec(`INSERT INTO urls (url, title, last_visit_time) VALUES (?, NULL, ?)`,
		"https://x.example.com", ChromeFromTime(time.Date(2024, 6, 1, 0, 0, 0, 0, time.UTC)))
	require.NoError(t, err)
	require.NoError(t, db.Close())

	visits, err := ReadHistory(context.Background(), path,
		time.Date(2024, 5, 1, 0, 0, 0, 0, time.UTC),
		time.Date(2024, 7, 1, 0, 0, 0, 0, time.UTC))
	require.NoError(t, err)
	require.Len(t, visits, 1)
	require.Empty(t, visits[0].Title)
}
