package ingest

import (
	"context"
	"database/sql"
	"fmt"
	"time"

	_ "modernc.org/sqlite"
)

// Chrome stores visit times as microseconds since 1601-01-01 UTC.
var chromeEpoch = time.Date(1601, time.January, 1, 0, 0, 0, 0, time.UTC)

// Visit is one row extracted from the browser history database.
type Visit struct {
	URL       string
	Title     string
	VisitedAt time.Time
}

// TimeFromChrome converts a Chrome timestamp to a time.Time.
func TimeFromChrome(chromeTime int64) time.Time {
	return chromeEpoch.Add(time.Duration(chromeTime) * time.Microsecond)
}

// ChromeFromTime converts a time.Time to a Chrome timestamp.
func ChromeFromTime(t time.Time) int64 {
	return t.Sub(chromeEpoch).Microseconds()
}

// ReadHistory extracts URL visits from a copy of the Chrome History SQLite
// database, most recent first. The caller must pass a copy: Chrome keeps
// the live file locked.
func ReadHistory(ctx context.Context, dbPath string, start, end time.Time) ([]Visit, error) {
	db, err := sql.Open("sqlite", dbPath+"?mode=ro")
	if err != nil {
		return nil, fmt.Errorf("open history database: %w", err)
	}
	defer db.Close()

	rows, err := db.QueryContext(ctx, `
		SELECT url, title, last_visit_time
		FROM urls
		WHERE last_visit_time BETWEEN ? AND ?
		ORDER BY last_visit_time DESC`,
		ChromeFromTime(start), ChromeFromTime(end))
	if err != nil {
		return nil, fmt.Errorf("query history: %w", err)
	}
	defer rows.Close()

	var visits []Visit
	for rows.Next() {
		var (
			rawURL     string
			title      sql.NullString
			chromeTime int64
		)
		if err := rows.Scan(&rawURL, &title, &chromeTime); err != nil {
			return nil, fmt.Errorf("scan history row: %w", err)
		}
		visits = append(visits, Visit{
			URL:       rawURL,
			Title:     title.String,
			VisitedAt: TimeFromChrome(chromeTime),
		})
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("read history rows: %w", err)
	}
	return visits, nil
}
