package agent

import (
	"fmt"
	"net/url"
	"sort"
	"strings"

	"webmemory/internal/domain"
)

// DomainOf extracts the host component of a source URL. The second return
// value reports whether a host was actually parsed; on malformed input the
// raw string is returned as a fallback so callers can still group by it.
func DomainOf(source string) (string, bool) {
	u, err := url.Parse(source)
	if err != nil || u.Host == "" {
		return source, false
	}
	return u.Host, true
}

// FormatRecords converts retrieved records into a single context block for
// the model, with the visit date placed before the content of each document
// so the model can reason temporally. It also returns the sorted set of
// distinct source domains; the "No Source" sentinel is excluded from it.
func FormatRecords(records []domain.Record) (string, []string) {
	if len(records) == 0 {
		return "No documents retrieved.", nil
	}

	seen := make(map[string]struct{})
	var domains []string
	blocks := make([]string, 0, len(records))

	for i, rec := range records {
		title := rec.Title
		if title == "" {
			title = fmt.Sprintf("Document %d", i+1)
		}
		source := rec.Source
		if source == "" {
			source = domain.NoSource
		}
		date := rec.Date
		if date == "" {
			date = domain.NoDate
		}

		host, _ := DomainOf(source)
		if host != "" && host != domain.NoSource {
			if _, ok := seen[host]; !ok {
				seen[host] = struct{}{}
				domains = append(domains, host)
			}
		}

		blocks = append(blocks, fmt.Sprintf(
			"DOCUMENT %d (DATE: %s)\nTITLE: %s\nSOURCE DOMAIN: %s\nCONTENT: %s",
			i+1, date, title, host, rec.Content))
	}

	sort.Strings(domains)

	var b strings.Builder
	b.WriteString("RETRIEVED DOCUMENTS (sorted by relevance):\n")
	b.WriteString(strings.Join(blocks, "\n\n---\n\n"))
	b.WriteString("\n\nDOMAINS FOUND: ")
	b.WriteString(strings.Join(domains, ", "))
	return b.String(), domains
}
