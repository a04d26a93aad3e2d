package tui

import (
	"fmt"
	"strings"
	"time"

	"github.com/jblairy/techwatch/internal/record"
)

type rowKind int

const (
	rowHeader rowKind = iota
	rowRecord
)

// row is one display line group in the article list: either an origin
// header or a record under the preceding header.
type row struct {
	kind   rowKind
	origin string
	rec    record.Record
}

// appendGroup extends rows with one presented group, inserting a header
// only when the origin changes. Chunked delivery presents the same
// origin across consecutive messages; those merge under one header.
func appendGroup(rows []row, origin string, records []record.Record) []row {
	last := ""
	for i := len(rows) - 1; i >= 0; i-- {
		if rows[i].kind == rowHeader {
			last = rows[i].origin
			break
		}
	}
	if last != origin {
		rows = append(rows, row{kind: rowHeader, origin: origin})
	}
	for _, r := range records {
		rows = append(rows, row{kind: rowRecord, origin: origin, rec: r})
	}
	return rows
}

// nextRecord returns the index of the nearest record row starting at
// from and stepping by dir, or -1 when none exists.
func nextRecord(rows []row, from, dir int) int {
	for i := from; i >= 0 && i < len(rows); i += dir {
		if rows[i].kind == rowRecord {
			return i
		}
	}
	return -1
}

// firstRecord returns the index of the first record row, or -1.
func firstRecord(rows []row) int {
	return nextRecord(rows, 0, 1)
}

func recordCount(rows []row) int {
	n := 0
	for _, r := range rows {
		if r.kind == rowRecord {
			n++
		}
	}
	return n
}

func relativeDate(t time.Time, now time.Time) string {
	if t.IsZero() {
		return "undated"
	}
	days := int(now.Sub(t).Hours() / 24)
	switch {
	case days <= 0:
		return "today"
	case days == 1:
		return "yesterday"
	case days < 7:
		return fmt.Sprintf("%dd", days)
	default:
		return t.Format("Jan 2")
	}
}

func truncateStr(s string, n int) string {
	if n <= 0 {
		return ""
	}
	runes := []rune(s)
	if len(runes) <= n {
		return s
	}
	if n <= 3 {
		return string(runes[:n])
	}
	return string(runes[:n-3]) + "..."
}

func renderRow(r row, selected bool, width int, now time.Time) string {
	if width < 10 {
		width = 30
	}
	if r.kind == rowHeader {
		return originHeaderStyle.Render("▸ " + r.origin)
	}
	prefix := "  "
	style := itemTitleStyle
	if selected {
		prefix = "> "
		style = itemSelectedStyle
	}
	title := style.Render(prefix + truncateStr(r.rec.Title, width-4))
	meta := "  " + itemTimeStyle.Render(relativeDate(r.rec.Date, now))
	return title + " " + meta
}

func renderList(rows []row, cursor, height, width int, now time.Time) string {
	if len(rows) == 0 {
		return centerText("No articles found", width, height)
	}

	visible := height
	if visible < 1 {
		visible = 1
	}

	start := 0
	if cursor >= visible {
		start = cursor - visible + 1
	}
	end := start + visible
	if end > len(rows) {
		end = len(rows)
		start = end - visible
		if start < 0 {
			start = 0
		}
	}

	var b strings.Builder
	for i := start; i < end; i++ {
		b.WriteString(renderRow(rows[i], i == cursor, width, now))
		if i < end-1 {
			b.WriteString("\n")
		}
	}
	return b.String()
}

func centerText(s string, width, height int) string {
	pad := (width - len(s)) / 2
	if pad < 0 {
		pad = 0
	}
	return strings.Repeat("\n", height/3) + strings.Repeat(" ", pad) + s
}
