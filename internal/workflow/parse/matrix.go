package parse

import (
	"fmt"
	"regexp"
	"strconv"
	"strings"

	"github.com/yungbote/trainforge-backend/internal/platform/apierr"
)

type MatrixSession struct {
	Number      int    `json:"number"`
	Title       string `json:"title"`
	Description string `json:"description"`
	Objectives  string `json:"objectives"`
}

type MatrixChapter struct {
	Number      int             `json:"number"`
	Title       string          `json:"title"`
	Description string          `json:"description,omitempty"`
	Sessions    []MatrixSession `json:"sessions"`
}

type Matrix struct {
	Narrative string          `json:"narrative"`
	Table     string          `json:"table"`
	Chapters  []MatrixChapter `json:"chapters"`
}

func (m Matrix) SessionCount() int {
	n := 0
	for _, ch := range m.Chapters {
		n += len(ch.Sessions)
	}
	return n
}

var (
	brRe         = regexp.MustCompile(`(?i)<br\s*/?>`)
	chapterNumRe = regexp.MustCompile(`(?i)^(?:chapter|module)?\s*(\d+)\s*[.):-]?\s*(.*)$`)
	sessionNumRe = regexp.MustCompile(`(?i)^(?:session)?\s*(\d+)\.(\d+)\s*[.):-]?\s*(.*)$`)
	separatorRe  = regexp.MustCompile(`^[\s|:\-]+$`)
)

type matrixColumns struct{ chapter, session, description, objectives int }

// ParseMatrix reads the first pipe table in raw. The chapter cell appears on the first row
// of each chapter; rows with an empty chapter cell belong to the chapter above. A row with
// a chapter cell and no session cell starts a chapter without adding a session.
func ParseMatrix(raw string) (Result[Matrix], error) {
	narrative, rows, table := splitTable(raw)
	if len(rows) < 2 {
		return Result[Matrix]{Kind: RawText, Raw: raw}, apierr.Parse("matrix_parse_failed", fmt.Errorf("no matrix table found"), raw)
	}
	cols := columnsFor(rows[0])

	var m Matrix
	m.Narrative = narrative
	m.Table = table
	var current *MatrixChapter
	for _, cells := range rows[1:] {
		chapterCell := cell(cells, cols.chapter)
		sessionCell := cell(cells, cols.session)

		if chapterCell != "" {
			num, title := splitChapter(chapterCell)
			sameAsCurrent := current != nil &&
				((num > 0 && num == current.Number) || (num == 0 && strings.EqualFold(title, current.Title)))
			if !sameAsCurrent {
				m.Chapters = append(m.Chapters, MatrixChapter{Number: num, Title: title})
				current = &m.Chapters[len(m.Chapters)-1]
			}
			if sessionCell == "" {
				current.Description = cell(cells, cols.description)
				continue
			}
		}
		if sessionCell == "" {
			continue
		}
		if current == nil {
			m.Chapters = append(m.Chapters, MatrixChapter{Number: 1, Title: "Chapter 1"})
			current = &m.Chapters[len(m.Chapters)-1]
		}
		num, title := splitSession(sessionCell)
		current.Sessions = append(current.Sessions, MatrixSession{
			Number:      num,
			Title:       title,
			Description: cell(cells, cols.description),
			Objectives:  cell(cells, cols.objectives),
		})
	}

	m.Chapters = dropEmptyChapters(m.Chapters)
	if len(m.Chapters) == 0 || m.SessionCount() == 0 {
		return Result[Matrix]{Kind: RawText, Raw: raw}, apierr.Parse("matrix_parse_failed", fmt.Errorf("matrix table has no sessions"), raw)
	}
	renumber(m.Chapters)
	return parsed(ParsedTable, m, raw), nil
}

// splitTable returns the prose before the first table, the table's rows (separator
// lines removed) and the table text itself.
func splitTable(raw string) (string, [][]string, string) {
	lines := strings.Split(strings.ReplaceAll(raw, "\r\n", "\n"), "\n")
	start := -1
	for i, l := range lines {
		if strings.HasPrefix(strings.TrimSpace(l), "|") {
			start = i
			break
		}
	}
	if start < 0 {
		return strings.TrimSpace(raw), nil, ""
	}
	var rows [][]string
	var tableLines []string
	for _, l := range lines[start:] {
		t := strings.TrimSpace(l)
		if !strings.HasPrefix(t, "|") {
			break
		}
		tableLines = append(tableLines, t)
		if separatorRe.MatchString(t) {
			continue
		}
		rows = append(rows, splitRow(t))
	}
	narrative := strings.TrimSpace(strings.Join(lines[:start], "\n"))
	narrative = strings.TrimSpace(strings.TrimSuffix(narrative, "```markdown"))
	return narrative, rows, strings.Join(tableLines, "\n")
}

func splitRow(line string) []string {
	line = strings.TrimSpace(line)
	line = strings.TrimPrefix(line, "|")
	line = strings.TrimSuffix(line, "|")
	parts := strings.Split(line, "|")
	for i := range parts {
		parts[i] = cleanCell(parts[i])
	}
	return parts
}

func cleanCell(s string) string {
	s = brRe.ReplaceAllString(s, "\n")
	s = strings.ReplaceAll(s, "**", "")
	lines := strings.Split(s, "\n")
	for i := range lines {
		lines[i] = strings.TrimSpace(lines[i])
	}
	return strings.TrimSpace(strings.Join(lines, "\n"))
}

func columnsFor(header []string) matrixColumns {
	cols := matrixColumns{chapter: 0, session: 1, description: 2, objectives: 3}
	for i, h := range header {
		h = strings.ToLower(h)
		switch {
		case strings.Contains(h, "chapter") || strings.Contains(h, "module"):
			cols.chapter = i
		case strings.Contains(h, "session"):
			cols.session = i
		case strings.Contains(h, "description") || strings.Contains(h, "content"):
			cols.description = i
		case strings.Contains(h, "objective"):
			cols.objectives = i
		}
	}
	return cols
}

func cell(cells []string, i int) string {
	if i < 0 || i >= len(cells) {
		return ""
	}
	return cells[i]
}

func splitChapter(s string) (int, string) {
	if m := chapterNumRe.FindStringSubmatch(s); m != nil {
		n, _ := strconv.Atoi(m[1])
		return n, strings.TrimSpace(m[2])
	}
	return 0, s
}

func splitSession(s string) (int, string) {
	if m := sessionNumRe.FindStringSubmatch(s); m != nil {
		n, _ := strconv.Atoi(m[2])
		return n, strings.TrimSpace(m[3])
	}
	if n, title := splitChapter(s); n > 0 {
		return n, title
	}
	return 0, s
}

func dropEmptyChapters(in []MatrixChapter) []MatrixChapter {
	out := in[:0]
	for _, ch := range in {
		if len(ch.Sessions) > 0 {
			out = append(out, ch)
		}
	}
	return out
}

// renumber fills missing numbers and resolves duplicates so numbers stay unique.
func renumber(chapters []MatrixChapter) {
	used := map[int]bool{}
	next := 1
	for i := range chapters {
		ch := &chapters[i]
		if ch.Number <= 0 || used[ch.Number] {
			for used[next] {
				next++
			}
			ch.Number = next
		}
		used[ch.Number] = true
		if ch.Title == "" {
			ch.Title = fmt.Sprintf("Chapter %d", ch.Number)
		}

		seen := map[int]bool{}
		n := 1
		for j := range ch.Sessions {
			s := &ch.Sessions[j]
			if s.Number <= 0 || seen[s.Number] {
				for seen[n] {
					n++
				}
				s.Number = n
			}
			seen[s.Number] = true
			if s.Title == "" {
				s.Title = fmt.Sprintf("Session %d.%d", ch.Number, s.Number)
			}
		}
	}
}
