// Package parser reads the substitution plan HTML that Untis publishes
// ("subst_001.htm") into typed records.
package parser

import (
	"errors"
	"fmt"
	"io"
	"strconv"
	"strings"

	"vertretungsplan-bot/types"

	"github.com/PuerkitoBio/goquery"
	"go.uber.org/zap"
)

// ErrInvalidDocument is returned for documents that are not an Untis plan,
// typically an error page served in its place.
var ErrInvalidDocument = errors.New("invalid document")

const (
	productMarker     = "Untis"
	lastUpdatedMarker = "Stand: "
	weekMarker        = ", Woche "
	columns           = 9
)

// Parser turns plan documents into types.Plan
type Parser struct {
	log *zap.Logger
}

func New(log *zap.Logger) *Parser {
	if log == nil {
		log = zap.NewNop()
	}
	return &Parser{log: log}
}

// Parse reads a complete document. Broken sections are skipped; a document
// without the Untis markers fails with ErrInvalidDocument.
func (p *Parser) Parse(r io.Reader) (*types.Plan, error) {
	doc, err := goquery.NewDocumentFromReader(r)
	if err != nil {
		return nil, fmt.Errorf("%w: %v", ErrInvalidDocument, err)
	}

	text := doc.Text()
	for _, marker := range []string{productMarker, lastUpdatedMarker} {
		if !strings.Contains(text, marker) {
			return nil, fmt.Errorf("%w: %q not in document", ErrInvalidDocument, marker)
		}
	}

	return &types.Plan{
		LastUpdated: lastUpdated(doc),
		Entries:     p.entries(doc),
		News:        News(doc),
	}, nil
}

// entries walks every <center> section that contains a table
func (p *Parser) entries(doc *goquery.Document) []types.Substitution {
	entries := make([]types.Substitution, 0)

	doc.Find("center").Each(func(i int, center *goquery.Selection) {
		if center.Find("table").Length() == 0 {
			return
		}

		title := center.Find("div").First()
		if title.Length() == 0 {
			p.log.Warn("Section without title, skipping", zap.Int("section", i))
			return
		}
		date, weekDay, weekType, ok := parseTitle(normalizeSpace(title.Text()))
		if !ok {
			p.log.Warn("Section title not understood, skipping",
				zap.Int("section", i), zap.String("title", title.Text()))
			return
		}

		table := center.Find("table").Last()
		rows := table.Find("tr")
		if rows.Length() < 2 {
			p.log.Debug("Section without entries", zap.String("date", date))
			return
		}

		rows.Slice(1, goquery.ToEnd).Each(func(j int, tr *goquery.Selection) {
			cells := make([]string, 0, columns)
			tr.Find("td").Each(func(_ int, td *goquery.Selection) {
				cells = append(cells, cleanText(td.Text()))
			})
			if len(cells) < columns {
				p.log.Debug("Skipping short row",
					zap.String("date", date), zap.Int("row", j+1), zap.Strings("cells", cells))
				return
			}

			for _, period := range expandPeriods(cells[1]) {
				for _, className := range splitClasses(cells[0]) {
					entries = append(entries, types.Substitution{
						ClassName:   className,
						Period:      period,
						Subject:     cells[2],
						OrigSubject: cells[3],
						Room:        cells[4],
						OrigRoom:    cells[5],
						ReplFrom:    cells[6],
						ReplType:    cells[7],
						Description: cells[8],
						WeekDay:     weekDay,
						WeekType:    weekType,
						Date:        date,
					})
				}
			}
		})
	})

	p.log.Debug("Parsed entries", zap.Int("count", len(entries)))
	return entries
}

// News collects the cells tagged "info", keeping the first occurrence of each text
func News(doc *goquery.Document) []types.NewsItem {
	news := make([]types.NewsItem, 0)
	seen := make(map[string]bool)

	doc.Find("td.info").Each(func(i int, td *goquery.Selection) {
		text := normalizeSpace(td.Text())
		if text == "" || seen[text] {
			return
		}
		seen[text] = true
		news = append(news, types.NewsItem{DateLabel: newsDate(td), Text: text})
	})
	return news
}

// newsDate finds the date of the section a news cell belongs to: the first
// element of the block enclosing its table, else the first cell of its row.
func newsDate(td *goquery.Selection) string {
	block := td.Closest("table").Parent()
	if label := firstField(block.Find("*").First().Text()); label != "" {
		return label
	}
	return firstField(td.Closest("tr").Children().First().Text())
}

// lastUpdated returns "21.10.2019 07:45" from "... Stand: 21.10.2019 07:45"
func lastUpdated(doc *goquery.Document) string {
	var stamp string
	doc.Find("p").EachWithBreak(func(i int, s *goquery.Selection) bool {
		text := normalizeSpace(s.Text())
		idx := strings.LastIndex(text, lastUpdatedMarker)
		if idx < 0 {
			return true
		}
		fields := strings.Fields(text[idx+len(lastUpdatedMarker):])
		if len(fields) > 2 {
			fields = fields[:2]
		}
		stamp = strings.Join(fields, " ")
		return false
	})
	return stamp
}

// parseTitle splits "21.10.2019 Montag, Woche A" into its parts
func parseTitle(title string) (date, weekDay, weekType string, ok bool) {
	fields := strings.Fields(title)
	if len(fields) < 2 {
		return "", "", "", false
	}
	date = fields[0]
	weekDay = strings.TrimRight(fields[1], ",")

	if idx := strings.LastIndex(title, weekMarker); idx >= 0 {
		weekType = firstField(title[idx+len(weekMarker):])
	}
	return date, weekDay, weekType, true
}

// expandPeriods turns "7 - 8" or "3-5" into one period per lesson
func expandPeriods(period string) []string {
	if !strings.Contains(period, "-") {
		return []string{strings.TrimSpace(period)}
	}

	parts := make([]string, 0, 2)
	for _, part := range strings.Split(period, "-") {
		if part = strings.TrimSpace(part); part != "" {
			parts = append(parts, part)
		}
	}
	if len(parts) != 2 {
		return parts
	}

	from, errFrom := strconv.Atoi(parts[0])
	to, errTo := strconv.Atoi(parts[1])
	if errFrom != nil || errTo != nil || from > to {
		return parts
	}

	periods := make([]string, 0, to-from+1)
	for n := from; n <= to; n++ {
		periods = append(periods, strconv.Itoa(n))
	}
	return periods
}

// splitClasses turns "05A, 05B" into its class names
func splitClasses(classes string) []string {
	names := make([]string, 0, 1)
	for _, name := range strings.Split(classes, ",") {
		if name = strings.TrimSpace(name); name != "" {
			names = append(names, name)
		}
	}
	if len(names) == 0 {
		return []string{""}
	}
	return names
}

// cleanText drops non-breaking spaces and the "---" placeholder Untis prints for empty cells
func cleanText(s string) string {
	s = strings.ReplaceAll(s, "\u00a0", "")
	s = strings.ReplaceAll(s, "---", "")
	return strings.TrimSpace(s)
}

// normalizeSpace collapses all whitespace, non-breaking spaces included, to single spaces
func normalizeSpace(s string) string {
	return strings.Join(strings.Fields(strings.ReplaceAll(s, "\u00a0", " ")), " ")
}

func firstField(s string) string {
	fields := strings.Fields(normalizeSpace(s))
	if len(fields) == 0 {
		return ""
	}
	return fields[0]
}
