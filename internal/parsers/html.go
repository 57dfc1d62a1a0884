package parsers

import (
	"context"
	"fmt"
	"net/http"
	"strconv"
	"strings"
	"time"

	"github.com/PuerkitoBio/goquery"

	"github.com/hoofbeat/hoofbeat-go/internal/conf"
	"github.com/hoofbeat/hoofbeat-go/internal/errors"
)

// TableParser extracts competitions from listing pages that render one
// event per table row. Cells are located by data-field attributes so the
// same parser serves every source using the shared listing widget.
type TableParser struct {
	client    *http.Client
	userAgent string
}

// NewTableParser builds a table parser using the configured fetch timeout.
func NewTableParser(settings *conf.Settings) *TableParser {
	timeout := settings.Scanner.FetchTimeout
	if timeout <= 0 {
		timeout = 30 * time.Second
	}
	return &TableParser{
		client:    &http.Client{Timeout: timeout},
		userAgent: fmt.Sprintf("%s/1.0", settings.Main.Name),
	}
}

// Fetch downloads the listing page and extracts its event rows.
func (p *TableParser) Fetch(ctx context.Context, url string) ([]ExtractedCompetition, error) {
	req, err := http.NewRequestWithContext(ctx, http.MethodGet, url, nil)
	if err != nil {
		return nil, errors.New(err).
			Component("parsers").
			Category(errors.CategoryNetwork).
			Context("url", url).
			Build()
	}
	req.Header.Set("User-Agent", p.userAgent)

	resp, err := p.client.Do(req)
	if err != nil {
		return nil, errors.New(err).
			Component("parsers").
			Category(errors.CategoryNetwork).
			Context("url", url).
			Build()
	}
	defer resp.Body.Close()

	if resp.StatusCode != http.StatusOK {
		return nil, errors.Newf("unexpected status %d fetching listing", resp.StatusCode).
			Component("parsers").
			Category(errors.CategoryNetwork).
			Context("url", url).
			Build()
	}

	doc, err := goquery.NewDocumentFromReader(resp.Body)
	if err != nil {
		return nil, errors.New(err).
			Component("parsers").
			Category(errors.CategoryParsing).
			Context("url", url).
			Build()
	}
	return p.parseDocument(doc), nil
}

// parseDocument walks every event row and keeps the rows that carry the
// required fields. Malformed rows are dropped, never fatal.
func (p *TableParser) parseDocument(doc *goquery.Document) []ExtractedCompetition {
	records := make([]ExtractedCompetition, 0)

	doc.Find("table.events tbody tr, tr.event-row").Each(func(i int, row *goquery.Selection) {
		record := ExtractedCompetition{
			Name:          cellText(row, "name"),
			StartDate:     cellText(row, "start-date"),
			EndDate:       cellText(row, "end-date"),
			VenueName:     cellText(row, "venue"),
			VenuePostcode: cellText(row, "postcode"),
			Discipline:    cellText(row, "discipline"),
			Description:   cellText(row, "description"),
			EventType:     cellText(row, "event-type"),
		}

		if href, ok := row.Find(`[data-field="name"] a`).Attr("href"); ok {
			record.URL = strings.TrimSpace(href)
		}
		if lat, ok := parseCoordinate(row, "lat"); ok {
			record.Latitude = &lat
		}
		if lng, ok := parseCoordinate(row, "lng"); ok {
			record.Longitude = &lng
		}

		row.Find(`[data-field="classes"] li`).Each(func(_ int, item *goquery.Selection) {
			if class := strings.TrimSpace(item.Text()); class != "" {
				record.Classes = append(record.Classes, class)
			}
		})
		record.PonyClasses = hasPonyClass(record.Classes)

		if record.Valid() {
			records = append(records, record)
		}
	})

	return records
}

func cellText(row *goquery.Selection, field string) string {
	return strings.TrimSpace(row.Find(`[data-field="` + field + `"]`).First().Text())
}

func parseCoordinate(row *goquery.Selection, attr string) (float64, bool) {
	value, ok := row.Attr("data-" + attr)
	if !ok {
		return 0, false
	}
	coord, err := strconv.ParseFloat(strings.TrimSpace(value), 64)
	if err != nil {
		return 0, false
	}
	return coord, true
}

func hasPonyClass(classes []string) bool {
	for _, class := range classes {
		if strings.Contains(strings.ToLower(class), "pony") {
			return true
		}
	}
	return false
}
