// Package source reads a spreadsheet into rows of trimmed text cells. It
// knows three shapes: the Google Sheets CSV export, a sheet published to the
// web as HTML, and an uploaded .xlsx workbook.
package source

import (
	"bytes"
	"context"
	"encoding/csv"
	"errors"
	"fmt"
	"io"
	"net/http"
	"net/url"
	"regexp"
	"strings"
	"time"

	"github.com/PuerkitoBio/goquery"
	"github.com/xuri/excelize/v2"
)

// Rows is a sheet, row-major. Blank rows are dropped.
type Rows [][]string

// MaxBytes caps a downloaded or uploaded sheet.
const MaxBytes = 10 << 20

var spreadsheetID = regexp.MustCompile(`/spreadsheets/d/([a-zA-Z0-9-_]+)`)

// SpreadsheetID extracts the document id from a Google Sheets link.
func SpreadsheetID(link string) (string, error) {
	m := spreadsheetID.FindStringSubmatch(link)
	if m == nil {
		return "", fmt.Errorf("not a Google Sheets url: %q", link)
	}
	return m[1], nil
}

// Sheets downloads public Google Sheets.
type Sheets struct {
	Client  *http.Client
	BaseURL string // https://docs.google.com unless overridden
}

func NewSheets() *Sheets {
	return &Sheets{Client: &http.Client{Timeout: 20 * time.Second}, BaseURL: "https://docs.google.com"}
}

// Fetch reads sheetName of the document at link. Links to a published
// (pubhtml) sheet are scraped as HTML, anything else goes through the gviz
// CSV export, which needs the document to be viewable by link.
func (s *Sheets) Fetch(ctx context.Context, link, sheetName string) (Rows, error) {
	if strings.Contains(link, "/pubhtml") {
		body, err := s.get(ctx, link)
		if err != nil {
			return nil, err
		}
		return ParseHTML(bytes.NewReader(body), sheetName)
	}

	id, err := SpreadsheetID(link)
	if err != nil {
		return nil, err
	}
	if sheetName == "" {
		sheetName = "Sheet1"
	}
	u := fmt.Sprintf("%s/spreadsheets/d/%s/gviz/tq?tqx=out:csv&sheet=%s",
		strings.TrimRight(s.BaseURL, "/"), id, url.QueryEscape(sheetName))
	body, err := s.get(ctx, u)
	if err != nil {
		return nil, err
	}
	return ParseCSV(bytes.NewReader(body))
}

func (s *Sheets) get(ctx context.Context, u string) ([]byte, error) {
	req, err := http.NewRequestWithContext(ctx, http.MethodGet, u, nil)
	if err != nil {
		return nil, err
	}
	resp, err := s.Client.Do(req)
	if err != nil {
		return nil, err
	}
	defer resp.Body.Close()
	if resp.StatusCode != http.StatusOK {
		return nil, fmt.Errorf("fetch sheet: status %d (is the sheet shared for viewing?)", resp.StatusCode)
	}
	if resp.ContentLength > MaxBytes {
		return nil, errors.New("sheet too large")
	}
	return io.ReadAll(io.LimitReader(resp.Body, MaxBytes))
}

// ParseCSV reads a CSV export. Rows may have differing widths.
func ParseCSV(r io.Reader) (Rows, error) {
	cr := csv.NewReader(r)
	cr.FieldsPerRecord = -1
	cr.LazyQuotes = true
	var out Rows
	for {
		rec, err := cr.Read()
		if errors.Is(err, io.EOF) {
			return out, nil
		}
		if err != nil {
			return nil, fmt.Errorf("parse csv: %w", err)
		}
		out = appendRow(out, rec)
	}
}

// ParseHTML reads a published sheet. With several tabs the one whose menu
// entry reads sheetName is used, otherwise the first table.
func ParseHTML(r io.Reader, sheetName string) (Rows, error) {
	doc, err := goquery.NewDocumentFromReader(r)
	if err != nil {
		return nil, fmt.Errorf("parse html: %w", err)
	}
	table := doc.Find("table").First()
	if sheetName != "" {
		doc.Find("#sheet-menu li").EachWithBreak(func(_ int, li *goquery.Selection) bool {
			if strings.TrimSpace(li.Text()) != sheetName {
				return true
			}
			gid := strings.TrimPrefix(li.AttrOr("id", ""), "sheet-button-")
			if t := doc.Find(fmt.Sprintf(`div[id="%s"] table`, gid)).First(); t.Length() > 0 {
				table = t
			}
			return false
		})
	}
	if table.Length() == 0 {
		return nil, errors.New("no table in published sheet")
	}

	var out Rows
	table.Find("tr").Each(func(_ int, tr *goquery.Selection) {
		// th cells are the row numbers and column letters of the web view
		var rec []string
		tr.Find("td").Each(func(_ int, td *goquery.Selection) {
			rec = append(rec, td.Text())
		})
		out = appendRow(out, rec)
	})
	return out, nil
}

// ParseXLSX reads sheetName, or the first sheet, of a workbook.
func ParseXLSX(r io.Reader, sheetName string) (Rows, error) {
	f, err := excelize.OpenReader(io.LimitReader(r, MaxBytes))
	if err != nil {
		return nil, fmt.Errorf("open xlsx: %w", err)
	}
	defer f.Close()

	if sheetName == "" {
		sheetName = f.GetSheetName(0)
	}
	recs, err := f.GetRows(sheetName)
	if err != nil {
		return nil, fmt.Errorf("read sheet %q: %w", sheetName, err)
	}
	var out Rows
	for _, rec := range recs {
		out = appendRow(out, rec)
	}
	return out, nil
}

func appendRow(out Rows, rec []string) Rows {
	blank := true
	row := make([]string, len(rec))
	for i, v := range rec {
		row[i] = strings.TrimSpace(v)
		if row[i] != "" {
			blank = false
		}
	}
	if blank {
		return out
	}
	return append(out, row)
}
