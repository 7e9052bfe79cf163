// Package csvcodec serializes the domain inventory (and order lists) to CSV
// and parses uploaded inventory files back into records.
//
// Output is RFC-4180 quoted. The legacy exporter joined fields naively and
// corrupted rows containing commas; that behavior is deliberately not
// reproduced.
package csvcodec

import (
	"encoding/csv"
	"fmt"
	"io"
	"strconv"
	"strings"
	"time"

	"linkdesk/internal/models"
)

// DomainHeaders is the canonical column set of the inventory template.
var DomainHeaders = []string{
	"Website URL",
	"Website Name",
	"Domain Rating",
	"Website Traffic",
	"Niche",
	"Type",
	"Guest Post Price",
	"Niche Edit Price",
	"GP TAT (in days)",
	"NE TAT (in days)",
	"Guidelines",
}

// domainColumns maps recognized header spellings (lower-cased) to canonical
// column names. Matching is case-insensitive and tolerant of the short forms
// older spreadsheets used.
var domainColumns = map[string]string{
	"website url":      "Website URL",
	"url":              "Website URL",
	"domain":           "Website URL",
	"website name":     "Website Name",
	"name":             "Website Name",
	"domain rating":    "Domain Rating",
	"dr":               "Domain Rating",
	"website traffic":  "Website Traffic",
	"traffic":          "Website Traffic",
	"niche":            "Niche",
	"type":             "Type",
	"guest post price": "Guest Post Price",
	"gp price":         "Guest Post Price",
	"niche edit price": "Niche Edit Price",
	"ne price":         "Niche Edit Price",
	"gp tat (in days)": "GP TAT (in days)",
	"gp tat":           "GP TAT (in days)",
	"ne tat (in days)": "NE TAT (in days)",
	"ne tat":           "NE TAT (in days)",
	"guidelines":       "Guidelines",
}

// ExportDomains writes the inventory as CSV, header row first.
func ExportDomains(w io.Writer, domains []models.Domain) error {
	cw := csv.NewWriter(w)
	if err := cw.Write(DomainHeaders); err != nil {
		return fmt.Errorf("write header: %w", err)
	}
	for _, d := range domains {
		record := []string{
			d.WebsiteURL,
			d.WebsiteName,
			strconv.Itoa(d.DomainRating),
			strconv.Itoa(d.WebsiteTraffic),
			d.Niche,
			string(d.Type),
			formatPrice(d.GuestPostPrice),
			formatPrice(d.NicheEditPrice),
			formatDays(d.GuestPostTAT),
			formatDays(d.NicheEditTAT),
			d.Guidelines,
		}
		if err := cw.Write(record); err != nil {
			return fmt.Errorf("write domain %s: %w", d.WebsiteURL, err)
		}
	}
	cw.Flush()
	return cw.Error()
}

// DomainExportFilename names the download: domain-inventory-<ISO-date>.csv.
func DomainExportFilename(now time.Time) string {
	return fmt.Sprintf("domain-inventory-%s.csv", now.Format("2006-01-02"))
}

// OrderExportFilename is fixed by the legacy contract.
const OrderExportFilename = "orders.csv"

var orderHeaders = []string{
	"ID", "User ID", "Kind", "Source URL", "Target URL", "Anchor Text",
	"Price", "Status", "Date Ordered", "Date Completed",
}

// ExportOrders writes an order list as CSV.
func ExportOrders(w io.Writer, orders []models.Order) error {
	cw := csv.NewWriter(w)
	if err := cw.Write(orderHeaders); err != nil {
		return fmt.Errorf("write header: %w", err)
	}
	for _, o := range orders {
		completed := ""
		if o.DateCompleted != nil {
			completed = o.DateCompleted.Format("2006-01-02")
		}
		record := []string{
			o.ID,
			o.UserID,
			string(o.Kind),
			o.SourceURL,
			o.TargetURL,
			o.AnchorText,
			strconv.FormatFloat(o.Price, 'f', 2, 64),
			o.Status,
			o.DateOrdered.Format("2006-01-02"),
			completed,
		}
		if err := cw.Write(record); err != nil {
			return fmt.Errorf("write order %s: %w", o.ID, err)
		}
	}
	cw.Flush()
	return cw.Error()
}

// SkippedRow explains why an uploaded row was left out of the preview.
type SkippedRow struct {
	Line   int    `json:"line"`
	Reason string `json:"reason"`
}

// ImportPreview is the first phase of the two-phase import: the caller
// inspects Rows and Skipped, then explicitly commits.
type ImportPreview struct {
	Rows    []models.Domain `json:"rows"`
	Skipped []SkippedRow    `json:"skipped,omitempty"`
}

// ParseDomains reads CSV text into an import preview. The first non-empty
// line is the header row; unrecognized headers are ignored; rows whose column
// count disagrees with the header are skipped with a reason. Each row needs
// at least a website URL and a type. Name defaults to the URL and type
// defaults to "both".
func ParseDomains(r io.Reader) (*ImportPreview, error) {
	cr := csv.NewReader(r)
	cr.FieldsPerRecord = -1
	cr.LazyQuotes = true
	cr.TrimLeadingSpace = true

	records, err := cr.ReadAll()
	if err != nil {
		return nil, fmt.Errorf("read csv: %w", err)
	}

	// Drop fully empty lines before treating the first as the header.
	rows := records[:0]
	for _, rec := range records {
		if !emptyRecord(rec) {
			rows = append(rows, rec)
		}
	}
	if len(rows) == 0 {
		return nil, fmt.Errorf("csv has no header row")
	}

	header := rows[0]
	columns := make([]string, len(header))
	for i, h := range header {
		columns[i] = domainColumns[strings.ToLower(strings.TrimSpace(h))]
	}
	if !containsColumn(columns, "Website URL") {
		return nil, fmt.Errorf("csv header has no website URL column")
	}

	preview := &ImportPreview{}
	for i, rec := range rows[1:] {
		line := i + 2
		if len(rec) != len(header) {
			preview.Skipped = append(preview.Skipped, SkippedRow{
				Line:   line,
				Reason: fmt.Sprintf("expected %d columns, got %d", len(header), len(rec)),
			})
			continue
		}

		d, reason := buildDomain(columns, rec)
		if reason != "" {
			preview.Skipped = append(preview.Skipped, SkippedRow{Line: line, Reason: reason})
			continue
		}
		preview.Rows = append(preview.Rows, d)
	}

	return preview, nil
}

func buildDomain(columns, rec []string) (models.Domain, string) {
	var d models.Domain
	for i, col := range columns {
		value := strings.TrimSpace(rec[i])
		if value == "" {
			continue
		}
		switch col {
		case "Website URL":
			d.WebsiteURL = value
		case "Website Name":
			d.WebsiteName = value
		case "Domain Rating":
			n, err := strconv.Atoi(value)
			if err != nil {
				return d, fmt.Sprintf("invalid domain rating %q", value)
			}
			d.DomainRating = n
		case "Website Traffic":
			n, err := strconv.Atoi(value)
			if err != nil {
				return d, fmt.Sprintf("invalid website traffic %q", value)
			}
			d.WebsiteTraffic = n
		case "Niche":
			d.Niche = value
		case "Type":
			d.Type = models.DomainType(strings.ToLower(value))
			if !d.Type.Valid() {
				return d, fmt.Sprintf("unknown type %q", value)
			}
		case "Guest Post Price":
			p, err := strconv.ParseFloat(value, 64)
			if err != nil {
				return d, fmt.Sprintf("invalid guest post price %q", value)
			}
			d.GuestPostPrice = &p
		case "Niche Edit Price":
			p, err := strconv.ParseFloat(value, 64)
			if err != nil {
				return d, fmt.Sprintf("invalid niche edit price %q", value)
			}
			d.NicheEditPrice = &p
		case "GP TAT (in days)":
			n, err := strconv.Atoi(value)
			if err != nil {
				return d, fmt.Sprintf("invalid GP TAT %q", value)
			}
			d.GuestPostTAT = &n
		case "NE TAT (in days)":
			n, err := strconv.Atoi(value)
			if err != nil {
				return d, fmt.Sprintf("invalid NE TAT %q", value)
			}
			d.NicheEditTAT = &n
		case "Guidelines":
			d.Guidelines = value
		}
	}

	if d.WebsiteURL == "" {
		return d, "missing website URL"
	}
	if d.WebsiteName == "" {
		d.WebsiteName = d.WebsiteURL
	}
	if d.Type == "" {
		d.Type = models.DomainBoth
	}
	return d, ""
}

func formatPrice(p *float64) string {
	if p == nil {
		return ""
	}
	return strconv.FormatFloat(*p, 'f', -1, 64)
}

func formatDays(n *int) string {
	if n == nil {
		return ""
	}
	return strconv.Itoa(*n)
}

func emptyRecord(rec []string) bool {
	for _, f := range rec {
		if strings.TrimSpace(f) != "" {
			return false
		}
	}
	return true
}

func containsColumn(columns []string, name string) bool {
	for _, c := range columns {
		if c == name {
			return true
		}
	}
	return false
}
