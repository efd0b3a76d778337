package usecase

import (
	"bytes"
	"encoding/csv"
	"encoding/json"
	"strconv"
	"time"

	apperrors "github.com/allisson/passvault/internal/errors"
	vaultDomain "github.com/allisson/passvault/internal/vault/domain"
)

const (
	exportStatusOK            = "ok"
	exportStatusUndecryptable = "undecryptable"
)

// csvColumns maps the secret columns of a CSV export to secret field names.
// A column takes the first field present; logins keep their password under
// "secret" and wifi networks under "password".
var csvColumns = []struct {
	header string
	fields []string
}{
	{"username", []string{"username"}},
	{"password", []string{"secret", "password"}},
	{"totp", []string{"totp"}},
	{"notes", []string{"notes"}},
	{"card_holder", []string{"cardholder_name"}},
	{"card_number", []string{"number"}},
	{"card_expiry", []string{"expiry"}},
	{"card_cvv", []string{"cvv"}},
	{"ssid", []string{"ssid"}},
	{"security", []string{"security"}},
	{"content", []string{"content"}},
}

// csvCell neutralizes values a spreadsheet would evaluate as a formula by
// prefixing them with a single quote.
func csvCell(v string) string {
	if v == "" {
		return v
	}
	switch v[0] {
	case '=', '+', '-', '@', '\t', '\r':
		return "'" + v
	}
	return v
}

func columnValue(fields map[string]string, names []string) string {
	for _, name := range names {
		if v, ok := fields[name]; ok {
			return v
		}
	}
	return ""
}

type exportItem struct {
	ID            string            `json:"id"`
	Category      string            `json:"category"`
	Name          string            `json:"name"`
	URL           string            `json:"url,omitempty"`
	Favorite      bool              `json:"favorite"`
	Fields        map[string]string `json:"fields,omitempty"`
	Undecryptable bool              `json:"undecryptable,omitempty"`
	CreatedAt     time.Time         `json:"created_at"`
	UpdatedAt     time.Time         `json:"updated_at"`
}

func renderExport(format vaultDomain.ExportFormat, entries []*vaultDomain.Entry) (*vaultDomain.ExportBundle, error) {
	bundle := &vaultDomain.ExportBundle{Format: format}
	for _, entry := range entries {
		if entry.Undecryptable {
			bundle.Failed++
		} else {
			bundle.Exported++
		}
	}

	var err error
	switch format {
	case vaultDomain.ExportCSV:
		bundle.ContentType = "text/csv"
		bundle.Data, err = renderCSV(entries)
	default:
		bundle.ContentType = "application/json"
		bundle.Data, err = renderJSON(entries)
	}
	if err != nil {
		return nil, apperrors.Wrap(apperrors.ErrInternal, "failed to render export")
	}
	return bundle, nil
}

func renderJSON(entries []*vaultDomain.Entry) ([]byte, error) {
	items := make([]exportItem, 0, len(entries))
	for _, entry := range entries {
		item := exportItem{
			ID:            entry.Record.ID.String(),
			Category:      string(entry.Record.Category),
			Name:          entry.Record.Name,
			URL:           entry.Record.URL,
			Favorite:      entry.Record.Favorite,
			Undecryptable: entry.Undecryptable,
			CreatedAt:     entry.Record.CreatedAt,
			UpdatedAt:     entry.Record.UpdatedAt,
		}
		if !entry.Undecryptable {
			item.Fields = entry.Secrets.Fields()
		}
		items = append(items, item)
	}
	return json.MarshalIndent(items, "", "  ")
}

func renderCSV(entries []*vaultDomain.Entry) ([]byte, error) {
	var buf bytes.Buffer
	w := csv.NewWriter(&buf)

	header := []string{"id", "name", "category", "url", "favorite"}
	for _, col := range csvColumns {
		header = append(header, col.header)
	}
	header = append(header, "status")
	if err := w.Write(header); err != nil {
		return nil, err
	}

	for _, entry := range entries {
		row := []string{
			entry.Record.ID.String(),
			csvCell(entry.Record.Name),
			string(entry.Record.Category),
			csvCell(entry.Record.URL),
			strconv.FormatBool(entry.Record.Favorite),
		}

		var fields map[string]string
		status := exportStatusUndecryptable
		if !entry.Undecryptable {
			fields = entry.Secrets.Fields()
			status = exportStatusOK
		}
		for _, col := range csvColumns {
			row = append(row, csvCell(columnValue(fields, col.fields)))
		}
		row = append(row, status)

		if err := w.Write(row); err != nil {
			return nil, err
		}
	}

	w.Flush()
	if err := w.Error(); err != nil {
		return nil, err
	}
	return buf.Bytes(), nil
}
