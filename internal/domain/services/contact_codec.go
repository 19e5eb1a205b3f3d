package services

import (
	"bytes"
	"encoding/csv"
	"errors"
	"fmt"
	"io"
	"path/filepath"
	"strings"
	"time"

	"actrec-directory/internal/domain/models"

	"github.com/gocarina/gocsv"
	"github.com/xuri/excelize/v2"
)

// Transfer formats
const (
	FormatCSV  = "csv"
	FormatXLSX = "xlsx"
)

const exportSheet = "Contacts"

var headerAliases = map[string]string{
	"phone":        "phone_number",
	"phone_no":     "phone_number",
	"mobile":       "phone_number",
	"ext":          "extension",
	"extension_no": "extension",
	"e_mail":       "email",
	"full_name":    "name",
	"dept":         "department",
}

func init() {
	gocsv.SetHeaderNormalizer(NormalizeHeader)
}

// NormalizeHeader maps a spreadsheet column title onto a candidate field name
func NormalizeHeader(header string) string {
	h := strings.ToLower(strings.TrimSpace(header))
	h = strings.TrimPrefix(h, "\ufeff")
	h = strings.NewReplacer(" ", "_", "-", "_", ".", "").Replace(h)
	if alias, ok := headerAliases[h]; ok {
		return alias
	}
	return h
}

// ContactRow is the flat export shape of a contact
type ContactRow struct {
	ID          string `csv:"id"`
	Name        string `csv:"name"`
	Department  string `csv:"department"`
	Designation string `csv:"designation"`
	PhoneNumber string `csv:"phone_number"`
	Extension   string `csv:"extension"`
	Email       string `csv:"email"`
	Location    string `csv:"location"`
	Institution string `csv:"institution"`
	CreatedAt   string `csv:"created_at"`
	UpdatedAt   string `csv:"updated_at"`
}

var exportHeader = []string{
	"id", "name", "department", "designation", "phone_number", "extension",
	"email", "location", "institution", "created_at", "updated_at",
}

// spreadsheetSafe quotes a cell that a spreadsheet would evaluate as a formula
func spreadsheetSafe(value string) string {
	if value != "" && strings.ContainsRune("=+-@\t\r", rune(value[0])) {
		return "'" + value
	}
	return value
}

func newContactRow(c models.Contact) ContactRow {
	return ContactRow{
		ID:          spreadsheetSafe(c.ID),
		Name:        spreadsheetSafe(c.Name),
		Department:  spreadsheetSafe(c.Department),
		Designation: spreadsheetSafe(c.Designation),
		PhoneNumber: spreadsheetSafe(c.PhoneNumber),
		Extension:   spreadsheetSafe(c.Extension),
		Email:       spreadsheetSafe(c.Email),
		Location:    spreadsheetSafe(c.Location),
		Institution: spreadsheetSafe(c.Institution),
		CreatedAt:   c.CreatedAt.UTC().Format(time.RFC3339),
		UpdatedAt:   c.UpdatedAt.UTC().Format(time.RFC3339),
	}
}

func (r ContactRow) values() []interface{} {
	return []interface{}{
		r.ID, r.Name, r.Department, r.Designation, r.PhoneNumber, r.Extension,
		r.Email, r.Location, r.Institution, r.CreatedAt, r.UpdatedAt,
	}
}

// FormatFromFilename picks a transfer format from a file extension
func FormatFromFilename(name string) (string, error) {
	switch strings.ToLower(filepath.Ext(name)) {
	case ".csv":
		return FormatCSV, nil
	case ".xlsx":
		return FormatXLSX, nil
	default:
		return "", fmt.Errorf("%w: %s", ErrUnsupportedFormat, name)
	}
}

// DecodeContacts reads candidates from a CSV or XLSX document. Unknown
// columns are ignored and blank rows are dropped.
func DecodeContacts(format string, r io.Reader) ([]models.ContactCandidate, error) {
	var candidates []models.ContactCandidate
	switch format {
	case FormatCSV:
		reader := newLineReader(r)
		if err := gocsv.UnmarshalCSV(reader, &candidates); err != nil {
			return nil, fmt.Errorf("%w: %v", ErrUnsupportedFormat, err)
		}
		// lines[0] is the header
		for i := range candidates {
			if i+1 < len(reader.lines) {
				candidates[i].Row = reader.lines[i+1]
			}
		}
	case FormatXLSX:
		var err error
		if candidates, err = decodeXLSX(r); err != nil {
			return nil, err
		}
	default:
		return nil, fmt.Errorf("%w: %s", ErrUnsupportedFormat, format)
	}

	out := candidates[:0]
	for _, c := range candidates {
		if !c.IsBlank() {
			out = append(out, c)
		}
	}
	return out, nil
}

// lineReader is a gocsv reader that remembers the file line of every record;
// encoding/csv silently skips empty lines, so record numbers drift from lines
type lineReader struct {
	r     *csv.Reader
	lines []int
}

func newLineReader(r io.Reader) *lineReader {
	cr := csv.NewReader(r)
	cr.FieldsPerRecord = -1
	return &lineReader{r: cr}
}

func (l *lineReader) Read() ([]string, error) {
	record, err := l.r.Read()
	if err != nil {
		return nil, err
	}
	line, _ := l.r.FieldPos(0)
	l.lines = append(l.lines, line)
	return record, nil
}

func (l *lineReader) ReadAll() ([][]string, error) {
	var records [][]string
	for {
		record, err := l.Read()
		if errors.Is(err, io.EOF) {
			return records, nil
		}
		if err != nil {
			return nil, err
		}
		records = append(records, record)
	}
}

func decodeXLSX(r io.Reader) ([]models.ContactCandidate, error) {
	f, err := excelize.OpenReader(r)
	if err != nil {
		return nil, fmt.Errorf("%w: %v", ErrUnsupportedFormat, err)
	}
	defer f.Close()

	sheets := f.GetSheetList()
	if len(sheets) == 0 {
		return nil, nil
	}
	rows, err := f.GetRows(sheets[0])
	if err != nil {
		return nil, err
	}
	if len(rows) == 0 {
		return nil, nil
	}

	header := make([]string, len(rows[0]))
	for i, h := range rows[0] {
		header[i] = NormalizeHeader(h)
	}

	candidates := make([]models.ContactCandidate, 0, len(rows)-1)
	for i, row := range rows[1:] {
		c := models.ContactCandidate{Row: i + 2}
		for i, cell := range row {
			if i >= len(header) {
				break
			}
			setCandidateField(&c, header[i], cell)
		}
		candidates = append(candidates, c)
	}
	return candidates, nil
}

func setCandidateField(c *models.ContactCandidate, field, value string) {
	switch field {
	case "name":
		c.Name = value
	case "department":
		c.Department = value
	case "designation":
		c.Designation = value
	case "phone_number":
		c.PhoneNumber = value
	case "extension":
		c.Extension = value
	case "email":
		c.Email = value
	case "location":
		c.Location = value
	case "institution":
		c.Institution = value
	}
}

// EncodeContacts writes contacts as CSV or XLSX
func EncodeContacts(format string, w io.Writer, contacts []models.Contact) error {
	rows := make([]ContactRow, 0, len(contacts))
	for _, c := range contacts {
		rows = append(rows, newContactRow(c))
	}

	switch format {
	case FormatCSV:
		if len(rows) == 0 {
			_, err := io.WriteString(w, strings.Join(exportHeader, ",")+"\n")
			return err
		}
		return gocsv.Marshal(&rows, w)
	case FormatXLSX:
		return encodeXLSX(w, rows)
	default:
		return fmt.Errorf("%w: %s", ErrUnsupportedFormat, format)
	}
}

func encodeXLSX(w io.Writer, rows []ContactRow) error {
	f := excelize.NewFile()
	defer f.Close()

	if err := f.SetSheetName("Sheet1", exportSheet); err != nil {
		return err
	}

	header := make([]interface{}, len(exportHeader))
	for i, h := range exportHeader {
		header[i] = h
	}
	if err := f.SetSheetRow(exportSheet, "A1", &header); err != nil {
		return err
	}
	for i, row := range rows {
		cell, err := excelize.CoordinatesToCellName(1, i+2)
		if err != nil {
			return err
		}
		values := row.values()
		if err := f.SetSheetRow(exportSheet, cell, &values); err != nil {
			return err
		}
	}

	var buf bytes.Buffer
	if err := f.Write(&buf); err != nil {
		return err
	}
	_, err := buf.WriteTo(w)
	return err
}

// ContentType returns the MIME type of a transfer format
func ContentType(format string) string {
	if format == FormatXLSX {
		return "application/vnd.openxmlformats-officedocument.spreadsheetml.sheet"
	}
	return "text/csv; charset=utf-8"
}
