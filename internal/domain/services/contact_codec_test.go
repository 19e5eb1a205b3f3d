package services

import (
	"bytes"
	"strings"
	"testing"
	"time"

	"actrec-directory/internal/domain/models"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"github.com/xuri/excelize/v2"
)

func TestDecodeContacts_CSVHeaders(t *testing.T) {
	input := "Full Name,Dept,Ext,E-Mail,Phone,Unused\n" +
		"Dr. A,Radiology,100,A@X.com,022-1234,zzz\n" +
		",,,,,\n" +
		"Dr. B,Surgery,101,b@x.com,,\n"

	candidates, err := DecodeContacts(FormatCSV, strings.NewReader(input))
	require.NoError(t, err)
	require.Len(t, candidates, 2)
	assert.Equal(t, models.ContactCandidate{
		Name:        "Dr. A",
		Department:  "Radiology",
		Extension:   "100",
		Email:       "A@X.com",
		PhoneNumber: "022-1234",
		Row:         2,
	}, candidates[0])
	assert.Equal(t, "101", candidates[1].Extension)
	assert.Equal(t, 4, candidates[1].Row)
}

func TestDecodeContacts_RowsFollowFileLines(t *testing.T) {
	input := "Name,Email,Ext\n" +
		"\n" +
		"A,a@x.com,1\n" +
		",,\n" +
		"B,b@x.com,2\n"

	candidates, err := DecodeContacts(FormatCSV, strings.NewReader(input))
	require.NoError(t, err)
	require.Len(t, candidates, 2)
	assert.Equal(t, 3, candidates[0].Row)
	assert.Equal(t, 5, candidates[1].Row)
}

func TestContactsXLSXRoundTrip(t *testing.T) {
	now := time.Date(2024, 1, 2, 3, 4, 5, 0, time.UTC)
	contacts := []models.Contact{{
		BaseModel:   models.BaseModel{ID: "c-1", CreatedAt: now, UpdatedAt: now},
		Name:        "Dr. A",
		Department:  "Radiology",
		Extension:   "100",
		Email:       "a@x.com",
		Institution: "ACTREC",
	}}

	var buf bytes.Buffer
	require.NoError(t, EncodeContacts(FormatXLSX, &buf, contacts))

	candidates, err := DecodeContacts(FormatXLSX, &buf)
	require.NoError(t, err)
	require.Len(t, candidates, 1)
	assert.Equal(t, 2, candidates[0].Row)
	assert.Equal(t, "Dr. A", candidates[0].Name)
	assert.Equal(t, "a@x.com", candidates[0].Email)
	assert.Equal(t, "ACTREC", candidates[0].Institution)
}

func TestEncodeContacts_CSV(t *testing.T) {
	var buf bytes.Buffer
	require.NoError(t, EncodeContacts(FormatCSV, &buf, nil))
	assert.True(t, strings.HasPrefix(buf.String(), "id,name,department"))

	buf.Reset()
	require.NoError(t, EncodeContacts(FormatCSV, &buf, []models.Contact{{Name: "A", Email: "a@x.com", Extension: "1"}}))
	lines := strings.Split(strings.TrimSpace(buf.String()), "\n")
	require.Len(t, lines, 2)
	assert.Contains(t, lines[1], "a@x.com")
}

func TestFormatFromFilename(t *testing.T) {
	format, err := FormatFromFilename("staff.XLSX")
	require.NoError(t, err)
	assert.Equal(t, FormatXLSX, format)

	_, err = FormatFromFilename("staff.pdf")
	assert.ErrorIs(t, err, ErrUnsupportedFormat)
}

func TestEncodeContacts_QuotesFormulaCells(t *testing.T) {
	contacts := []models.Contact{{
		Name:        "=HYPERLINK(\"http://evil\")",
		Department:  "@SUM(A1)",
		PhoneNumber: "+91 22 2740 5000",
		Designation: "-1+1",
		Extension:   "100",
		Email:       "a@x.com",
	}}

	var buf bytes.Buffer
	require.NoError(t, EncodeContacts(FormatCSV, &buf, contacts))
	out := buf.String()
	assert.Contains(t, out, `"'=HYPERLINK(""http://evil"")"`)
	assert.Contains(t, out, "'@SUM(A1)")
	assert.Contains(t, out, "'+91 22 2740 5000")
	assert.Contains(t, out, "'-1+1")
	assert.Contains(t, out, ",100,a@x.com,")

	buf.Reset()
	require.NoError(t, EncodeContacts(FormatXLSX, &buf, contacts))
	f, err := excelize.OpenReader(&buf)
	require.NoError(t, err)
	defer f.Close()
	name, err := f.GetCellValue(exportSheet, "B2")
	require.NoError(t, err)
	assert.Equal(t, `'=HYPERLINK("http://evil")`, name)
}
