package statement

import (
	"context"
	"errors"
	"testing"

	"github.com/rs/zerolog"
	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/banktocfo/banktocfo/internal/domain"
	"github.com/banktocfo/banktocfo/internal/vision"
)

type fixedExtractor struct {
	txs []domain.Transaction
	err error
}

func (f *fixedExtractor) ExtractPage(ctx context.Context, pagePNG []byte) ([]domain.Transaction, error) {
	return f.txs, f.err
}

func testParser(ex vision.PageExtractor) *Parser {
	opts := vision.DefaultOptions()
	opts.RetryDelay = 0
	return NewParser(ex, nil, opts, 72, zerolog.Nop())
}

func TestSniff(t *testing.T) {
	tests := []struct {
		name     string
		filename string
		data     []byte
		want     Kind
		wantErr  bool
	}{
		{"pdf magic bytes", "statement.bin", []byte("%PDF-1.7 ..."), KindPDF, false},
		{"pdf extension", "statement.pdf", []byte("no magic here"), KindPDF, false},
		{"csv extension", "export.csv", []byte("Date,Description,Amount"), KindCSV, false},
		{"uppercase extension", "EXPORT.CSV", []byte("Date,Amount"), KindCSV, false},
		{"magic wins over csv extension", "export.csv", []byte("%PDF-1.4"), KindPDF, false},
		{"unsupported", "notes.txt", []byte("hello"), "", true},
		{"no extension no magic", "statement", []byte("data"), "", true},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			kind, err := Sniff(tt.filename, tt.data)
			if tt.wantErr {
				assert.ErrorIs(t, err, ErrUnsupportedFormat)
				return
			}
			require.NoError(t, err)
			assert.Equal(t, tt.want, kind)
		})
	}
}

func TestParse_UnsupportedFailsFast(t *testing.T) {
	p := testParser(&fixedExtractor{})

	_, err := p.Parse(context.Background(), "statement.docx", []byte("not a statement"))
	assert.ErrorIs(t, err, ErrUnsupportedFormat)
}

func TestParse_CSV(t *testing.T) {
	p := testParser(&fixedExtractor{})
	data := []byte("Date,Description,Amount\n2024-01-15,COFFEE,-4.50\nbadrow,,\n")

	res, err := p.Parse(context.Background(), "export.csv", data)
	require.NoError(t, err)

	assert.Equal(t, KindCSV, res.Kind)
	assert.Equal(t, domain.DialectGeneric, res.Dialect)
	require.Len(t, res.Transactions, 1)
	assert.Equal(t, 1, res.SkippedRows)
	assert.True(t, res.Transactions[0].Amount.Equal(decimal.RequireFromString("-4.50")))
}

func TestParse_CSVNoUsableRows(t *testing.T) {
	p := testParser(&fixedExtractor{})
	data := []byte("Date,Description,Amount\nnope,BAD,xx\nalso bad,WORSE,yy\n")

	_, err := p.Parse(context.Background(), "export.csv", data)

	var extErr *ExtractionError
	require.ErrorAs(t, err, &extErr)
	assert.Equal(t, 2, extErr.Rows)
}

// minimalPDF is a structurally valid document with one blank page.
const minimalPDF = "%PDF-1.4\n" +
	"1 0 obj\n<< /Type /Catalog /Pages 2 0 R >>\nendobj\n" +
	"2 0 obj\n<< /Type /Pages /Kids [3 0 R] /Count 1 >>\nendobj\n" +
	"3 0 obj\n<< /Type /Page /Parent 2 0 R /MediaBox [0 0 612 792] >>\nendobj\n" +
	"xref\n0 4\n" +
	"0000000000 65535 f \n" +
	"0000000009 00000 n \n" +
	"0000000058 00000 n \n" +
	"0000000115 00000 n \n" +
	"trailer\n<< /Size 4 /Root 1 0 R >>\nstartxref\n186\n%%EOF\n"

func TestParse_PDFNoTransactions(t *testing.T) {
	p := testParser(&fixedExtractor{})

	_, err := p.Parse(context.Background(), "statement.pdf", []byte(minimalPDF))

	var extErr *ExtractionError
	require.ErrorAs(t, err, &extErr)
	assert.Equal(t, 1, extErr.Pages)
}

func TestParse_CorruptPDF(t *testing.T) {
	p := testParser(&fixedExtractor{})

	// Carries the PDF magic but no valid structure behind it.
	_, err := p.Parse(context.Background(), "statement.pdf", []byte("%PDF-1.7 garbage"))

	var docErr *DocumentError
	assert.ErrorAs(t, err, &docErr)
}

func TestExtractionError_Messages(t *testing.T) {
	assert.Contains(t, (&ExtractionError{Pages: 4}).Error(), "4 pages")
	assert.Equal(t, "no valid transactions found in file", (&ExtractionError{Rows: 3}).Error())
}

func TestDocumentError_Unwrap(t *testing.T) {
	inner := errors.New("bad xref table")
	err := &DocumentError{Err: inner}
	assert.ErrorIs(t, err, inner)
	assert.Contains(t, err.Error(), "malformed PDF")
}

func TestParse_EmptyCSV(t *testing.T) {
	p := testParser(&fixedExtractor{})

	_, err := p.Parse(context.Background(), "empty.csv", []byte(""))

	var extErr *ExtractionError
	require.ErrorAs(t, err, &extErr)
	assert.Equal(t, 0, extErr.Rows)
}
