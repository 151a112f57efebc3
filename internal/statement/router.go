// Package statement routes an uploaded statement to the right extraction
// pipeline and normalizes the outcome. CSVs go through the dialect-aware
// column parser; PDFs are rasterized and handed to the vision model. Both
// converge on the same canonical transaction schema.
package statement

import (
	"bytes"
	"context"
	"path/filepath"
	"strings"

	"github.com/rs/zerolog"

	"github.com/banktocfo/banktocfo/internal/csvparse"
	"github.com/banktocfo/banktocfo/internal/domain"
	"github.com/banktocfo/banktocfo/internal/pdfimage"
	"github.com/banktocfo/banktocfo/internal/vision"
)

// Kind is the sniffed document type.
type Kind string

const (
	KindPDF Kind = "pdf"
	KindCSV Kind = "csv"
)

var pdfMagic = []byte("%PDF-")

// Result is the normalized outcome of parsing one statement, whatever the
// source format.
type Result struct {
	Transactions []domain.Transaction
	Kind         Kind
	Dialect      domain.Dialect
	// SkippedRows counts malformed CSV rows dropped from a partial parse.
	SkippedRows int
	// PagesFailed counts PDF pages that yielded nothing after retries.
	PagesFailed int
	PagesTotal  int
}

// Parser dispatches statements by sniffed type and owns the vision-side
// extraction policy (render DPI, concurrency, retries, result cache).
type Parser struct {
	extractor vision.PageExtractor
	cache     *vision.Cache
	opts      vision.Options
	renderDPI float64
	log       zerolog.Logger
}

// NewParser wires a router around the given page extractor. A nil cache
// disables extraction memoization.
func NewParser(extractor vision.PageExtractor, cache *vision.Cache, opts vision.Options, renderDPI float64, log zerolog.Logger) *Parser {
	return &Parser{
		extractor: extractor,
		cache:     cache,
		opts:      opts,
		renderDPI: renderDPI,
		log:       log,
	}
}

// Sniff resolves the document kind from the declared filename and the
// content's magic bytes. The content wins over the extension when the two
// disagree on PDF, since browsers routinely mislabel downloads.
func Sniff(filename string, data []byte) (Kind, error) {
	if bytes.HasPrefix(data, pdfMagic) {
		return KindPDF, nil
	}
	switch strings.ToLower(filepath.Ext(filename)) {
	case ".pdf":
		return KindPDF, nil
	case ".csv":
		return KindCSV, nil
	}
	return "", ErrUnsupportedFormat
}

// Parse extracts canonical transactions from an uploaded statement.
// Unsupported types fail fast before any expensive work. Row- and page-level
// failures are absorbed into skip counts; only zero usable transactions,
// corrupt documents, or unsupported input produce an error.
func (p *Parser) Parse(ctx context.Context, filename string, data []byte) (*Result, error) {
	kind, err := Sniff(filename, data)
	if err != nil {
		return nil, err
	}

	switch kind {
	case KindCSV:
		return p.parseCSV(data)
	default:
		return p.parsePDF(ctx, data)
	}
}

func (p *Parser) parseCSV(data []byte) (*Result, error) {
	res, err := csvparse.Extract(bytes.NewReader(data))
	if err != nil {
		return nil, err
	}
	if len(res.Transactions) == 0 {
		return nil, &ExtractionError{Rows: res.SkippedRows}
	}

	p.log.Info().
		Str("dialect", string(res.Dialect)).
		Int("transactions", len(res.Transactions)).
		Int("skipped_rows", res.SkippedRows).
		Msg("CSV statement parsed")

	return &Result{
		Transactions: res.Transactions,
		Kind:         KindCSV,
		Dialect:      res.Dialect,
		SkippedRows:  res.SkippedRows,
	}, nil
}

func (p *Parser) parsePDF(ctx context.Context, data []byte) (*Result, error) {
	pages, err := pdfimage.Render(data, p.renderDPI)
	if err != nil {
		return nil, &DocumentError{Err: err}
	}

	extract := func() (*vision.Result, error) {
		return vision.ExtractPages(ctx, p.extractor, pages, p.opts, p.log)
	}

	var vres *vision.Result
	if p.cache != nil {
		vres, err = p.cache.Do(vision.Fingerprint(data), extract)
	} else {
		vres, err = extract()
	}
	if err != nil {
		return nil, err
	}

	if len(vres.Transactions) == 0 {
		return nil, &ExtractionError{Pages: vres.PagesTotal}
	}

	p.log.Info().
		Int("pages", vres.PagesTotal).
		Int("pages_failed", vres.PagesFailed).
		Int("transactions", len(vres.Transactions)).
		Msg("PDF statement parsed")

	return &Result{
		Transactions: vres.Transactions,
		Kind:         KindPDF,
		Dialect:      domain.DialectVision,
		PagesFailed:  vres.PagesFailed,
		PagesTotal:   vres.PagesTotal,
	}, nil
}
