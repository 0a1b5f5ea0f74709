// Package xlsx provides NBG account-movement workbook parsing.
package xlsx

import (
	"bytes"
	"context"
	"fmt"
	"io"
	"path/filepath"
	"strings"

	"github.com/xuri/excelize/v2"

	"github.com/Kontses/NBG-Analytics/internal/parser"
)

// zipMagic is the OOXML container signature; oleMagic is the legacy
// compound-file signature of pre-2007 .xls workbooks.
var (
	zipMagic = []byte{0x50, 0x4b, 0x03, 0x04}
	oleMagic = []byte{0xd0, 0xcf, 0x11, 0xe0, 0xa1, 0xb1, 0x1a, 0xe1}
)

// Parser implements NBG workbook parsing with a stateless design.
// The struct has no fields because workbook parsing requires no configuration
// state, making the parser safe for concurrent use without locking.
type Parser struct{}

var parserInstance = &Parser{}

// NewParser returns the shared workbook parser instance.
// Safe for concurrent use due to stateless design.
func NewParser() *Parser {
	return parserInstance
}

// getFileInfo returns a formatted file path string for error messages
func getFileInfo(meta *parser.Metadata) string {
	if meta != nil && meta.FilePath() != "" {
		return fmt.Sprintf(" from %s", meta.FilePath())
	}
	return ""
}

// Name returns the parser identifier
func (p *Parser) Name() string {
	return "xlsx-nbg"
}

// CanParse checks if this parser can handle the file based on extension and
// container magic. Legacy .xls passes here so Parse can reject it with a
// specific re-export hint instead of a generic "no parser found".
func (p *Parser) CanParse(path string, header []byte) bool {
	ext := strings.ToLower(filepath.Ext(path))
	if ext != ".xlsx" && ext != ".xls" {
		return false
	}

	if len(header) >= len(zipMagic) && bytes.HasPrefix(header, zipMagic) {
		return true
	}
	if len(header) >= len(oleMagic) && bytes.HasPrefix(header, oleMagic) {
		return true
	}
	// Short or missing headers: fall back to the extension check alone so
	// zero-byte sniff reads don't mask an otherwise readable workbook.
	return len(header) < len(zipMagic)
}

// Parse extracts raw rows from the first worksheet. It fails fast on an
// unreadable container and never on individual cell contents.
func (p *Parser) Parse(ctx context.Context, r io.Reader, meta *parser.Metadata) (*parser.RawSheet, error) {
	select {
	case <-ctx.Done():
		return nil, ctx.Err()
	default:
	}

	head := make([]byte, len(oleMagic))
	n, err := io.ReadFull(r, head)
	if err != nil && err != io.ErrUnexpectedEOF && err != io.EOF {
		return nil, fmt.Errorf("failed to read workbook header%s: %w", getFileInfo(meta), err)
	}
	head = head[:n]

	if bytes.HasPrefix(head, oleMagic) {
		return nil, fmt.Errorf("legacy .xls workbook detected%s: re-export the statement as .xlsx from e-banking", getFileInfo(meta))
	}

	f, err := excelize.OpenReader(io.MultiReader(bytes.NewReader(head), r))
	if err != nil {
		return nil, fmt.Errorf("failed to open workbook%s: %w", getFileInfo(meta), err)
	}
	defer f.Close()

	sheets := f.GetSheetList()
	if len(sheets) == 0 {
		return nil, fmt.Errorf("workbook has no worksheets%s", getFileInfo(meta))
	}
	sheetName := sheets[0]

	rows, err := f.GetRows(sheetName)
	if err != nil {
		return nil, fmt.Errorf("failed to read worksheet %q%s: %w", sheetName, getFileInfo(meta), err)
	}

	if len(rows) == 0 {
		return &parser.RawSheet{SheetName: sheetName, Rows: nil}, nil
	}

	columns := p.mapHeader(rows[0])
	if len(columns) == 0 {
		return nil, fmt.Errorf("worksheet %q has no recognizable header labels%s", sheetName, getFileInfo(meta))
	}

	out := make([]parser.Row, 0, len(rows)-1)
	for _, cells := range rows[1:] {
		row := p.mapRow(columns, cells)
		if len(row) == 0 {
			continue // blank row
		}
		out = append(out, row)
	}

	return &parser.RawSheet{SheetName: sheetName, Rows: out}, nil
}

// mapHeader resolves header labels to known columns by cell index.
// Unknown labels map to nothing and are silently ignored.
func (p *Parser) mapHeader(header []string) map[int]parser.Column {
	columns := make(map[int]parser.Column)
	for i, label := range header {
		if col, ok := parser.ColumnForLabel(label); ok {
			columns[i] = col
		}
	}
	return columns
}

// mapRow builds a Row from one worksheet row. Cells beyond the header width
// are dropped; empty cells are omitted (Row.Get defaults them to "").
func (p *Parser) mapRow(columns map[int]parser.Column, cells []string) parser.Row {
	row := make(parser.Row, len(columns))
	for i, value := range cells {
		col, ok := columns[i]
		if !ok {
			continue
		}
		value = strings.TrimSpace(value)
		if value == "" {
			continue
		}
		row[col] = value
	}
	return row
}
