package ingest

import (
	"context"
	"fmt"
	"io"
	"path/filepath"
	"strings"

	"github.com/Veraticus/audithawk/internal/model"
)

// Format is an input file format understood by Parse.
type Format string

// Supported formats.
const (
	FormatCSV Format = "csv"
	FormatOFX Format = "ofx"
)

// DetectFormat maps a file name to its format by extension.
func DetectFormat(fileName string) (Format, error) {
	switch strings.ToLower(filepath.Ext(fileName)) {
	case ".csv":
		return FormatCSV, nil
	case ".ofx", ".qfx":
		return FormatOFX, nil
	default:
		return "", fmt.Errorf("%w: %q", ErrUnsupportedFormat, fileName)
	}
}

// Parse reads an uploaded file and dispatches on its extension. Reading the
// file is the only blocking step of an analysis.
func Parse(ctx context.Context, fileName string, r io.Reader) ([]model.TransactionRecord, error) {
	if strings.TrimSpace(fileName) == "" || r == nil {
		return nil, ErrNoFile
	}

	format, err := DetectFormat(fileName)
	if err != nil {
		return nil, err
	}

	switch format {
	case FormatOFX:
		return ParseOFX(ctx, r)
	default:
		content, err := io.ReadAll(r)
		if err != nil {
			return nil, fmt.Errorf("failed to read %s: %w", fileName, err)
		}
		if err := ctx.Err(); err != nil {
			return nil, err
		}
		return ParseCSV(string(content))
	}
}
