// Package ingest turns uploaded audit files into ordered transaction records.
package ingest

import "errors"

// Ingestion errors. Each one aborts the whole ingestion; no partial result is
// ever returned alongside them.
var (
	ErrMissingColumn     = errors.New("missing required column")
	ErrNoDataRows        = errors.New("no data rows")
	ErrNoFile            = errors.New("no file provided")
	ErrUnsupportedFormat = errors.New("unsupported file format")
)
