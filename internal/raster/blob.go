package raster

import (
	"bytes"
	"compress/gzip"
	"encoding/gob"
	"fmt"
)

// EncodeBlob compresses the grid with gob encoding and gzip compression.
func EncodeBlob(g *Grid) ([]byte, error) {
	var buf bytes.Buffer
	gz := gzip.NewWriter(&buf)
	enc := gob.NewEncoder(gz)
	if err := enc.Encode(g); err != nil {
		gz.Close()
		return nil, err
	}
	if err := gz.Close(); err != nil {
		return nil, err
	}
	return buf.Bytes(), nil
}

// DecodeBlob decompresses and decodes a grid from a gob+gzip blob.
func DecodeBlob(blob []byte) (*Grid, error) {
	if len(blob) == 0 {
		return nil, fmt.Errorf("empty grid blob")
	}
	gz, err := gzip.NewReader(bytes.NewReader(blob))
	if err != nil {
		return nil, fmt.Errorf("failed to create gzip reader: %w", err)
	}
	defer gz.Close()

	var g Grid
	if err := gob.NewDecoder(gz).Decode(&g); err != nil {
		return nil, fmt.Errorf("failed to decode grid: %w", err)
	}
	if len(g.Data) != g.Rows*g.Cols {
		return nil, fmt.Errorf("%w: decoded %dx%d grid with %d values", ErrShape, g.Rows, g.Cols, len(g.Data))
	}
	return &g, nil
}
