package raster

import (
	"errors"
	"math"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func sequential(rows, cols int) *Grid {
	g := New(rows, cols)
	for i := range g.Data {
		g.Data[i] = float64(i)
	}
	return g
}

func TestInteriorTrimsOneCellPerEdge(t *testing.T) {
	g := sequential(10, 10)
	in, err := g.Interior(1)
	require.NoError(t, err)
	assert.Equal(t, 8, in.Rows)
	assert.Equal(t, 8, in.Cols)
	assert.Equal(t, g.At(1, 1), in.At(0, 0))
	assert.Equal(t, g.At(8, 8), in.At(7, 7))
	assert.Equal(t, g.At(1, 8), in.At(0, 7))
}

func TestInteriorKeepsSource(t *testing.T) {
	g := sequential(4, 5)
	in, err := g.Interior(1)
	require.NoError(t, err)
	in.Set(0, 0, -1)
	assert.Equal(t, 6.0, g.At(1, 1), "interior must not alias the source")
}

func TestInteriorTooSmall(t *testing.T) {
	_, err := New(2, 5).Interior(1)
	assert.True(t, errors.Is(err, ErrShape))
	_, err = New(5, 5).Interior(-1)
	assert.True(t, errors.Is(err, ErrShape))
}

func TestDenseSharesData(t *testing.T) {
	g := sequential(3, 2)
	d := g.Dense()
	d.Set(2, 1, 42)
	assert.Equal(t, 42.0, g.At(2, 1))

	back := FromDense(d)
	assert.Equal(t, g.Data, back.Data)
}

func TestValidate(t *testing.T) {
	require.NoError(t, Filled(2, 2, 1).Validate())

	g := Filled(2, 2, 1)
	g.Data[3] = math.NaN()
	assert.Error(t, g.Validate())

	assert.True(t, errors.Is((&Grid{Rows: 2, Cols: 2, Data: []float64{1}}).Validate(), ErrShape))
	var nilGrid *Grid
	assert.True(t, errors.Is(nilGrid.Validate(), ErrShape))
}

func TestSummaryAndScale(t *testing.T) {
	g := sequential(2, 2).Scale(1000)
	s := g.Summary()
	assert.Equal(t, 0.0, s.Min)
	assert.Equal(t, 3000.0, s.Max)
	assert.Equal(t, 1500.0, s.Mean)
}

func TestIsUniform(t *testing.T) {
	assert.True(t, Filled(3, 3, 5000).IsUniform(1e-12))
	g := Filled(3, 3, 5000)
	g.Set(1, 1, 5001)
	assert.False(t, g.IsUniform(1e-6))
}

func TestBlobRoundTrip(t *testing.T) {
	g := sequential(6, 7)
	blob, err := EncodeBlob(g)
	require.NoError(t, err)
	got, err := DecodeBlob(blob)
	require.NoError(t, err)
	assert.Equal(t, g, got)

	_, err = DecodeBlob(nil)
	assert.Error(t, err)
}

func TestValidateRamp(t *testing.T) {
	assert.NoError(t, ValidateRamp(RampRainbow))
	assert.Error(t, ValidateRamp("plaid"))
}
