package collector

import (
	"errors"
	"os"
	"path/filepath"
	"testing"

	"github.com/rs/zerolog"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func writeFile(t *testing.T, body string) string {
	t.Helper()
	path := filepath.Join(t.TempDir(), "stock_data.csv")
	require.NoError(t, os.WriteFile(path, []byte(body), 0o644))
	return path
}

func TestFileSource_Formats(t *testing.T) {
	tests := []struct {
		name    string
		body    string
		prices  []float64
		volumes []float64
	}{
		{
			name:    "comma separated",
			body:    "2024-01-02,101.5,20000\n2024-01-03,102.25,21000\n",
			prices:  []float64{101.5, 102.25},
			volumes: []float64{20000, 21000},
		},
		{
			name:    "comma then whitespace",
			body:    "2024-01-02,101.5 20000\n2024-01-03, 102.25  21000\n",
			prices:  []float64{101.5, 102.25},
			volumes: []float64{20000, 21000},
		},
		{
			name:    "date with spaces",
			body:    "Jan 2 2024,101.5,20000\n",
			prices:  []float64{101.5},
			volumes: []float64{20000},
		},
		{
			name:    "whitespace only",
			body:    "2024-01-02 101.5 20000\n",
			prices:  []float64{101.5},
			volumes: []float64{20000},
		},
		{
			name:    "blank lines and CRLF",
			body:    "\r\n2024-01-02,1,2\r\n\r\n2024-01-03,3,4\r\n",
			prices:  []float64{1, 3},
			volumes: []float64{2, 4},
		},
		{
			name:    "extra fields ignored",
			body:    "2024-01-02,1,2,open,close\n",
			prices:  []float64{1},
			volumes: []float64{2},
		},
		{
			name: "empty file",
			body: "",
		},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			src := NewFileSource(writeFile(t, tt.body), false, zerolog.Nop())
			s, err := src.Load()
			require.NoError(t, err)
			assert.Equal(t, tt.prices, s.Prices)
			assert.Equal(t, tt.volumes, s.Volumes)
		})
	}
}

func TestFileSource_InvalidRow(t *testing.T) {
	tests := []struct {
		name string
		body string
		line int
	}{
		{"header row", "Date,Price,Volume\n2024-01-02,1,2\n", 1},
		{"missing volume", "2024-01-02,1,2\n2024-01-03,5\n", 2},
		{"bad price", "2024-01-02,1,2\n\n2024-01-04,abc,2\n", 3},
		{"nan volume", "2024-01-02,1,NaN\n", 1},
		{"single token", "2024-01-02\n", 1},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			src := NewFileSource(writeFile(t, tt.body), false, zerolog.Nop())
			_, err := src.Load()
			var ierr *IngestionError
			require.ErrorAs(t, err, &ierr)
			assert.Equal(t, tt.line, ierr.Line)
			assert.Contains(t, err.Error(), "line")
		})
	}
}

func TestFileSource_SkipInvalid(t *testing.T) {
	body := "Date,Price,Volume\n2024-01-02,1,2\n2024-01-03,oops,2\n2024-01-04,3,4\n"
	src := NewFileSource(writeFile(t, body), true, zerolog.Nop())
	s, err := src.Load()
	require.NoError(t, err)
	assert.Equal(t, []float64{1, 3}, s.Prices)
	assert.Equal(t, []float64{2, 4}, s.Volumes)
}

func TestFileSource_MissingFile(t *testing.T) {
	src := NewFileSource(filepath.Join(t.TempDir(), "nope.csv"), false, zerolog.Nop())
	_, err := src.Load()
	var ierr *IngestionError
	require.ErrorAs(t, err, &ierr)
	assert.Equal(t, 0, ierr.Line)
	assert.True(t, errors.Is(err, os.ErrNotExist))
}

func TestMockSource(t *testing.T) {
	src := &MockSource{Base: 100, Step: 0.1, Count: 80, Volume: 5000}
	s, err := src.Load()
	require.NoError(t, err)
	require.Equal(t, 80, s.Len())
	assert.InDelta(t, 100.0, s.Prices[0], 1e-12)
	assert.InDelta(t, 107.9, s.Prices[79], 1e-9)
	for i := 1; i < s.Len(); i++ {
		assert.Greater(t, s.Prices[i], s.Prices[i-1])
	}
	assert.Equal(t, 5000.0, s.Volumes[42])
}

func TestCollector_Collect(t *testing.T) {
	col := NewCollector(&MockSource{Prices: []float64{1, 2, 3}, Volume: 7}, zerolog.Nop())
	s, err := col.Collect()
	require.NoError(t, err)
	assert.Equal(t, []float64{7, 7, 7}, s.Volumes)

	col = NewCollector(&MockSource{Prices: []float64{1, 2}, Volumes: []float64{1}}, zerolog.Nop())
	_, err = col.Collect()
	assert.Error(t, err)
}

func TestCollector_WrapsIngestionError(t *testing.T) {
	col := NewCollector(NewFileSource(filepath.Join(t.TempDir(), "nope.csv"), false, zerolog.Nop()), zerolog.Nop())
	_, err := col.Collect()
	var ierr *IngestionError
	assert.ErrorAs(t, err, &ierr)
}
