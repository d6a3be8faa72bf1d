package collector

import (
	"bufio"
	"errors"
	"fmt"
	"math"
	"os"
	"strconv"
	"strings"
	"unicode"

	"StockForecaster/internal/model"

	"github.com/rs/zerolog"
)

// IngestionError reports a file that could not be read or a row that could
// not be parsed. Line is 1-based and zero when the file itself failed.
type IngestionError struct {
	Path string
	Line int
	Text string
	Err  error
}

func (e *IngestionError) Error() string {
	if e.Line == 0 {
		return fmt.Sprintf("ingest %s: %v", e.Path, e.Err)
	}
	return fmt.Sprintf("ingest %s line %d %q: %v", e.Path, e.Line, e.Text, e.Err)
}

func (e *IngestionError) Unwrap() error { return e.Err }

var errShortRow = errors.New("expected date, price and volume")

// FileSource reads one observation per line: a date token, then price, then
// volume. The date runs up to the first comma; the remaining fields may be
// separated by commas or whitespace. Blank lines are ignored.
type FileSource struct {
	Path string
	// SkipInvalid logs and drops unparseable rows instead of failing.
	SkipInvalid bool
	Log         zerolog.Logger
}

// NewFileSource creates a FileSource for path.
func NewFileSource(path string, skipInvalid bool, log zerolog.Logger) *FileSource {
	return &FileSource{Path: path, SkipInvalid: skipInvalid, Log: log}
}

func (f *FileSource) Name() string { return "file:" + f.Path }

// Load reads the whole file. The handle is closed on every path.
func (f *FileSource) Load() (*model.Series, error) {
	file, err := os.Open(f.Path)
	if err != nil {
		return nil, &IngestionError{Path: f.Path, Err: err}
	}
	defer file.Close()

	series := &model.Series{}
	skipped := 0
	scanner := bufio.NewScanner(file)
	lineNo := 0
	for scanner.Scan() {
		lineNo++
		line := strings.TrimSpace(scanner.Text())
		if line == "" {
			continue
		}
		price, volume, err := parseRow(line)
		if err != nil {
			ierr := &IngestionError{Path: f.Path, Line: lineNo, Text: line, Err: err}
			if !f.SkipInvalid {
				return nil, ierr
			}
			f.Log.Warn().Err(ierr).Msg("skipping invalid row")
			skipped++
			continue
		}
		series.Prices = append(series.Prices, price)
		series.Volumes = append(series.Volumes, volume)
	}
	if err := scanner.Err(); err != nil {
		return nil, &IngestionError{Path: f.Path, Line: lineNo + 1, Err: err}
	}

	if skipped > 0 {
		f.Log.Warn().Int("skipped", skipped).Int("kept", series.Len()).Msg("invalid rows dropped")
	}
	return series, nil
}

func parseRow(line string) (price, volume float64, err error) {
	var rest string
	if i := strings.IndexByte(line, ','); i >= 0 {
		rest = line[i+1:]
	} else {
		// No comma: the date is the first whitespace-separated token.
		fields := strings.Fields(line)
		if len(fields) < 3 {
			return 0, 0, errShortRow
		}
		rest = strings.Join(fields[1:], " ")
	}

	fields := strings.FieldsFunc(rest, func(r rune) bool {
		return r == ',' || unicode.IsSpace(r)
	})
	if len(fields) < 2 {
		return 0, 0, errShortRow
	}
	if price, err = parseValue("price", fields[0]); err != nil {
		return 0, 0, err
	}
	if volume, err = parseValue("volume", fields[1]); err != nil {
		return 0, 0, err
	}
	return price, volume, nil
}

func parseValue(field, s string) (float64, error) {
	v, err := strconv.ParseFloat(s, 64)
	if err != nil {
		return 0, fmt.Errorf("parse %s %q: %w", field, s, err)
	}
	if math.IsNaN(v) || math.IsInf(v, 0) {
		return 0, fmt.Errorf("parse %s %q: not a finite number", field, s)
	}
	return v, nil
}
