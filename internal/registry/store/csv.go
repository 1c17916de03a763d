package store

import (
	"context"
	"encoding/csv"
	"errors"
	"fmt"
	"io"
	"log/slog"
	"os"
	"strconv"
	"strings"
	"time"
	"unicode/utf8"

	"go.opentelemetry.io/otel"
	"go.opentelemetry.io/otel/attribute"
	"golang.org/x/text/encoding/charmap"
	"golang.org/x/text/encoding/unicode"

	"idcheck/internal/registry/metrics"
	"idcheck/internal/registry/models"
	id "idcheck/pkg/domain"
)

// Supported source encodings.
const (
	EncodingUTF8        = "utf-8"
	EncodingLatin1      = "latin1"
	EncodingWindows1252 = "windows-1252"
)

const cancelCheckInterval = 10000

// Columns names the header fields that hold each part of a record.
type Columns struct {
	ID            string `yaml:"id"`
	GivenNames    string `yaml:"given_names"`
	FirstSurname  string `yaml:"first_surname"`
	SecondSurname string `yaml:"second_surname"`
}

// DefaultColumns is the header layout used when none is configured.
func DefaultColumns() Columns {
	return Columns{
		ID:            "id",
		GivenNames:    "given_names",
		FirstSurname:  "first_surname",
		SecondSurname: "second_surname",
	}
}

// Positions are zero-based field indices used when the file has no header.
type Positions struct {
	ID            int `yaml:"id"`
	GivenNames    int `yaml:"given_names"`
	FirstSurname  int `yaml:"first_surname"`
	SecondSurname int `yaml:"second_surname"`
}

// DefaultPositions reads the first four fields in record order.
func DefaultPositions() Positions {
	return Positions{ID: 0, GivenNames: 1, FirstSurname: 2, SecondSurname: 3}
}

// PadronPositions fits the national PADRON_COMPLETO.txt export: the ID, four
// administrative fields (electoral code, sex, expiry date, board number),
// then given names and both surnames padded with spaces.
func PadronPositions() Positions {
	return Positions{ID: 0, GivenNames: 5, FirstSurname: 6, SecondSurname: 7}
}

// Validate requires non-negative, distinct indices.
func (p Positions) Validate() error {
	idx := []int{p.ID, p.GivenNames, p.FirstSurname, p.SecondSurname}
	seen := make(map[int]struct{}, len(idx))
	for _, i := range idx {
		if i < 0 {
			return fmt.Errorf("roll position %d is negative", i)
		}
		if _, dup := seen[i]; dup {
			return fmt.Errorf("roll position %d is used twice", i)
		}
		seen[i] = struct{}{}
	}
	return nil
}

// ParsePositions accepts "default", "padron" or four comma-separated indices
// in the order id, given names, first surname, second surname.
func ParsePositions(s string) (Positions, error) {
	switch strings.ToLower(strings.TrimSpace(s)) {
	case "", "default":
		return DefaultPositions(), nil
	case "padron":
		return PadronPositions(), nil
	}
	parts := strings.Split(s, ",")
	if len(parts) != 4 {
		return Positions{}, fmt.Errorf("roll positions %q: want four comma-separated indices", s)
	}
	var n [4]int
	for i, part := range parts {
		v, err := strconv.Atoi(strings.TrimSpace(part))
		if err != nil {
			return Positions{}, fmt.Errorf("roll positions %q: %w", s, err)
		}
		n[i] = v
	}
	p := Positions{ID: n[0], GivenNames: n[1], FirstSurname: n[2], SecondSurname: n[3]}
	return p, p.Validate()
}

// CSVOptions configures a delimited-file source.
type CSVOptions struct {
	Path      string
	Delimiter rune
	Encoding  string
	Columns   Columns
	// NoHeader skips header mapping and reads fields at Positions.
	NoHeader  bool
	Positions Positions
}

// CSVLoader loads the roll from a delimited text file.
type CSVLoader struct {
	opts    CSVOptions
	logger  *slog.Logger
	metrics *metrics.Metrics
}

// NewCSVLoader fills unset options with defaults: comma delimiter, UTF-8,
// DefaultColumns and DefaultPositions.
func NewCSVLoader(opts CSVOptions, logger *slog.Logger, m *metrics.Metrics) *CSVLoader {
	if opts.Delimiter == 0 {
		opts.Delimiter = ','
	}
	if opts.Encoding == "" {
		opts.Encoding = EncodingUTF8
	}
	if opts.Columns == (Columns{}) {
		opts.Columns = DefaultColumns()
	}
	if opts.Positions == (Positions{}) {
		opts.Positions = DefaultPositions()
	}
	if logger == nil {
		logger = slog.New(slog.NewTextHandler(io.Discard, nil))
	}
	return &CSVLoader{opts: opts, logger: logger, metrics: m}
}

// Load opens the configured file and reads it.
func (l *CSVLoader) Load(ctx context.Context) (*Table, error) {
	f, err := os.Open(l.opts.Path)
	if err != nil {
		return nil, fmt.Errorf("open roll file: %w", err)
	}
	defer f.Close()
	return l.Read(ctx, f)
}

// Read decodes and parses r. The source label in the resulting stats is the
// configured path, or "csv" when reading a stream.
func (l *CSVLoader) Read(ctx context.Context, r io.Reader) (*Table, error) {
	source := l.opts.Path
	if source == "" {
		source = "csv"
	}
	ctx, span := otel.Tracer("idcheck/registry").Start(ctx, "registry.LoadCSV")
	defer span.End()
	span.SetAttributes(attribute.String("registry.source", source))

	start := time.Now()
	decoded, err := decodeReader(r, l.opts.Encoding)
	if err != nil {
		return nil, err
	}

	reader := csv.NewReader(decoded)
	reader.Comma = l.opts.Delimiter
	reader.FieldsPerRecord = -1
	reader.LazyQuotes = true
	reader.ReuseRecord = true

	var idx columnIndex
	if l.opts.NoHeader {
		pos := l.opts.Positions
		if err := pos.Validate(); err != nil {
			return nil, err
		}
		idx = columnIndex{id: pos.ID, given: pos.GivenNames, first: pos.FirstSurname, second: pos.SecondSurname}
	} else {
		header, err := reader.Read()
		if err != nil {
			if errors.Is(err, io.EOF) {
				return nil, fmt.Errorf("roll file is empty")
			}
			return nil, fmt.Errorf("read roll header: %w", err)
		}
		idx, err = resolveColumns(header, l.opts.Columns)
		if err != nil {
			return nil, err
		}
	}

	var (
		records  []models.Record
		rejected int
		rows     int
	)
	for {
		row, err := reader.Read()
		if errors.Is(err, io.EOF) {
			break
		}
		if err != nil {
			return nil, fmt.Errorf("read roll row: %w", err)
		}
		rows++
		if rows%cancelCheckInterval == 0 {
			if err := ctx.Err(); err != nil {
				return nil, err
			}
		}

		line, _ := reader.FieldPos(0)
		if len(row) <= idx.max() {
			rejected++
			l.logger.WarnContext(ctx, "roll row has too few fields", "line", line, "fields", len(row))
			continue
		}
		citizenID, err := id.ParseCitizenID(row[idx.id])
		if err != nil {
			rejected++
			l.logger.WarnContext(ctx, "roll row has unparseable id", "line", line)
			continue
		}
		records = append(records, models.Record{
			ID:            citizenID,
			GivenNames:    row[idx.given],
			FirstSurname:  row[idx.first],
			SecondSurname: row[idx.second],
		})
	}

	table := NewTable(records)
	table.stats.Source = source
	table.stats.Rejected = rejected
	table.stats.Duration = time.Since(start)

	span.SetAttributes(
		attribute.Int("registry.records", table.stats.Records),
		attribute.Int("registry.rejected", rejected),
	)
	l.metrics.ObserveLoad(table.stats)
	l.logger.InfoContext(ctx, "electoral roll loaded",
		"source", source,
		"records", table.stats.Records,
		"duplicates", table.stats.Duplicates,
		"rejected", rejected,
		"duration_ms", table.stats.Duration.Milliseconds(),
	)
	return table, nil
}

type columnIndex struct {
	id, given, first, second int
}

func (c columnIndex) max() int {
	return max(c.id, c.given, c.first, c.second)
}

func resolveColumns(header []string, cols Columns) (columnIndex, error) {
	positions := make(map[string]int, len(header))
	for i, name := range header {
		key := strings.ToLower(strings.TrimSpace(name))
		if _, seen := positions[key]; !seen {
			positions[key] = i
		}
	}
	lookup := func(name string) (int, error) {
		i, ok := positions[strings.ToLower(strings.TrimSpace(name))]
		if !ok {
			return 0, fmt.Errorf("roll header is missing column %q", name)
		}
		return i, nil
	}

	var (
		idx columnIndex
		err error
	)
	if idx.id, err = lookup(cols.ID); err != nil {
		return columnIndex{}, err
	}
	if idx.given, err = lookup(cols.GivenNames); err != nil {
		return columnIndex{}, err
	}
	if idx.first, err = lookup(cols.FirstSurname); err != nil {
		return columnIndex{}, err
	}
	if idx.second, err = lookup(cols.SecondSurname); err != nil {
		return columnIndex{}, err
	}
	return idx, nil
}

func decodeReader(r io.Reader, encoding string) (io.Reader, error) {
	switch strings.ToLower(strings.TrimSpace(encoding)) {
	case "", EncodingUTF8, "utf8":
		return unicode.UTF8BOM.NewDecoder().Reader(r), nil
	case EncodingLatin1, "iso-8859-1":
		return charmap.ISO8859_1.NewDecoder().Reader(r), nil
	case EncodingWindows1252, "cp1252":
		return charmap.Windows1252.NewDecoder().Reader(r), nil
	default:
		return nil, fmt.Errorf("unsupported roll encoding %q", encoding)
	}
}

// ParseDelimiter accepts a single character or the names "tab", "comma",
// "semicolon" and "pipe".
func ParseDelimiter(s string) (rune, error) {
	switch strings.ToLower(s) {
	case "", "comma":
		return ',', nil
	case "tab", `\t`:
		return '\t', nil
	case "semicolon":
		return ';', nil
	case "pipe":
		return '|', nil
	}
	r, size := utf8.DecodeRuneInString(s)
	if size != len(s) || r == utf8.RuneError || r == '"' || r == '\r' || r == '\n' {
		return 0, fmt.Errorf("invalid roll delimiter %q", s)
	}
	return r, nil
}
