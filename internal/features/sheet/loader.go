package sheet

// Tabular loader
// Reads an uploaded CSV stream into a typed, column-oriented table
// A column is numeric only when every one of its cells parses as a float

import (
	"encoding/csv"
	"errors"
	"fmt"
	"io"
	"math"
	"strconv"
	"strings"
	"unicode/utf8"

	"traffic-infographic/internal/infra/failure"
)

const stageLoader = "loader"

type CellKind int

const (
	KindText CellKind = iota
	KindNumeric
)

func (k CellKind) String() string {
	if k == KindNumeric {
		return "numeric"
	}
	return "text"
}

// Column keeps the raw cell text for every column and the parsed values for
// numeric ones.
type Column struct {
	Name    string
	Kind    CellKind
	Cells   []string
	Numbers []float64 // nil unless Kind == KindNumeric
}

// RawTable is an ordered set of equally long columns.
type RawTable struct {
	Columns []Column
	rows    int
}

func (t *RawTable) Rows() int { return t.rows }

func (t *RawTable) ColumnNames() []string {
	names := make([]string, len(t.Columns))
	for i, c := range t.Columns {
		names[i] = c.Name
	}
	return names
}

// Load parses r as comma separated text with a header row.
func Load(r io.Reader) (*RawTable, error) {
	reader := csv.NewReader(r)
	reader.FieldsPerRecord = 0 // every record must match the header width

	header, err := reader.Read()
	if err != nil {
		if errors.Is(err, io.EOF) {
			return nil, failure.Parse(stageLoader, "missing header row", nil)
		}
		return nil, failure.Parse(stageLoader, "read header", err)
	}
	header[0] = strings.TrimPrefix(header[0], "\ufeff")
	if err := validUTF8(header, 0); err != nil {
		return nil, err
	}

	columns := make([]Column, len(header))
	for i, name := range header {
		columns[i] = Column{Name: name}
	}

	rows := 0
	for {
		record, err := reader.Read()
		if errors.Is(err, io.EOF) {
			break
		}
		if err != nil {
			return nil, failure.Parse(stageLoader, fmt.Sprintf("read row %d", rows+1), err)
		}
		if err := validUTF8(record, rows+1); err != nil {
			return nil, err
		}
		for i, cell := range record {
			columns[i].Cells = append(columns[i].Cells, cell)
		}
		rows++
	}

	for i := range columns {
		columns[i].Kind, columns[i].Numbers = classify(columns[i].Cells)
	}

	return &RawTable{Columns: columns, rows: rows}, nil
}

func validUTF8(record []string, row int) error {
	for i, cell := range record {
		if !utf8.ValidString(cell) {
			return failure.Parse(stageLoader, fmt.Sprintf("row %d column %d is not valid UTF-8", row, i+1), nil)
		}
	}
	return nil
}

func classify(cells []string) (CellKind, []float64) {
	if len(cells) == 0 {
		return KindText, nil
	}
	numbers := make([]float64, len(cells))
	for i, cell := range cells {
		v, err := parseNumber(cell)
		if err != nil {
			return KindText, nil
		}
		numbers[i] = v
	}
	return KindNumeric, numbers
}

func parseNumber(cell string) (float64, error) {
	v, err := strconv.ParseFloat(strings.TrimSpace(cell), 64)
	if err != nil {
		return 0, err
	}
	if math.IsNaN(v) || math.IsInf(v, 0) {
		return 0, fmt.Errorf("non-finite value %q", cell)
	}
	return v, nil
}
