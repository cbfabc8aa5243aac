package sheet

import (
	"fmt"

	"traffic-infographic/internal/infra/failure"
)

const (
	stageRoles = "roles"

	// MinColumns is the time axis, at least one traffic source and the sales column.
	MinColumns = 3

	MsgInsufficientColumns = "CSV file must contain at least 3 columns"
	MsgNoDataRows          = "CSV file must contain at least one data row"
)

// Series is a named numeric column.
type Series struct {
	Name   string
	Values []float64
}

// ColumnRoles assigns table columns by position: first is the time axis,
// last is sales, everything in between is a traffic source.
type ColumnRoles struct {
	TimeName string
	TimeAxis []string
	Traffic  []Series
	Sales    Series
}

// InferRoles validates the table shape and builds the typed role view.
// A header-only table is rejected here, before anything is rendered.
func InferRoles(t *RawTable) (*ColumnRoles, error) {
	if len(t.Columns) < MinColumns {
		return nil, failure.Schema(stageRoles, MsgInsufficientColumns)
	}
	if t.Rows() == 0 {
		return nil, failure.Schema(stageRoles, MsgNoDataRows)
	}

	first := t.Columns[0]
	last := t.Columns[len(t.Columns)-1]

	roles := &ColumnRoles{
		TimeName: first.Name,
		TimeAxis: append([]string(nil), first.Cells...),
		Traffic:  make([]Series, 0, len(t.Columns)-2),
	}

	for _, c := range t.Columns[1 : len(t.Columns)-1] {
		s, err := numericSeries(c)
		if err != nil {
			return nil, err
		}
		roles.Traffic = append(roles.Traffic, s)
	}

	sales, err := numericSeries(last)
	if err != nil {
		return nil, err
	}
	roles.Sales = sales

	return roles, nil
}

func numericSeries(c Column) (Series, error) {
	if c.Kind != KindNumeric {
		row, cell := firstNonNumeric(c.Cells)
		return Series{}, failure.Parse(stageRoles,
			fmt.Sprintf("column %q row %d: %q is not a number", c.Name, row, cell), nil)
	}
	return Series{Name: c.Name, Values: append([]float64(nil), c.Numbers...)}, nil
}

func firstNonNumeric(cells []string) (int, string) {
	for i, cell := range cells {
		if _, err := parseNumber(cell); err != nil {
			return i + 1, cell
		}
	}
	return 0, ""
}
