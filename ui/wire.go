package ui

import (
	"math"

	"goanova/domain/core"
	"goanova/domain/table"
	"goanova/internal/errors"
)

// tablePayload is the JSON wire form of a table on registration. Numeric
// cells are nullable floats with null marking a missing cell; categorical
// cells are strings with "" marking a missing cell. NaN never crosses the
// wire in either direction.
type tablePayload struct {
	Name    string          `json:"name"`
	Columns []columnPayload `json:"columns"`
}

type columnPayload struct {
	Name    string     `json:"name"`
	Kind    string     `json:"kind"`
	Numeric []*float64 `json:"numeric,omitempty"`
	Labels  []string   `json:"labels,omitempty"`
}

// tableResponse is the wire form of a stored table. The name lives in the
// store listing, not on the table itself.
type tableResponse struct {
	ID      core.TableID    `json:"id"`
	Rows    int             `json:"rows"`
	Cols    int             `json:"cols"`
	Columns []columnPayload `json:"columns"`
}

func (p tablePayload) toTable() (table.Table, error) {
	cols := make([]table.Column, 0, len(p.Columns))
	for _, c := range p.Columns {
		switch table.ColumnKind(c.Kind) {
		case table.KindNumeric:
			values := make([]float64, len(c.Numeric))
			for i, v := range c.Numeric {
				if v == nil {
					values[i] = math.NaN()
				} else {
					values[i] = *v
				}
			}
			cols = append(cols, table.NewNumericColumn(c.Name, values))
		case table.KindCategorical:
			labels := make([]string, len(c.Labels))
			copy(labels, c.Labels)
			cols = append(cols, table.NewCategoricalColumn(c.Name, labels))
		default:
			return table.Table{}, errors.Newf(errors.CodeInvalidInput, "column %q: unknown kind %q", c.Name, c.Kind)
		}
	}
	tbl, err := table.New(cols...)
	if err != nil {
		return table.Table{}, errors.Newf(errors.CodeInvalidInput, "invalid table: %v", err)
	}
	return tbl, nil
}

func fromTable(id core.TableID, tbl table.Table) tableResponse {
	cols := make([]columnPayload, 0, tbl.NumCols())
	for _, c := range tbl.Columns {
		wire := columnPayload{Name: c.Name, Kind: string(c.Kind)}
		switch c.Kind {
		case table.KindNumeric:
			wire.Numeric = make([]*float64, len(c.Numeric))
			for i, v := range c.Numeric {
				if !math.IsNaN(v) {
					value := v
					wire.Numeric[i] = &value
				}
			}
		case table.KindCategorical:
			wire.Labels = make([]string, len(c.Labels))
			copy(wire.Labels, c.Labels)
		}
		cols = append(cols, wire)
	}
	return tableResponse{
		ID:      id,
		Rows:    tbl.NumRows(),
		Cols:    tbl.NumCols(),
		Columns: cols,
	}
}
