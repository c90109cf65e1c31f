package table

import (
	"fmt"
	"math"
	"strconv"
	"strings"

	"goanova/domain/core"
)

// ColumnKind defines column types for analysis
type ColumnKind string

const (
	KindNumeric     ColumnKind = "numeric"
	KindCategorical ColumnKind = "categorical"
)

// Column is a single named column of a table.
// Numeric columns store values in Numeric with NaN marking a missing cell;
// categorical columns store labels in Labels with "" marking a missing cell.
// Exactly one of the two backing slices is populated, matching Kind.
type Column struct {
	Name    string
	Kind    ColumnKind
	Numeric []float64
	Labels  []string
}

// NewNumericColumn creates a numeric column
func NewNumericColumn(name string, values []float64) Column {
	return Column{Name: name, Kind: KindNumeric, Numeric: values}
}

// NewCategoricalColumn creates a categorical column
func NewCategoricalColumn(name string, labels []string) Column {
	return Column{Name: name, Kind: KindCategorical, Labels: labels}
}

// Len returns the number of cells in the column
func (c Column) Len() int {
	if c.Kind == KindCategorical {
		return len(c.Labels)
	}
	return len(c.Numeric)
}

// IsMissing reports whether the cell at row i is missing
func (c Column) IsMissing(i int) bool {
	if c.Kind == KindCategorical {
		return c.Labels[i] == ""
	}
	return math.IsNaN(c.Numeric[i])
}

// Clone returns a deep copy of the column
func (c Column) Clone() Column {
	out := Column{Name: c.Name, Kind: c.Kind}
	if c.Numeric != nil {
		out.Numeric = make([]float64, len(c.Numeric))
		copy(out.Numeric, c.Numeric)
	}
	if c.Labels != nil {
		out.Labels = make([]string, len(c.Labels))
		copy(out.Labels, c.Labels)
	}
	return out
}

// Table is the canonical data object for all statistical computation.
// Engines treat a Table as immutable: operations take a Table and return a
// new one. WithColumn copies the column list but shares the backing arrays
// of untouched columns, so column data must never be mutated in place.
type Table struct {
	Columns []Column
}

// New creates a table from columns and validates it
func New(cols ...Column) (Table, error) {
	t := Table{Columns: cols}
	if err := t.Validate(); err != nil {
		return Table{}, err
	}
	return t, nil
}

// Validate ensures the table is internally consistent
func (t Table) Validate() error {
	if len(t.Columns) == 0 {
		return core.ErrInsufficientData
	}

	rows := t.Columns[0].Len()
	seen := make(map[string]bool, len(t.Columns))
	for i, col := range t.Columns {
		if strings.TrimSpace(col.Name) == "" {
			return core.NewValidationError("columns", fmt.Sprintf("column %d has an empty name", i))
		}
		if seen[col.Name] {
			return core.NewValidationError("columns", fmt.Sprintf("duplicate column name %q", col.Name))
		}
		seen[col.Name] = true

		switch col.Kind {
		case KindNumeric:
			if col.Labels != nil {
				return core.NewValidationError(col.Name, "numeric column carries label storage")
			}
		case KindCategorical:
			if col.Numeric != nil {
				return core.NewValidationError(col.Name, "categorical column carries numeric storage")
			}
		default:
			return core.NewValidationError(col.Name, fmt.Sprintf("unknown column kind %q", col.Kind))
		}

		if col.Len() != rows {
			return core.NewValidationError(col.Name,
				fmt.Sprintf("has %d rows, expected %d", col.Len(), rows))
		}
	}

	return nil
}

// NumRows returns the number of rows
func (t Table) NumRows() int {
	if len(t.Columns) == 0 {
		return 0
	}
	return t.Columns[0].Len()
}

// NumCols returns the number of columns
func (t Table) NumCols() int {
	return len(t.Columns)
}

// ColumnNames returns the column names in table order
func (t Table) ColumnNames() []string {
	names := make([]string, len(t.Columns))
	for i, col := range t.Columns {
		names[i] = col.Name
	}
	return names
}

// ColumnIndex returns the position of a named column
func (t Table) ColumnIndex(name string) (int, bool) {
	for i, col := range t.Columns {
		if col.Name == name {
			return i, true
		}
	}
	return -1, false
}

// Column returns the named column
func (t Table) Column(name string) (Column, bool) {
	idx, ok := t.ColumnIndex(name)
	if !ok {
		return Column{}, false
	}
	return t.Columns[idx], true
}

// HasColumn reports whether the table contains the named column
func (t Table) HasColumn(name string) bool {
	_, ok := t.ColumnIndex(name)
	return ok
}

// WithColumn returns a new table with col appended, or replacing an existing
// column of the same name in place (keeping its original position)
func (t Table) WithColumn(col Column) Table {
	cols := make([]Column, len(t.Columns), len(t.Columns)+1)
	copy(cols, t.Columns)
	if idx, ok := t.ColumnIndex(col.Name); ok {
		cols[idx] = col
		return Table{Columns: cols}
	}
	return Table{Columns: append(cols, col)}
}

// Clone returns a deep copy of the table
func (t Table) Clone() Table {
	cols := make([]Column, len(t.Columns))
	for i, col := range t.Columns {
		cols[i] = col.Clone()
	}
	return Table{Columns: cols}
}

// Fingerprint hashes the full table state (names, kinds, cell values) so
// artifacts can record exactly which data they were computed from
func (t Table) Fingerprint() core.TableHash {
	var b strings.Builder
	for _, col := range t.Columns {
		b.WriteString(col.Name)
		b.WriteByte(':')
		b.WriteString(string(col.Kind))
		b.WriteByte('=')
		if col.Kind == KindCategorical {
			for i, label := range col.Labels {
				if i > 0 {
					b.WriteByte(',')
				}
				b.WriteString(label)
			}
		} else {
			for i, v := range col.Numeric {
				if i > 0 {
					b.WriteByte(',')
				}
				b.WriteString(strconv.FormatFloat(v, 'g', -1, 64))
			}
		}
		b.WriteByte('|')
	}
	return core.NewTableHash([]byte(b.String()))
}

// FormatLevel renders a numeric cell as a factor level string. Integral
// values print without a decimal point so 1.0 and "1" name the same level.
func FormatLevel(v float64) string {
	return strconv.FormatFloat(v, 'g', -1, 64)
}
