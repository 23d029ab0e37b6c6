package dataset

import (
	"errors"
	"fmt"
	"regexp"
	"strings"
)

// Limits bounds what a single upload may contain.
type Limits struct {
	MaxRows      int
	MaxColumns   int
	MaxCellBytes int
}

// DefaultLimits returns the stock limits.
func DefaultLimits() Limits {
	return Limits{MaxRows: 1_000_000, MaxColumns: 1000, MaxCellBytes: 100_000}
}

var (
	ErrTooManyRows       = errors.New("too many rows")
	ErrTooManyColumns    = errors.New("too many columns")
	ErrCellTooLarge      = errors.New("cell value too large")
	ErrInvalidColumnName = errors.New("invalid column name")
)

var (
	reservedNameRe = regexp.MustCompile(`(?i)^(CON|PRN|AUX|NUL|COM[1-9]|LPT[1-9])$`)
	controlRe      = regexp.MustCompile(`[\x00-\x08\x0b\x0c\x0e-\x1f]`)
)

// ValidColumnName rejects empty or oversized names, path traversal, control
// characters other than tab/newline, and reserved device names.
func ValidColumnName(name string) bool {
	if name == "" || len(name) > 1000 {
		return false
	}
	if strings.Contains(name, "..") {
		return false
	}
	return !controlRe.MatchString(name) && !reservedNameRe.MatchString(name)
}

// Validate checks the table against the limits. Zero limits are not enforced.
func Validate(t *Table, lim Limits) error {
	if lim.MaxRows > 0 && t.RowCount() > lim.MaxRows {
		return fmt.Errorf("%w: %d (maximum %d)", ErrTooManyRows, t.RowCount(), lim.MaxRows)
	}
	if lim.MaxColumns > 0 && t.ColCount() > lim.MaxColumns {
		return fmt.Errorf("%w: %d (maximum %d)", ErrTooManyColumns, t.ColCount(), lim.MaxColumns)
	}
	for _, c := range t.Columns {
		if !ValidColumnName(c.Name) {
			return fmt.Errorf("%w: %q", ErrInvalidColumnName, c.Name)
		}
		if lim.MaxCellBytes <= 0 || c.Kind != KindString {
			continue
		}
		for _, v := range c.Cells {
			if len(v.Raw) > lim.MaxCellBytes {
				return fmt.Errorf("%w: column %q (maximum %d bytes)", ErrCellTooLarge, c.Name, lim.MaxCellBytes)
			}
		}
	}
	return nil
}
