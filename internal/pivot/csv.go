package pivot

import (
	"encoding/csv"
	"io"

	"github.com/angelmondragon/sellerpulse-backend/internal/engine"
	pkgerrors "github.com/angelmondragon/sellerpulse-backend/pkg/errors"
)

// WriteCSV writes the pivot with a header row. Null cells are left empty.
func WriteCSV(w io.Writer, p *Pivot) error {
	cw := csv.NewWriter(w)

	header := make([]string, 0, len(p.Columns)+2)
	header = append(header, engine.ColumnEntityKey, engine.ColumnEntity)
	for _, col := range p.Columns {
		header = append(header, col.Key)
	}
	if err := cw.Write(header); err != nil {
		return pkgerrors.Wrap(pkgerrors.CodeInternal, err, "write csv header")
	}

	for _, row := range p.Rows {
		record := make([]string, 0, len(header))
		record = append(record, row.EntityKey, row.EntityLabel)
		for _, col := range p.Columns {
			record = append(record, row.Cell(col.Key).String())
		}
		if err := cw.Write(record); err != nil {
			return pkgerrors.Wrap(pkgerrors.CodeInternal, err, "write csv row")
		}
	}

	cw.Flush()
	if err := cw.Error(); err != nil {
		return pkgerrors.Wrap(pkgerrors.CodeInternal, err, "flush csv")
	}
	return nil
}
