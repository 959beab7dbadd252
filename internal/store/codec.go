package store

import (
	"database/sql"

	"github.com/rcliao/xhist/internal/model"
)

// row is the stored shape of a record: (inp, rtn, tsb, tse).
type row struct {
	Inp string
	Rtn int
	Tsb float64
	Tse float64
}

func encode(rec model.CommandRecord) row {
	return row{
		Inp: rec.TrimmedInput(),
		Rtn: rec.ReturnCode,
		Tsb: rec.StartTime,
		Tse: rec.EndTime,
	}
}

func (r row) args() []any {
	return []any{r.Inp, r.Rtn, r.Tsb, r.Tse}
}

type scanner interface {
	Scan(dest ...any) error
}

// Files written by other tools may hold NULLs; those decode to zero values.

func decodeItem(sc scanner) (model.Item, error) {
	var inp sql.NullString
	if err := sc.Scan(&inp); err != nil {
		return model.Item{}, err
	}
	return model.Item{Input: inp.String}, nil
}

func decodeRecord(sc scanner) (model.CommandRecord, error) {
	var (
		inp      sql.NullString
		rtn      sql.NullInt64
		tsb, tse sql.NullFloat64
	)
	if err := sc.Scan(&inp, &rtn, &tsb, &tse); err != nil {
		return model.CommandRecord{}, err
	}
	return model.CommandRecord{
		Input:      inp.String,
		ReturnCode: int(rtn.Int64),
		StartTime:  tsb.Float64,
		EndTime:    tse.Float64,
	}, nil
}
