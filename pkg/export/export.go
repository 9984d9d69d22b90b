package export

import (
	"encoding/csv"
	"encoding/json"
	"io"
	"strconv"

	"github.com/mverdier/lineflow/core/sim"
	"github.com/mverdier/lineflow/core/throughput"
)

// WriteScheduleCSV writes the per-unit schedule projection to w: sequence
// index, model and line enter/exit times in minutes.
func WriteScheduleCSV(w io.Writer, units []sim.UnitRecord) error {
	cw := csv.NewWriter(w)
	if err := cw.Write([]string{"sequence", "model", "enter_min", "exit_min"}); err != nil {
		return err
	}
	for _, u := range units {
		rec := []string{
			strconv.Itoa(u.Index),
			u.ModelID,
			strconv.FormatFloat(u.Enter, 'f', 3, 64),
			strconv.FormatFloat(u.Exit, 'f', 3, 64),
		}
		if err := cw.Write(rec); err != nil {
			return err
		}
	}
	cw.Flush()
	return cw.Error()
}

// WriteScheduleJSON writes the full simulation result to w in JSON format.
func WriteScheduleJSON(w io.Writer, res sim.Result) error {
	enc := json.NewEncoder(w)
	return enc.Encode(res)
}

// WriteCapacityJSON writes a capacity result to w in JSON format.
func WriteCapacityJSON(w io.Writer, res throughput.Result) error {
	enc := json.NewEncoder(w)
	enc.SetIndent("", "  ")
	return enc.Encode(res)
}
