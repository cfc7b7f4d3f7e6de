// internal/records/csv.go
//
// CSV export in the tracker's historical column layout, plus the
// incremental local-file update: read old file, merge new rows (dedupe),
// sort newest-first, write back.

package records

import (
	"encoding/csv"
	"fmt"
	"io"
	"os"
	"sort"
	"strconv"
	"time"

	"github.com/robalobadob/puzzletrack/internal/parse"
)

// Column layout of exported files. Score_Value was added when normalization
// moved into the tracker; older files without it still read fine.
var csvHeader = []string{
	"Message_ID", "Timestamp", "Date", "Author",
	"Game_Type", "Score", "Score_Value", "Game_num", "Full_Message",
}

// Write encodes rows to w, header first.
func Write(w io.Writer, rows []Row) error {
	cw := csv.NewWriter(w)
	if err := cw.Write(csvHeader); err != nil {
		return err
	}
	for _, r := range rows {
		val := ""
		if r.HasValue {
			val = strconv.Itoa(r.Value)
		}
		rec := []string{
			r.MessageID,
			r.Timestamp.UTC().Format(time.RFC3339),
			r.Date,
			r.Author,
			string(r.Game),
			r.Score,
			val,
			r.Number,
			r.Message,
		}
		if err := cw.Write(rec); err != nil {
			return err
		}
	}
	cw.Flush()
	return cw.Error()
}

// WriteFile writes rows to path, replacing any existing file.
func WriteFile(path string, rows []Row) error {
	f, err := os.Create(path)
	if err != nil {
		return fmt.Errorf("create %s: %w", path, err)
	}
	if err := Write(f, rows); err != nil {
		f.Close()
		return err
	}
	return f.Close()
}

// Read decodes rows previously written by Write.
func Read(r io.Reader) ([]Row, error) {
	cr := csv.NewReader(r)
	cr.FieldsPerRecord = -1 // tolerate older files with fewer columns

	header, err := cr.Read()
	if err == io.EOF {
		return nil, nil
	}
	if err != nil {
		return nil, fmt.Errorf("read CSV header: %w", err)
	}
	col := make(map[string]int, len(header))
	for i, name := range header {
		col[name] = i
	}
	if _, ok := col["Timestamp"]; !ok {
		return nil, fmt.Errorf("not a puzzletrack export: missing Timestamp column")
	}

	field := func(rec []string, name string) string {
		i, ok := col[name]
		if !ok || i >= len(rec) {
			return ""
		}
		return rec[i]
	}

	var rows []Row
	for line := 2; ; line++ {
		rec, err := cr.Read()
		if err == io.EOF {
			break
		}
		if err != nil {
			return nil, fmt.Errorf("read CSV line %d: %w", line, err)
		}

		ts, err := time.Parse(time.RFC3339, field(rec, "Timestamp"))
		if err != nil {
			return nil, fmt.Errorf("CSV line %d: bad timestamp: %w", line, err)
		}
		row := Row{
			MessageID: field(rec, "Message_ID"),
			Timestamp: ts,
			Date:      field(rec, "Date"),
			Author:    field(rec, "Author"),
			Game:      parse.Game(field(rec, "Game_Type")),
			Score:     field(rec, "Score"),
			Number:    field(rec, "Game_num"),
			Message:   field(rec, "Full_Message"),
		}
		if v := field(rec, "Score_Value"); v != "" {
			n, err := strconv.Atoi(v)
			if err != nil {
				return nil, fmt.Errorf("CSV line %d: bad score value %q", line, v)
			}
			row.Value, row.HasValue = n, true
		}
		rows = append(rows, row)
	}
	return rows, nil
}

// ReadFile decodes path; a missing file yields no rows rather than an error
// so first runs can merge against nothing.
func ReadFile(path string) ([]Row, error) {
	f, err := os.Open(path)
	if os.IsNotExist(err) {
		return nil, nil
	}
	if err != nil {
		return nil, err
	}
	defer f.Close()
	return Read(f)
}

// Merge combines an existing export with freshly built rows. Overlap (the
// incremental fetch re-reads a few days of leeway) is included once; the
// result is sorted newest-first.
//
// Rows are keyed by message id; legacy rows without one fall back to
// timestamp+author+message.
func Merge(old, fresh []Row) []Row {
	seen := make(map[string]bool, len(old)+len(fresh))
	out := make([]Row, 0, len(old)+len(fresh))
	for _, r := range append(append([]Row{}, old...), fresh...) {
		k := r.MessageID
		if k == "" {
			k = r.Timestamp.UTC().Format(time.RFC3339Nano) + "\x00" + r.Author + "\x00" + r.Message
		}
		if seen[k] {
			continue
		}
		seen[k] = true
		out = append(out, r)
	}
	sort.SliceStable(out, func(i, j int) bool {
		return out[i].Timestamp.After(out[j].Timestamp)
	})
	return out
}
