// Package report flattens clustered calls and puts into export rows and writes
// them as CSV.
package report

import (
	"bytes"
	"encoding/csv"
	"fmt"
	"io"
	"os"
	"path/filepath"
	"strconv"
	"time"

	"github.com/shopspring/decimal"

	"github.com/contactkeval/oi-clusters/internal/cluster"
	"github.com/contactkeval/oi-clusters/internal/data"
)

// Header is the export file's header row.
var Header = []string{"strike", "openInterest", "cluster", "type"}

// Row is one exported option leg.
type Row struct {
	Strike       float64 `json:"strike"`
	OpenInterest int64   `json:"openInterest"`
	Cluster      int     `json:"cluster"`
	Type         string  `json:"type"`
}

// Rows tags calls and puts with their type and concatenates them, calls first.
func Rows(calls, puts []cluster.Leg) []Row {
	out := make([]Row, 0, len(calls)+len(puts))
	for _, l := range calls {
		out = append(out, Row{Strike: l.Strike, OpenInterest: l.OpenInterest, Cluster: l.Cluster, Type: data.CallType})
	}
	for _, l := range puts {
		out = append(out, Row{Strike: l.Strike, OpenInterest: l.OpenInterest, Cluster: l.Cluster, Type: data.PutType})
	}
	return out
}

// FileName is the export file name for ticker on day.
func FileName(ticker string, day time.Time) string {
	return fmt.Sprintf("%s %s Open Interest.csv", ticker, day.Format(data.ExpiryLayout))
}

// WriteCSV writes the header and one line per row to w.
func WriteCSV(w io.Writer, rows []Row) error {
	cw := csv.NewWriter(w)
	if err := cw.Write(Header); err != nil {
		return err
	}
	for _, r := range rows {
		record := []string{
			decimal.NewFromFloat(r.Strike).String(),
			strconv.FormatInt(r.OpenInterest, 10),
			strconv.Itoa(r.Cluster),
			r.Type,
		}
		if err := cw.Write(record); err != nil {
			return err
		}
	}
	cw.Flush()
	return cw.Error()
}

// EncodeCSV is WriteCSV into a byte slice.
func EncodeCSV(rows []Row) ([]byte, error) {
	var buf bytes.Buffer
	if err := WriteCSV(&buf, rows); err != nil {
		return nil, err
	}
	return buf.Bytes(), nil
}

// WriteFile writes content to dir/name, replacing any previous export of the
// same name, and returns the path written.
func WriteFile(dir, name string, content []byte) (string, error) {
	if dir == "" {
		dir = "."
	}
	if err := os.MkdirAll(dir, 0755); err != nil {
		return "", fmt.Errorf("create output dir %s: %w", dir, err)
	}
	path := filepath.Join(dir, name)
	if err := os.WriteFile(path, content, 0644); err != nil {
		return "", err
	}
	return path, nil
}
