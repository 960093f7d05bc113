// Package report renders the outcome of a batch of implied-volatility solves.
package report

import (
	"encoding/csv"
	"encoding/json"
	"fmt"
	"io"
	"math"
	"os"
	"path/filepath"
	"strconv"
	"strings"

	"github.com/shopspring/decimal"

	"github.com/contactkeval/iv-solver/internal/impliedvol"
)

// Decimal places kept for each kind of column.
const (
	pricePlaces = 4
	sigmaPlaces = 6
)

// Row is one solved scenario. Err is set when the solve failed.
type Row struct {
	Scenario string
	Method   impliedvol.Method
	Inputs   impliedvol.Inputs
	Result   impliedvol.Result
	Err      error
}

var headers = []string{
	"scenario", "method", "type", "spot", "strike", "rate", "tau_seconds",
	"market", "sigma", "status", "iterations", "residual", "error",
}

// round formats v to places decimals. Non-finite values have no decimal
// form and are printed as Go formats them.
func round(v float64, places int32) string {
	if math.IsNaN(v) || math.IsInf(v, 0) {
		return strconv.FormatFloat(v, 'g', -1, 64)
	}
	return decimal.NewFromFloat(v).Round(places).String()
}

// number converts a cell to a JSON number, dropping cells JSON cannot hold.
func number(cell string) json.Number {
	if _, err := decimal.NewFromString(cell); err != nil {
		return ""
	}
	return json.Number(cell)
}

func optionType(isCall bool) string {
	if isCall {
		return "call"
	}
	return "put"
}

// fields returns the rounded cells of r, in header order.
func (r Row) fields() []string {
	in := r.Inputs
	cells := []string{
		r.Scenario,
		string(r.Method),
		optionType(in.IsCall),
		round(in.Spot, pricePlaces),
		round(in.Strike, pricePlaces),
		round(in.Rate, sigmaPlaces),
		round(in.Tau, 0),
		round(in.Market, pricePlaces),
	}
	if r.Err != nil {
		return append(cells, "", "", "", "", r.Err.Error())
	}
	return append(cells,
		round(r.Result.Sigma, sigmaPlaces),
		r.Result.Status.String(),
		strconv.Itoa(r.Result.Iterations),
		round(r.Result.Residual, sigmaPlaces),
		"",
	)
}

// WriteCSV writes rows as CSV with a header line.
func WriteCSV(w io.Writer, rows []Row) error {
	cw := csv.NewWriter(w)
	if err := cw.Write(headers); err != nil {
		return err
	}
	for _, r := range rows {
		if err := cw.Write(r.fields()); err != nil {
			return err
		}
	}
	cw.Flush()
	return cw.Error()
}

type jsonRow struct {
	Scenario   string      `json:"scenario"`
	Method     string      `json:"method"`
	Type       string      `json:"type"`
	Spot       json.Number `json:"spot,omitempty"`
	Strike     json.Number `json:"strike,omitempty"`
	Rate       json.Number `json:"rate,omitempty"`
	Tau        json.Number `json:"tau_seconds,omitempty"`
	Market     json.Number `json:"market,omitempty"`
	Sigma      json.Number `json:"sigma,omitempty"`
	Status     string      `json:"status,omitempty"`
	Iterations int         `json:"iterations,omitempty"`
	Residual   json.Number `json:"residual,omitempty"`
	Error      string      `json:"error,omitempty"`
}

// WriteJSON writes rows as an indented JSON array.
func WriteJSON(w io.Writer, rows []Row) error {
	out := make([]jsonRow, 0, len(rows))
	for _, r := range rows {
		f := r.fields()
		jr := jsonRow{
			Scenario: f[0],
			Method:   f[1],
			Type:     f[2],
			Spot:     number(f[3]),
			Strike:   number(f[4]),
			Rate:     number(f[5]),
			Tau:      number(f[6]),
			Market:   number(f[7]),
			Sigma:    number(f[8]),
			Status:   f[9],
			Residual: number(f[11]),
			Error:    f[12],
		}
		if r.Err == nil {
			jr.Iterations = r.Result.Iterations
		}
		out = append(out, jr)
	}
	enc := json.NewEncoder(w)
	enc.SetIndent("", "  ")
	return enc.Encode(out)
}

// Write renders rows in format ("csv" or "json").
func Write(w io.Writer, format string, rows []Row) error {
	switch strings.ToLower(format) {
	case "csv":
		return WriteCSV(w, rows)
	case "json":
		return WriteJSON(w, rows)
	}
	return fmt.Errorf("report: unknown format %q", format)
}

// WriteFile renders rows into outdir/ivs.<format> and returns the path.
func WriteFile(outdir, format string, rows []Row) (string, error) {
	if err := os.MkdirAll(outdir, 0755); err != nil {
		return "", err
	}
	path := filepath.Join(outdir, "ivs."+strings.ToLower(format))
	f, err := os.Create(path)
	if err != nil {
		return "", err
	}
	if err := Write(f, format, rows); err != nil {
		f.Close()
		return "", err
	}
	return path, f.Close()
}
