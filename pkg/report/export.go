package report

import (
	"encoding/csv"
	"encoding/json"
	"fmt"
	"io"

	"github.com/voltspan/feederflow/pkg/model"
	"github.com/voltspan/feederflow/pkg/policy"
)

// WriteNodesCSV writes the node table. Skipped elements render dashes
// so a spreadsheet reader cannot mistake them for solved zeros.
func (d Data) WriteNodesCSV(w io.Writer) error {
	cw := csv.NewWriter(w)
	defer cw.Flush()

	header := []string{
		"NodeID",
		"Name",
		"Kind",
		"LoadKVA",
		"DistanceM",
		"VoltageKV",
		"PerUnit",
		"DropPercent",
		"Status",
	}
	if err := cw.Write(header); err != nil {
		return err
	}

	for _, row := range d.Nodes {
		voltage, pu, drop := "-", "-", "-"
		if row.Computed {
			voltage = fmt.Sprintf("%.4f", row.VoltageKV)
			pu = fmt.Sprintf("%.5f", row.PerUnit)
			drop = fmt.Sprintf("%.4f", row.DropPercent)
		}
		record := []string{
			row.ID,
			row.Name,
			row.Kind,
			fmt.Sprintf("%.1f", row.LoadKVA),
			fmt.Sprintf("%.0f", row.DistanceM),
			voltage,
			pu,
			drop,
			row.Status,
		}
		if err := cw.Write(record); err != nil {
			return err
		}
	}

	cw.Flush()
	return cw.Error()
}

// WriteEdgesCSV writes the segment table.
func (d Data) WriteEdgesCSV(w io.Writer) error {
	cw := csv.NewWriter(w)
	defer cw.Flush()

	header := []string{
		"SegmentID",
		"From",
		"To",
		"Conductor",
		"LengthM",
		"CurrentA",
		"LoadingPercent",
		"LossKW",
		"DropKV",
		"Status",
	}
	if err := cw.Write(header); err != nil {
		return err
	}

	for _, row := range d.Edges {
		current, loading, loss, drop := "-", "-", "-", "-"
		if row.Computed {
			current = fmt.Sprintf("%.3f", row.CurrentA)
			loading = fmt.Sprintf("%.2f", row.LoadingPercent)
			loss = fmt.Sprintf("%.4f", row.LossKW)
			drop = fmt.Sprintf("%.6f", row.DropKV)
		}
		record := []string{
			row.ID,
			row.From,
			row.To,
			row.Conductor,
			fmt.Sprintf("%.0f", row.LengthM),
			current,
			loading,
			loss,
			drop,
			row.Status,
		}
		if err := cw.Write(record); err != nil {
			return err
		}
	}

	cw.Flush()
	return cw.Error()
}

// WriteJSON writes the whole study as one document: summary, rows and
// violations together, in render order.
func (d Data) WriteJSON(w io.Writer) error {
	violations := d.Violations
	if violations == nil {
		violations = []policy.Violation{}
	}
	doc := struct {
		Network     string             `json:"network"`
		SourceKV    float64            `json:"source_kv"`
		GeneratedAt string             `json:"generated_at"`
		System      model.SystemResult `json:"system"`
		Nodes       []NodeRow          `json:"nodes"`
		Edges       []EdgeRow          `json:"edges"`
		Violations  []policy.Violation `json:"violations"`
	}{
		Network:     d.NetworkName,
		SourceKV:    d.SourceKV,
		GeneratedAt: d.GeneratedAt.UTC().Format("2006-01-02T15:04:05Z"),
		System:      d.System,
		Nodes:       d.Nodes,
		Edges:       d.Edges,
		Violations:  violations,
	}
	data, err := json.MarshalIndent(doc, "", "  ")
	if err != nil {
		return err
	}
	_, err = w.Write(append(data, '\n'))
	return err
}
