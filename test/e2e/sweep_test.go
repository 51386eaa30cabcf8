//go:build e2e

package e2e

import (
	"encoding/json"
	"os/exec"
	"testing"
)

// TestSweepJSON loads the feeder at two multipliers and checks the
// points come back in order with sane physics.
func TestSweepJSON(t *testing.T) {
	binPath := buildBinary(t)
	workDir := t.TempDir()
	netPath := writeNetwork(t, workDir, "coastal.yaml", healthyYAML)

	cmd := exec.Command(binPath, "sweep", netPath, "--scale", "0.5,1.5", "--format", "json")
	cmd.Dir = workDir
	out, err := cmd.Output()
	if err != nil {
		t.Fatalf("sweep failed: %v\n%s", err, out)
	}

	var points []struct {
		Scale        float64 `json:"scale"`
		TotalLoadKVA float64 `json:"total_load_kva"`
		MinPerUnit   float64 `json:"min_per_unit"`
		Err          string  `json:"error"`
	}
	if err := json.Unmarshal(out, &points); err != nil {
		t.Fatalf("stdout is not valid JSON: %v\n%s", err, out)
	}

	if len(points) != 2 {
		t.Fatalf("Expected 2 sweep points, got %d", len(points))
	}
	if points[0].Scale != 0.5 || points[1].Scale != 1.5 {
		t.Errorf("Points out of order: %v, %v", points[0].Scale, points[1].Scale)
	}
	for _, p := range points {
		if p.Err != "" {
			t.Errorf("Scale %.2f failed: %s", p.Scale, p.Err)
		}
	}
	if points[0].TotalLoadKVA != 150 || points[1].TotalLoadKVA != 450 {
		t.Errorf("Load not scaled: %v, %v", points[0].TotalLoadKVA, points[1].TotalLoadKVA)
	}
	// Heavier load, deeper sag.
	if points[1].MinPerUnit >= points[0].MinPerUnit {
		t.Errorf("Voltage should sag with load: %v at 0.5x, %v at 1.5x",
			points[0].MinPerUnit, points[1].MinPerUnit)
	}
}
