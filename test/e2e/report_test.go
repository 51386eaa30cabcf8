//go:build e2e

package e2e

import (
	"os"
	"os/exec"
	"path/filepath"
	"strings"
	"testing"
)

// TestReportWritesBundle checks the full artifact pipeline end to end:
// one command, four files on disk.
func TestReportWritesBundle(t *testing.T) {
	binPath := buildBinary(t)
	workDir := t.TempDir()
	netPath := writeNetwork(t, workDir, "coastal.yaml", healthyYAML)
	outDir := filepath.Join(workDir, "bundle")

	cmd := exec.Command(binPath, "report", netPath, "--out", outDir)
	cmd.Dir = workDir
	out, err := cmd.CombinedOutput()
	if err != nil {
		t.Fatalf("report failed: %v\n%s", err, out)
	}
	if !strings.Contains(string(out), "[SUCCESS] Report Complete.") {
		t.Errorf("Missing success banner:\n%s", out)
	}

	for _, name := range []string{"nodes.csv", "segments.csv", "study.json", "study.html"} {
		path := filepath.Join(outDir, name)
		info, err := os.Stat(path)
		if os.IsNotExist(err) {
			t.Errorf("Artifact %s not generated", name)
			continue
		}
		if err != nil {
			t.Errorf("Stat %s: %v", name, err)
			continue
		}
		if info.Size() == 0 {
			t.Errorf("Artifact %s is empty", name)
		}
	}
}
