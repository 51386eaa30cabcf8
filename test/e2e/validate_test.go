//go:build e2e

package e2e

import (
	"os/exec"
	"strings"
	"testing"
)

func TestValidateCleanNetwork(t *testing.T) {
	binPath := buildBinary(t)
	workDir := t.TempDir()
	netPath := writeNetwork(t, workDir, "coastal.yaml", healthyYAML)

	out, err := exec.Command(binPath, "validate", netPath).CombinedOutput()
	if err != nil {
		t.Fatalf("validate failed on a clean network: %v\n%s", err, out)
	}
	if !strings.Contains(string(out), "is valid: 3 buses, 2 segments") {
		t.Errorf("Unexpected validate output:\n%s", out)
	}
}

func TestValidateRejectsDanglingSegment(t *testing.T) {
	binPath := buildBinary(t)
	workDir := t.TempDir()
	netPath := writeNetwork(t, workDir, "broken.yaml", brokenYAML)

	out, err := exec.Command(binPath, "validate", netPath).CombinedOutput()
	if err == nil {
		t.Fatalf("validate should exit non-zero for a dangling segment:\n%s", out)
	}
	if !strings.Contains(string(out), "not solvable") {
		t.Errorf("Expected 'not solvable' verdict, got:\n%s", out)
	}
}
