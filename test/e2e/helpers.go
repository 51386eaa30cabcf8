//go:build e2e

package e2e

import (
	"os"
	"os/exec"
	"path/filepath"
	"testing"
)

// healthyYAML is a three-bus feeder comfortably inside every limit:
// 300 kVA total on dog conductor rated 300 A.
const healthyYAML = `name: coastal-11kv
source_kv: 11
nodes:
  - id: src
    kind: SOURCE
  - id: a
    name: Jetty A
    kind: LOAD
    load_kva: 200
    power_factor: 0.9
  - id: b
    name: Jetty B
    kind: LOAD
    load_kva: 100
    power_factor: 0.9
edges:
  - id: e1
    from: src
    to: a
    length_m: 500
    conductor: dog
  - id: e2
    from: a
    to: b
    length_m: 700
    conductor: dog
`

// overloadedYAML pushes ~157 A through squirrel conductor rated 115 A,
// so the thermal rule fires critical.
const overloadedYAML = `name: mill-11kv
source_kv: 11
nodes:
  - id: src
    kind: SOURCE
  - id: mill
    kind: LOAD
    load_kva: 3000
    power_factor: 0.9
edges:
  - id: trunk
    from: src
    to: mill
    length_m: 1000
    conductor: squirrel
`

// brokenYAML wires a segment to a bus that does not exist.
const brokenYAML = `name: broken-11kv
source_kv: 11
nodes:
  - id: src
    kind: SOURCE
  - id: a
    kind: LOAD
    load_kva: 100
    power_factor: 0.9
edges:
  - id: e1
    from: src
    to: ghost
    length_m: 500
`

// buildBinary compiles the CLI into a per-test temp dir.
func buildBinary(t *testing.T) string {
	t.Helper()
	binPath := filepath.Join(t.TempDir(), "feederflow")
	// Navigate to module root.
	cmd := exec.Command("go", "build", "-o", binPath, "./cmd/feederflow")
	cmd.Dir = "../../"
	cmd.Env = os.Environ()
	if out, err := cmd.CombinedOutput(); err != nil {
		t.Fatalf("Build failed: %s", out)
	}
	return binPath
}

// writeNetwork drops a fixture file into dir and returns its path.
func writeNetwork(t *testing.T, dir, name, content string) string {
	t.Helper()
	path := filepath.Join(dir, name)
	if err := os.WriteFile(path, []byte(content), 0o644); err != nil {
		t.Fatalf("Failed to write fixture: %v", err)
	}
	return path
}
