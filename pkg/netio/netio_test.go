package netio

import (
	"errors"
	"os"
	"path/filepath"
	"reflect"
	"testing"

	"github.com/voltspan/feederflow/pkg/model"
)

var sampleNet = model.Network{
	Name:     "rural-11kv",
	SourceKV: 11,
	Nodes: []model.Node{
		{ID: "sub", Kind: model.KindSource, BaseKV: 11, X: 40, Y: 25},
		{ID: "m1", Name: "Market feeder", Kind: model.KindLoad, LoadKVA: 50, PowerFactor: 0.9, Category: "commercial"},
	},
	Edges: []model.Edge{
		{ID: "e1", From: "sub", To: "m1", LengthM: 500, Conductor: "dog"},
	},
}

func TestJSONRoundTrip(t *testing.T) {
	data, err := Encode(&sampleNet, FormatJSON)
	if err != nil {
		t.Fatalf("Encode: %v", err)
	}
	if data[len(data)-1] != '\n' {
		t.Error("json output should end with a newline")
	}

	got, err := Decode("sample.json", data, FormatJSON)
	if err != nil {
		t.Fatalf("Decode: %v", err)
	}
	if !reflect.DeepEqual(*got, sampleNet) {
		t.Errorf("round trip changed the network:\n got %+v\nwant %+v", *got, sampleNet)
	}
}

func TestYAMLRoundTrip(t *testing.T) {
	data, err := Encode(&sampleNet, FormatYAML)
	if err != nil {
		t.Fatalf("Encode: %v", err)
	}
	got, err := Decode("sample.yaml", data, FormatYAML)
	if err != nil {
		t.Fatalf("Decode: %v", err)
	}
	if !reflect.DeepEqual(*got, sampleNet) {
		t.Errorf("round trip changed the network:\n got %+v\nwant %+v", *got, sampleNet)
	}
}

func TestDecodeHCL(t *testing.T) {
	src := `
network "rural-11kv" {
  source_kv = 11
}

node "sub" {
  kind    = "source"
  base_kv = 11
  x       = 40
  y       = 25
}

node "m1" {
  kind         = "LOAD"
  name         = "Market feeder"
  load_kva     = 50
  power_factor = 0.9
  category     = "commercial"
}

edge "e1" {
  from      = "sub"
  to        = "m1"
  length_m  = 500
  conductor = "dog"
}
`
	got, err := Decode("rural.hcl", []byte(src), FormatHCL)
	if err != nil {
		t.Fatalf("Decode: %v", err)
	}
	if !reflect.DeepEqual(*got, sampleNet) {
		t.Errorf("hcl decode mismatch:\n got %+v\nwant %+v", *got, sampleNet)
	}
}

func TestDecodeHCLRejectsMistakes(t *testing.T) {
	missingKind := `node "a" { load_kva = 5 }`
	if _, err := Decode("bad.hcl", []byte(missingKind), FormatHCL); err == nil {
		t.Error("node without kind should fail")
	}

	typoAttr := `
node "a" { kind = "LOAD" }
edge "e1" {
  from     = "a"
  to       = "a"
  lenght_m = 10
}
`
	if _, err := Decode("typo.hcl", []byte(typoAttr), FormatHCL); err == nil {
		t.Error("misspelled attribute should fail instead of being dropped")
	}
}

func TestDetectFormat(t *testing.T) {
	cases := []struct {
		path string
		data string
		want Format
	}{
		{"net.json", "", FormatJSON},
		{"net.yaml", "", FormatYAML},
		{"net.yml", "", FormatYAML},
		{"net.hcl", "", FormatHCL},
		{"upload", `{"nodes":[]}`, FormatJSON},
		{"upload", "network \"x\" {\n}", FormatHCL},
		{"upload", "nodes:\n  - id: a\n", FormatYAML},
	}
	for _, c := range cases {
		if got := DetectFormat(c.path, []byte(c.data)); got != c.want {
			t.Errorf("DetectFormat(%q, %q) = %s, want %s", c.path, c.data, got, c.want)
		}
	}
}

func TestLoadNamesAnonymousNetworks(t *testing.T) {
	dir := t.TempDir()
	path := filepath.Join(dir, "eastside.yaml")
	doc := `source_kv: 11
nodes:
  - id: sub
    kind: SOURCE
    base_kv: 11
edges: []
`
	if err := os.WriteFile(path, []byte(doc), 0o644); err != nil {
		t.Fatal(err)
	}

	net, err := Load(path)
	if err != nil {
		t.Fatalf("Load: %v", err)
	}
	if net.Name != "eastside" {
		t.Errorf("name = %q, want filename fallback eastside", net.Name)
	}
}

func TestSavePicksFormatFromExtension(t *testing.T) {
	dir := t.TempDir()
	path := filepath.Join(dir, "out.json")
	if err := Save(path, &sampleNet); err != nil {
		t.Fatalf("Save: %v", err)
	}
	data, err := os.ReadFile(path)
	if err != nil {
		t.Fatal(err)
	}
	if len(data) == 0 || data[0] != '{' {
		t.Error("json save should produce a json document")
	}
}

func TestHCLIsReadOnly(t *testing.T) {
	if _, err := Encode(&sampleNet, FormatHCL); !errors.Is(err, ErrHCLReadOnly) {
		t.Fatalf("got %v, want ErrHCLReadOnly", err)
	}
}
