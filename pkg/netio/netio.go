// Package netio loads and saves feeder network files. Three formats are
// understood: JSON as the interchange form the HTTP API speaks, YAML
// for hand-authoring, and HCL for block-structured definitions. HCL is
// read-only; saves always target JSON or YAML.
package netio

import (
	"bytes"
	"encoding/json"
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"strings"

	"gopkg.in/yaml.v3"

	"github.com/voltspan/feederflow/pkg/model"
)

// Format identifies one on-disk network representation.
type Format string

const (
	FormatJSON Format = "json"
	FormatYAML Format = "yaml"
	FormatHCL  Format = "hcl"
)

var (
	ErrUnknownFormat = errors.New("unknown network file format")
	ErrHCLReadOnly   = errors.New("hcl network files are read-only inputs")
)

// DetectFormat picks a format by file extension, falling back to a
// content sniff for extensionless input such as API uploads.
func DetectFormat(path string, data []byte) Format {
	switch strings.ToLower(filepath.Ext(path)) {
	case ".json":
		return FormatJSON
	case ".yaml", ".yml":
		return FormatYAML
	case ".hcl":
		return FormatHCL
	}
	trimmed := bytes.TrimLeft(data, " \t\r\n")
	switch {
	case len(trimmed) > 0 && (trimmed[0] == '{' || trimmed[0] == '['):
		return FormatJSON
	case bytes.Contains(data, []byte(`network "`)) || bytes.Contains(data, []byte(`node "`)):
		return FormatHCL
	default:
		return FormatYAML
	}
}

// Decode parses one network document. The filename only feeds
// diagnostics and format detection, it is never opened.
func Decode(filename string, data []byte, f Format) (*model.Network, error) {
	switch f {
	case FormatJSON:
		var net model.Network
		if err := json.Unmarshal(data, &net); err != nil {
			return nil, fmt.Errorf("parsing %s: %w", filename, err)
		}
		return &net, nil
	case FormatYAML:
		var net model.Network
		if err := yaml.Unmarshal(data, &net); err != nil {
			return nil, fmt.Errorf("parsing %s: %w", filename, err)
		}
		return &net, nil
	case FormatHCL:
		return decodeHCL(filename, data)
	default:
		return nil, fmt.Errorf("%w: %q", ErrUnknownFormat, f)
	}
}

// Load reads a network file from disk. A file that does not name itself
// gets the base filename as its network name so reports have something
// to print.
func Load(path string) (*model.Network, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("reading network file: %w", err)
	}
	net, err := Decode(path, data, DetectFormat(path, data))
	if err != nil {
		return nil, err
	}
	if net.Name == "" {
		base := filepath.Base(path)
		net.Name = strings.TrimSuffix(base, filepath.Ext(base))
	}
	return net, nil
}

// Encode renders a network in the requested format.
func Encode(net *model.Network, f Format) ([]byte, error) {
	switch f {
	case FormatJSON:
		data, err := json.MarshalIndent(net, "", "  ")
		if err != nil {
			return nil, err
		}
		return append(data, '\n'), nil
	case FormatYAML:
		return yaml.Marshal(net)
	case FormatHCL:
		return nil, ErrHCLReadOnly
	default:
		return nil, fmt.Errorf("%w: %q", ErrUnknownFormat, f)
	}
}

// Save writes a network file, choosing the format from the target
// extension.
func Save(path string, net *model.Network) error {
	data, err := Encode(net, DetectFormat(path, nil))
	if err != nil {
		return err
	}
	if err := os.WriteFile(path, data, 0o644); err != nil {
		return fmt.Errorf("writing network file: %w", err)
	}
	return nil
}
