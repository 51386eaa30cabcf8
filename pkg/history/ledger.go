// Package history keeps the study ledger: one snapshot per solve,
// appended forever, so feeder drift is visible across runs.
package history

import (
	"bufio"
	"context"
	"encoding/json"
	"os"
	"path/filepath"
	"time"

	"github.com/google/uuid"

	"github.com/voltspan/feederflow/pkg/model"
	"github.com/voltspan/feederflow/pkg/solver"
)

// Snapshot represents the electrical state of one solved study.
type Snapshot struct {
	ID                string  `json:"id"`
	Timestamp         int64   `json:"timestamp"` // Unix Epoch
	Network           string  `json:"network"`
	SourceKV          float64 `json:"source_kv"`
	Scale             float64 `json:"scale"`
	TotalLoadKVA      float64 `json:"total_load_kva"`
	TotalLossKW       float64 `json:"total_loss_kw"`
	MinPerUnit        float64 `json:"min_per_unit"`
	EfficiencyPercent float64 `json:"efficiency_percent"`
	NodeCount         int     `json:"node_count"`
	EdgeCount         int     `json:"edge_count"`
	ViolationCount    int     `json:"violation_count"`
	CriticalCount     int     `json:"critical_count"`
	Vector            Vector  `json:"-"` // Derived state vector.
}

// FromResult builds a ledger snapshot from a finished solve. Violation
// counts get filled in by the caller once policy has run.
func FromResult(net *model.Network, res *solver.Result, scale float64) Snapshot {
	return Snapshot{
		ID:                uuid.NewString(),
		Timestamp:         time.Now().Unix(),
		Network:           net.Name,
		SourceKV:          net.EffectiveSourceKV(),
		Scale:             scale,
		TotalLoadKVA:      res.System.TotalLoadKVA,
		TotalLossKW:       res.System.TotalLossKW,
		MinPerUnit:        res.System.MinPerUnit,
		EfficiencyPercent: res.System.EfficiencyPercent,
		NodeCount:         len(res.Nodes),
		EdgeCount:         len(res.Edges),
	}
}

// Backend defines the storage interface for snapshots.
type Backend interface {
	Append(ctx context.Context, s Snapshot) error
	Load(ctx context.Context, n int) ([]Snapshot, error)
}

// Client manages historical state.
type Client struct {
	backend Backend
}

// NewClient initializes a history client.
// Defaults to FileBackend.
func NewClient(backend Backend) *Client {
	if backend == nil {
		backend = &FileBackend{}
	}
	return &Client{
		backend: backend,
	}
}

// Append records a new snapshot.
func (c *Client) Append(ctx context.Context, s Snapshot) error {
	return c.backend.Append(ctx, s)
}

// LoadWindow retrieves the trailing history window.
func (c *Client) LoadWindow(ctx context.Context, n int) ([]Snapshot, error) {
	return c.backend.Load(ctx, n)
}

// NewFileBackend creates a file-based backend at the specified path.
func NewFileBackend(path string) *FileBackend {
	return &FileBackend{Path: path}
}

// FileBackend implements local filesystem storage as append-only JSONL.
type FileBackend struct {
	Path string
}

func (b *FileBackend) Append(ctx context.Context, s Snapshot) error {
	path := b.Path
	if path == "" {
		var err error
		path, err = DefaultLedgerPath()
		if err != nil {
			return err
		}
	}

	dir := filepath.Dir(path)
	if err := os.MkdirAll(dir, 0755); err != nil {
		return err
	}

	f, err := os.OpenFile(path, os.O_APPEND|os.O_CREATE|os.O_WRONLY, 0644)
	if err != nil {
		return err
	}
	defer f.Close()

	data, err := json.Marshal(s)
	if err != nil {
		return err
	}

	if _, err := f.Write(append(data, '\n')); err != nil {
		return err
	}
	return nil
}

func (b *FileBackend) Load(ctx context.Context, n int) ([]Snapshot, error) {
	path := b.Path
	if path == "" {
		var err error
		path, err = DefaultLedgerPath()
		if err != nil {
			return nil, err
		}
	}

	f, err := os.Open(path)
	if os.IsNotExist(err) {
		return []Snapshot{}, nil
	}
	if err != nil {
		return nil, err
	}
	defer f.Close()

	var history []Snapshot
	scanner := bufio.NewScanner(f)
	for scanner.Scan() {
		var s Snapshot
		if err := json.Unmarshal(scanner.Bytes(), &s); err != nil {
			continue // Skip corrupt lines
		}
		history = append(history, s)
	}

	if err := scanner.Err(); err != nil {
		return nil, err
	}

	if len(history) > n {
		return history[len(history)-n:], nil
	}
	return history, nil
}

// DefaultLedgerPath provides the default local storage path.
func DefaultLedgerPath() (string, error) {
	home, err := os.UserHomeDir()
	if err != nil {
		return "", err
	}
	return filepath.Join(home, ".feederflow", "ledger.jsonl"), nil
}
