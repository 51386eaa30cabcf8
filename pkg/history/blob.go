package history

import (
	"bufio"
	"bytes"
	"context"
	"encoding/json"
	"errors"
	"fmt"

	awsconfig "github.com/aws/aws-sdk-go-v2/config"

	"github.com/voltspan/feederflow/pkg/storage"
)

// BlobBackend keeps the whole ledger as one JSONL object in a
// BlobStore. Blob stores have no append, so every write is
// read-modify-write; fine for a ledger that grows once per study.
type BlobBackend struct {
	Store storage.BlobStore
	Key   string
}

// NewBlobBackend wraps an existing store.
func NewBlobBackend(store storage.BlobStore, key string) *BlobBackend {
	return &BlobBackend{Store: store, Key: key}
}

// NewS3Backend initializes a ledger backend from an s3:// URL.
func NewS3Backend(ctx context.Context, s3URL string) (*BlobBackend, error) {
	bucket, key, ok := storage.ParseS3URL(s3URL)
	if !ok {
		return nil, fmt.Errorf("invalid s3 url %q", s3URL)
	}
	if key == "" {
		key = "ledger.jsonl"
	}

	cfg, err := awsconfig.LoadDefaultConfig(ctx)
	if err != nil {
		return nil, fmt.Errorf("failed to load aws config: %w", err)
	}

	return &BlobBackend{
		Store: storage.NewS3Store(cfg, bucket),
		Key:   key,
	}, nil
}

func (b *BlobBackend) Append(ctx context.Context, s Snapshot) error {
	existing, err := b.readAll(ctx)
	if err != nil {
		if !errors.Is(err, storage.ErrNotFound) {
			return err
		}
		// First snapshot starts a fresh ledger.
		existing = []Snapshot{}
	}

	existing = append(existing, s)

	var buf bytes.Buffer
	for _, snap := range existing {
		data, err := json.Marshal(snap)
		if err != nil {
			return err
		}
		buf.Write(data)
		buf.WriteString("\n")
	}

	return b.Store.Put(ctx, b.Key, buf.Bytes())
}

func (b *BlobBackend) Load(ctx context.Context, n int) ([]Snapshot, error) {
	history, err := b.readAll(ctx)
	if err != nil {
		if errors.Is(err, storage.ErrNotFound) {
			return []Snapshot{}, nil
		}
		return nil, err
	}

	if len(history) > n {
		return history[len(history)-n:], nil
	}
	return history, nil
}

func (b *BlobBackend) readAll(ctx context.Context) ([]Snapshot, error) {
	data, err := b.Store.Get(ctx, b.Key)
	if err != nil {
		return nil, err
	}

	var history []Snapshot
	scanner := bufio.NewScanner(bytes.NewReader(data))
	for scanner.Scan() {
		var s Snapshot
		if err := json.Unmarshal(scanner.Bytes(), &s); err != nil {
			continue
		}
		history = append(history, s)
	}
	return history, scanner.Err()
}
