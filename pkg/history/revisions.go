package history

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"time"

	"github.com/google/uuid"

	"github.com/voltspan/feederflow/pkg/storage"
)

// Revision errors surfaced to the CLI.
var (
	ErrNothingToUndo = errors.New("history: nothing to undo")
	ErrNothingToRedo = errors.New("history: nothing to redo")
)

// RevisionInfo describes one stored network revision.
type RevisionInfo struct {
	ID        string `json:"id"`
	Seq       int    `json:"seq"`
	Timestamp int64  `json:"timestamp"`
	Path      string `json:"path"`
	Size      int    `json:"size"`
}

type revisionMeta struct {
	// Cursor indexes the revision the working file currently matches.
	// -1 means the stack is empty.
	Cursor    int            `json:"cursor"`
	Revisions []RevisionInfo `json:"revisions"`
}

// RevisionStore stacks network file contents so edits can be walked
// back and forth. Push adds on top of the cursor and drops any redo
// tail, the usual editor undo model.
type RevisionStore struct {
	store  storage.BlobStore
	prefix string
}

// NewRevisionStore roots a revision stack at prefix inside store.
func NewRevisionStore(store storage.BlobStore, prefix string) *RevisionStore {
	if prefix == "" {
		prefix = "revisions"
	}
	return &RevisionStore{store: store, prefix: prefix}
}

// Push records content as the newest revision and moves the cursor to it.
func (r *RevisionStore) Push(ctx context.Context, path string, content []byte) (RevisionInfo, error) {
	meta, err := r.loadMeta(ctx)
	if err != nil {
		return RevisionInfo{}, err
	}

	// Drop the redo tail.
	meta.Revisions = meta.Revisions[:meta.Cursor+1]

	seq := 0
	if n := len(meta.Revisions); n > 0 {
		seq = meta.Revisions[n-1].Seq + 1
	}

	info := RevisionInfo{
		ID:        uuid.NewString(),
		Seq:       seq,
		Timestamp: time.Now().Unix(),
		Path:      path,
		Size:      len(content),
	}

	if err := r.store.Put(ctx, r.contentKey(seq), content); err != nil {
		return RevisionInfo{}, fmt.Errorf("failed to store revision: %w", err)
	}

	meta.Revisions = append(meta.Revisions, info)
	meta.Cursor = len(meta.Revisions) - 1

	if err := r.saveMeta(ctx, meta); err != nil {
		return RevisionInfo{}, err
	}
	return info, nil
}

// Undo steps the cursor back one revision and returns its content.
func (r *RevisionStore) Undo(ctx context.Context) ([]byte, RevisionInfo, error) {
	meta, err := r.loadMeta(ctx)
	if err != nil {
		return nil, RevisionInfo{}, err
	}
	if meta.Cursor <= 0 {
		return nil, RevisionInfo{}, ErrNothingToUndo
	}

	meta.Cursor--
	info := meta.Revisions[meta.Cursor]

	content, err := r.store.Get(ctx, r.contentKey(info.Seq))
	if err != nil {
		return nil, RevisionInfo{}, fmt.Errorf("failed to load revision %d: %w", info.Seq, err)
	}

	if err := r.saveMeta(ctx, meta); err != nil {
		return nil, RevisionInfo{}, err
	}
	return content, info, nil
}

// Redo steps the cursor forward one revision and returns its content.
func (r *RevisionStore) Redo(ctx context.Context) ([]byte, RevisionInfo, error) {
	meta, err := r.loadMeta(ctx)
	if err != nil {
		return nil, RevisionInfo{}, err
	}
	if meta.Cursor >= len(meta.Revisions)-1 {
		return nil, RevisionInfo{}, ErrNothingToRedo
	}

	meta.Cursor++
	info := meta.Revisions[meta.Cursor]

	content, err := r.store.Get(ctx, r.contentKey(info.Seq))
	if err != nil {
		return nil, RevisionInfo{}, fmt.Errorf("failed to load revision %d: %w", info.Seq, err)
	}

	if err := r.saveMeta(ctx, meta); err != nil {
		return nil, RevisionInfo{}, err
	}
	return content, info, nil
}

// List returns every stored revision plus the cursor position.
func (r *RevisionStore) List(ctx context.Context) ([]RevisionInfo, int, error) {
	meta, err := r.loadMeta(ctx)
	if err != nil {
		return nil, -1, err
	}
	return meta.Revisions, meta.Cursor, nil
}

func (r *RevisionStore) contentKey(seq int) string {
	return fmt.Sprintf("%s/%06d.net", r.prefix, seq)
}

func (r *RevisionStore) metaKey() string {
	return r.prefix + "/meta.json"
}

func (r *RevisionStore) loadMeta(ctx context.Context) (revisionMeta, error) {
	meta := revisionMeta{Cursor: -1}

	data, err := r.store.Get(ctx, r.metaKey())
	if errors.Is(err, storage.ErrNotFound) {
		return meta, nil
	}
	if err != nil {
		return meta, fmt.Errorf("failed to load revision index: %w", err)
	}

	if err := json.Unmarshal(data, &meta); err != nil {
		return revisionMeta{Cursor: -1}, fmt.Errorf("corrupt revision index: %w", err)
	}
	return meta, nil
}

func (r *RevisionStore) saveMeta(ctx context.Context, meta revisionMeta) error {
	data, err := json.Marshal(meta)
	if err != nil {
		return err
	}
	return r.store.Put(ctx, r.metaKey(), data)
}
