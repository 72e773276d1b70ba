package repository

import (
	"context"
	"encoding/json"
	"fmt"

	"go.uber.org/zap"

	"github.com/noah-isme/turmas-api/pkg/kvstore"
)

// CorruptionRecorder is notified when a stored document cannot be decoded.
type CorruptionRecorder interface {
	RecordCorruptDocument(key string)
}

// documents reads and replaces whole JSON documents in a kvstore.Store.
type documents struct {
	store    kvstore.Store
	logger   *zap.Logger
	recorder CorruptionRecorder
}

func newDocuments(store kvstore.Store, logger *zap.Logger, recorder CorruptionRecorder) documents {
	if logger == nil {
		logger = zap.NewNop()
	}
	return documents{store: store, logger: logger, recorder: recorder}
}

// loadDocument decodes the document under key. found is true only when a
// decodable document exists; a missing key yields the zero value. A document
// that is not valid JSON for T is logged, counted and treated as absent so
// callers see an empty collection.
func loadDocument[T any](ctx context.Context, d documents, key string) (out T, found bool, err error) {
	raw, present, err := d.store.Get(ctx, key)
	if err != nil {
		return out, false, fmt.Errorf("read %s: %w", key, err)
	}
	if !present || raw == "" {
		return out, false, nil
	}
	if err := json.Unmarshal([]byte(raw), &out); err != nil {
		d.logger.Warn("corrupt document treated as empty",
			zap.String("key", key),
			zap.Int("bytes", len(raw)),
			zap.Error(err),
		)
		if d.recorder != nil {
			d.recorder.RecordCorruptDocument(key)
		}
		var zero T
		return zero, false, nil
	}
	return out, true, nil
}

// save replaces the document under key with the JSON encoding of value.
func (d documents) save(ctx context.Context, key string, value interface{}) error {
	payload, err := json.Marshal(value)
	if err != nil {
		return fmt.Errorf("encode %s: %w", key, err)
	}
	if err := d.store.Set(ctx, key, string(payload)); err != nil {
		return fmt.Errorf("write %s: %w", key, err)
	}
	return nil
}

func (d documents) remove(ctx context.Context, key string) error {
	if err := d.store.Delete(ctx, key); err != nil {
		return fmt.Errorf("delete %s: %w", key, err)
	}
	return nil
}
