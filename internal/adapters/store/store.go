// Package store persists workflows in badger: the head revision of each
// workflow under one key, plus an immutable snapshot per saved version.
package store

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"sync"
	"time"

	"github.com/dgraph-io/badger/v3"
	"github.com/google/uuid"

	"github.com/tiomfree/pyspur/internal/domain"
	"github.com/tiomfree/pyspur/internal/ports"
	"github.com/tiomfree/pyspur/internal/xjson"
)

type Adapter struct {
	db     *badger.DB
	logger *slog.Logger

	mu     sync.Mutex
	closed bool
}

// Open opens a badger-backed store at dataDir. An empty dataDir opens
// an in-memory database, used by tests and throwaway environments.
func Open(dataDir string, logger *slog.Logger) (*Adapter, error) {
	if logger == nil {
		logger = slog.Default()
	}

	opts := badger.DefaultOptions(dataDir)
	if dataDir == "" {
		opts = opts.WithInMemory(true)
	}
	opts = opts.WithLogger(nil)

	db, err := badger.Open(opts)
	if err != nil {
		return nil, domain.NewStorageError("failed to open workflow store", err,
			domain.WithComponent("workflow-store"))
	}

	return &Adapter{
		db:     db,
		logger: logger.With("component", "workflow-store"),
	}, nil
}

func (s *Adapter) Close() error {
	s.mu.Lock()
	defer s.mu.Unlock()

	if s.closed {
		return nil
	}
	s.closed = true
	return s.db.Close()
}

func (s *Adapter) Create(ctx context.Context, name, description string, def *domain.WorkflowDefinition) (*ports.WorkflowRecord, error) {
	if err := domain.ValidateDefinition(def); err != nil {
		return nil, err
	}

	now := time.Now().UTC()
	record := &ports.WorkflowRecord{
		ID:          uuid.NewString(),
		Name:        name,
		Description: description,
		Version:     1,
		Definition:  def,
		CreatedAt:   now,
		UpdatedAt:   now,
	}

	if err := s.put(record); err != nil {
		return nil, err
	}

	s.logger.Debug("workflow created", "workflow_id", record.ID, "name", name)
	return record, nil
}

func (s *Adapter) Get(ctx context.Context, id string) (*ports.WorkflowRecord, error) {
	return s.get(domain.WorkflowDefKey(id), id)
}

func (s *Adapter) GetVersion(ctx context.Context, id string, version int64) (*ports.WorkflowRecord, error) {
	return s.get(domain.WorkflowVersionKey(id, version), id)
}

func (s *Adapter) Update(ctx context.Context, id string, def *domain.WorkflowDefinition) (*ports.WorkflowRecord, error) {
	if err := domain.ValidateDefinition(def); err != nil {
		return nil, err
	}

	record, err := s.Get(ctx, id)
	if err != nil {
		return nil, err
	}

	record.Version++
	record.Definition = def
	record.UpdatedAt = time.Now().UTC()

	if err := s.put(record); err != nil {
		return nil, err
	}

	s.logger.Debug("workflow updated", "workflow_id", id, "version", record.Version)
	return record, nil
}

func (s *Adapter) Delete(ctx context.Context, id string) error {
	if _, err := s.Get(ctx, id); err != nil {
		return err
	}

	err := s.db.Update(func(txn *badger.Txn) error {
		if err := txn.Delete([]byte(domain.WorkflowDefKey(id))); err != nil {
			return err
		}

		prefix := []byte(domain.WorkflowVersionPrefix + id + ":")
		it := txn.NewIterator(badger.IteratorOptions{Prefix: prefix})
		defer it.Close()

		var versionKeys [][]byte
		for it.Rewind(); it.Valid(); it.Next() {
			versionKeys = append(versionKeys, it.Item().KeyCopy(nil))
		}
		for _, key := range versionKeys {
			if err := txn.Delete(key); err != nil {
				return err
			}
		}
		return nil
	})
	if err != nil {
		return domain.NewStorageError("failed to delete workflow", err,
			domain.WithComponent("workflow-store")).WithWorkflowID(id)
	}

	s.logger.Debug("workflow deleted", "workflow_id", id)
	return nil
}

func (s *Adapter) List(ctx context.Context) ([]*ports.WorkflowRecord, error) {
	var records []*ports.WorkflowRecord

	err := s.db.View(func(txn *badger.Txn) error {
		prefix := []byte(domain.WorkflowDefPrefix)
		it := txn.NewIterator(badger.IteratorOptions{Prefix: prefix, PrefetchValues: true})
		defer it.Close()

		for it.Rewind(); it.Valid(); it.Next() {
			value, err := it.Item().ValueCopy(nil)
			if err != nil {
				return err
			}
			record, err := decodeRecord(value)
			if err != nil {
				return err
			}
			records = append(records, record)
		}
		return nil
	})
	if err != nil {
		return nil, domain.NewStorageError("failed to list workflows", err,
			domain.WithComponent("workflow-store"))
	}

	return records, nil
}

// SaveRun persists one finished run under its run id.
func (s *Adapter) SaveRun(ctx context.Context, run *domain.WorkflowRun) error {
	value, err := xjson.Marshal(run)
	if err != nil {
		return domain.NewStorageError("failed to encode workflow run", err,
			domain.WithComponent("workflow-store"))
	}

	err = s.db.Update(func(txn *badger.Txn) error {
		return txn.Set([]byte(domain.WorkflowRunKey(run.ID)), value)
	})
	if err != nil {
		return domain.NewStorageError("failed to save workflow run", err,
			domain.WithComponent("workflow-store")).WithWorkflowID(run.WorkflowID)
	}

	s.logger.Debug("workflow run saved", "run_id", run.ID, "status", run.Status)
	return nil
}

// GetRun returns one persisted run by its id.
func (s *Adapter) GetRun(ctx context.Context, id string) (*domain.WorkflowRun, error) {
	var value []byte

	err := s.db.View(func(txn *badger.Txn) error {
		item, err := txn.Get([]byte(domain.WorkflowRunKey(id)))
		if err != nil {
			return err
		}
		value, err = item.ValueCopy(nil)
		return err
	})
	if err != nil {
		if errors.Is(err, badger.ErrKeyNotFound) {
			return nil, domain.NewStorageError(
				fmt.Sprintf("workflow run not found: %s", id), domain.ErrNotFound,
				domain.WithComponent("workflow-store"))
		}
		return nil, domain.NewStorageError("failed to read workflow run", err,
			domain.WithComponent("workflow-store"))
	}

	var run domain.WorkflowRun
	if err := xjson.Unmarshal(value, &run); err != nil {
		return nil, domain.NewStorageError("failed to decode workflow run", err,
			domain.WithComponent("workflow-store"))
	}
	return &run, nil
}

func (s *Adapter) put(record *ports.WorkflowRecord) error {
	value, err := xjson.Marshal(record)
	if err != nil {
		return domain.NewStorageError("failed to encode workflow", err,
			domain.WithComponent("workflow-store")).WithWorkflowID(record.ID)
	}

	err = s.db.Update(func(txn *badger.Txn) error {
		if err := txn.Set([]byte(domain.WorkflowDefKey(record.ID)), value); err != nil {
			return err
		}
		return txn.Set([]byte(domain.WorkflowVersionKey(record.ID, record.Version)), value)
	})
	if err != nil {
		return domain.NewStorageError("failed to save workflow", err,
			domain.WithComponent("workflow-store")).WithWorkflowID(record.ID)
	}
	return nil
}

func (s *Adapter) get(key, id string) (*ports.WorkflowRecord, error) {
	var value []byte

	err := s.db.View(func(txn *badger.Txn) error {
		item, err := txn.Get([]byte(key))
		if err != nil {
			return err
		}
		value, err = item.ValueCopy(nil)
		return err
	})
	if err != nil {
		if errors.Is(err, badger.ErrKeyNotFound) {
			return nil, domain.NewStorageError(
				fmt.Sprintf("workflow not found: %s", id), domain.ErrNotFound,
				domain.WithComponent("workflow-store")).WithWorkflowID(id)
		}
		return nil, domain.NewStorageError("failed to read workflow", err,
			domain.WithComponent("workflow-store")).WithWorkflowID(id)
	}

	return decodeRecord(value)
}

func decodeRecord(value []byte) (*ports.WorkflowRecord, error) {
	var record ports.WorkflowRecord
	if err := xjson.Unmarshal(value, &record); err != nil {
		return nil, domain.NewStorageError("failed to decode workflow record", err,
			domain.WithComponent("workflow-store"))
	}

	// Definitions written before model names carried a provider prefix
	// are rewritten on the way out, once per load.
	if record.Definition != nil {
		record.Definition.MigrateModelProviders()
	}

	return &record, nil
}
