package redis

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"sort"

	"github.com/aretw0/lattice/pkg/domain"
	"github.com/aretw0/lattice/pkg/history"
	"github.com/aretw0/lattice/pkg/ports"
	backend "github.com/redis/go-redis/v9"
)

const defaultPrefix = "lattice:"

// Store implements ports.ChangeLogStore using Redis.
// Each document is a list of JSON commits; the list length is the version.
// Keys never expire: the change log is the durable record of a document.
type Store struct {
	client *backend.Client
	prefix string
}

type Option func(*Store)

// WithPrefix sets the key prefix.
func WithPrefix(prefix string) Option {
	return func(s *Store) {
		s.prefix = prefix
	}
}

// New creates a new Redis store with options.
func New(address, password string, db int, opts ...Option) *Store {
	rdb := backend.NewClient(&backend.Options{
		Addr:     address,
		Password: password,
		DB:       db,
	})
	return NewFromClient(rdb, opts...)
}

// NewFromClient creates a new Redis store from an existing client.
func NewFromClient(client *backend.Client, opts ...Option) *Store {
	store := &Store{
		client: client,
		prefix: defaultPrefix,
	}

	for _, opt := range opts {
		opt(store)
	}

	return store
}

// Client returns the underlying client, e.g. to share it with a Locker.
func (s *Store) Client() *backend.Client {
	return s.client
}

func (s *Store) key(docID string) string {
	return s.prefix + "log:" + docID
}

func (s *Store) indexKey() string {
	return s.prefix + "index"
}

// Append pushes the commit under WATCH, so two writers racing on the same
// version cannot both succeed.
func (s *Store) Append(ctx context.Context, docID string, expectedVersion int, changes []history.Descriptor, message string) (ports.Commit, error) {
	key := s.key(docID)
	var commit ports.Commit

	txf := func(tx *backend.Tx) error {
		n, err := tx.LLen(ctx, key).Result()
		if err != nil {
			return err
		}
		if err := ports.CheckAppend(docID, int(n), expectedVersion, changes); err != nil {
			return err
		}

		commit, err = ports.NewCommit(docID, int(n)+1, changes, message)
		if err != nil {
			return err
		}
		data, err := json.Marshal(commit)
		if err != nil {
			return fmt.Errorf("failed to marshal commit: %w", err)
		}

		_, err = tx.TxPipelined(ctx, func(pipe backend.Pipeliner) error {
			pipe.RPush(ctx, key, data)
			pipe.SAdd(ctx, s.indexKey(), docID)
			return nil
		})
		return err
	}

	err := s.client.Watch(ctx, txf, key)
	if errors.Is(err, backend.TxFailedErr) {
		// Someone committed between our read and EXEC.
		current, verr := s.Version(ctx, docID)
		if verr != nil {
			return ports.Commit{}, verr
		}
		if err := ports.CheckAppend(docID, current, expectedVersion, changes); err != nil {
			return ports.Commit{}, err
		}
		return ports.Commit{}, fmt.Errorf("%w: %s changed while saving", domain.ErrVersionConflict, docID)
	}
	if err != nil {
		return ports.Commit{}, err
	}
	return commit, nil
}

// Load retrieves the commits of docID.
func (s *Store) Load(ctx context.Context, docID string) ([]ports.Commit, error) {
	vals, err := s.client.LRange(ctx, s.key(docID), 0, -1).Result()
	if err != nil {
		return nil, fmt.Errorf("failed to read change log from redis: %w", err)
	}

	commits := make([]ports.Commit, 0, len(vals))
	for i, val := range vals {
		var c ports.Commit
		if err := json.Unmarshal([]byte(val), &c); err != nil {
			return nil, fmt.Errorf("failed to unmarshal commit %d of %s: %w", i+1, docID, err)
		}
		commits = append(commits, c)
	}
	return commits, nil
}

// Version returns the length of the change log.
func (s *Store) Version(ctx context.Context, docID string) (int, error) {
	n, err := s.client.LLen(ctx, s.key(docID)).Result()
	if err != nil {
		return 0, fmt.Errorf("failed to read version from redis: %w", err)
	}
	return int(n), nil
}

// List returns the documents that have at least one commit.
func (s *Store) List(ctx context.Context) ([]string, error) {
	docs, err := s.client.SMembers(ctx, s.indexKey()).Result()
	if err != nil {
		return nil, fmt.Errorf("failed to list documents: %w", err)
	}
	sort.Strings(docs)
	return docs, nil
}

// Close closes the redis client.
func (s *Store) Close() error {
	return s.client.Close()
}
