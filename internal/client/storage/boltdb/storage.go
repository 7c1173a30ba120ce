package boltdb

import (
	"context"
	"fmt"
	"time"

	"go.etcd.io/bbolt"

	"github.com/iudanet/zkvault/internal/client/storage"
	"github.com/iudanet/zkvault/internal/vault"
)

var (
	// BoltDB bucket names
	bucketAuth       = []byte("auth")
	bucketAccounts   = []byte("accounts")
	bucketProfiles   = []byte("profiles")
	bucketItems      = []byte("items")      // вложенный bucket на пользователя
	bucketCategories = []byte("categories") // вложенный bucket на пользователя
)

// Storage represents BoltDB storage implementation for client.
// Хранит сохраненную сессию, а в offline режиме - все хранилище.
type Storage struct {
	db *bbolt.DB
}

var (
	_ storage.AuthStorage    = (*Storage)(nil)
	_ storage.AccountStorage = (*Storage)(nil)
	_ vault.RecordStore      = (*Storage)(nil)
)

// New creates a new BoltDB storage instance
// dbPath is the path to the BoltDB database file
func New(ctx context.Context, dbPath string) (*Storage, error) {
	// Открываем BoltDB; файл держит блокировку, второй процесс ждет не дольше секунды
	db, err := bbolt.Open(dbPath, 0o600, &bbolt.Options{Timeout: time.Second})
	if err != nil {
		return nil, fmt.Errorf("failed to open boltdb: %w", err)
	}

	s := &Storage{db: db}

	// Инициализируем buckets
	if err := s.initBuckets(); err != nil {
		db.Close()
		return nil, fmt.Errorf("failed to initialize buckets: %w", err)
	}

	return s, nil
}

// Close closes the database connection
func (s *Storage) Close() error {
	if s.db == nil {
		return nil
	}
	return s.db.Close()
}

// initBuckets создает необходимые buckets если они не существуют
func (s *Storage) initBuckets() error {
	return s.db.Update(func(tx *bbolt.Tx) error {
		for _, name := range [][]byte{bucketAuth, bucketAccounts, bucketProfiles, bucketItems, bucketCategories} {
			if _, err := tx.CreateBucketIfNotExists(name); err != nil {
				return fmt.Errorf("failed to create %s bucket: %w", name, err)
			}
		}
		return nil
	})
}

// userBucket возвращает вложенный bucket пользователя или nil
func userBucket(tx *bbolt.Tx, root []byte, userID string) *bbolt.Bucket {
	parent := tx.Bucket(root)
	if parent == nil {
		return nil
	}
	return parent.Bucket([]byte(userID))
}

// ensureUserBucket создает вложенный bucket пользователя при необходимости
func ensureUserBucket(tx *bbolt.Tx, root []byte, userID string) (*bbolt.Bucket, error) {
	parent := tx.Bucket(root)
	if parent == nil {
		return nil, fmt.Errorf("%s bucket not found", root)
	}
	b, err := parent.CreateBucketIfNotExists([]byte(userID))
	if err != nil {
		return nil, fmt.Errorf("failed to create user bucket: %w", err)
	}
	return b, nil
}
