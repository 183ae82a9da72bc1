package models

import (
	"fmt"
	"time"

	"github.com/timshannon/bolthold"
	"go.etcd.io/bbolt"
)

// Database wraps the bolthold store holding the confirmed library and the
// artwork cache index
type Database struct {
	store *bolthold.Store
}

// NewDatabase creates a new database connection
func NewDatabase(path string) (*Database, error) {
	store, err := bolthold.Open(path, 0600, &bolthold.Options{
		Options: &bbolt.Options{
			Timeout: 1 * time.Second,
		},
	})
	if err != nil {
		return nil, fmt.Errorf("failed to open database: %w", err)
	}

	return &Database{store: store}, nil
}

// Close closes the database connection
func (db *Database) Close() error {
	return db.store.Close()
}

// Library operations

// ListLibrary retrieves every confirmed library entry
func (db *Database) ListLibrary() ([]*LibraryEntry, error) {
	var entries []*LibraryEntry
	err := db.store.Find(&entries, nil)
	return entries, err
}

// GetLibraryEntry retrieves a confirmed library entry by id
func (db *Database) GetLibraryEntry(id string) (*LibraryEntry, error) {
	var entry LibraryEntry
	if err := db.store.Get(id, &entry); err != nil {
		return nil, err
	}
	return &entry, nil
}

// CreateLibraryEntry inserts a confirmed library entry
func (db *Database) CreateLibraryEntry(entry *LibraryEntry) error {
	entry.CreatedAt = time.Now()
	entry.UpdatedAt = time.Now()
	return db.store.Insert(entry.ID, entry)
}

// DeleteLibraryEntry removes a confirmed library entry by id
func (db *Database) DeleteLibraryEntry(id string) error {
	return db.store.Delete(id, &LibraryEntry{})
}

// Artwork cache index operations

// GetCachedArtwork retrieves the cache record for a game id and image kind.
// Returns bolthold.ErrNotFound when the image has never been cached.
func (db *Database) GetCachedArtwork(gameID string, kind ImageKind) (*CachedArtwork, error) {
	var art CachedArtwork
	if err := db.store.Get(ArtworkKey(gameID, kind), &art); err != nil {
		return nil, err
	}
	return &art, nil
}

// PutCachedArtwork inserts or overwrites the cache record for its key
func (db *Database) PutCachedArtwork(art *CachedArtwork) error {
	art.Key = ArtworkKey(art.GameID, art.Kind)
	now := time.Now()
	if art.CreatedAt.IsZero() {
		art.CreatedAt = now
	}
	art.UpdatedAt = now
	return db.store.Upsert(art.Key, art)
}

// ListCachedArtwork retrieves every artwork cache record
func (db *Database) ListCachedArtwork() ([]*CachedArtwork, error) {
	var arts []*CachedArtwork
	err := db.store.Find(&arts, nil)
	return arts, err
}

// DeleteCachedArtwork removes a single cache record
func (db *Database) DeleteCachedArtwork(gameID string, kind ImageKind) error {
	return db.store.Delete(ArtworkKey(gameID, kind), &CachedArtwork{})
}

// ClearCachedArtwork removes every cache record for a game id
func (db *Database) ClearCachedArtwork(gameID string) error {
	return db.store.DeleteMatching(&CachedArtwork{}, bolthold.Where("GameID").Eq(gameID).Index("GameID"))
}

// IsNotFound reports whether err means a record does not exist
func IsNotFound(err error) bool {
	return err == bolthold.ErrNotFound
}
