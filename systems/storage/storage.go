// Package storage contains registries persistence providers.
package storage

import (
	"context"
	"database/sql"
	"fmt"
	"os"
	"path/filepath"
	"sync"
	"time"

	"github.com/go-home-io/klyqa/plugins/common"
	"github.com/go-home-io/klyqa/providers"
	// SQLite driver.
	_ "github.com/mattn/go-sqlite3"
	"github.com/pkg/errors"
)

const (
	// Logs representation.
	logSystem = "storage"

	connectionTimeout = 5 * time.Second
	busyTimeoutMs     = 5000
)

const schema = `CREATE TABLE IF NOT EXISTS registry (
	kind TEXT NOT NULL,
	id   TEXT NOT NULL,
	data BLOB NOT NULL,
	updated_at INTEGER NOT NULL,
	PRIMARY KEY (kind, id)
)`

// SQLite storage provider.
type provider struct {
	db     *sql.DB
	logger common.ILoggerProvider
}

// ConstructStorage has data required for a new storage provider.
type ConstructStorage struct {
	Logger common.ILoggerProvider
	Path   string
}

// NewStorageProvider opens SQLite database, creating it if necessary.
func NewStorageProvider(ctor *ConstructStorage) (providers.IStorageProvider, error) {
	if err := os.MkdirAll(filepath.Dir(ctor.Path), 0750); err != nil {
		return nil, errors.Wrap(err, "create storage directory")
	}

	connStr := fmt.Sprintf("file:%s?_busy_timeout=%d&_journal_mode=WAL&_synchronous=NORMAL",
		ctor.Path, busyTimeoutMs)
	db, err := sql.Open("sqlite3", connStr)
	if err != nil {
		return nil, errors.Wrap(err, "open storage")
	}

	db.SetMaxOpenConns(1)
	db.SetMaxIdleConns(1)

	ctx, cancel := context.WithTimeout(context.Background(), connectionTimeout)
	defer cancel()

	if _, err := db.ExecContext(ctx, schema); err != nil {
		db.Close() // nolint: errcheck
		return nil, errors.Wrap(err, "create storage schema")
	}

	ctor.Logger.Info("Registry storage opened", common.LogSystemToken, logSystem,
		common.LogFileToken, ctor.Path)

	return &provider{
		db:     db,
		logger: ctor.Logger,
	}, nil
}

// Save upserts a record.
func (p *provider) Save(kind string, id string, data []byte) error {
	_, err := p.db.Exec(`INSERT INTO registry (kind, id, data, updated_at) VALUES (?, ?, ?, ?)
		ON CONFLICT (kind, id) DO UPDATE SET data = excluded.data, updated_at = excluded.updated_at`,
		kind, id, data, time.Now().UTC().Unix())
	return errors.Wrap(err, "save record")
}

// Delete removes a record.
func (p *provider) Delete(kind string, id string) error {
	_, err := p.db.Exec(`DELETE FROM registry WHERE kind = ? AND id = ?`, kind, id)
	return errors.Wrap(err, "delete record")
}

// Load returns all records of the kind.
func (p *provider) Load(kind string) (map[string][]byte, error) {
	rows, err := p.db.Query(`SELECT id, data FROM registry WHERE kind = ?`, kind)
	if err != nil {
		return nil, errors.Wrap(err, "query records")
	}
	defer rows.Close() // nolint: errcheck

	res := make(map[string][]byte)
	for rows.Next() {
		var id string
		var data []byte
		if err := rows.Scan(&id, &data); err != nil {
			return nil, errors.Wrap(err, "scan record")
		}
		res[id] = data
	}

	return res, errors.Wrap(rows.Err(), "iterate records")
}

// Close closes database.
func (p *provider) Close() error {
	return p.db.Close()
}

// Empty storage keeps records in memory only.
type emptyProvider struct {
	sync.Mutex
	data map[string]map[string][]byte
}

// NewEmptyStorageProvider returns a storage which doesn't persist anything.
// It is used if no storage path was configured.
func NewEmptyStorageProvider() providers.IStorageProvider {
	return &emptyProvider{data: make(map[string]map[string][]byte)}
}

// Save stores record in memory.
func (p *emptyProvider) Save(kind string, id string, data []byte) error {
	p.Lock()
	defer p.Unlock()
	if _, ok := p.data[kind]; !ok {
		p.data[kind] = make(map[string][]byte)
	}
	p.data[kind][id] = data
	return nil
}

// Delete removes record from memory.
func (p *emptyProvider) Delete(kind string, id string) error {
	p.Lock()
	defer p.Unlock()
	delete(p.data[kind], id)
	return nil
}

// Load returns copy of the stored records.
func (p *emptyProvider) Load(kind string) (map[string][]byte, error) {
	p.Lock()
	defer p.Unlock()
	res := make(map[string][]byte, len(p.data[kind]))
	for k, v := range p.data[kind] {
		res[k] = v
	}
	return res, nil
}

// Close does nothing.
func (p *emptyProvider) Close() error {
	return nil
}
