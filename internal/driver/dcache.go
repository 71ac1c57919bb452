package driver

import (
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"sync"
	"time"

	"github.com/vmihailenco/msgpack/v5"

	"hirindex/internal/fingerprint"
)

// SnapshotSchemaVersion - текущая версия формата Snapshot, увеличивать при изменении формата.
const SnapshotSchemaVersion uint16 = 1

// Snapshot is what one run persists about a crate: enough to tell the next
// run which owners changed.
type Snapshot struct {
	Schema    uint16                  `msgpack:"schema" cbor:"1,keyasint"`
	Session   string                  `msgpack:"session" cbor:"2,keyasint"`
	Crate     string                  `msgpack:"crate" cbor:"3,keyasint"`
	HashSpans bool                    `msgpack:"hash_spans" cbor:"4,keyasint"`
	CrateHash fingerprint.Fingerprint `msgpack:"crate_hash" cbor:"5,keyasint"`
	Owners    []OwnerRecord           `msgpack:"owners" cbor:"6,keyasint"`
}

// OwnerRecord is the persisted form of an OwnerSummary. Owners are keyed by
// def path since DefIDs are not stable across runs. Hash and NodeHash are
// the stable fingerprints of the owner nodes and of the owner.
type OwnerRecord struct {
	Path     string                  `msgpack:"path" cbor:"1,keyasint"`
	Kind     string                  `msgpack:"kind" cbor:"2,keyasint"`
	Hash     fingerprint.Fingerprint `msgpack:"hash" cbor:"3,keyasint"`
	NodeHash fingerprint.Fingerprint `msgpack:"node_hash" cbor:"4,keyasint"`
}

// NewSnapshot builds a snapshot from the summaries of one run.
func NewSnapshot(session, crate string, hashSpans bool, crateHash fingerprint.Fingerprint, owners []OwnerSummary) *Snapshot {
	snap := &Snapshot{
		Schema:    SnapshotSchemaVersion,
		Session:   session,
		Crate:     crate,
		HashSpans: hashSpans,
		CrateHash: crateHash,
		Owners:    make([]OwnerRecord, len(owners)),
	}
	for i, o := range owners {
		snap.Owners[i] = OwnerRecord{
			Path:     o.Path,
			Kind:     o.Kind.String(),
			Hash:     o.Hash,
			NodeHash: o.NodeHash,
		}
	}
	return snap
}

// DiskCache stores the last snapshot of each crate on disk.
// Thread-safe for concurrent access.
type DiskCache struct {
	mu  sync.RWMutex
	dir string
}

// OpenDiskCache opens the cache at dir, or at the standard location for app
// when dir is empty.
func OpenDiskCache(dir, app string) (*DiskCache, error) {
	if dir == "" {
		base := os.Getenv("XDG_CACHE_HOME")
		if base == "" {
			home, err := os.UserHomeDir()
			if err != nil {
				return nil, err
			}
			base = filepath.Join(home, ".cache")
		}
		dir = filepath.Join(base, app)
	}
	if err := os.MkdirAll(dir, 0o755); err != nil {
		return nil, err
	}
	return &DiskCache{dir: dir}, nil
}

// Dir returns the cache directory.
func (c *DiskCache) Dir() string { return c.dir }

func (c *DiskCache) pathFor(crate string) string {
	key := fingerprint.Of("hirindex.cache", crate).Hex()
	return filepath.Join(c.dir, "crates", key+".mp")
}

// Put writes snap, replacing the previous snapshot of the same crate.
func (c *DiskCache) Put(snap *Snapshot) (err error) {
	if c == nil {
		return nil
	}
	c.mu.Lock()
	defer c.mu.Unlock()

	p := c.pathFor(snap.Crate)
	if err := os.MkdirAll(filepath.Dir(p), 0o755); err != nil {
		return err
	}
	f, err := os.CreateTemp(filepath.Dir(p), "tmp-*")
	if err != nil {
		return err
	}
	defer func() {
		if err != nil {
			_ = f.Close()
			_ = os.Remove(f.Name())
		}
	}()

	if err := msgpack.NewEncoder(f).Encode(snap); err != nil {
		return fmt.Errorf("encode snapshot: %w", err)
	}
	if err := f.Close(); err != nil {
		return err
	}
	// атомарная замена
	return os.Rename(f.Name(), p)
}

// Get reads the snapshot of crate. Snapshots written by another schema
// version are treated as absent.
func (c *DiskCache) Get(crate string) (*Snapshot, bool, error) {
	if c == nil {
		return nil, false, nil
	}
	c.mu.RLock()
	defer c.mu.RUnlock()

	f, err := os.Open(c.pathFor(crate))
	if err != nil {
		if errors.Is(err, os.ErrNotExist) {
			return nil, false, nil
		}
		return nil, false, err
	}
	defer f.Close()

	var snap Snapshot
	if err := msgpack.NewDecoder(f).Decode(&snap); err != nil {
		return nil, false, fmt.Errorf("decode snapshot: %w", err)
	}
	if snap.Schema != SnapshotSchemaVersion || snap.Crate != crate {
		return nil, false, nil
	}
	return &snap, true, nil
}

// DropAll removes every snapshot.
func (c *DiskCache) DropAll() error {
	if c == nil {
		return nil
	}
	c.mu.Lock()
	defer c.mu.Unlock()

	// переименуем каталог и удалим
	old := c.dir + ".old-" + time.Now().Format("20060102150405")
	if err := os.Rename(c.dir, old); err != nil {
		if errors.Is(err, os.ErrNotExist) {
			return nil
		}
		return err
	}
	if err := os.RemoveAll(old); err != nil {
		return err
	}
	return os.MkdirAll(c.dir, 0o755)
}
