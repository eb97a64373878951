package dbf

import (
	"errors"
	"fmt"
	"io/fs"
	"os"
	"path/filepath"
	"time"

	"github.com/vmihailenco/msgpack/v5"
	"go.etcd.io/bbolt"
	"go.uber.org/zap"
)

// DataDir is the subdirectory of a site root where table files live.
const DataDir = "data"

var (
	metaBucket   = []byte("meta")
	stateKey     = []byte("state")
	boltOpenOpts = &bbolt.Options{Timeout: 10 * time.Second}
)

// TableDef is the immutable definition of a table: name, schema, indexes and
// optional seed rows written when the data file is first created. Definitions
// are built once at package init time.
type TableDef struct {
	name    string
	schema  *Schema
	indexes []*Index
	seed    func() []Record
}

type TableOpt func(*TableDef)

// WithSeed registers rows to insert when the data file is created.
func WithSeed(seed func() []Record) TableOpt {
	return func(def *TableDef) { def.seed = seed }
}

// DefineTable binds a schema and its indexes into a table definition. The
// first index is the primary index and must be unique. Definition mistakes
// are programmer errors and panic.
func DefineTable(name string, scm *Schema, indexes []*Index, opts ...TableOpt) *TableDef {
	if name == "" {
		panic(errors.New("dbf: table must have a name"))
	}
	if len(indexes) == 0 {
		panic(fmt.Errorf("dbf: table %s has no indexes", name))
	}
	if !indexes[0].isUnique {
		panic(fmt.Errorf("dbf: primary index %s of table %s must be unique", indexes[0].name, name))
	}
	def := &TableDef{name: name, schema: scm, indexes: indexes}
	for _, ix := range indexes {
		ix.bind(def)
	}
	for _, opt := range opts {
		opt(def)
	}
	return def
}

// Name returns the table name.
func (def *TableDef) Name() string { return def.name }

// Schema returns the table schema.
func (def *TableDef) Schema() *Schema { return def.schema }

// Primary returns the primary (first, unique) index.
func (def *TableDef) Primary() *Index { return def.indexes[0] }

// Indexes returns the table's indexes, primary first.
func (def *TableDef) Indexes() []*Index {
	return append([]*Index(nil), def.indexes...)
}

// tableState is the meta document stored in the index file. A mismatch with
// the data file forces a rebuild of every index.
type tableState struct {
	Fingerprint    string `msgpack:"f"`
	TotalRows      uint64 `msgpack:"t"`
	LiveRows       uint64 `msgpack:"l"`
	PendingDeletes uint64 `msgpack:"d"`
}

// Table is an open table: the data file plus its index database. A table is
// opened, used for one logical operation and closed; no handle is meant to
// be long-lived or shared between goroutines.
type Table struct {
	def      *TableDef
	dataPath string
	ndxPath  string
	f        *os.File
	ndx      *bbolt.DB
	rowLen   int64
	state    tableState
	logger   *zap.Logger
}

type Option func(*Table)

// WithLogger attaches a logger; the default is zap.NewNop().
func WithLogger(logger *zap.Logger) Option {
	return func(t *Table) { t.logger = logger }
}

// OpenTable opens the table under rootDir, creating the data file (with seed
// rows) when it does not exist and rebuilding the indexes when the index
// file is missing or stale. I/O and permission failures propagate unchanged.
func OpenTable(rootDir string, def *TableDef, opts ...Option) (*Table, error) {
	dataDir := filepath.Join(rootDir, DataDir)
	if err := os.MkdirAll(dataDir, 0o777); err != nil {
		return nil, fmt.Errorf("dbf: %s: %w", def.name, err)
	}

	t := &Table{
		def:      def,
		dataPath: filepath.Join(dataDir, def.name+".dbf"),
		ndxPath:  filepath.Join(dataDir, def.name+".ndx"),
		rowLen:   int64(def.schema.RowLen()),
		logger:   zap.NewNop(),
	}
	for _, opt := range opts {
		opt(t)
	}

	f, err := os.OpenFile(t.dataPath, os.O_RDWR, 0o666)
	creating := false
	if errors.Is(err, fs.ErrNotExist) {
		creating = true
		// A stale index file without its data file is meaningless.
		if err := os.Remove(t.ndxPath); err != nil && !errors.Is(err, fs.ErrNotExist) {
			return nil, fmt.Errorf("dbf: %s: %w", def.name, err)
		}
		f, err = os.OpenFile(t.dataPath, os.O_RDWR|os.O_CREATE|os.O_EXCL, 0o666)
	}
	if err != nil {
		return nil, fmt.Errorf("dbf: %s: %w", def.name, err)
	}
	t.f = f

	ndxExisted := true
	if _, err := os.Stat(t.ndxPath); errors.Is(err, fs.ErrNotExist) {
		ndxExisted = false
	}

	t.ndx, err = bbolt.Open(t.ndxPath, 0o666, boltOpenOpts)
	if err != nil {
		t.f.Close()
		return nil, fmt.Errorf("dbf: %s: %w", def.name, err)
	}

	if err := t.prepare(creating, ndxExisted); err != nil {
		t.Close()
		return nil, err
	}

	if creating && def.seed != nil {
		for _, rec := range def.seed() {
			if err := t.Insert(rec); err != nil {
				t.Close()
				return nil, err
			}
		}
	}

	return t, nil
}

func (t *Table) prepare(creating, ndxExisted bool) error {
	if creating {
		t.logger.Info("creating table", zap.String("table", t.def.name), zap.String("path", t.dataPath))
		return t.Reindex()
	}

	rows, err := t.rowCount()
	if err != nil {
		return err
	}

	stale := !ndxExisted
	if !stale {
		err := t.ndx.View(func(btx *bbolt.Tx) error {
			st, ok := loadState(btx)
			if !ok || st.Fingerprint != t.def.schema.fingerprint() || st.TotalRows != rows {
				stale = true
				return nil
			}
			for _, ix := range t.def.indexes {
				if btx.Bucket(ix.bucketName()) == nil {
					stale = true
					return nil
				}
			}
			t.state = st
			return nil
		})
		if err != nil {
			return fmt.Errorf("dbf: %s: %w", t.def.name, err)
		}
	}

	if stale {
		t.logger.Info("index file missing or stale, rebuilding", zap.String("table", t.def.name))
		return t.Reindex()
	}
	return nil
}

// Close releases the data file and the index database.
func (t *Table) Close() error {
	err1 := t.f.Close()
	err2 := t.ndx.Close()
	if err1 != nil {
		return err1
	}
	return err2
}

// Def returns the table definition.
func (t *Table) Def() *TableDef { return t.def }

func (t *Table) rowCount() (uint64, error) {
	st, err := t.f.Stat()
	if err != nil {
		return 0, fmt.Errorf("dbf: %s: %w", t.def.name, err)
	}
	return uint64(st.Size() / t.rowLen), nil
}

func (t *Table) readRow(pos uint64) ([]byte, error) {
	row := make([]byte, t.rowLen)
	if _, err := t.f.ReadAt(row, int64(pos)*t.rowLen); err != nil {
		return nil, tableErrf(t.def.name, "", nil, err, "read row %d", pos)
	}
	return row, nil
}

func (t *Table) writeRow(pos uint64, row []byte) error {
	if _, err := t.f.WriteAt(row, int64(pos)*t.rowLen); err != nil {
		return tableErrf(t.def.name, "", nil, err, "write row %d", pos)
	}
	return nil
}

func loadState(btx *bbolt.Tx) (tableState, bool) {
	var st tableState
	mb := btx.Bucket(metaBucket)
	if mb == nil {
		return st, false
	}
	raw := mb.Get(stateKey)
	if raw == nil {
		return st, false
	}
	if err := msgpack.Unmarshal(raw, &st); err != nil {
		return tableState{}, false
	}
	return st, true
}

func saveState(btx *bbolt.Tx, st tableState) error {
	mb, err := btx.CreateBucketIfNotExists(metaBucket)
	if err != nil {
		return err
	}
	raw, err := msgpack.Marshal(&st)
	if err != nil {
		return err
	}
	return mb.Put(stateKey, raw)
}
