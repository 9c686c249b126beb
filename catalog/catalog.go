package catalog

import (
	"os"
	"path/filepath"
	"sort"

	deadlock "github.com/sasha-s/go-deadlock"

	"github.com/relsql/heapcore/buffer"
	"github.com/relsql/heapcore/common"
	"github.com/relsql/heapcore/dberr"
	"github.com/relsql/heapcore/disk"
	"github.com/relsql/heapcore/record"
	"github.com/relsql/heapcore/types"
)

// DbMetaFileName is the header file every database directory contains,
// per spec §6.
const DbMetaFileName = "db.meta"

// LogFileName is the shared append-only log file every database
// directory contains.
const LogFileName = "db.log"

func errColumnNotFound(tab, col string) error {
	return dberr.New(dberr.ColumnNotFound, "catalog", tab+"."+col)
}

func errTableNotFound(tab string) error {
	return dberr.New(dberr.TableNotFound, "catalog", tab)
}

// Catalog owns one open database: its metadata and the open heap-file
// handles for every table in it. Grounded on the teacher's TableCatalog
// lifecycle shape (catalog/table_catalog.go) and on
// original_source/src/system/sm_manager.cpp for the exact operations and
// the text persistence format. Per spec §5/§9, catalog access is assumed
// single-threaded by its own callers; the mutex here only guards against
// accidental concurrent misuse. It is the outer lock: catalog operations
// hold it while calling into the buffer pool, which then takes its own
// lock.
type Catalog struct {
	mu deadlock.Mutex

	disk disk.Manager
	pool *buffer.PoolManager

	dir  string
	meta *DbMeta
	fds  map[string]types.FileID
	fhs  map[string]*record.FileHandle
}

func isDir(path string) bool {
	info, err := os.Stat(path)
	return err == nil && info.IsDir()
}

// processOpen enforces spec §9's "at most one database open per process"
// rule: OpenDb takes this slot and CloseDb releases it.
var processOpen struct {
	mu   deadlock.Mutex
	held bool
}

func acquireProcessOpen(dbName string) error {
	processOpen.mu.Lock()
	defer processOpen.mu.Unlock()
	if processOpen.held {
		return dberr.New(dberr.DatabaseExists, "catalog.OpenDb", dbName)
	}
	processOpen.held = true
	return nil
}

func releaseProcessOpen() {
	processOpen.mu.Lock()
	processOpen.held = false
	processOpen.mu.Unlock()
}

// CreateDb makes a new directory named dbName under rootDir, writes an
// empty DbMeta and creates the shared log file. Fails with
// dberr.DatabaseExists if the directory already exists.
func CreateDb(rootDir, dbName string, dm disk.Manager) error {
	dir := filepath.Join(rootDir, dbName)
	if isDir(dir) {
		return dberr.New(dberr.DatabaseExists, "catalog.CreateDb", dbName)
	}
	if err := dm.CreateDir(dir); err != nil {
		return err
	}

	metaPath := filepath.Join(dir, DbMetaFileName)
	f, err := os.Create(metaPath)
	if err != nil {
		return dberr.Wrap(dberr.Unix, "catalog.CreateDb", metaPath, err)
	}
	NewDbMeta(dbName).Encode(f)
	if err := f.Close(); err != nil {
		return dberr.Wrap(dberr.Unix, "catalog.CreateDb", metaPath, err)
	}

	if err := dm.CreateFile(filepath.Join(dir, LogFileName)); err != nil {
		return err
	}
	return nil
}

// DropDb removes dbName's whole directory. Fails with
// dberr.DatabaseNotFound if it doesn't exist.
func DropDb(rootDir, dbName string, dm disk.Manager) error {
	dir := filepath.Join(rootDir, dbName)
	if !isDir(dir) {
		return dberr.New(dberr.DatabaseNotFound, "catalog.DropDb", dbName)
	}
	return dm.DestroyDir(dir)
}

// OpenDb loads dbName's metadata and opens a heap-file handle for every
// table it names. Fails with dberr.DatabaseNotFound if the directory
// doesn't exist, or dberr.DatabaseExists if a database is already open in
// this process (spec §9: at most one open database per process).
func OpenDb(rootDir, dbName string, dm disk.Manager, poolSize uint32) (*Catalog, error) {
	if err := acquireProcessOpen(dbName); err != nil {
		return nil, err
	}

	dir := filepath.Join(rootDir, dbName)
	if !isDir(dir) {
		releaseProcessOpen()
		return nil, dberr.New(dberr.DatabaseNotFound, "catalog.OpenDb", dbName)
	}

	metaPath := filepath.Join(dir, DbMetaFileName)
	f, err := os.Open(metaPath)
	if err != nil {
		releaseProcessOpen()
		return nil, dberr.Wrap(dberr.Unix, "catalog.OpenDb", metaPath, err)
	}
	meta := DecodeDbMeta(f)
	_ = f.Close()

	c := &Catalog{
		disk: dm,
		pool: buffer.NewPoolManager(poolSize, dm),
		dir:  dir,
		meta: meta,
		fds:  make(map[string]types.FileID),
		fhs:  make(map[string]*record.FileHandle),
	}

	for name := range meta.Tabs {
		if err := c.openTableFile(name); err != nil {
			releaseProcessOpen()
			return nil, err
		}
	}

	common.Component("catalog").WithField("db", dbName).WithField("tables", len(meta.Tabs)).Info("opened database")
	return c, nil
}

func (c *Catalog) openTableFile(tabName string) error {
	path := filepath.Join(c.dir, tabName)
	fd, err := c.disk.OpenFile(path)
	if err != nil {
		return err
	}
	fh, err := record.Open(fd, c.pool)
	if err != nil {
		return err
	}
	c.disk.Reinit(fd, types.PageID(fh.NumPages()-1))
	c.fds[tabName] = fd
	c.fhs[tabName] = fh
	return nil
}

// CloseDb flushes every table's header, the DbMeta itself, flushes all
// dirty pages and closes every open file handle.
func (c *Catalog) CloseDb() error {
	c.mu.Lock()
	defer c.mu.Unlock()
	defer releaseProcessOpen()

	if err := c.flushMetaLocked(); err != nil {
		return err
	}
	for name, fh := range c.fhs {
		if err := fh.Flush(); err != nil {
			return err
		}
		fd := c.fds[name]
		c.pool.FlushAllPages(fd)
		if err := c.disk.CloseFile(fd); err != nil {
			return err
		}
	}
	c.fhs = make(map[string]*record.FileHandle)
	c.fds = make(map[string]types.FileID)
	return nil
}

func (c *Catalog) flushMetaLocked() error {
	metaPath := filepath.Join(c.dir, DbMetaFileName)
	f, err := os.Create(metaPath)
	if err != nil {
		return dberr.Wrap(dberr.Unix, "catalog.flushMeta", metaPath, err)
	}
	c.meta.Encode(f)
	return dberr.Wrap(dberr.Unix, "catalog.flushMeta", metaPath, f.Close())
}

// CreateTable adds a new table with the given columns, in order, and
// creates its backing heap file. Fails with dberr.TableExists if the name
// is taken.
func (c *Catalog) CreateTable(tabName string, cols []ColMeta) error {
	c.mu.Lock()
	defer c.mu.Unlock()

	if c.meta.HasTable(tabName) {
		return dberr.New(dberr.TableExists, "catalog.CreateTable", tabName)
	}

	tab := NewTabMeta(tabName)
	offset := int32(0)
	for _, col := range cols {
		col.TabName = tabName
		col.Offset = offset
		col.IndexFlag = false
		offset += col.Len
		tab.Cols = append(tab.Cols, col)
	}
	recordSize := offset

	path := filepath.Join(c.dir, tabName)
	if err := c.disk.CreateFile(path); err != nil {
		return err
	}
	fd, err := c.disk.OpenFile(path)
	if err != nil {
		return err
	}
	fh, err := record.Create(fd, c.pool, recordSize)
	if err != nil {
		return err
	}

	c.meta.Tabs[tabName] = tab
	c.fds[tabName] = fd
	c.fhs[tabName] = fh
	return c.flushMetaLocked()
}

// DropTable drops every index on tabName, closes and destroys its heap
// file, and removes it from the catalog. Fails with dberr.TableNotFound.
func (c *Catalog) DropTable(tabName string) error {
	c.mu.Lock()
	defer c.mu.Unlock()

	tab, err := c.meta.Table(tabName)
	if err != nil {
		return err
	}

	indexNames := make([]string, 0, len(tab.Indexes))
	for n := range tab.Indexes {
		indexNames = append(indexNames, n)
	}
	for _, n := range indexNames {
		idx := tab.Indexes[n]
		colNames := make([]string, len(idx.Cols))
		for i, c := range idx.Cols {
			colNames[i] = c.Name
		}
		if err := c.dropIndexLocked(tabName, colNames); err != nil {
			return err
		}
	}

	fd := c.fds[tabName]
	delete(c.fhs, tabName)
	delete(c.fds, tabName)
	if err := c.disk.CloseFile(fd); err != nil {
		return err
	}
	path := filepath.Join(c.dir, tabName)
	if err := c.disk.DestroyFile(path); err != nil {
		return err
	}

	delete(c.meta.Tabs, tabName)
	return c.flushMetaLocked()
}

// CreateIndex registers an index over colNames on tabName: it reads every
// existing record through a full scan, then records the index's metadata
// and marks its columns as indexed. No index structure is built here; the
// scanned records are read and not stored anywhere.
func (c *Catalog) CreateIndex(tabName string, colNames []string) error {
	c.mu.Lock()
	defer c.mu.Unlock()

	tab, err := c.meta.Table(tabName)
	if err != nil {
		return err
	}

	cols := make([]ColMeta, 0, len(colNames))
	totLen := int32(0)
	for _, cn := range colNames {
		col, err := tab.Col(cn)
		if err != nil {
			return err
		}
		cols = append(cols, *col)
		totLen += col.Len
	}

	ixName := indexFileName(tabName, colNames)
	if _, exists := tab.Indexes[ixName]; exists {
		return dberr.New(dberr.IndexExists, "catalog.CreateIndex", ixName)
	}

	fh := c.fhs[tabName]
	scan := record.NewScan(fh)
	for !scan.IsEnd() {
		if _, err := fh.GetRecord(scan.Rid()); err != nil {
			return err
		}
		// An external index structure (e.g. a B+-tree manager, out of
		// scope here) would insert scan.Rid()'s key here.
		scan.Next()
	}

	tab.Indexes[ixName] = IndexMeta{
		TabName:   tabName,
		IndexName: ixName,
		ColTotLen: totLen,
		ColNum:    int32(len(cols)),
		Cols:      cols,
	}
	tab.markIndexed(colNames)
	return c.flushMetaLocked()
}

// DropIndex removes the index over colNames on tabName.
func (c *Catalog) DropIndex(tabName string, colNames []string) error {
	c.mu.Lock()
	defer c.mu.Unlock()
	return c.dropIndexLocked(tabName, colNames)
}

func (c *Catalog) dropIndexLocked(tabName string, colNames []string) error {
	tab, err := c.meta.Table(tabName)
	if err != nil {
		return err
	}
	ixName := indexFileName(tabName, colNames)
	if _, exists := tab.Indexes[ixName]; !exists {
		return dberr.New(dberr.IndexNotFound, "catalog.DropIndex", ixName)
	}
	delete(tab.Indexes, ixName)
	tab.unmarkIndexed(colNames)
	return c.flushMetaLocked()
}

// ShowTables returns every table name, sorted.
func (c *Catalog) ShowTables() []string {
	c.mu.Lock()
	defer c.mu.Unlock()
	names := make([]string, 0, len(c.meta.Tabs))
	for n := range c.meta.Tabs {
		names = append(names, n)
	}
	sort.Strings(names)
	return names
}

// ShowIndexes returns the index names on tabName.
func (c *Catalog) ShowIndexes(tabName string) ([]string, error) {
	c.mu.Lock()
	defer c.mu.Unlock()
	tab, err := c.meta.Table(tabName)
	if err != nil {
		return nil, err
	}
	names := make([]string, 0, len(tab.Indexes))
	for n := range tab.Indexes {
		names = append(names, n)
	}
	sort.Strings(names)
	return names, nil
}

// DescTable returns tabName's columns in declaration order.
func (c *Catalog) DescTable(tabName string) ([]ColMeta, error) {
	c.mu.Lock()
	defer c.mu.Unlock()
	tab, err := c.meta.Table(tabName)
	if err != nil {
		return nil, err
	}
	cols := make([]ColMeta, len(tab.Cols))
	copy(cols, tab.Cols)
	return cols, nil
}

// Table returns the open heap-file handle for tabName, for a caller (an
// external execution layer) to issue get/insert/update/delete/scan calls
// against directly.
func (c *Catalog) Table(tabName string) (*record.FileHandle, error) {
	c.mu.Lock()
	defer c.mu.Unlock()
	fh, ok := c.fhs[tabName]
	if !ok {
		return nil, dberr.New(dberr.TableNotFound, "catalog.Table", tabName)
	}
	return fh, nil
}
