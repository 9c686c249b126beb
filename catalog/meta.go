// Package catalog names tables, their columns, and indexes on top of the
// record manager, persisting that metadata as text alongside the
// per-table heap files. See spec §3/§4.5/§6.
package catalog

import (
	"bufio"
	"fmt"
	"io"
	"sort"
	"strconv"
	"strings"

	mapset "github.com/deckarep/golang-set/v2"

	"github.com/relsql/heapcore/types"
)

// ColMeta is one column's metadata: which table it belongs to, its name,
// type, fixed length, and byte offset within a record.
type ColMeta struct {
	TabName   string
	Name      string
	Type      types.TypeID
	Len       int32
	Offset    int32
	IndexFlag bool
}

func (c ColMeta) writeTo(w io.Writer) {
	fmt.Fprintf(w, "%s %s %d %d %d %d\n", c.TabName, c.Name, int(c.Type), c.Len, c.Offset, boolInt(c.IndexFlag))
}

func readColMeta(r *tokenReader) ColMeta {
	return ColMeta{
		TabName:   r.next(),
		Name:      r.next(),
		Type:      types.TypeID(r.nextInt()),
		Len:       r.nextInt32(),
		Offset:    r.nextInt32(),
		IndexFlag: r.nextInt() != 0,
	}
}

// IndexMeta is one index's metadata: the columns it covers, in order,
// and their combined key length.
type IndexMeta struct {
	TabName   string
	IndexName string
	ColTotLen int32
	ColNum    int32
	Cols      []ColMeta
}

func (ix IndexMeta) writeTo(w io.Writer) {
	fmt.Fprintf(w, "%s\n", ix.IndexName)
	fmt.Fprintf(w, "%s %s %d %d\n", ix.TabName, ix.IndexName, ix.ColTotLen, ix.ColNum)
	for _, c := range ix.Cols {
		c.writeTo(w)
	}
}

func readIndexMeta(r *tokenReader) IndexMeta {
	r.next() // leading <index_filename> line, redundant with the row below
	ix := IndexMeta{
		TabName:   r.next(),
		IndexName: r.next(),
		ColTotLen: r.nextInt32(),
		ColNum:    r.nextInt32(),
	}
	ix.Cols = make([]ColMeta, ix.ColNum)
	for i := range ix.Cols {
		ix.Cols[i] = readColMeta(r)
	}
	return ix
}

// indexFileName builds the name §6 assigns an index over cols of tabName:
// "<table>_<col1>_<col2>_….idx".
func indexFileName(tabName string, cols []string) string {
	var b strings.Builder
	b.WriteString(tabName)
	for _, c := range cols {
		b.WriteByte('_')
		b.WriteString(c)
	}
	b.WriteString(".idx")
	return b.String()
}

// TabMeta is one table's metadata: its ordered columns and the indexes
// built over them.
type TabMeta struct {
	Name    string
	Cols    []ColMeta
	Indexes map[string]IndexMeta

	// indexedNames mirrors which columns currently have IndexFlag set, so
	// a lookup doesn't need to scan Cols. Maintained alongside Cols by
	// markIndexed/unmarkIndexed.
	indexedNames mapset.Set[string]
}

// NewTabMeta returns an empty table named name.
func NewTabMeta(name string) *TabMeta {
	return &TabMeta{Name: name, Indexes: make(map[string]IndexMeta), indexedNames: mapset.NewSet[string]()}
}

// Col returns the column named name, or dberr.ColumnNotFound.
func (t *TabMeta) Col(name string) (*ColMeta, error) {
	for i := range t.Cols {
		if t.Cols[i].Name == name {
			return &t.Cols[i], nil
		}
	}
	return nil, errColumnNotFound(t.Name, name)
}

// IsColIndexed reports whether name currently participates in any index,
// in O(1) via indexedNames rather than scanning Cols.
func (t *TabMeta) IsColIndexed(name string) bool {
	return t.indexedNames.Contains(name)
}

func (t *TabMeta) markIndexed(colNames []string) {
	for _, n := range colNames {
		t.indexedNames.Add(n)
		for i := range t.Cols {
			if t.Cols[i].Name == n {
				t.Cols[i].IndexFlag = true
			}
		}
	}
}

func (t *TabMeta) unmarkIndexed(colNames []string) {
	for _, n := range colNames {
		stillUsed := false
		for _, idx := range t.Indexes {
			for _, c := range idx.Cols {
				if c.Name == n {
					stillUsed = true
				}
			}
		}
		if !stillUsed {
			t.indexedNames.Remove(n)
			for i := range t.Cols {
				if t.Cols[i].Name == n {
					t.Cols[i].IndexFlag = false
				}
			}
		}
	}
}

func (t *TabMeta) writeTo(w io.Writer) {
	fmt.Fprintf(w, "%s\n%d\n", t.Name, len(t.Cols))
	for _, c := range t.Cols {
		c.writeTo(w)
	}
	names := make([]string, 0, len(t.Indexes))
	for n := range t.Indexes {
		names = append(names, n)
	}
	sort.Strings(names)
	fmt.Fprintf(w, "%d\n", len(names))
	for _, n := range names {
		t.Indexes[n].writeTo(w)
	}
}

func readTabMeta(r *tokenReader) *TabMeta {
	t := NewTabMeta(r.next())
	numCols := r.nextInt()
	t.Cols = make([]ColMeta, numCols)
	for i := range t.Cols {
		t.Cols[i] = readColMeta(r)
		if t.Cols[i].IndexFlag {
			t.indexedNames.Add(t.Cols[i].Name)
		}
	}
	numIdx := r.nextInt()
	for i := 0; i < numIdx; i++ {
		ix := readIndexMeta(r)
		t.Indexes[ix.IndexName] = ix
	}
	return t
}

// DbMeta is the database's full metadata: its name and its tables, the
// text representation written to DbMetaFileName (spec §6).
type DbMeta struct {
	Name string
	Tabs map[string]*TabMeta
}

// NewDbMeta returns an empty database named name.
func NewDbMeta(name string) *DbMeta {
	return &DbMeta{Name: name, Tabs: make(map[string]*TabMeta)}
}

// HasTable reports whether name is a known table.
func (d *DbMeta) HasTable(name string) bool {
	_, ok := d.Tabs[name]
	return ok
}

// Table returns the metadata for name, or dberr.TableNotFound.
func (d *DbMeta) Table(name string) (*TabMeta, error) {
	t, ok := d.Tabs[name]
	if !ok {
		return nil, errTableNotFound(name)
	}
	return t, nil
}

// Encode renders d in the whitespace-separated text format of spec §6.
func (d *DbMeta) Encode(w io.Writer) {
	names := make([]string, 0, len(d.Tabs))
	for n := range d.Tabs {
		names = append(names, n)
	}
	sort.Strings(names)

	fmt.Fprintf(w, "%s\n%d\n", d.Name, len(names))
	for _, n := range names {
		d.Tabs[n].writeTo(w)
	}
}

// DecodeDbMeta parses the text format written by Encode.
func DecodeDbMeta(r io.Reader) *DbMeta {
	tr := newTokenReader(r)
	d := NewDbMeta(tr.next())
	n := tr.nextInt()
	for i := 0; i < n; i++ {
		t := readTabMeta(tr)
		d.Tabs[t.Name] = t
	}
	return d
}

// tokenReader tokenizes whitespace-separated input the way C++'s
// istream::operator>> does: runs of any whitespace (including newlines)
// separate tokens.
type tokenReader struct {
	sc *bufio.Scanner
}

func newTokenReader(r io.Reader) *tokenReader {
	sc := bufio.NewScanner(r)
	sc.Split(bufio.ScanWords)
	sc.Buffer(make([]byte, 0, 64*1024), 1024*1024)
	return &tokenReader{sc: sc}
}

func (t *tokenReader) next() string {
	if !t.sc.Scan() {
		return ""
	}
	return t.sc.Text()
}

func (t *tokenReader) nextInt() int {
	v, _ := strconv.Atoi(t.next())
	return v
}

func (t *tokenReader) nextInt32() int32 {
	return int32(t.nextInt())
}

func boolInt(b bool) int {
	if b {
		return 1
	}
	return 0
}
