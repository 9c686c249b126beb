package disk

import (
	"io"
	"os"
	"sync/atomic"

	"github.com/relsql/heapcore/common"
	"github.com/relsql/heapcore/dberr"
	"github.com/relsql/heapcore/types"
)

// FileManager is the real, filesystem-backed Manager. At most one handle
// per path is open at a time; the path<->fd bimaps are, per spec §5,
// expected to be mutated only under the catalog's control during
// open/close, not the hot path, so they carry no lock of their own. Per-fd
// page counters are atomic independent of that.
type FileManager struct {
	pathToFd map[string]types.FileID
	fdToPath map[types.FileID]string
	handles  map[types.FileID]*os.File
	counters map[types.FileID]*int32
	nextFd   types.FileID

	log     *os.File
	logPath string
}

// NewFileManager opens (creating if needed) logPath as the shared,
// append-only log file and returns an empty FileManager ready to
// create/open data files.
func NewFileManager(logPath string) (*FileManager, error) {
	log, err := os.OpenFile(logPath, os.O_RDWR|os.O_CREATE, 0666)
	if err != nil {
		return nil, dberr.Wrap(dberr.Unix, "disk.NewFileManager", logPath, err)
	}
	return &FileManager{
		pathToFd: make(map[string]types.FileID),
		fdToPath: make(map[types.FileID]string),
		handles:  make(map[types.FileID]*os.File),
		counters: make(map[types.FileID]*int32),
		log:      log,
		logPath:  logPath,
	}, nil
}

func (m *FileManager) CreateFile(path string) error {
	if _, err := os.Stat(path); err == nil {
		return dberr.New(dberr.FileExists, "disk.CreateFile", path)
	}
	f, err := os.OpenFile(path, os.O_RDWR|os.O_CREATE|os.O_EXCL, 0666)
	if err != nil {
		return dberr.Wrap(dberr.Unix, "disk.CreateFile", path, err)
	}
	return f.Close()
}

func (m *FileManager) DestroyFile(path string) error {
	if _, open := m.pathToFd[path]; open {
		return dberr.New(dberr.FileNotClosed, "disk.DestroyFile", path)
	}
	if _, err := os.Stat(path); err != nil {
		return dberr.New(dberr.FileNotFound, "disk.DestroyFile", path)
	}
	if err := os.Remove(path); err != nil {
		return dberr.Wrap(dberr.Unix, "disk.DestroyFile", path, err)
	}
	return nil
}

func (m *FileManager) OpenFile(path string) (types.FileID, error) {
	if _, open := m.pathToFd[path]; open {
		return types.InvalidFileID, dberr.New(dberr.FileNotClosed, "disk.OpenFile", path)
	}
	f, err := os.OpenFile(path, os.O_RDWR, 0666)
	if err != nil {
		if os.IsNotExist(err) {
			return types.InvalidFileID, dberr.New(dberr.FileNotFound, "disk.OpenFile", path)
		}
		return types.InvalidFileID, dberr.Wrap(dberr.Unix, "disk.OpenFile", path, err)
	}

	fd := m.nextFd
	m.nextFd++
	m.pathToFd[path] = fd
	m.fdToPath[fd] = path
	m.handles[fd] = f
	counter := int32(0)
	m.counters[fd] = &counter

	common.Component("disk").WithField("path", path).WithField("fd", fd).Debug("opened file")
	return fd, nil
}

func (m *FileManager) CloseFile(fd types.FileID) error {
	f, ok := m.handles[fd]
	if !ok {
		return dberr.New(dberr.FileNotOpen, "disk.CloseFile", "")
	}
	path := m.fdToPath[fd]
	delete(m.handles, fd)
	delete(m.fdToPath, fd)
	delete(m.pathToFd, path)
	delete(m.counters, fd)
	if err := f.Close(); err != nil {
		return dberr.Wrap(dberr.Unix, "disk.CloseFile", path, err)
	}
	return nil
}

func (m *FileManager) handle(fd types.FileID) (*os.File, error) {
	f, ok := m.handles[fd]
	if !ok {
		return nil, dberr.New(dberr.FileNotOpen, "disk.handle", "")
	}
	return f, nil
}

func (m *FileManager) ReadPage(fd types.FileID, pageNo types.PageID, buf []byte) error {
	f, err := m.handle(fd)
	if err != nil {
		return err
	}
	n, err := f.ReadAt(buf, int64(pageNo)*common.PageSize)
	if err != nil && err != io.EOF {
		return dberr.Wrap(dberr.Unix, "disk.ReadPage", m.fdToPath[fd], err)
	}
	if n != len(buf) {
		return dberr.New(dberr.Internal, "disk.ReadPage", m.fdToPath[fd])
	}
	return nil
}

func (m *FileManager) WritePage(fd types.FileID, pageNo types.PageID, buf []byte) error {
	f, err := m.handle(fd)
	if err != nil {
		return err
	}
	n, err := f.WriteAt(buf, int64(pageNo)*common.PageSize)
	if err != nil {
		return dberr.Wrap(dberr.Unix, "disk.WritePage", m.fdToPath[fd], err)
	}
	if n != len(buf) {
		return dberr.New(dberr.Internal, "disk.WritePage", m.fdToPath[fd])
	}
	return nil
}

func (m *FileManager) AllocatePage(fd types.FileID) types.PageID {
	counter := m.counters[fd]
	next := atomic.AddInt32(counter, 1) - 1
	return types.PageID(next)
}

func (m *FileManager) DeallocatePage(types.FileID, types.PageID) {
	// intentionally a no-op: see spec §9, disk-level pages are never
	// reclaimed by the core.
}

func (m *FileManager) Reinit(fd types.FileID, lastPageNo types.PageID) {
	counter := m.counters[fd]
	atomic.StoreInt32(counter, int32(lastPageNo)+1)
}

func (m *FileManager) WriteLog(buf []byte) (int, error) {
	if _, err := m.log.Seek(0, io.SeekEnd); err != nil {
		return 0, dberr.Wrap(dberr.Unix, "disk.WriteLog", m.logPath, err)
	}
	n, err := m.log.Write(buf)
	if err != nil {
		return n, dberr.Wrap(dberr.Unix, "disk.WriteLog", m.logPath, err)
	}
	if err := m.log.Sync(); err != nil {
		return n, dberr.Wrap(dberr.Unix, "disk.WriteLog", m.logPath, err)
	}
	return n, nil
}

func (m *FileManager) ReadLog(buf []byte, offset int64) (int, error) {
	info, err := m.log.Stat()
	if err != nil {
		return 0, dberr.Wrap(dberr.Unix, "disk.ReadLog", m.logPath, err)
	}
	if offset > info.Size() {
		return -1, nil
	}
	n, err := m.log.ReadAt(buf, offset)
	if err != nil && err != io.EOF {
		return n, dberr.Wrap(dberr.Unix, "disk.ReadLog", m.logPath, err)
	}
	return n, nil
}

func (m *FileManager) CreateDir(path string) error {
	if err := os.Mkdir(path, 0755); err != nil {
		return dberr.Wrap(dberr.Unix, "disk.CreateDir", path, err)
	}
	return nil
}

func (m *FileManager) DestroyDir(path string) error {
	if err := os.RemoveAll(path); err != nil {
		return dberr.Wrap(dberr.Unix, "disk.DestroyDir", path, err)
	}
	return nil
}

func (m *FileManager) Close() error {
	for fd, f := range m.handles {
		_ = f.Close()
		delete(m.handles, fd)
	}
	m.pathToFd = make(map[string]types.FileID)
	m.fdToPath = make(map[types.FileID]string)
	return m.log.Close()
}
