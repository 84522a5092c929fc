package gdbm

import (
	"bytes"
	"fmt"
	"os"

	"github.com/jgarzik/gdbmgo/internal/fsutil"
)

// Open opens an existing database file. A shared advisory lock is taken for
// read-only opens, an exclusive lock for read-write opens; the lock is
// released on Close.
func Open(path string, opts Options) (*DB, error) {
	return openWith(fsutil.NewReal(), path, opts)
}

func openWith(fs fsutil.FS, path string, opts Options) (*DB, error) {
	locker := fsutil.NewLocker(fs)

	var lock *fsutil.Lock
	var err error
	if opts.ReadOnly {
		lock, err = locker.RLock(path)
	} else {
		lock, err = locker.Lock(path)
	}
	if err != nil {
		return nil, fmt.Errorf("acquiring lock: %w", err)
	}

	flag := os.O_RDONLY
	if !opts.ReadOnly {
		flag = os.O_RDWR
	}
	file, err := fs.OpenFile(path, flag, 0o644)
	if err != nil {
		_ = lock.Close()
		return nil, fmt.Errorf("%w: open: %w", ErrIo, err)
	}

	db, err := loadDB(fs, file, path, opts, locker, lock)
	if err != nil {
		_ = file.Close()
		_ = lock.Close()
		return nil, err
	}
	return db, nil
}

func loadDB(fs fsutil.FS, file fsutil.File, path string, opts Options, locker *fsutil.Locker, lock *fsutil.Lock) (*DB, error) {
	info, err := file.Stat()
	if err != nil {
		return nil, fmt.Errorf("%w: stat: %w", ErrIo, err)
	}
	fileSize := uint64(info.Size())

	var alignment *Alignment
	if opts.AlignmentSet {
		alignment = &opts.Alignment
	}

	header, err := decodeHeader(alignment, fileSize, &fileReaderAt{file: file})
	if err != nil {
		return nil, err
	}

	dirBuf := make([]byte, header.DirSz)
	if _, err := readExactAt(file, header.DirOfs, dirBuf); err != nil {
		return nil, fmt.Errorf("%w: reading directory: %w", ErrIo, err)
	}
	dir, err := decodeDirectory(header.Layout, header.DirSz, bytes.NewReader(dirBuf))
	if err != nil {
		return nil, fmt.Errorf("%w: decoding directory: %w", ErrIo, err)
	}

	db := &DB{
		fs:         fs,
		file:       file,
		path:       path,
		header:     header,
		dir:        dir,
		cache:      newBucketCache(opts.cacheSize(), int(header.BucketSz)),
		locker:     locker,
		lock:       lock,
		readOnly:   opts.ReadOnly,
		syncOnDrop: opts.SyncOnDrop,
	}

	if header.NextBlock < fileSize {
		db.needsRecovery = true
	}

	count, err := db.countLiveKeys()
	if err != nil {
		return nil, err
	}
	db.count = count

	return db, nil
}

// Create initializes a brand-new database file and opens it read-write. If
// the file already exists it is truncated and replaced.
func Create(path string, opts Options) (*DB, error) {
	return createWith(fsutil.NewReal(), path, opts)
}

func createWith(fs fsutil.FS, path string, opts Options) (*DB, error) {
	locker := fsutil.NewLocker(fs)

	// The locker opens an existing path only, so make sure the file exists
	// before locking it; truncation waits until the lock is held.
	existing, err := fs.OpenFile(path, os.O_RDWR|os.O_CREATE, 0o644)
	if err != nil {
		return nil, fmt.Errorf("%w: create: %w", ErrIo, err)
	}
	_ = existing.Close()

	lock, err := locker.Lock(path)
	if err != nil {
		return nil, fmt.Errorf("acquiring lock: %w", err)
	}

	file, err := fs.OpenFile(path, os.O_RDWR|os.O_CREATE|os.O_TRUNC, 0o644)
	if err != nil {
		_ = lock.Close()
		return nil, fmt.Errorf("%w: create: %w", ErrIo, err)
	}

	blockSize := opts.blockSize()
	layout := Layout{Offset: opts.OffsetWidth, Endian: opts.Endian}
	layout.Alignment = opts.alignmentFor(NewMagic(layout.Endian, layout.Offset, opts.Numsync))

	_, dirBits := buildDirSize(layout.Offset, blockSize)
	header := newHeader(blockSize, layout, dirBits, opts.Numsync)

	firstBucketOfs := uint64(blockSize)
	header.DirOfs = uint64(blockSize) * 2
	header.DirSz, _ = buildDirSize(layout.Offset, blockSize)
	header.NextBlock = uint64(blockSize) * 3

	dir := newDirectory(header.DirBits, firstBucketOfs)
	bucket := newBucket(header.BucketElems, 0)

	db := &DB{
		fs:         fs,
		file:       file,
		path:       path,
		header:     header,
		dir:        dir,
		cache:      newBucketCache(opts.cacheSize(), int(header.BucketSz)),
		locker:     locker,
		lock:       lock,
		readOnly:   false,
		syncOnDrop: opts.SyncOnDrop,
	}

	db.cache.put(firstBucketOfs, bucket)
	db.dirDirty = true

	if err := db.Sync(); err != nil {
		_ = file.Close()
		_ = lock.Close()
		return nil, err
	}

	return db, nil
}

// fileReaderAt adapts an fsutil.File (already positioned at 0 immediately
// after open) into an io.Reader for sequential header decoding.
type fileReaderAt struct{ file fsutil.File }

func (f *fileReaderAt) Read(p []byte) (int, error) { return f.file.Read(p) }

func readExactAt(file fsutil.File, offset uint64, buf []byte) (int, error) {
	if _, err := file.Seek(int64(offset), os.SEEK_SET); err != nil {
		return 0, err
	}
	n := 0
	for n < len(buf) {
		m, err := file.Read(buf[n:])
		n += m
		if err != nil {
			return n, err
		}
		if m == 0 {
			break
		}
	}
	return n, nil
}
