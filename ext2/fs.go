package ext2

import (
	"fmt"

	"github.com/diskfs/go-ext2/util/timestamp"
)

// ReadDir returns the live entries of the directory at path, following
// symlinks along the way (but not the trailing Non-goal of following a
// symlink directory entry itself - each returned entry is exactly what the
// directory record says). The "." and ".." records are left out of the
// result.
func (fs *FileSystem) ReadDir(path string) ([]DirEntry, error) {
	_, i, err := fs.resolve(path)
	if err != nil {
		return nil, err
	}
	if !i.isDir() {
		return nil, fmt.Errorf("%q is not a directory: %w", path, ErrInvalidInput)
	}
	raw, err := fs.listDir(i)
	if err != nil {
		return nil, err
	}
	out := make([]DirEntry, 0, len(raw))
	for _, e := range raw {
		if e.name == "." || e.name == ".." {
			continue
		}
		childInode, err := fs.readInode(e.inode)
		if err != nil {
			return nil, err
		}
		out = append(out, DirEntry{
			Name:  e.name,
			Inode: e.inode,
			IsDir: e.fileType == dirFileTypeDir,
			Stat:  statFromInode(childInode),
		})
	}
	return out, nil
}

// Metadata resolves path (following symlinks) and returns its Stat.
func (fs *FileSystem) Metadata(path string) (Stat, error) {
	_, i, err := fs.resolve(path)
	if err != nil {
		return Stat{}, err
	}
	return statFromInode(i), nil
}

// Readlink returns a symlink's target without following it. Returns
// ErrInvalidInput if path does not name a symlink.
func (fs *FileSystem) Readlink(path string) (string, error) {
	_, i, err := fs.resolveLastNoFollow(path)
	if err != nil {
		return "", err
	}
	if !i.isSymlink() {
		return "", fmt.Errorf("%q is not a symlink: %w", path, ErrInvalidInput)
	}
	return fs.symlinkTarget(i), nil
}

// resolveLastNoFollow resolves every component up to the last normally, but
// returns the final component's own inode even if it is a symlink.
func (fs *FileSystem) resolveLastNoFollow(path string) (uint32, *inode, error) {
	parentIno, parentInode, name, err := fs.resolveParent(path)
	if err != nil {
		return 0, nil, err
	}
	ino, _, err := fs.lookupInDir(parentInode, name)
	if err != nil {
		return 0, nil, err
	}
	_ = parentIno
	i, err := fs.readInode(ino)
	if err != nil {
		return 0, nil, err
	}
	return ino, i, nil
}

// Mkdir creates a new, empty directory at path with the given permission
// bits. The parent must already exist; Mkdir does not create intermediate
// directories.
func (fs *FileSystem) Mkdir(path string, perm uint16) error {
	parentIno, parentInode, name, err := fs.resolveParent(path)
	if err != nil {
		return err
	}
	if _, _, err := fs.lookupInDir(parentInode, name); err == nil {
		return fmt.Errorf("%q: %w", path, ErrFileExists)
	}

	newIno, err := fs.allocInode()
	if err != nil {
		return err
	}
	dataBlock, err := fs.allocBlock()
	if err != nil {
		return err
	}

	now := timeToUnix32(timestamp.GetTime())
	ni := &inode{
		number:     newIno,
		mode:       modeTypeDir | (perm & modePermMask),
		linksCount: 2, // "." plus the parent's entry
		atime:      now,
		ctime:      now,
		mtime:      now,
		blocks:     fs.blockSize() / 512,
	}
	ni.block[0] = dataBlock
	ni.setSize(uint64(fs.blockSize()))

	block := fs.newDirectoryBlock(newIno, parentIno)
	if err := fs.writeBlock(dataBlock, block); err != nil {
		return err
	}
	if err := fs.writeInode(ni); err != nil {
		return err
	}

	if err := fs.addDirEntry(parentInode, name, newIno, dirFileTypeDir); err != nil {
		return err
	}

	parentInode.linksCount++
	parentInode.mtime = now
	if err := fs.writeInode(parentInode); err != nil {
		return err
	}

	gd := fs.gdt[groupOfInode(newIno, fs.sb.inodesPerGroup)]
	gd.usedDirsCount++
	return fs.writeGroupDescriptor(groupOfInode(newIno, fs.sb.inodesPerGroup), gd)
}

func groupOfInode(ino uint32, perGroup uint32) uint32 {
	g, _ := blockGroupOf(ino, perGroup)
	return g
}

// Create makes a new, empty regular file at path with the given permission
// bits and returns a handle open for reading and writing. Fails with
// ErrFileExists if path is already occupied.
func (fs *FileSystem) Create(path string, perm uint16) (*FileHandle, error) {
	parentIno, parentInode, name, err := fs.resolveParent(path)
	if err != nil {
		return nil, err
	}
	if _, _, err := fs.lookupInDir(parentInode, name); err == nil {
		return nil, fmt.Errorf("%q: %w", path, ErrFileExists)
	}

	newIno, err := fs.allocInode()
	if err != nil {
		return nil, err
	}
	dataBlock, err := fs.allocBlock()
	if err != nil {
		return nil, err
	}
	if err := fs.writeBlock(dataBlock, make([]byte, fs.blockSize())); err != nil {
		return nil, err
	}

	now := timeToUnix32(timestamp.GetTime())
	ni := &inode{
		number:     newIno,
		mode:       modeTypeFile | (perm & modePermMask),
		linksCount: 1,
		atime:      now,
		ctime:      now,
		mtime:      now,
		blocks:     fs.blockSize() / 512,
	}
	ni.block[0] = dataBlock
	if err := fs.writeInode(ni); err != nil {
		return nil, err
	}
	if err := fs.addDirEntry(parentInode, name, newIno, dirFileTypeFile); err != nil {
		return nil, err
	}
	_ = parentIno

	return &FileHandle{fs: fs, inode: ni}, nil
}

// Open returns a handle to the existing regular file at path.
func (fs *FileSystem) Open(path string) (*FileHandle, error) {
	_, i, err := fs.resolve(path)
	if err != nil {
		return nil, err
	}
	if !i.isRegular() {
		return nil, fmt.Errorf("%q is not a regular file: %w", path, ErrInvalidInput)
	}
	return &FileHandle{fs: fs, inode: i}, nil
}

// Symlink creates a new symlink at path pointing at target. Only the inline
// (<=60 byte target) fast-symlink form is produced.
func (fs *FileSystem) Symlink(target, path string) error {
	if len(target) > 60 {
		return fmt.Errorf("symlink target %q longer than 60 bytes: %w", target, ErrInvalidInput)
	}
	parentIno, parentInode, name, err := fs.resolveParent(path)
	if err != nil {
		return err
	}
	if _, _, err := fs.lookupInDir(parentInode, name); err == nil {
		return fmt.Errorf("%q: %w", path, ErrFileExists)
	}
	_ = parentIno

	newIno, err := fs.allocInode()
	if err != nil {
		return err
	}
	now := timeToUnix32(timestamp.GetTime())
	ni := &inode{
		number:     newIno,
		mode:       modeTypeSymlnk | 0777,
		linksCount: 1,
		atime:      now,
		ctime:      now,
		mtime:      now,
	}
	ni.setInlineSymlinkTarget(target)
	if err := fs.writeInode(ni); err != nil {
		return err
	}
	return fs.addDirEntry(parentInode, name, newIno, dirFileTypeSymlink)
}
