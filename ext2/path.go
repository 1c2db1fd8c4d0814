package ext2

import (
	"fmt"
	"strings"
)

// resolve walks path from the root inode, following symlinks as it goes,
// and returns the inode number and parsed inode of the final component.
// Path resolution never creates anything; Mkdir/Create resolve the parent
// directory themselves and handle the last component separately.
func (fs *FileSystem) resolve(path string) (uint32, *inode, error) {
	return fs.resolveFrom(rootInode, path, 0)
}

func (fs *FileSystem) resolveFrom(start uint32, path string, depth int) (uint32, *inode, error) {
	if depth > maxSymlinkFollows {
		return 0, nil, fmt.Errorf("too many levels of symbolic links resolving %q: %w", path, ErrInvalidInput)
	}

	cur := start
	if strings.HasPrefix(path, "/") {
		cur = rootInode
	}

	parts := splitPath(path)
	for idx, part := range parts {
		curInode, err := fs.readInode(cur)
		if err != nil {
			return 0, nil, err
		}
		if part == "." {
			continue
		}
		if part == ".." {
			if cur == rootInode {
				continue
			}
			parent, _, err := fs.lookupInDir(curInode, "..")
			if err != nil {
				return 0, nil, err
			}
			cur = parent
			continue
		}

		if !curInode.isDir() {
			return 0, nil, fmt.Errorf("%q is not a directory: %w", part, ErrInvalidInput)
		}
		next, _, err := fs.lookupInDir(curInode, part)
		if err != nil {
			return 0, nil, fmt.Errorf("%q: %w", strings.Join(parts[:idx+1], "/"), ErrNotFound)
		}

		nextInode, err := fs.readInode(next)
		if err != nil {
			return 0, nil, err
		}

		if nextInode.isSymlink() {
			target := fs.symlinkTarget(nextInode)
			within := strings.Join(parts[idx+1:], "/")

			followFrom := rootInode
			if !strings.HasPrefix(target, "/") {
				followFrom = cur
			}
			resolvedIno, resolvedInode, err := fs.resolveFrom(followFrom, target, depth+1)
			if err != nil {
				return 0, nil, err
			}
			if within == "" {
				return resolvedIno, resolvedInode, nil
			}
			return fs.resolveFrom(resolvedIno, within, depth+1)
		}

		cur = next
	}

	finalInode, err := fs.readInode(cur)
	if err != nil {
		return 0, nil, err
	}
	return cur, finalInode, nil
}

// resolveParent resolves all but the last component of path and returns the
// parent directory's inode number/struct plus the final component's name.
func (fs *FileSystem) resolveParent(path string) (uint32, *inode, string, error) {
	parts := splitPath(path)
	if len(parts) == 0 {
		return 0, nil, "", fmt.Errorf("empty path: %w", ErrInvalidInput)
	}
	last := parts[len(parts)-1]
	parentPath := "/" + strings.Join(parts[:len(parts)-1], "/")
	if !strings.HasPrefix(path, "/") {
		parentPath = strings.Join(parts[:len(parts)-1], "/")
	}
	parentIno, parentInode, err := fs.resolve(parentPath)
	if err != nil {
		return 0, nil, "", err
	}
	if !parentInode.isDir() {
		return 0, nil, "", fmt.Errorf("%q is not a directory: %w", parentPath, ErrInvalidInput)
	}
	return parentIno, parentInode, last, nil
}

// symlinkTarget reads a symlink's target, whether stored inline in i_block
// (fast symlink, the only form this implementation creates) or in a data
// block (slow symlink, as written by other ext2 implementations for targets
// over 60 bytes). The size <= 60 test alone decides which form applies - a
// fast symlink's i_block holds the raw target bytes reinterpreted as
// uint32s, so those words are not dependable as block-number sentinels.
func (fs *FileSystem) symlinkTarget(i *inode) string {
	if i.size() <= 60 {
		return i.inlineSymlinkTarget()
	}
	n := i.size()
	b, err := fs.readBlock(i.block[0])
	if err != nil || n > uint64(len(b)) {
		return i.inlineSymlinkTarget()
	}
	return string(b[:n])
}

func splitPath(path string) []string {
	var parts []string
	for _, p := range strings.Split(path, "/") {
		if p != "" {
			parts = append(parts, p)
		}
	}
	return parts
}
