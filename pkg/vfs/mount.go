// Copyright 2026 the corefs Authors. All rights reserved.
// Use of this source code is governed by a BSD-style
// license that can be found in the LICENSE file.

package vfs

// Mount attaches a new superblock of the named filesystem type at
// mountpoint. It acquires the mount mutex, the parent superblock's write
// lock, and the mountpoint's inode mutex itself, in that order, rather
// than requiring the caller to pre-acquire any of them.
func Mount(reg *Registry, mountpoint *Inode, device *Inode, typeName string, flags uint32, data map[string]string) (*Superblock, Errno) {
	reg.Lock()
	defer reg.Unlock()

	parentSB := mountpoint.Sb
	parentSB.mu.Lock()
	defer parentSB.mu.Unlock()

	mountpoint.mu.Lock()
	defer mountpoint.mu.Unlock()

	if !IsDir(mountpoint.mode) {
		return nil, ENotDir
	}
	if mountpoint.mount {
		return nil, EBusy
	}
	if mountpoint.refCount > 2 {
		return nil, EBusy
	}

	rt := reg.lookupLocked(typeName)
	if rt == nil {
		return nil, ENoEnt
	}

	mountpoint.mount = true
	parentSB.mountCount++

	sb, errno := rt.driver.Mount(mountpoint, device, flags, data)
	if errno != OK {
		mountpoint.mount = false
		parentSB.mountCount--
		return nil, errno
	}

	if !sb.Ops.complete() || sb.RootInode == nil {
		mountpoint.mount = false
		parentSB.mountCount--
		if sb.Ops != nil && sb.Ops.Destroy != nil {
			sb.Ops.Destroy(sb)
		}
		return nil, EInval
	}

	sb.ParentSB = parentSB
	sb.Mountpoint = mountpoint
	sb.RootInode.setValid(true)
	sb.inodes[sb.RootInode.Ino] = sb.RootInode

	reg.attachLocked(typeName, sb)
	mountpoint.mntSB = sb
	mountpoint.mntRootIno = sb.RootInode.Ino
	sb.valid = true
	sb.initialized = true

	return sb, OK
}

// Unmount tears down sb strictly: it refuses with EBusy unless there are
// no child mounts, the superblock is clean, and (after giving the driver a
// chance to evict via UnmountBegin) the inode cache is empty.
func Unmount(reg *Registry, mountpoint *Inode, unmountBegin func(sb *Superblock)) Errno {
	reg.Lock()
	defer reg.Unlock()

	parentSB := mountpoint.Sb
	parentSB.mu.Lock()
	defer parentSB.mu.Unlock()

	mountpoint.mu.Lock()
	defer mountpoint.mu.Unlock()

	if !mountpoint.mount || mountpoint.mntSB == nil {
		return EInval
	}
	sb := mountpoint.mntSB

	sb.mu.Lock()
	sb.RootInode.mu.Lock()

	errno := func() Errno {
		defer sb.RootInode.mu.Unlock()
		defer sb.mu.Unlock()

		if sb.mountCount != 0 {
			return EBusy
		}
		if sb.dirty {
			return EBusy
		}
		if unmountBegin != nil {
			unmountBegin(sb)
		}
		if len(sb.inodes) != 0 {
			return EBusy
		}

		reg.detachLocked(sb.FSType.Name(), sb)
		mountpoint.mount = false
		mountpoint.mntSB = nil
		mountpoint.mntRootIno = 0
		parentSB.mountCount--
		return OK
	}()
	if errno != OK {
		return errno
	}

	// Destroy runs the driver's teardown hook, which may re-acquire sb.mu
	// (e.g. tmpfs's via DrainAll), so it must run after the locks above
	// are released.
	if sb.Ops != nil && sb.Ops.Destroy != nil {
		sb.Ops.Destroy(sb)
	}
	return OK
}

// UnmountLazy detaches sb from the namespace immediately (the mountpoint
// reverts to an ordinary directory right away) while deferring final
// destruction until every outstanding open reference drains, so files
// opened before the call keep working.
func UnmountLazy(reg *Registry, mountpoint *Inode) Errno {
	reg.Lock()
	defer reg.Unlock()

	parentSB := mountpoint.Sb
	parentSB.mu.Lock()
	defer parentSB.mu.Unlock()

	mountpoint.mu.Lock()
	defer mountpoint.mu.Unlock()

	if !mountpoint.mount || mountpoint.mntSB == nil {
		return EInval
	}
	sb := mountpoint.mntSB

	reg.detachLocked(sb.FSType.Name(), sb)
	mountpoint.mount = false
	mountpoint.mntSB = nil
	mountpoint.mntRootIno = 0
	parentSB.mountCount--

	sb.mu.Lock()
	sb.detached = true
	drained := sb.openRefs <= 0
	sb.mu.Unlock()

	if drained {
		sb.destroy()
	}
	return OK
}
