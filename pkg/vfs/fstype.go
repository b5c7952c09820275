// Copyright 2026 the corefs Authors. All rights reserved.
// Use of this source code is governed by a BSD-style
// license that can be found in the LICENSE file.

package vfs

import "sync"

// maxFSTypes is the hard cap on registered filesystem types.
const maxFSTypes = 64

// FSType is a filesystem driver: a name and a mount entry point. The
// release hook for a superblock it creates is that superblock's
// SuperOps.Destroy.
type FSType interface {
	Name() string
	Mount(mountpoint *Inode, device *Inode, flags uint32, data map[string]string) (*Superblock, Errno)
}

type registeredType struct {
	driver FSType
	refCount int
	superblocks []*Superblock
}

// Registry is the global doubly-linked list of drivers, protected by a
// process-wide mount mutex . A Go map plus a single mutex
// gives the same contract as a hand-rolled intrusive list without the
// bookkeeping; the mutex itself doubles as the "mount mutex" at the top of
// the lock-ordering hierarchy.
type Registry struct {
	mu sync.Mutex
	types map[string]*registeredType
}

func NewRegistry() *Registry {
	return &Registry{types: make(map[string]*registeredType)}
}

// Lock acquires the process-wide mount mutex. Mount and Unmount call this
// themselves; it is exported so callers implementing multi-step namespace
// operations (e.g. bind mounts layered on top of this package) can extend
// the same critical section.
func (r *Registry) Lock() { r.mu.Lock() }
func (r *Registry) Unlock() { r.mu.Unlock() }

// Register adds a driver to the registry. Fails with EExist for a
// duplicate name, ETooMany at the hard cap, or EInval for a driver with no
// name.
func (r *Registry) Register(driver FSType) Errno {
	if driver == nil || driver.Name() == "" {
		return EInval
	}
	r.mu.Lock()
	defer r.mu.Unlock()

	if _, ok := r.types[driver.Name()]; ok {
		return EExist
	}
	if len(r.types) >= maxFSTypes {
		return ETooMany
	}
	r.types[driver.Name()] = &registeredType{driver: driver, refCount: 1}
	return OK
}

// Unregister detaches a driver and decrements its ref count; drivers are
// fully removed only when their last superblock has been freed (ref count
// reaches zero). The "release callback" a driver would otherwise run at
// final destruction is simply garbage collection of the registeredType
// once both the registry and every mounted superblock have dropped their
// reference, since this driver object carries no external resources of
// its own.
func (r *Registry) Unregister(name string) Errno {
	r.mu.Lock()
	defer r.mu.Unlock()

	rt, ok := r.types[name]
	if !ok {
		return ENoEnt
	}
	delete(r.types, name)
	rt.refCount--
	return OK
}

// lookupLocked, attachLocked, and detachLocked assume the caller already
// holds r.mu (as Mount, Unmount, and UnmountLazy do for their whole
// critical section); they must never take the lock themselves.

func (r *Registry) lookupLocked(name string) *registeredType {
	return r.types[name]
}

func (r *Registry) attachLocked(name string, sb *Superblock) {
	if rt, ok := r.types[name]; ok {
		rt.superblocks = append(rt.superblocks, sb)
	}
}

func (r *Registry) detachLocked(name string, sb *Superblock) {
	rt, ok := r.types[name]
	if !ok {
		return
	}
	for i, s := range rt.superblocks {
		if s == sb {
			rt.superblocks = append(rt.superblocks[:i], rt.superblocks[i+1:]...)
			break
		}
	}
}
