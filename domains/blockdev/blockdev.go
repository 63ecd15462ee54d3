// Package blockdev implements a small in-memory block device domain,
// the RedLeaf analog of original_source's membdev/nullblk test domains.
// It holds its backing store as an Owned[[]byte] interior field rather
// than a freestanding RRef (spec.md's "Supplemented features": interior
// ownership), and ships a Factory (factory.go) that a pkg/proxy Shadow
// can use to rebuild it after a crash (spec.md §8 scenario: "shadow
// restart").
package blockdev

import (
	"fmt"

	"github.com/mars-research/redleaf-sub003/pkg/domain"
	"github.com/mars-research/redleaf-sub003/pkg/rref"
)

// BlockSize is the fixed block size this device exposes.
const BlockSize = 512

// TypeID is the Dropper type id registered for this domain's
// RRef<[BlockSize]byte> block payloads.
const TypeID uint64 = 2

// Domain is the block device domain's entry point. blocks is interior
// state held in an Owned field, not a top-level RRef; ReadBlock hands a
// caller a fresh RRef holding a copy of one block (spec.md's Owned<T>
// supplement).
type Domain struct {
	id     uint64
	heap   rref.Heap
	blocks rref.Owned[[][BlockSize]byte]

	// CrashOnBlock, when non-negative, makes ReadBlock panic the first
	// time that block index is read — a synthetic fault for tests,
	// without needing a real fault injector.
	CrashOnBlock int
	crashed      bool
}

// New constructs an uninitialized block device domain with numBlocks
// zeroed blocks, bound to the shared heap h.
func New(h rref.Heap, numBlocks int) *Domain {
	return &Domain{
		heap:         h,
		blocks:       rref.NewOwned(make([][BlockSize]byte, numBlocks)),
		CrashOnBlock: -1,
	}
}

// Name implements domain.EntryPoint.
func (d *Domain) Name() string { return "blockdev" }

// Init implements domain.EntryPoint.
func (d *Domain) Init(domainID uint64) error {
	d.id = domainID
	return nil
}

// ReadBlock copies block i into a fresh RRef owned by the caller's
// domain. If i == d.CrashOnBlock and the domain hasn't already crashed
// once, it panics instead — the synthetic fault Shadow's restart policy
// exists to recover from.
func (d *Domain) ReadBlock(i int) (*rref.RRef[[BlockSize]byte], error) {
	if i == d.CrashOnBlock && !d.crashed {
		d.crashed = true
		panic(fmt.Sprintf("blockdev: simulated fault reading block %d", i))
	}

	blocks := *d.blocks.Get()
	if i < 0 || i >= len(blocks) {
		return nil, fmt.Errorf("blockdev: block %d out of range (have %d)", i, len(blocks))
	}
	return rref.New(d.heap, TypeID, blocks[i])
}

// WriteBlock copies in's referent into block i of the backing store.
func (d *Domain) WriteBlock(i int, in *rref.RRef[[BlockSize]byte]) error {
	blocks := *d.blocks.Get()
	if i < 0 || i >= len(blocks) {
		return fmt.Errorf("blockdev: block %d out of range (have %d)", i, len(blocks))
	}
	blocks[i] = *in.Deref()
	return nil
}

// NumBlocks reports the device's block count.
func (d *Domain) NumBlocks() int {
	return len(*d.blocks.Get())
}

// readArgs/writeArgs adapt ReadBlock/WriteBlock to proxy.Callable's
// single-argument func(any) (any, error) signature.
type readArgs struct {
	Block int
}

type writeArgs struct {
	Block int
	Data  *rref.RRef[[BlockSize]byte]
}

// HandleRead implements proxy.Callable for block reads.
func (d *Domain) HandleRead(args any) (any, error) {
	a, ok := args.(readArgs)
	if !ok {
		return nil, fmt.Errorf("blockdev: expected readArgs, got %T", args)
	}
	return d.ReadBlock(a.Block)
}

// HandleWrite implements proxy.Callable for block writes.
func (d *Domain) HandleWrite(args any) (any, error) {
	a, ok := args.(writeArgs)
	if !ok {
		return nil, fmt.Errorf("blockdev: expected writeArgs, got %T", args)
	}
	return nil, d.WriteBlock(a.Block, a.Data)
}

var _ domain.EntryPoint = (*Domain)(nil)
