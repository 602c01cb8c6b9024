package kdforest

import (
	"bytes"
	"encoding/binary"
	"errors"
	"fmt"
	"os"
	"unsafe"

	"github.com/edsrzf/mmap-go"
)

// Descriptor files carry raw extracted descriptors between pipeline stages;
// built trees are never persisted. Layout (little-endian):
//
//	[64-byte header][count * 128 descriptor bytes][count * uint16 image indexes]
//
// The descriptor payload starts at byte 64 of a page-aligned mapping, so the
// 32-byte descriptor alignment contract holds by construction.
const (
	storeMagic      = "KDFD"
	storeVersion    = uint16(1)
	storeHeaderSize = 64
)

type storeHeader struct {
	Magic    [4]byte
	Version  uint16
	_        uint16
	Count    uint64
	Reserved [48]byte // pad to storeHeaderSize
}

// ErrBadDescriptorFile is returned when a descriptor file fails validation.
var ErrBadDescriptorFile = errors.New("kdforest: invalid descriptor file")

// DescriptorFile is a read-only, mmap-backed descriptor store. The slices it
// exposes view the mapped region directly and are valid until Close; trees
// built over them must be dropped before closing.
type DescriptorFile struct {
	f    *os.File
	data mmap.MMap

	descriptors  []Descriptor
	imageIndexes []uint16
}

// OpenDescriptorFile maps path read-only and validates its header.
func OpenDescriptorFile(path string) (*DescriptorFile, error) {
	f, err := os.Open(path)
	if err != nil {
		return nil, err
	}
	data, err := mmap.Map(f, mmap.RDONLY, 0)
	if err != nil {
		f.Close()
		return nil, err
	}

	df := &DescriptorFile{f: f, data: data}
	if err := df.validate(); err != nil {
		df.Close()
		return nil, err
	}
	return df, nil
}

func (df *DescriptorFile) validate() error {
	if len(df.data) < storeHeaderSize {
		return fmt.Errorf("%w: %d bytes is shorter than the header", ErrBadDescriptorFile, len(df.data))
	}
	var h storeHeader
	if err := binary.Read(bytes.NewReader(df.data[:storeHeaderSize]), binary.LittleEndian, &h); err != nil {
		return err
	}
	if string(h.Magic[:]) != storeMagic {
		return fmt.Errorf("%w: bad magic %q", ErrBadDescriptorFile, h.Magic[:])
	}
	if h.Version != storeVersion {
		return fmt.Errorf("%w: unsupported version %d", ErrBadDescriptorFile, h.Version)
	}
	count := int(h.Count)
	want := storeHeaderSize + count*DescriptorSize + count*2
	if count < 0 || len(df.data) != want {
		return fmt.Errorf("%w: %d bytes for %d descriptors, want %d", ErrBadDescriptorFile, len(df.data), count, want)
	}
	if count == 0 {
		return nil
	}
	df.descriptors = unsafe.Slice((*Descriptor)(unsafe.Pointer(&df.data[storeHeaderSize])), count)
	df.imageIndexes = unsafe.Slice((*uint16)(unsafe.Pointer(&df.data[storeHeaderSize+count*DescriptorSize])), count)
	return nil
}

// Descriptors returns the mapped descriptor slice. Callers must not modify it.
func (df *DescriptorFile) Descriptors() []Descriptor { return df.descriptors }

// ImageIndexes returns the mapped per-descriptor image indexes.
func (df *DescriptorFile) ImageIndexes() []uint16 { return df.imageIndexes }

// Count returns the number of descriptors in the file.
func (df *DescriptorFile) Count() int { return len(df.descriptors) }

// Close unmaps the file and closes it. All slices obtained from the store,
// and all trees built over them, become invalid.
func (df *DescriptorFile) Close() error {
	df.descriptors = nil
	df.imageIndexes = nil
	if df.data != nil {
		if err := df.data.Unmap(); err != nil {
			return err
		}
		df.data = nil
	}
	if df.f != nil {
		err := df.f.Close()
		df.f = nil
		return err
	}
	return nil
}

// WriteDescriptorFile writes descriptors and their image indexes to path in
// the format read by OpenDescriptorFile. imageIndexes may be nil (all
// descriptors attributed to image 0) or must match descriptors in length.
func WriteDescriptorFile(path string, descriptors []Descriptor, imageIndexes []uint16) error {
	if imageIndexes != nil && len(imageIndexes) != len(descriptors) {
		return fmt.Errorf("%w: %d image indexes for %d descriptors", ErrBadDescriptorFile, len(imageIndexes), len(descriptors))
	}

	var buf bytes.Buffer
	h := storeHeader{Version: storeVersion, Count: uint64(len(descriptors))}
	copy(h.Magic[:], storeMagic)
	if err := binary.Write(&buf, binary.LittleEndian, &h); err != nil {
		return err
	}
	for i := range descriptors {
		buf.Write(descriptors[i][:])
	}
	for i := range descriptors {
		var img uint16
		if imageIndexes != nil {
			img = imageIndexes[i]
		}
		if err := binary.Write(&buf, binary.LittleEndian, img); err != nil {
			return err
		}
	}
	return os.WriteFile(path, buf.Bytes(), 0o644)
}
