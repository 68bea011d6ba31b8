package native

import (
	"bytes"
	"encoding/binary"
	"os"
	"path/filepath"
	"unsafe"

	"github.com/RoaringBitmap/roaring/v2"

	"github.com/hupe1980/typedann/internal/conv"
	"github.com/hupe1980/typedann/internal/hash"
	"github.com/hupe1980/typedann/internal/mmap"
)

const (
	formatVersion = 1
	headerSize    = 96
	vectorAlign   = 64
)

var magic = [8]byte{'T', 'A', 'N', 'N', 'I', 'D', 'X', 0}

const (
	flagMulti uint8 = 1 << iota
	flagCustom
	flagEntry
)

// header is the fixed little-endian prefix of a serialized index.
type header struct {
	Magic           [8]byte
	Version         uint32
	Metric          uint8
	Quant           uint8
	Flags           uint8
	_               uint8
	Dimensions      uint64
	Connectivity    uint64
	ExpansionAdd    uint64
	ExpansionSearch uint64
	Slots           uint64
	Entry           uint64
	MaxLevel        uint64
	LinksLen        uint64
	TombstonesLen   uint64
	Checksum        uint32
	_               uint32
}

func (h *header) options() IndexOptions {
	return IndexOptions{
		Dimensions:      int(h.Dimensions),
		Metric:          MetricKind(h.Metric),
		Quantization:    ScalarKind(h.Quant),
		Connectivity:    int(h.Connectivity),
		ExpansionAdd:    int(h.ExpansionAdd),
		ExpansionSearch: int(h.ExpansionSearch),
		Multi:           h.Flags&flagMulti != 0,
	}
}

func alignUp(n, to int) int {
	return (n + to - 1) / to * to
}

func linksLen(nodes []node) int {
	n := 0
	for i := range nodes {
		for _, l := range nodes[i].links {
			n += 4 + 4*len(l)
		}
	}
	return n
}

// layout returns the offset of the vector section and the total length.
func layout(slots, links, tombstones, stride int) (int, int) {
	graph := headerSize + 9*slots + links + tombstones
	off := alignUp(graph, vectorAlign)
	return off, off + slots*stride
}

// SerializedLength returns the number of bytes SaveBuffer writes.
func (ix *Index) SerializedLength() int {
	ix.mu.RLock()
	defer ix.mu.RUnlock()

	_, total := layout(len(ix.nodes), linksLen(ix.nodes), int(ix.deleted.GetSerializedSizeInBytes()), ix.stride)
	return total
}

// SaveBuffer serializes the index into buf, which must hold at least
// SerializedLength bytes.
func (ix *Index) SaveBuffer(buf []byte) error {
	ix.mu.RLock()
	defer ix.mu.RUnlock()

	if err := ix.check("save"); err != nil {
		return err
	}
	_, err := ix.encode(buf)
	return err
}

func (ix *Index) encode(buf []byte) (int, error) {
	n := len(ix.nodes)
	links := linksLen(ix.nodes)

	var tomb bytes.Buffer
	if _, err := ix.deleted.WriteTo(&tomb); err != nil {
		return 0, errorf("save", "encode tombstones: %v", err)
	}

	vecOff, total := layout(n, links, tomb.Len(), ix.stride)
	if len(buf) < total {
		return 0, errorf("save", "buffer has %d bytes, need %d", len(buf), total)
	}
	clear(buf[headerSize:vecOff])

	le := binary.LittleEndian
	off := headerSize
	for _, k := range ix.keys {
		le.PutUint64(buf[off:], k)
		off += 8
	}
	for i := range ix.nodes {
		buf[off] = uint8(ix.nodes[i].level())
		off++
	}
	for i := range ix.nodes {
		for _, l := range ix.nodes[i].links {
			le.PutUint32(buf[off:], uint32(len(l)))
			off += 4
			for _, id := range l {
				le.PutUint32(buf[off:], id)
				off += 4
			}
		}
	}
	off += copy(buf[off:], tomb.Bytes())

	copy(buf[vecOff:total], ix.vectors[:n*ix.stride])

	h := header{
		Magic:           magic,
		Version:         formatVersion,
		Metric:          uint8(ix.metric),
		Quant:           uint8(ix.quant),
		Dimensions:      uint64(ix.dims),
		Connectivity:    uint64(ix.connectivity),
		ExpansionAdd:    uint64(ix.expansionAdd.Load()),
		ExpansionSearch: uint64(ix.expansionSearch.Load()),
		Slots:           uint64(n),
		Entry:           uint64(ix.entry),
		MaxLevel:        uint64(ix.maxLevel),
		LinksLen:        uint64(links),
		TombstonesLen:   uint64(tomb.Len()),
		Checksum:        hash.CRC32C(buf[headerSize:off]),
	}
	if ix.multi {
		h.Flags |= flagMulti
	}
	if ix.custom.valid() {
		h.Flags |= flagCustom
	}
	if ix.hasEntry {
		h.Flags |= flagEntry
	}

	var hb bytes.Buffer
	hb.Grow(headerSize)
	if err := binary.Write(&hb, binary.LittleEndian, &h); err != nil {
		return 0, errorf("save", "encode header: %v", err)
	}
	copy(buf, hb.Bytes())

	return total, nil
}

// Save writes the index to path through a temporary file and a rename.
func (ix *Index) Save(path string) error {
	ix.mu.RLock()
	defer ix.mu.RUnlock()

	if err := ix.check("save"); err != nil {
		return err
	}

	_, total := layout(len(ix.nodes), linksLen(ix.nodes), int(ix.deleted.GetSerializedSizeInBytes()), ix.stride)
	buf := make([]byte, total)
	n, err := ix.encode(buf)
	if err != nil {
		return err
	}

	f, err := os.CreateTemp(filepath.Dir(path), filepath.Base(path)+".tmp-*")
	if err != nil {
		return errorf("save", "%v", err)
	}
	tmp := f.Name()

	if _, err := f.Write(buf[:n]); err != nil {
		_ = f.Close()
		_ = os.Remove(tmp)
		return errorf("save", "%v", err)
	}
	if err := f.Sync(); err != nil {
		_ = f.Close()
		_ = os.Remove(tmp)
		return errorf("save", "%v", err)
	}
	if err := f.Close(); err != nil {
		_ = os.Remove(tmp)
		return errorf("save", "%v", err)
	}
	if err := os.Rename(tmp, path); err != nil {
		_ = os.Remove(tmp)
		return errorf("save", "%v", err)
	}

	ix.logger.Debug("index saved", "path", path, "bytes", n)
	return nil
}

func readHeader(op string, buf []byte) (*header, error) {
	if len(buf) < headerSize {
		return nil, errorf(op, "buffer too short for header: %d bytes", len(buf))
	}

	var h header
	if err := binary.Read(bytes.NewReader(buf[:headerSize]), binary.LittleEndian, &h); err != nil {
		return nil, errorf(op, "decode header: %v", err)
	}
	if h.Magic != magic {
		return nil, errorf(op, "not a serialized index")
	}
	if h.Version != formatVersion {
		return nil, errorf(op, "unsupported format version %d", h.Version)
	}
	if !ScalarKind(h.Quant).valid() || h.Dimensions == 0 || h.Connectivity < 2 {
		return nil, errorf(op, "corrupt header")
	}
	return &h, nil
}

// MetadataBuffer decodes the configuration stored in a serialized index.
func MetadataBuffer(buf []byte) (IndexOptions, error) {
	h, err := readHeader("metadata", buf)
	if err != nil {
		return IndexOptions{}, err
	}
	return h.options(), nil
}

// Metadata reads the configuration of the index saved at path.
func Metadata(path string) (IndexOptions, error) {
	f, err := os.Open(path)
	if err != nil {
		return IndexOptions{}, errorf("metadata", "%v", err)
	}
	defer f.Close()

	buf := make([]byte, headerSize)
	if _, err := f.ReadAt(buf, 0); err != nil {
		return IndexOptions{}, errorf("metadata", "read header: %v", err)
	}
	return MetadataBuffer(buf)
}

// LoadBuffer replaces the index content with a copy of buf.
func (ix *Index) LoadBuffer(buf []byte) error {
	ix.mu.Lock()
	defer ix.mu.Unlock()

	if err := ix.check("load"); err != nil {
		return err
	}
	return ix.decode("load", buf, false)
}

// ViewBuffer replaces the index content with a read-only view of buf. Vectors
// are not copied: buf must stay valid and unmodified while the index uses it.
func (ix *Index) ViewBuffer(buf []byte) error {
	ix.mu.Lock()
	defer ix.mu.Unlock()

	if err := ix.check("view"); err != nil {
		return err
	}
	return ix.decode("view", buf, true)
}

// Load replaces the index content with the index saved at path.
func (ix *Index) Load(path string) error {
	buf, err := os.ReadFile(path)
	if err != nil {
		return errorf("load", "%v", err)
	}
	return ix.LoadBuffer(buf)
}

// View maps the index saved at path read-only. The mapping is released by
// Reset, Free or the next Load or View.
func (ix *Index) View(path string) error {
	m, err := mmap.Open(path)
	if err != nil {
		return errorf("view", "%v", err)
	}
	if err := m.Advise(mmap.AccessRandom); err != nil {
		ix.logger.Debug("madvise failed", "path", path, "error", err)
	}

	ix.mu.Lock()
	defer ix.mu.Unlock()

	if err := ix.check("view"); err != nil {
		_ = m.Release()
		return err
	}
	if err := ix.decode("view", m.Bytes(), true); err != nil {
		_ = m.Release()
		return err
	}
	ix.mapping = m
	return nil
}

func (ix *Index) decode(op string, buf []byte, borrow bool) error {
	h, err := readHeader(op, buf)
	if err != nil {
		return err
	}

	opts := h.options()
	if h.Flags&flagCustom != 0 {
		if !ix.custom.valid() {
			return errorf(op, "index was built with a custom metric; bind one before loading")
		}
		opts.CustomMetric = ix.custom
	}
	if err := opts.validate(op); err != nil {
		return err
	}

	n, err := safeInt(op, h.Slots)
	if err != nil {
		return err
	}
	links, err := safeInt(op, h.LinksLen)
	if err != nil {
		return err
	}
	tombLen, err := safeInt(op, h.TombstonesLen)
	if err != nil {
		return err
	}

	if h.Flags&flagEntry != 0 && (h.Entry >= uint64(n) || h.MaxLevel > 255) {
		return errorf(op, "entry point %d out of range", h.Entry)
	}

	stride := opts.Quantization.VectorBytes(opts.Dimensions)
	vecOff, total := layout(n, links, tombLen, stride)
	if len(buf) < total {
		return errorf(op, "truncated index: %d bytes, need %d", len(buf), total)
	}

	graphEnd := headerSize + 9*n + links + tombLen
	if hash.CRC32C(buf[headerSize:graphEnd]) != h.Checksum {
		return errorf(op, "checksum mismatch")
	}

	le := binary.LittleEndian
	off := headerSize

	keys := make([]Key, n)
	for i := range keys {
		keys[i] = le.Uint64(buf[off:])
		off += 8
	}

	levels := buf[off : off+n]
	off += n

	linksEnd := off + links
	nodes := make([]node, n)
	for i := range nodes {
		nodes[i].links = make([][]uint32, int(levels[i])+1)
		for l := range nodes[i].links {
			if off+4 > linksEnd {
				return errorf(op, "corrupt links section")
			}
			cnt := int(le.Uint32(buf[off:]))
			off += 4
			if off+4*cnt > linksEnd {
				return errorf(op, "corrupt links section")
			}
			ids := make([]uint32, cnt)
			for j := range ids {
				ids[j] = le.Uint32(buf[off:])
				if int(ids[j]) >= n {
					return errorf(op, "link to missing slot %d", ids[j])
				}
				off += 4
			}
			nodes[i].links[l] = ids
		}
	}

	deleted := roaring.New()
	if _, err := deleted.ReadFrom(bytes.NewReader(buf[off : off+tombLen])); err != nil {
		return errorf(op, "decode tombstones: %v", err)
	}

	vecs := buf[vecOff:total]
	if borrow {
		if n > 0 && uintptr(unsafe.Pointer(&vecs[0]))%8 != 0 {
			return errorf(op, "vector section is not 8-byte aligned")
		}
	} else {
		vecs = append([]byte(nil), vecs...)
	}

	// The old content is replaced, so its reservation is handed back before
	// claiming the new one.
	var need int64
	if !borrow {
		need = int64(len(vecs) + n*slotOverhead)
		old := ix.reserved
		ix.res.Release(old)
		ix.reserved = 0
		if err := ix.res.Reserve(need); err != nil {
			if rerr := ix.res.Reserve(old); rerr != nil {
				ix.logger.Warn("previous reservation lost", "bytes", old, "error", rerr)
			} else {
				ix.reserved = old
			}
			return errorf(op, "allocation of %d slots failed: %v", n, err)
		}
	}

	ix.clear()
	ix.configure(opts)
	ix.expansionAdd.Store(int64(opts.ExpansionAdd))
	ix.expansionSearch.Store(int64(opts.ExpansionSearch))

	ix.reserved = need
	ix.vectors = vecs
	ix.keys = keys
	ix.nodes = nodes
	ix.deleted = deleted
	ix.capacity = n
	ix.view = borrow

	for slot, k := range keys {
		if deleted.Contains(uint32(slot)) {
			continue
		}
		ix.slots[k] = append(ix.slots[k], uint32(slot))
		ix.live++
	}

	if h.Flags&flagEntry != 0 {
		ix.entry, ix.maxLevel, ix.hasEntry = uint32(h.Entry), int(h.MaxLevel), true
	}

	ix.logger.Debug("index decoded", "op", op, "slots", n, "live", ix.live, "view", borrow)
	return nil
}

func safeInt(op string, v uint64) (int, error) {
	n, err := conv.ToInt(v, 1<<40)
	if err != nil {
		return 0, errorf(op, "corrupt header: %v", err)
	}
	return n, nil
}
