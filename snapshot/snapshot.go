package snapshot

import (
	"context"
	"encoding/binary"
	"errors"
	"fmt"
	"log/slog"
	"math"
	"time"

	"github.com/hupe1980/typedann/blobstore"
	"github.com/hupe1980/typedann/internal/hash"
	"github.com/hupe1980/typedann/internal/resource"
)

var (
	// ErrCorrupt is returned when a frame fails validation.
	ErrCorrupt = errors.New("snapshot: corrupt frame")

	// ErrUnknownCodec is returned for an unsupported codec.
	ErrUnknownCodec = errors.New("snapshot: unknown codec")
)

const (
	frameVersion    = 1
	frameHeaderSize = 32
)

var frameMagic = [8]byte{'T', 'A', 'N', 'N', 'S', 'N', 'A', 'P'}

// Source is anything that serializes into a caller-provided buffer.
type Source interface {
	SerializedLength() int
	SaveToBuffer(buf []byte) error
}

// Option configures Put and Get.
type Option func(*options)

type options struct {
	codec  Codec
	rc     *resource.Controller
	logger *slog.Logger
}

// WithCodec sets the compression used by Put. Get detects it from the frame.
func WithCodec(c Codec) Option {
	return func(o *options) { o.codec = c }
}

// WithIOLimit throttles transfers to bytesPerSec.
func WithIOLimit(bytesPerSec int64) Option {
	return func(o *options) {
		o.rc = resource.NewController(resource.Limits{IOBytesPerSec: bytesPerSec})
	}
}

// WithResourceController shares an existing controller's IO budget.
func WithResourceController(rc *resource.Controller) Option {
	return func(o *options) { o.rc = rc }
}

// WithLogger sets the logger. The default discards output.
func WithLogger(l *slog.Logger) Option {
	return func(o *options) {
		if l != nil {
			o.logger = l
		}
	}
}

func applyOptions(optFns []Option) options {
	o := options{logger: slog.New(slog.DiscardHandler)}
	for _, fn := range optFns {
		fn(&o)
	}
	return o
}

// Encode serializes src into a frame compressed with codec.
func Encode(src Source, codec Codec) ([]byte, error) {
	raw := make([]byte, src.SerializedLength())
	if err := src.SaveToBuffer(raw); err != nil {
		return nil, err
	}

	payload, err := compress(codec, raw)
	if err != nil {
		return nil, err
	}
	if payload == nil {
		codec, payload = CodecNone, raw
	}

	frame := make([]byte, frameHeaderSize+len(payload))
	copy(frame[0:8], frameMagic[:])
	binary.LittleEndian.PutUint16(frame[8:], frameVersion)
	frame[10] = byte(codec)
	binary.LittleEndian.PutUint32(frame[12:], hash.CRC32C(raw))
	binary.LittleEndian.PutUint64(frame[16:], uint64(len(raw)))
	binary.LittleEndian.PutUint64(frame[24:], uint64(len(payload)))
	copy(frame[frameHeaderSize:], payload)
	return frame, nil
}

// Decode validates a frame and returns the uncompressed index bytes.
func Decode(frame []byte) ([]byte, error) {
	if len(frame) < frameHeaderSize {
		return nil, fmt.Errorf("%w: %d bytes is shorter than the header", ErrCorrupt, len(frame))
	}
	if [8]byte(frame[0:8]) != frameMagic {
		return nil, fmt.Errorf("%w: bad magic", ErrCorrupt)
	}
	if v := binary.LittleEndian.Uint16(frame[8:]); v != frameVersion {
		return nil, fmt.Errorf("%w: unsupported version %d", ErrCorrupt, v)
	}

	codec := Codec(frame[10])
	sum := binary.LittleEndian.Uint32(frame[12:])
	rawLen := binary.LittleEndian.Uint64(frame[16:])
	storedLen := binary.LittleEndian.Uint64(frame[24:])

	if storedLen != uint64(len(frame)-frameHeaderSize) {
		return nil, fmt.Errorf("%w: stored length %d, have %d", ErrCorrupt, storedLen, len(frame)-frameHeaderSize)
	}
	if rawLen > math.MaxInt32*16 {
		return nil, fmt.Errorf("%w: implausible length %d", ErrCorrupt, rawLen)
	}

	raw, err := decompress(codec, frame[frameHeaderSize:], int(rawLen))
	if err != nil {
		return nil, err
	}
	if hash.CRC32C(raw) != sum {
		return nil, fmt.Errorf("%w: checksum mismatch", ErrCorrupt)
	}
	return raw, nil
}

// Put encodes src and writes it to store under name.
func Put(ctx context.Context, store blobstore.Store, name string, src Source, optFns ...Option) error {
	o := applyOptions(optFns)
	start := time.Now()

	frame, err := Encode(src, o.codec)
	if err != nil {
		o.logger.Error("snapshot encode failed", "name", name, "error", err)
		return err
	}

	if err := o.rc.WaitIO(ctx, len(frame)); err != nil {
		return err
	}
	if err := store.Put(ctx, name, frame); err != nil {
		o.logger.Error("snapshot upload failed", "name", name, "error", err)
		return err
	}

	o.logger.Info("snapshot stored",
		"name", name,
		"codec", Codec(frame[10]),
		"bytes", len(frame),
		"duration", time.Since(start),
	)
	return nil
}

// Get reads the frame stored under name and returns the index bytes.
func Get(ctx context.Context, store blobstore.Store, name string, optFns ...Option) ([]byte, error) {
	o := applyOptions(optFns)
	start := time.Now()

	frame, err := store.Get(ctx, name)
	if err != nil {
		return nil, err
	}
	if err := o.rc.WaitIO(ctx, len(frame)); err != nil {
		return nil, err
	}

	raw, err := Decode(frame)
	if err != nil {
		o.logger.Error("snapshot decode failed", "name", name, "error", err)
		return nil, err
	}

	o.logger.Info("snapshot fetched",
		"name", name,
		"bytes", len(frame),
		"duration", time.Since(start),
	)
	return raw, nil
}
