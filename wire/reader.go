package wire

import (
	"encoding/binary"

	"github.com/Meulengracht/gracht"
)

// Reader is a little-endian cursor over a message's opaque payload, used
// by protocol handlers after the header has been stripped.
type Reader struct {
	Data  []byte
	Index int
}

// NewPayloadReader returns a Reader positioned at the start of the payload
// that follows a decoded header in a full message buffer.
func NewPayloadReader(full []byte) *Reader {
	if len(full) < HeaderSize {
		return &Reader{Data: full, Index: len(full)}
	}
	return &Reader{Data: full, Index: HeaderSize}
}

func (r *Reader) remaining() int { return len(r.Data) - r.Index }

// GetUint8 reads a single byte.
func (r *Reader) GetUint8() (uint8, error) {
	if r.remaining() < 1 {
		return 0, gracht.NewError(gracht.KindNoData, "short read: uint8", nil)
	}
	v := r.Data[r.Index]
	r.Index++
	return v, nil
}

// GetUint16 reads a little-endian uint16.
func (r *Reader) GetUint16() (uint16, error) {
	if r.remaining() < 2 {
		return 0, gracht.NewError(gracht.KindNoData, "short read: uint16", nil)
	}
	v := binary.LittleEndian.Uint16(r.Data[r.Index:])
	r.Index += 2
	return v, nil
}

// GetUint32 reads a little-endian uint32.
func (r *Reader) GetUint32() (uint32, error) {
	if r.remaining() < 4 {
		return 0, gracht.NewError(gracht.KindNoData, "short read: uint32", nil)
	}
	v := binary.LittleEndian.Uint32(r.Data[r.Index:])
	r.Index += 4
	return v, nil
}

// GetUint64 reads a little-endian uint64.
func (r *Reader) GetUint64() (uint64, error) {
	if r.remaining() < 8 {
		return 0, gracht.NewError(gracht.KindNoData, "short read: uint64", nil)
	}
	v := binary.LittleEndian.Uint64(r.Data[r.Index:])
	r.Index += 8
	return v, nil
}

// GetInt32 reads a little-endian int32.
func (r *Reader) GetInt32() (int32, error) {
	v, err := r.GetUint32()
	return int32(v), err
}

// GetBytes reads n raw bytes. The returned slice aliases Data.
func (r *Reader) GetBytes(n int) ([]byte, error) {
	if r.remaining() < n {
		return nil, gracht.NewError(gracht.KindNoData, "short read: bytes", nil)
	}
	b := r.Data[r.Index : r.Index+n]
	r.Index += n
	return b, nil
}

// GetString reads a length-prefixed (uint32) UTF-8 string.
func (r *Reader) GetString() (string, error) {
	n, err := r.GetUint32()
	if err != nil {
		return "", err
	}
	b, err := r.GetBytes(int(n))
	if err != nil {
		return "", err
	}
	return string(b), nil
}

// Remaining returns the unread payload bytes.
func (r *Reader) Remaining() []byte { return r.Data[r.Index:] }
