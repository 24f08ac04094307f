package wire

import (
	"encoding/binary"
)

// Writer packs an outbound message: HeaderSize reserved bytes followed by
// payload written at a cursor (Index), mirroring the C descriptor's
// {data, index} buffer. The header fields are not known until the body is
// packed (message id is minted by the client at send time, length once
// packing is complete), so Header is reserved but left zeroed until
// Finalize is called.
type Writer struct {
	Data  []byte
	Index int
}

// NewWriter returns a Writer with HeaderSize reserved bytes already
// written, sized to hold at least capacityHint bytes of payload.
func NewWriter(capacityHint int) *Writer {
	w := &Writer{Data: make([]byte, HeaderSize, HeaderSize+capacityHint)}
	w.Index = HeaderSize
	return w
}

func (w *Writer) grow(n int) {
	for len(w.Data) < w.Index+n {
		w.Data = append(w.Data, 0)
	}
}

// PutUint8 appends a single byte.
func (w *Writer) PutUint8(v uint8) {
	w.grow(1)
	w.Data[w.Index] = v
	w.Index++
}

// PutUint16 appends a little-endian uint16.
func (w *Writer) PutUint16(v uint16) {
	w.grow(2)
	binary.LittleEndian.PutUint16(w.Data[w.Index:], v)
	w.Index += 2
}

// PutUint32 appends a little-endian uint32.
func (w *Writer) PutUint32(v uint32) {
	w.grow(4)
	binary.LittleEndian.PutUint32(w.Data[w.Index:], v)
	w.Index += 4
}

// PutUint64 appends a little-endian uint64.
func (w *Writer) PutUint64(v uint64) {
	w.grow(8)
	binary.LittleEndian.PutUint64(w.Data[w.Index:], v)
	w.Index += 8
}

// PutInt32 appends a little-endian int32.
func (w *Writer) PutInt32(v int32) { w.PutUint32(uint32(v)) }

// PutBytes appends raw bytes verbatim.
func (w *Writer) PutBytes(b []byte) {
	w.grow(len(b))
	copy(w.Data[w.Index:], b)
	w.Index += len(b)
}

// PutString appends a length-prefixed (uint32) UTF-8 string.
func (w *Writer) PutString(s string) {
	w.PutUint32(uint32(len(s)))
	w.PutBytes([]byte(s))
}

// Len returns the number of bytes written so far, header included.
func (w *Writer) Len() int { return w.Index }

// Finalize writes the header using the current Index as Length and
// truncates Data to exactly that length. It must be called exactly once,
// after the payload is fully packed and the message id is known.
func (w *Writer) Finalize(messageID uint32, serviceID, actionID uint8, class Class) Header {
	h := Header{
		MessageID: messageID,
		Length:    uint32(w.Index),
		ServiceID: serviceID,
		ActionID:  actionID,
		Flags:     uint8(class) & classMask,
	}
	// EncodeHeader cannot fail here: Data is always at least HeaderSize.
	_ = EncodeHeader(w.Data, h)
	w.Data = w.Data[:w.Index]
	return h
}

// Bytes returns the full buffer, header included. Valid after Finalize.
func (w *Writer) Bytes() []byte { return w.Data }
