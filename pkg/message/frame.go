package message

import (
	"encoding/binary"
	"io"
)

// Frame is a fully decoded Matter message: header plus the (already
// decrypted, for secure messages) protocol header and application payload.
type Frame struct {
	Header   MessageHeader
	Protocol ProtocolHeader
	Payload  []byte
}

// EncodeUnsecured serializes f without encryption, for PASE/CASE handshake
// traffic.
func (f *Frame) EncodeUnsecured() []byte {
	buf := make([]byte, f.Header.Size()+f.Protocol.Size()+len(f.Payload))
	offset := f.Header.EncodeTo(buf)
	offset += f.Protocol.EncodeTo(buf[offset:])
	copy(buf[offset:], f.Payload)
	return buf
}

// DecodeUnsecured parses an unsecured message frame from data.
func DecodeUnsecured(data []byte) (*Frame, error) {
	f := &Frame{}

	headerLen, err := f.Header.Decode(data)
	if err != nil {
		return nil, err
	}
	if len(data) < headerLen {
		return nil, ErrMessageTooShort
	}

	protocolLen, err := f.Protocol.Decode(data[headerLen:])
	if err != nil {
		return nil, err
	}

	payloadStart := headerLen + protocolLen
	if len(data) > payloadStart {
		f.Payload = make([]byte, len(data)-payloadStart)
		copy(f.Payload, data[payloadStart:])
	}

	return f, nil
}

// RawFrame is a message still carrying its encrypted protocol header and
// payload, used before decryption or after encryption.
type RawFrame struct {
	Header           MessageHeader
	EncryptedPayload []byte
	MIC              []byte
}

// EncodeRaw serializes r to wire format without touching the ciphertext.
func (r *RawFrame) EncodeRaw() []byte {
	buf := make([]byte, r.Header.Size()+len(r.EncryptedPayload)+len(r.MIC))
	offset := r.Header.EncodeTo(buf)
	offset += copy(buf[offset:], r.EncryptedPayload)
	copy(buf[offset:], r.MIC)
	return buf
}

// DecodeRaw parses a message's header and splits off its (still encrypted,
// if secure) payload and MIC without decrypting.
func DecodeRaw(data []byte) (*RawFrame, error) {
	r := &RawFrame{}

	headerLen, err := r.Header.Decode(data)
	if err != nil {
		return nil, err
	}

	if !r.Header.IsSecure() {
		if len(data) > headerLen {
			r.EncryptedPayload = make([]byte, len(data)-headerLen)
			copy(r.EncryptedPayload, data[headerLen:])
		}
		return r, nil
	}

	if len(data) < headerLen+MICSize {
		return nil, ErrMessageTooShort
	}
	payloadEnd := len(data) - MICSize

	r.EncryptedPayload = make([]byte, payloadEnd-headerLen)
	copy(r.EncryptedPayload, data[headerLen:payloadEnd])

	r.MIC = make([]byte, MICSize)
	copy(r.MIC, data[payloadEnd:])

	return r, nil
}

// TotalSize returns r's wire size.
func (r *RawFrame) TotalSize() int {
	size := r.Header.Size() + len(r.EncryptedPayload)
	if r.Header.IsSecure() {
		size += MICSize
	}
	return size
}

// StreamWriter adds TCP length-prefix framing (spec 4.11.3) around an
// io.Writer.
type StreamWriter struct {
	w io.Writer
}

// NewStreamWriter wraps w for length-prefixed writes.
func NewStreamWriter(w io.Writer) *StreamWriter {
	return &StreamWriter{w: w}
}

// Write writes frame preceded by a 4-byte little-endian length prefix.
func (sw *StreamWriter) Write(frame []byte) (int, error) {
	prefixed := EncodeWithLengthPrefix(frame)
	n, err := sw.w.Write(prefixed)
	return n, err
}

// WriteFrame encodes and writes a raw frame with its length prefix.
func (sw *StreamWriter) WriteFrame(frame *RawFrame) error {
	_, err := sw.Write(frame.EncodeRaw())
	return err
}

// StreamReader reads TCP length-prefixed frames (spec 4.11.3) from an
// io.Reader.
type StreamReader struct {
	r io.Reader
}

// NewStreamReader wraps r for length-prefixed reads.
func NewStreamReader(r io.Reader) *StreamReader {
	return &StreamReader{r: r}
}

// Read reads one length-prefixed message and returns its payload, the
// prefix stripped.
func (sr *StreamReader) Read() ([]byte, error) {
	var lenBuf [TCPLengthPrefixSize]byte
	if _, err := io.ReadFull(sr.r, lenBuf[:]); err != nil {
		if err == io.EOF {
			return nil, err
		}
		return nil, ErrStreamReadFailed
	}

	frameLen := binary.LittleEndian.Uint32(lenBuf[:])
	switch {
	case frameLen == 0:
		return nil, ErrInvalidLengthPrefix
	case frameLen > MaxUDPMessageSize*2: // TCP allows larger than the UDP MTU
		return nil, ErrMessageTooLong
	}

	frame := make([]byte, frameLen)
	if _, err := io.ReadFull(sr.r, frame); err != nil {
		return nil, ErrStreamReadFailed
	}
	return frame, nil
}

// ReadFrame reads and parses one raw frame from the stream.
func (sr *StreamReader) ReadFrame() (*RawFrame, error) {
	data, err := sr.Read()
	if err != nil {
		return nil, err
	}
	return DecodeRaw(data)
}

// EncodeWithLengthPrefix prepends frame with its 4-byte little-endian
// length, for TCP transport.
func EncodeWithLengthPrefix(frame []byte) []byte {
	buf := make([]byte, TCPLengthPrefixSize+len(frame))
	binary.LittleEndian.PutUint32(buf[:TCPLengthPrefixSize], uint32(len(frame)))
	copy(buf[TCPLengthPrefixSize:], frame)
	return buf
}

// ValidateSize reports an error if data exceeds the UDP MTU limit.
func ValidateSize(data []byte) error {
	if len(data) > MaxUDPMessageSize {
		return ErrMessageTooLong
	}
	return nil
}
