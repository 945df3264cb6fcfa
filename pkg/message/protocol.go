package message

import (
	"encoding/binary"
)

// ProtocolHeader is the Matter protocol header (spec 4.4.3), the first part
// of the message payload — encrypted along with the application payload
// for secure sessions.
type ProtocolHeader struct {
	// ProtocolID identifies the protocol that defines the opcode.
	ProtocolID ProtocolID

	// ProtocolOpcode identifies the message type within the protocol.
	ProtocolOpcode uint8

	// ExchangeID identifies the exchange (conversation) this message
	// belongs to.
	ExchangeID uint16

	// ProtocolVendorID namespaces ProtocolID. Only present when
	// VendorPresent is set; defaults to VendorIDMatter otherwise.
	ProtocolVendorID uint16

	// AckedMessageCounter is the counter of a previously received message
	// being acknowledged. Only valid when Acknowledgement is set.
	AckedMessageCounter uint32

	Initiator         bool // I flag
	Acknowledgement   bool // A flag
	Reliability       bool // R flag
	SecuredExtensions bool // SX flag — must be false for v1.0 nodes
	VendorPresent     bool // V flag
}

// optionalFieldSize returns the size contributed by p's optional fields:
// Protocol Vendor ID when present, Acked Message Counter when present.
func (p *ProtocolHeader) optionalFieldSize() int {
	size := 0
	if p.VendorPresent {
		size += 2
	}
	if p.Acknowledgement {
		size += 4
	}
	return size
}

// Size returns p's encoded length.
func (p *ProtocolHeader) Size() int {
	return MinProtocolHeaderSize + p.optionalFieldSize()
}

// Encode serializes p to a freshly allocated buffer.
func (p *ProtocolHeader) Encode() []byte {
	buf := make([]byte, p.Size())
	p.EncodeTo(buf)
	return buf
}

// EncodeTo serializes p into buf, which must be at least Size() bytes, and
// returns the number of bytes written.
func (p *ProtocolHeader) EncodeTo(buf []byte) int {
	buf[0] = p.exchangeFlags()
	buf[1] = p.ProtocolOpcode
	binary.LittleEndian.PutUint16(buf[2:], p.ExchangeID)

	offset := 4
	if p.VendorPresent {
		binary.LittleEndian.PutUint16(buf[offset:], p.ProtocolVendorID)
		offset += 2
	}
	binary.LittleEndian.PutUint16(buf[offset:], uint16(p.ProtocolID))
	offset += 2
	if p.Acknowledgement {
		binary.LittleEndian.PutUint32(buf[offset:], p.AckedMessageCounter)
		offset += 4
	}

	return offset
}

// exchangeFlags packs the Exchange Flags byte from p's boolean fields.
func (p *ProtocolHeader) exchangeFlags() uint8 {
	var flags uint8
	for flag, set := range map[uint8]bool{
		exchFlagInitiator:         p.Initiator,
		exchFlagAcknowledgement:   p.Acknowledgement,
		exchFlagReliability:       p.Reliability,
		exchFlagSecuredExtensions: p.SecuredExtensions,
		exchFlagVendor:            p.VendorPresent,
	} {
		if set {
			flags |= flag
		}
	}
	return flags
}

// Decode parses a protocol header from the front of data, returning the
// number of bytes consumed.
func (p *ProtocolHeader) Decode(data []byte) (int, error) {
	if len(data) < MinProtocolHeaderSize {
		return 0, ErrPayloadTooShort
	}

	exchFlags := data[0]
	p.Initiator = exchFlags&exchFlagInitiator != 0
	p.Acknowledgement = exchFlags&exchFlagAcknowledgement != 0
	p.Reliability = exchFlags&exchFlagReliability != 0
	p.SecuredExtensions = exchFlags&exchFlagSecuredExtensions != 0
	p.VendorPresent = exchFlags&exchFlagVendor != 0

	p.ProtocolOpcode = data[1]
	p.ExchangeID = binary.LittleEndian.Uint16(data[2:])

	if len(data) < MinProtocolHeaderSize+p.optionalFieldSize() {
		return 0, ErrPayloadTooShort
	}

	offset := 4
	if p.VendorPresent {
		p.ProtocolVendorID = binary.LittleEndian.Uint16(data[offset:])
		offset += 2
	} else {
		p.ProtocolVendorID = VendorIDMatter
	}

	p.ProtocolID = ProtocolID(binary.LittleEndian.Uint16(data[offset:]))
	offset += 2

	if p.Acknowledgement {
		p.AckedMessageCounter = binary.LittleEndian.Uint32(data[offset:])
		offset += 4
	} else {
		p.AckedMessageCounter = 0
	}

	return offset, nil
}

// IsSecureChannel reports whether p addresses the Secure Channel Protocol.
func (p *ProtocolHeader) IsSecureChannel() bool {
	return p.ProtocolVendorID == VendorIDMatter && p.ProtocolID == ProtocolSecureChannel
}

// IsInteractionModel reports whether p addresses the Interaction Model
// Protocol.
func (p *ProtocolHeader) IsInteractionModel() bool {
	return p.ProtocolVendorID == VendorIDMatter && p.ProtocolID == ProtocolInteractionModel
}

// NeedsAck reports whether p requires an acknowledgement.
func (p *ProtocolHeader) NeedsAck() bool {
	return p.Reliability
}

// IsAck reports whether p itself is an acknowledgement.
func (p *ProtocolHeader) IsAck() bool {
	return p.Acknowledgement
}
