package message

import "encoding/binary"

// MessageHeader is the Matter message header (spec 4.4.1). Multi-byte fields
// are little-endian on the wire.
type MessageHeader struct {
	// SessionID selects the encryption context. SessionID 0 with
	// SessionTypeUnicast means an unsecured (handshake) message.
	SessionID uint16

	// MessageCounter is unique per message, used for replay detection and
	// folded into the encryption nonce.
	MessageCounter uint32

	SessionType SessionType

	// SourceNodeID is present only when SourcePresent is set; required for
	// group messages, optional for unicast.
	SourceNodeID uint64

	DestinationType    DestinationType
	DestinationNodeID  uint64 // valid iff DestinationType == DestinationNodeID
	DestinationGroupID uint16 // valid iff DestinationType == DestinationGroupID

	SourcePresent bool // S flag
	Privacy       bool // P flag
	Control       bool // C flag
	Extensions    bool // MX flag — must be false for v1.0 nodes
}

// destinationSize returns the wire size of whichever destination field (if
// any) DestinationType selects.
func (h *MessageHeader) destinationSize() int {
	return h.DestinationType.Size()
}

// Size returns h's encoded length: the fixed fields plus whichever optional
// source/destination fields are present.
func (h *MessageHeader) Size() int {
	size := MinHeaderSize
	if h.SourcePresent {
		size += NodeIDSize
	}
	return size + h.destinationSize()
}

// Encode serializes h to a freshly allocated buffer, usable directly as AEAD
// associated data.
func (h *MessageHeader) Encode() []byte {
	buf := make([]byte, h.Size())
	h.EncodeTo(buf)
	return buf
}

// EncodeTo serializes h into buf, which must be at least Size() bytes long,
// and returns the number of bytes written.
func (h *MessageHeader) EncodeTo(buf []byte) int {
	buf[0] = h.messageFlags()
	binary.LittleEndian.PutUint16(buf[1:], h.SessionID)
	buf[3] = h.securityFlags()
	binary.LittleEndian.PutUint32(buf[4:], h.MessageCounter)

	offset := MinHeaderSize
	if h.SourcePresent {
		binary.LittleEndian.PutUint64(buf[offset:], h.SourceNodeID)
		offset += NodeIDSize
	}

	switch h.DestinationType {
	case DestinationNodeID:
		binary.LittleEndian.PutUint64(buf[offset:], h.DestinationNodeID)
		offset += NodeIDSize
	case DestinationGroupID:
		binary.LittleEndian.PutUint16(buf[offset:], h.DestinationGroupID)
		offset += GroupIDSize
	}

	return offset
}

// messageFlags packs the Message Flags byte: version in the high nibble, the
// S flag, and the DSIZ destination-type field.
func (h *MessageHeader) messageFlags() uint8 {
	flags := MessageVersion << flagVersionShift
	if h.SourcePresent {
		flags |= flagSourcePresent
	}
	flags |= uint8(h.DestinationType) & flagDSIZMask
	return flags
}

// securityFlags packs the Security Flags byte: session type plus the
// MX/C/P flags.
func (h *MessageHeader) securityFlags() uint8 {
	flags := uint8(h.SessionType) & secFlagSessionTypeMask
	if h.Extensions {
		flags |= secFlagExtensions
	}
	if h.Control {
		flags |= secFlagControl
	}
	if h.Privacy {
		flags |= secFlagPrivacy
	}
	return flags
}

// Decode parses a message header from the front of data, returning the
// number of bytes consumed.
func (h *MessageHeader) Decode(data []byte) (int, error) {
	if len(data) < MinHeaderSize {
		return 0, ErrMessageTooShort
	}

	if err := h.decodeFixedFields(data); err != nil {
		return 0, err
	}

	requiredLen := MinHeaderSize
	if h.SourcePresent {
		requiredLen += NodeIDSize
	}
	requiredLen += h.destinationSize()
	if len(data) < requiredLen {
		return 0, ErrMessageTooShort
	}

	return h.decodeVariableFields(data, MinHeaderSize), nil
}

// decodeFixedFields parses the MinHeaderSize-byte fixed portion: the two
// flag bytes, session ID, and message counter.
func (h *MessageHeader) decodeFixedFields(data []byte) error {
	msgFlags := data[0]
	version := (msgFlags >> flagVersionShift) & flagVersionMask
	if version != MessageVersion {
		return ErrInvalidVersion
	}
	h.SourcePresent = msgFlags&flagSourcePresent != 0
	h.DestinationType = DestinationType(msgFlags & flagDSIZMask)
	if !h.DestinationType.IsValid() {
		return ErrInvalidDSIZ
	}

	h.SessionID = binary.LittleEndian.Uint16(data[1:])

	secFlags := data[3]
	h.SessionType = SessionType(secFlags & secFlagSessionTypeMask)
	if !h.SessionType.IsValid() {
		return ErrInvalidSessionType
	}
	h.Extensions = secFlags&secFlagExtensions != 0
	h.Control = secFlags&secFlagControl != 0
	h.Privacy = secFlags&secFlagPrivacy != 0

	h.MessageCounter = binary.LittleEndian.Uint32(data[4:])
	return nil
}

// decodeVariableFields parses the optional source/destination fields
// starting at offset, assuming the caller already verified data is long
// enough, and returns the new offset.
func (h *MessageHeader) decodeVariableFields(data []byte, offset int) int {
	if h.SourcePresent {
		h.SourceNodeID = binary.LittleEndian.Uint64(data[offset:])
		offset += NodeIDSize
	} else {
		h.SourceNodeID = 0
	}

	switch h.DestinationType {
	case DestinationNodeID:
		h.DestinationNodeID = binary.LittleEndian.Uint64(data[offset:])
		h.DestinationGroupID = 0
		offset += NodeIDSize
	case DestinationGroupID:
		h.DestinationGroupID = binary.LittleEndian.Uint16(data[offset:])
		h.DestinationNodeID = 0
		offset += GroupIDSize
	default:
		h.DestinationNodeID = 0
		h.DestinationGroupID = 0
	}

	return offset
}

// IsSecure reports whether h belongs to an encrypted session — i.e. it is
// not the SessionType-Unicast/SessionID-0 combination reserved for
// unsecured handshake traffic.
func (h *MessageHeader) IsSecure() bool {
	return !(h.SessionType == SessionTypeUnicast && h.SessionID == 0)
}

// Validate checks h against the structural constraints spec 4.7.2.1 places
// on session type vs. source/destination presence.
func (h *MessageHeader) Validate() error {
	if h.SessionType == SessionTypeGroup && !h.SourcePresent {
		return ErrMissingSourceNodeID
	}
	if h.SessionType == SessionTypeGroup && h.DestinationType == DestinationNone {
		return ErrInvalidDSIZ
	}
	if h.SessionType == SessionTypeUnicast && h.DestinationType == DestinationGroupID {
		return ErrInvalidDSIZ
	}
	return nil
}

// PrivacyObfuscatedSize returns the length of the privacy-obfuscated region:
// message counter plus whichever optional source/destination fields are
// present.
func (h *MessageHeader) PrivacyObfuscatedSize() int {
	size := 4
	if h.SourcePresent {
		size += NodeIDSize
	}
	return size + h.destinationSize()
}

// PrivacyHeaderOffset returns the byte offset where privacy obfuscation
// begins: after the message-flags, session-ID, and security-flags fields.
func (h *MessageHeader) PrivacyHeaderOffset() int {
	return 4
}
