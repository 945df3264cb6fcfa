// Package message implements Matter message framing, encoding, and
// security: header and protocol-header encode/decode, AES-CCM message
// encryption, AES-CTR privacy obfuscation, message counters and replay
// detection, and TCP stream framing. Spec chapter 4.
package message

// SessionType is the session kind carried in a message's Security Flags
// field (spec 4.4.1.3).
type SessionType uint8

const (
	// SessionTypeUnicast is a PASE/CASE unicast session; paired with
	// SessionID 0 it marks an unsecured handshake message.
	SessionTypeUnicast SessionType = 0
	// SessionTypeGroup is a group-key session.
	SessionTypeGroup SessionType = 1
)

var sessionTypeNames = map[SessionType]string{
	SessionTypeUnicast: "Unicast",
	SessionTypeGroup:   "Group",
}

func (s SessionType) String() string {
	if name, ok := sessionTypeNames[s]; ok {
		return name
	}
	return "Unknown"
}

// IsValid reports whether s is a defined session type.
func (s SessionType) IsValid() bool {
	return s <= SessionTypeGroup
}

// DestinationType is the Destination Node ID field's format, carried in the
// Message Flags DSIZ bits (spec 4.4.1.1).
type DestinationType uint8

const (
	// DestinationNone means no destination field is present.
	DestinationNone DestinationType = 0
	// DestinationNodeID means a 64-bit Node ID follows.
	DestinationNodeID DestinationType = 1
	// DestinationGroupID means a 16-bit Group ID follows.
	DestinationGroupID DestinationType = 2
)

var destinationTypeNames = map[DestinationType]string{
	DestinationNone:    "None",
	DestinationNodeID:  "NodeID",
	DestinationGroupID: "GroupID",
}

func (d DestinationType) String() string {
	if name, ok := destinationTypeNames[d]; ok {
		return name
	}
	return "Unknown"
}

// IsValid reports whether d is a defined destination type.
func (d DestinationType) IsValid() bool {
	return d <= DestinationGroupID
}

var destinationTypeSizes = map[DestinationType]int{
	DestinationNodeID:  8,
	DestinationGroupID: 2,
}

// Size returns the wire size in bytes of the destination field d selects.
func (d DestinationType) Size() int {
	return destinationTypeSizes[d]
}

// ProtocolID identifies the protocol that defines a message's opcode (spec
// 4.4.3.4).
type ProtocolID uint16

const (
	// ProtocolSecureChannel carries PASE, CASE, and MRP control messages.
	ProtocolSecureChannel ProtocolID = 0x0000
	// ProtocolInteractionModel carries Interaction Model traffic.
	ProtocolInteractionModel ProtocolID = 0x0001
	// ProtocolBDX carries Bulk Data Exchange traffic.
	ProtocolBDX ProtocolID = 0x0002
	// ProtocolUserDirectedCommissioning carries UDC traffic.
	ProtocolUserDirectedCommissioning ProtocolID = 0x0003
	// ProtocolForTesting is reserved for isolated test environments.
	ProtocolForTesting ProtocolID = 0x0004
)

var protocolIDNames = map[ProtocolID]string{
	ProtocolSecureChannel:             "SecureChannel",
	ProtocolInteractionModel:          "InteractionModel",
	ProtocolBDX:                       "BDX",
	ProtocolUserDirectedCommissioning: "UDC",
	ProtocolForTesting:                "Testing",
}

func (p ProtocolID) String() string {
	if name, ok := protocolIDNames[p]; ok {
		return name
	}
	return "Unknown"
}

// VendorIDMatter is the standard Matter vendor ID.
const VendorIDMatter uint16 = 0x0000
