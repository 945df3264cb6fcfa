package acl

// CASE Authenticated Tag (CAT) support.
//
// A CAT packs a 16-bit identifier and a 16-bit version into a single 32-bit
// value, then projects that value into the NodeID address space so a CASE
// peer's authenticated tags travel alongside its node ID without a separate
// field. Spec 2.5.5.5 / 6.6.2.1.2.

// CASEAuthTag is a packed [identifier:16][version:16] CAT value.
type CASEAuthTag uint32

const (
	// CATUndefined marks an empty slot in a CATValues set.
	CATUndefined CASEAuthTag = 0

	catIdentifierShift = 16
	catVersionMask      = 0x0000_FFFF
	catIdentifierMask   = 0xFFFF_0000
)

const (
	// CATIdentifierAdmin is the reserved Admin CAT identifier.
	CATIdentifierAdmin uint16 = 0xFFFF
	// CATIdentifierAnchor is the reserved Anchor CAT identifier.
	CATIdentifierAnchor uint16 = 0xFFFE
)

// NodeID range occupied by CAT-projected node identifiers.
const (
	NodeIDMinCAT  uint64 = 0xFFFF_FFFD_0000_0000
	NodeIDMaxCAT  uint64 = 0xFFFF_FFFD_FFFF_FFFF
	NodeIDCATMask uint64 = 0x0000_0000_FFFF_FFFF
)

// NewCASEAuthTag packs an identifier and version into a CASEAuthTag.
func NewCASEAuthTag(identifier, version uint16) CASEAuthTag {
	return CASEAuthTag(uint32(identifier)<<catIdentifierShift | uint32(version))
}

// GetIdentifier returns the tag's 16-bit identifier component.
func (c CASEAuthTag) GetIdentifier() uint16 {
	return uint16((uint32(c) & catIdentifierMask) >> catIdentifierShift)
}

// GetVersion returns the tag's 16-bit version component.
func (c CASEAuthTag) GetVersion() uint16 {
	return uint16(uint32(c) & catVersionMask)
}

// IsValid reports whether the tag carries a nonzero version; version 0 is
// reserved and never matches.
func (c CASEAuthTag) IsValid() bool {
	return c.GetVersion() > 0
}

// NodeID projects the tag into the CAT NodeID range.
func (c CASEAuthTag) NodeID() uint64 {
	return NodeIDMinCAT | uint64(c)
}

// IsCATNodeID reports whether nodeID falls in the CAT projection range.
func IsCATNodeID(nodeID uint64) bool {
	return nodeID >= NodeIDMinCAT && nodeID <= NodeIDMaxCAT
}

// CATFromNodeID extracts the CAT carried by a CAT-type node ID, or
// CATUndefined if nodeID isn't one.
func CATFromNodeID(nodeID uint64) CASEAuthTag {
	if !IsCATNodeID(nodeID) {
		return CATUndefined
	}
	return CASEAuthTag(nodeID & NodeIDCATMask)
}

// CATValues is the (up to three) CASE Authenticated Tags carried by one
// certificate. The slot count mirrors CHIP_CONFIG_CERT_MAX_RDN_ATTRIBUTES-2.
type CATValues [3]CASEAuthTag

// present calls fn for each non-undefined slot of c.
func (c CATValues) present(fn func(CASEAuthTag)) {
	for _, tag := range c {
		if tag != CATUndefined {
			fn(tag)
		}
	}
}

// GetNumTagsPresent counts the non-undefined slots.
func (c CATValues) GetNumTagsPresent() int {
	n := 0
	c.present(func(CASEAuthTag) { n++ })
	return n
}

// Contains reports whether tag is present verbatim in the set.
func (c CATValues) Contains(tag CASEAuthTag) bool {
	found := false
	c.present(func(t CASEAuthTag) {
		if t == tag {
			found = true
		}
	})
	return found
}

// ContainsIdentifier reports whether any present tag carries identifier.
func (c CATValues) ContainsIdentifier(identifier uint16) bool {
	found := false
	c.present(func(tag CASEAuthTag) {
		if tag.GetIdentifier() == identifier {
			found = true
		}
	})
	return found
}

// AreValid reports whether every present tag has a nonzero version and no
// two present tags share an identifier.
func (c CATValues) AreValid() bool {
	seen := make(map[uint16]bool, len(c))
	ok := true
	c.present(func(tag CASEAuthTag) {
		if !tag.IsValid() {
			ok = false
			return
		}
		id := tag.GetIdentifier()
		if seen[id] {
			ok = false
			return
		}
		seen[id] = true
	})
	return ok
}

// CheckSubjectAgainstCATs reports whether subject — a CAT-projected node ID
// presented by a CASE peer — is granted by this set, per spec 6.6.2.1.2: the
// identifiers must match and the set's version must dominate (be >= ) the
// subject's version, so access is retained as a subject's CAT version ages.
func (c CATValues) CheckSubjectAgainstCATs(subject uint64) bool {
	if !IsCATNodeID(subject) {
		return false
	}

	subjectTag := CATFromNodeID(subject)
	if subjectTag.GetVersion() == 0 {
		return false
	}

	granted := false
	c.present(func(tag CASEAuthTag) {
		if tag.GetIdentifier() == subjectTag.GetIdentifier() && tag.GetVersion() >= subjectTag.GetVersion() {
			granted = true
		}
	})
	return granted
}

// Equal reports whether c and other carry the same set of present tags,
// independent of slot order. Both sets must be internally valid.
func (c CATValues) Equal(other CATValues) bool {
	if c.GetNumTagsPresent() != other.GetNumTagsPresent() {
		return false
	}
	if !c.AreValid() || !other.AreValid() {
		return false
	}

	matched := true
	c.present(func(tag CASEAuthTag) {
		if !other.Contains(tag) {
			matched = false
		}
	})
	return matched
}
