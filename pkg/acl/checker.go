package acl

import "sync"

// DeviceTypeResolver resolves whether a device type is present on an endpoint.
// Kept as a narrow interface so the ACL checker never has to import the data
// model package just to answer one yes/no question.
type DeviceTypeResolver interface {
	// IsDeviceTypeOnEndpoint returns true if the endpoint supports the device type.
	IsDeviceTypeOnEndpoint(deviceType uint32, endpoint uint16) bool
}

// NullDeviceTypeResolver rejects every device-type target. Nodes that don't
// model device types on their endpoints can wire this in as a no-op.
type NullDeviceTypeResolver struct{}

// IsDeviceTypeOnEndpoint always returns false.
func (NullDeviceTypeResolver) IsDeviceTypeOnEndpoint(uint32, uint16) bool {
	return false
}

// Checker evaluates access requests against a fabric-scoped list of ACL
// entries, per the Matter access control privilege-granting algorithm.
type Checker struct {
	mu       sync.RWMutex
	entries  []Entry
	resolver DeviceTypeResolver
}

// NewChecker builds a Checker backed by resolver. A nil resolver falls back
// to NullDeviceTypeResolver, so device-type targets simply never match.
func NewChecker(resolver DeviceTypeResolver) *Checker {
	if resolver == nil {
		resolver = NullDeviceTypeResolver{}
	}
	return &Checker{resolver: resolver}
}

// SetEntries replaces the entire entry list with a defensive copy of entries.
func (c *Checker) SetEntries(entries []Entry) {
	snapshot := make([]Entry, len(entries))
	copy(snapshot, entries)

	c.mu.Lock()
	c.entries = snapshot
	c.mu.Unlock()
}

// GetEntries returns a defensive copy of the current entry list.
func (c *Checker) GetEntries() []Entry {
	c.mu.RLock()
	defer c.mu.RUnlock()

	out := make([]Entry, len(c.entries))
	copy(out, c.entries)
	return out
}

// AddEntry validates and appends a single entry.
func (c *Checker) AddEntry(entry Entry) error {
	if err := ValidateEntry(&entry); err != nil {
		return err
	}

	c.mu.Lock()
	c.entries = append(c.entries, entry)
	c.mu.Unlock()
	return nil
}

// Check decides whether subject may exercise required against target.
//
// A PASE session still mid-commissioning is granted Administer unconditionally
// (the fabric has no owner yet to have written entries for it). Otherwise the
// entry list is scanned in order and the first entry that grants access wins;
// reaching the end of the list with no grant denies the request. Because
// matching is purely additive — more entries can only add matches, never
// remove them — this also gives Check its monotonicity property: granting
// access never becomes granting-then-revoking as entries accumulate.
func (c *Checker) Check(subject SubjectDescriptor, target RequestPath, required Privilege) Result {
	if subject.AuthMode == AuthModePASE && subject.IsCommissioning {
		return ResultAllowed
	}

	c.mu.RLock()
	defer c.mu.RUnlock()

	for i := range c.entries {
		if c.entryGrants(&c.entries[i], subject, target, required) {
			return ResultAllowed
		}
	}
	return ResultDenied
}

// entryGrants reports whether a single entry authorizes the request. All
// five conditions must hold: the fields are cheapest-first so a mismatching
// fabric or auth mode short-circuits before the subject/target scans run.
func (c *Checker) entryGrants(entry *Entry, subject SubjectDescriptor, target RequestPath, required Privilege) bool {
	if entry.FabricIndex == 0 || entry.FabricIndex != subject.FabricIndex {
		return false
	}
	if entry.AuthMode != subject.AuthMode {
		return false
	}
	if !entry.Privilege.Grants(required) {
		return false
	}
	if !subjectAllowed(entry.Subjects, entry.AuthMode, subject) {
		return false
	}
	return c.targetAllowed(entry.Targets, target)
}

// subjectAllowed reports whether subject is covered by an entry's subject
// list. An empty list is a wildcard, but only CASE and Group entries are
// allowed to carry one — that precondition is enforced at write time by
// ValidateEntry, not re-checked here.
func subjectAllowed(subjects []uint64, entryAuthMode AuthMode, subject SubjectDescriptor) bool {
	if len(subjects) == 0 {
		return entryAuthMode == AuthModeCASE || entryAuthMode == AuthModeGroup
	}

	for _, candidate := range subjects {
		if subjectMatchesCandidate(candidate, subject) {
			return true
		}
	}
	return false
}

// subjectMatchesCandidate tests one entry subject against the request's
// subject descriptor: an exact NodeID/GroupID match, or — for CASE sessions
// presenting a CASE Authenticated Tag — a dominant-version CAT match.
func subjectMatchesCandidate(candidate uint64, subject SubjectDescriptor) bool {
	if candidate == subject.Subject {
		return true
	}
	if subject.AuthMode != AuthModeCASE || !IsCATNodeID(candidate) {
		return false
	}
	return subject.CATs.CheckSubjectAgainstCATs(candidate)
}

// targetAllowed reports whether path is covered by an entry's target list.
// An empty list means the entry applies everywhere.
func (c *Checker) targetAllowed(targets []Target, path RequestPath) bool {
	if len(targets) == 0 {
		return true
	}

	for i := range targets {
		if c.targetMatchesPath(&targets[i], path) {
			return true
		}
	}
	return false
}

// targetMatchesPath applies a single target's optional cluster, endpoint,
// and device-type filters; every filter present on the target must hold.
func (c *Checker) targetMatchesPath(target *Target, path RequestPath) bool {
	if target.Cluster != nil && *target.Cluster != path.Cluster {
		return false
	}
	if target.Endpoint != nil && *target.Endpoint != path.Endpoint {
		return false
	}
	if target.DeviceType != nil && !c.resolver.IsDeviceTypeOnEndpoint(*target.DeviceType, path.Endpoint) {
		return false
	}
	return true
}
