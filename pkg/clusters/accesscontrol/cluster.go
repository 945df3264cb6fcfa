// Package accesscontrol implements the Access Control cluster (0x001F).
//
// The cluster exposes the live ACL table as a list attribute and lets an
// already-authorized administrator grow it by writing new entries. It is a
// thin wrapper over acl.Manager: reads list whatever the manager currently
// holds for the accessing fabric, and writes call straight through to
// acl.Manager.CreateEntry, so the table a subsequent request in the same
// batch sees already reflects the write.
//
// Spec Reference: Section 9.10 "Access Control Cluster"
package accesscontrol

import (
	"bytes"
	"context"

	"github.com/clasped-home/matter-core/pkg/acl"
	"github.com/clasped-home/matter-core/pkg/datamodel"
	"github.com/clasped-home/matter-core/pkg/fabric"
	"github.com/clasped-home/matter-core/pkg/tlv"
)

// Cluster constants.
const (
	ClusterID       datamodel.ClusterID = 0x001F
	ClusterRevision uint16              = 1
)

// Attribute IDs.
const (
	// AttrACL is the list of AccessControlEntryStruct for the node.
	AttrACL datamodel.AttributeID = 0x0000
)

// TLV field tags within AccessControlEntryStruct.
// Spec: Section 9.10.5.6
const (
	fieldPrivilege = 1
	fieldAuthMode  = 2
	fieldSubjects  = 3
	fieldTargets   = 4
	fieldFabricIdx = 254
)

// TLV field tags within AccessControlTargetStruct.
// Spec: Section 9.10.5.5
const (
	fieldTargetCluster    = 0
	fieldTargetEndpoint   = 1
	fieldTargetDeviceType = 2
)

// Cluster implements the Access Control cluster.
type Cluster struct {
	*datamodel.ClusterBase
	manager *acl.Manager
}

// New creates a new Access Control cluster backed by manager.
func New(endpointID datamodel.EndpointID, manager *acl.Manager) *Cluster {
	return &Cluster{
		ClusterBase: datamodel.NewClusterBase(ClusterID, endpointID, ClusterRevision),
		manager:     manager,
	}
}

// AttributeList implements datamodel.Cluster.
func (c *Cluster) AttributeList() []datamodel.AttributeEntry {
	return []datamodel.AttributeEntry{
		datamodel.NewReadWriteAttribute(AttrACL, 0, datamodel.PrivilegeAdminister, datamodel.PrivilegeAdminister),
	}
}

// AcceptedCommandList implements datamodel.Cluster.
func (c *Cluster) AcceptedCommandList() []datamodel.CommandEntry {
	return nil
}

// GeneratedCommandList implements datamodel.Cluster.
func (c *Cluster) GeneratedCommandList() []datamodel.CommandID {
	return nil
}

// ReadAttribute implements datamodel.Cluster.
func (c *Cluster) ReadAttribute(ctx context.Context, req datamodel.ReadAttributeRequest, w *tlv.Writer) error {
	handled, err := c.ReadGlobalAttribute(ctx, req.Path.Attribute, w, c.AttributeList(), nil, nil)
	if handled || err != nil {
		return err
	}

	switch req.Path.Attribute {
	case AttrACL:
		return c.readACL(req, w)
	default:
		return datamodel.ErrUnsupportedAttribute
	}
}

func (c *Cluster) readACL(req datamodel.ReadAttributeRequest, w *tlv.Writer) error {
	fi := fabric.FabricIndex(req.FabricIndex())

	entries, err := c.manager.GetEntries(fi)
	if err != nil {
		return err
	}

	if err := w.StartArray(tlv.Anonymous()); err != nil {
		return err
	}
	for _, e := range entries {
		if err := encodeEntry(w, e); err != nil {
			return err
		}
	}
	return w.EndContainer()
}

// WriteAttribute implements datamodel.Cluster.
//
// A write replaces the caller's accessing fabric index on the decoded entry
// before storing it - per spec, a client writing to the Acl attribute may
// not assert another fabric's index.
func (c *Cluster) WriteAttribute(ctx context.Context, req datamodel.WriteAttributeRequest, r *tlv.Reader) error {
	switch req.Path.Attribute {
	case AttrACL:
		entry, err := decodeEntry(r)
		if err != nil {
			return err
		}

		fi := fabric.FabricIndex(req.FabricIndex())
		if _, err := c.manager.CreateEntry(fi, entry); err != nil {
			return toDataModelError(err)
		}
		c.IncrementDataVersion()
		return nil
	default:
		return datamodel.ErrUnsupportedWrite
	}
}

// InvokeCommand implements datamodel.Cluster.
func (c *Cluster) InvokeCommand(ctx context.Context, req datamodel.InvokeRequest, r *tlv.Reader) ([]byte, error) {
	return nil, datamodel.ErrUnsupportedCommand
}

// RequiredReadPrivilege implements datamodel.PrivilegeRequirements.
func (c *Cluster) RequiredReadPrivilege(attr datamodel.AttributeID) acl.Privilege {
	return acl.PrivilegeAdminister
}

// RequiredWritePrivilege implements datamodel.PrivilegeRequirements.
func (c *Cluster) RequiredWritePrivilege(attr datamodel.AttributeID) acl.Privilege {
	return acl.PrivilegeAdminister
}

// RequiredInvokePrivilege implements datamodel.PrivilegeRequirements.
func (c *Cluster) RequiredInvokePrivilege(cmd datamodel.CommandID) acl.Privilege {
	return acl.PrivilegeAdminister
}

// EncodeEntry encodes a single AccessControlEntryStruct, as written to the
// Acl attribute.
func EncodeEntry(e acl.Entry) ([]byte, error) {
	var buf bytes.Buffer
	w := tlv.NewWriter(&buf)
	if err := encodeEntry(w, e); err != nil {
		return nil, err
	}
	return buf.Bytes(), nil
}

func encodeEntry(w *tlv.Writer, e acl.Entry) error {
	if err := w.StartStructure(tlv.Anonymous()); err != nil {
		return err
	}
	if err := w.PutUint(tlv.ContextTag(fieldPrivilege), uint64(e.Privilege)); err != nil {
		return err
	}
	if err := w.PutUint(tlv.ContextTag(fieldAuthMode), uint64(e.AuthMode)); err != nil {
		return err
	}
	if err := w.StartArray(tlv.ContextTag(fieldSubjects)); err != nil {
		return err
	}
	for _, s := range e.Subjects {
		if err := w.PutUint(tlv.Anonymous(), s); err != nil {
			return err
		}
	}
	if err := w.EndContainer(); err != nil {
		return err
	}
	if err := w.StartArray(tlv.ContextTag(fieldTargets)); err != nil {
		return err
	}
	for _, t := range e.Targets {
		if err := encodeTarget(w, t); err != nil {
			return err
		}
	}
	if err := w.EndContainer(); err != nil {
		return err
	}
	if err := w.PutUint(tlv.ContextTag(fieldFabricIdx), uint64(e.FabricIndex)); err != nil {
		return err
	}
	return w.EndContainer()
}

func encodeTarget(w *tlv.Writer, t acl.Target) error {
	if err := w.StartStructure(tlv.Anonymous()); err != nil {
		return err
	}
	if t.Cluster != nil {
		if err := w.PutUint(tlv.ContextTag(fieldTargetCluster), uint64(*t.Cluster)); err != nil {
			return err
		}
	}
	if t.Endpoint != nil {
		if err := w.PutUint(tlv.ContextTag(fieldTargetEndpoint), uint64(*t.Endpoint)); err != nil {
			return err
		}
	}
	if t.DeviceType != nil {
		if err := w.PutUint(tlv.ContextTag(fieldTargetDeviceType), uint64(*t.DeviceType)); err != nil {
			return err
		}
	}
	return w.EndContainer()
}

// decodeEntry decodes a single AccessControlEntryStruct. FabricIndex, if
// present on the wire, is ignored - the caller supplies the accessing
// fabric explicitly.
func decodeEntry(r *tlv.Reader) (acl.Entry, error) {
	var e acl.Entry

	if err := r.Next(); err != nil {
		return e, err
	}
	if r.Type() != tlv.ElementTypeStruct {
		return e, datamodel.ErrConstraintError
	}
	if err := r.EnterContainer(); err != nil {
		return e, err
	}

	for {
		if err := r.Next(); err != nil {
			return e, err
		}
		if r.Type() == tlv.ElementTypeEnd {
			break
		}
		tag := r.Tag()
		if !tag.IsContext() {
			continue
		}

		switch tag.TagNumber() {
		case fieldPrivilege:
			v, err := r.Uint()
			if err != nil {
				return e, err
			}
			e.Privilege = acl.Privilege(v)
		case fieldAuthMode:
			v, err := r.Uint()
			if err != nil {
				return e, err
			}
			e.AuthMode = acl.AuthMode(v)
		case fieldSubjects:
			subjects, err := decodeSubjects(r)
			if err != nil {
				return e, err
			}
			e.Subjects = subjects
		case fieldTargets:
			targets, err := decodeTargets(r)
			if err != nil {
				return e, err
			}
			e.Targets = targets
		default:
			// fieldFabricIdx and any unknown field: skip, client-asserted
			// fabric index is never trusted.
		}
	}

	if err := r.ExitContainer(); err != nil {
		return e, err
	}
	return e, nil
}

func decodeSubjects(r *tlv.Reader) ([]uint64, error) {
	if r.Type() != tlv.ElementTypeArray {
		return nil, datamodel.ErrConstraintError
	}
	if err := r.EnterContainer(); err != nil {
		return nil, err
	}

	var subjects []uint64
	for {
		if err := r.Next(); err != nil {
			return nil, err
		}
		if r.Type() == tlv.ElementTypeEnd {
			break
		}
		v, err := r.Uint()
		if err != nil {
			return nil, err
		}
		subjects = append(subjects, v)
	}

	if err := r.ExitContainer(); err != nil {
		return nil, err
	}
	return subjects, nil
}

func decodeTargets(r *tlv.Reader) ([]acl.Target, error) {
	if r.Type() != tlv.ElementTypeArray {
		return nil, datamodel.ErrConstraintError
	}
	if err := r.EnterContainer(); err != nil {
		return nil, err
	}

	var targets []acl.Target
	for {
		if err := r.Next(); err != nil {
			return nil, err
		}
		if r.Type() == tlv.ElementTypeEnd {
			break
		}
		t, err := decodeTarget(r)
		if err != nil {
			return nil, err
		}
		targets = append(targets, t)
	}

	if err := r.ExitContainer(); err != nil {
		return nil, err
	}
	return targets, nil
}

func decodeTarget(r *tlv.Reader) (acl.Target, error) {
	var t acl.Target
	if r.Type() != tlv.ElementTypeStruct {
		return t, datamodel.ErrConstraintError
	}
	if err := r.EnterContainer(); err != nil {
		return t, err
	}

	for {
		if err := r.Next(); err != nil {
			return t, err
		}
		if r.Type() == tlv.ElementTypeEnd {
			break
		}
		tag := r.Tag()
		if !tag.IsContext() {
			continue
		}

		switch tag.TagNumber() {
		case fieldTargetCluster:
			v, err := r.Uint()
			if err != nil {
				return t, err
			}
			cluster := uint32(v)
			t.Cluster = &cluster
		case fieldTargetEndpoint:
			v, err := r.Uint()
			if err != nil {
				return t, err
			}
			endpoint := uint16(v)
			t.Endpoint = &endpoint
		case fieldTargetDeviceType:
			v, err := r.Uint()
			if err != nil {
				return t, err
			}
			deviceType := uint32(v)
			t.DeviceType = &deviceType
		}
	}

	if err := r.ExitContainer(); err != nil {
		return t, err
	}
	return t, nil
}

func toDataModelError(err error) error {
	switch err {
	case acl.ErrTooManyEntries, acl.ErrTooManySubjects, acl.ErrTooManyTargets:
		return datamodel.ErrResourceExhausted
	default:
		return datamodel.ErrConstraintError
	}
}

// Verify Cluster implements the interfaces.
var (
	_ datamodel.Cluster               = (*Cluster)(nil)
	_ datamodel.PrivilegeRequirements = (*Cluster)(nil)
)
