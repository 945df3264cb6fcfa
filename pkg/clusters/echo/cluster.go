// Package echo implements a manufacturer-specific Echo test cluster.
//
// The cluster exists purely to exercise wildcard expansion, ACL
// enforcement and data-version filtering end to end: it holds one
// writable attribute and one command that echoes its input multiplied
// by a per-endpoint factor.
//
// C++ Reference: src/app/tests/suites/certification/echo_cluster (conceptual analogue)
package echo

import (
	"bytes"
	"context"
	"sync"

	"github.com/clasped-home/matter-core/pkg/acl"
	"github.com/clasped-home/matter-core/pkg/datamodel"
	"github.com/clasped-home/matter-core/pkg/tlv"
)

// Cluster constants.
const (
	ClusterID       datamodel.ClusterID = 0xFFF1FC05
	ClusterRevision uint16              = 1
)

// Attribute IDs.
const (
	// AttrAttWrite is a read/write uint32 attribute. Writing it requires
	// Manage privilege, unlike the cluster-default Operate.
	AttrAttWrite datamodel.AttributeID = 0x0001
)

// Command IDs.
const (
	// CmdEchoReq is the client-to-server request, carrying a uint32 Data field.
	CmdEchoReq datamodel.CommandID = 0x00

	// CmdEchoResp is the generated response, carrying Data * the endpoint's
	// configured multiplier.
	CmdEchoResp datamodel.CommandID = 0x01
)

// Config provides dependencies for the Echo cluster.
type Config struct {
	// EndpointID is the endpoint this cluster belongs to.
	EndpointID datamodel.EndpointID

	// Multiplier scales the Data field of EchoReq to produce EchoResp.
	Multiplier uint32
}

// Cluster implements the Echo cluster.
type Cluster struct {
	*datamodel.ClusterBase
	config Config

	mu       sync.RWMutex
	attWrite uint32

	attrList []datamodel.AttributeEntry
}

// New creates a new Echo cluster.
func New(cfg Config) *Cluster {
	c := &Cluster{
		ClusterBase: datamodel.NewClusterBase(ClusterID, cfg.EndpointID, ClusterRevision),
		config:      cfg,
	}
	c.attrList = datamodel.MergeAttributeLists([]datamodel.AttributeEntry{
		datamodel.NewReadWriteAttribute(AttrAttWrite, 0, datamodel.PrivilegeView, datamodel.PrivilegeManage),
	})
	return c
}

// GetAttWrite returns the current value of the AttWrite attribute.
func (c *Cluster) GetAttWrite() uint32 {
	c.mu.RLock()
	defer c.mu.RUnlock()
	return c.attWrite
}

// AttributeList implements datamodel.Cluster.
func (c *Cluster) AttributeList() []datamodel.AttributeEntry {
	return c.attrList
}

// AcceptedCommandList implements datamodel.Cluster.
func (c *Cluster) AcceptedCommandList() []datamodel.CommandEntry {
	return []datamodel.CommandEntry{
		datamodel.NewCommandEntry(CmdEchoReq, 0, datamodel.PrivilegeOperate),
	}
}

// GeneratedCommandList implements datamodel.Cluster.
func (c *Cluster) GeneratedCommandList() []datamodel.CommandID {
	return []datamodel.CommandID{CmdEchoResp}
}

// ReadAttribute implements datamodel.Cluster.
func (c *Cluster) ReadAttribute(ctx context.Context, req datamodel.ReadAttributeRequest, w *tlv.Writer) error {
	handled, err := c.ReadGlobalAttribute(ctx, req.Path.Attribute, w, c.attrList, c.AcceptedCommandList(), c.GeneratedCommandList())
	if handled || err != nil {
		return err
	}

	c.mu.RLock()
	defer c.mu.RUnlock()

	switch req.Path.Attribute {
	case AttrAttWrite:
		return w.PutUint(tlv.Anonymous(), uint64(c.attWrite))
	default:
		return datamodel.ErrUnsupportedAttribute
	}
}

// WriteAttribute implements datamodel.Cluster.
func (c *Cluster) WriteAttribute(ctx context.Context, req datamodel.WriteAttributeRequest, r *tlv.Reader) error {
	switch req.Path.Attribute {
	case AttrAttWrite:
		if err := r.Next(); err != nil {
			return err
		}
		val, err := r.Uint()
		if err != nil {
			return err
		}
		c.mu.Lock()
		c.attWrite = uint32(val)
		c.mu.Unlock()
		c.IncrementDataVersion()
		return nil
	default:
		return datamodel.ErrUnsupportedWrite
	}
}

// InvokeCommand implements datamodel.Cluster.
func (c *Cluster) InvokeCommand(ctx context.Context, req datamodel.InvokeRequest, r *tlv.Reader) ([]byte, error) {
	switch req.Path.Command {
	case CmdEchoReq:
		return c.handleEchoReq(r)
	default:
		return nil, datamodel.ErrUnsupportedCommand
	}
}

func (c *Cluster) handleEchoReq(r *tlv.Reader) ([]byte, error) {
	data, err := decodeEchoReq(r)
	if err != nil {
		return nil, err
	}
	return encodeEchoStruct(data * c.config.Multiplier)
}

// EncodeEchoReq encodes the fields of an EchoReq command invocation.
func EncodeEchoReq(data uint32) ([]byte, error) {
	return encodeEchoStruct(data)
}

// DecodeEchoResp decodes the Data field of an EchoResp command response.
func DecodeEchoResp(fields []byte) (uint32, error) {
	return decodeEchoReq(tlv.NewReader(bytes.NewReader(fields)))
}

func encodeEchoStruct(data uint32) ([]byte, error) {
	var buf bytes.Buffer
	w := tlv.NewWriter(&buf)
	if err := w.StartStructure(tlv.Anonymous()); err != nil {
		return nil, err
	}
	if err := w.PutUint(tlv.ContextTag(0), uint64(data)); err != nil {
		return nil, err
	}
	if err := w.EndContainer(); err != nil {
		return nil, err
	}
	return buf.Bytes(), nil
}

func decodeEchoReq(r *tlv.Reader) (uint32, error) {
	if err := r.Next(); err != nil {
		return 0, err
	}
	if r.Type() != tlv.ElementTypeStruct {
		return 0, datamodel.ErrInvalidCommand
	}
	if err := r.EnterContainer(); err != nil {
		return 0, err
	}

	var data uint32
	for {
		if err := r.Next(); err != nil {
			return 0, err
		}
		if r.Type() == tlv.ElementTypeEnd {
			break
		}
		tag := r.Tag()
		if !tag.IsContext() || tag.TagNumber() != 0 {
			continue
		}
		val, err := r.Uint()
		if err != nil {
			return 0, err
		}
		data = uint32(val)
	}
	if err := r.ExitContainer(); err != nil {
		return 0, err
	}
	return data, nil
}

// RequiredReadPrivilege implements datamodel.PrivilegeRequirements.
func (c *Cluster) RequiredReadPrivilege(attr datamodel.AttributeID) acl.Privilege {
	return acl.PrivilegeView
}

// RequiredWritePrivilege implements datamodel.PrivilegeRequirements.
func (c *Cluster) RequiredWritePrivilege(attr datamodel.AttributeID) acl.Privilege {
	if attr == AttrAttWrite {
		return acl.PrivilegeManage
	}
	return acl.PrivilegeOperate
}

// RequiredInvokePrivilege implements datamodel.PrivilegeRequirements.
func (c *Cluster) RequiredInvokePrivilege(cmd datamodel.CommandID) acl.Privilege {
	return acl.PrivilegeOperate
}

// Verify Cluster implements the interfaces.
var (
	_ datamodel.Cluster               = (*Cluster)(nil)
	_ datamodel.PrivilegeRequirements = (*Cluster)(nil)
)
