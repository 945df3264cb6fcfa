package im

import (
	"bytes"
	"context"
	"errors"

	"github.com/clasped-home/matter-core/pkg/acl"
	"github.com/clasped-home/matter-core/pkg/datamodel"
	"github.com/clasped-home/matter-core/pkg/fabric"
	"github.com/clasped-home/matter-core/pkg/im/message"
	"github.com/clasped-home/matter-core/pkg/tlv"
)

// RequestSubject carries the accessor identity for a single IM request
// batch, derived from the session the exchange runs over.
type RequestSubject struct {
	FabricIndex     fabric.FabricIndex
	NodeID          uint64
	AuthMode        acl.AuthMode
	CATs            acl.CATValues
	IsCommissioning bool

	// Internal bypasses ACL checks entirely. Used for node-initiated
	// operations that never cross the wire.
	Internal bool
}

func (s RequestSubject) aclSubject() acl.SubjectDescriptor {
	return acl.SubjectDescriptor{
		FabricIndex:     s.FabricIndex,
		AuthMode:        s.AuthMode,
		Subject:         s.NodeID,
		CATs:            s.CATs,
		IsCommissioning: s.IsCommissioning,
	}
}

func (s RequestSubject) dataModelSubject() *datamodel.SubjectDescriptor {
	return &datamodel.SubjectDescriptor{
		FabricIndex: s.FabricIndex,
		NodeID:      s.NodeID,
		AuthMode:    toDataModelAuthMode(s.AuthMode),
	}
}

// Resolver implements the Interaction Model's wildcard expansion, ACL
// enforcement, and data-version filtering ahead of dispatching into a
// concrete datamodel.Cluster. It replaces the generic Dispatcher for any
// engine wired to a live data model tree, since wildcard routing needs
// visibility into the whole endpoint/cluster registry that a per-path
// Dispatcher call cannot provide.
type Resolver struct {
	node    datamodel.Node
	checker *acl.Checker
}

// NewResolver creates a Resolver over node, enforcing access with checker.
// checker may be nil, in which case every access check passes (useful for
// fixtures and internal operations).
func NewResolver(node datamodel.Node, checker *acl.Checker) *Resolver {
	return &Resolver{node: node, checker: checker}
}

func (r *Resolver) checkACL(subject RequestSubject, endpoint datamodel.EndpointID, cluster datamodel.ClusterID, reqType acl.RequestType, entityID uint32, required acl.Privilege) bool {
	if subject.Internal || r.checker == nil {
		return true
	}
	path := acl.NewRequestPathWithEntity(uint32(cluster), uint16(endpoint), reqType, entityID)
	return r.checker.Check(subject.aclSubject(), path, required) == acl.ResultAllowed
}

func requiredReadPrivilege(cl datamodel.Cluster, attr datamodel.AttributeID) acl.Privilege {
	if pc, ok := cl.(datamodel.PrivilegeRequirements); ok {
		return pc.RequiredReadPrivilege(attr)
	}
	return acl.PrivilegeView
}

func requiredWritePrivilege(cl datamodel.Cluster, attr datamodel.AttributeID) acl.Privilege {
	if pc, ok := cl.(datamodel.PrivilegeRequirements); ok {
		return pc.RequiredWritePrivilege(attr)
	}
	return acl.PrivilegeOperate
}

func requiredInvokePrivilege(cl datamodel.Cluster, cmd datamodel.CommandID) acl.Privilege {
	if pc, ok := cl.(datamodel.PrivilegeRequirements); ok {
		return pc.RequiredInvokePrivilege(cmd)
	}
	return acl.PrivilegeOperate
}

// datamodelErrorToStatus maps a datamodel package error to an IM status.
func datamodelErrorToStatus(err error) message.Status {
	switch {
	case err == nil:
		return message.StatusSuccess
	case errors.Is(err, datamodel.ErrEndpointNotFound):
		return message.StatusUnsupportedEndpoint
	case errors.Is(err, datamodel.ErrClusterNotFound):
		return message.StatusUnsupportedCluster
	case errors.Is(err, datamodel.ErrAttributeNotFound), errors.Is(err, datamodel.ErrUnsupportedAttribute):
		return message.StatusUnsupportedAttribute
	case errors.Is(err, datamodel.ErrCommandNotFound), errors.Is(err, datamodel.ErrUnsupportedCommand):
		return message.StatusUnsupportedCommand
	case errors.Is(err, datamodel.ErrAttributeNotReadable):
		return message.StatusUnsupportedRead
	case errors.Is(err, datamodel.ErrAttributeNotWritable), errors.Is(err, datamodel.ErrUnsupportedWrite):
		return message.StatusUnsupportedWrite
	case errors.Is(err, datamodel.ErrAccessDenied), errors.Is(err, datamodel.ErrUnsupportedAccess):
		return message.StatusUnsupportedAccess
	case errors.Is(err, datamodel.ErrInvalidDataVersion):
		return message.StatusDataVersionMismatch
	case errors.Is(err, datamodel.ErrTimedRequired):
		return message.StatusNeedsTimedInteraction
	case errors.Is(err, datamodel.ErrConstraintError):
		return message.StatusConstraintError
	case errors.Is(err, datamodel.ErrInvalidCommand):
		return message.StatusInvalidCommand
	case errors.Is(err, datamodel.ErrBusy):
		return message.StatusBusy
	case errors.Is(err, datamodel.ErrResourceExhausted):
		return message.StatusResourceExhausted
	case errors.Is(err, datamodel.ErrInvalidInState):
		return message.StatusInvalidInState
	default:
		return message.StatusFailure
	}
}

// --- Read ---

// ResolveRead produces the AttributeReportIB set for a single requested
// path, performing wildcard expansion, ACL enforcement and data-version
// filtering per the Interaction Model read semantics.
func (r *Resolver) ResolveRead(ctx context.Context, subject RequestSubject, path message.AttributePathIB, isFabricFiltered bool, filters []message.DataVersionFilterIB) []message.AttributeReportIB {
	genPath := datamodel.GenericAttributePath{
		Endpoint:  path.Endpoint,
		Cluster:   path.Cluster,
		Attribute: path.Attribute,
	}

	if !genPath.IsWildcard() {
		ep := r.node.GetEndpoint(*path.Endpoint)
		if ep == nil {
			return []message.AttributeReportIB{statusReport(path, message.StatusUnsupportedEndpoint)}
		}
		cl := ep.GetCluster(*path.Cluster)
		if cl == nil {
			return []message.AttributeReportIB{statusReport(path, message.StatusUnsupportedCluster)}
		}
		if dataVersionFilterMatches(cl, *path.Endpoint, *path.Cluster, filters) {
			return nil
		}
		if !r.checkACL(subject, *path.Endpoint, *path.Cluster, acl.RequestTypeAttributeRead, uint32(*path.Attribute), requiredReadPrivilege(cl, *path.Attribute)) {
			return []message.AttributeReportIB{statusReport(path, message.StatusUnsupportedAccess)}
		}
		return []message.AttributeReportIB{r.readOne(ctx, subject, cl, path, isFabricFiltered)}
	}

	var out []message.AttributeReportIB
	for _, cp := range datamodel.ExpandAttributePaths(r.node, genPath) {
		ep := r.node.GetEndpoint(cp.Endpoint)
		cl := ep.GetCluster(cp.Cluster)
		if dataVersionFilterMatches(cl, cp.Endpoint, cp.Cluster, filters) {
			continue
		}
		if !r.checkACL(subject, cp.Endpoint, cp.Cluster, acl.RequestTypeAttributeRead, uint32(cp.Attribute), requiredReadPrivilege(cl, cp.Attribute)) {
			continue
		}
		concrete := message.AttributePathIB{
			Endpoint:  &cp.Endpoint,
			Cluster:   &cp.Cluster,
			Attribute: &cp.Attribute,
		}
		report := r.readOne(ctx, subject, cl, concrete, isFabricFiltered)
		if report.AttributeStatus != nil {
			// Errors arising purely from wildcard expansion are dropped.
			continue
		}
		out = append(out, report)
	}
	return out
}

func (r *Resolver) readOne(ctx context.Context, subject RequestSubject, cl datamodel.Cluster, path message.AttributePathIB, fabricFiltered bool) message.AttributeReportIB {
	req := datamodel.ReadAttributeRequest{
		Path: datamodel.ConcreteAttributePath{
			Endpoint:  *path.Endpoint,
			Cluster:   *path.Cluster,
			Attribute: *path.Attribute,
		},
		Subject: subject.dataModelSubject(),
	}
	if fabricFiltered {
		req.ReadFlags |= datamodel.ReadFlagFabricFiltered
	}
	if subject.Internal {
		req.OperationFlags |= datamodel.OpFlagInternal
	}

	var buf bytes.Buffer
	w := tlv.NewWriter(&buf)
	if err := cl.ReadAttribute(ctx, req, w); err != nil {
		return statusReport(path, datamodelErrorToStatus(err))
	}

	return message.AttributeReportIB{
		AttributeData: &message.AttributeDataIB{
			DataVersion: cl.DataVersion(),
			Path:        path,
			Data:        buf.Bytes(),
		},
	}
}

func statusReport(path message.AttributePathIB, status message.Status) message.AttributeReportIB {
	return message.AttributeReportIB{
		AttributeStatus: &message.AttributeStatusIB{
			Path:   path,
			Status: message.StatusIB{Status: status},
		},
	}
}

func dataVersionFilterMatches(cl datamodel.Cluster, endpoint datamodel.EndpointID, cluster datamodel.ClusterID, filters []message.DataVersionFilterIB) bool {
	if cl == nil || len(filters) == 0 {
		return false
	}
	for _, f := range filters {
		if f.Path.Endpoint != nil && *f.Path.Endpoint != endpoint {
			continue
		}
		if f.Path.Cluster != nil && *f.Path.Cluster != cluster {
			continue
		}
		if f.DataVersion == cl.DataVersion() {
			return true
		}
	}
	return false
}

// --- Write ---

// ResolveWrite applies a single AttributeDataIB write, expanding wildcard
// paths, performing ACL and data-version checks per resolved target, and
// returning the AttributeStatusIB set for the response.
func (r *Resolver) ResolveWrite(ctx context.Context, subject RequestSubject, data message.AttributeDataIB, isTimed bool) []message.AttributeStatusIB {
	path := data.Path
	genPath := datamodel.GenericAttributePath{
		Endpoint:  path.Endpoint,
		Cluster:   path.Cluster,
		Attribute: path.Attribute,
	}

	if !genPath.IsWildcard() {
		ep := r.node.GetEndpoint(*path.Endpoint)
		if ep == nil {
			return []message.AttributeStatusIB{statusIB(path, message.StatusUnsupportedEndpoint)}
		}
		cl := ep.GetCluster(*path.Cluster)
		if cl == nil {
			return []message.AttributeStatusIB{statusIB(path, message.StatusUnsupportedCluster)}
		}
		if !r.checkACL(subject, *path.Endpoint, *path.Cluster, acl.RequestTypeAttributeWrite, uint32(*path.Attribute), requiredWritePrivilege(cl, *path.Attribute)) {
			return []message.AttributeStatusIB{statusIB(path, message.StatusUnsupportedAccess)}
		}
		if data.DataVersion != 0 && data.DataVersion != cl.DataVersion() {
			return []message.AttributeStatusIB{statusIB(path, message.StatusDataVersionMismatch)}
		}
		status := r.writeOne(ctx, subject, cl, path, data.Data, isTimed)
		return []message.AttributeStatusIB{statusIB(path, status)}
	}

	var out []message.AttributeStatusIB
	for _, cp := range datamodel.ExpandAttributePaths(r.node, genPath) {
		ep := r.node.GetEndpoint(cp.Endpoint)
		cl := ep.GetCluster(cp.Cluster)
		if !r.checkACL(subject, cp.Endpoint, cp.Cluster, acl.RequestTypeAttributeWrite, uint32(cp.Attribute), requiredWritePrivilege(cl, cp.Attribute)) {
			continue
		}
		if data.DataVersion != 0 && data.DataVersion != cl.DataVersion() {
			continue
		}
		concrete := message.AttributePathIB{
			Endpoint:  &cp.Endpoint,
			Cluster:   &cp.Cluster,
			Attribute: &cp.Attribute,
		}
		status := r.writeOne(ctx, subject, cl, concrete, data.Data, isTimed)
		if status != message.StatusSuccess {
			continue
		}
		out = append(out, statusIB(concrete, status))
	}
	return out
}

func (r *Resolver) writeOne(ctx context.Context, subject RequestSubject, cl datamodel.Cluster, path message.AttributePathIB, data []byte, isTimed bool) message.Status {
	req := datamodel.WriteAttributeRequest{
		Path: datamodel.ConcreteDataAttributePath{
			ConcreteAttributePath: datamodel.ConcreteAttributePath{
				Endpoint:  *path.Endpoint,
				Cluster:   *path.Cluster,
				Attribute: *path.Attribute,
			},
			ListIndex: path.ListIndex,
		},
		Subject: subject.dataModelSubject(),
	}
	if isTimed {
		req.WriteFlags |= datamodel.WriteFlagTimed
	}
	if subject.Internal {
		req.OperationFlags |= datamodel.OpFlagInternal
	}

	reader := tlv.NewReader(bytes.NewReader(data))
	if err := cl.WriteAttribute(ctx, req, reader); err != nil {
		return datamodelErrorToStatus(err)
	}
	return message.StatusSuccess
}

func statusIB(path message.AttributePathIB, status message.Status) message.AttributeStatusIB {
	return message.AttributeStatusIB{
		Path:   path,
		Status: message.StatusIB{Status: status},
	}
}

// --- Invoke ---

// ResolveInvoke invokes a single CommandDataIB, expanding a wildcard
// endpoint across every hosting endpoint, enforcing ACL per resolution,
// and returning the InvokeResponseIB set for the response.
func (r *Resolver) ResolveInvoke(ctx context.Context, subject RequestSubject, data message.CommandDataIB, isTimed bool) []message.InvokeResponseIB {
	path := data.Path

	if !path.EndpointWildcard {
		ep := r.node.GetEndpoint(path.Endpoint)
		if ep == nil {
			return []message.InvokeResponseIB{cmdStatus(path, message.StatusUnsupportedEndpoint)}
		}
		cl := ep.GetCluster(path.Cluster)
		if cl == nil {
			return []message.InvokeResponseIB{cmdStatus(path, message.StatusUnsupportedCluster)}
		}
		if datamodel.FindCommand(cl.AcceptedCommandList(), path.Command) == nil {
			return []message.InvokeResponseIB{cmdStatus(path, message.StatusUnsupportedCommand)}
		}
		if !r.checkACL(subject, path.Endpoint, path.Cluster, acl.RequestTypeCommandInvoke, uint32(path.Command), requiredInvokePrivilege(cl, path.Command)) {
			return []message.InvokeResponseIB{cmdStatus(path, message.StatusUnsupportedAccess)}
		}
		return []message.InvokeResponseIB{r.invokeOne(ctx, subject, cl, path, data.Fields, isTimed)}
	}

	genPath := datamodel.GenericCommandPath{Cluster: path.Cluster, Command: path.Command}

	var out []message.InvokeResponseIB
	for _, cp := range datamodel.ExpandCommandPaths(r.node, genPath) {
		ep := r.node.GetEndpoint(cp.Endpoint)
		cl := ep.GetCluster(cp.Cluster)
		if !r.checkACL(subject, cp.Endpoint, cp.Cluster, acl.RequestTypeCommandInvoke, uint32(cp.Command), requiredInvokePrivilege(cl, cp.Command)) {
			continue
		}
		concrete := message.CommandPathIB{Endpoint: cp.Endpoint, Cluster: cp.Cluster, Command: cp.Command}
		out = append(out, r.invokeOne(ctx, subject, cl, concrete, data.Fields, isTimed))
	}
	return out
}

func (r *Resolver) invokeOne(ctx context.Context, subject RequestSubject, cl datamodel.Cluster, path message.CommandPathIB, fields []byte, isTimed bool) message.InvokeResponseIB {
	req := datamodel.InvokeRequest{
		Path: datamodel.ConcreteCommandPath{
			Endpoint: path.Endpoint,
			Cluster:  path.Cluster,
			Command:  path.Command,
		},
		Subject: subject.dataModelSubject(),
	}
	if isTimed {
		req.InvokeFlags |= datamodel.InvokeFlagTimed
	}
	if subject.Internal {
		req.OperationFlags |= datamodel.OpFlagInternal
	}

	reader := tlv.NewReader(bytes.NewReader(fields))
	respData, err := cl.InvokeCommand(ctx, req, reader)
	if err != nil {
		return cmdStatus(path, datamodelErrorToStatus(err))
	}
	if respData == nil {
		return cmdStatus(path, message.StatusSuccess)
	}
	return message.InvokeResponseIB{
		Command: &message.CommandDataIB{
			Path:   path,
			Fields: respData,
		},
	}
}

func cmdStatus(path message.CommandPathIB, status message.Status) message.InvokeResponseIB {
	return message.InvokeResponseIB{
		Status: &message.CommandStatusIB{
			Path:   path,
			Status: message.StatusIB{Status: status},
		},
	}
}
