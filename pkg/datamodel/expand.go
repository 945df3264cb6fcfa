package datamodel

// ExpandAttributePaths resolves a GenericAttributePath against node into
// the ordered set of concrete attribute paths it matches. Endpoint and
// cluster enumeration follows registration order (Spec 8.2.1.6), which
// Node/Endpoint already preserve.
func ExpandAttributePaths(node Node, path GenericAttributePath) []ConcreteAttributePath {
	var out []ConcreteAttributePath

	for _, ep := range candidateEndpoints(node, path.Endpoint) {
		for _, cl := range candidateClusters(ep, path.Cluster) {
			if path.Attribute != nil {
				out = append(out, ConcreteAttributePath{
					Endpoint:  ep.ID(),
					Cluster:   cl.ID(),
					Attribute: *path.Attribute,
				})
				continue
			}

			for _, attr := range cl.AttributeList() {
				out = append(out, ConcreteAttributePath{
					Endpoint:  ep.ID(),
					Cluster:   cl.ID(),
					Attribute: attr.ID,
				})
			}
		}
	}

	return out
}

// ExpandCommandPaths resolves a GenericCommandPath against node into the
// ordered set of concrete command paths whose cluster accepts the command.
// Only the endpoint dimension may be a wildcard for Invoke (Spec 8.9.2.2).
func ExpandCommandPaths(node Node, path GenericCommandPath) []ConcreteCommandPath {
	var out []ConcreteCommandPath

	for _, ep := range candidateEndpoints(node, path.Endpoint) {
		cl := ep.GetCluster(path.Cluster)
		if cl == nil {
			continue
		}
		if FindCommand(cl.AcceptedCommandList(), path.Command) == nil {
			continue
		}
		out = append(out, ConcreteCommandPath{
			Endpoint: ep.ID(),
			Cluster:  path.Cluster,
			Command:  path.Command,
		})
	}

	return out
}

// candidates resolves a wildcard-or-exact ID against get (exact lookup) and
// all (full enumeration): a nil id wildcards to all, a non-nil id resolves
// to zero or one elements. Shared by candidateEndpoints/candidateClusters,
// which differ only in which pair of functions they pass.
func candidates[ID any, T comparable](id *ID, get func(ID) T, all func() []T) []T {
	var zero T
	if id != nil {
		v := get(*id)
		if v == zero {
			return nil
		}
		return []T{v}
	}
	return all()
}

func candidateEndpoints(node Node, id *EndpointID) []Endpoint {
	return candidates(id, node.GetEndpoint, node.GetEndpoints)
}

func candidateClusters(ep Endpoint, id *ClusterID) []Cluster {
	return candidates(id, ep.GetCluster, ep.GetClusters)
}
