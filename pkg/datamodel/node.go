package datamodel

import "sync"

// BasicNode is a thread-safe in-memory Node: an ordered set of endpoints
// plus a single attribute-change listener shared across them.
type BasicNode struct {
	mu        sync.RWMutex
	endpoints map[EndpointID]Endpoint
	order     []EndpointID // registration order, for GetEndpoints
	listener  AttributeChangeListener
}

// NewNode builds an empty BasicNode.
func NewNode() *BasicNode {
	return &BasicNode{endpoints: make(map[EndpointID]Endpoint)}
}

// AddEndpoint registers ep under its own ID, or returns ErrEndpointExists
// if that ID is already taken.
func (n *BasicNode) AddEndpoint(ep Endpoint) error {
	n.mu.Lock()
	defer n.mu.Unlock()

	id := ep.ID()
	if _, exists := n.endpoints[id]; exists {
		return ErrEndpointExists
	}
	n.endpoints[id] = ep
	n.order = append(n.order, id)
	return nil
}

// RemoveEndpoint unregisters id, or returns ErrEndpointNotFound if it
// isn't registered.
func (n *BasicNode) RemoveEndpoint(id EndpointID) error {
	n.mu.Lock()
	defer n.mu.Unlock()

	if _, exists := n.endpoints[id]; !exists {
		return ErrEndpointNotFound
	}
	delete(n.endpoints, id)
	n.order = removeEndpointID(n.order, id)
	return nil
}

// removeEndpointID returns order with id's first occurrence dropped.
func removeEndpointID(order []EndpointID, id EndpointID) []EndpointID {
	for i, epID := range order {
		if epID == id {
			return append(order[:i], order[i+1:]...)
		}
	}
	return order
}

// GetEndpoint returns the endpoint registered under id, or nil.
func (n *BasicNode) GetEndpoint(id EndpointID) Endpoint {
	n.mu.RLock()
	defer n.mu.RUnlock()
	return n.endpoints[id]
}

// GetEndpoints returns every registered endpoint in registration order.
func (n *BasicNode) GetEndpoints() []Endpoint {
	n.mu.RLock()
	defer n.mu.RUnlock()

	result := make([]Endpoint, 0, len(n.order))
	for _, id := range n.order {
		if ep, ok := n.endpoints[id]; ok {
			result = append(result, ep)
		}
	}
	return result
}

// EndpointCount returns the number of registered endpoints.
func (n *BasicNode) EndpointCount() int {
	n.mu.RLock()
	defer n.mu.RUnlock()
	return len(n.endpoints)
}

// HasEndpoint reports whether id is registered.
func (n *BasicNode) HasEndpoint(id EndpointID) bool {
	n.mu.RLock()
	defer n.mu.RUnlock()
	_, exists := n.endpoints[id]
	return exists
}

// SetAttributeChangeListener installs listener, replacing any previous one.
func (n *BasicNode) SetAttributeChangeListener(listener AttributeChangeListener) {
	n.mu.Lock()
	defer n.mu.Unlock()
	n.listener = listener
}

// NotifyAttributeChanged informs the installed listener, if any, that path
// changed. Clusters call this after a successful attribute write.
func (n *BasicNode) NotifyAttributeChanged(path ConcreteAttributePath) {
	n.mu.RLock()
	listener := n.listener
	n.mu.RUnlock()

	if listener != nil {
		listener.OnAttributeChanged(path)
	}
}

// GetCluster looks up a cluster through its endpoint, returning nil if
// either the endpoint or the cluster doesn't exist.
func (n *BasicNode) GetCluster(endpointID EndpointID, clusterID ClusterID) Cluster {
	ep := n.GetEndpoint(endpointID)
	if ep == nil {
		return nil
	}
	return ep.GetCluster(clusterID)
}

var (
	_ Node              = (*BasicNode)(nil)
	_ DataModelProvider = (*BasicNode)(nil)
)
