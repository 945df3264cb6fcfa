package datamodel

import "sync"

// BasicEndpoint is a thread-safe in-memory Endpoint: an ordered set of
// clusters plus the endpoint's own metadata and device types.
type BasicEndpoint struct {
	mu          sync.RWMutex
	entry       EndpointEntry
	clusters    map[ClusterID]Cluster
	order       []ClusterID // registration order, for GetClusters
	deviceTypes []DeviceTypeEntry
}

// NewEndpoint builds an endpoint with id, using the Tree composition
// pattern by default.
func NewEndpoint(id EndpointID) *BasicEndpoint {
	return &BasicEndpoint{
		entry:    EndpointEntry{ID: id, CompositionPattern: CompositionTree},
		clusters: make(map[ClusterID]Cluster),
	}
}

// NewEndpointWithParent builds an endpoint with id, parented under
// parentID.
func NewEndpointWithParent(id EndpointID, parentID EndpointID) *BasicEndpoint {
	ep := NewEndpoint(id)
	ep.entry.ParentID = &parentID
	return ep
}

// ID returns the endpoint's ID.
func (e *BasicEndpoint) ID() EndpointID {
	return e.entry.ID
}

// Entry returns a copy of the endpoint's metadata.
func (e *BasicEndpoint) Entry() EndpointEntry {
	e.mu.RLock()
	defer e.mu.RUnlock()
	return e.entry
}

// SetParent reparents the endpoint under parentID.
func (e *BasicEndpoint) SetParent(parentID EndpointID) {
	e.mu.Lock()
	defer e.mu.Unlock()
	e.entry.ParentID = &parentID
}

// SetCompositionPattern sets the endpoint's composition pattern.
func (e *BasicEndpoint) SetCompositionPattern(pattern EndpointComposition) {
	e.mu.Lock()
	defer e.mu.Unlock()
	e.entry.CompositionPattern = pattern
}

// AddCluster registers c under its own ID, or returns ErrClusterExists if
// that ID is already taken.
func (e *BasicEndpoint) AddCluster(c Cluster) error {
	e.mu.Lock()
	defer e.mu.Unlock()

	id := c.ID()
	if _, exists := e.clusters[id]; exists {
		return ErrClusterExists
	}
	e.clusters[id] = c
	e.order = append(e.order, id)
	return nil
}

// RemoveCluster unregisters id, or returns ErrClusterNotFound if it isn't
// registered.
func (e *BasicEndpoint) RemoveCluster(id ClusterID) error {
	e.mu.Lock()
	defer e.mu.Unlock()

	if _, exists := e.clusters[id]; !exists {
		return ErrClusterNotFound
	}
	delete(e.clusters, id)
	e.order = removeClusterID(e.order, id)
	return nil
}

// removeClusterID returns order with id's first occurrence dropped.
func removeClusterID(order []ClusterID, id ClusterID) []ClusterID {
	for i, cID := range order {
		if cID == id {
			return append(order[:i], order[i+1:]...)
		}
	}
	return order
}

// GetCluster returns the cluster registered under id, or nil.
func (e *BasicEndpoint) GetCluster(id ClusterID) Cluster {
	e.mu.RLock()
	defer e.mu.RUnlock()
	return e.clusters[id]
}

// GetClusters returns every registered cluster in registration order.
func (e *BasicEndpoint) GetClusters() []Cluster {
	e.mu.RLock()
	defer e.mu.RUnlock()

	result := make([]Cluster, 0, len(e.order))
	for _, id := range e.order {
		if c, ok := e.clusters[id]; ok {
			result = append(result, c)
		}
	}
	return result
}

// ClusterCount returns the number of registered clusters.
func (e *BasicEndpoint) ClusterCount() int {
	e.mu.RLock()
	defer e.mu.RUnlock()
	return len(e.clusters)
}

// HasCluster reports whether id is registered.
func (e *BasicEndpoint) HasCluster(id ClusterID) bool {
	e.mu.RLock()
	defer e.mu.RUnlock()
	_, exists := e.clusters[id]
	return exists
}

// AddDeviceType appends dt to the endpoint's device type list.
func (e *BasicEndpoint) AddDeviceType(dt DeviceTypeEntry) {
	e.mu.Lock()
	defer e.mu.Unlock()
	e.deviceTypes = append(e.deviceTypes, dt)
}

// GetDeviceTypes returns a copy of the endpoint's device types.
func (e *BasicEndpoint) GetDeviceTypes() []DeviceTypeEntry {
	e.mu.RLock()
	defer e.mu.RUnlock()
	return append([]DeviceTypeEntry{}, e.deviceTypes...)
}

// ClearDeviceTypes empties the endpoint's device type list.
func (e *BasicEndpoint) ClearDeviceTypes() {
	e.mu.Lock()
	defer e.mu.Unlock()
	e.deviceTypes = nil
}

// GetClusterIDs returns the IDs of every registered cluster, in
// registration order.
func (e *BasicEndpoint) GetClusterIDs() []ClusterID {
	e.mu.RLock()
	defer e.mu.RUnlock()
	return append([]ClusterID{}, e.order...)
}

var _ Endpoint = (*BasicEndpoint)(nil)
