package im

import (
	"github.com/clasped-home/matter-core/pkg/acl"
	"github.com/clasped-home/matter-core/pkg/clusters/accesscontrol"
	"github.com/clasped-home/matter-core/pkg/clusters/descriptor"
	"github.com/clasped-home/matter-core/pkg/clusters/echo"
	"github.com/clasped-home/matter-core/pkg/datamodel"
)

// FixtureEndpointID is the endpoint ID of the root (descriptor/access
// control) endpoint in a TestFixtureNode.
const FixtureEndpointID datamodel.EndpointID = 0

// FixtureSecondEndpointID is the endpoint ID of the second Echo endpoint
// in a TestFixtureNode.
const FixtureSecondEndpointID datamodel.EndpointID = 1

// TestFixtureNode bundles a data model tree and its backing ACL manager
// for driving resolver-based IM requests end to end: wildcard expansion,
// ACL enforcement and data-version filtering all against real clusters
// rather than a mock dispatcher.
type TestFixtureNode struct {
	Node    *datamodel.BasicNode
	ACL     *acl.Manager
	Echo0   *echo.Cluster
	Echo1   *echo.Cluster
	AccCtrl *accesscontrol.Cluster
}

// NewTestFixtureNode builds a two-endpoint node:
//
//	endpoint 0: Descriptor, Access Control, Echo (multiplier 2)
//	endpoint 1: Echo (multiplier 3)
//
// The Echo cluster's AttWrite attribute requires Manage to write and the
// Access Control cluster requires Administer for every operation, so the
// fixture exercises privilege-graded ACL checks without any extra setup
// beyond populating the manager with entries.
func NewTestFixtureNode() *TestFixtureNode {
	node := datamodel.NewNode()
	manager := acl.NewManager(nil, nil)

	ep0 := datamodel.NewEndpoint(FixtureEndpointID)
	desc := descriptor.New(descriptor.Config{
		EndpointID: FixtureEndpointID,
		Node:       node,
	})
	accCtrl := accesscontrol.New(FixtureEndpointID, manager)
	echo0 := echo.New(echo.Config{
		EndpointID: FixtureEndpointID,
		Multiplier: 2,
	})

	_ = ep0.AddCluster(desc)
	_ = ep0.AddCluster(accCtrl)
	_ = ep0.AddCluster(echo0)

	ep1 := datamodel.NewEndpoint(FixtureSecondEndpointID)
	echo1 := echo.New(echo.Config{
		EndpointID: FixtureSecondEndpointID,
		Multiplier: 3,
	})
	_ = ep1.AddCluster(echo1)

	_ = node.AddEndpoint(ep0)
	_ = node.AddEndpoint(ep1)

	return &TestFixtureNode{
		Node:    node,
		ACL:     manager,
		Echo0:   echo0,
		Echo1:   echo1,
		AccCtrl: accCtrl,
	}
}

// NewResolver builds a Resolver over the fixture's node and the manager's
// live checker, so ACL entries written through f.ACL take effect on the
// next resolved request.
func (f *TestFixtureNode) NewResolver() *Resolver {
	return NewResolver(f.Node, f.ACL.Checker())
}
