// Package datamodel provides the foundational interfaces and types for the
// Matter Data Model (Spec Chapter 7).
//
// This package defines the hierarchy of Node → Endpoint → Cluster and the
// interfaces for reading/writing attributes, invoking commands, and handling
// events. It sits between the Interaction Model (pkg/im) and cluster
// implementations (pkg/clusters/*).
//
// Spec References:
//   - Section 7.4: Element hierarchy
//   - Section 7.8: Node
//   - Section 7.9: Endpoint
//   - Section 7.10: Cluster
//   - Section 7.11: Command
//   - Section 7.12: Attribute
//   - Section 7.13: Global Elements
//   - Section 7.14: Event
package datamodel

// Privilege defines access privilege levels for ACL checks (spec 7.6).
type Privilege int

const (
	PrivilegeUnknown Privilege = iota
	// PrivilegeView allows read access to attributes and events (7.6.6).
	PrivilegeView
	// PrivilegeProxyView allows proxy read access for proxy devices.
	PrivilegeProxyView
	// PrivilegeOperate allows read/write/invoke for normal operation (7.6.7).
	PrivilegeOperate
	// PrivilegeManage allows configuration and management (7.6.8).
	PrivilegeManage
	// PrivilegeAdminister allows full administrative control (7.6.9).
	PrivilegeAdminister
)

var privilegeNames = map[Privilege]string{
	PrivilegeView:       "View",
	PrivilegeProxyView:  "ProxyView",
	PrivilegeOperate:    "Operate",
	PrivilegeManage:     "Manage",
	PrivilegeAdminister: "Administer",
}

func (p Privilege) String() string {
	if name, ok := privilegeNames[p]; ok {
		return name
	}
	return "Unknown"
}

// IsValid reports whether p is a defined privilege level.
func (p Privilege) IsValid() bool {
	return p >= PrivilegeView && p <= PrivilegeAdminister
}

// AttributeQuality is a bitset of attribute quality flags (spec 7.7, 7.12).
type AttributeQuality uint32

const (
	// AttrQualityChangesOmitted marks fast-changing data excluded from
	// subscription reports (C quality, 7.7.1).
	AttrQualityChangesOmitted AttributeQuality = 1 << iota
	// AttrQualityFixed marks read-only data that rarely changes (F, 7.7.2).
	AttrQualityFixed
	// AttrQualitySingleton marks a cluster singleton on the node (I, 7.7.3).
	AttrQualitySingleton
	// AttrQualityDiagnostics marks verbose diagnostics data (K, 7.7.4).
	AttrQualityDiagnostics
	// AttrQualityNonVolatile marks data persisted across restarts (N, 7.7.6).
	AttrQualityNonVolatile
	// AttrQualityReportable marks an attribute that supports reporting
	// (P, 7.7.7).
	AttrQualityReportable
	// AttrQualityQuieter marks fluctuating data where some changes aren't
	// worth reporting (Q, 7.7.8).
	AttrQualityQuieter
	// AttrQualityScene marks an attribute that's part of a scene (S, 7.7.9).
	AttrQualityScene
	// AttrQualityAtomic marks an attribute that requires atomic writes
	// (T, 7.7.11).
	AttrQualityAtomic
	// AttrQualityNullable marks a nullable data type (X, 7.7.10).
	AttrQualityNullable
	// AttrQualityList marks a list-typed attribute.
	AttrQualityList
	// AttrQualityFabricScoped marks fabric-scoped access (F modifier, 7.6.4).
	AttrQualityFabricScoped
	// AttrQualityFabricSensitive marks fabric-sensitive access
	// (S modifier, 7.6.5).
	AttrQualityFabricSensitive
	// AttrQualityTimed marks a write that requires timed interaction
	// (T modifier, 7.6.10).
	AttrQualityTimed
)

// attributeQualityLetters lists (flag, letter) in the order the spec's
// quality-flag notation enumerates them.
var attributeQualityLetters = []struct {
	flag   AttributeQuality
	letter string
}{
	{AttrQualityChangesOmitted, "C"},
	{AttrQualityFixed, "F"},
	{AttrQualitySingleton, "I"},
	{AttrQualityDiagnostics, "K"},
	{AttrQualityNonVolatile, "N"},
	{AttrQualityReportable, "P"},
	{AttrQualityQuieter, "Q"},
	{AttrQualityScene, "S"},
	{AttrQualityAtomic, "T"},
	{AttrQualityNullable, "X"},
	{AttrQualityList, "[List]"},
	{AttrQualityFabricScoped, "[FabricScoped]"},
	{AttrQualityFabricSensitive, "[FabricSensitive]"},
	{AttrQualityTimed, "[Timed]"},
}

// String renders q as its concatenated spec letter codes, e.g. "CFN", or
// "None" if no flags are set.
func (q AttributeQuality) String() string {
	var result string
	for _, entry := range attributeQualityLetters {
		if q&entry.flag != 0 {
			result += entry.letter
		}
	}
	if result == "" {
		return "None"
	}
	return result
}

// CommandQuality is a bitset of command quality flags (spec 7.11).
type CommandQuality uint32

const (
	// CmdQualityFabricScoped requires fabric context (F quality).
	CmdQualityFabricScoped CommandQuality = 1 << iota
	// CmdQualityTimed requires timed interaction (T quality).
	CmdQualityTimed
	// CmdQualityLargeMessage may exceed the minimum MTU (L quality, 7.7.5).
	CmdQualityLargeMessage
)

var commandQualityLetters = []struct {
	flag   CommandQuality
	letter string
}{
	{CmdQualityFabricScoped, "F"},
	{CmdQualityTimed, "T"},
	{CmdQualityLargeMessage, "L"},
}

func (q CommandQuality) String() string {
	var result string
	for _, entry := range commandQualityLetters {
		if q&entry.flag != 0 {
			result += entry.letter
		}
	}
	if result == "" {
		return "None"
	}
	return result
}

// EventPriority is an event's priority level (spec 7.14.1.3).
type EventPriority int

const (
	EventPriorityDebug EventPriority = iota
	EventPriorityInfo
	// EventPriorityCritical marks an event that must not be lost.
	EventPriorityCritical
)

var eventPriorityNames = map[EventPriority]string{
	EventPriorityDebug:    "Debug",
	EventPriorityInfo:     "Info",
	EventPriorityCritical: "Critical",
}

func (p EventPriority) String() string {
	if name, ok := eventPriorityNames[p]; ok {
		return name
	}
	return "Unknown"
}

// IsValid reports whether p is a defined priority.
func (p EventPriority) IsValid() bool {
	return p >= EventPriorityDebug && p <= EventPriorityCritical
}

// ClusterClassification identifies a cluster's role (spec 7.10.8).
type ClusterClassification int

const (
	ClusterClassUnknown ClusterClassification = iota
	// ClusterClassUtility marks a non-primary-operation cluster (7.10.8.1).
	ClusterClassUtility
	// ClusterClassApplication marks a primary-operation cluster (7.10.8.2).
	ClusterClassApplication
)

var clusterClassificationNames = map[ClusterClassification]string{
	ClusterClassUtility:     "Utility",
	ClusterClassApplication: "Application",
}

func (c ClusterClassification) String() string {
	if name, ok := clusterClassificationNames[c]; ok {
		return name
	}
	return "Unknown"
}

// IsValid reports whether c is a defined classification.
func (c ClusterClassification) IsValid() bool {
	return c == ClusterClassUtility || c == ClusterClassApplication
}

// EndpointComposition is how an endpoint's children are organized (spec
// 9.2.1).
type EndpointComposition int

const (
	CompositionUnknown EndpointComposition = iota
	// CompositionTree is a general endpoint tree, for physical device
	// composition (e.g. a refrigerator's compartments).
	CompositionTree
	// CompositionFullFamily is a flat list of every descendant endpoint,
	// used by the Root Node and Aggregator device types.
	CompositionFullFamily
)

var endpointCompositionNames = map[EndpointComposition]string{
	CompositionTree:       "Tree",
	CompositionFullFamily: "FullFamily",
}

func (c EndpointComposition) String() string {
	if name, ok := endpointCompositionNames[c]; ok {
		return name
	}
	return "Unknown"
}

// IsValid reports whether c is a defined composition pattern.
func (c EndpointComposition) IsValid() bool {
	return c == CompositionTree || c == CompositionFullFamily
}

// AuthMode identifies a session's authentication mode.
type AuthMode int

const (
	AuthModeUnknown AuthMode = iota
	// AuthModeCASE is Certificate Authenticated Session Establishment.
	AuthModeCASE
	// AuthModePASE is Passcode Authenticated Session Establishment.
	AuthModePASE
	// AuthModeGroup is group-key authentication.
	AuthModeGroup
)

var authModeNames = map[AuthMode]string{
	AuthModeCASE:  "CASE",
	AuthModePASE:  "PASE",
	AuthModeGroup: "Group",
}

func (m AuthMode) String() string {
	if name, ok := authModeNames[m]; ok {
		return name
	}
	return "Unknown"
}

// IsValid reports whether m is a defined auth mode.
func (m AuthMode) IsValid() bool {
	return m >= AuthModeCASE && m <= AuthModeGroup
}
