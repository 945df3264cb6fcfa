package acl

// Privilege is an ACL access privilege level. Higher privileges subsume
// lower ones except for ProxyView, which is a side branch kept only for
// compatibility with legacy proxy read clients. Spec 9.10.5.2.
type Privilege uint8

const (
	PrivilegeView       Privilege = 1
	PrivilegeProxyView  Privilege = 2
	PrivilegeOperate    Privilege = 3
	PrivilegeManage     Privilege = 4
	PrivilegeAdminister Privilege = 5
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

// IsValid reports whether p is one of the defined privilege levels.
func (p Privilege) IsValid() bool {
	return p >= PrivilegeView && p <= PrivilegeAdminister
}

// grantedBy lists, for each privilege, the full set of privileges a holder
// of it satisfies a request for. Spec 6.6.6.2's hierarchy: Administer grants
// everything below it plus ProxyView; Manage/Operate/View form a strict
// chain; ProxyView only ever grants itself and View.
var grantedBy = map[Privilege][]Privilege{
	PrivilegeView:       {PrivilegeView},
	PrivilegeProxyView:  {PrivilegeProxyView, PrivilegeView},
	PrivilegeOperate:    {PrivilegeOperate, PrivilegeView},
	PrivilegeManage:     {PrivilegeManage, PrivilegeOperate, PrivilegeView},
	PrivilegeAdminister: {PrivilegeAdminister, PrivilegeManage, PrivilegeOperate, PrivilegeProxyView, PrivilegeView},
}

// Grants reports whether a holder of privilege p satisfies a request
// requiring requested.
func (p Privilege) Grants(requested Privilege) bool {
	for _, granted := range grantedBy[p] {
		if granted == requested {
			return true
		}
	}
	return false
}

// AuthMode is the authentication mechanism behind a session. Spec 9.10.5.4.
type AuthMode uint8

const (
	AuthModeUnknown AuthMode = 0
	AuthModePASE    AuthMode = 1
	AuthModeCASE    AuthMode = 2
	AuthModeGroup   AuthMode = 3
)

func (m AuthMode) String() string {
	switch m {
	case AuthModePASE:
		return "PASE"
	case AuthModeCASE:
		return "CASE"
	case AuthModeGroup:
		return "Group"
	default:
		return "Unknown"
	}
}

// IsValid reports whether m is a defined mode other than Unknown.
func (m AuthMode) IsValid() bool {
	return m >= AuthModePASE && m <= AuthModeGroup
}

// RequestType identifies which kind of Interaction Model operation is being
// privilege-checked, since reads/writes/invokes require different minimums.
type RequestType uint8

const (
	RequestTypeUnknown RequestType = iota
	RequestTypeAttributeRead
	RequestTypeAttributeWrite
	RequestTypeCommandInvoke
	RequestTypeEventRead
)

func (r RequestType) String() string {
	switch r {
	case RequestTypeAttributeRead:
		return "AttributeRead"
	case RequestTypeAttributeWrite:
		return "AttributeWrite"
	case RequestTypeCommandInvoke:
		return "CommandInvoke"
	case RequestTypeEventRead:
		return "EventRead"
	default:
		return "Unknown"
	}
}

// IsValid reports whether r is a defined request type other than Unknown.
func (r RequestType) IsValid() bool {
	return r >= RequestTypeAttributeRead && r <= RequestTypeEventRead
}

// Result is the outcome of an access control check.
type Result uint8

const (
	// ResultDenied means no ACL entry granted the request.
	ResultDenied Result = iota
	// ResultAllowed means an ACL entry granted the request.
	ResultAllowed
	// ResultRestricted means an Access Restriction List entry denied the
	// request; this overrides any ACL grant and is a stronger denial than
	// ResultDenied.
	ResultRestricted
)

func (r Result) String() string {
	switch r {
	case ResultDenied:
		return "Denied"
	case ResultAllowed:
		return "Allowed"
	case ResultRestricted:
		return "Restricted"
	default:
		return "Unknown"
	}
}
