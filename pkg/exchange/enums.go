// Package exchange implements Matter message exchange management and
// reliability, sitting between the session layer (pkg/session) and
// higher-level protocols (SecureChannel, Interaction Model).
//
//   - Exchange multiplexing: track concurrent conversations over a session
//   - MRP: retransmission and acknowledgement for unreliable transports
//   - Protocol dispatch: route messages to handlers by Protocol ID
//
// An exchange is one conversation (a request/response pair, or a longer
// transaction) bound to exactly one session and identified by the tuple
// {Session Context, Exchange ID, Exchange Role}.
//
// Spec 4.10 (Message Exchanges), 4.12 (MRP).
package exchange

// ExchangeRole says which side of a single exchange this node occupies.
//
// This is independent of session.SessionRole, which fixes who initiated the
// PASE/CASE session for its whole lifetime: a node that responded during
// CASE establishment can still initiate a later exchange over that same
// session, e.g. to start a Read. Spec 4.10.1.
type ExchangeRole int

const (
	ExchangeRoleUnknown ExchangeRole = iota
	// ExchangeRoleInitiator allocated this exchange's ID and sets the I flag.
	ExchangeRoleInitiator
	// ExchangeRoleResponder received the unsolicited message that opened
	// this exchange; it reuses the initiator's Exchange ID and never sets I.
	ExchangeRoleResponder
)

var exchangeRoleNames = map[ExchangeRole]string{
	ExchangeRoleInitiator: "Initiator",
	ExchangeRoleResponder: "Responder",
}

func (r ExchangeRole) String() string {
	if name, ok := exchangeRoleNames[r]; ok {
		return name
	}
	return "Unknown"
}

// IsValid reports whether r is a defined role.
func (r ExchangeRole) IsValid() bool {
	return r == ExchangeRoleInitiator || r == ExchangeRoleResponder
}

// Invert returns the other role — used to derive the role a new responder
// exchange occupies from the initiator-flagged message that created it.
func (r ExchangeRole) Invert() ExchangeRole {
	switch r {
	case ExchangeRoleInitiator:
		return ExchangeRoleResponder
	case ExchangeRoleResponder:
		return ExchangeRoleInitiator
	default:
		return ExchangeRoleUnknown
	}
}

// ExchangeState tracks an exchange's lifecycle (spec 4.10.5.3 closing rules).
type ExchangeState int

const (
	ExchangeStateUnknown ExchangeState = iota
	// ExchangeStateActive: messages may be sent and received normally.
	ExchangeStateActive
	// ExchangeStateClosing: no new sends accepted, but pending ACKs still
	// flush and in-flight retransmissions still run to completion.
	ExchangeStateClosing
	// ExchangeStateClosed: fully torn down, no further operations allowed.
	ExchangeStateClosed
)

var exchangeStateNames = map[ExchangeState]string{
	ExchangeStateActive:  "Active",
	ExchangeStateClosing: "Closing",
	ExchangeStateClosed:  "Closed",
}

func (s ExchangeState) String() string {
	if name, ok := exchangeStateNames[s]; ok {
		return name
	}
	return "Unknown"
}

// IsValid reports whether s is a defined state.
func (s ExchangeState) IsValid() bool {
	return s >= ExchangeStateActive && s <= ExchangeStateClosed
}

// CanSend reports whether new outbound messages are accepted in state s.
func (s ExchangeState) CanSend() bool {
	return s == ExchangeStateActive
}

// CanReceive reports whether inbound messages are still processed in state s.
func (s ExchangeState) CanReceive() bool {
	return s == ExchangeStateActive || s == ExchangeStateClosing
}
