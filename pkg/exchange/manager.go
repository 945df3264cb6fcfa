package exchange

import (
	"crypto/rand"
	"encoding/binary"
	"sync"

	"github.com/pion/logging"

	"github.com/clasped-home/matter-core/pkg/fabric"
	"github.com/clasped-home/matter-core/pkg/message"
	"github.com/clasped-home/matter-core/pkg/securechannel"
	"github.com/clasped-home/matter-core/pkg/session"
	"github.com/clasped-home/matter-core/pkg/transport"
)

// ProtocolHandler handles messages for a specific protocol.
// Register handlers with Manager.RegisterProtocol().
type ProtocolHandler interface {
	// OnMessage handles a message on an existing exchange.
	// Returns response payload (if any) and error.
	OnMessage(ctx *ExchangeContext, opcode uint8, payload []byte) ([]byte, error)

	// OnUnsolicited handles a new unsolicited message (first message creating an exchange).
	// Returns response payload (if any) and error.
	OnUnsolicited(ctx *ExchangeContext, opcode uint8, payload []byte) ([]byte, error)
}

// ManagerConfig configures the exchange Manager.
type ManagerConfig struct {
	// SessionManager manages session contexts.
	SessionManager *session.Manager

	// TransportManager handles network I/O.
	TransportManager *transport.Manager

	// LoggerFactory creates loggers for the manager. If nil, logging is disabled.
	LoggerFactory logging.LoggerFactory
}

// Manager owns the live exchange table for a node, routing frames between
// the transport/session layers and registered protocol handlers while
// driving MRP acknowledgement and retransmission on their behalf.
type Manager struct {
	mu sync.RWMutex

	config ManagerConfig
	log    logging.LeveledLogger

	// exchanges maps {sessionID, exchangeID, role} to live exchange state.
	exchanges map[exchangeKey]*ExchangeContext

	// handlers maps protocol ID to the handler registered for it.
	handlers map[message.ProtocolID]ProtocolHandler

	acks        *AckTable
	retransmits *RetransmitTable

	// initiatorExchangeID is the next exchange ID this node will allocate
	// when acting as initiator. Spec 4.10.2 seeds it randomly and increments
	// by one per allocation thereafter.
	initiatorExchangeID uint16
}

// NewManager builds a Manager around config. Session and transport managers
// are required; a nil LoggerFactory simply leaves the manager silent.
func NewManager(config ManagerConfig) *Manager {
	m := &Manager{
		config:      config,
		exchanges:   make(map[exchangeKey]*ExchangeContext),
		handlers:    make(map[message.ProtocolID]ProtocolHandler),
		acks:        NewAckTable(),
		retransmits: NewRetransmitTable(),
	}
	if config.LoggerFactory != nil {
		m.log = config.LoggerFactory.NewLogger("exchange")
	}
	m.initiatorExchangeID = randomExchangeID()
	return m
}

// randomExchangeID seeds the initiator exchange ID counter. Falling back to
// zero on a read failure just means the first allocated ID is predictable,
// not that exchange allocation breaks.
func randomExchangeID() uint16 {
	var buf [2]byte
	if _, err := rand.Read(buf[:]); err != nil {
		return 0
	}
	return binary.LittleEndian.Uint16(buf[:])
}

// RegisterProtocol registers handler for protocolID. Later registrations for
// the same ID replace earlier ones.
func (m *Manager) RegisterProtocol(protocolID message.ProtocolID, handler ProtocolHandler) {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.handlers[protocolID] = handler
	if m.log != nil {
		m.log.Debugf("registered protocol handler: protocol=0x%04x", protocolID)
	}
}

// NewExchange allocates a fresh initiator-role exchange and registers it in
// the live table, ready for the caller to send its first message on.
func (m *Manager) NewExchange(
	sess SessionContext,
	localSessionID uint16,
	peerAddress transport.PeerAddress,
	protocolID message.ProtocolID,
	delegate ExchangeDelegate,
) (*ExchangeContext, error) {
	m.mu.Lock()
	defer m.mu.Unlock()

	exchangeID := m.initiatorExchangeID
	m.initiatorExchangeID++

	key := exchangeKey{
		localSessionID: localSessionID,
		exchangeID:     exchangeID,
		role:           ExchangeRoleInitiator,
	}
	if _, taken := m.exchanges[key]; taken {
		// Collision over a 16-bit space after 65536 allocations; the caller
		// retries with a freshly incremented ID on the next call.
		return nil, ErrExchangeExists
	}

	ctx := NewExchangeContext(ExchangeContextConfig{
		ID:             exchangeID,
		Role:           ExchangeRoleInitiator,
		ProtocolID:     protocolID,
		LocalSessionID: localSessionID,
		Session:        sess,
		PeerAddress:    peerAddress,
		Delegate:       delegate,
		Manager:        m,
	})
	m.exchanges[key] = ctx
	return ctx, nil
}

// OnMessageReceived is the receive-path entry point invoked by the transport
// layer for every inbound datagram: it resolves the session, decrypts (or,
// for handshake traffic, parses the unsecured frame directly), then hands
// the decoded frame to processFrame for MRP and exchange dispatch.
func (m *Manager) OnMessageReceived(msg *transport.ReceivedMessage) error {
	var header message.MessageHeader
	if _, err := header.Decode(msg.Data); err != nil {
		return ErrInvalidMessage
	}

	if header.SessionID == 0 {
		return m.receiveUnsecured(msg, &header)
	}
	return m.receiveSecure(msg, &header)
}

func (m *Manager) receiveUnsecured(msg *transport.ReceivedMessage, header *message.MessageHeader) error {
	frame, err := message.DecodeUnsecured(msg.Data)
	if err != nil {
		return ErrInvalidMessage
	}

	// Spec 4.13.2.1: unsecured messages key their handshake context off the
	// source node ID, which must therefore be present.
	if !header.SourcePresent {
		return ErrInvalidMessage
	}

	unsecuredCtx, err := m.config.SessionManager.FindOrCreateUnsecuredContext(fabric.NodeID(header.SourceNodeID))
	if err != nil {
		return err
	}
	if !unsecuredCtx.CheckCounter(header.MessageCounter) {
		return ErrInvalidMessage
	}

	return m.processFrame(frame, msg.PeerAddr, unsecuredCtx)
}

func (m *Manager) receiveSecure(msg *transport.ReceivedMessage, header *message.MessageHeader) error {
	secureCtx := m.config.SessionManager.FindSecureContext(header.SessionID)
	if secureCtx == nil {
		return ErrSessionNotFound
	}

	frame, err := secureCtx.Decrypt(msg.Data)
	if err != nil {
		return err
	}

	return m.processFrame(frame, msg.PeerAddr, secureCtx)
}

// processFrame implements the reception rules of Spec 4.5/4.6 over the
// {localSessionID, exchangeID, role}-keyed exchange table: an acknowledged
// counter is always reconciled against the retransmit table first,
// regardless of whether the exchange it belonged to still exists; the frame
// is then either dispatched to a matching exchange or routed to
// handleUnsolicited when no exchange claims it.
func (m *Manager) processFrame(frame *message.Frame, peerAddr transport.PeerAddress, sess SessionContext) error {
	proto := &frame.Protocol
	key := exchangeKey{
		localSessionID: frame.Header.SessionID,
		exchangeID:     proto.ExchangeID,
		role:           respondingRole(proto.Initiator),
	}

	if proto.Acknowledgement {
		m.consumeAck(proto.AckedMessageCounter)
	}

	m.mu.RLock()
	ctx, exists := m.exchanges[key]
	m.mu.RUnlock()

	if !exists {
		return m.handleUnsolicited(frame, peerAddr, sess, key)
	}

	if proto.Reliability {
		m.trackPendingAck(ctx, frame.Header.MessageCounter)
	}

	response, err := ctx.handleMessage(proto, frame.Payload)
	if err != nil {
		return err
	}
	if response == nil {
		return nil
	}
	return ctx.SendMessage(proto.ProtocolOpcode, response, wantsReliableResponse(peerAddr))
}

// respondingRole returns the exchange role we occupy for a frame whose
// Initiator flag is senderIsInitiator: if the sender is the initiator, this
// side is the responder, and vice versa.
func respondingRole(senderIsInitiator bool) ExchangeRole {
	if senderIsInitiator {
		return ExchangeRoleResponder
	}
	return ExchangeRoleInitiator
}

// wantsReliableResponse decides whether a handler's response should be sent
// reliably. UDP request/response exchanges default to reliable; other
// transports (e.g. the in-memory pipe used by tests) do not need MRP.
func wantsReliableResponse(peerAddr transport.PeerAddress) bool {
	return peerAddr.TransportType == transport.TransportTypeUDP
}

// handleUnsolicited processes a frame that matched no live exchange, per
// Spec 4.10.5.2: a frame from the initiator with a registered protocol
// handler spawns a new responder exchange; anything else either gets a
// standalone ACK (if reliability was requested) or is simply dropped.
func (m *Manager) handleUnsolicited(
	frame *message.Frame,
	peerAddr transport.PeerAddress,
	sess SessionContext,
	key exchangeKey,
) error {
	proto := frame.Protocol

	if !proto.Initiator {
		if proto.Reliability {
			m.ackUnsolicitedFrame(frame, peerAddr, sess)
		}
		return ErrUnsolicitedNotInitiator
	}

	m.mu.RLock()
	handler, hasHandler := m.handlers[proto.ProtocolID]
	m.mu.RUnlock()

	if !hasHandler {
		if proto.Reliability {
			m.ackUnsolicitedFrame(frame, peerAddr, sess)
		}
		return ErrNoHandler
	}

	ctx := NewExchangeContext(ExchangeContextConfig{
		ID:             proto.ExchangeID,
		Role:           ExchangeRoleResponder,
		ProtocolID:     proto.ProtocolID,
		LocalSessionID: frame.Header.SessionID,
		Session:        sess,
		PeerAddress:    peerAddr,
		Manager:        m,
	})

	m.mu.Lock()
	m.exchanges[key] = ctx
	m.mu.Unlock()

	if proto.Reliability {
		m.trackPendingAck(ctx, frame.Header.MessageCounter)
	}

	response, err := handler.OnUnsolicited(ctx, proto.ProtocolOpcode, frame.Payload)
	if err != nil {
		m.mu.Lock()
		delete(m.exchanges, key)
		m.mu.Unlock()
		return err
	}
	if response == nil {
		return nil
	}
	return ctx.SendMessage(proto.ProtocolOpcode, response, wantsReliableResponse(peerAddr))
}

// consumeAck reconciles an acknowledged message counter against the
// retransmit table and wakes whichever exchange was waiting on it. An ACK
// for a counter we have no pending send for is simply a no-op — it is not a
// protocol violation, just a lookup miss.
func (m *Manager) consumeAck(ackedCounter uint32) {
	entry := m.retransmits.Ack(ackedCounter)
	if entry == nil {
		return
	}

	m.mu.RLock()
	ctx, exists := m.exchanges[entry.ExchangeKey]
	m.mu.RUnlock()

	if exists {
		ctx.onRetransmitComplete()
	}
}

// trackPendingAck records that ctx owes a peer an acknowledgement for
// messageCounter, arming a fallback timer that fires a standalone ACK if the
// next outbound message doesn't piggyback it first.
func (m *Manager) trackPendingAck(ctx *ExchangeContext, messageCounter uint32) {
	key := ctx.GetKey()
	ctx.SetPendingAck(messageCounter)

	displaced := m.acks.Add(key, messageCounter, func() {
		m.sendStandaloneAck(ctx, messageCounter)
	})
	if displaced != nil {
		// The displaced entry hadn't been flushed yet; send its standalone
		// ACK now rather than losing it silently.
		m.sendStandaloneAck(ctx, displaced.MessageCounter)
	}
}

// sendStandaloneAck emits a bare ACK frame for ackedCounter on ctx.
func (m *Manager) sendStandaloneAck(ctx *ExchangeContext, ackedCounter uint32) {
	proto := &message.ProtocolHeader{
		ProtocolID:          message.ProtocolSecureChannel,
		ProtocolOpcode:      uint8(securechannel.OpcodeStandaloneAck),
		ExchangeID:          ctx.ID,
		Initiator:           ctx.Role == ExchangeRoleInitiator,
		Acknowledgement:     true,
		Reliability:         false,
		AckedMessageCounter: ackedCounter,
	}

	m.acks.MarkStandaloneAckSent(ctx.GetKey())
	ctx.ClearPendingAck()

	if err := m.send(ctx, proto, nil); err != nil && m.log != nil {
		m.log.Warnf("standalone ack send failed: exchange=%d err=%v", ctx.ID, err)
	}
}

// ackUnsolicitedFrame would emit a standalone ACK for a frame that never
// matched (and never created) an exchange. Doing so correctly requires
// encoding and sending a reply without an ExchangeContext to hang the send
// off of, which the current session/transport plumbing doesn't expose yet.
func (m *Manager) ackUnsolicitedFrame(frame *message.Frame, peerAddr transport.PeerAddress, sess SessionContext) {
	if m.log != nil {
		m.log.Debugf("dropping reliable unsolicited frame without handler: exchange=%d", frame.Protocol.ExchangeID)
	}
	_ = frame
	_ = peerAddr
	_ = sess
	// TODO: Implement direct send for ephemeral ACK
}

// flushPendingAck sends whatever ACK ctx currently owes its peer, if any.
func (m *Manager) flushPendingAck(ctx *ExchangeContext) {
	key := ctx.GetKey()
	if !m.acks.HasPendingAck(key) {
		return
	}
	if counter, pending := m.acks.PendingCounter(key); pending {
		m.sendStandaloneAck(ctx, counter)
	}
}

// sendMessage sends payload on ctx, piggybacking any ACK ctx owes its peer
// onto the outbound frame when the frame isn't already carrying one.
func (m *Manager) sendMessage(ctx *ExchangeContext, proto *message.ProtocolHeader, payload []byte) error {
	if ackCounter, owed := ctx.GetPendingAck(); owed && !proto.Acknowledgement {
		proto.Acknowledgement = true
		proto.AckedMessageCounter = ackCounter

		m.acks.MarkAcked(ctx.GetKey())
		ctx.ClearPendingAck()
	}
	return m.send(ctx, proto, payload)
}

// send encodes and dispatches a frame on ctx's session, routing to the
// secure or unsecured encode path depending on the session's kind.
func (m *Manager) send(ctx *ExchangeContext, proto *message.ProtocolHeader, payload []byte) error {
	sess := ctx.Session()
	if sess == nil {
		return ErrSessionNotFound
	}

	secureSession, isSecure := sess.(SecureSessionContext)
	if !isSecure {
		return m.sendUnsecured(ctx, sess, proto, payload)
	}

	header := &message.MessageHeader{
		SessionID: secureSession.PeerSessionID(),
	}
	encoded, err := secureSession.Encrypt(header, proto, payload, false)
	if err != nil {
		return err
	}

	if proto.Reliability {
		if err := m.armRetransmit(ctx, sess, header.MessageCounter, encoded, secureSession.IsPeerActive()); err != nil {
			return err
		}
	}

	return m.config.TransportManager.Send(encoded, ctx.PeerAddress())
}

// sendUnsecured encodes and sends a frame over an unsecured (handshake)
// session per Spec 4.4.1/4.13.2.1: session ID 0, unicast session type, and
// the sender's ephemeral node ID carried explicitly in the header.
func (m *Manager) sendUnsecured(ctx *ExchangeContext, sess SessionContext, proto *message.ProtocolHeader, payload []byte) error {
	unsecuredCtx, ok := sess.(*session.UnsecuredContext)
	if !ok {
		return ErrSessionNotFound
	}

	counter, err := m.config.SessionManager.NextGlobalCounter()
	if err != nil {
		return err
	}

	header := message.MessageHeader{
		SessionID:      0,
		SessionType:    message.SessionTypeUnicast,
		MessageCounter: counter,
		SourceNodeID:   uint64(unsecuredCtx.EphemeralNodeID()),
		SourcePresent:  true,
	}
	encoded := (&message.Frame{Header: header, Protocol: *proto, Payload: payload}).EncodeUnsecured()

	if proto.Reliability {
		if err := m.armRetransmit(ctx, sess, counter, encoded, false); err != nil {
			return err
		}
	}

	return m.config.TransportManager.Send(encoded, ctx.PeerAddress())
}

// armRetransmit registers encoded under messageCounter for automatic
// retransmission, choosing the idle/active base interval from the session's
// MRP parameters and marking ctx as having a send in flight.
func (m *Manager) armRetransmit(ctx *ExchangeContext, sess SessionContext, messageCounter uint32, encoded []byte, peerActive bool) error {
	params := sess.GetParams()
	baseInterval := params.IdleInterval
	if peerActive {
		baseInterval = params.ActiveInterval
	}

	err := m.retransmits.Add(ctx.GetKey(), messageCounter, encoded, ctx.PeerAddress(), baseInterval, m.onRetransmitTimeout)
	if err != nil {
		return err
	}
	ctx.SetPendingRetransmit(messageCounter)
	return nil
}

// onRetransmitTimeout fires when a pending send's retransmit timer expires:
// it either re-sends the stored packet with a backed-off interval, or — once
// the retry budget is exhausted — tells the owning exchange its reliable
// send has failed for good.
func (m *Manager) onRetransmitTimeout(entry *RetransmitEntry) {
	m.mu.RLock()
	ctx, exists := m.exchanges[entry.ExchangeKey]
	m.mu.RUnlock()

	if !exists {
		m.retransmits.RemoveByCounter(entry.MessageCounter)
		return
	}

	sess := ctx.Session()
	if sess == nil {
		m.retransmits.RemoveByCounter(entry.MessageCounter)
		ctx.onRetransmitComplete()
		return
	}

	params := sess.GetParams()
	baseInterval := params.IdleInterval
	if secureSession, ok := sess.(SecureSessionContext); ok && secureSession.IsPeerActive() {
		baseInterval = params.ActiveInterval
	}

	if !m.retransmits.ScheduleRetransmit(entry.MessageCounter, baseInterval) {
		if m.log != nil {
			m.log.Debugf("max retransmits exceeded: exchange=%v counter=%d", entry.ExchangeKey, entry.MessageCounter)
		}
		ctx.onRetransmitComplete()
		return
	}

	if err := m.config.TransportManager.Send(entry.Message, entry.PeerAddress); err != nil && m.log != nil {
		m.log.Warnf("retransmit send failed: counter=%d err=%v", entry.MessageCounter, err)
	}
}

// removeExchange drops ctx from the live table, cleans up its ACK and
// retransmit bookkeeping, and notifies its delegate that it has closed.
func (m *Manager) removeExchange(ctx *ExchangeContext) {
	key := ctx.GetKey()

	m.mu.Lock()
	delete(m.exchanges, key)
	m.mu.Unlock()

	m.acks.Remove(key)
	m.retransmits.Remove(key)

	if delegate := ctx.GetDelegate(); delegate != nil {
		delegate.OnClose(ctx)
	}
}

// GetExchange looks up a live exchange by its table key.
func (m *Manager) GetExchange(localSessionID, exchangeID uint16, role ExchangeRole) (*ExchangeContext, bool) {
	m.mu.RLock()
	defer m.mu.RUnlock()

	ctx, exists := m.exchanges[exchangeKey{
		localSessionID: localSessionID,
		exchangeID:     exchangeID,
		role:           role,
	}]
	return ctx, exists
}

// ExchangeCount returns the number of currently live exchanges.
func (m *Manager) ExchangeCount() int {
	m.mu.RLock()
	defer m.mu.RUnlock()
	return len(m.exchanges)
}

// Close tears down every live exchange and clears the ACK/retransmit tables.
func (m *Manager) Close() {
	m.mu.Lock()
	live := make([]*ExchangeContext, 0, len(m.exchanges))
	for _, ctx := range m.exchanges {
		live = append(live, ctx)
	}
	m.mu.Unlock()

	for _, ctx := range live {
		ctx.Close()
	}

	m.acks.Clear()
	m.retransmits.Clear()
	if m.log != nil {
		m.log.Debugf("manager closed: exchanges=%d", len(live))
	}
}
