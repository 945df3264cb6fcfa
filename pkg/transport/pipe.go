package transport

import (
	"fmt"
	"math/rand"
	"net"
	"sync"
	"time"

	"github.com/pion/transport/v3/test"
)

// Factory creates transport connections, real or virtual, so higher layers
// (pkg/exchange, pkg/session) don't need to know which.
type Factory interface {
	// CreateUDPConn creates a UDP-like packet connection bound to port.
	CreateUDPConn(port int) (net.PacketConn, error)

	// CreateTCPListener creates a TCP-like listener bound to port, or nil
	// if the factory doesn't support TCP.
	CreateTCPListener(port int) (net.Listener, error)
}

// NetworkCondition simulates adverse network behavior over a Pipe: packet
// loss, delay, duplication, and reordering, for exercising MRP without real
// network I/O.
type NetworkCondition struct {
	// DropRate is the probability of dropping a packet, in [0.0, 1.0].
	DropRate float64

	// DelayMin and DelayMax bound a packet's added latency, uniformly
	// distributed between them.
	DelayMin time.Duration
	DelayMax time.Duration

	// DuplicateRate is the probability of sending a packet twice.
	DuplicateRate float64

	// ReorderRate is the probability of delaying a packet by an extra
	// ReorderDelay to simulate it arriving out of order.
	ReorderRate  float64
	ReorderDelay time.Duration
}

// PipeConfig configures a Pipe's message-delivery behavior.
type PipeConfig struct {
	// AutoProcess runs delivery on a background goroutine when true
	// (the default); set false for manual Tick/Process control in
	// deterministic tests.
	AutoProcess bool

	// ProcessInterval is the background goroutine's polling period.
	// Zero means 1ms.
	ProcessInterval time.Duration
}

const defaultProcessInterval = time.Millisecond

// DefaultPipeConfig returns auto-processing enabled at the default
// interval.
func DefaultPipeConfig() PipeConfig {
	return PipeConfig{AutoProcess: true, ProcessInterval: defaultProcessInterval}
}

// Pipe is a bidirectional in-memory packet link between two endpoints,
// wrapping pion's test.Bridge with NetworkCondition simulation on top.
// Used in place of real sockets so exchange/MRP tests are deterministic
// and don't depend on the host network stack.
type Pipe struct {
	bridge *test.Bridge

	mu              sync.RWMutex
	condition       NetworkCondition
	closed          bool
	rng             *rand.Rand
	autoProcess     bool
	processInterval time.Duration
	stopCh          chan struct{}
	wg              sync.WaitGroup
}

// NewPipe builds a Pipe with auto-processing enabled.
func NewPipe() *Pipe {
	return NewPipeWithConfig(DefaultPipeConfig())
}

// NewPipeWithConfig builds a Pipe per config.
func NewPipeWithConfig(config PipeConfig) *Pipe {
	interval := config.ProcessInterval
	if interval == 0 {
		interval = defaultProcessInterval
	}

	p := &Pipe{
		bridge:          test.NewBridge(),
		rng:             rand.New(rand.NewSource(time.Now().UnixNano())),
		autoProcess:     config.AutoProcess,
		processInterval: interval,
		stopCh:          make(chan struct{}),
	}
	if p.autoProcess {
		p.startAutoProcess()
	}
	return p
}

// startAutoProcess launches the background delivery goroutine; callers
// must hold no lock across this call and must own stopCh/wg's current
// generation.
func (p *Pipe) startAutoProcess() {
	p.wg.Add(1)
	go func() {
		defer p.wg.Done()
		ticker := time.NewTicker(p.processInterval)
		defer ticker.Stop()
		for {
			select {
			case <-p.stopCh:
				return
			case <-ticker.C:
				p.bridge.Tick()
			}
		}
	}()
}

// SetAutoProcess toggles background delivery. Disabling it blocks until
// the goroutine has exited, so callers can immediately follow with manual
// Tick/Process calls without a race.
func (p *Pipe) SetAutoProcess(enabled bool) {
	p.mu.Lock()
	defer p.mu.Unlock()

	if p.closed || p.autoProcess == enabled {
		return
	}
	p.autoProcess = enabled

	if enabled {
		p.stopCh = make(chan struct{})
		p.startAutoProcess()
		return
	}
	close(p.stopCh)
	p.wg.Wait()
}

// AutoProcess reports whether background delivery is enabled.
func (p *Pipe) AutoProcess() bool {
	p.mu.RLock()
	defer p.mu.RUnlock()
	return p.autoProcess
}

// SetCondition installs cond for both directions of the pipe.
func (p *Pipe) SetCondition(cond NetworkCondition) {
	p.mu.Lock()
	defer p.mu.Unlock()
	p.condition = cond
}

// Condition returns the currently installed NetworkCondition.
func (p *Pipe) Condition() NetworkCondition {
	p.mu.RLock()
	defer p.mu.RUnlock()
	return p.condition
}

// Conn0 returns endpoint 0's connection.
func (p *Pipe) Conn0() net.Conn { return p.bridge.GetConn0() }

// Conn1 returns endpoint 1's connection.
func (p *Pipe) Conn1() net.Conn { return p.bridge.GetConn1() }

// Tick delivers at most one queued packet per direction, returning how
// many were delivered (0, 1, or 2). Unneeded when AutoProcess is enabled.
func (p *Pipe) Tick() int {
	return p.bridge.Tick()
}

// Process drains every queued packet, returning the total delivered.
// Unneeded when AutoProcess is enabled.
func (p *Pipe) Process() int {
	total := 0
	for {
		n := p.Tick()
		if n == 0 {
			return total
		}
		total += n
	}
}

// Close tears down both endpoints and stops auto-processing.
func (p *Pipe) Close() error {
	p.mu.Lock()
	if p.closed {
		p.mu.Unlock()
		return nil
	}
	p.closed = true
	if p.autoProcess {
		close(p.stopCh)
	}
	p.mu.Unlock()

	p.wg.Wait()

	err0 := p.bridge.GetConn0().Close()
	err1 := p.bridge.GetConn1().Close()
	if err0 != nil {
		return err0
	}
	return err1
}

// PipeAddr is the net.Addr of a Pipe endpoint.
type PipeAddr struct {
	ID   int // 0 or 1
	Port int
}

func (a PipeAddr) Network() string { return "pipe" }
func (a PipeAddr) String() string  { return fmt.Sprintf("pipe:%d:%d", a.ID, a.Port) }

// PipePacketConn adapts one Pipe endpoint to net.PacketConn so it plugs
// into the same transport stack as a real UDP socket.
type PipePacketConn struct {
	conn     net.Conn
	localID  int
	port     int
	peerAddr net.Addr
	pipe     *Pipe
}

// ReadFrom reads one packet; the returned address is always the pipe's
// single peer.
func (c *PipePacketConn) ReadFrom(b []byte) (n int, addr net.Addr, err error) {
	n, err = c.conn.Read(b)
	return n, c.peerAddr, err
}

// WriteTo writes b, applying the pipe's configured NetworkCondition. addr
// is ignored — a pipe has exactly one peer.
func (c *PipePacketConn) WriteTo(b []byte, addr net.Addr) (n int, err error) {
	if c.pipe == nil {
		return c.conn.Write(b)
	}

	cond, rng := c.pipe.conditionSnapshot()

	if cond.DropRate > 0 && rng.Float64() < cond.DropRate {
		return len(b), nil
	}

	if delay := simulatedDelay(cond, rng); delay > 0 {
		time.Sleep(delay)
	}

	if cond.DuplicateRate > 0 && rng.Float64() < cond.DuplicateRate {
		if _, err := c.conn.Write(b); err != nil {
			return 0, err
		}
	}

	return c.conn.Write(b)
}

// conditionSnapshot returns the pipe's current condition and RNG under its
// lock, so callers can use both without holding the lock themselves.
func (p *Pipe) conditionSnapshot() (NetworkCondition, *rand.Rand) {
	p.mu.RLock()
	defer p.mu.RUnlock()
	return p.condition, p.rng
}

// simulatedDelay returns the delay WriteTo should sleep for under cond,
// uniformly distributed across [DelayMin, DelayMax).
func simulatedDelay(cond NetworkCondition, rng *rand.Rand) time.Duration {
	if cond.DelayMax <= 0 {
		return 0
	}
	delay := cond.DelayMin
	if cond.DelayMax > cond.DelayMin {
		delay += time.Duration(rng.Int63n(int64(cond.DelayMax - cond.DelayMin)))
	}
	return delay
}

// Close closes the underlying connection.
func (c *PipePacketConn) Close() error { return c.conn.Close() }

// LocalAddr returns this endpoint's PipeAddr.
func (c *PipePacketConn) LocalAddr() net.Addr {
	return PipeAddr{ID: c.localID, Port: c.port}
}

func (c *PipePacketConn) SetDeadline(t time.Time) error      { return c.conn.SetDeadline(t) }
func (c *PipePacketConn) SetReadDeadline(t time.Time) error  { return c.conn.SetReadDeadline(t) }
func (c *PipePacketConn) SetWriteDeadline(t time.Time) error { return c.conn.SetWriteDeadline(t) }

var _ net.PacketConn = (*PipePacketConn)(nil)

// PipeFactory is a Factory backed by a shared Pipe, for in-memory tests
// that need no real network I/O.
type PipeFactory struct {
	mu          sync.Mutex
	peerFactory *PipeFactory
	pipe        *Pipe
	localID     int // 0 or 1
	udpConn     *PipePacketConn
}

// NewPipeFactoryPair builds two PipeFactory instances joined by one Pipe,
// auto-processing enabled.
func NewPipeFactoryPair() (*PipeFactory, *PipeFactory) {
	return NewPipeFactoryPairWithConfig(DefaultPipeConfig())
}

// NewPipeFactoryPairWithConfig builds a joined PipeFactory pair per config.
func NewPipeFactoryPairWithConfig(config PipeConfig) (*PipeFactory, *PipeFactory) {
	pipe := NewPipeWithConfig(config)

	f0 := &PipeFactory{pipe: pipe, localID: 0}
	f1 := &PipeFactory{pipe: pipe, localID: 1}
	f0.peerFactory = f1
	f1.peerFactory = f0

	return f0, f1
}

// Pipe returns the underlying Pipe, for SetAutoProcess/SetCondition/manual
// Tick control.
func (f *PipeFactory) Pipe() *Pipe {
	return f.pipe
}

// LocalAddr returns this side's PipeAddr.
func (f *PipeFactory) LocalAddr() net.Addr {
	return PipeAddr{ID: f.localID, Port: DefaultPort}
}

// PeerAddr returns the other side's PipeAddr.
func (f *PipeFactory) PeerAddr() net.Addr {
	return PipeAddr{ID: 1 - f.localID, Port: DefaultPort}
}

// CreateUDPConn returns this factory's (lazily created, memoized)
// PipePacketConn.
func (f *PipeFactory) CreateUDPConn(port int) (net.PacketConn, error) {
	f.mu.Lock()
	defer f.mu.Unlock()

	if f.udpConn != nil {
		return f.udpConn, nil
	}

	conn := f.pipe.Conn1()
	if f.localID == 0 {
		conn = f.pipe.Conn0()
	}

	f.udpConn = &PipePacketConn{
		conn:     conn,
		localID:  f.localID,
		port:     port,
		peerAddr: PipeAddr{ID: 1 - f.localID, Port: port},
		pipe:     f.pipe,
	}
	return f.udpConn, nil
}

// CreateTCPListener always returns nil: pipes carry Matter's UDP traffic
// only, which is all the in-memory test suite exercises.
func (f *PipeFactory) CreateTCPListener(port int) (net.Listener, error) {
	return nil, nil
}

// SetCondition installs cond on this factory's underlying pipe.
func (f *PipeFactory) SetCondition(cond NetworkCondition) {
	f.pipe.SetCondition(cond)
}

var _ Factory = (*PipeFactory)(nil)
