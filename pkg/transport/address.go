package transport

import (
	"fmt"
	"net"
)

// PeerAddress identifies a remote peer: a network address plus which
// transport it was reached (or should be reached) over.
type PeerAddress struct {
	Addr          net.Addr
	TransportType TransportType
}

func (p PeerAddress) String() string {
	if p.Addr == nil {
		return fmt.Sprintf("%s:<nil>", p.TransportType)
	}
	return fmt.Sprintf("%s:%s", p.TransportType, p.Addr)
}

// IsValid reports whether p has a defined transport type and a non-nil
// address.
func (p PeerAddress) IsValid() bool {
	return p.TransportType.IsValid() && p.Addr != nil
}

// NewUDPPeerAddress wraps addr as a UDP PeerAddress.
func NewUDPPeerAddress(addr net.Addr) PeerAddress {
	return PeerAddress{Addr: addr, TransportType: TransportTypeUDP}
}

// NewTCPPeerAddress wraps addr as a TCP PeerAddress.
func NewTCPPeerAddress(addr net.Addr) PeerAddress {
	return PeerAddress{Addr: addr, TransportType: TransportTypeTCP}
}

// UDPAddrFromString parses addr and wraps it as a UDP PeerAddress.
func UDPAddrFromString(addr string) (PeerAddress, error) {
	resolved, err := net.ResolveUDPAddr("udp", addr)
	if err != nil {
		return PeerAddress{}, err
	}
	return NewUDPPeerAddress(resolved), nil
}

// TCPAddrFromString parses addr and wraps it as a TCP PeerAddress.
func TCPAddrFromString(addr string) (PeerAddress, error) {
	resolved, err := net.ResolveTCPAddr("tcp", addr)
	if err != nil {
		return PeerAddress{}, err
	}
	return NewTCPPeerAddress(resolved), nil
}
