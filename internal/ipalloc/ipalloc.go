// Package ipalloc assigns client addresses next to the server address.
package ipalloc

import (
	"errors"
	"fmt"
	"net/netip"

	"github.com/sirupsen/logrus"
)

var ErrAddressAllocation = errors.New("address allocation failed")

// AddressAllocationError reports a computed last octet outside 0-255.
type AddressAllocationError struct {
	Server netip.Addr
	Index  int
	Octet  int
}

func (e *AddressAllocationError) Error() string {
	return fmt.Sprintf("client %d of server %s gets last octet %d, outside the address range", e.Index, e.Server, e.Octet)
}

func (e *AddressAllocationError) Is(target error) bool {
	return target == ErrAddressAllocation
}

// ClientAddress returns a.b.c.(d+index+1) for server a.b.c.d. The last octet
// is not bounded, so large indices produce text that is not a valid address.
func ClientAddress(server netip.Addr, index int) string {
	octets := server.As4()
	return fmt.Sprintf("%d.%d.%d.%d", octets[0], octets[1], octets[2], lastOctet(server, index))
}

func lastOctet(server netip.Addr, index int) int {
	return int(server.As4()[3]) + index + 1
}

// Allocator wraps ClientAddress with input checks. In strict mode an octet
// past 255 is an error; otherwise it is only logged.
type Allocator struct {
	Strict bool
	Logger logrus.FieldLogger
}

func (a Allocator) Allocate(server netip.Addr, index int) (string, error) {
	if !server.Is4() {
		return "", fmt.Errorf("server address %s is not IPv4", server)
	}
	if index < 0 {
		return "", fmt.Errorf("client index %d is negative", index)
	}

	addr := ClientAddress(server, index)
	if octet := lastOctet(server, index); octet > 255 {
		err := &AddressAllocationError{Server: server, Index: index, Octet: octet}
		if a.Strict {
			return "", err
		}
		a.logger().WithError(err).WithField("address", addr).Warn("client address is out of range")
	}
	return addr, nil
}

func (a Allocator) logger() logrus.FieldLogger {
	if a.Logger == nil {
		return logrus.StandardLogger()
	}
	return a.Logger
}
