package unittest

import (
	"crypto/rand"

	"github.com/ethereum/go-ethereum/common"
)

// AddressFixture returns a random non-zero address.
func AddressFixture() common.Address {
	var addr common.Address
	for addr == (common.Address{}) {
		_, _ = rand.Read(addr[:])
	}
	return addr
}

// AddressListFixture returns n distinct random addresses.
func AddressListFixture(n int) []common.Address {
	seen := make(map[common.Address]struct{}, n)
	list := make([]common.Address, 0, n)
	for len(list) < n {
		addr := AddressFixture()
		if _, ok := seen[addr]; ok {
			continue
		}
		seen[addr] = struct{}{}
		list = append(list, addr)
	}
	return list
}

// LogicFixture returns a non-empty byte string usable as blueprint logic.
func LogicFixture() []byte {
	logic := make([]byte, 32)
	_, _ = rand.Read(logic)
	return logic
}
