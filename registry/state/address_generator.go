package state

import (
	"bytes"
	"fmt"
	"sort"

	"github.com/ethereum/go-ethereum/common"
	"github.com/ethereum/go-ethereum/crypto"
	"github.com/ethereum/go-ethereum/rlp"
)

// ContractStartNonce is the counter value of a freshly created contract
// account (EIP-161). Externally owned accounts start at zero.
const ContractStartNonce uint64 = 1

// AddressGenerator hands out new addresses per creator. The address of the
// n-th object created by an account depends only on the account and n, never
// on what is being created.
//
// AddressGenerator is not safe for concurrent use; the owner serializes access.
type AddressGenerator struct {
	nonces map[common.Address]uint64
}

type nonceEntry struct {
	Account common.Address
	Nonce   uint64
}

func NewAddressGenerator() *AddressGenerator {
	return &AddressGenerator{
		nonces: make(map[common.Address]uint64),
	}
}

// AddressGeneratorFromBytes restores a generator serialized with Bytes.
func AddressGeneratorFromBytes(b []byte) (*AddressGenerator, error) {
	g := NewAddressGenerator()
	if len(b) == 0 {
		return g, nil
	}

	var entries []nonceEntry
	if err := rlp.DecodeBytes(b, &entries); err != nil {
		return nil, fmt.Errorf("could not decode address generator state: %w", err)
	}
	for _, e := range entries {
		g.nonces[e.Account] = e.Nonce
	}
	return g, nil
}

// Nonce returns the number of objects creator has created so far, offset by
// its start nonce.
func (g *AddressGenerator) Nonce(creator common.Address) uint64 {
	return g.nonces[creator]
}

// SetNonce overwrites the counter of creator. Used to undo an allocation
// whose surrounding operation did not commit.
func (g *AddressGenerator) SetNonce(creator common.Address, nonce uint64) {
	if nonce == 0 {
		delete(g.nonces, creator)
		return
	}
	g.nonces[creator] = nonce
}

// InitContract marks address as a contract account so that its own creations
// start at ContractStartNonce. It is a no-op for accounts that already
// created something.
func (g *AddressGenerator) InitContract(address common.Address) {
	if _, ok := g.nonces[address]; !ok {
		g.nonces[address] = ContractStartNonce
	}
}

// CurrentAddress returns the address the next call to NextAddress will
// return for creator, without advancing the counter.
func (g *AddressGenerator) CurrentAddress(creator common.Address) common.Address {
	return crypto.CreateAddress(creator, g.nonces[creator])
}

// NextAddress allocates the next address of creator and advances its counter.
func (g *AddressGenerator) NextAddress(creator common.Address) common.Address {
	nonce := g.nonces[creator]
	g.nonces[creator] = nonce + 1
	return crypto.CreateAddress(creator, nonce)
}

// AddressCount returns the number of accounts tracked by the generator.
func (g *AddressGenerator) AddressCount() int {
	return len(g.nonces)
}

// Bytes serializes the generator state deterministically.
func (g *AddressGenerator) Bytes() []byte {
	entries := make([]nonceEntry, 0, len(g.nonces))
	for account, nonce := range g.nonces {
		entries = append(entries, nonceEntry{Account: account, Nonce: nonce})
	}
	sort.Slice(entries, func(i, j int) bool {
		return bytes.Compare(entries[i].Account[:], entries[j].Account[:]) < 0
	})

	b, err := rlp.EncodeToBytes(entries)
	if err != nil {
		// a list of fixed size arrays and integers always encodes
		panic(fmt.Sprintf("could not encode address generator state: %v", err))
	}
	return b
}
