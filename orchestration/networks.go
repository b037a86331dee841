package orchestration

import (
	"fmt"
	"math/big"
	"strings"

	"github.com/ethereum/go-ethereum/params"
)

// DefaultMaxPriorityFee is the priority fee attached to every deployment.
const DefaultMaxPriorityFee = "10 wei"

// NetworkParams are the per chain values echoed to the audit log. Fees are
// kept in the human form used by operators, e.g. "0.1 gwei".
type NetworkParams struct {
	Name           string
	MaxFee         string
	MaxPriorityFee string
	Explorer       string
}

type networkKey struct {
	ecosystem string
	network   string
}

// networks is keyed by ecosystem and network. An empty network matches any
// network of the ecosystem without a more specific entry.
var networks = map[networkKey]NetworkParams{
	{"arbitrum", ""}:        {MaxFee: "0.1 gwei", Explorer: "https://arbiscan.io"},
	{"arbitrum", "sepolia"}: {MaxFee: "0.1 gwei", Explorer: "https://sepolia.arbiscan.io"},
	{"optimism", ""}:        {MaxFee: "0.0001 gwei", Explorer: "https://optimistic.etherscan.io"},
	{"taiko", ""}:           {MaxFee: "0.01 gwei", Explorer: "https://taikoscan.io"},
	{"taiko", "sepolia"}:    {MaxFee: "0.01 gwei", Explorer: "https://testnet.sonicscan.org"},
	{"sonic", ""}:           {MaxFee: "66 gwei", Explorer: "https://sonicscan.org/"},
}

var fallbackNetwork = NetworkParams{MaxFee: "0.1 gwei", Explorer: "https://sepolia.arbiscan.io"}

// Lookup returns the parameters of ecosystem/network, falling back to the
// ecosystem entry and then to the default table row.
func Lookup(ecosystem, network string) NetworkParams {
	ecosystem = strings.ToLower(ecosystem)
	network = strings.ToLower(network)

	p, ok := networks[networkKey{ecosystem, network}]
	if !ok {
		p, ok = networks[networkKey{ecosystem, ""}]
	}
	if !ok {
		p = fallbackNetwork
	}
	p.Name = ecosystem
	p.MaxPriorityFee = DefaultMaxPriorityFee
	return p
}

// AddressLink returns the explorer page of address.
func (p NetworkParams) AddressLink(address string) string {
	return fmt.Sprintf("%s/address/%s", strings.TrimSuffix(p.Explorer, "/"), address)
}

// MaxFeeWei converts MaxFee to wei.
func (p NetworkParams) MaxFeeWei() (*big.Int, error) {
	return ParseFee(p.MaxFee)
}

// MaxPriorityFeeWei converts MaxPriorityFee to wei.
func (p NetworkParams) MaxPriorityFeeWei() (*big.Int, error) {
	return ParseFee(p.MaxPriorityFee)
}

var denominations = map[string]int64{
	"wei":   params.Wei,
	"gwei":  params.GWei,
	"ether": params.Ether,
}

// ParseFee parses "<amount> <unit>" with unit one of wei, gwei or ether.
// The amount may be fractional as long as the result is a whole number of wei.
func ParseFee(fee string) (*big.Int, error) {
	fields := strings.Fields(fee)
	if len(fields) != 2 {
		return nil, fmt.Errorf("invalid fee %q: expected \"<amount> <unit>\"", fee)
	}
	unit, ok := denominations[strings.ToLower(fields[1])]
	if !ok {
		return nil, fmt.Errorf("invalid fee %q: unknown unit %q", fee, fields[1])
	}
	amount, ok := new(big.Rat).SetString(fields[0])
	if !ok || amount.Sign() < 0 {
		return nil, fmt.Errorf("invalid fee %q: bad amount %q", fee, fields[0])
	}
	wei := amount.Mul(amount, new(big.Rat).SetInt64(unit))
	if !wei.IsInt() {
		return nil, fmt.Errorf("invalid fee %q: not a whole number of wei", fee)
	}
	return new(big.Int).Set(wei.Num()), nil
}
