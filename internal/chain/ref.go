package chain

import (
	"fmt"
	"strings"

	"github.com/ethereum/go-ethereum/common"
)

// ContractRef names a contract deployment: an address on one chain.
type ContractRef struct {
	ChainID int64
	Address common.Address
}

// Key returns "<chainID>:<checksummed address>". Differently cased spellings
// of one address produce the same key.
func (r ContractRef) Key() string {
	return fmt.Sprintf("%d:%s", r.ChainID, r.Address.Hex())
}

func (r ContractRef) String() string { return r.Key() }

// ParseAddress validates a 0x-prefixed 20-byte hex address. Mixed-case input
// must carry a valid EIP-55 checksum.
func ParseAddress(s string) (common.Address, error) {
	s = strings.TrimSpace(s)
	if !common.IsHexAddress(s) || !has0xPrefix(s) {
		return common.Address{}, fmt.Errorf("invalid address %q", s)
	}
	addr := common.HexToAddress(s)
	body := s[2:]
	if body != strings.ToLower(body) && body != strings.ToUpper(body) && addr.Hex() != s {
		return common.Address{}, fmt.Errorf("bad EIP-55 checksum for %q (expected %s)", s, addr.Hex())
	}
	return addr, nil
}
