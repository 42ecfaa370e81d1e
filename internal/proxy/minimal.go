package proxy

import (
	"bytes"

	"github.com/ethereum/go-ethereum/common"
	"github.com/ethereum/go-ethereum/common/hexutil"
)

// minimalProxy describes a clone pattern whose runtime code embeds the
// implementation address at a fixed byte offset.
type minimalProxy struct {
	name   string
	prefix []byte
	offset int
}

var minimalProxies = []minimalProxy{
	{"eip-1167", hexutil.MustDecode("0x363d3d373d3d3d363d73"), 10},
	{"0age", hexutil.MustDecode("0x3d3d3d3d363d3d37363d73"), 11},
	{"eip-7511", hexutil.MustDecode("0x365f5f375f5f365f73"), 9},
	{"vyper", hexutil.MustDecode("0x366000600037611000600036600073"), 15},
	{"vyper-beta", hexutil.MustDecode("0x36600080376020600036600073"), 13},
	{"0xsplits", hexutil.MustDecode("0x36603057343d5230"), 60},
}

// MinimalProxyTarget returns the implementation address embedded in a
// minimal proxy's runtime code.
func MinimalProxyTarget(code []byte) (common.Address, bool) {
	for _, p := range minimalProxies {
		if !bytes.HasPrefix(code, p.prefix) || len(code) < p.offset+common.AddressLength {
			continue
		}
		return common.BytesToAddress(code[p.offset : p.offset+common.AddressLength]), true
	}
	return common.Address{}, false
}
