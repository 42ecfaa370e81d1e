package selectors

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestNormalize(t *testing.T) {
	tests := []struct {
		in   string
		want string
	}{
		{"transfer(address,uint256)", "transfer(address,uint256)"},
		{"transfer(address to, uint256 amount)", "transfer(address,uint256)"},
		{"approve(  address  spender ,  uint256  amount  )", "approve(address,uint256)"},
		{"name()", "name()"},
		{"function decimals() view returns (uint8)", "decimals()"},
		{"function balanceOf(address owner) external view returns (uint256 balance)", "balanceOf(address)"},
		{"setURI(string memory newuri)", "setURI(string)"},
		{"multicall(bytes[] calldata data)", "multicall(bytes[])"},
		{"Transfer(address indexed from, address indexed to, uint256 value)", "Transfer(address,address,uint256)"},
		{"mint(uint amount)", "mint(uint256)"},
		{"batch(uint[2][] memory grid)", "batch(uint256[2][])"},
		{"aggregate3((address target, bool allowFailure, bytes callData)[] calls)", "aggregate3((address,bool,bytes)[])"},
		{"nested((uint256,(address,bytes32)) p, int x)", "nested((uint256,(address,bytes32)),int256)"},
		{"exec(tuple(address,uint256) call)", "exec((address,uint256))"},
		{"pay(address payable to)", "pay(address)"},
	}
	for _, tt := range tests {
		t.Run(tt.in, func(t *testing.T) {
			got, err := Normalize(tt.in)
			require.NoError(t, err)
			assert.Equal(t, tt.want, got)
		})
	}
}

func TestNormalizeErrors(t *testing.T) {
	for _, in := range []string{
		"",
		"noop",
		"(address)",
		"function (uint256)",
		"transfer(address,uint256",
		"transfer(address,uint256))",
		"f((uint256)",
		"f(uint256,,address)",
		"decimals() view returns (uint8",
		"bad-name()",
	} {
		t.Run(in, func(t *testing.T) {
			_, err := Normalize(in)
			assert.ErrorIs(t, err, ErrInvalidSignature)
		})
	}
}

func TestSelectorOf(t *testing.T) {
	tests := map[string]string{
		"decimals()":                               "0x313ce567",
		"function decimals() view returns (uint8)": "0x313ce567",
		"balanceOf(address)":                       "0x70a08231",
		"balanceOf(address owner)":                 "0x70a08231",
		"transfer(address,uint256)":                "0xa9059cbb",
		"approve(address,uint256)":                 "0x095ea7b3",
		"supportsInterface(bytes4 interfaceId)":    "0x01ffc9a7",
		"0x70A08231":                               "0x70a08231",
	}
	for in, want := range tests {
		got, err := SelectorOf(in)
		require.NoError(t, err, in)
		assert.Equal(t, want, got, in)
	}
}

func TestSelectorOfInvalid(t *testing.T) {
	_, err := SelectorOf("not a signature")
	assert.ErrorIs(t, err, ErrInvalidSignature)
}

func TestIsSelector(t *testing.T) {
	assert.True(t, IsSelector("0xa9059cbb"))
	assert.True(t, IsSelector("0XA9059CBB"))
	assert.False(t, IsSelector("a9059cbb"))
	assert.False(t, IsSelector("0xa9059cb"))
	assert.False(t, IsSelector("0xa9059cbbb"))
	assert.False(t, IsSelector("0xa9059cbg"))
}

func TestLookup(t *testing.T) {
	sig, ok := Lookup("0xa9059cbb")
	require.True(t, ok)
	assert.Equal(t, "transfer(address,uint256)", sig)

	sig, ok = Lookup("0x00fdd58e")
	require.True(t, ok)
	assert.Equal(t, "balanceOf(address,uint256)", sig)

	_, ok = Lookup("0xdeadbeef")
	assert.False(t, ok)
}
