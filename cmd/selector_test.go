package cmd

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

// ---------------------------------------------------------------------------
// describeSelector
// ---------------------------------------------------------------------------

func pairValue(t *testing.T, pairs [][2]string, key string) string {
	t.Helper()
	for _, p := range pairs {
		if p[0] == key {
			return p[1]
		}
	}
	t.Fatalf("no %q row in %v", key, pairs)
	return ""
}

func TestDescribeSelector_Signature(t *testing.T) {
	pairs, err := describeSelector("transfer(address to, uint256 amount)")
	require.NoError(t, err)
	assert.Equal(t, "transfer(address,uint256)", pairValue(t, pairs, "Signature"))
	assert.Equal(t, "0xa9059cbb", pairValue(t, pairs, "Selector"))
}

func TestDescribeSelector_Aliases(t *testing.T) {
	pairs, err := describeSelector("function approve(address,uint)")
	require.NoError(t, err)
	assert.Equal(t, "approve(address,uint256)", pairValue(t, pairs, "Signature"))
	assert.Equal(t, "0x095ea7b3", pairValue(t, pairs, "Selector"))
}

func TestDescribeSelector_KnownSelector(t *testing.T) {
	pairs, err := describeSelector("0x70A08231")
	require.NoError(t, err)
	assert.Equal(t, "0x70a08231", pairValue(t, pairs, "Selector"))
	assert.Equal(t, "balanceOf(address)", pairValue(t, pairs, "Signature"))
}

func TestDescribeSelector_UnknownSelector(t *testing.T) {
	pairs, err := describeSelector("0xdeadbeef")
	require.NoError(t, err)
	assert.Equal(t, "unknown", pairValue(t, pairs, "Signature"))
}

func TestDescribeSelector_Invalid(t *testing.T) {
	_, err := describeSelector("noop")
	assert.Error(t, err)
}

// ---------------------------------------------------------------------------
// computeEventTopic
// ---------------------------------------------------------------------------

func TestComputeEventTopic_Transfer(t *testing.T) {
	topic := computeEventTopic("Transfer(address,address,uint256)")
	assert.Equal(t, "0xddf252ad1be2c89b69c2b068fc378daa952ba7f163c4a11628f55a4df523b3ef", topic)
}

func TestComputeEventTopic_Approval(t *testing.T) {
	topic := computeEventTopic("Approval(address,address,uint256)")
	assert.Equal(t, "0x8c5be1e5ebec7d5bd14f71427d1e84f3dd0314c0f7b2291e5b200ac8c7c3b925", topic)
}
