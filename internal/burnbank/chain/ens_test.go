package chain

import (
	"math/big"
	"testing"

	"github.com/ethereum/go-ethereum/common"
	"github.com/stretchr/testify/require"
)

// EIP-137 参考向量
func TestNamehash(t *testing.T) {
	require.Equal(t,
		common.Hash{},
		Namehash(""),
	)
	require.Equal(t,
		"0x93cdeb708b7545dc668eb9280176169d1c33cfd8ed6f04690a0bcc88a93fc4ae",
		Namehash("eth").Hex(),
	)
	require.Equal(t,
		"0xde9b09fd7c5f901e23a3f19fecc54828e9c848539801e86591bd9801b019f84f",
		Namehash("foo.eth").Hex(),
	)
}

func TestReverseNode(t *testing.T) {
	addr := common.HexToAddress("0x1111111111111111111111111111111111111111")
	// 反向节点就是 <小写地址去 0x>.addr.reverse 的 namehash
	require.Equal(t,
		Namehash("1111111111111111111111111111111111111111.addr.reverse"),
		reverseNode(addr),
	)
}

func TestParseString(t *testing.T) {
	name := "vitalik.eth"
	data := make([]byte, 0, 96)
	data = append(data, common.LeftPadBytes(big.NewInt(32).Bytes(), 32)...)
	data = append(data, common.LeftPadBytes(big.NewInt(int64(len(name))).Bytes(), 32)...)
	data = append(data, common.RightPadBytes([]byte(name), 32)...)

	parsed, err := parseString(data)
	require.NoError(t, err)
	require.Equal(t, name, parsed)
}

func TestParseString_Malformed(t *testing.T) {
	_, err := parseString([]byte{0x01})
	require.Error(t, err)

	// 偏移量越界
	bad := make([]byte, 64)
	bad[31] = 0xff
	_, err = parseString(bad)
	require.Error(t, err)
}
