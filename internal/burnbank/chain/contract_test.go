package chain

import (
	"math/big"
	"testing"

	"github.com/ethereum/go-ethereum/common"
	"github.com/stretchr/testify/require"
)

func TestMethodID(t *testing.T) {
	// ERC-20 标准选择器
	require.Equal(t, []byte{0x70, 0xa0, 0x82, 0x31}, methodID("balanceOf(address)"))
	require.Equal(t, []byte{0x18, 0x16, 0x0d, 0xdd}, methodID("totalSupply()"))
}

func TestCallData(t *testing.T) {
	addr := common.HexToAddress("0x1111111111111111111111111111111111111111")
	data := callData(selBalanceOf, addr.Bytes())

	require.Len(t, data, 36)
	require.Equal(t, selBalanceOf, data[:4])
	require.Equal(t, common.LeftPadBytes(addr.Bytes(), 32), data[4:])
}

func TestParseUint256(t *testing.T) {
	value := big.NewInt(123456789)
	parsed, err := parseUint256(common.LeftPadBytes(value.Bytes(), 32))
	require.NoError(t, err)
	require.Zero(t, value.Cmp(parsed))

	// 多个返回值时取最后一个字
	double := append(common.LeftPadBytes(big.NewInt(1).Bytes(), 32), common.LeftPadBytes(value.Bytes(), 32)...)
	parsed, err = parseUint256(double)
	require.NoError(t, err)
	require.Zero(t, value.Cmp(parsed))

	_, err = parseUint256([]byte{0x01})
	require.Error(t, err)
}

func TestParseAddress(t *testing.T) {
	addr := common.HexToAddress("0x2222222222222222222222222222222222222222")
	parsed, err := parseAddress(common.LeftPadBytes(addr.Bytes(), 32))
	require.NoError(t, err)
	require.Equal(t, addr, parsed)

	_, err = parseAddress([]byte{0x01, 0x02})
	require.Error(t, err)
}
