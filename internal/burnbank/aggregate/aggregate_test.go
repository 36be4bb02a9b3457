package aggregate

import (
	"math/big"
	"testing"

	"github.com/ethereum/go-ethereum/common"
	"github.com/stretchr/testify/require"
)

var (
	addrA = common.HexToAddress("0x1111111111111111111111111111111111111111")
	addrB = common.HexToAddress("0x2222222222222222222222222222222222222222")
	addrC = common.HexToAddress("0x3333333333333333333333333333333333333333")
)

func delta(addr common.Address, amount int64) Delta {
	return Delta{Address: addr, Amount: big.NewInt(amount)}
}

func TestFold(t *testing.T) {
	totals := Fold(
		[]Delta{delta(addrA, 100), delta(addrA, 50), delta(addrB, 30)},
		[]Delta{delta(addrA, 30)},
	)

	require.Len(t, totals, 2)
	require.Equal(t, int64(120), totals[addrA].Amount.Int64())
	require.Equal(t, 2, totals[addrA].Count)
	require.Equal(t, int64(30), totals[addrB].Amount.Int64())
	require.Equal(t, 1, totals[addrB].Count)
}

func TestFold_DecrementWithoutIncrement(t *testing.T) {
	totals := Fold(nil, []Delta{delta(addrA, 50)})
	require.Empty(t, totals)
}

func TestFold_OrderIndependent(t *testing.T) {
	increments := []Delta{delta(addrA, 100), delta(addrB, 200), delta(addrA, 50)}
	decrements := []Delta{delta(addrB, 70), delta(addrA, 30)}

	forward := Fold(increments, decrements)
	reversed := Fold(
		[]Delta{increments[2], increments[1], increments[0]},
		[]Delta{decrements[1], decrements[0]},
	)

	require.Len(t, reversed, len(forward))
	for addr, want := range forward {
		got := reversed[addr]
		require.NotNil(t, got)
		require.Zero(t, want.Amount.Cmp(got.Amount))
		require.Equal(t, want.Count, got.Count)
	}
}

func TestRank(t *testing.T) {
	totals := map[common.Address]*Total{
		addrA: {Amount: big.NewInt(120), Count: 2},
		addrB: {Amount: big.NewInt(300), Count: 1},
		addrC: {Amount: big.NewInt(50), Count: 3},
	}

	entries, active := Rank(totals, 2)
	require.Equal(t, 3, active)
	require.Len(t, entries, 2)

	require.Equal(t, 1, entries[0].Rank)
	require.Equal(t, addrB, entries[0].Address)
	require.Equal(t, 2, entries[1].Rank)
	require.Equal(t, addrA, entries[1].Address)
}

func TestRank_FiltersNonPositive(t *testing.T) {
	totals := map[common.Address]*Total{
		addrA: {Amount: big.NewInt(100), Count: 1},
		addrB: {Amount: big.NewInt(0), Count: 1},
		addrC: {Amount: big.NewInt(-20), Count: 2}, // 提取超过质押
	}

	entries, active := Rank(totals, 10)
	require.Equal(t, 1, active)
	require.Len(t, entries, 1)
	require.Equal(t, addrA, entries[0].Address)
}

func TestRank_EmptyTotals(t *testing.T) {
	entries, active := Rank(map[common.Address]*Total{}, 10)
	require.Zero(t, active)
	require.Empty(t, entries)
}
