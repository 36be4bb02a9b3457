// Package aggregate 把链上事件流折叠为每地址累计值与排行榜。
// 折叠满足交换律，事件顺序不影响结果；全程使用 big.Int 精确整数运算。
package aggregate

import (
	"math/big"
	"sort"

	"github.com/ethereum/go-ethereum/common"
)

// Delta 单条事件对某地址的增减量
type Delta struct {
	Address common.Address
	Amount  *big.Int
}

// Total 某地址的累计量与参与次数。
// Count 只统计增量事件次数，提取不减少次数（展示“质押过几次”而非当前笔数）。
type Total struct {
	Amount *big.Int
	Count  int
}

// Fold 把增量与减量事件折叠为每地址累计值。
// amount = sum(increments) - sum(decrements)，减量可使累计值为负。
func Fold(increments, decrements []Delta) map[common.Address]*Total {
	totals := make(map[common.Address]*Total)

	for _, d := range increments {
		t, ok := totals[d.Address]
		if !ok {
			t = &Total{Amount: new(big.Int)}
			totals[d.Address] = t
		}
		t.Amount.Add(t.Amount, d.Amount)
		t.Count++
	}

	for _, d := range decrements {
		t, ok := totals[d.Address]
		if !ok {
			// 没有对应增量的提取不建新条目，与上游聚合行为一致
			continue
		}
		t.Amount.Sub(t.Amount, d.Amount)
	}

	return totals
}

// Ranked 排行榜条目
type Ranked struct {
	Rank    int
	Address common.Address
	Amount  *big.Int
	Count   int
}

// Rank 过滤掉累计值非正的地址，按累计值降序排名并截断到 limit。
// activeCount 是截断前的有效参与者总数，金额完全相等时先后顺序不作保证。
func Rank(totals map[common.Address]*Total, limit int) (entries []Ranked, activeCount int) {
	for addr, t := range totals {
		if t.Amount.Sign() <= 0 {
			continue
		}
		entries = append(entries, Ranked{
			Address: addr,
			Amount:  t.Amount,
			Count:   t.Count,
		})
	}
	activeCount = len(entries)

	sort.Slice(entries, func(i, j int) bool {
		return entries[i].Amount.Cmp(entries[j].Amount) > 0
	})

	if limit > 0 && len(entries) > limit {
		entries = entries[:limit]
	}
	for i := range entries {
		entries[i].Rank = i + 1
	}
	return entries, activeCount
}
