package service

import (
	"math/big"

	"github.com/shopspring/decimal"
)

// 金额换算只发生在装配展示 DTO 的边界，聚合阶段始终是 big.Int

func toUnits(amount *big.Int, decimals int32) float64 {
	if amount == nil {
		return 0
	}
	return decimal.NewFromBigInt(amount, -decimals).InexactFloat64()
}

func toEth(amount *big.Int) float64 {
	return toUnits(amount, 18)
}
