package model

import (
	"math/big"

	"github.com/ethereum/go-ethereum/common"
)

// 链上事件在抓取边界就解码为具体类型，不向外传递裸 log。

// BurnTransfer ERC-20 Transfer(from, to=burn, value)
type BurnTransfer struct {
	From        common.Address
	Value       *big.Int
	BlockNumber uint64
	TxHash      common.Hash
}

// StakedEvent Staked(user, amount)
type StakedEvent struct {
	User        common.Address
	Amount      *big.Int
	BlockNumber uint64
	TxHash      common.Hash
}

// WithdrewEvent Withdrew(user, amount)
type WithdrewEvent struct {
	User        common.Address
	Amount      *big.Int
	BlockNumber uint64
	TxHash      common.Hash
}

// GaveEvent Gave(user, amount)，amount 为捐出的 ETH（wei）
type GaveEvent struct {
	User        common.Address
	Amount      *big.Int
	BlockNumber uint64
	TxHash      common.Hash
}

// RwdEvent Rwd(user, amount)，amount 为奖励的 ETH（wei）
type RwdEvent struct {
	User        common.Address
	Amount      *big.Int
	BlockNumber uint64
	TxHash      common.Hash
}
