package chain

import (
	"fmt"
	"math/big"

	"burnbank-stats/internal/burnbank/model"

	"github.com/ethereum/go-ethereum/common"
	"github.com/ethereum/go-ethereum/core/types"
	"github.com/ethereum/go-ethereum/crypto"
)

// 事件 topic0（事件签名 keccak）
var (
	TransferTopic = crypto.Keccak256Hash([]byte("Transfer(address,address,uint256)"))
	StakedTopic   = crypto.Keccak256Hash([]byte("Staked(address,uint256)"))
	WithdrewTopic = crypto.Keccak256Hash([]byte("Withdrew(address,uint256)"))
	GaveTopic     = crypto.Keccak256Hash([]byte("Gave(address,uint256)"))
	RwdTopic      = crypto.Keccak256Hash([]byte("Rwd(address,uint256)"))
)

// TransferToQuery 构造 Transfer(*, to) 的过滤条件
func TransferToQuery(token, to common.Address) LogQuery {
	return LogQuery{
		Address: token,
		Topics: [][]common.Hash{
			{TransferTopic},
			nil,
			{common.BytesToHash(common.LeftPadBytes(to.Bytes(), 32))},
		},
	}
}

// EventQuery 构造单 indexed 参数事件的过滤条件
func EventQuery(contract common.Address, topic0 common.Hash) LogQuery {
	return LogQuery{
		Address: contract,
		Topics:  [][]common.Hash{{topic0}},
	}
}

// userAmount 解码 Event(address indexed user, uint256 amount) 形状的日志
func userAmount(log types.Log) (common.Address, *big.Int, error) {
	if len(log.Topics) < 2 {
		return common.Address{}, nil, fmt.Errorf("log %s missing indexed user topic", log.TxHash.Hex())
	}
	if len(log.Data) < 32 {
		return common.Address{}, nil, fmt.Errorf("log %s has short data: %d bytes", log.TxHash.Hex(), len(log.Data))
	}
	user := common.BytesToAddress(log.Topics[1].Bytes()[12:])
	amount := new(big.Int).SetBytes(log.Data[:32])
	return user, amount, nil
}

// DecodeBurnTransfer 在抓取边界把 Transfer 日志解码成类型化事件
func DecodeBurnTransfer(log types.Log) (model.BurnTransfer, error) {
	if len(log.Topics) < 3 {
		return model.BurnTransfer{}, fmt.Errorf("transfer log %s missing topics", log.TxHash.Hex())
	}
	if len(log.Data) < 32 {
		return model.BurnTransfer{}, fmt.Errorf("transfer log %s has short data: %d bytes", log.TxHash.Hex(), len(log.Data))
	}
	return model.BurnTransfer{
		From:        common.BytesToAddress(log.Topics[1].Bytes()[12:]),
		Value:       new(big.Int).SetBytes(log.Data[:32]),
		BlockNumber: log.BlockNumber,
		TxHash:      log.TxHash,
	}, nil
}

func DecodeStaked(log types.Log) (model.StakedEvent, error) {
	user, amount, err := userAmount(log)
	if err != nil {
		return model.StakedEvent{}, err
	}
	return model.StakedEvent{User: user, Amount: amount, BlockNumber: log.BlockNumber, TxHash: log.TxHash}, nil
}

func DecodeWithdrew(log types.Log) (model.WithdrewEvent, error) {
	user, amount, err := userAmount(log)
	if err != nil {
		return model.WithdrewEvent{}, err
	}
	return model.WithdrewEvent{User: user, Amount: amount, BlockNumber: log.BlockNumber, TxHash: log.TxHash}, nil
}

func DecodeGave(log types.Log) (model.GaveEvent, error) {
	user, amount, err := userAmount(log)
	if err != nil {
		return model.GaveEvent{}, err
	}
	return model.GaveEvent{User: user, Amount: amount, BlockNumber: log.BlockNumber, TxHash: log.TxHash}, nil
}

func DecodeRwd(log types.Log) (model.RwdEvent, error) {
	user, amount, err := userAmount(log)
	if err != nil {
		return model.RwdEvent{}, err
	}
	return model.RwdEvent{User: user, Amount: amount, BlockNumber: log.BlockNumber, TxHash: log.TxHash}, nil
}
