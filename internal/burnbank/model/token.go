package model

import (
	"github.com/ethereum/go-ethereum/common"
)

// Token 燃烧银行代币描述（静态配置，进程启动时加载）
type Token struct {
	ID              string   `json:"id"`
	Name            string   `json:"name"`
	Symbol          string   `json:"symbol"`
	ContractAddress string   `json:"contract_address"`
	BurnAddresses   []string `json:"burn_addresses"`
	Decimals        int32    `json:"decimals"`
	TotalSupply     int64    `json:"total_supply"` // 整币单位
	ChainID         int64    `json:"chain_id"`
	BankAddress     string   `json:"bank_address,omitempty"`
	BankStartBlock  uint64   `json:"bank_start_block,omitempty"`
	PoolAddress     string   `json:"pool_address,omitempty"`
}

func (t *Token) Contract() common.Address {
	return common.HexToAddress(t.ContractAddress)
}

func (t *Token) Bank() common.Address {
	return common.HexToAddress(t.BankAddress)
}

func (t *Token) Pool() common.Address {
	return common.HexToAddress(t.PoolAddress)
}

// HasBank 是否配置了质押/捐赠合约
func (t *Token) HasBank() bool {
	return t.BankAddress != "" && t.BankStartBlock > 0
}

func (t *Token) HasPool() bool {
	return t.PoolAddress != ""
}

func (t *Token) BurnAddrs() []common.Address {
	addrs := make([]common.Address, 0, len(t.BurnAddresses))
	for _, a := range t.BurnAddresses {
		addrs = append(addrs, common.HexToAddress(a))
	}
	return addrs
}

// Registry 进程内代币注册表
type Registry struct {
	tokens []Token
}

func NewRegistry(tokens []Token) *Registry {
	return &Registry{tokens: tokens}
}

func (r *Registry) All() []Token {
	return r.tokens
}

func (r *Registry) ByID(id string) (*Token, bool) {
	for i := range r.tokens {
		if r.tokens[i].ID == id {
			return &r.tokens[i], true
		}
	}
	return nil, false
}

// Default 返回默认展示的代币（注册表第一项）
func (r *Registry) Default() *Token {
	if len(r.tokens) == 0 {
		return nil
	}
	return &r.tokens[0]
}
