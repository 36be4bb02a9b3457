package chain

import (
	"context"
	"fmt"
	"math/big"
	"strings"

	"github.com/ethereum/go-ethereum/common"
	"github.com/ethereum/go-ethereum/crypto"
)

// ENS 注册表（主网）
var ensRegistryAddress = common.HexToAddress("0x00000000000C2E074eC69A0dFb2997BA6C7d2e1e")

var (
	selResolver = methodID("resolver(bytes32)")
	selName     = methodID("name(bytes32)")
)

// Namehash 计算 ENS 名字的 namehash（EIP-137）
func Namehash(name string) common.Hash {
	node := make([]byte, 32)
	if name == "" {
		return common.BytesToHash(node)
	}
	labels := strings.Split(name, ".")
	for i := len(labels) - 1; i >= 0; i-- {
		labelHash := crypto.Keccak256([]byte(labels[i]))
		node = crypto.Keccak256(node, labelHash)
	}
	return common.BytesToHash(node)
}

// reverseNode 地址的反向解析节点 <hex-addr>.addr.reverse
func reverseNode(addr common.Address) common.Hash {
	name := strings.ToLower(strings.TrimPrefix(addr.Hex(), "0x")) + ".addr.reverse"
	return Namehash(name)
}

// parseString 解码 ABI 编码的动态 string 返回值
func parseString(data []byte) (string, error) {
	if len(data) < 64 {
		return "", fmt.Errorf("invalid string return data length: %d", len(data))
	}
	offset := new(big.Int).SetBytes(data[:32]).Uint64()
	if offset+32 > uint64(len(data)) {
		return "", fmt.Errorf("string offset out of range: %d", offset)
	}
	length := new(big.Int).SetBytes(data[offset : offset+32]).Uint64()
	if offset+32+length > uint64(len(data)) {
		return "", fmt.Errorf("string length out of range: %d", length)
	}
	return string(data[offset+32 : offset+32+length]), nil
}

// ResolveName 反向解析地址的 ENS 名字。解析不到返回空串、nil。
func (r *ContractReader) ResolveName(ctx context.Context, addr common.Address) (string, error) {
	node := reverseNode(addr)

	resolverData, err := r.call(ctx, ensRegistryAddress, callData(selResolver, node.Bytes()))
	if err != nil {
		return "", err
	}
	resolver, err := parseAddress(resolverData)
	if err != nil {
		return "", err
	}
	if resolver == (common.Address{}) {
		return "", nil
	}

	nameData, err := r.call(ctx, resolver, callData(selName, node.Bytes()))
	if err != nil {
		return "", err
	}
	return parseString(nameData)
}
