package chain

import (
	"context"
	"fmt"
	"math/big"
	"strings"

	"github.com/ethereum/go-ethereum"
	"github.com/ethereum/go-ethereum/accounts/abi"
	"github.com/ethereum/go-ethereum/accounts/abi/bind"
	"github.com/ethereum/go-ethereum/common"
	"github.com/ethereum/go-ethereum/core/types"
)

// Minimal ERC-20 ABI covering the functions this tool needs
const erc20ABI = `[
	{"constant":true,"inputs":[],"name":"decimals","outputs":[{"name":"","type":"uint8"}],"type":"function"},
	{"constant":true,"inputs":[{"name":"_owner","type":"address"},{"name":"_spender","type":"address"}],"name":"allowance","outputs":[{"name":"","type":"uint256"}],"type":"function"},
	{"constant":false,"inputs":[{"name":"_spender","type":"address"},{"name":"_value","type":"uint256"}],"name":"approve","outputs":[{"name":"","type":"bool"}],"type":"function"}
]`

// MaxUint256 is the unbounded allowance amount (2^256 - 1). Approving the
// maximum once avoids a fresh approval transaction on every swap.
var MaxUint256 = new(big.Int).Sub(new(big.Int).Lsh(big.NewInt(1), 256), big.NewInt(1))

// ERC20 wraps read and write operations against a single token contract.
type ERC20 struct {
	chain   *Context
	address common.Address
	abi     abi.ABI
}

// NewERC20 binds the ERC-20 operations to a token contract address.
func NewERC20(chain *Context, address common.Address) (*ERC20, error) {
	parsed, err := abi.JSON(strings.NewReader(erc20ABI))
	if err != nil {
		return nil, fmt.Errorf("failed to parse ERC20 ABI: %w", err)
	}

	return &ERC20{
		chain:   chain,
		address: address,
		abi:     parsed,
	}, nil
}

// Address returns the token contract address.
func (t *ERC20) Address() common.Address {
	return t.address
}

// Decimals reads the token's decimal precision.
func (t *ERC20) Decimals(ctx context.Context) (uint8, error) {
	data, err := t.abi.Pack("decimals")
	if err != nil {
		return 0, fmt.Errorf("failed to pack decimals data: %w", err)
	}

	result, err := t.call(ctx, data)
	if err != nil {
		return 0, fmt.Errorf("failed to call decimals: %w", err)
	}

	values, err := t.abi.Unpack("decimals", result)
	if err != nil {
		return 0, fmt.Errorf("failed to unpack decimals: %w", err)
	}

	decimals, ok := values[0].(uint8)
	if !ok {
		return 0, fmt.Errorf("unexpected decimals type %T", values[0])
	}

	return decimals, nil
}

// Allowance reads the amount the spender is currently authorized to move on
// the owner's behalf.
func (t *ERC20) Allowance(ctx context.Context, owner, spender common.Address) (*big.Int, error) {
	data, err := t.abi.Pack("allowance", owner, spender)
	if err != nil {
		return nil, fmt.Errorf("failed to pack allowance data: %w", err)
	}

	result, err := t.call(ctx, data)
	if err != nil {
		return nil, fmt.Errorf("failed to call allowance: %w", err)
	}

	allowance := new(big.Int)
	allowance.SetBytes(result)

	return allowance, nil
}

// SimulateApprove dry-runs an approval against current chain state and
// returns the estimated gas. An error here means the approval must not be
// submitted.
func (t *ERC20) SimulateApprove(ctx context.Context, spender common.Address, amount *big.Int) (uint64, error) {
	data, err := t.abi.Pack("approve", spender, amount)
	if err != nil {
		return 0, fmt.Errorf("failed to pack approve data: %w", err)
	}

	msg := ethereum.CallMsg{
		From: t.chain.Taker,
		To:   &t.address,
		Data: data,
	}

	gas, err := t.chain.Client.EstimateGas(ctx, msg)
	if err != nil {
		return 0, fmt.Errorf("approval simulation failed: %w", err)
	}

	return gas, nil
}

// Approve signs and submits an approval for the spender and returns the
// transaction hash. The caller decides whether to wait for confirmation.
func (t *ERC20) Approve(ctx context.Context, spender common.Address, amount *big.Int, gasLimit uint64) (*types.Transaction, error) {
	data, err := t.abi.Pack("approve", spender, amount)
	if err != nil {
		return nil, fmt.Errorf("failed to pack approve data: %w", err)
	}

	nonce, err := t.chain.Client.PendingNonceAt(ctx, t.chain.Taker)
	if err != nil {
		return nil, fmt.Errorf("failed to get nonce: %w", err)
	}

	gasPrice, err := t.chain.Client.SuggestGasPrice(ctx)
	if err != nil {
		return nil, fmt.Errorf("failed to get gas price: %w", err)
	}

	// 20% headroom over the simulated gas
	tx := types.NewTransaction(
		nonce,
		t.address,
		big.NewInt(0),
		gasLimit*120/100,
		gasPrice,
		data,
	)

	signedTx, err := t.chain.SignTx(tx)
	if err != nil {
		return nil, err
	}

	if err := t.chain.Client.SendTransaction(ctx, signedTx); err != nil {
		return nil, fmt.Errorf("failed to send approval transaction: %w", err)
	}

	return signedTx, nil
}

// WaitConfirmed blocks until the transaction is mined and verifies the
// receipt reports success.
func (t *ERC20) WaitConfirmed(ctx context.Context, tx *types.Transaction) (*types.Receipt, error) {
	receipt, err := bind.WaitMined(ctx, t.chain.Client, tx)
	if err != nil {
		return nil, fmt.Errorf("failed waiting for confirmation: %w", err)
	}

	if receipt.Status != types.ReceiptStatusSuccessful {
		return receipt, fmt.Errorf("approval transaction %s reverted", tx.Hash().Hex())
	}

	return receipt, nil
}

func (t *ERC20) call(ctx context.Context, data []byte) ([]byte, error) {
	msg := ethereum.CallMsg{
		To:   &t.address,
		Data: data,
	}
	return t.chain.Client.CallContract(ctx, msg, nil)
}
