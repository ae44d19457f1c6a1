package chain

import (
	"context"
	"crypto/ecdsa"
	"fmt"
	"math/big"
	"strings"

	"github.com/ethereum/go-ethereum/common"
	"github.com/ethereum/go-ethereum/core/types"
	"github.com/ethereum/go-ethereum/crypto"
	"github.com/ethereum/go-ethereum/ethclient"
)

// Context bundles the RPC client, the taker's key, and the chain id for one
// run. It is constructed once and passed to every component that touches the
// chain; nothing mutates it after construction.
type Context struct {
	Client     *ethclient.Client
	ChainID    *big.Int
	Taker      common.Address
	privateKey *ecdsa.PrivateKey
}

// NewContext connects to the RPC endpoint and derives the taker address from
// the configured private key.
func NewContext(rpcURL, privateKeyHex string, chainID int64) (*Context, error) {
	if rpcURL == "" {
		return nil, fmt.Errorf("RPC URL is not configured")
	}
	if privateKeyHex == "" {
		return nil, fmt.Errorf("private key is not configured")
	}

	client, err := ethclient.Dial(rpcURL)
	if err != nil {
		return nil, fmt.Errorf("failed to connect to RPC endpoint: %w", err)
	}

	privateKey, err := crypto.HexToECDSA(strings.TrimPrefix(privateKeyHex, "0x"))
	if err != nil {
		client.Close()
		return nil, fmt.Errorf("invalid private key: %w", err)
	}

	publicKey, ok := privateKey.Public().(*ecdsa.PublicKey)
	if !ok {
		client.Close()
		return nil, fmt.Errorf("failed to derive public key")
	}

	return &Context{
		Client:     client,
		ChainID:    big.NewInt(chainID),
		Taker:      crypto.PubkeyToAddress(*publicKey),
		privateKey: privateKey,
	}, nil
}

// SignTx signs a transaction with the taker's key using the chain's EIP-155
// signer.
func (c *Context) SignTx(tx *types.Transaction) (*types.Transaction, error) {
	signed, err := types.SignTx(tx, types.NewEIP155Signer(c.ChainID), c.privateKey)
	if err != nil {
		return nil, fmt.Errorf("failed to sign transaction: %w", err)
	}
	return signed, nil
}

// TransactionInfo retrieves a transaction and its receipt for display.
func (c *Context) TransactionInfo(ctx context.Context, txHash string) (map[string]interface{}, error) {
	hash := common.HexToHash(txHash)

	tx, isPending, err := c.Client.TransactionByHash(ctx, hash)
	if err != nil {
		return nil, fmt.Errorf("failed to get transaction: %w", err)
	}

	receipt, err := c.Client.TransactionReceipt(ctx, hash)
	if err != nil && !isPending {
		return nil, fmt.Errorf("failed to get transaction receipt: %w", err)
	}

	info := map[string]interface{}{
		"hash":      tx.Hash().Hex(),
		"nonce":     tx.Nonce(),
		"gas_price": tx.GasPrice().String(),
		"gas_limit": tx.Gas(),
		"to":        "",
		"value":     tx.Value().String(),
		"pending":   isPending,
	}

	if tx.To() != nil {
		info["to"] = tx.To().Hex()
	}

	if receipt != nil {
		info["block_number"] = receipt.BlockNumber.Uint64()
		info["gas_used"] = receipt.GasUsed
		info["status"] = receipt.Status
	}

	return info, nil
}

// Close closes the RPC client connection.
func (c *Context) Close() {
	if c.Client != nil {
		c.Client.Close()
	}
}
