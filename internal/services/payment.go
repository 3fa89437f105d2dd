package services

import (
	"context"
	"fmt"
	"log"
	"math/big"
	"strings"
)

// ChainConfig names the fixed token contract used for payments on one
// supported chain.
type ChainConfig struct {
	ChainID  int64
	Token    string
	Decimals int
}

var chainRegistry = map[string]ChainConfig{
	"base": {ChainID: 8453, Token: "0x833589fCD6eDb6E08f4c7C32D4f71b54bdA02913", Decimals: 6},
	"celo": {ChainID: 42220, Token: "0xcebA9300f2b948710d2653dD7B07f33A8B32118C", Decimals: 6},
}

const DefaultChain = "base"

// erc20 transfer(address,uint256) selector.
const transferSelector = "a9059cbb"

// EncodeTransfer builds the calldata for transfer(recipient, amount).
func EncodeTransfer(recipient string, amount *big.Int) (string, error) {
	addr := strings.TrimPrefix(strings.ToLower(recipient), "0x")
	if len(addr) != 40 {
		return "", fmt.Errorf("invalid recipient address: %s", recipient)
	}
	for _, c := range addr {
		if (c < '0' || c > '9') && (c < 'a' || c > 'f') {
			return "", fmt.Errorf("invalid recipient address: %s", recipient)
		}
	}
	if amount == nil || amount.Sign() < 0 {
		return "", fmt.Errorf("invalid transfer amount")
	}

	return "0x" + transferSelector +
		fmt.Sprintf("%064s", addr) +
		fmt.Sprintf("%064s", amount.Text(16)), nil
}

// ScaleAmount converts a whole-token amount to the token's base units.
func ScaleAmount(amount int64, decimals int) *big.Int {
	factor := new(big.Int).Exp(big.NewInt(10), big.NewInt(int64(decimals)), nil)
	return new(big.Int).Mul(big.NewInt(amount), factor)
}

// PaymentService submits token transfers to a fixed recipient through the
// connected wallet, switching chains first when the request names one.
type PaymentService struct {
	wallet    WalletSender
	recipient string
}

func NewPaymentService(wallet WalletSender, recipient string) *PaymentService {
	return &PaymentService{wallet: wallet, recipient: recipient}
}

func (p *PaymentService) Pay(ctx context.Context, amount int64, chain string) (string, error) {
	if amount <= 0 {
		return "", fmt.Errorf("invalid payment amount: %d", amount)
	}
	if chain == "" {
		chain = DefaultChain
	}
	cc, ok := chainRegistry[strings.ToLower(chain)]
	if !ok {
		return "", fmt.Errorf("unsupported chain: %s", chain)
	}

	if !p.wallet.Connected(ctx) {
		return "", fmt.Errorf("wallet not connected")
	}

	if err := p.wallet.SwitchChain(ctx, cc.ChainID); err != nil {
		return "", fmt.Errorf("failed to switch chain: %v", err)
	}

	data, err := EncodeTransfer(p.recipient, ScaleAmount(amount, cc.Decimals))
	if err != nil {
		return "", err
	}

	txHash, err := p.wallet.SendTransaction(ctx, WalletTransaction{
		To:    cc.Token,
		Data:  data,
		Value: "0",
	})
	if err != nil {
		return "", fmt.Errorf("failed to send transaction: %v", err)
	}

	log.Printf("Payment sent: %d tokens on %s, tx %s", amount, chain, txHash)
	return txHash, nil
}
