package dex

import (
	"context"
	"fmt"
	"math/big"
)

// GasPrice is a gas price in wei.
type GasPrice struct {
	GasPriceWei *big.Int
}

type gasPricer interface {
	SuggestGasPrice(ctx context.Context) (*big.Int, error)
}

// EthGasPriceProvider reads eth_gasPrice.
type EthGasPriceProvider struct {
	client gasPricer
}

func NewEthGasPriceProvider(client gasPricer) *EthGasPriceProvider {
	return &EthGasPriceProvider{client: client}
}

func (p *EthGasPriceProvider) GetGasPrice(ctx context.Context) (GasPrice, error) {
	price, err := p.client.SuggestGasPrice(ctx)
	if err != nil {
		return GasPrice{}, fmt.Errorf("gas price: %w", err)
	}
	return GasPrice{GasPriceWei: price}, nil
}
