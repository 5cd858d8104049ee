package model

import (
	"encoding/json"
	"strings"
	"time"
)

// RouteRecord is one chosen route inside a QuoteRecord.
type RouteRecord struct {
	Protocol string   `json:"protocol"`
	Percent  int      `json:"percent"`
	Path     string   `json:"path"`
	Pools    []string `json:"pools"`
	Amount   string   `json:"amount"`
	Quote    string   `json:"quote"`
}

// QuoteRecord is the normalized representation of a swap route for output and storage.
type QuoteRecord struct {
	ChainID           uint64        `json:"chain_id"`
	BlockNumber       uint64        `json:"block_number"`
	TradeType         string        `json:"trade_type"`
	TokenIn           string        `json:"token_in"`
	TokenOut          string        `json:"token_out"`
	Amount            string        `json:"amount"`
	Quote             string        `json:"quote"`
	QuoteGasAdjusted  string        `json:"quote_gas_adjusted"`
	GasUsed           string        `json:"gas_used"`
	GasUsedQuoteToken string        `json:"gas_used_quote_token"`
	GasUsedUSD        string        `json:"gas_used_usd"`
	GasPriceWei       string        `json:"gas_price_wei"`
	Routes            []RouteRecord `json:"routes"`
	Calldata          string        `json:"calldata,omitempty"`
	Value             string        `json:"value,omitempty"`
	To                string        `json:"to,omitempty"`
	SimulationStatus  string        `json:"simulation_status"`
	QuotedAt          string        `json:"quoted_at"`
}

// NewQuoteRecord flattens a swap route. Amounts are rendered in whole units.
func NewQuoteRecord(chainID uint64, tradeType TradeType, sr *SwapRoute, quotedAt time.Time) QuoteRecord {
	rec := QuoteRecord{
		ChainID:           chainID,
		TradeType:         tradeType.String(),
		TokenIn:           sr.Trade.InputCurrency.String(),
		TokenOut:          sr.Trade.OutputCurrency.String(),
		Quote:             sr.Quote.ToExact(),
		QuoteGasAdjusted:  sr.QuoteGasAdjusted.ToExact(),
		GasUsedQuoteToken: sr.EstimatedGasUsedQuoteToken.ToFixed(6),
		GasUsedUSD:        sr.EstimatedGasUsedUSD.ToFixed(6),
		SimulationStatus:  sr.SimulationStatus.String(),
		QuotedAt:          quotedAt.UTC().Format(time.RFC3339),
	}
	if tradeType == ExactInput {
		rec.Amount = sr.Trade.InputAmount().ToExact()
	} else {
		rec.Amount = sr.Trade.OutputAmount().ToExact()
	}
	if sr.BlockNumber != nil {
		rec.BlockNumber = sr.BlockNumber.Uint64()
	}
	if sr.EstimatedGasUsed != nil {
		rec.GasUsed = sr.EstimatedGasUsed.String()
	}
	if sr.GasPriceWei != nil {
		rec.GasPriceWei = sr.GasPriceWei.String()
	}
	for _, r := range sr.Route {
		pools := make([]string, len(r.PoolAddresses))
		for i, addr := range r.PoolAddresses {
			pools[i] = strings.ToLower(addr.Hex())
		}
		rec.Routes = append(rec.Routes, RouteRecord{
			Protocol: string(r.Protocol()),
			Percent:  r.Percent,
			Path:     RouteToString(r.Route),
			Pools:    pools,
			Amount:   r.Amount.ToExact(),
			Quote:    r.Quote.ToExact(),
		})
	}
	if mp := sr.MethodParameters; mp != nil {
		rec.Calldata = mp.Calldata.String()
		if mp.Value != nil {
			rec.Value = mp.Value.String()
		}
		rec.To = strings.ToLower(mp.To.Hex())
	}
	return rec
}

// MarshalJSON ensures QuoteRecord is encoded with stable field names.
func (qr QuoteRecord) MarshalJSON() ([]byte, error) {
	type Alias QuoteRecord
	return json.Marshal(Alias(qr))
}

// UnmarshalJSON decodes a QuoteRecord from JSON.
func (qr *QuoteRecord) UnmarshalJSON(data []byte) error {
	type Alias QuoteRecord
	var a Alias
	if err := json.Unmarshal(data, &a); err != nil {
		return err
	}
	*qr = QuoteRecord(a)
	return nil
}
