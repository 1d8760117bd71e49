package tx

import "github.com/openxm/marketd/internal/core/tx/sle"

// Apply applies an AssetMint transaction. Only the asset issuer recorded
// in the market state may mint.
func (m *AssetMint) Apply(ctx *ApplyContext) Result {
	state, err := ctx.ReadMarketState()
	if err != nil || state == nil {
		return TefINTERNAL
	}
	if m.Account != state.AssetIssuer {
		return TecNO_PERMISSION
	}

	destAddr := m.Destination
	if destAddr == "" {
		destAddr = m.Account
	}
	destID, err := sle.DecodeAccountID(destAddr)
	if err != nil {
		return TemINVALID_ACCOUNT_ID
	}

	balance, err := ctx.AssetBalance(destID, m.AssetID)
	if err != nil {
		return TefINTERNAL
	}
	if balance+m.Amount < balance {
		return TecOVERFLOW
	}
	if err := ctx.setAssetBalance(destID, destAddr, m.AssetID, balance+m.Amount); err != nil {
		return TefINTERNAL
	}
	return TesSUCCESS
}

// Apply applies a PaymentMint transaction. Only the payment issuer
// recorded in the market state may mint.
func (m *PaymentMint) Apply(ctx *ApplyContext) Result {
	state, err := ctx.ReadMarketState()
	if err != nil || state == nil {
		return TefINTERNAL
	}
	if m.Account != state.PaymentIssuer {
		return TecNO_PERMISSION
	}

	destAddr := m.Destination
	if destAddr == "" {
		destAddr = m.Account
	}
	destID, err := sle.DecodeAccountID(destAddr)
	if err != nil {
		return TemINVALID_ACCOUNT_ID
	}

	balance, err := ctx.PaymentBalance(destID)
	if err != nil {
		return TefINTERNAL
	}
	if balance+m.Amount < balance {
		return TecOVERFLOW
	}
	if err := ctx.setPaymentBalance(destID, destAddr, balance+m.Amount); err != nil {
		return TefINTERNAL
	}
	return TesSUCCESS
}
