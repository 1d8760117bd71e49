package tx

import "github.com/openxm/marketd/internal/core/tx/sle"

// Apply applies an AssetApprove transaction.
func (a *AssetApprove) Apply(ctx *ApplyContext) Result {
	operatorID, err := sle.DecodeAccountID(a.Operator)
	if err != nil {
		return TemINVALID_ACCOUNT_ID
	}
	if err := ctx.setAssetApproval(ctx.AccountID, operatorID, a.Account, a.Operator, a.Approved); err != nil {
		return TefINTERNAL
	}
	return TesSUCCESS
}

// Apply applies a PaymentApprove transaction.
func (a *PaymentApprove) Apply(ctx *ApplyContext) Result {
	spenderID, err := sle.DecodeAccountID(a.Spender)
	if err != nil {
		return TemINVALID_ACCOUNT_ID
	}
	if err := ctx.setPaymentAllowance(ctx.AccountID, spenderID, a.Account, a.Spender, a.Amount); err != nil {
		return TefINTERNAL
	}
	return TesSUCCESS
}

// marketAccountID resolves the marketplace account from the market state.
func marketAccountID(ctx *ApplyContext) ([20]byte, Result) {
	state, err := ctx.ReadMarketState()
	if err != nil || state == nil {
		return [20]byte{}, TefINTERNAL
	}
	marketID, err := sle.DecodeAccountID(state.MarketAccount)
	if err != nil {
		return [20]byte{}, TefINTERNAL
	}
	return marketID, TesSUCCESS
}

// Apply applies a MarketApproveAsset transaction by toggling the consent
// flag on the account root. Consent can only be given once the account
// has delegated its asset ledger to the marketplace.
func (a *MarketApproveAsset) Apply(ctx *ApplyContext) Result {
	account, err := ctx.ReadAccountRoot(a.Account)
	if err != nil || account == nil {
		return TefINTERNAL
	}
	if a.Approved {
		marketID, res := marketAccountID(ctx)
		if !res.IsSuccess() {
			return res
		}
		approved, err := ctx.AssetApproved(ctx.AccountID, marketID)
		if err != nil {
			return TefINTERNAL
		}
		if !approved {
			return TecNO_ASSET_APPROVAL
		}
		account.Flags |= sle.LsfMarketAssetApproved
	} else {
		account.Flags &^= sle.LsfMarketAssetApproved
	}
	if err := ctx.UpdateAccountRoot(account); err != nil {
		return TefINTERNAL
	}
	return TesSUCCESS
}

// Apply applies a MarketApprovePayment transaction by toggling the
// consent flag on the account root. Consent can only be given once the
// account has granted the marketplace a payment allowance.
func (a *MarketApprovePayment) Apply(ctx *ApplyContext) Result {
	account, err := ctx.ReadAccountRoot(a.Account)
	if err != nil || account == nil {
		return TefINTERNAL
	}
	if a.Approved {
		marketID, res := marketAccountID(ctx)
		if !res.IsSuccess() {
			return res
		}
		allowance, err := ctx.PaymentAllowanceOf(ctx.AccountID, marketID)
		if err != nil {
			return TefINTERNAL
		}
		if allowance == 0 {
			return TecNO_PAYMENT_FLAG
		}
		account.Flags |= sle.LsfMarketPaymentApproved
	} else {
		account.Flags &^= sle.LsfMarketPaymentApproved
	}
	if err := ctx.UpdateAccountRoot(account); err != nil {
		return TefINTERNAL
	}
	return TesSUCCESS
}
