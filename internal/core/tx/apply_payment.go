package tx

import (
	"github.com/openxm/marketd/internal/core/ledger/keylet"
	"github.com/openxm/marketd/internal/core/tx/sle"
)

// Apply applies a Payment transaction.
func (p *Payment) Apply(ctx *ApplyContext) Result {
	sender, err := ctx.ReadAccountRoot(p.Account)
	if err != nil || sender == nil {
		return TefINTERNAL
	}

	// The fee was already deducted; the sender must still cover the
	// full delivery.
	if sender.Balance < p.Amount {
		return TecUNFUNDED_PAYMENT
	}

	destID, err := sle.DecodeAccountID(p.Destination)
	if err != nil {
		return TemINVALID_ACCOUNT_ID
	}

	dest, err := ctx.ReadAccountRoot(p.Destination)
	if err != nil {
		return TefINTERNAL
	}

	sender.Balance -= p.Amount
	if err := ctx.UpdateAccountRoot(sender); err != nil {
		return TefINTERNAL
	}

	if dest == nil {
		// Funding an unknown address creates the account.
		created := &sle.AccountRoot{
			Account:  p.Destination,
			Balance:  p.Amount,
			Sequence: 1,
		}
		data, err := sle.SerializeAccountRoot(created)
		if err != nil {
			return TefINTERNAL
		}
		if err := ctx.View.Insert(keylet.Account(destID), data); err != nil {
			return TefINTERNAL
		}
		return TesSUCCESS
	}

	if dest.Balance+p.Amount < dest.Balance {
		return TecOVERFLOW
	}
	dest.Balance += p.Amount
	if err := ctx.UpdateAccountRoot(dest); err != nil {
		return TefINTERNAL
	}

	return TesSUCCESS
}
