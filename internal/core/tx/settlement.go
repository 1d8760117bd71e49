package tx

import (
	"errors"

	"github.com/openxm/marketd/internal/core/ledger/keylet"
	"github.com/openxm/marketd/internal/core/tx/sle"
)

// Sentinel errors returned by the transfer helpers. Callers map these to
// the result code appropriate for their check, since the same shortfall
// carries a different meaning at creation time than at settlement time.
var (
	errInsufficientBalance   = errors.New("insufficient balance")
	errInsufficientAllowance = errors.New("insufficient allowance")
	errBalanceOverflow       = errors.New("balance overflow")
)

// AssetBalance returns the owner's balance of an asset on the asset ledger.
func (ctx *ApplyContext) AssetBalance(owner [20]byte, assetID uint64) (uint64, error) {
	data, err := ctx.View.Read(keylet.AssetBalance(owner, assetID))
	if err != nil {
		return 0, err
	}
	if data == nil {
		return 0, nil
	}
	bal, err := sle.ParseAssetBalance(data)
	if err != nil {
		return 0, err
	}
	return bal.Amount, nil
}

// setAssetBalance writes an asset balance, erasing the entry when the
// balance reaches zero.
func (ctx *ApplyContext) setAssetBalance(owner [20]byte, ownerAddr string, assetID, amount uint64) error {
	k := keylet.AssetBalance(owner, assetID)
	if amount == 0 {
		exists, err := ctx.View.Exists(k)
		if err != nil {
			return err
		}
		if exists {
			return ctx.View.Erase(k)
		}
		return nil
	}

	data, err := sle.SerializeAssetBalance(&sle.AssetBalance{
		Owner:   ownerAddr,
		AssetID: assetID,
		Amount:  amount,
	})
	if err != nil {
		return err
	}
	exists, err := ctx.View.Exists(k)
	if err != nil {
		return err
	}
	if exists {
		return ctx.View.Update(k, data)
	}
	return ctx.View.Insert(k, data)
}

// moveAsset transfers asset units between holders on the asset ledger.
func (ctx *ApplyContext) moveAsset(from, to [20]byte, fromAddr, toAddr string, assetID, amount uint64) error {
	if amount == 0 {
		return nil
	}
	fromBal, err := ctx.AssetBalance(from, assetID)
	if err != nil {
		return err
	}
	if fromBal < amount {
		return errInsufficientBalance
	}
	// A self-transfer leaves the single entry untouched; reading it
	// twice and writing both copies back would double the balance.
	if from == to {
		return nil
	}
	toBal, err := ctx.AssetBalance(to, assetID)
	if err != nil {
		return err
	}
	if toBal+amount < toBal {
		return errBalanceOverflow
	}
	if err := ctx.setAssetBalance(from, fromAddr, assetID, fromBal-amount); err != nil {
		return err
	}
	return ctx.setAssetBalance(to, toAddr, assetID, toBal+amount)
}

// AssetApproved reports whether owner has delegated its asset holdings to
// operator. The approval entry exists only while the grant is in force.
func (ctx *ApplyContext) AssetApproved(owner, operator [20]byte) (bool, error) {
	return ctx.View.Exists(keylet.AssetApproval(owner, operator))
}

// setAssetApproval grants or revokes an operator delegation on the asset
// ledger.
func (ctx *ApplyContext) setAssetApproval(owner, operator [20]byte, ownerAddr, operatorAddr string, approved bool) error {
	k := keylet.AssetApproval(owner, operator)
	exists, err := ctx.View.Exists(k)
	if err != nil {
		return err
	}
	if approved {
		if exists {
			return nil
		}
		data, err := sle.SerializeAssetApproval(&sle.AssetApproval{
			Owner:    ownerAddr,
			Operator: operatorAddr,
		})
		if err != nil {
			return err
		}
		return ctx.View.Insert(k, data)
	}
	if !exists {
		return nil
	}
	return ctx.View.Erase(k)
}

// PaymentBalance returns the owner's balance on the payment ledger.
func (ctx *ApplyContext) PaymentBalance(owner [20]byte) (uint64, error) {
	data, err := ctx.View.Read(keylet.PaymentBalance(owner))
	if err != nil {
		return 0, err
	}
	if data == nil {
		return 0, nil
	}
	bal, err := sle.ParsePaymentBalance(data)
	if err != nil {
		return 0, err
	}
	return bal.Amount, nil
}

// setPaymentBalance writes a payment balance, erasing the entry when the
// balance reaches zero.
func (ctx *ApplyContext) setPaymentBalance(owner [20]byte, ownerAddr string, amount uint64) error {
	k := keylet.PaymentBalance(owner)
	if amount == 0 {
		exists, err := ctx.View.Exists(k)
		if err != nil {
			return err
		}
		if exists {
			return ctx.View.Erase(k)
		}
		return nil
	}

	data, err := sle.SerializePaymentBalance(&sle.PaymentBalance{
		Owner:  ownerAddr,
		Amount: amount,
	})
	if err != nil {
		return err
	}
	exists, err := ctx.View.Exists(k)
	if err != nil {
		return err
	}
	if exists {
		return ctx.View.Update(k, data)
	}
	return ctx.View.Insert(k, data)
}

// movePayment transfers payment units between holders.
func (ctx *ApplyContext) movePayment(from, to [20]byte, fromAddr, toAddr string, amount uint64) error {
	if amount == 0 {
		return nil
	}
	fromBal, err := ctx.PaymentBalance(from)
	if err != nil {
		return err
	}
	if fromBal < amount {
		return errInsufficientBalance
	}
	// Self-transfer: writing both independently read copies back would
	// mint units.
	if from == to {
		return nil
	}
	toBal, err := ctx.PaymentBalance(to)
	if err != nil {
		return err
	}
	if toBal+amount < toBal {
		return errBalanceOverflow
	}
	if err := ctx.setPaymentBalance(from, fromAddr, fromBal-amount); err != nil {
		return err
	}
	return ctx.setPaymentBalance(to, toAddr, toBal+amount)
}

// PaymentAllowanceOf returns the allowance owner has granted spender on
// the payment ledger.
func (ctx *ApplyContext) PaymentAllowanceOf(owner, spender [20]byte) (uint64, error) {
	data, err := ctx.View.Read(keylet.PaymentAllowance(owner, spender))
	if err != nil {
		return 0, err
	}
	if data == nil {
		return 0, nil
	}
	allowance, err := sle.ParsePaymentAllowance(data)
	if err != nil {
		return 0, err
	}
	return allowance.Amount, nil
}

// setPaymentAllowance writes an allowance, erasing the entry at zero.
func (ctx *ApplyContext) setPaymentAllowance(owner, spender [20]byte, ownerAddr, spenderAddr string, amount uint64) error {
	k := keylet.PaymentAllowance(owner, spender)
	if amount == 0 {
		exists, err := ctx.View.Exists(k)
		if err != nil {
			return err
		}
		if exists {
			return ctx.View.Erase(k)
		}
		return nil
	}

	data, err := sle.SerializePaymentAllowance(&sle.PaymentAllowance{
		Owner:   ownerAddr,
		Spender: spenderAddr,
		Amount:  amount,
	})
	if err != nil {
		return err
	}
	exists, err := ctx.View.Exists(k)
	if err != nil {
		return err
	}
	if exists {
		return ctx.View.Update(k, data)
	}
	return ctx.View.Insert(k, data)
}

// paymentTransferFrom moves payment units from owner to recipient by
// consuming the allowance owner granted to spender. The allowance is
// checked and decremented before the balance moves.
func (ctx *ApplyContext) paymentTransferFrom(owner, spender, to [20]byte, ownerAddr, spenderAddr, toAddr string, amount uint64) error {
	if amount == 0 {
		return nil
	}
	allowance, err := ctx.PaymentAllowanceOf(owner, spender)
	if err != nil {
		return err
	}
	if allowance < amount {
		return errInsufficientAllowance
	}
	if err := ctx.setPaymentAllowance(owner, spender, ownerAddr, spenderAddr, allowance-amount); err != nil {
		return err
	}
	return ctx.movePayment(owner, to, ownerAddr, toAddr, amount)
}

// moveNative transfers native coins between existing accounts.
func (ctx *ApplyContext) moveNative(fromAddr, toAddr string, amount uint64) error {
	if amount == 0 {
		return nil
	}
	from, err := ctx.ReadAccountRoot(fromAddr)
	if err != nil {
		return err
	}
	if from == nil || from.Balance < amount {
		return errInsufficientBalance
	}
	// Self-transfer: both reads decode the same root independently, so
	// writing the credited copy after the debited one would mint coins.
	if fromAddr == toAddr {
		return nil
	}
	to, err := ctx.ReadAccountRoot(toAddr)
	if err != nil {
		return err
	}
	if to == nil {
		return errors.New("destination account does not exist")
	}
	if to.Balance+amount < to.Balance {
		return errBalanceOverflow
	}
	from.Balance -= amount
	to.Balance += amount
	if err := ctx.UpdateAccountRoot(from); err != nil {
		return err
	}
	return ctx.UpdateAccountRoot(to)
}
