package tx

import (
	"github.com/openxm/marketd/internal/core/ledger/keylet"
	"github.com/openxm/marketd/internal/core/tx/sle"
)

// ApplyContext provides all the state and helpers needed to apply a
// transaction. It is passed to Appliable.Apply() instead of individual
// parameters. View is the transaction's ApplyStateTable, so every write
// made through the context commits or rolls back with the transaction.
type ApplyContext struct {
	// View provides read/write access to ledger state
	View LedgerView

	// Account is the source account address
	Account string

	// AccountID is the decoded source account ID
	AccountID [20]byte

	// Config holds engine configuration
	Config EngineConfig

	// TxHash is the hash of the current transaction
	TxHash [32]byte

	// Metadata collects affected nodes and emitted events
	Metadata *Metadata
}

// Emit records an event in the transaction metadata.
func (ctx *ApplyContext) Emit(name string, data map[string]any) {
	ctx.Metadata.Events = append(ctx.Metadata.Events, Event{Name: name, Data: data})
}

// ReadAccountRoot loads an account root by address. Returns nil without
// error when the account does not exist.
func (ctx *ApplyContext) ReadAccountRoot(address string) (*sle.AccountRoot, error) {
	accountID, err := sle.DecodeAccountID(address)
	if err != nil {
		return nil, err
	}
	data, err := ctx.View.Read(keylet.Account(accountID))
	if err != nil {
		return nil, err
	}
	if data == nil {
		return nil, nil
	}
	return sle.ParseAccountRoot(data)
}

// UpdateAccountRoot writes an account root back to the view.
func (ctx *ApplyContext) UpdateAccountRoot(account *sle.AccountRoot) error {
	accountID, err := sle.DecodeAccountID(account.Account)
	if err != nil {
		return err
	}
	data, err := sle.SerializeAccountRoot(account)
	if err != nil {
		return err
	}
	return ctx.View.Update(keylet.Account(accountID), data)
}

// ReadMarketState loads the singleton market state entry.
func (ctx *ApplyContext) ReadMarketState() (*sle.MarketState, error) {
	data, err := ctx.View.Read(keylet.MarketState())
	if err != nil {
		return nil, err
	}
	if data == nil {
		return nil, nil
	}
	return sle.ParseMarketState(data)
}

// UpdateMarketState writes the market state entry back to the view.
func (ctx *ApplyContext) UpdateMarketState(state *sle.MarketState) error {
	data, err := sle.SerializeMarketState(state)
	if err != nil {
		return err
	}
	return ctx.View.Update(keylet.MarketState(), data)
}
