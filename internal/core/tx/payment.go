package tx

import "errors"

// Payment transfers native coins between accounts. A payment to an
// account that does not yet exist creates it.
type Payment struct {
	BaseTx

	// Amount is the number of native units to deliver (required)
	Amount uint64 `json:"Amount"`

	// Destination is the account to receive the coins (required)
	Destination string `json:"Destination"`
}

// NewPayment creates a new Payment transaction
func NewPayment(account, destination string, amount uint64) *Payment {
	return &Payment{
		BaseTx:      *NewBaseTx(TypePayment, account),
		Amount:      amount,
		Destination: destination,
	}
}

// TxType returns the transaction type
func (p *Payment) TxType() Type {
	return TypePayment
}

// Validate validates the Payment transaction
func (p *Payment) Validate() error {
	if err := p.BaseTx.Validate(); err != nil {
		return err
	}

	if p.Destination == "" {
		return errors.New("temDST_NEEDED: Destination is required")
	}
	if p.Destination == p.Account {
		return errors.New("temDST_IS_SRC: Destination may not be source")
	}
	if p.Amount == 0 {
		return errors.New("temBAD_AMOUNT: Amount must be positive")
	}

	return nil
}

// Flatten returns a flat map of all transaction fields
func (p *Payment) Flatten() (map[string]any, error) {
	m := p.Common.ToMap()
	m["Amount"] = p.Amount
	m["Destination"] = p.Destination
	return m, nil
}
