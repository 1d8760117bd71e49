package sle

// PaymentBalance is an account's balance on the fungible payment ledger.
type PaymentBalance struct {
	Owner  string `codec:"Owner" json:"Owner"`
	Amount uint64 `codec:"Amount" json:"Amount"`
}

// SerializePaymentBalance encodes a payment balance for storage.
func SerializePaymentBalance(b *PaymentBalance) ([]byte, error) {
	return Encode(b)
}

// ParsePaymentBalance decodes a payment balance entry.
func ParsePaymentBalance(data []byte) (*PaymentBalance, error) {
	var b PaymentBalance
	if err := Decode(data, &b); err != nil {
		return nil, err
	}
	return &b, nil
}

// PaymentAllowance records the ledger-level delegated-spend grant from a
// payment holder to a spender. Settlement draws the accepted price down
// from the allowance; a zero allowance is erased rather than stored.
type PaymentAllowance struct {
	Owner   string `codec:"Owner" json:"Owner"`
	Spender string `codec:"Spender" json:"Spender"`
	Amount  uint64 `codec:"Amount" json:"Amount"`
}

// SerializePaymentAllowance encodes a payment allowance for storage.
func SerializePaymentAllowance(a *PaymentAllowance) ([]byte, error) {
	return Encode(a)
}

// ParsePaymentAllowance decodes a payment allowance entry.
func ParsePaymentAllowance(data []byte) (*PaymentAllowance, error) {
	var a PaymentAllowance
	if err := Decode(data, &a); err != nil {
		return nil, err
	}
	return &a, nil
}
