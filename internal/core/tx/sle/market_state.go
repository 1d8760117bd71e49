package sle

// MarketState is the singleton marketplace entry created at genesis. It
// carries the listing ID allocator and the well-known accounts the
// engine gates privileged operations on: MarketAccount is the operator
// the per-account approval flags refer to, AssetIssuer and
// PaymentIssuer are the only accounts allowed to mint on their
// respective ledgers.
type MarketState struct {
	NextListingID uint64 `codec:"NextListingID" json:"NextListingID"`
	MarketAccount string `codec:"MarketAccount" json:"MarketAccount"`
	AssetIssuer   string `codec:"AssetIssuer" json:"AssetIssuer"`
	PaymentIssuer string `codec:"PaymentIssuer" json:"PaymentIssuer"`
}

// SerializeMarketState encodes the market state entry.
func SerializeMarketState(m *MarketState) ([]byte, error) {
	return Encode(m)
}

// ParseMarketState decodes the market state entry.
func ParseMarketState(data []byte) (*MarketState, error) {
	var m MarketState
	if err := Decode(data, &m); err != nil {
		return nil, err
	}
	return &m, nil
}
