package sle

// AssetBalance is one (owner, assetID) quantity on the semi-fungible
// asset ledger.
type AssetBalance struct {
	Owner   string `codec:"Owner" json:"Owner"`
	AssetID uint64 `codec:"AssetID" json:"AssetID"`
	Amount  uint64 `codec:"Amount" json:"Amount"`
}

// SerializeAssetBalance encodes an asset balance for storage.
func SerializeAssetBalance(b *AssetBalance) ([]byte, error) {
	return Encode(b)
}

// ParseAssetBalance decodes an asset balance entry.
func ParseAssetBalance(data []byte) (*AssetBalance, error) {
	var b AssetBalance
	if err := Decode(data, &b); err != nil {
		return nil, err
	}
	return &b, nil
}

// AssetApproval records the ledger-level delegated-transfer grant from an
// asset holder to an operator. The entry only exists while the grant is
// in force; revoking erases it.
type AssetApproval struct {
	Owner    string `codec:"Owner" json:"Owner"`
	Operator string `codec:"Operator" json:"Operator"`
}

// SerializeAssetApproval encodes an asset approval for storage.
func SerializeAssetApproval(a *AssetApproval) ([]byte, error) {
	return Encode(a)
}

// ParseAssetApproval decodes an asset approval entry.
func ParseAssetApproval(data []byte) (*AssetApproval, error) {
	var a AssetApproval
	if err := Decode(data, &a); err != nil {
		return nil, err
	}
	return &a, nil
}
