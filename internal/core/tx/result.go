package tx

import "fmt"

// Result represents a transaction result code
type Result int

// Transaction result codes, organized by category: tes, tec, tef, tel,
// tem, ter. The sign and range of a code decide whether the transaction
// was applied and whether the fee was claimed, so handlers pick a code
// from the right family rather than inventing new ranges.
const (
	// tesSUCCESS (0-99)
	TesSUCCESS Result = 0

	// tec codes (100-199): transaction failed but was applied to the
	// ledger far enough to claim the fee and consume the sequence.
	TecCLAIM                  Result = 100
	TecNO_MARKET_APPROVAL     Result = 101
	TecNO_ASSET_APPROVAL      Result = 102
	TecINSUFFICIENT_TOKENS    Result = 103
	TecNOT_SELLER_OF_LISTING  Result = 104
	TecLISTING_NOT_ACTIVE     Result = 105
	TecNO_PAYMENT_FLAG        Result = 106
	TecNO_PAYMENT_ALLOWANCE   Result = 107
	TecOFFERER_UNFUNDED       Result = 108
	TecNOT_OFFERER            Result = 109
	TecOFFER_NOT_ACTIVE       Result = 110
	TecINSUFFICIENT_FUNDS     Result = 111
	TecNOT_SELLER             Result = 112
	TecOFFER_INACTIVE         Result = 113
	TecINSUFFICIENT_PAYMENT   Result = 114
	TecSELLER_DIVESTED        Result = 115
	TecOFFERER_DIVESTED       Result = 116
	TecALLOWANCE_SHORT        Result = 117
	TecAPPROVAL_REVOKED       Result = 118
	TecUNFUNDED_PAYMENT       Result = 119
	TecNO_PERMISSION          Result = 120
	TecNO_ENTRY               Result = 121
	TecNO_TARGET              Result = 122
	TecDUPLICATE              Result = 123
	TecOVERFLOW               Result = 124
	TecINTERNAL               Result = 144

	// tef codes (-199 to -100): failure before the transaction could
	// claim a fee; nothing is applied.
	TefFAILURE       Result = -199
	TefALREADY       Result = -198
	TefEXCEPTION     Result = -193
	TefINTERNAL      Result = -192
	TefPAST_SEQ      Result = -190
	TefBAD_SIGNATURE Result = -186

	// tel codes (-399 to -300): local error, the transaction was never
	// a candidate for application.
	TelLOCAL_ERROR Result = -399
	TelINSUF_FEE_P Result = -394

	// tem codes (-299 to -200): malformed transaction.
	TemMALFORMED          Result = -299
	TemBAD_AMOUNT         Result = -298
	TemBAD_FEE            Result = -295
	TemBAD_SEQUENCE       Result = -283
	TemBAD_SIGNATURE      Result = -282
	TemBAD_SRC_ACCOUNT    Result = -281
	TemDST_IS_SRC         Result = -279
	TemDST_NEEDED         Result = -278
	TemINVALID            Result = -277
	TemINVALID_FLAG       Result = -276
	TemREDUNDANT          Result = -275
	TemINVALID_ACCOUNT_ID Result = -268
	TemUNKNOWN            Result = -264

	// ter codes (-99 to -1): retry later, nothing applied.
	TerRETRY       Result = -99
	TerINSUF_FEE_B Result = -97
	TerNO_ACCOUNT  Result = -96
	TerPRE_SEQ     Result = -92
)

// String returns the string representation of the result code
func (r Result) String() string {
	switch r {
	case TesSUCCESS:
		return "tesSUCCESS"
	case TecCLAIM:
		return "tecCLAIM"
	case TecNO_MARKET_APPROVAL:
		return "tecNO_MARKET_APPROVAL"
	case TecNO_ASSET_APPROVAL:
		return "tecNO_ASSET_APPROVAL"
	case TecINSUFFICIENT_TOKENS:
		return "tecINSUFFICIENT_TOKENS"
	case TecNOT_SELLER_OF_LISTING:
		return "tecNOT_SELLER_OF_LISTING"
	case TecLISTING_NOT_ACTIVE:
		return "tecLISTING_NOT_ACTIVE"
	case TecNO_PAYMENT_FLAG:
		return "tecNO_PAYMENT_FLAG"
	case TecNO_PAYMENT_ALLOWANCE:
		return "tecNO_PAYMENT_ALLOWANCE"
	case TecOFFERER_UNFUNDED:
		return "tecOFFERER_UNFUNDED"
	case TecNOT_OFFERER:
		return "tecNOT_OFFERER"
	case TecOFFER_NOT_ACTIVE:
		return "tecOFFER_NOT_ACTIVE"
	case TecINSUFFICIENT_FUNDS:
		return "tecINSUFFICIENT_FUNDS"
	case TecNOT_SELLER:
		return "tecNOT_SELLER"
	case TecOFFER_INACTIVE:
		return "tecOFFER_INACTIVE"
	case TecINSUFFICIENT_PAYMENT:
		return "tecINSUFFICIENT_PAYMENT"
	case TecSELLER_DIVESTED:
		return "tecSELLER_DIVESTED"
	case TecOFFERER_DIVESTED:
		return "tecOFFERER_DIVESTED"
	case TecALLOWANCE_SHORT:
		return "tecALLOWANCE_SHORT"
	case TecAPPROVAL_REVOKED:
		return "tecAPPROVAL_REVOKED"
	case TecUNFUNDED_PAYMENT:
		return "tecUNFUNDED_PAYMENT"
	case TecNO_PERMISSION:
		return "tecNO_PERMISSION"
	case TecNO_ENTRY:
		return "tecNO_ENTRY"
	case TecNO_TARGET:
		return "tecNO_TARGET"
	case TecDUPLICATE:
		return "tecDUPLICATE"
	case TecOVERFLOW:
		return "tecOVERFLOW"
	case TecINTERNAL:
		return "tecINTERNAL"
	case TefFAILURE:
		return "tefFAILURE"
	case TefALREADY:
		return "tefALREADY"
	case TefEXCEPTION:
		return "tefEXCEPTION"
	case TefINTERNAL:
		return "tefINTERNAL"
	case TefPAST_SEQ:
		return "tefPAST_SEQ"
	case TefBAD_SIGNATURE:
		return "tefBAD_SIGNATURE"
	case TelLOCAL_ERROR:
		return "telLOCAL_ERROR"
	case TelINSUF_FEE_P:
		return "telINSUF_FEE_P"
	case TemMALFORMED:
		return "temMALFORMED"
	case TemBAD_AMOUNT:
		return "temBAD_AMOUNT"
	case TemBAD_FEE:
		return "temBAD_FEE"
	case TemBAD_SEQUENCE:
		return "temBAD_SEQUENCE"
	case TemBAD_SIGNATURE:
		return "temBAD_SIGNATURE"
	case TemBAD_SRC_ACCOUNT:
		return "temBAD_SRC_ACCOUNT"
	case TemDST_IS_SRC:
		return "temDST_IS_SRC"
	case TemDST_NEEDED:
		return "temDST_NEEDED"
	case TemINVALID:
		return "temINVALID"
	case TemINVALID_FLAG:
		return "temINVALID_FLAG"
	case TemREDUNDANT:
		return "temREDUNDANT"
	case TemINVALID_ACCOUNT_ID:
		return "temINVALID_ACCOUNT_ID"
	case TemUNKNOWN:
		return "temUNKNOWN"
	case TerRETRY:
		return "terRETRY"
	case TerINSUF_FEE_B:
		return "terINSUF_FEE_B"
	case TerNO_ACCOUNT:
		return "terNO_ACCOUNT"
	case TerPRE_SEQ:
		return "terPRE_SEQ"
	default:
		return fmt.Sprintf("Unknown(%d)", r)
	}
}

// IsSuccess returns true if the result indicates success
func (r Result) IsSuccess() bool {
	return r == TesSUCCESS
}

// IsTec returns true if this is a tec (claimed cost) code
func (r Result) IsTec() bool {
	return r >= 100 && r < 200
}

// IsTef returns true if this is a tef (failure) code
func (r Result) IsTef() bool {
	return r >= -199 && r <= -100
}

// IsTel returns true if this is a tel (local error) code
func (r Result) IsTel() bool {
	return r >= -399 && r <= -300
}

// IsTem returns true if this is a tem (malformed) code
func (r Result) IsTem() bool {
	return r >= -299 && r <= -200
}

// IsTer returns true if this is a ter (retry) code
func (r Result) IsTer() bool {
	return r >= -99 && r <= -1
}

// IsApplied returns true if the transaction was applied to the ledger.
// This is true for tesSUCCESS and all tec codes.
func (r Result) IsApplied() bool {
	return r.IsSuccess() || r.IsTec()
}

// Message returns a human-readable message for the result
func (r Result) Message() string {
	switch r {
	case TesSUCCESS:
		return "The transaction was applied."
	case TecCLAIM:
		return "Fee claimed. No action taken."
	case TecNO_MARKET_APPROVAL:
		return "Account hasn't approved the marketplace"
	case TecNO_ASSET_APPROVAL:
		return "Has not approved the marketplace to the asset ledger"
	case TecINSUFFICIENT_TOKENS:
		return "Insufficient tokens"
	case TecNOT_SELLER_OF_LISTING:
		return "Only seller can modify listing"
	case TecLISTING_NOT_ACTIVE:
		return "Listing is not active"
	case TecNO_PAYMENT_FLAG:
		return "Hasn't approved marketplace to the payment ledger"
	case TecNO_PAYMENT_ALLOWANCE:
		return "Has not approved marketplace to their payment asset"
	case TecOFFERER_UNFUNDED:
		return "Offerer has insufficient funds"
	case TecNOT_OFFERER:
		return "Not the offerer of this offer"
	case TecOFFER_NOT_ACTIVE:
		return "Offer is not active"
	case TecINSUFFICIENT_FUNDS:
		return "Insufficient funds"
	case TecNOT_SELLER:
		return "Not seller"
	case TecOFFER_INACTIVE:
		return "Offer is inactive"
	case TecINSUFFICIENT_PAYMENT:
		return "Insufficient payment tendered"
	case TecSELLER_DIVESTED:
		return "Seller no longer holds the listed tokens"
	case TecOFFERER_DIVESTED:
		return "Offerer no longer holds the agreed payment"
	case TecALLOWANCE_SHORT:
		return "Payment allowance no longer covers the agreed price"
	case TecAPPROVAL_REVOKED:
		return "Operator approval was revoked before settlement"
	case TecUNFUNDED_PAYMENT:
		return "Insufficient balance to send."
	case TecNO_PERMISSION:
		return "The account does not have permission for this operation."
	case TecNO_ENTRY:
		return "The referenced ledger entry does not exist."
	case TecNO_TARGET:
		return "The target ledger entry does not exist."
	case TecDUPLICATE:
		return "The ledger entry already exists."
	case TecOVERFLOW:
		return "The operation would overflow a balance or counter."
	case TemBAD_AMOUNT:
		return "Can only send positive amounts."
	case TemBAD_FEE:
		return "Invalid fee."
	case TemBAD_SEQUENCE:
		return "Sequence number must be non-zero."
	case TemDST_IS_SRC:
		return "Destination may not be source."
	case TemDST_NEEDED:
		return "Destination is required."
	case TemINVALID:
		return "The transaction is ill-formed."
	case TerNO_ACCOUNT:
		return "The source account does not exist."
	case TerPRE_SEQ:
		return "Missing/inapplicable prior transaction."
	case TerINSUF_FEE_B:
		return "Account balance can't pay fee."
	case TefBAD_SIGNATURE:
		return "Invalid signature."
	case TefPAST_SEQ:
		return "Sequence number has already passed."
	default:
		return r.String()
	}
}
