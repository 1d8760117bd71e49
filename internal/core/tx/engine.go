package tx

import (
	"github.com/openxm/marketd/internal/core/ledger/keylet"
	"github.com/openxm/marketd/internal/core/tx/sle"
)

// DefaultMaxFee is the default maximum fee in native units
const DefaultMaxFee = 1000000

// Engine processes transactions against a ledger
type Engine struct {
	view   LedgerView
	config EngineConfig
}

// EngineConfig holds configuration for the transaction engine
type EngineConfig struct {
	// BaseFee is the minimum fee in native units
	BaseFee uint64

	// MaxFee is the maximum allowed fee; transactions exceeding it are
	// rejected in preflight. Zero means DefaultMaxFee.
	MaxFee uint64

	// LedgerSequence is the sequence of the ledger being built
	LedgerSequence uint32

	// SkipSignatureVerification skips signature checks (for testing/standalone)
	SkipSignatureVerification bool

	// Standalone indicates single-node operation
	Standalone bool
}

// LedgerView provides read/write access to ledger state
type LedgerView interface {
	// Read reads a ledger entry; nil data means the entry does not exist
	Read(k keylet.Keylet) ([]byte, error)

	// Exists checks if an entry exists
	Exists(k keylet.Keylet) (bool, error)

	// Insert adds a new entry
	Insert(k keylet.Keylet, data []byte) error

	// Update modifies an existing entry
	Update(k keylet.Keylet, data []byte) error

	// Erase removes an entry
	Erase(k keylet.Keylet) error

	// AdjustCoinsDestroyed records destroyed native coins
	AdjustCoinsDestroyed(amount uint64)

	// ForEach iterates over all state entries.
	// If fn returns false, iteration stops early.
	ForEach(fn func(key [32]byte, data []byte) bool) error
}

// ApplyResult contains the result of applying a transaction
type ApplyResult struct {
	// Result is the transaction result code
	Result Result

	// Applied indicates if the transaction was applied to the ledger
	Applied bool

	// Fee is the fee charged in native units
	Fee uint64

	// Metadata contains the changes made by the transaction
	Metadata *Metadata

	// Message is a human-readable result message
	Message string
}

// Metadata tracks changes made by a transaction
type Metadata struct {
	// AffectedNodes lists all nodes that were created, modified, or deleted
	AffectedNodes []AffectedNode `json:"AffectedNodes"`

	// TransactionIndex is the index in the ledger
	TransactionIndex uint32 `json:"TransactionIndex"`

	// TransactionResult is the result code
	TransactionResult Result `json:"TransactionResult"`

	// Events emitted by the transaction
	Events []Event `json:"Events,omitempty"`
}

// AffectedNode describes a single created, modified, or deleted entry
type AffectedNode struct {
	NodeType        string         `json:"NodeType"`
	LedgerEntryType string         `json:"LedgerEntryType"`
	LedgerIndex     string         `json:"LedgerIndex"`
	NewFields       map[string]any `json:"NewFields,omitempty"`
	FinalFields     map[string]any `json:"FinalFields,omitempty"`
	PreviousFields  map[string]any `json:"PreviousFields,omitempty"`
}

// NewEngine creates a new transaction engine
func NewEngine(view LedgerView, config EngineConfig) *Engine {
	return &Engine{
		view:   view,
		config: config,
	}
}

// Apply processes a transaction and applies it to the ledger
func (e *Engine) Apply(t Transaction) ApplyResult {
	// Step 1: Preflight checks (stateless validation)
	result := e.preflight(t)
	if !result.IsSuccess() {
		return ApplyResult{
			Result:  result,
			Applied: false,
			Message: result.Message(),
		}
	}

	// Step 2: Preclaim checks (validate against ledger state)
	result = e.preclaim(t)
	if !result.IsSuccess() {
		return ApplyResult{
			Result:  result,
			Applied: false,
			Message: result.Message(),
		}
	}

	fee := e.calculateFee(t)

	txHash, err := Hash(t)
	if err != nil {
		return ApplyResult{
			Result:  TefINTERNAL,
			Applied: false,
			Fee:     fee,
			Message: "failed to compute transaction hash: " + err.Error(),
		}
	}

	// Step 3: Apply the transaction
	metadata := &Metadata{
		AffectedNodes:     make([]AffectedNode, 0),
		TransactionResult: TesSUCCESS,
	}

	result = e.doApply(t, metadata, txHash, fee)
	metadata.TransactionResult = result

	// The fee is destroyed whenever the transaction is applied
	if result.IsApplied() {
		e.view.AdjustCoinsDestroyed(fee)
	}

	return ApplyResult{
		Result:   result,
		Applied:  result.IsApplied(),
		Fee:      fee,
		Metadata: metadata,
		Message:  result.Message(),
	}
}

// preflight performs stateless validation
func (e *Engine) preflight(t Transaction) Result {
	common := t.GetCommon()

	if common.Account == "" {
		return TemBAD_SRC_ACCOUNT
	}
	if _, err := sle.DecodeAccountID(common.Account); err != nil {
		return TemBAD_SRC_ACCOUNT
	}
	if common.TransactionType == "" {
		return TemINVALID
	}
	if _, ok := TypeFromName(common.TransactionType); !ok {
		return TemINVALID
	}

	if result := e.validateFee(common); result != TesSUCCESS {
		return result
	}

	if common.Sequence == 0 {
		return TemBAD_SEQUENCE
	}

	if !e.config.SkipSignatureVerification {
		if err := VerifySignature(t); err != nil {
			return TemBAD_SIGNATURE
		}
	}

	// Transaction-specific validation
	if err := t.Validate(); err != nil {
		return parseValidationError(err)
	}

	return TesSUCCESS
}

// parseValidationError extracts a result code from a validation error.
// Validate() implementations prefix messages with a code name (e.g.
// "temBAD_AMOUNT: ..."); unknown messages map to temINVALID.
func parseValidationError(err error) Result {
	msg := err.Error()

	codes := map[string]Result{
		"temMALFORMED":          TemMALFORMED,
		"temBAD_AMOUNT":         TemBAD_AMOUNT,
		"temBAD_FEE":            TemBAD_FEE,
		"temBAD_SEQUENCE":       TemBAD_SEQUENCE,
		"temBAD_SIGNATURE":      TemBAD_SIGNATURE,
		"temBAD_SRC_ACCOUNT":    TemBAD_SRC_ACCOUNT,
		"temDST_IS_SRC":         TemDST_IS_SRC,
		"temDST_NEEDED":         TemDST_NEEDED,
		"temINVALID":            TemINVALID,
		"temINVALID_FLAG":       TemINVALID_FLAG,
		"temREDUNDANT":          TemREDUNDANT,
		"temINVALID_ACCOUNT_ID": TemINVALID_ACCOUNT_ID,
	}

	for code, result := range codes {
		if len(msg) >= len(code) && msg[:len(code)] == code {
			if len(msg) == len(code) || msg[len(code)] == ':' || msg[len(code)] == ' ' {
				return result
			}
		}
	}

	return TemINVALID
}

// validateFee validates the Fee field
func (e *Engine) validateFee(common *Common) Result {
	if common.Fee == 0 {
		return TesSUCCESS // falls back to the base fee
	}

	maxFee := e.config.MaxFee
	if maxFee == 0 {
		maxFee = DefaultMaxFee
	}
	if common.Fee > maxFee {
		return TemBAD_FEE
	}

	return TesSUCCESS
}

// preclaim validates the transaction against the current ledger state
func (e *Engine) preclaim(t Transaction) Result {
	common := t.GetCommon()

	accountID, err := sle.DecodeAccountID(common.Account)
	if err != nil {
		return TemBAD_SRC_ACCOUNT
	}

	accountKey := keylet.Account(accountID)
	accountData, err := e.view.Read(accountKey)
	if err != nil {
		return TefINTERNAL
	}
	if accountData == nil {
		return TerNO_ACCOUNT
	}

	account, err := sle.ParseAccountRoot(accountData)
	if err != nil {
		return TefINTERNAL
	}

	if common.Sequence < account.Sequence {
		return TefPAST_SEQ
	}
	if common.Sequence > account.Sequence {
		return TerPRE_SEQ
	}

	fee := e.calculateFee(t)
	if fee < e.config.BaseFee {
		return TelINSUF_FEE_P
	}
	if account.Balance < fee {
		return TerINSUF_FEE_B
	}

	return TesSUCCESS
}

// doApply applies the transaction to the ledger.
// For tec results, only the fee and sequence changes are applied; the
// transaction's effects are discarded with the state table.
func (e *Engine) doApply(t Transaction, metadata *Metadata, txHash [32]byte, fee uint64) Result {
	common := t.GetCommon()
	accountID, _ := sle.DecodeAccountID(common.Account)
	accountKey := keylet.Account(accountID)

	accountData, err := e.view.Read(accountKey)
	if err != nil {
		return TefINTERNAL
	}
	account, err := sle.ParseAccountRoot(accountData)
	if err != nil {
		return TefINTERNAL
	}

	// Deduct the fee and consume the sequence before the transaction
	// body runs, so the body observes the post-fee balance.
	account.Balance -= fee
	account.Sequence = common.Sequence + 1

	table := NewApplyStateTable(e.view)
	updatedData, err := sle.SerializeAccountRoot(account)
	if err != nil {
		return TefINTERNAL
	}
	if err := table.Update(accountKey, updatedData); err != nil {
		return TefINTERNAL
	}

	ctx := &ApplyContext{
		View:      table,
		Account:   common.Account,
		AccountID: accountID,
		Config:    e.config,
		TxHash:    txHash,
		Metadata:  metadata,
	}

	var result Result
	if appliable, ok := t.(Appliable); ok {
		result = appliable.Apply(ctx)
	} else {
		result = TesSUCCESS
	}

	if result.IsTec() {
		// Discard the transaction's effects; claim fee and sequence only.
		metadata.Events = nil
		if err := e.view.Update(accountKey, updatedData); err != nil {
			return TefINTERNAL
		}
		metadata.AffectedNodes = []AffectedNode{
			{
				NodeType:        "ModifiedNode",
				LedgerEntryType: accountKey.Type.String(),
				LedgerIndex:     keylet.Hex(accountKey.Key),
			},
		}
		return result
	}

	if !result.IsSuccess() {
		return result
	}

	generatedMeta, err := table.Apply()
	if err != nil {
		return TefINTERNAL
	}
	metadata.AffectedNodes = generatedMeta.AffectedNodes

	return result
}

// calculateFee returns the fee to charge for a transaction
func (e *Engine) calculateFee(t Transaction) uint64 {
	common := t.GetCommon()
	if common.Fee != 0 {
		return common.Fee
	}
	return e.config.BaseFee
}
