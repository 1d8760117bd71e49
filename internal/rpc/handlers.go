package rpc

import (
	"context"
	"encoding/hex"
	"encoding/json"
	"errors"

	"github.com/openxm/marketd/internal/core/ledger/keylet"
	"github.com/openxm/marketd/internal/core/ledger/service"
	"github.com/openxm/marketd/internal/core/tx"
	"github.com/openxm/marketd/internal/storage/relationaldb"
)

func (s *Server) registerMethods() {
	s.registry.Register("server_info", s.handleServerInfo)
	s.registry.Register("fee", s.handleFee)
	s.registry.Register("submit", s.handleSubmit)
	s.registry.Register("ledger_accept", s.handleLedgerAccept)
	s.registry.Register("ledger", s.handleLedger)
	s.registry.Register("ledger_current", s.handleLedgerCurrent)
	s.registry.Register("account_info", s.handleAccountInfo)
	s.registry.Register("account_tx", s.handleAccountTx)
	s.registry.Register("asset_balance", s.handleAssetBalance)
	s.registry.Register("asset_approval", s.handleAssetApproval)
	s.registry.Register("payment_balance", s.handlePaymentBalance)
	s.registry.Register("payment_allowance", s.handlePaymentAllowance)
	s.registry.Register("listing", s.handleListing)
	s.registry.Register("listings", s.handleListings)
	s.registry.Register("offer", s.handleOffer)
	s.registry.Register("listing_offers", s.handleListingOffers)
	s.registry.Register("market_info", s.handleMarketInfo)
	s.registry.Register("trade_history", s.handleTradeHistory)
	s.registry.Register("tx", s.handleTx)
}

func (s *Server) handleServerInfo(ctx context.Context, params json.RawMessage) (any, *Error) {
	info := s.service.GetServerInfo()
	return map[string]any{"info": info}, nil
}

func (s *Server) handleFee(ctx context.Context, params json.RawMessage) (any, *Error) {
	return map[string]any{
		"base_fee":             s.service.BaseFee(),
		"max_fee":              uint64(tx.DefaultMaxFee),
		"current_ledger_index": s.service.GetCurrentLedgerIndex(),
	}, nil
}

type submitParams struct {
	TxJSON json.RawMessage `json:"tx_json"`
}

func (s *Server) handleSubmit(ctx context.Context, params json.RawMessage) (any, *Error) {
	p, rpcErr := unmarshalParams[submitParams](params)
	if rpcErr != nil {
		return nil, rpcErr
	}
	if len(p.TxJSON) == 0 {
		return nil, ErrInvalidParams("missing tx_json field")
	}

	transaction, err := tx.FromJSON(p.TxJSON)
	if err != nil {
		return nil, ErrInvalidParams("invalid transaction: " + err.Error())
	}

	result, err := s.service.SubmitTransaction(transaction)
	if err != nil {
		return nil, ErrInternal(err)
	}

	response := map[string]any{
		"engine_result":          result.Result.String(),
		"engine_result_code":     int(result.Result),
		"engine_result_message":  result.Message,
		"applied":                result.Applied,
		"fee":                    result.Fee,
		"current_ledger_index":   result.CurrentLedger,
		"validated_ledger_index": result.ValidatedLedger,
	}
	if result.Applied {
		response["tx_hash"] = keylet.Hex(result.Hash)
	}
	if result.Metadata != nil {
		response["meta"] = result.Metadata
	}
	return response, nil
}

func (s *Server) handleLedgerAccept(ctx context.Context, params json.RawMessage) (any, *Error) {
	seq, err := s.service.AcceptLedger(ctx)
	if err != nil {
		if errors.Is(err, service.ErrNotStandalone) {
			return nil, ErrNotSupported("ledger_accept requires standalone mode")
		}
		return nil, ErrInternal(err)
	}
	return map[string]any{"ledger_current_index": seq + 1}, nil
}

type ledgerParams struct {
	LedgerIndex string `json:"ledger_index"`
}

func (s *Server) handleLedger(ctx context.Context, params json.RawMessage) (any, *Error) {
	p, rpcErr := unmarshalParams[ledgerParams](params)
	if rpcErr != nil {
		return nil, rpcErr
	}
	info, err := s.service.GetLedgerInfo(p.LedgerIndex)
	if err != nil {
		return nil, queryError(err)
	}
	return map[string]any{"ledger": info}, nil
}

func (s *Server) handleLedgerCurrent(ctx context.Context, params json.RawMessage) (any, *Error) {
	return map[string]any{"ledger_current_index": s.service.GetCurrentLedgerIndex()}, nil
}

type accountInfoParams struct {
	Account     string `json:"account"`
	LedgerIndex string `json:"ledger_index"`
}

func (s *Server) handleAccountInfo(ctx context.Context, params json.RawMessage) (any, *Error) {
	p, rpcErr := unmarshalParams[accountInfoParams](params)
	if rpcErr != nil {
		return nil, rpcErr
	}
	if p.Account == "" {
		return nil, ErrInvalidParams("missing account field")
	}
	result, err := s.service.GetAccountInfo(p.Account, p.LedgerIndex)
	if err != nil {
		return nil, queryError(err)
	}
	return result, nil
}

type accountTxParams struct {
	Account string `json:"account"`
	Limit   uint32 `json:"limit"`
}

func (s *Server) handleAccountTx(ctx context.Context, params json.RawMessage) (any, *Error) {
	p, rpcErr := unmarshalParams[accountTxParams](params)
	if rpcErr != nil {
		return nil, rpcErr
	}
	if p.Account == "" {
		return nil, ErrInvalidParams("missing account field")
	}
	txs, err := s.service.GetAccountTransactions(ctx, p.Account, p.Limit)
	if err != nil {
		return nil, queryError(err)
	}
	return map[string]any{
		"account":      p.Account,
		"transactions": txs,
	}, nil
}

type assetBalanceParams struct {
	Account     string `json:"account"`
	AssetID     uint64 `json:"asset_id"`
	LedgerIndex string `json:"ledger_index"`
}

func (s *Server) handleAssetBalance(ctx context.Context, params json.RawMessage) (any, *Error) {
	p, rpcErr := unmarshalParams[assetBalanceParams](params)
	if rpcErr != nil {
		return nil, rpcErr
	}
	if p.Account == "" {
		return nil, ErrInvalidParams("missing account field")
	}
	result, err := s.service.GetAssetBalance(p.Account, p.AssetID, p.LedgerIndex)
	if err != nil {
		return nil, queryError(err)
	}
	return result, nil
}

type assetApprovalParams struct {
	Owner       string `json:"owner"`
	Operator    string `json:"operator"`
	LedgerIndex string `json:"ledger_index"`
}

func (s *Server) handleAssetApproval(ctx context.Context, params json.RawMessage) (any, *Error) {
	p, rpcErr := unmarshalParams[assetApprovalParams](params)
	if rpcErr != nil {
		return nil, rpcErr
	}
	if p.Owner == "" || p.Operator == "" {
		return nil, ErrInvalidParams("missing owner or operator field")
	}
	result, err := s.service.GetAssetApproval(p.Owner, p.Operator, p.LedgerIndex)
	if err != nil {
		return nil, queryError(err)
	}
	return result, nil
}

type paymentBalanceParams struct {
	Account     string `json:"account"`
	LedgerIndex string `json:"ledger_index"`
}

func (s *Server) handlePaymentBalance(ctx context.Context, params json.RawMessage) (any, *Error) {
	p, rpcErr := unmarshalParams[paymentBalanceParams](params)
	if rpcErr != nil {
		return nil, rpcErr
	}
	if p.Account == "" {
		return nil, ErrInvalidParams("missing account field")
	}
	result, err := s.service.GetPaymentBalance(p.Account, p.LedgerIndex)
	if err != nil {
		return nil, queryError(err)
	}
	return result, nil
}

type paymentAllowanceParams struct {
	Owner       string `json:"owner"`
	Spender     string `json:"spender"`
	LedgerIndex string `json:"ledger_index"`
}

func (s *Server) handlePaymentAllowance(ctx context.Context, params json.RawMessage) (any, *Error) {
	p, rpcErr := unmarshalParams[paymentAllowanceParams](params)
	if rpcErr != nil {
		return nil, rpcErr
	}
	if p.Owner == "" || p.Spender == "" {
		return nil, ErrInvalidParams("missing owner or spender field")
	}
	result, err := s.service.GetPaymentAllowance(p.Owner, p.Spender, p.LedgerIndex)
	if err != nil {
		return nil, queryError(err)
	}
	return result, nil
}

type listingParams struct {
	ListingID   uint64 `json:"listing_id"`
	LedgerIndex string `json:"ledger_index"`
}

func (s *Server) handleListing(ctx context.Context, params json.RawMessage) (any, *Error) {
	p, rpcErr := unmarshalParams[listingParams](params)
	if rpcErr != nil {
		return nil, rpcErr
	}
	if p.ListingID == 0 {
		return nil, ErrInvalidParams("missing listing_id field")
	}
	result, err := s.service.GetListing(p.ListingID, p.LedgerIndex)
	if err != nil {
		return nil, queryError(err)
	}
	return result, nil
}

type listingsParams struct {
	ActiveOnly  bool   `json:"active_only"`
	LedgerIndex string `json:"ledger_index"`
}

func (s *Server) handleListings(ctx context.Context, params json.RawMessage) (any, *Error) {
	p, rpcErr := unmarshalParams[listingsParams](params)
	if rpcErr != nil {
		return nil, rpcErr
	}
	result, err := s.service.GetListings(p.ActiveOnly, p.LedgerIndex)
	if err != nil {
		return nil, queryError(err)
	}
	return result, nil
}

type offerParams struct {
	ListingID   uint64 `json:"listing_id"`
	OfferID     uint32 `json:"offer_id"`
	LedgerIndex string `json:"ledger_index"`
}

func (s *Server) handleOffer(ctx context.Context, params json.RawMessage) (any, *Error) {
	p, rpcErr := unmarshalParams[offerParams](params)
	if rpcErr != nil {
		return nil, rpcErr
	}
	if p.ListingID == 0 || p.OfferID == 0 {
		return nil, ErrInvalidParams("missing listing_id or offer_id field")
	}
	result, err := s.service.GetOffer(p.ListingID, p.OfferID, p.LedgerIndex)
	if err != nil {
		return nil, queryError(err)
	}
	return result, nil
}

func (s *Server) handleListingOffers(ctx context.Context, params json.RawMessage) (any, *Error) {
	p, rpcErr := unmarshalParams[listingParams](params)
	if rpcErr != nil {
		return nil, rpcErr
	}
	if p.ListingID == 0 {
		return nil, ErrInvalidParams("missing listing_id field")
	}
	result, err := s.service.GetListingOffers(p.ListingID, p.LedgerIndex)
	if err != nil {
		return nil, queryError(err)
	}
	return result, nil
}

func (s *Server) handleMarketInfo(ctx context.Context, params json.RawMessage) (any, *Error) {
	p, rpcErr := unmarshalParams[ledgerParams](params)
	if rpcErr != nil {
		return nil, rpcErr
	}
	state, meta, err := s.service.GetMarketInfo(p.LedgerIndex)
	if err != nil {
		return nil, queryError(err)
	}
	return map[string]any{
		"market_account":  state.MarketAccount,
		"asset_issuer":    state.AssetIssuer,
		"payment_issuer":  state.PaymentIssuer,
		"next_listing_id": state.NextListingID,
		"ledger_index":    meta.LedgerIndex,
		"ledger_hash":     keylet.Hex(meta.LedgerHash),
		"validated":       meta.Validated,
	}, nil
}

type tradeHistoryParams struct {
	AssetID   *uint64 `json:"asset_id"`
	ListingID uint64  `json:"listing_id"`
	Account   string  `json:"account"`
	Limit     uint32  `json:"limit"`
}

func (s *Server) handleTradeHistory(ctx context.Context, params json.RawMessage) (any, *Error) {
	p, rpcErr := unmarshalParams[tradeHistoryParams](params)
	if rpcErr != nil {
		return nil, rpcErr
	}
	query := relationaldb.TradeQuery{
		ListingID: p.ListingID,
		Account:   p.Account,
		Limit:     p.Limit,
	}
	if p.AssetID != nil {
		query.AssetID = *p.AssetID
		query.HasAsset = true
	}
	trades, err := s.service.GetTradeHistory(ctx, query)
	if err != nil {
		return nil, queryError(err)
	}
	return map[string]any{"trades": trades}, nil
}

type txParams struct {
	Transaction string `json:"transaction"`
}

func (s *Server) handleTx(ctx context.Context, params json.RawMessage) (any, *Error) {
	p, rpcErr := unmarshalParams[txParams](params)
	if rpcErr != nil {
		return nil, rpcErr
	}
	if p.Transaction == "" {
		return nil, ErrInvalidParams("missing transaction field")
	}
	hash, err := parseHash(p.Transaction)
	if err != nil {
		return nil, ErrInvalidParams("invalid transaction hash: " + err.Error())
	}
	result, err := s.service.GetTransaction(ctx, hash)
	if err != nil {
		return nil, queryError(err)
	}
	return result, nil
}

// parseHash decodes a 64-character hex transaction hash.
func parseHash(s string) ([32]byte, error) {
	var hash [32]byte
	decoded, err := hex.DecodeString(s)
	if err != nil {
		return hash, err
	}
	if len(decoded) != 32 {
		return hash, errors.New("hash must be 32 bytes")
	}
	copy(hash[:], decoded)
	return hash, nil
}

// queryError maps service lookup errors onto RPC error codes.
func queryError(err error) *Error {
	switch {
	case errors.Is(err, service.ErrAccountNotFound),
		errors.Is(err, service.ErrListingNotFound),
		errors.Is(err, service.ErrOfferNotFound),
		errors.Is(err, service.ErrTxNotFound),
		errors.Is(err, service.ErrLedgerNotFound):
		return ErrNotFound(err.Error())
	case errors.Is(err, service.ErrNoHistory):
		return ErrNotSupported(err.Error())
	default:
		return ErrInternal(err)
	}
}
