package rpc

import (
	"github.com/openxm/marketd/internal/core/ledger/keylet"
	"github.com/openxm/marketd/internal/core/ledger/service"
)

// Stream names a subscription stream.
type Stream string

const (
	// StreamLedger delivers a message each time a ledger closes.
	StreamLedger Stream = "ledger"

	// StreamTransactions delivers each validated transaction.
	StreamTransactions Stream = "transactions"

	// StreamMarket delivers marketplace events: SaleCreated,
	// TokenBought, OfferAccepted, and the rest.
	StreamMarket Stream = "market"
)

// Valid reports whether s names a known stream.
func (s Stream) Valid() bool {
	switch s {
	case StreamLedger, StreamTransactions, StreamMarket:
		return true
	}
	return false
}

// EventHooks builds the ledger service hooks that forward events to
// WebSocket subscribers.
func (ws *WebSocketServer) EventHooks() *service.EventHooks {
	return &service.EventHooks{
		OnLedgerClosed: func(event service.LedgerClosedEvent) {
			ws.Broadcast(StreamLedger, map[string]any{
				"type":         "ledgerClosed",
				"ledger_index": event.Sequence,
				"ledger_hash":  keylet.Hex(event.Hash),
				"parent_hash":  keylet.Hex(event.ParentHash),
				"close_time":   event.CloseTime,
				"txn_count":    event.TxCount,
				"total_coins":  event.TotalCoins,
			})
		},
		OnTransaction: func(event service.TransactionEvent) {
			ws.Broadcast(StreamTransactions, map[string]any{
				"type":         "transaction",
				"hash":         keylet.Hex(event.Hash),
				"account":      event.Account,
				"tx_type":      event.TxType,
				"result":       event.Result,
				"ledger_index": event.LedgerSeq,
				"ledger_hash":  keylet.Hex(event.LedgerHash),
				"tx_index":     event.TxIndex,
				"meta":         event.Metadata,
				"close_time":   event.CloseTime,
			})
		},
		OnMarketEvent: func(event service.MarketEvent) {
			ws.Broadcast(StreamMarket, map[string]any{
				"type":         "marketEvent",
				"name":         event.Name,
				"data":         event.Data,
				"tx_hash":      keylet.Hex(event.TxHash),
				"ledger_index": event.LedgerSeq,
			})
		},
	}
}
