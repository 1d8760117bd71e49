package tx

// Event is a structured notification emitted by a successfully applied
// transaction. Events are recorded in the transaction metadata and
// published to stream subscribers when the ledger closes.
type Event struct {
	Name string         `json:"name"`
	Data map[string]any `json:"data"`
}

// Marketplace event names.
const (
	EventSaleCreated    = "SaleCreated"
	EventSaleCancelled  = "SaleCancelled"
	EventSaleUpdated    = "SaleUpdated"
	EventTokenBought    = "TokenBought"
	EventOfferCreated   = "OfferCreated"
	EventOfferCancelled = "OfferCancelled"
	EventOfferUpdated   = "OfferUpdated"
	EventOfferAccepted  = "OfferAccepted"
)
