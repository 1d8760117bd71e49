// Package sqlite implements the history database over an embedded
// SQLite file.
package sqlite

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"time"

	"github.com/openxm/marketd/internal/storage/relationaldb"
	_ "modernc.org/sqlite" // SQLite driver
)

const schema = `
CREATE TABLE IF NOT EXISTS ledgers (
	sequence     INTEGER PRIMARY KEY,
	hash         TEXT NOT NULL UNIQUE,
	parent_hash  TEXT NOT NULL,
	state_hash   TEXT NOT NULL,
	tx_hash      TEXT NOT NULL,
	total_coins  INTEGER NOT NULL,
	close_time   INTEGER NOT NULL,
	tx_count     INTEGER NOT NULL
);

CREATE TABLE IF NOT EXISTS transactions (
	hash        TEXT PRIMARY KEY,
	ledger_seq  INTEGER NOT NULL,
	tx_index    INTEGER NOT NULL,
	account     TEXT NOT NULL,
	tx_type     TEXT NOT NULL,
	result      TEXT NOT NULL,
	tx_blob     BLOB NOT NULL,
	meta_blob   BLOB
);
CREATE INDEX IF NOT EXISTS idx_transactions_account ON transactions (account, ledger_seq DESC, tx_index DESC);
CREATE INDEX IF NOT EXISTS idx_transactions_ledger ON transactions (ledger_seq);

CREATE TABLE IF NOT EXISTS trades (
	id          INTEGER PRIMARY KEY AUTOINCREMENT,
	kind        TEXT NOT NULL,
	listing_id  INTEGER NOT NULL,
	offer_id    INTEGER NOT NULL,
	asset_id    INTEGER NOT NULL,
	amount      INTEGER NOT NULL,
	price       INTEGER NOT NULL,
	seller      TEXT NOT NULL,
	buyer       TEXT NOT NULL,
	ledger_seq  INTEGER NOT NULL,
	tx_hash     TEXT NOT NULL
);
CREATE INDEX IF NOT EXISTS idx_trades_asset ON trades (asset_id, id DESC);
CREATE INDEX IF NOT EXISTS idx_trades_listing ON trades (listing_id);
CREATE INDEX IF NOT EXISTS idx_trades_seller ON trades (seller);
CREATE INDEX IF NOT EXISTS idx_trades_buyer ON trades (buyer);
`

// Database implements relationaldb.Database over a SQLite file.
// Pass ":memory:" as the path for an in-memory database.
type Database struct {
	path string
	db   *sql.DB
}

// NewDatabase creates an unopened SQLite history database.
func NewDatabase(path string) *Database {
	return &Database{path: path}
}

// Open opens the database file and initializes the schema.
func (d *Database) Open(ctx context.Context) error {
	db, err := sql.Open("sqlite", d.path)
	if err != nil {
		return fmt.Errorf("failed to open sqlite database at %s: %w", d.path, err)
	}

	// SQLite handles one writer at a time.
	db.SetMaxOpenConns(1)

	if _, err := db.ExecContext(ctx, "PRAGMA journal_mode=WAL;"); err != nil {
		db.Close()
		return fmt.Errorf("failed to enable WAL mode: %w", err)
	}
	if _, err := db.ExecContext(ctx, schema); err != nil {
		db.Close()
		return fmt.Errorf("failed to initialize schema: %w", err)
	}

	d.db = db
	return nil
}

// Close closes the database connection.
func (d *Database) Close(ctx context.Context) error {
	if d.db == nil {
		return nil
	}
	err := d.db.Close()
	d.db = nil
	return err
}

// IsOpen reports whether the database is open.
func (d *Database) IsOpen() bool {
	return d.db != nil
}

// SaveValidatedLedger stores a ledger header with its transactions and
// trades atomically.
func (d *Database) SaveValidatedLedger(ctx context.Context, info *relationaldb.LedgerInfo, txs []*relationaldb.TransactionInfo, trades []*relationaldb.Trade) error {
	if d.db == nil {
		return relationaldb.ErrDatabaseClosed
	}

	sqlTx, err := d.db.BeginTx(ctx, nil)
	if err != nil {
		return err
	}
	defer sqlTx.Rollback()

	_, err = sqlTx.ExecContext(ctx,
		`INSERT OR REPLACE INTO ledgers
		 (sequence, hash, parent_hash, state_hash, tx_hash, total_coins, close_time, tx_count)
		 VALUES (?, ?, ?, ?, ?, ?, ?, ?)`,
		info.Sequence, info.Hash, info.ParentHash, info.StateHash, info.TxHash,
		int64(info.TotalCoins), info.CloseTime.Unix(), info.TxCount)
	if err != nil {
		return fmt.Errorf("failed to save ledger %d: %w", info.Sequence, err)
	}

	for _, t := range txs {
		_, err = sqlTx.ExecContext(ctx,
			`INSERT OR REPLACE INTO transactions
			 (hash, ledger_seq, tx_index, account, tx_type, result, tx_blob, meta_blob)
			 VALUES (?, ?, ?, ?, ?, ?, ?, ?)`,
			t.Hash, t.LedgerSeq, t.TxIndex, t.Account, t.TxType, t.Result, t.TxBlob, t.MetaBlob)
		if err != nil {
			return fmt.Errorf("failed to save transaction %s: %w", t.Hash, err)
		}
	}

	for _, tr := range trades {
		_, err = sqlTx.ExecContext(ctx,
			`INSERT INTO trades
			 (kind, listing_id, offer_id, asset_id, amount, price, seller, buyer, ledger_seq, tx_hash)
			 VALUES (?, ?, ?, ?, ?, ?, ?, ?, ?, ?)`,
			string(tr.Kind), int64(tr.ListingID), tr.OfferID, int64(tr.AssetID),
			int64(tr.Amount), int64(tr.Price), tr.Seller, tr.Buyer, tr.LedgerSeq, tr.TxHash)
		if err != nil {
			return fmt.Errorf("failed to save trade for listing %d: %w", tr.ListingID, err)
		}
	}

	return sqlTx.Commit()
}

// GetLedgerBySeq returns the header for a ledger sequence.
func (d *Database) GetLedgerBySeq(ctx context.Context, seq uint32) (*relationaldb.LedgerInfo, error) {
	if d.db == nil {
		return nil, relationaldb.ErrDatabaseClosed
	}
	row := d.db.QueryRowContext(ctx,
		`SELECT sequence, hash, parent_hash, state_hash, tx_hash, total_coins, close_time, tx_count
		 FROM ledgers WHERE sequence = ?`, seq)
	return scanLedger(row)
}

// GetLedgerByHash returns the header for a ledger hash.
func (d *Database) GetLedgerByHash(ctx context.Context, hash string) (*relationaldb.LedgerInfo, error) {
	if d.db == nil {
		return nil, relationaldb.ErrDatabaseClosed
	}
	row := d.db.QueryRowContext(ctx,
		`SELECT sequence, hash, parent_hash, state_hash, tx_hash, total_coins, close_time, tx_count
		 FROM ledgers WHERE hash = ?`, hash)
	return scanLedger(row)
}

// GetLedgerRange returns the lowest and highest stored ledger sequence.
func (d *Database) GetLedgerRange(ctx context.Context) (uint32, uint32, error) {
	if d.db == nil {
		return 0, 0, relationaldb.ErrDatabaseClosed
	}
	var min, max sql.NullInt64
	err := d.db.QueryRowContext(ctx,
		`SELECT MIN(sequence), MAX(sequence) FROM ledgers`).Scan(&min, &max)
	if err != nil {
		return 0, 0, err
	}
	if !min.Valid {
		return 0, 0, relationaldb.ErrLedgerNotFound
	}
	return uint32(min.Int64), uint32(max.Int64), nil
}

// GetTransaction returns a transaction by hash.
func (d *Database) GetTransaction(ctx context.Context, hash string) (*relationaldb.TransactionInfo, error) {
	if d.db == nil {
		return nil, relationaldb.ErrDatabaseClosed
	}
	row := d.db.QueryRowContext(ctx,
		`SELECT hash, ledger_seq, tx_index, account, tx_type, result, tx_blob, meta_blob
		 FROM transactions WHERE hash = ?`, hash)

	t := &relationaldb.TransactionInfo{}
	err := row.Scan(&t.Hash, &t.LedgerSeq, &t.TxIndex, &t.Account, &t.TxType, &t.Result, &t.TxBlob, &t.MetaBlob)
	if errors.Is(err, sql.ErrNoRows) {
		return nil, relationaldb.ErrTransactionNotFound
	}
	if err != nil {
		return nil, err
	}
	return t, nil
}

// GetAccountTransactions returns an account's transactions, newest
// first.
func (d *Database) GetAccountTransactions(ctx context.Context, account string, limit uint32) ([]*relationaldb.TransactionInfo, error) {
	if d.db == nil {
		return nil, relationaldb.ErrDatabaseClosed
	}
	if limit == 0 {
		limit = 50
	}
	rows, err := d.db.QueryContext(ctx,
		`SELECT hash, ledger_seq, tx_index, account, tx_type, result, tx_blob, meta_blob
		 FROM transactions WHERE account = ?
		 ORDER BY ledger_seq DESC, tx_index DESC LIMIT ?`, account, limit)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var txs []*relationaldb.TransactionInfo
	for rows.Next() {
		t := &relationaldb.TransactionInfo{}
		if err := rows.Scan(&t.Hash, &t.LedgerSeq, &t.TxIndex, &t.Account, &t.TxType, &t.Result, &t.TxBlob, &t.MetaBlob); err != nil {
			return nil, err
		}
		txs = append(txs, t)
	}
	return txs, rows.Err()
}

// GetTransactionCount returns the number of stored transactions.
func (d *Database) GetTransactionCount(ctx context.Context) (uint64, error) {
	if d.db == nil {
		return 0, relationaldb.ErrDatabaseClosed
	}
	var count uint64
	err := d.db.QueryRowContext(ctx, `SELECT COUNT(*) FROM transactions`).Scan(&count)
	return count, err
}

// GetTrades returns executed trades matching the query, newest first.
func (d *Database) GetTrades(ctx context.Context, q relationaldb.TradeQuery) ([]*relationaldb.Trade, error) {
	if d.db == nil {
		return nil, relationaldb.ErrDatabaseClosed
	}

	query := `SELECT id, kind, listing_id, offer_id, asset_id, amount, price, seller, buyer, ledger_seq, tx_hash
	          FROM trades WHERE 1=1`
	var args []any
	if q.HasAsset {
		query += ` AND asset_id = ?`
		args = append(args, int64(q.AssetID))
	}
	if q.ListingID != 0 {
		query += ` AND listing_id = ?`
		args = append(args, int64(q.ListingID))
	}
	if q.Account != "" {
		query += ` AND (seller = ? OR buyer = ?)`
		args = append(args, q.Account, q.Account)
	}
	limit := q.Limit
	if limit == 0 {
		limit = 50
	}
	query += ` ORDER BY id DESC LIMIT ?`
	args = append(args, limit)

	rows, err := d.db.QueryContext(ctx, query, args...)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var trades []*relationaldb.Trade
	for rows.Next() {
		tr := &relationaldb.Trade{}
		var kind string
		var listingID, assetID, amount, price int64
		if err := rows.Scan(&tr.ID, &kind, &listingID, &tr.OfferID, &assetID,
			&amount, &price, &tr.Seller, &tr.Buyer, &tr.LedgerSeq, &tr.TxHash); err != nil {
			return nil, err
		}
		tr.Kind = relationaldb.TradeKind(kind)
		tr.ListingID = uint64(listingID)
		tr.AssetID = uint64(assetID)
		tr.Amount = uint64(amount)
		tr.Price = uint64(price)
		trades = append(trades, tr)
	}
	return trades, rows.Err()
}

// GetTradeCount returns the number of recorded trades.
func (d *Database) GetTradeCount(ctx context.Context) (uint64, error) {
	if d.db == nil {
		return 0, relationaldb.ErrDatabaseClosed
	}
	var count uint64
	err := d.db.QueryRowContext(ctx, `SELECT COUNT(*) FROM trades`).Scan(&count)
	return count, err
}

func scanLedger(row *sql.Row) (*relationaldb.LedgerInfo, error) {
	info := &relationaldb.LedgerInfo{}
	var closeTime, totalCoins int64
	err := row.Scan(&info.Sequence, &info.Hash, &info.ParentHash, &info.StateHash,
		&info.TxHash, &totalCoins, &closeTime, &info.TxCount)
	if errors.Is(err, sql.ErrNoRows) {
		return nil, relationaldb.ErrLedgerNotFound
	}
	if err != nil {
		return nil, err
	}
	info.TotalCoins = uint64(totalCoins)
	info.CloseTime = time.Unix(closeTime, 0).UTC()
	return info, nil
}
