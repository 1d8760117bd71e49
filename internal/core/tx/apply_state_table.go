package tx

import (
	"bytes"
	"fmt"

	"github.com/openxm/marketd/internal/core/ledger/entry"
	"github.com/openxm/marketd/internal/core/ledger/keylet"
	"github.com/openxm/marketd/internal/core/tx/sle"
)

// Action represents the type of modification to a ledger entry
type Action int

const (
	// ActionCache means the entry was read but not modified
	ActionCache Action = iota
	// ActionInsert means a new entry was created
	ActionInsert
	// ActionModify means an existing entry was modified
	ActionModify
	// ActionErase means an entry was deleted
	ActionErase
)

// TrackedEntry represents a ledger entry being tracked for changes
type TrackedEntry struct {
	Action   Action
	Type     entry.Type
	Original []byte // Original state (nil for inserts)
	Current  []byte // Current state (last state before deletion for erases)
}

// ApplyStateTable wraps a LedgerView and buffers every modification so a
// transaction's effects commit all-or-nothing and metadata can be
// generated from the tracked changes.
type ApplyStateTable struct {
	base      LedgerView
	items     map[[32]byte]*TrackedEntry
	destroyed uint64
}

// NewApplyStateTable creates a new ApplyStateTable wrapping the given base view
func NewApplyStateTable(base LedgerView) *ApplyStateTable {
	return &ApplyStateTable{
		base:  base,
		items: make(map[[32]byte]*TrackedEntry),
	}
}

// Read reads a ledger entry, tracking it as cached
func (t *ApplyStateTable) Read(k keylet.Keylet) ([]byte, error) {
	if e, exists := t.items[k.Key]; exists {
		if e.Action == ActionErase {
			return nil, nil
		}
		return e.Current, nil
	}

	data, err := t.base.Read(k)
	if err != nil {
		return nil, err
	}

	// Only track entries that exist in the base
	if data != nil {
		t.items[k.Key] = &TrackedEntry{
			Action:   ActionCache,
			Type:     k.Type,
			Original: data,
			Current:  data,
		}
	}

	return data, nil
}

// Exists checks if an entry exists
func (t *ApplyStateTable) Exists(k keylet.Keylet) (bool, error) {
	if e, exists := t.items[k.Key]; exists {
		return e.Action != ActionErase, nil
	}
	return t.base.Exists(k)
}

// Insert adds a new entry
func (t *ApplyStateTable) Insert(k keylet.Keylet, data []byte) error {
	if e, exists := t.items[k.Key]; exists {
		if e.Action != ActionErase {
			return fmt.Errorf("entry already exists")
		}
		// Re-inserting a deleted entry becomes a modify
		e.Action = ActionModify
		e.Current = data
		return nil
	}

	exists, err := t.base.Exists(k)
	if err != nil {
		return err
	}
	if exists {
		return fmt.Errorf("entry already exists")
	}

	t.items[k.Key] = &TrackedEntry{
		Action:   ActionInsert,
		Type:     k.Type,
		Original: nil,
		Current:  data,
	}

	return nil
}

// Update modifies an existing entry
func (t *ApplyStateTable) Update(k keylet.Keylet, data []byte) error {
	if e, exists := t.items[k.Key]; exists {
		if e.Action == ActionErase {
			return fmt.Errorf("entry not found (deleted)")
		}
		if e.Action == ActionCache {
			e.Action = ActionModify
		}
		// Inserts stay inserts, just with new data
		e.Current = data
		return nil
	}

	original, err := t.base.Read(k)
	if err != nil {
		return err
	}

	t.items[k.Key] = &TrackedEntry{
		Action:   ActionModify,
		Type:     k.Type,
		Original: original,
		Current:  data,
	}

	return nil
}

// Erase removes an entry
func (t *ApplyStateTable) Erase(k keylet.Keylet) error {
	if e, exists := t.items[k.Key]; exists {
		if e.Action == ActionErase {
			return fmt.Errorf("entry already deleted")
		}
		if e.Action == ActionInsert {
			// Insert then delete cancels out
			delete(t.items, k.Key)
			return nil
		}
		// Current keeps the state before deletion for metadata
		e.Action = ActionErase
		return nil
	}

	original, err := t.base.Read(k)
	if err != nil {
		return err
	}

	t.items[k.Key] = &TrackedEntry{
		Action:   ActionErase,
		Type:     k.Type,
		Original: original,
		Current:  original,
	}

	return nil
}

// IsErased returns true if the entry at the given key has been erased.
func (t *ApplyStateTable) IsErased(k keylet.Keylet) bool {
	if e, exists := t.items[k.Key]; exists {
		return e.Action == ActionErase
	}
	return false
}

// AdjustCoinsDestroyed records destroyed native coins
func (t *ApplyStateTable) AdjustCoinsDestroyed(amount uint64) {
	t.destroyed += amount
}

// CoinsDestroyed returns the native coins destroyed so far
func (t *ApplyStateTable) CoinsDestroyed() uint64 {
	return t.destroyed
}

// ForEach iterates over all state entries. Buffered changes are not
// merged in; iteration reflects the base view.
func (t *ApplyStateTable) ForEach(fn func(key [32]byte, data []byte) bool) error {
	return t.base.ForEach(fn)
}

// Apply commits all tracked changes to the base view and returns the
// generated metadata.
func (t *ApplyStateTable) Apply() (*Metadata, error) {
	metadata := &Metadata{
		AffectedNodes: make([]AffectedNode, 0),
	}

	for key, e := range t.items {
		switch e.Action {
		case ActionCache:
			continue

		case ActionInsert:
			node, err := buildCreatedNode(key, e)
			if err != nil {
				return nil, err
			}
			metadata.AffectedNodes = append(metadata.AffectedNodes, node)

			if err := t.base.Insert(keylet.Keylet{Type: e.Type, Key: key}, e.Current); err != nil {
				return nil, err
			}

		case ActionModify:
			if bytes.Equal(e.Original, e.Current) {
				continue
			}

			node, err := buildModifiedNode(key, e)
			if err != nil {
				return nil, err
			}
			metadata.AffectedNodes = append(metadata.AffectedNodes, node)

			if err := t.base.Update(keylet.Keylet{Type: e.Type, Key: key}, e.Current); err != nil {
				return nil, err
			}

		case ActionErase:
			node, err := buildDeletedNode(key, e)
			if err != nil {
				return nil, err
			}
			metadata.AffectedNodes = append(metadata.AffectedNodes, node)

			if err := t.base.Erase(keylet.Keylet{Type: e.Type, Key: key}); err != nil {
				return nil, err
			}
		}
	}

	if t.destroyed > 0 {
		t.base.AdjustCoinsDestroyed(t.destroyed)
	}

	return metadata, nil
}

func buildCreatedNode(key [32]byte, e *TrackedEntry) (AffectedNode, error) {
	fields, err := decodeEntryFields(e.Current)
	if err != nil {
		return AffectedNode{}, err
	}
	return AffectedNode{
		NodeType:        "CreatedNode",
		LedgerEntryType: e.Type.String(),
		LedgerIndex:     keylet.Hex(key),
		NewFields:       fields,
	}, nil
}

func buildModifiedNode(key [32]byte, e *TrackedEntry) (AffectedNode, error) {
	origFields, err := decodeEntryFields(e.Original)
	if err != nil {
		return AffectedNode{}, err
	}
	currFields, err := decodeEntryFields(e.Current)
	if err != nil {
		return AffectedNode{}, err
	}

	previous := make(map[string]any)
	for name, origValue := range origFields {
		if !fieldsEqual(origValue, currFields[name]) {
			previous[name] = origValue
		}
	}
	if len(previous) == 0 {
		previous = nil
	}

	return AffectedNode{
		NodeType:        "ModifiedNode",
		LedgerEntryType: e.Type.String(),
		LedgerIndex:     keylet.Hex(key),
		FinalFields:     currFields,
		PreviousFields:  previous,
	}, nil
}

func buildDeletedNode(key [32]byte, e *TrackedEntry) (AffectedNode, error) {
	fields, err := decodeEntryFields(e.Current)
	if err != nil {
		return AffectedNode{}, err
	}
	return AffectedNode{
		NodeType:        "DeletedNode",
		LedgerEntryType: e.Type.String(),
		LedgerIndex:     keylet.Hex(key),
		FinalFields:     fields,
	}, nil
}

// decodeEntryFields decodes a serialized entry into a field map for
// metadata. Entries are canonical CBOR maps.
func decodeEntryFields(data []byte) (map[string]any, error) {
	if data == nil {
		return nil, nil
	}
	var fields map[string]any
	if err := sle.Decode(data, &fields); err != nil {
		return nil, err
	}
	return fields, nil
}

// fieldsEqual compares two decoded field values
func fieldsEqual(a, b any) bool {
	aMap, aIsMap := a.(map[string]any)
	bMap, bIsMap := b.(map[string]any)
	if aIsMap && bIsMap {
		if len(aMap) != len(bMap) {
			return false
		}
		for k, v := range aMap {
			if bv, ok := bMap[k]; !ok || !fieldsEqual(v, bv) {
				return false
			}
		}
		return true
	}
	return fmt.Sprintf("%v", a) == fmt.Sprintf("%v", b)
}
