package omekas

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"log/slog"

	"github.com/st-keller/omekas-client/ledger"
	"github.com/st-keller/omekas-client/types"
)

const (
	// TitleTerm is the conventional title property of every resource.
	TitleTerm = "dcterms:title"
	// Untitled is returned by Title when the item has no title value.
	Untitled = "[Untitled]"
)

// Item is a repository resource with its property values and version ledger.
//
// Local edits (AddProperty, RemoveValue) only change the in-memory payload
// until Update succeeds. Refresh replaces the payload with the server copy
// and silently discards unsynced edits.
type Item struct {
	repo    *Repository
	payload types.Resource
	ledger  *ledger.Ledger
}

func newItem(repo *Repository, payload types.Resource) (*Item, error) {
	l, err := ledger.New(ledger.Created, payload)
	if err != nil {
		return nil, err
	}
	return &Item{repo: repo, payload: payload, ledger: l}, nil
}

// ID returns the item's "o:id".
func (i *Item) ID() int {
	return i.payload.ID()
}

// Title returns the first dcterms:title value, or Untitled.
func (i *Item) Title() string {
	for _, record := range i.payload.Properties[TitleTerm] {
		if record.Literal() != nil {
			return newValue(i.repo, TitleTerm, record).String()
		}
	}
	return Untitled
}

// GetProperties returns every property term of the item with its values in
// order. Metadata keys ("o:", "@") are not included.
func (i *Item) GetProperties() map[string][]*Value {
	out := make(map[string][]*Value, len(i.payload.Properties))
	for term, records := range i.payload.Properties {
		out[term] = i.wrapValues(term, records)
	}
	return out
}

// GetProperty returns the values of one property, empty if the item has none.
func (i *Item) GetProperty(ctx context.Context, id Identifier) ([]*Value, error) {
	property, err := resolve(ctx, i.repo, id)
	if err != nil {
		return nil, err
	}
	return i.wrapValues(property.Term(), i.payload.Properties[property.Term()]), nil
}

// AddProperty appends a value for a property. Values default to public
// literals; the same literal may be added more than once.
func (i *Item) AddProperty(ctx context.Context, id Identifier, value any, opts ...ValueOption) error {
	property, err := resolve(ctx, i.repo, id)
	if err != nil {
		return err
	}

	record := types.ValueRecord{
		IsPublic:      true,
		PropertyID:    property.ID(),
		PropertyLabel: property.Label(),
		Type:          DefaultValueType,
	}
	if err := record.SetLiteral(value); err != nil {
		return err
	}
	for _, opt := range opts {
		opt(&record)
	}

	if i.payload.Properties == nil {
		i.payload.Properties = make(map[string][]types.ValueRecord)
	}
	term := property.Term()
	i.payload.Properties[term] = append(i.payload.Properties[term], record)
	return nil
}

// RemoveValue removes every value of the property whose literal equals value
// as canonical JSON. The remaining values keep their order.
func (i *Item) RemoveValue(ctx context.Context, id Identifier, value any) error {
	property, err := resolve(ctx, i.repo, id)
	if err != nil {
		return err
	}

	term := property.Term()
	records, ok := i.payload.Properties[term]
	if !ok {
		return nil
	}

	encoded, err := json.Marshal(value)
	if err != nil {
		return fmt.Errorf("failed to compare value: %w", err)
	}
	want, err := types.Canonical(encoded)
	if err != nil {
		return fmt.Errorf("failed to compare value: %w", err)
	}

	kept := make([]types.ValueRecord, 0, len(records))
	for _, record := range records {
		if record.Value != nil {
			got, err := types.Canonical(record.Value)
			if err == nil && bytes.Equal(got, want) {
				continue
			}
		}
		kept = append(kept, record)
	}
	i.payload.Properties[term] = kept
	return nil
}

// Update sends the full payload as a PATCH. On HTTP 200 the server's payload
// becomes the live payload and a new ledger version, and Update returns true.
// On any other status it returns false and leaves the item untouched.
func (i *Item) Update(ctx context.Context) (bool, error) {
	resp, err := i.repo.client.Patch(ctx, itemPath(i.ID()), i.payload, nil)
	if err != nil {
		return false, err
	}
	if !resp.OK() {
		i.repo.logger.Warn("Item update rejected",
			slog.Int("item_id", i.ID()),
			slog.Int("status", resp.StatusCode))
		return false, nil
	}

	var updated types.Resource
	if err := resp.JSON(&updated); err != nil {
		return false, err
	}
	if _, err := i.ledger.Append(ledger.Updated, updated); err != nil {
		return false, err
	}
	i.payload = updated
	return true, nil
}

// Refresh re-fetches the item bypassing the cache, records the fetched
// payload in the ledger and makes it the live payload. The ledger grows even
// when nothing changed.
func (i *Item) Refresh(ctx context.Context) error {
	fresh, err := i.repo.GetItem(ctx, i.ID(), false)
	if err != nil {
		return err
	}
	if _, err := i.ledger.Append(ledger.Refreshed, fresh.payload); err != nil {
		return err
	}
	i.payload = fresh.payload
	return nil
}

// Dirty reports whether the live payload differs from the latest ledger version.
func (i *Item) Dirty() bool {
	return !i.ledger.Matches(i.payload)
}

// Versions returns the ledger in version order.
func (i *Item) Versions() []ledger.Snapshot {
	return i.ledger.All()
}

// Version returns one ledger snapshot.
func (i *Item) Version(n int) (ledger.Snapshot, bool) {
	return i.ledger.Get(n)
}

// Payload returns a copy of the live payload.
func (i *Item) Payload() types.Resource {
	return i.payload.Clone()
}

// MarshalJSON encodes the live payload in its wire shape.
func (i *Item) MarshalJSON() ([]byte, error) {
	return json.Marshal(i.payload)
}

func (i *Item) wrapValues(term string, records []types.ValueRecord) []*Value {
	values := make([]*Value, 0, len(records))
	for _, record := range records {
		values = append(values, newValue(i.repo, term, record))
	}
	return values
}
