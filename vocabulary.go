package omekas

import (
	"context"

	"github.com/st-keller/omekas-client/types"
)

// Vocabulary is a read-only view of a vocabulary payload.
type Vocabulary struct {
	repo   *Repository
	record types.VocabularyRecord
}

func newVocabulary(repo *Repository, record types.VocabularyRecord) *Vocabulary {
	return &Vocabulary{repo: repo, record: record}
}

func (v *Vocabulary) ID() int         { return v.record.ID }
func (v *Vocabulary) IRI() string     { return v.record.IRI }
func (v *Vocabulary) URI() string     { return v.record.NamespaceURI }
func (v *Vocabulary) Prefix() string  { return v.record.Prefix }
func (v *Vocabulary) Label() string   { return v.record.Label }
func (v *Vocabulary) Comment() string { return v.record.Comment }

// Record returns the raw payload.
func (v *Vocabulary) Record() types.VocabularyRecord { return v.record }

// Properties lists the properties of this vocabulary (one page of perPage,
// DefaultPerPage when <= 0).
func (v *Vocabulary) Properties(ctx context.Context, perPage int) ([]*Property, error) {
	if perPage <= 0 {
		perPage = DefaultPerPage
	}
	return v.repo.GetProperties(ctx, PropertyQuery{VocabularyID: v.ID(), PerPage: perPage})
}

// Property resolves one property of this vocabulary by local name.
func (v *Vocabulary) Property(ctx context.Context, localName string) (*Property, error) {
	properties, err := v.repo.GetProperties(ctx, PropertyQuery{VocabularyID: v.ID(), LocalName: localName})
	if err != nil {
		return nil, err
	}
	key := v.Prefix() + ":" + localName
	switch len(properties) {
	case 0:
		return nil, &NotFoundError{Kind: "property", Key: key}
	case 1:
		return properties[0], nil
	default:
		return nil, &AmbiguousResultError{Kind: "property", Key: key, Count: len(properties)}
	}
}
