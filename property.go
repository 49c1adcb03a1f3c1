package omekas

import (
	"context"

	"github.com/st-keller/omekas-client/types"
)

// Identifier names a property either by term or by an already resolved
// *Property. It is resolved once at the call boundary.
type Identifier interface {
	resolveProperty(ctx context.Context, r *Repository) (*Property, error)
}

// Term is a fully qualified property term ("prefix:local_name"). Resolving it
// costs one (cacheable) lookup.
type Term string

// resolve turns an Identifier into a Property, rejecting nil identifiers.
func resolve(ctx context.Context, r *Repository, id Identifier) (*Property, error) {
	if id == nil {
		return nil, ErrInvalidIdentifier
	}
	return id.resolveProperty(ctx, r)
}

func (t Term) resolveProperty(ctx context.Context, r *Repository) (*Property, error) {
	return r.GetProperty(ctx, string(t))
}

// Property is a read-only view of a property payload.
type Property struct {
	repo   *Repository
	record types.PropertyRecord
}

func newProperty(repo *Repository, record types.PropertyRecord) *Property {
	return &Property{repo: repo, record: record}
}

// A resolved Property is its own Identifier.
func (p *Property) resolveProperty(context.Context, *Repository) (*Property, error) {
	if p == nil {
		return nil, ErrInvalidIdentifier
	}
	return p, nil
}

func (p *Property) ID() int           { return p.record.ID }
func (p *Property) IRI() string       { return p.record.IRI }
func (p *Property) Term() string      { return p.record.Term }
func (p *Property) LocalName() string { return p.record.LocalName }
func (p *Property) Label() string     { return p.record.Label }
func (p *Property) Comment() string   { return p.record.Comment }
func (p *Property) VocabularyID() int { return p.record.Vocabulary.ID }

// Record returns the raw payload.
func (p *Property) Record() types.PropertyRecord { return p.record }

func (p *Property) String() string { return p.record.Term }

// Vocabulary looks up the property's vocabulary.
func (p *Property) Vocabulary(ctx context.Context) (*Vocabulary, error) {
	return p.repo.GetVocabularyByID(ctx, p.VocabularyID())
}
