package testutil

import (
	"github.com/preston-bernstein/bracket-live-service/internal/app/bracketview"
	"github.com/preston-bernstein/bracket-live-service/internal/providers"
	"github.com/preston-bernstein/bracket-live-service/internal/store"
)

// NewBracketService builds a bracket view service over an in-memory store with no publisher.
func NewBracketService(provider providers.DataProvider) (*bracketview.Service, *store.ViewStore) {
	st := store.NewViewStore()
	return bracketview.NewService(provider, st, nil, nil, nil, bracketview.Config{}), st
}
