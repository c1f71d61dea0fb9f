package providers

import (
	"testing"

	"github.com/preston-bernstein/bracket-live-service/internal/teststubs"
)

func TestDataProviderInterfaceImplemented(t *testing.T) {
	var _ DataProvider = (*teststubs.StubProvider)(nil)
	var _ DataProvider = NewRetryingProvider(nil, nil, nil, "", 0, 0)
	var _ DataProvider = NewRateLimitedProvider(nil, 0, 0, nil, nil)
}
