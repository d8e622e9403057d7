package summarize

import (
	"context"

	"github.com/stretchr/testify/mock"

	"github.com/sells-group/pricewatch-cli/pkg/anthropic"
)

// --- Anthropic Client Mock ---

type mockLLMClient struct {
	mock.Mock
}

func (m *mockLLMClient) CreateMessage(ctx context.Context, req anthropic.MessageRequest) (*anthropic.MessageResponse, error) {
	args := m.Called(ctx, req)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(*anthropic.MessageResponse), args.Error(1)
}

// Interface compliance checks.
var _ anthropic.Client = (*mockLLMClient)(nil)
