package embeddings

import (
	"context"
	"image"

	"github.com/stretchr/testify/mock"
)

// MockModel is a mock implementation of Model using testify/mock.
type MockModel struct {
	mock.Mock
}

func (m *MockModel) EncodeText(ctx context.Context, text string) (Vector, error) {
	args := m.Called(ctx, text)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(Vector), args.Error(1)
}

func (m *MockModel) EncodeImage(ctx context.Context, img image.Image) (Vector, error) {
	args := m.Called(ctx, img)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(Vector), args.Error(1)
}
