package hover_test

import (
	"context"

	"github.com/stretchr/testify/mock"

	"github.com/walteh/tshover/pkg/position"
	"github.com/walteh/tshover/pkg/quickinfo"
)

type mockEngine struct {
	mock.Mock
}

func (m *mockEngine) QuickInfoAt(ctx context.Context, file string, offset position.Offset) (*quickinfo.QuickInfo, error) {
	args := m.Called(ctx, file, offset)
	info, _ := args.Get(0).(*quickinfo.QuickInfo)
	return info, args.Error(1)
}

type panickingEngine struct{}

func (panickingEngine) QuickInfoAt(ctx context.Context, file string, offset position.Offset) (*quickinfo.QuickInfo, error) {
	panic("debug failure: unexpected node kind")
}
