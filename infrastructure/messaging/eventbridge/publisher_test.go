package eventbridge

import (
	"context"
	"testing"

	"github.com/aws/aws-sdk-go-v2/aws"
	"github.com/aws/aws-sdk-go-v2/service/eventbridge"
	"github.com/aws/aws-sdk-go-v2/service/eventbridge/types"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/mock"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap"

	"coursegraph/domain/events"
)

type mockAPI struct {
	mock.Mock
}

func (m *mockAPI) PutEvents(ctx context.Context, in *eventbridge.PutEventsInput, _ ...func(*eventbridge.Options)) (*eventbridge.PutEventsOutput, error) {
	args := m.Called(ctx, in)
	out, _ := args.Get(0).(*eventbridge.PutEventsOutput)
	return out, args.Error(1)
}

func TestPublisher_BatchesByTen(t *testing.T) {
	// Arrange
	api := new(mockAPI)
	pub := NewPublisher(api, "bus", zap.NewNop())
	evts := make([]events.Event, 0, 23)
	for i := 0; i < 23; i++ {
		evts = append(evts, events.New(events.TypeDocumentsUploaded, "u1", nil))
	}
	var sizes []int
	api.On("PutEvents", mock.Anything, mock.Anything).Run(func(args mock.Arguments) {
		in := args.Get(1).(*eventbridge.PutEventsInput)
		sizes = append(sizes, len(in.Entries))
		assert.Equal(t, events.Source, aws.ToString(in.Entries[0].Source))
		assert.Equal(t, "bus", aws.ToString(in.Entries[0].EventBusName))
	}).Return(&eventbridge.PutEventsOutput{}, nil)

	// Act
	err := pub.Publish(context.Background(), evts...)

	// Assert
	require.NoError(t, err)
	assert.Equal(t, []int{10, 10, 3}, sizes)
}

func TestPublisher_ReportsFailedEntries(t *testing.T) {
	api := new(mockAPI)
	pub := NewPublisher(api, "bus", zap.NewNop())
	api.On("PutEvents", mock.Anything, mock.Anything).Return(&eventbridge.PutEventsOutput{
		FailedEntryCount: 1,
		Entries:          []types.PutEventsResultEntry{{ErrorCode: aws.String("InternalFailure")}},
	}, nil)

	err := pub.Publish(context.Background(), events.New(events.TypeUserSignedIn, "u1", nil))

	assert.EqualError(t, err, "1 events failed to publish")
}

func TestPublisher_NoEvents(t *testing.T) {
	api := new(mockAPI)
	pub := NewPublisher(api, "bus", zap.NewNop())

	assert.NoError(t, pub.Publish(context.Background()))
	api.AssertNotCalled(t, "PutEvents", mock.Anything, mock.Anything)
}
