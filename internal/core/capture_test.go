package core

import (
	"context"
	"errors"
	"testing"

	"attendance.service/internal/core/model"
	"attendance.service/internal/ports/messaging"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

type fakePunchCreator struct {
	err     error
	created []model.PunchEvent
}

func (f *fakePunchCreator) CreatePunch(_ context.Context, punch model.PunchEvent) error {
	if f.err != nil {
		return f.err
	}
	f.created = append(f.created, punch)
	return nil
}

type fakePublisher struct {
	err       error
	published []any
}

func (f *fakePublisher) PublishPunch(_ context.Context, body any) error {
	if f.err != nil {
		return f.err
	}
	f.published = append(f.published, body)
	return nil
}

func TestCapturePunch_PersistsThenPublishes(t *testing.T) {
	t.Parallel()
	creator := &fakePunchCreator{}
	publisher := &fakePublisher{}
	svc := NewCaptureService(creator, publisher)

	punchID, err := svc.CapturePunch(context.Background(), "biz-1", "emp-1", model.MethodFaceGeo, "kiosk-3")

	require.NoError(t, err)
	assert.NotEmpty(t, punchID)

	require.Len(t, creator.created, 1)
	punch := creator.created[0]
	assert.Equal(t, punchID, punch.ID)
	assert.Equal(t, model.MethodFaceGeo, punch.Method)
	assert.Equal(t, "kiosk-3", punch.DeviceContext)
	assert.False(t, punch.OccurredAt.IsZero())

	require.Len(t, publisher.published, 1)
	event, ok := publisher.published[0].(messaging.PunchCapturedEvent)
	require.True(t, ok)
	assert.Equal(t, punchID, event.PunchID)
	assert.Equal(t, "emp-1", event.EmployeeID)
}

func TestCapturePunch_StoreFailureSkipsPublish(t *testing.T) {
	t.Parallel()
	publisher := &fakePublisher{}
	svc := NewCaptureService(&fakePunchCreator{err: errors.New("insert failed")}, publisher)

	_, err := svc.CapturePunch(context.Background(), "biz-1", "emp-1", model.MethodQR, "")

	require.Error(t, err)
	assert.Empty(t, publisher.published)
}

func TestCapturePunch_PublishFailurePropagates(t *testing.T) {
	t.Parallel()
	creator := &fakePunchCreator{}
	svc := NewCaptureService(creator, &fakePublisher{err: errors.New("queue unavailable")})

	_, err := svc.CapturePunch(context.Background(), "biz-1", "emp-1", model.MethodQR, "")

	require.Error(t, err)
	assert.ErrorContains(t, err, "queue unavailable")
	// The punch row is durable; the event can be replayed.
	assert.Len(t, creator.created, 1)
}
