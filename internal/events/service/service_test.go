package service_test

import (
	"bytes"
	"context"
	"errors"
	"fmt"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/mock"
	"github.com/stretchr/testify/require"

	"ms-events/internal/events"
	"ms-events/internal/events/service"
	"ms-events/internal/logger"
	"ms-events/internal/models"
	"ms-events/internal/notify"
)

// MockEventDBLayer is a mock implementation of the EventDBLayer interface
type MockEventDBLayer struct {
	mock.Mock
}

func (m *MockEventDBLayer) Insert(ctx context.Context, description string) (*models.Event, error) {
	args := m.Called(description)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(*models.Event), args.Error(1)
}

func (m *MockEventDBLayer) ListAll(ctx context.Context) ([]models.Event, error) {
	args := m.Called()
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).([]models.Event), args.Error(1)
}

func (m *MockEventDBLayer) GetByID(ctx context.Context, id int64) (*models.Event, error) {
	args := m.Called(id)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(*models.Event), args.Error(1)
}

func (m *MockEventDBLayer) UpdateByID(ctx context.Context, id int64, description string) (*models.Event, error) {
	args := m.Called(id, description)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(*models.Event), args.Error(1)
}

func (m *MockEventDBLayer) DeleteByID(ctx context.Context, id int64) error {
	args := m.Called(id)
	return args.Error(0)
}

func (m *MockEventDBLayer) Ping(ctx context.Context) error {
	args := m.Called()
	return args.Error(0)
}

// MockPublisher records published changes
type MockPublisher struct {
	mock.Mock
}

func (m *MockPublisher) Publish(ctx context.Context, change notify.Change) error {
	args := m.Called(change)
	return args.Error(0)
}

func (m *MockPublisher) Name() string { return "mock" }

func (m *MockPublisher) Close() error { return nil }

func newService(t *testing.T) (*service.EventService, *MockEventDBLayer, *MockPublisher, *bytes.Buffer) {
	t.Helper()
	mockDB := new(MockEventDBLayer)
	mockPub := new(MockPublisher)
	var out bytes.Buffer
	svc := service.NewEventService(mockDB, mockPub, logger.NewWithWriters(&out, nil, "DEBUG"))
	return svc, mockDB, mockPub, &out
}

func sampleEvent(id int64, description string) *models.Event {
	return &models.Event{ID: id, Description: description, CreatedAt: time.Now().UTC()}
}

func TestCreateEventPublishesChange(t *testing.T) {
	svc, mockDB, mockPub, _ := newService(t)

	created := sampleEvent(1, "Buy milk")
	mockDB.On("Insert", "Buy milk").Return(created, nil)
	mockPub.On("Publish", mock.MatchedBy(func(c notify.Change) bool {
		return c.Action == notify.ActionCreated && c.Event.ID == 1
	})).Return(nil)

	event, err := svc.CreateEvent(context.Background(), "Buy milk")

	require.NoError(t, err)
	assert.Equal(t, created, event)
	mockDB.AssertExpectations(t)
	mockPub.AssertExpectations(t)
}

func TestCreateEventPublishFailureIsNotFatal(t *testing.T) {
	svc, mockDB, mockPub, out := newService(t)

	mockDB.On("Insert", "Buy milk").Return(sampleEvent(1, "Buy milk"), nil)
	mockPub.On("Publish", mock.Anything).Return(errors.New("broker down"))

	event, err := svc.CreateEvent(context.Background(), "Buy milk")

	require.NoError(t, err)
	assert.Equal(t, int64(1), event.ID)
	assert.Contains(t, out.String(), "broker down")
}

func TestCreateEventPersistenceError(t *testing.T) {
	svc, mockDB, mockPub, _ := newService(t)

	mockDB.On("Insert", "x").Return(nil, &events.PersistenceError{Op: "insert", Err: errors.New("connection refused")})

	event, err := svc.CreateEvent(context.Background(), "x")

	assert.Nil(t, event)
	assert.True(t, errors.Is(err, events.ErrPersistence))
	mockPub.AssertNotCalled(t, "Publish", mock.Anything)
}

func TestListEvents(t *testing.T) {
	svc, mockDB, _, _ := newService(t)

	mockDB.On("ListAll").Return([]models.Event{*sampleEvent(1, "A"), *sampleEvent(2, "B")}, nil)

	list, err := svc.ListEvents(context.Background())

	require.NoError(t, err)
	require.Len(t, list, 2)
	assert.Equal(t, "A", list[0].Description)
}

func TestGetEvent(t *testing.T) {
	svc, mockDB, _, _ := newService(t)

	mockDB.On("GetByID", int64(3)).Return(sampleEvent(3, "found"), nil)
	mockDB.On("GetByID", int64(4)).Return(nil, fmt.Errorf("event 4: %w", events.ErrNotFound))

	event, err := svc.GetEvent(context.Background(), 3)
	require.NoError(t, err)
	assert.Equal(t, "found", event.Description)

	event, err = svc.GetEvent(context.Background(), 4)
	assert.Nil(t, event)
	assert.True(t, errors.Is(err, events.ErrNotFound))
	mockDB.AssertExpectations(t)
}

func TestUpdateEventAmbiguousIsLoggedAsInvariantViolation(t *testing.T) {
	svc, mockDB, mockPub, out := newService(t)

	mockDB.On("UpdateByID", int64(5), "New text").Return(nil, fmt.Errorf("event 5: %w", events.ErrAmbiguousResult))

	event, err := svc.UpdateEvent(context.Background(), 5, "New text")

	assert.Nil(t, event)
	assert.True(t, errors.Is(err, events.ErrAmbiguousResult))
	assert.Contains(t, out.String(), "invariant violation")
	mockPub.AssertNotCalled(t, "Publish", mock.Anything)
}

func TestUpdateEventPublishesChange(t *testing.T) {
	svc, mockDB, mockPub, _ := newService(t)

	mockDB.On("UpdateByID", int64(5), "New text").Return(sampleEvent(5, "New text"), nil)
	mockPub.On("Publish", mock.MatchedBy(func(c notify.Change) bool {
		return c.Action == notify.ActionUpdated && c.Event.Description == "New text"
	})).Return(nil)

	event, err := svc.UpdateEvent(context.Background(), 5, "New text")

	require.NoError(t, err)
	assert.Equal(t, "New text", event.Description)
	mockPub.AssertExpectations(t)
}

func TestDeleteEvent(t *testing.T) {
	svc, mockDB, mockPub, _ := newService(t)

	mockDB.On("DeleteByID", int64(9)).Return(nil).Once()
	mockDB.On("DeleteByID", int64(9)).Return(fmt.Errorf("event 9: %w", events.ErrNotFound)).Once()
	mockPub.On("Publish", mock.MatchedBy(func(c notify.Change) bool {
		return c.Action == notify.ActionDeleted && c.Event.ID == 9
	})).Return(nil).Once()

	require.NoError(t, svc.DeleteEvent(context.Background(), 9))

	err := svc.DeleteEvent(context.Background(), 9)
	assert.True(t, errors.Is(err, events.ErrNotFound))

	mockDB.AssertExpectations(t)
	mockPub.AssertExpectations(t)
}

func TestHealth(t *testing.T) {
	svc, mockDB, _, _ := newService(t)

	mockDB.On("Ping").Return(nil)

	assert.NoError(t, svc.Health(context.Background()))
}

func TestNewEventServiceDefaults(t *testing.T) {
	svc := service.NewEventService(new(MockEventDBLayer), nil, nil)

	assert.Equal(t, "none", svc.Publisher.Name())
	assert.NotNil(t, svc.Logger)
}
