package usecases

import (
	"context"
	"errors"
	"path/filepath"
	"sync"
	"testing"

	"github.com/abelzeko/farm-alerts/internal/entities"
	"github.com/abelzeko/farm-alerts/internal/metrics"
	"github.com/abelzeko/farm-alerts/internal/repository"
	"github.com/jonboulle/clockwork"
	"github.com/rs/zerolog"
	"github.com/stretchr/testify/require"
)

type sentMessage struct {
	Destination string
	Body        string
}

// fakeSender records messages and fails for destinations listed in failFor
type fakeSender struct {
	mu      sync.Mutex
	sent    []sentMessage
	failFor map[string]bool
	block   bool
	closed  bool
}

func (f *fakeSender) Send(ctx context.Context, destination, body string) error {
	if f.block {
		<-ctx.Done()
		return ctx.Err()
	}
	if f.failFor[destination] {
		return errors.New("gateway rejected message")
	}
	f.mu.Lock()
	defer f.mu.Unlock()
	f.sent = append(f.sent, sentMessage{Destination: destination, Body: body})
	return nil
}

func (f *fakeSender) Close() error {
	f.closed = true
	return nil
}

func (f *fakeSender) factory(calls *int) SenderFactory {
	return func() (Sender, error) {
		if calls != nil {
			*calls++
		}
		return f, nil
	}
}

func newEmptyStore(t *testing.T) *repository.SQLiteStore {
	t.Helper()
	store, err := repository.NewSQLiteStore(filepath.Join(t.TempDir(), "empty.db"), repository.WithClock(clockwork.NewFakeClockAt(evalTime)))
	require.NoError(t, err)
	t.Cleanup(func() { store.Close() })
	return store
}

type fixture struct {
	store   *repository.SQLiteStore
	clock   *clockwork.FakeClock
	sender  *fakeSender
	calls   int
	farm    entities.Location
	metrics *metrics.Metrics
}

func newFixture(t *testing.T) *fixture {
	t.Helper()
	clock := clockwork.NewFakeClockAt(evalTime)
	store, err := repository.NewSQLiteStore(filepath.Join(t.TempDir(), "usecases.db"), repository.WithClock(clock))
	require.NoError(t, err)
	t.Cleanup(func() { store.Close() })

	farm, err := store.AddLocation(context.Background(), entities.Location{Name: "North Farm", Latitude: 1.2345, Longitude: 36.8765})
	require.NoError(t, err)

	return &fixture{
		store:   store,
		clock:   clock,
		sender:  &fakeSender{failFor: map[string]bool{}},
		farm:    farm,
		metrics: metrics.NewMetricsForTesting(),
	}
}

func (f *fixture) dispatcher() *Dispatcher {
	return NewDispatcher(f.store, f.store, f.sender.factory(&f.calls), 0, zerolog.Nop(), f.metrics)
}

func (f *fixture) useCase() *AlertUseCase {
	return NewAlertUseCase(f.store, f.store, f.dispatcher(), f.clock, zerolog.Nop(), f.metrics)
}

func (f *fixture) addUser(t *testing.T, email, phone, prefs string) entities.User {
	t.Helper()
	u, err := f.store.AddUser(context.Background(), entities.User{
		Name: email, Email: email, Phone: phone, UserType: "farmer", LocationID: f.farm.ID, Preferences: prefs,
	})
	require.NoError(t, err)
	return u
}

func (f *fixture) addSoilReading(t *testing.T, value float64) entities.Sensor {
	t.Helper()
	ctx := context.Background()
	sensor, err := f.store.AddSensor(ctx, entities.Sensor{Key: "SM_North_001", LocationID: f.farm.ID, Type: entities.SensorSoilMoisture, IsActive: true})
	require.NoError(t, err)
	_, err = f.store.AddSensorReading(ctx, entities.Reading{SensorID: sensor.ID, Value: value})
	require.NoError(t, err)
	return sensor
}

func (f *fixture) createAlert(t *testing.T, typ entities.AlertType, msg string) entities.Alert {
	t.Helper()
	created, err := f.store.Create(context.Background(), []entities.AlertCandidate{
		{LocationID: f.farm.ID, Type: typ, Severity: entities.SeverityWarning, Message: msg},
	})
	require.NoError(t, err)
	return created[0]
}
