package bakery_test

import (
	"context"
	"sync"

	"github.com/goliatone/go-repository-bun"
	bakery "github.com/seun-beta/bakery-api"
	"github.com/stretchr/testify/mock"
)

// MockUserTracker implements bakery.UserTracker
type MockUserTracker struct {
	mock.Mock
}

func (m *MockUserTracker) GetByIdentifier(ctx context.Context, identifier string, criteria ...repository.SelectCriteria) (*bakery.User, error) {
	args := m.Called(ctx, identifier)
	user, _ := args.Get(0).(*bakery.User)
	return user, args.Error(1)
}

func (m *MockUserTracker) TrackAttemptedLogin(ctx context.Context, user *bakery.User) error {
	args := m.Called(ctx, user)
	return args.Error(0)
}

func (m *MockUserTracker) TrackSuccessfulLogin(ctx context.Context, user *bakery.User) error {
	args := m.Called(ctx, user)
	return args.Error(0)
}

// MockSessionIssuer implements bakery.SessionIssuer
type MockSessionIssuer struct {
	mock.Mock
}

func (m *MockSessionIssuer) Issue(ctx context.Context, user *bakery.User) (string, error) {
	args := m.Called(ctx, user)
	return args.String(0), args.Error(1)
}

// fakeMailer records sent messages and can fail a set number of times
// before succeeding.
type fakeMailer struct {
	mu       sync.Mutex
	failures int
	sent     []bakery.Message
	err      error
}

func (f *fakeMailer) Send(ctx context.Context, msg bakery.Message) error {
	f.mu.Lock()
	defer f.mu.Unlock()

	if f.failures > 0 {
		f.failures--
		return f.err
	}

	f.sent = append(f.sent, msg)
	return nil
}

func (f *fakeMailer) Sent() []bakery.Message {
	f.mu.Lock()
	defer f.mu.Unlock()

	out := make([]bakery.Message, len(f.sent))
	copy(out, f.sent)
	return out
}
