package service

import (
	"context"
	"errors"
	"fmt"
	"sync"
	"time"

	"github.com/Skotchmaster/auth_service/internal/audit"
	"github.com/Skotchmaster/auth_service/internal/events"
	"github.com/Skotchmaster/auth_service/internal/models"
	"github.com/Skotchmaster/auth_service/internal/repo"
)

type fakeUsers struct {
	mu        sync.Mutex
	byID      map[uint]*models.User
	nextID    uint
	lookupErr error
	// raceOnCreate simulates another request winning the unique index.
	raceOnCreate bool
}

func newFakeUsers() *fakeUsers {
	return &fakeUsers{byID: map[uint]*models.User{}}
}

func (f *fakeUsers) CreateUser(_ context.Context, u *models.User) error {
	f.mu.Lock()
	defer f.mu.Unlock()
	if f.raceOnCreate {
		return repo.ErrDuplicate
	}
	for _, existing := range f.byID {
		if existing.Email == u.Email {
			return repo.ErrDuplicate
		}
	}
	f.nextID++
	u.ID = f.nextID
	cp := *u
	f.byID[u.ID] = &cp
	return nil
}

func (f *fakeUsers) GetUserByEmail(_ context.Context, email string) (*models.User, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	if f.lookupErr != nil {
		return nil, f.lookupErr
	}
	for _, u := range f.byID {
		if u.Email == email {
			cp := *u
			return &cp, nil
		}
	}
	return nil, repo.ErrNotFound
}

func (f *fakeUsers) GetUserByID(_ context.Context, id uint) (*models.User, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	u, ok := f.byID[id]
	if !ok {
		return nil, repo.ErrNotFound
	}
	cp := *u
	return &cp, nil
}

func (f *fakeUsers) count() int {
	f.mu.Lock()
	defer f.mu.Unlock()
	return len(f.byID)
}

type fakeRefreshStore struct {
	mu      sync.Mutex
	rows    map[uint]uint
	nextID  uint
	failErr error
}

func newFakeRefreshStore() *fakeRefreshStore {
	return &fakeRefreshStore{rows: map[uint]uint{}}
}

func (f *fakeRefreshStore) PersistRefreshToken(_ context.Context, userID uint, ttl time.Duration) (*models.RefreshToken, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	if f.failErr != nil {
		return nil, f.failErr
	}
	f.nextID++
	f.rows[f.nextID] = userID
	return &models.RefreshToken{ID: f.nextID, UserID: userID, ExpiresAt: time.Now().Add(ttl)}, nil
}

func (f *fakeRefreshStore) RotateRefreshToken(_ context.Context, oldID, userID uint, ttl time.Duration) (*models.RefreshToken, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	if f.failErr != nil {
		return nil, f.failErr
	}
	if owner, ok := f.rows[oldID]; !ok || owner != userID {
		return nil, repo.ErrRefreshTokenNotFound
	}
	delete(f.rows, oldID)
	f.nextID++
	f.rows[f.nextID] = userID
	return &models.RefreshToken{ID: f.nextID, UserID: userID, ExpiresAt: time.Now().Add(ttl)}, nil
}

func (f *fakeRefreshStore) RevokeRefreshToken(_ context.Context, id uint) error {
	f.mu.Lock()
	defer f.mu.Unlock()
	if f.failErr != nil {
		return f.failErr
	}
	delete(f.rows, id)
	return nil
}

func (f *fakeRefreshStore) live(id uint) bool {
	f.mu.Lock()
	defer f.mu.Unlock()
	_, ok := f.rows[id]
	return ok
}

func (f *fakeRefreshStore) count() int {
	f.mu.Lock()
	defer f.mu.Unlock()
	return len(f.rows)
}

type fakeIssuer struct {
	accessErr error
}

func (f *fakeIssuer) AccessToken(userID uint, role string) (string, error) {
	if f.accessErr != nil {
		return "", f.accessErr
	}
	return fmt.Sprintf("access-%d-%s", userID, role), nil
}

func (f *fakeIssuer) RefreshToken(userID uint, role string, recordID uint) (string, error) {
	return fmt.Sprintf("refresh-%d-%d", userID, recordID), nil
}

func (f *fakeIssuer) AccessTTL() time.Duration  { return time.Hour }
func (f *fakeIssuer) RefreshTTL() time.Duration { return 365 * 24 * time.Hour }

type fakePublisher struct {
	mu     sync.Mutex
	events []events.Event
	err    error
}

func (f *fakePublisher) Publish(_ context.Context, ev events.Event) error {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.events = append(f.events, ev)
	return f.err
}

func (f *fakePublisher) Close() error { return nil }

func (f *fakePublisher) types() []string {
	f.mu.Lock()
	defer f.mu.Unlock()
	out := make([]string, 0, len(f.events))
	for _, ev := range f.events {
		out = append(out, ev.Type)
	}
	return out
}

type fakeRecorder struct {
	mu   sync.Mutex
	revs []audit.Revocation
}

func (f *fakeRecorder) RecordRevocation(_ context.Context, rev audit.Revocation) error {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.revs = append(f.revs, rev)
	return nil
}

var errStoreDown = errors.New("store unavailable")
