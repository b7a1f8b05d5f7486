package service

import (
	"context"
	"fmt"
	"sort"
	"sync"
	"time"

	"github.com/stretchr/testify/mock"

	"github.com/pershin-daniil/LabLoans/pkg/models"
)

var (
	errMemNotFound = fmt.Errorf("request %w", models.ErrNotFound)
	errMemDecided  = fmt.Errorf("%w: request already processed", models.ErrConflict)
	errMemPending  = fmt.Errorf("%w: only pending requests can be deleted", models.ErrConflict)
)

// memStore keeps the guarded write semantics of the postgres store in memory.
type memStore struct {
	mu       sync.Mutex
	users    map[string]models.User
	requests map[string]models.Request
	auths    map[string]models.Authorization

	statsKind     models.Kind
	statsTop      int
	timelineSince time.Time
}

func newMemStore() *memStore {
	return &memStore{
		users:    map[string]models.User{},
		requests: map[string]models.Request{},
		auths:    map[string]models.Authorization{},
	}
}

func (m *memStore) CreateUser(_ context.Context, user models.User) (models.User, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	for _, u := range m.users {
		if u.Email == user.Email {
			return models.User{}, fmt.Errorf("%w: email already registered", models.ErrConflict)
		}
	}
	user.CreatedAt = time.Now()
	m.users[user.ID] = user
	return user, nil
}

func (m *memStore) GetUser(_ context.Context, id string) (models.User, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	user, ok := m.users[id]
	if !ok {
		return models.User{}, fmt.Errorf("user %w", models.ErrNotFound)
	}
	return user, nil
}

func (m *memStore) GetUserByEmail(_ context.Context, email string) (models.User, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	for _, u := range m.users {
		if u.Email == email {
			return u, nil
		}
	}
	return models.User{}, fmt.Errorf("user %w", models.ErrNotFound)
}

func (m *memStore) CreateRequest(_ context.Context, req models.Request) (models.Request, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.requests[req.ID] = req
	return m.enrich(req), nil
}

func (m *memStore) GetRequest(_ context.Context, kind models.Kind, id string) (models.Request, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	req, ok := m.requests[id]
	if !ok || req.Kind != kind {
		return models.Request{}, errMemNotFound
	}
	return m.enrich(req), nil
}

func (m *memStore) ListRequests(_ context.Context, filter models.RequestFilter) ([]models.Request, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	out := []models.Request{}
	for _, req := range m.requests {
		if filter.Kind != "" && req.Kind != filter.Kind {
			continue
		}
		if filter.EstudianteID != "" && req.EstudianteID != filter.EstudianteID {
			continue
		}
		if filter.Status != "" && req.Status != filter.Status {
			continue
		}
		out = append(out, m.enrich(req))
	}
	sort.Slice(out, func(i, j int) bool { return out[i].CreatedAt.After(out[j].CreatedAt) })
	return out, nil
}

func (m *memStore) AuthorizeRequest(_ context.Context, kind models.Kind, auth models.Authorization) (models.Request, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	req, ok := m.requests[auth.RequestID]
	if !ok || req.Kind != kind {
		return models.Request{}, errMemNotFound
	}
	if req.Status != models.StatusPendiente {
		return models.Request{}, errMemDecided
	}
	if _, dup := m.auths[auth.RequestID]; dup {
		return models.Request{}, errMemDecided
	}
	req.Status = auth.Accion.Status()
	req.UpdatedAt = auth.CreatedAt
	m.requests[req.ID] = req
	m.auths[req.ID] = auth
	return m.enrich(req), nil
}

func (m *memStore) DeleteRequest(_ context.Context, kind models.Kind, id, estudianteID string) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	req, ok := m.requests[id]
	if !ok || req.Kind != kind {
		return errMemNotFound
	}
	if req.EstudianteID != estudianteID || req.Status != models.StatusPendiente {
		return errMemPending
	}
	delete(m.requests, id)
	return nil
}

func (m *memStore) Stats(_ context.Context, kind models.Kind, top int) (models.Stats, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.statsKind, m.statsTop = kind, top
	var stats models.Stats
	for _, req := range m.requests {
		if kind != "" && req.Kind != kind {
			continue
		}
		stats.Resumen.Total++
	}
	return stats, nil
}

func (m *memStore) Timeline(_ context.Context, kind models.Kind, since time.Time) ([]models.TimelineDay, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.statsKind, m.timelineSince = kind, since
	return []models.TimelineDay{}, nil
}

func (m *memStore) Seed(_ context.Context, users []models.User, requests []models.Request, auths []models.Authorization) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.users = map[string]models.User{}
	m.requests = map[string]models.Request{}
	m.auths = map[string]models.Authorization{}
	for _, u := range users {
		m.users[u.ID] = u
	}
	for _, r := range requests {
		m.requests[r.ID] = r
	}
	for _, a := range auths {
		m.auths[a.RequestID] = a
	}
	return nil
}

func (m *memStore) countAuths(requestID string) int {
	m.mu.Lock()
	defer m.mu.Unlock()
	if _, ok := m.auths[requestID]; ok {
		return 1
	}
	return 0
}

func (m *memStore) enrich(req models.Request) models.Request {
	if u, ok := m.users[req.EstudianteID]; ok {
		pub := u.Public()
		req.Estudiante = &pub
	}
	if a, ok := m.auths[req.ID]; ok {
		if u, ok := m.users[a.SoporteID]; ok {
			pub := u.Public()
			a.Soporte = &pub
		}
		req.Autorizacion = &a
	}
	return req
}

type notifierMock struct {
	mock.Mock
}

func (n *notifierMock) Notify(ctx context.Context, message string) error {
	return n.Called(ctx, message).Error(0)
}
