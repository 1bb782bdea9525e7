package testutil

import (
	"context"
	"sort"
	"sync"

	"github.com/pratik-mahalle/emsdispatch/internal/domain/alert"
	"github.com/pratik-mahalle/emsdispatch/internal/domain/notification"
	"github.com/pratik-mahalle/emsdispatch/internal/domain/presence"
	"github.com/pratik-mahalle/emsdispatch/internal/domain/user"
	"github.com/pratik-mahalle/emsdispatch/internal/pkg/errors"
)

// MockAlertRepository is a mock implementation of alert.Repository
type MockAlertRepository struct {
	mu          sync.Mutex
	Alerts      map[string]*alert.Alert
	CreateError error
	GetError    error
	UpdateError error
	DeleteError error
}

func NewMockAlertRepository() *MockAlertRepository {
	return &MockAlertRepository{
		Alerts: make(map[string]*alert.Alert),
	}
}

func cloneAlert(a *alert.Alert) *alert.Alert {
	cp := *a
	cp.StatusHistory = append([]alert.StatusEntry(nil), a.StatusHistory...)
	return &cp
}

func (m *MockAlertRepository) Create(ctx context.Context, a *alert.Alert) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	if m.CreateError != nil {
		return m.CreateError
	}
	m.Alerts[a.ID] = cloneAlert(a)
	return nil
}

func (m *MockAlertRepository) GetByID(ctx context.Context, id string) (*alert.Alert, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	if m.GetError != nil {
		return nil, m.GetError
	}
	a, ok := m.Alerts[id]
	if !ok {
		return nil, errors.NotFound("Alert")
	}
	return cloneAlert(a), nil
}

func (m *MockAlertRepository) ListLive(ctx context.Context, filter alert.Filter) ([]*alert.Alert, int64, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	if m.GetError != nil {
		return nil, 0, m.GetError
	}

	var out []*alert.Alert
	for _, a := range m.Alerts {
		if filter.Status != "" && a.Status != filter.Status {
			continue
		}
		if filter.ReporterID != "" && a.Reporter.UserID != filter.ReporterID {
			continue
		}
		if filter.From != nil && a.CreatedAt.Before(*filter.From) {
			continue
		}
		if filter.To != nil && a.CreatedAt.After(*filter.To) {
			continue
		}
		out = append(out, cloneAlert(a))
	}
	sort.Slice(out, func(i, j int) bool {
		if out[i].CreatedAt.Equal(out[j].CreatedAt) {
			return out[i].ID > out[j].ID
		}
		return out[i].CreatedAt.After(out[j].CreatedAt)
	})

	total := int64(len(out))
	if filter.Limit > 0 {
		start := filter.Offset
		if start > len(out) {
			start = len(out)
		}
		end := start + filter.Limit
		if end > len(out) {
			end = len(out)
		}
		out = out[start:end]
	}
	return out, total, nil
}

func (m *MockAlertRepository) ListIDs(ctx context.Context) ([]string, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	ids := make([]string, 0, len(m.Alerts))
	for id := range m.Alerts {
		ids = append(ids, id)
	}
	sort.Strings(ids)
	return ids, nil
}

func (m *MockAlertRepository) Update(ctx context.Context, id string, mutate func(*alert.Alert) error) (*alert.Alert, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	if m.UpdateError != nil {
		return nil, m.UpdateError
	}
	existing, ok := m.Alerts[id]
	if !ok {
		return nil, errors.NotFound("Alert")
	}
	a := cloneAlert(existing)
	if err := mutate(a); err != nil {
		return nil, err
	}
	m.Alerts[id] = cloneAlert(a)
	return a, nil
}

func (m *MockAlertRepository) Delete(ctx context.Context, id string) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	if m.DeleteError != nil {
		return m.DeleteError
	}
	if _, ok := m.Alerts[id]; !ok {
		return errors.NotFound("Alert")
	}
	delete(m.Alerts, id)
	return nil
}

// Len returns the number of live alerts
func (m *MockAlertRepository) Len() int {
	m.mu.Lock()
	defer m.mu.Unlock()
	return len(m.Alerts)
}

// MockArchiveRepository is a mock implementation of alert.ArchiveRepository
type MockArchiveRepository struct {
	mu          sync.Mutex
	Archived    map[string]*alert.ArchivedAlert
	InsertError error
}

func NewMockArchiveRepository() *MockArchiveRepository {
	return &MockArchiveRepository{
		Archived: make(map[string]*alert.ArchivedAlert),
	}
}

func (m *MockArchiveRepository) Insert(ctx context.Context, a *alert.ArchivedAlert) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	if m.InsertError != nil {
		return m.InsertError
	}
	if _, ok := m.Archived[a.ID]; ok {
		return nil
	}
	cp := *a
	m.Archived[a.ID] = &cp
	return nil
}

func (m *MockArchiveRepository) GetByID(ctx context.Context, id string) (*alert.ArchivedAlert, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	a, ok := m.Archived[id]
	if !ok {
		return nil, errors.NotFound("Archived alert")
	}
	cp := *a
	return &cp, nil
}

func (m *MockArchiveRepository) Exists(ctx context.Context, id string) (bool, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	_, ok := m.Archived[id]
	return ok, nil
}

func (m *MockArchiveRepository) FilterExisting(ctx context.Context, ids []string) ([]string, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	var out []string
	for _, id := range ids {
		if _, ok := m.Archived[id]; ok {
			out = append(out, id)
		}
	}
	return out, nil
}

func (m *MockArchiveRepository) List(ctx context.Context, s alert.ArchiveSort, limit, offset int) ([]*alert.ArchivedAlert, int64, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	out := make([]*alert.ArchivedAlert, 0, len(m.Archived))
	for _, a := range m.Archived {
		cp := *a
		out = append(out, &cp)
	}
	sort.Slice(out, func(i, j int) bool {
		switch s {
		case alert.SortArchivedAsc:
			return out[i].ArchivedAt.Before(out[j].ArchivedAt)
		case alert.SortCreatedAsc:
			return out[i].CreatedAt.Before(out[j].CreatedAt)
		case alert.SortCreatedDesc:
			return out[i].CreatedAt.After(out[j].CreatedAt)
		}
		return out[i].ArchivedAt.After(out[j].ArchivedAt)
	})
	total := int64(len(out))
	if limit > 0 {
		if offset > len(out) {
			offset = len(out)
		}
		end := offset + limit
		if end > len(out) {
			end = len(out)
		}
		out = out[offset:end]
	}
	return out, total, nil
}

func (m *MockArchiveRepository) Delete(ctx context.Context, id string) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	if _, ok := m.Archived[id]; !ok {
		return errors.NotFound("Archived alert")
	}
	delete(m.Archived, id)
	return nil
}

// MockUserRepository is a mock implementation of user.Repository
type MockUserRepository struct {
	mu          sync.Mutex
	Users       map[string]*user.User
	Tokens      map[string][]string
	CreateError error
	GetError    error
	TokenError  error
}

func NewMockUserRepository() *MockUserRepository {
	return &MockUserRepository{
		Users:  make(map[string]*user.User),
		Tokens: make(map[string][]string),
	}
}

func (m *MockUserRepository) Create(ctx context.Context, u *user.User) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	if m.CreateError != nil {
		return m.CreateError
	}
	m.Users[u.ID] = u
	return nil
}

func (m *MockUserRepository) GetByID(ctx context.Context, id string) (*user.User, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	if m.GetError != nil {
		return nil, m.GetError
	}
	u, ok := m.Users[id]
	if !ok {
		return nil, errors.NotFound("User")
	}
	return u, nil
}

func (m *MockUserRepository) GetMany(ctx context.Context, ids []string) (map[string]*user.User, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	if m.GetError != nil {
		return nil, m.GetError
	}
	out := make(map[string]*user.User)
	for _, id := range ids {
		if u, ok := m.Users[id]; ok {
			out[id] = u
		}
	}
	return out, nil
}

func (m *MockUserRepository) AddPushToken(ctx context.Context, userID, token string) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	if m.TokenError != nil {
		return m.TokenError
	}
	for _, t := range m.Tokens[userID] {
		if t == token {
			return nil
		}
	}
	m.Tokens[userID] = append(m.Tokens[userID], token)
	return nil
}

func (m *MockUserRepository) ListPushTokensByRoles(ctx context.Context, roles []user.Role) ([]string, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	if m.TokenError != nil {
		return nil, m.TokenError
	}
	want := make(map[user.Role]bool, len(roles))
	for _, r := range roles {
		want[r] = true
	}
	var out []string
	for id, tokens := range m.Tokens {
		if u, ok := m.Users[id]; ok && want[u.Role] {
			out = append(out, tokens...)
		}
	}
	sort.Strings(out)
	return out, nil
}

// RecordingPublisher captures lifecycle events in order
type RecordingPublisher struct {
	mu       sync.Mutex
	Created  []*alert.View
	Updated  []*alert.View
	Archived []string
}

func (p *RecordingPublisher) AlertCreated(view *alert.View) {
	p.mu.Lock()
	defer p.mu.Unlock()
	p.Created = append(p.Created, view)
}

func (p *RecordingPublisher) AlertUpdated(view *alert.View) {
	p.mu.Lock()
	defer p.mu.Unlock()
	p.Updated = append(p.Updated, view)
}

func (p *RecordingPublisher) AlertArchived(id string) {
	p.mu.Lock()
	defer p.mu.Unlock()
	p.Archived = append(p.Archived, id)
}

// Counts returns the number of created, updated and archived events
func (p *RecordingPublisher) Counts() (created, updated, archived int) {
	p.mu.Lock()
	defer p.mu.Unlock()
	return len(p.Created), len(p.Updated), len(p.Archived)
}

// RecordingNotifier captures new-alert notifications
type RecordingNotifier struct {
	mu     sync.Mutex
	Alerts []*alert.Alert
}

func (n *RecordingNotifier) NotifyStaffOfNewAlert(a *alert.Alert) {
	n.mu.Lock()
	defer n.mu.Unlock()
	n.Alerts = append(n.Alerts, a)
}

// Count returns the number of notifications received
func (n *RecordingNotifier) Count() int {
	n.mu.Lock()
	defer n.mu.Unlock()
	return len(n.Alerts)
}

// RecordingBroadcaster captures presence snapshots in order
type RecordingBroadcaster struct {
	mu        sync.Mutex
	Snapshots [][]presence.Presence
}

func (b *RecordingBroadcaster) ResponderLocations(snapshot []presence.Presence) {
	b.mu.Lock()
	defer b.mu.Unlock()
	b.Snapshots = append(b.Snapshots, snapshot)
}

// Last returns the most recent snapshot
func (b *RecordingBroadcaster) Last() []presence.Presence {
	b.mu.Lock()
	defer b.mu.Unlock()
	if len(b.Snapshots) == 0 {
		return nil
	}
	return b.Snapshots[len(b.Snapshots)-1]
}

// Count returns how many snapshots were broadcast
func (b *RecordingBroadcaster) Count() int {
	b.mu.Lock()
	defer b.mu.Unlock()
	return len(b.Snapshots)
}

// MockGateway is a mock implementation of notification.Gateway
type MockGateway struct {
	mu        sync.Mutex
	Messages  []*notification.PushMessage
	SendError error
	Failures  int
	Sent      chan struct{}
}

func NewMockGateway() *MockGateway {
	return &MockGateway{Sent: make(chan struct{}, 16)}
}

func (g *MockGateway) Send(ctx context.Context, msg *notification.PushMessage) (*notification.SendResult, error) {
	g.mu.Lock()
	g.Messages = append(g.Messages, msg)
	err := g.SendError
	failures := g.Failures
	g.mu.Unlock()

	defer func() {
		select {
		case g.Sent <- struct{}{}:
		default:
		}
	}()

	if err != nil {
		return nil, err
	}
	return &notification.SendResult{
		SuccessCount: len(msg.Tokens) - failures,
		FailureCount: failures,
	}, nil
}

func (g *MockGateway) Name() string {
	return "mock"
}

// MessageCount returns the number of messages handed to the gateway
func (g *MockGateway) MessageCount() int {
	g.mu.Lock()
	defer g.mu.Unlock()
	return len(g.Messages)
}

// StaticTokenSource is a notification.TokenSource returning fixed tokens
type StaticTokenSource struct {
	Tokens []string
	Err    error
}

func (s *StaticTokenSource) StaffTokens(ctx context.Context) ([]string, error) {
	return s.Tokens, s.Err
}

// MockNotificationLogRepository is a mock implementation of notification.Repository
type MockNotificationLogRepository struct {
	mu   sync.Mutex
	Logs []*notification.Log
}

func (m *MockNotificationLogRepository) CreateLog(ctx context.Context, l *notification.Log) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	cp := *l
	m.Logs = append(m.Logs, &cp)
	return nil
}

func (m *MockNotificationLogRepository) UpdateLog(ctx context.Context, l *notification.Log) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	for i, existing := range m.Logs {
		if existing.AlertID == l.AlertID {
			cp := *l
			m.Logs[i] = &cp
			return nil
		}
	}
	return errors.NotFound("Notification log")
}

func (m *MockNotificationLogRepository) ListLogs(ctx context.Context, filter notification.LogFilter, limit, offset int) ([]*notification.Log, int64, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	var out []*notification.Log
	for _, l := range m.Logs {
		if filter.AlertID != "" && l.AlertID != filter.AlertID {
			continue
		}
		if filter.Status != "" && l.Status != filter.Status {
			continue
		}
		out = append(out, l)
	}
	return out, int64(len(out)), nil
}
