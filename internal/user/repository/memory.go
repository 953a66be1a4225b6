package repository

import (
	"context"
	"sort"
	"strconv"
	"sync"
	"time"

	"account-identity/backend/internal/user/domain"
)

// MemoryRepository is an in-process Repository and PrivilegedWriter. It enforces the same
// uniqueness rules as the Postgres schema and counts calls per method.
type MemoryRepository struct {
	mu       sync.Mutex
	users    map[int64]*domain.User
	profiles map[int64]*domain.Profile
	extras   map[int64]*domain.Extra
	nextID   int64
	calls    map[string]int
	// FailWith, when set, is returned by every method.
	FailWith error
}

// NewMemoryRepository returns an empty repository.
func NewMemoryRepository() *MemoryRepository {
	return &MemoryRepository{
		users:    map[int64]*domain.User{},
		profiles: map[int64]*domain.Profile{},
		extras:   map[int64]*domain.Extra{},
		calls:    map[string]int{},
	}
}

// Calls returns how many times method was invoked.
func (m *MemoryRepository) Calls(method string) int {
	m.mu.Lock()
	defer m.mu.Unlock()
	return m.calls[method]
}

func (m *MemoryRepository) enter(method string) error {
	m.calls[method]++
	return m.FailWith
}

func (m *MemoryRepository) GetByID(_ context.Context, id int64) (*domain.User, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	if err := m.enter("GetByID"); err != nil {
		return nil, err
	}
	u, ok := m.users[id]
	if !ok || u.IsDeleted() {
		return nil, nil
	}
	return cloneUser(u), nil
}

func (m *MemoryRepository) GetByPhone(_ context.Context, phone string) (*domain.User, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	if err := m.enter("GetByPhone"); err != nil {
		return nil, err
	}
	return cloneUser(m.findActive(func(u *domain.User) bool { return u.Phone != nil && *u.Phone == phone })), nil
}

func (m *MemoryRepository) GetByEmail(_ context.Context, email string) (*domain.User, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	if err := m.enter("GetByEmail"); err != nil {
		return nil, err
	}
	return cloneUser(m.findActive(func(u *domain.User) bool { return u.Email != nil && *u.Email == email })), nil
}

func (m *MemoryRepository) Create(_ context.Context, u *domain.User) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	if err := m.enter("Create"); err != nil {
		return err
	}
	if err := m.checkUnique(0, u.Username, u.Phone, u.Email); err != nil {
		return err
	}
	m.nextID++
	u.ID = m.nextID
	m.users[u.ID] = cloneUser(u)
	return nil
}

func (m *MemoryRepository) SoftDelete(_ context.Context, id int64, at time.Time) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	if err := m.enter("SoftDelete"); err != nil {
		return err
	}
	u, ok := m.users[id]
	if !ok || u.IsDeleted() {
		return domain.ErrUserNotFound
	}
	u.DeletedAt = &at
	u.UpdatedAt = at
	return nil
}

func (m *MemoryRepository) ApplyPrivileged(_ context.Context, userID int64, change domain.PrivilegedChange, at time.Time) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	if err := m.enter("ApplyPrivileged"); err != nil {
		return err
	}
	u, ok := m.users[userID]
	if !ok || u.IsDeleted() {
		return domain.ErrUserNotFound
	}
	if err := m.checkUnique(userID, "", change.Phone, change.Email); err != nil {
		return err
	}
	u.Apply(change, at)
	return nil
}

func (m *MemoryRepository) UsernameExists(_ context.Context, username string) (bool, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	if err := m.enter("UsernameExists"); err != nil {
		return false, err
	}
	return m.findActive(func(u *domain.User) bool { return u.Username == username }) != nil, nil
}

func (m *MemoryRepository) MaxID(context.Context) (int64, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	if err := m.enter("MaxID"); err != nil {
		return 0, err
	}
	return m.nextID, nil
}

func (m *MemoryRepository) Search(_ context.Context, q string, limit int) ([]*domain.User, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	if err := m.enter("Search"); err != nil {
		return nil, err
	}
	id, _ := strconv.ParseInt(q, 10, 64)
	return m.list(limit, func(u *domain.User) bool {
		return u.ID == id || u.PhoneRoute() == q || u.EmailRoute() == q
	}), nil
}

func (m *MemoryRepository) ListCreatedBetween(_ context.Context, from, to time.Time, limit int) ([]*domain.User, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	if err := m.enter("ListCreatedBetween"); err != nil {
		return nil, err
	}
	return m.list(limit, func(u *domain.User) bool {
		return !u.CreatedAt.Before(from) && u.CreatedAt.Before(to)
	}), nil
}

func (m *MemoryRepository) GetProfile(_ context.Context, userID int64) (*domain.Profile, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	if err := m.enter("GetProfile"); err != nil {
		return nil, err
	}
	p, ok := m.profiles[userID]
	if !ok {
		return nil, nil
	}
	cp := *p
	return &cp, nil
}

func (m *MemoryRepository) GetExtra(_ context.Context, userID int64) (*domain.Extra, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	if err := m.enter("GetExtra"); err != nil {
		return nil, err
	}
	e, ok := m.extras[userID]
	if !ok {
		return nil, nil
	}
	cp := *e
	return &cp, nil
}

func (m *MemoryRepository) CreateRelations(_ context.Context, userID int64) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	if err := m.enter("CreateRelations"); err != nil {
		return err
	}
	if _, ok := m.profiles[userID]; !ok {
		m.profiles[userID] = &domain.Profile{UserID: userID}
	}
	if _, ok := m.extras[userID]; !ok {
		m.extras[userID] = &domain.Extra{UserID: userID}
	}
	return nil
}

func (m *MemoryRepository) IncrementLogin(_ context.Context, userID int64, ip string, at time.Time) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	if err := m.enter("IncrementLogin"); err != nil {
		return err
	}
	e, ok := m.extras[userID]
	if !ok {
		e = &domain.Extra{UserID: userID}
		m.extras[userID] = e
	}
	e.LoginNum++
	e.LoginAt = &at
	e.LoginIP = ip
	return nil
}

func (m *MemoryRepository) findActive(match func(*domain.User) bool) *domain.User {
	for _, u := range m.users {
		if !u.IsDeleted() && match(u) {
			return u
		}
	}
	return nil
}

func (m *MemoryRepository) list(limit int, match func(*domain.User) bool) []*domain.User {
	var out []*domain.User
	for _, u := range m.users {
		if !u.IsDeleted() && match(u) {
			out = append(out, cloneUser(u))
		}
	}
	sort.Slice(out, func(i, j int) bool { return out[i].ID > out[j].ID })
	if limit > 0 && len(out) > limit {
		out = out[:limit]
	}
	return out
}

func (m *MemoryRepository) checkUnique(self int64, username string, phone, email *string) error {
	for id, u := range m.users {
		if id == self || u.IsDeleted() {
			continue
		}
		if username != "" && u.Username == username {
			return domain.ErrUsernameTaken
		}
		if phone != nil && u.Phone != nil && *u.Phone == *phone {
			return domain.ErrPhoneTaken
		}
		if email != nil && u.Email != nil && *u.Email == *email {
			return domain.ErrEmailTaken
		}
	}
	return nil
}

func cloneUser(u *domain.User) *domain.User {
	if u == nil {
		return nil
	}
	cp := *u
	cp.Phone = copyPtr(u.Phone)
	cp.Email = copyPtr(u.Email)
	cp.PhoneVerifiedAt = copyPtr(u.PhoneVerifiedAt)
	cp.EmailVerifiedAt = copyPtr(u.EmailVerifiedAt)
	cp.DeletedAt = copyPtr(u.DeletedAt)
	return &cp
}

func copyPtr[T any](p *T) *T {
	if p == nil {
		return nil
	}
	v := *p
	return &v
}
