package device

import (
	"context"
	"sort"
	"sync"
	"testing"

	"account-identity/backend/internal/device/domain"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

type memRepo struct {
	mu      sync.Mutex
	devices []*domain.Device
}

func (m *memRepo) Create(_ context.Context, d *domain.Device) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	d.ID = int64(len(m.devices) + 1)
	cp := *d
	m.devices = append(m.devices, &cp)
	return nil
}

func (m *memRepo) ListByUser(_ context.Context, userID int64) ([]*domain.Device, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	var out []*domain.Device
	for _, d := range m.devices {
		if d.UserID == userID {
			out = append(out, d)
		}
	}
	sort.Slice(out, func(i, j int) bool { return out[i].ID > out[j].ID })
	return out, nil
}

func (m *memRepo) LatestByUser(ctx context.Context, userID int64) (*domain.Device, error) {
	ds, _ := m.ListByUser(ctx, userID)
	if len(ds) == 0 {
		return nil, nil
	}
	return ds[0], nil
}

func TestRegisterAndLatest(t *testing.T) {
	s := NewService(&memRepo{})
	ctx := context.Background()

	latest, err := s.Latest(ctx, 1)
	require.NoError(t, err)
	assert.Nil(t, latest)

	_, err = s.Register(ctx, 1, "first", "iOS", "iPhone")
	require.NoError(t, err)
	second, err := s.Register(ctx, 1, " second ", "Android", "Pixel")
	require.NoError(t, err)
	_, err = s.Register(ctx, 2, "other", "ios", "")
	require.NoError(t, err)

	latest, err = s.Latest(ctx, 1)
	require.NoError(t, err)
	assert.Equal(t, second.ID, latest.ID)
	assert.Equal(t, "second", latest.Token)
	assert.Equal(t, "android", latest.OS)

	all, err := s.List(ctx, 1)
	require.NoError(t, err)
	assert.Len(t, all, 2)
}
