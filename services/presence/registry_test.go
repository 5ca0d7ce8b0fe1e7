package presence

import (
	"context"
	"testing"
	"time"

	"artisanhub/models"

	"github.com/alicebob/miniredis/v2"
	"github.com/go-redis/redis/v8"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

// fakeArtisanRepo records the durable presence side effects.
type fakeArtisanRepo struct {
	artisan models.Artisan
}

func (f *fakeArtisanRepo) GetByID(ctx context.Context, id string) (*models.Artisan, error) {
	a := f.artisan
	return &a, nil
}

func (f *fakeArtisanRepo) SetOnlineStatus(ctx context.Context, id string, online bool, lastSeen time.Time) error {
	f.artisan.ID = id
	f.artisan.IsOnline = online
	f.artisan.LastSeen = lastSeen
	return nil
}

func TestRegisterUnregisterLifecycle(t *testing.T) {
	repo := &fakeArtisanRepo{}
	reg := NewRegistry(repo, nil)
	ctx := context.Background()

	assert.False(t, reg.IsOnline("artisan-1"))

	reg.Register(ctx, "artisan-1", models.RoleArtisan, "conn-1")
	assert.True(t, reg.IsOnline("artisan-1"))
	connID, ok := reg.Resolve("artisan-1")
	require.True(t, ok)
	assert.Equal(t, "conn-1", connID)
	assert.True(t, repo.artisan.IsOnline)

	before := repo.artisan.LastSeen
	assert.True(t, reg.Unregister(ctx, "artisan-1", "conn-1"))
	assert.False(t, reg.IsOnline("artisan-1"))
	_, ok = reg.Resolve("artisan-1")
	assert.False(t, ok)
	assert.False(t, repo.artisan.IsOnline)
	assert.False(t, repo.artisan.LastSeen.Before(before))

	// Reconnect restores availability.
	reg.Register(ctx, "artisan-1", models.RoleArtisan, "conn-2")
	assert.True(t, reg.IsOnline("artisan-1"))
	assert.True(t, repo.artisan.IsOnline)
}

func TestRegisterLastWriterWins(t *testing.T) {
	reg := NewRegistry(nil, nil)
	ctx := context.Background()

	reg.Register(ctx, "user-1", models.RoleCustomer, "conn-a")
	reg.Register(ctx, "user-1", models.RoleCustomer, "conn-b")

	connID, ok := reg.Resolve("user-1")
	require.True(t, ok)
	assert.Equal(t, "conn-b", connID)
}

func TestUnregisterIgnoresStaleConnection(t *testing.T) {
	repo := &fakeArtisanRepo{}
	reg := NewRegistry(repo, nil)
	ctx := context.Background()

	reg.Register(ctx, "artisan-1", models.RoleArtisan, "conn-a")
	reg.Register(ctx, "artisan-1", models.RoleArtisan, "conn-b")

	// The superseded connection closing must not take the identity offline.
	assert.False(t, reg.Unregister(ctx, "artisan-1", "conn-a"))
	assert.True(t, reg.IsOnline("artisan-1"))
	assert.True(t, repo.artisan.IsOnline)
	connID, ok := reg.Resolve("artisan-1")
	require.True(t, ok)
	assert.Equal(t, "conn-b", connID)

	// The entry's owner still can.
	assert.True(t, reg.Unregister(ctx, "artisan-1", "conn-b"))
	assert.False(t, reg.IsOnline("artisan-1"))
	assert.False(t, repo.artisan.IsOnline)
}

func TestCustomerRegistrationSkipsArtisanSideEffect(t *testing.T) {
	repo := &fakeArtisanRepo{}
	reg := NewRegistry(repo, nil)

	reg.Register(context.Background(), "user-1", models.RoleCustomer, "conn-1")
	assert.Empty(t, repo.artisan.ID)
}

func TestRedisMirror(t *testing.T) {
	mr := miniredis.RunT(t)
	client := redis.NewClient(&redis.Options{Addr: mr.Addr()})

	reg := NewRegistry(nil, client)
	ctx := context.Background()

	reg.Register(ctx, "artisan-2", models.RoleArtisan, "conn-9")
	val, err := client.Get(ctx, "presence:artisan-2").Result()
	require.NoError(t, err)
	assert.Contains(t, val, "conn-9")

	reg.Unregister(ctx, "artisan-2", "conn-9")
	_, err = client.Get(ctx, "presence:artisan-2").Result()
	assert.ErrorIs(t, err, redis.Nil)
}
