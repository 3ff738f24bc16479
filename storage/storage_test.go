package storage

import (
	"context"
	"path/filepath"
	"testing"

	"github.com/pkg/errors"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/trezcool/atlantis/core"
	"github.com/trezcool/atlantis/core/cart"
	filestore "github.com/trezcool/atlantis/storage/file"
)

func TestNewCartStorage(t *testing.T) {
	ctx := context.Background()

	tests := []struct {
		name    string
		conf    core.CartConfig
		want    interface{}
		wantErr error
	}{
		{name: "default", conf: core.CartConfig{}, want: &cart.MemoryStorage{}},
		{name: "memory", conf: core.CartConfig{Backend: BackendMemory}, want: &cart.MemoryStorage{}},
		{name: "file", conf: core.CartConfig{Backend: BackendFile, FileDir: filepath.Join(t.TempDir(), "carts")}, want: &filestore.Storage{}},
		{name: "sql without db", conf: core.CartConfig{Backend: BackendSQL}, wantErr: errors.New("sql cart backend requires a database")},
		{name: "unknown", conf: core.CartConfig{Backend: "s3"}, wantErr: ErrUnknownBackend},
	}
	for _, tc := range tests {
		t.Run(tc.name, func(t *testing.T) {
			s, closer, err := NewCartStorage(ctx, &core.Config{Cart: tc.conf}, nil)
			if tc.wantErr != nil {
				require.Error(t, err)
				assert.Equal(t, tc.wantErr.Error(), errors.Cause(err).Error())
				return
			}
			require.NoError(t, err)
			assert.IsType(t, tc.want, s)
			assert.NoError(t, closer())
		})
	}
}

func TestNewRepositories(t *testing.T) {
	repos, err := NewRepositories(&core.Config{}, nil)
	require.NoError(t, err)
	assert.NotNil(t, repos.Users)
	assert.NotNil(t, repos.Announcements)
	assert.NotNil(t, repos.Reservations)

	_, err = NewRepositories(&core.Config{Users: core.UsersConfig{Backend: BackendSQL}}, nil)
	assert.Error(t, err)

	_, err = NewRepositories(&core.Config{Users: core.UsersConfig{Backend: "ldap"}}, nil)
	assert.Equal(t, ErrUnknownBackend, errors.Cause(err))
}

func TestCartOptions(t *testing.T) {
	assert.Len(t, CartOptions(&core.Config{Cart: core.CartConfig{Backend: BackendMemory}}, nil), 1)
	assert.Len(t, CartOptions(&core.Config{Cart: core.CartConfig{Backend: BackendRedis}}, nil), 2)
}

func TestNeedsDB(t *testing.T) {
	assert.False(t, NeedsDB(&core.Config{}))
	assert.True(t, NeedsDB(&core.Config{Cart: core.CartConfig{Backend: BackendSQL}}))
	assert.True(t, NeedsDB(&core.Config{Users: core.UsersConfig{Backend: BackendSQL}}))
}
