package service

import (
	"context"
	"testing"

	"github.com/helixml/scmtrack/domain/user"
	"github.com/helixml/scmtrack/infrastructure/persistence"
	"github.com/helixml/scmtrack/internal/config"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestIdentityResolver_Resolve(t *testing.T) {
	ctx := context.Background()
	e := newTestEnv(t, config.NewSettings())
	users := persistence.NewUserStore(e.f.DB)
	resolver := NewIdentityResolver(e.changesets, users, testLogger())
	repo := e.f.Repository(t, "git", "/srv/git/app")

	bob, err := users.Save(ctx, user.NewUser("bob", "bob@example.com", "Bob", "Builder"))
	require.NoError(t, err)

	tests := []struct {
		name      string
		committer string
		want      int64
	}{
		{"bare login", "alice", e.f.Alice.ID()},
		{"login with email", "alice <nobody@example.com>", e.f.Alice.ID()},
		{"padded", "  alice   ", e.f.Alice.ID()},
		{"email fallback", "Robert <bob@example.com>", bob.ID()},
		{"unknown email", "Robert <robert@example.com>", 0},
		{"unknown bare name", "Robert", 0},
		{"empty", "", 0},
		{"no name", "<bob@example.com>", 0},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			u, ok := resolver.Resolve(ctx, repo.ID(), tt.committer)
			assert.Equal(t, tt.want != 0, ok)
			assert.Equal(t, tt.want, u.ID())
		})
	}
}

func TestIdentityResolver_PrefersExistingAttribution(t *testing.T) {
	ctx := context.Background()
	e := newTestEnv(t, config.NewSettings())
	users := persistence.NewUserStore(e.f.DB)
	resolver := NewIdentityResolver(e.changesets, users, testLogger())
	repo := e.f.Repository(t, "git", "/srv/git/app")
	other := e.f.Repository(t, "git", "/srv/git/other")

	bob, err := users.Save(ctx, user.NewUser("bob", "bob@example.com", "Bob", "Builder"))
	require.NoError(t, err)

	// "alice" would resolve by login, but the repository already maps it to bob.
	cs := e.changeset(t, repo, "r1", "alice", "one", 1)
	_, err = e.changesets.Save(ctx, cs.WithUserID(bob.ID()))
	require.NoError(t, err)

	u, ok := resolver.Resolve(ctx, repo.ID(), "alice")
	require.True(t, ok)
	assert.Equal(t, bob.ID(), u.ID())

	u, ok = resolver.Resolve(ctx, other.ID(), "alice")
	require.True(t, ok)
	assert.Equal(t, e.f.Alice.ID(), u.ID())
}
