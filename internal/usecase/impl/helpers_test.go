package impl

import (
	"io"
	"log/slog"
	"testing"
	"time"

	"school/config"
	"school/internal/domain/entity"
	"school/internal/domain/service"
	"school/internal/infra/auth"
	"school/internal/mocks/memory"
	mockSvc "school/internal/mocks/service"
	"school/internal/usecase"

	"github.com/stretchr/testify/require"
	"golang.org/x/crypto/bcrypt"
)

// testEnv wires the real codec and hasher to the in-memory store.
type testEnv struct {
	cfg      *config.Config
	store    *memory.Store
	codec    service.TokenCodec
	hasher   service.PasswordHasher
	verifier *mockSvc.MockExternalIdentityVerifier
	metrics  *mockSvc.RecordingMetrics
	resolver *identityResolver
	sessions *sessionService
	gate     usecase.AuthorizationGate
	users    usecase.UserUsecase
}

func newDiscardLogger() *slog.Logger {
	return slog.New(slog.NewTextHandler(io.Discard, nil))
}

func newTestConfig() *config.Config {
	cfg := &config.Config{}
	cfg.Token = config.TokenConfig{
		SigningKey:       "test-signing-key",
		Algorithm:        "HS256",
		AccessTTLMinutes: 480,
		RefreshTTLDays:   30,
	}
	cfg.Auth = config.AuthConfig{
		BcryptCost:  bcrypt.MinCost,
		DefaultRole: entity.DefaultProvisionedRole.String(),
	}

	return cfg
}

func newTestEnv(t *testing.T) *testEnv {
	t.Helper()

	cfg := newTestConfig()
	logger := newDiscardLogger()
	store := memory.NewStore()

	codec, err := auth.NewJWTCodec(cfg)
	require.NoError(t, err)
	hasher := auth.NewBcryptHasher(cfg)
	verifier := mockSvc.NewMockExternalIdentityVerifier(t)
	metrics := mockSvc.NewRecordingMetrics()

	resolver := newIdentityResolver(store.Identities(), store.Roles(), entity.DefaultProvisionedRole, logger)
	sessions := NewSessionService(SessionServiceParams{
		IdentityRepo: store.Identities(),
		SessionRepo:  store.Sessions(),
		Resolver:     resolver,
		Hasher:       hasher,
		Codec:        codec,
		Verifier:     verifier,
		Metrics:      metrics,
		Config:       cfg,
		Logger:       logger,
	}).(*sessionService)
	gate := NewAuthorizationGate(AuthorizationGateParams{
		Codec:        codec,
		IdentityRepo: store.Identities(),
		Metrics:      metrics,
		Logger:       logger,
	})
	users := NewUserService(UserServiceParams{
		TxManager:    store.TxManager(),
		IdentityRepo: store.Identities(),
		Hasher:       hasher,
		Logger:       logger,
	})

	return &testEnv{
		cfg:      cfg,
		store:    store,
		codec:    codec,
		hasher:   hasher,
		verifier: verifier,
		metrics:  metrics,
		resolver: resolver,
		sessions: sessions,
		gate:     gate,
		users:    users,
	}
}

// seedPasswordIdentity stores a password identity with the given role id.
func (env *testEnv) seedPasswordIdentity(t *testing.T, username, password string, roleID uint64) *entity.Identity {
	t.Helper()

	hash, err := env.hasher.HashPassword(password)
	require.NoError(t, err)

	return env.store.SeedIdentity(&entity.Identity{
		Username:     username,
		PasswordHash: hash,
		RoleID:       &roleID,
	})
}

// advanceClock moves the session service clock forward.
func (env *testEnv) advanceClock(d time.Duration) {
	now := time.Now().Add(d)
	env.sessions.now = func() time.Time { return now }
}

const (
	adminRoleID   uint64 = 1
	teacherRoleID uint64 = 2
	studentRoleID uint64 = 3
)
