package credentials_test

import (
	"context"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"sync"
	"testing"

	credentials "github.com/goliatone/go-credentials"
	"github.com/goliatone/go-credentials/repository"
	"github.com/goliatone/go-credentials/webhook"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"golang.org/x/crypto/bcrypt"
)

func TestLifecycleIntegration(t *testing.T) {
	ctx := context.Background()

	var (
		mu     sync.Mutex
		events []credentials.EventName
	)
	hook := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		var env webhook.Envelope
		if err := json.NewDecoder(r.Body).Decode(&env); err == nil {
			mu.Lock()
			events = append(events, env.Event)
			mu.Unlock()
		}
		w.WriteHeader(http.StatusAccepted)
	}))
	defer hook.Close()

	cfg := credentials.DefaultConfig()
	cfg.SigningKey = string(testSigningKey)
	cfg.PasswordCost = bcrypt.MinCost
	cfg.Persistence = credentials.PersistenceConfig{Dialect: repository.DialectSQLite, DSN: "file:lifecycle?mode=memory&cache=shared", Migrate: true}
	cfg.Webhooks.Subscriptions = []credentials.WebhookSubscription{
		{ID: "audit", URL: hook.URL, Events: credentials.KnownEvents()},
	}
	require.NoError(t, cfg.Validate())

	logger := quietLogger()

	db, err := repository.OpenAndMigrate(ctx, cfg.Persistence, logger)
	require.NoError(t, err)
	defer db.Close()

	dispatcher := webhook.NewFromConfig(cfg.Webhooks, hook.Client(), webhook.WithLogger(logger))
	notifier := credentials.NewMemoryNotifier()

	mgr, err := credentials.NewManagerFromConfig(cfg, repository.NewUserRepository(db), dispatcher, notifier, logger)
	require.NoError(t, err)

	reg, err := mgr.Register(ctx, credentials.RegisterInput{Email: "a@x.com", Password: "abcdef"})
	require.NoError(t, err)
	assert.False(t, reg.User.IsVerified)

	_, err = mgr.Register(ctx, credentials.RegisterInput{Email: "A@x.com", Password: "abcdef"})
	assert.ErrorIs(t, err, credentials.ErrDuplicateEmail)

	verification, ok := notifier.Last(credentials.NotifyVerification)
	require.True(t, ok)
	user, err := mgr.VerifyEmail(ctx, verification.Token)
	require.NoError(t, err)
	assert.True(t, user.IsVerified)

	login, err := mgr.Authenticate(ctx, "a@x.com", "abcdef")
	require.NoError(t, err)

	principal, err := mgr.Authorize(ctx, login.SessionToken)
	require.NoError(t, err)
	assert.True(t, principal.IsVerified)

	require.NoError(t, mgr.RequestPasswordReset(ctx, "a@x.com"))
	reset, ok := notifier.Last(credentials.NotifyPasswordReset)
	require.True(t, ok)
	require.NoError(t, mgr.ResetPassword(ctx, reset.Token, "brand-new"))

	_, err = mgr.Authenticate(ctx, "a@x.com", "brand-new")
	require.NoError(t, err)

	require.NoError(t, dispatcher.Shutdown(ctx))

	mu.Lock()
	defer mu.Unlock()
	assert.ElementsMatch(t, []credentials.EventName{
		credentials.EventUserRegistered,
		credentials.EventUserVerified,
		credentials.EventUserLogin,
		credentials.EventUserLogin,
	}, events)
}
