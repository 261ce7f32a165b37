package verification

import (
	"context"
	"sync"
	"testing"
	"time"

	"github.com/angelmondragon/tradelink-backend/internal/notifications"
	"github.com/angelmondragon/tradelink-backend/pkg/config"
	"github.com/angelmondragon/tradelink-backend/pkg/enums"
	pkgerrors "github.com/angelmondragon/tradelink-backend/pkg/errors"
	"github.com/angelmondragon/tradelink-backend/pkg/logger"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

type recordingDispatcher struct {
	mu   sync.Mutex
	msgs []notifications.Message
}

func (d *recordingDispatcher) Dispatch(_ context.Context, msg notifications.Message) {
	d.mu.Lock()
	defer d.mu.Unlock()
	d.msgs = append(d.msgs, msg)
}

func newTestService(t *testing.T) (*service, *MemoryStore, *recordingDispatcher) {
	t.Helper()
	store := NewMemoryStore(time.Hour)
	t.Cleanup(func() { _ = store.Close() })
	dispatcher := &recordingDispatcher{}
	svc, err := NewService(ServiceParams{
		Store:      store,
		Dispatcher: dispatcher,
		Config:     config.VerificationConfig{CodeTTL: 10 * time.Minute, MaxAttempts: 3},
		Hashing: config.PasswordConfig{
			ArgonMemoryKB:    1024,
			ArgonTime:        1,
			ArgonParallelism: 1,
			ArgonSaltLen:     16,
			ArgonKeyLen:      32,
		},
		Logger: logger.Nop(),
	})
	require.NoError(t, err)
	impl := svc.(*service)
	impl.generate = func() (string, error) { return "314159", nil }
	return impl, store, dispatcher
}

func reason(t *testing.T, err error) string {
	t.Helper()
	require.Error(t, err)
	return pkgerrors.As(err).Reason()
}

func TestIssueAndVerify(t *testing.T) {
	svc, store, dispatcher := newTestService(t)
	ctx := context.Background()

	issued, err := svc.Issue(ctx, "  New.User@Example.com ")
	require.NoError(t, err)
	assert.Equal(t, "new.user@example.com", issued.Email)

	rec, err := store.Get(ctx, "new.user@example.com")
	require.NoError(t, err)
	assert.NotContains(t, rec.Hash, "314159", "only the hash is stored")

	require.Len(t, dispatcher.msgs, 1)
	assert.Equal(t, enums.NotificationKindEmailVerification, dispatcher.msgs[0].Kind)
	assert.Equal(t, "314159", dispatcher.msgs[0].Data["code"])

	assert.Equal(t, ReasonMismatch, reason(t, svc.Verify(ctx, "new.user@example.com", "000000")))
	require.NoError(t, svc.Verify(ctx, "NEW.USER@example.com", "314159"))

	assert.Equal(t, ReasonNoCode, reason(t, svc.Verify(ctx, "new.user@example.com", "314159")), "codes are single use")
}

func TestVerifyLocksOutAfterMaxAttempts(t *testing.T) {
	svc, store, _ := newTestService(t)
	ctx := context.Background()
	_, err := svc.Issue(ctx, "x@example.com")
	require.NoError(t, err)

	assert.Equal(t, ReasonMismatch, reason(t, svc.Verify(ctx, "x@example.com", "1")))
	assert.Equal(t, ReasonMismatch, reason(t, svc.Verify(ctx, "x@example.com", "2")))
	assert.Equal(t, ReasonTooManyAttempts, reason(t, svc.Verify(ctx, "x@example.com", "3")))

	_, err = store.Get(ctx, "x@example.com")
	require.ErrorIs(t, err, ErrNotFound)
	assert.Equal(t, ReasonNoCode, reason(t, svc.Verify(ctx, "x@example.com", "314159")))
}

func TestVerifyAfterExpiry(t *testing.T) {
	svc, store, _ := newTestService(t)
	ctx := context.Background()
	now := time.Date(2026, 6, 1, 8, 0, 0, 0, time.UTC)
	store.now = func() time.Time { return now }
	svc.now = store.now

	_, err := svc.Issue(ctx, "late@example.com")
	require.NoError(t, err)
	now = now.Add(10 * time.Minute)
	assert.Equal(t, ReasonNoCode, reason(t, svc.Verify(ctx, "late@example.com", "314159")))
}

func TestIssueRejectsBadEmail(t *testing.T) {
	svc, _, dispatcher := newTestService(t)
	for _, email := range []string{"", "not-an-email", "Name <a@example.com>"} {
		_, err := svc.Issue(context.Background(), email)
		require.Error(t, err)
		assert.Equal(t, pkgerrors.CodeValidation, pkgerrors.As(err).Code())
	}
	assert.Empty(t, dispatcher.msgs)
}
