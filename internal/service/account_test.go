package service

import (
	"context"
	"errors"
	"testing"

	"github.com/google/uuid"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/mock"
	"github.com/stretchr/testify/require"
	"golang.org/x/crypto/bcrypt"

	"github.com/dtroode/finance-server/internal/credential"
	"github.com/dtroode/finance-server/internal/mocks"
	"github.com/dtroode/finance-server/internal/model"
	"github.com/dtroode/finance-server/internal/password"
	"github.com/dtroode/finance-server/internal/testutil"
	"github.com/dtroode/finance-server/internal/token"
)

type accountFixture struct {
	store      *testutil.MemoryUserStore
	journal    *mocks.AuditJournal
	account    *Account
	authorizer *Authorizer
}

func newAccountFixture(t *testing.T) *accountFixture {
	t.Helper()

	store := testutil.NewMemoryUserStore()
	journal := mocks.NewAuditJournal(t)
	journal.On("Record", mock.Anything, mock.Anything).Return(nil).Maybe()
	log := testutil.MakeNoopLogger()

	return &accountFixture{
		store:   store,
		journal: journal,
		account: NewAccount(
			store,
			credential.NewValidator(store),
			password.NewBcrypt(bcrypt.MinCost),
			token.NewSessionIssuer("secret"),
			journal,
			log,
		),
		authorizer: NewAuthorizer(store, log),
	}
}

func (f *accountFixture) registerActive(t *testing.T, login, pass string) model.User {
	t.Helper()
	user, err := f.account.Register(context.Background(), login, pass)
	require.NoError(t, err)
	require.NoError(t, f.account.Activate(context.Background(), user.ID))
	user, err = f.store.GetByID(context.Background(), user.ID)
	require.NoError(t, err)
	return user
}

func strPtr(s string) *string { return &s }

func TestAccount_Register(t *testing.T) {
	f := newAccountFixture(t)
	ctx := context.Background()

	user, err := f.account.Register(ctx, " U@Test.com", "pw1234")
	require.NoError(t, err)

	assert.NotEqual(t, uuid.Nil, user.ID)
	assert.Equal(t, "u@test.com", user.Login)
	assert.Equal(t, model.StatusAwaitsActivation, user.Status)
	require.NotNil(t, user.StatusReason)
	assert.Equal(t, model.ReasonPendingVerification, *user.StatusReason)
	assert.Empty(t, user.SessionToken)
	assert.NotEqual(t, "pw1234", user.PasswordHash)
	assert.False(t, user.CreatedAt.IsZero())

	stored, err := f.store.GetByLogin(ctx, "u@test.com")
	require.NoError(t, err)
	assert.Equal(t, user.ID, stored.ID)

	f.journal.AssertCalled(t, "Record", mock.Anything, mock.MatchedBy(func(e model.AuditEvent) bool {
		return e.UserID == user.ID && e.Type == model.AuditRegistered
	}))
}

func TestAccount_Register_Validation(t *testing.T) {
	tests := []struct {
		name     string
		login    string
		password string
		kind     model.ErrorKind
	}{
		{name: "bad email", login: "not-an-email", password: "pw1234", kind: model.KindInvalidFormat},
		{name: "short password", login: "u@test.com", password: "pw1", kind: model.KindInvalidFormat},
		{name: "blank password", login: "u@test.com", password: "       ", kind: model.KindInvalidFormat},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			f := newAccountFixture(t)
			_, err := f.account.Register(context.Background(), tt.login, tt.password)
			require.Error(t, err)
			assert.Equal(t, tt.kind, model.KindOf(err))
			assert.Zero(t, f.store.Len())
		})
	}
}

func TestAccount_Register_DuplicateNormalizedLogin(t *testing.T) {
	f := newAccountFixture(t)
	ctx := context.Background()

	_, err := f.account.Register(ctx, "a@b.com", "pw1234")
	require.NoError(t, err)

	_, err = f.account.Register(ctx, "A@B.com ", "pw5678")
	require.Error(t, err)
	assert.Equal(t, model.KindConflict, model.KindOf(err))
	assert.Equal(t, 1, f.store.Len())
}

func TestAccount_Register_StoreUniquenessWins(t *testing.T) {
	users := mocks.NewUserStore(t)
	journal := mocks.NewAuditJournal(t)
	users.On("GetByLogin", mock.Anything, "a@b.com").Return(model.User{}, model.ErrNotFound)
	users.On("Save", mock.Anything, mock.Anything).Return(model.User{}, model.ErrLoginTaken)

	a := NewAccount(users, credential.NewValidator(users), password.NewBcrypt(bcrypt.MinCost),
		token.NewSessionIssuer("secret"), journal, testutil.MakeNoopLogger())

	_, err := a.Register(context.Background(), "a@b.com", "pw1234")
	require.Error(t, err)
	assert.Equal(t, model.KindConflict, model.KindOf(err))
	journal.AssertNotCalled(t, "Record", mock.Anything, mock.Anything)
}

func TestAccount_Register_StoreFailurePropagates(t *testing.T) {
	users := mocks.NewUserStore(t)
	storeErr := errors.New("disk full")
	users.On("GetByLogin", mock.Anything, "a@b.com").Return(model.User{}, model.ErrNotFound)
	users.On("Save", mock.Anything, mock.Anything).Return(model.User{}, storeErr)

	a := NewAccount(users, credential.NewValidator(users), password.NewBcrypt(bcrypt.MinCost),
		token.NewSessionIssuer("secret"), mocks.NewAuditJournal(t), testutil.MakeNoopLogger())

	_, err := a.Register(context.Background(), "a@b.com", "pw1234")
	require.ErrorIs(t, err, storeErr)
	assert.Equal(t, model.KindInternal, model.KindOf(err))
}

func TestAccount_RegisterActivateLogin(t *testing.T) {
	f := newAccountFixture(t)
	ctx := context.Background()

	user, err := f.account.Register(ctx, "u@test.com", "pw1234")
	require.NoError(t, err)
	require.NoError(t, f.account.Activate(ctx, user.ID))

	activated, err := f.store.GetByID(ctx, user.ID)
	require.NoError(t, err)
	assert.Equal(t, model.StatusActive, activated.Status)
	assert.Nil(t, activated.StatusReason)
	require.NotEmpty(t, activated.SessionToken)

	tok, err := f.account.Login(ctx, "U@Test.com ", "pw1234")
	require.NoError(t, err)
	assert.Equal(t, activated.SessionToken, tok)
}

func TestAccount_Login_Failures(t *testing.T) {
	f := newAccountFixture(t)
	ctx := context.Background()

	pending, err := f.account.Register(ctx, "pending@test.com", "pw1234")
	require.NoError(t, err)
	blocked := f.registerActive(t, "blocked@test.com", "pw1234")
	require.NoError(t, f.account.Block(ctx, blocked.ID, nil))
	f.registerActive(t, "active@test.com", "pw1234")

	tests := []struct {
		name     string
		login    string
		password string
		kind     model.ErrorKind
	}{
		{name: "unknown login", login: "nobody@test.com", password: "pw1234", kind: model.KindUnauthorized},
		{name: "wrong password", login: "active@test.com", password: "wrong-pw", kind: model.KindUnauthorized},
		{name: "awaiting activation", login: pending.Login, password: "pw1234", kind: model.KindForbidden},
		{name: "blocked", login: blocked.Login, password: "pw1234", kind: model.KindForbidden},
		{name: "blocked with wrong password", login: blocked.Login, password: "wrong-pw", kind: model.KindUnauthorized},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			tok, err := f.account.Login(ctx, tt.login, tt.password)
			require.Error(t, err)
			assert.Empty(t, tok)
			assert.Equal(t, tt.kind, model.KindOf(err))
		})
	}
}

func TestAccount_Login_UnknownAndWrongPasswordLookAlike(t *testing.T) {
	f := newAccountFixture(t)
	ctx := context.Background()
	f.registerActive(t, "u@test.com", "pw1234")

	_, unknownErr := f.account.Login(ctx, "x@test.com", "pw1234")
	_, wrongErr := f.account.Login(ctx, "u@test.com", "pw9999")

	require.Error(t, unknownErr)
	require.Error(t, wrongErr)
	assert.Equal(t, unknownErr.Error(), wrongErr.Error())
}

func TestAccount_Activate(t *testing.T) {
	f := newAccountFixture(t)
	ctx := context.Background()

	t.Run("not found", func(t *testing.T) {
		err := f.account.Activate(ctx, uuid.New())
		require.Error(t, err)
		assert.Equal(t, model.KindNotFound, model.KindOf(err))
	})

	t.Run("already active", func(t *testing.T) {
		user := f.registerActive(t, "active@test.com", "pw1234")
		err := f.account.Activate(ctx, user.ID)
		require.Error(t, err)
		assert.Equal(t, model.KindConflict, model.KindOf(err))
	})

	t.Run("blocked", func(t *testing.T) {
		user := f.registerActive(t, "blocked@test.com", "pw1234")
		require.NoError(t, f.account.Block(ctx, user.ID, nil))
		err := f.account.Activate(ctx, user.ID)
		require.Error(t, err)
		assert.Equal(t, model.KindConflict, model.KindOf(err))
	})
}

func TestAccount_BlockUnblock(t *testing.T) {
	f := newAccountFixture(t)
	ctx := context.Background()
	user := f.registerActive(t, "u@test.com", "pw1234")

	err := f.account.Unblock(ctx, user.ID, nil)
	require.Error(t, err)
	assert.Equal(t, model.KindConflict, model.KindOf(err))

	require.NoError(t, f.account.Block(ctx, user.ID, strPtr("fraud")))
	blocked, err := f.store.GetByID(ctx, user.ID)
	require.NoError(t, err)
	assert.Equal(t, model.StatusBlocked, blocked.Status)
	require.NotNil(t, blocked.StatusReason)
	assert.Equal(t, "fraud", *blocked.StatusReason)
	assert.Equal(t, user.SessionToken, blocked.SessionToken)

	err = f.account.Block(ctx, user.ID, nil)
	require.Error(t, err)
	assert.Equal(t, model.KindConflict, model.KindOf(err))

	require.NoError(t, f.account.Unblock(ctx, user.ID, strPtr("resolved")))
	unblocked, err := f.store.GetByID(ctx, user.ID)
	require.NoError(t, err)
	assert.Equal(t, model.StatusActive, unblocked.Status)
	assert.Equal(t, "resolved", *unblocked.StatusReason)
	assert.Equal(t, user.SessionToken, unblocked.SessionToken)
}

func TestAccount_BlockPendingThenUnblock(t *testing.T) {
	f := newAccountFixture(t)
	ctx := context.Background()

	user, err := f.account.Register(ctx, "u@test.com", "pw1234")
	require.NoError(t, err)

	require.NoError(t, f.account.Block(ctx, user.ID, nil))
	require.NoError(t, f.account.Unblock(ctx, user.ID, nil))

	stored, err := f.store.GetByID(ctx, user.ID)
	require.NoError(t, err)
	assert.Equal(t, model.StatusActive, stored.Status)
	require.NotEmpty(t, stored.SessionToken)

	authorized, err := f.authorizer.Authorize(ctx, stored.SessionToken)
	require.NoError(t, err)
	assert.Equal(t, user.ID, authorized.ID)
}

func TestAccount_ChangeLogin(t *testing.T) {
	f := newAccountFixture(t)
	ctx := context.Background()
	user := f.registerActive(t, "u@test.com", "pw1234")
	f.registerActive(t, "taken@test.com", "pw1234")

	t.Run("wrong password", func(t *testing.T) {
		err := f.account.ChangeLogin(ctx, user.ID, "new@test.com", "nope-nope")
		require.Error(t, err)
		assert.Equal(t, model.KindForbidden, model.KindOf(err))
	})

	t.Run("bad format", func(t *testing.T) {
		err := f.account.ChangeLogin(ctx, user.ID, "new-at-test.com", "pw1234")
		require.Error(t, err)
		assert.Equal(t, model.KindInvalidFormat, model.KindOf(err))
	})

	t.Run("taken", func(t *testing.T) {
		err := f.account.ChangeLogin(ctx, user.ID, " Taken@Test.com", "pw1234")
		require.Error(t, err)
		assert.Equal(t, model.KindConflict, model.KindOf(err))
	})

	t.Run("not found", func(t *testing.T) {
		err := f.account.ChangeLogin(ctx, uuid.New(), "new@test.com", "pw1234")
		require.Error(t, err)
		assert.Equal(t, model.KindNotFound, model.KindOf(err))
	})

	t.Run("success requires reactivation", func(t *testing.T) {
		require.NoError(t, f.account.ChangeLogin(ctx, user.ID, " New@Test.com", "pw1234"))

		changed, err := f.store.GetByID(ctx, user.ID)
		require.NoError(t, err)
		assert.Equal(t, "new@test.com", changed.Login)
		assert.Equal(t, model.StatusAwaitsActivation, changed.Status)
		assert.Equal(t, model.ReasonPendingVerification, *changed.StatusReason)
		assert.Empty(t, changed.SessionToken)

		_, err = f.account.Login(ctx, "new@test.com", "pw1234")
		require.Error(t, err)
		assert.Equal(t, model.KindForbidden, model.KindOf(err))

		_, err = f.authorizer.Authorize(ctx, user.SessionToken)
		require.Error(t, err)
		assert.Equal(t, model.KindUnauthorized, model.KindOf(err))

		require.NoError(t, f.account.Activate(ctx, user.ID))
		tok, err := f.account.Login(ctx, "new@test.com", "pw1234")
		require.NoError(t, err)
		assert.NotEqual(t, user.SessionToken, tok)
	})
}

func TestAccount_ChangePassword(t *testing.T) {
	f := newAccountFixture(t)
	ctx := context.Background()
	user := f.registerActive(t, "u@test.com", "pw1234")

	t.Run("old password mismatch", func(t *testing.T) {
		err := f.account.ChangePassword(ctx, user.ID, "newpass", strPtr("wrong-old"))
		require.Error(t, err)
		assert.Equal(t, model.KindForbidden, model.KindOf(err))
	})

	t.Run("new password invalid", func(t *testing.T) {
		err := f.account.ChangePassword(ctx, user.ID, "abc", strPtr("pw1234"))
		require.Error(t, err)
		assert.Equal(t, model.KindInvalidFormat, model.KindOf(err))
	})

	t.Run("success with old password", func(t *testing.T) {
		require.NoError(t, f.account.ChangePassword(ctx, user.ID, "newpass", strPtr("pw1234")))

		changed, err := f.store.GetByID(ctx, user.ID)
		require.NoError(t, err)
		assert.Equal(t, model.StatusActive, changed.Status)
		assert.NotEqual(t, user.PasswordHash, changed.PasswordHash)
		assert.NotEqual(t, user.SessionToken, changed.SessionToken)

		_, err = f.account.Login(ctx, "u@test.com", "pw1234")
		require.Error(t, err)

		tok, err := f.account.Login(ctx, "u@test.com", "newpass")
		require.NoError(t, err)
		assert.Equal(t, changed.SessionToken, tok)

		_, err = f.authorizer.Authorize(ctx, user.SessionToken)
		assert.Equal(t, model.KindUnauthorized, model.KindOf(err))
	})

	t.Run("success without old password", func(t *testing.T) {
		require.NoError(t, f.account.ChangePassword(ctx, user.ID, "thirdpass", nil))

		_, err := f.account.Login(ctx, "u@test.com", "thirdpass")
		require.NoError(t, err)
	})
}

func TestAccount_ChangePassword_PendingKeepsNoToken(t *testing.T) {
	f := newAccountFixture(t)
	ctx := context.Background()

	user, err := f.account.Register(ctx, "u@test.com", "pw1234")
	require.NoError(t, err)

	require.NoError(t, f.account.ChangePassword(ctx, user.ID, "newpass", nil))

	stored, err := f.store.GetByID(ctx, user.ID)
	require.NoError(t, err)
	assert.Empty(t, stored.SessionToken)
	assert.Equal(t, model.StatusAwaitsActivation, stored.Status)
}

func TestAccount_AuditFailureDoesNotFailRequest(t *testing.T) {
	store := testutil.NewMemoryUserStore()
	journal := mocks.NewAuditJournal(t)
	journal.On("Record", mock.Anything, mock.Anything).Return(errors.New("bucket unavailable"))

	a := NewAccount(store, credential.NewValidator(store), password.NewBcrypt(bcrypt.MinCost),
		token.NewSessionIssuer("secret"), journal, testutil.MakeNoopLogger())

	user, err := a.Register(context.Background(), "u@test.com", "pw1234")
	require.NoError(t, err)
	assert.NotEqual(t, uuid.Nil, user.ID)
}

func TestAccount_AuditCarriesActor(t *testing.T) {
	f := newAccountFixture(t)
	user, err := f.account.Register(context.Background(), "u@test.com", "pw1234")
	require.NoError(t, err)

	ctx := model.WithActor(context.Background(), "service:verifier")
	require.NoError(t, f.account.Activate(ctx, user.ID))

	f.journal.AssertCalled(t, "Record", mock.Anything, mock.MatchedBy(func(e model.AuditEvent) bool {
		return e.Type == model.AuditActivated && e.Actor == "service:verifier" && e.Status == model.StatusActive
	}))
}
