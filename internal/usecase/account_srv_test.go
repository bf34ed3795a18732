package usecase

import (
	"context"
	"strconv"
	"testing"
	"time"

	"pesa-smart-plan/internal/data/entity"

	"github.com/google/uuid"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func customerParams(email string) CreateAccountParams {
	return CreateAccountParams{
		Email:    email,
		Phone:    "+254712345678",
		Name:     "Jane Wanjiku",
		Kind:     entity.KindCustomer,
		Password: "secret1",
	}
}

func businessParams(email string) CreateAccountParams {
	p := customerParams(email)
	p.Kind = entity.KindBusiness
	p.BusinessName = "Wanjiku Traders"
	return p
}

func TestAccountService_CreateIsUniquePerEmailAndKind(t *testing.T) {
	h := newHarness(t)
	ctx := context.Background()

	_, err := h.svc.Account.Create(ctx, customerParams("e@x.com"))
	require.NoError(t, err)

	_, err = h.svc.Account.Create(ctx, customerParams("E@X.com"))
	var dup *DuplicateAccountError
	require.ErrorAs(t, err, &dup)
	assert.Equal(t, entity.KindCustomer, dup.Kind)
	assert.Equal(t, "this email is already registered as a customer account", dup.Error())

	all, err := h.svc.Account.FindAllByEmail(ctx, "e@x.com")
	require.NoError(t, err)
	assert.Len(t, all, 1)
}

func TestAccountService_SameEmailMayHoldBothKinds(t *testing.T) {
	h := newHarness(t)
	ctx := context.Background()

	customerID, err := h.svc.Account.Create(ctx, customerParams("e@x.com"))
	require.NoError(t, err)
	businessID, err := h.svc.Account.Create(ctx, businessParams("e@x.com"))
	require.NoError(t, err)
	assert.NotEqual(t, customerID, businessID)

	all, err := h.svc.Account.FindAllByEmail(ctx, "e@x.com")
	require.NoError(t, err)
	require.Len(t, all, 2)

	first, err := h.svc.Account.FindByEmail(ctx, "e@x.com")
	require.NoError(t, err)
	assert.Equal(t, customerID, first.ID)

	business, err := h.svc.Account.FindByID(ctx, businessID)
	require.NoError(t, err)
	require.NotNil(t, business.BusinessName)
	assert.Equal(t, "Wanjiku Traders", *business.BusinessName)
}

func TestAccountService_EmailExistsIgnoresCase(t *testing.T) {
	h := newHarness(t)
	ctx := context.Background()

	_, err := h.svc.Account.Create(ctx, customerParams("foo@bar.com"))
	require.NoError(t, err)

	ok, err := h.svc.Account.EmailExists(ctx, "Foo@Bar.com")
	require.NoError(t, err)
	assert.True(t, ok)
}

func TestAccountService_CreateValidatesBusinessName(t *testing.T) {
	h := newHarness(t)
	ctx := context.Background()

	p := businessParams("b@x.com")
	p.BusinessName = "  "
	_, err := h.svc.Account.Create(ctx, p)

	var verr *ValidationError
	require.ErrorAs(t, err, &verr)
	assert.Contains(t, verr.Fields, "BusinessName")

	p = customerParams("c@x.com")
	p.Kind = "admin"
	_, err = h.svc.Account.Create(ctx, p)
	require.ErrorAs(t, err, &verr)
	assert.Contains(t, verr.Fields, "AccountKind")
}

func TestAccountService_CreateStripsMarkup(t *testing.T) {
	h := newHarness(t)
	ctx := context.Background()

	p := businessParams("m@x.com")
	p.Name = "<script>alert(1)</script>Jane"
	p.BusinessName = "<b>Mama</b> & Sons"
	id, err := h.svc.Account.Create(ctx, p)
	require.NoError(t, err)

	a, err := h.svc.Account.FindByID(ctx, id)
	require.NoError(t, err)
	assert.Equal(t, "Jane", a.Name)
	assert.Equal(t, "Mama & Sons", *a.BusinessName)
	assert.NotEqual(t, "secret1", a.PasswordHash)

	for i, name := range []string{
		"&lt;script&gt;alert(1)&lt;/script&gt;Jane",
		"&amp;lt;script&amp;gt;alert(1)&amp;lt;/script&amp;gt;Jane",
		"&#60;img src=x onerror=alert(1)&#62;Jane",
	} {
		p := customerParams("enc" + strconv.Itoa(i) + "@x.com")
		p.Name = name
		id, err := h.svc.Account.Create(ctx, p)
		require.NoError(t, err)

		a, err := h.svc.Account.FindByID(ctx, id)
		require.NoError(t, err)
		assert.Equal(t, "Jane", a.Name, "input %q", name)
		assert.NotContains(t, a.Name, "<")
	}
}

func TestAccountService_AuthenticationRequiresVerification(t *testing.T) {
	h := newHarness(t)
	ctx := context.Background()

	id, err := h.svc.Account.Create(ctx, customerParams("j@x.com"))
	require.NoError(t, err)

	a, err := h.svc.Account.Authenticate(ctx, "j@x.com", "secret1")
	require.NoError(t, err)
	assert.Nil(t, a, "unverified accounts cannot authenticate")

	session, err := h.svc.Account.MarkVerified(ctx, id)
	require.NoError(t, err)
	require.NotNil(t, session)
	assert.Equal(t, id, session.AccountID)
	assert.Equal(t, h.clock.Now().Add(h.config.Session.TTL()), session.ExpiresAt)

	a, err = h.svc.Account.Authenticate(ctx, "J@x.com", "secret1")
	require.NoError(t, err)
	require.NotNil(t, a)
	assert.True(t, a.IsVerified)
	assert.True(t, a.VerifiedEmail)
	assert.True(t, a.VerifiedPhone)

	a, err = h.svc.Account.Authenticate(ctx, "j@x.com", "wrong-password")
	require.NoError(t, err)
	assert.Nil(t, a)
}

func TestAccountService_MarkVerifiedUnknownIsNoop(t *testing.T) {
	h := newHarness(t)

	session, err := h.svc.Account.MarkVerified(context.Background(), uuid.New())
	require.NoError(t, err)
	assert.Nil(t, session)
}

func TestAccountService_AuthenticateAs(t *testing.T) {
	h := newHarness(t)
	ctx := context.Background()

	id, err := h.svc.Account.Create(ctx, businessParams("b@x.com"))
	require.NoError(t, err)
	_, err = h.svc.Account.MarkVerified(ctx, id)
	require.NoError(t, err)

	a, err := h.svc.Account.AuthenticateAs(ctx, "b@x.com", "secret1", entity.KindBusiness)
	require.NoError(t, err)
	assert.Equal(t, id, a.ID)

	_, err = h.svc.Account.AuthenticateAs(ctx, "b@x.com", "secret1", entity.KindCustomer)
	var mismatch *KindMismatchError
	require.ErrorAs(t, err, &mismatch)
	assert.Equal(t, entity.KindBusiness, mismatch.Actual)
	assert.Equal(t, "this email is registered as a business account, please select the correct account type", mismatch.Error())

	_, err = h.svc.Account.AuthenticateAs(ctx, "b@x.com", "nope", entity.KindBusiness)
	assert.ErrorIs(t, err, ErrInvalidCredentials)

	_, err = h.svc.Account.AuthenticateAs(ctx, "ghost@x.com", "secret1", entity.KindBusiness)
	assert.ErrorIs(t, err, ErrInvalidCredentials)
}

func TestAccountService_Sessions(t *testing.T) {
	h := newHarness(t)
	ctx := context.Background()

	customerID, err := h.svc.Account.Create(ctx, customerParams("s@x.com"))
	require.NoError(t, err)
	businessID, err := h.svc.Account.Create(ctx, businessParams("s@x.com"))
	require.NoError(t, err)

	session, err := h.svc.Account.MarkVerified(ctx, customerID)
	require.NoError(t, err)
	token := session.Token.String()

	t.Run("validate", func(t *testing.T) {
		got, account, err := h.svc.Account.ValidateSession(ctx, token)
		require.NoError(t, err)
		assert.Equal(t, session.ID, got.ID)
		assert.Equal(t, customerID, account.ID)

		_, _, err = h.svc.Account.ValidateSession(ctx, "not-a-token")
		assert.ErrorIs(t, err, ErrSessionInvalid)
	})

	t.Run("switch requires verified target", func(t *testing.T) {
		_, _, err := h.svc.Account.SwitchAccount(ctx, token, entity.KindBusiness)
		assert.ErrorIs(t, err, ErrAccountNotFound)

		_, _, err = h.svc.Account.SwitchAccount(ctx, token, entity.KindCustomer)
		var verr *ValidationError
		assert.ErrorAs(t, err, &verr)
	})

	t.Run("switch moves the session", func(t *testing.T) {
		_, err := h.svc.Account.MarkVerified(ctx, businessID)
		require.NoError(t, err)

		target, next, err := h.svc.Account.SwitchAccount(ctx, token, entity.KindBusiness)
		require.NoError(t, err)
		assert.Equal(t, businessID, target.ID)
		assert.Equal(t, businessID, next.AccountID)

		_, _, err = h.svc.Account.ValidateSession(ctx, token)
		assert.ErrorIs(t, err, ErrSessionInvalid, "old session is revoked")

		token = next.Token.String()
	})

	t.Run("logout", func(t *testing.T) {
		require.NoError(t, h.svc.Account.Logout(ctx, token))
		assert.ErrorIs(t, h.svc.Account.Logout(ctx, token), ErrSessionInvalid)

		_, _, err := h.svc.Account.ValidateSession(ctx, token)
		assert.ErrorIs(t, err, ErrSessionInvalid)
	})

	t.Run("sessions expire", func(t *testing.T) {
		s, err := h.svc.Account.StartSession(ctx, customerID)
		require.NoError(t, err)

		h.clock.Advance(h.config.Session.TTL() + time.Second)
		_, _, err = h.svc.Account.ValidateSession(ctx, s.Token.String())
		assert.ErrorIs(t, err, ErrSessionInvalid)
	})
}
