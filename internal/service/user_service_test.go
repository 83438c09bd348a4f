package service

import (
	"context"
	"errors"
	"testing"
	"time"

	"ecommerce-service/internal/apperr"
	"ecommerce-service/internal/auth"
	"ecommerce-service/internal/models"
	"ecommerce-service/internal/testutil"

	"github.com/google/uuid"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

type userFixture struct {
	svc    *UserService
	store  *testutil.MemStore
	events *testutil.Publisher
	images *testutil.Images
}

func newUserFixture() *userFixture {
	f := &userFixture{
		store:  testutil.NewMemStore(),
		events: &testutil.Publisher{},
		images: testutil.NewImages(),
	}
	issuer := auth.NewTokenIssuer("test-secret", time.Hour)
	f.svc = NewUserService(f.store, f.images, f.events, issuer, "http://localhost:3000")
	return f
}

func (f *userFixture) register(t *testing.T, name, email string) *Session {
	t.Helper()
	sess, err := f.svc.Register(context.Background(), &RegisterRequest{
		Name: name, Email: email, Password: "secret123",
	})
	require.NoError(t, err)
	return sess
}

func TestRegister(t *testing.T) {
	f := newUserFixture()

	sess := f.register(t, "Alice", "a@x.com")
	assert.NotEmpty(t, sess.Token)
	assert.Equal(t, models.RoleUser, sess.User.Role)
	assert.Equal(t, models.DefaultAvatar, sess.User.Avatar)

	stored, err := f.store.GetUserByEmail(context.Background(), "a@x.com")
	require.NoError(t, err)
	assert.NotEqual(t, "secret123", stored.PasswordHash)
	assert.True(t, auth.CheckPassword("secret123", stored.PasswordHash))
}

func TestRegister_WithAvatar(t *testing.T) {
	f := newUserFixture()

	sess, err := f.svc.Register(context.Background(), &RegisterRequest{
		Name: "Alice", Email: "a@x.com", Password: "secret123", Avatar: "data:image/png;base64,aGVsbG8=",
	})
	require.NoError(t, err)
	assert.Contains(t, sess.User.Avatar.PublicID, "avatars/")
	assert.Len(t, f.images.Stored, 1)
}

func TestRegister_Validation(t *testing.T) {
	f := newUserFixture()
	ctx := context.Background()

	cases := []struct {
		req RegisterRequest
		msg string
	}{
		{RegisterRequest{Name: "Al", Email: "a@x.com", Password: "secret123"}, "Name should have more than 4 characters"},
		{RegisterRequest{Name: "Alice", Email: "not-an-email", Password: "secret123"}, "Please Enter a valid Email"},
		{RegisterRequest{Name: "Alice", Email: "a@x.com", Password: "short"}, "Password should be greater than 8 characters"},
	}
	for _, c := range cases {
		_, err := f.svc.Register(ctx, &c.req)
		require.Error(t, err)
		assert.True(t, apperr.Is(err, apperr.KindValidation))
		assert.Contains(t, err.Error(), c.msg)
	}
}

func TestRegister_DuplicateEmail(t *testing.T) {
	f := newUserFixture()
	f.register(t, "Alice", "a@x.com")

	_, err := f.svc.Register(context.Background(), &RegisterRequest{
		Name: "Alice Two", Email: "a@x.com", Password: "secret123",
	})
	assert.True(t, apperr.Is(err, apperr.KindValidation))
	assert.Contains(t, err.Error(), "Duplicate email Entered")
}

func TestLogin(t *testing.T) {
	f := newUserFixture()
	f.register(t, "Alice", "a@x.com")
	ctx := context.Background()

	sess, err := f.svc.Login(ctx, "a@x.com", "secret123")
	require.NoError(t, err)
	assert.NotEmpty(t, sess.Token)

	_, wrongPassword := f.svc.Login(ctx, "a@x.com", "secret124")
	_, unknownEmail := f.svc.Login(ctx, "b@x.com", "secret123")
	assert.True(t, apperr.Is(wrongPassword, apperr.KindUnauthorized))
	assert.True(t, apperr.Is(unknownEmail, apperr.KindUnauthorized))
	assert.Equal(t, wrongPassword.Error(), unknownEmail.Error())

	_, err = f.svc.Login(ctx, "", "")
	assert.True(t, apperr.Is(err, apperr.KindValidation))
}

func TestAuthenticate(t *testing.T) {
	f := newUserFixture()
	sess := f.register(t, "Alice", "a@x.com")
	ctx := context.Background()

	user, err := f.svc.Authenticate(ctx, sess.Token)
	require.NoError(t, err)
	assert.Equal(t, sess.User.ID, user.ID)

	_, err = f.svc.Authenticate(ctx, "garbage")
	assert.True(t, apperr.Is(err, apperr.KindUnauthorized))

	// deleted after issuance
	require.NoError(t, f.svc.DeleteUser(ctx, sess.User.ID))
	_, err = f.svc.Authenticate(ctx, sess.Token)
	assert.True(t, apperr.Is(err, apperr.KindUnauthorized))
}

func TestUpdatePassword(t *testing.T) {
	f := newUserFixture()
	sess := f.register(t, "Alice", "a@x.com")
	ctx := context.Background()

	_, err := f.svc.UpdatePassword(ctx, sess.User.ID, &UpdatePasswordRequest{
		OldPassword: "wrong-pass", NewPassword: "newsecret1", ConfirmPassword: "newsecret1",
	})
	assert.Contains(t, err.Error(), "Old password is incorrect")

	_, err = f.svc.UpdatePassword(ctx, sess.User.ID, &UpdatePasswordRequest{
		OldPassword: "secret123", NewPassword: "newsecret1", ConfirmPassword: "newsecret2",
	})
	assert.Contains(t, err.Error(), "Password does not match")

	_, err = f.svc.UpdatePassword(ctx, sess.User.ID, &UpdatePasswordRequest{
		OldPassword: "secret123", NewPassword: "newsecret1", ConfirmPassword: "newsecret1",
	})
	require.NoError(t, err)

	_, err = f.svc.Login(ctx, "a@x.com", "newsecret1")
	assert.NoError(t, err)
}

func TestUpdateProfile_ReplacesAvatar(t *testing.T) {
	f := newUserFixture()
	ctx := context.Background()
	sess, err := f.svc.Register(ctx, &RegisterRequest{
		Name: "Alice", Email: "a@x.com", Password: "secret123", Avatar: "data:image/png;base64,aGVsbG8=",
	})
	require.NoError(t, err)
	oldAvatar := sess.User.Avatar.PublicID

	user, err := f.svc.UpdateProfile(ctx, sess.User.ID, &UpdateProfileRequest{
		Name: "Alice Smith", Email: "alice@x.com", Avatar: "data:image/png;base64,d29ybGQ=",
	})
	require.NoError(t, err)
	assert.Equal(t, "Alice Smith", user.Name)
	assert.NotEqual(t, oldAvatar, user.Avatar.PublicID)
	assert.Contains(t, f.images.Deleted, oldAvatar)
}

func TestPasswordReset_SingleUse(t *testing.T) {
	f := newUserFixture()
	sess := f.register(t, "Alice", "a@x.com")
	ctx := context.Background()

	require.NoError(t, f.svc.RequestReset(ctx, "a@x.com"))
	require.Len(t, f.events.Resets, 1)
	assert.Equal(t, "a@x.com", f.events.Resets[0].Email)
	token := f.events.LastResetToken()
	require.Len(t, token, 40)

	stored, err := f.store.GetUserByID(ctx, sess.User.ID)
	require.NoError(t, err)
	require.NotNil(t, stored.ResetPasswordToken)
	assert.NotEqual(t, token, *stored.ResetPasswordToken)

	_, err = f.svc.CompleteReset(ctx, token, &ResetPasswordRequest{Password: "newsecret1", ConfirmPassword: "nope"})
	assert.Contains(t, err.Error(), "Password does not match")

	_, err = f.svc.CompleteReset(ctx, token, &ResetPasswordRequest{Password: "newsecret1", ConfirmPassword: "newsecret1"})
	require.NoError(t, err)

	_, err = f.svc.CompleteReset(ctx, token, &ResetPasswordRequest{Password: "other-pass", ConfirmPassword: "other-pass"})
	assert.True(t, apperr.Is(err, apperr.KindValidation))
	assert.Contains(t, err.Error(), "Reset Password Token is invalid or has been expired")

	_, err = f.svc.Login(ctx, "a@x.com", "newsecret1")
	assert.NoError(t, err)
}

func TestPasswordReset_Expired(t *testing.T) {
	f := newUserFixture()
	f.register(t, "Alice", "a@x.com")
	ctx := context.Background()

	start := time.Now()
	f.svc.now = func() time.Time { return start }
	require.NoError(t, f.svc.RequestReset(ctx, "a@x.com"))
	token := f.events.LastResetToken()

	f.svc.now = func() time.Time { return start.Add(auth.ResetTokenTTL + time.Second) }
	_, err := f.svc.CompleteReset(ctx, token, &ResetPasswordRequest{Password: "newsecret1", ConfirmPassword: "newsecret1"})
	assert.True(t, apperr.Is(err, apperr.KindValidation))
}

func TestRequestReset_UnknownEmail(t *testing.T) {
	f := newUserFixture()
	err := f.svc.RequestReset(context.Background(), "nobody@x.com")
	assert.True(t, apperr.Is(err, apperr.KindNotFound))
}

func TestRequestReset_PublishFailureClearsToken(t *testing.T) {
	f := newUserFixture()
	sess := f.register(t, "Alice", "a@x.com")
	f.events.Err = errors.New("broker down")
	ctx := context.Background()

	err := f.svc.RequestReset(ctx, "a@x.com")
	assert.Equal(t, apperr.KindInternal, apperr.KindOf(err))

	stored, err := f.store.GetUserByID(ctx, sess.User.ID)
	require.NoError(t, err)
	assert.Nil(t, stored.ResetPasswordToken)
	assert.Nil(t, stored.ResetPasswordExpire)
}

func TestAdminUpdateUser(t *testing.T) {
	f := newUserFixture()
	sess := f.register(t, "Alice", "a@x.com")
	ctx := context.Background()

	user, err := f.svc.UpdateUser(ctx, sess.User.ID, &UpdateUserRequest{Name: "Alice", Email: "a@x.com", Role: "admin"})
	require.NoError(t, err)
	assert.Equal(t, models.RoleAdmin, user.Role)

	_, err = f.svc.UpdateUser(ctx, sess.User.ID, &UpdateUserRequest{Name: "Alice", Email: "a@x.com", Role: "root"})
	assert.True(t, apperr.Is(err, apperr.KindValidation))
}

func TestGetUser_NotFound(t *testing.T) {
	f := newUserFixture()
	_, err := f.svc.GetUser(context.Background(), uuid.New())
	assert.True(t, apperr.Is(err, apperr.KindNotFound))
	assert.Contains(t, err.Error(), "User does not exist with Id")
}
