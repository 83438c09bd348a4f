package service

import (
	"context"
	"errors"
	"fmt"
	"time"

	"ecommerce-service/internal/apperr"
	"ecommerce-service/internal/auth"
	"ecommerce-service/internal/models"
	"ecommerce-service/internal/objstore"
	"ecommerce-service/internal/store"
	"ecommerce-service/internal/util"

	"github.com/google/uuid"
	"go.uber.org/zap"
)

const avatarFolder = "avatars"

// UserService handles accounts, sessions and password resets
type UserService struct {
	users       UserStore
	images      ImageStore
	events      EventPublisher
	issuer      *auth.TokenIssuer
	frontendURL string
	logger      *zap.Logger
	now         func() time.Time
}

// NewUserService creates a new user service
func NewUserService(
	users UserStore,
	images ImageStore,
	events EventPublisher,
	issuer *auth.TokenIssuer,
	frontendURL string,
) *UserService {
	return &UserService{
		users:       users,
		images:      images,
		events:      events,
		issuer:      issuer,
		frontendURL: frontendURL,
		logger:      util.GetLogger(),
		now:         time.Now,
	}
}

// RegisterRequest represents a sign-up request; Avatar is an optional base64 data URL
type RegisterRequest struct {
	Name     string `json:"name"`
	Email    string `json:"email"`
	Password string `json:"password"`
	Avatar   string `json:"avatar,omitempty"`
}

// UpdateProfileRequest represents a profile change by the user themself
type UpdateProfileRequest struct {
	Name   string `json:"name"`
	Email  string `json:"email"`
	Avatar string `json:"avatar,omitempty"`
}

// UpdatePasswordRequest represents a password change by a signed-in user
type UpdatePasswordRequest struct {
	OldPassword     string `json:"oldPassword"`
	NewPassword     string `json:"newPassword"`
	ConfirmPassword string `json:"confirmPassword"`
}

// ResetPasswordRequest completes a password reset
type ResetPasswordRequest struct {
	Password        string `json:"password"`
	ConfirmPassword string `json:"confirmPassword"`
}

// UpdateUserRequest represents an admin edit of another account
type UpdateUserRequest struct {
	Name  string `json:"name"`
	Email string `json:"email"`
	Role  string `json:"role"`
}

// Session is an authenticated user with a freshly issued token
type Session struct {
	User  *models.User
	Token string
}

func (s *UserService) newSession(user *models.User) (*Session, error) {
	token, err := s.issuer.Issue(user.ID)
	if err != nil {
		return nil, apperr.Internal(err, "Internal Server Error")
	}
	return &Session{User: user, Token: token}, nil
}

func imageErr(err error) error {
	if errors.Is(err, objstore.ErrInvalidImage) {
		return apperr.Validation("Please upload a valid image")
	}
	return apperr.Internal(err, "Failed to upload image")
}

func userWriteErr(err error) error {
	if errors.Is(err, store.ErrDuplicate) {
		return apperr.Validation("Duplicate email Entered")
	}
	return notFoundOr(err, "User not found")
}

// removeImage deletes a stored image, skipping the default avatar; failures are only logged
func (s *UserService) removeImage(ctx context.Context, img models.Image) {
	if img.PublicID == "" || img.PublicID == models.DefaultAvatar.PublicID {
		return
	}
	if err := s.images.Delete(ctx, img.PublicID); err != nil {
		s.logger.Warn("Failed to delete image", zap.String("public_id", img.PublicID), zap.Error(err))
	}
}

// Register creates an account and signs it in
func (s *UserService) Register(ctx context.Context, req *RegisterRequest) (*Session, error) {
	ctx, span := util.StartSpan(ctx, "UserService.Register")
	defer span.End()

	user := &models.User{
		Name:   req.Name,
		Email:  req.Email,
		Avatar: models.DefaultAvatar,
		Role:   models.RoleUser,
	}
	if err := user.Validate(); err != nil {
		return nil, err
	}
	if err := models.ValidatePassword(req.Password); err != nil {
		return nil, err
	}

	hash, err := auth.HashPassword(req.Password)
	if err != nil {
		return nil, apperr.Internal(err, "Internal Server Error")
	}
	user.PasswordHash = hash

	if req.Avatar != "" {
		avatar, err := s.images.UploadDataURL(ctx, avatarFolder, req.Avatar)
		if err != nil {
			return nil, imageErr(err)
		}
		user.Avatar = avatar
	}

	if err := s.users.CreateUser(ctx, user); err != nil {
		s.removeImage(ctx, user.Avatar)
		return nil, userWriteErr(err)
	}

	util.UsersRegisteredTotal.Inc()
	s.logger.Info("User registered", zap.String("user_id", user.ID.String()))
	return s.newSession(user)
}

// Login checks credentials; unknown email and wrong password are reported alike
func (s *UserService) Login(ctx context.Context, email, password string) (*Session, error) {
	ctx, span := util.StartSpan(ctx, "UserService.Login")
	defer span.End()

	if email == "" || password == "" {
		return nil, apperr.Validation("Please Enter Email & Password")
	}

	user, err := s.users.GetUserByEmail(ctx, email)
	if err != nil && !errors.Is(err, store.ErrNotFound) {
		return nil, apperr.Internal(err, "Internal Server Error")
	}
	if user == nil || !auth.CheckPassword(password, user.PasswordHash) {
		util.LoginsFailedTotal.Inc()
		return nil, apperr.Unauthorized("Invalid email or password")
	}

	return s.newSession(user)
}

// Authenticate resolves a session token to its user
func (s *UserService) Authenticate(ctx context.Context, token string) (*models.User, error) {
	ctx, span := util.StartSpan(ctx, "UserService.Authenticate")
	defer span.End()

	userID, err := s.issuer.Verify(token)
	if err != nil {
		return nil, apperr.Unauthorized("Please Login to access this resource")
	}

	user, err := s.users.GetUserByID(ctx, userID)
	if errors.Is(err, store.ErrNotFound) {
		return nil, apperr.Unauthorized("Please Login to access this resource")
	}
	if err != nil {
		return nil, apperr.Internal(err, "Internal Server Error")
	}
	return user, nil
}

// GetUser retrieves a user by ID
func (s *UserService) GetUser(ctx context.Context, id uuid.UUID) (*models.User, error) {
	ctx, span := util.StartSpan(ctx, "UserService.GetUser")
	defer span.End()

	user, err := s.users.GetUserByID(ctx, id)
	if err != nil {
		return nil, notFoundOr(err, fmt.Sprintf("User does not exist with Id: %s", id))
	}
	return user, nil
}

// UpdatePassword replaces the password after checking the old one
func (s *UserService) UpdatePassword(ctx context.Context, userID uuid.UUID, req *UpdatePasswordRequest) (*Session, error) {
	ctx, span := util.StartSpan(ctx, "UserService.UpdatePassword")
	defer span.End()

	user, err := s.GetUser(ctx, userID)
	if err != nil {
		return nil, err
	}

	if !auth.CheckPassword(req.OldPassword, user.PasswordHash) {
		return nil, apperr.Validation("Old password is incorrect")
	}
	if req.NewPassword != req.ConfirmPassword {
		return nil, apperr.Validation("Password does not match")
	}
	if err := models.ValidatePassword(req.NewPassword); err != nil {
		return nil, err
	}

	if user.PasswordHash, err = auth.HashPassword(req.NewPassword); err != nil {
		return nil, apperr.Internal(err, "Internal Server Error")
	}
	if err := s.users.UpdateUser(ctx, user); err != nil {
		return nil, userWriteErr(err)
	}
	return s.newSession(user)
}

// UpdateProfile changes name, email and optionally the avatar
func (s *UserService) UpdateProfile(ctx context.Context, userID uuid.UUID, req *UpdateProfileRequest) (*models.User, error) {
	ctx, span := util.StartSpan(ctx, "UserService.UpdateProfile")
	defer span.End()

	user, err := s.GetUser(ctx, userID)
	if err != nil {
		return nil, err
	}

	user.Name = req.Name
	user.Email = req.Email
	if err := user.Validate(); err != nil {
		return nil, err
	}

	oldAvatar := user.Avatar
	if req.Avatar != "" {
		if user.Avatar, err = s.images.UploadDataURL(ctx, avatarFolder, req.Avatar); err != nil {
			return nil, imageErr(err)
		}
	}

	if err := s.users.UpdateUser(ctx, user); err != nil {
		if req.Avatar != "" {
			s.removeImage(ctx, user.Avatar)
		}
		return nil, userWriteErr(err)
	}

	if req.Avatar != "" {
		s.removeImage(ctx, oldAvatar)
	}
	return user, nil
}

// RequestReset stores a reset token digest and publishes the reset link for delivery
func (s *UserService) RequestReset(ctx context.Context, email string) error {
	ctx, span := util.StartSpan(ctx, "UserService.RequestReset")
	defer span.End()

	user, err := s.users.GetUserByEmail(ctx, email)
	if err != nil {
		return notFoundOr(err, "User not found")
	}

	plain, hashed, err := auth.NewResetToken()
	if err != nil {
		return apperr.Internal(err, "Internal Server Error")
	}
	expire := s.now().Add(auth.ResetTokenTTL)
	user.ResetPasswordToken = &hashed
	user.ResetPasswordExpire = &expire
	if err := s.users.UpdateUser(ctx, user); err != nil {
		return userWriteErr(err)
	}

	resetURL := fmt.Sprintf("%s/password/reset/%s", s.frontendURL, plain)
	event := &models.PasswordResetRequestedEvent{
		BaseEvent: models.NewBaseEvent(models.EventTypePasswordResetRequested),
		UserID:    user.ID,
		Email:     user.Email,
		Subject:   "Ecommerce Password Recovery",
		Message: fmt.Sprintf("Your password reset token is :- \n\n %s \n\nIf you have not requested this email then, please ignore it.",
			resetURL),
		ResetURL: resetURL,
	}

	if err := s.events.PublishPasswordResetRequested(ctx, event); err != nil {
		user.ResetPasswordToken = nil
		user.ResetPasswordExpire = nil
		if uerr := s.users.UpdateUser(ctx, user); uerr != nil {
			s.logger.Error("Failed to clear reset token", zap.String("user_id", user.ID.String()), zap.Error(uerr))
		}
		return apperr.Internal(err, "Failed to send password reset email")
	}

	util.PasswordResetsTotal.WithLabelValues("requested").Inc()
	s.logger.Info("Password reset requested", zap.String("user_id", user.ID.String()))
	return nil
}

// CompleteReset sets a new password for the holder of a valid reset token
func (s *UserService) CompleteReset(ctx context.Context, token string, req *ResetPasswordRequest) (*Session, error) {
	ctx, span := util.StartSpan(ctx, "UserService.CompleteReset")
	defer span.End()

	user, err := s.users.GetUserByResetToken(ctx, auth.HashResetToken(token), s.now())
	if errors.Is(err, store.ErrNotFound) {
		return nil, apperr.Validation("Reset Password Token is invalid or has been expired")
	}
	if err != nil {
		return nil, apperr.Internal(err, "Internal Server Error")
	}

	if req.Password != req.ConfirmPassword {
		return nil, apperr.Validation("Password does not match")
	}
	if err := models.ValidatePassword(req.Password); err != nil {
		return nil, err
	}

	if user.PasswordHash, err = auth.HashPassword(req.Password); err != nil {
		return nil, apperr.Internal(err, "Internal Server Error")
	}
	user.ResetPasswordToken = nil
	user.ResetPasswordExpire = nil
	if err := s.users.UpdateUser(ctx, user); err != nil {
		return nil, userWriteErr(err)
	}

	util.PasswordResetsTotal.WithLabelValues("completed").Inc()
	return s.newSession(user)
}

// ListUsers retrieves all users
func (s *UserService) ListUsers(ctx context.Context) ([]models.User, error) {
	ctx, span := util.StartSpan(ctx, "UserService.ListUsers")
	defer span.End()

	users, err := s.users.ListUsers(ctx)
	if err != nil {
		return nil, apperr.Internal(err, "Internal Server Error")
	}
	return users, nil
}

// UpdateUser lets an admin change another user's name, email and role
func (s *UserService) UpdateUser(ctx context.Context, id uuid.UUID, req *UpdateUserRequest) (*models.User, error) {
	ctx, span := util.StartSpan(ctx, "UserService.UpdateUser")
	defer span.End()

	role, err := models.ParseRole(req.Role)
	if err != nil {
		return nil, apperr.Validation("Invalid role: %s", req.Role)
	}

	user, err := s.GetUser(ctx, id)
	if err != nil {
		return nil, err
	}

	user.Name = req.Name
	user.Email = req.Email
	user.Role = role
	if err := user.Validate(); err != nil {
		return nil, err
	}
	if err := s.users.UpdateUser(ctx, user); err != nil {
		return nil, userWriteErr(err)
	}

	s.logger.Info("User updated by admin",
		zap.String("user_id", user.ID.String()),
		zap.String("role", string(role)))
	return user, nil
}

// DeleteUser removes a user and their avatar
func (s *UserService) DeleteUser(ctx context.Context, id uuid.UUID) error {
	ctx, span := util.StartSpan(ctx, "UserService.DeleteUser")
	defer span.End()

	user, err := s.GetUser(ctx, id)
	if err != nil {
		return err
	}

	if err := s.users.DeleteUser(ctx, id); err != nil {
		return notFoundOr(err, fmt.Sprintf("User does not exist with Id: %s", id))
	}
	s.removeImage(ctx, user.Avatar)
	return nil
}
