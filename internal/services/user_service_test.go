package services

import (
	"context"
	"fmt"
	"net/http"
	"testing"

	"github.com/stretchr/testify/require"
	"gorm.io/gorm"

	"github.com/chidiebere-dev/homefolio/internal/database/testutil"
	"github.com/chidiebere-dev/homefolio/internal/models"
	"github.com/chidiebere-dev/homefolio/pkg/crypto"
	apperrors "github.com/chidiebere-dev/homefolio/pkg/errors"
)

func seedAccount(t *testing.T, db *gorm.DB, name, email string) *models.User {
	t.Helper()

	hashed, err := crypto.HashPassword("supersecret")
	require.NoError(t, err)

	user := &models.User{
		Name:     name,
		Email:    email,
		Password: hashed,
		Role:     models.RoleUser,
		IsActive: true,
	}
	require.NoError(t, db.Create(user).Error)
	return user
}

func TestAdminCreateUser(t *testing.T) {
	db := testutil.MustOpenTestDB(t, testutil.WithAutoMigrate())
	svc, err := NewUserService(db)
	require.NoError(t, err)
	ctx := context.Background()

	user, err := svc.Create(ctx, AdminCreateUserInput{
		Name:     "Provisioned",
		Email:    "Provisioned@Example.com",
		Password: "supersecret",
	})
	require.NoError(t, err)
	require.Equal(t, "provisioned@example.com", user.Email)
	require.Equal(t, models.RoleUser, user.Role)
	require.True(t, user.Verified)
	require.True(t, user.IsActive)
	require.True(t, crypto.VerifyPassword(user.Password, "supersecret"))

	_, err = svc.Create(ctx, AdminCreateUserInput{
		Name:     "Admin",
		Email:    "second@example.com",
		Password: "supersecret",
		Role:     models.RoleAdmin,
	})
	require.NoError(t, err)

	// Duplicate email is a conflict, not an internal error.
	_, err = svc.Create(ctx, AdminCreateUserInput{
		Name:     "Duplicate",
		Email:    "provisioned@example.com",
		Password: "supersecret",
	})
	require.Error(t, err)
	require.Equal(t, http.StatusConflict, apperrors.FromError(err).StatusCode)

	_, err = svc.Create(ctx, AdminCreateUserInput{Name: "Short", Email: "short@example.com", Password: "short"})
	require.Error(t, err)

	_, err = svc.Create(ctx, AdminCreateUserInput{Name: "Bad", Email: "bad@example.com", Password: "supersecret", Role: "superuser"})
	require.Error(t, err)
}

func TestUserListSearch(t *testing.T) {
	db := testutil.MustOpenTestDB(t, testutil.WithAutoMigrate())
	svc, err := NewUserService(db)
	require.NoError(t, err)
	ctx := context.Background()

	seedAccount(t, db, "Ada Obi", "ada@example.com")
	seedAccount(t, db, "Chinedu Eze", "chinedu@example.com")
	for i := 0; i < 3; i++ {
		seedAccount(t, db, "Filler", fmt.Sprintf("filler%d@example.com", i))
	}

	users, total, err := svc.List(ctx, "", 1, 10)
	require.NoError(t, err)
	require.Equal(t, int64(5), total)
	require.Len(t, users, 5)

	// Search matches name or email, case-insensitively.
	users, total, err = svc.List(ctx, "ADA", 1, 10)
	require.NoError(t, err)
	require.Equal(t, int64(1), total)
	require.Equal(t, "ada@example.com", users[0].Email)

	users, total, err = svc.List(ctx, "example.com", 1, 3)
	require.NoError(t, err)
	require.Equal(t, int64(5), total)
	require.Len(t, users, 3)
}

func TestUpdateProfile(t *testing.T) {
	db := testutil.MustOpenTestDB(t, testutil.WithAutoMigrate())
	svc, err := NewUserService(db)
	require.NoError(t, err)
	ctx := context.Background()

	user := seedAccount(t, db, "Ada Obi", "ada@example.com")

	name := "Ada O."
	phone := "+2348012345678"
	updated, err := svc.UpdateProfile(ctx, user.ID, UpdateProfileInput{Name: &name, Phone: &phone})
	require.NoError(t, err)
	require.Equal(t, name, updated.Name)
	require.Equal(t, phone, updated.Phone)

	empty := "  "
	_, err = svc.UpdateProfile(ctx, user.ID, UpdateProfileInput{Name: &empty})
	require.Error(t, err)

	_, err = svc.UpdateProfile(ctx, "missing-id", UpdateProfileInput{Name: &name})
	require.ErrorIs(t, err, apperrors.ErrNotFound)
}

func TestChangePassword(t *testing.T) {
	db := testutil.MustOpenTestDB(t, testutil.WithAutoMigrate())
	svc, err := NewUserService(db)
	require.NoError(t, err)
	ctx := context.Background()

	user := seedAccount(t, db, "Ada Obi", "ada@example.com")

	require.ErrorIs(t, svc.ChangePassword(ctx, user.ID, "wrong-current", "newpassword"),
		apperrors.ErrInvalidCredentials)
	require.Error(t, svc.ChangePassword(ctx, user.ID, "supersecret", "short"))

	require.NoError(t, svc.ChangePassword(ctx, user.ID, "supersecret", "newpassword"))

	var loaded models.User
	require.NoError(t, db.First(&loaded, "id = ?", user.ID).Error)
	require.True(t, crypto.VerifyPassword(loaded.Password, "newpassword"))
}

func TestAdminUpdateUser(t *testing.T) {
	db := testutil.MustOpenTestDB(t, testutil.WithAutoMigrate())
	svc, err := NewUserService(db)
	require.NoError(t, err)
	ctx := context.Background()

	user := seedAccount(t, db, "Ada Obi", "ada@example.com")

	role := models.RoleAdmin
	inactive := false
	verified := true
	updated, err := svc.AdminUpdate(ctx, user.ID, AdminUpdateUserInput{
		Role:     &role,
		IsActive: &inactive,
		Verified: &verified,
	})
	require.NoError(t, err)
	require.Equal(t, models.RoleAdmin, updated.Role)
	require.False(t, updated.IsActive)
	require.True(t, updated.Verified)

	bogus := "superuser"
	_, err = svc.AdminUpdate(ctx, user.ID, AdminUpdateUserInput{Role: &bogus})
	require.Error(t, err)
}

func TestDeleteUserKeepsLedgerHistory(t *testing.T) {
	db := testutil.MustOpenTestDB(t, testutil.WithAutoMigrate())
	svc, err := NewUserService(db)
	require.NoError(t, err)
	ctx := context.Background()

	user := seedAccount(t, db, "Ada Obi", "ada@example.com")
	require.NoError(t, db.Create(&models.Session{
		UserID:       user.ID,
		RefreshToken: "hash",
	}).Error)
	require.NoError(t, db.Create(&models.WalletTransaction{
		UserID:    user.ID,
		Direction: models.TransactionCredit,
		Amount:    100,
		Status:    models.TransactionSuccessful,
		Reference: "ref-1",
	}).Error)

	require.NoError(t, svc.Delete(ctx, user.ID))
	require.ErrorIs(t, svc.Delete(ctx, user.ID), apperrors.ErrNotFound)

	var sessions, transactions int64
	require.NoError(t, db.Model(&models.Session{}).Count(&sessions).Error)
	require.NoError(t, db.Model(&models.WalletTransaction{}).Count(&transactions).Error)
	require.Equal(t, int64(0), sessions)
	require.Equal(t, int64(1), transactions)
}
