package mongodb

import (
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.mongodb.org/mongo-driver/bson"
	"go.mongodb.org/mongo-driver/bson/primitive"

	"github.com/oksasatya/shopdesk-api/internal/domain/entity"
)

var fixedNow = time.Date(2025, 3, 1, 12, 0, 0, 0, time.UTC)

func sets(t *testing.T, update bson.M) bson.M {
	t.Helper()
	set, ok := update["$set"].(bson.M)
	require.True(t, ok)
	return set
}

func TestUpdateDocumentPermanentAdminClearsExpiry(t *testing.T) {
	update := updateDocument(entity.UserPatch{IsAdmin: entity.Ptr(true)}, fixedNow)

	set := sets(t, update)
	assert.Equal(t, true, set["isAdmin"])
	assert.Equal(t, fixedNow, set["updatedAt"])
	assert.Equal(t, bson.M{"tempAdminExpiry": ""}, update["$unset"])
}

func TestUpdateDocumentTemporaryAdminSetsExpiry(t *testing.T) {
	exp := fixedNow.Add(24 * time.Hour)
	update := updateDocument(entity.UserPatch{IsAdmin: entity.Ptr(true), TempAdminExpiry: &exp}, fixedNow)

	set := sets(t, update)
	assert.Equal(t, exp, set["tempAdminExpiry"])
	assert.NotContains(t, update, "$unset")
}

func TestUpdateDocumentClearResetTokenWins(t *testing.T) {
	tok := "abc"
	update := updateDocument(entity.UserPatch{ResetPasswordToken: &tok, ClearResetToken: true}, fixedNow)

	set := sets(t, update)
	assert.NotContains(t, set, "resetPasswordToken")
	assert.Equal(t, bson.M{"resetPasswordToken": "", "resetPasswordExpires": ""}, update["$unset"])
}

func TestUpdateDocumentNormalizesEmail(t *testing.T) {
	update := updateDocument(entity.UserPatch{Email: entity.Ptr("  Ana@Example.COM ")}, fixedNow)
	assert.Equal(t, "ana@example.com", sets(t, update)["email"])
}

func TestDocumentRoundTripKeepsLinkAndRoles(t *testing.T) {
	hash := "$2a$10$hash"
	u := &entity.User{
		Name:         "Ana",
		Email:        "Ana@Example.com",
		PasswordHash: &hash,
		Roles:        entity.RoleFlags{IsBusiness: true, IsUser: true},
		OAuth:        &entity.OAuthLink{GoogleID: "sub-1", GoogleEmail: "ana@example.com"},
		CreatedAt:    fixedNow,
		UpdatedAt:    fixedNow,
	}
	doc := fromEntity(u)
	assert.Equal(t, "ana@example.com", doc.Email)

	doc.ID = primitive.NewObjectID()
	back := doc.toEntity()
	assert.Equal(t, doc.ID.Hex(), back.ID)
	assert.Equal(t, u.Roles, back.Roles)
	assert.True(t, back.IsGoogleLinked("sub-1"))
	assert.True(t, back.HasPassword())
	assert.Nil(t, back.TempAdminExpiry)
}

func TestListProjectionKeepsPasswordPresence(t *testing.T) {
	assert.NotContains(t, listProjection, "passwordHash")
	assert.Equal(t, 0, listProjection["resetPasswordToken"])
	assert.Equal(t, 0, listProjection["resetPasswordExpires"])

	hash := "$2a$10$hash"
	listed := userDocument{ID: primitive.NewObjectID(), PasswordHash: &hash}.toEntity()
	assert.True(t, listed.HasPassword())
}
