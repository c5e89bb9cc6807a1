package utils

import (
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/scantech/team-tasks/internal/models"
)

func TestToken_RoundTrip(t *testing.T) {
	user := models.User{ID: 5, Role: models.RoleTeamLeader}

	token, err := GenerateToken("secret", user, time.Hour)
	require.NoError(t, err)

	claims, err := ParseToken("secret", token)
	require.NoError(t, err)
	assert.Equal(t, uint64(5), claims.UserID)
	assert.Equal(t, models.RoleTeamLeader, claims.Role)
	assert.Equal(t, "5", claims.Subject)
	assert.NotEmpty(t, claims.ID)
}

func TestToken_UniqueIDs(t *testing.T) {
	user := models.User{ID: 5, Role: models.RoleTeamLeader}

	first, err := GenerateToken("secret", user, time.Hour)
	require.NoError(t, err)
	second, err := GenerateToken("secret", user, time.Hour)
	require.NoError(t, err)

	firstClaims, err := ParseToken("secret", first)
	require.NoError(t, err)
	secondClaims, err := ParseToken("secret", second)
	require.NoError(t, err)
	assert.NotEqual(t, firstClaims.ID, secondClaims.ID)
}

func TestToken_WrongSecret(t *testing.T) {
	token, err := GenerateToken("secret", models.User{ID: 1}, time.Hour)
	require.NoError(t, err)

	_, err = ParseToken("other", token)
	assert.ErrorIs(t, err, ErrInvalidToken)
}

func TestToken_Expired(t *testing.T) {
	token, err := GenerateToken("secret", models.User{ID: 1}, -time.Minute)
	require.NoError(t, err)

	_, err = ParseToken("secret", token)
	assert.ErrorIs(t, err, ErrInvalidToken)
}

func TestToken_Garbage(t *testing.T) {
	_, err := ParseToken("secret", "not-a-token")
	assert.ErrorIs(t, err, ErrInvalidToken)
}
