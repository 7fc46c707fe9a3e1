package attestation

import (
	"context"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"vouch/internal/verification/models"
	id "vouch/pkg/domain"
	dErrors "vouch/pkg/domain-errors"
	"vouch/pkg/requestcontext"
)

var service = NewService("test-signing-key", "vouch-test")

func completedResult() models.Result {
	return models.Result{
		UserID:     id.NewUserID(),
		FinalScore: 72.5,
		MethodsCompleted: []models.MethodRecord{
			{Method: id.MethodDocument, Weight: 30},
			{Method: id.MethodCommunity, Weight: 25},
			{Method: id.MethodTrustNetwork, Weight: 12.5},
		},
		Status: models.StatusCompleted,
	}
}

func Test_AttestAndVerify(t *testing.T) {
	result := completedResult()
	token, err := service.Attest(context.Background(), result)
	require.NoError(t, err)
	require.NotEmpty(t, token)

	claims, err := service.Verify(token)
	require.NoError(t, err)
	assert.Equal(t, result.UserID.String(), claims.UserID)
	assert.Equal(t, 72.5, claims.FinalScore)
	assert.Equal(t, 3, claims.MethodsCount)
	assert.Equal(t, "completed", claims.Status)
	assert.Equal(t, "vouch-test", claims.Issuer)
	assert.WithinDuration(t, time.Now().Add(DefaultValidity), claims.ExpiresAt.Time, time.Minute)
}

func Test_Attest_NonTerminalStatus(t *testing.T) {
	result := completedResult()
	result.Status = models.StatusRunning

	_, err := service.Attest(context.Background(), result)
	require.Error(t, err)
	assert.True(t, dErrors.HasCode(err, dErrors.CodeInvalidInput))
}

func Test_Verify_InvalidToken(t *testing.T) {
	_, err := service.Verify("not-a-token")
	require.Error(t, err)
	assert.True(t, dErrors.HasCode(err, dErrors.CodeUnauthorized))
}

func Test_Verify_ExpiredAttestation(t *testing.T) {
	// Sign in the past so the attestation is already expired.
	past := requestcontext.WithTime(context.Background(), time.Now().Add(-2*DefaultValidity))
	token, err := service.Attest(past, completedResult())
	require.NoError(t, err)

	_, err = service.Verify(token)
	require.Error(t, err)
	assert.True(t, dErrors.HasCode(err, dErrors.CodeUnauthorized))
}

func Test_Verify_WrongKey(t *testing.T) {
	other := NewService("different-key", "vouch-test")
	token, err := other.Attest(context.Background(), completedResult())
	require.NoError(t, err)

	_, err = service.Verify(token)
	require.Error(t, err)
}
