package session

import (
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/GintGld/video-splitter/internal/service"
)

func TestTokenRoundTrip(t *testing.T) {
	s := New([]byte("test-secret"), time.Hour)

	token, err := s.NewToken("some-session-id")
	require.NoError(t, err)
	require.NotEmpty(t, token)

	sid, err := s.Parse(token)
	require.NoError(t, err)
	assert.Equal(t, "some-session-id", sid)
}

func TestParseWrongSecret(t *testing.T) {
	issuer := New([]byte("secret-a"), time.Hour)
	verifier := New([]byte("secret-b"), time.Hour)

	token, err := issuer.NewToken("sid")
	require.NoError(t, err)

	_, err = verifier.Parse(token)
	require.ErrorIs(t, err, service.ErrInvalidToken)
}

func TestParseExpiredToken(t *testing.T) {
	s := New([]byte("test-secret"), -time.Minute)

	token, err := s.NewToken("sid")
	require.NoError(t, err)

	_, err = s.Parse(token)
	require.ErrorIs(t, err, service.ErrInvalidToken)
}

func TestParseGarbage(t *testing.T) {
	s := New([]byte("test-secret"), time.Hour)

	_, err := s.Parse("not-a-token")
	require.ErrorIs(t, err, service.ErrInvalidToken)
}
