package catalog

import (
	"context"
	"testing"

	"github.com/stretchr/testify/require"

	"github.com/fatflowers/examportal/internal/platform/db/dbtest"
)

func TestGetSubjectAndUser(t *testing.T) {
	gdb := dbtest.New(t)
	dbtest.SeedSubject(t, gdb, "math", 499)
	dbtest.SeedUser(t, gdb, "u1")
	s := NewService(gdb)
	ctx := context.Background()

	subject, err := s.GetSubject(ctx, "math")
	require.NoError(t, err)
	require.EqualValues(t, 499, subject.Price)

	_, err = s.GetSubject(ctx, "history")
	require.ErrorIs(t, err, ErrSubjectNotFound)

	user, err := s.GetUser(ctx, "u1")
	require.NoError(t, err)
	require.Equal(t, "u1@example.com", user.Email)

	_, err = s.GetUser(ctx, "ghost")
	require.ErrorIs(t, err, ErrUserNotFound)
}
