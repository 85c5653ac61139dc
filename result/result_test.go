package result

import (
	"errors"
	"testing"

	"github.com/stretchr/testify/require"
)

func TestOkAndFailure(t *testing.T) {
	r := Ok[int, string](42)
	require.True(t, r.IsSuccess())

	v, ok := r.Success()
	require.True(t, ok)
	require.Equal(t, 42, v)

	_, failed := r.Failure()
	require.False(t, failed)
}

func TestErrAndFailure(t *testing.T) {
	r := Err[int, string]("boom")
	require.False(t, r.IsSuccess())

	f, ok := r.Failure()
	require.True(t, ok)
	require.Equal(t, "boom", f)
}

func TestMapOnlyAppliesToSuccess(t *testing.T) {
	ok := Ok[int, string](1)
	mapped := Map(ok, func(v int) int { return v + 1 })
	v, _ := mapped.Success()
	require.Equal(t, 2, v)

	failed := Err[int, string]("nope")
	mappedFail := Map(failed, func(v int) int { return v + 1 })
	require.False(t, mappedFail.IsSuccess())
}

func TestOrElseThrow(t *testing.T) {
	ok := Ok[int, string](7)
	v, err := ok.OrElseThrow(func(s string) error { return errors.New(s) })
	require.NoError(t, err)
	require.Equal(t, 7, v)

	failed := Err[int, string]("bad")
	_, err = failed.OrElseThrow(func(s string) error { return errors.New(s) })
	require.Error(t, err)
	require.Equal(t, "bad", err.Error())
}
