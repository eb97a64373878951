package sitedb

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestMaximumSeedsEveryType(t *testing.T) {
	s := NewMaximumStore(t.TempDir())

	maxims, err := s.ListAll()
	require.NoError(t, err)
	require.Len(t, maxims, len(KnownTypes()))
	for i, mx := range maxims {
		assert.Equal(t, KnownTypes()[i], mx.Type)
		assert.Equal(t, 0, mx.MaxUse, "seed rows start at zero")
	}
}

func TestMaximumUpdateAndMap(t *testing.T) {
	s := NewMaximumStore(t.TempDir())

	found, err := s.Update(Maximum{Type: Flash, MaxUse: 25})
	require.NoError(t, err)
	require.True(t, found)

	byTag, err := s.MapAll()
	require.NoError(t, err)
	assert.Equal(t, 25, byTag[Flash.Tag])
	assert.Equal(t, 0, byTag[Tape.Tag])
}

func TestMaximumValidationBounds(t *testing.T) {
	assert.NotEmpty(t, Maximum{Type: Flash, MaxUse: 0}.Validate())
	assert.NotEmpty(t, Maximum{Type: Flash, MaxUse: 1000}.Validate())
	assert.Empty(t, Maximum{Type: Flash, MaxUse: 1}.Validate())
	assert.Empty(t, Maximum{Type: Flash, MaxUse: 999}.Validate())
}

func TestMaximumSaveAllOrNothing(t *testing.T) {
	s := NewMaximumStore(t.TempDir())

	errs, err := s.Save([]Maximum{
		{Type: Flash, MaxUse: 10},
		{Type: Tape, MaxUse: 0},
	})
	require.NoError(t, err)
	require.Len(t, errs, 1)
	assert.Contains(t, errs[0], "Tape maximum usage")

	byTag, err := s.MapAll()
	require.NoError(t, err)
	assert.Equal(t, 0, byTag[Flash.Tag], "a failed save writes nothing")

	errs, err = s.Save([]Maximum{
		{Type: Flash, MaxUse: 10},
		{Type: Tape, MaxUse: 20},
	})
	require.NoError(t, err)
	require.Empty(t, errs)

	byTag, err = s.MapAll()
	require.NoError(t, err)
	assert.Equal(t, 10, byTag[Flash.Tag])
	assert.Equal(t, 20, byTag[Tape.Tag])
}
