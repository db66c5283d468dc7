package staging_test

import (
	"fmt"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"github.com/vitrine-motors/vitrine-api/pkg/catalog_api/models"
	"github.com/vitrine-motors/vitrine-api/pkg/catalog_api/staging"
)

func kept(path string) models.KeptImage {
	return models.KeptImage{
		URL:  "https://cdn.test/" + path,
		Meta: &models.ImageMeta{Path: path},
	}
}

func fresh(name string) models.NewImage {
	return models.NewImage{Filename: name, Mime: "image/webp", Data: []byte(name)}
}

func TestAppend_EnforcesCap(t *testing.T) {
	s := staging.NewSet(nil)
	for i := 0; i < models.MaxImagesPerVehicle; i++ {
		require.NoError(t, s.Append(fresh(fmt.Sprintf("%d.webp", i))))
	}
	assert.ErrorIs(t, s.Append(fresh("over.webp")), staging.ErrImageLimit)
	assert.Equal(t, models.MaxImagesPerVehicle, s.Len())
}

func TestNewSet_TruncatesExcessExisting(t *testing.T) {
	var existing []models.KeptImage
	for i := 0; i < 13; i++ {
		existing = append(existing, kept(fmt.Sprintf("vehicles/1/%d.webp", i)))
	}
	s := staging.NewSet(existing)
	assert.Equal(t, models.MaxImagesPerVehicle, s.Len())
}

func TestMoveAndRemove(t *testing.T) {
	s := staging.NewSet([]models.KeptImage{
		kept("vehicles/1/a.webp"),
		kept("vehicles/1/b.webp"),
	})
	require.NoError(t, s.Append(fresh("c.webp")))

	// c to the front: c, a, b
	require.NoError(t, s.Move(2, 0))
	// drop a: c, b
	require.NoError(t, s.Remove(1))

	keptOut, freshOut := s.Submission()
	require.Len(t, keptOut, 1)
	assert.Equal(t, "vehicles/1/b.webp", keptOut[0].Meta.Path)
	require.Len(t, freshOut, 1)
	assert.Equal(t, "c.webp", freshOut[0].Filename)

	assert.Error(t, s.Move(5, 0))
	assert.Error(t, s.Remove(-1))
}

func TestRemove_ReleasesPreview(t *testing.T) {
	s := staging.NewSet(nil)
	released := false
	require.NoError(t, s.AppendWithPreview(fresh("a.webp"), func() { released = true }))
	require.NoError(t, s.Remove(0))
	assert.True(t, released)
	assert.Zero(t, s.Len())
}

func TestSubmission_PreservesOrderWithinKinds(t *testing.T) {
	s := staging.NewSet([]models.KeptImage{
		kept("vehicles/1/a.webp"),
		kept("vehicles/1/b.webp"),
	})
	require.NoError(t, s.Append(fresh("x.webp")))
	require.NoError(t, s.Append(fresh("y.webp")))

	// Interleave: x, a, y, b
	require.NoError(t, s.Move(2, 0))
	require.NoError(t, s.Move(3, 2))

	keptOut, freshOut := s.Submission()
	require.Len(t, keptOut, 2)
	assert.Equal(t, "vehicles/1/a.webp", keptOut[0].Meta.Path)
	assert.Equal(t, "vehicles/1/b.webp", keptOut[1].Meta.Path)
	require.Len(t, freshOut, 2)
	assert.Equal(t, "x.webp", freshOut[0].Filename)
	assert.Equal(t, "y.webp", freshOut[1].Filename)
}
