package services_test

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"strings"
	"sync"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"github.com/vitrine-motors/vitrine-api/pkg/catalog_api/models"
	"github.com/vitrine-motors/vitrine-api/pkg/catalog_api/repositories"
	"github.com/vitrine-motors/vitrine-api/pkg/catalog_api/services"
	"github.com/vitrine-motors/vitrine-api/pkg/catalog_api/storage"
	"gorm.io/driver/sqlite"
	"gorm.io/gorm"
)

const (
	testBucket = "vehicles-media"
	testCDN    = "https://cdn.test/vehicles-media"
)

// fakeStore is an in-memory ObjectStore for service tests.
type fakeStore struct {
	mu          sync.Mutex
	objects     map[string][]byte
	removed     []string
	failUploads bool
}

func newFakeStore() *fakeStore {
	return &fakeStore{objects: map[string][]byte{}}
}

func (f *fakeStore) Upload(_ context.Context, key, _ string, data []byte) error {
	f.mu.Lock()
	defer f.mu.Unlock()
	if f.failUploads {
		return errors.New("upload rejected")
	}
	if _, exists := f.objects[key]; exists {
		return errors.New("key already exists")
	}
	f.objects[key] = data
	return nil
}

func (f *fakeStore) Remove(_ context.Context, keys []string) []storage.RemoveResult {
	f.mu.Lock()
	defer f.mu.Unlock()
	results := make([]storage.RemoveResult, 0, len(keys))
	for _, k := range keys {
		if _, ok := f.objects[k]; !ok {
			results = append(results, storage.RemoveResult{Key: k, Outcome: storage.RemoveNotFound})
			continue
		}
		delete(f.objects, k)
		f.removed = append(f.removed, k)
		results = append(results, storage.RemoveResult{Key: k, Outcome: storage.RemoveDeleted})
	}
	return results
}

func (f *fakeStore) List(_ context.Context, prefix string) ([]string, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	var keys []string
	for k := range f.objects {
		if strings.HasPrefix(k, prefix) {
			keys = append(keys, k)
		}
	}
	return keys, nil
}

func (f *fakeStore) PublicURL(key string) string {
	return testCDN + "/" + key
}

func (f *fakeStore) SignUpload(_ context.Context, key string, _ time.Duration) (string, error) {
	return "https://sign.test/" + key, nil
}

func (f *fakeStore) has(key string) bool {
	f.mu.Lock()
	defer f.mu.Unlock()
	_, ok := f.objects[key]
	return ok
}

func (f *fakeStore) count() int {
	f.mu.Lock()
	defer f.mu.Unlock()
	return len(f.objects)
}

func setupService(t *testing.T) (*services.VehicleService, repositories.VehicleRepository, *fakeStore, *gorm.DB) {
	db, err := gorm.Open(sqlite.Open(":memory:"), &gorm.Config{})
	require.NoError(t, err)
	require.NoError(t, db.AutoMigrate(
		&models.Vehicle{},
		&models.VehicleFeature{},
		&models.VehicleImage{},
	))
	repo := repositories.NewVehicleRepository(db)
	store := newFakeStore()
	svc := services.NewVehicleService(repo, store, testBucket, testCDN)
	return svc, repo, store, db
}

// seedImage plants an object in the store and a matching row in the index.
func seedImage(t *testing.T, repo repositories.VehicleRepository, store *fakeStore, vehicleID, order int, name string) models.VehicleImage {
	key := fmt.Sprintf("vehicles/%d/%s.webp", vehicleID, name)
	require.NoError(t, store.Upload(context.Background(), key, "image/webp", []byte(name)))
	row := models.VehicleImage{
		VehicleID:    vehicleID,
		ImageURL:     store.PublicURL(key),
		ImageMeta:    &models.ImageMeta{Bucket: testBucket, Path: key},
		DisplayOrder: order,
	}
	require.NoError(t, repo.InsertImages(context.Background(), []models.VehicleImage{row}))
	return row
}

func TestCreate_RequiresName(t *testing.T) {
	svc, _, _, _ := setupService(t)
	_, err := svc.Create(context.Background(), &models.VehicleForm{Name: "   "})
	assert.Error(t, err)
}

func TestCreate_NormalizesAndUploads(t *testing.T) {
	svc, repo, store, _ := setupService(t)
	ctx := context.Background()

	form := &models.VehicleForm{
		Name:      "  Onix LT  ",
		Brand:     "Chevrolet",
		Price:     "   ", // blank becomes NULL
		Features:  []string{"Airbag", " Airbag ", "", "Ar-condicionado"},
		Available: true,
		NewImages: []models.NewImage{
			{Filename: "a.webp", Mime: "image/webp", Data: []byte("a")},
			{Filename: "b.jpg", Mime: "image/jpeg", Data: []byte("b")},
		},
	}
	id, err := svc.Create(ctx, form)
	require.NoError(t, err)

	v, err := repo.GetVehicleByID(ctx, id)
	require.NoError(t, err)
	assert.Equal(t, "Onix LT", v.Name)
	require.NotNil(t, v.Brand)
	assert.Equal(t, "Chevrolet", *v.Brand)
	assert.Nil(t, v.Price)

	require.Len(t, v.Features, 2)
	assert.Equal(t, "Airbag", v.Features[0].Feature)

	require.Len(t, v.Images, 2)
	assert.Equal(t, 0, v.Images[0].DisplayOrder)
	assert.Equal(t, 1, v.Images[1].DisplayOrder)
	for _, img := range v.Images {
		require.NotNil(t, img.ImageMeta)
		assert.True(t, strings.HasPrefix(img.ImageMeta.Path, fmt.Sprintf("vehicles/%d/", id)))
		assert.True(t, store.has(img.ImageMeta.Path))
		assert.Equal(t, store.PublicURL(img.ImageMeta.Path), img.ImageURL)
	}
}

func TestCreate_CapsAtTenImages(t *testing.T) {
	svc, repo, store, _ := setupService(t)
	ctx := context.Background()

	var incoming []models.NewImage
	for i := 0; i < 12; i++ {
		incoming = append(incoming, models.NewImage{
			Filename: fmt.Sprintf("%d.webp", i),
			Mime:     "image/webp",
			Data:     []byte{byte(i)},
		})
	}
	id, err := svc.Create(ctx, &models.VehicleForm{Name: "Onix", NewImages: incoming})
	require.NoError(t, err)

	images, err := repo.GetImages(ctx, id)
	require.NoError(t, err)
	assert.Len(t, images, models.MaxImagesPerVehicle)
	assert.Equal(t, models.MaxImagesPerVehicle, store.count())
}

func TestUpdate_ReconcilesImageSet(t *testing.T) {
	svc, repo, store, db := setupService(t)
	ctx := context.Background()

	v := models.Vehicle{Name: "Onix"}
	require.NoError(t, db.Create(&v).Error)

	a := seedImage(t, repo, store, v.Id, 0, "a")
	b := seedImage(t, repo, store, v.Id, 1, "b")
	c := seedImage(t, repo, store, v.Id, 2, "c")

	// Keep C then A, drop B, add one new binary.
	form := &models.VehicleForm{
		Name: "Onix",
		KeptImages: []models.KeptImage{
			{URL: c.ImageURL, Meta: c.ImageMeta},
			{URL: a.ImageURL, Meta: a.ImageMeta},
		},
		NewImages: []models.NewImage{
			{Filename: "d.webp", Mime: "image/webp", Data: []byte("d")},
		},
	}
	require.NoError(t, svc.Update(ctx, v.Id, form))

	images, err := repo.GetImages(ctx, v.Id)
	require.NoError(t, err)
	require.Len(t, images, 3)

	// Kept rows come first, in the submitted order, with untouched keys.
	assert.Equal(t, 0, images[0].DisplayOrder)
	assert.Equal(t, c.ImageMeta.Path, images[0].ImageMeta.Path)
	assert.Equal(t, 1, images[1].DisplayOrder)
	assert.Equal(t, a.ImageMeta.Path, images[1].ImageMeta.Path)

	// The new binary got a fresh key after the kept block.
	assert.Equal(t, 2, images[2].DisplayOrder)
	assert.NotEqual(t, a.ImageMeta.Path, images[2].ImageMeta.Path)
	assert.True(t, store.has(images[2].ImageMeta.Path))

	// B left the set, so its object is gone; A and C survived.
	assert.False(t, store.has(b.ImageMeta.Path))
	assert.True(t, store.has(a.ImageMeta.Path))
	assert.True(t, store.has(c.ImageMeta.Path))
}

func TestUpdate_UploadFailureAbortsBeforeRowRewrite(t *testing.T) {
	svc, repo, store, db := setupService(t)
	ctx := context.Background()

	v := models.Vehicle{Name: "Onix"}
	require.NoError(t, db.Create(&v).Error)
	a := seedImage(t, repo, store, v.Id, 0, "a")
	b := seedImage(t, repo, store, v.Id, 1, "b")

	store.failUploads = true
	form := &models.VehicleForm{
		Name:       "Onix",
		KeptImages: []models.KeptImage{{URL: a.ImageURL, Meta: a.ImageMeta}},
		NewImages:  []models.NewImage{{Filename: "x.webp", Mime: "image/webp", Data: []byte("x")}},
	}
	err := svc.Update(ctx, v.Id, form)
	require.Error(t, err)

	// Nothing was rewritten or deleted.
	images, err := repo.GetImages(ctx, v.Id)
	require.NoError(t, err)
	assert.Len(t, images, 2)
	assert.True(t, store.has(a.ImageMeta.Path))
	assert.True(t, store.has(b.ImageMeta.Path))
}

func TestUpdate_CapAppliesToKeptPlusNew(t *testing.T) {
	svc, repo, store, db := setupService(t)
	ctx := context.Background()

	v := models.Vehicle{Name: "Onix"}
	require.NoError(t, db.Create(&v).Error)

	var kept []models.KeptImage
	for i := 0; i < 8; i++ {
		row := seedImage(t, repo, store, v.Id, i, fmt.Sprintf("k%d", i))
		kept = append(kept, models.KeptImage{URL: row.ImageURL, Meta: row.ImageMeta})
	}
	var incoming []models.NewImage
	for i := 0; i < 5; i++ {
		incoming = append(incoming, models.NewImage{
			Filename: fmt.Sprintf("n%d.webp", i),
			Mime:     "image/webp",
			Data:     []byte{byte(i)},
		})
	}

	require.NoError(t, svc.Update(ctx, v.Id, &models.VehicleForm{
		Name: "Onix", KeptImages: kept, NewImages: incoming,
	}))

	images, err := repo.GetImages(ctx, v.Id)
	require.NoError(t, err)
	require.Len(t, images, models.MaxImagesPerVehicle)
	for i, img := range images {
		assert.Equal(t, i, img.DisplayOrder)
	}
}

func TestDelete_RemovesObjectsAndRows(t *testing.T) {
	svc, repo, store, db := setupService(t)
	ctx := context.Background()

	v := models.Vehicle{Name: "Onix"}
	require.NoError(t, db.Create(&v).Error)
	a := seedImage(t, repo, store, v.Id, 0, "a")

	// Legacy row: no path, key only derivable from the URL.
	legacyKey := fmt.Sprintf("vehicles/%d/legacy.webp", v.Id)
	require.NoError(t, store.Upload(ctx, legacyKey, "image/webp", []byte("legacy")))
	require.NoError(t, repo.InsertImages(ctx, []models.VehicleImage{{
		VehicleID:    v.Id,
		ImageURL:     store.PublicURL(legacyKey),
		DisplayOrder: 1,
	}}))

	require.NoError(t, svc.Delete(ctx, v.Id))

	assert.False(t, store.has(a.ImageMeta.Path))
	assert.False(t, store.has(legacyKey))

	gone, err := repo.GetVehicleByID(ctx, v.Id)
	require.NoError(t, err)
	assert.Nil(t, gone)
}

func TestPublicList_FirstImageSkipsMalformedURLs(t *testing.T) {
	svc, repo, _, db := setupService(t)
	ctx := context.Background()

	v := models.Vehicle{Name: "Onix", Available: true}
	require.NoError(t, db.Create(&v).Error)
	require.NoError(t, repo.InsertImages(ctx, []models.VehicleImage{
		{VehicleID: v.Id, ImageURL: "not-a-url", DisplayOrder: 0},
		{VehicleID: v.Id, ImageURL: "https://cdn.test/ok.webp", DisplayOrder: 1},
	}))

	noImages := models.Vehicle{Name: "Sem Foto", Available: true}
	require.NoError(t, db.Create(&noImages).Error)

	got, err := svc.PublicList(ctx, &models.PublicVehiclesParams{WithFirstImage: true})
	require.NoError(t, err)
	require.Len(t, got, 2)

	byName := map[string]models.PublicVehicle{}
	for _, pv := range got {
		byName[pv.Name] = pv
	}
	require.NotNil(t, byName["Onix"].FirstImageURL)
	assert.Equal(t, "https://cdn.test/ok.webp", *byName["Onix"].FirstImageURL)
	assert.Nil(t, byName["Sem Foto"].FirstImageURL)
}

func TestPublicList_WithImagesIsAlwaysAnArray(t *testing.T) {
	svc, repo, _, db := setupService(t)
	ctx := context.Background()

	withPics := models.Vehicle{Name: "Com Fotos", Available: true}
	require.NoError(t, db.Create(&withPics).Error)
	require.NoError(t, repo.InsertImages(ctx, []models.VehicleImage{
		{VehicleID: withPics.Id, ImageURL: "https://cdn.test/b.webp", DisplayOrder: 1},
		{VehicleID: withPics.Id, ImageURL: "https://cdn.test/a.webp", DisplayOrder: 0},
	}))
	noPics := models.Vehicle{Name: "Sem Fotos", Available: true}
	require.NoError(t, db.Create(&noPics).Error)

	got, err := svc.PublicList(ctx, &models.PublicVehiclesParams{WithImages: true})
	require.NoError(t, err)
	require.Len(t, got, 2)

	byName := map[string]models.PublicVehicle{}
	for _, pv := range got {
		byName[pv.Name] = pv
	}
	assert.Equal(t, []string{"https://cdn.test/a.webp", "https://cdn.test/b.webp"}, byName["Com Fotos"].Images)

	// Empty stays an array, not null, all the way through serialization.
	require.NotNil(t, byName["Sem Fotos"].Images)
	blob, err := json.Marshal(byName["Sem Fotos"])
	require.NoError(t, err)
	assert.Contains(t, string(blob), `"images":[]`)
}

func TestAppendImages_SlotsAndDedup(t *testing.T) {
	svc, repo, store, db := setupService(t)
	ctx := context.Background()

	v := models.Vehicle{Name: "Onix"}
	require.NoError(t, db.Create(&v).Error)
	for i := 0; i < 9; i++ {
		seedImage(t, repo, store, v.Id, i, fmt.Sprintf("k%d", i))
	}

	added, err := svc.AppendImages(ctx, v.Id, []models.AppendImageItem{
		{Path: fmt.Sprintf("vehicles/%d/k0.webp", v.Id), Mime: "image/webp"}, // duplicate
		{Path: fmt.Sprintf("vehicles/%d/new.webp", v.Id), Mime: "image/webp", Size: 5},
		{Path: fmt.Sprintf("vehicles/%d/over.webp", v.Id), Mime: "image/webp"},
	})
	require.NoError(t, err)
	assert.Equal(t, 1, added)

	images, err := repo.GetImages(ctx, v.Id)
	require.NoError(t, err)
	require.Len(t, images, 10)
	assert.Equal(t, 9, images[9].DisplayOrder)

	_, err = svc.AppendImages(ctx, v.Id, []models.AppendImageItem{
		{Path: fmt.Sprintf("vehicles/%d/extra.webp", v.Id)},
	})
	assert.Error(t, err)
}

func TestSignUpload_FreshKeyUnderVehiclePrefix(t *testing.T) {
	svc, _, _, _ := setupService(t)

	resp, err := svc.SignUpload(context.Background(), 7, "image/png")
	require.NoError(t, err)
	assert.True(t, strings.HasPrefix(resp.Path, "vehicles/7/"))
	assert.True(t, strings.HasSuffix(resp.Path, ".png"))
	assert.Equal(t, "https://sign.test/"+resp.Path, resp.URL)
}
