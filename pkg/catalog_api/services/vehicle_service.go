package services

import (
	"context"
	"fmt"
	"log"
	"regexp"
	"strings"
	"time"

	problem "github.com/vitrine-motors/vitrine-api/pkg/catalog_api/helpers/problem"
	"github.com/vitrine-motors/vitrine-api/pkg/catalog_api/models"
	"github.com/vitrine-motors/vitrine-api/pkg/catalog_api/repositories"
	"github.com/vitrine-motors/vitrine-api/pkg/catalog_api/storage"
	"golang.org/x/sync/errgroup"
	"golang.org/x/sync/semaphore"
)

// VehicleService orchestrates vehicle CRUD against the relational store and
// the object store. All collaborators are injected; there is no package
// state.
type VehicleService struct {
	repo       repositories.VehicleRepository
	store      storage.ObjectStore
	bucket     string
	publicBase string
}

func NewVehicleService(repo repositories.VehicleRepository, store storage.ObjectStore, bucket, publicBase string) *VehicleService {
	return &VehicleService{repo: repo, store: store, bucket: bucket, publicBase: publicBase}
}

var httpURLRe = regexp.MustCompile(`(?i)^https?://`)

func isHTTPURL(u string) bool {
	return httpURLRe.MatchString(strings.TrimSpace(u))
}

// nullIfBlank normalizes optional form fields: whitespace-only input is
// stored as NULL, never as "".
func nullIfBlank(s string) *string {
	t := strings.TrimSpace(s)
	if t == "" {
		return nil
	}
	return &t
}

func cleanFeatures(features []string) []string {
	seen := map[string]bool{}
	var out []string
	for _, f := range features {
		t := strings.TrimSpace(f)
		if t == "" || seen[t] {
			continue
		}
		seen[t] = true
		out = append(out, t)
	}
	return out
}

func (s *VehicleService) newImageMeta(key, mime string, size int64, url string) *models.ImageMeta {
	ext := storage.ExtForMime(mime)
	return &models.ImageMeta{
		Bucket:       s.bucket,
		Path:         key,
		Formats:      []string{ext},
		Sources:      &models.ImageSources{Original: &models.ImageSource{URL: url, Size: size, Format: ext}},
		Original:     &models.ImageOriginal{Mime: mime},
		UpdatedAt:    time.Now().UTC().Format(time.RFC3339),
		OriginalOnly: true,
	}
}

func (s *VehicleService) rowFields(form *models.VehicleForm) map[string]interface{} {
	return map[string]interface{}{
		"name":         strings.TrimSpace(form.Name),
		"brand":        nullIfBlank(form.Brand),
		"price":        nullIfBlank(form.Price),
		"year":         nullIfBlank(form.Year),
		"fuel":         nullIfBlank(form.Fuel),
		"transmission": nullIfBlank(form.Transmission),
		"km":           nullIfBlank(form.Km),
		"color":        nullIfBlank(form.Color),
		"placa":        nullIfBlank(form.Plate),
		"doors":        nullIfBlank(form.Doors),
		"badge":        nullIfBlank(form.Badge),
		"description":  nullIfBlank(form.Description),
		"spotlight":    form.Spotlight,
		"available":    form.Available,
	}
}

// uploadNew pushes the attached binaries to storage, sequentially and in
// submission order, and returns the image rows to insert starting at
// startOrder. Any upload failure aborts; no rows have been written yet at
// that point.
func (s *VehicleService) uploadNew(ctx context.Context, vehicleID int, incoming []models.NewImage, startOrder int) ([]models.VehicleImage, error) {
	var rows []models.VehicleImage
	for i, img := range incoming {
		key := storage.NewVehicleImageKey(vehicleID, img.Mime)
		if err := s.store.Upload(ctx, key, img.Mime, img.Data); err != nil {
			return nil, problem.NewInternalServerError(fmt.Sprintf("falha no upload da imagem %q: %v", img.Filename, err))
		}
		url := s.store.PublicURL(key)
		rows = append(rows, models.VehicleImage{
			VehicleID:    vehicleID,
			ImageURL:     url,
			ImageMeta:    s.newImageMeta(key, img.Mime, int64(len(img.Data)), url),
			DisplayOrder: startOrder + i,
		})
	}
	return rows, nil
}

// Create inserts the vehicle row, its deduplicated features and up to ten
// attached images; excess attachments are silently dropped.
func (s *VehicleService) Create(ctx context.Context, form *models.VehicleForm) (int, error) {
	name := strings.TrimSpace(form.Name)
	if name == "" {
		return 0, problem.NewBadRequest("name", "Nome do veículo é obrigatório.",
			problem.InvalidParam{Name: "name", Reason: "obrigatório"})
	}

	v := models.Vehicle{
		Name:         name,
		Brand:        nullIfBlank(form.Brand),
		Price:        nullIfBlank(form.Price),
		Year:         nullIfBlank(form.Year),
		Fuel:         nullIfBlank(form.Fuel),
		Transmission: nullIfBlank(form.Transmission),
		Km:           nullIfBlank(form.Km),
		Color:        nullIfBlank(form.Color),
		Plate:        nullIfBlank(form.Plate),
		Doors:        nullIfBlank(form.Doors),
		Badge:        nullIfBlank(form.Badge),
		Description:  nullIfBlank(form.Description),
		Spotlight:    form.Spotlight,
		Available:    form.Available,
	}
	if err := s.repo.CreateVehicle(ctx, &v); err != nil {
		return 0, problem.NewInternalServerError("Erro ao criar veículo: " + err.Error())
	}

	if features := cleanFeatures(form.Features); len(features) > 0 {
		if err := s.repo.ReplaceFeatures(ctx, v.Id, features); err != nil {
			return 0, problem.NewInternalServerError("Erro ao salvar características: " + err.Error())
		}
	}

	incoming := form.NewImages
	if len(incoming) > models.MaxImagesPerVehicle {
		incoming = incoming[:models.MaxImagesPerVehicle]
	}
	rows, err := s.uploadNew(ctx, v.Id, incoming, 0)
	if err != nil {
		return 0, err
	}
	if err := s.repo.InsertImages(ctx, rows); err != nil {
		return 0, problem.NewInternalServerError("Erro ao salvar imagens: " + err.Error())
	}

	return v.Id, nil
}

// Update overwrites the row fields, replaces the feature set and reconciles
// the image set against the submitted kept-list and attachments.
func (s *VehicleService) Update(ctx context.Context, id int, form *models.VehicleForm) error {
	existing, err := s.repo.GetVehicleByID(ctx, id)
	if err != nil {
		return problem.NewInternalServerError("Erro ao carregar veículo: " + err.Error())
	}
	if existing == nil {
		return problem.NewNotFound(fmt.Sprintf("%d", id), "Veículo não encontrado")
	}
	if strings.TrimSpace(form.Name) == "" {
		return problem.NewBadRequest("name", "Nome do veículo é obrigatório.",
			problem.InvalidParam{Name: "name", Reason: "obrigatório"})
	}

	if err := s.repo.UpdateVehicle(ctx, id, s.rowFields(form)); err != nil {
		return problem.NewInternalServerError("Erro ao atualizar veículo: " + err.Error())
	}
	if err := s.repo.ReplaceFeatures(ctx, id, cleanFeatures(form.Features)); err != nil {
		return problem.NewInternalServerError("Erro ao salvar características: " + err.Error())
	}

	return s.reconcileImages(ctx, id, form.KeptImages, form.NewImages)
}

// reconcileImages converges the stored image set to the submitted final
// state: storage objects that left the set are deleted (best effort), kept
// entries stay untouched, new binaries are uploaded under fresh keys, and
// the ordered rows are rewritten as kept-then-new.
func (s *VehicleService) reconcileImages(ctx context.Context, vehicleID int, kept []models.KeptImage, incoming []models.NewImage) error {
	stored, err := s.repo.GetImages(ctx, vehicleID)
	if err != nil {
		return problem.NewInternalServerError("Erro ao carregar imagens: " + err.Error())
	}

	// Server-side cap, independent of the client's.
	if len(kept) > models.MaxImagesPerVehicle {
		kept = kept[:models.MaxImagesPerVehicle]
	}
	if slots := models.MaxImagesPerVehicle - len(kept); len(incoming) > slots {
		incoming = incoming[:slots]
	}

	keptKeys := make(map[string]bool, len(kept))
	for _, k := range kept {
		keptKeys[models.StableImageKey(k.Meta, k.URL)] = true
	}

	var removedKeys []string
	for _, img := range stored {
		if keptKeys[img.StableKey()] {
			continue
		}
		removedKeys = append(removedKeys, s.storageKeysForRow(ctx, img)...)
	}

	// Uploads first: a failed upload aborts before any row is rewritten.
	uploaded, err := s.uploadNew(ctx, vehicleID, incoming, len(kept))
	if err != nil {
		return err
	}

	// Best effort: an orphaned object is acceptable, an inconsistent image
	// index is not.
	for _, res := range s.store.Remove(ctx, removedKeys) {
		if res.Outcome == storage.RemoveFailed {
			log.Printf("[storage] delete falhou para %s: %v", res.Key, res.Err)
		}
	}

	rows := make([]models.VehicleImage, 0, len(kept)+len(uploaded))
	for i, k := range kept {
		// Kept entries are trusted as submitted; metadata passes through
		// unchanged.
		rows = append(rows, models.VehicleImage{
			VehicleID:    vehicleID,
			ImageURL:     k.URL,
			ImageMeta:    k.Meta,
			DisplayOrder: i,
		})
	}
	rows = append(rows, uploaded...)

	if err := s.repo.ReplaceImages(ctx, vehicleID, rows); err != nil {
		return problem.NewInternalServerError("Erro ao salvar imagens: " + err.Error())
	}
	return nil
}

// storageKeysForRow resolves the object keys behind an image row: the stored
// path when present, a folder listing for legacy rows, or a key derived from
// the public URL as last resort.
func (s *VehicleService) storageKeysForRow(ctx context.Context, img models.VehicleImage) []string {
	if img.ImageMeta != nil && img.ImageMeta.Path != "" {
		return []string{img.ImageMeta.Path}
	}
	if img.ImageMeta != nil && img.ImageMeta.Folder != "" {
		keys, err := s.store.List(ctx, img.ImageMeta.Folder+"/")
		if err != nil {
			log.Printf("[storage] listagem da pasta %s falhou: %v", img.ImageMeta.Folder, err)
			return nil
		}
		return keys
	}
	if key := storage.KeyFromURL(s.publicBase, img.ImageURL); key != "" {
		return []string{key}
	}
	log.Printf("[storage] sem chave derivável para imagem do veículo %d (url=%q)", img.VehicleID, img.ImageURL)
	return nil
}

// Delete removes every storage object it can resolve (best effort), then the
// vehicle row; feature and image rows cascade.
func (s *VehicleService) Delete(ctx context.Context, id int) error {
	images, err := s.repo.GetImages(ctx, id)
	if err != nil {
		return problem.NewInternalServerError("Erro ao carregar imagens: " + err.Error())
	}

	var keys []string
	for _, img := range images {
		keys = append(keys, s.storageKeysForRow(ctx, img)...)
	}
	for _, res := range s.store.Remove(ctx, keys) {
		if res.Outcome == storage.RemoveFailed {
			log.Printf("[storage] delete falhou para %s: %v", res.Key, res.Err)
		}
	}

	if err := s.repo.DeleteVehicle(ctx, id); err != nil {
		return problem.NewInternalServerError("Erro ao excluir veículo: " + err.Error())
	}
	return nil
}

func (s *VehicleService) List(ctx context.Context, p *models.ListVehiclesParams) ([]models.VehicleSummary, models.Pagination, error) {
	vehicles, pagination, err := s.repo.ListVehicles(ctx, p)
	if err != nil {
		return nil, models.Pagination{}, problem.NewInternalServerError("Erro ao carregar veículos: " + err.Error())
	}
	out := make([]models.VehicleSummary, len(vehicles))
	for i, v := range vehicles {
		out[i] = models.VehicleSummary{
			Id:        v.Id,
			Name:      v.Name,
			Brand:     v.Brand,
			Price:     v.Price,
			Year:      v.Year,
			Badge:     v.Badge,
			Available: v.Available,
			Spotlight: v.Spotlight,
			CreatedAt: v.CreatedAt.UTC().Format(time.RFC3339),
		}
	}
	return out, pagination, nil
}

func (s *VehicleService) Retrieve(ctx context.Context, id int) (*models.VehicleDetail, error) {
	v, err := s.repo.GetVehicleByID(ctx, id)
	if err != nil {
		return nil, problem.NewInternalServerError("Erro ao carregar veículo: " + err.Error())
	}
	if v == nil {
		return nil, nil
	}
	return &models.VehicleDetail{Vehicle: *v}, nil
}

// PublicList serves the catalog. The first image per vehicle is the lowest
// display_order row whose URL is a well-formed absolute http(s) URL;
// malformed rows are skipped, not returned as "".
func (s *VehicleService) PublicList(ctx context.Context, p *models.PublicVehiclesParams) ([]models.PublicVehicle, error) {
	vehicles, err := s.repo.PublicVehicles(ctx, p)
	if err != nil {
		return nil, problem.NewInternalServerError("Erro ao carregar veículos: " + err.Error())
	}

	out := make([]models.PublicVehicle, len(vehicles))
	ids := make([]int, len(vehicles))
	for i, v := range vehicles {
		ids[i] = v.Id
		out[i] = models.PublicVehicle{
			Id:           v.Id,
			Name:         v.Name,
			Brand:        v.Brand,
			Price:        v.Price,
			Year:         v.Year,
			Fuel:         v.Fuel,
			Transmission: v.Transmission,
			Km:           v.Km,
			Badge:        v.Badge,
			Description:  v.Description,
			Available:    v.Available,
			Spotlight:    v.Spotlight,
		}
	}

	if (p.WithFirstImage || p.WithImages) && len(ids) > 0 {
		images, err := s.repo.ImagesByVehicleIDs(ctx, ids)
		if err != nil {
			// Catalog reads degrade to "no images" rather than failing the
			// whole page.
			log.Printf("[catalog] erro ao buscar imagens: %v", err)
			return out, nil
		}

		byVehicle := map[int][]string{}
		for _, img := range images {
			url := strings.TrimSpace(img.ImageURL)
			if !isHTTPURL(url) {
				continue
			}
			byVehicle[img.VehicleID] = append(byVehicle[img.VehicleID], url)
		}

		for i := range out {
			urls := byVehicle[out[i].Id]
			if p.WithFirstImage && len(urls) > 0 {
				first := urls[0]
				out[i].FirstImageURL = &first
			}
			if p.WithImages {
				if urls == nil {
					urls = []string{}
				}
				out[i].Images = urls
			}
		}
	}

	return out, nil
}

// AppendImages registers objects the client already uploaded through signed
// URLs, deduplicated by path, into the remaining slots.
func (s *VehicleService) AppendImages(ctx context.Context, vehicleID int, items []models.AppendImageItem) (int, error) {
	existing, err := s.repo.GetImages(ctx, vehicleID)
	if err != nil {
		return 0, problem.NewInternalServerError("Erro ao carregar imagens: " + err.Error())
	}

	already := len(existing)
	slots := models.MaxImagesPerVehicle - already
	if slots <= 0 {
		return 0, problem.NewBadRequest("items", "Limite de 10 imagens já atingido")
	}

	seen := map[string]bool{}
	for _, img := range existing {
		if img.ImageMeta != nil && img.ImageMeta.Path != "" {
			seen[img.ImageMeta.Path] = true
		}
	}

	var rows []models.VehicleImage
	for _, it := range items {
		if len(rows) == slots {
			break
		}
		if it.Path == "" || seen[it.Path] {
			continue
		}
		seen[it.Path] = true

		mime := it.Mime
		if mime == "" {
			mime = "image/webp"
		}
		url := s.store.PublicURL(it.Path)
		rows = append(rows, models.VehicleImage{
			VehicleID:    vehicleID,
			ImageURL:     url,
			ImageMeta:    s.newImageMeta(it.Path, mime, it.Size, url),
			DisplayOrder: already + len(rows),
		})
	}

	if len(rows) == 0 {
		return 0, nil
	}
	if err := s.repo.InsertImages(ctx, rows); err != nil {
		return 0, problem.NewInternalServerError("Erro ao registrar imagens: " + err.Error())
	}
	return len(rows), nil
}

// SignUpload issues a short-lived presigned PUT URL under a fresh key for
// the direct-upload flow.
func (s *VehicleService) SignUpload(ctx context.Context, vehicleID int, mime string) (*models.SignUploadResponse, error) {
	key := storage.NewVehicleImageKey(vehicleID, mime)
	url, err := s.store.SignUpload(ctx, key, 15*time.Minute)
	if err != nil {
		return nil, problem.NewInternalServerError("Falha ao assinar upload: " + err.Error())
	}
	return &models.SignUploadResponse{Path: key, URL: url}, nil
}

// ScanOrphans reports storage objects with no referencing image row. Report
// only: cleanup stays a human decision.
func (s *VehicleService) ScanOrphans(ctx context.Context) error {
	ids, err := s.repo.VehicleIDs(ctx)
	if err != nil {
		return err
	}

	const maxConcurrent = 4
	sem := semaphore.NewWeighted(int64(maxConcurrent))
	g, ctx := errgroup.WithContext(ctx)

	for _, id := range ids {
		id := id
		if err := sem.Acquire(ctx, 1); err != nil {
			break
		}
		g.Go(func() error {
			defer sem.Release(1)

			keys, err := s.store.List(ctx, fmt.Sprintf("vehicles/%d/", id))
			if err != nil {
				log.Printf("[orphan-scan] veículo %d: listagem falhou: %v", id, err)
				return nil
			}
			rows, err := s.repo.GetImages(ctx, id)
			if err != nil {
				return err
			}
			referenced := map[string]bool{}
			for _, img := range rows {
				if img.ImageMeta != nil && img.ImageMeta.Path != "" {
					referenced[img.ImageMeta.Path] = true
				}
			}
			orphans := 0
			for _, k := range keys {
				if !referenced[k] {
					orphans++
				}
			}
			if orphans > 0 {
				log.Printf("[orphan-scan] veículo %d: %d objeto(s) sem linha de referência", id, orphans)
			}
			return nil
		})
	}

	return g.Wait()
}
