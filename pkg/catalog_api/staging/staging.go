package staging

import (
	"errors"
	"sync"

	"github.com/vitrine-motors/vitrine-api/pkg/catalog_api/models"
)

// ErrImageLimit is returned when an append would push the set past the
// per-vehicle maximum.
var ErrImageLimit = errors.New("limite de imagens atingido")

// entry is one slot of the working set: either an image already in storage
// or a binary staged for upload, never both. release frees the preview
// resource (object URL, temp file) tied to a staged binary.
type entry struct {
	kept    *models.KeptImage
	fresh   *models.NewImage
	release func()
}

// Set is the client-side working copy of a vehicle's image list while the
// admin form is open. It enforces the cap and keeps a single display order
// across kept and new entries; nothing touches the server until the set is
// submitted.
type Set struct {
	mu      sync.Mutex
	entries []entry
}

// NewSet seeds the working set with the images the vehicle already has,
// in their stored order. Anything past the cap is dropped.
func NewSet(existing []models.KeptImage) *Set {
	if len(existing) > models.MaxImagesPerVehicle {
		existing = existing[:models.MaxImagesPerVehicle]
	}
	s := &Set{}
	for i := range existing {
		k := existing[i]
		s.entries = append(s.entries, entry{kept: &k})
	}
	return s
}

func (s *Set) Len() int {
	s.mu.Lock()
	defer s.mu.Unlock()
	return len(s.entries)
}

// Append stages a new binary at the end of the set.
func (s *Set) Append(img models.NewImage) error {
	return s.AppendWithPreview(img, nil)
}

// AppendWithPreview stages a new binary along with a function that frees its
// preview; the set calls it when the entry is removed.
func (s *Set) AppendWithPreview(img models.NewImage, release func()) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	if len(s.entries) >= models.MaxImagesPerVehicle {
		return ErrImageLimit
	}
	s.entries = append(s.entries, entry{fresh: &img, release: release})
	return nil
}

// Move shifts the entry at from to position to, sliding the others.
func (s *Set) Move(from, to int) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	if from < 0 || from >= len(s.entries) || to < 0 || to >= len(s.entries) {
		return errors.New("índice fora do intervalo")
	}
	e := s.entries[from]
	s.entries = append(s.entries[:from], s.entries[from+1:]...)
	rest := append([]entry{}, s.entries[to:]...)
	s.entries = append(append(s.entries[:to:to], e), rest...)
	return nil
}

// Remove drops the entry at index i. Removing a kept entry means the server
// will delete the backing object on submit; removing a staged binary just
// discards it.
func (s *Set) Remove(i int) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	if i < 0 || i >= len(s.entries) {
		return errors.New("índice fora do intervalo")
	}
	if rel := s.entries[i].release; rel != nil {
		rel()
	}
	s.entries = append(s.entries[:i], s.entries[i+1:]...)
	return nil
}

// Submission flattens the set into what the admin form submits: the kept
// images in their current order and the staged binaries in theirs. The
// server reassembles them as kept-then-new.
func (s *Set) Submission() ([]models.KeptImage, []models.NewImage) {
	s.mu.Lock()
	defer s.mu.Unlock()

	var kept []models.KeptImage
	var fresh []models.NewImage
	for _, e := range s.entries {
		switch {
		case e.kept != nil:
			kept = append(kept, *e.kept)
		case e.fresh != nil:
			fresh = append(fresh, *e.fresh)
		}
	}
	return kept, fresh
}
