package models

import (
	"database/sql/driver"
	"encoding/json"
	"errors"
)

// ImageMeta is the opaque metadata blob stored alongside each image row. It
// must carry enough to re-derive the storage key: Path on current rows,
// Folder on legacy rows written before the path-based scheme.
type ImageMeta struct {
	Bucket       string         `json:"bucket,omitempty"`
	Path         string         `json:"path,omitempty"`
	Folder       string         `json:"folder,omitempty"`
	Formats      []string       `json:"formats,omitempty"`
	Sources      *ImageSources  `json:"sources,omitempty"`
	Original     *ImageOriginal `json:"original,omitempty"`
	UpdatedAt    string         `json:"updated_at,omitempty"`
	OriginalOnly bool           `json:"originalOnly,omitempty"`
}

type ImageSources struct {
	Original *ImageSource `json:"original,omitempty"`
}

type ImageSource struct {
	URL    string `json:"url,omitempty"`
	Size   int64  `json:"size,omitempty"`
	Format string `json:"format,omitempty"`
}

type ImageOriginal struct {
	Mime   string `json:"mime,omitempty"`
	Width  *int   `json:"width"`
	Height *int   `json:"height"`
}

func (m ImageMeta) Value() (driver.Value, error) {
	return json.Marshal(m)
}

func (m *ImageMeta) Scan(value interface{}) error {
	if value == nil {
		return nil
	}
	switch v := value.(type) {
	case []byte:
		return json.Unmarshal(v, m)
	case string:
		return json.Unmarshal([]byte(v), m)
	}
	return errors.New("image_meta: unsupported column type")
}
