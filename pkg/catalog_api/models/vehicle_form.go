package models

// KeptImage is one entry of the client's kept-list: an image that already
// lives in storage and should stay attached, in the submitted order.
type KeptImage struct {
	URL  string     `json:"url"`
	Meta *ImageMeta `json:"meta"`
}

// NewImage is a freshly attached binary from the multipart form.
type NewImage struct {
	Filename string
	Mime     string
	Data     []byte
}

// VehicleForm carries everything the admin form submits. Field values arrive
// raw; blank-to-NULL normalization happens in the service.
type VehicleForm struct {
	Name         string
	Brand        string
	Price        string
	Year         string
	Fuel         string
	Transmission string
	Km           string
	Color        string
	Plate        string
	Doors        string
	Badge        string
	Description  string
	Spotlight    bool
	Available    bool

	Features   []string
	KeptImages []KeptImage
	NewImages  []NewImage
}

// AppendImageItem is the compact payload of the direct-upload flow: the
// client uploaded straight to storage via a signed URL and now registers the
// resulting paths.
type AppendImageItem struct {
	Path string `json:"path"`
	Mime string `json:"mime"`
	Size int64  `json:"size"`
	Ext  string `json:"ext"`
}

type AppendImagesInput struct {
	Id    int               `path:"id"`
	Items []AppendImageItem `json:"items" binding:"required"`
}

type SignUploadInput struct {
	VehicleId int    `json:"vehicleId" binding:"required"`
	Mime      string `json:"mime" binding:"required"`
}

type SignUploadResponse struct {
	Path string `json:"path"`
	URL  string `json:"url"`
}
