package models

// ListVehiclesParams drives the admin listing: free-text match on id/name/
// brand, a status filter, a whitelisted sort column and direction, and
// page-based pagination.
type ListVehiclesParams struct {
	Page    int     `query:"page"`
	PerPage int     `query:"perPage"`
	Search  *string `query:"q"`
	Status  *string `query:"status"`
	Sort    string  `query:"sort"`
	Order   string  `query:"order"`
}

// PublicVehiclesParams mirrors the public catalog query string. The boolean
// flags arrive as "1" from the site.
type PublicVehiclesParams struct {
	AvailableOnly  bool    `query:"availableOnly"`
	SpotlightOnly  bool    `query:"spotlight"`
	WithFirstImage bool    `query:"withFirstImage"`
	WithImages     bool    `query:"withImages"`
	Limit          int     `query:"limit"`
	Id             *int    `query:"id"`
	Fuel           *string `query:"fuel"`
	FuelIlike      *string `query:"fuelIlike"`
}

type VehicleParams struct {
	Id int `path:"id"`
}

type Pagination struct {
	Next           *int `json:"next,omitempty"`
	Previous       *int `json:"previous,omitempty"`
	CurrentPage    int  `json:"currentPage"`
	RecordsPerPage int  `json:"recordsPerPage"`
	TotalPages     int  `json:"totalPages"`
	TotalRecords   int  `json:"totalRecords"`
}

// VehicleSummary is the admin listing row.
type VehicleSummary struct {
	Id        int     `json:"id"`
	Name      string  `json:"name"`
	Brand     *string `json:"brand"`
	Price     *string `json:"price"`
	Year      *string `json:"year"`
	Badge     *string `json:"badge"`
	Available bool    `json:"available"`
	Spotlight bool    `json:"spotlight"`
	CreatedAt string  `json:"created_at"`
}

// PublicVehicle is the catalog view. FirstImageURL is null (never "") when no
// image with a well-formed absolute URL exists. Images is null unless
// withImages was requested, in which case it is always an array, possibly
// empty.
type PublicVehicle struct {
	Id            int      `json:"id"`
	Name          string   `json:"name"`
	Brand         *string  `json:"brand"`
	Price         *string  `json:"price"`
	Year          *string  `json:"year"`
	Fuel          *string  `json:"fuel"`
	Transmission  *string  `json:"transmission"`
	Km            *string  `json:"km"`
	Badge         *string  `json:"badge"`
	Description   *string  `json:"description"`
	Available     bool     `json:"available"`
	Spotlight     bool     `json:"spotlight"`
	FirstImageURL *string  `json:"first_image_url"`
	Images        []string `json:"images"`
}

type PublicVehiclesResponse struct {
	Vehicles []PublicVehicle `json:"vehicles"`
}

// VehicleDetail is the edit-form payload: the row plus its ordered features
// and images.
type VehicleDetail struct {
	Vehicle
}
