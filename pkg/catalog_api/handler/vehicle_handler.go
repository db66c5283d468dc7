package handler

import (
	"encoding/json"
	"fmt"
	"io"
	"mime/multipart"
	"strconv"
	"strings"

	"github.com/gin-gonic/gin"
	problem "github.com/vitrine-motors/vitrine-api/pkg/catalog_api/helpers/problem"
	"github.com/vitrine-motors/vitrine-api/pkg/catalog_api/helpers/util"
	"github.com/vitrine-motors/vitrine-api/pkg/catalog_api/models"
	"github.com/vitrine-motors/vitrine-api/pkg/catalog_api/services"
)

const maxFormMemory = 32 << 20

// VehiclesAPIController binds HTTP requests to the VehicleService
type VehiclesAPIController struct {
	Service *services.VehicleService
}

// NewVehiclesAPIController creates a new controller
func NewVehiclesAPIController(s *services.VehicleService) *VehiclesAPIController {
	return &VehiclesAPIController{Service: s}
}

// ListVehicles handles GET /admin/vehicles
func (c *VehiclesAPIController) ListVehicles(ctx *gin.Context, p *models.ListVehiclesParams) ([]models.VehicleSummary, error) {
	if p.Page < 1 {
		p.Page = 1
	}
	if p.PerPage < 1 {
		p.PerPage = 10
	}
	vehicles, pagination, err := c.Service.List(ctx.Request.Context(), p)
	if err != nil {
		return nil, err
	}
	util.SetPaginationHeaders(ctx.Request, ctx.Header, pagination)

	return vehicles, nil
}

// PublicVehicles handles GET /vehicles
func (c *VehiclesAPIController) PublicVehicles(ctx *gin.Context, p *models.PublicVehiclesParams) (*models.PublicVehiclesResponse, error) {
	vehicles, err := c.Service.PublicList(ctx.Request.Context(), p)
	if err != nil {
		return nil, err
	}
	return &models.PublicVehiclesResponse{Vehicles: vehicles}, nil
}

// RetrieveVehicle handles GET /vehicles/:id
func (c *VehiclesAPIController) RetrieveVehicle(ctx *gin.Context, params *models.VehicleParams) (*models.VehicleDetail, error) {
	vehicle, err := c.Service.Retrieve(ctx.Request.Context(), params.Id)
	if err != nil {
		return nil, err
	}
	if vehicle == nil {
		return nil, problem.NewNotFound(strconv.Itoa(params.Id), "Veículo não encontrado")
	}
	return vehicle, nil
}

// CreateVehicle handles POST /admin/vehicles. The body is the admin form as
// multipart, parsed by hand rather than bound.
func (c *VehiclesAPIController) CreateVehicle(ctx *gin.Context) (*models.SuccessResponse, error) {
	form, err := parseVehicleForm(ctx)
	if err != nil {
		return nil, err
	}
	id, err := c.Service.Create(ctx.Request.Context(), form)
	if err != nil {
		return nil, err
	}
	return &models.SuccessResponse{Success: true, Id: id}, nil
}

// UpdateVehicle handles PUT /admin/vehicles/:id
func (c *VehiclesAPIController) UpdateVehicle(ctx *gin.Context) (*models.SuccessResponse, error) {
	id, err := strconv.Atoi(ctx.Param("id"))
	if err != nil {
		return nil, problem.NewBadRequest("id", "id inválido")
	}
	form, err := parseVehicleForm(ctx)
	if err != nil {
		return nil, err
	}
	if err := c.Service.Update(ctx.Request.Context(), id, form); err != nil {
		return nil, err
	}
	return &models.SuccessResponse{Success: true, Id: id}, nil
}

// DeleteVehicle handles DELETE /admin/vehicles/:id
func (c *VehiclesAPIController) DeleteVehicle(ctx *gin.Context, params *models.VehicleParams) error {
	return c.Service.Delete(ctx.Request.Context(), params.Id)
}

// AppendImages handles POST /admin/vehicles/:id/images/append
func (c *VehiclesAPIController) AppendImages(ctx *gin.Context, in *models.AppendImagesInput) (*models.SuccessResponse, error) {
	added, err := c.Service.AppendImages(ctx.Request.Context(), in.Id, in.Items)
	if err != nil {
		return nil, err
	}
	return &models.SuccessResponse{Success: true, Id: added}, nil
}

// SignUpload handles POST /admin/storage/sign-upload
func (c *VehiclesAPIController) SignUpload(ctx *gin.Context, in *models.SignUploadInput) (*models.SignUploadResponse, error) {
	return c.Service.SignUpload(ctx.Request.Context(), in.VehicleId, in.Mime)
}

// parseVehicleForm reads the multipart admin form: scalar fields, the
// features and kept-images JSON blobs, and the attached binaries in
// newImage_<n> order.
func parseVehicleForm(ctx *gin.Context) (*models.VehicleForm, error) {
	if err := ctx.Request.ParseMultipartForm(maxFormMemory); err != nil {
		return nil, problem.NewBadRequest("body", "formulário multipart inválido: "+err.Error())
	}

	value := func(name string) string { return ctx.Request.FormValue(name) }
	checked := func(name string) bool {
		v := strings.ToLower(value(name))
		return v == "on" || v == "true" || v == "1"
	}

	form := &models.VehicleForm{
		Name:         value("name"),
		Brand:        value("brand"),
		Price:        value("price"),
		Year:         value("year"),
		Fuel:         value("fuel"),
		Transmission: value("transmission"),
		Km:           value("km"),
		Color:        value("color"),
		Plate:        value("placa"),
		Doors:        value("doors"),
		Badge:        value("badge"),
		Description:  value("description"),
		Spotlight:    checked("spotlight"),
		Available:    checked("available"),
	}

	if raw := value("features"); raw != "" {
		if err := json.Unmarshal([]byte(raw), &form.Features); err != nil {
			// Plain repeated fields instead of a JSON array.
			form.Features = ctx.Request.MultipartForm.Value["features"]
		}
	}

	if raw := value("existingImages"); raw != "" {
		if err := json.Unmarshal([]byte(raw), &form.KeptImages); err != nil {
			return nil, problem.NewBadRequest("existingImages", "JSON inválido em existingImages")
		}
	}

	files := ctx.Request.MultipartForm.File
	for i := 0; ; i++ {
		headers, ok := files[fmt.Sprintf("newImage_%d", i)]
		if !ok || len(headers) == 0 {
			break
		}
		img, err := readUpload(headers[0])
		if err != nil {
			return nil, err
		}
		form.NewImages = append(form.NewImages, *img)
	}
	for _, fh := range files["newImages"] {
		img, err := readUpload(fh)
		if err != nil {
			return nil, err
		}
		form.NewImages = append(form.NewImages, *img)
	}

	return form, nil
}

func readUpload(fh *multipart.FileHeader) (*models.NewImage, error) {
	f, err := fh.Open()
	if err != nil {
		return nil, problem.NewBadRequest("newImages", "não foi possível ler o arquivo enviado")
	}
	defer f.Close()

	data, err := io.ReadAll(f)
	if err != nil {
		return nil, problem.NewBadRequest("newImages", "não foi possível ler o arquivo enviado")
	}

	mime := fh.Header.Get("Content-Type")
	if mime == "" {
		mime = "application/octet-stream"
	}
	return &models.NewImage{Filename: fh.Filename, Mime: mime, Data: data}, nil
}
