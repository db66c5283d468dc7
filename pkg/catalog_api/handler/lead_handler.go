package handler

import (
	"github.com/gin-gonic/gin"
	problem "github.com/vitrine-motors/vitrine-api/pkg/catalog_api/helpers/problem"
	"github.com/vitrine-motors/vitrine-api/pkg/catalog_api/models"
	"github.com/vitrine-motors/vitrine-api/pkg/catalog_api/services"
)

// LeadsAPIController binds the public lead-capture endpoints to the
// LeadService.
type LeadsAPIController struct {
	Service *services.LeadService
}

func NewLeadsAPIController(s *services.LeadService) *LeadsAPIController {
	return &LeadsAPIController{Service: s}
}

// SubmitSimulation handles POST /leads/simulation
func (c *LeadsAPIController) SubmitSimulation(ctx *gin.Context, in *models.SimulationLead) (*models.LeadResponse, error) {
	return c.Service.SubmitSimulation(ctx.Request.Context(), in)
}

// SubmitInterest handles POST /leads/interest
func (c *LeadsAPIController) SubmitInterest(ctx *gin.Context, in *models.InterestLead) (*models.LeadResponse, error) {
	return c.Service.SubmitInterest(ctx.Request.Context(), in)
}

// SubmitConsignment handles POST /leads/consignment, a multipart form with
// an optional vehicle photo.
func (c *LeadsAPIController) SubmitConsignment(ctx *gin.Context) (*models.LeadResponse, error) {
	if err := ctx.Request.ParseMultipartForm(maxFormMemory); err != nil {
		return nil, problem.NewBadRequest("body", "formulário multipart inválido: "+err.Error())
	}

	lead := &models.ConsignmentLead{
		Nome:     ctx.Request.FormValue("nome"),
		Cpf:      ctx.Request.FormValue("cpf"),
		Telefone: ctx.Request.FormValue("telefone"),
		Veiculo:  ctx.Request.FormValue("veiculo"),
		Placa:    ctx.Request.FormValue("placa"),
		Ano:      ctx.Request.FormValue("ano"),
	}

	var attachment *models.NewImage
	if headers := ctx.Request.MultipartForm.File["foto"]; len(headers) > 0 {
		img, err := readUpload(headers[0])
		if err != nil {
			return nil, err
		}
		attachment = img
	}

	return c.Service.SubmitConsignment(ctx.Request.Context(), lead, attachment)
}
