package services

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"log"
	"net/http"
	"time"

	"github.com/teris-io/shortid"
	problem "github.com/vitrine-motors/vitrine-api/pkg/catalog_api/helpers/problem"
	"github.com/vitrine-motors/vitrine-api/pkg/catalog_api/models"
	"github.com/vitrine-motors/vitrine-api/pkg/catalog_api/storage"
)

// LeadService forwards funnel submissions to the automation webhook. Leads
// are not persisted locally; the webhook is the system of record.
type LeadService struct {
	webhookURL  string
	webhookAuth string
	httpClient  *http.Client
	store       storage.ObjectStore
	sid         *shortid.Shortid
}

func NewLeadService(webhookURL, webhookAuth string, store storage.ObjectStore) *LeadService {
	sid, err := shortid.New(1, shortid.DefaultABC, 2342)
	if err != nil {
		panic(err)
	}
	return &LeadService{
		webhookURL:  webhookURL,
		webhookAuth: webhookAuth,
		httpClient:  &http.Client{Timeout: 15 * time.Second},
		store:       store,
		sid:         sid,
	}
}

// reference tags a submission so support can correlate webhook deliveries
// with what the visitor saw.
func (s *LeadService) reference() string {
	ref, err := s.sid.Generate()
	if err != nil {
		return fmt.Sprintf("lead-%d", time.Now().UnixNano())
	}
	return ref
}

func (s *LeadService) forward(ctx context.Context, reference string, payload interface{}) error {
	body, err := json.Marshal(map[string]interface{}{
		"reference": reference,
		"payload":   payload,
	})
	if err != nil {
		return problem.NewInternalServerError("Erro ao serializar lead: " + err.Error())
	}

	req, err := http.NewRequestWithContext(ctx, http.MethodPost, s.webhookURL, bytes.NewReader(body))
	if err != nil {
		return problem.NewInternalServerError("Erro ao montar requisição: " + err.Error())
	}
	req.Header.Set("Content-Type", "application/json")
	if s.webhookAuth != "" {
		req.Header.Set("Authorization", s.webhookAuth)
	}

	resp, err := s.httpClient.Do(req)
	if err != nil {
		return problem.NewInternalServerError("Falha ao encaminhar lead: " + err.Error())
	}
	defer resp.Body.Close()

	if resp.StatusCode >= 300 {
		return problem.NewInternalServerError(fmt.Sprintf("Webhook respondeu %d", resp.StatusCode))
	}
	return nil
}

func (s *LeadService) SubmitSimulation(ctx context.Context, lead *models.SimulationLead) (*models.LeadResponse, error) {
	if lead.TipoFormulario == "" {
		lead.TipoFormulario = "simulacao"
	}
	ref := s.reference()
	if err := s.forward(ctx, ref, lead); err != nil {
		return nil, err
	}
	return &models.LeadResponse{Success: true, Reference: ref}, nil
}

func (s *LeadService) SubmitInterest(ctx context.Context, lead *models.InterestLead) (*models.LeadResponse, error) {
	if lead.TipoFormulario == "" {
		lead.TipoFormulario = "interesse"
	}
	ref := s.reference()
	if err := s.forward(ctx, ref, lead); err != nil {
		return nil, err
	}
	return &models.LeadResponse{Success: true, Reference: ref}, nil
}

// SubmitConsignment parks the optional vehicle photo in object storage and
// forwards its public URL instead of the binary.
func (s *LeadService) SubmitConsignment(ctx context.Context, lead *models.ConsignmentLead, attachment *models.NewImage) (*models.LeadResponse, error) {
	if lead.Nome == "" || lead.Telefone == "" {
		return nil, problem.NewBadRequest("nome", "Nome e telefone são obrigatórios.")
	}

	ref := s.reference()

	var attachmentURL string
	if attachment != nil && len(attachment.Data) > 0 {
		key := storage.NewLeadAttachmentKey(ref, attachment.Mime)
		if err := s.store.Upload(ctx, key, attachment.Mime, attachment.Data); err != nil {
			// A lost photo should not lose the lead.
			log.Printf("[leads] upload do anexo falhou (ref=%s): %v", ref, err)
		} else {
			attachmentURL = s.store.PublicURL(key)
		}
	}

	payload := map[string]interface{}{
		"tipoFormulario": "consignacao",
		"nome":           lead.Nome,
		"cpf":            lead.Cpf,
		"telefone":       lead.Telefone,
		"veiculo":        lead.Veiculo,
		"placa":          lead.Placa,
		"ano":            lead.Ano,
	}
	if attachmentURL != "" {
		payload["foto"] = attachmentURL
	}

	if err := s.forward(ctx, ref, payload); err != nil {
		return nil, err
	}
	return &models.LeadResponse{Success: true, Reference: ref}, nil
}
