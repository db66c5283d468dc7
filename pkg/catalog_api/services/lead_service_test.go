package services_test

import (
	"context"
	"encoding/json"
	"net/http"
	"strings"
	"sync"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"github.com/vitrine-motors/vitrine-api/pkg/catalog_api/models"
	"github.com/vitrine-motors/vitrine-api/pkg/catalog_api/services"
	"github.com/vitrine-motors/vitrine-api/pkg/catalog_api/testutil"
)

type capturedWebhook struct {
	mu      sync.Mutex
	auth    string
	payload map[string]interface{}
}

func webhookServer(t *testing.T, status int) (*capturedWebhook, string) {
	captured := &capturedWebhook{}
	srv := testutil.NewTestServer(t, http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		captured.mu.Lock()
		defer captured.mu.Unlock()
		captured.auth = r.Header.Get("Authorization")
		_ = json.NewDecoder(r.Body).Decode(&captured.payload)
		w.WriteHeader(status)
	}))
	return captured, srv.URL
}

func TestSubmitSimulation_ForwardsWithAuth(t *testing.T) {
	captured, url := webhookServer(t, http.StatusOK)
	svc := services.NewLeadService(url, "Bearer hook-token", newFakeStore())

	resp, err := svc.SubmitSimulation(context.Background(), &models.SimulationLead{
		Nome:     "Maria",
		Telefone: "11999999999",
		Veiculo:  "Onix LT",
	})
	require.NoError(t, err)
	assert.True(t, resp.Success)
	assert.NotEmpty(t, resp.Reference)

	captured.mu.Lock()
	defer captured.mu.Unlock()
	assert.Equal(t, "Bearer hook-token", captured.auth)
	assert.Equal(t, resp.Reference, captured.payload["reference"])

	payload, ok := captured.payload["payload"].(map[string]interface{})
	require.True(t, ok)
	assert.Equal(t, "Maria", payload["nome"])
	assert.Equal(t, "simulacao", payload["tipoFormulario"])
}

func TestSubmitInterest_WebhookFailureSurfaces(t *testing.T) {
	_, url := webhookServer(t, http.StatusBadGateway)
	svc := services.NewLeadService(url, "", newFakeStore())

	_, err := svc.SubmitInterest(context.Background(), &models.InterestLead{
		Nome: "João", Telefone: "11988887777",
	})
	assert.Error(t, err)
}

func TestSubmitConsignment_UploadsAttachment(t *testing.T) {
	captured, url := webhookServer(t, http.StatusOK)
	store := newFakeStore()
	svc := services.NewLeadService(url, "", store)

	resp, err := svc.SubmitConsignment(context.Background(), &models.ConsignmentLead{
		Nome:     "Carlos",
		Telefone: "11977776666",
		Veiculo:  "HB20",
		Placa:    "ABC1D23",
	}, &models.NewImage{Filename: "foto.jpg", Mime: "image/jpeg", Data: []byte("jpeg-bytes")})
	require.NoError(t, err)

	// The attachment landed under the lead prefix and its URL was forwarded.
	keys, err := store.List(context.Background(), "leads/"+resp.Reference+"/")
	require.NoError(t, err)
	require.Len(t, keys, 1)
	assert.True(t, strings.HasSuffix(keys[0], ".jpg"))

	captured.mu.Lock()
	defer captured.mu.Unlock()
	payload, ok := captured.payload["payload"].(map[string]interface{})
	require.True(t, ok)
	assert.Equal(t, store.PublicURL(keys[0]), payload["foto"])
}

func TestSubmitConsignment_RequiresContact(t *testing.T) {
	_, url := webhookServer(t, http.StatusOK)
	svc := services.NewLeadService(url, "", newFakeStore())

	_, err := svc.SubmitConsignment(context.Background(), &models.ConsignmentLead{Nome: "Carlos"}, nil)
	assert.Error(t, err)
}
