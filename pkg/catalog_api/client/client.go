package client

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"io"
	"mime/multipart"
	"net/http"
	"net/textproto"
	"strings"
	"time"

	"github.com/vitrine-motors/vitrine-api/pkg/catalog_api/models"
	"github.com/vitrine-motors/vitrine-api/pkg/catalog_api/staging"
)

// AdminClient talks to the admin endpoints the way the dashboard does. It is
// what scripts and integration tooling use instead of hand-rolled curl.
type AdminClient struct {
	baseURL    string
	token      string
	httpClient *http.Client
}

func New(baseURL string) *AdminClient {
	return &AdminClient{
		baseURL:    strings.TrimSuffix(baseURL, "/"),
		httpClient: &http.Client{Timeout: 60 * time.Second},
	}
}

// Login authenticates and stores the session token for later calls.
func (c *AdminClient) Login(ctx context.Context, username, password string) error {
	body, _ := json.Marshal(models.LoginInput{Username: username, Password: password})
	req, err := http.NewRequestWithContext(ctx, http.MethodPost, c.baseURL+"/v1/auth/login", bytes.NewReader(body))
	if err != nil {
		return err
	}
	req.Header.Set("Content-Type", "application/json")

	var resp models.LoginResponse
	if err := c.do(req, &resp); err != nil {
		return err
	}
	c.token = resp.Token
	return nil
}

// CreateVehicle submits the form with the staged image set and returns the
// new vehicle id.
func (c *AdminClient) CreateVehicle(ctx context.Context, form models.VehicleForm, images *staging.Set) (int, error) {
	req, err := c.formRequest(ctx, http.MethodPost, "/v1/admin/vehicles", form, images)
	if err != nil {
		return 0, err
	}
	var resp models.SuccessResponse
	if err := c.do(req, &resp); err != nil {
		return 0, err
	}
	return resp.Id, nil
}

// UpdateVehicle submits the form with the staged image set; the server
// reconciles the image list against it.
func (c *AdminClient) UpdateVehicle(ctx context.Context, id int, form models.VehicleForm, images *staging.Set) error {
	req, err := c.formRequest(ctx, http.MethodPut, fmt.Sprintf("/v1/admin/vehicles/%d", id), form, images)
	if err != nil {
		return err
	}
	return c.do(req, &models.SuccessResponse{})
}

func (c *AdminClient) DeleteVehicle(ctx context.Context, id int) error {
	req, err := http.NewRequestWithContext(ctx, http.MethodDelete,
		c.baseURL+fmt.Sprintf("/v1/admin/vehicles/%d", id), nil)
	if err != nil {
		return err
	}
	return c.do(req, nil)
}

// GetVehicle fetches the edit-form payload.
func (c *AdminClient) GetVehicle(ctx context.Context, id int) (*models.VehicleDetail, error) {
	req, err := http.NewRequestWithContext(ctx, http.MethodGet,
		c.baseURL+fmt.Sprintf("/v1/vehicles/%d", id), nil)
	if err != nil {
		return nil, err
	}
	var detail models.VehicleDetail
	if err := c.do(req, &detail); err != nil {
		return nil, err
	}
	return &detail, nil
}

// formRequest renders the multipart body the admin form endpoints expect:
// scalar fields, features and existingImages as JSON blobs, and the staged
// binaries as newImage_<n> parts in their staged order.
func (c *AdminClient) formRequest(ctx context.Context, method, path string, form models.VehicleForm, images *staging.Set) (*http.Request, error) {
	var buf bytes.Buffer
	w := multipart.NewWriter(&buf)

	fields := map[string]string{
		"name":         form.Name,
		"brand":        form.Brand,
		"price":        form.Price,
		"year":         form.Year,
		"fuel":         form.Fuel,
		"transmission": form.Transmission,
		"km":           form.Km,
		"color":        form.Color,
		"placa":        form.Plate,
		"doors":        form.Doors,
		"badge":        form.Badge,
		"description":  form.Description,
	}
	for name, v := range fields {
		if v == "" {
			continue
		}
		if err := w.WriteField(name, v); err != nil {
			return nil, err
		}
	}
	if form.Spotlight {
		_ = w.WriteField("spotlight", "on")
	}
	if form.Available {
		_ = w.WriteField("available", "on")
	}

	if len(form.Features) > 0 {
		blob, err := json.Marshal(form.Features)
		if err != nil {
			return nil, err
		}
		if err := w.WriteField("features", string(blob)); err != nil {
			return nil, err
		}
	}

	var kept []models.KeptImage
	var fresh []models.NewImage
	if images != nil {
		kept, fresh = images.Submission()
	}

	blob, err := json.Marshal(kept)
	if err != nil {
		return nil, err
	}
	if err := w.WriteField("existingImages", string(blob)); err != nil {
		return nil, err
	}

	for i, img := range fresh {
		header := textproto.MIMEHeader{}
		header.Set("Content-Disposition", fmt.Sprintf(`form-data; name="newImage_%d"; filename=%q`, i, img.Filename))
		header.Set("Content-Type", img.Mime)
		part, err := w.CreatePart(header)
		if err != nil {
			return nil, err
		}
		if _, err := part.Write(img.Data); err != nil {
			return nil, err
		}
	}

	if err := w.Close(); err != nil {
		return nil, err
	}

	req, err := http.NewRequestWithContext(ctx, method, c.baseURL+path, &buf)
	if err != nil {
		return nil, err
	}
	req.Header.Set("Content-Type", w.FormDataContentType())
	return req, nil
}

func (c *AdminClient) do(req *http.Request, out interface{}) error {
	if c.token != "" {
		req.Header.Set("Authorization", "Bearer "+c.token)
	}
	resp, err := c.httpClient.Do(req)
	if err != nil {
		return err
	}
	defer resp.Body.Close()

	if resp.StatusCode >= 300 {
		body, _ := io.ReadAll(io.LimitReader(resp.Body, 4096))
		return fmt.Errorf("%s %s: %d: %s", req.Method, req.URL.Path, resp.StatusCode, strings.TrimSpace(string(body)))
	}
	if out == nil || resp.StatusCode == http.StatusNoContent {
		return nil
	}
	return json.NewDecoder(resp.Body).Decode(out)
}
