package sydonia

import (
	"context"
	"encoding/json"
	"fmt"
	"net/http"
	"time"

	"github.com/douanenc/backend/internal/apperrors"
	"github.com/douanenc/backend/internal/config"
	"github.com/douanenc/backend/internal/models"
)

// Client looks up customs declarations in the Sydonia registry. The
// registry is treated as an opaque collaborator; its failures surface
// as DependencyFailure.
type Client struct {
	baseURL    string
	apiKey     string
	httpClient *http.Client
}

// NewClient creates a Sydonia client. With an empty base URL the
// client serves deterministic mock declarations, matching the
// environments where the registry is unreachable.
func NewClient(cfg config.SydoniaConfig) *Client {
	return &Client{
		baseURL: cfg.BaseURL,
		apiKey:  cfg.APIKey,
		httpClient: &http.Client{
			Timeout: 10 * time.Second,
		},
	}
}

type declarationResponse struct {
	Data   models.Declaration `json:"data"`
	Status string             `json:"status"`
}

// GetDeclaration fetches the declaration identified by declarationID.
func (c *Client) GetDeclaration(ctx context.Context, declarationID string) (*models.Declaration, error) {
	if declarationID == "" {
		return nil, apperrors.InvalidArgument("declaration_id is required")
	}

	if c.baseURL == "" {
		return c.mockDeclaration(declarationID), nil
	}

	url := fmt.Sprintf("%s/declarations/%s", c.baseURL, declarationID)
	req, err := http.NewRequestWithContext(ctx, http.MethodGet, url, nil)
	if err != nil {
		return nil, apperrors.DependencyFailure("failed to build sydonia request", err)
	}
	if c.apiKey != "" {
		req.Header.Set("Authorization", "Bearer "+c.apiKey)
	}

	resp, err := c.httpClient.Do(req)
	if err != nil {
		return nil, apperrors.DependencyFailure("sydonia registry unreachable", err)
	}
	defer resp.Body.Close()

	if resp.StatusCode == http.StatusNotFound {
		return nil, apperrors.NotFound("declaration %s not found in sydonia", declarationID)
	}
	if resp.StatusCode != http.StatusOK {
		return nil, apperrors.DependencyFailure(
			fmt.Sprintf("sydonia registry returned status %d", resp.StatusCode), nil)
	}

	var parsed declarationResponse
	if err := json.NewDecoder(resp.Body).Decode(&parsed); err != nil {
		return nil, apperrors.DependencyFailure("failed to decode sydonia response", err)
	}

	decl := parsed.Data
	decl.DeclarationID = declarationID
	return &decl, nil
}

// mockDeclaration returns a stable fake declaration for development
// and tests.
func (c *Client) mockDeclaration(declarationID string) *models.Declaration {
	tariff := "8471.30.00"
	weight := 250.5
	quantity := 10
	return &models.Declaration{
		DeclarationID:    declarationID,
		ImporterName:     "SARL Import Export NC",
		ImporterAddress:  "123 Rue de la Paix, Noumea",
		GoodsDescription: "Materiel informatique",
		OriginCountry:    "France",
		ValueCFR:         45000,
		CustomsRegime:    "Importation definitive",
		DeclarationDate:  "2024-01-15",
		CustomsOffice:    "Noumea-Port",
		TariffCode:       &tariff,
		Weight:           &weight,
		Quantity:         &quantity,
	}
}
