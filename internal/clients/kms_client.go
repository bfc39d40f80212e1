package clients

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"time"

	"go-intents/internal/config"

	"github.com/sirupsen/logrus"
)

// KMSClient KMS service client
type KMSClient struct {
	baseURL    string
	authToken  string
	httpClient *http.Client
}

// KMSSignRequest dual-layer decryption signature request
type KMSSignRequest struct {
	KeyAlias string `json:"key_alias"`
	ChainID  int    `json:"chain_id"`
	Data     string `json:"data"` // hash to sign, hex
	K1       string `json:"k1"`   // transport key, base64
}

// KMSSignResponse dual-layer decryption signature response
type KMSSignResponse struct {
	Success   bool   `json:"success"`
	Signature string `json:"signature,omitempty"`
	Error     string `json:"error,omitempty"`
}

// KMSGetKeysResponse stored keys response
type KMSGetKeysResponse struct {
	Success bool         `json:"success"`
	Count   int          `json:"count"`
	Keys    []KMSKeyInfo `json:"keys"`
	Error   string       `json:"error,omitempty"`
}

// KMSKeyInfo one stored key
type KMSKeyInfo struct {
	KeyAlias      string    `json:"key_alias"`
	ChainID       int       `json:"chain_id"`
	PublicAddress string    `json:"public_address"`
	Status        string    `json:"status"`
	CreatedAt     time.Time `json:"created_at"`
}

// NewKMSClient creates a KMS client
func NewKMSClient(cfg config.KMSConfig) *KMSClient {
	timeout := 30 * time.Second
	if cfg.Timeout > 0 {
		timeout = time.Duration(cfg.Timeout) * time.Second
	}

	return &KMSClient{
		baseURL:   cfg.ServiceURL,
		authToken: cfg.AuthToken,
		httpClient: &http.Client{
			Timeout: timeout,
		},
	}
}

// SignWithKMS signs a hex-encoded hash with the key stored under keyAlias
func (c *KMSClient) SignWithKMS(ctx context.Context, keyAlias string, k1 string, dataToSign string, chainID int) (*KMSSignResponse, error) {
	req := KMSSignRequest{
		KeyAlias: keyAlias,
		ChainID:  chainID,
		Data:     dataToSign,
		K1:       k1,
	}

	response, err := c.makeRequest(ctx, http.MethodPost, "/api/v1/dual-layer/sign", req)
	if err != nil {
		return nil, fmt.Errorf("KMS sign request failed: %w", err)
	}

	var signResp KMSSignResponse
	if err := json.Unmarshal(response, &signResp); err != nil {
		return nil, fmt.Errorf("failed to parse KMS sign response: %w", err)
	}

	if !signResp.Success {
		return nil, fmt.Errorf("KMS sign failed: %s", signResp.Error)
	}

	return &signResp, nil
}

// GetStoredKeys lists the keys held by the KMS
func (c *KMSClient) GetStoredKeys(ctx context.Context) (*KMSGetKeysResponse, error) {
	response, err := c.makeRequest(ctx, http.MethodGet, "/api/v1/keys", nil)
	if err != nil {
		return nil, fmt.Errorf("failed to get KMS keys: %w", err)
	}

	var keysResp KMSGetKeysResponse
	if err := json.Unmarshal(response, &keysResp); err != nil {
		return nil, fmt.Errorf("failed to parse KMS keys response: %w", err)
	}

	if !keysResp.Success {
		return nil, fmt.Errorf("failed to get KMS keys: %s", keysResp.Error)
	}

	return &keysResp, nil
}

// GetKeyByAlias finds a stored key by alias and chain
func (c *KMSClient) GetKeyByAlias(ctx context.Context, keyAlias string, chainID int) (*KMSKeyInfo, error) {
	keysResp, err := c.GetStoredKeys(ctx)
	if err != nil {
		return nil, err
	}

	for _, key := range keysResp.Keys {
		if key.KeyAlias == keyAlias && key.ChainID == chainID {
			k := key
			return &k, nil
		}
	}

	return nil, fmt.Errorf("key not found: alias=%s, chainID=%d", keyAlias, chainID)
}

// HealthCheck checks the KMS service status
func (c *KMSClient) HealthCheck(ctx context.Context) error {
	response, err := c.makeRequest(ctx, http.MethodGet, "/api/v1/health", nil)
	if err != nil {
		return fmt.Errorf("KMS health check failed: %w", err)
	}

	var healthResp struct {
		Status string `json:"status"`
	}

	if err := json.Unmarshal(response, &healthResp); err != nil {
		return fmt.Errorf("failed to parse KMS health response: %w", err)
	}

	if healthResp.Status != "healthy" {
		return fmt.Errorf("KMS service status: %s", healthResp.Status)
	}

	return nil
}

func (c *KMSClient) makeRequest(ctx context.Context, method, path string, data interface{}) ([]byte, error) {
	url := c.baseURL + path

	var body io.Reader
	if data != nil {
		jsonData, err := json.Marshal(data)
		if err != nil {
			return nil, fmt.Errorf("failed to marshal request: %w", err)
		}
		body = bytes.NewBuffer(jsonData)
	}

	req, err := http.NewRequestWithContext(ctx, method, url, body)
	if err != nil {
		return nil, fmt.Errorf("failed to create HTTP request: %w", err)
	}

	req.Header.Set("Content-Type", "application/json")
	req.Header.Set("User-Agent", "go-intents/1.0")

	if c.authToken != "" {
		req.Header.Set("Authorization", "Bearer "+c.authToken)
		req.Header.Set("X-Service-Name", "go-intents")
	}

	resp, err := c.httpClient.Do(req)
	if err != nil {
		return nil, fmt.Errorf("HTTP request failed: %w", err)
	}
	defer resp.Body.Close()

	responseBody, err := io.ReadAll(resp.Body)
	if err != nil {
		return nil, fmt.Errorf("failed to read response: %w", err)
	}

	if resp.StatusCode < 200 || resp.StatusCode >= 300 {
		logrus.WithFields(logrus.Fields{
			"method": method,
			"path":   path,
			"status": resp.StatusCode,
		}).Warn("KMS request rejected")
		return nil, fmt.Errorf("HTTP request failed: status=%d, body=%s", resp.StatusCode, string(responseBody))
	}

	return responseBody, nil
}
