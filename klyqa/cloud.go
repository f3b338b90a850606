package klyqa

import (
	"bytes"
	"context"
	"encoding/json"
	"net/http"
	"strings"
	"sync"
	"time"

	"github.com/go-home-io/klyqa/plugins/common"
	"github.com/pkg/errors"
)

const (
	// Logs representation.
	logSystemCloud = "klyqa_cloud"

	cloudLoginPath    = "/auth/login"
	cloudSettingsPath = "/settings"
)

// ICloud defines Klyqa cloud API client.
type ICloud interface {
	Login(ctx context.Context) error
	GetSettings(ctx context.Context) (*AccountSettings, error)
}

// Cloud API client implementation.
type cloudClient struct {
	sync.Mutex
	logger   common.ILoggerProvider
	client   *http.Client
	baseURL  string
	username string
	password string
	token    string
}

// ConstructCloud has data required for a new cloud client.
type ConstructCloud struct {
	Logger   common.ILoggerProvider
	URL      string
	Username string
	Password string
	Timeout  time.Duration
}

type loginRequest struct {
	Email    string `json:"email"`
	Password string `json:"password"`
}

type loginResponse struct {
	AccessToken string `json:"accessToken"`
}

// NewCloud constructs a new cloud client.
func NewCloud(ctor *ConstructCloud) ICloud {
	return &cloudClient{
		logger:   ctor.Logger,
		client:   &http.Client{Timeout: ctor.Timeout},
		baseURL:  strings.TrimRight(ctor.URL, "/"),
		username: ctor.Username,
		password: ctor.Password,
	}
}

// Login obtains a new access token.
func (c *cloudClient) Login(ctx context.Context) error {
	body, err := json.Marshal(&loginRequest{Email: c.username, Password: c.password})
	if err != nil {
		return errors.Wrap(err, "marshal login")
	}

	req, err := http.NewRequest(http.MethodPost, c.baseURL+cloudLoginPath, bytes.NewReader(body))
	if err != nil {
		return errors.Wrap(err, "create login request")
	}
	req.Header.Set("Content-Type", "application/json")

	resp, err := c.client.Do(req.WithContext(ctx))
	if err != nil {
		return errors.Wrap(err, "login")
	}
	defer resp.Body.Close() // nolint: errcheck

	if resp.StatusCode != http.StatusOK && resp.StatusCode != http.StatusCreated {
		return &ErrCloudResponse{Status: resp.StatusCode}
	}

	data := &loginResponse{}
	if err := json.NewDecoder(resp.Body).Decode(data); err != nil {
		return errors.Wrap(err, "decode login")
	}

	if data.AccessToken == "" {
		return errors.New("empty access token")
	}

	c.Lock()
	c.token = data.AccessToken
	c.Unlock()

	c.logger.Debug("Logged into the cloud", common.LogSystemToken, logSystemCloud, common.LogURLToken, c.baseURL)
	return nil
}

// GetSettings loads account settings.
// Expired token is renewed once.
func (c *cloudClient) GetSettings(ctx context.Context) (*AccountSettings, error) {
	c.Lock()
	hasToken := c.token != ""
	c.Unlock()

	if !hasToken {
		if err := c.Login(ctx); err != nil {
			return nil, err
		}
	}

	settings, err := c.getSettings(ctx)
	if e, ok := err.(*ErrCloudResponse); ok && e.Status == http.StatusUnauthorized {
		c.logger.Info("Cloud token expired, logging in again", common.LogSystemToken, logSystemCloud)
		if err := c.Login(ctx); err != nil {
			return nil, err
		}

		return c.getSettings(ctx)
	}

	return settings, err
}

func (c *cloudClient) getSettings(ctx context.Context) (*AccountSettings, error) {
	req, err := http.NewRequest(http.MethodGet, c.baseURL+cloudSettingsPath, nil)
	if err != nil {
		return nil, errors.Wrap(err, "create settings request")
	}

	c.Lock()
	req.Header.Set("Authorization", "Bearer "+c.token)
	c.Unlock()
	req.Header.Set("Accept", "application/json")

	resp, err := c.client.Do(req.WithContext(ctx))
	if err != nil {
		return nil, errors.Wrap(err, "get settings")
	}
	defer resp.Body.Close() // nolint: errcheck

	if resp.StatusCode != http.StatusOK {
		return nil, &ErrCloudResponse{Status: resp.StatusCode}
	}

	settings := &AccountSettings{}
	if err := json.NewDecoder(resp.Body).Decode(settings); err != nil {
		return nil, errors.Wrap(err, "decode settings")
	}

	return settings, nil
}
