package smartstream

import (
	"context"
	"encoding/json"
	"fmt"
	"sync"
	"time"

	"github.com/pquerna/otp/totp"

	"orb-scanner/src/config"
	"orb-scanner/src/helpers"
	"orb-scanner/src/interfaces"
	"orb-scanner/src/logger"
)

// ----------------------------------------------------------------------------------
// Broker session. Login exchanges client code + password + a generated TOTP
// for a JWT and a feed token; both the historical client and the stream
// authenticate through this.
// ----------------------------------------------------------------------------------

const loginURL = "https://apiconnect.angelbroking.com/rest/auth/angelbroking/user/v1/loginByPassword"

type Session struct {
	creds   *config.MCredentials
	network interfaces.INetworkManager
	logger  *logger.Logger

	mu        sync.RWMutex
	jwtToken  string
	feedToken string
}

func NewSession(creds *config.MCredentials, nm interfaces.INetworkManager, log *logger.Logger) *Session {
	return &Session{creds: creds, network: nm, logger: log}
}

type loginResponse struct {
	Status  bool   `json:"status"`
	Message string `json:"message"`
	Data    struct {
		JWTToken     string `json:"jwtToken"`
		RefreshToken string `json:"refreshToken"`
		FeedToken    string `json:"feedToken"`
	} `json:"data"`
}

// -----------------------------------------------------------------------------

// Login authenticates against the broker. The TOTP is generated at call time
// from the shared secret.
func (s *Session) Login(ctx context.Context) error {
	code, err := totp.GenerateCode(s.creds.TOTPSecret, time.Now())
	if err != nil {
		return &helpers.FeedError{Op: "generate totp", Err: err}
	}

	payload := map[string]string{
		"clientcode": s.creds.ClientCode,
		"password":   s.creds.Password,
		"totp":       code,
	}
	headers := map[string]string{
		"X-PrivateKey":     s.creds.APIKey,
		"X-UserType":       "USER",
		"X-SourceID":       "WEB",
		"X-ClientLocalIP":  "127.0.0.1",
		"X-ClientPublicIP": "127.0.0.1",
		"X-MACAddress":     "00:00:00:00:00:00",
		"Accept":           "application/json",
	}

	body, err := s.network.PostJSON(ctx, loginURL, payload, headers)
	if err != nil {
		return &helpers.FeedError{Op: "login", Err: err}
	}

	var resp loginResponse
	if err := json.Unmarshal(body, &resp); err != nil {
		return &helpers.FeedError{Op: "decode login response", Err: err}
	}
	if !resp.Status || resp.Data.JWTToken == "" {
		return &helpers.FeedError{Op: "login", Err: fmt.Errorf("broker rejected login: %s", resp.Message)}
	}

	s.mu.Lock()
	s.jwtToken = resp.Data.JWTToken
	s.feedToken = resp.Data.FeedToken
	s.mu.Unlock()

	s.logger.Info("broker session established for %s", s.creds.ClientCode)
	return nil
}

// -----------------------------------------------------------------------------

// AuthHeaders satisfies the token provider contract for REST calls.
func (s *Session) AuthHeaders() map[string]string {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return map[string]string{
		"Authorization":    "Bearer " + s.jwtToken,
		"X-PrivateKey":     s.creds.APIKey,
		"X-UserType":       "USER",
		"X-SourceID":       "WEB",
		"X-ClientLocalIP":  "127.0.0.1",
		"X-ClientPublicIP": "127.0.0.1",
		"X-MACAddress":     "00:00:00:00:00:00",
		"Accept":           "application/json",
	}
}

// StreamHeaders are the handshake headers for the websocket feed.
func (s *Session) StreamHeaders() map[string]string {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return map[string]string{
		"Authorization": "Bearer " + s.jwtToken,
		"x-api-key":     s.creds.APIKey,
		"x-client-code": s.creds.ClientCode,
		"x-feed-token":  s.feedToken,
	}
}
