package gateway

import (
	"fmt"
	"net/url"
	"strings"

	"github.com/otcheredev/hms-web/internal/config"
)

// Backend names used in logs and metrics
const (
	BackendAuth        = "auth"
	BackendHospital    = "hospital"
	BackendAppointment = "appointment"
)

// ClientSet holds one API per backend service. The three clients are
// configured independently but share the token and 401 policy.
type ClientSet struct {
	Auth        *AuthAPI
	Hospital    *HospitalAPI
	Appointment *AppointmentAPI

	clients []*Client
}

// NewClientSet builds the backend clients from configuration
func NewClientSet(cfg config.BackendsConfig, tokens TokenSource, onUnauthorized UnauthorizedHook) (*ClientSet, error) {
	targets := []struct {
		name string
		url  string
	}{
		{BackendAuth, cfg.AuthURL},
		{BackendHospital, cfg.HospitalURL},
		{BackendAppointment, cfg.AppointmentURL},
	}

	clients := make([]*Client, 0, len(targets))
	for _, t := range targets {
		base, err := ResolveBaseURL(cfg.GatewayURL, t.url)
		if err != nil {
			return nil, fmt.Errorf("failed to resolve %s backend URL: %w", t.name, err)
		}
		clients = append(clients, NewClient(ClientConfig{
			Name:           t.name,
			BaseURL:        base,
			Timeout:        cfg.Timeout,
			Tokens:         tokens,
			OnUnauthorized: onUnauthorized,
		}))
	}

	return &ClientSet{
		Auth:        NewAuthAPI(clients[0]),
		Hospital:    NewHospitalAPI(clients[1]),
		Appointment: NewAppointmentAPI(clients[2]),
		clients:     clients,
	}, nil
}

// ResolveBaseURL turns a configured service URL into an absolute base.
// Empty or relative values are resolved against the gateway (reverse proxy).
func ResolveBaseURL(gateway, service string) (string, error) {
	gw, err := url.Parse(strings.TrimSpace(gateway))
	if err != nil {
		return "", fmt.Errorf("invalid gateway URL: %w", err)
	}

	service = strings.TrimSpace(service)
	if service == "" {
		return strings.TrimRight(gw.String(), "/"), nil
	}

	ref, err := url.Parse(service)
	if err != nil {
		return "", fmt.Errorf("invalid service URL: %w", err)
	}
	if ref.IsAbs() {
		return strings.TrimRight(ref.String(), "/"), nil
	}
	if !gw.IsAbs() {
		return "", fmt.Errorf("relative service URL %q needs an absolute gateway URL", service)
	}
	return strings.TrimRight(gw.ResolveReference(ref).String(), "/"), nil
}

// CloseIdle releases idle connections of every client
func (s *ClientSet) CloseIdle() {
	for _, c := range s.clients {
		c.http.CloseIdleConnections()
	}
}
