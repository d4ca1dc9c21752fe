package repository

import (
	"fmt"
	"net/url"

	"doc-analyzer/internal/domain"

	"github.com/supabase-community/supabase-go"
)

const clientInfoHeader = "X-Client-Info"

// SupabaseClient implements the domain.SupabaseClient interface. It is
// created unconnected; Initialize validates the project URL and builds the
// REST client.
type SupabaseClient struct {
	projectURL string
	serviceKey string
	client     *supabase.Client
	logger     domain.Logger
}

func NewSupabaseClient(projectURL, serviceKey string, logger domain.Logger) *SupabaseClient {
	return &SupabaseClient{
		projectURL: projectURL,
		serviceKey: serviceKey,
		logger:     logger,
	}
}

func (s *SupabaseClient) Initialize() error {
	if s.projectURL == "" || s.serviceKey == "" {
		return &domain.ValidationError{Field: "supabase", Message: "SUPABASE_URL and SUPABASE_SERVICE_KEY are required"}
	}
	u, err := url.Parse(s.projectURL)
	if err != nil || (u.Scheme != "http" && u.Scheme != "https") || u.Host == "" {
		return &domain.ValidationError{Field: "supabase_url", Message: "must be an http(s) URL"}
	}

	client, err := supabase.NewClient(s.projectURL, s.serviceKey, &supabase.ClientOptions{
		Headers: map[string]string{clientInfoHeader: "doc-analyzer"},
	})
	if err != nil {
		return fmt.Errorf("failed to create Supabase client: %w", err)
	}

	s.client = client
	s.logger.Info("Supabase client initialized", "host", u.Host)
	return nil
}

// DB returns the initialized client, or nil before Initialize succeeds.
func (s *SupabaseClient) DB() *supabase.Client {
	return s.client
}
