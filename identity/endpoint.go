package identity

import "fmt"

// Endpoint locates the control-plane gateway. The register and keepalive
// URLs are pure derivations; an Endpoint carries no state of its own.
type Endpoint struct {
	Scheme string
	Host   string
	Port   int
}

// DefaultEndpoint returns the local development gateway endpoint.
func DefaultEndpoint() Endpoint {
	return Endpoint{
		Scheme: DefaultGatewayScheme,
		Host:   DefaultGatewayHost,
		Port:   DefaultGatewayPort,
	}
}

// URL returns the gateway base URL.
func (e Endpoint) URL() string {
	return fmt.Sprintf("%s://%s:%d", e.Scheme, e.Host, e.Port)
}

// RegisterURL returns the machine registration endpoint.
func (e Endpoint) RegisterURL() string {
	return e.URL() + "/api/v1/machine/register"
}

// KeepaliveURL returns the machine keepalive endpoint.
func (e Endpoint) KeepaliveURL() string {
	return e.URL() + "/api/v1/machine/keepalive"
}

// Validate checks the endpoint fields.
func (e Endpoint) Validate() error {
	if e.Host == "" {
		return &FieldError{Field: "gateway_host", Message: "is required"}
	}
	if e.Port < 1 || e.Port > 65535 {
		return &FieldError{
			Field:   "gateway_port",
			Message: fmt.Sprintf("must be 1-65535, got %d", e.Port),
		}
	}
	switch e.Scheme {
	case "http", "https":
	default:
		return &FieldError{
			Field:   "gateway_scheme",
			Message: fmt.Sprintf("must be http or https, got %q", e.Scheme),
		}
	}
	return nil
}
