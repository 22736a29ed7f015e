package models

import "fmt"

// APIPath is the management plane's v3 API root.
const APIPath = "/api/nutanix/v3"

// Endpoint is the destination management plane the reconciler talks to.
type Endpoint struct {
	Host     string `json:"host" yaml:"host"`
	Port     int    `json:"port" yaml:"port"`
	Username string `json:"username" yaml:"username"`
	Password string `json:"-" yaml:"-"`
	Insecure bool   `json:"insecure" yaml:"insecure"` // skip TLS verification
	CACert   string `json:"-" yaml:"-"`
}

// BaseURL returns the v3 API base URL for this endpoint.
func (e *Endpoint) BaseURL() string {
	return fmt.Sprintf("https://%s:%d%s", e.Host, e.Port, APIPath)
}

// MaskedPassword returns a masked password for display.
func (e *Endpoint) MaskedPassword() string {
	if e.Password == "" {
		return ""
	}
	return "••••••••"
}
