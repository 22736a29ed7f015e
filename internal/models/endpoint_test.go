package models

import "testing"

func TestBaseURL(t *testing.T) {
	tests := []struct {
		name   string
		ep     Endpoint
		expect string
	}{
		{"default port", Endpoint{Host: "10.0.0.5", Port: 9440}, "https://10.0.0.5:9440/api/nutanix/v3"},
		{"hostname", Endpoint{Host: "pc.lab.local", Port: 443}, "https://pc.lab.local:443/api/nutanix/v3"},
	}
	for _, tc := range tests {
		t.Run(tc.name, func(t *testing.T) {
			got := tc.ep.BaseURL()
			if got != tc.expect {
				t.Errorf("BaseURL() = %q, want %q", got, tc.expect)
			}
		})
	}
}

func TestMaskedPassword(t *testing.T) {
	tests := []struct {
		name     string
		password string
		expect   string
	}{
		{"non-empty", "secret123", "••••••••"},
		{"empty", "", ""},
	}
	for _, tc := range tests {
		t.Run(tc.name, func(t *testing.T) {
			e := &Endpoint{Password: tc.password}
			got := e.MaskedPassword()
			if got != tc.expect {
				t.Errorf("MaskedPassword() = %q, want %q", got, tc.expect)
			}
		})
	}
}
