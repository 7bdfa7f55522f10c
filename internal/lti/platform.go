package lti

import "strings"

// Platform is the registered configuration of a trusted LMS platform
// (e.g. Blackboard Ultra, Canvas). Immutable once registered; flows
// look it up by issuer and never mutate it.
type Platform struct {
	ID            string   `json:"id"`
	Name          string   `json:"name,omitempty"`
	Issuer        string   `json:"issuer"`
	ClientID      string   `json:"client_id"`
	AuthLoginURL  string   `json:"auth_login_url"`
	AuthTokenURL  string   `json:"auth_token_url,omitempty"`
	JWKSURL       string   `json:"jwks_url"`
	DeploymentIDs []string `json:"deployment_ids"`
}

// Validate reports the fields a registration must carry. AuthTokenURL
// is optional: the gateway only extracts service endpoints, it never
// exchanges tokens with the platform.
func (p Platform) Validate() error {
	var missing []string
	if strings.TrimSpace(p.Issuer) == "" {
		missing = append(missing, "issuer")
	}
	if strings.TrimSpace(p.ClientID) == "" {
		missing = append(missing, "client_id")
	}
	if strings.TrimSpace(p.AuthLoginURL) == "" {
		missing = append(missing, "auth_login_url")
	}
	if strings.TrimSpace(p.JWKSURL) == "" {
		missing = append(missing, "jwks_url")
	}
	if len(missing) > 0 {
		return flowErr(CodeConfigError, "platform missing required fields: %s", strings.Join(missing, ", "))
	}
	return nil
}

// AllowsDeployment reports whether id is in the platform's allow-list.
func (p Platform) AllowsDeployment(id string) bool {
	for _, d := range p.DeploymentIDs {
		if d == id {
			return true
		}
	}
	return false
}
