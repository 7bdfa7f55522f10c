package lti

import "github.com/golang-jwt/jwt/v5"

// LTIVersion is the protocol version this gateway speaks.
const LTIVersion = "1.3.0"

// LaunchClaims is the typed claim schema of an LTI 1.3 id_token. The
// IMS claim namespaces are fixed json tags so that claim-set evolution
// shows up as a type change, not a silent miss on a string key.
type LaunchClaims struct {
	jwt.RegisteredClaims

	Nonce  string `json:"nonce"`
	Email  string `json:"email,omitempty"`
	Name   string `json:"name,omitempty"`
	Locale string `json:"locale,omitempty"`

	MessageType   string            `json:"https://purl.imsglobal.org/spec/lti/claim/message_type"`
	Version       string            `json:"https://purl.imsglobal.org/spec/lti/claim/version"`
	DeploymentID  string            `json:"https://purl.imsglobal.org/spec/lti/claim/deployment_id"`
	TargetLinkURI string            `json:"https://purl.imsglobal.org/spec/lti/claim/target_link_uri,omitempty"`
	Roles         []string          `json:"https://purl.imsglobal.org/spec/lti/claim/roles"`
	Context       *ContextClaim     `json:"https://purl.imsglobal.org/spec/lti/claim/context,omitempty"`
	ResourceLink  *ResourceLink     `json:"https://purl.imsglobal.org/spec/lti/claim/resource_link,omitempty"`
	ToolPlatform  *ToolPlatform     `json:"https://purl.imsglobal.org/spec/lti/claim/tool_platform,omitempty"`
	Custom        map[string]string `json:"https://purl.imsglobal.org/spec/lti/claim/custom,omitempty"`

	NRPS *NRPSClaim `json:"https://purl.imsglobal.org/spec/lti-nrps/claim/namesroleservice,omitempty"`
	AGS  *AGSClaim  `json:"https://purl.imsglobal.org/spec/lti-ags/claim/endpoint,omitempty"`
}

// ContextClaim is the course/context the launch happened in.
type ContextClaim struct {
	ID    string   `json:"id"`
	Label string   `json:"label,omitempty"`
	Title string   `json:"title,omitempty"`
	Type  []string `json:"type,omitempty"`
}

// ResourceLink identifies the placement inside the context.
type ResourceLink struct {
	ID          string `json:"id"`
	Title       string `json:"title,omitempty"`
	Description string `json:"description,omitempty"`
}

// ToolPlatform describes the launching LMS product.
type ToolPlatform struct {
	GUID              string `json:"guid,omitempty"`
	Name              string `json:"name,omitempty"`
	ProductFamilyCode string `json:"product_family_code,omitempty"`
	Version           string `json:"version,omitempty"`
}

// NRPSClaim is the Names and Role Provisioning Service grant.
type NRPSClaim struct {
	ContextMembershipsURL string   `json:"context_memberships_url"`
	ServiceVersions       []string `json:"service_versions,omitempty"`
}

// AGSClaim is the Assignment and Grade Services grant.
type AGSClaim struct {
	LineItems string   `json:"lineitems,omitempty"`
	LineItem  string   `json:"lineitem,omitempty"`
	Scope     []string `json:"scope,omitempty"`
}
