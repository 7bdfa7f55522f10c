package lti

// Role is the normalized user role handed to downstream collaborators
// (guardrails, ontology). Never the raw IMS role URI.
type Role string

const (
	RoleStudent    Role = "student"
	RoleInstructor Role = "instructor"
	RoleAdmin      Role = "admin"
)

// IMS role URIs recognized for normalization. Everything else,
// including an empty list, maps to student: least privilege is the
// fail-safe default, never fail-open to instructor/admin.
var (
	adminRoleURIs = map[string]struct{}{
		"http://purl.imsglobal.org/vocab/lis/v2/institution/person#Administrator": {},
		"http://purl.imsglobal.org/vocab/lis/v2/membership#Administrator":         {},
		"http://purl.imsglobal.org/vocab/lis/v2/system/person#Administrator":      {},
		"urn:lti:role:ims/lis/Administrator":                                      {},
		"Administrator":                                                           {},
	}
	instructorRoleURIs = map[string]struct{}{
		"http://purl.imsglobal.org/vocab/lis/v2/institution/person#Instructor": {},
		"http://purl.imsglobal.org/vocab/lis/v2/membership#Instructor":         {},
		"urn:lti:role:ims/lis/Instructor":                                      {},
		"Instructor":                                                           {},
	}
)

// DeriveRole scans the claim's role URIs with a fixed priority:
// any admin URI wins over any instructor URI, which wins over the
// student default. Order of the input list does not matter.
func DeriveRole(roles []string) Role {
	out := RoleStudent
	for _, r := range roles {
		if _, ok := adminRoleURIs[r]; ok {
			return RoleAdmin
		}
		if _, ok := instructorRoleURIs[r]; ok {
			out = RoleInstructor
		}
	}
	return out
}

// LaunchContext is the typed result of a validated launch. Immutable
// once constructed.
type LaunchContext struct {
	UserID            string            `json:"user_id"`
	UserEmail         string            `json:"user_email,omitempty"`
	UserName          string            `json:"user_name,omitempty"`
	UserRole          Role              `json:"user_role"`
	CourseID          string            `json:"course_id,omitempty"`
	CourseName        string            `json:"course_name,omitempty"`
	ContextLabel      string            `json:"context_label,omitempty"`
	Locale            string            `json:"locale"`
	ProductFamilyCode string            `json:"product_family_code,omitempty"`
	TargetLinkURI     string            `json:"target_link_uri,omitempty"`
	Custom            map[string]string `json:"custom,omitempty"`
}

// NRPSDescriptor points at the platform's roster service.
type NRPSDescriptor struct {
	ContextMembershipsURL string   `json:"context_memberships_url"`
	ServiceVersions       []string `json:"service_versions,omitempty"`
}

// AGSDescriptor points at the platform's gradebook line items.
type AGSDescriptor struct {
	LineItems string   `json:"lineitems,omitempty"`
	LineItem  string   `json:"lineitem,omitempty"`
	Scope     []string `json:"scope,omitempty"`
}

// Services carries the optional service grants attached to a launch.
// A platform that granted neither yields the zero value.
type Services struct {
	NRPS *NRPSDescriptor `json:"nrps,omitempty"`
	AGS  *AGSDescriptor  `json:"ags,omitempty"`
}

// ExtractLaunch maps validated claims into a LaunchContext and the
// granted service descriptors. Extraction is purely structural: a
// missing claim namespace yields an absent descriptor, never an error.
func ExtractLaunch(c *LaunchClaims) (LaunchContext, Services) {
	lc := LaunchContext{
		UserID:        c.Subject,
		UserEmail:     c.Email,
		UserName:      c.Name,
		UserRole:      DeriveRole(c.Roles),
		Locale:        c.Locale,
		TargetLinkURI: c.TargetLinkURI,
		Custom:        c.Custom,
	}
	if lc.Locale == "" {
		lc.Locale = "en-US"
	}
	if c.Context != nil {
		lc.CourseID = c.Context.ID
		lc.CourseName = c.Context.Title
		lc.ContextLabel = c.Context.Label
	}
	if c.ToolPlatform != nil {
		lc.ProductFamilyCode = c.ToolPlatform.ProductFamilyCode
	}

	var svcs Services
	if c.NRPS != nil && c.NRPS.ContextMembershipsURL != "" {
		svcs.NRPS = &NRPSDescriptor{
			ContextMembershipsURL: c.NRPS.ContextMembershipsURL,
			ServiceVersions:       c.NRPS.ServiceVersions,
		}
	}
	if c.AGS != nil && (c.AGS.LineItems != "" || c.AGS.LineItem != "") {
		svcs.AGS = &AGSDescriptor{
			LineItems: c.AGS.LineItems,
			LineItem:  c.AGS.LineItem,
			Scope:     c.AGS.Scope,
		}
	}
	return lc, svcs
}
