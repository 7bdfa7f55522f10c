package lti_test

import (
	"testing"

	"github.com/smepro/smepro-gateway/internal/lti"
)

const (
	instructorURI = "http://purl.imsglobal.org/vocab/lis/v2/membership#Instructor"
	adminURI      = "http://purl.imsglobal.org/vocab/lis/v2/institution/person#Administrator"
	learnerURI    = "http://purl.imsglobal.org/vocab/lis/v2/membership#Learner"
)

func TestDeriveRole(t *testing.T) {
	cases := []struct {
		name  string
		roles []string
		want  lti.Role
	}{
		{"empty list", nil, lti.RoleStudent},
		{"learner only", []string{learnerURI}, lti.RoleStudent},
		{"instructor", []string{instructorURI}, lti.RoleInstructor},
		{"instructor among learners", []string{learnerURI, instructorURI}, lti.RoleInstructor},
		{"admin wins over instructor", []string{instructorURI, adminURI}, lti.RoleAdmin},
		{"admin first", []string{adminURI, instructorURI}, lti.RoleAdmin},
		{"legacy urn instructor", []string{"urn:lti:role:ims/lis/Instructor"}, lti.RoleInstructor},
		{"garbage strings default to student", []string{"not-a-role", "x#Instructor-ish"}, lti.RoleStudent},
	}
	for _, tc := range cases {
		t.Run(tc.name, func(t *testing.T) {
			if got := lti.DeriveRole(tc.roles); got != tc.want {
				t.Fatalf("DeriveRole(%v) = %q, want %q", tc.roles, got, tc.want)
			}
		})
	}
}

func TestExtractLaunch(t *testing.T) {
	claims := &lti.LaunchClaims{
		Nonce:  "n",
		Email:  "u42@lamar.edu",
		Name:   "Pat Example",
		Locale: "es-MX",
		Roles:  []string{instructorURI},
		Context: &lti.ContextClaim{
			ID:    "ACCT-3310",
			Label: "ACCT3310",
			Title: "Intermediate Accounting",
		},
		ToolPlatform: &lti.ToolPlatform{ProductFamilyCode: "blackboard"},
		Custom:       map[string]string{"section": "02"},
		NRPS: &lti.NRPSClaim{
			ContextMembershipsURL: "https://lms.example.edu/nrps/ctx1",
			ServiceVersions:       []string{"2.0"},
		},
		AGS: &lti.AGSClaim{
			LineItems: "https://lms.example.edu/ags/ctx1/lineitems",
			Scope:     []string{"https://purl.imsglobal.org/spec/lti-ags/scope/score"},
		},
	}
	claims.Subject = "u42"

	lc, svcs := lti.ExtractLaunch(claims)
	if lc.UserID != "u42" || lc.UserRole != lti.RoleInstructor {
		t.Fatalf("bad identity: %+v", lc)
	}
	if lc.CourseID != "ACCT-3310" || lc.CourseName != "Intermediate Accounting" || lc.ContextLabel != "ACCT3310" {
		t.Fatalf("bad course mapping: %+v", lc)
	}
	if lc.Locale != "es-MX" || lc.ProductFamilyCode != "blackboard" {
		t.Fatalf("bad locale/product: %+v", lc)
	}
	if lc.Custom["section"] != "02" {
		t.Fatalf("custom params lost: %+v", lc.Custom)
	}
	if svcs.NRPS == nil || svcs.NRPS.ContextMembershipsURL != "https://lms.example.edu/nrps/ctx1" {
		t.Fatalf("nrps descriptor: %+v", svcs.NRPS)
	}
	if svcs.AGS == nil || svcs.AGS.LineItems == "" || len(svcs.AGS.Scope) != 1 {
		t.Fatalf("ags descriptor: %+v", svcs.AGS)
	}
}

func TestExtractLaunchMissingNamespaces(t *testing.T) {
	claims := &lti.LaunchClaims{}
	claims.Subject = "u1"

	lc, svcs := lti.ExtractLaunch(claims)
	if lc.UserRole != lti.RoleStudent {
		t.Fatalf("missing roles must default to student, got %q", lc.UserRole)
	}
	if lc.Locale != "en-US" {
		t.Fatalf("want en-US default locale, got %q", lc.Locale)
	}
	// Absent service namespaces yield absent descriptors, never errors.
	if svcs.NRPS != nil || svcs.AGS != nil {
		t.Fatalf("want absent descriptors, got %+v", svcs)
	}
}
