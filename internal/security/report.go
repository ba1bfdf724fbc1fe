package security

import (
	"net/http"
	"slices"
)

// Warning codes reported by BuildReport.
const (
	WarnCookiesWithoutCSRF = "cookies_without_csrf"
	WarnQueryStringTokens  = "query_string_tokens"
	WarnRevocationOff      = "revocation_unchecked"
	WarnUnsafeExempt       = "exempt_unsafe_method"
	WarnAuditDropping      = "audit_drops_when_full"
)

type Report struct {
	Locations             []string
	HeaderScheme          string
	CookieCSRFActive      bool
	QueryStringActive     bool
	RevocationActive      bool
	RevocationTokenTypes  []string
	PrincipalLoaderActive bool
	ClaimsValidators      int
	ExemptMethods         []string
	AuditEnabled          bool
	MetricsEnabled        bool
	Warnings              []string
}

type ReportInput struct {
	Locations            []string
	HeaderScheme         string
	CSRFProtect          bool
	RevocationChecker    bool
	RevocationTokenTypes []string
	PrincipalLoader      bool
	ClaimsValidators     int
	ExemptMethods        []string
	AuditEnabled         bool
	AuditDropIfFull      bool
	MetricsEnabled       bool
}

var unsafeMethods = []string{http.MethodPost, http.MethodPut, http.MethodPatch, http.MethodDelete}

func BuildReport(input ReportInput) Report {
	cookies := slices.Contains(input.Locations, "cookies")
	query := slices.Contains(input.Locations, "query_string")
	revocation := input.RevocationChecker && len(input.RevocationTokenTypes) > 0

	var warnings []string
	if cookies && !input.CSRFProtect {
		warnings = append(warnings, WarnCookiesWithoutCSRF)
	}
	if query {
		warnings = append(warnings, WarnQueryStringTokens)
	}
	if !revocation {
		warnings = append(warnings, WarnRevocationOff)
	}
	for _, m := range input.ExemptMethods {
		if slices.Contains(unsafeMethods, m) {
			warnings = append(warnings, WarnUnsafeExempt)
			break
		}
	}
	if input.AuditEnabled && input.AuditDropIfFull {
		warnings = append(warnings, WarnAuditDropping)
	}

	return Report{
		Locations:             slices.Clone(input.Locations),
		HeaderScheme:          input.HeaderScheme,
		CookieCSRFActive:      cookies && input.CSRFProtect,
		QueryStringActive:     query,
		RevocationActive:      revocation,
		RevocationTokenTypes:  slices.Clone(input.RevocationTokenTypes),
		PrincipalLoaderActive: input.PrincipalLoader,
		ClaimsValidators:      input.ClaimsValidators,
		ExemptMethods:         slices.Clone(input.ExemptMethods),
		AuditEnabled:          input.AuditEnabled,
		MetricsEnabled:        input.MetricsEnabled,
		Warnings:              warnings,
	}
}
