package goGuard

import (
	"strings"

	"github.com/MrEthical07/goGuard/internal/security"
)

// SecurityReport describes what a built Guard actually enforces.
// Warnings holds stable codes such as "cookies_without_csrf" or
// "query_string_tokens".
type SecurityReport struct {
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

// SecurityReport summarises the guard's effective configuration.
func (g *Guard) SecurityReport() SecurityReport {
	if g == nil {
		return SecurityReport{}
	}

	locations := make([]string, 0, len(g.cfg.TokenLocation))
	for _, loc := range g.cfg.TokenLocation {
		locations = append(locations, loc.String())
	}
	types := make([]string, 0, len(g.cfg.RevocationChecks))
	for _, t := range g.cfg.RevocationChecks {
		types = append(types, string(t))
	}
	exempt := make([]string, 0, len(g.cfg.ExemptMethods))
	for _, m := range g.cfg.ExemptMethods {
		exempt = append(exempt, strings.ToUpper(strings.TrimSpace(m)))
	}

	r := security.BuildReport(security.ReportInput{
		Locations:            locations,
		HeaderScheme:         g.cfg.HeaderType,
		CSRFProtect:          g.cfg.CSRFProtect,
		RevocationChecker:    g.revocation != nil,
		RevocationTokenTypes: types,
		PrincipalLoader:      g.loader != nil,
		ClaimsValidators:     len(g.validators),
		ExemptMethods:        exempt,
		AuditEnabled:         g.cfg.Audit.Enabled,
		AuditDropIfFull:      g.cfg.Audit.DropIfFull,
		MetricsEnabled:       g.cfg.Metrics.Enabled,
	})

	return SecurityReport{
		Locations:             r.Locations,
		HeaderScheme:          r.HeaderScheme,
		CookieCSRFActive:      r.CookieCSRFActive,
		QueryStringActive:     r.QueryStringActive,
		RevocationActive:      r.RevocationActive,
		RevocationTokenTypes:  r.RevocationTokenTypes,
		PrincipalLoaderActive: r.PrincipalLoaderActive,
		ClaimsValidators:      r.ClaimsValidators,
		ExemptMethods:         r.ExemptMethods,
		AuditEnabled:          r.AuditEnabled,
		MetricsEnabled:        r.MetricsEnabled,
		Warnings:              r.Warnings,
	}
}
