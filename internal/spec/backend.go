package spec

import "strings"

// Domains that are assumed to need a server side even when the analyzed
// prompt only produced frontend components.
var backendRequiredDomains = map[string]bool{
	"ecommerce":   true,
	"e-commerce":  true,
	"marketplace": true,
	"saas":        true,
	"social":      true,
	"fintech":     true,
	"banking":     true,
	"booking":     true,
	"crm":         true,
	"erp":         true,
	"delivery":    true,
	"streaming":   true,
	"healthcare":  true,
	"education":   true,
}

// Domains that never get a synthetic backend.
var frontendOnlyDomains = map[string]bool{
	"landing":       true,
	"portfolio":     true,
	"blog":          true,
	"presentation":  true,
	"documentation": true,
	"showcase":      true,
}

var backendComponentTypes = map[string]bool{
	"server":     true,
	"service":    true,
	"routes":     true,
	"route":      true,
	"controller": true,
	"api":        true,
	"backend":    true,
	"middleware": true,
}

// EnsureBackendForDomain appends four synthetic backend components (server,
// routes, controller, model) to s when the detected domain requires a
// backend and none is present yet. Technologies.Backend and
// Technologies.Database are populated if previously unset. Returns true
// when components were injected. The specification is mutated in place.
func EnsureBackendForDomain(s *TechnicalSpecification, domain string) bool {
	if s == nil {
		return false
	}

	key := strings.ToLower(strings.TrimSpace(domain))
	if key == "" || frontendOnlyDomains[key] || !backendRequiredDomains[key] {
		return false
	}

	if HasBackendComponent(s) {
		return false
	}

	s.Components = append(s.Components,
		Component{
			Name:             "server",
			Type:             "server",
			Purpose:          "Application entry point and HTTP server bootstrap",
			Responsibilities: []string{"configure middleware", "mount routes", "start listener"},
		},
		Component{
			Name:             "routes",
			Type:             "routes",
			Purpose:          "REST route definitions for the " + key + " API",
			Responsibilities: []string{"map endpoints to controllers", "validate request shape"},
		},
		Component{
			Name:             "controller",
			Type:             "controller",
			Purpose:          "Request handling and business logic for " + key + " operations",
			Responsibilities: []string{"handle requests", "invoke model layer", "shape responses"},
		},
		Component{
			Name:             "model",
			Type:             "model",
			Purpose:          "Persistence entities for the " + key + " domain",
			Responsibilities: []string{"define entities", "database access"},
		},
	)

	if s.Technologies.Backend == "" {
		s.Technologies.Backend = "Node.js + Express"
	}
	if s.Technologies.Database == "" {
		s.Technologies.Database = "PostgreSQL"
	}

	return true
}

// HasBackendComponent reports whether any component already covers the
// server side.
func HasBackendComponent(s *TechnicalSpecification) bool {
	for _, c := range s.Components {
		if backendComponentTypes[strings.ToLower(c.Type)] {
			return true
		}
	}
	return false
}
