// Package api - Thin HTTP layer over the tier transition engine.
// The API is only responsible for input parsing, actor extraction, engine
// invocation, and output serialization. It never makes tier decisions.
package api

import (
	"encoding/json"
	"net/http"
	"strings"
	"time"

	"github.com/google/uuid"
	"github.com/prometheus/client_golang/prometheus/promhttp"

	"fleet-admin/core/authz"
	"fleet-admin/core/directory"
	"fleet-admin/core/impact"
	"fleet-admin/core/qualification"
	"fleet-admin/core/tier"
	"fleet-admin/core/transition"
	"fleet-admin/internal/errors"
)

// Server is the API server
type Server struct {
	orchestrator *transition.Orchestrator
	directory    directory.Directory
	evaluator    *qualification.Evaluator
	impact       *impact.Calculator
	policy       *tier.Policy
	mux          *http.ServeMux
	version      string
}

// NewServer creates the API server over a wired engine
func NewServer(version string, orch *transition.Orchestrator, dir directory.Directory, policy *tier.Policy) *Server {
	s := &Server{
		orchestrator: orch,
		directory:    dir,
		evaluator:    qualification.NewEvaluator(policy),
		impact:       impact.NewCalculator(policy),
		policy:       policy,
		mux:          http.NewServeMux(),
		version:      version,
	}
	s.registerRoutes()
	return s
}

// registerRoutes registers all API routes
func (s *Server) registerRoutes() {
	// Core endpoint: the only mutating operation of the engine
	s.mux.HandleFunc("POST /operators/{id}/tier-transitions", s.handleTransition)

	// Read-only views
	s.mux.HandleFunc("GET /operators/{id}/qualification", s.handleQualification)
	s.mux.HandleFunc("POST /impact", s.handleImpact)
	s.mux.HandleFunc("GET /policy", s.handlePolicy)

	// Supporting endpoints
	s.mux.HandleFunc("GET /health", s.handleHealth)
	s.mux.HandleFunc("GET /version", s.handleVersion)
	s.mux.Handle("GET /metrics", promhttp.Handler())
}

// handleTransition handles POST /operators/{id}/tier-transitions
func (s *Server) handleTransition(w http.ResponseWriter, r *http.Request) {
	ctx := r.Context()

	actor, err := actorFromHeaders(r)
	if err != nil {
		s.writeTypedError(w, err)
		return
	}

	var req TransitionRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		s.writeError(w, "INVALID_JSON", err.Error(), http.StatusBadRequest)
		return
	}

	target, parseErr := tier.Parse(req.TargetTier)
	if parseErr != nil {
		s.writeTypedError(w, errors.AsError(parseErr))
		return
	}

	result, trErr := s.orchestrator.RequestTransition(ctx, &transition.Request{
		Actor:      actor,
		OperatorID: r.PathValue("id"),
		TargetTier: target,
		Notes:      req.Notes,
	})
	if trErr != nil {
		s.writeTypedError(w, errors.AsError(trErr))
		return
	}

	s.writeJSON(w, result, http.StatusOK)
}

// handleQualification handles GET /operators/{id}/qualification
func (s *Server) handleQualification(w http.ResponseWriter, r *http.Request) {
	ctx := r.Context()

	snap, err := s.directory.Get(ctx, r.PathValue("id"))
	if err != nil {
		s.writeTypedError(w, errors.AsError(err))
		return
	}

	result, err := s.evaluator.Evaluate(snap)
	if err != nil {
		s.writeTypedError(w, errors.AsError(err))
		return
	}

	s.writeJSON(w, result, http.StatusOK)
}

// handleImpact handles POST /impact, a preview with no side effects
func (s *Server) handleImpact(w http.ResponseWriter, r *http.Request) {
	var req ImpactRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		s.writeError(w, "INVALID_JSON", err.Error(), http.StatusBadRequest)
		return
	}

	from, err := tier.Parse(req.FromTier)
	if err != nil {
		s.writeTypedError(w, errors.AsError(err))
		return
	}
	to, err := tier.Parse(req.ToTier)
	if err != nil {
		s.writeTypedError(w, errors.AsError(err))
		return
	}

	result, err := s.impact.Estimate(from, to, req.CommissionBase)
	if err != nil {
		s.writeTypedError(w, errors.AsError(err))
		return
	}

	s.writeJSON(w, result, http.StatusOK)
}

// handlePolicy handles GET /policy
func (s *Server) handlePolicy(w http.ResponseWriter, r *http.Request) {
	resp := PolicyResponse{Version: s.policy.Version}
	for _, t := range s.policy.Order() {
		th, err := s.policy.Thresholds(t)
		if err != nil {
			s.writeTypedError(w, errors.AsError(err))
			return
		}
		rate, err := s.policy.Rate(t)
		if err != nil {
			s.writeTypedError(w, errors.AsError(err))
			return
		}
		resp.Tiers = append(resp.Tiers, PolicyTier{Tier: t, Thresholds: th, CommissionRate: rate})
	}
	s.writeJSON(w, resp, http.StatusOK)
}

// handleHealth handles GET /health
func (s *Server) handleHealth(w http.ResponseWriter, r *http.Request) {
	s.writeJSON(w, map[string]interface{}{
		"status":  "healthy",
		"version": s.version,
		"time":    time.Now().UTC().Format(time.RFC3339),
	}, http.StatusOK)
}

// handleVersion handles GET /version
func (s *Server) handleVersion(w http.ResponseWriter, r *http.Request) {
	s.writeJSON(w, map[string]string{
		"version":        s.version,
		"engine":         "fleet-admin",
		"policy_version": s.policy.Version,
	}, http.StatusOK)
}

// actorFromHeaders builds the authz actor from perimeter-verified headers.
// Authentication itself (sessions, MFA) happens upstream of this service.
func actorFromHeaders(r *http.Request) (*authz.Actor, *errors.Error) {
	id := r.Header.Get("X-Actor-ID")
	if id == "" {
		return nil, errors.Validation("missing X-Actor-ID header")
	}

	actor := &authz.Actor{ID: id}
	if perms := r.Header.Get("X-Actor-Permissions"); perms != "" {
		actor.Permissions = strings.Split(perms, ",")
	}
	regions := r.Header.Get("X-Actor-Regions")
	if regions == "*" {
		actor.AllRegions = true
	} else if regions != "" {
		actor.AllowedRegions = strings.Split(regions, ",")
	}
	return actor, nil
}

// statusForType maps the error taxonomy to HTTP statuses
func statusForType(t errors.Type) int {
	switch t {
	case errors.TypeValidation, errors.TypeNoChange:
		return http.StatusBadRequest
	case errors.TypeNotFound:
		return http.StatusNotFound
	case errors.TypeRegionAccess, errors.TypePermission:
		return http.StatusForbidden
	case errors.TypeQualification:
		return http.StatusUnprocessableEntity
	case errors.TypeConflict:
		return http.StatusConflict
	case errors.TypeEvaluation, errors.TypePersistence:
		return http.StatusServiceUnavailable
	default:
		return http.StatusInternalServerError
	}
}

func (s *Server) writeTypedError(w http.ResponseWriter, err *errors.Error) {
	s.writeJSON(w, ErrorBody{Error: ErrorDetail{
		Code:    string(err.Type),
		Message: err.Message,
		Context: err.Context,
	}}, statusForType(err.Type))
}

func (s *Server) writeError(w http.ResponseWriter, code, message string, status int) {
	s.writeJSON(w, ErrorBody{Error: ErrorDetail{Code: code, Message: message}}, status)
}

func (s *Server) writeJSON(w http.ResponseWriter, data interface{}, status int) {
	w.Header().Set("Content-Type", "application/json")
	w.Header().Set("X-Request-ID", uuid.NewString())
	w.WriteHeader(status)
	json.NewEncoder(w).Encode(data)
}

// ServeHTTP implements http.Handler
func (s *Server) ServeHTTP(w http.ResponseWriter, r *http.Request) {
	s.mux.ServeHTTP(w, r)
}
