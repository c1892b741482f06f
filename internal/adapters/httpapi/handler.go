// Package httpapi exposes the workflow services over a JSON HTTP surface for
// the local UI process.
package httpapi

import (
	"context"
	"encoding/json"
	"errors"
	"io"
	"net/http"
	"strings"

	"wardwatch/docs/schema/openapi"
	"wardwatch/internal/core"
	"wardwatch/pkg/domain"
)

// Puller triggers an on-demand reconciliation pull. Implemented by the sync
// coordinator; nil disables the endpoint.
type Puller interface {
	PullNow(ctx context.Context) error
}

// Handler provides HTTP access to the violation-tracking workflows.
type Handler struct {
	service *core.Service
	puller  Puller
	mux     *http.ServeMux
}

// NewHandler constructs the API handler and registers its routes. puller may
// be nil when sync is disabled.
func NewHandler(service *core.Service, puller Puller) *Handler {
	h := &Handler{service: service, puller: puller, mux: http.NewServeMux()}

	h.mux.HandleFunc("POST /api/v1/auth/login", h.handleLogin)
	h.mux.HandleFunc("POST /api/v1/auth/verify", h.handleVerify)
	h.mux.HandleFunc("POST /api/v1/auth/logout", h.handleLogout)

	h.mux.HandleFunc("GET /api/v1/issues", h.withActor(h.handleListIssues))
	h.mux.HandleFunc("POST /api/v1/issues", h.withActor(h.handleCreateIssue))
	h.mux.HandleFunc("GET /api/v1/issues/{id}", h.withActor(h.handleGetIssue))
	h.mux.HandleFunc("PATCH /api/v1/issues/{id}", h.withActor(h.handleUpdateIssue))
	h.mux.HandleFunc("POST /api/v1/issues/{id}/acknowledge", h.withActor(h.handleAcknowledge))
	h.mux.HandleFunc("POST /api/v1/issues/{id}/process", h.withActor(h.handleProcess))
	h.mux.HandleFunc("POST /api/v1/issues/{id}/report", h.withActor(h.handleReport))
	h.mux.HandleFunc("POST /api/v1/issues/{id}/review", h.withActor(h.handleReviewIssue))
	h.mux.HandleFunc("POST /api/v1/issues/{id}/close", h.withActor(h.handleCloseIssue))

	h.mux.HandleFunc("GET /api/v1/registrations", h.withActor(h.handleListRegistrations))
	h.mux.HandleFunc("POST /api/v1/registrations", h.withActor(h.handleSubmitRegistration))
	h.mux.HandleFunc("POST /api/v1/registrations/{id}/review", h.withActor(h.handleReviewRegistration))

	h.mux.HandleFunc("GET /api/v1/bonus-requests", h.withActor(h.handleListBonusRequests))
	h.mux.HandleFunc("POST /api/v1/bonus-requests", h.withActor(h.handleSubmitBonusRequest))
	h.mux.HandleFunc("POST /api/v1/bonus-requests/{id}/review", h.withActor(h.handleReviewBonusRequest))

	h.mux.HandleFunc("GET /api/v1/dashboard", h.withActor(h.handleDashboard))
	h.mux.HandleFunc("GET /api/v1/scoreboard", h.handleScoreboard)
	h.mux.HandleFunc("GET /api/v1/audit", h.withActor(h.handleAudit))
	h.mux.HandleFunc("GET /api/v1/catalog/violations", h.handleViolationCatalog)
	h.mux.HandleFunc("GET /api/v1/catalog/bonus-criteria", h.handleBonusCatalog)

	h.mux.HandleFunc("POST /api/v1/sync/pull", h.withActor(h.handlePull))

	h.mux.HandleFunc("GET /api/v1/openapi.yaml", h.handleOpenAPISpec)

	return h
}

func (h *Handler) handleOpenAPISpec(w http.ResponseWriter, _ *http.Request) {
	w.Header().Set("Content-Type", "application/yaml")
	w.WriteHeader(http.StatusOK)
	_, _ = w.Write(openapi.Spec())
}

func (h *Handler) handlePull(w http.ResponseWriter, r *http.Request, actor domain.Unit) {
	if actor.Role == domain.RoleWard {
		writeError(w, http.StatusForbidden, "sync requires reviewer access")
		return
	}
	if h.puller == nil {
		writeError(w, http.StatusServiceUnavailable, "sync is not configured")
		return
	}
	if err := h.puller.PullNow(r.Context()); err != nil {
		writeError(w, http.StatusBadGateway, err.Error())
		return
	}
	writeJSON(w, http.StatusOK, map[string]any{"status": "ok"})
}

func (h *Handler) ServeHTTP(w http.ResponseWriter, r *http.Request) {
	h.mux.ServeHTTP(w, r)
}

func bearerToken(r *http.Request) string {
	auth := r.Header.Get("Authorization")
	token, ok := strings.CutPrefix(auth, "Bearer ")
	if !ok {
		return ""
	}
	return strings.TrimSpace(token)
}

type actorHandler func(w http.ResponseWriter, r *http.Request, actor domain.Unit)

func (h *Handler) withActor(next actorHandler) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		actor, err := h.service.ActorFromToken(bearerToken(r))
		if err != nil {
			writeError(w, http.StatusUnauthorized, "authentication required")
			return
		}
		next(w, r, actor)
	}
}

func (h *Handler) handleLogin(w http.ResponseWriter, r *http.Request) {
	var req struct {
		Email string `json:"email"`
	}
	if err := decode(r, &req); err != nil {
		writeError(w, http.StatusBadRequest, "invalid login payload")
		return
	}
	unit, err := h.service.Login(r.Context(), req.Email)
	if err != nil {
		writeServiceError(w, err)
		return
	}
	writeJSON(w, http.StatusOK, map[string]any{"unit": unit})
}

func (h *Handler) handleVerify(w http.ResponseWriter, r *http.Request) {
	var req struct {
		Email string `json:"email"`
		Code  string `json:"code"`
	}
	if err := decode(r, &req); err != nil {
		writeError(w, http.StatusBadRequest, "invalid verification payload")
		return
	}
	session, err := h.service.VerifyCode(r.Context(), req.Email, req.Code)
	if err != nil {
		writeServiceError(w, err)
		return
	}
	writeJSON(w, http.StatusOK, map[string]any{"session": session})
}

func (h *Handler) handleLogout(w http.ResponseWriter, r *http.Request) {
	if err := h.service.Logout(r.Context(), bearerToken(r)); err != nil {
		writeServiceError(w, err)
		return
	}
	writeJSON(w, http.StatusOK, map[string]any{"status": "ok"})
}

func (h *Handler) handleListIssues(w http.ResponseWriter, r *http.Request, actor domain.Unit) {
	issues, err := h.service.Issues(r.Context(), actor)
	if err != nil {
		writeServiceError(w, err)
		return
	}
	writeJSON(w, http.StatusOK, map[string]any{"issues": issues})
}

func (h *Handler) handleCreateIssue(w http.ResponseWriter, r *http.Request, actor domain.Unit) {
	var req struct {
		CustomName          string             `json:"custom_name"`
		WardID              string             `json:"ward_id"`
		LocationDescription string             `json:"location_description"`
		ViolationCode       string             `json:"violation_code"`
		PenaltyPoints       float64            `json:"penalty_points"`
		Source              string             `json:"source"`
		Note                string             `json:"note"`
		Evidence            []domain.MediaItem `json:"evidence"`
	}
	if err := decode(r, &req); err != nil {
		writeError(w, http.StatusBadRequest, "invalid issue payload")
		return
	}
	issue, err := h.service.CreateIssue(r.Context(), actor, core.CreateIssueInput{
		CustomName:          req.CustomName,
		WardID:              req.WardID,
		LocationDescription: req.LocationDescription,
		ViolationCode:       req.ViolationCode,
		PenaltyPoints:       req.PenaltyPoints,
		Source:              req.Source,
		Note:                req.Note,
		Evidence:            req.Evidence,
	})
	if err != nil {
		writeServiceError(w, err)
		return
	}
	writeJSON(w, http.StatusCreated, map[string]any{"issue": issue})
}

func (h *Handler) handleGetIssue(w http.ResponseWriter, r *http.Request, actor domain.Unit) {
	issue, err := h.service.IssueByID(r.Context(), r.PathValue("id"))
	if err != nil {
		writeServiceError(w, err)
		return
	}
	if actor.Role == domain.RoleWard && issue.WardID != actor.ID {
		writeError(w, http.StatusForbidden, "issue belongs to another ward")
		return
	}
	writeJSON(w, http.StatusOK, map[string]any{"issue": issue})
}

func (h *Handler) handleUpdateIssue(w http.ResponseWriter, r *http.Request, actor domain.Unit) {
	var req struct {
		CustomName          *string `json:"custom_name"`
		LocationDescription *string `json:"location_description"`
		Note                *string `json:"note"`
	}
	if err := decode(r, &req); err != nil {
		writeError(w, http.StatusBadRequest, "invalid issue payload")
		return
	}
	issue, err := h.service.UpdateIssueDetails(r.Context(), actor, r.PathValue("id"), core.UpdateIssueInput{
		CustomName:          req.CustomName,
		LocationDescription: req.LocationDescription,
		Note:                req.Note,
	})
	if err != nil {
		writeServiceError(w, err)
		return
	}
	writeJSON(w, http.StatusOK, map[string]any{"issue": issue})
}

type reasonRequest struct {
	Reason string `json:"reason"`
}

func (h *Handler) handleAcknowledge(w http.ResponseWriter, r *http.Request, actor domain.Unit) {
	var req reasonRequest
	if err := decode(r, &req); err != nil {
		writeError(w, http.StatusBadRequest, "invalid payload")
		return
	}
	issue, err := h.service.AcknowledgeIssue(r.Context(), actor, r.PathValue("id"), req.Reason)
	if err != nil {
		writeServiceError(w, err)
		return
	}
	writeJSON(w, http.StatusOK, map[string]any{"issue": issue})
}

func (h *Handler) handleProcess(w http.ResponseWriter, r *http.Request, actor domain.Unit) {
	var req reasonRequest
	if err := decode(r, &req); err != nil {
		writeError(w, http.StatusBadRequest, "invalid payload")
		return
	}
	issue, err := h.service.StartProcessing(r.Context(), actor, r.PathValue("id"), req.Reason)
	if err != nil {
		writeServiceError(w, err)
		return
	}
	writeJSON(w, http.StatusOK, map[string]any{"issue": issue})
}

func (h *Handler) handleReport(w http.ResponseWriter, r *http.Request, actor domain.Unit) {
	var req struct {
		Content  string             `json:"content"`
		BBN      string             `json:"bbn"`
		Evidence []domain.MediaItem `json:"evidence"`
	}
	if err := decode(r, &req); err != nil {
		writeError(w, http.StatusBadRequest, "invalid report payload")
		return
	}
	issue, err := h.service.SubmitReport(r.Context(), actor, r.PathValue("id"), core.ReportInput{
		Content:  req.Content,
		BBN:      req.BBN,
		Evidence: req.Evidence,
	})
	if err != nil {
		writeServiceError(w, err)
		return
	}
	writeJSON(w, http.StatusOK, map[string]any{"issue": issue})
}

type reviewRequest struct {
	Approve bool   `json:"approve"`
	Note    string `json:"note"`
}

func (h *Handler) handleReviewIssue(w http.ResponseWriter, r *http.Request, actor domain.Unit) {
	var req reviewRequest
	if err := decode(r, &req); err != nil {
		writeError(w, http.StatusBadRequest, "invalid review payload")
		return
	}
	issue, err := h.service.ReviewIssue(r.Context(), actor, r.PathValue("id"), req.Approve, req.Note)
	if err != nil {
		writeServiceError(w, err)
		return
	}
	writeJSON(w, http.StatusOK, map[string]any{"issue": issue})
}

func (h *Handler) handleCloseIssue(w http.ResponseWriter, r *http.Request, actor domain.Unit) {
	var req reasonRequest
	if err := decode(r, &req); err != nil {
		writeError(w, http.StatusBadRequest, "invalid payload")
		return
	}
	issue, err := h.service.CloseIssue(r.Context(), actor, r.PathValue("id"), req.Reason)
	if err != nil {
		writeServiceError(w, err)
		return
	}
	writeJSON(w, http.StatusOK, map[string]any{"issue": issue})
}

func (h *Handler) handleListRegistrations(w http.ResponseWriter, r *http.Request, actor domain.Unit) {
	regs, err := h.service.Registrations(r.Context(), actor)
	if err != nil {
		writeServiceError(w, err)
		return
	}
	writeJSON(w, http.StatusOK, map[string]any{"registrations": regs})
}

func (h *Handler) handleSubmitRegistration(w http.ResponseWriter, r *http.Request, actor domain.Unit) {
	var req struct {
		Month  string  `json:"month"`
		Points float64 `json:"points"`
		Note   string  `json:"note"`
	}
	if err := decode(r, &req); err != nil {
		writeError(w, http.StatusBadRequest, "invalid registration payload")
		return
	}
	reg, err := h.service.SubmitRegistration(r.Context(), actor, core.RegistrationInput{
		Month:  req.Month,
		Points: req.Points,
		Note:   req.Note,
	})
	if err != nil {
		writeServiceError(w, err)
		return
	}
	writeJSON(w, http.StatusCreated, map[string]any{"registration": reg})
}

func (h *Handler) handleReviewRegistration(w http.ResponseWriter, r *http.Request, actor domain.Unit) {
	var req reviewRequest
	if err := decode(r, &req); err != nil {
		writeError(w, http.StatusBadRequest, "invalid review payload")
		return
	}
	reg, err := h.service.ReviewRegistration(r.Context(), actor, r.PathValue("id"), req.Approve, req.Note)
	if err != nil {
		writeServiceError(w, err)
		return
	}
	writeJSON(w, http.StatusOK, map[string]any{"registration": reg})
}

func (h *Handler) handleListBonusRequests(w http.ResponseWriter, r *http.Request, actor domain.Unit) {
	reqs, err := h.service.BonusRequests(r.Context(), actor)
	if err != nil {
		writeServiceError(w, err)
		return
	}
	writeJSON(w, http.StatusOK, map[string]any{"bonus_requests": reqs})
}

func (h *Handler) handleSubmitBonusRequest(w http.ResponseWriter, r *http.Request, actor domain.Unit) {
	var req struct {
		Month           string  `json:"month"`
		CriteriaID      string  `json:"criteria_id"`
		RequestedPoints float64 `json:"requested_points"`
		Description     string  `json:"description"`
	}
	if err := decode(r, &req); err != nil {
		writeError(w, http.StatusBadRequest, "invalid bonus payload")
		return
	}
	bonus, err := h.service.SubmitBonusRequest(r.Context(), actor, core.BonusInput{
		Month:           req.Month,
		CriteriaID:      req.CriteriaID,
		RequestedPoints: req.RequestedPoints,
		Description:     req.Description,
	})
	if err != nil {
		writeServiceError(w, err)
		return
	}
	writeJSON(w, http.StatusCreated, map[string]any{"bonus_request": bonus})
}

func (h *Handler) handleReviewBonusRequest(w http.ResponseWriter, r *http.Request, actor domain.Unit) {
	var req reviewRequest
	if err := decode(r, &req); err != nil {
		writeError(w, http.StatusBadRequest, "invalid review payload")
		return
	}
	bonus, err := h.service.ReviewBonusRequest(r.Context(), actor, r.PathValue("id"), req.Approve, req.Note)
	if err != nil {
		writeServiceError(w, err)
		return
	}
	writeJSON(w, http.StatusOK, map[string]any{"bonus_request": bonus})
}

func (h *Handler) handleDashboard(w http.ResponseWriter, r *http.Request, _ domain.Unit) {
	stats, err := h.service.Stats(r.Context())
	if err != nil {
		writeServiceError(w, err)
		return
	}
	writeJSON(w, http.StatusOK, map[string]any{"dashboard": stats})
}

func (h *Handler) handleScoreboard(w http.ResponseWriter, r *http.Request) {
	scores, err := h.service.Scoreboard(r.Context())
	if err != nil {
		writeServiceError(w, err)
		return
	}
	writeJSON(w, http.StatusOK, map[string]any{"scores": scores})
}

func (h *Handler) handleAudit(w http.ResponseWriter, r *http.Request, actor domain.Unit) {
	if actor.Role == domain.RoleWard {
		writeError(w, http.StatusForbidden, "audit log requires reviewer access")
		return
	}
	entries, err := h.service.AuditLog(r.Context())
	if err != nil {
		writeServiceError(w, err)
		return
	}
	writeJSON(w, http.StatusOK, map[string]any{"audit": entries})
}

func (h *Handler) handleViolationCatalog(w http.ResponseWriter, _ *http.Request) {
	writeJSON(w, http.StatusOK, map[string]any{"violation_codes": domain.ViolationCodes})
}

func (h *Handler) handleBonusCatalog(w http.ResponseWriter, _ *http.Request) {
	writeJSON(w, http.StatusOK, map[string]any{"bonus_criteria": domain.BonusCriteriaList})
}

func decode(r *http.Request, v any) error {
	err := json.NewDecoder(r.Body).Decode(v)
	if err != nil && !errors.Is(err, io.EOF) {
		return err
	}
	return nil
}

func writeJSON(w http.ResponseWriter, status int, payload any) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	_ = json.NewEncoder(w).Encode(payload)
}

func writeError(w http.ResponseWriter, status int, message string) {
	writeJSON(w, status, map[string]any{"error": message})
}

func writeServiceError(w http.ResponseWriter, err error) {
	var notFound core.ErrNotFound
	var ruleErr domain.RuleViolationError
	switch {
	case domain.IsValidation(err):
		writeError(w, http.StatusBadRequest, err.Error())
	case errors.Is(err, domain.ErrForbidden):
		writeError(w, http.StatusForbidden, err.Error())
	case errors.Is(err, domain.ErrNoSession):
		writeError(w, http.StatusUnauthorized, err.Error())
	case errors.As(err, &notFound):
		writeError(w, http.StatusNotFound, err.Error())
	case errors.As(err, &ruleErr):
		writeError(w, http.StatusConflict, describeViolations(ruleErr))
	default:
		writeError(w, http.StatusInternalServerError, err.Error())
	}
}

func describeViolations(err domain.RuleViolationError) string {
	if len(err.Result.Violations) > 0 {
		return err.Result.Violations[0].Message
	}
	return err.Error()
}
