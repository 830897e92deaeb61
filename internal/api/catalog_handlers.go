package api

import (
	"net/http"
	"strings"

	"github.com/Nexuses/rsmsaudi-carbon-credit-assessment/internal/catalog"
	"github.com/Nexuses/rsmsaudi-carbon-credit-assessment/internal/models"
	"github.com/Nexuses/rsmsaudi-carbon-credit-assessment/internal/scoring"
)

// Catalog handlers: questions, translations and live scoring

type languageInfo struct {
	Code      models.Language `json:"code"`
	Direction string          `json:"direction"`
}

// catalogResponse is everything a client needs to render the assessment in one language
type catalogResponse struct {
	Language  models.Language   `json:"language"`
	Direction string            `json:"direction"`
	Domains   []models.Domain   `json:"domains"`
	Questions []models.Question `json:"questions"`
	MaxScore  int               `json:"maxScore"`
	Messages  map[string]string `json:"messages"`
	Tiers     tierScale         `json:"tiers"`
}

type tierScale struct {
	Stops    []int    `json:"stops"`
	Segments []string `json:"segments"`
}

type scoreResponse struct {
	Language models.Language `json:"language"`
	scoring.Evaluation
}

func (s *Server) handleListLanguages(w http.ResponseWriter, r *http.Request) {
	langs := s.catalog.Languages()
	result := make([]languageInfo, 0, len(langs))
	for _, lang := range langs {
		result = append(result, languageInfo{Code: lang, Direction: lang.Direction()})
	}

	respondJSON(w, http.StatusOK, map[string]any{
		"languages": result,
		"default":   models.DefaultLanguage,
		"total":     len(result),
	})
}

func (s *Server) handleListDomains(w http.ResponseWriter, r *http.Request) {
	lang := LanguageFromContext(r.Context())
	domains, err := s.catalog.Domains(lang)
	if err != nil {
		respondOperationError(w, r, "list domains", err, nil)
		return
	}

	respondJSON(w, http.StatusOK, map[string]any{
		"language": lang,
		"domains":  domains,
		"total":    len(domains),
	})
}

func (s *Server) handleGetCatalog(w http.ResponseWriter, r *http.Request) {
	lang := LanguageFromContext(r.Context())
	filter := splitList(r.URL.Query().Get("domains"))

	questions, err := s.catalog.Questions(lang, filter)
	if err != nil {
		respondOperationError(w, r, "get catalog", err, nil)
		return
	}
	if len(questions) == 0 {
		respondError(w, http.StatusNotFound, "not_found", "no questions match the selected domains")
		return
	}

	domains, err := s.catalog.Domains(lang)
	if err != nil {
		respondOperationError(w, r, "get catalog", err, nil)
		return
	}

	respondJSON(w, http.StatusOK, catalogResponse{
		Language:  lang,
		Direction: lang.Direction(),
		Domains:   domains,
		Questions: questions,
		MaxScore:  scoring.MaxScore(questions),
		Messages:  s.catalog.Bundle(lang).Messages(),
		Tiers:     tierScale{Stops: scoring.Stops(), Segments: scoring.Segments()},
	})
}

func (s *Server) handleScore(w http.ResponseWriter, r *http.Request) {
	var req models.ScoreRequest
	if !decodeJSON(w, r, &req) {
		return
	}

	lang := catalog.Match(requestLanguage(r, req.Language))
	questions, err := s.catalog.Questions(lang, req.Domains)
	if err != nil {
		respondOperationError(w, r, "score", err, nil)
		return
	}
	if len(questions) == 0 {
		respondErrorDetails(w, http.StatusBadRequest, "validation_error", "no questions match the selected domains",
			[]models.FieldIssue{{Field: "domains", Message: "no questions match the selected domains"}})
		return
	}

	respondJSON(w, http.StatusOK, scoreResponse{
		Language:   lang,
		Evaluation: scoring.Evaluate(questions, req.Answers, s.catalog.Bundle(lang)),
	})
}

func splitList(raw string) []string {
	var out []string
	for _, part := range strings.Split(raw, ",") {
		if part = strings.TrimSpace(part); part != "" {
			out = append(out, part)
		}
	}
	return out
}
