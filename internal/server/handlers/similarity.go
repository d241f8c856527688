package handlers

import (
	"encoding/json"
	"io"
	"net/http"
	"strings"

	"github.com/agentstation/servicemap/internal/server/response"
	"github.com/agentstation/servicemap/pkg/errors"
	"github.com/agentstation/servicemap/pkg/similarity"
)

// SimilarityRequest names two providers to compare.
type SimilarityRequest struct {
	A string `json:"a"`
	B string `json:"b"`
}

// SimilarityResponse reports the score, its band and the threshold used.
type SimilarityResponse struct {
	A         string          `json:"a"`
	B         string          `json:"b"`
	Score     float64         `json:"score"`
	Band      similarity.Band `json:"band"`
	Duplicate bool            `json:"duplicate"`
	Threshold float64         `json:"threshold"`
}

// HandleSimilarity handles GET and POST /api/v1/similarity.
// @Summary Compare provider names
// @Description Score two provider names with the duplicate detector
// @Tags similarity
// @Accept json
// @Produce json
// @Param a query string false "First name (GET)"
// @Param b query string false "Second name (GET)"
// @Param request body SimilarityRequest false "Names to compare (POST)"
// @Success 200 {object} response.Response{data=SimilarityResponse}
// @Failure 400 {object} response.Response{error=response.Error}
// @Router /api/v1/similarity [post].
func (h *Handlers) HandleSimilarity(w http.ResponseWriter, r *http.Request) {
	var req SimilarityRequest
	switch r.Method {
	case http.MethodGet:
		req.A, req.B = r.URL.Query().Get("a"), r.URL.Query().Get("b")
	case http.MethodPost:
		if err := json.NewDecoder(io.LimitReader(r.Body, maxBodyBytes)).Decode(&req); err != nil {
			response.BadRequest(w, "Invalid request body", err.Error())
			return
		}
	default:
		response.MethodNotAllowed(w, r.Method)
		return
	}

	if strings.TrimSpace(req.A) == "" || strings.TrimSpace(req.B) == "" {
		response.ErrorFromType(w, errors.NewValidationError("a,b", "", "both names are required"))
		return
	}

	score, band := h.client.Compare(req.A, req.B)
	response.OK(w, SimilarityResponse{
		A:         req.A,
		B:         req.B,
		Score:     score,
		Band:      band,
		Duplicate: band == similarity.Confirmed,
		Threshold: h.client.Threshold(),
	})
}
