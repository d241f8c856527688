package handlers

import (
	"encoding/json"
	"io"
	"net/http"
	"strconv"
	"strings"

	"github.com/google/uuid"

	"github.com/agentstation/servicemap/internal/cache"
	"github.com/agentstation/servicemap/internal/server/filter"
	"github.com/agentstation/servicemap/internal/server/middleware"
	"github.com/agentstation/servicemap/internal/server/response"
	"github.com/agentstation/servicemap/pkg/errors"
	"github.com/agentstation/servicemap/pkg/federation"
	"github.com/agentstation/servicemap/pkg/logging"
	"github.com/agentstation/servicemap/pkg/query"
)

// maxBodyBytes bounds search and similarity request bodies.
const maxBodyBytes = 64 << 10

// SearchRequest is the POST /api/v1/search body. When Intent is omitted the
// server's analyzer derives one from Query.
type SearchRequest struct {
	Query  string              `json:"query"`
	Intent *query.Intent       `json:"intent,omitempty"`
	Limit  int                 `json:"limit,omitempty"`
	Filter filter.ResultFilter `json:"filter"`
}

// SearchResponse is a federated search result after result filters.
type SearchResponse struct {
	*federation.Result
	Filtered int `json:"filtered_out"`
}

// HandleSearch handles POST /api/v1/search.
// @Summary Search providers
// @Description Federated search over the company and worker catalogs
// @Tags search
// @Accept json
// @Produce json
// @Param request body SearchRequest true "Search request"
// @Success 200 {object} response.Response{data=SearchResponse}
// @Failure 400 {object} response.Response{error=response.Error}
// @Failure 500 {object} response.Response{error=response.Error}
// @Router /api/v1/search [post].
func (h *Handlers) HandleSearch(w http.ResponseWriter, r *http.Request) {
	var req SearchRequest
	dec := json.NewDecoder(io.LimitReader(r.Body, maxBodyBytes))
	dec.DisallowUnknownFields()
	if err := dec.Decode(&req); err != nil {
		response.BadRequest(w, "Invalid request body", err.Error())
		return
	}
	h.search(w, r, req)
}

// HandleSearchQuery handles GET /api/v1/search?q=...
// @Summary Search providers
// @Description Federated search with the query and filters in the query string
// @Tags search
// @Produce json
// @Param q query string true "Free-text request"
// @Param limit query integer false "Maximum results (default 10, max 100)"
// @Param kind query string false "organization or individual"
// @Param origin query string false "catalog_a or catalog_b"
// @Param region query string false "Region the provider must serve"
// @Param min_rating query number false "Minimum rating"
// @Param max_cost query number false "Maximum hourly cost"
// @Param emergency query boolean false "Emergency service support"
// @Param exclude_seeded query boolean false "Drop fallback records"
// @Success 200 {object} response.Response{data=SearchResponse}
// @Failure 400 {object} response.Response{error=response.Error}
// @Router /api/v1/search [get].
func (h *Handlers) HandleSearchQuery(w http.ResponseWriter, r *http.Request) {
	q := r.URL.Query()
	req := SearchRequest{Query: q.Get("q")}

	if v := q.Get("limit"); v != "" {
		n, err := strconv.Atoi(v)
		if err != nil {
			response.ErrorFromType(w, errors.NewValidationError("limit", v, "expected an integer"))
			return
		}
		req.Limit = n
	}
	f, err := filter.Parse(r)
	if err != nil {
		response.ErrorFromType(w, err)
		return
	}
	req.Filter = f
	h.search(w, r, req)
}

func (h *Handlers) search(w http.ResponseWriter, r *http.Request, req SearchRequest) {
	req.Query = strings.TrimSpace(req.Query)
	if req.Query == "" {
		response.ErrorFromType(w, errors.NewValidationError("query", "", "must not be empty"))
		return
	}
	if req.Limit < 0 || req.Limit > MaxLimit {
		response.ErrorFromType(w, errors.NewValidationError("limit", req.Limit, "must be between 1 and "+strconv.Itoa(MaxLimit)))
		return
	}

	ctx := r.Context()
	key := searchKey(req)
	if h.cache != nil {
		cached, hit := h.cache.Get(ctx, key)
		h.recordLookup(hit)
		if hit {
			if resp, ok := replay(cached); ok {
				w.Header().Set(middleware.CacheHeader, "HIT")
				response.OK(w, resp)
				return
			}
			logging.FromContext(ctx).Warn().Str("key", key).Msg("Discarding unreadable cached search")
		}
		w.Header().Set(middleware.CacheHeader, "MISS")
	}

	var (
		result *federation.Result
		err    error
	)
	if req.Intent != nil {
		result, err = h.client.Search(ctx, req.Query, *req.Intent, req.Limit)
	} else {
		result, err = h.client.SearchText(ctx, req.Query, req.Limit)
	}
	if err != nil {
		logging.FromContext(ctx).Error().Err(err).Msg("Search failed")
		response.ErrorFromType(w, err)
		return
	}

	filtered := *result
	filtered.Ranked = req.Filter.Apply(result.Ranked)
	resp := SearchResponse{Result: &filtered, Filtered: len(result.Ranked) - len(filtered.Ranked)}

	data, err := json.Marshal(resp)
	if err != nil {
		response.InternalError(w, err)
		return
	}
	// Degraded answers are not cached so a recovered catalog is seen at once.
	if h.cache != nil && len(result.Summary.Unavailable) == 0 {
		h.cache.Set(ctx, key, data)
	}
	response.Raw(w, http.StatusOK, data)
}

// replay decodes a cached response and gives it a request ID of its own.
func replay(data []byte) (SearchResponse, bool) {
	var resp SearchResponse
	if err := json.Unmarshal(data, &resp); err != nil || resp.Result == nil {
		return SearchResponse{}, false
	}
	resp.RequestID = uuid.NewString()
	return resp, true
}

func (h *Handlers) recordLookup(hit bool) {
	if h.recorder != nil {
		h.recorder.RecordCacheLookup(hit)
	}
}

// searchKey identifies a request by everything that shapes its answer.
func searchKey(req SearchRequest) string {
	intent, _ := json.Marshal(req.Intent)
	f, _ := json.Marshal(req.Filter)
	return cache.Key(req.Query, string(intent), cache.KeyInt(req.Limit), string(f))
}
