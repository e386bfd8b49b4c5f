package api

import (
	"context"
	"encoding/json"
	"errors"
	"net/http"
	"time"

	"go.uber.org/zap"

	"github.com/NAVEENKUMARKR777/UnicraftTech-Web-Scraping-Tool-Assignment/internal/domain"
	"github.com/NAVEENKUMARKR777/UnicraftTech-Web-Scraping-Tool-Assignment/internal/orchestrator"
	"github.com/NAVEENKUMARKR777/UnicraftTech-Web-Scraping-Tool-Assignment/internal/output"
)

// handleScrapeRequest runs a batch synchronously and returns the full result.
// Either a URL list or a discovery query must be supplied.
func (s *Server) handleScrapeRequest(w http.ResponseWriter, r *http.Request) {
	var req domain.ScrapeRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		s.respondWithError(w, http.StatusBadRequest, "Invalid request body")
		return
	}

	if len(req.URLs) == 0 && req.Query == "" {
		s.respondWithError(w, http.StatusBadRequest, "Either urls or query must be provided")
		return
	}

	tier := domain.TierBasic
	if req.Level != "" {
		var err error
		tier, err = domain.ParseTier(req.Level)
		if err != nil {
			s.respondWithError(w, http.StatusBadRequest, err.Error())
			return
		}
	}

	maxResults := req.MaxResults
	if maxResults <= 0 {
		maxResults = s.config.MaxSearchResults
	}

	var (
		result *domain.BatchResult
		err    error
	)
	if len(req.URLs) > 0 {
		result, err = s.orch.RunURLs(r.Context(), req.URLs, tier)
	} else {
		result, err = s.orch.RunQuery(r.Context(), req.Query, tier, maxResults)
	}
	if err != nil {
		if errors.Is(err, orchestrator.ErrNoCandidates) {
			s.respondWithError(w, http.StatusNotFound, err.Error())
			return
		}
		s.logger.Error("scrape batch failed", zap.Error(err))
		s.respondWithError(w, http.StatusInternalServerError, "Scrape batch failed")
		return
	}

	// An export format in the request also writes the batch to disk.
	savedPath := ""
	if req.Format != "" && len(result.Succeeded) > 0 {
		format, err := output.ParseFormat(req.Format)
		if err != nil {
			s.respondWithError(w, http.StatusBadRequest, err.Error())
			return
		}
		savedPath, err = s.writer.Save(result.Succeeded, format, "companies_data")
		if err != nil {
			s.logger.Error("failed to save batch output", zap.Error(err))
		}
	}

	s.respondWithJSON(w, http.StatusOK, map[string]any{
		"result":     result,
		"saved_path": savedPath,
	})
}

func (s *Server) handleDiscoverRequest(w http.ResponseWriter, r *http.Request) {
	var req domain.DiscoverRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		s.respondWithError(w, http.StatusBadRequest, "Invalid request body")
		return
	}
	if req.Query == "" {
		s.respondWithError(w, http.StatusBadRequest, "Query cannot be empty")
		return
	}

	maxResults := req.MaxResults
	if maxResults <= 0 {
		maxResults = s.config.MaxSearchResults
	}

	urls, err := s.engine.Discover(r.Context(), req.Query, maxResults)
	if err != nil {
		s.logger.Error("discovery failed", zap.Error(err))
		s.respondWithError(w, http.StatusInternalServerError, "Discovery failed")
		return
	}

	s.respondWithJSON(w, http.StatusOK, map[string]any{
		"query": req.Query,
		"count": len(urls),
		"urls":  urls,
	})
}

func (s *Server) handleCompanyLookup(w http.ResponseWriter, r *http.Request) {
	if s.pgStore == nil {
		s.respondWithError(w, http.StatusServiceUnavailable, "Persistence is not configured")
		return
	}
	urlParam := r.URL.Query().Get("url")
	if urlParam == "" {
		s.respondWithError(w, http.StatusBadRequest, "URL query parameter is required")
		return
	}

	record, err := s.pgStore.GetRecord(r.Context(), urlParam)
	if err != nil {
		if err.Error() == "not_found" {
			s.respondWithError(w, http.StatusNotFound, "Company not found")
			return
		}
		s.logger.Error("failed to load company record", zap.Error(err))
		s.respondWithError(w, http.StatusInternalServerError, "Could not retrieve company")
		return
	}

	s.respondWithJSON(w, http.StatusOK, record)
}

func (s *Server) handleProxyStats(w http.ResponseWriter, r *http.Request) {
	s.respondWithJSON(w, http.StatusOK, s.pool.GetStats())
}

func (s *Server) handleHealthCheck(w http.ResponseWriter, r *http.Request) {
	ctx, cancel := context.WithTimeout(context.Background(), 2*time.Second)
	defer cancel()

	healthStatus := map[string]string{"scraper": "healthy"}
	healthy := true

	if s.pgStore != nil {
		if err := s.pgStore.Ping(ctx); err != nil {
			healthStatus["postgres"] = "unhealthy"
			healthy = false
			s.logger.Error("health check failed for postgres", zap.Error(err))
		} else {
			healthStatus["postgres"] = "healthy"
		}
	}
	if s.redisStore != nil {
		if err := s.redisStore.Ping(ctx); err != nil {
			healthStatus["redis"] = "unhealthy"
			healthy = false
			s.logger.Error("health check failed for redis", zap.Error(err))
		} else {
			healthStatus["redis"] = "healthy"
		}
	}

	if !healthy {
		s.respondWithJSON(w, http.StatusServiceUnavailable, healthStatus)
		return
	}
	s.respondWithJSON(w, http.StatusOK, healthStatus)
}

// --- Helper Functions ---

func (s *Server) respondWithError(w http.ResponseWriter, code int, message string) {
	s.respondWithJSON(w, code, map[string]string{"error": message})
}

func (s *Server) respondWithJSON(w http.ResponseWriter, code int, payload interface{}) {
	response, _ := json.Marshal(payload)
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(code)
	w.Write(response)
}
