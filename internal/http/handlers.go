package http

import (
	"context"
	"net/http"
	"time"

	applog "panel/internal/log"
	"panel/internal/middleware/trace"
	"panel/internal/services"
)

const readyTimeout = 3 * time.Second

// StatusResponse reports request counters for /api/status.
type StatusResponse struct {
	Requests           int64 `json:"requests"`
	AvgResponseMicros  int64 `json:"avgResponseMicros"`
	RateLimitHits      int64 `json:"rateLimitHits"`
	ActiveClients      int64 `json:"activeClients"`
	SuspiciousRequests int64 `json:"suspiciousRequests"`
	InvalidIPAttempts  int64 `json:"invalidIpAttempts"`
}

// handleMetrics serves GET /api/metrics?from=&to=&label=&compare=.
func (s *Server) handleMetrics(w http.ResponseWriter, r *http.Request) {
	reqID := trace.RequestIDFromRequest(r)
	if rb := RequireGET(r); rb != nil {
		rb.Write(w, reqID)
		return
	}

	ctx := r.Context()
	q, err := ParseRangeQuery(r.URL.Query(), s.metrics.DateParser(), s.now().In(s.location))
	if err != nil {
		BadRequestError(err.Error()).Write(w, reqID)
		return
	}

	res, err := s.metrics.Snapshot(ctx, q.Range, q.Compare)
	if err != nil {
		s.writeServiceError(ctx, w, reqID, applog.OpSnapshot, err)
		return
	}

	s.structured.LogSnapshot(ctx, applog.OpSnapshot,
		q.Range.From.String(), q.Range.To.String(),
		len(res.Snapshot.Alerts), res.CacheHit)

	cacheHeader := "MISS"
	if res.CacheHit {
		cacheHeader = "HIT"
	}
	NewJSONResponse().
		Header("X-Cache", cacheHeader).
		JSON(res.Snapshot).
		Write(w, reqID)
}

// handleCompute serves POST /api/metrics/compute: the body carries every
// record, nothing is fetched or cached.
func (s *Server) handleCompute(w http.ResponseWriter, r *http.Request) {
	reqID := trace.RequestIDFromRequest(r)
	if rb := RequirePOST(r); rb != nil {
		rb.Write(w, reqID)
		return
	}

	ctx := r.Context()
	var req services.ComputeRequest
	if err := DecodeJSONBody(w, r, &req, MaxBodyBytes); err != nil {
		ErrorResponse(bodyErrorStatus(err), err.Error()).Write(w, reqID)
		return
	}

	snap, err := s.metrics.Compute(req)
	if err != nil {
		s.writeServiceError(ctx, w, reqID, applog.OpCompute, err)
		return
	}

	s.structured.LogSnapshot(ctx, applog.OpCompute,
		req.Range.From.String(), req.Range.To.String(),
		len(snap.Alerts), false)

	NewJSONResponse().JSON(snap).Write(w, reqID)
}

func bodyErrorStatus(err error) int {
	if status := errorStatus(err); status == http.StatusRequestEntityTooLarge {
		return status
	}
	return http.StatusBadRequest
}

func (s *Server) writeServiceError(ctx context.Context, w http.ResponseWriter, reqID, op string, err error) {
	status := errorStatus(err)
	if status < http.StatusInternalServerError {
		s.logger.WarnContext(ctx, "Rejected metrics request",
			applog.FieldOperation, op,
			applog.FieldError, err.Error())
		ErrorResponse(status, err.Error()).Write(w, reqID)
		return
	}

	s.structured.LogError(ctx, "Metrics request failed", err, applog.ComponentMetrics, op, nil)
	msg := "record source unavailable"
	if status == http.StatusGatewayTimeout {
		msg = "record source timed out"
	}
	ErrorResponse(status, msg).Write(w, reqID)
}

func (s *Server) handleStatus(w http.ResponseWriter, r *http.Request) {
	reqID := trace.RequestIDFromRequest(r)
	if rb := RequireGET(r); rb != nil {
		rb.Write(w, reqID)
		return
	}

	tm := s.tracer.GetMetrics()
	rm := s.limiter.GetMetrics()
	dm := s.detector.GetMetrics()
	NewJSONResponse().JSON(StatusResponse{
		Requests:           tm.TotalRequests,
		AvgResponseMicros:  tm.AverageResponseTime,
		RateLimitHits:      rm.TotalHits,
		ActiveClients:      rm.ClientCount,
		SuspiciousRequests: dm.SuspiciousRequests,
		InvalidIPAttempts:  dm.InvalidIPAttempts,
	}).Write(w, reqID)
}

func (s *Server) handleNotFound(w http.ResponseWriter, r *http.Request) {
	NotFoundError("not found").Write(w, trace.RequestIDFromRequest(r))
}

func handleHealth(w http.ResponseWriter, r *http.Request) {
	NewJSONResponse().JSON(map[string]string{"status": "ok"}).Write(w, "")
}

// handleReady checks that the record source answers.
func (s *Server) handleReady(w http.ResponseWriter, r *http.Request) {
	ctx, cancel := context.WithTimeout(r.Context(), readyTimeout)
	defer cancel()

	if err := s.metrics.Ping(ctx); err != nil {
		s.logger.WarnContext(ctx, "Readiness check failed", applog.FieldError, err.Error())
		ServiceUnavailableError("record source unavailable").Write(w, trace.RequestIDFromRequest(r))
		return
	}
	NewJSONResponse().JSON(map[string]string{"status": "ready"}).Write(w, "")
}
