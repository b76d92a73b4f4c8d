package api

import (
	"net/http"

	"github.com/involution-sh/involution/cache"
	"github.com/involution-sh/involution/serving"
)

// errorEnvelope is the wire shape of every error response.
type errorEnvelope struct {
	Code   string `json:"code"`
	Title  string `json:"title"`
	Detail string `json:"detail,omitempty"`
	Tip    string `json:"tip,omitempty"`
}

func (s *Server) writeError(w http.ResponseWriter, r *http.Request, e *serving.Error) {
	e.Count()
	log.WithFields(map[string]interface{}{
		"code":      e.Code,
		"requestId": requestID(r.Context()),
	}).Debug("Request failed")
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(e.Status)
	_ = codec.NewEncoder(w).Encode(errorEnvelope{
		Code:   e.Code,
		Title:  e.Title,
		Detail: e.Detail,
		Tip:    e.Tip,
	})
}

func (s *Server) writeJSON(w http.ResponseWriter, status int, v interface{}) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	if err := codec.NewEncoder(w).Encode(v); err != nil {
		log.WithError(err).Error("Could not write response")
	}
}

func (s *Server) handlePositions(w http.ResponseWriter, r *http.Request) {
	var req serving.PositionsRequest
	if err := codec.NewDecoder(r.Body).Decode(&req); err != nil {
		s.writeError(w, r, serving.InvalidJSON(err))
		return
	}

	ctx, cancel := s.requestContext(r)
	defer cancel()

	reply, serr := s.svc.Positions(ctx, &req)
	if serr != nil {
		s.writeError(w, r, serr)
		return
	}

	w.Header().Set("Content-Type", "application/json")
	w.Header().Set("ETag", `"`+reply.ETag+`"`)
	if reply.Tier == cache.TierNone {
		w.Header().Set("X-Cache", "miss")
	} else {
		w.Header().Set("X-Cache", "hit")
	}
	w.WriteHeader(http.StatusOK)
	if _, err := w.Write(reply.Payload); err != nil {
		log.WithError(err).Debug("Client went away before response write")
	}
}

func (s *Server) handleResolve(w http.ResponseWriter, r *http.Request) {
	var req serving.ResolveRequest
	if err := codec.NewDecoder(r.Body).Decode(&req); err != nil {
		s.writeError(w, r, serving.InvalidJSON(err))
		return
	}
	res, serr := s.svc.ResolveTime(&req)
	if serr != nil {
		s.writeError(w, r, serr)
		return
	}
	res.UTCString = res.UTC.Format("2006-01-02T15:04:05Z")
	s.writeJSON(w, http.StatusOK, res)
}

func (s *Server) handleAyanamshas(w http.ResponseWriter, r *http.Request) {
	s.writeJSON(w, http.StatusOK, map[string]interface{}{
		"ayanamshas": s.svc.Ayanamshas(),
	})
}

func (s *Server) handleHealthz(w http.ResponseWriter, r *http.Request) {
	h := s.svc.HealthSnapshot()
	if s.cfg.ServiceStatuses != nil {
		h.Services = make(map[string]string)
		for typ, err := range s.cfg.ServiceStatuses() {
			if err != nil {
				h.Services[typ.String()] = err.Error()
				if h.Status == "healthy" {
					h.Status = "degraded"
				}
				continue
			}
			h.Services[typ.String()] = "ok"
		}
	}
	status := http.StatusOK
	if h.Status == "unhealthy" {
		status = http.StatusServiceUnavailable
	}
	s.writeJSON(w, status, h)
}
