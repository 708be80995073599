package service

import (
	"encoding/json"
	"errors"
	"io"
	"net/http"

	"github.com/ethereum/go-ethereum/log"

	"github.com/ethereum-optimism/infra/farmsync"
	"github.com/ethereum-optimism/infra/farmsync/metrics"
	"github.com/ethereum-optimism/infra/farmsync/provider"
	"github.com/ethereum-optimism/infra/farmsync/reporting"
	"github.com/ethereum-optimism/infra/farmsync/types"
)

const maxRequestBody = 1 << 20

// ReportRequest is the body of POST /v1/report
type ReportRequest struct {
	TestName  string `json:"test_name"`
	Driver    string `json:"driver"`
	SessionID string `json:"session_id"`
	Phase     string `json:"phase"`
	Passed    bool   `json:"passed"`
	XFail     bool   `json:"xfail"`
}

// ReportResponse is returned by POST /v1/report. Skipped is set when the driver
// does not belong to the provider.
type ReportResponse struct {
	Skipped bool              `json:"skipped,omitempty"`
	Outcome *types.Outcome    `json:"outcome,omitempty"`
	Summary []string          `json:"summary"`
	Extras  []reporting.Extra `json:"extras"`
}

// CapabilitiesRequest is the body of POST /v1/capabilities
type CapabilitiesRequest struct {
	TestName     string          `json:"test_name"`
	Capabilities json.RawMessage `json:"capabilities,omitempty"`
}

type errorResponse struct {
	Error string `json:"error"`
}

type handlers struct {
	hook *farmsync.Hook
	log  log.Logger
}

func (h *handlers) report(w http.ResponseWriter, r *http.Request) {
	var req ReportRequest
	if err := decodeBody(r, &req); err != nil {
		writeError(w, http.StatusBadRequest, err)
		return
	}
	if req.SessionID == "" {
		writeError(w, http.StatusBadRequest, errors.New("session_id is required"))
		return
	}
	if req.Phase == "" {
		req.Phase = string(types.PhaseCall)
	}
	if req.TestName == "" {
		req.TestName = req.SessionID
	}

	item := farmsync.TestItem{Name: req.TestName, Driver: req.Driver, SessionID: req.SessionID}
	verdict := types.Verdict{Passed: req.Passed, WasExpectedFailure: req.XFail, Phase: types.Phase(req.Phase)}

	resp := ReportResponse{Summary: []string{}, Extras: []reporting.Extra{}}
	outcome, err := h.hook.OnTestReport(r.Context(), item, verdict, &resp.Summary, &resp.Extras)
	if err != nil {
		metrics.RecordErrorDetails("report", err)
		h.log.Error("Failed to report test", "test", item.Name, "session", item.SessionID, "err", err)
		writeError(w, http.StatusInternalServerError, err)
		return
	}
	resp.Outcome = outcome
	resp.Skipped = outcome == nil
	writeJSON(w, http.StatusOK, resp)
}

func (h *handlers) capabilities(w http.ResponseWriter, r *http.Request) {
	var req CapabilitiesRequest
	if err := decodeBody(r, &req); err != nil {
		writeError(w, http.StatusBadRequest, err)
		return
	}
	if req.TestName == "" {
		writeError(w, http.StatusBadRequest, errors.New("test_name is required"))
		return
	}
	caps := provider.NewCapabilities()
	if len(req.Capabilities) > 0 && string(req.Capabilities) != "null" {
		if err := caps.UnmarshalJSON(req.Capabilities); err != nil {
			writeError(w, http.StatusBadRequest, err)
			return
		}
	}
	sessionReq, err := h.hook.SessionRequest(req.TestName, caps)
	if err != nil {
		writeError(w, http.StatusInternalServerError, err)
		return
	}
	writeJSON(w, http.StatusOK, sessionReq)
}

func (h *handlers) healthz(w http.ResponseWriter, _ *http.Request) {
	_, _ = w.Write([]byte("OK"))
}

func decodeBody(r *http.Request, out any) error {
	dec := json.NewDecoder(io.LimitReader(r.Body, maxRequestBody))
	dec.DisallowUnknownFields()
	return dec.Decode(out)
}

func writeError(w http.ResponseWriter, code int, err error) {
	writeJSON(w, code, errorResponse{Error: err.Error()})
}

func writeJSON(w http.ResponseWriter, code int, v any) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(code)
	_ = json.NewEncoder(w).Encode(v)
}
