package handler

import (
	"context"
	"encoding/json"
	"net/http"

	"attendance.service/internal/core/model"
)

// CaptureService is the core service contract the handler drives.
type CaptureService interface {
	CapturePunch(ctx context.Context, businessID, employeeID string, method model.PunchMethod, deviceContext string) (string, error)
}

type PunchHandler struct {
	Service CaptureService
}

type PunchRequest struct {
	BusinessID    string `json:"businessId"`
	EmployeeID    string `json:"employeeId"`
	Method        string `json:"method"`
	DeviceContext string `json:"deviceContext,omitempty"`
}

func (h *PunchHandler) CapturePunch(w http.ResponseWriter, r *http.Request) {
	var req PunchRequest

	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		http.Error(w, "Invalid request body", http.StatusBadRequest)
		return
	}

	if req.EmployeeID == "" || req.BusinessID == "" {
		http.Error(w, "businessId and employeeId are required", http.StatusBadRequest)
		return
	}

	if req.DeviceContext == "" {
		req.DeviceContext = r.UserAgent()
	}

	punchID, err := h.Service.CapturePunch(r.Context(), req.BusinessID, req.EmployeeID,
		model.ParsePunchMethod(req.Method), req.DeviceContext)
	if err != nil {
		http.Error(w, "Service error capturing punch", http.StatusInternalServerError)
		return
	}

	w.WriteHeader(http.StatusAccepted)
	json.NewEncoder(w).Encode(map[string]any{
		"punchId": punchID,
		"message": "Punch recorded for asynchronous reconciliation.",
	})
}
