package apperror

import (
	"encoding/json"
	"errors"
	"fmt"
	"net/http"
	"net/http/httptest"
	"testing"
)

func TestStatusCodes(t *testing.T) {
	tests := []struct {
		err    *AppError
		status int
	}{
		{NewValidation("bad input", nil), http.StatusBadRequest},
		{NewDuplicate("duplicate", nil), http.StatusBadRequest},
		{NewUpload("bad file", nil), http.StatusBadRequest},
		{NewNotFound("missing", nil), http.StatusNotFound},
		{NewAuthentication("who are you", nil), http.StatusUnauthorized},
		{NewAuthorization("not yours", nil), http.StatusForbidden},
		{NewGeocoding("lookup failed", nil), http.StatusBadGateway},
		{NewInternal("boom", nil), http.StatusInternalServerError},
	}
	for _, tc := range tests {
		if got := tc.err.StatusCode(); got != tc.status {
			t.Errorf("%s: status = %d, want %d", tc.err.TypeName(), got, tc.status)
		}
	}
}

func TestErrorWrapping(t *testing.T) {
	cause := errors.New("disk full")
	err := NewUpload("Failed to store the uploaded file", cause)

	if !errors.Is(err, cause) {
		t.Error("cause not reachable through Unwrap")
	}
	if err.Error() != "Failed to store the uploaded file: disk full" {
		t.Errorf("Error() = %q", err.Error())
	}

	wrapped := fmt.Errorf("handler: %w", err)
	if !IsType(wrapped, UploadError) {
		t.Error("IsType fails through wrapping")
	}
	if IsType(wrapped, NotFoundError) {
		t.Error("IsType matches the wrong type")
	}
	if IsType(nil, UploadError) {
		t.Error("IsType matches nil")
	}
}

func TestWriteDevelopmentEnvelope(t *testing.T) {
	SetProduction(false)

	rec := httptest.NewRecorder()
	req := httptest.NewRequest(http.MethodGet, "/api/v1/jobs", nil)
	Write(rec, req, NewNotFound("Job not found", nil))

	if rec.Code != http.StatusNotFound {
		t.Fatalf("status = %d", rec.Code)
	}
	var body map[string]interface{}
	if err := json.Unmarshal(rec.Body.Bytes(), &body); err != nil {
		t.Fatal(err)
	}
	if body["success"] != false || body["error"] != "NotFoundError" || body["errMessage"] != "Job not found" {
		t.Errorf("body = %v", body)
	}
	if body["stack"] == nil {
		t.Error("development envelope has no stack")
	}
}

func TestWriteProductionEnvelope(t *testing.T) {
	SetProduction(true)
	defer SetProduction(false)

	rec := httptest.NewRecorder()
	req := httptest.NewRequest(http.MethodGet, "/api/v1/jobs", nil)
	Write(rec, req, NewValidation("Please enter a job title", nil))

	var body map[string]interface{}
	if err := json.Unmarshal(rec.Body.Bytes(), &body); err != nil {
		t.Fatal(err)
	}
	if body["success"] != false || body["message"] != "Please enter a job title" {
		t.Errorf("body = %v", body)
	}
	if body["stack"] != nil || body["errMessage"] != nil {
		t.Errorf("production envelope leaks internals: %v", body)
	}
}

func TestWriteUnclassifiedError(t *testing.T) {
	SetProduction(false)

	rec := httptest.NewRecorder()
	req := httptest.NewRequest(http.MethodGet, "/", nil)
	Write(rec, req, errors.New("sql: connection refused"))

	if rec.Code != http.StatusInternalServerError {
		t.Errorf("status = %d, want 500", rec.Code)
	}
}
