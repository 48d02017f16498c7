package handlers

import (
	"net/http"
	"strconv"

	"github.com/go-chi/chi/v5"
	"github.com/jobsterhq/jobster-be/internal/apperror"
	"github.com/jobsterhq/jobster-be/internal/auth"
	"github.com/jobsterhq/jobster-be/internal/filter"
	"github.com/jobsterhq/jobster-be/internal/models"
	"github.com/jobsterhq/jobster-be/internal/services"
	"github.com/rs/zerolog/log"
)

// JobHandler handles HTTP requests for job postings.
type JobHandler struct {
	service       services.JobServiceProvider
	maxUploadSize int64
}

// NewJobHandler creates a new JobHandler.
func NewJobHandler(service services.JobServiceProvider, maxUploadSize int64) *JobHandler {
	return &JobHandler{service: service, maxUploadSize: maxUploadSize}
}

// List returns postings shaped by the query filter builder.
func (h *JobHandler) List(w http.ResponseWriter, r *http.Request) {
	q, err := filter.Parse(r.URL.Query(), services.JobFilterOptions)
	if err != nil {
		apperror.Write(w, r, err)
		return
	}

	jobs, err := h.service.List(q)
	if err != nil {
		apperror.Write(w, r, err)
		return
	}
	total, err := h.service.Count(q)
	if err != nil {
		apperror.Write(w, r, err)
		return
	}
	writeJSON(w, http.StatusOK, envelope{
		"success": true,
		"results": len(jobs),
		"total":   total,
		"data":    projectFields(jobs, q.Fields),
	})
}

// Get returns a single posting; the id and slug must match together.
func (h *JobHandler) Get(w http.ResponseWriter, r *http.Request) {
	job, err := h.service.GetByIDAndSlug(chi.URLParam(r, "id"), chi.URLParam(r, "slug"))
	if err != nil {
		apperror.Write(w, r, err)
		return
	}
	writeJSON(w, http.StatusOK, envelope{"success": true, "data": job})
}

// InRadius returns postings within the given distance (miles) of a zipcode.
func (h *JobHandler) InRadius(w http.ResponseWriter, r *http.Request) {
	distance, err := strconv.ParseFloat(chi.URLParam(r, "distance"), 64)
	if err != nil || distance <= 0 {
		apperror.Write(w, r, apperror.NewValidation("Distance must be a positive number of miles", err))
		return
	}

	jobs, err := h.service.InRadius(r.Context(), chi.URLParam(r, "zipcode"), distance)
	if err != nil {
		apperror.Write(w, r, err)
		return
	}
	writeJSON(w, http.StatusOK, envelope{"success": true, "results": len(jobs), "data": jobs})
}

// Stats returns aggregated posting statistics for a topic, grouped by
// experience bracket.
func (h *JobHandler) Stats(w http.ResponseWriter, r *http.Request) {
	stats, err := h.service.Stats(chi.URLParam(r, "topic"))
	if err != nil {
		apperror.Write(w, r, err)
		return
	}
	writeJSON(w, http.StatusOK, envelope{"success": true, "data": stats})
}

// Create publishes a new posting owned by the authenticated employer.
func (h *JobHandler) Create(w http.ResponseWriter, r *http.Request) {
	claims, ok := auth.ClaimsFromContext(r.Context())
	if !ok {
		apperror.Write(w, r, apperror.NewAuthentication("Login first to access this resource", nil))
		return
	}

	var job models.Job
	if err := decodeBody(r, &job); err != nil {
		apperror.Write(w, r, err)
		return
	}
	job.UserID = claims.UserID

	created, err := h.service.Create(r.Context(), job)
	if err != nil {
		apperror.Write(w, r, err)
		return
	}

	log.Info().Str("job_id", created.ID).Str("user_id", claims.UserID).Msg("Job created")
	writeJSON(w, http.StatusCreated, envelope{"success": true, "message": "Job created", "data": created})
}

// Update modifies a posting; only the owner or an admin may do so.
func (h *JobHandler) Update(w http.ResponseWriter, r *http.Request) {
	claims, ok := auth.ClaimsFromContext(r.Context())
	if !ok {
		apperror.Write(w, r, apperror.NewAuthentication("Login first to access this resource", nil))
		return
	}

	var updates models.Job
	if err := decodeBody(r, &updates); err != nil {
		apperror.Write(w, r, err)
		return
	}

	actor := &services.Actor{UserID: claims.UserID, Role: claims.Role}
	job, err := h.service.Update(r.Context(), chi.URLParam(r, "id"), updates, actor)
	if err != nil {
		apperror.Write(w, r, err)
		return
	}
	writeJSON(w, http.StatusOK, envelope{"success": true, "message": "Job updated", "data": job})
}

// Delete removes a posting; only the owner or an admin may do so.
func (h *JobHandler) Delete(w http.ResponseWriter, r *http.Request) {
	claims, ok := auth.ClaimsFromContext(r.Context())
	if !ok {
		apperror.Write(w, r, apperror.NewAuthentication("Login first to access this resource", nil))
		return
	}

	actor := &services.Actor{UserID: claims.UserID, Role: claims.Role}
	if err := h.service.Delete(chi.URLParam(r, "id"), actor); err != nil {
		apperror.Write(w, r, err)
		return
	}
	writeJSON(w, http.StatusOK, envelope{"success": true, "message": "Job deleted"})
}

// Apply submits an application with an uploaded resume. Applicant role only.
func (h *JobHandler) Apply(w http.ResponseWriter, r *http.Request) {
	claims, ok := auth.ClaimsFromContext(r.Context())
	if !ok {
		apperror.Write(w, r, apperror.NewAuthentication("Login first to access this resource", nil))
		return
	}

	// Cap the whole request body; multipart framing gets a little headroom.
	r.Body = http.MaxBytesReader(w, r.Body, h.maxUploadSize+64*1024)
	if err := r.ParseMultipartForm(h.maxUploadSize); err != nil {
		apperror.Write(w, r, apperror.NewUpload("Uploaded file is too large", err))
		return
	}

	file, header, err := r.FormFile("file")
	if err != nil {
		apperror.Write(w, r, apperror.NewUpload("Please upload your resume", err))
		return
	}
	defer file.Close()

	app, err := h.service.Apply(chi.URLParam(r, "id"), claims.UserID, header.Filename, header.Size, file)
	if err != nil {
		apperror.Write(w, r, err)
		return
	}

	log.Info().Str("job_id", app.JobID).Str("user_id", claims.UserID).Msg("Application submitted")
	writeJSON(w, http.StatusOK, envelope{"success": true, "message": "Applied to job successfully", "data": app})
}

// Applied lists the postings the authenticated applicant has applied to.
func (h *JobHandler) Applied(w http.ResponseWriter, r *http.Request) {
	claims, ok := auth.ClaimsFromContext(r.Context())
	if !ok {
		apperror.Write(w, r, apperror.NewAuthentication("Login first to access this resource", nil))
		return
	}

	jobs, err := h.service.AppliedJobs(claims.UserID)
	if err != nil {
		apperror.Write(w, r, err)
		return
	}
	writeJSON(w, http.StatusOK, envelope{"success": true, "results": len(jobs), "data": jobs})
}

// Published lists the postings owned by the authenticated employer.
func (h *JobHandler) Published(w http.ResponseWriter, r *http.Request) {
	claims, ok := auth.ClaimsFromContext(r.Context())
	if !ok {
		apperror.Write(w, r, apperror.NewAuthentication("Login first to access this resource", nil))
		return
	}

	jobs, err := h.service.PublishedJobs(claims.UserID)
	if err != nil {
		apperror.Write(w, r, err)
		return
	}
	writeJSON(w, http.StatusOK, envelope{"success": true, "results": len(jobs), "data": jobs})
}
