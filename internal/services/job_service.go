package services

import (
	"context"
	"database/sql"
	"encoding/json"
	"io"
	"strings"
	"time"

	"github.com/google/uuid"
	"github.com/jobsterhq/jobster-be/internal/apperror"
	"github.com/jobsterhq/jobster-be/internal/filter"
	"github.com/jobsterhq/jobster-be/internal/geo"
	"github.com/jobsterhq/jobster-be/internal/models"
	"github.com/jobsterhq/jobster-be/internal/storage"
	"github.com/jobsterhq/jobster-be/internal/websocket"
	"github.com/rs/zerolog/log"
)

// jobColumns is the scan order shared by every job query.
const jobColumns = `id, title, slug, description, email, address, latitude, longitude,
	formatted_address, city, state, zipcode, country, company, industries_json,
	job_type, min_education, positions, experience, salary, posting_date, last_date, user_id`

// JobServiceProvider defines the interface for job posting services.
type JobServiceProvider interface {
	List(q *filter.Query) ([]models.Job, error)
	Count(q *filter.Query) (int, error)
	GetByIDAndSlug(id, slug string) (models.Job, error)
	GetByID(id string) (models.Job, error)
	Create(ctx context.Context, job models.Job) (models.Job, error)
	Update(ctx context.Context, id string, updates models.Job, actor *Actor) (models.Job, error)
	Delete(id string, actor *Actor) error
	InRadius(ctx context.Context, zipcode string, distanceMiles float64) ([]models.Job, error)
	Stats(topic string) ([]models.JobStats, error)
	Apply(jobID, userID, filename string, size int64, file io.Reader) (models.Application, error)
	AppliedJobs(userID string) ([]models.Job, error)
	PublishedJobs(userID string) ([]models.Job, error)
}

// Actor identifies who is performing a mutation, for the ownership check.
type Actor struct {
	UserID string
	Role   string
}

// mayMutate is the resource-ownership predicate: the posting's owner or an
// admin may change it. Applied after the role guard, per route.
func (a *Actor) mayMutate(job *models.Job) bool {
	return a.Role == models.RoleAdmin || a.UserID == job.UserID
}

// JobService provides business logic for job posting management.
type JobService struct {
	db       *sql.DB
	geocoder geo.Geocoder
	store    *storage.UploadStore
	hub      *websocket.Hub
}

// NewJobService creates a new JobService.
func NewJobService(db *sql.DB, geocoder geo.Geocoder, store *storage.UploadStore, hub *websocket.Hub) *JobService {
	return &JobService{db: db, geocoder: geocoder, store: store, hub: hub}
}

// JobFilterOptions is the per-resource whitelist for the query filter
// builder on the jobs listing.
var JobFilterOptions = filter.Options{
	Columns: []filter.Column{
		{Name: "id", SQL: "id"},
		{Name: "title", SQL: "title"},
		{Name: "slug", SQL: "slug"},
		{Name: "description", SQL: "description"},
		{Name: "email", SQL: "email"},
		{Name: "address", SQL: "address"},
		{Name: "latitude", SQL: "latitude"},
		{Name: "longitude", SQL: "longitude"},
		{Name: "formattedAddress", SQL: "formatted_address"},
		{Name: "city", SQL: "city"},
		{Name: "state", SQL: "state"},
		{Name: "zipcode", SQL: "zipcode"},
		{Name: "country", SQL: "country"},
		{Name: "company", SQL: "company"},
		{Name: "industry", SQL: "industries_json"},
		{Name: "jobType", SQL: "job_type"},
		{Name: "minEducation", SQL: "min_education"},
		{Name: "positions", SQL: "positions"},
		{Name: "experience", SQL: "experience"},
		{Name: "salary", SQL: "salary"},
		{Name: "postingDate", SQL: "posting_date"},
		{Name: "lastDate", SQL: "last_date"},
		{Name: "user", SQL: "user_id"},
	},
	Filterable: map[string]string{
		"company":      "company",
		"jobType":      "job_type",
		"minEducation": "min_education",
		"experience":   "experience",
		"positions":    "positions",
		"salary":       "salary",
		"city":         "city",
		"country":      "country",
	},
	Membership: map[string]string{
		"industry": "industries_json",
	},
	Sortable: map[string]string{
		"title":       "title",
		"company":     "company",
		"salary":      "salary",
		"positions":   "positions",
		"postingDate": "posting_date",
		"lastDate":    "last_date",
	},
	Search:      "title",
	DefaultSort: "-postingDate",
}

// List returns postings matching a parsed filter query. Rows are always
// scanned in full; the field projection is applied when the handler renders
// the response.
func (s *JobService) List(q *filter.Query) ([]models.Job, error) {
	stmt, args := q.SelectSQL("jobs", jobColumns)
	rows, err := s.db.Query(stmt, args...)
	if err != nil {
		return nil, err
	}
	defer rows.Close()
	return scanJobs(rows)
}

// Count returns the number of postings matching the query's predicates and
// search term, across all pages.
func (s *JobService) Count(q *filter.Query) (int, error) {
	stmt, args := q.CountSQL("jobs")
	var n int
	err := s.db.QueryRow(stmt, args...).Scan(&n)
	return n, err
}

// GetByIDAndSlug retrieves one posting; the id and slug must both match.
func (s *JobService) GetByIDAndSlug(id, slug string) (models.Job, error) {
	row := s.db.QueryRow("SELECT "+jobColumns+" FROM jobs WHERE id = ? AND slug = ?", id, slug)
	job, err := scanJob(row)
	if err != nil {
		if err == sql.ErrNoRows {
			return models.Job{}, apperror.NewNotFound("Job not found", nil)
		}
		return models.Job{}, err
	}
	return job, nil
}

// GetByID retrieves one posting by id only.
func (s *JobService) GetByID(id string) (models.Job, error) {
	row := s.db.QueryRow("SELECT "+jobColumns+" FROM jobs WHERE id = ?", id)
	job, err := scanJob(row)
	if err != nil {
		if err == sql.ErrNoRows {
			return models.Job{}, apperror.NewNotFound("Job not found", nil)
		}
		return models.Job{}, err
	}
	return job, nil
}

// Create validates, geocodes, and persists a new posting. A geocoding
// failure fails the write; a posting never lands without a location.
func (s *JobService) Create(ctx context.Context, job models.Job) (models.Job, error) {
	job.ApplyDefaults(time.Now())
	if err := job.Validate(); err != nil {
		return models.Job{}, apperror.NewValidation(err.Error(), nil)
	}

	loc, err := s.geocoder.Geocode(ctx, job.Address)
	if err != nil {
		return models.Job{}, err
	}
	job.Location = &loc
	job.ID = uuid.New().String()

	if err := s.insertJob(&job); err != nil {
		return models.Job{}, err
	}

	s.hub.BroadcastEvent(websocket.ActionJobCreated, job)
	return job, nil
}

// Update applies changes to a posting after the ownership check. The slug
// is recomputed whenever the title changes, and the address is re-geocoded
// when it changes.
func (s *JobService) Update(ctx context.Context, id string, updates models.Job, actor *Actor) (models.Job, error) {
	job, err := s.GetByID(id)
	if err != nil {
		return models.Job{}, err
	}
	if !actor.mayMutate(&job) {
		return models.Job{}, apperror.NewAuthorization("You are not allowed to update this job", nil)
	}

	addressChanged := updates.Address != "" && updates.Address != job.Address
	mergeJob(&job, &updates)
	job.Slug = models.Slugify(job.Title)
	if err := job.Validate(); err != nil {
		return models.Job{}, apperror.NewValidation(err.Error(), nil)
	}

	// A stored row may predate geocoding and carry NULL coordinates; never
	// write through a nil location.
	if addressChanged || job.Location == nil {
		loc, err := s.geocoder.Geocode(ctx, job.Address)
		if err != nil {
			return models.Job{}, err
		}
		job.Location = &loc
	}

	industries, err := json.Marshal(job.Industries)
	if err != nil {
		return models.Job{}, err
	}
	_, err = s.db.Exec(`UPDATE jobs SET title = ?, slug = ?, description = ?, email = ?, address = ?,
		latitude = ?, longitude = ?, formatted_address = ?, city = ?, state = ?, zipcode = ?, country = ?,
		company = ?, industries_json = ?, job_type = ?, min_education = ?, positions = ?, experience = ?,
		salary = ?, last_date = ? WHERE id = ?`,
		job.Title, job.Slug, job.Description, job.Email, job.Address,
		job.Location.Latitude, job.Location.Longitude, job.Location.FormattedAddress,
		job.Location.City, job.Location.State, job.Location.Zipcode, job.Location.Country,
		job.Company, string(industries), job.JobType, job.MinEducation, job.Positions,
		job.Experience, job.Salary, job.LastDate, job.ID)
	if err != nil {
		return models.Job{}, err
	}

	s.hub.BroadcastEvent(websocket.ActionJobUpdated, job)
	return job, nil
}

// Delete removes a posting and its applicants' resume files.
func (s *JobService) Delete(id string, actor *Actor) error {
	job, err := s.GetByID(id)
	if err != nil {
		return err
	}
	if !actor.mayMutate(&job) {
		return apperror.NewAuthorization("You are not allowed to delete this job", nil)
	}

	if err := s.removeResumes("job_id = ?", id); err != nil {
		log.Warn().Err(err).Str("job_id", id).Msg("Failed to remove resume files for deleted job")
	}

	// Application rows cascade via the foreign key.
	if _, err := s.db.Exec("DELETE FROM jobs WHERE id = ?", id); err != nil {
		return err
	}

	s.hub.BroadcastEvent(websocket.ActionJobDeleted, map[string]string{"id": id})
	return nil
}

// InRadius returns postings within distanceMiles of the zipcode's resolved
// coordinates. Candidates come from a bounding-box query; the exact
// great-circle distance filters them.
func (s *JobService) InRadius(ctx context.Context, zipcode string, distanceMiles float64) ([]models.Job, error) {
	loc, err := s.geocoder.Geocode(ctx, zipcode)
	if err != nil {
		return nil, err
	}

	minLat, maxLat, minLng, maxLng := geo.BoundingBox(loc.Latitude, loc.Longitude, distanceMiles)
	rows, err := s.db.Query("SELECT "+jobColumns+` FROM jobs
		WHERE latitude BETWEEN ? AND ? AND longitude BETWEEN ? AND ?`,
		minLat, maxLat, minLng, maxLng)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	candidates, err := scanJobs(rows)
	if err != nil {
		return nil, err
	}

	var jobs []models.Job
	for _, job := range candidates {
		if job.Location == nil {
			continue
		}
		if geo.Miles(loc.Latitude, loc.Longitude, job.Location.Latitude, job.Location.Longitude) <= distanceMiles {
			jobs = append(jobs, job)
		}
	}
	return jobs, nil
}

// Stats aggregates postings whose title matches the topic, grouped by
// experience bracket.
func (s *JobService) Stats(topic string) ([]models.JobStats, error) {
	rows, err := s.db.Query(`SELECT experience, COUNT(*), AVG(positions), AVG(salary), MIN(salary), MAX(salary)
		FROM jobs WHERE lower(title) LIKE ? GROUP BY experience`,
		"%"+strings.ToLower(topic)+"%")
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var stats []models.JobStats
	for rows.Next() {
		var st models.JobStats
		if err := rows.Scan(&st.Experience, &st.TotalJobs, &st.AvgPositions, &st.AvgSalary, &st.MinSalary, &st.MaxSalary); err != nil {
			return nil, err
		}
		stats = append(stats, st)
	}
	if len(stats) == 0 {
		return nil, apperror.NewNotFound("No stats found for - "+topic, nil)
	}
	return stats, rows.Err()
}

// Apply submits one application: deadline check, duplicate check, resume
// upload, record insert. The file write and the row insert are not
// transactional; a crash between them leaves an orphaned file.
func (s *JobService) Apply(jobID, userID, filename string, size int64, file io.Reader) (models.Application, error) {
	job, err := s.GetByID(jobID)
	if err != nil {
		return models.Application{}, err
	}
	if !job.AcceptsApplications(time.Now()) {
		return models.Application{}, apperror.NewValidation("You cannot apply to this job. Date is over", nil)
	}

	var existing int
	if err := s.db.QueryRow("SELECT COUNT(*) FROM applications WHERE job_id = ? AND user_id = ?", jobID, userID).Scan(&existing); err != nil {
		return models.Application{}, err
	}
	if existing > 0 {
		return models.Application{}, apperror.NewValidation("You have already applied for this job", nil)
	}

	resume, err := s.store.SaveResume(userID, jobID, filename, size, file)
	if err != nil {
		return models.Application{}, err
	}

	app := models.Application{
		ID:         uuid.New().String(),
		JobID:      jobID,
		UserID:     userID,
		ResumeFile: resume,
		AppliedAt:  time.Now(),
	}
	_, err = s.db.Exec("INSERT INTO applications(id, job_id, user_id, resume_file, applied_at) VALUES(?, ?, ?, ?, ?)",
		app.ID, app.JobID, app.UserID, app.ResumeFile, app.AppliedAt)
	if err != nil {
		if isUniqueViolation(err) {
			return models.Application{}, apperror.NewValidation("You have already applied for this job", nil)
		}
		return models.Application{}, err
	}
	return app, nil
}

// AppliedJobs lists the postings an applicant has applied to.
func (s *JobService) AppliedJobs(userID string) ([]models.Job, error) {
	rows, err := s.db.Query("SELECT "+jobColumns+` FROM jobs
		WHERE id IN (SELECT job_id FROM applications WHERE user_id = ?)`, userID)
	if err != nil {
		return nil, err
	}
	defer rows.Close()
	return scanJobs(rows)
}

// PublishedJobs lists the postings owned by an employer.
func (s *JobService) PublishedJobs(userID string) ([]models.Job, error) {
	rows, err := s.db.Query("SELECT "+jobColumns+" FROM jobs WHERE user_id = ?", userID)
	if err != nil {
		return nil, err
	}
	defer rows.Close()
	return scanJobs(rows)
}

func (s *JobService) insertJob(job *models.Job) error {
	industries, err := json.Marshal(job.Industries)
	if err != nil {
		return err
	}
	_, err = s.db.Exec(`INSERT INTO jobs(id, title, slug, description, email, address,
		latitude, longitude, formatted_address, city, state, zipcode, country,
		company, industries_json, job_type, min_education, positions, experience,
		salary, posting_date, last_date, user_id)
		VALUES(?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?)`,
		job.ID, job.Title, job.Slug, job.Description, job.Email, job.Address,
		job.Location.Latitude, job.Location.Longitude, job.Location.FormattedAddress,
		job.Location.City, job.Location.State, job.Location.Zipcode, job.Location.Country,
		job.Company, string(industries), job.JobType, job.MinEducation, job.Positions,
		job.Experience, job.Salary, job.PostingDate, job.LastDate, job.UserID)
	return err
}

// removeResumes deletes the stored files for every application matching the
// condition. Rows themselves are removed by the caller.
func (s *JobService) removeResumes(cond string, args ...interface{}) error {
	rows, err := s.db.Query("SELECT resume_file FROM applications WHERE "+cond, args...)
	if err != nil {
		return err
	}
	defer rows.Close()

	for rows.Next() {
		var file string
		if err := rows.Scan(&file); err != nil {
			return err
		}
		if err := s.store.Remove(file); err != nil {
			log.Warn().Err(err).Str("file", file).Msg("Failed to remove resume file")
		}
	}
	return rows.Err()
}

// mergeJob copies the non-zero fields of updates onto job.
func mergeJob(job, updates *models.Job) {
	if updates.Title != "" {
		job.Title = updates.Title
	}
	if updates.Description != "" {
		job.Description = updates.Description
	}
	if updates.Email != "" {
		job.Email = updates.Email
	}
	if updates.Address != "" {
		job.Address = updates.Address
	}
	if updates.Company != "" {
		job.Company = updates.Company
	}
	if len(updates.Industries) > 0 {
		job.Industries = updates.Industries
	}
	if updates.JobType != "" {
		job.JobType = updates.JobType
	}
	if updates.MinEducation != "" {
		job.MinEducation = updates.MinEducation
	}
	if updates.Positions > 0 {
		job.Positions = updates.Positions
	}
	if updates.Experience != "" {
		job.Experience = updates.Experience
	}
	if updates.Salary > 0 {
		job.Salary = updates.Salary
	}
	if !updates.LastDate.IsZero() {
		job.LastDate = updates.LastDate
	}
}

// scanJob reads one posting row in jobColumns order.
func scanJob(row interface{ Scan(...interface{}) error }) (models.Job, error) {
	var job models.Job
	var email, formatted, city, state, zipcode, country sql.NullString
	var lat, lng sql.NullFloat64
	var industriesJSON string
	var lastDate sql.NullTime

	err := row.Scan(
		&job.ID, &job.Title, &job.Slug, &job.Description, &email, &job.Address,
		&lat, &lng, &formatted, &city, &state, &zipcode, &country,
		&job.Company, &industriesJSON, &job.JobType, &job.MinEducation,
		&job.Positions, &job.Experience, &job.Salary, &job.PostingDate, &lastDate, &job.UserID,
	)
	if err != nil {
		return models.Job{}, err
	}

	job.Email = email.String
	if lat.Valid && lng.Valid {
		job.Location = &models.Location{
			Latitude:         lat.Float64,
			Longitude:        lng.Float64,
			FormattedAddress: formatted.String,
			City:             city.String,
			State:            state.String,
			Zipcode:          zipcode.String,
			Country:          country.String,
		}
	}
	if lastDate.Valid {
		job.LastDate = lastDate.Time
	}
	if industriesJSON != "" {
		if err := json.Unmarshal([]byte(industriesJSON), &job.Industries); err != nil {
			return models.Job{}, err
		}
	}
	return job, nil
}

func scanJobs(rows *sql.Rows) ([]models.Job, error) {
	var jobs []models.Job
	for rows.Next() {
		job, err := scanJob(rows)
		if err != nil {
			return nil, err
		}
		jobs = append(jobs, job)
	}
	return jobs, rows.Err()
}

// isUniqueViolation detects a unique-constraint failure from the driver.
func isUniqueViolation(err error) bool {
	return err != nil && strings.Contains(err.Error(), "UNIQUE constraint failed")
}
