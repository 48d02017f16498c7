package models

import (
	"fmt"
	"strings"
	"time"
	"unicode"
)

// Enumerated sets for posting attributes.
var (
	Industries = []string{
		"Business",
		"Information Technology",
		"Banking",
		"Education",
		"Telecommunication",
		"Others",
	}
	JobTypes    = []string{"Permanent", "Temporary", "Internship"}
	Educations  = []string{"Bachelors", "Masters", "Phd"}
	Experiences = []string{"No Experience", "1 Year - 2 Years", "2 Years - 5 Years", "5 Years+"}
)

// DefaultDeadlineDays is how far past the posting date applications stay open
// when no explicit deadline is given.
const DefaultDeadlineDays = 7

// Location holds geocoded coordinates and normalized locality fields.
type Location struct {
	Latitude         float64 `json:"latitude"`
	Longitude        float64 `json:"longitude"`
	FormattedAddress string  `json:"formattedAddress"`
	City             string  `json:"city"`
	State            string  `json:"state"`
	Zipcode          string  `json:"zipcode"`
	Country          string  `json:"country"`
}

// Job represents a single job posting.
type Job struct {
	ID           string    `json:"id"`
	Title        string    `json:"title"`
	Slug         string    `json:"slug"`
	Description  string    `json:"description"`
	Email        string    `json:"email,omitempty"`
	Address      string    `json:"address"`
	Location     *Location `json:"location,omitempty"`
	Company      string    `json:"company"`
	Industries   []string  `json:"industry"`
	JobType      string    `json:"jobType"`
	MinEducation string    `json:"minEducation"`
	Positions    int       `json:"positions"`
	Experience   string    `json:"experience"`
	Salary       int       `json:"salary"`
	PostingDate  time.Time `json:"postingDate"`
	LastDate     time.Time `json:"lastDate"`
	UserID       string    `json:"user"`
}

// JobStats is one aggregation bucket, grouped by experience bracket.
type JobStats struct {
	Experience   string  `json:"experience"`
	TotalJobs    int     `json:"totalJobs"`
	AvgPositions float64 `json:"avgPositions"`
	AvgSalary    float64 `json:"avgSalary"`
	MinSalary    int     `json:"minSalary"`
	MaxSalary    int     `json:"maxSalary"`
}

// Application records one applicant's submission against a posting.
type Application struct {
	ID         string    `json:"id"`
	JobID      string    `json:"jobId"`
	UserID     string    `json:"userId"`
	ResumeFile string    `json:"resume"`
	AppliedAt  time.Time `json:"appliedAt"`
}

// ApplyDefaults fills posting date, deadline, and position count when unset.
func (j *Job) ApplyDefaults(now time.Time) {
	if j.PostingDate.IsZero() {
		j.PostingDate = now
	}
	if j.LastDate.IsZero() {
		j.LastDate = j.PostingDate.AddDate(0, 0, DefaultDeadlineDays)
	}
	if j.Positions <= 0 {
		j.Positions = 1
	}
	j.Slug = Slugify(j.Title)
}

// Validate checks required fields, length limits, and enum membership.
// It collects every violation so the client sees all field problems at once.
func (j *Job) Validate() error {
	var problems []string

	switch {
	case strings.TrimSpace(j.Title) == "":
		problems = append(problems, "Please enter a job title")
	case len(j.Title) > 100:
		problems = append(problems, "Job title cannot exceed 100 characters")
	}
	switch {
	case strings.TrimSpace(j.Description) == "":
		problems = append(problems, "Please enter a job description")
	case len(j.Description) > 1000:
		problems = append(problems, "Job description cannot exceed 1000 characters")
	}
	if strings.TrimSpace(j.Address) == "" {
		problems = append(problems, "Please add an address")
	}
	if strings.TrimSpace(j.Company) == "" {
		problems = append(problems, "Please add a company name")
	}
	if len(j.Industries) == 0 {
		problems = append(problems, "Please enter at least one industry")
	}
	for _, ind := range j.Industries {
		if !contains(Industries, ind) {
			problems = append(problems, fmt.Sprintf("Invalid industry %q", ind))
		}
	}
	if !contains(JobTypes, j.JobType) {
		problems = append(problems, fmt.Sprintf("Invalid job type %q", j.JobType))
	}
	if !contains(Educations, j.MinEducation) {
		problems = append(problems, fmt.Sprintf("Invalid minimum education %q", j.MinEducation))
	}
	if !contains(Experiences, j.Experience) {
		problems = append(problems, fmt.Sprintf("Invalid experience %q", j.Experience))
	}
	if j.Salary <= 0 {
		problems = append(problems, "Please enter the expected salary for this job")
	}

	if len(problems) > 0 {
		return fmt.Errorf("%s", strings.Join(problems, "; "))
	}
	return nil
}

// AcceptsApplications reports whether the deadline has not yet passed.
func (j *Job) AcceptsApplications(now time.Time) bool {
	return now.Before(j.LastDate)
}

// Slugify derives the URL-safe identifier from a title. Lowercased, with
// every run of non-alphanumeric characters collapsed to a single hyphen.
func Slugify(title string) string {
	var b strings.Builder
	lastHyphen := true // suppress a leading hyphen
	for _, r := range strings.ToLower(title) {
		if unicode.IsLetter(r) || unicode.IsDigit(r) {
			b.WriteRune(r)
			lastHyphen = false
		} else if !lastHyphen {
			b.WriteByte('-')
			lastHyphen = true
		}
	}
	return strings.TrimSuffix(b.String(), "-")
}

func contains(set []string, v string) bool {
	for _, s := range set {
		if s == v {
			return true
		}
	}
	return false
}
