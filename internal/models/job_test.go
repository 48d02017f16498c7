package models

import (
	"strings"
	"testing"
	"time"
)

func validJob() Job {
	return Job{
		Title:        "Backend Engineer",
		Description:  "Build and operate the posting API",
		Address:      "200 Main St, Boston, MA",
		Company:      "Jobster",
		Industries:   []string{"Information Technology"},
		JobType:      "Permanent",
		MinEducation: "Bachelors",
		Experience:   "1 Year - 2 Years",
		Salary:       90000,
	}
}

func TestSlugify(t *testing.T) {
	tests := []struct{ title, want string }{
		{"Backend Engineer", "backend-engineer"},
		{"Node.js Developer (Remote)", "node-js-developer-remote"},
		{"  Senior   Gopher  ", "senior-gopher"},
		{"C++ Engineer!!!", "c-engineer"},
		{"already-slugged", "already-slugged"},
		{"123 Numbers", "123-numbers"},
		{"", ""},
	}
	for _, tc := range tests {
		if got := Slugify(tc.title); got != tc.want {
			t.Errorf("Slugify(%q) = %q, want %q", tc.title, got, tc.want)
		}
	}
}

func TestApplyDefaults(t *testing.T) {
	now := time.Date(2026, 3, 1, 12, 0, 0, 0, time.UTC)

	j := validJob()
	j.ApplyDefaults(now)

	if !j.PostingDate.Equal(now) {
		t.Errorf("PostingDate = %v, want %v", j.PostingDate, now)
	}
	want := now.AddDate(0, 0, DefaultDeadlineDays)
	if !j.LastDate.Equal(want) {
		t.Errorf("LastDate = %v, want %v", j.LastDate, want)
	}
	if j.Positions != 1 {
		t.Errorf("Positions = %d, want 1", j.Positions)
	}
	if j.Slug != "backend-engineer" {
		t.Errorf("Slug = %q", j.Slug)
	}
}

func TestApplyDefaultsKeepsExplicitValues(t *testing.T) {
	now := time.Date(2026, 3, 1, 12, 0, 0, 0, time.UTC)
	posted := now.AddDate(0, 0, -2)
	deadline := now.AddDate(0, 0, 14)

	j := validJob()
	j.PostingDate = posted
	j.LastDate = deadline
	j.Positions = 3
	j.ApplyDefaults(now)

	if !j.PostingDate.Equal(posted) || !j.LastDate.Equal(deadline) || j.Positions != 3 {
		t.Errorf("explicit values overwritten: %+v", j)
	}
}

func TestValidateAcceptsCompleteJob(t *testing.T) {
	j := validJob()
	if err := j.Validate(); err != nil {
		t.Errorf("unexpected validation error: %v", err)
	}
}

func TestValidateCollectsAllProblems(t *testing.T) {
	j := Job{}
	err := j.Validate()
	if err == nil {
		t.Fatal("expected validation errors for empty job")
	}
	msg := err.Error()
	for _, want := range []string{
		"Please enter a job title",
		"Please enter a job description",
		"Please add an address",
		"Please add a company name",
		"Please enter at least one industry",
		"Please enter the expected salary",
	} {
		if !strings.Contains(msg, want) {
			t.Errorf("missing %q in %q", want, msg)
		}
	}
}

func TestValidateEnumMembership(t *testing.T) {
	tests := []struct {
		name   string
		mutate func(*Job)
		want   string
	}{
		{"industry", func(j *Job) { j.Industries = []string{"Astrology"} }, `Invalid industry "Astrology"`},
		{"jobType", func(j *Job) { j.JobType = "Gig" }, `Invalid job type "Gig"`},
		{"education", func(j *Job) { j.MinEducation = "Kindergarten" }, `Invalid minimum education "Kindergarten"`},
		{"experience", func(j *Job) { j.Experience = "Decades" }, `Invalid experience "Decades"`},
	}
	for _, tc := range tests {
		j := validJob()
		tc.mutate(&j)
		err := j.Validate()
		if err == nil || !strings.Contains(err.Error(), tc.want) {
			t.Errorf("%s: err = %v, want substring %q", tc.name, err, tc.want)
		}
	}
}

func TestValidateLengthLimits(t *testing.T) {
	j := validJob()
	j.Title = strings.Repeat("x", 101)
	if err := j.Validate(); err == nil || !strings.Contains(err.Error(), "100 characters") {
		t.Errorf("long title: %v", err)
	}

	j = validJob()
	j.Description = strings.Repeat("x", 1001)
	if err := j.Validate(); err == nil || !strings.Contains(err.Error(), "1000 characters") {
		t.Errorf("long description: %v", err)
	}
}

func TestAcceptsApplications(t *testing.T) {
	now := time.Date(2026, 3, 1, 12, 0, 0, 0, time.UTC)
	j := validJob()
	j.LastDate = now.Add(time.Hour)
	if !j.AcceptsApplications(now) {
		t.Error("open deadline rejected")
	}
	j.LastDate = now.Add(-time.Hour)
	if j.AcceptsApplications(now) {
		t.Error("past deadline accepted")
	}
	j.LastDate = now
	if j.AcceptsApplications(now) {
		t.Error("deadline instant should be closed")
	}
}
