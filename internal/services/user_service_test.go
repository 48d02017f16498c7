package services

import (
	"net/url"
	"strings"
	"testing"
	"time"

	"github.com/jobsterhq/jobster-be/internal/apperror"
	"github.com/jobsterhq/jobster-be/internal/filter"
	"github.com/jobsterhq/jobster-be/internal/models"
)

func parseUserQuery(t *testing.T, raw string) *filter.Query {
	t.Helper()
	values, err := url.ParseQuery(raw)
	if err != nil {
		t.Fatalf("bad query %q: %v", raw, err)
	}
	q, err := filter.Parse(values, UserFilterOptions)
	if err != nil {
		t.Fatalf("parse %q: %v", raw, err)
	}
	return q
}

func TestRegister(t *testing.T) {
	env := newTestEnv(t)

	user, err := env.users.Register("Alice", "alice@example.com", "password123", "")
	if err != nil {
		t.Fatalf("Register: %v", err)
	}
	if user.Role != models.RoleApplicant {
		t.Errorf("Role = %q, want default applicant", user.Role)
	}
	if user.PasswordHash == "password123" || user.PasswordHash == "" {
		t.Error("password stored without hashing")
	}

	_, err = env.users.Register("Alice Again", "alice@example.com", "password123", models.RoleEmployer)
	if !apperror.IsDuplicate(err) {
		t.Errorf("expected DuplicateError for reused email, got %v", err)
	}
}

func TestRegisterRejectsBadInput(t *testing.T) {
	env := newTestEnv(t)

	if _, err := env.users.Register("Eve", "eve@example.com", "password123", models.RoleAdmin); !apperror.IsValidation(err) {
		t.Errorf("admin self-registration: %v", err)
	}
	if _, err := env.users.Register("Eve", "eve@example.com", "password123", "wizard"); !apperror.IsValidation(err) {
		t.Errorf("unknown role: %v", err)
	}
	if _, err := env.users.Register("Eve", "eve@example.com", "short", ""); !apperror.IsValidation(err) {
		t.Errorf("short password: %v", err)
	}
}

func TestAuthenticate(t *testing.T) {
	env := newTestEnv(t)
	if _, err := env.users.Register("Alice", "alice@example.com", "password123", ""); err != nil {
		t.Fatal(err)
	}

	user, err := env.users.Authenticate("alice@example.com", "password123")
	if err != nil {
		t.Fatalf("Authenticate: %v", err)
	}
	if user.Email != "alice@example.com" {
		t.Errorf("user = %+v", user)
	}

	if _, err := env.users.Authenticate("alice@example.com", "wrongpass"); !apperror.IsType(err, apperror.AuthenticationError) {
		t.Errorf("wrong password: %v", err)
	}
	if _, err := env.users.Authenticate("nobody@example.com", "password123"); !apperror.IsType(err, apperror.AuthenticationError) {
		t.Errorf("unknown email: %v", err)
	}
}

func TestUpdateAccount(t *testing.T) {
	env := newTestEnv(t)
	user := env.newUser(t, models.RoleApplicant)

	got, err := env.users.UpdateAccount(user.ID, "New Name", "")
	if err != nil {
		t.Fatalf("UpdateAccount: %v", err)
	}
	if got.Name != "New Name" || got.Email != user.Email {
		t.Errorf("updated = %+v", got)
	}

	other := env.newUser(t, models.RoleApplicant)
	if _, err := env.users.UpdateAccount(other.ID, "", user.Email); !apperror.IsDuplicate(err) {
		t.Errorf("expected DuplicateError for taken email, got %v", err)
	}
}

func TestUpdatePassword(t *testing.T) {
	env := newTestEnv(t)
	user := env.newUser(t, models.RoleApplicant)

	if _, err := env.users.UpdatePassword(user.ID, "wrongpass", "newpassword1"); !apperror.IsType(err, apperror.AuthenticationError) {
		t.Fatalf("wrong current password: %v", err)
	}
	if _, err := env.users.UpdatePassword(user.ID, "password123", "tiny"); !apperror.IsValidation(err) {
		t.Fatalf("short new password: %v", err)
	}

	if _, err := env.users.UpdatePassword(user.ID, "password123", "newpassword1"); err != nil {
		t.Fatalf("UpdatePassword: %v", err)
	}
	if _, err := env.users.Authenticate(user.Email, "newpassword1"); err != nil {
		t.Errorf("new password rejected: %v", err)
	}
	if _, err := env.users.Authenticate(user.Email, "password123"); err == nil {
		t.Error("old password still accepted")
	}
}

func TestPasswordResetFlow(t *testing.T) {
	env := newTestEnv(t)
	user := env.newUser(t, models.RoleApplicant)

	plain, got, err := env.users.ForgotPassword(user.Email, 30*time.Minute)
	if err != nil {
		t.Fatalf("ForgotPassword: %v", err)
	}
	if got.ID != user.ID || plain == "" {
		t.Fatalf("plain=%q user=%+v", plain, got)
	}

	stored, err := env.users.GetByID(user.ID)
	if err != nil {
		t.Fatal(err)
	}
	if stored.ResetTokenHash == "" || stored.ResetTokenHash == plain {
		t.Error("reset token not stored as a hash")
	}

	if _, err := env.users.ResetPassword(plain, "brandnewpass"); err != nil {
		t.Fatalf("ResetPassword: %v", err)
	}
	if _, err := env.users.Authenticate(user.Email, "brandnewpass"); err != nil {
		t.Errorf("reset password rejected: %v", err)
	}

	// The token is single-use.
	if _, err := env.users.ResetPassword(plain, "anotherpass1"); !apperror.IsValidation(err) {
		t.Errorf("reused token: %v", err)
	}
}

func TestPasswordResetExpiredToken(t *testing.T) {
	env := newTestEnv(t)
	user := env.newUser(t, models.RoleApplicant)

	plain, _, err := env.users.ForgotPassword(user.Email, 30*time.Minute)
	if err != nil {
		t.Fatal(err)
	}
	if _, err := env.db.Exec("UPDATE users SET reset_token_expires = ? WHERE id = ?", time.Now().Add(-time.Minute), user.ID); err != nil {
		t.Fatal(err)
	}

	if _, err := env.users.ResetPassword(plain, "brandnewpass"); !apperror.IsValidation(err) {
		t.Errorf("expired token: %v", err)
	}
	if _, err := env.users.ResetPassword("bogus-token", "brandnewpass"); !apperror.IsValidation(err) {
		t.Errorf("unknown token: %v", err)
	}
}

func TestForgotPasswordUnknownEmail(t *testing.T) {
	env := newTestEnv(t)
	if _, _, err := env.users.ForgotPassword("nobody@example.com", 30*time.Minute); !apperror.IsNotFound(err) {
		t.Errorf("expected NotFound, got %v", err)
	}
}

func TestClearExpiredResetTokens(t *testing.T) {
	env := newTestEnv(t)
	expired := env.newUser(t, models.RoleApplicant)
	fresh := env.newUser(t, models.RoleApplicant)

	if _, _, err := env.users.ForgotPassword(expired.Email, 30*time.Minute); err != nil {
		t.Fatal(err)
	}
	if _, _, err := env.users.ForgotPassword(fresh.Email, 30*time.Minute); err != nil {
		t.Fatal(err)
	}
	if _, err := env.db.Exec("UPDATE users SET reset_token_expires = ? WHERE id = ?", time.Now().Add(-time.Minute), expired.ID); err != nil {
		t.Fatal(err)
	}

	n, err := env.users.ClearExpiredResetTokens()
	if err != nil {
		t.Fatalf("ClearExpiredResetTokens: %v", err)
	}
	if n != 1 {
		t.Errorf("cleared %d tokens, want 1", n)
	}

	got, err := env.users.GetByID(expired.ID)
	if err != nil {
		t.Fatal(err)
	}
	if got.ResetTokenHash != "" || got.ResetTokenExpires != nil {
		t.Errorf("expired token not cleared: %+v", got)
	}
	got, err = env.users.GetByID(fresh.ID)
	if err != nil {
		t.Fatal(err)
	}
	if got.ResetTokenHash == "" {
		t.Error("fresh token was cleared")
	}
}

func TestGetProfileIncludesPublishedJobs(t *testing.T) {
	env := newTestEnv(t)
	employer := env.newUser(t, models.RoleEmployer)
	env.postJob(t, employer.ID, "Backend Engineer")
	env.postJob(t, employer.ID, "Frontend Engineer")

	profile, err := env.users.GetProfile(employer.ID)
	if err != nil {
		t.Fatalf("GetProfile: %v", err)
	}
	if profile.User.ID != employer.ID {
		t.Errorf("profile user = %+v", profile.User)
	}
	if len(profile.JobsPublished) != 2 {
		t.Errorf("JobsPublished = %+v", profile.JobsPublished)
	}
}

func TestDeleteApplicantAccount(t *testing.T) {
	env := newTestEnv(t)
	employer := env.newUser(t, models.RoleEmployer)
	applicant := env.newUser(t, models.RoleApplicant)
	job := env.postJob(t, employer.ID, "Backend Engineer")

	resume := strings.NewReader("resume body")
	if _, err := env.jobs.Apply(job.ID, applicant.ID, "cv.pdf", int64(resume.Len()), resume); err != nil {
		t.Fatal(err)
	}

	if err := env.users.DeleteAccount(applicant.ID); err != nil {
		t.Fatalf("DeleteAccount: %v", err)
	}
	if _, err := env.users.GetByID(applicant.ID); !apperror.IsNotFound(err) {
		t.Errorf("account still present: %v", err)
	}
	var count int
	if err := env.db.QueryRow("SELECT COUNT(*) FROM applications WHERE user_id = ?", applicant.ID).Scan(&count); err != nil {
		t.Fatal(err)
	}
	if count != 0 {
		t.Errorf("applications left behind, count = %d", count)
	}
	// The posting itself survives.
	if _, err := env.jobs.GetByID(job.ID); err != nil {
		t.Errorf("posting removed with applicant: %v", err)
	}
}

func TestDeleteEmployerAccount(t *testing.T) {
	env := newTestEnv(t)
	employer := env.newUser(t, models.RoleEmployer)
	applicant := env.newUser(t, models.RoleApplicant)
	job := env.postJob(t, employer.ID, "Backend Engineer")

	resume := strings.NewReader("resume body")
	if _, err := env.jobs.Apply(job.ID, applicant.ID, "cv.pdf", int64(resume.Len()), resume); err != nil {
		t.Fatal(err)
	}

	if err := env.users.DeleteAccount(employer.ID); err != nil {
		t.Fatalf("DeleteAccount: %v", err)
	}
	if _, err := env.jobs.GetByID(job.ID); !apperror.IsNotFound(err) {
		t.Errorf("posting survived employer deletion: %v", err)
	}
	var count int
	if err := env.db.QueryRow("SELECT COUNT(*) FROM applications").Scan(&count); err != nil {
		t.Fatal(err)
	}
	if count != 0 {
		t.Errorf("applications survived employer deletion, count = %d", count)
	}
	// The applicant's own account is untouched.
	if _, err := env.users.GetByID(applicant.ID); err != nil {
		t.Errorf("applicant removed with employer: %v", err)
	}
}

func TestListUsers(t *testing.T) {
	env := newTestEnv(t)
	env.newUser(t, models.RoleApplicant)
	env.newUser(t, models.RoleEmployer)
	env.newUser(t, models.RoleEmployer)

	users, err := env.users.List(parseUserQuery(t, "role=employer"))
	if err != nil {
		t.Fatalf("List: %v", err)
	}
	if len(users) != 2 {
		t.Errorf("got %d employers, want 2", len(users))
	}
	for _, u := range users {
		if u.Role != models.RoleEmployer {
			t.Errorf("unexpected role %q", u.Role)
		}
	}

	total, err := env.users.Count(parseUserQuery(t, "role=employer"))
	if err != nil {
		t.Fatalf("Count: %v", err)
	}
	if total != 2 {
		t.Errorf("Count = %d, want 2", total)
	}
}
