package services

import (
	"database/sql"
	"time"

	"github.com/google/uuid"
	"github.com/jobsterhq/jobster-be/internal/apperror"
	"github.com/jobsterhq/jobster-be/internal/auth"
	"github.com/jobsterhq/jobster-be/internal/filter"
	"github.com/jobsterhq/jobster-be/internal/models"
	"github.com/jobsterhq/jobster-be/internal/storage"
	"github.com/rs/zerolog/log"
	"golang.org/x/crypto/bcrypt"
)

const userColumns = "id, name, email, role, password_hash, reset_token_hash, reset_token_expires, created_at"

// UserServiceProvider defines the interface for account services.
type UserServiceProvider interface {
	Register(name, email, password, role string) (models.User, error)
	Authenticate(email, password string) (models.User, error)
	GetByID(id string) (models.User, error)
	GetProfile(id string) (models.Profile, error)
	UpdateAccount(id, name, email string) (models.User, error)
	UpdatePassword(id, currentPassword, newPassword string) (models.User, error)
	ForgotPassword(email string, ttl time.Duration) (plainToken string, user models.User, err error)
	ResetPassword(plainToken, newPassword string) (models.User, error)
	DeleteAccount(id string) error
	List(q *filter.Query) ([]models.User, error)
	Count(q *filter.Query) (int, error)
	ClearExpiredResetTokens() (int64, error)
}

// UserService provides business logic for account management.
type UserService struct {
	db     *sql.DB
	tokens *auth.TokenService
	store  *storage.UploadStore
}

// NewUserService creates a new UserService.
func NewUserService(db *sql.DB, tokens *auth.TokenService, store *storage.UploadStore) *UserService {
	return &UserService{db: db, tokens: tokens, store: store}
}

// UserFilterOptions is the whitelist for the admin users listing.
var UserFilterOptions = filter.Options{
	Columns: []filter.Column{
		{Name: "id", SQL: "id"},
		{Name: "name", SQL: "name"},
		{Name: "email", SQL: "email"},
		{Name: "role", SQL: "role"},
		{Name: "createdAt", SQL: "created_at"},
	},
	Filterable: map[string]string{
		"name":  "name",
		"email": "email",
		"role":  "role",
	},
	Sortable: map[string]string{
		"name":      "name",
		"email":     "email",
		"createdAt": "created_at",
	},
	Search:      "name",
	DefaultSort: "-createdAt",
}

// Register creates a new account with a hashed password. The role defaults
// to applicant; admin accounts are never self-registered.
func (s *UserService) Register(name, email, password, role string) (models.User, error) {
	if role == "" {
		role = models.RoleApplicant
	}
	if role == models.RoleAdmin || !models.ValidRole(role) {
		return models.User{}, apperror.NewValidation("Please select a valid role", nil)
	}
	if len(password) < 8 {
		return models.User{}, apperror.NewValidation("Your password must be at least 8 characters long", nil)
	}

	hashed, err := bcrypt.GenerateFromPassword([]byte(password), bcrypt.DefaultCost)
	if err != nil {
		return models.User{}, err
	}

	user := models.User{
		ID:           uuid.New().String(),
		Name:         name,
		Email:        email,
		Role:         role,
		PasswordHash: string(hashed),
		CreatedAt:    time.Now(),
	}

	_, err = s.db.Exec("INSERT INTO users(id, name, email, role, password_hash, created_at) VALUES(?, ?, ?, ?, ?, ?)",
		user.ID, user.Name, user.Email, user.Role, user.PasswordHash, user.CreatedAt)
	if err != nil {
		if isUniqueViolation(err) {
			return models.User{}, apperror.NewDuplicate("Duplicate email entered", err)
		}
		return models.User{}, err
	}
	return user, nil
}

// Authenticate verifies credentials and returns the account.
func (s *UserService) Authenticate(email, password string) (models.User, error) {
	user, err := s.getByEmail(email)
	if err != nil {
		if apperror.IsNotFound(err) {
			return models.User{}, apperror.NewAuthentication("Invalid email or password", nil)
		}
		return models.User{}, err
	}
	if bcrypt.CompareHashAndPassword([]byte(user.PasswordHash), []byte(password)) != nil {
		return models.User{}, apperror.NewAuthentication("Invalid email or password", nil)
	}
	return user, nil
}

// GetByID retrieves a single account.
func (s *UserService) GetByID(id string) (models.User, error) {
	row := s.db.QueryRow("SELECT "+userColumns+" FROM users WHERE id = ?", id)
	return scanUser(row)
}

// GetProfile retrieves an account with its published postings resolved by
// an explicit join query.
func (s *UserService) GetProfile(id string) (models.Profile, error) {
	user, err := s.GetByID(id)
	if err != nil {
		return models.Profile{}, err
	}
	profile := models.Profile{User: user}

	rows, err := s.db.Query("SELECT id, title, posting_date FROM jobs WHERE user_id = ? ORDER BY posting_date DESC", id)
	if err != nil {
		return models.Profile{}, err
	}
	defer rows.Close()

	for rows.Next() {
		var job models.PublishedJob
		if err := rows.Scan(&job.ID, &job.Title, &job.PostingDate); err != nil {
			return models.Profile{}, err
		}
		profile.JobsPublished = append(profile.JobsPublished, job)
	}
	return profile, rows.Err()
}

// UpdateAccount updates non-sensitive profile information. Blank fields are
// left unchanged.
func (s *UserService) UpdateAccount(id, name, email string) (models.User, error) {
	user, err := s.GetByID(id)
	if err != nil {
		return models.User{}, err
	}
	if name != "" {
		user.Name = name
	}
	if email != "" {
		user.Email = email
	}

	_, err = s.db.Exec("UPDATE users SET name = ?, email = ? WHERE id = ?", user.Name, user.Email, id)
	if err != nil {
		if isUniqueViolation(err) {
			return models.User{}, apperror.NewDuplicate("Duplicate email entered", err)
		}
		return models.User{}, err
	}
	return user, nil
}

// UpdatePassword verifies the current password, then sets the new one.
func (s *UserService) UpdatePassword(id, currentPassword, newPassword string) (models.User, error) {
	user, err := s.GetByID(id)
	if err != nil {
		return models.User{}, err
	}
	if bcrypt.CompareHashAndPassword([]byte(user.PasswordHash), []byte(currentPassword)) != nil {
		return models.User{}, apperror.NewAuthentication("Old password is incorrect", nil)
	}
	if err := s.setPassword(id, newPassword); err != nil {
		return models.User{}, err
	}
	return user, nil
}

// ForgotPassword issues a reset token for the account, persisting only its
// hash with the expiry. The plaintext goes back to the caller for delivery.
func (s *UserService) ForgotPassword(email string, ttl time.Duration) (string, models.User, error) {
	user, err := s.getByEmail(email)
	if err != nil {
		return "", models.User{}, err
	}

	plain, hashed, err := s.tokens.IssueResetToken()
	if err != nil {
		return "", models.User{}, err
	}

	expires := time.Now().Add(ttl)
	_, err = s.db.Exec("UPDATE users SET reset_token_hash = ?, reset_token_expires = ? WHERE id = ?",
		hashed, expires, user.ID)
	if err != nil {
		return "", models.User{}, err
	}
	return plain, user, nil
}

// ResetPassword consumes a reset token: the hash must match an account, the
// expiry must not have passed, and the token is cleared on success.
func (s *UserService) ResetPassword(plainToken, newPassword string) (models.User, error) {
	row := s.db.QueryRow("SELECT "+userColumns+" FROM users WHERE reset_token_hash = ?", auth.HashResetToken(plainToken))
	user, err := scanUser(row)
	if err != nil {
		if apperror.IsNotFound(err) {
			return models.User{}, apperror.NewValidation("Password reset token is invalid", nil)
		}
		return models.User{}, err
	}

	if user.ResetTokenExpires == nil ||
		!s.tokens.VerifyResetToken(plainToken, user.ResetTokenHash, *user.ResetTokenExpires) {
		return models.User{}, apperror.NewValidation("Password reset token is invalid or has expired", nil)
	}

	if err := s.setPassword(user.ID, newPassword); err != nil {
		return models.User{}, err
	}
	_, err = s.db.Exec("UPDATE users SET reset_token_hash = NULL, reset_token_expires = NULL WHERE id = ?", user.ID)
	return user, err
}

// DeleteAccount closes an account with the cascades: an applicant's resume
// files and application rows go, an employer's postings go (taking their
// applications and resumes with them).
func (s *UserService) DeleteAccount(id string) error {
	user, err := s.GetByID(id)
	if err != nil {
		return err
	}

	switch user.Role {
	case models.RoleApplicant:
		if err := s.removeApplicantData(id); err != nil {
			return err
		}
	case models.RoleEmployer:
		if err := s.removeEmployerData(id); err != nil {
			return err
		}
	}

	_, err = s.db.Exec("DELETE FROM users WHERE id = ?", id)
	return err
}

// List returns accounts matching a parsed filter query, for admins.
func (s *UserService) List(q *filter.Query) ([]models.User, error) {
	stmt, args := q.SelectSQL("users", userColumns)
	rows, err := s.db.Query(stmt, args...)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var users []models.User
	for rows.Next() {
		user, err := scanUser(rows)
		if err != nil {
			return nil, err
		}
		users = append(users, user)
	}
	return users, rows.Err()
}

// Count returns the number of accounts matching the query's predicates and
// search term, across all pages.
func (s *UserService) Count(q *filter.Query) (int, error) {
	stmt, args := q.CountSQL("users")
	var n int
	err := s.db.QueryRow(stmt, args...).Scan(&n)
	return n, err
}

// ClearExpiredResetTokens removes reset token hashes whose expiry has
// passed. Called by the background sweeper.
func (s *UserService) ClearExpiredResetTokens() (int64, error) {
	res, err := s.db.Exec("UPDATE users SET reset_token_hash = NULL, reset_token_expires = NULL WHERE reset_token_expires IS NOT NULL AND reset_token_expires < ?", time.Now())
	if err != nil {
		return 0, err
	}
	return res.RowsAffected()
}

func (s *UserService) getByEmail(email string) (models.User, error) {
	row := s.db.QueryRow("SELECT "+userColumns+" FROM users WHERE email = ?", email)
	return scanUser(row)
}

func (s *UserService) setPassword(id, password string) error {
	if len(password) < 8 {
		return apperror.NewValidation("Your password must be at least 8 characters long", nil)
	}
	hashed, err := bcrypt.GenerateFromPassword([]byte(password), bcrypt.DefaultCost)
	if err != nil {
		return err
	}
	_, err = s.db.Exec("UPDATE users SET password_hash = ? WHERE id = ?", string(hashed), id)
	return err
}

func (s *UserService) removeApplicantData(id string) error {
	rows, err := s.db.Query("SELECT resume_file FROM applications WHERE user_id = ?", id)
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
	if err := rows.Err(); err != nil {
		return err
	}
	_, err = s.db.Exec("DELETE FROM applications WHERE user_id = ?", id)
	return err
}

func (s *UserService) removeEmployerData(id string) error {
	// Resume files of everyone who applied to the employer's postings.
	rows, err := s.db.Query(`SELECT resume_file FROM applications
		WHERE job_id IN (SELECT id FROM jobs WHERE user_id = ?)`, id)
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
	if err := rows.Err(); err != nil {
		return err
	}
	// Application rows cascade with the postings.
	_, err = s.db.Exec("DELETE FROM jobs WHERE user_id = ?", id)
	return err
}

func scanUser(row interface{ Scan(...interface{}) error }) (models.User, error) {
	var user models.User
	var resetHash sql.NullString
	var resetExpires sql.NullTime

	err := row.Scan(&user.ID, &user.Name, &user.Email, &user.Role, &user.PasswordHash,
		&resetHash, &resetExpires, &user.CreatedAt)
	if err != nil {
		if err == sql.ErrNoRows {
			return models.User{}, apperror.NewNotFound("User not found", nil)
		}
		return models.User{}, err
	}
	user.ResetTokenHash = resetHash.String
	if resetExpires.Valid {
		user.ResetTokenExpires = &resetExpires.Time
	}
	return user, nil
}
