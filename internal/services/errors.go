package services

import (
	"errors"
	"net/http"

	"github.com/go-sql-driver/mysql"
	"github.com/jackc/pgx/v5/pgconn"
	"gorm.io/gorm"

	apperrors "github.com/charlesng35/postboard/pkg/errors"
)

var (
	// ErrUserNotFound indicates the requested user does not exist.
	ErrUserNotFound = apperrors.New("USER_NOT_FOUND", "User not found", http.StatusNotFound)
	// ErrEmailTaken is returned when registering an address that already has an account.
	ErrEmailTaken = apperrors.New("EMAIL_TAKEN", "Email already exists", http.StatusBadRequest)

	// ErrPostNotFound indicates the requested post does not exist.
	ErrPostNotFound = apperrors.New("POST_NOT_FOUND", "Post not found", http.StatusNotFound)
	// ErrPostForbidden is returned when a user modifies a post they did not write.
	ErrPostForbidden = apperrors.New("POST_FORBIDDEN", "You can only modify your own posts", http.StatusForbidden)
	// ErrAuthorNotFound is returned when the acting user no longer exists.
	ErrAuthorNotFound = apperrors.New("AUTHOR_NOT_FOUND", "Author not found", http.StatusBadRequest)

	ErrInvalidPage  = apperrors.New("INVALID_PAGE", "page must be greater than or equal to 1", http.StatusBadRequest)
	ErrInvalidLimit = apperrors.New("INVALID_LIMIT", "limit must be between 1 and 100", http.StatusBadRequest)
)

// isUniqueConstraintError detects uniqueness violations. Handles opened by
// database.Open translate driver errors into gorm.ErrDuplicatedKey; raw pgx and
// mysql errors are still recognised for handles opened elsewhere.
func isUniqueConstraintError(err error) bool {
	if err == nil {
		return false
	}
	if errors.Is(err, gorm.ErrDuplicatedKey) {
		return true
	}

	var pgErr *pgconn.PgError
	if errors.As(err, &pgErr) && pgErr != nil && pgErr.Code == "23505" {
		return true
	}

	var myErr *mysql.MySQLError
	return errors.As(err, &myErr) && myErr != nil && myErr.Number == 1062
}

// isForeignKeyError detects foreign key violations across vendors.
func isForeignKeyError(err error) bool {
	if err == nil {
		return false
	}
	if errors.Is(err, gorm.ErrForeignKeyViolated) {
		return true
	}

	var pgErr *pgconn.PgError
	if errors.As(err, &pgErr) && pgErr != nil && pgErr.Code == "23503" {
		return true
	}

	var myErr *mysql.MySQLError
	return errors.As(err, &myErr) && myErr != nil && (myErr.Number == 1452 || myErr.Number == 1451)
}
