package services

import (
	"errors"
	"fmt"
	"testing"

	"github.com/go-sql-driver/mysql"
	"github.com/jackc/pgx/v5/pgconn"
	"github.com/stretchr/testify/require"
	"gorm.io/gorm"
	"gorm.io/gorm/clause"

	"github.com/charlesng35/postboard/internal/database/testutil"
	"github.com/charlesng35/postboard/internal/models"
)

func TestIsUniqueConstraintError(t *testing.T) {
	require.False(t, isUniqueConstraintError(nil))
	require.True(t, isUniqueConstraintError(gorm.ErrDuplicatedKey))
	require.True(t, isUniqueConstraintError(fmt.Errorf("wrap: %w", &pgconn.PgError{Code: "23505"})))
	require.True(t, isUniqueConstraintError(&mysql.MySQLError{Number: 1062}))
	require.False(t, isUniqueConstraintError(errors.New("duplicate column name in unique index definition")))
	require.False(t, isUniqueConstraintError(errors.New("connection refused")))
}

func TestIsForeignKeyError(t *testing.T) {
	require.False(t, isForeignKeyError(nil))
	require.True(t, isForeignKeyError(gorm.ErrForeignKeyViolated))
	require.True(t, isForeignKeyError(&pgconn.PgError{Code: "23503"}))
	require.True(t, isForeignKeyError(&mysql.MySQLError{Number: 1452}))
	require.False(t, isForeignKeyError(errors.New("cannot drop table: referenced by foreign key")))
	require.False(t, isForeignKeyError(errors.New("disk full")))
}

func TestConstraintErrorsFromDatabase(t *testing.T) {
	db := testutil.MustOpenTestDB(t, testutil.WithAutoMigrate())

	require.NoError(t, db.Create(&models.User{Email: "dup@example.com", Password: "hash"}).Error)
	err := db.Create(&models.User{Email: "dup@example.com", Password: "hash"}).Error
	require.Error(t, err)
	require.True(t, isUniqueConstraintError(err), err.Error())
	require.False(t, isForeignKeyError(err))

	err = db.Omit(clause.Associations).Create(&models.Post{Title: "t", Description: "d", AuthorID: 999}).Error
	require.Error(t, err)
	require.True(t, isForeignKeyError(err), err.Error())
	require.False(t, isUniqueConstraintError(err))
}
