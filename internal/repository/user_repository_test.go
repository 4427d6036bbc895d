package repository

import (
	"context"
	"database/sql"
	"errors"
	"regexp"
	"testing"
	"time"

	sqlmock "github.com/DATA-DOG/go-sqlmock"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/bths-action/club-api/internal/models"
)

func TestFindByEmail(t *testing.T) {
	db, mock, cleanup := newMock(t)
	defer cleanup()
	repo := NewUserRepository(db)

	now := time.Now()
	rows := sqlmock.NewRows([]string{"id", "email", "position", "preferred_name", "selfie_url", "created_at"}).
		AddRow("u1", "rina@bthsaction.org", string(models.PositionExec), "Rina", nil, now)
	mock.ExpectQuery(regexp.QuoteMeta("SELECT id, email, position, preferred_name, selfie_url, created_at FROM users WHERE email = $1 LIMIT 1")).
		WithArgs("rina@bthsaction.org").
		WillReturnRows(rows)

	user, err := repo.FindByEmail(context.Background(), "rina@bthsaction.org")
	require.NoError(t, err)
	assert.Equal(t, models.PositionExec, user.Position)
	assert.True(t, user.Position.CanPublish())
	assert.NoError(t, mock.ExpectationsWereMet())
}

func TestFindByEmailMissing(t *testing.T) {
	db, mock, cleanup := newMock(t)
	defer cleanup()
	repo := NewUserRepository(db)

	mock.ExpectQuery("SELECT (.+) FROM users").
		WithArgs("ghost@bthsaction.org").
		WillReturnError(sql.ErrNoRows)

	_, err := repo.FindByEmail(context.Background(), "ghost@bthsaction.org")
	assert.True(t, errors.Is(err, sql.ErrNoRows))
}
