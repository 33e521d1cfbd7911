package sink

import (
	"context"
	"errors"
	"testing"

	"github.com/DATA-DOG/go-sqlmock"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestPostgresEnsureSchema(t *testing.T) {
	db, mock, err := sqlmock.New()
	require.NoError(t, err)
	defer db.Close()

	mock.ExpectExec("CREATE TABLE IF NOT EXISTS collected_reviews").
		WillReturnResult(sqlmock.NewResult(0, 0))

	s := NewPostgres(db)
	require.NoError(t, s.EnsureSchema(context.Background()))
	assert.NoError(t, mock.ExpectationsWereMet())
}

func TestPostgresWriteInsertsRowPerReview(t *testing.T) {
	db, mock, err := sqlmock.New()
	require.NoError(t, err)
	defer db.Close()

	res := sampleResult()

	mock.ExpectExec("INSERT INTO collected_reviews").
		WithArgs(
			"task-42", "умный дом", "completed",
			"https://example.com/org/101", "Смарт Хоум", "Москва", 4.6,
			"r-1001", "Анна", 5, "2024-12-20", "Отличная работа, всё быстро.",
			true, "2025-01-03", "Спасибо за отзыв!",
		).
		WillReturnResult(sqlmock.NewResult(0, 1))
	mock.ExpectExec("INSERT INTO collected_reviews").
		WithArgs(
			"task-42", "умный дом", "completed",
			"https://example.com/org/101", "Смарт Хоум", "Москва", 4.6,
			"synth-a1b2c3d4e5f60708", "Борис", 2, "вчера", "Долго ждал мастера.",
			false, "", "",
		).
		WillReturnResult(sqlmock.NewResult(0, 1))
	mock.ExpectExec("INSERT INTO collected_reviews").
		WithArgs(
			"task-42", "умный дом", "completed",
			"https://example.com/org/102", "Пустой Офис", "Москва", 0.0,
			"listing:https://example.com/org/102", "", 0, "", "",
			false, "", "",
		).
		WillReturnResult(sqlmock.NewResult(0, 1))

	s := NewPostgres(db)
	assert.Equal(t, "postgres", s.Name())
	require.NoError(t, s.Write(context.Background(), res))
	assert.NoError(t, mock.ExpectationsWereMet())
}

func TestPostgresWriteStopsOnFirstError(t *testing.T) {
	db, mock, err := sqlmock.New()
	require.NoError(t, err)
	defer db.Close()

	mock.ExpectExec("INSERT INTO collected_reviews").
		WillReturnError(errors.New("connection refused"))

	s := NewPostgres(db)
	err = s.Write(context.Background(), sampleResult())
	require.Error(t, err)
	assert.Contains(t, err.Error(), "r-1001")
}
