package chapters

import (
	"context"
	"errors"
	"regexp"
	"testing"

	"github.com/DATA-DOG/go-sqlmock"

	"comichub/pkg/httperr"
	"comichub/pkg/models"
)

func newMockRepo(t *testing.T) (*Repo, sqlmock.Sqlmock) {
	t.Helper()
	db, mock, err := sqlmock.New()
	if err != nil {
		t.Fatalf("sqlmock: %v", err)
	}
	t.Cleanup(func() { _ = db.Close() })
	return NewRepo(db), mock
}

func testChapter() models.Chapter {
	return models.Chapter{
		ID:            "ch1",
		ComicID:       "c1",
		Title:         "Chapter One",
		ChapterNumber: 1.5,
		PDFURL:        "http://store.local/c1/c1-1.pdf",
	}
}

func TestRepoCreate_CommitsTouchAndInsert(t *testing.T) {
	repo, mock := newMockRepo(t)
	ch := testChapter()

	mock.ExpectBegin()
	mock.ExpectExec(regexp.QuoteMeta(`UPDATE comics SET updated_at = CURRENT_TIMESTAMP WHERE id = ?`)).
		WithArgs(ch.ComicID).
		WillReturnResult(sqlmock.NewResult(0, 1))
	mock.ExpectExec(regexp.QuoteMeta(`INSERT INTO chapters`)).
		WithArgs(ch.ID, ch.ComicID, ch.Title, ch.ChapterNumber, ch.PDFURL).
		WillReturnResult(sqlmock.NewResult(1, 1))
	mock.ExpectCommit()

	if err := repo.Create(context.Background(), ch); err != nil {
		t.Fatalf("create: %v", err)
	}
	if err := mock.ExpectationsWereMet(); err != nil {
		t.Fatalf("unmet expectations: %v", err)
	}
}

func TestRepoCreate_MissingComicRollsBack(t *testing.T) {
	repo, mock := newMockRepo(t)
	ch := testChapter()

	mock.ExpectBegin()
	mock.ExpectExec(regexp.QuoteMeta(`UPDATE comics SET updated_at = CURRENT_TIMESTAMP WHERE id = ?`)).
		WithArgs(ch.ComicID).
		WillReturnResult(sqlmock.NewResult(0, 0))
	mock.ExpectRollback()

	err := repo.Create(context.Background(), ch)
	if !errors.Is(err, httperr.ErrNotFound) {
		t.Fatalf("expected ErrNotFound, got %v", err)
	}
	if err := mock.ExpectationsWereMet(); err != nil {
		t.Fatalf("unmet expectations: %v", err)
	}
}

func TestRepoCreate_InsertFailureRollsBack(t *testing.T) {
	repo, mock := newMockRepo(t)
	ch := testChapter()

	mock.ExpectBegin()
	mock.ExpectExec(regexp.QuoteMeta(`UPDATE comics SET updated_at = CURRENT_TIMESTAMP WHERE id = ?`)).
		WithArgs(ch.ComicID).
		WillReturnResult(sqlmock.NewResult(0, 1))
	mock.ExpectExec(regexp.QuoteMeta(`INSERT INTO chapters`)).
		WillReturnError(errors.New("disk full"))
	mock.ExpectRollback()

	if err := repo.Create(context.Background(), ch); err == nil {
		t.Fatalf("expected error from failed insert")
	}
	if err := mock.ExpectationsWereMet(); err != nil {
		t.Fatalf("unmet expectations: %v", err)
	}
}
