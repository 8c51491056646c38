package leads

import (
	"context"
	"testing"
	"time"

	"github.com/pashagolub/pgxmock/v3"
)

func TestPostgresIncrementViews(t *testing.T) {
	mock, err := pgxmock.NewPool()
	if err != nil {
		t.Fatalf("failed to create mock pool: %v", err)
	}
	defer mock.Close()

	mock.ExpectExec(`UPDATE leads SET views = views \+ 1 WHERE id = \$1`).
		WithArgs("lead-1").
		WillReturnResult(pgxmock.NewResult("UPDATE", 1))

	repo := NewPostgresRepositoryWithDB(mock)
	if err := repo.IncrementViews(context.Background(), "lead-1"); err != nil {
		t.Fatalf("IncrementViews: %v", err)
	}
	if err := mock.ExpectationsWereMet(); err != nil {
		t.Errorf("unmet expectations: %v", err)
	}
}

func TestPostgresIncrementViewsMissing(t *testing.T) {
	mock, err := pgxmock.NewPool()
	if err != nil {
		t.Fatalf("failed to create mock pool: %v", err)
	}
	defer mock.Close()

	mock.ExpectExec(`UPDATE leads SET views = views \+ 1 WHERE id = \$1`).
		WithArgs("missing").
		WillReturnResult(pgxmock.NewResult("UPDATE", 0))

	repo := NewPostgresRepositoryWithDB(mock)
	if err := repo.IncrementViews(context.Background(), "missing"); err != ErrLeadNotFound {
		t.Errorf("err = %v, want ErrLeadNotFound", err)
	}
}

func TestPostgresUpdateMissing(t *testing.T) {
	mock, err := pgxmock.NewPool()
	if err != nil {
		t.Fatalf("failed to create mock pool: %v", err)
	}
	defer mock.Close()

	mock.ExpectExec(`UPDATE leads SET`).
		WithArgs(pgxmock.AnyArg(), pgxmock.AnyArg(), pgxmock.AnyArg(), pgxmock.AnyArg(),
			pgxmock.AnyArg(), pgxmock.AnyArg(), pgxmock.AnyArg(), pgxmock.AnyArg(),
			pgxmock.AnyArg(), pgxmock.AnyArg(), pgxmock.AnyArg()).
		WillReturnResult(pgxmock.NewResult("UPDATE", 0))

	repo := NewPostgresRepositoryWithDB(mock)
	lead := testLead(StatusActive, time.Now().Add(time.Hour))
	if err := repo.Update(context.Background(), lead); err != ErrLeadNotFound {
		t.Errorf("err = %v, want ErrLeadNotFound", err)
	}
}
