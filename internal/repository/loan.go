package repository

import (
	"context"
	"database/sql"
	"time"

	sq "github.com/Masterminds/squirrel"
	"github.com/google/uuid"
	"github.com/jmoiron/sqlx"
	"github.com/pkg/errors"
	"go.uber.org/zap"

	"github.com/libraworks/library-api/internal/errs"
	"github.com/libraworks/library-api/internal/model"
)

type LoanRepository interface {
	// CreateLoan inserts a new open loan. The partial unique index on
	// (book_id) where status = 'OPEN' makes the insert the atomic
	// check-and-create: a concurrent duplicate fails with ErrBookAlreadyLoaned.
	CreateLoan(ctx context.Context, bookID int, req model.CreateLoanRequest) (model.Loan, error)
	GetLoan(ctx context.Context, loanUID string) (model.Loan, error)
	SetReturned(ctx context.Context, loanUID string, returned bool) (model.Loan, error)
	ExistsOpenLoan(ctx context.Context, bookID int) (bool, error)
	ListByBook(ctx context.Context, bookID int, page, size int) (model.ListLoans, error)
	ListByISBNOrCustomer(ctx context.Context, filter model.LoanFilter, page, size int) (model.ListLoans, error)
	FindOverdue(ctx context.Context, cutoff time.Time) ([]model.Loan, error)
}

type loanRepository struct {
	db  *sqlx.DB
	log *zap.Logger
}

func NewLoanRepository(db *sqlx.DB, log *zap.Logger) (*loanRepository, error) {
	return &loanRepository{
		db:  db,
		log: log.Named("loan-repo"),
	}, nil
}

var loanColumns = []string{"id", "loan_uid", "book_id", "customer", "customer_email", "loan_date", "status"}

var loanBookColumns = []string{
	"l.id", "l.loan_uid", "l.book_id", "l.customer", "l.customer_email", "l.loan_date", "l.status",
	`b.id as "book.id"`, `b.book_uid as "book.book_uid"`, `b.title as "book.title"`,
	`b.author as "book.author"`, `b.isbn as "book.isbn"`,
}

func (r *loanRepository) CreateLoan(ctx context.Context, bookID int, req model.CreateLoanRequest) (model.Loan, error) {
	query, args, err := qb.Insert(loanTableName).
		Columns("loan_uid", "book_id", "customer", "customer_email", "loan_date", "status").
		Values(uuid.New(), bookID, req.Customer, req.CustomerEmail,
			time.Now().UTC().Format(time.DateOnly), model.StatusOpen).
		Suffix("returning id, loan_uid, book_id, customer, customer_email, loan_date, status").
		ToSql()
	if err != nil {
		return model.Loan{}, err
	}

	var loan model.Loan
	if err := r.db.GetContext(ctx, &loan, query, args...); err != nil {
		if isUniqueViolation(err, loanOpenBookConstraint) {
			return model.Loan{}, errs.ErrBookAlreadyLoaned
		}
		r.log.Error("CreateLoan", zap.String("q", query), zap.Any("args", args))
		return model.Loan{}, err
	}
	return loan, nil
}

func (r *loanRepository) GetLoan(ctx context.Context, loanUID string) (model.Loan, error) {
	query, args, err := qb.Select(loanColumns...).
		From(loanTableName).
		Where(sq.Eq{"loan_uid": loanUID}).
		Limit(1).
		ToSql()
	if err != nil {
		return model.Loan{}, err
	}

	var loan model.Loan
	if err := r.db.GetContext(ctx, &loan, query, args...); err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return model.Loan{}, errs.ErrNotFound
		}
		return model.Loan{}, err
	}
	return loan, nil
}

// SetReturned closes the loan when returned is true. A returned loan never
// transitions back to open, so returned=false leaves the status as is.
func (r *loanRepository) SetReturned(ctx context.Context, loanUID string, returned bool) (model.Loan, error) {
	q := `
update loan
    set status = case when $2 then 'RETURNED' else status end
where loan_uid = $1
returning id, loan_uid, book_id, customer, customer_email, loan_date, status`

	var loan model.Loan
	if err := r.db.GetContext(ctx, &loan, q, loanUID, returned); err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return model.Loan{}, errs.ErrNotFound
		}
		return model.Loan{}, err
	}
	return loan, nil
}

func (r *loanRepository) ExistsOpenLoan(ctx context.Context, bookID int) (bool, error) {
	q := `select exists(select 1 from loan where book_id = $1 and status = 'OPEN')`
	var exists bool
	if err := r.db.QueryRowContext(ctx, q, bookID).Scan(&exists); err != nil {
		return false, err
	}
	return exists, nil
}

func (r *loanRepository) ListByBook(ctx context.Context, bookID int, page, size int) (model.ListLoans, error) {
	q := qb.Select(loanBookColumns...).
		From(loanTableName + " l").
		Join("book b on b.id = l.book_id").
		Where(sq.Eq{"l.book_id": bookID}).
		OrderBy("l.id")
	if size > 0 {
		q = q.Limit(uint64(size)).Offset(uint64(page * size))
	}

	query, args, err := q.ToSql()
	if err != nil {
		return model.ListLoans{}, err
	}

	var loans []model.LoanBook
	if err := r.db.SelectContext(ctx, &loans, query, args...); err != nil {
		return model.ListLoans{}, err
	}

	var total int
	countQuery := `select count(*) from loan where book_id = $1`
	if err := r.db.GetContext(ctx, &total, countQuery, bookID); err != nil {
		return model.ListLoans{}, err
	}

	return model.ListLoans{
		Paging: model.Paging{
			Page:          page,
			PageSize:      size,
			TotalElements: total,
		},
		Items: loans,
	}, nil
}

func (r *loanRepository) ListByISBNOrCustomer(ctx context.Context, filter model.LoanFilter, page, size int) (model.ListLoans, error) {
	// OR across the supplied fields; an absent field adds no condition.
	or := sq.Or{}
	if filter.ISBN != "" {
		or = append(or, sq.Eq{"b.isbn": filter.ISBN})
	}
	if filter.Customer != "" {
		or = append(or, sq.Eq{"l.customer": filter.Customer})
	}

	q := qb.Select(loanBookColumns...).
		From(loanTableName + " l").
		Join("book b on b.id = l.book_id").
		OrderBy("l.id")
	cq := qb.Select("count(*)").
		From(loanTableName + " l").
		Join("book b on b.id = l.book_id")
	if len(or) > 0 {
		q = q.Where(or)
		cq = cq.Where(or)
	}
	if size > 0 {
		q = q.Limit(uint64(size)).Offset(uint64(page * size))
	}

	query, args, err := q.ToSql()
	if err != nil {
		return model.ListLoans{}, err
	}
	r.log.Debug("ListByISBNOrCustomer", zap.String("query", query), zap.Any("args", args))

	var loans []model.LoanBook
	if err := r.db.SelectContext(ctx, &loans, query, args...); err != nil {
		return model.ListLoans{}, err
	}

	countQuery, countArgs, err := cq.ToSql()
	if err != nil {
		return model.ListLoans{}, err
	}
	var total int
	if err := r.db.GetContext(ctx, &total, countQuery, countArgs...); err != nil {
		return model.ListLoans{}, err
	}

	return model.ListLoans{
		Paging: model.Paging{
			Page:          page,
			PageSize:      size,
			TotalElements: total,
		},
		Items: loans,
	}, nil
}

func (r *loanRepository) FindOverdue(ctx context.Context, cutoff time.Time) ([]model.Loan, error) {
	query, args, err := qb.Select(loanColumns...).
		From(loanTableName).
		Where(sq.Eq{"status": model.StatusOpen}).
		Where(sq.LtOrEq{"loan_date": cutoff.Format(time.DateOnly)}).
		OrderBy("loan_date").
		ToSql()
	if err != nil {
		return nil, err
	}

	var loans []model.Loan
	if err := r.db.SelectContext(ctx, &loans, query, args...); err != nil {
		return nil, err
	}
	return loans, nil
}
