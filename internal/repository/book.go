package repository

import (
	"context"
	"database/sql"

	sq "github.com/Masterminds/squirrel"
	"github.com/google/uuid"
	"github.com/jackc/pgerrcode"
	"github.com/jackc/pgx/v5/pgconn"
	"github.com/jmoiron/sqlx"
	"github.com/pkg/errors"
	"go.uber.org/zap"

	"github.com/libraworks/library-api/internal/errs"
	"github.com/libraworks/library-api/internal/model"
)

const (
	bookTableName = `book`
	loanTableName = `loan`

	bookISBNUniqConstraint = `book_isbn_uniq`
	loanOpenBookConstraint = `loan_open_book_uniq`
)

var qb = sq.StatementBuilder.PlaceholderFormat(sq.Dollar)

func isUniqueViolation(err error, constraint string) bool {
	var pgErr *pgconn.PgError
	return errors.As(err, &pgErr) &&
		pgErr.Code == pgerrcode.UniqueViolation &&
		pgErr.ConstraintName == constraint
}

func isForeignKeyViolation(err error) bool {
	var pgErr *pgconn.PgError
	return errors.As(err, &pgErr) &&
		pgErr.Code == pgerrcode.ForeignKeyViolation
}

type BookRepository interface {
	CreateBook(ctx context.Context, req model.CreateBookRequest) (model.Book, error)
	GetBook(ctx context.Context, bookUID string) (model.Book, error)
	GetBookByISBN(ctx context.Context, isbn string) (model.Book, error)
	ExistsByISBN(ctx context.Context, isbn string) (bool, error)
	UpdateBook(ctx context.Context, bookUID string, req model.UpdateBookRequest) (model.Book, error)
	DeleteBook(ctx context.Context, bookID int) error
	ListBooks(ctx context.Context, filter model.BookFilter, page, size int) (model.ListBooks, error)
}

type bookRepository struct {
	db  *sqlx.DB
	log *zap.Logger
}

func NewBookRepository(db *sqlx.DB, log *zap.Logger) (*bookRepository, error) {
	return &bookRepository{
		db:  db,
		log: log.Named("book-repo"),
	}, nil
}

func (r *bookRepository) CreateBook(ctx context.Context, req model.CreateBookRequest) (model.Book, error) {
	query, args, err := qb.Insert(bookTableName).
		Columns("book_uid", "title", "author", "isbn").
		Values(uuid.New(), req.Title, req.Author, req.ISBN).
		Suffix("returning id, book_uid, title, author, isbn").
		ToSql()
	if err != nil {
		return model.Book{}, err
	}

	var book model.Book
	if err := r.db.GetContext(ctx, &book, query, args...); err != nil {
		if isUniqueViolation(err, bookISBNUniqConstraint) {
			return model.Book{}, errs.ErrISBNInUse
		}
		r.log.Error("CreateBook", zap.String("q", query), zap.Any("args", args))
		return model.Book{}, err
	}
	return book, nil
}

func (r *bookRepository) GetBook(ctx context.Context, bookUID string) (model.Book, error) {
	query, args, err := qb.Select("id", "book_uid", "title", "author", "isbn").
		From(bookTableName).
		Where(sq.Eq{"book_uid": bookUID}).
		Limit(1).
		ToSql()
	if err != nil {
		return model.Book{}, err
	}

	var book model.Book
	if err := r.db.GetContext(ctx, &book, query, args...); err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return model.Book{}, errs.ErrNotFound
		}
		return model.Book{}, err
	}
	return book, nil
}

func (r *bookRepository) GetBookByISBN(ctx context.Context, isbn string) (model.Book, error) {
	query, args, err := qb.Select("id", "book_uid", "title", "author", "isbn").
		From(bookTableName).
		Where(sq.Eq{"isbn": isbn}).
		Limit(1).
		ToSql()
	if err != nil {
		return model.Book{}, err
	}

	var book model.Book
	if err := r.db.GetContext(ctx, &book, query, args...); err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return model.Book{}, errs.ErrNotFound
		}
		return model.Book{}, err
	}
	return book, nil
}

func (r *bookRepository) ExistsByISBN(ctx context.Context, isbn string) (bool, error) {
	q := `select exists(select 1 from book where isbn = $1)`
	var exists bool
	if err := r.db.QueryRowContext(ctx, q, isbn).Scan(&exists); err != nil {
		return false, err
	}
	return exists, nil
}

func (r *bookRepository) UpdateBook(ctx context.Context, bookUID string, req model.UpdateBookRequest) (model.Book, error) {
	query, args, err := qb.Update(bookTableName).
		Set("title", req.Title).
		Set("author", req.Author).
		Where(sq.Eq{"book_uid": bookUID}).
		Suffix("returning id, book_uid, title, author, isbn").
		ToSql()
	if err != nil {
		return model.Book{}, err
	}

	var book model.Book
	if err := r.db.GetContext(ctx, &book, query, args...); err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return model.Book{}, errs.ErrNotFound
		}
		return model.Book{}, err
	}
	return book, nil
}

func (r *bookRepository) DeleteBook(ctx context.Context, bookID int) error {
	query, args, err := qb.Delete(bookTableName).
		Where(sq.Eq{"id": bookID}).
		ToSql()
	if err != nil {
		return err
	}
	res, err := r.db.ExecContext(ctx, query, args...)
	if err != nil {
		// returned loans keep their book_id reference, so a book with
		// loan history cannot be removed
		if isForeignKeyViolation(err) {
			return errs.ErrBookHasLoans
		}
		return err
	}
	if n, err := res.RowsAffected(); err == nil && n == 0 {
		return errs.ErrNotFound
	}
	return nil
}

func (r *bookRepository) ListBooks(ctx context.Context, filter model.BookFilter, page, size int) (model.ListBooks, error) {
	cond := sq.Eq{}
	if filter.Title != "" {
		cond["title"] = filter.Title
	}
	if filter.Author != "" {
		cond["author"] = filter.Author
	}
	if filter.ISBN != "" {
		cond["isbn"] = filter.ISBN
	}

	q := qb.Select("id", "book_uid", "title", "author", "isbn").
		From(bookTableName).
		OrderBy("id")
	cq := qb.Select("count(*)").From(bookTableName)
	if len(cond) > 0 {
		q = q.Where(cond)
		cq = cq.Where(cond)
	}
	if size > 0 {
		q = q.Limit(uint64(size)).Offset(uint64(page * size))
	}

	query, args, err := q.ToSql()
	if err != nil {
		return model.ListBooks{}, err
	}

	var books []model.Book
	if err := r.db.SelectContext(ctx, &books, query, args...); err != nil {
		return model.ListBooks{}, err
	}

	countQuery, countArgs, err := cq.ToSql()
	if err != nil {
		return model.ListBooks{}, err
	}
	var total int
	if err := r.db.GetContext(ctx, &total, countQuery, countArgs...); err != nil {
		return model.ListBooks{}, err
	}

	return model.ListBooks{
		Paging: model.Paging{
			Page:          page,
			PageSize:      size,
			TotalElements: total,
		},
		Items: books,
	}, nil
}
