package service

import (
	"context"

	"go.uber.org/zap"

	"github.com/libraworks/library-api/internal/errs"
	"github.com/libraworks/library-api/internal/model"
	"github.com/libraworks/library-api/internal/repository"
)

// openLoans reports loan state the catalog needs to know about.
type openLoans interface {
	HasOpenLoan(ctx context.Context, bookID int) (bool, error)
}

var _ openLoans = (*LoanService)(nil)

type BookService struct {
	log   *zap.Logger
	books repository.BookRepository
	loans openLoans
}

func NewBookService(books repository.BookRepository, loans openLoans, log *zap.Logger) *BookService {
	return &BookService{
		log:   log,
		books: books,
		loans: loans,
	}
}

func (s *BookService) CreateBook(ctx context.Context, req model.CreateBookRequest) (model.Book, error) {
	exists, err := s.books.ExistsByISBN(ctx, req.ISBN)
	if err != nil {
		return model.Book{}, err
	}
	if exists {
		return model.Book{}, errs.ErrISBNInUse
	}
	return s.books.CreateBook(ctx, req)
}

func (s *BookService) GetBook(ctx context.Context, bookUID string) (model.Book, error) {
	return s.books.GetBook(ctx, bookUID)
}

func (s *BookService) UpdateBook(ctx context.Context, bookUID string, req model.UpdateBookRequest) (model.Book, error) {
	return s.books.UpdateBook(ctx, bookUID, req)
}

// DeleteBook removes a book from the catalog. A book with an open loan
// cannot be deleted.
func (s *BookService) DeleteBook(ctx context.Context, bookUID string) error {
	book, err := s.books.GetBook(ctx, bookUID)
	if err != nil {
		return err
	}
	open, err := s.loans.HasOpenLoan(ctx, book.ID)
	if err != nil {
		return err
	}
	if open {
		return errs.ErrBookAlreadyLoaned
	}
	return s.books.DeleteBook(ctx, book.ID)
}

func (s *BookService) FindBooks(ctx context.Context, filter model.BookFilter, page, size int) (model.ListBooks, error) {
	return s.books.ListBooks(ctx, filter, page, size)
}
