package service

import (
	"context"
	"time"

	"github.com/pkg/errors"
	"go.uber.org/zap"

	"github.com/libraworks/library-api/internal/errs"
	"github.com/libraworks/library-api/internal/model"
	"github.com/libraworks/library-api/internal/repository"
)

// loanTermDays is the loan term: a loan dated loanTermDays or more days ago
// and still open is overdue.
const loanTermDays = 4

type LoanService struct {
	log   *zap.Logger
	loans repository.LoanRepository
	books repository.BookRepository
}

func NewLoanService(loans repository.LoanRepository, books repository.BookRepository, log *zap.Logger) *LoanService {
	return &LoanService{
		log:   log,
		loans: loans,
		books: books,
	}
}

// CreateLoan opens a loan for the book with the given ISBN. The store insert
// itself rejects a second open loan for the same book, so two concurrent
// requests for one book cannot both succeed.
func (s *LoanService) CreateLoan(ctx context.Context, req model.CreateLoanRequest) (model.Loan, error) {
	book, err := s.books.GetBookByISBN(ctx, req.ISBN)
	if err != nil {
		if errors.Is(err, errs.ErrNotFound) {
			return model.Loan{}, errs.ErrBookByISBN
		}
		return model.Loan{}, err
	}
	return s.loans.CreateLoan(ctx, book.ID, req)
}

func (s *LoanService) ReturnLoan(ctx context.Context, loanUID string, returned bool) (model.Loan, error) {
	return s.loans.SetReturned(ctx, loanUID, returned)
}

// HasOpenLoan reports whether the book currently has an open loan.
func (s *LoanService) HasOpenLoan(ctx context.Context, bookID int) (bool, error) {
	return s.loans.ExistsOpenLoan(ctx, bookID)
}

func (s *LoanService) FindLoans(ctx context.Context, filter model.LoanFilter, page, size int) (model.ListLoans, error) {
	return s.loans.ListByISBNOrCustomer(ctx, filter, page, size)
}

func (s *LoanService) LoansByBook(ctx context.Context, bookUID string, page, size int) (model.ListLoans, error) {
	book, err := s.books.GetBook(ctx, bookUID)
	if err != nil {
		return model.ListLoans{}, err
	}
	return s.loans.ListByBook(ctx, book.ID, page, size)
}

// Overdue lists all open loans whose loan date is on or before the overdue
// cutoff for now.
func (s *LoanService) Overdue(ctx context.Context, now time.Time) ([]model.Loan, error) {
	return s.loans.FindOverdue(ctx, OverdueCutoff(now))
}

// OverdueCutoff returns the latest loan date that counts as overdue at now.
// The boundary is inclusive: a loan dated exactly loanTermDays ago is overdue.
func OverdueCutoff(now time.Time) time.Time {
	return now.AddDate(0, 0, -loanTermDays)
}
