package handler

import (
	"context"

	"github.com/libraworks/library-api/internal/model"
	"github.com/libraworks/library-api/internal/service"
)

//go:generate go run github.com/golang/mock/mockgen -source=service.go -destination=mocks/mock.go

type BookService interface {
	CreateBook(ctx context.Context, req model.CreateBookRequest) (model.Book, error)
	GetBook(ctx context.Context, bookUID string) (model.Book, error)
	UpdateBook(ctx context.Context, bookUID string, req model.UpdateBookRequest) (model.Book, error)
	DeleteBook(ctx context.Context, bookUID string) error
	FindBooks(ctx context.Context, filter model.BookFilter, page, size int) (model.ListBooks, error)
}

type LoanService interface {
	CreateLoan(ctx context.Context, req model.CreateLoanRequest) (model.Loan, error)
	ReturnLoan(ctx context.Context, loanUID string, returned bool) (model.Loan, error)
	FindLoans(ctx context.Context, filter model.LoanFilter, page, size int) (model.ListLoans, error)
	LoansByBook(ctx context.Context, bookUID string, page, size int) (model.ListLoans, error)
}

var _ BookService = (*service.BookService)(nil)
var _ LoanService = (*service.LoanService)(nil)
