package service

import (
	"context"
	"testing"

	"github.com/stretchr/testify/require"
	"go.uber.org/zap"

	"github.com/libraworks/library-api/internal/errs"
	"github.com/libraworks/library-api/internal/model"
	"github.com/libraworks/library-api/internal/repository"
)

type fakeBookRepo struct {
	repository.BookRepository
	book      model.Book
	deleted   []int
	deleteErr error
}

func (f *fakeBookRepo) GetBook(_ context.Context, bookUID string) (model.Book, error) {
	if bookUID != f.book.BookUID {
		return model.Book{}, errs.ErrNotFound
	}
	return f.book, nil
}

func (f *fakeBookRepo) DeleteBook(_ context.Context, bookID int) error {
	if f.deleteErr != nil {
		return f.deleteErr
	}
	f.deleted = append(f.deleted, bookID)
	return nil
}

type fakeOpenLoans struct {
	open    bool
	bookIDs []int
}

func (f *fakeOpenLoans) HasOpenLoan(_ context.Context, bookID int) (bool, error) {
	f.bookIDs = append(f.bookIDs, bookID)
	return f.open, nil
}

func TestBookService_DeleteBook(t *testing.T) {
	t.Parallel()

	const bookUID = "83575e12-7ce0-48ee-9931-51919ff3c9ee"

	var tests = []struct {
		name      string
		open      bool
		deleteErr error
		wantErr   error
	}{
		{
			name: "no loans",
		},
		{
			name:    "open loan blocks delete",
			open:    true,
			wantErr: errs.ErrBookAlreadyLoaned,
		},
		{
			name:      "returned loans block delete",
			deleteErr: errs.ErrBookHasLoans,
			wantErr:   errs.ErrBookHasLoans,
		},
	}
	for _, tt := range tests {
		tt := tt
		t.Run(tt.name, func(t *testing.T) {
			t.Parallel()
			repo := &fakeBookRepo{
				book:      model.Book{ID: 7, BookUID: bookUID},
				deleteErr: tt.deleteErr,
			}
			loans := &fakeOpenLoans{open: tt.open}
			svc := NewBookService(repo, loans, zap.NewNop())

			err := svc.DeleteBook(context.Background(), bookUID)

			require.Equal(t, []int{7}, loans.bookIDs)
			if tt.wantErr != nil {
				require.ErrorIs(t, err, tt.wantErr)
				require.Empty(t, repo.deleted)
				return
			}
			require.NoError(t, err)
			require.Equal(t, []int{7}, repo.deleted)
		})
	}
}
