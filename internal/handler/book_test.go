package handler_test

import (
	"context"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"

	"github.com/golang/mock/gomock"
	"github.com/labstack/echo/v4"
	"github.com/pkg/errors"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap"

	"github.com/libraworks/library-api/internal/errs"
	"github.com/libraworks/library-api/internal/handler"
	"github.com/libraworks/library-api/internal/model"
	"github.com/libraworks/library-api/pkg/validate"

	service_mocks "github.com/libraworks/library-api/internal/handler/mocks"
)

func TestHandler_CreateBook(t *testing.T) {
	t.Parallel()
	type response struct {
		expectedCode int
		expectedBody string
	}
	type mockBehavior func(r *service_mocks.MockBookService)

	var tests = []struct {
		name         string
		body         string
		mockBehavior mockBehavior
		response     response
		wantErr      bool
	}{
		{
			name: "ok",
			body: `{"title":"The Go Programming Language","author":"Donovan","isbn":"111"}`,
			mockBehavior: func(r *service_mocks.MockBookService) {
				r.EXPECT().
					CreateBook(context.Background(), model.CreateBookRequest{
						Title:  "The Go Programming Language",
						Author: "Donovan",
						ISBN:   "111",
					}).
					Return(model.Book{
						BookUID: "83575e12-7ce0-48ee-9931-51919ff3c9ee",
						Title:   "The Go Programming Language",
						Author:  "Donovan",
						ISBN:    "111",
					}, nil)
			},
			response: response{
				expectedCode: http.StatusCreated,
				expectedBody: `{"bookUid":"83575e12-7ce0-48ee-9931-51919ff3c9ee","title":"The Go Programming Language","author":"Donovan","isbn":"111"}`,
			},
		},
		{
			name: "err. isbn already in use",
			body: `{"title":"The Go Programming Language","author":"Donovan","isbn":"111"}`,
			mockBehavior: func(r *service_mocks.MockBookService) {
				r.EXPECT().
					CreateBook(context.Background(), model.CreateBookRequest{
						Title:  "The Go Programming Language",
						Author: "Donovan",
						ISBN:   "111",
					}).
					Return(model.Book{}, errs.ErrISBNInUse)
			},
			response: response{
				expectedCode: http.StatusConflict,
				expectedBody: `{"message":"ISBN already in use."}`,
			},
			wantErr: true,
		},
		{
			name:         "err. title required",
			body:         `{"author":"Donovan","isbn":"111"}`,
			mockBehavior: func(r *service_mocks.MockBookService) {},
			response: response{
				expectedCode: http.StatusBadRequest,
				expectedBody: `{"message":"Key: 'CreateBookRequest.Title' Error:Field validation for 'Title' failed on the 'required' tag"}`,
			},
			wantErr: true,
		},
		{
			name: "err. internal",
			body: `{"title":"The Go Programming Language","author":"Donovan","isbn":"111"}`,
			mockBehavior: func(r *service_mocks.MockBookService) {
				r.EXPECT().
					CreateBook(context.Background(), gomock.Any()).
					Return(model.Book{}, errors.New("db internal"))
			},
			response: response{
				expectedCode: http.StatusInternalServerError,
				expectedBody: `{"message":"db internal"}`,
			},
			wantErr: true,
		},
	}
	for _, tt := range tests {
		tt := tt
		t.Run(tt.name, func(t *testing.T) {
			t.Parallel()
			c := gomock.NewController(t)
			defer c.Finish()
			bookSvc := service_mocks.NewMockBookService(c)
			loanSvc := service_mocks.NewMockLoanService(c)
			log := zap.NewExample().Named("test")
			h := handler.New(bookSvc, loanSvc, log)

			e := echo.New()
			e.Validator = validate.NewCustomValidator()
			e.POST("/books", h.CreateBook)

			r := httptest.NewRequest(http.MethodPost, "/books", strings.NewReader(tt.body))
			r.Header.Set(echo.HeaderContentType, echo.MIMEApplicationJSON)
			w := httptest.NewRecorder()

			tt.mockBehavior(bookSvc)
			e.ServeHTTP(w, r)

			require.Equal(t, tt.response.expectedCode, w.Code)
			require.Equal(t, tt.response.expectedBody, strings.Trim(w.Body.String(), "\n"))
		})
	}
}

func TestHandler_DeleteBook(t *testing.T) {
	t.Parallel()
	type response struct {
		expectedCode int
		expectedBody string
	}
	type mockBehavior func(r *service_mocks.MockBookService)

	const bookUID = "83575e12-7ce0-48ee-9931-51919ff3c9ee"

	var tests = []struct {
		name         string
		mockBehavior mockBehavior
		response     response
		wantErr      bool
	}{
		{
			name: "ok",
			mockBehavior: func(r *service_mocks.MockBookService) {
				r.EXPECT().
					DeleteBook(context.Background(), bookUID).
					Return(nil)
			},
			response: response{
				expectedCode: http.StatusNoContent,
				expectedBody: ``,
			},
		},
		{
			name: "err. open loan",
			mockBehavior: func(r *service_mocks.MockBookService) {
				r.EXPECT().
					DeleteBook(context.Background(), bookUID).
					Return(errs.ErrBookAlreadyLoaned)
			},
			response: response{
				expectedCode: http.StatusConflict,
				expectedBody: `{"message":"book already loaned"}`,
			},
			wantErr: true,
		},
		{
			name: "err. loan history",
			mockBehavior: func(r *service_mocks.MockBookService) {
				r.EXPECT().
					DeleteBook(context.Background(), bookUID).
					Return(errs.ErrBookHasLoans)
			},
			response: response{
				expectedCode: http.StatusConflict,
				expectedBody: `{"message":"book has loan records"}`,
			},
			wantErr: true,
		},
		{
			name: "err. not found",
			mockBehavior: func(r *service_mocks.MockBookService) {
				r.EXPECT().
					DeleteBook(context.Background(), bookUID).
					Return(errs.ErrNotFound)
			},
			response: response{
				expectedCode: http.StatusNotFound,
				expectedBody: `{"message":"not found"}`,
			},
			wantErr: true,
		},
	}
	for _, tt := range tests {
		tt := tt
		t.Run(tt.name, func(t *testing.T) {
			t.Parallel()
			c := gomock.NewController(t)
			defer c.Finish()
			bookSvc := service_mocks.NewMockBookService(c)
			loanSvc := service_mocks.NewMockLoanService(c)
			log := zap.NewExample().Named("test")
			h := handler.New(bookSvc, loanSvc, log)

			e := echo.New()
			e.Validator = validate.NewCustomValidator()
			e.DELETE("/books/:bookUid", h.DeleteBook)

			r := httptest.NewRequest(http.MethodDelete, "/books/"+bookUID, http.NoBody)
			r.Header.Set(echo.HeaderContentType, echo.MIMEApplicationJSON)
			w := httptest.NewRecorder()

			tt.mockBehavior(bookSvc)
			e.ServeHTTP(w, r)

			require.Equal(t, tt.response.expectedCode, w.Code)
			require.Equal(t, tt.response.expectedBody, strings.Trim(w.Body.String(), "\n"))
		})
	}
}

func TestHandler_LoansByBook(t *testing.T) {
	t.Parallel()

	const bookUID = "83575e12-7ce0-48ee-9931-51919ff3c9ee"

	c := gomock.NewController(t)
	defer c.Finish()
	bookSvc := service_mocks.NewMockBookService(c)
	loanSvc := service_mocks.NewMockLoanService(c)
	log := zap.NewExample().Named("test")
	h := handler.New(bookSvc, loanSvc, log)

	e := echo.New()
	e.Validator = validate.NewCustomValidator()
	e.GET("/books/:bookUid/loans", h.LoansByBook)

	loanSvc.EXPECT().
		LoansByBook(context.Background(), bookUID, 1, 2).
		Return(model.ListLoans{
			Paging: model.Paging{
				Page:          1,
				PageSize:      2,
				TotalElements: 3,
			},
			Items: []model.LoanBook{},
		}, nil)

	r := httptest.NewRequest(http.MethodGet, "/books/"+bookUID+"/loans?page=1&size=2", http.NoBody)
	r.Header.Set(echo.HeaderContentType, echo.MIMEApplicationJSON)
	w := httptest.NewRecorder()

	e.ServeHTTP(w, r)

	require.Equal(t, http.StatusOK, w.Code)
	require.Equal(t, `{"page":1,"pageSize":2,"totalElements":3,"items":[]}`, strings.Trim(w.Body.String(), "\n"))
}

func TestHandler_LoansByBook_PageParams(t *testing.T) {
	t.Parallel()

	const bookUID = "83575e12-7ce0-48ee-9931-51919ff3c9ee"

	var tests = []struct {
		name         string
		query        string
		expectedBody string
	}{
		{
			name:         "err. page not a number",
			query:        "page=abc&size=2",
			expectedBody: `{"message":"page is invalid"}`,
		},
		{
			name:         "err. page negative",
			query:        "page=-1&size=2",
			expectedBody: `{"message":"page is invalid"}`,
		},
		{
			name:         "err. size negative",
			query:        "page=0&size=-5",
			expectedBody: `{"message":"size is invalid"}`,
		},
	}
	for _, tt := range tests {
		tt := tt
		t.Run(tt.name, func(t *testing.T) {
			t.Parallel()
			c := gomock.NewController(t)
			defer c.Finish()
			bookSvc := service_mocks.NewMockBookService(c)
			loanSvc := service_mocks.NewMockLoanService(c)
			log := zap.NewExample().Named("test")
			h := handler.New(bookSvc, loanSvc, log)

			e := echo.New()
			e.Validator = validate.NewCustomValidator()
			e.GET("/books/:bookUid/loans", h.LoansByBook)

			r := httptest.NewRequest(http.MethodGet, "/books/"+bookUID+"/loans?"+tt.query, http.NoBody)
			r.Header.Set(echo.HeaderContentType, echo.MIMEApplicationJSON)
			w := httptest.NewRecorder()

			e.ServeHTTP(w, r)

			require.Equal(t, http.StatusBadRequest, w.Code)
			require.Equal(t, tt.expectedBody, strings.Trim(w.Body.String(), "\n"))
		})
	}
}
