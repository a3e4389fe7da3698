package handler

import (
	"net/http"
	"strconv"

	"github.com/labstack/echo/v4"
	"github.com/labstack/echo/v4/middleware"
	"github.com/pkg/errors"
	"go.uber.org/zap"

	md "github.com/libraworks/library-api/pkg/middleware"
	"github.com/libraworks/library-api/pkg/validate"
)

type Handler struct {
	bookSvc BookService
	loanSvc LoanService
	log     *zap.Logger
}

func New(bookSvc BookService, loanSvc LoanService, log *zap.Logger) *Handler {
	h := &Handler{
		bookSvc: bookSvc,
		loanSvc: loanSvc,
		log:     log,
	}
	return h
}

func (h *Handler) NewRouter() *echo.Echo {
	e := echo.New()
	const (
		baseRPS = 10
		apiRPS  = 100
	)
	e.Use(middleware.RecoverWithConfig(middleware.RecoverConfig{
		StackSize: 4 << 10, // 4 KB
	}))
	e.Use(middleware.CORSWithConfig(middleware.CORSConfig{
		AllowOrigins:     []string{"*"},
		AllowMethods:     []string{http.MethodGet, http.MethodOptions, http.MethodHead, http.MethodPut, http.MethodPatch, http.MethodPost, http.MethodDelete},
		AllowCredentials: true,
	}))

	base := e.Group("", md.NewRateLimiter(baseRPS))
	base.GET("/manage/health", h.Health)

	e.Validator = validate.NewCustomValidator()
	api := e.Group("/api/v1",
		middleware.RequestLoggerWithConfig(md.RequestLoggerConfig()),
		middleware.RequestID(),
		md.NewRateLimiter(apiRPS),
	)

	api.POST("/books", h.CreateBook)
	api.GET("/books", h.FindBooks)
	api.GET("/books/:bookUid", h.GetBook)
	api.PUT("/books/:bookUid", h.UpdateBook)
	api.DELETE("/books/:bookUid", h.DeleteBook)
	api.GET("/books/:bookUid/loans", h.LoansByBook)

	api.POST("/loans", h.CreateLoan)
	api.PATCH("/loans/:loanUid", h.ReturnLoan)
	api.GET("/loans", h.FindLoans)

	return e
}

func (h *Handler) Health(c echo.Context) error {
	return c.String(http.StatusOK, "OK")
}

func pageParams(c echo.Context) (page, size int, err error) {
	if pageParam := c.QueryParam("page"); pageParam != "" {
		if page, err = strconv.Atoi(pageParam); err != nil || page < 0 {
			return 0, 0, errors.New("page is invalid")
		}
	}
	if sizeParam := c.QueryParam("size"); sizeParam != "" {
		if size, err = strconv.Atoi(sizeParam); err != nil || size < 0 {
			return 0, 0, errors.New("size is invalid")
		}
	}
	return page, size, nil
}
