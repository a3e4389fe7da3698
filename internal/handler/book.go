package handler

import (
	"net/http"

	"github.com/labstack/echo/v4"
	"github.com/pkg/errors"

	"github.com/libraworks/library-api/internal/errs"
	"github.com/libraworks/library-api/internal/model"
)

func (h *Handler) CreateBook(c echo.Context) error {
	var req model.CreateBookRequest
	if err := c.Bind(&req); err != nil {
		return echo.NewHTTPError(http.StatusBadRequest, err.Error())
	}
	if err := c.Validate(req); err != nil {
		return err
	}

	book, err := h.bookSvc.CreateBook(c.Request().Context(), req)
	if err != nil {
		if errors.Is(err, errs.ErrISBNInUse) {
			return echo.NewHTTPError(http.StatusConflict, err.Error())
		}
		return echo.NewHTTPError(http.StatusInternalServerError, err.Error())
	}
	return c.JSON(http.StatusCreated, book)
}

func (h *Handler) GetBook(c echo.Context) error {
	bookUID := c.Param("bookUid")
	book, err := h.bookSvc.GetBook(c.Request().Context(), bookUID)
	if err != nil {
		if errors.Is(err, errs.ErrNotFound) {
			return echo.NewHTTPError(http.StatusNotFound, err.Error())
		}
		return echo.NewHTTPError(http.StatusInternalServerError, err.Error())
	}
	return c.JSON(http.StatusOK, book)
}

func (h *Handler) UpdateBook(c echo.Context) error {
	bookUID := c.Param("bookUid")
	var req model.UpdateBookRequest
	if err := c.Bind(&req); err != nil {
		return echo.NewHTTPError(http.StatusBadRequest, err.Error())
	}
	if err := c.Validate(req); err != nil {
		return err
	}

	book, err := h.bookSvc.UpdateBook(c.Request().Context(), bookUID, req)
	if err != nil {
		if errors.Is(err, errs.ErrNotFound) {
			return echo.NewHTTPError(http.StatusNotFound, err.Error())
		}
		return echo.NewHTTPError(http.StatusInternalServerError, err.Error())
	}
	return c.JSON(http.StatusOK, book)
}

func (h *Handler) DeleteBook(c echo.Context) error {
	bookUID := c.Param("bookUid")
	if err := h.bookSvc.DeleteBook(c.Request().Context(), bookUID); err != nil {
		if errors.Is(err, errs.ErrNotFound) {
			return echo.NewHTTPError(http.StatusNotFound, err.Error())
		}
		if errors.Is(err, errs.ErrBookAlreadyLoaned) || errors.Is(err, errs.ErrBookHasLoans) {
			return echo.NewHTTPError(http.StatusConflict, err.Error())
		}
		return echo.NewHTTPError(http.StatusInternalServerError, err.Error())
	}
	return c.NoContent(http.StatusNoContent)
}

func (h *Handler) FindBooks(c echo.Context) error {
	ctx := c.Request().Context()

	page, size, err := pageParams(c)
	if err != nil {
		return echo.NewHTTPError(http.StatusBadRequest, err)
	}
	filter := model.BookFilter{
		Title:  c.QueryParam("title"),
		Author: c.QueryParam("author"),
		ISBN:   c.QueryParam("isbn"),
	}

	books, err := h.bookSvc.FindBooks(ctx, filter, page, size)
	if err != nil {
		return echo.NewHTTPError(http.StatusInternalServerError, err.Error())
	}
	return c.JSON(http.StatusOK, books)
}

func (h *Handler) LoansByBook(c echo.Context) error {
	ctx := c.Request().Context()

	bookUID := c.Param("bookUid")
	page, size, err := pageParams(c)
	if err != nil {
		return echo.NewHTTPError(http.StatusBadRequest, err)
	}

	loans, err := h.loanSvc.LoansByBook(ctx, bookUID, page, size)
	if err != nil {
		if errors.Is(err, errs.ErrNotFound) {
			return echo.NewHTTPError(http.StatusNotFound, err.Error())
		}
		return echo.NewHTTPError(http.StatusInternalServerError, err.Error())
	}
	return c.JSON(http.StatusOK, loans)
}
