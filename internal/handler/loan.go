package handler

import (
	"net/http"

	"github.com/labstack/echo/v4"
	"github.com/pkg/errors"

	"github.com/libraworks/library-api/internal/errs"
	"github.com/libraworks/library-api/internal/model"
)

func (h *Handler) CreateLoan(c echo.Context) error {
	var req model.CreateLoanRequest
	if err := c.Bind(&req); err != nil {
		return echo.NewHTTPError(http.StatusBadRequest, err.Error())
	}
	if err := c.Validate(req); err != nil {
		return err
	}

	loan, err := h.loanSvc.CreateLoan(c.Request().Context(), req)
	if err != nil {
		if errors.Is(err, errs.ErrBookByISBN) {
			return echo.NewHTTPError(http.StatusBadRequest, err.Error())
		}
		if errors.Is(err, errs.ErrBookAlreadyLoaned) {
			return echo.NewHTTPError(http.StatusConflict, err.Error())
		}
		return echo.NewHTTPError(http.StatusInternalServerError, err.Error())
	}
	return c.JSON(http.StatusCreated, loan)
}

func (h *Handler) ReturnLoan(c echo.Context) error {
	loanUID := c.Param("loanUid")
	var req model.ReturnLoanRequest
	if err := c.Bind(&req); err != nil {
		return echo.NewHTTPError(http.StatusBadRequest, err.Error())
	}
	if err := c.Validate(req); err != nil {
		return err
	}

	loan, err := h.loanSvc.ReturnLoan(c.Request().Context(), loanUID, *req.Returned)
	if err != nil {
		if errors.Is(err, errs.ErrNotFound) {
			return echo.NewHTTPError(http.StatusNotFound, err.Error())
		}
		return echo.NewHTTPError(http.StatusInternalServerError, err.Error())
	}
	return c.JSON(http.StatusOK, loan)
}

func (h *Handler) FindLoans(c echo.Context) error {
	ctx := c.Request().Context()

	page, size, err := pageParams(c)
	if err != nil {
		return echo.NewHTTPError(http.StatusBadRequest, err)
	}
	filter := model.LoanFilter{
		ISBN:     c.QueryParam("isbn"),
		Customer: c.QueryParam("customer"),
	}

	loans, err := h.loanSvc.FindLoans(ctx, filter, page, size)
	if err != nil {
		return echo.NewHTTPError(http.StatusInternalServerError, err.Error())
	}
	return c.JSON(http.StatusOK, loans)
}
