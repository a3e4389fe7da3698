package model

import (
	"database/sql/driver"
	"fmt"
	"strings"
	"time"
)

type Book struct {
	ID      int    `json:"-" db:"id"`
	BookUID string `json:"bookUid" db:"book_uid"`
	Title   string `json:"title" db:"title"`
	Author  string `json:"author" db:"author"`
	ISBN    string `json:"isbn" db:"isbn"`
}

type Status string

const (
	StatusOpen     Status = "OPEN"
	StatusReturned Status = "RETURNED"
)

type Loan struct {
	ID            int    `json:"-" db:"id"`
	LoanUID       string `json:"loanUid" db:"loan_uid"`
	BookID        int    `json:"-" db:"book_id"`
	Customer      string `json:"customer" db:"customer"`
	CustomerEmail string `json:"customerEmail,omitempty" db:"customer_email"`
	LoanDate      Date   `json:"loanDate" db:"loan_date"`
	Status        Status `json:"status" db:"status"`
}

// LoanBook is a Loan joined with the Book it references.
type LoanBook struct {
	Loan `json:",inline"`
	Book Book `json:"book" db:"book"`
}

type Paging struct {
	Page          int `json:"page"`
	PageSize      int `json:"pageSize"`
	TotalElements int `json:"totalElements"`
}

type ListBooks struct {
	Paging `json:",inline"`
	Items  []Book `json:"items"`
}

type ListLoans struct {
	Paging `json:",inline"`
	Items  []LoanBook `json:"items"`
}

type CreateBookRequest struct {
	Title  string `json:"title" validate:"required"`
	Author string `json:"author" validate:"required"`
	ISBN   string `json:"isbn" validate:"required"`
}

type UpdateBookRequest struct {
	Title  string `json:"title" validate:"required"`
	Author string `json:"author" validate:"required"`
}

type BookFilter struct {
	Title  string `json:"title"`
	Author string `json:"author"`
	ISBN   string `json:"isbn"`
}

type CreateLoanRequest struct {
	ISBN          string `json:"isbn" validate:"required"`
	Customer      string `json:"customer" validate:"required"`
	CustomerEmail string `json:"customerEmail" validate:"omitempty,email"`
}

type ReturnLoanRequest struct {
	Returned *bool `json:"returned" validate:"required"`
}

// LoanFilter matches loans whose book ISBN equals ISBN or whose customer
// equals Customer. An empty field does not constrain the query.
type LoanFilter struct {
	ISBN     string `json:"isbn"`
	Customer string `json:"customer"`
}

// OverdueNotice is the batched payload published to the notification topic.
type OverdueNotice struct {
	Message    string   `json:"message"`
	Recipients []string `json:"recipients"`
}

// Date is a calendar date without a time-of-day component.
type Date struct {
	time.Time `json:",inline"`
}

func NewDate(t time.Time) Date {
	return Date{Time: time.Date(t.Year(), t.Month(), t.Day(), 0, 0, 0, 0, time.UTC)}
}

func (d Date) MarshalJSON() ([]byte, error) {
	return []byte(`"` + d.Format(time.DateOnly) + `"`), nil
}

func (d *Date) UnmarshalJSON(data []byte) error {
	s := strings.Trim(string(data), `"`)
	if s == "" || s == "null" {
		return nil
	}
	t, err := time.Parse(time.DateOnly, s)
	if err != nil {
		return err
	}
	d.Time = t
	return nil
}

func (d *Date) Scan(src any) error {
	switch v := src.(type) {
	case time.Time:
		d.Time = v
		return nil
	case nil:
		return nil
	default:
		return fmt.Errorf("scan Date: unsupported type %T", src)
	}
}

func (d Date) Value() (driver.Value, error) {
	return d.Format(time.DateOnly), nil
}
