package entity

import (
	"time"

	"github.com/shopspring/decimal"

	"github.com/garyjia/expense-admin/internal/domain/workflow"
)

// DateLayout is the calendar date format used for line items and reports
const DateLayout = "2006-01-02"

// MonthlyExpense is a supervisor's monthly aggregate going through approval
type MonthlyExpense struct {
	ID              ID              `json:"id"`
	TotalAmount     decimal.Decimal `json:"totalAmount"`
	Status          workflow.Status `json:"status"`
	OfficeName      string          `json:"officeName"`
	GovernorateName string          `json:"governorateName"`
	ProfileFullName string          `json:"profileFullName"`
	ThresholdName   string          `json:"thresholdName"`
	DateCreated     Timestamp       `json:"dateCreated"`
	Notes           string          `json:"notes"`
}

// DailyExpense is one itemized entry of a monthly expense
type DailyExpense struct {
	ID              ID              `json:"id"`
	Date            string          `json:"date"`
	ExpenseTypeName string          `json:"expenseTypeName"`
	Price           decimal.Decimal `json:"price"`
	Quantity        decimal.Decimal `json:"quantity"`
	TotalAmount     decimal.Decimal `json:"totalAmount"`
	Notes           string          `json:"notes"`
}

// DailyExpenseWire is the daily-expenses payload as the API sends it
type DailyExpenseWire struct {
	ID              ID              `json:"id"`
	ExpenseDate     Timestamp       `json:"expenseDate"`
	ExpenseTypeName string          `json:"expenseTypeName"`
	Price           decimal.Decimal `json:"price"`
	Quantity        decimal.Decimal `json:"quantity"`
	Amount          decimal.Decimal `json:"amount"`
	Notes           string          `json:"notes"`
}

// ToDailyExpense maps the wire shape onto the line item shown in tables
func (w DailyExpenseWire) ToDailyExpense() DailyExpense {
	return DailyExpense{
		ID:              w.ID,
		Date:            w.ExpenseDate.UTC().Format(DateLayout),
		ExpenseTypeName: w.ExpenseTypeName,
		Price:           w.Price,
		Quantity:        w.Quantity,
		TotalAmount:     w.Amount,
		Notes:           w.Notes,
	}
}

// StatusChangeRequest is the body of POST /api/Expense/{id}/status
type StatusChangeRequest struct {
	MonthlyExpensesID ID              `json:"monthlyExpensesId"`
	NewStatus         workflow.Status `json:"newStatus"`
	Notes             string          `json:"notes"`
}

// ActionRequest is the body of POST /api/Actions, the audit trail entry
type ActionRequest struct {
	ActionType        string `json:"actionType"`
	Notes             string `json:"notes"`
	ProfileID         ID     `json:"profileId"`
	MonthlyExpensesID ID     `json:"monthlyExpensesId"`
}

// ExpenseSearchRequest is the body of POST /api/Expense/search
type ExpenseSearchRequest struct {
	OfficeID         *int64            `json:"officeId"`
	GovernorateID    *int64            `json:"governorateId"`
	ProfileID        ID                `json:"profileId"`
	Status           *workflow.Status  `json:"status"`
	StartDate        *time.Time        `json:"startDate"`
	EndDate          *time.Time        `json:"endDate"`
	PaginationParams PaginationParams  `json:"PaginationParams"`
	AllowedStatuses  []workflow.Status `json:"allowedStatuses,omitempty"`
}

// PaginationParams selects a page on search endpoints
type PaginationParams struct {
	PageNumber int `json:"PageNumber"`
	PageSize   int `json:"PageSize"`
}
