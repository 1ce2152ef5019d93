package http

import (
	"net/http"
	"path/filepath"
	"strconv"
	"time"

	"github.com/gin-gonic/gin"

	"github.com/garyjia/expense-admin/internal/attendance"
	"github.com/garyjia/expense-admin/internal/domain/apperr"
	"github.com/garyjia/expense-admin/internal/domain/entity"
	"github.com/garyjia/expense-admin/internal/expense"
	"github.com/garyjia/expense-admin/internal/export"
)

// SelectRequest picks a list-of-values entity by menu path
type SelectRequest struct {
	Path string `json:"path" binding:"required"`
}

// ValuesRequest carries add/edit form values
type ValuesRequest struct {
	Values map[string]any `json:"values"`
}

// ModalRequest opens the add or edit dialog; Key names the row to edit
type ModalRequest struct {
	Mode string `json:"mode" binding:"required,oneof=add edit"`
	Key  string `json:"key"`
}

// NoteRequest carries the send-for-approval note
type NoteRequest struct {
	Notes string `json:"notes"`
}

// UserSearchRequest filters the profile list
type UserSearchRequest struct {
	Filter   entity.ProfileFilter `json:"filter"`
	Page     int                  `json:"page"`
	PageSize int                  `json:"pageSize"`
}

// AttendanceRequest runs the unavailable-offices report; Date is YYYY-MM-DD
type AttendanceRequest struct {
	Date          string              `json:"date"`
	WorkingHours  entity.WorkingHours `json:"workingHours"`
	GovernorateID *int64              `json:"governorateId"`
}

// LOVMenu handles GET /api/lov/menu
func (h *Handlers) LOVMenu(c *gin.Context) {
	respond(c, session(c).LOV.Menu())
}

// LOVSelect handles POST /api/lov/select
func (h *Handlers) LOVSelect(c *gin.Context) {
	var req SelectRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		badRequest(c, "path is required")
		return
	}
	lov := session(c).LOV
	if err := lov.SelectEntity(c.Request.Context(), req.Path); err != nil {
		h.fail(c, err)
		return
	}
	respond(c, lov.Table())
}

// LOVState handles GET /api/lov/state
func (h *Handlers) LOVState(c *gin.Context) {
	respond(c, session(c).LOV.Snapshot())
}

// LOVTable handles GET /api/lov/table
func (h *Handlers) LOVTable(c *gin.Context) {
	respond(c, session(c).LOV.Table())
}

// LOVRefresh handles POST /api/lov/refresh
func (h *Handlers) LOVRefresh(c *gin.Context) {
	lov := session(c).LOV
	if err := lov.List(c.Request.Context()); err != nil {
		h.fail(c, err)
		return
	}
	respond(c, lov.Table())
}

// LOVCreate handles POST /api/lov/records
func (h *Handlers) LOVCreate(c *gin.Context) {
	var req ValuesRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		badRequest(c, "invalid form values")
		return
	}
	lov := session(c).LOV
	if err := lov.Create(c.Request.Context(), req.Values); err != nil {
		h.fail(c, err)
		return
	}
	respond(c, lov.Table())
}

// LOVUpdate handles PUT /api/lov/records/:id
func (h *Handlers) LOVUpdate(c *gin.Context) {
	var req ValuesRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		badRequest(c, "invalid form values")
		return
	}
	lov := session(c).LOV
	if err := lov.Update(c.Request.Context(), c.Param("id"), req.Values); err != nil {
		h.fail(c, err)
		return
	}
	respond(c, lov.Table())
}

// LOVRemove handles DELETE /api/lov/records/:id?confirm=true. Without
// confirmation nothing is sent and the prompt is returned.
func (h *Handlers) LOVRemove(c *gin.Context) {
	cf := newConfirmation(c)
	lov := session(c).LOV
	if err := lov.Remove(c.Request.Context(), c.Param("id"), cf.confirmer()); err != nil {
		h.fail(c, err)
		return
	}
	if !cf.confirmed {
		respond(c, ConfirmationResponse{Confirmed: false, Prompt: cf.prompt})
		return
	}
	respond(c, lov.Table())
}

// LOVOpenModal handles POST /api/lov/modal
func (h *Handlers) LOVOpenModal(c *gin.Context) {
	var req ModalRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		badRequest(c, "mode must be add or edit")
		return
	}

	lov := session(c).LOV
	ctx := c.Request.Context()
	var err error
	if req.Mode == "add" {
		err = lov.OpenAdd(ctx)
	} else {
		rec, found := lov.Record(req.Key)
		if !found {
			badRequest(c, "no row with that key")
			return
		}
		err = lov.OpenEdit(ctx, rec)
	}
	if err != nil {
		h.fail(c, err)
		return
	}
	respond(c, lov.Snapshot().Modal)
}

// LOVCloseModal handles DELETE /api/lov/modal
func (h *Handlers) LOVCloseModal(c *gin.Context) {
	lov := session(c).LOV
	lov.CloseModal()
	respond(c, lov.Snapshot().Modal)
}

// LOVSubmit handles POST /api/lov/modal/submit
func (h *Handlers) LOVSubmit(c *gin.Context) {
	var req ValuesRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		badRequest(c, "invalid form values")
		return
	}
	lov := session(c).LOV
	if err := lov.Submit(c.Request.Context(), req.Values); err != nil {
		h.fail(c, err)
		return
	}
	respond(c, lov.Snapshot())
}

// LOVExport handles GET /api/lov/export
func (h *Handlers) LOVExport(c *gin.Context) {
	lov := session(c).LOV
	st := lov.Snapshot()
	if st.Path == "" {
		h.fail(c, apperr.Precondition("lov.Export", "select an entity first"))
		return
	}
	h.sendWorkbook(c, st.Label, export.TableSheet(st.Label, lov.Table()))
}

// ExpenseLoad handles POST /api/expenses/:id/load
func (h *Handlers) ExpenseLoad(c *gin.Context) {
	viewer := session(c).Expense
	if err := viewer.Load(c.Request.Context(), c.Param("id")); err != nil {
		h.fail(c, err)
		return
	}
	respond(c, viewer.State())
}

// ExpenseState handles GET /api/expenses/current
func (h *Handlers) ExpenseState(c *gin.Context) {
	respond(c, session(c).Expense.State())
}

// ExpenseNote handles PUT /api/expenses/current/note
func (h *Handlers) ExpenseNote(c *gin.Context) {
	var req NoteRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		badRequest(c, "invalid note")
		return
	}
	viewer := session(c).Expense
	viewer.SetNote(req.Notes)
	respond(c, viewer.State())
}

// ExpenseSend handles POST /api/expenses/current/send
func (h *Handlers) ExpenseSend(c *gin.Context) {
	var req NoteRequest
	if c.Request.ContentLength != 0 {
		if err := c.ShouldBindJSON(&req); err != nil {
			badRequest(c, "invalid note")
			return
		}
	}
	outcome, err := session(c).Expense.Send(c.Request.Context(), req.Notes)
	if err != nil {
		h.fail(c, err)
		return
	}
	respond(c, outcome)
}

// ExpenseComplete handles POST /api/expenses/current/complete?confirm=true
func (h *Handlers) ExpenseComplete(c *gin.Context) {
	cf := newConfirmation(c)
	outcome, err := session(c).Expense.Complete(c.Request.Context(), cf.confirmer())
	if err != nil {
		h.fail(c, err)
		return
	}
	if !cf.confirmed {
		respond(c, ConfirmationResponse{Confirmed: false, Prompt: cf.prompt})
		return
	}
	respond(c, outcome)
}

// ExpenseExport handles GET /api/expenses/current/export
func (h *Handlers) ExpenseExport(c *gin.Context) {
	st := session(c).Expense.State()
	if st.Expense == nil {
		h.fail(c, apperr.Precondition("expense.Export", "open an expense first"))
		return
	}
	h.sendWorkbook(c, "expense-"+st.Expense.ID.String(), export.ExpenseSheets(*st.Expense, st.Items)...)
}

// HistoryDropdowns handles POST /api/history/dropdowns
func (h *Handlers) HistoryDropdowns(c *gin.Context) {
	hist := session(c).History
	if err := hist.LoadDropdowns(c.Request.Context()); err != nil {
		h.fail(c, err)
		return
	}
	respond(c, hist.State())
}

// HistoryState handles GET /api/history/state
func (h *Handlers) HistoryState(c *gin.Context) {
	respond(c, session(c).History.State())
}

// HistoryFilter handles PUT /api/history/filter
func (h *Handlers) HistoryFilter(c *gin.Context) {
	var f expense.Filter
	if err := c.ShouldBindJSON(&f); err != nil {
		badRequest(c, "invalid filter")
		return
	}
	hist := session(c).History
	if err := hist.SetFilter(c.Request.Context(), f); err != nil {
		h.fail(c, err)
		return
	}
	respond(c, hist.State().Filter)
}

// HistoryResetFilter handles DELETE /api/history/filter
func (h *Handlers) HistoryResetFilter(c *gin.Context) {
	hist := session(c).History
	hist.ResetFilter()
	respond(c, hist.State().Filter)
}

// HistorySearch handles GET /api/history?page=N
func (h *Handlers) HistorySearch(c *gin.Context) {
	page, err := pageParam(c)
	if err != nil {
		badRequest(c, "page must be a positive number")
		return
	}
	result, err := session(c).History.Search(c.Request.Context(), page)
	if err != nil {
		h.fail(c, err)
		return
	}
	respond(c, result)
}

// HistoryExport handles GET /api/history/export; it writes the page last
// searched
func (h *Handlers) HistoryExport(c *gin.Context) {
	h.sendWorkbook(c, "expense-history", export.HistorySheet(session(c).History.State().Page))
}

// UsersReference handles POST /api/users/reference
func (h *Handlers) UsersReference(c *gin.Context) {
	m := session(c).Users
	if err := m.LoadReferenceData(c.Request.Context()); err != nil {
		h.fail(c, err)
		return
	}
	respond(c, m.State())
}

// UsersState handles GET /api/users/state
func (h *Handlers) UsersState(c *gin.Context) {
	respond(c, session(c).Users.State())
}

// UsersOffices handles GET /api/users/offices/:governorateId
func (h *Handlers) UsersOffices(c *gin.Context) {
	id, err := strconv.ParseInt(c.Param("governorateId"), 10, 64)
	if err != nil {
		badRequest(c, "invalid governorate id")
		return
	}
	offices, err := session(c).Users.OfficesOf(c.Request.Context(), id)
	if err != nil {
		h.fail(c, err)
		return
	}
	respond(c, offices)
}

// UsersSearch handles POST /api/users/search
func (h *Handlers) UsersSearch(c *gin.Context) {
	var req UserSearchRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		badRequest(c, "invalid search")
		return
	}
	page, err := session(c).Users.Search(c.Request.Context(), req.Filter, req.Page, req.PageSize)
	if err != nil {
		h.fail(c, err)
		return
	}
	respond(c, page)
}

// UsersResetSearch handles DELETE /api/users/search
func (h *Handlers) UsersResetSearch(c *gin.Context) {
	page, err := session(c).Users.ResetFilter(c.Request.Context())
	if err != nil {
		h.fail(c, err)
		return
	}
	respond(c, page)
}

// UsersRegister handles POST /api/users
func (h *Handlers) UsersRegister(c *gin.Context) {
	var req entity.RegisterRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		badRequest(c, "invalid registration")
		return
	}
	m := session(c).Users
	if err := m.Register(c.Request.Context(), req); err != nil {
		h.fail(c, err)
		return
	}
	respond(c, m.State().Page)
}

// UsersUpdate handles PUT /api/users/:userId
func (h *Handlers) UsersUpdate(c *gin.Context) {
	var req entity.UpdateAccountRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		badRequest(c, "invalid account update")
		return
	}
	req.UserID = entity.ID(c.Param("userId"))

	m := session(c).Users
	if err := m.Update(c.Request.Context(), req); err != nil {
		h.fail(c, err)
		return
	}
	respond(c, m.State().Page)
}

// AttendanceGovernorates handles GET /api/attendance/governorates
func (h *Handlers) AttendanceGovernorates(c *gin.Context) {
	r := session(c).Attendance
	if err := r.LoadGovernorates(c.Request.Context()); err != nil {
		h.fail(c, err)
		return
	}
	respond(c, r.State().Governorates)
}

// AttendanceUnavailable handles POST /api/attendance/unavailable
func (h *Handlers) AttendanceUnavailable(c *gin.Context) {
	q, okay := h.attendanceQuery(c)
	if !okay {
		return
	}
	offices, err := session(c).Attendance.Unavailable(c.Request.Context(), q)
	if err != nil {
		h.fail(c, err)
		return
	}
	respond(c, offices)
}

// AttendanceExport handles POST /api/attendance/unavailable/export
func (h *Handlers) AttendanceExport(c *gin.Context) {
	q, okay := h.attendanceQuery(c)
	if !okay {
		return
	}
	offices, err := session(c).Attendance.Unavailable(c.Request.Context(), q)
	if err != nil {
		h.fail(c, err)
		return
	}
	h.sendWorkbook(c, "unavailable-offices", export.OfficesSheet(*q.Date, offices))
}

func (h *Handlers) attendanceQuery(c *gin.Context) (attendance.Query, bool) {
	var req AttendanceRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		badRequest(c, "invalid report query")
		return attendance.Query{}, false
	}
	q := attendance.Query{WorkingHours: req.WorkingHours, GovernorateID: req.GovernorateID}
	if req.Date != "" {
		day, err := time.Parse(entity.DateLayout, req.Date)
		if err != nil {
			badRequest(c, "date must be YYYY-MM-DD")
			return attendance.Query{}, false
		}
		q.Date = &day
	}
	return q, true
}

// sendWorkbook writes sheets to the export directory and streams the file
func (h *Handlers) sendWorkbook(c *gin.Context, name string, sheets ...export.Sheet) {
	path, err := h.backend.Exporter().Write(name, sheets...)
	if err != nil {
		h.logger.Error("Export failed", "name", name, "error", err)
		c.JSON(http.StatusInternalServerError, Response{Success: false, Error: "export failed", Notices: session(c).Inbox.Drain()})
		return
	}
	h.logger.Info("Export sent", "session_id", session(c).ID, "path", path)
	c.FileAttachment(path, filepath.Base(path))
}

func pageParam(c *gin.Context) (int, error) {
	raw := c.DefaultQuery("page", "1")
	page, err := strconv.Atoi(raw)
	if err != nil || page < 1 {
		return 0, strconv.ErrSyntax
	}
	return page, nil
}
