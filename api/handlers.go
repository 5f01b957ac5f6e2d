/*
handlers.go - HTTP API handlers for the forklift rental back office

PURPOSE:
  Exposes package service (writes) and the pure derivations of package
  rental (reads) over JSON. Handlers parse and validate the request, call
  one service method or derivation, and serialize the result.

READS:
  Every list comes from service.View, which is the caller's scoped snapshot.
  A record outside the caller's company is indistinguishable from a missing
  one (404).

ERROR HANDLING:
  Errors are returned as JSON ErrorResponse with the status picked by fail:
  - 400: validation errors, malformed JSON
  - 401: missing or invalid bearer token
  - 403: role lacks the capability
  - 404: record missing or outside the caller's company
  - 409: state machine refused the action, uniqueness conflicts
  - 422: spreadsheet import rejected (the row report is attached)
  - 500: everything else

SEE ALSO:
  - dto.go: request/response data structures
  - server.go: router setup and middleware
  - auth.go: bearer tokens and the actor context
*/
package api

import (
	"encoding/json"
	"errors"
	"fmt"
	"net/http"
	"reflect"
	"strconv"
	"strings"

	"github.com/go-chi/chi/v5"
	"github.com/go-playground/validator/v10"
	"go.uber.org/zap"

	"github.com/warp/forklift-rental/logger"
	"github.com/warp/forklift-rental/metrics"
	"github.com/warp/forklift-rental/rental"
	"github.com/warp/forklift-rental/service"
)

// maxCalendarRange bounds /api/calendar/range.
const maxCalendarRange = 366

// maxUploadSize bounds spreadsheet uploads.
const maxUploadSize = 16 << 20

// =============================================================================
// HANDLER CONTEXT
// =============================================================================

// Options configures a Handler.
type Options struct {
	Logger           *zap.Logger
	Metrics          *metrics.Metrics
	CORSAllowOrigins []string
	AllowDevLogin    bool
}

// Handler holds the dependencies shared by every endpoint.
type Handler struct {
	svc           *service.Service
	tokens        *Tokens
	scheduler     *Scheduler
	validate      *validator.Validate
	log           *zap.Logger
	metrics       *metrics.Metrics
	corsOrigins   []string
	allowDevLogin bool
}

// NewHandler wires the handlers. scheduler may be nil, in which case manual
// reconciliation calls the service directly.
func NewHandler(svc *service.Service, tokens *Tokens, scheduler *Scheduler, opts Options) *Handler {
	v := validator.New()
	v.RegisterTagNameFunc(func(fld reflect.StructField) string {
		name := strings.SplitN(fld.Tag.Get("json"), ",", 2)[0]
		if name == "-" {
			return ""
		}
		return name
	})
	log := opts.Logger
	if log == nil {
		log = zap.NewNop()
	}
	return &Handler{
		svc:           svc,
		tokens:        tokens,
		scheduler:     scheduler,
		validate:      v,
		log:           log,
		metrics:       opts.Metrics,
		corsOrigins:   opts.CORSAllowOrigins,
		allowDevLogin: opts.AllowDevLogin,
	}
}

// view loads the caller's scoped snapshot after checking capability.
func (h *Handler) view(w http.ResponseWriter, r *http.Request, capability rental.Capability) (*rental.User, *rental.Snapshot, bool) {
	actor := ActorFrom(r.Context())
	if !rental.Can(actor, capability) {
		writeError(w, http.StatusForbidden, "forbidden", fmt.Errorf("%w: %s", rental.ErrForbidden, capability))
		return nil, nil, false
	}
	snap, err := h.svc.View(r.Context(), actor)
	if err != nil {
		h.fail(w, r, err)
		return nil, nil, false
	}
	return actor, snap, true
}

// =============================================================================
// COMPANY ENDPOINTS
// =============================================================================

// ListCompanies returns the companies the caller may see: all of them for
// admins, the caller's own otherwise.
func (h *Handler) ListCompanies(w http.ResponseWriter, r *http.Request) {
	_, snap, ok := h.view(w, r, rental.CapDashboard)
	if !ok {
		return
	}
	writeJSON(w, http.StatusOK, orEmpty(snap.Companies))
}

func (h *Handler) CreateCompany(w http.ResponseWriter, r *http.Request) {
	var req CompanyRequest
	if !h.decode(w, r, &req) {
		return
	}
	company, err := h.svc.CreateCompany(r.Context(), ActorFrom(r.Context()), req.toCompany())
	if err != nil {
		h.fail(w, r, err)
		return
	}
	writeJSON(w, http.StatusCreated, company)
}

func (h *Handler) UpdateCompany(w http.ResponseWriter, r *http.Request) {
	var req CompanyRequest
	if !h.decode(w, r, &req) {
		return
	}
	company, err := h.svc.UpdateCompany(r.Context(), ActorFrom(r.Context()), chi.URLParam(r, "id"), req.toCompany())
	if err != nil {
		h.fail(w, r, err)
		return
	}
	writeJSON(w, http.StatusOK, company)
}

func (h *Handler) DeleteCompany(w http.ResponseWriter, r *http.Request) {
	if err := h.svc.DeleteCompany(r.Context(), ActorFrom(r.Context()), chi.URLParam(r, "id")); err != nil {
		h.fail(w, r, err)
		return
	}
	w.WriteHeader(http.StatusNoContent)
}

// =============================================================================
// FORKLIFT ENDPOINTS
// =============================================================================

// ListForklifts supports ?management_status= and ?rental_company_id=.
func (h *Handler) ListForklifts(w http.ResponseWriter, r *http.Request) {
	_, snap, ok := h.view(w, r, rental.CapForkliftsRead)
	if !ok {
		return
	}
	status := rental.ManagementStatus(r.URL.Query().Get("management_status"))
	company := r.URL.Query().Get("rental_company_id")

	out := make([]rental.Forklift, 0, len(snap.Forklifts))
	for _, f := range snap.Forklifts {
		if status != "" && f.ManagementStatus != status {
			continue
		}
		if company != "" && f.RentalCompanyID != company {
			continue
		}
		out = append(out, f)
	}
	writeJSON(w, http.StatusOK, out)
}

func (h *Handler) GetForklift(w http.ResponseWriter, r *http.Request) {
	_, snap, ok := h.view(w, r, rental.CapForkliftsRead)
	if !ok {
		return
	}
	id := chi.URLParam(r, "id")
	f, found := snap.Forklift(id)
	if !found {
		h.fail(w, r, &rental.NotFoundError{Entity: "forklift", ID: id})
		return
	}
	writeJSON(w, http.StatusOK, f)
}

func (h *Handler) CreateForklift(w http.ResponseWriter, r *http.Request) {
	var req ForkliftRequest
	if !h.decode(w, r, &req) {
		return
	}
	in, err := req.toForklift()
	if err != nil {
		h.fail(w, r, err)
		return
	}
	f, err := h.svc.CreateForklift(r.Context(), ActorFrom(r.Context()), in)
	if err != nil {
		h.fail(w, r, err)
		return
	}
	writeJSON(w, http.StatusCreated, f)
}

func (h *Handler) TransitionForklift(w http.ResponseWriter, r *http.Request) {
	var req ForkliftTransitionRequest
	if !h.decode(w, r, &req) {
		return
	}
	change, err := req.toChange()
	if err != nil {
		h.fail(w, r, err)
		return
	}
	f, err := h.svc.TransitionForklift(r.Context(), ActorFrom(r.Context()), chi.URLParam(r, "id"), change)
	if err != nil {
		h.fail(w, r, err)
		return
	}
	writeJSON(w, http.StatusOK, f)
}

func (h *Handler) RemoteControl(w http.ResponseWriter, r *http.Request) {
	var req RemoteRequest
	if !h.decode(w, r, &req) {
		return
	}
	f, err := h.svc.RemoteControl(r.Context(), ActorFrom(r.Context()), chi.URLParam(r, "id"), rental.ForkliftAction(req.Action))
	if err != nil {
		h.fail(w, r, err)
		return
	}
	writeJSON(w, http.StatusOK, f)
}

// ImportForklifts accepts a multipart upload in field "file" (CSV or XLSX).
// ?dry_run=true validates without writing. A rejected file answers 422 with
// the per-row report.
func (h *Handler) ImportForklifts(w http.ResponseWriter, r *http.Request) {
	r.Body = http.MaxBytesReader(w, r.Body, maxUploadSize)
	if err := r.ParseMultipartForm(maxUploadSize); err != nil {
		writeError(w, http.StatusBadRequest, "invalid upload", err)
		return
	}
	file, header, err := r.FormFile("file")
	if err != nil {
		writeError(w, http.StatusBadRequest, "missing file", err)
		return
	}
	defer file.Close()

	dryRun := false
	if v := r.URL.Query().Get("dry_run"); v != "" {
		if dryRun, err = strconv.ParseBool(v); err != nil {
			h.fail(w, r, &rental.ValidationError{Field: "dry_run", Value: v, Reason: "expected true or false"})
			return
		}
	}

	report, err := h.svc.ImportForklifts(r.Context(), ActorFrom(r.Context()), header.Filename, file,
		r.FormValue("rental_company_id"), dryRun)
	if err != nil {
		if service.IsImportRejected(err) {
			writeJSON(w, http.StatusUnprocessableEntity, ErrorResponse{
				Error:   "import rejected",
				Details: fmt.Sprintf("%d of %d rows failed validation", report.InvalidRows, report.TotalRows),
				Report:  report,
			})
			return
		}
		h.fail(w, r, err)
		return
	}
	status := http.StatusCreated
	if dryRun {
		status = http.StatusOK
	}
	writeJSON(w, status, report)
}

// =============================================================================
// LESSEE ENDPOINTS
// =============================================================================

func (h *Handler) ListLessees(w http.ResponseWriter, r *http.Request) {
	_, snap, ok := h.view(w, r, rental.CapLessees)
	if !ok {
		return
	}
	writeJSON(w, http.StatusOK, orEmpty(snap.Lessees))
}

func (h *Handler) CreateLessee(w http.ResponseWriter, r *http.Request) {
	var req LesseeRequest
	if !h.decode(w, r, &req) {
		return
	}
	lessee, err := h.svc.CreateLessee(r.Context(), ActorFrom(r.Context()), req.toLessee())
	if err != nil {
		h.fail(w, r, err)
		return
	}
	writeJSON(w, http.StatusCreated, lessee)
}

// =============================================================================
// CONTRACT ENDPOINTS
// =============================================================================

// ListContracts supports ?status=, ?lessee_id= and ?forklift_id=.
func (h *Handler) ListContracts(w http.ResponseWriter, r *http.Request) {
	_, snap, ok := h.view(w, r, rental.CapContracts)
	if !ok {
		return
	}
	q := r.URL.Query()
	status := rental.ContractStatus(q.Get("status"))
	lessee, forklift := q.Get("lessee_id"), q.Get("forklift_id")

	out := []ContractDTO{}
	for _, c := range snap.Contracts {
		if status != "" && c.Status != status {
			continue
		}
		if lessee != "" && c.LesseeID != lessee {
			continue
		}
		if forklift != "" && c.ForkliftID != forklift {
			continue
		}
		out = append(out, toContractDTO(c, snap))
	}
	writeJSON(w, http.StatusOK, out)
}

func (h *Handler) GetContract(w http.ResponseWriter, r *http.Request) {
	_, snap, ok := h.view(w, r, rental.CapContracts)
	if !ok {
		return
	}
	id := chi.URLParam(r, "id")
	c, found := snap.Contract(id)
	if !found {
		h.fail(w, r, &rental.NotFoundError{Entity: "contract", ID: id})
		return
	}
	writeJSON(w, http.StatusOK, toContractDTO(c, snap))
}

func (h *Handler) CreateContract(w http.ResponseWriter, r *http.Request) {
	var req ContractRequest
	if !h.decode(w, r, &req) {
		return
	}
	in, err := req.toContract()
	if err != nil {
		h.fail(w, r, err)
		return
	}
	c, err := h.svc.CreateContract(r.Context(), ActorFrom(r.Context()), in)
	if err != nil {
		h.fail(w, r, err)
		return
	}
	h.respondContract(w, r, http.StatusCreated, c)
}

func (h *Handler) ExtendContract(w http.ResponseWriter, r *http.Request) {
	var req ExtendRequest
	if !h.decode(w, r, &req) {
		return
	}
	end, err := rental.ParseDate("end_date", req.EndDate)
	if err != nil {
		h.fail(w, r, err)
		return
	}
	c, err := h.svc.ExtendContract(r.Context(), ActorFrom(r.Context()), chi.URLParam(r, "id"), end)
	if err != nil {
		h.fail(w, r, err)
		return
	}
	h.respondContract(w, r, http.StatusOK, c)
}

func (h *Handler) TransitionContract(w http.ResponseWriter, r *http.Request) {
	var req TransitionRequest
	if !h.decode(w, r, &req) {
		return
	}
	action, err := rental.ParseContractAction(req.Action)
	if err != nil {
		h.fail(w, r, err)
		return
	}
	c, err := h.svc.TransitionContract(r.Context(), ActorFrom(r.Context()), chi.URLParam(r, "id"), action)
	if err != nil {
		h.fail(w, r, err)
		return
	}
	h.respondContract(w, r, http.StatusOK, c)
}

// respondContract decorates a freshly written contract with the lessee name.
func (h *Handler) respondContract(w http.ResponseWriter, r *http.Request, status int, c rental.Contract) {
	snap, err := h.svc.View(r.Context(), ActorFrom(r.Context()))
	if err != nil {
		h.fail(w, r, err)
		return
	}
	writeJSON(w, status, toContractDTO(c, snap))
}

func toContractDTO(c rental.Contract, snap *rental.Snapshot) ContractDTO {
	name := rental.UnknownLabel
	if l, ok := snap.Lessee(c.LesseeID); ok {
		name = l.Name
	}
	actions := rental.AllowedContractActions(c.Status)
	if actions == nil {
		actions = []rental.ContractAction{}
	}
	return ContractDTO{Contract: c, LesseeName: name, AllowedActions: actions}
}

// =============================================================================
// SETTLEMENT ENDPOINTS
// =============================================================================

// ListSettlements supports ?type= (or ALL) and ?contract_id=.
func (h *Handler) ListSettlements(w http.ResponseWriter, r *http.Request) {
	_, snap, ok := h.view(w, r, rental.CapSettlements)
	if !ok {
		return
	}
	t, err := rental.ParseSettlementType(r.URL.Query().Get("type"))
	if err != nil {
		h.fail(w, r, err)
		return
	}
	items := rental.FilterSettlements(snap.SettlementItems, t)
	if contract := r.URL.Query().Get("contract_id"); contract != "" {
		filtered := make([]rental.SettlementItem, 0, len(items))
		for _, item := range items {
			if item.ContractID == contract {
				filtered = append(filtered, item)
			}
		}
		items = filtered
	}
	writeJSON(w, http.StatusOK, orEmpty(items))
}

func (h *Handler) CreateSettlement(w http.ResponseWriter, r *http.Request) {
	var req SettlementRequest
	if !h.decode(w, r, &req) {
		return
	}
	in, err := req.toItem()
	if err != nil {
		h.fail(w, r, err)
		return
	}
	item, err := h.svc.CreateSettlement(r.Context(), ActorFrom(r.Context()), in)
	if err != nil {
		h.fail(w, r, err)
		return
	}
	writeJSON(w, http.StatusCreated, item)
}

// SettlementReport aggregates visible items into revenue/cost buckets.
// ?granularity=day|month|year (default month), ?type= filters first.
func (h *Handler) SettlementReport(w http.ResponseWriter, r *http.Request) {
	_, snap, ok := h.view(w, r, rental.CapSettlements)
	if !ok {
		return
	}
	g, err := rental.ParseGranularity(r.URL.Query().Get("granularity"))
	if err != nil {
		h.fail(w, r, err)
		return
	}
	t, err := rental.ParseSettlementType(r.URL.Query().Get("type"))
	if err != nil {
		h.fail(w, r, err)
		return
	}
	writeJSON(w, http.StatusOK, rental.Aggregate(rental.FilterSettlements(snap.SettlementItems, t), g))
}

// =============================================================================
// CALENDAR ENDPOINTS
// =============================================================================

// CalendarDay lists the events of ?date= (default today).
func (h *Handler) CalendarDay(w http.ResponseWriter, r *http.Request) {
	_, snap, ok := h.view(w, r, rental.CapCalendar)
	if !ok {
		return
	}
	date := h.svc.Today()
	if v := r.URL.Query().Get("date"); v != "" {
		parsed, err := rental.ParseDate("date", v)
		if err != nil {
			h.fail(w, r, err)
			return
		}
		date = parsed
	}
	writeJSON(w, http.StatusOK, rental.EventsOn(date, calendarContracts(r, snap), snap.Lessees))
}

// CalendarRange groups events by day over ?from= to ?to= (default the
// current month).
func (h *Handler) CalendarRange(w http.ResponseWriter, r *http.Request) {
	_, snap, ok := h.view(w, r, rental.CapCalendar)
	if !ok {
		return
	}
	period := rental.MonthOf(h.svc.Today())
	q := r.URL.Query()
	if q.Get("from") != "" || q.Get("to") != "" {
		from, err := rental.ParseDate("from", q.Get("from"))
		if err != nil {
			h.fail(w, r, err)
			return
		}
		to, err := rental.ParseDate("to", q.Get("to"))
		if err != nil {
			h.fail(w, r, err)
			return
		}
		if period, err = rental.NewPeriod(from, to); err != nil {
			h.fail(w, r, err)
			return
		}
		if period.Start.DaysUntil(period.End) >= maxCalendarRange {
			h.fail(w, r, &rental.ValidationError{Field: "to", Value: to.String(),
				Reason: fmt.Sprintf("range must not exceed %d days", maxCalendarRange)})
			return
		}
	}
	writeJSON(w, http.StatusOK, rental.EventsBetween(period, calendarContracts(r, snap), snap.Lessees))
}

// calendarContracts applies the ?lessee_id= and ?contract_id= filters.
func calendarContracts(r *http.Request, snap *rental.Snapshot) []rental.Contract {
	lessee, contract := r.URL.Query().Get("lessee_id"), r.URL.Query().Get("contract_id")
	if lessee == "" && contract == "" {
		return snap.Contracts
	}
	out := make([]rental.Contract, 0, len(snap.Contracts))
	for _, c := range snap.Contracts {
		if lessee != "" && c.LesseeID != lessee {
			continue
		}
		if contract != "" && c.ID != contract {
			continue
		}
		out = append(out, c)
	}
	return out
}

// =============================================================================
// OVERDUE ENDPOINTS
// =============================================================================

// ListOverdue returns visible overdue records with the fee recomputed as of
// today.
func (h *Handler) ListOverdue(w http.ResponseWriter, r *http.Request) {
	_, snap, ok := h.view(w, r, rental.CapOverdue)
	if !ok {
		return
	}
	today := h.svc.Today()
	calc := h.svc.Calculator()

	out := make([]OverdueDTO, 0, len(snap.OverdueRecords))
	for _, o := range snap.OverdueRecords {
		dto := OverdueDTO{OverdueRecord: o, LesseeName: rental.UnknownLabel}
		if c, found := snap.Contract(o.ContractID); found {
			dto.ForkliftID = c.ForkliftID
			dto.RentalFee = c.RentalFee
			dto.PaymentDueDate = c.PaymentDueDate
			dto.DaysLate = rental.DaysLate(c, today)
			dto.CurrentFee = calc.Fee(c, today)
			if l, found := snap.Lessee(c.LesseeID); found {
				dto.LesseeName = l.Name
			}
		}
		out = append(out, dto)
	}
	writeJSON(w, http.StatusOK, out)
}

func (h *Handler) OverdueAction(w http.ResponseWriter, r *http.Request) {
	var req OverdueActionRequest
	if !h.decode(w, r, &req) {
		return
	}
	action, err := rental.ParseOverdueAction(req.Action)
	if err != nil {
		h.fail(w, r, err)
		return
	}
	record, err := h.svc.NotifyOverdue(r.Context(), ActorFrom(r.Context()), chi.URLParam(r, "id"), action)
	if err != nil {
		h.fail(w, r, err)
		return
	}
	writeJSON(w, http.StatusOK, record)
}

// TriggerReconcile runs overdue reconciliation now. Reconciliation covers
// every company, so only admins may trigger it.
func (h *Handler) TriggerReconcile(w http.ResponseWriter, r *http.Request) {
	actor := ActorFrom(r.Context())
	if actor == nil || actor.Role != rental.RoleAdmin {
		writeError(w, http.StatusForbidden, "forbidden", rental.ErrForbidden)
		return
	}
	var (
		run rental.OverdueRun
		err error
	)
	if h.scheduler != nil {
		run, err = h.scheduler.RunNow(r.Context(), service.TriggerManual)
	} else {
		run, err = h.svc.ReconcileOverdue(r.Context(), service.TriggerManual)
	}
	if err != nil {
		h.fail(w, r, err)
		return
	}
	writeJSON(w, http.StatusOK, run)
}

// ListOverdueRuns returns recorded runs, newest first. ?limit= defaults to 20.
func (h *Handler) ListOverdueRuns(w http.ResponseWriter, r *http.Request) {
	limit := 20
	if v := r.URL.Query().Get("limit"); v != "" {
		n, err := strconv.Atoi(v)
		if err != nil || n <= 0 {
			h.fail(w, r, &rental.ValidationError{Field: "limit", Value: v, Reason: "expected a positive integer"})
			return
		}
		limit = n
	}
	runs, err := h.svc.OverdueRuns(r.Context(), ActorFrom(r.Context()), limit)
	if err != nil {
		h.fail(w, r, err)
		return
	}
	writeJSON(w, http.StatusOK, orEmpty(runs))
}

// Consistency lists forklift/contract drift visible to the caller.
func (h *Handler) Consistency(w http.ResponseWriter, r *http.Request) {
	issues, err := h.svc.Consistency(r.Context(), ActorFrom(r.Context()))
	if err != nil {
		h.fail(w, r, err)
		return
	}
	writeJSON(w, http.StatusOK, issues)
}

// =============================================================================
// USER ENDPOINTS
// =============================================================================

func (h *Handler) ListUsers(w http.ResponseWriter, r *http.Request) {
	_, snap, ok := h.view(w, r, rental.CapAccounts)
	if !ok {
		return
	}
	writeJSON(w, http.StatusOK, orEmpty(snap.Users))
}

func (h *Handler) InviteUser(w http.ResponseWriter, r *http.Request) {
	var req UserRequest
	if !h.decode(w, r, &req) {
		return
	}
	user, err := h.svc.InviteUser(r.Context(), ActorFrom(r.Context()), req.toUser())
	if err != nil {
		h.fail(w, r, err)
		return
	}
	writeJSON(w, http.StatusCreated, user)
}

// =============================================================================
// HELPERS
// =============================================================================

// decode reads a JSON body into dst and validates it. It writes the error
// response itself and reports whether the handler should continue.
func (h *Handler) decode(w http.ResponseWriter, r *http.Request, dst any) bool {
	dec := json.NewDecoder(r.Body)
	dec.DisallowUnknownFields()
	if err := dec.Decode(dst); err != nil {
		var ve *rental.ValidationError
		if errors.As(err, &ve) {
			h.fail(w, r, ve)
			return false
		}
		writeError(w, http.StatusBadRequest, "invalid request body", err)
		return false
	}
	if err := h.validate.Struct(dst); err != nil {
		var fieldErrs validator.ValidationErrors
		if !errors.As(err, &fieldErrs) {
			writeError(w, http.StatusBadRequest, "invalid request body", err)
			return false
		}
		resp := ErrorResponse{Error: "validation failed"}
		for _, fe := range fieldErrs {
			resp.Fields = append(resp.Fields, FieldError{Field: fieldPath(fe), Message: validationMessage(fe)})
		}
		writeJSON(w, http.StatusBadRequest, resp)
		return false
	}
	return true
}

// fieldPath drops the struct name from the namespace: "maintenance.type".
func fieldPath(fe validator.FieldError) string {
	ns := fe.Namespace()
	if i := strings.Index(ns, "."); i >= 0 {
		ns = ns[i+1:]
	}
	return ns
}

func validationMessage(fe validator.FieldError) string {
	switch fe.Tag() {
	case "required":
		return "is required"
	case "email":
		return "must be a valid email address"
	case "oneof":
		return "must be one of: " + fe.Param()
	case "datetime":
		return "expected YYYY-MM-DD"
	case "max":
		return "must be at most " + fe.Param() + " characters"
	case "gte":
		return "must be at least " + fe.Param()
	case "url":
		return "must be a valid URL"
	}
	return "failed " + fe.Tag()
}

// fail maps err onto a status code. Server errors are logged with the
// request logger and their details withheld.
func (h *Handler) fail(w http.ResponseWriter, r *http.Request, err error) {
	var ve *rental.ValidationError
	switch {
	case errors.As(err, &ve):
		writeJSON(w, http.StatusBadRequest, ErrorResponse{
			Error:   "validation failed",
			Details: ve.Error(),
			Fields:  []FieldError{{Field: ve.Field, Message: ve.Reason}},
		})
	case errors.Is(err, rental.ErrValidation):
		writeError(w, http.StatusBadRequest, "validation failed", err)
	case errors.Is(err, rental.ErrForbidden):
		writeError(w, http.StatusForbidden, "forbidden", err)
	case errors.Is(err, rental.ErrNotFound):
		writeError(w, http.StatusNotFound, "not found", err)
	case errors.Is(err, rental.ErrInvalidTransition):
		writeError(w, http.StatusConflict, "invalid transition", err)
	case errors.Is(err, rental.ErrConflict):
		writeError(w, http.StatusConflict, "conflict", err)
	default:
		logger.FromContext(r.Context()).Error("request failed", zap.Error(err))
		writeError(w, http.StatusInternalServerError, "internal error", nil)
	}
}

// orEmpty keeps list responses encoding as [] rather than null.
func orEmpty[T any](items []T) []T {
	if items == nil {
		return []T{}
	}
	return items
}

func writeJSON(w http.ResponseWriter, status int, data any) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	json.NewEncoder(w).Encode(data)
}

func writeError(w http.ResponseWriter, status int, message string, err error) {
	resp := ErrorResponse{Error: message}
	if err != nil {
		resp.Details = err.Error()
	}
	writeJSON(w, status, resp)
}
