// Package importer turns spreadsheet uploads into validated forklift records.
//
// Every data row yields a Result carrying either a parsed Forklift or the
// list of RowErrors found in it. Nothing here writes to a store; the caller
// decides whether a Report is clean enough to commit.
package importer

import (
	"errors"
	"fmt"
	"reflect"
	"strconv"
	"strings"
	"time"

	"github.com/go-playground/validator/v10"

	"github.com/warp/forklift-rental/rental"
)

// Canonical column names
const (
	ColManufacturer     = "manufacturer"
	ColModel            = "model"
	ColYear             = "year"
	ColTonnage          = "tonnage"
	ColType             = "type"
	ColChassisNumber    = "chassis_number"
	ColGPSSerial        = "gps_serial"
	ColPurchaseDate     = "purchase_date"
	ColPurchasePrice    = "purchase_price"
	ColWithdrawalDate   = "withdrawal_date"
	ColLocation         = "location"
	ColNotes            = "notes"
	ColManagementStatus = "management_status"
)

const (
	minYear    = 1900
	minTonnage = 0.1
)

// headerAliases maps normalized header text to a canonical column.
var headerAliases = map[string]string{
	"제작사":    ColManufacturer,
	"모델명":    ColModel,
	"년식":     ColYear,
	"연식":     ColYear,
	"톤수":     ColTonnage,
	"유형":     ColType,
	"차대번호":   ColChassisNumber,
	"gps시리얼": ColGPSSerial,
	"구매일자":   ColPurchaseDate,
	"구매가격":   ColPurchasePrice,
	"폐기예정일":  ColWithdrawalDate,
	"위치":     ColLocation,
	"특이사항":   ColNotes,
	"관리상태":   ColManagementStatus,
}

// statusLabels accepts the labels shown in the back office next to the codes.
var statusLabels = map[string]rental.ManagementStatus{
	"보관중":   rental.InStorage,
	"대여중":   rental.OnLoan,
	"수리중":   rental.UnderRepair,
	"부품교체중": rental.PartReplacement,
	"폐기":    rental.Disposed,
	"렌탈중":   rental.Rented,
	"연체회수중": rental.OverdueRecovery,
}

var importableStatuses = map[rental.ManagementStatus]bool{
	rental.InStorage:       true,
	rental.OnLoan:          true,
	rental.UnderRepair:     true,
	rental.PartReplacement: true,
	rental.Disposed:        true,
}

func init() {
	for _, col := range []string{
		ColManufacturer, ColModel, ColYear, ColTonnage, ColType, ColChassisNumber, ColGPSSerial,
		ColPurchaseDate, ColPurchasePrice, ColWithdrawalDate, ColLocation, ColNotes, ColManagementStatus,
	} {
		headerAliases[strings.ReplaceAll(col, "_", "")] = col
	}
}

// forkliftRow is one data row before type conversion. The col tag names the
// canonical column, which validation errors report.
type forkliftRow struct {
	Manufacturer     string `col:"manufacturer" validate:"required,max=100"`
	Model            string `col:"model" validate:"required,max=100"`
	Year             string `col:"year" validate:"required"`
	Tonnage          string `col:"tonnage" validate:"required"`
	Type             string `col:"type" validate:"required,max=50"`
	ChassisNumber    string `col:"chassis_number" validate:"required,max=64"`
	GPSSerial        string `col:"gps_serial" validate:"omitempty,max=64"`
	PurchaseDate     string `col:"purchase_date"`
	PurchasePrice    string `col:"purchase_price"`
	WithdrawalDate   string `col:"withdrawal_date"`
	Location         string `col:"location" validate:"required,max=200"`
	Notes            string `col:"notes" validate:"omitempty,max=1000"`
	ManagementStatus string `col:"management_status"`
}

// requiredColumns must appear in the header row.
var requiredColumns = []string{
	ColManufacturer, ColModel, ColYear, ColTonnage, ColType, ColChassisNumber, ColLocation,
}

// Result is the outcome for one data row.
type Result struct {
	Row      int              `json:"row"`
	Forklift *rental.Forklift `json:"forklift,omitempty"`
	Errors   []RowError       `json:"errors,omitempty"`
}

func (r Result) OK() bool { return len(r.Errors) == 0 }

// Report collects every row of one upload.
type Report struct {
	TotalRows   int      `json:"total_rows"`
	ValidRows   int      `json:"valid_rows"`
	InvalidRows int      `json:"invalid_rows"`
	Results     []Result `json:"results"`
}

// OK reports whether every row parsed cleanly.
func (r *Report) OK() bool { return r.InvalidRows == 0 }

// Forklifts returns the parsed records in file order.
func (r *Report) Forklifts() []rental.Forklift {
	out := make([]rental.Forklift, 0, r.ValidRows)
	for _, res := range r.Results {
		if res.Forklift != nil {
			out = append(out, *res.Forklift)
		}
	}
	return out
}

// Errors flattens every row error.
func (r *Report) Errors() []RowError {
	var out []RowError
	for _, res := range r.Results {
		out = append(out, res.Errors...)
	}
	return out
}

// Importer parses forklift sheets.
type Importer struct {
	validate *validator.Validate
	now      func() time.Time
}

// New creates an Importer. now is used for the upper bound on the year
// column; nil means time.Now.
func New(now func() time.Time) *Importer {
	if now == nil {
		now = time.Now
	}
	v := validator.New()
	v.RegisterTagNameFunc(func(fld reflect.StructField) string {
		return fld.Tag.Get("col")
	})
	return &Importer{validate: v, now: now}
}

// Parse converts rows (header first) into a Report. existing holds the
// forklifts already stored, used for chassis number uniqueness. Structural
// problems such as an empty table or missing columns return an error; row
// problems are reported in the Report.
func (im *Importer) Parse(rows [][]string, existing []rental.Forklift) (*Report, error) {
	if len(rows) == 0 {
		return nil, ErrEmptyFile
	}
	columns, err := mapHeader(rows[0])
	if err != nil {
		return nil, err
	}

	taken := make(map[string]string, len(existing))
	for _, f := range existing {
		taken[normalizeKey(f.ChassisNumber)] = f.ID
	}
	seen := make(map[string]int)

	report := &Report{}
	for i, cells := range rows[1:] {
		if blank(cells) {
			continue
		}
		rowNum := i + 2
		raw := rowFrom(cells, columns)
		res := Result{Row: rowNum}

		f, rowErrs := im.parseRow(rowNum, raw)
		res.Errors = append(res.Errors, rowErrs...)

		if key := normalizeKey(raw.ChassisNumber); key != "" {
			if first, dup := seen[key]; dup {
				res.Errors = append(res.Errors, RowError{
					Row: rowNum, Column: ColChassisNumber, Code: ErrCodeDuplicateInFile,
					Message: fmt.Sprintf("chassis number already used on row %d", first),
					Value:   raw.ChassisNumber,
				})
			} else {
				seen[key] = rowNum
			}
			if _, exists := taken[key]; exists {
				res.Errors = append(res.Errors, RowError{
					Row: rowNum, Column: ColChassisNumber, Code: ErrCodeDuplicateInDB,
					Message: "chassis number is already registered",
					Value:   raw.ChassisNumber,
				})
			}
		}

		report.TotalRows++
		if len(res.Errors) == 0 {
			res.Forklift = &f
			report.ValidRows++
		} else {
			report.InvalidRows++
		}
		report.Results = append(report.Results, res)
	}

	if report.TotalRows == 0 {
		return nil, ErrNoDataRows
	}
	return report, nil
}

func (im *Importer) parseRow(rowNum int, raw forkliftRow) (rental.Forklift, []RowError) {
	var errs []RowError
	add := func(col, code, msg, value string) {
		errs = append(errs, RowError{Row: rowNum, Column: col, Code: code, Message: msg, Value: value})
	}

	if err := im.validate.Struct(raw); err != nil {
		var verrs validator.ValidationErrors
		if errors.As(err, &verrs) {
			for _, fe := range verrs {
				switch fe.Tag() {
				case "required":
					add(fe.Field(), ErrCodeRequiredField, "value is required", "")
				case "max":
					add(fe.Field(), ErrCodeInvalidRange,
						fmt.Sprintf("must be at most %s characters", fe.Param()), fmt.Sprint(fe.Value()))
				default:
					add(fe.Field(), ErrCodeInvalidValue, "invalid value", fmt.Sprint(fe.Value()))
				}
			}
		}
	}

	f := rental.Forklift{
		Manufacturer:     raw.Manufacturer,
		Model:            raw.Model,
		Type:             raw.Type,
		ChassisNumber:    raw.ChassisNumber,
		GPSSerial:        raw.GPSSerial,
		Location:         raw.Location,
		Notes:            raw.Notes,
		ManagementStatus: rental.InStorage,
	}

	if raw.Year != "" {
		year, err := strconv.Atoi(raw.Year)
		switch {
		case err != nil:
			add(ColYear, ErrCodeInvalidType, "must be a whole number", raw.Year)
		case year < minYear || year > im.now().Year():
			add(ColYear, ErrCodeInvalidRange,
				fmt.Sprintf("must be between %d and %d", minYear, im.now().Year()), raw.Year)
		default:
			f.Year = year
		}
	}

	if raw.Tonnage != "" {
		tonnage, err := strconv.ParseFloat(raw.Tonnage, 64)
		switch {
		case err != nil:
			add(ColTonnage, ErrCodeInvalidType, "must be a number", raw.Tonnage)
		case tonnage < minTonnage:
			add(ColTonnage, ErrCodeInvalidRange, fmt.Sprintf("must be at least %.1f", minTonnage), raw.Tonnage)
		default:
			f.Tonnage = tonnage
		}
	}

	if d, ok := parseSheetDate(raw.PurchaseDate); ok {
		f.PurchaseDate = d
	} else {
		add(ColPurchaseDate, ErrCodeInvalidFormat, "expected YYYY-MM-DD", raw.PurchaseDate)
	}
	if d, ok := parseSheetDate(raw.WithdrawalDate); ok {
		f.WithdrawalDate = d
	} else {
		add(ColWithdrawalDate, ErrCodeInvalidFormat, "expected YYYY-MM-DD", raw.WithdrawalDate)
	}
	if !f.PurchaseDate.IsZero() && !f.WithdrawalDate.IsZero() && f.WithdrawalDate.Before(f.PurchaseDate) {
		add(ColWithdrawalDate, ErrCodeInvalidRange, "must not be before the purchase date", raw.WithdrawalDate)
	}

	if raw.PurchasePrice != "" {
		price, err := rental.ParseMoney(ColPurchasePrice, strings.TrimSuffix(raw.PurchasePrice, "원"))
		if err != nil {
			var ve *rental.ValidationError
			msg := err.Error()
			if errors.As(err, &ve) {
				msg = ve.Reason
			}
			add(ColPurchasePrice, ErrCodeInvalidValue, msg, raw.PurchasePrice)
		} else {
			f.PurchasePrice = price
		}
	}

	if raw.ManagementStatus != "" {
		status, ok := parseStatus(raw.ManagementStatus)
		switch {
		case !ok:
			add(ColManagementStatus, ErrCodeInvalidValue, "unknown management status", raw.ManagementStatus)
		case !importableStatuses[status]:
			add(ColManagementStatus, ErrCodeInvalidValue, "status requires a contract and cannot be imported", raw.ManagementStatus)
		default:
			f.ManagementStatus = status
		}
	}

	return f, errs
}

// mapHeader resolves header cells to column positions.
func mapHeader(header []string) (map[string]int, error) {
	columns := make(map[string]int, len(header))
	for i, h := range header {
		key := normalizeHeader(h)
		if key == "" {
			continue
		}
		if canonical, ok := headerAliases[key]; ok {
			key = canonical
		}
		if _, dup := columns[key]; !dup {
			columns[key] = i
		}
	}
	var missing []string
	for _, col := range requiredColumns {
		if _, ok := columns[col]; !ok {
			missing = append(missing, col)
		}
	}
	if len(missing) > 0 {
		return nil, &HeaderError{Missing: missing}
	}
	return columns, nil
}

func rowFrom(cells []string, columns map[string]int) forkliftRow {
	get := func(col string) string {
		i, ok := columns[col]
		if !ok || i >= len(cells) {
			return ""
		}
		return strings.TrimSpace(cells[i])
	}
	return forkliftRow{
		Manufacturer:     get(ColManufacturer),
		Model:            get(ColModel),
		Year:             get(ColYear),
		Tonnage:          get(ColTonnage),
		Type:             get(ColType),
		ChassisNumber:    get(ColChassisNumber),
		GPSSerial:        get(ColGPSSerial),
		PurchaseDate:     get(ColPurchaseDate),
		PurchasePrice:    get(ColPurchasePrice),
		WithdrawalDate:   get(ColWithdrawalDate),
		Location:         get(ColLocation),
		Notes:            get(ColNotes),
		ManagementStatus: get(ColManagementStatus),
	}
}

// parseSheetDate accepts YYYY-MM-DD, YYYY/MM/DD and YYYY.MM.DD. Empty cells
// are valid and yield the zero Date.
func parseSheetDate(s string) (rental.Date, bool) {
	if s == "" {
		return rental.Date{}, true
	}
	s = strings.NewReplacer("/", "-", ".", "-").Replace(s)
	d, err := rental.ParseDate("date", s)
	if err != nil {
		return rental.Date{}, false
	}
	return d, true
}

func parseStatus(s string) (rental.ManagementStatus, bool) {
	if status, ok := statusLabels[strings.Join(strings.Fields(s), "")]; ok {
		return status, true
	}
	status := rental.ManagementStatus(strings.ToUpper(strings.ReplaceAll(strings.TrimSpace(s), " ", "_")))
	switch status {
	case rental.InStorage, rental.Rented, rental.OnLoan, rental.UnderRepair,
		rental.PartReplacement, rental.OverdueRecovery, rental.Disposed:
		return status, true
	}
	return "", false
}

func normalizeHeader(h string) string {
	h = strings.TrimPrefix(h, "\ufeff")
	h = strings.ToLower(strings.Join(strings.Fields(h), ""))
	h = strings.NewReplacer("_", "", "-", "").Replace(h)
	return strings.TrimSuffix(h, "*")
}

func normalizeKey(s string) string {
	return strings.ToUpper(strings.TrimSpace(s))
}

func blank(cells []string) bool {
	for _, c := range cells {
		if strings.TrimSpace(c) != "" {
			return false
		}
	}
	return true
}
