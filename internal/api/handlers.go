package api

import (
	"encoding/json"
	"net/http"
	"strconv"
	"strings"
	"time"

	"kortovik/internal/metrics"
	"kortovik/internal/models"
)

const dateLayout = "2006-01-02"

// GET /api/v1/courts
func (s *HTTPServer) handleCourts(w http.ResponseWriter, r *http.Request) {
	if r.Method != http.MethodGet {
		writeError(w, http.StatusMethodNotAllowed, "method not allowed")
		return
	}
	metrics.IncHTTP("courts")

	courts := s.courts.ListCourts(r.Context())
	writeJSON(w, http.StatusOK, map[string]any{"courts": courts})
}

// Подставы вида /api/v1/courts/{id}/schedule|block|unblock.
func (s *HTTPServer) handleCourtSubtree(w http.ResponseWriter, r *http.Request) {
	rest := strings.TrimPrefix(r.URL.Path, "/api/v1/courts/")
	parts := strings.Split(strings.Trim(rest, "/"), "/")
	if len(parts) == 0 || parts[0] == "" {
		writeError(w, http.StatusNotFound, "not found")
		return
	}

	courtID, err := strconv.ParseInt(parts[0], 10, 64)
	if err != nil || courtID <= 0 {
		writeError(w, http.StatusBadRequest, "invalid court id")
		return
	}

	if len(parts) == 1 {
		s.handleCourtGet(w, r, courtID)
		return
	}

	switch parts[1] {
	case "schedule":
		s.handleSchedule(w, r, courtID)
	case "block":
		s.handleBlock(w, r, courtID, true)
	case "unblock":
		s.handleBlock(w, r, courtID, false)
	default:
		writeError(w, http.StatusNotFound, "not found")
	}
}

func (s *HTTPServer) handleCourtGet(w http.ResponseWriter, r *http.Request, courtID int64) {
	if r.Method != http.MethodGet {
		writeError(w, http.StatusMethodNotAllowed, "method not allowed")
		return
	}
	metrics.IncHTTP("court")

	court, err := s.courts.GetCourt(r.Context(), courtID)
	if err != nil {
		writeDomainError(w, err)
		return
	}
	writeJSON(w, http.StatusOK, court)
}

// GET /api/v1/courts/{id}/schedule?date=YYYY-MM-DD
func (s *HTTPServer) handleSchedule(w http.ResponseWriter, r *http.Request, courtID int64) {
	if r.Method != http.MethodGet {
		writeError(w, http.StatusMethodNotAllowed, "method not allowed")
		return
	}
	metrics.IncHTTP("schedule")

	date, ok := parseDateParam(w, r)
	if !ok {
		return
	}

	slots, err := s.courts.GetDaySchedule(r.Context(), courtID, date)
	if err != nil {
		writeDomainError(w, err)
		return
	}

	writeJSON(w, http.StatusOK, map[string]any{
		"court_id": courtID,
		"date":     date.Format(dateLayout),
		"slots":    slots,
	})
}

type blockRequest struct {
	Date      string           `json:"date"`
	StartTime models.ClockTime `json:"start_time"`
	EndTime   models.ClockTime `json:"end_time"`
	ManagerID int64            `json:"manager_id"`
}

// POST /api/v1/courts/{id}/block и /unblock
func (s *HTTPServer) handleBlock(w http.ResponseWriter, r *http.Request, courtID int64, block bool) {
	if r.Method != http.MethodPost {
		writeError(w, http.StatusMethodNotAllowed, "method not allowed")
		return
	}
	metrics.IncHTTP("block")

	var body blockRequest
	if !decodeBody(w, r, &body) {
		return
	}

	date, err := time.Parse(dateLayout, body.Date)
	if err != nil {
		writeError(w, http.StatusBadRequest, "invalid date format; expected YYYY-MM-DD")
		return
	}
	if body.EndTime <= body.StartTime {
		writeError(w, http.StatusBadRequest, "end_time must be after start_time")
		return
	}

	if block {
		err = s.courts.BlockSlots(r.Context(), courtID, date, body.StartTime, body.EndTime, body.ManagerID)
	} else {
		err = s.courts.UnblockSlots(r.Context(), courtID, date, body.StartTime, body.EndTime, body.ManagerID)
	}
	if err != nil {
		writeDomainError(w, err)
		return
	}

	writeJSON(w, http.StatusOK, map[string]string{"status": "ok"})
}

// GET /api/v1/availability?court_id=&date=&start_time=&hours=
func (s *HTTPServer) handleAvailability(w http.ResponseWriter, r *http.Request) {
	if r.Method != http.MethodGet {
		writeError(w, http.StatusMethodNotAllowed, "method not allowed")
		return
	}
	metrics.IncHTTP("availability")

	courtID, err := strconv.ParseInt(r.URL.Query().Get("court_id"), 10, 64)
	if err != nil || courtID <= 0 {
		writeError(w, http.StatusBadRequest, "court_id is required")
		return
	}

	date, ok := parseDateParam(w, r)
	if !ok {
		return
	}

	start, err := models.ParseClock(r.URL.Query().Get("start_time"))
	if err != nil {
		writeError(w, http.StatusBadRequest, "invalid start_time; expected HH:MM")
		return
	}

	hours, err := strconv.Atoi(r.URL.Query().Get("hours"))
	if err != nil || hours <= 0 {
		writeError(w, http.StatusBadRequest, "hours is required")
		return
	}

	quote, err := s.bookings.CheckAvailability(r.Context(), courtID, date, start, hours)
	if err != nil {
		writeDomainError(w, err)
		return
	}

	writeJSON(w, http.StatusOK, quote)
}

type createBookingRequest struct {
	CourtID           int64            `json:"court_id"`
	Date              string           `json:"date"`
	StartTime         models.ClockTime `json:"start_time"`
	Hours             int              `json:"hours"`
	ParticipantsCount int              `json:"participants_count"`
	UserID            int64            `json:"user_id"`
	UserName          string           `json:"user_name"`
	ContactName       string           `json:"contact_name"`
	ContactPhone      string           `json:"contact_phone"`
	ContactEmail      string           `json:"contact_email"`
	SpecialRequests   string           `json:"special_requests"`
}

// POST и GET /api/v1/bookings
func (s *HTTPServer) handleBookings(w http.ResponseWriter, r *http.Request) {
	switch r.Method {
	case http.MethodPost:
		s.handleCreateBooking(w, r)
	case http.MethodGet:
		s.handleUserBookings(w, r)
	default:
		writeError(w, http.StatusMethodNotAllowed, "method not allowed")
	}
}

func (s *HTTPServer) handleCreateBooking(w http.ResponseWriter, r *http.Request) {
	metrics.IncHTTP("create_booking")

	var body createBookingRequest
	if !decodeBody(w, r, &body) {
		return
	}

	date, err := time.Parse(dateLayout, body.Date)
	if err != nil {
		writeError(w, http.StatusBadRequest, "invalid date format; expected YYYY-MM-DD")
		return
	}
	if body.ContactName == "" || body.ContactPhone == "" {
		writeError(w, http.StatusBadRequest, "contact_name and contact_phone are required")
		return
	}

	req := &models.Booking{
		CourtID:           body.CourtID,
		Date:              date,
		StartTime:         body.StartTime,
		Hours:             body.Hours,
		ParticipantsCount: body.ParticipantsCount,
		UserID:            body.UserID,
		UserName:          body.UserName,
		ContactName:       body.ContactName,
		ContactPhone:      body.ContactPhone,
		ContactEmail:      body.ContactEmail,
		SpecialRequests:   body.SpecialRequests,
	}

	booking, err := s.bookings.CreateBooking(r.Context(), req)
	if err != nil {
		writeDomainError(w, err)
		return
	}

	writeJSON(w, http.StatusCreated, booking)
}

// GET /api/v1/bookings?user_id=
func (s *HTTPServer) handleUserBookings(w http.ResponseWriter, r *http.Request) {
	metrics.IncHTTP("user_bookings")

	userID, err := strconv.ParseInt(r.URL.Query().Get("user_id"), 10, 64)
	if err != nil || userID <= 0 {
		writeError(w, http.StatusBadRequest, "user_id is required")
		return
	}

	bookings, err := s.bookings.GetUserBookings(r.Context(), userID)
	if err != nil {
		writeDomainError(w, err)
		return
	}
	writeJSON(w, http.StatusOK, map[string]any{"bookings": bookings})
}

// Подставы вида /api/v1/bookings/{number}[/cancel|confirm|reject|payment].
func (s *HTTPServer) handleBookingSubtree(w http.ResponseWriter, r *http.Request) {
	rest := strings.TrimPrefix(r.URL.Path, "/api/v1/bookings/")
	parts := strings.Split(strings.Trim(rest, "/"), "/")
	if len(parts) == 0 || parts[0] == "" {
		writeError(w, http.StatusNotFound, "not found")
		return
	}
	number := parts[0]

	if len(parts) == 1 {
		s.handleBookingGet(w, r, number)
		return
	}

	if r.Method != http.MethodPost {
		writeError(w, http.StatusMethodNotAllowed, "method not allowed")
		return
	}

	switch parts[1] {
	case "cancel":
		s.handleCancel(w, r, number)
	case "confirm":
		s.handleConfirm(w, r, number)
	case "reject":
		s.handleReject(w, r, number)
	case "payment":
		s.handlePayment(w, r, number)
	default:
		writeError(w, http.StatusNotFound, "not found")
	}
}

// GET /api/v1/bookings/{number}
func (s *HTTPServer) handleBookingGet(w http.ResponseWriter, r *http.Request, number string) {
	if r.Method != http.MethodGet {
		writeError(w, http.StatusMethodNotAllowed, "method not allowed")
		return
	}
	metrics.IncHTTP("booking")

	booking, err := s.bookings.GetBookingByNumber(r.Context(), number)
	if err != nil {
		writeDomainError(w, err)
		return
	}
	writeJSON(w, http.StatusOK, booking)
}

type lifecycleRequest struct {
	Version   int64  `json:"version"`
	UserID    int64  `json:"user_id"`
	ManagerID int64  `json:"manager_id"`
	Reason    string `json:"reason"`
	Status    string `json:"status"`
}

// resolveBooking находит бронь по номеру и определяет ожидаемую версию.
// Если клиент версию не прислал, берется текущая.
func (s *HTTPServer) resolveBooking(w http.ResponseWriter, r *http.Request, number string, version int64) (*models.Booking, int64, bool) {
	booking, err := s.bookings.GetBookingByNumber(r.Context(), number)
	if err != nil {
		writeDomainError(w, err)
		return nil, 0, false
	}
	if version == 0 {
		version = booking.Version
	}
	return booking, version, true
}

func (s *HTTPServer) handleCancel(w http.ResponseWriter, r *http.Request, number string) {
	metrics.IncHTTP("cancel_booking")

	var body lifecycleRequest
	if !decodeBody(w, r, &body) {
		return
	}

	booking, version, ok := s.resolveBooking(w, r, number, body.Version)
	if !ok {
		return
	}

	if err := s.bookings.CancelBooking(r.Context(), booking.ID, version, body.UserID, body.Reason); err != nil {
		writeDomainError(w, err)
		return
	}
	writeJSON(w, http.StatusOK, map[string]string{"status": "cancelled"})
}

func (s *HTTPServer) handleConfirm(w http.ResponseWriter, r *http.Request, number string) {
	metrics.IncHTTP("confirm_booking")

	var body lifecycleRequest
	if !decodeBody(w, r, &body) {
		return
	}

	booking, version, ok := s.resolveBooking(w, r, number, body.Version)
	if !ok {
		return
	}

	if err := s.bookings.ConfirmBooking(r.Context(), booking.ID, version, body.ManagerID); err != nil {
		writeDomainError(w, err)
		return
	}
	writeJSON(w, http.StatusOK, map[string]string{"status": "confirmed"})
}

func (s *HTTPServer) handleReject(w http.ResponseWriter, r *http.Request, number string) {
	metrics.IncHTTP("reject_booking")

	var body lifecycleRequest
	if !decodeBody(w, r, &body) {
		return
	}

	booking, version, ok := s.resolveBooking(w, r, number, body.Version)
	if !ok {
		return
	}

	if err := s.bookings.RejectBooking(r.Context(), booking.ID, version, body.ManagerID, body.Reason); err != nil {
		writeDomainError(w, err)
		return
	}
	writeJSON(w, http.StatusOK, map[string]string{"status": "rejected"})
}

// POST /api/v1/bookings/{number}/payment со статусом partial или paid.
func (s *HTTPServer) handlePayment(w http.ResponseWriter, r *http.Request, number string) {
	metrics.IncHTTP("payment")

	var body lifecycleRequest
	if !decodeBody(w, r, &body) {
		return
	}

	booking, version, ok := s.resolveBooking(w, r, number, body.Version)
	if !ok {
		return
	}

	var err error
	switch body.Status {
	case models.PaymentPartial:
		err = s.bookings.MarkDepositPaid(r.Context(), booking.ID, version)
	case models.PaymentPaid:
		err = s.bookings.MarkPaid(r.Context(), booking.ID, version)
	default:
		writeError(w, http.StatusBadRequest, "status must be partial or paid")
		return
	}
	if err != nil {
		writeDomainError(w, err)
		return
	}
	writeJSON(w, http.StatusOK, map[string]string{"status": body.Status})
}

func parseDateParam(w http.ResponseWriter, r *http.Request) (time.Time, bool) {
	raw := strings.TrimSpace(r.URL.Query().Get("date"))
	if raw == "" {
		writeError(w, http.StatusBadRequest, "date is required")
		return time.Time{}, false
	}
	date, err := time.Parse(dateLayout, raw)
	if err != nil {
		writeError(w, http.StatusBadRequest, "invalid date format; expected YYYY-MM-DD")
		return time.Time{}, false
	}
	return date, true
}

func decodeBody(w http.ResponseWriter, r *http.Request, dst any) bool {
	decoder := json.NewDecoder(r.Body)
	decoder.DisallowUnknownFields()
	if err := decoder.Decode(dst); err != nil {
		writeError(w, http.StatusBadRequest, "invalid JSON body")
		return false
	}
	return true
}
