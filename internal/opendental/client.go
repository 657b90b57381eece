package opendental

import (
	"bytes"
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"net/http"
	"net/url"
	"strconv"
	"strings"
	"time"
)

// ErrPatientNotFound indicates patient resolution produced no match and the
// lookup lacked the detail needed to create a record.
var ErrPatientNotFound = errors.New("opendental: patient not found")

// APIError is a non-2xx response from the practice-management API.
type APIError struct {
	Status int
	Body   string
}

func (e *APIError) Error() string {
	return fmt.Sprintf("opendental: API error (status %d): %s", e.Status, e.Body)
}

// Client implements the Gateway interface over the OpenDental REST API.
type Client struct {
	baseURL      string
	developerKey string
	customerKey  string
	httpClient   *http.Client
}

// Config holds configuration for the OpenDental client
type Config struct {
	BaseURL      string // e.g., "https://api.opendental.com/api/v1"
	DeveloperKey string
	CustomerKey  string
	Timeout      time.Duration
}

// New creates a new OpenDental gateway client
func New(cfg Config) (*Client, error) {
	if cfg.BaseURL == "" {
		return nil, fmt.Errorf("opendental: BaseURL is required")
	}
	if cfg.DeveloperKey == "" {
		return nil, fmt.Errorf("opendental: DeveloperKey is required")
	}
	if cfg.CustomerKey == "" {
		return nil, fmt.Errorf("opendental: CustomerKey is required")
	}

	timeout := cfg.Timeout
	if timeout == 0 {
		timeout = 10 * time.Second
	}

	return &Client{
		baseURL:      strings.TrimSuffix(cfg.BaseURL, "/"),
		developerKey: cfg.DeveloperKey,
		customerKey:  cfg.CustomerKey,
		httpClient: &http.Client{
			Timeout: timeout,
		},
	}, nil
}

var _ Gateway = (*Client)(nil)

// appointmentDTO mirrors the API's appointment resource.
type appointmentDTO struct {
	AptNum        int64  `json:"AptNum"`
	PatNum        int64  `json:"PatNum"`
	ProvNum       int64  `json:"ProvNum"`
	Op            int64  `json:"Op"`
	AptDateTime   string `json:"AptDateTime"`
	LengthMinutes int    `json:"LengthMinutes"`
	AptStatus     string `json:"AptStatus"`
	Priority      string `json:"Priority,omitempty"`
	Confirmed     string `json:"Confirmed,omitempty"`
	Note          string `json:"Note,omitempty"`
	PlannedAptNum int64  `json:"PlannedAptNum,omitempty"`
}

type providerDTO struct {
	ProvNum     int64    `json:"ProvNum"`
	Abbr        string   `json:"Abbr"`
	FName       string   `json:"FName"`
	LName       string   `json:"LName"`
	Specialties []string `json:"Specialties"`
	IsHygienist bool     `json:"IsHygienist"`
	IsHidden    bool     `json:"IsHidden"`
}

type operatoryDTO struct {
	OperatoryNum int64  `json:"OperatoryNum"`
	OpName       string `json:"OpName"`
	IsHygiene    bool   `json:"IsHygiene"`
	IsHidden     bool   `json:"IsHidden"`
}

type dayHoursDTO struct {
	Weekday string `json:"Weekday"`
	Open    string `json:"Open"`
	Close   string `json:"Close"`
	Closed  bool   `json:"Closed"`
}

type patientDTO struct {
	PatNum        int64  `json:"PatNum"`
	FName         string `json:"FName"`
	LName         string `json:"LName"`
	WirelessPhone string `json:"WirelessPhone"`
	Birthdate     string `json:"Birthdate"`
	SecProv       int64  `json:"SecProv,omitempty"`
	RecallDueDate string `json:"RecallDueDate,omitempty"`
}

// ListAppointments queries appointments for a date range, optionally scoped
// to one patient. Boundaries are inclusive calendar dates.
func (c *Client) ListAppointments(ctx context.Context, filter AppointmentFilter) ([]Appointment, error) {
	params := url.Values{}
	params.Set("dateStart", filter.DateStart)
	params.Set("dateEnd", filter.DateEnd)
	if filter.PatientID != "" {
		params.Set("PatNum", filter.PatientID)
	}

	var dtos []appointmentDTO
	if err := c.do(ctx, http.MethodGet, "/appointments", params, nil, &dtos); err != nil {
		return nil, err
	}

	appts := make([]Appointment, 0, len(dtos))
	for _, dto := range dtos {
		appt, err := dto.toAppointment()
		if err != nil {
			return nil, fmt.Errorf("opendental: appointment %d: %w", dto.AptNum, err)
		}
		appts = append(appts, appt)
	}
	return appts, nil
}

// CreateAppointment books an appointment.
func (c *Client) CreateAppointment(ctx context.Context, req CreateAppointmentRequest) (*Appointment, error) {
	status := req.Status
	if status == "" {
		status = StatusScheduled
	}
	body := appointmentDTO{
		PatNum:        mustID(req.PatientID),
		ProvNum:       mustID(req.ProviderID),
		Op:            mustID(req.OperatoryID),
		AptDateTime:   req.Start.Format(DateTimeLayout),
		LengthMinutes: req.DurationMinutes,
		AptStatus:     string(status),
		Note:          req.Note,
		PlannedAptNum: mustID(req.TreatmentPlanID),
	}

	var dto appointmentDTO
	if err := c.do(ctx, http.MethodPost, "/appointments", nil, body, &dto); err != nil {
		return nil, err
	}
	appt, err := dto.toAppointment()
	if err != nil {
		return nil, fmt.Errorf("opendental: created appointment: %w", err)
	}
	return &appt, nil
}

// UpdateAppointment applies a partial update; nil patch fields are omitted
// from the request body.
func (c *Client) UpdateAppointment(ctx context.Context, appointmentID string, patch AppointmentPatch) (*Appointment, error) {
	body := map[string]any{}
	if patch.Start != nil {
		body["AptDateTime"] = patch.Start.Format(DateTimeLayout)
	}
	if patch.ProviderID != nil {
		body["ProvNum"] = mustID(*patch.ProviderID)
	}
	if patch.OperatoryID != nil {
		body["Op"] = mustID(*patch.OperatoryID)
	}
	if patch.Status != nil {
		body["AptStatus"] = string(*patch.Status)
	}
	if patch.Priority != nil {
		body["Priority"] = *patch.Priority
	}
	if patch.Confirmed != nil {
		body["Confirmed"] = *patch.Confirmed
	}
	if patch.Note != nil {
		body["Note"] = *patch.Note
	}
	if patch.TimeArrived != nil {
		body["DateTimeArrived"] = patch.TimeArrived.Format(DateTimeLayout)
	}
	if patch.TimeSeated != nil {
		body["DateTimeSeated"] = patch.TimeSeated.Format(DateTimeLayout)
	}
	if patch.TimeDismissed != nil {
		body["DateTimeDismissed"] = patch.TimeDismissed.Format(DateTimeLayout)
	}

	var dto appointmentDTO
	if err := c.do(ctx, http.MethodPut, "/appointments/"+url.PathEscape(appointmentID), nil, body, &dto); err != nil {
		return nil, err
	}
	appt, err := dto.toAppointment()
	if err != nil {
		return nil, fmt.Errorf("opendental: updated appointment: %w", err)
	}
	return &appt, nil
}

// BreakAppointment cancels an appointment.
func (c *Client) BreakAppointment(ctx context.Context, appointmentID string, req BreakRequest) error {
	body := map[string]any{
		"sendToUnscheduledList": req.ReturnToUnscheduledList,
	}
	if req.PenaltyMarker != "" {
		body["breakType"] = req.PenaltyMarker
	}
	return c.do(ctx, http.MethodPut, "/appointments/"+url.PathEscape(appointmentID)+"/break", nil, body, nil)
}

// ListProviders returns active and hidden providers; hidden entries are
// surfaced with IsActive=false so callers can resolve historical references.
func (c *Client) ListProviders(ctx context.Context) ([]Provider, error) {
	var dtos []providerDTO
	if err := c.do(ctx, http.MethodGet, "/providers", nil, nil, &dtos); err != nil {
		return nil, err
	}
	providers := make([]Provider, 0, len(dtos))
	for _, dto := range dtos {
		providers = append(providers, Provider{
			ID:            strconv.FormatInt(dto.ProvNum, 10),
			DisplayName:   providerDisplayName(dto),
			SpecialtyTags: dto.Specialties,
			IsHygienist:   dto.IsHygienist,
			IsActive:      !dto.IsHidden,
		})
	}
	return providers, nil
}

// ListOperatories returns the treatment-room catalog.
func (c *Client) ListOperatories(ctx context.Context) ([]Operatory, error) {
	var dtos []operatoryDTO
	if err := c.do(ctx, http.MethodGet, "/operatories", nil, nil, &dtos); err != nil {
		return nil, err
	}
	ops := make([]Operatory, 0, len(dtos))
	for _, dto := range dtos {
		ops = append(ops, Operatory{
			ID:            strconv.FormatInt(dto.OperatoryNum, 10),
			DisplayName:   dto.OpName,
			IsHygieneRoom: dto.IsHygiene,
			IsActive:      !dto.IsHidden,
		})
	}
	return ops, nil
}

// GetOfficeHours returns per-weekday business hours.
func (c *Client) GetOfficeHours(ctx context.Context) (OfficeHours, error) {
	var dtos []dayHoursDTO
	if err := c.do(ctx, http.MethodGet, "/officehours", nil, nil, &dtos); err != nil {
		return nil, err
	}
	hours := OfficeHours{}
	for _, dto := range dtos {
		wd, ok := weekdayByName(dto.Weekday)
		if !ok {
			return nil, fmt.Errorf("opendental: unknown weekday %q in office hours", dto.Weekday)
		}
		hours[wd] = DayHours{Open: dto.Open, Close: dto.Close, Closed: dto.Closed}
	}
	return hours, nil
}

// FindOrCreatePatient searches by phone and/or name, creating a record when
// no match exists and the lookup carries name plus birthdate.
func (c *Client) FindOrCreatePatient(ctx context.Context, lookup PatientLookup) (*Patient, error) {
	params := url.Values{}
	if lookup.Phone != "" {
		params.Set("phone", strings.TrimSpace(lookup.Phone))
	}
	if lookup.Name != "" {
		params.Set("name", strings.ToLower(strings.TrimSpace(lookup.Name)))
	}
	if len(params) == 0 {
		return nil, ErrPatientNotFound
	}

	var dtos []patientDTO
	if err := c.do(ctx, http.MethodGet, "/patients", params, nil, &dtos); err != nil {
		return nil, err
	}
	if len(dtos) > 0 {
		p := dtos[0].toPatient()
		return &p, nil
	}

	if lookup.Name == "" || lookup.Birthdate == "" {
		return nil, ErrPatientNotFound
	}

	first, last := splitName(lookup.Name)
	body := patientDTO{
		FName:         first,
		LName:         last,
		WirelessPhone: lookup.Phone,
		Birthdate:     lookup.Birthdate,
	}
	var created patientDTO
	if err := c.do(ctx, http.MethodPost, "/patients", nil, body, &created); err != nil {
		return nil, err
	}
	p := created.toPatient()
	return &p, nil
}

// do performs a single authenticated request with no retries. Timeouts and
// transport failures surface as errors for the caller to classify.
func (c *Client) do(ctx context.Context, method, path string, query url.Values, body, out any) error {
	endpoint := c.baseURL + path
	if len(query) > 0 {
		endpoint += "?" + query.Encode()
	}

	var reader io.Reader
	if body != nil {
		payload, err := json.Marshal(body)
		if err != nil {
			return fmt.Errorf("opendental: failed to encode request: %w", err)
		}
		reader = bytes.NewReader(payload)
	}

	req, err := http.NewRequestWithContext(ctx, method, endpoint, reader)
	if err != nil {
		return fmt.Errorf("opendental: failed to create request: %w", err)
	}
	req.Header.Set("Authorization", fmt.Sprintf("ODFHIR %s/%s", c.developerKey, c.customerKey))
	req.Header.Set("Accept", "application/json")
	if body != nil {
		req.Header.Set("Content-Type", "application/json")
	}

	resp, err := c.httpClient.Do(req)
	if err != nil {
		return fmt.Errorf("opendental: request failed: %w", err)
	}
	defer resp.Body.Close()

	if resp.StatusCode < 200 || resp.StatusCode > 299 {
		raw, _ := io.ReadAll(resp.Body)
		return &APIError{Status: resp.StatusCode, Body: strings.TrimSpace(string(raw))}
	}

	if out == nil {
		return nil
	}
	if err := json.NewDecoder(resp.Body).Decode(out); err != nil {
		return fmt.Errorf("opendental: failed to decode response: %w", err)
	}
	return nil
}

func (d appointmentDTO) toAppointment() (Appointment, error) {
	start, err := time.ParseInLocation(DateTimeLayout, d.AptDateTime, time.Local)
	if err != nil {
		return Appointment{}, fmt.Errorf("bad AptDateTime %q: %w", d.AptDateTime, err)
	}
	return Appointment{
		ID:              strconv.FormatInt(d.AptNum, 10),
		PatientID:       strconv.FormatInt(d.PatNum, 10),
		ProviderID:      strconv.FormatInt(d.ProvNum, 10),
		OperatoryID:     strconv.FormatInt(d.Op, 10),
		Start:           start,
		DurationMinutes: d.LengthMinutes,
		Status:          AppointmentStatus(d.AptStatus),
		Priority:        d.Priority,
		Confirmed:       d.Confirmed,
		Note:            d.Note,
		TreatmentPlanID: idOrEmpty(d.PlannedAptNum),
	}, nil
}

func (d patientDTO) toPatient() Patient {
	return Patient{
		ID:            strconv.FormatInt(d.PatNum, 10),
		FirstName:     d.FName,
		LastName:      d.LName,
		Phone:         d.WirelessPhone,
		Birthdate:     d.Birthdate,
		HygienistID:   idOrEmpty(d.SecProv),
		RecallDueDate: d.RecallDueDate,
	}
}

func providerDisplayName(dto providerDTO) string {
	if dto.Abbr != "" {
		return dto.Abbr
	}
	return strings.TrimSpace(dto.FName + " " + dto.LName)
}

func weekdayByName(name string) (time.Weekday, bool) {
	for wd := time.Sunday; wd <= time.Saturday; wd++ {
		if strings.EqualFold(wd.String(), name) {
			return wd, true
		}
	}
	return 0, false
}

func splitName(name string) (first, last string) {
	fields := strings.Fields(strings.TrimSpace(name))
	switch len(fields) {
	case 0:
		return "", ""
	case 1:
		return fields[0], ""
	default:
		return fields[0], strings.Join(fields[1:], " ")
	}
}

func mustID(s string) int64 {
	if s == "" {
		return 0
	}
	n, _ := strconv.ParseInt(s, 10, 64)
	return n
}

func idOrEmpty(n int64) string {
	if n == 0 {
		return ""
	}
	return strconv.FormatInt(n, 10)
}
