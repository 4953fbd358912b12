package remote

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"net/url"
	"time"

	"github.com/ppietruszewski/kneelog/internal/state"
)

// DefaultTimeout is the default HTTP request timeout.
const DefaultTimeout = 10 * time.Second

// maxResponseSize limits response body reads to prevent memory exhaustion.
const maxResponseSize = 4 * 1024 * 1024 // 4MB

// Client is the HTTP implementation of Store against a PostgREST-style
// backend: row-level REST over the four logical tables, with bearer
// authentication resolving the user server-side.
type Client struct {
	baseURL    string
	anonKey    string
	token      string
	httpClient *http.Client
}

// NewClient creates a client for baseURL. anonKey identifies the
// application; token is the user's access token and may be empty, in
// which case Session reports no session without a network call.
func NewClient(baseURL, anonKey, token string) *Client {
	return &Client{
		baseURL: baseURL,
		anonKey: anonKey,
		token:   token,
		httpClient: &http.Client{
			Timeout: DefaultTimeout,
		},
	}
}

var _ Store = (*Client)(nil)

type authUserResponse struct {
	ID    string `json:"id"`
	Email string `json:"email"`
}

// Session resolves the authenticated identity from the stored token.
// An absent, expired or rejected token is "no session", not an error;
// only transport failures and unexpected statuses are errors.
func (c *Client) Session(ctx context.Context) (*Session, error) {
	if c.token == "" {
		return nil, nil
	}

	var user authUserResponse
	status, err := c.do(ctx, http.MethodGet, "/auth/v1/user", nil, nil, &user)
	if err != nil {
		if re, ok := err.(*Error); ok && (re.StatusCode == http.StatusUnauthorized || re.StatusCode == http.StatusForbidden) {
			return nil, nil
		}
		return nil, err
	}
	if status != http.StatusOK || user.ID == "" {
		return nil, nil
	}
	return &Session{UserID: user.ID, Email: user.Email}, nil
}

type userSettingsRow struct {
	UserID       string  `json:"user_id"`
	StartDate    *string `json:"start_date"`
	MediaPref    string  `json:"media_pref"`
	PlanMode     string  `json:"plan_mode"`
	WeekOverride *int    `json:"week_override"`
}

// UpsertUserSettings writes the settings row for a user. Last write
// wins; the row is keyed by user_id alone.
func (c *Client) UpsertUserSettings(ctx context.Context, userID string, row UserSettingsRow) error {
	body := userSettingsRow{
		UserID:       userID,
		StartDate:    row.StartDateISO,
		MediaPref:    row.MediaPref,
		PlanMode:     row.PlanMode,
		WeekOverride: row.WeekOverride,
	}
	return c.upsert(ctx, "user_settings", "user_id", body)
}

type daySessionRow struct {
	UserID     string `json:"user_id"`
	DateISO    string `json:"date_iso"`
	TemplateID string `json:"template_id"`
}

// UpsertDaySession records the session template picked for one day.
func (c *Client) UpsertDaySession(ctx context.Context, userID, dateISO, templateID string) error {
	body := daySessionRow{UserID: userID, DateISO: dateISO, TemplateID: templateID}
	return c.upsert(ctx, "day_sessions", "user_id,date_iso", body)
}

// UpsertExerciseLog merges a partial progress patch into the log row
// for (user, date, exercise). Only fields the patch supplies appear in
// the request body, so untouched columns keep their server-side values.
func (c *Client) UpsertExerciseLog(ctx context.Context, userID, dateISO, exerciseID string, patch state.ProgressPatch) error {
	body := map[string]any{
		"user_id":     userID,
		"date_iso":    dateISO,
		"exercise_id": exerciseID,
		"updated_at":  time.Now().UTC().Format(time.RFC3339),
	}
	if patch.Done != nil {
		body["done"] = *patch.Done
	}
	if patch.Sets != nil {
		body["sets"] = *patch.Sets
	}
	if patch.Reps != nil {
		body["reps"] = *patch.Reps
	}
	if patch.DurationSeconds != nil {
		body["duration_seconds"] = *patch.DurationSeconds
	}
	if patch.Load != nil {
		body["load"] = *patch.Load
	}
	if patch.Note != nil {
		body["note"] = *patch.Note
	}
	return c.upsert(ctx, "exercise_logs", "user_id,date_iso,exercise_id", body)
}

type checkInInsertRow struct {
	UserID      string  `json:"user_id"`
	DateISO     string  `json:"date_iso"`
	Pain        int     `json:"pain"`
	Stiffness   int     `json:"stiffness"`
	Swelling    bool    `json:"swelling"`
	Instability bool    `json:"instability"`
	Comment     *string `json:"comment"`
}

type checkInInsertedRow struct {
	ID        string `json:"id"`
	CreatedAt string `json:"created_at"`
}

// InsertCheckIn appends a check-in row and returns the server-assigned
// id and creation timestamp for reconciliation.
func (c *Client) InsertCheckIn(ctx context.Context, userID, dateISO string, in state.CheckInInput) (InsertedCheckIn, error) {
	row := checkInInsertRow{
		UserID:      userID,
		DateISO:     dateISO,
		Pain:        in.Pain,
		Stiffness:   in.Stiffness,
		Swelling:    in.Swelling,
		Instability: in.Instability,
	}
	if in.Comment != "" {
		row.Comment = &in.Comment
	}

	headers := map[string]string{"Prefer": "return=representation"}
	var inserted []checkInInsertedRow
	if _, err := c.do(ctx, http.MethodPost, "/rest/v1/check_ins", headers, []checkInInsertRow{row}, &inserted); err != nil {
		return InsertedCheckIn{}, err
	}
	if len(inserted) == 0 {
		return InsertedCheckIn{}, fmt.Errorf("check_ins insert returned no row")
	}
	return InsertedCheckIn{ID: inserted[0].ID, CreatedAt: inserted[0].CreatedAt}, nil
}

type userSettingsSelectRow struct {
	StartDate    *string `json:"start_date"`
	MediaPref    *string `json:"media_pref"`
	PlanMode     *string `json:"plan_mode"`
	WeekOverride *int    `json:"week_override"`
}

// SelectUserSettings reads the settings row, (nil, nil) when absent.
func (c *Client) SelectUserSettings(ctx context.Context, userID string) (*UserSettingsRow, error) {
	q := url.Values{}
	q.Set("select", "start_date,media_pref,plan_mode,week_override")
	q.Set("user_id", "eq."+userID)

	var rows []userSettingsSelectRow
	if _, err := c.do(ctx, http.MethodGet, "/rest/v1/user_settings?"+q.Encode(), nil, nil, &rows); err != nil {
		return nil, err
	}
	if len(rows) == 0 {
		return nil, nil
	}
	r := rows[0]
	out := &UserSettingsRow{
		StartDateISO: r.StartDate,
		MediaPref:    "both",
		PlanMode:     "auto",
		WeekOverride: r.WeekOverride,
	}
	if r.MediaPref != nil && *r.MediaPref != "" {
		out.MediaPref = *r.MediaPref
	}
	if r.PlanMode != nil && *r.PlanMode != "" {
		out.PlanMode = *r.PlanMode
	}
	return out, nil
}

type daySessionSelectRow struct {
	DateISO    string `json:"date_iso"`
	TemplateID string `json:"template_id"`
}

// SelectDaySession reads the template pick for one day, (nil, nil)
// when absent.
func (c *Client) SelectDaySession(ctx context.Context, userID, dateISO string) (*DaySessionRow, error) {
	q := url.Values{}
	q.Set("select", "date_iso,template_id")
	q.Set("user_id", "eq."+userID)
	q.Set("date_iso", "eq."+dateISO)

	var rows []daySessionSelectRow
	if _, err := c.do(ctx, http.MethodGet, "/rest/v1/day_sessions?"+q.Encode(), nil, nil, &rows); err != nil {
		return nil, err
	}
	if len(rows) == 0 {
		return nil, nil
	}
	return &DaySessionRow{DateISO: rows[0].DateISO, TemplateID: rows[0].TemplateID}, nil
}

type exerciseLogSelectRow struct {
	DateISO         string  `json:"date_iso"`
	ExerciseID      string  `json:"exercise_id"`
	Done            *bool   `json:"done"`
	Sets            *int    `json:"sets"`
	Reps            *int    `json:"reps"`
	DurationSeconds *int    `json:"duration_seconds"`
	Load            *string `json:"load"`
	Note            *string `json:"note"`
	UpdatedAt       *string `json:"updated_at"`
}

// SelectExerciseLogs reads all log rows for one day.
func (c *Client) SelectExerciseLogs(ctx context.Context, userID, dateISO string) ([]ExerciseLogRow, error) {
	q := url.Values{}
	q.Set("select", "date_iso,exercise_id,done,sets,reps,duration_seconds,load,note,updated_at")
	q.Set("user_id", "eq."+userID)
	q.Set("date_iso", "eq."+dateISO)

	var rows []exerciseLogSelectRow
	if _, err := c.do(ctx, http.MethodGet, "/rest/v1/exercise_logs?"+q.Encode(), nil, nil, &rows); err != nil {
		return nil, err
	}
	out := make([]ExerciseLogRow, 0, len(rows))
	for _, r := range rows {
		row := ExerciseLogRow{
			DateISO:         r.DateISO,
			ExerciseID:      r.ExerciseID,
			Sets:            r.Sets,
			Reps:            r.Reps,
			DurationSeconds: r.DurationSeconds,
			Load:            r.Load,
			Note:            r.Note,
		}
		if r.Done != nil {
			row.Done = *r.Done
		}
		if r.UpdatedAt != nil {
			row.UpdatedAt = *r.UpdatedAt
		}
		out = append(out, row)
	}
	return out, nil
}

type checkInSelectRow struct {
	ID          string  `json:"id"`
	DateISO     string  `json:"date_iso"`
	CreatedAt   string  `json:"created_at"`
	Pain        int     `json:"pain"`
	Stiffness   int     `json:"stiffness"`
	Swelling    bool    `json:"swelling"`
	Instability bool    `json:"instability"`
	Comment     *string `json:"comment"`
}

// SelectCheckInsSince reads all check-ins from fromDateISO onward in
// creation order.
func (c *Client) SelectCheckInsSince(ctx context.Context, userID, fromDateISO string) ([]CheckInRow, error) {
	q := url.Values{}
	q.Set("select", "id,date_iso,created_at,pain,swelling,instability,stiffness,comment")
	q.Set("user_id", "eq."+userID)
	q.Set("date_iso", "gte."+fromDateISO)
	q.Set("order", "created_at.asc")

	var rows []checkInSelectRow
	if _, err := c.do(ctx, http.MethodGet, "/rest/v1/check_ins?"+q.Encode(), nil, nil, &rows); err != nil {
		return nil, err
	}
	out := make([]CheckInRow, 0, len(rows))
	for _, r := range rows {
		row := CheckInRow{
			ID:          r.ID,
			DateISO:     r.DateISO,
			CreatedAt:   r.CreatedAt,
			Pain:        r.Pain,
			Stiffness:   r.Stiffness,
			Swelling:    r.Swelling,
			Instability: r.Instability,
		}
		if r.Comment != nil {
			row.Comment = *r.Comment
		}
		out = append(out, row)
	}
	return out, nil
}

// upsert POSTs a row with merge-duplicates semantics keyed on the given
// conflict columns.
func (c *Client) upsert(ctx context.Context, table, onConflict string, row any) error {
	path := "/rest/v1/" + table + "?on_conflict=" + url.QueryEscape(onConflict)
	headers := map[string]string{
		"Prefer": "resolution=merge-duplicates,return=minimal",
	}
	// PostgREST bulk-insert shape: always an array of rows.
	body := []any{row}
	_, err := c.do(ctx, http.MethodPost, path, headers, body, nil)
	return err
}

// do sends one request and decodes a JSON response into out when out is
// non-nil. Non-2xx responses become *Error with the body attached.
func (c *Client) do(ctx context.Context, method, path string, headers map[string]string, body, out any) (int, error) {
	var reqBody io.Reader
	if body != nil {
		data, err := json.Marshal(body)
		if err != nil {
			return 0, fmt.Errorf("marshaling request: %w", err)
		}
		reqBody = bytes.NewReader(data)
	}

	req, err := http.NewRequestWithContext(ctx, method, c.baseURL+path, reqBody)
	if err != nil {
		return 0, fmt.Errorf("creating request: %w", err)
	}
	req.Header.Set("Accept", "application/json")
	if body != nil {
		req.Header.Set("Content-Type", "application/json")
	}
	if c.anonKey != "" {
		req.Header.Set("apikey", c.anonKey)
	}
	if c.token != "" {
		req.Header.Set("Authorization", "Bearer "+c.token)
	}
	for k, v := range headers {
		req.Header.Set(k, v)
	}

	resp, err := c.httpClient.Do(req)
	if err != nil {
		return 0, fmt.Errorf("sending request: %w", err)
	}
	defer func() { _ = resp.Body.Close() }()

	respBody, err := io.ReadAll(io.LimitReader(resp.Body, maxResponseSize+1))
	if err != nil {
		return resp.StatusCode, fmt.Errorf("reading response: %w", err)
	}
	if int64(len(respBody)) > maxResponseSize {
		return resp.StatusCode, fmt.Errorf("response exceeds maximum size of %d bytes", maxResponseSize)
	}

	if resp.StatusCode < 200 || resp.StatusCode >= 300 {
		return resp.StatusCode, &Error{StatusCode: resp.StatusCode, Body: string(respBody)}
	}

	if out != nil && len(respBody) > 0 {
		if err := json.Unmarshal(respBody, out); err != nil {
			return resp.StatusCode, fmt.Errorf("decoding response: %w", err)
		}
	}
	return resp.StatusCode, nil
}
