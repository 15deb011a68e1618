package api

import (
	"bytes"
	"context"
	"encoding/json"
	"io"
	"mime/multipart"
	"net/http"
	"net/http/httptest"
	"net/textproto"
	"strings"
	"testing"
	"time"

	"github.com/almadigital/pauta/internal/calendarservice"
	"github.com/almadigital/pauta/internal/models"
	"github.com/almadigital/pauta/internal/testutil"
)

// testEnv sets up temp stores, a service anchored at Monday 2024-01-01, and
// a router. authToken == "" means auth disabled.
func testEnv(t *testing.T, authToken string) (*calendarservice.Service, http.Handler) {
	t.Helper()

	states := testutil.TestStateStore(t)
	blobs := testutil.TestBlobDB(t)
	svc := calendarservice.NewService(states, blobs, nil)
	if _, err := svc.Regenerate(context.Background(), time.Date(2024, 1, 1, 0, 0, 0, 0, time.UTC)); err != nil {
		t.Fatalf("Regenerate: %v", err)
	}

	router := NewRouter(svc, authToken != "", authToken, nil)
	return svc, router
}

func doJSON(t *testing.T, router http.Handler, method, path string, body any) *httptest.ResponseRecorder {
	t.Helper()
	var rd io.Reader
	if body != nil {
		raw, err := json.Marshal(body)
		if err != nil {
			t.Fatal(err)
		}
		rd = bytes.NewReader(raw)
	}
	req := httptest.NewRequest(method, path, rd)
	w := httptest.NewRecorder()
	router.ServeHTTP(w, req)
	return w
}

func uploadFiles(t *testing.T, router http.Handler, day string, files map[string][2]string) *httptest.ResponseRecorder {
	t.Helper()
	var buf bytes.Buffer
	mw := multipart.NewWriter(&buf)
	for name, meta := range files {
		hdr := make(textproto.MIMEHeader)
		hdr.Set("Content-Disposition", `form-data; name="files"; filename="`+name+`"`)
		hdr.Set("Content-Type", meta[0])
		part, err := mw.CreatePart(hdr)
		if err != nil {
			t.Fatal(err)
		}
		if _, err := part.Write([]byte(meta[1])); err != nil {
			t.Fatal(err)
		}
	}
	mw.Close()

	req := httptest.NewRequest(http.MethodPost, "/calendar/days/"+day+"/media", &buf)
	req.Header.Set("Content-Type", mw.FormDataContentType())
	w := httptest.NewRecorder()
	router.ServeHTTP(w, req)
	return w
}

func TestGetCalendar(t *testing.T) {
	_, router := testEnv(t, "")

	w := doJSON(t, router, http.MethodGet, "/calendar", nil)
	if w.Code != http.StatusOK {
		t.Fatalf("status = %d, body = %s", w.Code, w.Body.String())
	}

	var resp CalendarResponse
	_ = json.Unmarshal(w.Body.Bytes(), &resp)
	if resp.Start != "2024-01-01" {
		t.Errorf("start = %q", resp.Start)
	}
	if len(resp.Days) != models.PlanLength {
		t.Fatalf("len(days) = %d", len(resp.Days))
	}
	if resp.Days[0].Weekday != "Lunes" {
		t.Errorf("weekday = %q", resp.Days[0].Weekday)
	}
	if resp.Days[0].StatusClass != "process" {
		t.Errorf("statusClass = %q", resp.Days[0].StatusClass)
	}
	if resp.Days[0].PilarClass != "pilar-Educación" {
		t.Errorf("pilarClass = %q", resp.Days[0].PilarClass)
	}
}

func TestSetField(t *testing.T) {
	_, router := testEnv(t, "")

	w := doJSON(t, router, http.MethodPatch, "/calendar/days/2024-01-01",
		SetFieldRequest{Field: "estado", Value: "Publicado"})
	if w.Code != http.StatusOK {
		t.Fatalf("status = %d, body = %s", w.Code, w.Body.String())
	}
	var day DayView
	_ = json.Unmarshal(w.Body.Bytes(), &day)
	if day.Estado != "Publicado" {
		t.Errorf("estado = %q", day.Estado)
	}
	if day.StatusClass != "published" {
		t.Errorf("statusClass = %q", day.StatusClass)
	}

	// The change survives a fresh read.
	w = doJSON(t, router, http.MethodGet, "/calendar", nil)
	var resp CalendarResponse
	_ = json.Unmarshal(w.Body.Bytes(), &resp)
	if resp.Days[0].Estado != "Publicado" {
		t.Errorf("persisted estado = %q", resp.Days[0].Estado)
	}
}

func TestSetFieldUnknownDayNoOps(t *testing.T) {
	_, router := testEnv(t, "")
	w := doJSON(t, router, http.MethodPatch, "/calendar/days/1999-12-31",
		SetFieldRequest{Field: "estado", Value: "Publicado"})
	if w.Code != http.StatusNoContent {
		t.Errorf("status = %d, want 204", w.Code)
	}
}

func TestSetFieldValidation(t *testing.T) {
	_, router := testEnv(t, "")

	cases := []SetFieldRequest{
		{Field: "estado", Value: "Terminado"},
		{Field: "favouriteColour", Value: "blue"},
		{Field: "hora", Value: "not-a-time"},
		{Field: ""},
	}
	for _, c := range cases {
		w := doJSON(t, router, http.MethodPatch, "/calendar/days/2024-01-01", c)
		if w.Code != http.StatusBadRequest {
			t.Errorf("SetField(%+v) status = %d, want 400", c, w.Code)
		}
	}
}

func TestUploadListDetachMedia(t *testing.T) {
	_, router := testEnv(t, "")

	w := uploadFiles(t, router, "2024-01-04", map[string][2]string{
		"foto.png": {"image/png", "pixels"},
		"clip.mp4": {"video/mp4", "frames"},
	})
	if w.Code != http.StatusCreated {
		t.Fatalf("upload status = %d, body = %s", w.Code, w.Body.String())
	}
	var up UploadResponse
	_ = json.Unmarshal(w.Body.Bytes(), &up)
	if up.Attached != 2 || len(up.Media) != 2 {
		t.Fatalf("upload response = %+v", up)
	}

	// List resolves both.
	w = doJSON(t, router, http.MethodGet, "/calendar/days/2024-01-04/media", nil)
	if w.Code != http.StatusOK {
		t.Fatalf("list status = %d", w.Code)
	}
	var list struct {
		Media []MediaItem `json:"media"`
	}
	_ = json.Unmarshal(w.Body.Bytes(), &list)
	if len(list.Media) != 2 {
		t.Fatalf("len(media) = %d", len(list.Media))
	}
	for _, item := range list.Media {
		if item.Missing || item.DataURL == "" {
			t.Errorf("item = %+v", item)
		}
	}

	// Detach the first one.
	id := up.Media[0].ID
	w = doJSON(t, router, http.MethodDelete, "/calendar/days/2024-01-04/media/"+id, nil)
	if w.Code != http.StatusNoContent {
		t.Fatalf("detach status = %d", w.Code)
	}
	// Idempotent.
	w = doJSON(t, router, http.MethodDelete, "/calendar/days/2024-01-04/media/"+id, nil)
	if w.Code != http.StatusNoContent {
		t.Errorf("repeat detach status = %d", w.Code)
	}

	w = doJSON(t, router, http.MethodGet, "/calendar/days/2024-01-04/media", nil)
	_ = json.Unmarshal(w.Body.Bytes(), &list)
	if len(list.Media) != 1 {
		t.Errorf("len(media) after detach = %d", len(list.Media))
	}
}

func TestUploadSkipsUnsupportedTypes(t *testing.T) {
	_, router := testEnv(t, "")

	w := uploadFiles(t, router, "2024-01-02", map[string][2]string{
		"ok.png":   {"image/png", "x"},
		"nope.pdf": {"application/pdf", "y"},
	})
	if w.Code != http.StatusCreated {
		t.Fatalf("status = %d", w.Code)
	}
	var up UploadResponse
	_ = json.Unmarshal(w.Body.Bytes(), &up)
	if up.Attached != 1 {
		t.Errorf("attached = %d, want 1", up.Attached)
	}
}

func TestUploadUnknownDay(t *testing.T) {
	_, router := testEnv(t, "")
	w := uploadFiles(t, router, "1999-12-31", map[string][2]string{
		"a.png": {"image/png", "x"},
	})
	if w.Code != http.StatusNotFound {
		t.Errorf("status = %d, want 404", w.Code)
	}
}

func TestServeMediaRaw(t *testing.T) {
	_, router := testEnv(t, "")

	w := uploadFiles(t, router, "2024-01-01", map[string][2]string{
		"foto.png": {"image/png", "rawbytes"},
	})
	var up UploadResponse
	_ = json.Unmarshal(w.Body.Bytes(), &up)

	w = doJSON(t, router, http.MethodGet, "/media/"+up.Media[0].ID, nil)
	if w.Code != http.StatusOK {
		t.Fatalf("status = %d", w.Code)
	}
	if ct := w.Header().Get("Content-Type"); ct != "image/png" {
		t.Errorf("content type = %q", ct)
	}
	if w.Body.String() != "rawbytes" {
		t.Errorf("body = %q", w.Body.String())
	}

	// Unknown blob is a plain 404.
	w = doJSON(t, router, http.MethodGet, "/media/missing-id", nil)
	if w.Code != http.StatusNotFound {
		t.Errorf("status = %d, want 404", w.Code)
	}
}

func TestExportDownload(t *testing.T) {
	_, router := testEnv(t, "")

	w := doJSON(t, router, http.MethodGet, "/export", nil)
	if w.Code != http.StatusOK {
		t.Fatalf("status = %d", w.Code)
	}
	cd := w.Header().Get("Content-Disposition")
	if !strings.Contains(cd, "calendario-editorial-2024-01-01.json") {
		t.Errorf("content disposition = %q", cd)
	}

	var doc models.CalendarState
	if err := json.Unmarshal(w.Body.Bytes(), &doc); err != nil {
		t.Fatalf("export is not valid JSON: %v", err)
	}
	if len(doc.Days) != models.PlanLength {
		t.Errorf("len(days) = %d", len(doc.Days))
	}
	// Pretty-printed by contract.
	if !strings.Contains(w.Body.String(), "\n  ") {
		t.Error("export should be pretty-printed")
	}
}

func TestImportRoundTrip(t *testing.T) {
	_, router := testEnv(t, "")

	doJSON(t, router, http.MethodPatch, "/calendar/days/2024-01-01",
		SetFieldRequest{Field: "copy", Value: "texto"})
	export := doJSON(t, router, http.MethodGet, "/export", nil).Body.Bytes()

	// Blow the calendar away, then import the document back.
	doJSON(t, router, http.MethodPost, "/calendar/reset", nil)

	req := httptest.NewRequest(http.MethodPost, "/import", bytes.NewReader(export))
	w := httptest.NewRecorder()
	router.ServeHTTP(w, req)
	if w.Code != http.StatusOK {
		t.Fatalf("import status = %d, body = %s", w.Code, w.Body.String())
	}

	var resp CalendarResponse
	_ = json.Unmarshal(doJSON(t, router, http.MethodGet, "/calendar", nil).Body.Bytes(), &resp)
	if resp.Start != "2024-01-01" {
		t.Errorf("start = %q", resp.Start)
	}
	if resp.Days[0].Copy != "texto" {
		t.Errorf("copy = %q", resp.Days[0].Copy)
	}
}

func TestImportInvalidDocument(t *testing.T) {
	_, router := testEnv(t, "")

	for _, doc := range []string{`{}`, `{"days":[]}`, `garbage`} {
		req := httptest.NewRequest(http.MethodPost, "/import", strings.NewReader(doc))
		w := httptest.NewRecorder()
		router.ServeHTTP(w, req)
		if w.Code != http.StatusBadRequest {
			t.Errorf("import %q status = %d, want 400", doc, w.Code)
		}
	}

	// State untouched.
	var resp CalendarResponse
	_ = json.Unmarshal(doJSON(t, router, http.MethodGet, "/calendar", nil).Body.Bytes(), &resp)
	if resp.Start != "2024-01-01" || len(resp.Days) != models.PlanLength {
		t.Errorf("state changed after rejected import: %+v", resp.Start)
	}
}

func TestSetStartReplacesCalendar(t *testing.T) {
	_, router := testEnv(t, "")

	w := doJSON(t, router, http.MethodPost, "/calendar/start", SetStartRequest{Start: "2024-03-14"})
	if w.Code != http.StatusOK {
		t.Fatalf("status = %d", w.Code)
	}
	var resp CalendarResponse
	_ = json.Unmarshal(w.Body.Bytes(), &resp)
	if resp.Start != "2024-03-11" {
		t.Errorf("start = %q, want the Monday on or before the anchor", resp.Start)
	}

	w = doJSON(t, router, http.MethodPost, "/calendar/start", SetStartRequest{Start: "not-a-date"})
	if w.Code != http.StatusBadRequest {
		t.Errorf("bad date status = %d", w.Code)
	}
}

func TestOrphansEndpoint(t *testing.T) {
	_, router := testEnv(t, "")

	w := uploadFiles(t, router, "2024-01-01", map[string][2]string{
		"soon-orphan.png": {"image/png", "x"},
	})
	var up UploadResponse
	_ = json.Unmarshal(w.Body.Bytes(), &up)

	doJSON(t, router, http.MethodPost, "/calendar/reset", nil)

	w = doJSON(t, router, http.MethodGet, "/orphans", nil)
	if w.Code != http.StatusOK {
		t.Fatalf("status = %d", w.Code)
	}
	var resp OrphansResponse
	_ = json.Unmarshal(w.Body.Bytes(), &resp)
	if len(resp.Orphans) != 1 || resp.Orphans[0] != up.Media[0].ID {
		t.Errorf("orphans = %v", resp.Orphans)
	}
}

func TestAuthMiddleware(t *testing.T) {
	_, router := testEnv(t, "sekrit")

	// No token: rejected.
	w := doJSON(t, router, http.MethodGet, "/calendar", nil)
	if w.Code != http.StatusUnauthorized {
		t.Errorf("no token status = %d", w.Code)
	}

	// Wrong token: rejected.
	req := httptest.NewRequest(http.MethodGet, "/calendar", nil)
	req.Header.Set("Authorization", "Bearer wrong")
	w = httptest.NewRecorder()
	router.ServeHTTP(w, req)
	if w.Code != http.StatusUnauthorized {
		t.Errorf("wrong token status = %d", w.Code)
	}

	// Correct token: allowed.
	req = httptest.NewRequest(http.MethodGet, "/calendar", nil)
	req.Header.Set("Authorization", "Bearer sekrit")
	w = httptest.NewRecorder()
	router.ServeHTTP(w, req)
	if w.Code != http.StatusOK {
		t.Errorf("valid token status = %d", w.Code)
	}
}
