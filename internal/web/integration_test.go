package web_test

import (
	"bytes"
	"context"
	"errors"
	"io"
	"log/slog"
	"mime/multipart"
	"net/http"
	"net/http/httptest"
	"net/url"
	"strings"
	"sync/atomic"
	"testing"
	"time"

	"github.com/prometheus/client_golang/prometheus"

	"github.com/vbonduro/restock/internal/auth"
	"github.com/vbonduro/restock/internal/cache"
	"github.com/vbonduro/restock/internal/db"
	"github.com/vbonduro/restock/internal/domain"
	"github.com/vbonduro/restock/internal/form"
	"github.com/vbonduro/restock/internal/imagestore/local"
	"github.com/vbonduro/restock/internal/repository"
	"github.com/vbonduro/restock/internal/service"
	"github.com/vbonduro/restock/internal/store"
	"github.com/vbonduro/restock/internal/vision"
	"github.com/vbonduro/restock/internal/web"
	"github.com/vbonduro/restock/internal/web/templates"
)

// minimalJPEG is 512 bytes with the JPEG magic bytes header followed by zeros.
// http.DetectContentType identifies JPEG from the leading 0xFF 0xD8 bytes.
var minimalJPEG = func() []byte {
	b := make([]byte, 512)
	b[0] = 0xFF
	b[1] = 0xD8
	b[2] = 0xFF
	b[3] = 0xE0
	return b
}()

// fixedSuggester returns a pre-configured suggestion for every image.
type fixedSuggester struct {
	suggestion *vision.Suggestion
	err        error
}

func (f *fixedSuggester) Suggest(_ context.Context, r io.Reader, _ string) (*vision.Suggestion, error) {
	if _, err := io.ReadAll(r); err != nil {
		return nil, err
	}
	return f.suggestion, f.err
}

// listSwitch fails List calls while failList is set.
type listSwitch struct {
	repository.Repository
	failList atomic.Bool
}

func (r *listSwitch) List(ctx context.Context, c domain.Collection) ([]repository.Record, error) {
	if r.failList.Load() {
		return nil, errors.New("backend unavailable")
	}
	return r.Repository.List(ctx, c)
}

type testServer struct {
	*httptest.Server
	svc  *service.InventoryService
	repo *listSwitch
}

// newTestServer sets up a real web.Server backed by in-memory SQLite and a
// temp-dir image store. suggester may be nil.
func newTestServer(t *testing.T, suggester vision.Suggester, verifier *auth.Verifier) *testServer {
	t.Helper()
	database, err := db.OpenForTesting()
	if err != nil {
		t.Fatalf("OpenForTesting: %v", err)
	}
	images, err := local.NewLocalImageStore(t.TempDir())
	if err != nil {
		t.Fatalf("NewLocalImageStore: %v", err)
	}

	repo := &listSwitch{Repository: store.NewItemStore(database)}
	svc := service.NewInventoryService(repo, cache.New(), suggester, images, slog.Default())
	srv := httptest.NewServer(web.NewServer(svc, templates.FS, web.Options{
		Verifier: verifier,
		Registry: prometheus.NewRegistry(),
		Now:      func() time.Time { return time.Date(2026, 3, 14, 9, 0, 0, 0, time.UTC) },
	}, slog.Default()))
	t.Cleanup(func() {
		srv.Close()
		_ = database.Close()
	})
	return &testServer{Server: srv, svc: svc, repo: repo}
}

// seed creates item through the service and returns it with its id.
func (s *testServer) seed(t *testing.T, c domain.Collection, item domain.Item) domain.Item {
	t.Helper()
	ctx := context.Background()
	if err := s.svc.Submit(ctx, c, form.Request{Op: form.OpCreate, Item: item}, nil); err != nil {
		t.Fatalf("seed %q: %v", item.Name, err)
	}
	items, err := s.svc.Items(ctx, c)
	if err != nil {
		t.Fatalf("Items: %v", err)
	}
	for _, it := range items {
		if it.Name == item.Name {
			return it
		}
	}
	t.Fatalf("seeded item %q not found", item.Name)
	return domain.Item{}
}

// do sends an HTMX request and returns the response with its body read.
func (s *testServer) do(t *testing.T, method, path, contentType string, body io.Reader) (*http.Response, string) {
	t.Helper()
	req, err := http.NewRequest(method, s.URL+path, body)
	if err != nil {
		t.Fatalf("new request: %v", err)
	}
	req.Header.Set("HX-Request", "true")
	if contentType != "" {
		req.Header.Set("Content-Type", contentType)
	}
	resp, err := http.DefaultClient.Do(req)
	if err != nil {
		t.Fatalf("%s %s: %v", method, path, err)
	}
	defer func() { _ = resp.Body.Close() }()
	b, err := io.ReadAll(resp.Body)
	if err != nil {
		t.Fatalf("read body: %v", err)
	}
	return resp, string(b)
}

func (s *testServer) postForm(t *testing.T, path string, v url.Values) (*http.Response, string) {
	t.Helper()
	return s.do(t, http.MethodPost, path, "application/x-www-form-urlencoded", strings.NewReader(v.Encode()))
}

// buildMultipartBody creates a multipart/form-data body with the given fields
// and an "image" file.
func buildMultipartBody(t *testing.T, fields url.Values, imageData []byte) (body *bytes.Buffer, contentType string) {
	t.Helper()
	body = &bytes.Buffer{}
	w := multipart.NewWriter(body)
	for k := range fields {
		if err := w.WriteField(k, fields.Get(k)); err != nil {
			t.Fatalf("write field: %v", err)
		}
	}
	fw, err := w.CreateFormFile("image", "photo.jpg")
	if err != nil {
		t.Fatalf("create form file: %v", err)
	}
	if _, err := fw.Write(imageData); err != nil {
		t.Fatalf("write image data: %v", err)
	}
	if err := w.Close(); err != nil {
		t.Fatalf("close multipart writer: %v", err)
	}
	return body, w.FormDataContentType()
}

func materialForm(name string) url.Values {
	return url.Values{
		"name":             {name},
		"current_quantity": {"40"},
		"reorder_point":    {"10"},
		"category":         {"Talheres"},
		"sector":           {"Salão"},
	}
}

func TestIntegration_CreateItem(t *testing.T) {
	if testing.Short() {
		t.Skip("skipping integration test in short mode")
	}
	srv := newTestServer(t, nil, nil)

	resp, body := srv.postForm(t, "/materials", materialForm("Garfo"))
	if resp.StatusCode != http.StatusOK {
		t.Fatalf("expected 200, got %d: %s", resp.StatusCode, body)
	}
	if body != "" {
		t.Errorf("expected empty body, got %q", body)
	}
	hxTrigger := resp.Header.Get("HX-Trigger")
	if !strings.Contains(hxTrigger, "rows-changed") || !strings.Contains(hxTrigger, "Item added") {
		t.Errorf("unexpected HX-Trigger %q", hxTrigger)
	}

	resp, body = srv.do(t, http.MethodGet, "/materials", "", nil)
	if resp.StatusCode != http.StatusOK {
		t.Fatalf("expected 200, got %d", resp.StatusCode)
	}
	if !strings.Contains(body, "Garfo") || !strings.Contains(body, "Salão") {
		t.Errorf("rows do not contain the new item:\n%s", body)
	}
}

func TestIntegration_CreateItemPlainFormRedirects(t *testing.T) {
	if testing.Short() {
		t.Skip("skipping integration test in short mode")
	}
	srv := newTestServer(t, nil, nil)

	resp, err := http.PostForm(srv.URL+"/materials", materialForm("Faca"))
	if err != nil {
		t.Fatalf("POST /materials: %v", err)
	}
	t.Cleanup(func() { _ = resp.Body.Close() })

	// The client follows the 303 back to the full list page.
	if resp.StatusCode != http.StatusOK {
		t.Fatalf("expected 200 after redirect, got %d", resp.StatusCode)
	}
	body, _ := io.ReadAll(resp.Body)
	if !strings.Contains(string(body), "<!DOCTYPE html>") || !strings.Contains(string(body), "Faca") {
		t.Errorf("expected full page with the new item:\n%s", body)
	}
}

func TestIntegration_CreateItemValidation(t *testing.T) {
	if testing.Short() {
		t.Skip("skipping integration test in short mode")
	}
	srv := newTestServer(t, nil, nil)

	v := materialForm("Garfo")
	v.Set("current_quantity", "-3")
	resp, body := srv.postForm(t, "/materials", v)

	if resp.StatusCode != http.StatusUnprocessableEntity {
		t.Fatalf("expected 422, got %d: %s", resp.StatusCode, body)
	}
	// The form comes back with what was typed.
	if !strings.Contains(body, `value="Garfo"`) || !strings.Contains(body, "current_quantity") {
		t.Errorf("form not re-rendered with the draft:\n%s", body)
	}
	items, _ := srv.svc.Items(context.Background(), domain.Materials)
	if len(items) != 0 {
		t.Errorf("expected no items, got %d", len(items))
	}
}

func TestIntegration_CreateItemWithImage(t *testing.T) {
	if testing.Short() {
		t.Skip("skipping integration test in short mode")
	}
	srv := newTestServer(t, nil, nil)

	body, contentType := buildMultipartBody(t, materialForm("Prato"), minimalJPEG)
	resp, respBody := srv.do(t, http.MethodPost, "/materials", contentType, body)
	if resp.StatusCode != http.StatusOK {
		t.Fatalf("expected 200, got %d: %s", resp.StatusCode, respBody)
	}

	items, err := srv.svc.Items(context.Background(), domain.Materials)
	if err != nil || len(items) != 1 {
		t.Fatalf("expected one item, got %d (%v)", len(items), err)
	}
	if !strings.HasPrefix(items[0].Image, service.ImageURLPrefix) {
		t.Fatalf("expected stored image URL, got %q", items[0].Image)
	}

	resp, img := srv.do(t, http.MethodGet, items[0].Image, "", nil)
	if resp.StatusCode != http.StatusOK {
		t.Fatalf("GET image: expected 200, got %d", resp.StatusCode)
	}
	if got := resp.Header.Get("Content-Type"); got != "image/jpeg" {
		t.Errorf("expected image/jpeg, got %q", got)
	}
	if !bytes.Equal([]byte(img), minimalJPEG) {
		t.Errorf("image bytes differ: got %d bytes", len(img))
	}
}

func TestIntegration_EditItem(t *testing.T) {
	if testing.Short() {
		t.Skip("skipping integration test in short mode")
	}
	srv := newTestServer(t, nil, nil)
	item := srv.seed(t, domain.Beverages, domain.Item{Name: "Suco", CurrentQuantity: 8, ReorderPoint: 4, Category: "Sucos"})

	resp, body := srv.do(t, http.MethodGet, "/beverages/"+item.ID+"/edit", "", nil)
	if resp.StatusCode != http.StatusOK {
		t.Fatalf("expected 200, got %d", resp.StatusCode)
	}
	if !strings.Contains(body, `value="Suco"`) || strings.Contains(body, `name="sector"`) {
		t.Errorf("unexpected edit form:\n%s", body)
	}

	resp, body = srv.postForm(t, "/beverages/"+item.ID, url.Values{
		"name":             {"Suco de Uva"},
		"current_quantity": {"8"},
		"reorder_point":    {"4"},
		"category":         {"Sucos"},
	})
	if resp.StatusCode != http.StatusOK {
		t.Fatalf("expected 200, got %d: %s", resp.StatusCode, body)
	}

	got, err := srv.svc.Get(context.Background(), domain.Beverages, item.ID)
	if err != nil {
		t.Fatalf("Get: %v", err)
	}
	if got.Name != "Suco de Uva" {
		t.Errorf("expected renamed item, got %q", got.Name)
	}
}

func TestIntegration_AdjustClampsAtZero(t *testing.T) {
	if testing.Short() {
		t.Skip("skipping integration test in short mode")
	}
	srv := newTestServer(t, nil, nil)
	item := srv.seed(t, domain.Materials, domain.Item{Name: "Copo", CurrentQuantity: 5, ReorderPoint: 2, Category: "Louça"})

	resp, body := srv.do(t, http.MethodGet, "/materials/"+item.ID+"/adjust", "", nil)
	if resp.StatusCode != http.StatusOK || !strings.Contains(body, "Copo") {
		t.Fatalf("expected adjust panel, got %d:\n%s", resp.StatusCode, body)
	}

	resp, body = srv.postForm(t, "/materials/"+item.ID+"/adjust", url.Values{"delta": {"20"}, "direction": {"subtract"}})
	if resp.StatusCode != http.StatusOK {
		t.Fatalf("expected 200, got %d: %s", resp.StatusCode, body)
	}
	if hxTrigger := resp.Header.Get("HX-Trigger"); !strings.Contains(hxTrigger, "new value 0") {
		t.Errorf("unexpected HX-Trigger %q", hxTrigger)
	}

	got, err := srv.svc.Get(context.Background(), domain.Materials, item.ID)
	if err != nil {
		t.Fatalf("Get: %v", err)
	}
	if got.CurrentQuantity != 0 {
		t.Errorf("expected quantity 0, got %d", got.CurrentQuantity)
	}
}

func TestIntegration_AdjustInvalidDelta(t *testing.T) {
	if testing.Short() {
		t.Skip("skipping integration test in short mode")
	}
	srv := newTestServer(t, nil, nil)
	item := srv.seed(t, domain.Materials, domain.Item{Name: "Copo", CurrentQuantity: 5, ReorderPoint: 2, Category: "Louça"})

	resp, body := srv.postForm(t, "/materials/"+item.ID+"/adjust", url.Values{"delta": {"0"}, "direction": {"add"}})
	if resp.StatusCode != http.StatusUnprocessableEntity {
		t.Fatalf("expected 422, got %d: %s", resp.StatusCode, body)
	}
	if !strings.Contains(body, "delta") {
		t.Errorf("expected the error in the panel:\n%s", body)
	}

	got, _ := srv.svc.Get(context.Background(), domain.Materials, item.ID)
	if got.CurrentQuantity != 5 {
		t.Errorf("expected quantity unchanged at 5, got %d", got.CurrentQuantity)
	}
}

func TestIntegration_DeleteItem(t *testing.T) {
	if testing.Short() {
		t.Skip("skipping integration test in short mode")
	}
	srv := newTestServer(t, nil, nil)
	item := srv.seed(t, domain.Beverages, domain.Item{Name: "Água", CurrentQuantity: 1, ReorderPoint: 1, Category: "Águas"})

	resp, _ := srv.do(t, http.MethodDelete, "/beverages/"+item.ID, "", nil)
	if resp.StatusCode != http.StatusOK {
		t.Fatalf("expected 200, got %d", resp.StatusCode)
	}
	if hxTrigger := resp.Header.Get("HX-Trigger"); !strings.Contains(hxTrigger, "Item removed") {
		t.Errorf("unexpected HX-Trigger %q", hxTrigger)
	}

	resp, _ = srv.do(t, http.MethodDelete, "/beverages/"+item.ID, "", nil)
	if resp.StatusCode != http.StatusNotFound {
		t.Errorf("second delete: expected 404, got %d", resp.StatusCode)
	}
}

func TestIntegration_UnknownItem(t *testing.T) {
	if testing.Short() {
		t.Skip("skipping integration test in short mode")
	}
	srv := newTestServer(t, nil, nil)

	for _, path := range []string{"/materials/missing/edit", "/materials/missing/adjust", "/images/missing.jpg"} {
		resp, _ := srv.do(t, http.MethodGet, path, "", nil)
		if resp.StatusCode != http.StatusNotFound {
			t.Errorf("GET %s: expected 404, got %d", path, resp.StatusCode)
		}
	}
}

func TestIntegration_ListFilterSortAndPaging(t *testing.T) {
	if testing.Short() {
		t.Skip("skipping integration test in short mode")
	}
	srv := newTestServer(t, nil, nil)
	for i := 0; i < 45; i++ {
		srv.seed(t, domain.Beverages, domain.Item{
			Name: "Refri " + string(rune('A'+i%26)) + string(rune('a'+i/26)), CurrentQuantity: i, Category: "Refrigerantes",
		})
	}
	srv.seed(t, domain.Beverages, domain.Item{Name: "Coca-Cola", CurrentQuantity: 12, ReorderPoint: 6, Category: "Refrigerantes"})

	_, body := srv.do(t, http.MethodGet, "/beverages", "", nil)
	if !strings.Contains(body, "Showing 30 of 46") || !strings.Contains(body, "Load more") {
		t.Errorf("expected first page of 30:\n%s", body)
	}

	_, body = srv.do(t, http.MethodGet, "/beverages?pages=2", "", nil)
	if !strings.Contains(body, "Showing 46 of 46") || strings.Contains(body, "Load more") {
		t.Errorf("expected everything loaded:\n%s", body)
	}

	_, body = srv.do(t, http.MethodGet, "/beverages?q=coca&sort=quantity&dir=desc", "", nil)
	if !strings.Contains(body, "Showing 1 of 1") || !strings.Contains(body, "Coca-Cola") {
		t.Errorf("expected only Coca-Cola:\n%s", body)
	}
}

func TestIntegration_ExportPDF(t *testing.T) {
	if testing.Short() {
		t.Skip("skipping integration test in short mode")
	}
	srv := newTestServer(t, nil, nil)
	srv.seed(t, domain.Materials, domain.Item{Name: "Garfo", CurrentQuantity: 1, ReorderPoint: 10, Category: "Talheres"})

	resp, body := srv.do(t, http.MethodGet, "/materials/export.pdf", "", nil)
	if resp.StatusCode != http.StatusOK {
		t.Fatalf("expected 200, got %d", resp.StatusCode)
	}
	if got := resp.Header.Get("Content-Type"); got != "application/pdf" {
		t.Errorf("expected application/pdf, got %q", got)
	}
	if got := resp.Header.Get("Content-Disposition"); !strings.Contains(got, "materials-2026-03-14.pdf") {
		t.Errorf("unexpected Content-Disposition %q", got)
	}
	if !strings.HasPrefix(body, "%PDF") {
		t.Errorf("body is not a PDF")
	}
}

func TestIntegration_SuggestWithoutBackend(t *testing.T) {
	if testing.Short() {
		t.Skip("skipping integration test in short mode")
	}
	srv := newTestServer(t, nil, nil)

	body, contentType := buildMultipartBody(t, nil, minimalJPEG)
	resp, _ := srv.do(t, http.MethodPost, "/materials/suggest", contentType, body)
	if resp.StatusCode != http.StatusServiceUnavailable {
		t.Errorf("expected 503, got %d", resp.StatusCode)
	}
}

func TestIntegration_SuggestPrefillsForm(t *testing.T) {
	if testing.Short() {
		t.Skip("skipping integration test in short mode")
	}
	srv := newTestServer(t, &fixedSuggester{suggestion: &vision.Suggestion{
		Name: "Coca-Cola 350ml", Category: "Refrigerantes", Sector: "Bar",
	}}, nil)

	body, contentType := buildMultipartBody(t, nil, minimalJPEG)
	resp, respBody := srv.do(t, http.MethodPost, "/beverages/suggest", contentType, body)
	if resp.StatusCode != http.StatusOK {
		t.Fatalf("expected 200, got %d: %s", resp.StatusCode, respBody)
	}
	if !strings.Contains(respBody, `value="Coca-Cola 350ml"`) || !strings.Contains(respBody, `value="Refrigerantes"`) {
		t.Errorf("form not prefilled:\n%s", respBody)
	}
	if strings.Contains(respBody, "Bar") {
		t.Errorf("beverage form must not carry a sector:\n%s", respBody)
	}
}

func TestIntegration_SuggestNothingRecognised(t *testing.T) {
	if testing.Short() {
		t.Skip("skipping integration test in short mode")
	}
	srv := newTestServer(t, &fixedSuggester{err: vision.ErrNoSuggestion}, nil)

	body, contentType := buildMultipartBody(t, nil, minimalJPEG)
	resp, _ := srv.do(t, http.MethodPost, "/materials/suggest", contentType, body)
	if resp.StatusCode != http.StatusUnprocessableEntity {
		t.Errorf("expected 422, got %d", resp.StatusCode)
	}
}

func TestIntegration_HealthAndMetrics(t *testing.T) {
	if testing.Short() {
		t.Skip("skipping integration test in short mode")
	}
	srv := newTestServer(t, nil, nil)

	resp, body := srv.do(t, http.MethodGet, "/healthz", "", nil)
	if resp.StatusCode != http.StatusOK || body != "ok" {
		t.Errorf("healthz: got %d %q", resp.StatusCode, body)
	}

	srv.do(t, http.MethodGet, "/materials", "", nil)
	resp, body = srv.do(t, http.MethodGet, "/metrics", "", nil)
	if resp.StatusCode != http.StatusOK {
		t.Fatalf("metrics: expected 200, got %d", resp.StatusCode)
	}
	if !strings.Contains(body, "restock_http_requests_total") {
		t.Errorf("metrics missing request counter:\n%s", body)
	}
}

func TestIntegration_RootRedirects(t *testing.T) {
	if testing.Short() {
		t.Skip("skipping integration test in short mode")
	}
	srv := newTestServer(t, nil, nil)

	client := &http.Client{CheckRedirect: func(*http.Request, []*http.Request) error { return http.ErrUseLastResponse }}
	resp, err := client.Get(srv.URL + "/")
	if err != nil {
		t.Fatalf("GET /: %v", err)
	}
	_ = resp.Body.Close()
	if resp.StatusCode != http.StatusSeeOther || resp.Header.Get("Location") != "/materials" {
		t.Errorf("expected 303 to /materials, got %d %q", resp.StatusCode, resp.Header.Get("Location"))
	}
}

func TestIntegration_AuthRequired(t *testing.T) {
	if testing.Short() {
		t.Skip("skipping integration test in short mode")
	}
	verifier := auth.NewVerifier("test-secret", "restock", "restock-admin")
	srv := newTestServer(t, nil, verifier)

	resp, _ := srv.do(t, http.MethodGet, "/materials", "", nil)
	if resp.StatusCode != http.StatusUnauthorized {
		t.Errorf("expected 401 without token, got %d", resp.StatusCode)
	}

	resp, _ = srv.do(t, http.MethodGet, "/healthz", "", nil)
	if resp.StatusCode != http.StatusOK {
		t.Errorf("healthz must stay public, got %d", resp.StatusCode)
	}

	token, err := verifier.Issue("user-1", "chef@example.com", time.Hour)
	if err != nil {
		t.Fatalf("Issue: %v", err)
	}
	req, _ := http.NewRequest(http.MethodGet, srv.URL+"/materials", nil)
	req.Header.Set("Authorization", "Bearer "+token)
	resp, err = http.DefaultClient.Do(req)
	if err != nil {
		t.Fatalf("GET /materials: %v", err)
	}
	_ = resp.Body.Close()
	if resp.StatusCode != http.StatusOK {
		t.Errorf("expected 200 with token, got %d", resp.StatusCode)
	}
}

func TestIntegration_FullPageLoadRefetches(t *testing.T) {
	if testing.Short() {
		t.Skip("skipping integration test in short mode")
	}
	srv := newTestServer(t, nil, nil)

	resp, err := http.Get(srv.URL + "/materials")
	if err != nil {
		t.Fatalf("GET /materials: %v", err)
	}
	_ = resp.Body.Close()

	// Another client writes straight to the backend.
	err = srv.repo.Insert(context.Background(), domain.Materials, repository.FromItem(domain.Materials, domain.Item{
		Name: "Panela", CurrentQuantity: 3, ReorderPoint: 1, Category: "Cozinha", Sector: "Cozinha",
	}))
	if err != nil {
		t.Fatalf("Insert: %v", err)
	}

	resp, err = http.Get(srv.URL + "/materials")
	if err != nil {
		t.Fatalf("GET /materials: %v", err)
	}
	t.Cleanup(func() { _ = resp.Body.Close() })
	body, _ := io.ReadAll(resp.Body)
	if resp.StatusCode != http.StatusOK {
		t.Fatalf("expected 200, got %d", resp.StatusCode)
	}
	if !strings.Contains(string(body), "Panela") {
		t.Errorf("page does not show the item written by another client:\n%s", body)
	}
}

func TestIntegration_FullPageLoadBackendDown(t *testing.T) {
	if testing.Short() {
		t.Skip("skipping integration test in short mode")
	}
	srv := newTestServer(t, nil, nil)
	srv.repo.failList.Store(true)

	resp, err := http.Get(srv.URL + "/materials")
	if err != nil {
		t.Fatalf("GET /materials: %v", err)
	}
	_ = resp.Body.Close()
	if resp.StatusCode != http.StatusBadGateway {
		t.Errorf("expected 502, got %d", resp.StatusCode)
	}
}

func TestIntegration_AdjustSucceedsWhenRefetchFails(t *testing.T) {
	if testing.Short() {
		t.Skip("skipping integration test in short mode")
	}
	srv := newTestServer(t, nil, nil)
	item := srv.seed(t, domain.Beverages, domain.Item{Name: "Água", CurrentQuantity: 10, ReorderPoint: 2, Category: "Águas"})
	srv.repo.failList.Store(true)

	resp, body := srv.postForm(t, "/beverages/"+item.ID+"/adjust", url.Values{"delta": {"5"}, "direction": {"add"}})
	if resp.StatusCode != http.StatusOK {
		t.Fatalf("expected 200 once the write landed, got %d: %s", resp.StatusCode, body)
	}
	if body != "" {
		t.Errorf("expected the panel to close, got %q", body)
	}
	if hxTrigger := resp.Header.Get("HX-Trigger"); !strings.Contains(hxTrigger, "new value 15") {
		t.Errorf("unexpected HX-Trigger %q", hxTrigger)
	}

	// The rows reload reports the backend without replacing the rows.
	resp, _ = srv.do(t, http.MethodGet, "/beverages", "", nil)
	if resp.StatusCode != http.StatusBadGateway {
		t.Errorf("rows reload: expected 502, got %d", resp.StatusCode)
	}
	if got := resp.Header.Get("HX-Reswap"); got != "none" {
		t.Errorf("rows reload: expected HX-Reswap none, got %q", got)
	}

	srv.repo.failList.Store(false)
	got, err := srv.svc.Get(context.Background(), domain.Beverages, item.ID)
	if err != nil {
		t.Fatalf("Get: %v", err)
	}
	if got.CurrentQuantity != 15 {
		t.Errorf("expected quantity 15 applied once, got %d", got.CurrentQuantity)
	}
}

func TestIntegration_AdjustHugeDelta(t *testing.T) {
	if testing.Short() {
		t.Skip("skipping integration test in short mode")
	}
	srv := newTestServer(t, nil, nil)
	item := srv.seed(t, domain.Materials, domain.Item{Name: "Copo", CurrentQuantity: 1, Category: "Louça"})

	resp, body := srv.postForm(t, "/materials/"+item.ID+"/adjust", url.Values{"delta": {"9223372036854775807"}, "direction": {"add"}})
	if resp.StatusCode != http.StatusUnprocessableEntity {
		t.Fatalf("expected 422, got %d: %s", resp.StatusCode, body)
	}
	got, _ := srv.svc.Get(context.Background(), domain.Materials, item.ID)
	if got.CurrentQuantity != 1 {
		t.Errorf("expected quantity unchanged at 1, got %d", got.CurrentQuantity)
	}
}
