package chi

import (
	"bytes"
	"context"
	"encoding/json"
	"mime/multipart"
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	chirouter "github.com/go-chi/chi/v5"
	"go.uber.org/zap"

	"github.com/pawdex/pawdex/internal/domain/geo"
	domrep "github.com/pawdex/pawdex/internal/domain/report"
	"github.com/pawdex/pawdex/internal/domain/search/query"
	healthuc "github.com/pawdex/pawdex/internal/usecase/health"
	reportuc "github.com/pawdex/pawdex/internal/usecase/report"
	searchuc "github.com/pawdex/pawdex/internal/usecase/search"
)

type mockReports struct {
	createFn func(ctx context.Context, in reportuc.CreateInput) (reportuc.CreateResult, error)
}

func (m *mockReports) Create(ctx context.Context, in reportuc.CreateInput) (reportuc.CreateResult, error) {
	return m.createFn(ctx, in)
}

type mockSearches struct {
	listFn    func(ctx context.Context, q query.Query) (searchuc.ListResult, error)
	reverseFn func(ctx context.Context, city string, image []byte) (searchuc.ReverseResult, error)
}

func (m *mockSearches) List(ctx context.Context, q query.Query) (searchuc.ListResult, error) {
	return m.listFn(ctx, q)
}

func (m *mockSearches) Reverse(ctx context.Context, city string, image []byte) (searchuc.ReverseResult, error) {
	return m.reverseFn(ctx, city, image)
}

type mockHealth struct {
	checkFn func(ctx context.Context) healthuc.Report
}

func (m *mockHealth) Check(ctx context.Context) healthuc.Report {
	return m.checkFn(ctx)
}

// newTestRouter builds a router around mocked services. Nil mocks become
// panicking stubs so a test touching an unexpected service fails loudly.
func newTestRouter(t *testing.T, reports *mockReports, searches *mockSearches, health *mockHealth) http.Handler {
	t.Helper()

	if reports == nil {
		reports = &mockReports{createFn: func(context.Context, reportuc.CreateInput) (reportuc.CreateResult, error) {
			panic("unexpected Create call")
		}}
	}
	if searches == nil {
		searches = &mockSearches{
			listFn: func(context.Context, query.Query) (searchuc.ListResult, error) {
				panic("unexpected List call")
			},
			reverseFn: func(context.Context, string, []byte) (searchuc.ReverseResult, error) {
				panic("unexpected Reverse call")
			},
		}
	}
	if health == nil {
		health = &mockHealth{checkFn: func(context.Context) healthuc.Report {
			return healthuc.Report{Status: healthuc.Healthy}
		}}
	}

	s := NewServer(reports, searches, health, zap.NewNop())
	r := chirouter.NewRouter()
	s.Routes(r)
	return r
}

// multipartBody builds a multipart form with the given fields plus an
// optional image file part.
func multipartBody(t *testing.T, fields map[string]string, image []byte) (*bytes.Buffer, string) {
	t.Helper()

	var buf bytes.Buffer
	w := multipart.NewWriter(&buf)
	for k, v := range fields {
		if err := w.WriteField(k, v); err != nil {
			t.Fatalf("write field %s: %v", k, err)
		}
	}
	if image != nil {
		fw, err := w.CreateFormFile("image", "photo.jpg")
		if err != nil {
			t.Fatalf("create form file: %v", err)
		}
		if _, err := fw.Write(image); err != nil {
			t.Fatalf("write image: %v", err)
		}
	}
	if err := w.Close(); err != nil {
		t.Fatalf("close multipart writer: %v", err)
	}
	return &buf, w.FormDataContentType()
}

func doRequest(t *testing.T, h http.Handler, method, target, contentType string, body *bytes.Buffer) *httptest.ResponseRecorder {
	t.Helper()

	var req *http.Request
	if body != nil {
		req = httptest.NewRequest(method, target, body)
	} else {
		req = httptest.NewRequest(method, target, nil)
	}
	if contentType != "" {
		req.Header.Set("Content-Type", contentType)
	}
	rec := httptest.NewRecorder()
	h.ServeHTTP(rec, req)
	return rec
}

func decodeBody(t *testing.T, rec *httptest.ResponseRecorder, v any) {
	t.Helper()
	if err := json.Unmarshal(rec.Body.Bytes(), v); err != nil {
		t.Fatalf("decode response %q: %v", rec.Body.String(), err)
	}
}

func validCreateFields() map[string]string {
	return map[string]string{
		"city":        "Riga",
		"description": "Small black cat with a white paw",
		"phone":       "+371 2345-6789",
		"type":        "LOST",
		"gpsLocation": `{"latitude":56.9496,"longitude":24.1052}`,
	}
}

func makeReport(t *testing.T, id string) domrep.Report {
	t.Helper()

	loc, err := geo.NewPoint(56.9496, 24.1052)
	if err != nil {
		t.Fatalf("new point: %v", err)
	}
	return domrep.Reconstruct(
		id, domrep.Lost, "Riga", "Small black cat with a white paw", "+37123456789",
		loc,
		domrep.Renditions{
			Thumbnail: id + "_thumb.jpg",
			Medium:    id + "_medium.jpg",
			Large:     id + "_large.jpg",
		},
		time.Date(2026, 3, 14, 12, 0, 0, 0, time.UTC),
	)
}
