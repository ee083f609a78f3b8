package handlers

import (
	"bytes"
	"mime/multipart"
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/pocketbase/pocketbase"
	"github.com/pocketbase/pocketbase/core"
)

// newTestRequestEvent creates a RequestEvent suitable for handler tests.
func newTestRequestEvent(app *pocketbase.PocketBase, req *http.Request, rec *httptest.ResponseRecorder) *core.RequestEvent {
	e := &core.RequestEvent{}
	e.App = app
	e.Request = req
	e.Response = rec
	return e
}

// newMultipartRequest builds a multipart POST with the given form fields
// and one uploaded file per entry in files (field name -> filename -> body).
func newMultipartRequest(t *testing.T, url string, fields map[string]string, files map[string]map[string]string) *http.Request {
	t.Helper()

	var buf bytes.Buffer
	w := multipart.NewWriter(&buf)
	for k, v := range fields {
		if err := w.WriteField(k, v); err != nil {
			t.Fatalf("write field %s: %v", k, err)
		}
	}
	for field, entries := range files {
		for filename, body := range entries {
			fw, err := w.CreateFormFile(field, filename)
			if err != nil {
				t.Fatalf("create form file %s: %v", filename, err)
			}
			if _, err := fw.Write([]byte(body)); err != nil {
				t.Fatalf("write form file %s: %v", filename, err)
			}
		}
	}
	if err := w.Close(); err != nil {
		t.Fatalf("close multipart writer: %v", err)
	}

	req := httptest.NewRequest(http.MethodPost, url, &buf)
	req.Header.Set("Content-Type", w.FormDataContentType())
	return req
}
