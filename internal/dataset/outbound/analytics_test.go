package outbound

import (
	"context"
	"encoding/json"
	"errors"
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	"github.com/Ansh30a/BioInformatics/internal/dataset/entity"
)

func TestAnalyticsClientSuccess(t *testing.T) {
	var gotPath string
	var gotBody map[string]any
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		gotPath = r.URL.Path
		if err := json.NewDecoder(r.Body).Decode(&gotBody); err != nil {
			t.Errorf("decode request: %v", err)
		}
		_, _ = w.Write([]byte(`{"success":true,"data":{"method":"pearson","matrix":[[1]]}}`))
	}))
	defer srv.Close()

	c := NewAnalyticsClient(srv.URL+"/", time.Second)
	data, err := c.Analyze(context.Background(), entity.AnalysisCorrelation, map[string]any{
		"fileContent": "a,b\n1,2\n",
		"fileName":    "x.csv",
		"method":      "pearson",
	})
	if err != nil {
		t.Fatalf("analyze: %v", err)
	}

	if gotPath != "/api/correlation" {
		t.Fatalf("unexpected path %q", gotPath)
	}
	if gotBody["method"] != "pearson" || gotBody["fileName"] != "x.csv" {
		t.Fatalf("unexpected body %v", gotBody)
	}
	if string(data) != `{"method":"pearson","matrix":[[1]]}` {
		t.Fatalf("unexpected data %s", data)
	}
}

func TestAnalyticsClientPaths(t *testing.T) {
	want := map[entity.AnalysisKind]string{
		entity.AnalysisBasicStats:             "/api/stats",
		entity.AnalysisDifferentialExpression: "/api/differential",
		entity.AnalysisClustering:             "/api/clustering",
	}

	for kind, path := range want {
		var got string
		srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			got = r.URL.Path
			_, _ = w.Write([]byte(`{"success":true,"data":{}}`))
		}))

		_, err := NewAnalyticsClient(srv.URL, time.Second).Analyze(context.Background(), kind, map[string]any{})
		srv.Close()
		if err != nil {
			t.Fatalf("%s: %v", kind, err)
		}
		if got != path {
			t.Fatalf("%s: expected %s, got %s", kind, path, got)
		}
	}
}

func TestAnalyticsClientServiceFailure(t *testing.T) {
	tests := []struct {
		name   string
		status int
		body   string
		want   string
	}{
		{name: "unsuccessful envelope", status: http.StatusOK, body: `{"success":false,"message":"Need at least 2 numeric columns"}`, want: "Need at least 2 numeric columns"},
		{name: "error status", status: http.StatusBadRequest, body: `{"success":false,"message":"condition column missing"}`, want: "condition column missing"},
		{name: "non json error", status: http.StatusBadGateway, body: `<html>bad gateway</html>`, want: "Python service error"},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
				w.WriteHeader(tt.status)
				_, _ = w.Write([]byte(tt.body))
			}))
			defer srv.Close()

			_, err := NewAnalyticsClient(srv.URL, time.Second).Analyze(context.Background(), entity.AnalysisBasicStats, map[string]any{})

			var serr *ServiceError
			if !errors.As(err, &serr) {
				t.Fatalf("expected ServiceError, got %v", err)
			}
			if serr.Message != tt.want || serr.Status != tt.status {
				t.Fatalf("unexpected error %+v", serr)
			}
		})
	}
}

func TestAnalyticsClientUnknownKind(t *testing.T) {
	_, err := NewAnalyticsClient("http://127.0.0.1:1", time.Second).Analyze(context.Background(), "pca", nil)
	if err == nil {
		t.Fatalf("expected error for unknown kind")
	}
}
