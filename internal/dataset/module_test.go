package dataset

import (
	"context"
	"fmt"
	"net/http"
	"net/http/httptest"
	"os"
	"path/filepath"
	"testing"
	"time"

	"github.com/Ansh30a/BioInformatics/internal/pkg/pkgrouter"
	"github.com/Ansh30a/BioInformatics/internal/pkg/pkgroutine"
	"github.com/Ansh30a/BioInformatics/internal/pkg/pkguid"
)

type mapConfig map[string]any

func (m mapConfig) GetInt(key string) int64 {
	v, _ := m[key].(int64)
	return v
}

func (m mapConfig) GetBool(key string) bool {
	v, _ := m[key].(bool)
	return v
}

func (m mapConfig) GetFloat(key string) float64 {
	v, _ := m[key].(float64)
	return v
}

func (m mapConfig) GetString(key string) string {
	v, ok := m[key]
	if !ok {
		return ""
	}
	return fmt.Sprint(v)
}

func (m mapConfig) GetBinary(string) []byte         { return nil }
func (m mapConfig) GetArray(string) []string        { return nil }
func (m mapConfig) GetMap(string) map[string]string { return nil }
func (m mapConfig) Close() error                    { return nil }

func (m mapConfig) GetDuration(key string) time.Duration {
	v, _ := m[key].(time.Duration)
	return v
}

func TestNewWiresRoutesAndCloses(t *testing.T) {
	dir := t.TempDir()

	for _, driver := range []string{"memory", "sqlite"} {
		t.Run(driver, func(t *testing.T) {
			router := pkgrouter.NewRouter(pkguid.NewUUID())
			closer, err := New(Dependency{
				Config: mapConfig{
					"dataset.storage.dir": filepath.Join(dir, driver, "uploads"),
					"database.driver":     driver,
					"database.dsn":        filepath.Join(dir, driver+".db"),
					"event.workers":       int64(1),
				},
				Goroutine: pkgroutine.NewManager(1),
				Router:    router,
				Context:   context.Background(),
			})
			if err != nil {
				t.Fatalf("New: %v", err)
			}

			rec := httptest.NewRecorder()
			router.ServeHTTP(rec, httptest.NewRequest(http.MethodGet, "/datasets/missing", nil))
			if rec.Code != http.StatusNotFound {
				t.Fatalf("expected 404 from the dataset route, got %d", rec.Code)
			}

			if err := closer(context.Background()); err != nil {
				t.Fatalf("closer: %v", err)
			}
		})
	}
}

func TestNewRejectsUnknownDriver(t *testing.T) {
	_, err := New(Dependency{
		Config: mapConfig{
			"dataset.storage.dir": t.TempDir(),
			"database.driver":     "oracle",
		},
		Goroutine: pkgroutine.NewManager(1),
		Router:    pkgrouter.NewRouter(pkguid.NewUUID()),
		Context:   context.Background(),
	})
	if err == nil {
		t.Fatalf("expected error for unsupported driver")
	}
}

func TestNewFailsBeforeOpeningStore(t *testing.T) {
	dir := t.TempDir()
	storageDir := filepath.Join(dir, "uploads")
	dsn := filepath.Join(dir, "biodata.db")

	_, err := New(Dependency{
		Config: mapConfig{
			"dataset.storage.dir": storageDir,
			"database.driver":     "sqlite",
			"database.dsn":        dsn,
			"snowflake.node":      int64(5000),
		},
		Goroutine: pkgroutine.NewManager(1),
		Router:    pkgrouter.NewRouter(pkguid.NewUUID()),
		Context:   context.Background(),
	})
	if err == nil {
		t.Fatalf("expected error for out-of-range snowflake node")
	}

	if _, statErr := os.Stat(dsn); !os.IsNotExist(statErr) {
		t.Fatalf("database file should not exist, stat err: %v", statErr)
	}
	if _, statErr := os.Stat(storageDir); !os.IsNotExist(statErr) {
		t.Fatalf("storage dir should not exist, stat err: %v", statErr)
	}
}
