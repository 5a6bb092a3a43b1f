package lookup

import (
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/gofiber/fiber/v2"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	tracenoop "go.opentelemetry.io/otel/trace/noop"
	"go.uber.org/zap"

	"civicpost/internal/models"
)

func newTestApp(source Source) *fiber.App {
	ctrl := NewController(source, zap.NewNop(), tracenoop.NewTracerProvider().Tracer("test"))
	app := fiber.New()
	app.Get("/representatives", ctrl.ByZip)
	return app
}

func TestByZipPassesThrough(t *testing.T) {
	upstream := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		assert.Equal(t, "62704", r.URL.Query().Get("zip"))
		json.NewEncoder(w).Encode(OfficialSet{
			Representative: models.Recipient{Name: "Jane Smith", Chamber: models.ChamberHouse},
			Senators: []models.Recipient{
				{Name: "Sam Senate", Chamber: models.ChamberSenate},
				{Name: "Sue Senate", Chamber: models.ChamberSenate},
			},
		})
	}))
	defer upstream.Close()

	app := newTestApp(NewClient(upstream.URL, ""))

	req := httptest.NewRequest(http.MethodGet, "/representatives?zip=62704", nil)
	resp, err := app.Test(req, -1)
	require.NoError(t, err)
	defer resp.Body.Close()

	assert.Equal(t, http.StatusOK, resp.StatusCode)

	var set OfficialSet
	require.NoError(t, json.NewDecoder(resp.Body).Decode(&set))
	assert.Equal(t, "Jane Smith", set.Representative.Name)
	assert.Len(t, set.Senators, 2)
}

func TestByZipRejectsMalformedZip(t *testing.T) {
	app := newTestApp(NewClient("http://unused", ""))

	for _, zip := range []string{"", "1234", "123456", "abcde"} {
		req := httptest.NewRequest(http.MethodGet, "/representatives?zip="+zip, nil)
		resp, err := app.Test(req, -1)
		require.NoError(t, err)
		resp.Body.Close()
		assert.Equal(t, http.StatusBadRequest, resp.StatusCode, "zip %q", zip)
	}
}

func TestByZipUpstreamError(t *testing.T) {
	upstream := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusInternalServerError)
	}))
	defer upstream.Close()

	app := newTestApp(NewClient(upstream.URL, ""))

	req := httptest.NewRequest(http.MethodGet, "/representatives?zip=62704", nil)
	resp, err := app.Test(req, -1)
	require.NoError(t, err)
	resp.Body.Close()

	assert.Equal(t, http.StatusBadGateway, resp.StatusCode)
}
