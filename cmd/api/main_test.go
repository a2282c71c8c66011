package main

import (
	"net/http"
	"net/http/httptest"
	"os"
	"path/filepath"
	"testing"

	"github.com/gofiber/fiber/v2"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/jhoicas/pyme-stock-api/pkg/logger"
)

func TestMountDocs_SinArchivoNoMonta(t *testing.T) {
	app := fiber.New()
	mounted := mountDocs(app, filepath.Join(t.TempDir(), "swagger.json"), logger.Nop())
	assert.False(t, mounted)

	resp, err := app.Test(httptest.NewRequest(http.MethodGet, "/docs", nil))
	require.NoError(t, err)
	defer resp.Body.Close()
	assert.Equal(t, http.StatusNotFound, resp.StatusCode)
}

func TestMountDocs_ConArchivo(t *testing.T) {
	file := filepath.Join(t.TempDir(), "swagger.json")
	spec := `{"swagger":"2.0","info":{"title":"Pyme Stock API","version":"1.0"},"basePath":"/","paths":{}}`
	require.NoError(t, os.WriteFile(file, []byte(spec), 0o600))

	assert.True(t, mountDocs(fiber.New(), file, logger.Nop()))
}
