package restdefinition

import (
	"bytes"
	"context"
	"net/http"
	"net/http/httptest"
	"os"
	"path/filepath"
	"testing"

	"github.com/go-logr/logr"
	"github.com/krateoplatformops/provider-runtime/pkg/logging"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"gopkg.in/alecthomas/kingpin.v2"

	"github.com/krateoplatformops/oascontracts/internal/controllers/command"
	"github.com/krateoplatformops/oascontracts/internal/tools/contracts"
	"github.com/krateoplatformops/oascontracts/internal/tools/mockserver"
	"github.com/krateoplatformops/oascontracts/internal/tools/oas2datatype"
)

const library = `
openapi: 3.0.3
info:
  title: Library
  version: "1"
paths:
  /books/{isbn}:
    get:
      operationId: getBook
      parameters:
        - name: isbn
          in: path
          required: true
          schema:
            type: string
            minLength: 10
            maxLength: 13
      responses:
        "200":
          description: ok
          content:
            application/json:
              schema:
                $ref: "#/components/schemas/Book"
        "404":
          description: missing
    delete:
      operationId: deleteBook
      parameters:
        - name: isbn
          in: path
          required: true
          schema:
            type: string
      responses:
        "204":
          description: gone
components:
  schemas:
    Book:
      type: object
      required: [isbn, title]
      properties:
        isbn:
          type: string
        title:
          type: string
        year:
          type: integer
          minimum: 1450
`

func discard() logging.Logger {
	return logging.NewLogrLogger(logr.Discard())
}

func writeDoc(t *testing.T) string {
	t.Helper()
	path := filepath.Join(t.TempDir(), "openapi.yaml")
	require.NoError(t, os.WriteFile(path, []byte(library), 0o600))
	return path
}

func runCommand(ctx context.Context, args ...string) (string, error) {
	var out bytes.Buffer
	o := &command.Options{
		Out:        &out,
		Logger:     discard(),
		Conversion: oas2datatype.DefaultConfig(),
	}
	app := kingpin.New("test", "")
	Setup(ctx, app, o)
	_, err := app.Parse(args)
	return out.String(), err
}

func TestContractsCommand(t *testing.T) {
	path := writeDoc(t)

	t.Run("all methods", func(t *testing.T) {
		out, err := runCommand(context.Background(), "contracts", path)
		require.NoError(t, err)
		assert.Contains(t, out, "contracts:")
		assert.Contains(t, out, "name: GetBook200")
		assert.Contains(t, out, "name: GetBook404")
		assert.Contains(t, out, "name: DeleteBook204")
	})

	t.Run("selected methods", func(t *testing.T) {
		out, err := runCommand(context.Background(), "contracts", path, "-m", "delete")
		require.NoError(t, err)
		assert.Contains(t, out, "name: DeleteBook204")
		assert.NotContains(t, out, "GetBook")
	})

	t.Run("unused method", func(t *testing.T) {
		_, err := runCommand(context.Background(), "contracts", path, "-m", "patch")
		require.Error(t, err)
		assert.Contains(t, err.Error(), "method 'PATCH' is not used by any operation")
	})
}

func TestVerifyCommand(t *testing.T) {
	path := writeDoc(t)
	doc, err := oas2datatype.Parse([]byte(library))
	require.NoError(t, err)
	set, err := contracts.Build(doc, nil)
	require.NoError(t, err)
	mock, err := mockserver.New(set, discard())
	require.NoError(t, err)
	srv := httptest.NewServer(mock)
	defer srv.Close()

	t.Run("every contract against the mock server", func(t *testing.T) {
		out, err := runCommand(context.Background(), "verify", path, "--base-url", srv.URL, "--status-header", mockserver.StatusHeader)
		require.NoError(t, err, out)
		assert.Contains(t, out, "PASS GET /books/{isbn} 200 GetBook200")
		assert.Contains(t, out, "PASS GET /books/{isbn} 404 GetBook404")
		assert.Contains(t, out, "PASS DELETE /books/{isbn} 204 DeleteBook204")
		assert.Contains(t, out, "3 passed, 0 failed")
	})

	t.Run("a service breaking its contract", func(t *testing.T) {
		broken := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			w.Header().Set("Content-Type", "application/json")
			_, _ = w.Write([]byte(`{"isbn": "123", "year": 1200}`))
		}))
		defer broken.Close()

		out, err := runCommand(context.Background(), "verify", path, "--base-url", broken.URL, "-m", "GET")
		require.Error(t, err)
		assert.Equal(t, "1 of 1 checks failed", err.Error())
		assert.Contains(t, out, "FAIL GET /books/{isbn} 200 GetBook200")
		assert.Contains(t, out, "  - body.title: is required")
		assert.Contains(t, out, "  - body.year: value 1200 is outside of range [1450, +inf]")
	})

	t.Run("base url is required", func(t *testing.T) {
		_, err := runCommand(context.Background(), "verify", path)
		require.Error(t, err)
	})
}

func TestMockCommand(t *testing.T) {
	ctx, cancel := context.WithCancel(context.Background())
	cancel()

	_, err := runCommand(ctx, "mock", writeDoc(t), "--listen", "127.0.0.1:0")
	assert.NoError(t, err)
}
