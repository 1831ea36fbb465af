package testutil

import (
	"bytes"
	"encoding/json"
	"net/http/httptest"
	"testing"

	"github.com/gofiber/fiber/v2"
	"github.com/stretchr/testify/require"
)

// AsUser puts tn's user into the request the way the session middleware does.
func AsUser(tn *Tenant, role string) fiber.Handler {
	return func(c *fiber.Ctx) error {
		c.Locals("user", map[string]interface{}{
			"user_id":  tn.User.UserID.String(),
			"fullname": tn.User.Fullname,
			"email":    tn.User.Email,
			"org_id":   tn.Org.OrgID.String(),
			"role":     role,
		})
		return c.Next()
	}
}

// Do sends a JSON request through app and decodes the JSON reply.
func Do(t *testing.T, app *fiber.App, method, path, body string) (int, map[string]interface{}) {
	t.Helper()
	req := httptest.NewRequest(method, path, bytes.NewBufferString(body))
	req.Header.Set("Content-Type", "application/json")
	resp, err := app.Test(req, -1)
	require.NoError(t, err)
	defer resp.Body.Close()
	var out map[string]interface{}
	_ = json.NewDecoder(resp.Body).Decode(&out)
	return resp.StatusCode, out
}

// Data returns the "data" object of a success reply.
func Data(body map[string]interface{}) map[string]interface{} {
	m, _ := body["data"].(map[string]interface{})
	return m
}

// ErrorCode returns error.code of an error reply.
func ErrorCode(body map[string]interface{}) string {
	e, _ := body["error"].(map[string]interface{})
	s, _ := e["code"].(string)
	return s
}
