package transport

import (
	"bytes"
	"encoding/json"
	"io"
	"net/http"
	"testing"

	"github.com/stretchr/testify/require"
)

// do sends a request through the shop's cookie-keeping client. Redirects are
// not followed.
func (s *testShop) do(t *testing.T, method, path string, body interface{}) *http.Response {
	t.Helper()

	var reader io.Reader
	if body != nil {
		payload, err := json.Marshal(body)
		require.NoError(t, err)
		reader = bytes.NewReader(payload)
	}

	req, err := http.NewRequest(method, s.server.URL+path, reader)
	require.NoError(t, err)
	if body != nil {
		req.Header.Set("Content-Type", "application/json")
	}

	resp, err := s.client.Do(req)
	require.NoError(t, err)
	t.Cleanup(func() { resp.Body.Close() })
	return resp
}

// decode reads a JSON response body into a generic map
func decode(t *testing.T, resp *http.Response) map[string]interface{} {
	t.Helper()
	var out map[string]interface{}
	require.NoError(t, json.NewDecoder(resp.Body).Decode(&out))
	return out
}

// validationFields extracts field names from a 400 envelope
func validationFields(t *testing.T, resp *http.Response) []string {
	t.Helper()
	var envelope struct {
		Error struct {
			Details struct {
				ValidationErrors []struct {
					Field string `json:"field"`
				} `json:"validation_errors"`
			} `json:"details"`
		} `json:"error"`
	}
	require.NoError(t, json.NewDecoder(resp.Body).Decode(&envelope))

	fields := []string{}
	for _, f := range envelope.Error.Details.ValidationErrors {
		fields = append(fields, f.Field)
	}
	return fields
}

func (s *testShop) loginStaff(t *testing.T) {
	t.Helper()
	resp := s.do(t, http.MethodPost, "/staff/login/", map[string]string{
		"email":    testStaffEmail,
		"password": testStaffPassword,
	})
	require.Equal(t, http.StatusOK, resp.StatusCode)
}

func validShipping() map[string]interface{} {
	return map[string]interface{}{
		"customer_name": "Ada Lovelace",
		"email":         "ada@example.com",
		"phone":         "555-0100",
		"address":       "12 Analytical Way",
		"city":          "London",
		"state":         "Greater London",
		"postal_code":   "N1 9GU",
	}
}
