package shared

import (
	"bytes"
	"errors"
	"io"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestDecodeJSON(t *testing.T) {
	tests := []struct {
		name        string
		requestBody string
		wantErr     bool
		errContains string
	}{
		{
			name:        "valid json",
			requestBody: `{"name": "test", "age": 30}`,
		},
		{
			name:        "invalid json",
			requestBody: `{"name": "test", "age": 30,}`,
			wantErr:     true,
			errContains: "invalid character",
		},
		{
			name:        "empty body",
			requestBody: "",
			wantErr:     true,
			errContains: "EOF",
		},
	}

	for _, tc := range tests {
		t.Run(tc.name, func(t *testing.T) {
			req := httptest.NewRequest(http.MethodPost, "/test", bytes.NewBufferString(tc.requestBody))
			var target struct {
				Name string `json:"name"`
				Age  int    `json:"age"`
			}

			err := DecodeJSON(req, &target)
			if tc.wantErr {
				require.Error(t, err)
				assert.Contains(t, err.Error(), tc.errContains)
				return
			}
			require.NoError(t, err)
			assert.Equal(t, "test", target.Name)
		})
	}
}

type errorReader struct{}

func (errorReader) Read([]byte) (int, error) {
	return 0, io.ErrUnexpectedEOF
}

func TestDecodeJSONWithReadError(t *testing.T) {
	req := httptest.NewRequest(http.MethodPost, "/test", errorReader{})
	var target struct{}
	err := DecodeJSON(req, &target)
	assert.ErrorIs(t, err, io.ErrUnexpectedEOF)
}

func TestDecodeJSONBodyTooLarge(t *testing.T) {
	rr := httptest.NewRecorder()
	req := httptest.NewRequest(http.MethodPost, "/test",
		strings.NewReader(`{"image_base64":"`+strings.Repeat("A", 64)+`"}`))
	req.Body = http.MaxBytesReader(rr, req.Body, 16)

	var target map[string]string
	err := DecodeJSON(req, &target)
	assert.ErrorIs(t, err, ErrBodyTooLarge)
}

type selfValidating struct {
	Name string
}

func (v *selfValidating) Validate() error {
	if v.Name == "invalid" {
		return errors.New("bad name")
	}
	return nil
}

type taggedRequest struct {
	Type    string   `validate:"required,oneof=imaginative realistic"`
	TaskIDs []string `validate:"max=2"`
}

func TestValidateRequest(t *testing.T) {
	tests := []struct {
		name    string
		req     interface{}
		wantErr bool
	}{
		{"self validating ok", &selfValidating{Name: "ok"}, false},
		{"self validating error", &selfValidating{Name: "invalid"}, true},
		{"tags ok", &taggedRequest{Type: "realistic"}, false},
		{"tags missing", &taggedRequest{}, true},
		{"tags oneof", &taggedRequest{Type: "cartoon"}, true},
	}

	for _, tc := range tests {
		t.Run(tc.name, func(t *testing.T) {
			err := ValidateRequest(tc.req)
			if tc.wantErr {
				assert.Error(t, err)
			} else {
				assert.NoError(t, err)
			}
		})
	}
}

func TestValidationMessage(t *testing.T) {
	assert.Equal(t, "Invalid type: required field",
		ValidationMessage(ValidateRequest(&taggedRequest{})))
	assert.Equal(t, "Invalid type: must be one of [imaginative realistic]",
		ValidationMessage(ValidateRequest(&taggedRequest{Type: "cartoon"})))
	assert.Equal(t, "Invalid taskids: too long",
		ValidationMessage(ValidateRequest(&taggedRequest{Type: "realistic", TaskIDs: []string{"a", "b", "c"}})))
	assert.Equal(t, "Validation error", ValidationMessage(errors.New("other")))
}
