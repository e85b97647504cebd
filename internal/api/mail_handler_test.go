package api

import (
	"bytes"
	"context"
	"encoding/json"
	"errors"
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/chengzhnag/taskboard/internal/service"
)

// fakeMailService is a function-field fake for the service.MailService
// interface.
type fakeMailService struct {
	sendFn func(ctx context.Context, to, subject, text, html string) (string, error)
}

func (f *fakeMailService) Send(
	ctx context.Context,
	to, subject, text, html string,
) (string, error) {
	return f.sendFn(ctx, to, subject, text, html)
}

func TestSendMail(t *testing.T) {
	t.Parallel()
	svc := &fakeMailService{
		sendFn: func(ctx context.Context, to, subject, text, html string) (string, error) {
			return "msg_123", nil
		},
	}
	handler := NewMailHandler(svc, testLogger())

	body := `{"to":"user@example.com","subject":"Hello","text":"Hi there"}`
	req := httptest.NewRequest(http.MethodPost, "/send-mail", bytes.NewBufferString(body))
	rec := httptest.NewRecorder()
	handler.SendMail(rec, req)

	require.Equal(t, http.StatusOK, rec.Code)

	var resp struct {
		Success bool `json:"success"`
		Result  struct {
			ID string `json:"id"`
		} `json:"result"`
	}
	require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &resp))
	assert.True(t, resp.Success)
	assert.Equal(t, "msg_123", resp.Result.ID)
}

func TestSendMailValidation(t *testing.T) {
	t.Parallel()
	svc := &fakeMailService{
		sendFn: func(ctx context.Context, to, subject, text, html string) (string, error) {
			t.Fatal("send should not be reached for invalid input")
			return "", nil
		},
	}
	handler := NewMailHandler(svc, testLogger())

	tests := []struct {
		name string
		body string
	}{
		{"missing recipient", `{"subject":"Hello","text":"Hi"}`},
		{"invalid email", `{"to":"not-an-email","subject":"Hello","text":"Hi"}`},
		{"missing subject", `{"to":"user@example.com","text":"Hi"}`},
	}

	for _, tc := range tests {
		tc := tc
		t.Run(tc.name, func(t *testing.T) {
			t.Parallel()
			req := httptest.NewRequest(http.MethodPost, "/send-mail", bytes.NewBufferString(tc.body))
			rec := httptest.NewRecorder()
			handler.SendMail(rec, req)

			assert.Equal(t, http.StatusBadRequest, rec.Code)
		})
	}
}

func TestSendMailProviderFailure(t *testing.T) {
	t.Parallel()
	svc := &fakeMailService{
		sendFn: func(ctx context.Context, to, subject, text, html string) (string, error) {
			return "", errors.New("provider rejected api_key=re_secret123")
		},
	}
	handler := NewMailHandler(svc, testLogger())

	body := `{"to":"user@example.com","subject":"Hello","text":"Hi"}`
	req := httptest.NewRequest(http.MethodPost, "/send-mail", bytes.NewBufferString(body))
	rec := httptest.NewRecorder()
	handler.SendMail(rec, req)

	require.Equal(t, http.StatusInternalServerError, rec.Code)
	// Provider details never reach the client.
	assert.NotContains(t, rec.Body.String(), "re_secret123")
	assert.Contains(t, rec.Body.String(), "Failed to send mail")
}

func TestSendMailMissingBody(t *testing.T) {
	t.Parallel()
	svc := &fakeMailService{
		sendFn: func(ctx context.Context, to, subject, text, html string) (string, error) {
			return "", service.ErrMissingBody
		},
	}
	handler := NewMailHandler(svc, testLogger())

	body := `{"to":"user@example.com","subject":"Hello"}`
	req := httptest.NewRequest(http.MethodPost, "/send-mail", bytes.NewBufferString(body))
	rec := httptest.NewRecorder()
	handler.SendMail(rec, req)

	assert.Equal(t, http.StatusBadRequest, rec.Code)
}
