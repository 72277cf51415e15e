package handlers

import (
	"io"
	"net/http"
	"testing"

	"github.com/gofiber/fiber/v3"

	"github.com/Novice130/At-tayyibun/internal/requests"
)

func workflowErrorResponse(t *testing.T, err error) (int, string) {
	t.Helper()

	app := fiber.New()
	app.Get("/boom", func(c fiber.Ctx) error {
		return mapWorkflowError(c, err)
	})

	req, _ := http.NewRequest("GET", "/boom", nil)
	resp, reqErr := app.Test(req)
	if reqErr != nil {
		t.Fatalf("request failed: %v", reqErr)
	}
	body, _ := io.ReadAll(resp.Body)
	return resp.StatusCode, string(body)
}

func TestRespondByNonTargetLooksLikeNotFound(t *testing.T) {
	notFoundStatus, notFoundBody := workflowErrorResponse(t, requests.ErrRequestNotFound)
	foreignStatus, foreignBody := workflowErrorResponse(t, requests.ErrNotRequestTarget)

	if notFoundStatus != fiber.StatusNotFound {
		t.Fatalf("unknown request status = %d, want 404", notFoundStatus)
	}

	// A non-target must not be able to tell that the request ID exists.
	if foreignStatus != notFoundStatus || foreignBody != notFoundBody {
		t.Errorf("foreign request response (%d %q) differs from unknown request (%d %q)",
			foreignStatus, foreignBody, notFoundStatus, notFoundBody)
	}
}

func TestMapWorkflowErrorStatuses(t *testing.T) {
	cases := []struct {
		err  error
		want int
	}{
		{requests.ErrTargetNotFound, fiber.StatusNotFound},
		{requests.ErrSelfRequest, fiber.StatusBadRequest},
		{requests.ErrEmptyGrant, fiber.StatusBadRequest},
		{requests.ErrActiveRequestExists, fiber.StatusConflict},
		{requests.ErrAlreadyProcessed, fiber.StatusConflict},
		{requests.ErrRequestExpired, fiber.StatusGone},
		{io.ErrUnexpectedEOF, fiber.StatusInternalServerError},
	}
	for _, tc := range cases {
		status, _ := workflowErrorResponse(t, tc.err)
		if status != tc.want {
			t.Errorf("%v: status = %d, want %d", tc.err, status, tc.want)
		}
	}
}
