package email

import (
	"strings"
	"testing"
	"time"

	"github.com/google/uuid"

	"github.com/Novice130/At-tayyibun/internal/models"
)

func TestRequestReceivedTemplate(t *testing.T) {
	tmpl := NewTemplates("At-Tayyibun", "https://app.example.com/", 24*time.Hour)

	subject, htmlBody, textBody := tmpl.RequestReceived("Rahim")

	if !strings.Contains(subject, "At-Tayyibun") {
		t.Errorf("subject missing site title: %q", subject)
	}
	for _, body := range []string{htmlBody, textBody} {
		if !strings.Contains(body, "Rahim") {
			t.Error("body missing requester name")
		}
		if !strings.Contains(body, "https://app.example.com/requests") {
			t.Error("body missing dashboard link")
		}
	}
}

func TestRequestApprovedTemplate(t *testing.T) {
	tmpl := NewTemplates("At-Tayyibun", "https://app.example.com", 24*time.Hour)

	tokens := []*models.ShareToken{
		{Token: "tok-photo", RequestID: uuid.New(), Kind: models.ShareKindPhoto, ExpiresAt: time.Now().Add(24 * time.Hour)},
		{Token: "tok-phone", RequestID: uuid.New(), Kind: models.ShareKindPhone, ExpiresAt: time.Now().Add(24 * time.Hour)},
	}

	subject, htmlBody, textBody := tmpl.RequestApproved("Aisha", tokens)

	if !strings.Contains(subject, "approved") {
		t.Errorf("unexpected subject: %q", subject)
	}
	for _, body := range []string{htmlBody, textBody} {
		if !strings.Contains(body, "Aisha") {
			t.Error("body missing target name")
		}
		if !strings.Contains(body, "https://app.example.com/api/requests/shared/tok-photo") {
			t.Error("body missing photo redemption link")
		}
		if !strings.Contains(body, "https://app.example.com/api/requests/shared/tok-phone") {
			t.Error("body missing phone redemption link")
		}
	}

	// The email must carry redemption links, never the disclosed data.
	if strings.Contains(htmlBody, "@") && strings.Contains(htmlBody, "mailto") {
		t.Error("approval email must not embed contact details")
	}
}

func TestTemplatesEscapeNames(t *testing.T) {
	tmpl := NewTemplates("At-Tayyibun", "https://app.example.com", 24*time.Hour)
	hostile := `<script>alert("x")</script>`

	_, htmlBody, _ := tmpl.RequestReceived(hostile)
	if strings.Contains(htmlBody, "<script>") {
		t.Error("requester name not escaped in received mail")
	}
	if !strings.Contains(htmlBody, "&lt;script&gt;") {
		t.Error("escaped requester name missing from received mail")
	}

	tokens := []*models.ShareToken{{Token: "tok", Kind: models.ShareKindPhone}}
	_, htmlBody, _ = tmpl.RequestApproved(hostile, tokens)
	if strings.Contains(htmlBody, "<script>") {
		t.Error("target name not escaped in approval mail")
	}
}

func TestRequestApprovedExpiryWording(t *testing.T) {
	tokens := []*models.ShareToken{{Token: "tok", Kind: models.ShareKindPhone}}

	cases := []struct {
		ttl  time.Duration
		want string
	}{
		{24 * time.Hour, "expires after 24 hours"},
		{time.Hour, "expires after 1 hour"},
		{48 * time.Hour, "expires after 2 days"},
		{30 * time.Minute, "expires after 30 minutes"},
		{0, "expires after 24 hours"},
	}
	for _, tc := range cases {
		tmpl := NewTemplates("At-Tayyibun", "https://app.example.com", tc.ttl)
		_, htmlBody, textBody := tmpl.RequestApproved("Aisha", tokens)
		for _, body := range []string{htmlBody, textBody} {
			if !strings.Contains(body, tc.want) {
				t.Errorf("ttl %v: body missing %q", tc.ttl, tc.want)
			}
		}
	}
}

func TestRequestDeniedTemplate(t *testing.T) {
	tmpl := NewTemplates("At-Tayyibun", "https://app.example.com", 24*time.Hour)

	_, htmlBody, textBody := tmpl.RequestDenied()

	// Denial mail stays neutral: no names, no reasons.
	for _, body := range []string{htmlBody, textBody} {
		if !strings.Contains(body, "not approved") {
			t.Error("body missing outcome")
		}
	}
}

func TestShareKindLabel(t *testing.T) {
	if shareKindLabel(models.ShareKindPhoto) != "Photo" {
		t.Error("photo label")
	}
	if shareKindLabel(models.ShareKindPhone) != "Phone number" {
		t.Error("phone label")
	}
	if shareKindLabel("mystery") != "mystery" {
		t.Error("unknown kinds pass through")
	}
}
