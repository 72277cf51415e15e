package email

import (
	"fmt"
	"html"
	"strings"
	"time"

	"github.com/Novice130/At-tayyibun/internal/models"
)

// Templates builds the notification email bodies. All bodies carry links and
// names only; disclosed contact details never travel by email.
type Templates struct {
	siteTitle string
	baseURL   string
	tokenTTL  time.Duration
}

// NewTemplates creates the template set. tokenTTL drives the expiry wording
// in approval mail; zero falls back to 24 hours.
func NewTemplates(siteTitle, baseURL string, tokenTTL time.Duration) *Templates {
	if tokenTTL <= 0 {
		tokenTTL = 24 * time.Hour
	}
	return &Templates{
		siteTitle: siteTitle,
		baseURL:   strings.TrimSuffix(baseURL, "/"),
		tokenTTL:  tokenTTL,
	}
}

// tokenLifetime renders the token TTL for humans.
func (t *Templates) tokenLifetime() string {
	if t.tokenTTL%(24*time.Hour) == 0 && t.tokenTTL > 24*time.Hour {
		return fmt.Sprintf("%d days", t.tokenTTL/(24*time.Hour))
	}
	if t.tokenTTL%time.Hour == 0 {
		hours := t.tokenTTL / time.Hour
		if hours == 1 {
			return "1 hour"
		}
		return fmt.Sprintf("%d hours", hours)
	}
	if t.tokenTTL%time.Minute == 0 {
		return fmt.Sprintf("%d minutes", t.tokenTTL/time.Minute)
	}
	return t.tokenTTL.String()
}

func shareKindLabel(kind string) string {
	switch kind {
	case models.ShareKindPhoto:
		return "Photo"
	case models.ShareKindPhone:
		return "Phone number"
	case models.ShareKindEmail:
		return "Email address"
	default:
		return kind
	}
}

// RequestReceived is sent to the target when someone requests their details.
func (t *Templates) RequestReceived(requesterFirstName string) (subject, htmlBody, textBody string) {
	subject = fmt.Sprintf("[%s] New information request", t.siteTitle)
	dashboardURL := t.baseURL + "/requests"

	htmlBody = fmt.Sprintf(`<html>
<body style="font-family: Arial, sans-serif; color: #333;">
	<h2>New information request</h2>
	<p>%s has asked to see some of your details on %s.</p>
	<p>Nothing is shared until you approve, and you choose exactly what to reveal.</p>
	<p><a href="%s" style="display: inline-block; padding: 10px 20px; background: #2c7a52; color: #fff; text-decoration: none; border-radius: 4px;">Review request</a></p>
	<p style="color: #888; font-size: 12px;">If you do nothing, the request expires automatically.</p>
</body>
</html>`, html.EscapeString(requesterFirstName), html.EscapeString(t.siteTitle), dashboardURL)

	textBody = fmt.Sprintf(`New information request

%s has asked to see some of your details on %s.

Nothing is shared until you approve, and you choose exactly what to reveal.

Review the request here: %s

If you do nothing, the request expires automatically.
`, requesterFirstName, t.siteTitle, dashboardURL)

	return subject, htmlBody, textBody
}

// RequestApproved is sent to the requester with one redemption link per
// granted item. Each link works exactly once.
func (t *Templates) RequestApproved(targetFirstName string, tokens []*models.ShareToken) (subject, htmlBody, textBody string) {
	subject = fmt.Sprintf("[%s] Your request was approved", t.siteTitle)

	var htmlLinks, textLinks strings.Builder
	for _, tok := range tokens {
		url := fmt.Sprintf("%s/api/requests/shared/%s", t.baseURL, tok.Token)
		label := shareKindLabel(tok.Kind)
		htmlLinks.WriteString(fmt.Sprintf(`	<li><a href="%s">%s</a></li>
`, url, label))
		textLinks.WriteString(fmt.Sprintf("  %s: %s\n", label, url))
	}

	lifetime := t.tokenLifetime()
	htmlBody = fmt.Sprintf(`<html>
<body style="font-family: Arial, sans-serif; color: #333;">
	<h2>Request approved</h2>
	<p>%s has approved your information request on %s.</p>
	<p>Use the links below to view what was shared. Each link works once and expires after %s:</p>
	<ul>
%s	</ul>
	<p style="color: #888; font-size: 12px;">Please treat shared details with respect.</p>
</body>
</html>`, html.EscapeString(targetFirstName), html.EscapeString(t.siteTitle), lifetime, htmlLinks.String())

	textBody = fmt.Sprintf(`Request approved

%s has approved your information request on %s.

Use the links below to view what was shared. Each link works once and expires after %s:

%s
Please treat shared details with respect.
`, targetFirstName, t.siteTitle, lifetime, textLinks.String())

	return subject, htmlBody, textBody
}

// RequestDenied is sent to the requester. Deliberately sparse.
func (t *Templates) RequestDenied() (subject, htmlBody, textBody string) {
	subject = fmt.Sprintf("[%s] Update on your request", t.siteTitle)
	browseURL := t.baseURL + "/browse"

	htmlBody = fmt.Sprintf(`<html>
<body style="font-family: Arial, sans-serif; color: #333;">
	<h2>Update on your request</h2>
	<p>Your recent information request on %s was not approved.</p>
	<p><a href="%s">Continue browsing</a></p>
</body>
</html>`, t.siteTitle, browseURL)

	textBody = fmt.Sprintf(`Update on your request

Your recent information request on %s was not approved.

Continue browsing: %s
`, t.siteTitle, browseURL)

	return subject, htmlBody, textBody
}
