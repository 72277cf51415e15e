package email

import (
	"context"
	"log"

	"github.com/Novice130/At-tayyibun/internal/models"
)

// Notifier sends workflow notification emails. It satisfies the notifier
// interface of the requests service.
type Notifier struct {
	service   *Service
	templates *Templates
}

// NewNotifier creates a notifier backed by the given SMTP service.
func NewNotifier(service *Service, templates *Templates) *Notifier {
	return &Notifier{service: service, templates: templates}
}

// NotifyRequestReceived tells the target someone wants their details.
func (n *Notifier) NotifyRequestReceived(ctx context.Context, target *models.User, requesterFirstName string) {
	if !n.service.IsEnabled() || target.Email == "" {
		return
	}
	subject, htmlBody, textBody := n.templates.RequestReceived(requesterFirstName)
	n.service.SendAsync([]string{target.Email}, subject, htmlBody, textBody)
}

// NotifyRequestApproved sends the requester one redemption link per token.
func (n *Notifier) NotifyRequestApproved(ctx context.Context, requester *models.User, targetFirstName string, tokens []*models.ShareToken) {
	if !n.service.IsEnabled() || requester.Email == "" {
		return
	}
	if len(tokens) == 0 {
		log.Printf("Approval for request with no tokens, skipping email to %s", requester.Email)
		return
	}
	subject, htmlBody, textBody := n.templates.RequestApproved(targetFirstName, tokens)
	n.service.SendAsync([]string{requester.Email}, subject, htmlBody, textBody)
}

// NotifyRequestDenied tells the requester the request was declined.
func (n *Notifier) NotifyRequestDenied(ctx context.Context, requester *models.User) {
	if !n.service.IsEnabled() || requester.Email == "" {
		return
	}
	subject, htmlBody, textBody := n.templates.RequestDenied()
	n.service.SendAsync([]string{requester.Email}, subject, htmlBody, textBody)
}
