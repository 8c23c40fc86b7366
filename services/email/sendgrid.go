package emailsvc

import (
	"fmt"
	"net/http"
	"net/mail"

	"github.com/pkg/errors"
	"github.com/sendgrid/rest"
	"github.com/sendgrid/sendgrid-go"
	sgmail "github.com/sendgrid/sendgrid-go/helpers/mail"

	"github.com/trezcool/roster/core"
)

const (
	sendgridHost     = "https://api.sendgrid.com"
	sendgridEndpoint = "/v3/mail/send"
)

// sendgridService delivers messages through the SendGrid v3 mail API.
type sendgridService struct {
	apiKey     string
	from       mail.Address
	subjPrefix string
	logger     core.Logger
	deliver    func(rest.Request) (*rest.Response, error)
}

var _ core.EmailService = (*sendgridService)(nil)

func NewSendgridService(conf *core.Config, logger core.Logger) core.EmailService {
	return &sendgridService{
		apiKey:     conf.SendgridApiKey,
		from:       fromAddress(conf),
		subjPrefix: "[" + conf.AppName + "] ",
		logger:     logger,
		deliver:    sendgrid.API,
	}
}

func (svc sendgridService) SendMessages(messages ...*core.EmailMessage) {
	for _, msg := range messages {
		go func(msg *core.EmailMessage) {
			if _, err := svc.sendMessage(msg); err != nil {
				svc.logger.Error(fmt.Sprintf("sending email %q: %v", msg.Subject, err), err)
			}
		}(msg)
	}
}

// sendMessage renders msg and posts it; sent is false when there was nothing to send.
func (svc sendgridService) sendMessage(msg *core.EmailMessage) (sent bool, err error) {
	if err = msg.Render(); err != nil {
		return false, errors.Wrap(err, "rendering email")
	}
	if !msg.HasRecipients() || !(msg.HasContent() || msg.HasAttachments()) {
		return false, nil
	}

	req := sendgrid.GetRequest(svc.apiKey, sendgridEndpoint, sendgridHost)
	req.Method = http.MethodPost
	req.Body = sgmail.GetRequestBody(svc.build(*msg))

	res, err := svc.deliver(req)
	if err != nil {
		return false, errors.Wrap(err, "calling sendgrid")
	}
	if res.StatusCode >= http.StatusBadRequest {
		return false, errors.Errorf("sendgrid answered %d: %s", res.StatusCode, res.Body)
	}
	return true, nil
}

// build maps msg onto a single-personalization v3 mail.
func (svc sendgridService) build(msg core.EmailMessage) *sgmail.SGMailV3 {
	p := sgmail.NewPersonalization()
	p.Subject = svc.subjPrefix + msg.Subject
	p.AddTos(sgAddresses(msg.To)...)
	if len(msg.Cc) > 0 {
		p.AddCCs(sgAddresses(msg.Cc)...)
	}
	if len(msg.Bcc) > 0 {
		p.AddBCCs(sgAddresses(msg.Bcc)...)
	}

	m := sgmail.NewV3Mail()
	m.SetFrom(sgmail.NewEmail(svc.from.Name, svc.from.Address))
	m.AddPersonalizations(p)

	// text/plain must come first
	m.AddContent(sgmail.NewContent("text/plain", msg.TextContent))
	if msg.HTMLContent != "" {
		m.AddContent(sgmail.NewContent("text/html", msg.HTMLContent))
	}

	for _, at := range msg.Attachments {
		m.AddAttachment(&sgmail.Attachment{
			Content:     at.Content.String(), // already base64
			Type:        at.ContentType,
			Filename:    at.Filename,
			Disposition: "attachment",
		})
	}
	return m
}

func sgAddresses(addrs []mail.Address) []*sgmail.Email {
	out := make([]*sgmail.Email, 0, len(addrs))
	for _, a := range addrs {
		out = append(out, sgmail.NewEmail(a.Name, a.Address))
	}
	return out
}
