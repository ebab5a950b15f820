package digest

import (
	"context"
	"fmt"
	"net/mail"

	"github.com/pkg/errors"

	"github.com/trezcool/loo7/core"
	"github.com/trezcool/loo7/core/loo7"
	"github.com/trezcool/loo7/core/sheikh"
)

const templateName = "daily_digest"

type (
	Row struct {
		StudentName string
		Total       int
		Pending     int
	}

	// Data is the email template data of a daily digest.
	Data struct {
		SheikhName string
		Date       string
		Rows       []Row
		Total      int
		Pending    int
	}

	// Sender emails every sheikh the roll-up of their students' loo7 for a day.
	Sender struct {
		sheikhs sheikh.Service
		loo7s   loo7.Service
		mailSvc core.EmailService
		logger  core.Logger
		conf    *core.Config
	}
)

func NewSender(conf *core.Config, sheikhs sheikh.Service, loo7s loo7.Service, mailSvc core.EmailService, logger core.Logger) *Sender {
	return &Sender{
		sheikhs: sheikhs,
		loo7s:   loo7s,
		mailSvc: mailSvc,
		logger:  logger,
		conf:    conf,
	}
}

// SendToday sends the digest of today's date in the configured timezone.
func (s *Sender) SendToday(ctx context.Context) (int, error) {
	return s.Send(ctx, s.conf.Today().Format(core.DateLayout))
}

// Send builds and sends the digests of date. Sheikhs without an email address or without
// any loo7 on that date are skipped. It returns the number of messages queued.
func (s *Sender) Send(ctx context.Context, date string) (int, error) {
	sheikhs, err := s.sheikhs.QueryAll(ctx)
	if err != nil {
		return 0, errors.Wrap(err, "querying sheikhs")
	}

	messages := make([]*core.EmailMessage, 0, len(sheikhs))
	for _, sh := range sheikhs {
		if sh.Email == "" {
			continue
		}
		data, err := s.build(ctx, sh, date)
		if err != nil {
			s.logger.Error(fmt.Sprintf("building digest for sheikh %s: %v", sh.ID, err), err, sh)
			continue
		}
		if len(data.Rows) == 0 {
			continue
		}
		messages = append(messages, &core.EmailMessage{
			To:           []mail.Address{{Name: sh.Name, Address: sh.Email}},
			Subject:      "Recitations for " + date,
			TemplateName: templateName,
			TemplateData: data,
		})
	}

	if len(messages) > 0 {
		s.mailSvc.SendMessages(messages...)
	}
	s.logger.Info(fmt.Sprintf("daily digest for %s: %d message(s) queued", date, len(messages)))
	return len(messages), nil
}

func (s *Sender) build(ctx context.Context, sh sheikh.Sheikh, date string) (Data, error) {
	rollup, err := s.loo7s.DailyRollup(ctx, sh.ID, date)
	if err != nil {
		return Data{}, err
	}
	data := Data{SheikhName: sh.Name, Date: date, Rows: make([]Row, 0, len(rollup))}
	for _, day := range rollup {
		data.Rows = append(data.Rows, Row{StudentName: day.Student.Name, Total: day.Loo7Count, Pending: day.PendingCount})
		data.Total += day.Loo7Count
		data.Pending += day.PendingCount
	}
	return data, nil
}
