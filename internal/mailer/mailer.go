// Package mailer delivers email over SMTP. When no SMTP host is
// configured it logs the message and reports success, so local
// development never needs a mail server.
package mailer

import (
	"fmt"
	"strings"

	"gopkg.in/gomail.v2"

	"github.com/julianstephens/habitcoach/internal/logger"
	"github.com/julianstephens/habitcoach/internal/report"
)

type Mailer struct {
	dialer *gomail.Dialer
	from   string
}

// New builds a mailer. An empty host leaves the mailer in log-only mode.
func New(host string, port int, username, password, from string) *Mailer {
	m := &Mailer{from: from}
	if host != "" {
		m.dialer = gomail.NewDialer(host, port, username, password)
	}
	return m
}

// Enabled reports whether real SMTP delivery is configured.
func (m *Mailer) Enabled() bool {
	return m.dialer != nil
}

// SendWeeklyReport mails the weekly summary to the user.
func (m *Mailer) SendWeeklyReport(to, name string, r report.WeeklyReport) error {
	subject := fmt.Sprintf("Your habit report for the week of %s", r.WeekStart)
	return m.send(to, subject, weeklyReportBody(name, r))
}

// SendReminder mails a single habit reminder.
func (m *Mailer) SendReminder(to, subject, body string) error {
	return m.send(to, subject, body)
}

func (m *Mailer) send(to, subject, body string) error {
	if m.dialer == nil {
		logger.Info("SMTP not configured, skipping delivery", "to", to, "subject", subject)
		return nil
	}

	msg := gomail.NewMessage()
	msg.SetHeader("From", m.from)
	msg.SetHeader("To", to)
	msg.SetHeader("Subject", subject)
	msg.SetBody("text/plain", body)

	if err := m.dialer.DialAndSend(msg); err != nil {
		return fmt.Errorf("failed to send email to %s: %w", to, err)
	}
	return nil
}

func weeklyReportBody(name string, r report.WeeklyReport) string {
	var b strings.Builder

	greeting := "Hi"
	if name != "" {
		greeting = "Hi " + name
	}
	fmt.Fprintf(&b, "%s,\n\n", greeting)
	fmt.Fprintf(&b, "Here is your habit summary for %s through %s.\n\n", r.WeekStart, r.WeekEnd)
	fmt.Fprintf(&b, "Overall completion: %.0f%%\n\n", r.OverallRate*100)

	for _, h := range r.Habits {
		flag := ""
		if h.AtRisk {
			flag = "  [at risk]"
		}
		fmt.Fprintf(&b, "- %s: %.0f%% this week, streak %d (best %d)%s\n",
			h.Name, h.WeekRate*100, h.CurrentStreak, h.BestStreak, flag)
	}

	if r.AtRiskCount > 0 {
		fmt.Fprintf(&b, "\n%d habit(s) look at risk of slipping. A small check-in today goes a long way.\n", r.AtRiskCount)
	}
	b.WriteString("\nKeep it up!\n")
	return b.String()
}
