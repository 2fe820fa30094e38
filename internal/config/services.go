package config

import (
	"errors"
	"fmt"
	"os"
	"strconv"
	"strings"
	"time"

	"github.com/iliyamo/facility-reservation/internal/model"
)

// SMTPConfig configures outbound e-mail.  Mail is disabled when Host is
// empty; notifications are then only logged.
type SMTPConfig struct {
	Host       string
	Port       int
	Username   string
	Password   string
	From       string
	FromName   string
	AdminEmail string // receives a copy of every new booking
	SkipVerify bool
}

// Enabled reports whether an SMTP relay is configured.
func (c SMTPConfig) Enabled() bool { return c.Host != "" }

// LoadSMTPConfig reads SMTP_* variables.
func LoadSMTPConfig() SMTPConfig {
	return SMTPConfig{
		Host:       os.Getenv("SMTP_HOST"),
		Port:       envInt("SMTP_PORT", 587),
		Username:   os.Getenv("SMTP_USER"),
		Password:   os.Getenv("SMTP_PASS"),
		From:       envStr("SMTP_FROM", "no-reply@localhost"),
		FromName:   envStr("SMTP_FROM_NAME", "Facility Booking"),
		AdminEmail: os.Getenv("ADMIN_EMAIL"),
		SkipVerify: envBool("SMTP_INSECURE_SKIP_VERIFY", false),
	}
}

// BrokerConfig configures the RabbitMQ notification queue.  With an
// empty URL notifications are delivered in-process.
type BrokerConfig struct {
	URL             string
	Queue           string
	ConsumerEnabled bool
}

// LoadBrokerConfig reads RABBITMQ_URL (or AMQP_URL), NOTIFY_QUEUE and
// NOTIFY_CONSUMER_ENABLED.
func LoadBrokerConfig() BrokerConfig {
	url := os.Getenv("RABBITMQ_URL")
	if url == "" {
		url = os.Getenv("AMQP_URL")
	}
	return BrokerConfig{
		URL:             url,
		Queue:           envStr("NOTIFY_QUEUE", "booking.notifications"),
		ConsumerEnabled: envBool("NOTIFY_CONSUMER_ENABLED", true),
	}
}

// CMSConfig locates the headless CMS that stores facilities and bookings.
type CMSConfig struct {
	BaseURL string
	Token   string
	Timeout time.Duration
}

// LoadCMSConfig reads CMS_URL, CMS_API_TOKEN and CMS_TIMEOUT.  CMS_URL is
// required.
func LoadCMSConfig() (CMSConfig, error) {
	cfg := CMSConfig{
		BaseURL: strings.TrimRight(os.Getenv("CMS_URL"), "/"),
		Token:   os.Getenv("CMS_API_TOKEN"),
		Timeout: envDur("CMS_TIMEOUT", 10*time.Second),
	}
	if cfg.BaseURL == "" {
		return CMSConfig{}, errors.New("missing required env var: CMS_URL")
	}
	return cfg, nil
}

// PricingConfig holds the unit prices of consumables, which are priced
// outside the facility rate card.
type PricingConfig struct {
	ConsumableRates map[string]model.Money
}

// LoadPricingConfig reads CONSUMABLE_RATES, a comma separated list of
// name:price pairs such as "water:5.00,snack:12.50".
func LoadPricingConfig() (PricingConfig, error) {
	rates, err := parseRates(envStr("CONSUMABLE_RATES", "water:5.00"))
	if err != nil {
		return PricingConfig{}, fmt.Errorf("invalid CONSUMABLE_RATES: %w", err)
	}
	return PricingConfig{ConsumableRates: rates}, nil
}

func parseRates(s string) (map[string]model.Money, error) {
	out := map[string]model.Money{}
	for _, pair := range strings.Split(s, ",") {
		pair = strings.TrimSpace(pair)
		if pair == "" {
			continue
		}
		name, price, ok := strings.Cut(pair, ":")
		if !ok || strings.TrimSpace(name) == "" {
			return nil, fmt.Errorf("expected name:price, got %q", pair)
		}
		v, err := strconv.ParseFloat(strings.TrimSpace(price), 64)
		if err != nil || v < 0 {
			return nil, fmt.Errorf("bad price in %q", pair)
		}
		out[strings.TrimSpace(name)] = model.FromFloat(v)
	}
	return out, nil
}

// SESConfig configures Amazon SES delivery, used when MAIL_TRANSPORT is
// "ses".  Empty keys fall back to the default AWS credential chain.
type SESConfig struct {
	Region          string
	AccessKeyID     string
	SecretAccessKey string
}

// LoadSESConfig reads AWS_SES_REGION (or AWS_REGION) and the AWS key pair.
func LoadSESConfig() SESConfig {
	region := os.Getenv("AWS_SES_REGION")
	if region == "" {
		region = os.Getenv("AWS_REGION")
	}
	return SESConfig{
		Region:          region,
		AccessKeyID:     os.Getenv("AWS_ACCESS_KEY_ID"),
		SecretAccessKey: os.Getenv("AWS_SECRET_ACCESS_KEY"),
	}
}

// Mail transports accepted in MAIL_TRANSPORT.
const (
	MailSMTP = "smtp"
	MailSES  = "ses"
)

// LoadMailTransport reads MAIL_TRANSPORT, which defaults to smtp.
func LoadMailTransport() (string, error) {
	switch t := strings.ToLower(envStr("MAIL_TRANSPORT", MailSMTP)); t {
	case MailSMTP, MailSES:
		return t, nil
	default:
		return "", fmt.Errorf("invalid MAIL_TRANSPORT %q: want smtp or ses", t)
	}
}

// SchedulerConfig drives the background jobs.  HoldSweepEvery purges
// expired holds between requests; ReminderCron re-sends payment
// reminders for bookings still awaiting payment.
type SchedulerConfig struct {
	Enabled        bool
	HoldSweepEvery time.Duration
	ReminderCron   string
}

// LoadSchedulerConfig reads SCHEDULER_ENABLED, HOLD_SWEEP_EVERY and
// PAYMENT_REMINDER_CRON.  PAYMENT_REMINDER_CRON=off disables reminders.
func LoadSchedulerConfig() SchedulerConfig {
	cfg := SchedulerConfig{
		Enabled:        envBool("SCHEDULER_ENABLED", true),
		HoldSweepEvery: envDur("HOLD_SWEEP_EVERY", time.Minute),
		ReminderCron:   envStr("PAYMENT_REMINDER_CRON", "0 9 * * *"),
	}
	if strings.EqualFold(cfg.ReminderCron, "off") {
		cfg.ReminderCron = ""
	}
	return cfg
}
