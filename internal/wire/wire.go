// Package wire provides dependency injection for the VITAL application.
// It creates singleton services with lazy initialization.
package wire

import (
	"io"
	"log"
	"os"
	"sync"

	"go.uber.org/zap"

	"github.com/example/vital/internal/adapters/api"
	cliadapter "github.com/example/vital/internal/adapters/cli"
	"github.com/example/vital/internal/adapters/kafka"
	"github.com/example/vital/internal/adapters/sqlite"
	"github.com/example/vital/internal/app"
	"github.com/example/vital/internal/config"
	"github.com/example/vital/internal/db"
	"github.com/example/vital/internal/logging"
	"github.com/example/vital/internal/mail"
	"github.com/example/vital/internal/ports/primary"
	"github.com/example/vital/internal/ports/secondary"
)

var (
	cfg   = config.Default()
	debug bool

	logger     *zap.Logger
	loggerOnce sync.Once

	escalationService primary.EscalationService
	issueService      primary.IssueService
	authorityService  primary.AuthorityService
	mailService       primary.MailService
	publisher         secondary.EventPublisher
	once              sync.Once
)

// Configure sets the configuration used to build the services. Must be
// called before the first service accessor; later calls have no effect on
// services that were already built.
func Configure(c config.Config, debugMode bool) {
	cfg = c
	debug = debugMode
}

// Config returns the active configuration.
func Config() config.Config {
	return cfg
}

// Logger returns the process logger.
func Logger() *zap.Logger {
	loggerOnce.Do(func() {
		logger = logging.New(debug)
	})
	return logger
}

// EscalationService returns the singleton EscalationService instance.
func EscalationService() primary.EscalationService {
	once.Do(initServices)
	return escalationService
}

// IssueService returns the singleton IssueService instance.
func IssueService() primary.IssueService {
	once.Do(initServices)
	return issueService
}

// AuthorityService returns the singleton AuthorityService instance.
func AuthorityService() primary.AuthorityService {
	once.Do(initServices)
	return authorityService
}

// MailService returns the singleton MailService instance.
func MailService() primary.MailService {
	once.Do(initServices)
	return mailService
}

// initServices initializes all services and their dependencies.
// This is called once via sync.Once.
func initServices() {
	sugar := Logger().Sugar()

	database, err := db.Open(cfg.Database.Path)
	if err != nil {
		log.Fatalf("failed to initialize database: %v", err)
	}

	cooldown, err := cfg.Escalation.CooldownDuration()
	if err != nil {
		log.Fatalf("invalid escalation cooldown: %v", err)
	}

	// Secondary adapters
	issueRepo := sqlite.NewIssueRepository(database)
	authorityRepo := sqlite.NewAuthorityRepository(database)
	mailRepo := sqlite.NewMailQueueRepository(database)
	executor := app.NewEffectExecutor(sqlite.NewTransactor(database), sugar)
	publisher = newPublisher(sugar)

	// Nil interface, not a typed nil, when SMTP is off
	var sender secondary.MailSender
	if cfg.Mail.Enabled() {
		sender = mail.NewSender(cfg.Mail, sugar)
	}

	// Services (primary ports)
	authorityService = app.NewAuthorityService(authorityRepo, sugar)
	issueService = app.NewIssueService(issueRepo, cfg.Escalation.DefaultSLADays)
	mailService = app.NewMailDeliveryService(mailRepo, sender, cfg.Mail.MaxAttempts, sugar)
	escalationService = app.NewEscalationService(
		issueRepo,
		authorityService,
		app.NewNotificationWriter(cfg.Frontend.BaseURL),
		executor,
		publisher,
		sugar,
		app.EscalationOptions{
			SweepLimit: cfg.Escalation.SweepLimit,
			Cooldown:   cooldown,
		},
	)
}

func newPublisher(log *zap.SugaredLogger) secondary.EventPublisher {
	if !cfg.Events.Kafka.Enabled() {
		return kafka.NopPublisher{}
	}
	p, err := kafka.NewPublisher(cfg.Events.Kafka, log)
	if err != nil {
		log.Warnw("Kafka publisher disabled", "error", err)
		return kafka.NopPublisher{}
	}
	return p
}

// APIServer returns a new HTTP server bound to the escalation service.
func APIServer() *api.Server {
	return api.NewServer(Logger(), cfg, debug, EscalationService())
}

// Shutdown flushes the event publisher and the logger and closes the database.
func Shutdown() {
	if publisher != nil {
		if err := publisher.Close(); err != nil {
			Logger().Sugar().Warnw("Failed to close event publisher", "error", err)
		}
	}
	if err := db.Close(); err != nil {
		Logger().Sugar().Warnw("Failed to close database", "error", err)
	}
	_ = Logger().Sync()
}

// EscalationAdapter returns a new EscalationAdapter writing to stdout.
// Each call creates a new adapter (adapters are stateless translators).
func EscalationAdapter() *cliadapter.EscalationAdapter {
	return EscalationAdapterWithOutput(os.Stdout)
}

// EscalationAdapterWithOutput returns a new EscalationAdapter writing to the given output.
func EscalationAdapterWithOutput(out io.Writer) *cliadapter.EscalationAdapter {
	return cliadapter.NewEscalationAdapter(EscalationService(), out)
}

// IssueAdapter returns a new IssueAdapter writing to stdout.
func IssueAdapter() *cliadapter.IssueAdapter {
	return IssueAdapterWithOutput(os.Stdout)
}

// IssueAdapterWithOutput returns a new IssueAdapter writing to the given output.
func IssueAdapterWithOutput(out io.Writer) *cliadapter.IssueAdapter {
	return cliadapter.NewIssueAdapter(IssueService(), out)
}

// AuthorityAdapter returns a new AuthorityAdapter writing to stdout.
func AuthorityAdapter() *cliadapter.AuthorityAdapter {
	return AuthorityAdapterWithOutput(os.Stdout)
}

// AuthorityAdapterWithOutput returns a new AuthorityAdapter writing to the given output.
func AuthorityAdapterWithOutput(out io.Writer) *cliadapter.AuthorityAdapter {
	return cliadapter.NewAuthorityAdapter(AuthorityService(), out)
}

// MailAdapter returns a new MailAdapter writing to stdout.
func MailAdapter() *cliadapter.MailAdapter {
	return MailAdapterWithOutput(os.Stdout)
}

// MailAdapterWithOutput returns a new MailAdapter writing to the given output.
func MailAdapterWithOutput(out io.Writer) *cliadapter.MailAdapter {
	return cliadapter.NewMailAdapter(MailService(), out)
}
