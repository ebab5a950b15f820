package dig_container

import (
	"context"
	"fmt"
	"io"
	"log"
	"os"

	"github.com/go-playground/locales/en"
	ut "github.com/go-playground/universal-translator"
	"github.com/go-playground/validator/v10"
	"github.com/jmoiron/sqlx"
	"github.com/pkg/errors"
	"go.uber.org/dig"

	echoapi "github.com/trezcool/loo7/apps/api/echo"
	"github.com/trezcool/loo7/core"
	"github.com/trezcool/loo7/core/digest"
	"github.com/trezcool/loo7/core/loo7"
	"github.com/trezcool/loo7/core/quran"
	"github.com/trezcool/loo7/core/sheikh"
	"github.com/trezcool/loo7/core/student"
	emailsvc "github.com/trezcool/loo7/services/email"
	googlesvc "github.com/trezcool/loo7/services/google"
	logsvc "github.com/trezcool/loo7/services/logger"
	metricsvc "github.com/trezcool/loo7/services/metrics"
	quransvc "github.com/trezcool/loo7/services/quran"
	schedulersvc "github.com/trezcool/loo7/services/scheduler"
	"github.com/trezcool/loo7/storage/blob"
	"github.com/trezcool/loo7/storage/database"
	inmemdb "github.com/trezcool/loo7/storage/database/inmem"
	sqlxrepos "github.com/trezcool/loo7/storage/database/sqlx"
)

// Storage holds the repositories of the configured backend.
type Storage struct {
	dig.Out
	Sheikhs  sheikh.Repository
	Students student.Repository
	Loo7s    loo7.Repository
	Health   echoapi.HealthChecker
	Closer   io.Closer
}

type ServerParams struct {
	dig.In
	Conf       *core.Config
	Logger     core.Logger
	Validate   *validator.Validate
	Translator ut.Translator
	Metrics    *metricsvc.Metrics
	Health     echoapi.HealthChecker
	SheikhSvc  sheikh.Service
	StudentSvc student.Service
	Loo7Svc    loo7.Service
	QuranSvc   quran.Service
}

func newLogger(conf *core.Config) (*logsvc.Logger, core.Logger) {
	var reporters []logsvc.Reporter
	if conf.RollbarToken != "" {
		rb := logsvc.NewRollbarReporter(conf)
		rb.Enable(!conf.Debug)
		reporters = append(reporters, rb)
	}
	if conf.SentryDSN != "" {
		sr, err := logsvc.NewSentryReporter(conf)
		if err != nil {
			log.Fatalf("setting up sentry: %v", err)
		}
		reporters = append(reporters, sr)
	}

	logger, err := logsvc.NewLogger(conf, reporters...)
	if err != nil {
		log.Fatalf("setting up logger: %v", err)
	}
	return logger, logger
}

// newStorage opens the backend named by conf.Storage.Backend. SQL databases are migrated on start.
func newStorage(conf *core.Config, logger core.Logger) Storage {
	st, err := openStorage(conf)
	if err != nil {
		logger.Fatal(fmt.Sprintf("setting up %s storage: %v", conf.Storage.Backend, err), err)
	}
	logger.Info(fmt.Sprintf("storage backend: %s", conf.Storage.Backend))
	return st
}

func openStorage(conf *core.Config) (Storage, error) {
	switch conf.Storage.Backend {
	case core.BackendMemory:
		db := inmemdb.Open()
		return Storage{
			Sheikhs:  inmemdb.NewSheikhRepository(db),
			Students: inmemdb.NewStudentRepository(db),
			Loo7s:    inmemdb.NewLoo7Repository(db),
			Health:   memoryStore{},
			Closer:   memoryStore{},
		}, nil

	case core.BackendSQL:
		db, err := database.Open(conf)
		if err != nil {
			return Storage{}, err
		}
		if err = database.Migrate(context.Background(), db); err != nil {
			_ = db.Close()
			return Storage{}, err
		}
		return Storage{
			Sheikhs:  sqlxrepos.NewSheikhRepository(db),
			Students: sqlxrepos.NewStudentRepository(db),
			Loo7s:    sqlxrepos.NewLoo7Repository(db),
			Health:   sqlHealth{db},
			Closer:   db,
		}, nil

	case core.BackendBolt, core.BackendB2:
		var (
			bucket blob.Bucket
			err    error
		)
		if conf.Storage.Backend == core.BackendBolt {
			bucket, err = blob.OpenBolt(conf.Bolt.Path)
		} else {
			bucket, err = blob.OpenB2(context.Background(), conf.B2.AccountID, conf.B2.ApplicationKey, conf.B2.Bucket)
		}
		if err != nil {
			return Storage{}, err
		}
		store := blob.NewStore(bucket)
		return Storage{
			Sheikhs:  blob.NewSheikhRepository(store),
			Students: blob.NewStudentRepository(store),
			Loo7s:    blob.NewLoo7Repository(store),
			Health:   store,
			Closer:   store,
		}, nil

	default:
		return Storage{}, errors.Errorf("unknown storage backend %q", conf.Storage.Backend)
	}
}

type memoryStore struct{}

func (memoryStore) Ping(context.Context) error { return nil }
func (memoryStore) Close() error               { return nil }

type sqlHealth struct {
	db *sqlx.DB
}

func (h sqlHealth) Ping(ctx context.Context) error {
	return h.db.PingContext(ctx)
}

func newEmailService(conf *core.Config, logger core.Logger) core.EmailService {
	if conf.Debug || conf.Email.SendgridAPIKey == "" {
		return emailsvc.NewConsoleService(conf, logger)
	}
	return emailsvc.NewSendgridService(conf, logger)
}

// newVerifier returns nil when Google sign-in is not configured.
func newVerifier(conf *core.Config) sheikh.TokenVerifier {
	if conf.Auth.GoogleClientID == "" {
		return nil
	}
	return googlesvc.NewVerifier(conf.Auth.GoogleClientID)
}

func newLoo7Service(
	repo loo7.Repository,
	studentRepo student.Repository,
	validate *validator.Validate,
	logger core.Logger,
	metrics *metricsvc.Metrics,
) loo7.Service {
	return loo7.NewService(repo, studentRepo, validate, logger, metrics)
}

func newScheduler(conf *core.Config, logger core.Logger, metrics *metricsvc.Metrics) *schedulersvc.Scheduler {
	return schedulersvc.New(conf.Timezone, logger, metrics)
}

func newTranslator() ut.Translator {
	_en := en.New()
	uni := ut.New(_en, _en)
	translator, _ := uni.GetTranslator("en")
	return translator
}

func newServer(p ServerParams) *echoapi.Server {
	return echoapi.NewServer(echoapi.ServerDeps{
		Conf:       p.Conf,
		Logger:     p.Logger,
		Validate:   p.Validate,
		Translator: p.Translator,
		Metrics:    p.Metrics,
		Health:     p.Health,
		SheikhSvc:  p.SheikhSvc,
		StudentSvc: p.StudentSvc,
		Loo7Svc:    p.Loo7Svc,
		QuranSvc:   p.QuranSvc,
	})
}

type NewConfigFunc func() *core.Config

// New returns a new dependency injection dig.Container. newConfig defaults to core.NewConfig.
func New(newConfig ...NewConfigFunc) *dig.Container {
	c := dig.New()

	confFn := NewConfigFunc(core.NewConfig)
	if len(newConfig) > 0 {
		confFn = newConfig[0]
	}

	must(c.Provide(confFn))
	must(c.Provide(newLogger))
	must(c.Provide(newStorage))
	must(c.Provide(validator.New))
	must(c.Provide(newTranslator))
	must(c.Provide(metricsvc.New))
	must(c.Provide(newEmailService))
	must(c.Provide(quransvc.NewClient))
	must(c.Provide(newVerifier))
	must(c.Provide(sheikh.NewService))
	must(c.Provide(student.NewService))
	must(c.Provide(newLoo7Service))
	must(c.Provide(digest.NewSender))
	must(c.Provide(newScheduler))
	must(c.Provide(newServer))

	if os.Getenv("DIG_VISUALIZE") != "" {
		_ = dig.Visualize(c, os.Stdout)
	}

	return c
}

// must exits program if err happened
func must(err error) {
	if err != nil {
		log.Fatal(errors.Wrap(err, "failed to provide dependency").Error())
	}
}
