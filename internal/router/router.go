package router

import (
	"context"
	"database/sql"
	"errors"
	"net/http"

	"github.com/go-chi/chi/v5"
	chimw "github.com/go-chi/chi/v5/middleware"
	goredis "github.com/redis/go-redis/v9"
	httpSwagger "github.com/swaggo/http-swagger"

	_ "pet-adoption/docs"
	"pet-adoption/internal/adapters/auth/jwtauth"
	"pet-adoption/internal/adapters/capabilities/rolepolicy"
	"pet-adoption/internal/adapters/mailer"
	mem "pet-adoption/internal/adapters/storage/memory"
	pg "pet-adoption/internal/adapters/storage/postgres"
	rdb "pet-adoption/internal/adapters/storage/redis"
	"pet-adoption/internal/authz"
	"pet-adoption/internal/domain/feedback"
	"pet-adoption/internal/domain/messaging"
	"pet-adoption/internal/domain/passwordreset"
	"pet-adoption/internal/domain/pets"
	"pet-adoption/internal/domain/requests"
	"pet-adoption/internal/domain/users"
	"pet-adoption/internal/middleware"
	"pet-adoption/internal/platform/config"
	"pet-adoption/internal/platform/logger"
	"pet-adoption/internal/platform/password"
	"pet-adoption/internal/ports/auth"
	"pet-adoption/internal/ports/mail"
)

type Options struct {
	Config config.Config
	Log    logger.Logger

	// Opcional: si viene, usa Postgres. Si no, in-memory.
	DB *sql.DB
	// Opcional: tokens de reset y revocación en Redis.
	Redis *goredis.Client
	// Opcional: si es nil se usa LogMailer.
	Mailer mail.Mailer

	// Opcional: costo bcrypt (tests usan MinCost).
	PasswordCost int
}

type repos struct {
	users    users.Repository
	pets     pets.Repository
	messages messaging.Repository
	requests requests.Repository
	feedback feedback.Repository
	resets   passwordreset.TokenStore
	revoked  auth.TokenRevoker
}

func selectRepos(opts Options) repos {
	var rp repos

	if db := opts.DB; db != nil {
		rp.users = pg.NewUsersRepo(db)
		rp.pets = pg.NewPetsRepo(db)
		rp.messages = pg.NewMessagesRepo(db)
		rp.requests = pg.NewRequestsRepo(db)
		rp.feedback = pg.NewFeedbackRepo(db)
		rp.resets = pg.NewResetTokensRepo(db)
		rp.revoked = pg.NewRevokedTokensRepo(db)
	} else {
		rp.users = mem.NewUserRepo()
		rp.pets = mem.NewPetRepo()
		rp.messages = mem.NewMessageRepo()
		rp.requests = mem.NewRequestRepo()
		rp.feedback = mem.NewFeedbackRepo()
		rp.resets = mem.NewResetTokenStore()
		rp.revoked = mem.NewRevocationStore()
	}

	if c := opts.Redis; c != nil {
		rp.resets = rdb.NewResetTokenStore(c)
		rp.revoked = rdb.NewRevocationStore(c)
	}

	return rp
}

func NewRouter(opts Options) (http.Handler, error) {
	cfg := opts.Config
	log := opts.Log
	if log == nil {
		log = logger.Nop()
	}

	rp := selectRepos(opts)

	tokens, err := jwtauth.NewManager(jwtauth.Config{Secret: cfg.JWTSecret, TTL: cfg.JWTTTL}, rp.revoked)
	if err != nil {
		return nil, err
	}

	mailSvc := opts.Mailer
	if mailSvc == nil {
		mailSvc = mailer.NewLogMailer(log)
	}

	hasher := password.NewHasher()
	if opts.PasswordCost > 0 {
		hasher = password.NewHasherWithCost(opts.PasswordCost)
	}

	// Services por módulo
	caps := rolepolicy.NewResolver(nil)
	usersSvc := users.NewService(rp.users, hasher, log)
	petsSvc := pets.NewService(rp.pets, log)
	chatSvc := messaging.NewService(rp.messages, petsSvc, usersSvc, log)
	requestsSvc := requests.NewService(rp.requests, petsSvc, usersSvc, caps, log)
	feedbackSvc := feedback.NewService(rp.feedback, mailSvc, feedback.Options{
		From:         cfg.MailFrom,
		SupportEmail: cfg.SupportEmail,
	}, log)
	resetSvc := passwordreset.NewService(rp.resets, usersSvc, mailSvc, passwordreset.Options{
		From:    cfg.MailFrom,
		BaseURL: cfg.PublicBaseURL,
		TTL:     cfg.ResetTokenTTL,
	}, log)

	// Rechazar una mascota arrastra su chat y sus solicitudes.
	petsSvc.OnDelete(chatSvc.DeleteByPet)
	petsSvc.OnDelete(requestsSvc.DeleteByPet)
	// Borrar un doctor libera sus clearance y borra sus mensajes.
	usersSvc.OnDelete(chatSvc.DeleteByUser)
	usersSvc.OnDelete(requestsSvc.DeleteByUser)

	guard := authz.NewGuard(usersSvc, caps)

	r := chi.NewRouter()

	r.Use(chimw.RequestID)
	r.Use(chimw.RealIP)
	r.Use(middleware.RequestIDHeader)
	r.Use(middleware.RequestLogging(log))
	r.Use(middleware.Recover(log))
	r.Use(middleware.SecurityHeaders)
	r.Use(middleware.CORS(nil))

	r.Use(middleware.AuthContext(tokens, cfg.DevAuth))

	r.Get("/health", healthHandler(opts))
	r.Get("/swagger/*", httpSwagger.Handler(httpSwagger.URL("/swagger/doc.json")))

	authLimit := middleware.RateLimit(cfg.RateLimitRPS, cfg.RateLimitBurst)

	// Rutas por módulo
	users.RegisterRoutes(r, usersSvc, guard, users.Tokens{Issuer: tokens, Revoker: rp.revoked}, authLimit)
	passwordreset.RegisterRoutes(r, resetSvc, authLimit)
	pets.RegisterRoutes(r, petsSvc, guard, requestsSvc)
	messaging.RegisterRoutes(r, chatSvc, guard)
	requests.RegisterRoutes(r, requestsSvc, guard)
	feedback.RegisterRoutes(r, feedbackSvc, guard)

	log.Info("router ready", map[string]any{
		"storage":  storageName(opts),
		"dev_auth": cfg.DevAuth,
	})

	return r, nil
}

func storageName(opts Options) string {
	switch {
	case opts.DB != nil && opts.Redis != nil:
		return "postgres+redis"
	case opts.DB != nil:
		return "postgres"
	case opts.Redis != nil:
		return "memory+redis"
	default:
		return "memory"
	}
}

// healthHandler hace ping a los stores externos configurados.
func healthHandler(opts Options) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		if err := ping(r.Context(), opts); err != nil {
			http.Error(w, "unavailable", http.StatusServiceUnavailable)
			return
		}
		w.WriteHeader(http.StatusOK)
		_, _ = w.Write([]byte("ok"))
	}
}

func ping(ctx context.Context, opts Options) error {
	var errs []error
	if opts.DB != nil {
		errs = append(errs, opts.DB.PingContext(ctx))
	}
	if opts.Redis != nil {
		errs = append(errs, opts.Redis.Ping(ctx).Err())
	}
	return errors.Join(errs...)
}
