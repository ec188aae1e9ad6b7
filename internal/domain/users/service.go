package users

import (
	"context"
	"errors"
	"fmt"
	"net/mail"
	"strings"
	"sync"
	"time"

	"pet-adoption/internal/authz"
	"pet-adoption/internal/platform/logger"
	"pet-adoption/internal/ports/storage"

	"github.com/google/uuid"
)

var (
	ErrInvalidInput       = errors.New("invalid input")
	ErrNotFound           = errors.New("user not found")
	ErrConflict           = errors.New("username already exists")
	ErrInvalidCredentials = errors.New("invalid credentials")
	ErrNotDoctor          = errors.New("user is not a doctor")
)

const MinPasswordLen = 8

type PasswordHasher interface {
	Hash(password string) (string, error)
	Check(password, hash string) bool
}

// DeleteHook borra o libera datos de otros módulos que apuntan al usuario.
type DeleteHook func(ctx context.Context, userID string) error

type Service struct {
	repo   Repository
	hasher PasswordHasher
	log    logger.Logger
	now    func() time.Time

	hooksMu sync.RWMutex
	hooks   []DeleteHook

	// dummy se compara cuando el usuario no existe, para que Login tarde lo mismo.
	dummyOnce sync.Once
	dummy     string
}

func NewService(repo Repository, hasher PasswordHasher, log logger.Logger) *Service {
	if log == nil {
		log = logger.Nop()
	}
	return &Service{
		repo:   repo,
		hasher: hasher,
		log:    log.With(map[string]any{"module": "users"}),
		now:    time.Now,
	}
}

// OnDelete registra un hook que corre antes de borrar una cuenta.
func (s *Service) OnDelete(h DeleteHook) {
	s.hooksMu.Lock()
	defer s.hooksMu.Unlock()
	s.hooks = append(s.hooks, h)
}

func (s *Service) dummyHash() string {
	s.dummyOnce.Do(func() {
		h, err := s.hasher.Hash("dummy-password-" + uuid.NewString())
		if err != nil {
			s.log.Error("dummy hash failed", map[string]any{"error": err.Error()})
		}
		s.dummy = h
	})
	return s.dummy
}

type RegisterInput struct {
	Username string
	Email    string
	Password string
	Role     string
}

func (s *Service) Register(ctx context.Context, in RegisterInput) (Account, error) {
	role, ok := ParseRole(in.Role)
	if !ok {
		return Account{}, ErrInvalidInput
	}
	return s.create(ctx, newAccountInput{
		Username: in.Username,
		Email:    in.Email,
		Password: in.Password,
		Role:     role,
	})
}

type newAccountInput struct {
	Username       string
	Email          string
	Password       string
	Role           Role
	Phone          *string
	Specialization *string
}

func (s *Service) create(ctx context.Context, in newAccountInput) (Account, error) {
	username := strings.TrimSpace(in.Username)
	email := strings.TrimSpace(in.Email)
	if username == "" || len(in.Password) < MinPasswordLen {
		return Account{}, ErrInvalidInput
	}
	if email != "" {
		if _, err := mail.ParseAddress(email); err != nil {
			return Account{}, ErrInvalidInput
		}
	}

	if _, err := s.repo.GetByUsername(ctx, username); err == nil {
		return Account{}, ErrConflict
	}

	hash, err := s.hasher.Hash(in.Password)
	if err != nil {
		return Account{}, err
	}

	now := s.now()
	a := Account{
		User: User{
			ID:           uuid.NewString(),
			Username:     username,
			Email:        email,
			PasswordHash: hash,
			IsActive:     true,
			CreatedAt:    now,
			UpdatedAt:    now,
		},
		Profile: Profile{
			Role:           in.Role,
			Status:         StatusActive,
			Phone:          trimPtr(in.Phone),
			Specialization: trimPtr(in.Specialization),
		},
	}
	a.Profile.UserID = a.User.ID

	if err := s.repo.Create(ctx, a); err != nil {
		return Account{}, err
	}

	s.log.Info("account created", map[string]any{"user_id": a.User.ID, "role": string(a.Profile.Role)})
	return a, nil
}

type LoginInput struct {
	Username string
	Password string
	Role     string
}

// Login valida credenciales, cuenta activa y rol declarado.
// Cualquier falla devuelve ErrInvalidCredentials; el motivo solo va al log.
func (s *Service) Login(ctx context.Context, in LoginInput) (Account, error) {
	username := strings.TrimSpace(in.Username)
	if username == "" || in.Password == "" || strings.TrimSpace(in.Role) == "" {
		return Account{}, ErrInvalidCredentials
	}

	a, err := s.repo.GetByUsername(ctx, username)
	if err != nil {
		if !errors.Is(err, storage.ErrNotFound) {
			return Account{}, fmt.Errorf("lookup %q: %w", username, err)
		}
		// usuario inexistente: igual se paga un Check
		s.hasher.Check(in.Password, s.dummyHash())
		s.log.Warn("login rejected", map[string]any{"username": username, "reason": "bad_credentials"})
		return Account{}, ErrInvalidCredentials
	}
	if !s.hasher.Check(in.Password, a.User.PasswordHash) {
		s.log.Warn("login rejected", map[string]any{"username": username, "reason": "bad_credentials"})
		return Account{}, ErrInvalidCredentials
	}
	if !a.User.IsActive {
		s.log.Warn("login rejected", map[string]any{"user_id": a.User.ID, "reason": "inactive"})
		return Account{}, ErrInvalidCredentials
	}
	if claimed, ok := ParseRole(in.Role); !ok || claimed != a.Profile.Role {
		s.log.Warn("login rejected", map[string]any{"user_id": a.User.ID, "reason": "role_mismatch"})
		return Account{}, ErrInvalidCredentials
	}

	s.log.Info("login ok", map[string]any{"user_id": a.User.ID})
	return a, nil
}

func (s *Service) GetByID(ctx context.Context, id string) (Account, error) {
	id = strings.TrimSpace(id)
	if id == "" {
		return Account{}, ErrInvalidInput
	}
	a, err := s.repo.GetByID(ctx, id)
	if err != nil {
		return Account{}, notFound(err)
	}
	return a, nil
}

func (s *Service) GetByEmail(ctx context.Context, email string) (Account, error) {
	email = strings.TrimSpace(email)
	if email == "" {
		return Account{}, ErrInvalidInput
	}
	a, err := s.repo.GetByEmail(ctx, email)
	if err != nil {
		return Account{}, notFound(err)
	}
	return a, nil
}

func notFound(err error) error {
	if errors.Is(err, storage.ErrNotFound) {
		return ErrNotFound
	}
	return fmt.Errorf("users store: %w", err)
}

// ActorOf implementa authz.AccountLookup: solo cuentas activas autentican.
func (s *Service) ActorOf(ctx context.Context, userID string) (authz.Actor, error) {
	a, err := s.GetByID(ctx, userID)
	if err != nil {
		return authz.Actor{}, err
	}
	if !a.User.IsActive {
		return authz.Actor{}, authz.ErrUnauthenticated
	}
	return authz.Actor{
		UserID:   a.User.ID,
		Username: a.User.Username,
		Role:     string(a.Profile.Role),
	}, nil
}

// Exists lo usa messaging para validar la contraparte de un chat.
func (s *Service) Exists(ctx context.Context, userID string) (bool, error) {
	_, err := s.GetByID(ctx, userID)
	if err != nil {
		if errors.Is(err, ErrNotFound) || errors.Is(err, ErrInvalidInput) {
			return false, nil
		}
		return false, err
	}
	return true, nil
}

func (s *Service) Activate(ctx context.Context, userID string) (Account, error) {
	return s.setActive(ctx, userID, true)
}

func (s *Service) Deactivate(ctx context.Context, userID string) (Account, error) {
	return s.setActive(ctx, userID, false)
}

func (s *Service) setActive(ctx context.Context, userID string, active bool) (Account, error) {
	if _, err := s.GetByID(ctx, userID); err != nil {
		return Account{}, err
	}
	if err := s.repo.SetActive(ctx, userID, active, s.now()); err != nil {
		return Account{}, err
	}
	s.log.Info("account status changed", map[string]any{"user_id": userID, "status": string(StatusFor(active))})
	return s.GetByID(ctx, userID)
}

func (s *Service) ListProfiles(ctx context.Context) ([]Account, error) {
	return s.repo.List(ctx)
}

// SetPassword reemplaza el hash. Lo usa el flujo de reset.
func (s *Service) SetPassword(ctx context.Context, userID, newPassword string) error {
	if len(newPassword) < MinPasswordLen {
		return ErrInvalidInput
	}
	a, err := s.GetByID(ctx, userID)
	if err != nil {
		return err
	}
	hash, err := s.hasher.Hash(newPassword)
	if err != nil {
		return err
	}
	a.User.PasswordHash = hash
	a.User.UpdatedAt = s.now()
	return s.repo.Update(ctx, a)
}

type DoctorInput struct {
	Username       string
	Email          string
	Password       string
	Phone          *string
	Specialization *string
}

func (s *Service) AddDoctor(ctx context.Context, in DoctorInput) (Account, error) {
	if strings.TrimSpace(in.Email) == "" {
		return Account{}, ErrInvalidInput
	}
	return s.create(ctx, newAccountInput{
		Username:       in.Username,
		Email:          in.Email,
		Password:       in.Password,
		Role:           RoleDoctor,
		Phone:          in.Phone,
		Specialization: in.Specialization,
	})
}

func (s *Service) ListDoctors(ctx context.Context) ([]Account, error) {
	return s.repo.ListByRole(ctx, RoleDoctor)
}

// UpdateDoctorInput usa punteros: nil = no tocar.
type UpdateDoctorInput struct {
	Email          *string
	Phone          *string
	Specialization *string
}

func (s *Service) UpdateDoctor(ctx context.Context, userID string, in UpdateDoctorInput) (Account, error) {
	a, err := s.doctor(ctx, userID)
	if err != nil {
		return Account{}, err
	}

	if in.Email != nil {
		email := strings.TrimSpace(*in.Email)
		if _, err := mail.ParseAddress(email); err != nil {
			return Account{}, ErrInvalidInput
		}
		a.User.Email = email
	}
	if in.Phone != nil {
		a.Profile.Phone = trimPtr(in.Phone)
	}
	if in.Specialization != nil {
		a.Profile.Specialization = trimPtr(in.Specialization)
	}
	a.User.UpdatedAt = s.now()

	if err := s.repo.Update(ctx, a); err != nil {
		return Account{}, err
	}
	return a, nil
}

// DeleteDoctor corre los hooks de OnDelete y recién después borra la cuenta.
func (s *Service) DeleteDoctor(ctx context.Context, userID string) error {
	if _, err := s.doctor(ctx, userID); err != nil {
		return err
	}

	s.hooksMu.RLock()
	hooks := append([]DeleteHook(nil), s.hooks...)
	s.hooksMu.RUnlock()

	for _, h := range hooks {
		if err := h(ctx, userID); err != nil {
			return fmt.Errorf("cascade delete for user %s: %w", userID, err)
		}
	}
	if err := s.repo.Delete(ctx, userID); err != nil {
		return err
	}
	s.log.Info("doctor deleted", map[string]any{"user_id": userID})
	return nil
}

// IsDoctor lo usa requests al asignar clearance.
func (s *Service) IsDoctor(ctx context.Context, userID string) (bool, error) {
	a, err := s.doctor(ctx, userID)
	if err != nil {
		if errors.Is(err, ErrNotFound) || errors.Is(err, ErrNotDoctor) || errors.Is(err, ErrInvalidInput) {
			return false, nil
		}
		return false, err
	}
	return a.User.IsActive, nil
}

func (s *Service) doctor(ctx context.Context, userID string) (Account, error) {
	a, err := s.GetByID(ctx, userID)
	if err != nil {
		return Account{}, err
	}
	if a.Profile.Role != RoleDoctor {
		return Account{}, ErrNotDoctor
	}
	return a, nil
}

func trimPtr(p *string) *string {
	if p == nil {
		return nil
	}
	v := strings.TrimSpace(*p)
	if v == "" {
		return nil
	}
	return &v
}
