package user

import (
	"context"
	"crypto/subtle"
	"errors"
	"strings"
	"sync"

	"github.com/wichananm65/jewel-shop-backend/internal/apperr"
	"github.com/wichananm65/jewel-shop-backend/internal/logger"
	"github.com/wichananm65/jewel-shop-backend/internal/session"
	"golang.org/x/crypto/bcrypt"
)

var (
	ErrInvalidCredentials = apperr.New(apperr.KindNotAuthenticated, "Invalid username or password")
	ErrInactive           = apperr.New(apperr.KindForbidden, "Your account is inactive")
	ErrNameRequired       = apperr.New(apperr.KindValidation, "Name and password are required.")
	ErrUserNotFound       = apperr.New(apperr.KindNotFound, "user not found")
	ErrToggleInFlight     = apperr.New(apperr.KindConflict, "a status change for this user is already in progress")
	ErrInvalidRole        = apperr.New(apperr.KindValidation, "Role is required")
)

type Service struct {
	repo             Repository
	log              *logger.Logger
	legacyPhoneLogin bool

	mu       sync.Mutex
	toggling map[int]struct{}
}

// NewService builds the user service. With legacyPhoneLogin set, accounts may
// also sign in using their phone number as the password.
func NewService(repo Repository, log *logger.Logger, legacyPhoneLogin bool) *Service {
	return &Service{repo: repo, log: log, legacyPhoneLogin: legacyPhoneLogin, toggling: make(map[int]struct{})}
}

// Authenticate looks the account up by phone number and checks the password.
func (s *Service) Authenticate(ctx context.Context, phone, password string) (User, error) {
	phone = strings.TrimSpace(phone)
	if phone == "" || password == "" {
		return User{}, ErrInvalidCredentials
	}

	u, err := s.repo.GetByPhone(ctx, phone)
	if err != nil {
		if errors.Is(err, ErrNotFound) {
			return User{}, ErrInvalidCredentials
		}
		return User{}, apperr.Wrap(apperr.KindStoreRead, err, "Login failed")
	}

	if !s.passwordMatches(u, password) {
		return User{}, ErrInvalidCredentials
	}
	if !u.Active() {
		return User{}, ErrInactive
	}
	return u, nil
}

func (s *Service) passwordMatches(u User, password string) bool {
	if looksLikeBcrypt(u.Password) && bcrypt.CompareHashAndPassword([]byte(u.Password), []byte(password)) == nil {
		return true
	}
	return s.legacyPhoneLogin && subtle.ConstantTimeCompare([]byte(password), []byte(u.Phone)) == 1
}

func (s *Service) Profile(ctx context.Context, sess session.Session) (User, error) {
	if err := sess.Check(); err != nil {
		return User{}, err
	}
	return s.get(ctx, sess.UserID)
}

// CheckSession reloads the caller's account. A deleted account is logged
// out, an inactive one is refused, and the role comes from the stored row.
func (s *Service) CheckSession(ctx context.Context, sess session.Session) (session.Session, error) {
	if err := sess.Check(); err != nil {
		return session.Session{}, err
	}
	u, err := s.get(ctx, sess.UserID)
	if err != nil {
		if errors.Is(err, ErrUserNotFound) {
			return session.Session{}, session.ErrNotAuthenticated
		}
		return session.Session{}, err
	}
	if !u.Active() {
		return session.Session{}, ErrInactive
	}
	sess.Name = u.Name
	sess.Phone = u.Phone
	sess.Role = u.Role
	return sess, nil
}

// List returns users for the admin console. Read failures are logged and
// produce an empty slice.
func (s *Service) List(ctx context.Context, sess session.Session, role string) ([]User, error) {
	if err := sess.CheckAdmin(); err != nil {
		return nil, err
	}
	users, err := s.repo.List(ctx, role)
	if err != nil {
		s.log.Error(ctx, "list users failed", err)
		return []User{}, nil
	}
	return users, nil
}

type CreateInput struct {
	Name     string `json:"username"`
	Password string `json:"password"`
	Phone    string `json:"phoneNumber"`
	Role     string `json:"role" validate:"omitempty,oneof=admin user"`
	Status   string `json:"status" validate:"omitempty,oneof=active inactive"`
}

func (s *Service) Create(ctx context.Context, sess session.Session, in CreateInput) (User, error) {
	if err := sess.CheckAdmin(); err != nil {
		return User{}, err
	}
	in.Name = strings.TrimSpace(in.Name)
	if in.Name == "" || in.Password == "" {
		return User{}, ErrNameRequired
	}
	if in.Role == "" {
		in.Role = session.RoleUser
	}
	if in.Status == "" {
		in.Status = StatusActive
	}

	hashed, err := bcrypt.GenerateFromPassword([]byte(in.Password), bcrypt.DefaultCost)
	if err != nil {
		return User{}, apperr.Wrap(apperr.KindInternal, err, "Something went wrong while adding the user.")
	}

	created, err := s.repo.Create(ctx, User{
		Name:     in.Name,
		Phone:    strings.TrimSpace(in.Phone),
		Password: string(hashed),
		Role:     in.Role,
		Status:   in.Status,
	})
	if err != nil {
		s.log.Error(ctx, "insert user failed", err)
		return User{}, apperr.Wrap(apperr.KindStoreWrite, err, "Something went wrong while adding the user.")
	}
	return created, nil
}

func (s *Service) Update(ctx context.Context, sess session.Session, id int, in Update) (User, error) {
	if err := sess.CheckAdmin(); err != nil {
		return User{}, err
	}
	if in.Name != nil {
		name := strings.TrimSpace(*in.Name)
		if name == "" {
			return User{}, apperr.New(apperr.KindValidation, "User name is required")
		}
		in.Name = &name
	}
	if in.Role != nil && strings.TrimSpace(*in.Role) == "" {
		return User{}, ErrInvalidRole
	}
	if in.Phone != nil {
		phone := strings.TrimSpace(*in.Phone)
		in.Phone = &phone
	}

	updated, err := s.repo.Update(ctx, id, in)
	if err != nil {
		if errors.Is(err, ErrNotFound) {
			return User{}, ErrUserNotFound
		}
		return User{}, apperr.Wrap(apperr.KindStoreWrite, err, "Error updating user")
	}
	return updated, nil
}

// ToggleStatus flips a user between active and inactive. While one toggle
// for an id is running, another for the same id fails with
// ErrToggleInFlight and leaves the store alone.
func (s *Service) ToggleStatus(ctx context.Context, sess session.Session, id int) (User, error) {
	if err := sess.CheckAdmin(); err != nil {
		return User{}, err
	}
	if !s.begin(id) {
		return User{}, ErrToggleInFlight
	}
	defer s.end(id)

	u, err := s.get(ctx, id)
	if err != nil {
		return User{}, err
	}
	next := StatusInactive
	if !u.Active() {
		next = StatusActive
	}
	if err := s.repo.SetStatus(ctx, id, next); err != nil {
		s.log.Error(s.log.WithField(ctx, "target_user_id", id), "update user status failed", err)
		return User{}, apperr.Wrap(apperr.KindStoreWrite, err, "Error updating user status")
	}
	u.Status = next
	return u, nil
}

func (s *Service) begin(id int) bool {
	s.mu.Lock()
	defer s.mu.Unlock()
	if _, busy := s.toggling[id]; busy {
		return false
	}
	s.toggling[id] = struct{}{}
	return true
}

func (s *Service) end(id int) {
	s.mu.Lock()
	delete(s.toggling, id)
	s.mu.Unlock()
}

func (s *Service) Names(ctx context.Context, ids []int) ([]string, error) {
	return s.repo.NamesByIDs(ctx, ids)
}

func (s *Service) DeleteMany(ctx context.Context, ids []int) error {
	return s.repo.DeleteMany(ctx, ids)
}

func (s *Service) get(ctx context.Context, id int) (User, error) {
	u, err := s.repo.GetByID(ctx, id)
	if err != nil {
		if errors.Is(err, ErrNotFound) {
			return User{}, ErrUserNotFound
		}
		return User{}, apperr.Wrap(apperr.KindStoreRead, err, "failed to load user")
	}
	return u, nil
}

func looksLikeBcrypt(value string) bool {
	return len(value) > 4 && value[0:2] == "$2"
}
