package auth

import (
	"context"
	"errors"
	"fmt"
	"math"
	"regexp"
	"strconv"
	"strings"
	"sync"
	"time"

	"github.com/rs/zerolog"
	"storefront/internal/clock"
	"storefront/internal/domain"
	"storefront/internal/repository/slot"
)

// StorageKey is the durable slot holding the authenticated identity.
const StorageKey = "auth-storage"

// ErrAlreadyAuthenticated is returned by SendOTP on a logged-in session.
var ErrAlreadyAuthenticated = errors.New("already authenticated")

var (
	otpPattern   = regexp.MustCompile(`^[0-9]{6}$`)
	errBadOTPLen = domain.NewValidationError("otp", "Please enter a valid 6-digit OTP")
)

type State int

const (
	Anonymous State = iota
	OtpPending
	Authenticated
)

func (s State) String() string {
	switch s {
	case OtpPending:
		return "otp_pending"
	case Authenticated:
		return "authenticated"
	default:
		return "anonymous"
	}
}

func (s State) MarshalText() ([]byte, error) {
	return []byte(s.String()), nil
}

func (s *State) UnmarshalText(text []byte) error {
	switch string(text) {
	case "anonymous":
		*s = Anonymous
	case "otp_pending":
		*s = OtpPending
	case "authenticated":
		*s = Authenticated
	default:
		return fmt.Errorf("unknown session state %q", text)
	}
	return nil
}

// StoreBinder scopes the cart and wishlist to an identity.
type StoreBinder interface {
	Bind(ctx context.Context, userID string) error
	Release(ctx context.Context) error
}

type Config struct {
	OtpExpiry      time.Duration
	ResendCooldown time.Duration
}

var DefaultConfig = Config{
	OtpExpiry:      300 * time.Second,
	ResendCooldown: 30 * time.Second,
}

// View is a point-in-time copy of the session for rendering.
type View struct {
	State            State                 `json:"state"`
	IdentifierType   domain.IdentifierType `json:"identifierType,omitempty"`
	MaskedIdentifier string                `json:"maskedIdentifier,omitempty"`
	CanResend        bool                  `json:"canResend"`
	ResendIn         int                   `json:"resendIn"`
	ExpiresIn        int                   `json:"expiresIn"`
	User             *domain.User          `json:"user,omitempty"`
	IsAuthenticated  bool                  `json:"isAuthenticated"`
	IsNewUser        bool                  `json:"isNewUser"`
}

type persistedAuth struct {
	User            *domain.User `json:"user"`
	AccessToken     string       `json:"accessToken"`
	RefreshToken    string       `json:"refreshToken"`
	IsAuthenticated bool         `json:"isAuthenticated"`
}

type verification struct {
	id        Identifier
	expiresAt time.Time
	resendAt  time.Time
	canResend bool
}

// Session is the login state machine of one client. It owns the OTP expiry
// and resend cooldown tasks and stops them on every exit from OtpPending.
type Session struct {
	mu      sync.Mutex
	backend Backend
	repo    slot.Repository
	stores  StoreBinder
	clock   clock.Clock
	cfg     Config
	logger  zerolog.Logger

	state        State
	pending      *verification
	user         *domain.User
	accessToken  string
	refreshToken string
	isNewUser    bool

	expiryTask   clock.Task
	cooldownTask clock.Task
	generation   uint64
}

func NewSession(backend Backend, repo slot.Repository, stores StoreBinder, clk clock.Clock, cfg Config, logger zerolog.Logger) *Session {
	if cfg.OtpExpiry <= 0 {
		cfg.OtpExpiry = DefaultConfig.OtpExpiry
	}
	if cfg.ResendCooldown <= 0 {
		cfg.ResendCooldown = DefaultConfig.ResendCooldown
	}
	return &Session{
		backend: backend,
		repo:    repo,
		stores:  stores,
		clock:   clk,
		cfg:     cfg,
		logger:  logger,
	}
}

// Restore loads a previously authenticated identity and binds the stores
// to it. Without one the stores are bound to the guest namespace.
func (s *Session) Restore(ctx context.Context) error {
	var saved persistedAuth
	found, err := slot.Read(ctx, s.repo, StorageKey, &saved)
	if err != nil {
		if !errors.Is(err, slot.ErrCorrupt) {
			return err
		}
		s.logger.Warn().Err(err).Msg("discarding corrupt auth slot")
		if err := s.repo.Delete(ctx, StorageKey); err != nil && !errors.Is(err, domain.ErrNotFound) {
			return err
		}
		found = false
	}
	if !found || !saved.IsAuthenticated || saved.User == nil {
		return s.stores.Bind(ctx, "")
	}

	s.mu.Lock()
	s.stopTasksLocked()
	s.generation++
	s.state = Authenticated
	s.pending = nil
	s.user = saved.User
	s.accessToken = saved.AccessToken
	s.refreshToken = saved.RefreshToken
	s.isNewUser = saved.User.NeedsProfile()
	userID := saved.User.ID
	s.mu.Unlock()

	s.logger.Debug().Int("user_id", userID).Msg("session restored")
	return s.stores.Bind(ctx, strconv.Itoa(userID))
}

// SendOTP starts a verification for raw. A pending verification is only
// replaced once its resend cooldown has elapsed.
func (s *Session) SendOTP(ctx context.Context, raw string) (Challenge, error) {
	id, err := ParseIdentifier(raw)
	if err != nil {
		return Challenge{}, err
	}

	s.mu.Lock()
	if err := s.sendAllowedLocked(); err != nil {
		s.mu.Unlock()
		return Challenge{}, err
	}
	s.mu.Unlock()

	challenge, err := s.backend.SendOTP(ctx, id)
	if err != nil {
		return Challenge{}, err
	}

	s.mu.Lock()
	defer s.mu.Unlock()
	if err := s.sendAllowedLocked(); err != nil {
		return Challenge{}, err
	}
	s.startVerificationLocked(id)
	s.logger.Info().Str("identifier", challenge.Masked).Bool("new_user", challenge.IsNewUser).Msg("otp sent")
	return challenge, nil
}

// VerifyOTP checks code against the pending verification.
func (s *Session) VerifyOTP(ctx context.Context, code string) (View, error) {
	code = strings.TrimSpace(code)
	if !otpPattern.MatchString(code) {
		return View{}, errBadOTPLen
	}

	s.mu.Lock()
	if s.state != OtpPending || s.pending == nil {
		s.mu.Unlock()
		return View{}, domain.ErrNoPendingVerification
	}
	id := s.pending.id
	gen := s.generation
	s.mu.Unlock()

	grant, err := s.backend.VerifyOTP(ctx, id, code)

	s.mu.Lock()
	if gen != s.generation {
		s.mu.Unlock()
		if err != nil {
			return View{}, err
		}
		return View{}, domain.ErrNoPendingVerification
	}
	if err != nil {
		if errors.Is(err, domain.ErrOtpExpired) || errors.Is(err, domain.ErrOtpAttemptsExceeded) {
			s.abandonLocked()
			s.logger.Info().Str("identifier", Mask(id)).Err(err).Msg("verification ended")
		}
		s.mu.Unlock()
		return View{}, err
	}
	s.mu.Unlock()

	// The identity is committed only after the stores and the auth slot
	// accept it. The backend has consumed the code, so a failure here ends
	// the verification.
	user := grant.User
	if err := s.stores.Bind(ctx, strconv.Itoa(user.ID)); err != nil {
		s.failVerification(ctx, gen, false, err)
		return View{}, err
	}
	saved := persistedAuth{
		User:            &user,
		AccessToken:     grant.AccessToken,
		RefreshToken:    grant.RefreshToken,
		IsAuthenticated: true,
	}
	if err := slot.Write(ctx, s.repo, StorageKey, saved); err != nil {
		s.failVerification(ctx, gen, true, err)
		return View{}, err
	}

	s.mu.Lock()
	if gen != s.generation {
		s.mu.Unlock()
		s.failVerification(ctx, gen, true, domain.ErrNoPendingVerification)
		return View{}, domain.ErrNoPendingVerification
	}
	s.stopTasksLocked()
	s.generation++
	s.state = Authenticated
	s.pending = nil
	s.user = &user
	s.accessToken = grant.AccessToken
	s.refreshToken = grant.RefreshToken
	s.isNewUser = user.NeedsProfile()
	view := s.viewLocked()
	s.mu.Unlock()

	s.logger.Info().Int("user_id", user.ID).Bool("new_user", view.IsNewUser).Msg("otp verified")
	return view, nil
}

// failVerification undoes a partly applied login: the stores go back to
// guest, a written auth slot is removed, and the verification of generation
// gen is abandoned if it is still current.
func (s *Session) failVerification(ctx context.Context, gen uint64, wroteAuth bool, cause error) {
	s.mu.Lock()
	authed := s.state == Authenticated
	s.mu.Unlock()
	if authed {
		return
	}
	s.logger.Warn().Err(cause).Msg("login not committed")
	if err := s.stores.Bind(ctx, ""); err != nil {
		s.logger.Warn().Err(err).Msg("rebind guest stores")
	}
	if wroteAuth {
		if err := s.repo.Delete(ctx, StorageKey); err != nil && !errors.Is(err, domain.ErrNotFound) {
			s.logger.Warn().Err(err).Msg("remove auth slot")
		}
	}
	s.mu.Lock()
	defer s.mu.Unlock()
	if gen == s.generation && s.state == OtpPending {
		s.abandonLocked()
	}
}

// ResendOTP issues a new code for the pending identifier once the cooldown
// has elapsed. Both tasks restart.
func (s *Session) ResendOTP(ctx context.Context) (Challenge, error) {
	s.mu.Lock()
	if s.state != OtpPending || s.pending == nil {
		s.mu.Unlock()
		return Challenge{}, domain.ErrNoPendingVerification
	}
	if !s.pending.canResend {
		remaining := s.pending.resendAt.Sub(s.clock.Now())
		s.mu.Unlock()
		return Challenge{}, &domain.CooldownError{Remaining: remaining}
	}
	id := s.pending.id
	gen := s.generation
	s.mu.Unlock()

	challenge, err := s.backend.SendOTP(ctx, id)
	if err != nil {
		return Challenge{}, err
	}

	s.mu.Lock()
	defer s.mu.Unlock()
	if gen != s.generation {
		return Challenge{}, domain.ErrNoPendingVerification
	}
	s.startVerificationLocked(id)
	s.logger.Info().Str("identifier", challenge.Masked).Msg("otp resent")
	return challenge, nil
}

// CompleteProfile records the profile of a newly created user.
func (s *Session) CompleteProfile(ctx context.Context, in ProfileInput) (*domain.User, error) {
	s.mu.Lock()
	if s.state != Authenticated || s.user == nil {
		s.mu.Unlock()
		return nil, domain.ErrNotAuthenticated
	}
	userID := s.user.ID
	gen := s.generation
	s.mu.Unlock()

	user, err := s.backend.CompleteProfile(ctx, userID, in)
	if err != nil {
		return nil, err
	}

	s.mu.Lock()
	if gen != s.generation {
		s.mu.Unlock()
		return nil, domain.ErrNotAuthenticated
	}
	updated := *user
	s.user = &updated
	s.isNewUser = false
	saved := s.persistedLocked()
	s.mu.Unlock()

	if err := slot.Write(ctx, s.repo, StorageKey, saved); err != nil {
		return nil, err
	}
	return user, nil
}

// Logout drops the identity and its tokens. The cart and wishlist of the
// user are cleared and the stores fall back to guest.
func (s *Session) Logout(ctx context.Context) error {
	s.mu.Lock()
	wasAuthenticated := s.state == Authenticated
	var userID int
	if s.user != nil {
		userID = s.user.ID
	}
	s.stopTasksLocked()
	s.generation++
	s.state = Anonymous
	s.pending = nil
	s.user = nil
	s.accessToken = ""
	s.refreshToken = ""
	s.isNewUser = false
	s.mu.Unlock()

	if err := s.repo.Delete(ctx, StorageKey); err != nil && !errors.Is(err, domain.ErrNotFound) {
		return err
	}
	if !wasAuthenticated {
		return nil
	}
	if err := s.stores.Release(ctx); err != nil {
		return err
	}
	s.logger.Info().Int("user_id", userID).Msg("logged out")
	return nil
}

// Reset abandons a pending verification, for example when the user wants
// to change the identifier.
func (s *Session) Reset() {
	s.mu.Lock()
	defer s.mu.Unlock()
	if s.state == OtpPending {
		s.abandonLocked()
	}
}

// Close stops every scheduled task. The session stays readable.
func (s *Session) Close() {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.stopTasksLocked()
	s.generation++
}

func (s *Session) View() View {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.viewLocked()
}

// AccessToken returns the current token, empty when not authenticated.
func (s *Session) AccessToken() string {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.accessToken
}

func (s *Session) sendAllowedLocked() error {
	switch {
	case s.state == Authenticated:
		return ErrAlreadyAuthenticated
	case s.state == OtpPending && s.pending != nil && !s.pending.canResend:
		return &domain.CooldownError{Remaining: s.pending.resendAt.Sub(s.clock.Now())}
	}
	return nil
}

func (s *Session) startVerificationLocked(id Identifier) {
	s.stopTasksLocked()
	s.generation++
	gen := s.generation
	now := s.clock.Now()
	s.state = OtpPending
	s.pending = &verification{
		id:        id,
		expiresAt: now.Add(s.cfg.OtpExpiry),
		resendAt:  now.Add(s.cfg.ResendCooldown),
	}
	s.expiryTask = s.clock.AfterFunc(s.cfg.OtpExpiry, func() { s.expire(gen) })
	s.cooldownTask = s.clock.AfterFunc(s.cfg.ResendCooldown, func() { s.cooldownElapsed(gen) })
}

func (s *Session) expire(gen uint64) {
	s.mu.Lock()
	defer s.mu.Unlock()
	if gen != s.generation || s.state != OtpPending {
		return
	}
	masked := Mask(s.pending.id)
	s.abandonLocked()
	s.logger.Info().Str("identifier", masked).Msg("otp expired")
}

func (s *Session) cooldownElapsed(gen uint64) {
	s.mu.Lock()
	defer s.mu.Unlock()
	if gen != s.generation || s.pending == nil {
		return
	}
	s.cooldownTask = nil
	s.pending.canResend = true
}

func (s *Session) abandonLocked() {
	s.stopTasksLocked()
	s.generation++
	s.state = Anonymous
	s.pending = nil
}

func (s *Session) stopTasksLocked() {
	if s.expiryTask != nil {
		s.expiryTask.Stop()
		s.expiryTask = nil
	}
	if s.cooldownTask != nil {
		s.cooldownTask.Stop()
		s.cooldownTask = nil
	}
}

func (s *Session) persistedLocked() persistedAuth {
	var user *domain.User
	if s.user != nil {
		u := *s.user
		user = &u
	}
	return persistedAuth{
		User:            user,
		AccessToken:     s.accessToken,
		RefreshToken:    s.refreshToken,
		IsAuthenticated: s.state == Authenticated,
	}
}

func (s *Session) viewLocked() View {
	v := View{
		State:           s.state,
		IsAuthenticated: s.state == Authenticated,
		IsNewUser:       s.isNewUser,
	}
	if s.user != nil {
		u := *s.user
		v.User = &u
	}
	if p := s.pending; p != nil {
		now := s.clock.Now()
		v.IdentifierType = p.id.Type
		v.MaskedIdentifier = Mask(p.id)
		v.CanResend = p.canResend
		if !p.canResend {
			v.ResendIn = ceilSeconds(p.resendAt.Sub(now))
		}
		v.ExpiresIn = ceilSeconds(p.expiresAt.Sub(now))
	}
	return v
}

func ceilSeconds(d time.Duration) int {
	if d <= 0 {
		return 0
	}
	return int(math.Ceil(d.Seconds()))
}
