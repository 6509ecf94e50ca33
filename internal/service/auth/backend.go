package auth

import (
	"context"
	"crypto/rand"
	"crypto/subtle"
	"encoding/base64"
	"net/url"
	"strings"
	"sync"
	"time"

	"github.com/rs/zerolog"
	"storefront/internal/clock"
	"storefront/internal/domain"
)

// Challenge describes an issued OTP.
type Challenge struct {
	Type      domain.IdentifierType `json:"type"`
	Masked    string                `json:"maskedIdentifier"`
	IsNewUser bool                  `json:"isNewUser"`
}

// Grant is the result of a successful verification.
type Grant struct {
	User         domain.User
	AccessToken  string
	RefreshToken string
}

// ProfileInput carries the fields collected from a new user after login.
type ProfileInput struct {
	Name       string `json:"name"`
	Phone      string `json:"phone"`
	Email      string `json:"email"`
	Newsletter bool   `json:"newsletter"`
	SMSUpdates bool   `json:"smsUpdates"`
}

// Backend issues and checks one-time passwords and owns user records.
type Backend interface {
	SendOTP(ctx context.Context, id Identifier) (Challenge, error)
	VerifyOTP(ctx context.Context, id Identifier, code string) (Grant, error)
	CompleteProfile(ctx context.Context, userID int, in ProfileInput) (*domain.User, error)
}

// BackendConfig tunes the mock backend.
type BackendConfig struct {
	Code        string
	Expiry      time.Duration
	MaxAttempts int
}

// DefaultBackendConfig matches the storefront's test backend.
var DefaultBackendConfig = BackendConfig{
	Code:        "123456",
	Expiry:      300 * time.Second,
	MaxAttempts: 3,
}

type otpEntry struct {
	code     string
	user     domain.User
	issuedAt time.Time
	attempts int
}

// MockBackend is an in-memory Backend with a fixed code. At most one OTP is
// live per normalized identifier; sending again replaces it.
type MockBackend struct {
	mu     sync.Mutex
	cfg    BackendConfig
	clock  clock.Clock
	logger zerolog.Logger
	users  map[int]domain.User
	nextID int
	otps   map[string]*otpEntry

	// provisioned by SendOTP, moved to users by CompleteProfile
	placeholders map[string]domain.User
}

func NewMockBackend(cfg BackendConfig, clk clock.Clock, logger zerolog.Logger) *MockBackend {
	if cfg.Code == "" {
		cfg.Code = DefaultBackendConfig.Code
	}
	if cfg.Expiry <= 0 {
		cfg.Expiry = DefaultBackendConfig.Expiry
	}
	if cfg.MaxAttempts <= 0 {
		cfg.MaxAttempts = DefaultBackendConfig.MaxAttempts
	}
	b := &MockBackend{
		cfg:    cfg,
		clock:  clk,
		logger: logger,
		users:  make(map[int]domain.User),
		otps:   make(map[string]*otpEntry),

		placeholders: make(map[string]domain.User),
	}
	for _, u := range seedUsers() {
		b.users[u.ID] = u
		if u.ID > b.nextID {
			b.nextID = u.ID
		}
	}
	return b
}

func seedUsers() []domain.User {
	return []domain.User{
		{
			ID:     1,
			Phone:  "+918888888888",
			Email:  "john@example.com",
			Name:   "John Doe",
			Avatar: "https://images.unsplash.com/photo-1472099645785-5658abf4ff4e?w=150",
			Addresses: []domain.Address{{
				ID: 1, Type: "home", Name: "John Doe", Phone: "+918888888888",
				Address: "123 MG Road, Koramangala", City: "Bengaluru", State: "Karnataka",
				Pincode: "560034", IsDefault: true,
			}},
			Preferences: domain.Preferences{Notifications: true, SMSUpdates: true},
		},
		{
			ID:     2,
			Phone:  "+919999999999",
			Email:  "jane@example.com",
			Name:   "Jane Smith",
			Avatar: "https://images.unsplash.com/photo-1494790108755-2616b612b830?w=150",
			Addresses: []domain.Address{{
				ID: 1, Type: "home", Name: "Jane Smith", Phone: "+919999999999",
				Address: "456 Brigade Road, Church Street", City: "Bengaluru", State: "Karnataka",
				Pincode: "560001", IsDefault: true,
			}},
			Preferences: domain.Preferences{Notifications: true, Newsletter: true},
		},
	}
}

// SendOTP issues a code for id, provisioning a placeholder user when the
// identifier is unknown.
func (b *MockBackend) SendOTP(_ context.Context, id Identifier) (Challenge, error) {
	b.mu.Lock()
	defer b.mu.Unlock()

	user, found := b.findLocked(id.Normalized)
	if !found {
		if placeholder, ok := b.placeholders[id.Normalized]; ok {
			user = placeholder
		} else {
			b.nextID++
			user = domain.User{
				ID:          b.nextID,
				Addresses:   []domain.Address{},
				Preferences: domain.Preferences{Notifications: true, SMSUpdates: true},
			}
			if id.Type == domain.IdentifierPhone {
				user.Phone = id.Normalized
			} else {
				user.Email = id.Normalized
			}
			b.placeholders[id.Normalized] = user
		}
		b.logger.Debug().Int("user_id", user.ID).Msg("new user detected, placeholder created")
	}

	b.otps[id.Normalized] = &otpEntry{
		code:     b.cfg.Code,
		user:     user,
		issuedAt: b.clock.Now(),
	}
	return Challenge{Type: id.Type, Masked: Mask(id), IsNewUser: !found}, nil
}

// VerifyOTP checks code. Success, expiry and the last failed attempt all
// consume the OTP.
func (b *MockBackend) VerifyOTP(_ context.Context, id Identifier, code string) (Grant, error) {
	b.mu.Lock()
	defer b.mu.Unlock()

	entry, ok := b.otps[id.Normalized]
	if !ok {
		return Grant{}, domain.ErrOtpExpired
	}
	if b.clock.Now().Sub(entry.issuedAt) > b.cfg.Expiry {
		delete(b.otps, id.Normalized)
		return Grant{}, domain.ErrOtpExpired
	}
	if subtle.ConstantTimeCompare([]byte(code), []byte(entry.code)) != 1 {
		entry.attempts++
		if entry.attempts >= b.cfg.MaxAttempts {
			delete(b.otps, id.Normalized)
			return Grant{}, domain.ErrOtpAttemptsExceeded
		}
		return Grant{}, &domain.InvalidOTPError{Remaining: b.cfg.MaxAttempts - entry.attempts}
	}
	delete(b.otps, id.Normalized)

	access, err := randomToken()
	if err != nil {
		return Grant{}, err
	}
	refresh, err := randomToken()
	if err != nil {
		return Grant{}, err
	}
	return Grant{User: entry.user, AccessToken: access, RefreshToken: refresh}, nil
}

// CompleteProfile stores the profile of userID. A phone number that is
// already on the account cannot be changed here.
func (b *MockBackend) CompleteProfile(_ context.Context, userID int, in ProfileInput) (*domain.User, error) {
	name := strings.TrimSpace(in.Name)
	if name == "" {
		return nil, domain.NewValidationError("name", "Name is required")
	}

	b.mu.Lock()
	defer b.mu.Unlock()

	user, ok := b.users[userID]
	placeholderKey := ""
	if !ok {
		for key, p := range b.placeholders {
			if p.ID == userID {
				user, ok, placeholderKey = p, true, key
				break
			}
		}
	}
	if !ok {
		return nil, domain.ErrNotFound
	}
	if phone := strings.TrimSpace(in.Phone); phone != "" {
		normalized := NormalizePhone(phone)
		if user.Phone != "" && normalized != user.Phone {
			return nil, domain.NewValidationError("phone", "Phone number cannot be changed")
		}
		if !normalizedPhone.MatchString(normalized) {
			return nil, errBadPhoneNumber
		}
		user.Phone = normalized
	}
	if email := strings.TrimSpace(in.Email); email != "" {
		if !emailPattern.MatchString(email) {
			return nil, domain.NewValidationError("email", "Please enter a valid email")
		}
		user.Email = strings.ToLower(email)
	}

	now := b.clock.Now().UTC()
	user.Name = capitalizeName(name)
	user.Avatar = "https://ui-avatars.com/api/?name=" + url.QueryEscape(user.Name) + "&size=150&background=random"
	user.Preferences = domain.Preferences{
		Notifications: true,
		Newsletter:    in.Newsletter,
		SMSUpdates:    in.SMSUpdates,
	}
	if user.CreatedAt == nil {
		user.CreatedAt = &now
	}
	b.users[userID] = user
	if placeholderKey != "" {
		delete(b.placeholders, placeholderKey)
	}
	b.logger.Info().Int("user_id", userID).Msg("profile completed")
	return &user, nil
}

// Users lists the known accounts.
func (b *MockBackend) Users() []domain.User {
	b.mu.Lock()
	defer b.mu.Unlock()
	out := make([]domain.User, 0, len(b.users))
	for id := 1; id <= b.nextID; id++ {
		if u, ok := b.users[id]; ok {
			out = append(out, u)
		}
	}
	return out
}

// Code returns the fixed OTP.
func (b *MockBackend) Code() string {
	return b.cfg.Code
}

func (b *MockBackend) findLocked(normalized string) (domain.User, bool) {
	for _, u := range b.users {
		if u.Phone == normalized || u.Email == normalized {
			return u, true
		}
	}
	return domain.User{}, false
}

func capitalizeName(name string) string {
	words := strings.Fields(strings.ToLower(name))
	for i, w := range words {
		words[i] = strings.ToUpper(w[:1]) + w[1:]
	}
	return strings.Join(words, " ")
}

func randomToken() (string, error) {
	b := make([]byte, 32)
	if _, err := rand.Read(b); err != nil {
		return "", err
	}
	return base64.RawURLEncoding.EncodeToString(b), nil
}
