package jwt

import (
	"errors"
	"time"

	"github.com/golang-jwt/jwt/v5"
)

// MinSecretBytes is the minimum accepted length of the shared signing secret.
const MinSecretBytes = 32

var (
	// ErrTokenMalformed is returned when a token is not a parseable three-part string.
	ErrTokenMalformed = errors.New("token malformed")
	// ErrSignatureInvalid is returned when the signature does not verify against the secret.
	ErrSignatureInvalid = errors.New("token signature invalid")
	// ErrTokenExpired is returned when a correctly signed token is past its exp claim.
	ErrTokenExpired = errors.New("token expired")
	// ErrClaimsInvalid is returned when a verified token is missing required claims.
	ErrClaimsInvalid = errors.New("token claims invalid")
)

// Config defines the immutable codec parameters.
//
// Config instances are intended to be constructed once at process start and then
// treated as immutable.
type Config struct {
	Secret     []byte
	Issuer     string
	AccessTTL  time.Duration
	RefreshTTL time.Duration
	Leeway     time.Duration
}

// Manager encodes and decodes the two claim sets. All methods are safe for
// concurrent use.
type Manager struct {
	config Config
}

// AccessClaims is the access-token claim set: sub, email, iat, exp.
type AccessClaims struct {
	Email string `json:"email"`
	jwt.RegisteredClaims
}

// RefreshClaims is the refresh-token claim set: sub, family_id, jti, iat, exp.
// The jti is carried in the registered ID claim.
type RefreshClaims struct {
	FamilyID string `json:"family_id"`
	jwt.RegisteredClaims
}

// NewManager validates cfg and returns a ready codec.
func NewManager(cfg Config) (*Manager, error) {
	if len(cfg.Secret) < MinSecretBytes {
		return nil, errors.New("signing secret must be at least 32 bytes")
	}
	if cfg.AccessTTL <= 0 || cfg.RefreshTTL <= 0 {
		return nil, errors.New("invalid TTL configuration")
	}
	if cfg.Leeway < 0 || cfg.Leeway > 2*time.Minute {
		return nil, errors.New("invalid leeway configuration")
	}

	return &Manager{config: cfg}, nil
}

// AccessTTL reports the configured access-token lifetime.
func (m *Manager) AccessTTL() time.Duration { return m.config.AccessTTL }

// RefreshTTL reports the configured refresh-token lifetime.
func (m *Manager) RefreshTTL() time.Duration { return m.config.RefreshTTL }

// CreateAccess mints a signed access token for the user.
func (m *Manager) CreateAccess(userID, email string) (string, error) {
	now := time.Now()
	claims := AccessClaims{
		Email: email,
		RegisteredClaims: jwt.RegisteredClaims{
			Subject:   userID,
			Issuer:    m.config.Issuer,
			IssuedAt:  jwt.NewNumericDate(now),
			ExpiresAt: jwt.NewNumericDate(now.Add(m.config.AccessTTL)),
		},
	}

	return jwt.NewWithClaims(jwt.SigningMethodHS256, claims).SignedString(m.config.Secret)
}

// CreateRefresh mints a signed refresh token carrying the family and jti that
// the rotation store will compare-and-swap on.
func (m *Manager) CreateRefresh(userID, familyID, jti string) (string, error) {
	now := time.Now()
	claims := RefreshClaims{
		FamilyID: familyID,
		RegisteredClaims: jwt.RegisteredClaims{
			Subject:   userID,
			ID:        jti,
			Issuer:    m.config.Issuer,
			IssuedAt:  jwt.NewNumericDate(now),
			ExpiresAt: jwt.NewNumericDate(now.Add(m.config.RefreshTTL)),
		},
	}

	return jwt.NewWithClaims(jwt.SigningMethodHS256, claims).SignedString(m.config.Secret)
}

// ParseAccess verifies an access token and returns its claims. The email
// claim is required; refresh tokens never carry it, so a refresh token
// presented as an access token fails here even though its signature verifies.
func (m *Manager) ParseAccess(tokenStr string) (*AccessClaims, error) {
	claims := &AccessClaims{}
	if err := m.parse(tokenStr, claims); err != nil {
		return nil, err
	}
	if claims.Subject == "" || claims.Email == "" {
		return nil, ErrClaimsInvalid
	}

	return claims, nil
}

// ParseRefresh verifies a refresh token and returns its claims. The family and
// jti claims are required; a signed token without them is rejected.
func (m *Manager) ParseRefresh(tokenStr string) (*RefreshClaims, error) {
	claims := &RefreshClaims{}
	if err := m.parse(tokenStr, claims); err != nil {
		return nil, err
	}
	if claims.Subject == "" || claims.FamilyID == "" || claims.ID == "" {
		return nil, ErrClaimsInvalid
	}

	return claims, nil
}

func (m *Manager) parse(tokenStr string, claims jwt.Claims) error {
	options := []jwt.ParserOption{
		jwt.WithValidMethods([]string{jwt.SigningMethodHS256.Alg()}),
		jwt.WithExpirationRequired(),
	}
	if m.config.Leeway > 0 {
		options = append(options, jwt.WithLeeway(m.config.Leeway))
	}
	if m.config.Issuer != "" {
		options = append(options, jwt.WithIssuer(m.config.Issuer))
	}

	parser := jwt.NewParser(options...)
	token, err := parser.ParseWithClaims(tokenStr, claims, func(t *jwt.Token) (interface{}, error) {
		return m.config.Secret, nil
	})
	if err != nil {
		return classifyParseError(err)
	}
	if !token.Valid {
		return ErrClaimsInvalid
	}

	return nil
}

// classifyParseError maps the library's joined errors onto the package
// sentinels. Signature failures are checked before expiry: an attacker-supplied
// token with a bad signature must never be reported as merely expired.
func classifyParseError(err error) error {
	switch {
	case errors.Is(err, jwt.ErrTokenMalformed):
		return ErrTokenMalformed
	case errors.Is(err, jwt.ErrTokenSignatureInvalid),
		errors.Is(err, jwt.ErrTokenUnverifiable):
		return ErrSignatureInvalid
	case errors.Is(err, jwt.ErrTokenExpired):
		return ErrTokenExpired
	default:
		return ErrClaimsInvalid
	}
}
