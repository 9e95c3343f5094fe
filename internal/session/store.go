package session

import (
	"crypto/rand"
	"crypto/sha256"
	"encoding/base64"
	"errors"
	"fmt"
	"net/http"
	"strings"
	"time"

	"github.com/golang-jwt/jwt/v5"
)

const (
	// TokenCookie carries the bearer credential.
	TokenCookie = "token"
	// UserCookie carries the User record as an HS256 JWT bound to the token cookie.
	UserCookie = "user"

	defaultTTL = 7 * 24 * time.Hour
)

var (
	// ErrNoSession is returned when either cookie is missing.
	ErrNoSession = errors.New("session: not signed in")
	// ErrInvalidSession is returned when the cookies cannot be trusted any more.
	ErrInvalidSession = errors.New("session: invalid or expired")
	// ErrUserMismatch is returned when a refresh tries to swap the signed-in user.
	ErrUserMismatch = errors.New("session: refreshed user does not match signed-in user")
)

// Options configures cookie attributes.
type Options struct {
	TTL    time.Duration
	Secure bool
	Domain string
	// Secret signs the user cookie. Empty generates a per-process key, so
	// sessions do not survive a restart.
	Secret string
	Now    func() time.Time
}

// Store reads and writes the session cookies. It holds no per-user state;
// one Store is built at startup and shared by the middleware and handlers.
type Store struct {
	ttl    time.Duration
	secure bool
	domain string
	now    func() time.Time
	secret []byte
	parser *jwt.Parser
}

// userClaims is the payload of the user cookie. TokenHash ties it to one
// bearer token so a user cookie cannot be replayed next to another token.
type userClaims struct {
	User      User   `json:"user"`
	TokenHash string `json:"tkn"`
	jwt.RegisteredClaims
}

// NewStore builds a cookie store.
func NewStore(opts Options) *Store {
	if opts.TTL <= 0 {
		opts.TTL = defaultTTL
	}
	if opts.Now == nil {
		opts.Now = time.Now
	}
	secret := []byte(opts.Secret)
	if len(secret) == 0 {
		secret = make([]byte, 32)
		_, _ = rand.Read(secret)
	}
	return &Store{
		ttl:    opts.TTL,
		secure: opts.Secure,
		domain: strings.TrimSpace(opts.Domain),
		now:    opts.Now,
		secret: secret,
		parser: jwt.NewParser(),
	}
}

// Login writes both cookies for a freshly authenticated user.
func (s *Store) Login(w http.ResponseWriter, user User, token string) (*Session, error) {
	if err := user.Validate(); err != nil {
		return nil, err
	}
	token = strings.TrimSpace(token)
	if token == "" {
		return nil, fmt.Errorf("session: token is required")
	}
	encoded, err := s.encodeUser(user, token)
	if err != nil {
		return nil, err
	}
	http.SetCookie(w, s.cookie(TokenCookie, token, s.ttl))
	http.SetCookie(w, s.cookie(UserCookie, encoded, s.ttl))
	return &Session{User: user, Token: token}, nil
}

// Logout clears both cookies together.
func (s *Store) Logout(w http.ResponseWriter) {
	http.SetCookie(w, s.cookie(TokenCookie, "", -1))
	http.SetCookie(w, s.cookie(UserCookie, "", -1))
}

// Refresh replaces the stored user wholesale, keeping the token. The uid must not change.
func (s *Store) Refresh(w http.ResponseWriter, current *Session, updated User) (*Session, error) {
	if !current.IsAuthenticated() {
		return nil, ErrNoSession
	}
	if updated.UID != current.User.UID {
		return nil, ErrUserMismatch
	}
	return s.Login(w, updated, current.Token)
}

// Load decodes the session from the request cookies. When the cookies are
// present but unusable both are cleared on w.
func (s *Store) Load(w http.ResponseWriter, r *http.Request) (*Session, error) {
	tokenCookie, err := r.Cookie(TokenCookie)
	if err != nil || tokenCookie.Value == "" {
		return nil, ErrNoSession
	}
	userCookie, err := r.Cookie(UserCookie)
	if err != nil || userCookie.Value == "" {
		return nil, ErrNoSession
	}

	user, err := s.decodeUser(userCookie.Value, tokenCookie.Value)
	if err != nil {
		s.Logout(w)
		return nil, fmt.Errorf("%w: %v", ErrInvalidSession, err)
	}
	if s.expired(tokenCookie.Value) {
		s.Logout(w)
		return nil, fmt.Errorf("%w: token expired", ErrInvalidSession)
	}
	return &Session{User: user, Token: tokenCookie.Value}, nil
}

// expired reports whether token is a JWT whose exp claim has passed. Opaque
// tokens are accepted as-is; the REST API verifies signatures.
func (s *Store) expired(token string) bool {
	if strings.Count(token, ".") != 2 {
		return false
	}
	claims := jwt.MapClaims{}
	if _, _, err := s.parser.ParseUnverified(token, claims); err != nil {
		return false
	}
	exp, err := claims.GetExpirationTime()
	if err != nil || exp == nil {
		return false
	}
	return !s.now().Before(exp.Time)
}

func (s *Store) cookie(name, value string, maxAge time.Duration) *http.Cookie {
	c := &http.Cookie{
		Name:     name,
		Value:    value,
		Path:     "/",
		Domain:   s.domain,
		HttpOnly: true,
		Secure:   s.secure,
		SameSite: http.SameSiteLaxMode,
	}
	if maxAge < 0 {
		c.MaxAge = -1
		c.Expires = time.Unix(0, 0)
		return c
	}
	c.MaxAge = int(maxAge.Seconds())
	c.Expires = s.now().Add(maxAge)
	return c
}

func (s *Store) encodeUser(user User, token string) (string, error) {
	claims := userClaims{
		User:      user,
		TokenHash: tokenHash(token),
		RegisteredClaims: jwt.RegisteredClaims{
			Subject:  user.UID,
			IssuedAt: jwt.NewNumericDate(s.now()),
		},
	}
	signed, err := jwt.NewWithClaims(jwt.SigningMethodHS256, claims).SignedString(s.secret)
	if err != nil {
		return "", fmt.Errorf("session: encode user: %w", err)
	}
	return signed, nil
}

// decodeUser verifies the user cookie signature and its binding to token.
func (s *Store) decodeUser(raw, token string) (User, error) {
	claims := &userClaims{}
	_, err := jwt.ParseWithClaims(raw, claims, func(*jwt.Token) (any, error) {
		return s.secret, nil
	}, jwt.WithValidMethods([]string{jwt.SigningMethodHS256.Alg()}), jwt.WithTimeFunc(s.now))
	if err != nil {
		return User{}, fmt.Errorf("decode user cookie: %w", err)
	}
	if claims.TokenHash != tokenHash(token) {
		return User{}, errors.New("decode user cookie: token mismatch")
	}
	if claims.Subject != claims.User.UID {
		return User{}, errors.New("decode user cookie: subject mismatch")
	}
	if err := claims.User.Validate(); err != nil {
		return User{}, err
	}
	return claims.User, nil
}

func tokenHash(token string) string {
	sum := sha256.Sum256([]byte(token))
	return base64.RawURLEncoding.EncodeToString(sum[:])
}
