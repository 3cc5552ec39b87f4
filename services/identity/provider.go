// Package identitysvc authenticates users with bcrypt-hashed passwords and signs sessions as JWTs.
package identitysvc

import (
	"context"
	"fmt"
	"sync"
	"time"

	"github.com/dgrijalva/jwt-go"
	"github.com/google/uuid"
	"github.com/pkg/errors"
	"golang.org/x/crypto/bcrypt"

	"github.com/fonsecajr2/Student-Teacher-Appointment/core"
	"github.com/fonsecajr2/Student-Teacher-Appointment/core/user"
)

var (
	nowFunc = time.Now // mockable

	ErrInvalidCredentials = core.Unauthenticated("invalid email or password")
	ErrInvalidToken       = core.Unauthenticated("invalid or expired token")
	ErrRevokedToken       = core.Unauthenticated("session signed out")

	errMissingCredentials = errors.New("please fill all fields")
)

// Claims represents the authorization claims transmitted via a JWT.
type Claims struct {
	jwt.StandardClaims
	Email string `json:"email,omitempty"`
}

func (c Claims) Identity() user.Identity {
	return user.Identity{ID: c.Subject, Email: c.Email}
}

type Provider struct {
	creds   user.CredentialRepository
	key     []byte
	issuer  string
	ttl     time.Duration
	logger  core.Logger
	method  jwt.SigningMethod
	revoked *denyList

	mu        sync.RWMutex
	listeners map[int]func(*user.Identity)
	nextID    int
}

var _ user.IdentityProvider = (*Provider)(nil)

func NewProvider(creds user.CredentialRepository, conf *core.Config, logger core.Logger) *Provider {
	return &Provider{
		creds:     creds,
		key:       []byte(conf.SecretKey),
		issuer:    conf.AppName,
		ttl:       conf.Server.JWTExpirationDelta,
		logger:    logger,
		method:    jwt.SigningMethodHS256,
		revoked:   newDenyList(),
		listeners: make(map[int]func(*user.Identity)),
	}
}

// SigningKey is the key tokens are signed (and must be verified) with.
func (p *Provider) SigningKey() []byte { return p.key }

// SigningMethod is the name of the algorithm tokens are signed with.
func (p *Provider) SigningMethod() string { return p.method.Alg() }

func (p *Provider) SignUp(ctx context.Context, email, password string) (user.Identity, error) {
	email = core.CleanString(email, true /* lower */)
	if email == "" || password == "" {
		return user.Identity{}, core.NewValidationError(errMissingCredentials)
	}

	hash, err := bcrypt.GenerateFromPassword([]byte(password), bcrypt.DefaultCost)
	if err != nil {
		return user.Identity{}, errors.Wrap(err, "hashing password")
	}
	c, err := p.creds.CreateCredential(ctx, user.Credential{
		ID:           uuid.New().String(),
		Email:        email,
		PasswordHash: hash,
		CreatedAt:    nowFunc().UTC(),
	})
	if err != nil {
		return user.Identity{}, err
	}
	return c.Identity(), nil
}

func (p *Provider) SignIn(ctx context.Context, email, password string) (user.Session, error) {
	email = core.CleanString(email, true /* lower */)
	if email == "" || password == "" {
		return user.Session{}, core.NewValidationError(errMissingCredentials)
	}

	c, err := p.creds.GetCredentialByEmail(ctx, email)
	if err != nil {
		if errors.Is(err, user.ErrIdentityNotFound) {
			return user.Session{}, ErrInvalidCredentials
		}
		return user.Session{}, errors.Wrap(err, "getting credential")
	}
	if err = bcrypt.CompareHashAndPassword(c.PasswordHash, []byte(password)); err != nil {
		return user.Session{}, ErrInvalidCredentials
	}

	now := nowFunc().UTC()
	c.LastLogin = now
	if _, err = p.creds.UpdateCredential(ctx, c); err != nil {
		return user.Session{}, errors.Wrap(err, "setting last login")
	}

	id := c.Identity()
	sess, err := p.newSession(id, now)
	if err != nil {
		return user.Session{}, err
	}
	p.notify(&id)
	return sess, nil
}

func (p *Provider) newSession(id user.Identity, now time.Time) (user.Session, error) {
	expiresAt := now.Add(p.ttl)
	claims := &Claims{
		StandardClaims: jwt.StandardClaims{
			Id:        uuid.New().String(),
			Issuer:    p.issuer,
			Subject:   id.ID,
			ExpiresAt: expiresAt.Unix(),
			IssuedAt:  now.Unix(),
		},
		Email: id.Email,
	}
	token, err := jwt.NewWithClaims(p.method, claims).SignedString(p.key)
	if err != nil {
		return user.Session{}, errors.Wrap(err, "signing token")
	}
	return user.Session{Identity: id, Token: token, ExpiresAt: expiresAt}, nil
}

// SignOut revokes token until it expires.
func (p *Provider) SignOut(_ context.Context, token string) error {
	claims, err := p.parse(token)
	if err != nil {
		return err
	}
	p.revoked.add(claims.Id, time.Unix(claims.ExpiresAt, 0))
	p.notify(nil)
	return nil
}

func (p *Provider) Verify(_ context.Context, token string) (user.Identity, error) {
	claims, err := p.parse(token)
	if err != nil {
		return user.Identity{}, err
	}
	if err = p.CheckClaims(claims); err != nil {
		return user.Identity{}, err
	}
	return claims.Identity(), nil
}

// CheckClaims rejects claims of a signed out session.
func (p *Provider) CheckClaims(claims *Claims) error {
	if p.revoked.has(claims.Id) {
		return ErrRevokedToken
	}
	return nil
}

func (p *Provider) parse(token string) (*Claims, error) {
	claims := new(Claims)
	parsed, err := jwt.ParseWithClaims(token, claims, func(t *jwt.Token) (interface{}, error) {
		if t.Method.Alg() != p.method.Alg() {
			return nil, fmt.Errorf("unexpected signing method %v", t.Header["alg"])
		}
		return p.key, nil
	})
	if err != nil || !parsed.Valid {
		return nil, ErrInvalidToken
	}
	return claims, nil
}

func (p *Provider) DeleteIdentity(ctx context.Context, id string) error {
	return p.creds.DeleteCredential(ctx, id)
}

func (p *Provider) SetPassword(ctx context.Context, id, password string) error {
	c, err := p.creds.GetCredential(ctx, id)
	if err != nil {
		return err
	}
	if c.PasswordHash, err = bcrypt.GenerateFromPassword([]byte(password), bcrypt.DefaultCost); err != nil {
		return errors.Wrap(err, "hashing password")
	}
	_, err = p.creds.UpdateCredential(ctx, c)
	return err
}

// GetIdentityByEmail looks an identity up, for operators.
func (p *Provider) GetIdentityByEmail(ctx context.Context, email string) (user.Identity, error) {
	c, err := p.creds.GetCredentialByEmail(ctx, core.CleanString(email, true /* lower */))
	if err != nil {
		return user.Identity{}, err
	}
	return c.Identity(), nil
}

func (p *Provider) OnIdentityChange(fn func(*user.Identity)) func() {
	p.mu.Lock()
	defer p.mu.Unlock()
	id := p.nextID
	p.nextID++
	p.listeners[id] = fn
	return func() {
		p.mu.Lock()
		delete(p.listeners, id)
		p.mu.Unlock()
	}
}

func (p *Provider) notify(id *user.Identity) {
	p.mu.RLock()
	fns := make([]func(*user.Identity), 0, len(p.listeners))
	for _, fn := range p.listeners {
		fns = append(fns, fn)
	}
	p.mu.RUnlock()

	for _, fn := range fns {
		fn(id)
	}
}

// denyList holds the ids of revoked tokens until they expire anyway.
type denyList struct {
	mu  sync.Mutex
	ids map[string]time.Time
}

func newDenyList() *denyList {
	return &denyList{ids: make(map[string]time.Time)}
}

func (l *denyList) add(id string, expiresAt time.Time) {
	l.mu.Lock()
	defer l.mu.Unlock()
	now := nowFunc()
	for tid, exp := range l.ids {
		if exp.Before(now) {
			delete(l.ids, tid)
		}
	}
	l.ids[id] = expiresAt
}

func (l *denyList) has(id string) bool {
	l.mu.Lock()
	defer l.mu.Unlock()
	_, ok := l.ids[id]
	return ok
}
