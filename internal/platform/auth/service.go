package auth

import (
	"context"
	"database/sql"
	"errors"
	"strings"
	"time"

	"github.com/golang-jwt/jwt/v5"
	"golang.org/x/crypto/bcrypt"

	"BIBLIO-backend/internal/platform/apierr"
	"BIBLIO-backend/internal/platform/clock"
	"BIBLIO-backend/internal/platform/ident"
)

const (
	RoleReader    = "reader"
	RoleLibrarian = "librarian"
	RoleAdmin     = "admin"
)

func ValidRole(r string) bool {
	return r == RoleReader || r == RoleLibrarian || r == RoleAdmin
}

// Principal はリクエスト単位の認証済みユーザー
type Principal struct {
	UserID    string
	Role      string
	TokenID   string
	ExpiresAt time.Time
}

func (p Principal) IsStaff() bool {
	return p.Role == RoleLibrarian || p.Role == RoleAdmin
}

// CanActFor: 本人か職員なら他人のリソースを操作できる
func (p Principal) CanActFor(userID string) bool {
	return p.IsStaff() || p.UserID == userID
}

type TokenVerifier interface {
	Verify(ctx context.Context, token string) (Principal, error)
}

type Service struct {
	store   AccountStore
	secret  []byte
	ttl     time.Duration
	revoker Revoker
	clock   clock.Clock
	ids     ident.IDGen
}

func NewService(db *sql.DB, secret []byte, ttl time.Duration, revoker Revoker) *Service {
	return &Service{
		store:   NewStore(db),
		secret:  secret,
		ttl:     ttl,
		revoker: revoker,
		clock:   clock.Real(),
		ids:     ident.ULID(),
	}
}

func (s *Service) Login(ctx context.Context, id, password string) (string, error) {
	acct, err := s.store.GetByID(ctx, strings.TrimSpace(id))
	if err != nil {
		return "", err
	}
	if acct == nil {
		return "", apierr.ErrUnauthenticated("IDまたはパスワードが間違っています")
	}
	if acct.IsDisabled {
		return "", apierr.ErrForbidden("account disabled")
	}

	if err := bcrypt.CompareHashAndPassword([]byte(acct.PasswordHash), []byte(password)); err != nil {
		return "", apierr.ErrUnauthenticated("IDまたはパスワードが間違っています")
	}

	return s.issue(acct)
}

func (s *Service) issue(acct *Account) (string, error) {
	jti, err := s.ids.New()
	if err != nil {
		return "", err
	}
	now := s.clock.Now()
	token := jwt.NewWithClaims(jwt.SigningMethodHS256, jwt.MapClaims{
		"sub":  acct.ID,
		"role": acct.Role,
		"jti":  jti,
		"iat":  now.Unix(),
		"exp":  now.Add(s.ttl).Unix(),
	})
	return token.SignedString(s.secret)
}

func (s *Service) Register(ctx context.Context, in RegisterRequest) error {
	id := strings.TrimSpace(in.ID)
	if id == "" || len(in.Password) < 8 {
		return apierr.ErrInvalid("id is required and password must be at least 8 characters")
	}
	exists, err := s.store.GetByID(ctx, id)
	if err != nil {
		return err
	}
	if exists != nil {
		return apierr.ErrConflict("ID already exists")
	}

	hash, err := bcrypt.GenerateFromPassword([]byte(in.Password), bcrypt.DefaultCost)
	if err != nil {
		return err
	}

	acct := &Account{
		ID:           id,
		PasswordHash: string(hash),
		Name:         strings.TrimSpace(in.Name),
		Role:         RoleReader,
	}
	if in.Email != nil && strings.TrimSpace(*in.Email) != "" {
		acct.Email = sql.NullString{String: strings.ToLower(strings.TrimSpace(*in.Email)), Valid: true}
	}
	if err := s.store.Create(ctx, acct); err != nil {
		if apierr.IsDuplicateKey(err) {
			return apierr.ErrConflict("ID or email already exists")
		}
		return err
	}
	return nil
}

func (s *Service) Logout(ctx context.Context, p Principal) error {
	if p.TokenID == "" {
		return nil
	}
	return s.revoker.Revoke(ctx, p.TokenID, p.ExpiresAt)
}

func (s *Service) Me(ctx context.Context, id string) (MeResponse, error) {
	acct, err := s.store.GetByID(ctx, id)
	if err != nil {
		return MeResponse{}, err
	}
	if acct == nil {
		return MeResponse{}, apierr.ErrNotFound("user not found")
	}
	out := MeResponse{ID: acct.ID, Name: acct.Name, Role: acct.Role, CreatedAt: acct.CreatedAt}
	if acct.Email.Valid {
		v := acct.Email.String
		out.Email = &v
	}
	return out, nil
}

// Verify: 署名・有効期限・失効を検証して Principal を返す
func (s *Service) Verify(ctx context.Context, tokenStr string) (Principal, error) {
	token, err := jwt.Parse(tokenStr, func(t *jwt.Token) (any, error) {
		// alg 固定（none攻撃とか回避）
		if t.Method.Alg() != jwt.SigningMethodHS256.Alg() {
			return nil, jwt.ErrTokenSignatureInvalid
		}
		return s.secret, nil
	}, jwt.WithValidMethods([]string{jwt.SigningMethodHS256.Alg()}), jwt.WithTimeFunc(s.clock.Now))
	if err != nil || token == nil || !token.Valid {
		return Principal{}, errors.New("invalid token")
	}

	claims, ok := token.Claims.(jwt.MapClaims)
	if !ok {
		return Principal{}, errors.New("invalid claims")
	}
	sub, err := claims.GetSubject()
	if err != nil || sub == "" {
		return Principal{}, errors.New("invalid sub")
	}
	p := Principal{UserID: sub}
	if role, ok := claims["role"].(string); ok {
		p.Role = role
	}
	if jti, ok := claims["jti"].(string); ok {
		p.TokenID = jti
	}
	if exp, err := claims.GetExpirationTime(); err == nil && exp != nil {
		p.ExpiresAt = exp.Time
	}

	if p.TokenID != "" && s.revoker != nil {
		revoked, err := s.revoker.IsRevoked(ctx, p.TokenID)
		if err != nil {
			return Principal{}, err
		}
		if revoked {
			return Principal{}, errors.New("token revoked")
		}
	}
	return p, nil
}
