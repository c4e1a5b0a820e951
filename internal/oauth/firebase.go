package oauth

import (
	"context"
	"crypto/rsa"
	"encoding/base64"
	"encoding/json"
	"errors"
	"fmt"
	"math/big"
	"net/http"
	"sync"
	"time"

	"github.com/golang-jwt/jwt/v5"
)

const FirebaseJWKSURL = "https://www.googleapis.com/service_accounts/v1/jwk/securetoken@system.gserviceaccount.com"

// KeySet caches RSA public keys published as a JWKS document.
type KeySet struct {
	URL string
	TTL time.Duration

	mu    sync.RWMutex
	keys  map[string]*rsa.PublicKey
	expAt time.Time

	http *http.Client
}

func NewKeySet(url string, ttl time.Duration) *KeySet {
	return &KeySet{
		URL:  url,
		TTL:  ttl,
		keys: make(map[string]*rsa.PublicKey),
		http: &http.Client{Timeout: 5 * time.Second},
	}
}

type jwk struct {
	Kty string `json:"kty"`
	Kid string `json:"kid"`
	N   string `json:"n"`
	E   string `json:"e"`
}

type jwks struct {
	Keys []jwk `json:"keys"`
}

func (k *KeySet) refresh(ctx context.Context) error {
	req, err := http.NewRequestWithContext(ctx, http.MethodGet, k.URL, nil)
	if err != nil {
		return err
	}
	resp, err := k.http.Do(req)
	if err != nil {
		return err
	}
	defer resp.Body.Close()
	if resp.StatusCode != http.StatusOK {
		return fmt.Errorf("jwks: unexpected status %d", resp.StatusCode)
	}

	var doc jwks
	if err := json.NewDecoder(resp.Body).Decode(&doc); err != nil {
		return err
	}
	tmp := make(map[string]*rsa.PublicKey, len(doc.Keys))
	for _, key := range doc.Keys {
		if key.Kty != "RSA" {
			continue
		}
		nb, err := base64.RawURLEncoding.DecodeString(key.N)
		if err != nil {
			continue
		}
		eb, err := base64.RawURLEncoding.DecodeString(key.E)
		if err != nil || len(eb) == 0 {
			continue
		}
		tmp[key.Kid] = &rsa.PublicKey{
			N: new(big.Int).SetBytes(nb),
			E: int(new(big.Int).SetBytes(eb).Int64()),
		}
	}
	k.mu.Lock()
	k.keys = tmp
	k.expAt = time.Now().Add(k.TTL)
	k.mu.Unlock()
	return nil
}

func (k *KeySet) Get(ctx context.Context, kid string) (*rsa.PublicKey, error) {
	k.mu.RLock()
	if pk, ok := k.keys[kid]; ok && time.Now().Before(k.expAt) {
		k.mu.RUnlock()
		return pk, nil
	}
	k.mu.RUnlock()

	if err := k.refresh(ctx); err != nil {
		return nil, err
	}
	k.mu.RLock()
	defer k.mu.RUnlock()
	if pk, ok := k.keys[kid]; ok {
		return pk, nil
	}
	return nil, errors.New("kid not found in JWKS")
}

type firebaseClaims struct {
	Email         string `json:"email"`
	EmailVerified bool   `json:"email_verified"`
	Name          string `json:"name"`
	Picture       string `json:"picture"`
	jwt.RegisteredClaims
}

// FirebaseVerifier verifies Firebase Authentication ID tokens for one project.
type FirebaseVerifier struct {
	projectID string
	keys      *KeySet
}

func NewFirebaseVerifier(projectID string, keys *KeySet) *FirebaseVerifier {
	if keys == nil {
		keys = NewKeySet(FirebaseJWKSURL, time.Hour)
	}
	return &FirebaseVerifier{projectID: projectID, keys: keys}
}

func (f *FirebaseVerifier) Verify(ctx context.Context, raw string) (*Identity, error) {
	if f.projectID == "" {
		return nil, fmt.Errorf("%w: firebase project id is not configured", ErrRejected)
	}
	claims := &firebaseClaims{}
	_, err := jwt.ParseWithClaims(raw, claims, func(t *jwt.Token) (interface{}, error) {
		kid, _ := t.Header["kid"].(string)
		if kid == "" {
			return nil, errors.New("no kid")
		}
		return f.keys.Get(ctx, kid)
	},
		jwt.WithValidMethods([]string{"RS256"}),
		jwt.WithIssuer("https://securetoken.google.com/"+f.projectID),
		jwt.WithAudience(f.projectID),
		jwt.WithExpirationRequired(),
		jwt.WithIssuedAt(),
	)
	if err != nil {
		return nil, classifyJWTErr(err)
	}
	if claims.Subject == "" {
		return nil, fmt.Errorf("%w: empty subject", ErrRejected)
	}
	return &Identity{
		Subject:       claims.Subject,
		Email:         claims.Email,
		EmailVerified: claims.EmailVerified,
		Name:          claims.Name,
		Picture:       claims.Picture,
	}, nil
}

func classifyJWTErr(err error) error {
	switch {
	case errors.Is(err, jwt.ErrTokenExpired):
		return fmt.Errorf("%w: %v", ErrExpired, err)
	case errors.Is(err, jwt.ErrTokenMalformed):
		return fmt.Errorf("%w: %v", ErrMalformed, err)
	default:
		return fmt.Errorf("%w: %v", ErrRejected, err)
	}
}
