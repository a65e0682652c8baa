// Package remote is the client for the nutrito.v1 Tables and Auth services.
package remote

import (
	"context"
	"crypto/tls"
	"crypto/x509"
	"errors"
	"fmt"
	"net/url"
	"os"
	"strings"
	"sync"
	"time"

	"github.com/99designs/keyring"
	"github.com/and161185/nutrito/internal/errs"
	"github.com/and161185/nutrito/internal/rpc"
	"go.uber.org/zap"
	"google.golang.org/grpc"
	"google.golang.org/grpc/codes"
	"google.golang.org/grpc/credentials"
	"google.golang.org/grpc/credentials/insecure"
	"google.golang.org/grpc/status"
)

// Config describes how to reach the backend.
type Config struct {
	// URL is grpc://host:port (plaintext), grpcs://host:port or a bare host:port (TLS).
	URL string
	// AnonKey is the project api key sent on every call.
	AnonKey string
	// Insecure skips server certificate verification.
	Insecure bool
	// CACert is an optional PEM bundle for TLS.
	CACert string
	// Keyring stores the session. Nil opens the OS keyring.
	Keyring keyring.Keyring
	// KeyringDir is used by the file keyring backend.
	KeyringDir string
}

// Configured reports whether both connection values are set.
func (c Config) Configured() bool {
	return strings.TrimSpace(c.URL) != "" && strings.TrimSpace(c.AnonKey) != ""
}

// Client talks to the backend. It is safe for concurrent use.
type Client struct {
	cc     *grpc.ClientConn
	tables *rpc.TablesClient
	auth   *rpc.AuthClient
	tokens *TokenStore
	log    *zap.Logger
	now    func() time.Time

	mu        sync.Mutex
	listeners map[int]AuthListener
	nextID    int
}

// New dials the backend lazily. It returns errs.ErrNotConfigured when the
// URL or the api key is missing.
func New(cfg Config, log *zap.Logger, opts ...grpc.DialOption) (*Client, error) {
	if !cfg.Configured() {
		return nil, errs.ErrNotConfigured
	}
	if log == nil {
		log = zap.NewNop()
	}

	target, plaintext, err := ParseTarget(cfg.URL)
	if err != nil {
		return nil, err
	}

	ring := cfg.Keyring
	if ring == nil {
		if ring, err = OpenKeyring(cfg.KeyringDir); err != nil {
			return nil, err
		}
	}
	tokens := NewTokenStore(ring)

	var creds credentials.TransportCredentials
	if plaintext {
		creds = insecure.NewCredentials()
	} else if creds, err = loadTLS(cfg.CACert, cfg.Insecure); err != nil {
		return nil, err
	}

	dialOpts := append([]grpc.DialOption{
		grpc.WithTransportCredentials(creds),
		grpc.WithPerRPCCredentials(sessionCreds{apiKey: cfg.AnonKey, tokens: tokens}),
	}, opts...)

	//nolint:staticcheck // DialContext is supported through 1.x; migrate when grpc.NewClient is stable
	cc, err := grpc.DialContext(context.Background(), target, dialOpts...)
	if err != nil {
		return nil, fmt.Errorf("dial %s: %w", target, err)
	}

	return &Client{
		cc:        cc,
		tables:    rpc.NewTablesClient(cc),
		auth:      rpc.NewAuthClient(cc),
		tokens:    tokens,
		log:       log.Named("remote"),
		now:       time.Now,
		listeners: make(map[int]AuthListener),
	}, nil
}

// Close releases the connection.
func (c *Client) Close() error {
	return c.cc.Close()
}

// ParseTarget turns the configured URL into a dial target.
func ParseTarget(raw string) (target string, plaintext bool, err error) {
	raw = strings.TrimSpace(raw)
	if !strings.Contains(raw, "://") {
		if raw == "" {
			return "", false, fmt.Errorf("empty backend url: %w", errs.ErrInvalidArgument)
		}
		return raw, false, nil
	}

	u, err := url.Parse(raw)
	if err != nil {
		return "", false, fmt.Errorf("parse backend url: %w", err)
	}
	if u.Host == "" {
		return "", false, fmt.Errorf("backend url %q has no host: %w", raw, errs.ErrInvalidArgument)
	}
	switch strings.ToLower(u.Scheme) {
	case "grpc", "http":
		return u.Host, true, nil
	case "grpcs", "https":
		host := u.Host
		if u.Port() == "" {
			host += ":443"
		}
		return host, false, nil
	default:
		return "", false, fmt.Errorf("unsupported scheme %q: %w", u.Scheme, errs.ErrInvalidArgument)
	}
}

func loadTLS(caPath string, skipVerify bool) (credentials.TransportCredentials, error) {
	if skipVerify {
		return credentials.NewTLS(&tls.Config{InsecureSkipVerify: true}), nil
	}
	if caPath == "" {
		return credentials.NewClientTLSFromCert(nil, ""), nil
	}
	pem, err := os.ReadFile(caPath)
	if err != nil {
		return nil, fmt.Errorf("read ca cert: %w", err)
	}
	pool := x509.NewCertPool()
	if !pool.AppendCertsFromPEM(pem) {
		return nil, errors.New("bad CA cert")
	}
	return credentials.NewTLS(&tls.Config{RootCAs: pool}), nil
}

// sessionCreds attaches the api key and, when signed in, the bearer token.
type sessionCreds struct {
	apiKey string
	tokens *TokenStore
}

func (s sessionCreds) GetRequestMetadata(context.Context, ...string) (map[string]string, error) {
	md := map[string]string{"x-api-key": s.apiKey}
	if tok := s.tokens.Token(); tok != "" {
		md["authorization"] = "Bearer " + tok
	}
	return md, nil
}

// grpc:// targets are plaintext.
func (sessionCreds) RequireTransportSecurity() bool { return false }

// fromStatus maps gRPC codes back onto sentinels; the server message is kept.
func fromStatus(err error) error {
	st, ok := status.FromError(err)
	if !ok {
		return err
	}
	var base error
	switch st.Code() {
	case codes.Unauthenticated:
		base = errs.ErrUnauthorized
	case codes.ResourceExhausted:
		base = errs.ErrRateLimited
	case codes.AlreadyExists:
		base = errs.ErrAlreadyExists
	case codes.InvalidArgument:
		base = errs.ErrInvalidArgument
	case codes.NotFound:
		base = errs.ErrNotFound
	case codes.DeadlineExceeded:
		base = context.DeadlineExceeded
	case codes.Canceled:
		base = context.Canceled
	default:
		return errors.New(st.Message())
	}
	return &remoteError{base: base, msg: st.Message()}
}

type remoteError struct {
	base error
	msg  string
}

func (e *remoteError) Error() string { return e.msg }
func (e *remoteError) Unwrap() error { return e.base }
