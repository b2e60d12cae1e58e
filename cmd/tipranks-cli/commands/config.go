package commands

import (
	"errors"
	"fmt"
	"os"
	"time"
	"tipranks-client/internal/credentials"
	"tipranks-client/lib/configutil"
	"tipranks-client/lib/platforms/tipranks"
	"tipranks-client/lib/platforms/tipranks/browserlogin"
	"tipranks-client/lib/sessionstore"
)

const defaultConfigName = "tipranks.json5"

const (
	loginDirect  = "direct"
	loginBrowser = "browser"
	loginCookie  = "cookie"
)

type ChromeConfig struct {
	ExecPath string `json:"exec_path"`
	Headful  bool   `json:"headful"`
}

type GatewayConfig struct {
	Listen       string `json:"listen"`
	AccessToken  string `json:"access_token"`
	CacheSeconds int    `json:"cache_seconds"`
}

type Config struct {
	Email string `json:"email"`
	// Password may be left out when Keyring is set.
	Password string `json:"password"`
	Keyring  bool   `json:"keyring"`
	// LoginMode is one of "direct" (default), "browser" or "cookie".
	LoginMode string `json:"login_mode"`
	Cookie    string `json:"cookie"`

	BaseUrl                 string  `json:"base_url"`
	RequestsPerSecond       float64 `json:"requests_per_second"`
	TimeoutSeconds          int     `json:"timeout_seconds"`
	DisableCloudflareBypass bool    `json:"disable_cloudflare_bypass"`

	SessionStore      sessionstore.Config `json:"session_store"`
	SessionTtlMinutes int                 `json:"session_ttl_minutes"`

	Chrome  ChromeConfig  `json:"chrome"`
	Gateway GatewayConfig `json:"gateway"`
}

func readConfig() (Config, error) {
	if configPath != "" {
		return configutil.ReadConfig[Config](configPath)
	}
	cfg, err := configutil.ReadRecursively[Config](defaultConfigName)
	if errors.Is(err, os.ErrNotExist) {
		return Config{}, fmt.Errorf("could not find %s in the current directory or any of its parents", defaultConfigName)
	}
	return cfg, err
}

func (c Config) loginMode() string {
	if c.LoginMode == "" {
		return loginDirect
	}
	return c.LoginMode
}

func (c Config) baseUrl() string {
	if c.BaseUrl != "" {
		return c.BaseUrl
	}
	if c.loginMode() == loginDirect {
		return tipranks.MobileBaseUrl
	}
	// browser cookies are only accepted by the web api
	return tipranks.WebBaseUrl
}

func (c Config) password() (string, error) {
	if c.Keyring {
		return credentials.Resolve(c.Email, c.Password)
	}
	if c.Password == "" {
		return "", fmt.Errorf("no password configured for %s, set password or enable keyring", c.Email)
	}
	return c.Password, nil
}

// sessionKey identifies the cached session of the configured account.
func (c Config) sessionKey() string {
	return fmt.Sprintf("%s:%s", c.loginMode(), c.Email)
}

const defaultSessionTtl = time.Hour * 12

// sessionTtl bounds how long a cached session is reused, sessions without a
// token cookie carry no expiry of their own.
func (c Config) sessionTtl() time.Duration {
	if c.SessionTtlMinutes <= 0 {
		return defaultSessionTtl
	}
	return time.Duration(c.SessionTtlMinutes) * time.Minute
}

// authenticator builds the login described by the config, wrapped in a cache
// when store is not nil.
func (c Config) authenticator(store tipranks.SessionStore) (tipranks.Authenticator, error) {
	var inner tipranks.Authenticator
	switch c.loginMode() {
	case loginCookie:
		// a configured cookie is already a session, there is nothing to cache
		return tipranks.CookieLogin{Cookie: c.Cookie}, nil
	case loginDirect, loginBrowser:
		if c.Email == "" {
			return nil, fmt.Errorf("no email configured")
		}
		password, err := c.password()
		if err != nil {
			return nil, err
		}
		if c.loginMode() == loginDirect {
			inner = tipranks.DirectLogin{Email: c.Email, Password: password}
			break
		}
		inner = browserlogin.Authenticator{
			Email:    c.Email,
			Password: password,
			Options: browserlogin.Options{
				Chrome: browserlogin.ChromeOptions{
					ExecPath: c.Chrome.ExecPath,
					Headful:  c.Chrome.Headful,
				},
			},
		}
	default:
		return nil, &tipranks.ArgumentError{
			Argument: "login mode",
			Value:    c.LoginMode,
			Choices:  []string{loginDirect, loginBrowser, loginCookie},
		}
	}

	if store == nil {
		return inner, nil
	}
	return tipranks.CachedAuthenticator{
		Store: store,
		Key:   c.sessionKey(),
		TTL:   c.sessionTtl(),
		Inner: inner,
	}, nil
}
