package config

import (
	"fmt"
	"net/url"
	"os"
	"strconv"
	"strings"
	"time"

	"github.com/go-playground/validator/v10"
)

const (
	// DatabaseSchemePostgres is the postgres database scheme identifier
	DatabaseSchemePostgres = "postgres"

	OutputText = "text"
	OutputJSON = "json"
)

type Config struct {
	HorizonURL  string `validate:"omitempty,url"`
	TokenCode   string `validate:"required,max=12"`
	TokenIssuer string `validate:"required,len=56"`

	DelegateKey string `validate:"required,max=64"` // data entry holding the council delegation pointer
	ReadyValue  string `validate:"required,max=64"` // sentinel pointer value: volunteer, do not delegate further

	VerifyAsset      string   // optional CODE:ISSUER, holders of it are verified
	VerifiedAccounts []string `validate:"dive,len=56"`

	CouncilSize      int      `validate:"min=1,max=25"` // council.MaxSize
	SignerAccounts   []string `validate:"dive,len=56"`
	FetchConcurrency int      `validate:"min=1,max=64"`

	CacheSize int           `validate:"min=1"`
	CacheTTL  time.Duration

	DBDialect string // postgres only
	DBDsn     string // DSN string passed to GORM driver

	SnapshotFile string // optional: offline ledger snapshot instead of Horizon
	Schedule     string // optional cron spec, e.g. "@every 30m"
	Output       string `validate:"oneof=text json"`
	Debug        bool   // per-account resolution logs
}

func getenv(key, def string) string {
	v := os.Getenv(key)
	if v == "" {
		return def
	}
	return v
}

func getenvBool(key string, def bool) bool {
	v := os.Getenv(key)
	if v == "" {
		return def
	}
	return v == "true" || v == "1" || v == "yes" || v == "on"
}

func getenvInt(key string, def int) int {
	v := strings.TrimSpace(os.Getenv(key))
	if v == "" {
		return def
	}
	n, err := strconv.Atoi(v)
	if err != nil {
		fmt.Fprintf(os.Stderr, "warning: invalid %s=%q, using %d\n", key, v, def)
		return def
	}
	return n
}

func getenvDuration(key string, def time.Duration) time.Duration {
	v := strings.TrimSpace(os.Getenv(key))
	if v == "" {
		return def
	}
	d, err := time.ParseDuration(v)
	if err != nil {
		fmt.Fprintf(os.Stderr, "warning: invalid %s=%q, using %s\n", key, v, def)
		return def
	}
	return d
}

// getenvList splits a comma separated variable, dropping empty items.
func getenvList(key string) []string {
	var out []string
	for _, item := range strings.Split(os.Getenv(key), ",") {
		if item = strings.TrimSpace(item); item != "" {
			out = append(out, item)
		}
	}
	return out
}

// parseDatabaseURL interprets DATABASE_URL and returns (dialect, dsn).
// Supported schemes: postgres, postgresql.
func parseDatabaseURL(databaseURL string) (string, string, error) {
	u, err := url.Parse(databaseURL)
	if err != nil {
		return "", "", err
	}
	scheme := strings.ToLower(u.Scheme)
	switch scheme {
	case DatabaseSchemePostgres, "postgresql":
		// GORM postgres driver accepts URL DSN as-is
		return DatabaseSchemePostgres, databaseURL, nil
	default:
		return "", "", fmt.Errorf("unsupported DATABASE_URL scheme: %s", u.Scheme)
	}
}

func Load() Config {
	cfg := Config{
		HorizonURL:       getenv("HORIZON_URL", "https://horizon.stellar.org"),
		TokenCode:        getenv("TOKEN_CODE", "MTLAP"),
		TokenIssuer:      getenv("TOKEN_ISSUER", "GCNVDZIHGX473FEI7IXCUAEXUJ4BGCKEMHF36VYP5EMS7PX2QBLAMTLA"),
		DelegateKey:      getenv("DELEGATE_KEY", "mtla_c_delegate"),
		ReadyValue:       getenv("READY_VALUE", "ready"),
		VerifyAsset:      strings.TrimSpace(os.Getenv("VERIFY_ASSET")),
		VerifiedAccounts: getenvList("VERIFIED_ACCOUNTS"),
		CouncilSize:      getenvInt("COUNCIL_SIZE", 20),
		SignerAccounts:   getenvList("SIGNER_ACCOUNTS"),
		FetchConcurrency: getenvInt("FETCH_CONCURRENCY", 8),
		CacheSize:        getenvInt("CACHE_SIZE", 10000),
		CacheTTL:         getenvDuration("CACHE_TTL", 10*time.Minute),
		SnapshotFile:     strings.TrimSpace(os.Getenv("SNAPSHOT_FILE")),
		Schedule:         strings.TrimSpace(os.Getenv("SCHEDULE")),
		Output:           strings.ToLower(getenv("OUTPUT", OutputText)),
		Debug:            getenvBool("DEBUG", false),
	}

	if dbURL := strings.TrimSpace(os.Getenv("DATABASE_URL")); dbURL != "" {
		if dialect, dsn, err := parseDatabaseURL(dbURL); err == nil {
			cfg.DBDialect = dialect
			cfg.DBDsn = dsn
		} else {
			fmt.Fprintf(os.Stderr, "warning: invalid DATABASE_URL, disabling persistence: %v\n", err)
		}
	}

	return cfg
}

// Validate checks field constraints of a loaded configuration.
func (c Config) Validate() error {
	if err := validator.New().Struct(c); err != nil {
		return fmt.Errorf("invalid config: %w", err)
	}
	if c.HorizonURL == "" && c.SnapshotFile == "" {
		return fmt.Errorf("invalid config: one of HORIZON_URL or SNAPSHOT_FILE is required")
	}
	if c.VerifyAsset != "" {
		if _, _, err := SplitAsset(c.VerifyAsset); err != nil {
			return fmt.Errorf("invalid config: VERIFY_ASSET: %w", err)
		}
	}
	return nil
}

// TokenAsset returns the voting token in CODE:ISSUER form.
func (c Config) TokenAsset() string {
	return c.TokenCode + ":" + c.TokenIssuer
}

// SplitAsset parses a CODE:ISSUER asset string.
func SplitAsset(asset string) (code, issuer string, err error) {
	code, issuer, ok := strings.Cut(asset, ":")
	if !ok || code == "" || issuer == "" {
		return "", "", fmt.Errorf("asset %q is not CODE:ISSUER", asset)
	}
	return code, issuer, nil
}

func (c Config) String() string {
	return fmt.Sprintf("horizon=%s token=%s council=%d db=%s", c.HorizonURL, c.TokenAsset(), c.CouncilSize, c.DBDialect)
}

// DebugString returns a human-friendly configuration string with masked secrets.
func (c Config) DebugString() string {
	return fmt.Sprintf(
		"horizon=%s token=%s key=%s council=%d signers=%d db=%s dsn=%s snapshot=%s schedule=%q",
		c.HorizonURL,
		c.TokenAsset(),
		c.DelegateKey,
		c.CouncilSize,
		len(c.SignerAccounts),
		c.DBDialect,
		maskDSN(c.DBDialect, c.DBDsn),
		c.SnapshotFile,
		c.Schedule,
	)
}

func maskDSN(dialect, dsn string) string {
	switch strings.ToLower(dialect) {
	case DatabaseSchemePostgres:
		if u, err := url.Parse(dsn); err == nil && u.Scheme != "" {
			if u.User != nil {
				username := u.User.Username()
				u.User = url.User(username)
			}
			return u.String()
		}
		// Fallback for DSN as key-value list
		parts := strings.Fields(dsn)
		for i, p := range parts {
			lower := strings.ToLower(p)
			if strings.HasPrefix(lower, "password=") {
				parts[i] = "password=***"
			}
		}
		return strings.Join(parts, " ")
	default:
		return dsn
	}
}
