package config // package config loads application configuration from environment variables

import (
	"log"     // log is used to report configuration errors and halt execution
	"os"      // os provides access to environment variables
	"strconv" // strconv converts strings to other types
	"strings" // strings splits the comma-separated admin list
)

// Config holds all runtime configuration values.  Each field corresponds to
// an environment variable.  The types reflect how the values are used in
// the application: strings for identifiers and secrets, ints for durations
// and costs, slices for comma-separated lists.
type Config struct {
	Env            string   // application environment (e.g. "dev", "prod")
	Port           string   // HTTP port to listen on
	DBUser         string   // database username
	DBPass         string   // database password (optional)
	DBHost         string   // database host address
	DBPort         string   // database port number
	DBName         string   // database name
	JWTSecret      string   // secret used to sign JWTs
	AccessTTLMin   int      // access token time-to-live in minutes
	RefreshTTLDays int      // refresh token time-to-live in days
	BcryptCost     int      // bcrypt cost for the admin password hash
	AdminEmails    []string // emails allowed to use the password login
	AdminPassword  string   // shared admin password, hashed at startup
	UploadDir      string   // directory where report files are stored
	OTPTTLMin      int      // minutes an issued OTP stays valid
	OTPCooldownSec int      // seconds a client must wait between OTP requests
	SMTPHost       string   // SMTP relay host; empty disables real delivery
	SMTPPort       string   // SMTP relay port
	SMTPUser       string   // SMTP username
	SMTPPass       string   // SMTP password
	SMTPSender     string   // From address on OTP mails
}

// Load reads configuration values from environment variables and returns a
// Config.  Required variables are enforced by must() and missing values
// cause the program to exit with a fatal log message.  Mail settings are
// optional: when SMTP_HOST is empty the OTP consumer logs codes instead of
// sending mail, which mirrors how the portal runs in development.
func Load() Config {
	return Config{
		Env:            must("APP_ENV"),                     // environment (dev/test/prod)
		Port:           must("APP_PORT"),                    // port to bind the HTTP server
		DBUser:         must("DB_USER"),                     // database user
		DBPass:         os.Getenv("DB_PASS"),                // database password (empty allowed)
		DBHost:         must("DB_HOST"),                     // database host
		DBPort:         must("DB_PORT"),                     // database port
		DBName:         must("DB_NAME"),                     // database name
		JWTSecret:      must("JWT_SECRET"),                  // secret used for signing JWTs
		AccessTTLMin:   mustInt("ACCESS_TOKEN_TTL_MIN"),     // TTL for access tokens in minutes
		RefreshTTLDays: mustInt("REFRESH_TOKEN_TTL_DAYS"),   // TTL for refresh tokens in days
		BcryptCost:     mustInt("BCRYPT_COST"),              // bcrypt cost factor
		AdminEmails:    splitEmails(must("ADMIN_EMAILS")),   // who may use the password flow
		AdminPassword:  must("ADMIN_PASSWORD"),              // shared admin password
		UploadDir:      getenv("UPLOAD_DIR", "uploads"),     // where report files land
		OTPTTLMin:      atoiDefault("OTP_TTL_MIN", 5),       // OTP validity window
		OTPCooldownSec: atoiDefault("OTP_COOLDOWN_SEC", 60), // min gap between OTP requests
		SMTPHost:       os.Getenv("SMTP_HOST"),              // mail relay (optional)
		SMTPPort:       getenv("SMTP_PORT", "587"),          // mail relay port
		SMTPUser:       os.Getenv("SMTP_USER"),              // mail relay user
		SMTPPass:       os.Getenv("SMTP_PASS"),              // mail relay password
		SMTPSender:     os.Getenv("SMTP_SENDER"),            // From header on OTP mails
	}
}

// IsAdminEmail reports whether the given (already lower-cased) email is in
// the configured admin set.  Membership only decides which login flow the
// email must use; the authoritative role lives in the issued token.
func (c Config) IsAdminEmail(email string) bool {
	for _, a := range c.AdminEmails {
		if a == email {
			return true
		}
	}
	return false
}

// splitEmails turns "a@x.com, b@x.com" into a normalized slice.
func splitEmails(s string) []string {
	var out []string
	for _, p := range strings.Split(s, ",") {
		p = strings.ToLower(strings.TrimSpace(p))
		if p != "" {
			out = append(out, p)
		}
	}
	return out
}

// must retrieves the value of a required environment variable.  If the
// variable is unset or empty, the application logs a fatal error and exits.
func must(key string) string {
	v, ok := os.LookupEnv(key)
	if !ok || v == "" {
		log.Fatalf("missing required env var: %s", key)
	}
	return v
}

// mustInt is like must() but converts the retrieved string into an integer.
// If conversion fails, the application logs a fatal error and exits.
func mustInt(key string) int {
	s := must(key)
	n, err := strconv.Atoi(s)
	if err != nil {
		log.Fatalf("invalid int for %s: %q", key, s)
	}
	return n
}

// atoiDefault reads an optional integer variable, falling back to def when
// the variable is unset or malformed.
func atoiDefault(key string, def int) int {
	v := os.Getenv(key)
	if v == "" {
		return def
	}
	n, err := strconv.Atoi(v)
	if err != nil {
		return def
	}
	return n
}
