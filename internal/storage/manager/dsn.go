package manager

import (
	"fmt"
	"net"
	"net/url"
	"strings"

	"github.com/go-sql-driver/mysql"
)

// Target is a parsed DATABASE_URL
type Target struct {
	Dialect string // registered dialect name
	DSN     string // driver-specific connection string
	Display string // loggable form without credentials
}

// ParseDatabaseURL turns a SQLAlchemy-style URL into a driver DSN.
//
//	sqlite:///./database.db            relative file
//	sqlite:////var/data/app.db         absolute file
//	sqlite://                          in-memory
//	postgresql://user:pw@host:5432/db
//	mysql+pymysql://user:pw@host/db
//	db2://user:pw@host:50000/db
func ParseDatabaseURL(raw string) (Target, error) {
	scheme, rest, ok := strings.Cut(raw, "://")
	if !ok {
		return Target{}, fmt.Errorf("invalid database URL %q: missing scheme", raw)
	}
	// "mysql+pymysql" -> "mysql"
	scheme, _, _ = strings.Cut(strings.ToLower(scheme), "+")

	switch scheme {
	case "sqlite", "sqlite3":
		return sqliteTarget(rest), nil
	case "postgres", "postgresql":
		return urlTarget("postgres", "postgres://"+rest)
	case "mysql", "mariadb":
		return mysqlTarget(rest)
	case "db2", "ibm_db_sa":
		return db2Target(rest)
	default:
		return Target{}, fmt.Errorf("unsupported database URL scheme %q", scheme)
	}
}

func sqliteTarget(rest string) Target {
	// sqlite:///relative.db -> "relative.db", sqlite:////abs.db -> "/abs.db"
	path := strings.TrimPrefix(rest, "/")
	if path == "" {
		path = ":memory:"
	}
	display := path

	sep := "?"
	if strings.Contains(path, "?") {
		sep = "&"
	}
	return Target{
		Dialect: "sqlite",
		DSN:     path + sep + "_pragma=foreign_keys(1)",
		Display: display,
	}
}

func urlTarget(dialectName, raw string) (Target, error) {
	u, err := url.Parse(raw)
	if err != nil {
		return Target{}, fmt.Errorf("invalid %s URL: %w", dialectName, err)
	}
	return Target{Dialect: dialectName, DSN: u.String(), Display: u.Redacted()}, nil
}

func mysqlTarget(rest string) (Target, error) {
	u, err := url.Parse("mysql://" + rest)
	if err != nil {
		return Target{}, fmt.Errorf("invalid mysql URL: %w", err)
	}

	cfg := mysql.NewConfig()
	cfg.Net = "tcp"
	cfg.Addr = hostWithDefaultPort(u.Host, "3306")
	cfg.DBName = strings.TrimPrefix(u.Path, "/")
	cfg.ParseTime = true
	// UPDATE must report matched rows, not changed rows, for not-found detection
	cfg.ClientFoundRows = true
	if u.User != nil {
		cfg.User = u.User.Username()
		cfg.Passwd, _ = u.User.Password()
	}
	for k, v := range u.Query() {
		if cfg.Params == nil {
			cfg.Params = make(map[string]string)
		}
		cfg.Params[k] = v[0]
	}

	return Target{Dialect: "mysql", DSN: cfg.FormatDSN(), Display: u.Redacted()}, nil
}

func db2Target(rest string) (Target, error) {
	u, err := url.Parse("db2://" + rest)
	if err != nil {
		return Target{}, fmt.Errorf("invalid db2 URL: %w", err)
	}
	host, port, err := net.SplitHostPort(hostWithDefaultPort(u.Host, "50000"))
	if err != nil {
		return Target{}, fmt.Errorf("invalid db2 host: %w", err)
	}

	parts := []string{
		"HOSTNAME=" + host,
		"PORT=" + port,
		"DATABASE=" + strings.TrimPrefix(u.Path, "/"),
	}
	if u.User != nil {
		pw, _ := u.User.Password()
		parts = append(parts, "UID="+u.User.Username(), "PWD="+pw)
	}
	return Target{Dialect: "db2", DSN: strings.Join(parts, ";"), Display: u.Redacted()}, nil
}

func hostWithDefaultPort(host, port string) string {
	if _, _, err := net.SplitHostPort(host); err == nil {
		return host
	}
	return net.JoinHostPort(host, port)
}
