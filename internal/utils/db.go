// 包 utils：数据库 / Redis / TLS 连接工具，统一环境变量读取
package utils

import (
	"database/sql"
	"os"
	"strconv"

	_ "github.com/lib/pq"
)

// PostgresEnabled：配置了 PG_DSN 或 PG_HOST 才启用项目持久化
func PostgresEnabled() bool {
	return os.Getenv("PG_DSN") != "" || os.Getenv("PG_HOST") != ""
}

// BuildPostgresDSNFromEnv：PG_DSN 优先，否则由 PG_* 拼接
func BuildPostgresDSNFromEnv() string {
	if dsn := os.Getenv("PG_DSN"); dsn != "" {
		return dsn
	}
	host := os.Getenv("PG_HOST")
	if host == "" {
		host = "localhost"
	}
	port := os.Getenv("PG_PORT")
	if port == "" {
		port = "5432"
	}
	user := os.Getenv("PG_USER")
	if user == "" {
		user = "postgres"
	}
	pass := os.Getenv("PG_PASSWORD")
	db := os.Getenv("PG_DB")
	if db == "" {
		db = "choromap"
	}
	ssl := os.Getenv("PG_SSLMODE")
	if ssl == "" {
		ssl = "disable"
	}
	dsn := "postgres://" + user
	if pass != "" {
		dsn += ":" + pass
	}
	dsn += "@" + host + ":" + port + "/" + db + "?sslmode=" + ssl
	return dsn
}

func OpenPostgresFromEnv() (*sql.DB, error) {
	db, err := sql.Open("postgres", BuildPostgresDSNFromEnv())
	if err != nil {
		return nil, err
	}
	maxOpen := 20
	maxIdle := 10
	if v := os.Getenv("PG_MAX_OPEN_CONNS"); v != "" {
		if n, e := strconv.Atoi(v); e == nil {
			maxOpen = n
		}
	}
	if v := os.Getenv("PG_MAX_IDLE_CONNS"); v != "" {
		if n, e := strconv.Atoi(v); e == nil {
			maxIdle = n
		}
	}
	db.SetMaxOpenConns(maxOpen)
	db.SetMaxIdleConns(maxIdle)
	return db, nil
}
