package testutil

import (
	"context"
	"database/sql"
	"fmt"
	"strings"
	"sync"
	"testing"
	"time"

	"github.com/arunprabus/health-api/internal/db"
	"github.com/arunprabus/health-api/internal/model"
	"github.com/arunprabus/health-api/pkg/snowflake"

	_ "modernc.org/sqlite"
)

// snowflakeOnce 确保 snowflake 在所有并行测试中只初始化一次
var snowflakeOnce sync.Once

// NewTestDB 创建内存 SQLite 数据库并执行所有迁移
func NewTestDB(t *testing.T) *sql.DB {
	t.Helper()

	snowflakeOnce.Do(func() {
		if err := snowflake.Init(0); err != nil {
			// sync.Once 内无法使用 t.Fatalf，改用 panic
			panic("failed to initialize snowflake: " + err.Error())
		}
	})

	// 每个测试使用唯一的数据库名称以避免冲突
	name := strings.NewReplacer("/", "_", " ", "_").Replace(t.Name())
	dsn := fmt.Sprintf("file:%s_%d?mode=memory&cache=shared&_pragma=foreign_keys(1)", name, time.Now().UnixNano())
	database, err := sql.Open("sqlite", dsn)
	if err != nil {
		t.Fatalf("failed to open test database: %v", err)
	}

	if err := db.Migrate(database); err != nil {
		database.Close()
		t.Fatalf("failed to migrate test database: %v", err)
	}

	t.Cleanup(func() {
		database.Close()
	})

	return database
}

// SeedUser 插入测试用户；ID 与 Provider 为空时使用默认值
func SeedUser(t *testing.T, db *sql.DB, id, email string) string {
	t.Helper()

	if id == "" {
		id = fmt.Sprintf("user-%d", snowflake.NextID())
	}
	now := time.Now().UTC().Format(time.RFC3339Nano)

	_, err := db.ExecContext(
		context.Background(),
		`INSERT INTO users (id, email, provider, created_at, updated_at) VALUES (?, ?, ?, ?, ?)`,
		id, email, model.ProviderLocal, now, now,
	)
	if err != nil {
		t.Fatalf("failed to seed user: %v", err)
	}

	return id
}

// SeedProfile 插入测试档案，用户必须已存在
func SeedProfile(t *testing.T, db *sql.DB, profile model.Profile) {
	t.Helper()

	if profile.BloodGroup == "" {
		profile.BloodGroup = "O+"
	}
	now := time.Now().UTC().Format(time.RFC3339Nano)

	_, err := db.ExecContext(
		context.Background(),
		`INSERT INTO profiles (id, name, blood_group, insurance_provider, insurance_number, pdf_url, notes, created_at, updated_at)
		 VALUES (?, ?, ?, ?, ?, ?, ?, ?, ?)`,
		profile.ID, profile.Name, profile.BloodGroup, ptrVal(profile.InsuranceProvider), ptrVal(profile.InsuranceNumber),
		ptrVal(profile.PDFURL), ptrVal(profile.Notes), now, now,
	)
	if err != nil {
		t.Fatalf("failed to seed profile: %v", err)
	}
}

// SeedSetting 插入测试配置数据
func SeedSetting(t *testing.T, db *sql.DB, key, value string) {
	t.Helper()

	now := time.Now().UTC().Format(time.RFC3339Nano)

	_, err := db.ExecContext(
		context.Background(),
		`INSERT INTO settings (key, value, updated_at) VALUES (?, ?, ?)`,
		key, value, now,
	)
	if err != nil {
		t.Fatalf("failed to seed setting: %v", err)
	}
}

// ptrVal 将指针转换为 interface{}，nil 指针返回 nil
func ptrVal[T any](p *T) interface{} {
	if p == nil {
		return nil
	}
	return *p
}
