package testutil

import (
	"bytes"
	"encoding/json"
	"fmt"
	"net/http"
	"net/http/httptest"
	"os"
	"path/filepath"
	"runtime"
	"testing"
	"time"

	"github.com/gin-gonic/gin"
	"github.com/golang-jwt/jwt/v5"
	"github.com/joho/godotenv"
	"github.com/shopspring/decimal"
	"gorm.io/driver/postgres"
	"gorm.io/gorm"
	"gorm.io/gorm/logger"

	"github.com/ainuod/DeliveryCOMPANY/internal/entity"
	"github.com/ainuod/DeliveryCOMPANY/internal/middleware"
)

const (
	TestSchema = "test_delivery"
	JWTSecret  = "delivery-test-jwt-secret"
)

// TestEnv holds test environment resources
type TestEnv struct {
	DB     *gorm.DB
	Router *gin.Engine
	T      *testing.T
}

// projectRoot returns the project root directory by looking for go.mod
func projectRoot() string {
	_, filename, _, _ := runtime.Caller(0)
	dir := filepath.Dir(filename)
	for {
		if _, err := os.Stat(filepath.Join(dir, "go.mod")); err == nil {
			return dir
		}
		parent := filepath.Dir(dir)
		if parent == dir {
			break
		}
		dir = parent
	}
	return ""
}

// loadEnv loads .env from the project root
func loadEnv() {
	root := projectRoot()
	if root != "" {
		godotenv.Load(filepath.Join(root, ".env"))
	}
}

// SetupTestDB creates a test database connection using a dedicated test schema.
// Each test gets an isolated schema that is cleaned up after the test.
func SetupTestDB(t *testing.T) *gorm.DB {
	t.Helper()
	loadEnv()

	host := getEnv("DB_HOST", "127.0.0.1")
	port := getEnv("DB_PORT", "5432")
	user := getEnv("DB_USER", "delivery")
	password := getEnv("DB_PASSWORD", "delivery123")
	dbname := getEnv("DB_NAME", "delivery")

	baseDSN := fmt.Sprintf("host=%s port=%s user=%s password=%s dbname=%s sslmode=disable",
		host, port, user, password, dbname)

	// Create a unique test schema for isolation
	schemaName := fmt.Sprintf("%s_%d", TestSchema, time.Now().UnixNano()%1000000)

	setupDB, err := gorm.Open(postgres.Open(baseDSN), &gorm.Config{
		Logger: logger.Default.LogMode(logger.Silent),
	})
	if err != nil {
		t.Fatalf("Failed to connect to database for schema setup: %v", err)
	}
	setupDB.Exec(fmt.Sprintf("CREATE SCHEMA IF NOT EXISTS %s", schemaName))
	sqlSetup, _ := setupDB.DB()
	sqlSetup.Close()

	// Open with search_path in DSN so all pooled connections use the test schema
	testDSN := fmt.Sprintf("%s search_path=%s", baseDSN, schemaName)
	db, err := gorm.Open(postgres.Open(testDSN), &gorm.Config{
		Logger:                                   logger.Default.LogMode(logger.Silent),
		DisableForeignKeyConstraintWhenMigrating: true,
	})
	if err != nil {
		t.Fatalf("Failed to connect to test database: %v", err)
	}

	err = db.AutoMigrate(
		&entity.User{},
		&entity.ClientProfile{},
		&entity.Driver{},
		&entity.Vehicle{},
		&entity.Destination{},
		&entity.Shipment{},
		&entity.Parcel{},
		&entity.Tour{},
		&entity.Invoice{},
		&entity.Payment{},
		&entity.Incident{},
		&entity.Claim{},
	)
	if err != nil {
		t.Fatalf("Failed to migrate test tables: %v", err)
	}

	t.Cleanup(func() {
		sqlDB, _ := db.DB()
		if sqlDB != nil {
			sqlDB.Close()
		}
		cleanDB, cleanErr := gorm.Open(postgres.Open(baseDSN), &gorm.Config{
			Logger: logger.Default.LogMode(logger.Silent),
		})
		if cleanErr == nil {
			cleanDB.Exec(fmt.Sprintf("DROP SCHEMA IF EXISTS %s CASCADE", schemaName))
			sqlClean, _ := cleanDB.DB()
			if sqlClean != nil {
				sqlClean.Close()
			}
		}
	})

	return db
}

// SetupRouter creates a gin test router
func SetupRouter() *gin.Engine {
	gin.SetMode(gin.TestMode)
	r := gin.New()
	r.Use(gin.Recovery())
	return r
}

// AuthGroup creates an API group with JWT auth middleware for testing
func AuthGroup(r *gin.Engine, path string) *gin.RouterGroup {
	return r.Group(path, middleware.JWTAuth(JWTSecret))
}

// GenerateTestToken creates a valid JWT token for testing
func GenerateTestToken(userID, username, role string) string {
	now := time.Now()
	claims := jwt.MapClaims{
		"sub":      userID,
		"uid":      userID,
		"username": username,
		"role":     role,
		"iss":      "delivery-backoffice",
		"iat":      now.Unix(),
		"exp":      now.Add(24 * time.Hour).Unix(),
		"jti":      fmt.Sprintf("test-jti-%d", now.UnixNano()),
	}

	token := jwt.NewWithClaims(jwt.SigningMethodHS256, claims)
	tokenString, _ := token.SignedString([]byte(JWTSecret))
	return tokenString
}

// AgentTestToken returns a token for a default agent test user
func AgentTestToken() string {
	return GenerateTestToken("test-agent-001", "test_agent", entity.RoleAgent)
}

// DoRequest executes an HTTP request against the test router
func DoRequest(r *gin.Engine, method, path string, body interface{}, token string) *httptest.ResponseRecorder {
	var reqBody *bytes.Buffer
	if body != nil {
		jsonBytes, _ := json.Marshal(body)
		reqBody = bytes.NewBuffer(jsonBytes)
	} else {
		reqBody = bytes.NewBuffer(nil)
	}

	req, _ := http.NewRequest(method, path, reqBody)
	req.Header.Set("Content-Type", "application/json")
	if token != "" {
		req.Header.Set("Authorization", "Bearer "+token)
	}

	w := httptest.NewRecorder()
	r.ServeHTTP(w, req)
	return w
}

// ParseResponse parses the JSON response body into a generic map
func ParseResponse(w *httptest.ResponseRecorder) map[string]interface{} {
	var result map[string]interface{}
	json.Unmarshal(w.Body.Bytes(), &result)
	return result
}

// SeedClient creates a CLIENT user with a billing profile
func SeedClient(t *testing.T, db *gorm.DB, id, username string) *entity.User {
	t.Helper()
	user := &entity.User{
		ID:           id,
		Username:     username,
		Email:        username + "@test.com",
		PasswordHash: "x",
		Role:         entity.RoleClient,
		Status:       "active",
	}
	if err := db.Create(user).Error; err != nil {
		t.Fatalf("Failed to seed client: %v", err)
	}
	profile := &entity.ClientProfile{
		UserID:      id,
		CompanyName: username + " SARL",
		Balance:     decimal.Zero,
	}
	if err := db.Create(profile).Error; err != nil {
		t.Fatalf("Failed to seed client profile: %v", err)
	}
	return user
}

// SeedUser creates a user with the given role
func SeedUser(t *testing.T, db *gorm.DB, id, username, role string) *entity.User {
	t.Helper()
	user := &entity.User{
		ID:           id,
		Username:     username,
		Email:        username + "@test.com",
		PasswordHash: "x",
		Role:         role,
		Status:       "active",
	}
	if err := db.Create(user).Error; err != nil {
		t.Fatalf("Failed to seed user: %v", err)
	}
	return user
}

// SeedDestination creates a destination with the given rates
func SeedDestination(t *testing.T, db *gorm.DB, id, city, country, base, perKg, perM3 string) *entity.Destination {
	t.Helper()
	d := &entity.Destination{
		ID:              id,
		City:            city,
		Country:         country,
		BaseRate:        decimal.RequireFromString(base),
		WeightRatePerKg: decimal.RequireFromString(perKg),
		VolumeRatePerM3: decimal.RequireFromString(perM3),
	}
	if err := db.Create(d).Error; err != nil {
		t.Fatalf("Failed to seed destination: %v", err)
	}
	return d
}

// SeedShipment creates a priced shipment for the client
func SeedShipment(t *testing.T, db *gorm.DB, id, clientID, originID, destinationID, totalCost string) *entity.Shipment {
	t.Helper()
	s := &entity.Shipment{
		ID:            id,
		ClientID:      clientID,
		OriginID:      originID,
		DestinationID: destinationID,
		ServiceType:   entity.ServiceTypeStandard,
		Status:        entity.ShipmentStatusPending,
		TotalCost:     decimal.RequireFromString(totalCost),
	}
	if err := db.Create(s).Error; err != nil {
		t.Fatalf("Failed to seed shipment: %v", err)
	}
	return s
}

func getEnv(key, fallback string) string {
	if v := os.Getenv(key); v != "" {
		return v
	}
	return fallback
}
