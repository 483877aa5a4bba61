//go:build e2e
// +build e2e

package e2e_test

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"net/http/httptest"
	"os"
	"path/filepath"
	"testing"
	"time"

	"ballot-app-go/internal/app"
	"ballot-app-go/internal/config"
	"ballot-app-go/internal/db"
	usersdomain "ballot-app-go/internal/domain/users"
	authmw "ballot-app-go/internal/transport/httpserver/middleware"
	"ballot-app-go/pkg/logger"
	"github.com/prometheus/client_golang/prometheus"
	"github.com/testcontainers/testcontainers-go"
	"github.com/testcontainers/testcontainers-go/modules/postgres"
	"github.com/testcontainers/testcontainers-go/wait"
	"golang.org/x/sync/errgroup"
	"gorm.io/gorm"
)

type testEnv struct {
	server *httptest.Server
	app    *app.App
	db     *gorm.DB
	cfg    config.Config
}

// postgresDSN returns E2E_DB_DSN when set, otherwise starts a throwaway container.
func postgresDSN(t *testing.T) string {
	t.Helper()

	if dsn := os.Getenv("E2E_DB_DSN"); dsn != "" {
		return dsn
	}

	ctx := context.Background()
	container, err := postgres.Run(ctx,
		"postgres:16-alpine",
		postgres.WithDatabase("ballot_test"),
		postgres.WithUsername("ballot_test"),
		postgres.WithPassword("ballot_test"),
		testcontainers.WithWaitStrategy(
			wait.ForLog("database system is ready to accept connections").
				WithOccurrence(2).
				WithStartupTimeout(60*time.Second)),
	)
	if err != nil {
		t.Skipf("postgres container unavailable: %v", err)
	}
	t.Cleanup(func() {
		if err := container.Terminate(context.Background()); err != nil {
			t.Errorf("terminate postgres: %v", err)
		}
	})

	dsn, err := container.ConnectionString(ctx, "sslmode=disable")
	if err != nil {
		t.Fatalf("connection string: %v", err)
	}
	return dsn
}

func setupE2E(t *testing.T) *testEnv {
	t.Helper()

	cfg := config.Config{
		Env:         "test",
		CORSOrigins: []string{"*"},
		DB: config.DBConfig{
			Driver:          config.DriverPostgres,
			DSN:             postgresDSN(t),
			MaxOpenConns:    10,
			MaxIdleConns:    5,
			ConnMaxLifetime: time.Minute,
		},
		Ballots: config.BallotsConfig{
			PageSize:      40,
			TallyCacheTTL: time.Minute,
			TallyCacheLen: 16,
			CastTimeout:   10 * time.Second,
		},
		Auth: config.AuthConfig{JWTSecret: "e2e-secret", JWTIssuer: "ballot-app"},
	}
	log := logger.Discard()

	dbConn, err := db.NewPostgres(cfg.DB, log)
	if err != nil {
		t.Fatalf("db connect: %v", err)
	}
	t.Cleanup(func() { _ = db.Close(dbConn) })

	if _, err := db.Migrate(dbConn, filepath.Join("..", "migrations"), log); err != nil {
		t.Fatalf("migrate: %v", err)
	}
	if err := cleanDB(dbConn); err != nil {
		t.Fatalf("clean db: %v", err)
	}

	application, err := app.NewWithDB(cfg, dbConn, log, prometheus.NewRegistry())
	if err != nil {
		t.Fatalf("new app: %v", err)
	}
	server := httptest.NewServer(application.Handler())
	t.Cleanup(server.Close)

	return &testEnv{server: server, app: application, db: dbConn, cfg: cfg}
}

func cleanDB(dbConn *gorm.DB) error {
	return dbConn.WithContext(context.Background()).Exec(
		"TRUNCATE TABLE initiative_votes, position_votes, votes, responses, initiatives, position_candidates, candidates, positions, ballots, users, companies CASCADE",
	).Error
}

func (e *testEnv) user(t *testing.T, companyID, username string, role usersdomain.Role) string {
	t.Helper()
	user, err := e.app.Services().Users.CreateUser(context.Background(), usersdomain.CreateUserInput{
		CompanyID: companyID, Role: role, FirstName: "E2E", LastName: username, Username: username,
	})
	if err != nil {
		t.Fatalf("create user: %v", err)
	}
	token, err := authmw.IssueToken(e.cfg.Auth, user.ID, time.Hour)
	if err != nil {
		t.Fatalf("issue token: %v", err)
	}
	return token
}

func send(client *http.Client, method, url, token string, payload interface{}) (int, []byte, error) {
	var body io.Reader
	if payload != nil {
		data, err := json.Marshal(payload)
		if err != nil {
			return 0, nil, err
		}
		body = bytes.NewReader(data)
	}

	req, err := http.NewRequest(method, url, body)
	if err != nil {
		return 0, nil, err
	}
	if payload != nil {
		req.Header.Set("Content-Type", "application/json")
	}
	if token != "" {
		req.Header.Set("Authorization", "Bearer "+token)
	}

	resp, err := client.Do(req)
	if err != nil {
		return 0, nil, err
	}
	defer resp.Body.Close()

	respBody, err := io.ReadAll(resp.Body)
	if err != nil {
		return 0, nil, err
	}
	return resp.StatusCode, respBody, nil
}

func requestJSON(t *testing.T, client *http.Client, method, url, token string, payload interface{}) (int, []byte) {
	t.Helper()
	status, body, err := send(client, method, url, token, payload)
	if err != nil {
		t.Fatalf("%s %s: %v", method, url, err)
	}
	return status, body
}

type ballotResponse struct {
	ID        string `json:"id"`
	Positions []struct {
		ID         string `json:"id"`
		Candidates []struct {
			ID string `json:"id"`
		} `json:"candidates"`
	} `json:"positions"`
}

type tallyResponse struct {
	TotalVotes int64 `json:"total_votes"`
	Positions  []struct {
		Candidates []struct {
			CandidateID string `json:"candidate_id"`
			LastName    string `json:"last_name"`
			WriteIn     bool   `json:"write_in"`
			Votes       int64  `json:"votes"`
		} `json:"candidates"`
	} `json:"positions"`
}

func createBallot(t *testing.T, env *testEnv, client *http.Client, token, companyID string) ballotResponse {
	t.Helper()
	now := time.Now().UTC()
	status, body := requestJSON(t, client, http.MethodPost, env.server.URL+"/api/ballots", token, map[string]interface{}{
		"company_id": companyID,
		"name":       "Annual election",
		"start_date": now.Add(-time.Hour).Format(time.RFC3339),
		"end_date":   now.Add(time.Hour).Format(time.RFC3339),
		"positions": []map[string]interface{}{{
			"name":          "Treasurer",
			"allowed_votes": 1,
			"write_in":      true,
			"candidates":    []map[string]string{{"first_name": "Reg", "last_name": "Smith"}},
		}},
	})
	if status != http.StatusCreated {
		t.Fatalf("expected 201, got %d: %s", status, string(body))
	}
	var ballot ballotResponse
	if err := json.Unmarshal(body, &ballot); err != nil {
		t.Fatalf("decode ballot: %v", err)
	}
	return ballot
}

func TestE2EConcurrentCastsRecordOneVote(t *testing.T) {
	env := setupE2E(t)
	client := &http.Client{Timeout: 10 * time.Second}

	company, err := env.app.Services().Users.CreateCompany(context.Background(), usersdomain.CreateCompanyInput{Name: "ACME"})
	if err != nil {
		t.Fatalf("create company: %v", err)
	}
	admin := env.user(t, company.ID, "admin", usersdomain.RoleAdmin)
	member := env.user(t, company.ID, "member", usersdomain.RoleMember)
	ballot := createBallot(t, env, client, admin, company.ID)
	position := ballot.Positions[0]

	const attempts = 10
	statuses := make([]int, attempts)
	var g errgroup.Group
	for i := 0; i < attempts; i++ {
		g.Go(func() error {
			status, _, err := send(client, http.MethodPost, env.server.URL+"/api/ballots/"+ballot.ID+"/votes", member, map[string]interface{}{
				"positions": []map[string]string{{"position_id": position.ID, "candidate_id": position.Candidates[0].ID}},
			})
			statuses[i] = status
			return err
		})
	}
	if err := g.Wait(); err != nil {
		t.Fatalf("cast: %v", err)
	}

	created, conflicts := 0, 0
	for _, status := range statuses {
		switch status {
		case http.StatusCreated:
			created++
		case http.StatusConflict:
			conflicts++
		default:
			t.Fatalf("unexpected status %d among %v", status, statuses)
		}
	}
	if created != 1 || conflicts != attempts-1 {
		t.Fatalf("expected exactly one recorded vote, got %v", statuses)
	}

	var votes int64
	if err := env.db.Table("votes").Where("ballot_id = ?", ballot.ID).Count(&votes).Error; err != nil {
		t.Fatalf("count votes: %v", err)
	}
	if votes != 1 {
		t.Fatalf("expected one vote row, got %d", votes)
	}
}

func TestE2EConcurrentWriteInsMerge(t *testing.T) {
	env := setupE2E(t)
	client := &http.Client{Timeout: 10 * time.Second}

	company, err := env.app.Services().Users.CreateCompany(context.Background(), usersdomain.CreateCompanyInput{Name: "ACME"})
	if err != nil {
		t.Fatalf("create company: %v", err)
	}
	admin := env.user(t, company.ID, "admin", usersdomain.RoleAdmin)
	ballot := createBallot(t, env, client, admin, company.ID)
	position := ballot.Positions[0]

	const voters = 6
	tokens := make([]string, voters)
	for i := range tokens {
		tokens[i] = env.user(t, company.ID, "voter-"+string(rune('a'+i)), usersdomain.RoleMember)
	}

	var g errgroup.Group
	for i, token := range tokens {
		name := "Wanda"
		if i%2 == 1 {
			name = "WANDA"
		}
		g.Go(func() error {
			status, body, err := send(client, http.MethodPost, env.server.URL+"/api/ballots/"+ballot.ID+"/votes", token, map[string]interface{}{
				"positions": []map[string]interface{}{{
					"position_id": position.ID,
					"write_in":    map[string]string{"first_name": name, "last_name": "Wells"},
				}},
			})
			if err != nil {
				return err
			}
			if status != http.StatusCreated {
				return fmt.Errorf("expected 201, got %d: %s", status, string(body))
			}
			return nil
		})
	}
	if err := g.Wait(); err != nil {
		t.Fatalf("write-in cast: %v", err)
	}

	status, body := requestJSON(t, client, http.MethodGet, env.server.URL+"/api/ballots/"+ballot.ID+"/results", admin, nil)
	if status != http.StatusOK {
		t.Fatalf("expected 200, got %d: %s", status, string(body))
	}
	var tally tallyResponse
	if err := json.Unmarshal(body, &tally); err != nil {
		t.Fatalf("decode tally: %v", err)
	}
	if tally.TotalVotes != voters {
		t.Fatalf("expected %d votes, got %d", voters, tally.TotalVotes)
	}

	candidates := tally.Positions[0].Candidates
	if len(candidates) != 2 {
		t.Fatalf("expected one merged write-in next to the registered candidate, got %+v", candidates)
	}
	if !candidates[0].WriteIn || candidates[0].Votes != voters {
		t.Fatalf("expected the write-in to lead with every vote, got %+v", candidates)
	}
}

func TestE2EDeleteCascades(t *testing.T) {
	env := setupE2E(t)
	client := &http.Client{Timeout: 10 * time.Second}

	company, err := env.app.Services().Users.CreateCompany(context.Background(), usersdomain.CreateCompanyInput{Name: "ACME"})
	if err != nil {
		t.Fatalf("create company: %v", err)
	}
	admin := env.user(t, company.ID, "admin", usersdomain.RoleAdmin)
	member := env.user(t, company.ID, "member", usersdomain.RoleMember)
	ballot := createBallot(t, env, client, admin, company.ID)
	position := ballot.Positions[0]

	status, body := requestJSON(t, client, http.MethodPost, env.server.URL+"/api/ballots/"+ballot.ID+"/votes", member, map[string]interface{}{
		"positions": []map[string]string{{"position_id": position.ID, "candidate_id": position.Candidates[0].ID}},
	})
	if status != http.StatusCreated {
		t.Fatalf("expected 201, got %d: %s", status, string(body))
	}

	status, body = requestJSON(t, client, http.MethodDelete, env.server.URL+"/api/ballots/"+ballot.ID, admin, nil)
	if status != http.StatusNoContent {
		t.Fatalf("expected 204, got %d: %s", status, string(body))
	}

	for _, table := range []string{"votes", "position_votes", "positions"} {
		var count int64
		if err := env.db.Table(table).Count(&count).Error; err != nil {
			t.Fatalf("count %s: %v", table, err)
		}
		if count != 0 {
			t.Fatalf("expected %s to be empty after delete, got %d", table, count)
		}
	}
}
