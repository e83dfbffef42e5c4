//go:build integration

package integration

import (
	"encoding/json"
	"fmt"
	"net/http"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

type authBody struct {
	User struct {
		ID string `json:"id"`
	} `json:"user"`
	Tokens struct {
		AccessToken  string `json:"accessToken"`
		RefreshToken string `json:"refreshToken"`
	} `json:"tokens"`
}

func TestTokenLifecycle(t *testing.T) {
	cfg := LoadCfg()
	WaitHealth(t, cfg.AGBaseURL+"/healthz", 60*time.Second)
	db := DBOpen(t, cfg.DBDSN)
	defer db.Close()

	email := fmt.Sprintf("it-%d@example.com", time.Now().UnixNano())
	var reg authBody
	require.NoError(t, json.Unmarshal(Do(t, http.MethodPost, cfg.AGBaseURL+"/auth/register", "", map[string]string{
		"email": email, "password": "Passw0rd!", "firstName": "Al", "lastName": "Ice",
	}, nil, http.StatusCreated), &reg))
	assert.Equal(t, 1, CountRefreshRecords(t, db, reg.User.ID))

	Do(t, http.MethodPost, cfg.AGBaseURL+"/auth/register", "", map[string]string{
		"email": email, "password": "Passw0rd!", "firstName": "Al", "lastName": "Ice",
	}, nil, http.StatusConflict)

	var refreshed authBody
	require.NoError(t, json.Unmarshal(Do(t, http.MethodPost, cfg.AGBaseURL+"/auth/refresh", "",
		map[string]string{"refreshToken": reg.Tokens.RefreshToken}, nil, http.StatusOK), &refreshed))
	Do(t, http.MethodPost, cfg.AGBaseURL+"/auth/refresh", "",
		map[string]string{"refreshToken": reg.Tokens.RefreshToken}, nil, http.StatusUnauthorized)
	assert.Equal(t, 1, CountRefreshRecords(t, db, reg.User.ID))

	Do(t, http.MethodGet, cfg.AGBaseURL+"/transactions/txn_1", refreshed.Tokens.AccessToken, nil, nil, http.StatusOK)
	Do(t, http.MethodGet, cfg.AGBaseURL+"/admin/users", refreshed.Tokens.AccessToken, nil, nil, http.StatusForbidden)

	Do(t, http.MethodPost, cfg.AGBaseURL+"/auth/logout", refreshed.Tokens.AccessToken, nil, nil, http.StatusOK)
	assert.Equal(t, 0, CountRefreshRecords(t, db, reg.User.ID))
}
