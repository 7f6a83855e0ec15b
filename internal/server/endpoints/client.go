package endpoints

import (
	"os"

	"github.com/dataquard/dataquard/internal/api"
)

// Environment variables CLI commands read credentials from. The server
// URL comes from the --server flag; tokens never travel via flags so
// they stay out of shell history.
const (
	tokenEnvVar      = "DATAQUARD_API_TOKEN"
	cronSecretEnvVar = "DATAQUARD_CRON_SECRET"
)

// userClient builds an API client authenticated with the user token
// from the environment.
func userClient(getServerURL func() string) *api.Client {
	return api.NewClient(getServerURL()).WithToken(os.Getenv(tokenEnvVar))
}

// cronClient builds an API client authenticated with the scheduler
// trigger secret from the environment.
func cronClient(getServerURL func() string) *api.Client {
	return api.NewClient(getServerURL()).WithToken(os.Getenv(cronSecretEnvVar))
}
