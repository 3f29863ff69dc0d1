package usage

import (
	"encoding/json"
	"fmt"
	"os"
)

// credentialsFile is the on-disk shape of the credentials store written
// by the companion CLI login flow.
type credentialsFile struct {
	OAuth struct {
		AccessToken string `json:"access_token"`
	} `json:"oauth"`
}

// LoadAccessToken reads the bearer token from the credentials file.
func LoadAccessToken(path string) (string, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return "", fmt.Errorf("failed to read credentials file %q: %w", path, err)
	}

	var creds credentialsFile
	if err := json.Unmarshal(data, &creds); err != nil {
		return "", fmt.Errorf("failed to parse credentials file %q: %w", path, err)
	}

	if creds.OAuth.AccessToken == "" {
		return "", fmt.Errorf("credentials file %q has no access token", path)
	}

	return creds.OAuth.AccessToken, nil
}
