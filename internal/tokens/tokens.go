// Package tokens logs in the configured accounts and writes the fresh session
// tokens into an .http request-collection file.
package tokens

import (
	"bytes"
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"log/slog"
	"net/http"
	"regexp"
	"strings"

	"github.com/spf13/afero"

	"parking_api_testing/internal/model"
)

// Only the rest of the line is replaced so CRLF endings survive.
var (
	userTokenLine  = regexp.MustCompile(`@userToken = [^\r\n]*`)
	adminTokenLine = regexp.MustCompile(`@adminToken = [^\r\n]*`)
)

var ErrPlaceholderMissing = errors.New("token placeholder line not found")

// LoginError carries the response of a login that did not yield a token.
type LoginError struct {
	Username   string
	StatusCode int
	Body       string
	Reason     string
}

func (e *LoginError) Error() string {
	return fmt.Sprintf("login %s failed: %s (status %d): %s", e.Username, e.Reason, e.StatusCode, e.Body)
}

// Login posts the credentials to /login and returns the token field of a 200 response.
func Login(ctx context.Context, client *http.Client, baseURL string, creds model.Credentials, field string) (string, error) {
	payload, err := json.Marshal(map[string]string{"username": creds.Username, "password": creds.Password})
	if err != nil {
		return "", fmt.Errorf("encode login body: %w", err)
	}

	req, err := http.NewRequestWithContext(ctx, http.MethodPost, strings.TrimRight(baseURL, "/")+"/login", bytes.NewReader(payload))
	if err != nil {
		return "", fmt.Errorf("create login request: %w", err)
	}
	req.Header.Set("Content-Type", "application/json")

	resp, err := client.Do(req)
	if err != nil {
		return "", fmt.Errorf("login %s: %w", creds.Username, err)
	}
	defer resp.Body.Close()

	body, err := io.ReadAll(resp.Body)
	if err != nil {
		return "", fmt.Errorf("read login response: %w", err)
	}

	if resp.StatusCode != http.StatusOK {
		return "", &LoginError{Username: creds.Username, StatusCode: resp.StatusCode, Body: string(body), Reason: "unexpected status"}
	}

	var obj map[string]any
	if err := json.Unmarshal(body, &obj); err != nil {
		return "", &LoginError{Username: creds.Username, StatusCode: resp.StatusCode, Body: string(body), Reason: "response is not a JSON object"}
	}
	token, ok := obj[field].(string)
	if !ok || token == "" {
		return "", &LoginError{Username: creds.Username, StatusCode: resp.StatusCode, Body: string(body), Reason: fmt.Sprintf("no %q field", field)}
	}
	return token, nil
}

// UpdateCollection rewrites the @userToken and @adminToken lines of the file at
// path. Every other byte is left untouched. Both placeholders must be present.
func UpdateCollection(fs afero.Fs, path, userToken, adminToken string) error {
	info, err := fs.Stat(path)
	if err != nil {
		return fmt.Errorf("stat %s: %w", path, err)
	}
	content, err := afero.ReadFile(fs, path)
	if err != nil {
		return fmt.Errorf("read %s: %w", path, err)
	}

	updated, err := ReplaceTokens(content, userToken, adminToken)
	if err != nil {
		return fmt.Errorf("update %s: %w", path, err)
	}

	if err := afero.WriteFile(fs, path, updated, info.Mode().Perm()); err != nil {
		return fmt.Errorf("write %s: %w", path, err)
	}
	return nil
}

// ReplaceTokens returns content with both token assignments replaced. Tokens are inserted literally.
func ReplaceTokens(content []byte, userToken, adminToken string) ([]byte, error) {
	if !userTokenLine.Match(content) {
		return nil, fmt.Errorf("@userToken: %w", ErrPlaceholderMissing)
	}
	if !adminTokenLine.Match(content) {
		return nil, fmt.Errorf("@adminToken: %w", ErrPlaceholderMissing)
	}
	content = userTokenLine.ReplaceAllLiteral(content, []byte("@userToken = "+userToken))
	content = adminTokenLine.ReplaceAllLiteral(content, []byte("@adminToken = "+adminToken))
	return content, nil
}

type Options struct {
	BaseURL        string
	TokenField     string
	CollectionPath string
	User           model.Credentials
	Admin          model.Credentials
	Client         *http.Client
	Fs             afero.Fs
	Out            io.Writer
	Logger         *slog.Logger
}

type Result struct {
	UserToken  string
	AdminToken string
}

// Refresh logs in both accounts and, only when both succeed, rewrites the collection file.
func Refresh(ctx context.Context, opts Options) (Result, error) {
	out := opts.Out
	if out == nil {
		out = io.Discard
	}
	logger := opts.Logger
	if logger == nil {
		logger = slog.New(slog.NewTextHandler(io.Discard, nil))
	}
	client := opts.Client
	if client == nil {
		client = http.DefaultClient
	}
	fs := opts.Fs
	if fs == nil {
		fs = afero.NewOsFs()
	}

	fmt.Fprintln(out, "🔄 Getting fresh login tokens...")

	userToken, userErr := Login(ctx, client, opts.BaseURL, opts.User, opts.TokenField)
	adminToken, adminErr := Login(ctx, client, opts.BaseURL, opts.Admin, opts.TokenField)
	if err := errors.Join(userErr, adminErr); err != nil {
		fmt.Fprintln(out, "❌ Login failed!")
		if userErr != nil {
			fmt.Fprintf(out, "User response: %v\n", userErr)
		}
		if adminErr != nil {
			fmt.Fprintf(out, "Admin response: %v\n", adminErr)
		}
		logger.Error("token refresh login failed", "error", err)
		return Result{}, err
	}

	fmt.Fprintf(out, "✅ User Token: %s\n", userToken)
	fmt.Fprintf(out, "✅ Admin Token: %s\n", adminToken)

	if err := UpdateCollection(fs, opts.CollectionPath, userToken, adminToken); err != nil {
		fmt.Fprintf(out, "❌ Error updating REST file: %v\n", err)
		logger.Error("collection update failed", "path", opts.CollectionPath, "error", err)
		return Result{UserToken: userToken, AdminToken: adminToken}, err
	}

	fmt.Fprintf(out, "✅ Updated %s with new tokens!\n", opts.CollectionPath)
	logger.Info("collection updated", "path", opts.CollectionPath)
	return Result{UserToken: userToken, AdminToken: adminToken}, nil
}
