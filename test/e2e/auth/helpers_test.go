package auth_test

import (
	"bufio"
	"context"
	"encoding/json"
	"fmt"
	"os"
	"os/exec"
	"regexp"
	"testing"
	"time"

	"github.com/lecternhq/lectern/pkg/authsdk"
	"github.com/stretchr/testify/require"
	"github.com/testcontainers/testcontainers-go"
	"github.com/testcontainers/testcontainers-go/wait"
)

/*
 * Shared setup for the auth service end-to-end tests: the image is built
 * once, every test gets a fresh container, and OTP codes are read back from
 * the container log written by the log mail driver.
 */

const (
	testImageName = "lectern-auth-test:latest"
	testSecret    = "e2e-signing-secret-0123456789abcdef"
	testPassword  = "Correct-Horse-9"
)

// TestMain builds the Docker image once before all tests and removes it
// afterwards.
func TestMain(m *testing.M) {
	fmt.Fprintf(os.Stdout, "Building Auth Service Docker image...")

	if err := buildDockerImage(); err != nil {
		fmt.Fprintf(os.Stderr, "\nFailed to build Docker image: %v\n", err)
		os.Exit(1)
	}
	fmt.Fprintf(os.Stdout, " done\n")

	exitCode := m.Run()

	fmt.Fprintf(os.Stdout, "Cleaning up Auth Service Docker image...")
	cleanupDockerImage()
	fmt.Fprintf(os.Stdout, " done\n")

	os.Exit(exitCode)
}

func buildDockerImage() error {
	ctx := context.Background()
	cmd := exec.CommandContext(ctx, "docker", "build",
		"-t", testImageName,
		"-f", "../../../cmd/auth/Dockerfile",
		"../../../")
	cmd.Dir = "."
	cmd.Stdout = os.Stdout
	cmd.Stderr = nil

	return cmd.Run()
}

func cleanupDockerImage() {
	ctx := context.Background()
	cmd := exec.CommandContext(ctx, "docker", "rmi", "-f", testImageName)
	_ = cmd.Run() // image might not exist
}

type authContainer struct {
	testcontainers.Container
	BaseURL string
	Client  *authsdk.SDKClient
}

func baseEnv() map[string]string {
	return map[string]string{
		"ENV":             "test",
		"AUTH_JWT_SECRET": testSecret,
		"AUTH_ISSUER":     "lectern-e2e",
		"MAIL_DRIVER":     "log",
		"LOG_LEVEL":       "info",
		"LOG_FORMAT":      "json",
	}
}

// setupAuthContainer starts the service with relaxed rate limits; tests make
// many rapid requests from a single address.
func setupAuthContainer(t *testing.T) *authContainer {
	t.Helper()

	env := baseEnv()
	env["RATELIMIT_STRICT_REQUESTS"] = "1000"
	env["RATELIMIT_STRICT_WINDOW_SEC"] = "60"
	env["RATELIMIT_STRICT_BURST"] = "1000"
	env["RATELIMIT_MODERATE_REQUESTS"] = "1000"
	env["RATELIMIT_MODERATE_BURST"] = "1000"

	return startContainer(t, env)
}

// setupAuthContainerWithDefaultRateLimits keeps production limits, for the
// tests that check limiting itself.
func setupAuthContainerWithDefaultRateLimits(t *testing.T) *authContainer {
	t.Helper()
	return startContainer(t, baseEnv())
}

func startContainer(t *testing.T, env map[string]string) *authContainer {
	t.Helper()
	ctx := context.Background()

	req := testcontainers.ContainerRequest{
		Image:        testImageName,
		ExposedPorts: []string{"8080/tcp"},
		Env:          env,
		WaitingFor: wait.ForHTTP("/readyz").
			WithPort("8080/tcp").
			WithStartupTimeout(60 * time.Second),
	}

	container, err := testcontainers.GenericContainer(ctx, testcontainers.GenericContainerRequest{
		ContainerRequest: req,
		Started:          true,
	})
	require.NoError(t, err)

	t.Cleanup(func() {
		if err := container.Terminate(ctx); err != nil {
			t.Logf("failed to terminate container: %v", err)
		}
	})

	mappedPort, err := container.MappedPort(ctx, "8080")
	require.NoError(t, err)

	host, err := container.Host(ctx)
	require.NoError(t, err)

	baseURL := fmt.Sprintf("http://%s:%s", host, mappedPort.Port())
	return &authContainer{
		Container: container,
		BaseURL:   baseURL,
		Client:    authsdk.NewSDKClient(baseURL),
	}
}

var otpPattern = regexp.MustCompile(`\b\d{6}\b`)

type mailLogLine struct {
	Msg     string `json:"msg"`
	To      string `json:"to"`
	Subject string `json:"subject"`
	Body    string `json:"body"`
}

// latestCode scans the container log for the newest mail sent to email and
// returns the code in it.
func (c *authContainer) latestCode(t *testing.T, email string) string {
	t.Helper()

	var code string
	require.Eventually(t, func() bool {
		logs, err := c.Logs(context.Background())
		if err != nil {
			return false
		}
		defer logs.Close()

		code = ""
		scanner := bufio.NewScanner(logs)
		for scanner.Scan() {
			var line mailLogLine
			if json.Unmarshal(scanner.Bytes(), &line) != nil {
				continue
			}
			if line.Msg != "mail_sent" || line.To != email {
				continue
			}
			if found := otpPattern.FindString(line.Body); found != "" {
				code = found
			}
		}
		return code != ""
	}, 10*time.Second, 200*time.Millisecond, "no code mailed to %s", email)

	return code
}

// registerVerified creates a verified student and returns the session the
// verification step hands out.
func (c *authContainer) registerVerified(t *testing.T, email string) *authsdk.VerifyOTPResponse {
	t.Helper()
	ctx := t.Context()

	reg, err := c.Client.Register(ctx, authsdk.RegisterRequest{Name: "E2E User", Email: email, Password: testPassword})
	require.NoError(t, err)
	require.False(t, reg.User.IsEmailVerified)

	verified, err := c.Client.VerifyOTP(ctx, email, c.latestCode(t, email))
	require.NoError(t, err)
	require.True(t, verified.User.IsEmailVerified)
	require.NotEmpty(t, verified.Token)

	return verified
}

func (c *authContainer) login(t *testing.T, email, password string) *authsdk.Session {
	t.Helper()

	session, err := c.Client.Login(t.Context(), email, password)
	require.NoError(t, err, "login should succeed")
	require.NotNil(t, session)
	return session
}

// assertAPIError checks err is an API error equivalent to want.
func assertAPIError(t *testing.T, err error, want *authsdk.APIError, context string) {
	t.Helper()
	require.Error(t, err, context)
	require.ErrorIs(t, err, want, "%s: got %v", context, err)
}

func assertHealthy(t *testing.T, health *authsdk.HealthResponse, err error) {
	t.Helper()
	require.NoError(t, err)
	require.NotNil(t, health)
	require.Equal(t, "ok", health.Status)
}
