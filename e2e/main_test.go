package e2e

import (
	"errors"
	"fmt"
	"net/http"
	"os"
	"os/exec"
	"path/filepath"
	"testing"
	"time"
)

const (
	adminUser     = "testuser"
	adminPassword = "testpass123"
	defaultPort   = "8081"
)

// appURL is the base URL of the pocketbook server under test.
var appURL string

func TestMain(m *testing.M) {
	os.Exit(runE2E(m))
}

func runE2E(m *testing.M) int {
	root, err := moduleRoot()
	if err != nil {
		fmt.Println(err)
		return 1
	}

	workDir, err := os.MkdirTemp("", "pocketbook-e2e-")
	if err != nil {
		fmt.Printf("create work dir: %v\n", err)
		return 1
	}
	defer os.RemoveAll(workDir)

	binary := filepath.Join(workDir, "pocketbook")
	if out, err := buildServer(root, binary); err != nil {
		fmt.Printf("build server: %v\n%s\n", err, out)
		return 1
	}

	port := os.Getenv("E2E_PORT")
	if port == "" {
		port = defaultPort
	}
	appURL = "http://localhost:" + port

	server, err := startServer(root, binary, port, filepath.Join(workDir, "pocketbook.db"))
	if err != nil {
		fmt.Println(err)
		return 1
	}
	defer stopServer(server)

	if err := waitHealthy(appURL+"/healthz", 5*time.Second); err != nil {
		fmt.Println(err)
		return 1
	}

	return m.Run()
}

// moduleRoot locates the directory holding go.mod, whether the tests run
// from e2e/ or from the module root.
func moduleRoot() (string, error) {
	for _, dir := range []string{"..", "."} {
		if _, err := os.Stat(filepath.Join(dir, "cmd", "server")); err == nil {
			return filepath.Abs(dir)
		}
	}
	return "", errors.New("cmd/server not found")
}

func buildServer(root, binary string) ([]byte, error) {
	cmd := exec.Command("go", "build", "-o", binary, "./cmd/server")
	cmd.Dir = root
	return cmd.CombinedOutput()
}

// startServer runs the binary from root so the default template and static
// directories resolve, with a bootstrap admin and one global category.
func startServer(root, binary, port, dbPath string) (*exec.Cmd, error) {
	cmd := exec.Command(binary)
	cmd.Dir = root
	cmd.Env = append(os.Environ(),
		"PORT="+port,
		"DB_PATH="+dbPath,
		"ADMIN_USER="+adminUser,
		"ADMIN_PASSWORD="+adminPassword,
		"GLOBAL_CATEGORIES=Taxes",
		"LOG_ENV=prod",
	)
	cmd.Stdout = os.Stdout
	cmd.Stderr = os.Stderr

	if err := cmd.Start(); err != nil {
		return nil, fmt.Errorf("start server: %w", err)
	}
	return cmd, nil
}

func stopServer(cmd *exec.Cmd) {
	if err := cmd.Process.Kill(); err != nil {
		fmt.Printf("stop server: %v\n", err)
	}
	_ = cmd.Wait()
}

func waitHealthy(url string, timeout time.Duration) error {
	client := &http.Client{Timeout: time.Second}
	deadline := time.Now().Add(timeout)
	for time.Now().Before(deadline) {
		resp, err := client.Get(url)
		if err == nil {
			resp.Body.Close()
			if resp.StatusCode == http.StatusOK {
				return nil
			}
		}
		time.Sleep(100 * time.Millisecond)
	}
	return fmt.Errorf("server not healthy at %s after %s", url, timeout)
}
