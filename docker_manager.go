package ygggo_cassandra

import (
	"context"
	"errors"
	"fmt"
	"os"
	"os/exec"
	"strings"
	"time"
)

// CommandRunner abstracts shell command execution for testability.
// It returns stdout, stderr, exitCode and an error if the command could not
// be started. If err == nil, exitCode should still be checked.
type CommandRunner interface {
	Run(ctx context.Context, name string, args ...string) (string, string, int, error)
}

type defaultCommandRunner struct{}

func (d defaultCommandRunner) Run(ctx context.Context, name string, args ...string) (string, string, int, error) {
	cmd := exec.CommandContext(ctx, name, args...)
	out, err := cmd.CombinedOutput()
	code := 0
	if err != nil {
		var ee *exec.ExitError
		if errors.As(err, &ee) {
			code = ee.ExitCode()
		} else {
			code = 1
		}
	}
	return string(out), "", code, nil
}

// dockerRunner is package-level overridable runner (for tests).
var dockerRunner CommandRunner = defaultCommandRunner{}

func getenv(key, def string) string {
	if v := strings.TrimSpace(os.Getenv(key)); v != "" {
		return v
	}
	return def
}

// Docker/Cassandra related environment keys.
const (
	EnvDockerContainerName = "YGGGO_CASSANDRA_DOCKER_CONTAINER"
	EnvCassandraVersion    = "YGGGO_CASSANDRA_VERSION"
	EnvCassandraDC         = "YGGGO_CASSANDRA_DOCKER_DC"
	EnvCassandraHostPort   = "YGGGO_CASSANDRA_DOCKER_PORT" // host port bound to 9042
)

// IsDockerInstalled checks if the Docker CLI is available on the system.
func IsDockerInstalled(ctx context.Context) bool {
	out, _, code, _ := dockerRunner.Run(ctx, "docker", "version", "--format", "{{.Server.Version}}")
	return code == 0 && strings.TrimSpace(out) != ""
}

// IsCassandra checks whether the configured container exists and is running.
func IsCassandra(ctx context.Context) bool {
	name := getenv(EnvDockerContainerName, "ygggo-cassandra")
	out, _, code, _ := dockerRunner.Run(ctx, "docker", "inspect", "-f", "{{.State.Running}}", name)
	if code == 0 {
		return strings.HasPrefix(strings.TrimSpace(strings.ToLower(out)), "true")
	}
	return false
}

// resolveMappedPort reads the host port mapped to container 9042.
func resolveMappedPort(ctx context.Context, name string) string {
	out, _, code, _ := dockerRunner.Run(ctx, "docker", "inspect", "-f",
		"{{ (index (index .NetworkSettings.Ports \"9042/tcp\") 0).HostPort }}", name)
	if code != 0 {
		return ""
	}
	return strings.TrimSpace(out)
}

// NewCassandra ensures a Cassandra container exists, creating one if needed.
// Used env vars:
//   - YGGGO_CASSANDRA_DOCKER_CONTAINER (default: ygggo-cassandra)
//   - YGGGO_CASSANDRA_VERSION (default: 4.1)
//   - YGGGO_CASSANDRA_DOCKER_DC (default: datacenter1)
//   - YGGGO_CASSANDRA_DOCKER_PORT (default: random host port)
func NewCassandra(ctx context.Context) error {
	name := getenv(EnvDockerContainerName, "ygggo-cassandra")
	if IsCassandra(ctx) {
		return waitForCassandraReady(ctx, name, 60*time.Second)
	}

	version := getenv(EnvCassandraVersion, "4.1")
	dc := getenv(EnvCassandraDC, "datacenter1")
	hostPort := strings.TrimSpace(os.Getenv(EnvCassandraHostPort))

	args := []string{"run", "-d", "--name", name,
		"-e", "CASSANDRA_DC=" + dc,
		"-e", "CASSANDRA_ENDPOINT_SNITCH=GossipingPropertyFileSnitch",
	}
	if hostPort != "" {
		args = append(args, "-p", hostPort+":9042")
	} else {
		args = append(args, "-p", "9042")
	}
	args = append(args, "cassandra:"+version)

	out, _, code, err := dockerRunner.Run(ctx, "docker", args...)
	if err != nil || code != 0 {
		return fmt.Errorf("docker run cassandra failed (code=%d): %s", code, strings.TrimSpace(out))
	}
	if hostPort == "" {
		if mapped := resolveMappedPort(ctx, name); mapped != "" {
			os.Setenv(EnvCassandraHostPort, mapped)
			os.Setenv(EnvPort, mapped)
		}
	} else {
		os.Setenv(EnvPort, hostPort)
	}
	// Fresh containers take a while to accept CQL.
	return waitForCassandraReady(ctx, name, 120*time.Second)
}

// waitForCassandraReady polls cqlsh inside the container until the node
// answers or the timeout elapses.
func waitForCassandraReady(ctx context.Context, containerName string, timeout time.Duration) error {
	deadline := time.Now().Add(timeout)
	for time.Now().Before(deadline) {
		if ctx.Err() != nil {
			return ctx.Err()
		}
		out, _, code, _ := dockerRunner.Run(ctx, "docker", "exec", containerName,
			"cqlsh", "-e", "SELECT release_version FROM system.local")
		if code == 0 && strings.Contains(out, "release_version") {
			return nil
		}
		time.Sleep(2 * time.Second)
	}
	return fmt.Errorf("cassandra container %s not ready after %s", containerName, timeout)
}

// DeleteCassandra force-removes the configured container.
func DeleteCassandra(ctx context.Context) error {
	name := getenv(EnvDockerContainerName, "ygggo-cassandra")
	out, _, code, _ := dockerRunner.Run(ctx, "docker", "rm", "-f", name)
	if code != 0 {
		return fmt.Errorf("docker rm failed: %s", strings.TrimSpace(out))
	}
	return nil
}
