package ygggo_cassandra

import (
	"context"
	"strings"
	"testing"
)

// scriptedRunner replays canned outputs keyed by the joined command line.
type scriptedRunner struct {
	responses map[string]scriptedResponse
	calls     []string
}

type scriptedResponse struct {
	out  string
	code int
}

func (r *scriptedRunner) Run(_ context.Context, name string, args ...string) (string, string, int, error) {
	line := name + " " + strings.Join(args, " ")
	r.calls = append(r.calls, line)
	for prefix, resp := range r.responses {
		if strings.HasPrefix(line, prefix) {
			return resp.out, "", resp.code, nil
		}
	}
	return "", "", 1, nil
}

func withRunner(t *testing.T, r CommandRunner) {
	t.Helper()
	prev := dockerRunner
	dockerRunner = r
	t.Cleanup(func() { dockerRunner = prev })
}

func TestIsDockerInstalled(t *testing.T) {
	withRunner(t, &scriptedRunner{responses: map[string]scriptedResponse{
		"docker version": {out: "24.0.7\n"},
	}})
	if !IsDockerInstalled(context.Background()) {
		t.Fatal("docker reported missing despite version output")
	}

	withRunner(t, &scriptedRunner{responses: map[string]scriptedResponse{
		"docker version": {out: "", code: 127},
	}})
	if IsDockerInstalled(context.Background()) {
		t.Fatal("docker reported present on failure")
	}
}

func TestIsCassandra(t *testing.T) {
	t.Setenv(EnvDockerContainerName, "cass-it")
	withRunner(t, &scriptedRunner{responses: map[string]scriptedResponse{
		"docker inspect -f {{.State.Running}} cass-it": {out: "true\n"},
	}})
	if !IsCassandra(context.Background()) {
		t.Fatal("running container not detected")
	}

	withRunner(t, &scriptedRunner{responses: map[string]scriptedResponse{
		"docker inspect -f {{.State.Running}} cass-it": {out: "false\n"},
	}})
	if IsCassandra(context.Background()) {
		t.Fatal("stopped container reported running")
	}

	withRunner(t, &scriptedRunner{responses: map[string]scriptedResponse{
		"docker inspect": {out: "Error: No such object", code: 1},
	}})
	if IsCassandra(context.Background()) {
		t.Fatal("missing container reported running")
	}
}

func TestResolveMappedPort(t *testing.T) {
	withRunner(t, &scriptedRunner{responses: map[string]scriptedResponse{
		"docker inspect": {out: "32768\n"},
	}})
	if got := resolveMappedPort(context.Background(), "cass-it"); got != "32768" {
		t.Fatalf("port = %q", got)
	}

	withRunner(t, &scriptedRunner{responses: map[string]scriptedResponse{
		"docker inspect": {out: "", code: 1},
	}})
	if got := resolveMappedPort(context.Background(), "cass-it"); got != "" {
		t.Fatalf("port on failure = %q", got)
	}
}

func TestNewCassandra_StartsContainer(t *testing.T) {
	t.Setenv(EnvDockerContainerName, "cass-new")
	t.Setenv(EnvCassandraHostPort, "19042")
	t.Setenv(EnvCassandraVersion, "4.1")
	t.Setenv(EnvPort, "")

	r := &scriptedRunner{responses: map[string]scriptedResponse{
		"docker inspect -f {{.State.Running}} cass-new": {out: "", code: 1},
		"docker run":  {out: "deadbeef\n"},
		"docker exec": {out: "release_version\n4.1.3\n"},
	}}
	withRunner(t, r)

	if err := NewCassandra(context.Background()); err != nil {
		t.Fatalf("NewCassandra: %v", err)
	}

	var runLine string
	for _, c := range r.calls {
		if strings.HasPrefix(c, "docker run") {
			runLine = c
		}
	}
	if runLine == "" {
		t.Fatal("docker run never invoked")
	}
	for _, want := range []string{"--name cass-new", "CASSANDRA_DC=datacenter1", "-p 19042:9042", "cassandra:4.1"} {
		if !strings.Contains(runLine, want) {
			t.Fatalf("docker run missing %q: %s", want, runLine)
		}
	}
	if got := getenv(EnvPort, ""); got != "19042" {
		t.Fatalf("port env not published: %q", got)
	}
}

func TestDeleteCassandra(t *testing.T) {
	t.Setenv(EnvDockerContainerName, "cass-rm")
	r := &scriptedRunner{responses: map[string]scriptedResponse{
		"docker rm -f cass-rm": {out: "cass-rm\n"},
	}}
	withRunner(t, r)
	if err := DeleteCassandra(context.Background()); err != nil {
		t.Fatalf("DeleteCassandra: %v", err)
	}

	withRunner(t, &scriptedRunner{responses: map[string]scriptedResponse{
		"docker rm": {out: "Error", code: 1},
	}})
	if err := DeleteCassandra(context.Background()); err == nil {
		t.Fatal("rm failure swallowed")
	}
}
