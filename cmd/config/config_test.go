package config

import (
	"os"
	"testing"

	"github.com/spf13/viper"

	"vaultnode/internal/testutil"
)

func TestLoadConfigDefault(t *testing.T) {
	wd, err := os.Getwd()
	if err != nil {
		t.Fatalf("Getwd failed: %v", err)
	}
	defer os.Chdir(wd)
	viper.Reset()

	if err := os.Chdir(".."); err != nil {
		t.Fatalf("chdir failed: %v", err)
	}
	LoadConfig("")
	if AppConfig.Replication.Factor != 4 {
		t.Fatalf("unexpected replication factor: %d", AppConfig.Replication.Factor)
	}
	if AppConfig.Node.First {
		t.Fatalf("expected default config to not bootstrap the network")
	}
}

func TestLoadConfigOverride(t *testing.T) {
	wd, err := os.Getwd()
	if err != nil {
		t.Fatalf("Getwd failed: %v", err)
	}
	defer os.Chdir(wd)
	viper.Reset()

	if err := os.Chdir(".."); err != nil {
		t.Fatalf("chdir failed: %v", err)
	}
	LoadConfig("bootstrap")
	if !AppConfig.Node.First {
		t.Fatalf("expected bootstrap override to set first=true")
	}
	if AppConfig.Replication.AckQuorum != 4 {
		t.Fatalf("expected ack quorum override to 4, got %d", AppConfig.Replication.AckQuorum)
	}
}

func TestLoadConfigSandbox(t *testing.T) {
	sb, err := testutil.NewSandbox()
	if err != nil {
		t.Fatalf("NewSandbox failed: %v", err)
	}
	defer sb.Cleanup()

	if err := os.Mkdir(sb.Path("config"), 0700); err != nil {
		t.Fatalf("Mkdir failed: %v", err)
	}

	data := []byte("node:\n  root_dir: /tmp/sandboxed\n  max_capacity: 99\n")
	if err := sb.WriteFile("config/default.yaml", data, 0600); err != nil {
		t.Fatalf("WriteFile failed: %v", err)
	}

	wd, err := os.Getwd()
	if err != nil {
		t.Fatalf("Getwd failed: %v", err)
	}
	defer os.Chdir(wd)
	viper.Reset()

	if err := os.Chdir(sb.Root); err != nil {
		t.Fatalf("chdir failed: %v", err)
	}
	LoadConfig("")

	if AppConfig.Node.RootDir != "/tmp/sandboxed" {
		t.Fatalf("expected root dir override, got %s", AppConfig.Node.RootDir)
	}
	if AppConfig.Node.MaxCapacity != 99 {
		t.Fatalf("expected MaxCapacity 99, got %d", AppConfig.Node.MaxCapacity)
	}
}
