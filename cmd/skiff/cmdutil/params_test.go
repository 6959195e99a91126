package cmdutil

import (
	"testing"

	"skiff/cmd/skiff/ui"
	"skiff/config"
)

func TestResolveDeployToken(t *testing.T) {
	// Force non-interactive so the optional token prompt must stay silent.
	ui.ConfigureInteraction(true)

	t.Run("flag token is kept", func(t *testing.T) {
		f := &Flags{Token: "ghp_secret"}
		s := testSettings()
		if err := f.ResolveDeploy(s, true); err != nil {
			t.Fatalf("ResolveDeploy: %v", err)
		}
		if f.Token != "ghp_secret" {
			t.Errorf("token = %q, want the flag value", f.Token)
		}
	})

	t.Run("empty token stays empty without a terminal", func(t *testing.T) {
		f := &Flags{}
		s := testSettings()
		if err := f.ResolveDeploy(s, true); err != nil {
			t.Fatalf("ResolveDeploy: %v", err)
		}
		if f.Token != "" {
			t.Errorf("token = %q, want empty (public repository)", f.Token)
		}
	})
}

func TestAppName(t *testing.T) {
	tests := []struct {
		repo string
		want string
	}{
		{"https://github.com/you/My-App.git", "my-app"},
		{"https://github.com/you/app", "app"},
		{"git@github.com:you/app.git", "app"},
		{"https://example.com/group/sub/app.git/", "app"},
		{"", "skiff-app"},
	}
	for _, tt := range tests {
		if got := AppName(tt.repo); got != tt.want {
			t.Errorf("AppName(%q) = %q, want %q", tt.repo, got, tt.want)
		}
	}
}

func TestTarget(t *testing.T) {
	s := testSettings()

	t.Run("remote", func(t *testing.T) {
		target := Target(s, "/home/me/.cache/skiff/src/app", false)
		if target.ContainerName != "app" || target.ImageName != "app:latest" {
			t.Errorf("names = %q / %q", target.ContainerName, target.ImageName)
		}
		if target.BuildPath != "/opt/skiff/app" {
			t.Errorf("build path = %q", target.BuildPath)
		}
		if target.ServerName != "app.example.com" || !target.ProxyEnabled() {
			t.Errorf("server name = %q", target.ServerName)
		}
		if target.HostPort != 3000 || target.ContainerPort != 3000 {
			t.Errorf("ports = %d:%d", target.HostPort, target.ContainerPort)
		}
	})

	t.Run("local", func(t *testing.T) {
		target := Target(s, "/home/me/.cache/skiff/src/app", true)
		if target.BuildPath != "/home/me/.cache/skiff/src/app" {
			t.Errorf("build path = %q, want the checkout", target.BuildPath)
		}
		if target.ProxyEnabled() {
			t.Error("local targets must not manage a proxy")
		}
	})
}

func TestCheckoutDir(t *testing.T) {
	t.Setenv("XDG_CACHE_HOME", "/tmp/cache-test")
	got, err := CheckoutDir("https://github.com/you/app.git")
	if err != nil {
		t.Fatal(err)
	}
	if got != "/tmp/cache-test/skiff/src/app" {
		t.Errorf("CheckoutDir = %q", got)
	}
}

func testSettings() *config.Settings {
	return &config.Settings{
		RepoURL:    "https://github.com/you/app.git",
		Host:       "203.0.113.7",
		User:       "deploy",
		AppPort:    3000,
		ServerName: "app.example.com",
	}
}
