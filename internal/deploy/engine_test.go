package deploy_test

import (
	"context"
	"errors"
	"strings"
	"testing"

	"skiff/internal/adapter/fake"
	"skiff/internal/deploy"
)

func testTarget() deploy.Target {
	return deploy.Target{
		ContainerName: "app",
		ImageName:     "app:latest",
		HostPort:      3000,
		ContainerPort: 3000,
		ServerName:    "app.example.com",
		BuildPath:     "/opt/skiff/app",
	}
}

type testHost struct {
	engine  *deploy.Engine
	runtime *fake.ContainerRuntime
	proxy   *fake.ProxyService
	host    *fake.Host
}

// newTestHost builds an engine over fakes with the build descriptor
// already in place.
func newTestHost() testHost {
	rt := fake.NewContainerRuntime()
	px := fake.NewProxyService()
	h := fake.NewHost()
	h.SeedFile("/opt/skiff/app/Dockerfile")
	return testHost{
		engine:  &deploy.Engine{Runtime: rt, Proxy: px, Host: h},
		runtime: rt,
		proxy:   px,
		host:    h,
	}
}

func inspect(ctx context.Context, th testHost, target deploy.Target) deploy.HostState {
	insp := deploy.Inspector{Runtime: th.runtime, Proxy: th.proxy}
	return insp.Inspect(ctx, target)
}

func TestEngineConverge(t *testing.T) {
	t.Run("fresh host", func(t *testing.T) {
		ctx := t.Context()
		th := newTestHost()

		res := th.engine.Converge(ctx, testTarget())
		if !res.Succeeded {
			t.Fatalf("converge failed: %s", res.Message)
		}

		state := inspect(ctx, th, testTarget())
		if !state.ContainerExists || !state.ContainerRunning || !state.ImageExists {
			t.Fatalf("container/image not in place: %+v", state)
		}
		if !state.SiteFileExists || !state.SiteLinked {
			t.Fatalf("site not in place: %+v", state)
		}
		if got := th.proxy.SiteContent("app.example.com"); !strings.Contains(got, "server_name app.example.com;") {
			t.Errorf("site config = %q, want rendered server block", got)
		}
		if n := th.proxy.CallCount("Validate"); n != 1 {
			t.Errorf("Validate called %d times, want 1", n)
		}
		if n := th.proxy.CallCount("Reload"); n != 1 {
			t.Errorf("Reload called %d times, want 1", n)
		}
	})

	t.Run("second run converges to the same state", func(t *testing.T) {
		ctx := t.Context()
		th := newTestHost()

		if res := th.engine.Converge(ctx, testTarget()); !res.Succeeded {
			t.Fatalf("first converge failed: %s", res.Message)
		}
		first := inspect(ctx, th, testTarget())

		th.runtime.Reset()
		if res := th.engine.Converge(ctx, testTarget()); !res.Succeeded {
			t.Fatalf("second converge failed: %s", res.Message)
		}
		second := inspect(ctx, th, testTarget())

		if first != second {
			t.Fatalf("states differ: first %+v, second %+v", first, second)
		}
		// The second run replaces, not duplicates: old container and image
		// go first.
		for _, method := range []string{"StopContainer", "RemoveContainer", "RemoveImage", "BuildImage", "RunContainer"} {
			if n := th.runtime.CallCount(method); n != 1 {
				t.Errorf("%s called %d times, want 1", method, n)
			}
		}
	})

	t.Run("tolerant stop failure is absorbed", func(t *testing.T) {
		ctx := t.Context()
		th := newTestHost()
		th.runtime.SeedContainer("app", true)
		th.runtime.StopContainerErr = func(context.Context, string) error {
			return errors.New("no such container")
		}

		res := th.engine.Converge(ctx, testTarget())
		if !res.Succeeded {
			t.Fatalf("converge failed: %s", res.Message)
		}
	})

	t.Run("missing build descriptor is fatal before build", func(t *testing.T) {
		ctx := t.Context()
		th := newTestHost()
		th.host = fake.NewHost() // no descriptor seeded
		th.engine.Host = th.host

		res := th.engine.Converge(ctx, testTarget())
		if res.Succeeded {
			t.Fatal("converge succeeded without a build descriptor")
		}
		if res.Class != deploy.ClassBuild || res.FailedAction != deploy.ActionBuildImage {
			t.Fatalf("class = %v, action = %v; want build/build_image", res.Class, res.FailedAction)
		}
		if n := th.runtime.CallCount("BuildImage"); n != 0 {
			t.Errorf("BuildImage called %d times after failed descriptor probe", n)
		}
	})

	t.Run("build failure stops the run", func(t *testing.T) {
		ctx := t.Context()
		th := newTestHost()
		th.runtime.BuildImageErr = func(context.Context, string, string) error {
			return errors.New("step 3/7 failed")
		}

		res := th.engine.Converge(ctx, testTarget())
		if res.Succeeded || res.Class != deploy.ClassBuild {
			t.Fatalf("result = %+v, want build failure", res)
		}
		if n := th.runtime.CallCount("RunContainer"); n != 0 {
			t.Errorf("RunContainer called %d times after failed build", n)
		}
		if n := len(th.proxy.Calls("")); n != 0 {
			t.Errorf("%d proxy calls after failed build, want 0", n)
		}
	})

	t.Run("run failure stops the run", func(t *testing.T) {
		ctx := t.Context()
		th := newTestHost()
		th.runtime.RunContainerErr = func(context.Context, deploy.RunConfig) error {
			return errors.New("bind: address already in use")
		}

		res := th.engine.Converge(ctx, testTarget())
		if res.Succeeded || res.Class != deploy.ClassRun {
			t.Fatalf("result = %+v, want run failure", res)
		}
		if n := len(th.proxy.Calls("")); n != 0 {
			t.Errorf("%d proxy calls after failed run, want 0", n)
		}
	})

	t.Run("proxy validation failure leaves container running", func(t *testing.T) {
		ctx := t.Context()
		th := newTestHost()
		th.proxy.ValidateErr = func(context.Context) error {
			return errors.New(`unknown directive "serverr"`)
		}

		res := th.engine.Converge(ctx, testTarget())
		if res.Succeeded || res.Class != deploy.ClassProxy {
			t.Fatalf("result = %+v, want proxy failure", res)
		}
		if res.FailedAction != deploy.ActionValidateProxy {
			t.Fatalf("failed action = %v, want validate_proxy", res.FailedAction)
		}
		if n := th.proxy.CallCount("Reload"); n != 0 {
			t.Errorf("Reload called %d times after failed validation", n)
		}
		state := inspect(ctx, th, testTarget())
		if !state.ContainerRunning {
			t.Error("container not running after proxy-only failure")
		}
	})

	t.Run("reload falls back to restart", func(t *testing.T) {
		ctx := t.Context()
		th := newTestHost()
		th.proxy.ReloadErr = func(context.Context) error {
			return errors.New("signal process: no pid")
		}

		res := th.engine.Converge(ctx, testTarget())
		if !res.Succeeded {
			t.Fatalf("converge failed despite restart fallback: %s", res.Message)
		}
		if n := th.proxy.CallCount("Restart"); n != 1 {
			t.Errorf("Restart called %d times, want 1", n)
		}
	})

	t.Run("reload and restart both failing is fatal", func(t *testing.T) {
		ctx := t.Context()
		th := newTestHost()
		th.proxy.ReloadErr = func(context.Context) error { return errors.New("reload failed") }
		th.proxy.RestartErr = func(context.Context) error { return errors.New("restart failed") }

		res := th.engine.Converge(ctx, testTarget())
		if res.Succeeded || res.Class != deploy.ClassProxy || res.FailedAction != deploy.ActionReloadProxy {
			t.Fatalf("result = %+v, want proxy/reload_proxy failure", res)
		}
	})

	t.Run("local target needs no proxy service", func(t *testing.T) {
		ctx := t.Context()
		rt := fake.NewContainerRuntime()
		h := fake.NewHost()
		h.SeedFile("/tmp/app/Dockerfile")
		engine := &deploy.Engine{Runtime: rt, Host: h}

		target := testTarget()
		target.ServerName = ""
		target.BuildPath = "/tmp/app"

		res := engine.Converge(ctx, target)
		if !res.Succeeded {
			t.Fatalf("local converge failed: %s", res.Message)
		}
	})
}

func TestEngineTeardown(t *testing.T) {
	t.Run("empty host is already converged", func(t *testing.T) {
		ctx := t.Context()
		th := newTestHost()

		res := th.engine.Teardown(ctx, "app.example.com")
		if !res.Succeeded {
			t.Fatalf("teardown failed: %s", res.Message)
		}
		for _, method := range []string{"StopContainer", "RemoveContainer", "RemoveImage"} {
			if n := th.runtime.CallCount(method); n != 0 {
				t.Errorf("%s called %d times on an empty host", method, n)
			}
		}
	})

	t.Run("host-wide sweep", func(t *testing.T) {
		ctx := t.Context()
		th := newTestHost()
		th.runtime.SeedContainer("app", true)
		th.runtime.SeedContainer("other", false)
		th.runtime.SeedImage("app:latest")
		th.runtime.SeedImage("other:v2")
		th.proxy.SeedSite("app.example.com", true)

		res := th.engine.Teardown(ctx, "app.example.com")
		if !res.Succeeded {
			t.Fatalf("teardown failed: %s", res.Message)
		}

		state := inspect(ctx, th, testTarget())
		if !state.Empty() {
			t.Fatalf("state after teardown not empty: %+v", state)
		}
		containers, _ := th.runtime.ListContainers(ctx)
		if len(containers) != 0 {
			t.Errorf("%d containers left, teardown is host-wide", len(containers))
		}
		images, _ := th.runtime.ListImages(ctx)
		if len(images) != 0 {
			t.Errorf("%d images left, teardown is host-wide", len(images))
		}
		for _, method := range []string{"UnlinkSite", "RemoveSiteFile", "Reload"} {
			if n := th.proxy.CallCount(method); n != 1 {
				t.Errorf("%s called %d times, want 1", method, n)
			}
		}
	})

	t.Run("teardown converge teardown ends empty", func(t *testing.T) {
		ctx := t.Context()
		th := newTestHost()

		if res := th.engine.Teardown(ctx, "app.example.com"); !res.Succeeded {
			t.Fatalf("first teardown failed: %s", res.Message)
		}
		fresh := inspect(ctx, th, testTarget())

		if res := th.engine.Converge(ctx, testTarget()); !res.Succeeded {
			t.Fatalf("converge failed: %s", res.Message)
		}
		if res := th.engine.Teardown(ctx, "app.example.com"); !res.Succeeded {
			t.Fatalf("second teardown failed: %s", res.Message)
		}

		final := inspect(ctx, th, testTarget())
		if !final.Empty() || final != fresh {
			t.Fatalf("final state %+v differs from fresh teardown state %+v", final, fresh)
		}
	})
}
