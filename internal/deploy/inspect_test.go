package deploy_test

import (
	"context"
	"errors"
	"testing"

	"skiff/internal/adapter/fake"
	"skiff/internal/deploy"
)

func TestInspect(t *testing.T) {
	t.Run("query failures degrade to absent", func(t *testing.T) {
		ctx := t.Context()
		rt := fake.NewContainerRuntime()
		px := fake.NewProxyService()
		rt.SeedContainer("app", true)
		rt.SeedImage("app:latest")
		px.SeedSite("app.example.com", true)

		rt.ListContainersErr = func(context.Context) error { return errors.New("daemon down") }
		rt.ListImagesErr = func(context.Context) error { return errors.New("daemon down") }
		px.SiteStateErr = func(context.Context, string) error { return errors.New("no nginx") }

		insp := deploy.Inspector{Runtime: rt, Proxy: px}
		state := insp.Inspect(ctx, testTarget())
		if state != (deploy.HostState{}) {
			t.Fatalf("state = %+v, want all-absent on query failure", state)
		}
	})

	t.Run("proxy not queried without server name", func(t *testing.T) {
		ctx := t.Context()
		rt := fake.NewContainerRuntime()
		px := fake.NewProxyService()

		target := testTarget()
		target.ServerName = ""

		insp := deploy.Inspector{Runtime: rt, Proxy: px}
		insp.Inspect(ctx, target)
		if n := len(px.Calls("")); n != 0 {
			t.Fatalf("%d proxy calls for a proxyless target, want 0", n)
		}
	})

	t.Run("stock default site is reported", func(t *testing.T) {
		ctx := t.Context()
		rt := fake.NewContainerRuntime()
		px := fake.NewProxyService()
		px.SeedSite(deploy.DefaultSite, true)

		insp := deploy.Inspector{Runtime: rt, Proxy: px}
		state := insp.Inspect(ctx, testTarget())
		if !state.DefaultSiteLinked {
			t.Fatal("linked stock site not reported")
		}
	})
}
