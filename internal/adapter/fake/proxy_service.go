package fake

import (
	"context"
	"fmt"
	"sync"

	"skiff/internal/deploy"
)

var _ deploy.ProxyService = (*ProxyService)(nil)

type siteState struct {
	Content string
	Linked  bool
}

// ProxyService is an in-memory implementation of deploy.ProxyService.
type ProxyService struct {
	CallRecorder
	mu    sync.Mutex
	sites map[string]*siteState

	SiteStateErr      func(ctx context.Context, site string) error
	WriteConfigErr    func(ctx context.Context, site, serverBlock string) error
	LinkSiteErr       func(ctx context.Context, site string) error
	UnlinkSiteErr     func(ctx context.Context, site string) error
	RemoveSiteFileErr func(ctx context.Context, site string) error
	ValidateErr       func(ctx context.Context) error
	ReloadErr         func(ctx context.Context) error
	RestartErr        func(ctx context.Context) error
}

// NewProxyService creates an empty ProxyService.
func NewProxyService() *ProxyService {
	return &ProxyService{sites: make(map[string]*siteState)}
}

// SeedSite installs a pre-existing site file, optionally linked.
func (p *ProxyService) SeedSite(site string, linked bool) {
	p.mu.Lock()
	defer p.mu.Unlock()
	p.sites[site] = &siteState{Linked: linked}
}

// SiteContent returns the written config for a site, or "" if absent.
func (p *ProxyService) SiteContent(site string) string {
	p.mu.Lock()
	defer p.mu.Unlock()
	if st, ok := p.sites[site]; ok {
		return st.Content
	}
	return ""
}

func (p *ProxyService) SiteState(ctx context.Context, site string) (deploy.SiteState, error) {
	p.record("SiteState", site)
	if p.SiteStateErr != nil {
		if err := p.SiteStateErr(ctx, site); err != nil {
			return deploy.SiteState{}, err
		}
	}
	p.mu.Lock()
	defer p.mu.Unlock()

	st, ok := p.sites[site]
	if !ok {
		return deploy.SiteState{}, nil
	}
	return deploy.SiteState{FileExists: true, Linked: st.Linked}, nil
}

func (p *ProxyService) WriteConfig(ctx context.Context, site, serverBlock string) error {
	p.record("WriteConfig", site, serverBlock)
	if p.WriteConfigErr != nil {
		if err := p.WriteConfigErr(ctx, site, serverBlock); err != nil {
			return err
		}
	}
	p.mu.Lock()
	defer p.mu.Unlock()

	st, ok := p.sites[site]
	if !ok {
		st = &siteState{}
		p.sites[site] = st
	}
	st.Content = serverBlock
	return nil
}

func (p *ProxyService) LinkSite(ctx context.Context, site string) error {
	p.record("LinkSite", site)
	if p.LinkSiteErr != nil {
		if err := p.LinkSiteErr(ctx, site); err != nil {
			return err
		}
	}
	p.mu.Lock()
	defer p.mu.Unlock()

	st, ok := p.sites[site]
	if !ok {
		return fmt.Errorf("site %q has no config file", site)
	}
	st.Linked = true
	return nil
}

func (p *ProxyService) UnlinkSite(ctx context.Context, site string) error {
	p.record("UnlinkSite", site)
	if p.UnlinkSiteErr != nil {
		if err := p.UnlinkSiteErr(ctx, site); err != nil {
			return err
		}
	}
	p.mu.Lock()
	defer p.mu.Unlock()

	st, ok := p.sites[site]
	if !ok || !st.Linked {
		return fmt.Errorf("site %q is not linked", site)
	}
	st.Linked = false
	return nil
}

func (p *ProxyService) RemoveSiteFile(ctx context.Context, site string) error {
	p.record("RemoveSiteFile", site)
	if p.RemoveSiteFileErr != nil {
		if err := p.RemoveSiteFileErr(ctx, site); err != nil {
			return err
		}
	}
	p.mu.Lock()
	defer p.mu.Unlock()

	if _, ok := p.sites[site]; !ok {
		return fmt.Errorf("site %q has no config file", site)
	}
	delete(p.sites, site)
	return nil
}

func (p *ProxyService) Validate(ctx context.Context) error {
	p.record("Validate")
	if p.ValidateErr != nil {
		return p.ValidateErr(ctx)
	}
	return nil
}

func (p *ProxyService) Reload(ctx context.Context) error {
	p.record("Reload")
	if p.ReloadErr != nil {
		return p.ReloadErr(ctx)
	}
	return nil
}

func (p *ProxyService) Restart(ctx context.Context) error {
	p.record("Restart")
	if p.RestartErr != nil {
		return p.RestartErr(ctx)
	}
	return nil
}
