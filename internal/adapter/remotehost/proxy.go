package remotehost

import (
	"context"
	"fmt"
	"path"
	"strings"

	"skiff/internal/deploy"
)

const (
	sitesAvailable = "/etc/nginx/sites-available"
	sitesEnabled   = "/etc/nginx/sites-enabled"
)

var _ deploy.ProxyService = (*Proxy)(nil)

// Proxy implements deploy.ProxyService against nginx on the remote host,
// using the Debian sites-available/sites-enabled layout.
type Proxy struct {
	client *Client
}

// NewProxy returns a Proxy bound to the given client.
func NewProxy(client *Client) *Proxy {
	return &Proxy{client: client}
}

func (p *Proxy) SiteState(ctx context.Context, site string) (deploy.SiteState, error) {
	avail := shellQuote(path.Join(sitesAvailable, site))
	enabled := shellQuote(path.Join(sitesEnabled, site))
	out, err := p.client.RunScriptOutput(ctx, script(
		`if [ -f `+avail+` ]; then echo file=yes; else echo file=no; fi`,
		`if [ -e `+enabled+` ]; then echo link=yes; else echo link=no; fi`,
	))
	if err != nil {
		return deploy.SiteState{}, fmt.Errorf("site state %s: %w", site, err)
	}
	return deploy.SiteState{
		FileExists: strings.Contains(out, "file=yes"),
		Linked:     strings.Contains(out, "link=yes"),
	}, nil
}

func (p *Proxy) WriteConfig(ctx context.Context, site, serverBlock string) error {
	target := shellQuote(path.Join(sitesAvailable, site))
	var b strings.Builder
	b.WriteString(`$SUDO tee ` + target + ` >/dev/null <<'SKIFF_EOF'` + "\n")
	b.WriteString(serverBlock)
	if !strings.HasSuffix(serverBlock, "\n") {
		b.WriteString("\n")
	}
	b.WriteString("SKIFF_EOF")
	return p.client.RunScript(ctx, script(b.String()))
}

func (p *Proxy) LinkSite(ctx context.Context, site string) error {
	avail := shellQuote(path.Join(sitesAvailable, site))
	enabled := shellQuote(path.Join(sitesEnabled, site))
	return p.client.RunScript(ctx, script(
		`$SUDO ln -sf `+avail+` `+enabled,
	))
}

func (p *Proxy) UnlinkSite(ctx context.Context, site string) error {
	enabled := shellQuote(path.Join(sitesEnabled, site))
	return p.client.RunScript(ctx, script(
		`$SUDO rm `+enabled,
	))
}

func (p *Proxy) RemoveSiteFile(ctx context.Context, site string) error {
	avail := shellQuote(path.Join(sitesAvailable, site))
	return p.client.RunScript(ctx, script(
		`$SUDO rm `+avail,
	))
}

func (p *Proxy) Validate(ctx context.Context) error {
	return p.client.RunScript(ctx, script(
		`$SUDO nginx -t`,
	))
}

func (p *Proxy) Reload(ctx context.Context) error {
	return p.client.RunScript(ctx, script(
		`$SUDO systemctl reload nginx`,
	))
}

func (p *Proxy) Restart(ctx context.Context) error {
	return p.client.RunScript(ctx, script(
		`$SUDO systemctl restart nginx`,
	))
}
