package deploy

import "fmt"

// ServerBlock renders the reverse-proxy site config for a target. The
// upstream is always the loopback bind of the container's published host
// port; the proxy never talks to the container network directly.
func ServerBlock(t Target) string {
	return fmt.Sprintf(`server {
    listen 80;
    server_name %s;

    location / {
        proxy_pass http://127.0.0.1:%d;
        proxy_set_header Host $host;
        proxy_set_header X-Real-IP $remote_addr;
        proxy_set_header X-Forwarded-For $proxy_add_x_forwarded_for;
        proxy_set_header X-Forwarded-Proto $scheme;
    }
}
`, t.ServerName, t.HostPort)
}
